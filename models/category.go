package models

// Category 交易类别
type Category struct {
	Value string `json:"value"`
	Label string `json:"label"`
	Color string `json:"color"`
}

var depositCategories = []Category{
	{Value: "cuota", Label: "Cuota Mensual", Color: "bg-emerald-100 text-emerald-800"},
	{Value: "donacion", Label: "Donación", Color: "bg-pink-100 text-pink-800"},
	{Value: "subvencion", Label: "Subvención", Color: "bg-indigo-100 text-indigo-800"},
	{Value: "evento", Label: "Evento", Color: "bg-yellow-100 text-yellow-800"},
	{Value: "viajes", Label: "Viajes", Color: "bg-blue-100 text-blue-800"},
	{Value: "otros_ingresos", Label: "Otros Ingresos", Color: "bg-teal-100 text-teal-800"},
}

var expenseCategories = []Category{
	{Value: "viajes", Label: "Viajes", Color: "bg-blue-100 text-blue-800"},
	{Value: "mantenimiento", Label: "Mantenimiento", Color: "bg-orange-100 text-orange-800"},
	{Value: "limpieza", Label: "Limpieza", Color: "bg-green-100 text-green-800"},
	{Value: "construccion", Label: "Construcción", Color: "bg-purple-100 text-purple-800"},
	{Value: "otros", Label: "Otros", Color: "bg-gray-100 text-gray-800"},
}

// GetCategories 获取某类型下的全部类别
func GetCategories(t TransactionType) []Category {
	src := expenseCategories
	if t == TypeDeposit {
		src = depositCategories
	}
	out := make([]Category, len(src))
	copy(out, src)
	return out
}

// IsValidCategory 类别是否属于该交易类型
func IsValidCategory(t TransactionType, value string) bool {
	for _, c := range GetCategories(t) {
		if c.Value == value {
			return true
		}
	}
	return false
}

// CategoryLabel 类别显示名称，未知类别原样返回
func CategoryLabel(value string) string {
	for _, c := range depositCategories {
		if c.Value == value {
			return c.Label
		}
	}
	for _, c := range expenseCategories {
		if c.Value == value {
			return c.Label
		}
	}
	return value
}
