// Package ledger 余额与月度汇总，全部是纯函数
package ledger

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"cautiva/models"
)

// MonthLayout 月份键格式
const MonthLayout = "2006-01"

var monthNames = [...]string{
	"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

// MonthOption 月份选项
type MonthOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Aggregate 某月的收支汇总
type Aggregate struct {
	Month        string               `json:"month"`
	Income       decimal.Decimal      `json:"income"`
	Expenses     decimal.Decimal      `json:"expenses"`
	Balance      decimal.Decimal      `json:"balance"`
	Count        int                  `json:"count"`
	Transactions []models.Transaction `json:"transactions"`
}

// Slice 饼图分片
type Slice struct {
	Name  string          `json:"name"`
	Value decimal.Decimal `json:"value"`
	Color string          `json:"color"`
}

// Balance 全部存款之和减去全部支出之和，与顺序无关
func Balance(txs []models.Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, tx := range txs {
		total = total.Add(tx.Signed())
	}
	return total
}

// MonthKey 交易在本地时区下的月份键
func MonthKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(MonthLayout)
}

// MonthLabel "octubre de 2026"
func MonthLabel(month string) string {
	start, err := time.Parse(MonthLayout, month)
	if err != nil {
		return month
	}
	return fmt.Sprintf("%s de %d", monthNames[start.Month()-1], start.Year())
}

// MonthOptions 交易涉及的月份加上当前月，倒序；第一个为默认选项
func MonthOptions(txs []models.Transaction, now time.Time, loc *time.Location) []MonthOption {
	keys := map[string]struct{}{MonthKey(now, loc): {}}
	for _, tx := range txs {
		keys[MonthKey(tx.Date, loc)] = struct{}{}
	}

	months := make([]string, 0, len(keys))
	for k := range keys {
		months = append(months, k)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(months)))

	options := make([]MonthOption, len(months))
	for i, m := range months {
		options[i] = MonthOption{Value: m, Label: MonthLabel(m)}
	}
	return options
}

// MonthRange 月份的 [当月第一天 00:00, 次月第一天 00:00)
func MonthRange(month string, loc *time.Location) (time.Time, time.Time, error) {
	start, err := time.ParseInLocation(MonthLayout, strings.TrimSpace(month), loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid month %q: %w", month, err)
	}
	return start, start.AddDate(0, 1, 0), nil
}

// MonthlyAggregate 计算某月的收入、支出与结余，当月最后一秒计入
func MonthlyAggregate(txs []models.Transaction, month string, loc *time.Location) (Aggregate, error) {
	start, end, err := MonthRange(month, loc)
	if err != nil {
		return Aggregate{}, err
	}

	agg := Aggregate{
		Month:        start.Format(MonthLayout),
		Income:       decimal.Zero,
		Expenses:     decimal.Zero,
		Transactions: []models.Transaction{},
	}
	for _, tx := range txs {
		if tx.Date.Before(start) || !tx.Date.Before(end) {
			continue
		}
		switch tx.Type {
		case models.TypeDeposit:
			agg.Income = agg.Income.Add(tx.Amount)
		case models.TypeExpense:
			agg.Expenses = agg.Expenses.Add(tx.Amount)
		}
		agg.Transactions = append(agg.Transactions, tx)
	}
	agg.Count = len(agg.Transactions)
	agg.Balance = agg.Income.Sub(agg.Expenses)
	return agg, nil
}

// ChartSlices 饼图数据，去掉零值；两者都为零时返回占位
func ChartSlices(agg Aggregate) []Slice {
	if agg.Income.IsZero() && agg.Expenses.IsZero() {
		return []Slice{{Name: "Sin datos", Value: decimal.NewFromInt(1), Color: "#e5e7eb"}}
	}

	slices := make([]Slice, 0, 2)
	if agg.Income.IsPositive() {
		slices = append(slices, Slice{Name: "Ingresos", Value: agg.Income, Color: "#10b981"})
	}
	if agg.Expenses.IsPositive() {
		slices = append(slices, Slice{Name: "Gastos", Value: agg.Expenses, Color: "#ef4444"})
	}
	return slices
}

// CountLabel "3 transacciones en este mes"
func CountLabel(n int) string {
	if n == 1 {
		return "1 transacción en este mes"
	}
	return fmt.Sprintf("%d transacciones en este mes", n)
}
