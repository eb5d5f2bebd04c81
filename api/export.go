package api

import (
	"bytes"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	"cautiva/ledger"
	"cautiva/models"
	"cautiva/repository"
)

// ExportHandler 导出处理器
type ExportHandler struct {
	txs    TransactionLister
	audits *repository.AuditRepository
	loc    *time.Location
}

// NewExportHandler 创建导出处理器，audits 为 nil 时不导出审计页
func NewExportHandler(txs TransactionLister, audits *repository.AuditRepository, loc *time.Location) *ExportHandler {
	if loc == nil {
		loc = time.Local
	}
	return &ExportHandler{txs: txs, audits: audits, loc: loc}
}

const (
	sheetTransactions = "Transacciones"
	sheetAudit        = "Auditoría"
	dateLayout        = "2006-01-02 15:04:05"
)

func borderedStyle() []excelize.Border {
	return []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
	}
}

type workbookStyles struct {
	header, data, amount, summary int
}

func newStyles(f *excelize.File) (workbookStyles, error) {
	var s workbookStyles
	var err error
	if s.header, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 12, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"10B981"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    borderedStyle(),
	}); err != nil {
		return s, err
	}
	if s.data, err = f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Vertical: "center"},
		Border:    borderedStyle(),
	}); err != nil {
		return s, err
	}
	if s.amount, err = f.NewStyle(&excelize.Style{
		NumFmt: 4, // #,##0.00
		Border: borderedStyle(),
	}); err != nil {
		return s, err
	}
	s.summary, err = f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true, Size: 11},
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"FFC000"}, Pattern: 1},
		Border: borderedStyle(),
	})
	return s, err
}

func writeHeader(f *excelize.File, sheet string, headers []string, style int) {
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
		f.SetCellStyle(sheet, cell, cell, style)
	}
}

// BuildWorkbook 生成交易与审计工作簿
func BuildWorkbook(txs []models.Transaction, audits []models.AuditRecord, loc *time.Location) (*excelize.File, error) {
	f := excelize.NewFile()
	f.SetSheetName("Sheet1", sheetTransactions)

	styles, err := newStyles(f)
	if err != nil {
		f.Close()
		return nil, err
	}

	sheet := sheetTransactions
	f.SetColWidth(sheet, "A", "A", 38)
	f.SetColWidth(sheet, "B", "B", 12)
	f.SetColWidth(sheet, "C", "C", 18)
	f.SetColWidth(sheet, "D", "D", 36)
	f.SetColWidth(sheet, "E", "E", 15)
	f.SetColWidth(sheet, "F", "F", 20)
	writeHeader(f, sheet, []string{"ID", "Tipo", "Categoría", "Descripción", "Monto", "Fecha"}, styles.header)

	for i, tx := range txs {
		row := i + 2
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), tx.ID)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), tx.Type.Label())
		f.SetCellValue(sheet, fmt.Sprintf("C%d", row), models.CategoryLabel(tx.Category))
		f.SetCellValue(sheet, fmt.Sprintf("D%d", row), tx.DisplayDescription())
		f.SetCellValue(sheet, fmt.Sprintf("E%d", row), tx.Signed().InexactFloat64())
		f.SetCellValue(sheet, fmt.Sprintf("F%d", row), tx.Date.In(loc).Format(dateLayout))
		f.SetCellStyle(sheet, fmt.Sprintf("A%d", row), fmt.Sprintf("D%d", row), styles.data)
		f.SetCellStyle(sheet, fmt.Sprintf("E%d", row), fmt.Sprintf("E%d", row), styles.amount)
		f.SetCellStyle(sheet, fmt.Sprintf("F%d", row), fmt.Sprintf("F%d", row), styles.data)
	}

	summaryRow := len(txs) + 2
	f.SetCellValue(sheet, fmt.Sprintf("A%d", summaryRow), "Saldo")
	f.MergeCell(sheet, fmt.Sprintf("A%d", summaryRow), fmt.Sprintf("D%d", summaryRow))
	f.SetCellValue(sheet, fmt.Sprintf("E%d", summaryRow), ledger.Balance(txs).InexactFloat64())
	f.SetCellValue(sheet, fmt.Sprintf("F%d", summaryRow), fmt.Sprintf("%d transacciones", len(txs)))
	f.SetCellStyle(sheet, fmt.Sprintf("A%d", summaryRow), fmt.Sprintf("F%d", summaryRow), styles.summary)

	if audits != nil {
		if _, err := f.NewSheet(sheetAudit); err != nil {
			f.Close()
			return nil, err
		}
		sheet = sheetAudit
		f.SetColWidth(sheet, "A", "A", 8)
		f.SetColWidth(sheet, "B", "C", 22)
		f.SetColWidth(sheet, "D", "D", 20)
		f.SetColWidth(sheet, "E", "F", 48)
		writeHeader(f, sheet, []string{"ID", "Usuario", "Acción", "Fecha", "Antes / Eliminado", "Después"}, styles.header)

		for i, rec := range audits {
			row := i + 2
			f.SetCellValue(sheet, fmt.Sprintf("A%d", row), rec.ID)
			f.SetCellValue(sheet, fmt.Sprintf("B%d", row), rec.Usuario)
			f.SetCellValue(sheet, fmt.Sprintf("C%d", row), rec.Accion)
			f.SetCellValue(sheet, fmt.Sprintf("D%d", row), rec.Fecha.In(loc).Format(dateLayout))
			prev := rec.Antes
			if prev == nil {
				prev = rec.Eliminado
			}
			f.SetCellValue(sheet, fmt.Sprintf("E%d", row), describeSnapshot(prev))
			f.SetCellValue(sheet, fmt.Sprintf("F%d", row), describeSnapshot(rec.Despues))
			f.SetCellStyle(sheet, fmt.Sprintf("A%d", row), fmt.Sprintf("F%d", row), styles.data)
		}
	}

	return f, nil
}

func describeSnapshot(s *models.Snapshot) string {
	if s == nil {
		return ""
	}
	return fmt.Sprintf("%s | %s | %s | %s", s.Type.Label(), models.CategoryLabel(s.Category), s.Description, ledger.FormatARS(s.Amount))
}

// ExportExcel 导出 Excel
// @Summary 导出 Excel
// @Description 导出全部交易（含余额汇总行）与审计记录
// @Tags 导出
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Success 200 {file} file "Excel 文件"
// @Failure 403 {object} Response "权限不足"
// @Failure 500 {object} Response "生成失败"
// @Router /api/v1/export/excel [get]
func (h *ExportHandler) ExportExcel(c *gin.Context) {
	ctx := c.Request.Context()
	txs, err := h.txs.List(ctx)
	if err != nil {
		respondError(c, err, "", "Error al cargar las transacciones")
		return
	}

	var audits []models.AuditRecord
	if h.audits != nil {
		if audits, err = h.audits.List(ctx, 0); err != nil {
			respondError(c, err, "", "Error al cargar la auditoría")
			return
		}
		if audits == nil {
			audits = []models.AuditRecord{}
		}
	}

	f, err := BuildWorkbook(txs, audits, h.loc)
	if err != nil {
		InternalError(c, SafeErrorMessage(err, "Error al generar el Excel"))
		return
	}
	defer f.Close()

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		InternalError(c, SafeErrorMessage(err, "Error al generar el Excel"))
		return
	}

	filename := fmt.Sprintf("la-cautiva_%s.xlsx", time.Now().In(h.loc).Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(200, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}
