package services

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go-erp-agent/internal/models"
	"go-erp-agent/internal/store"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCase = cases.Title(language.English)

var salesExportHeaders = []string{
	"Order Number", "Customer", "Order Date", "Delivery Date", "Status",
	"Items", "Subtotal", "Tax", "Total", "Profit", "Created By",
}

// ExportSalesOrders builds a workbook with one row per sales order and a totals row.
func (s *ReportService) ExportSalesOrders(ctx context.Context) (*excelize.File, string, error) {
	orders := s.salesOrders(ctx)

	f := excelize.NewFile()
	sheet := "Sales Orders"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, "", err
	}

	boldStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
	})
	for i, h := range salesExportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
		f.SetCellStyle(sheet, cell, cell, boldStyle)
	}

	row := 2
	for _, o := range orders {
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), o.OrderNumber)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), o.CustomerName)
		f.SetCellValue(sheet, fmt.Sprintf("C%d", row), o.OrderDate)
		f.SetCellValue(sheet, fmt.Sprintf("D%d", row), o.DeliveryDate)
		f.SetCellValue(sheet, fmt.Sprintf("E%d", row), titleCase.String(string(o.Status)))
		f.SetCellValue(sheet, fmt.Sprintf("F%d", row), len(o.Items))
		f.SetCellValue(sheet, fmt.Sprintf("G%d", row), o.Subtotal)
		f.SetCellValue(sheet, fmt.Sprintf("H%d", row), o.Tax)
		f.SetCellValue(sheet, fmt.Sprintf("I%d", row), o.Total)
		f.SetCellValue(sheet, fmt.Sprintf("J%d", row), o.Profit)
		f.SetCellValue(sheet, fmt.Sprintf("K%d", row), o.CreatedBy)
		row++
	}

	revenue, profit := sumSales(orders)
	summaryStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	f.SetCellValue(sheet, fmt.Sprintf("A%d", row), "Total")
	f.SetCellValue(sheet, fmt.Sprintf("F%d", row), fmt.Sprintf("%d orders", len(orders)))
	f.SetCellValue(sheet, fmt.Sprintf("I%d", row), revenue.InexactFloat64())
	f.SetCellValue(sheet, fmt.Sprintf("J%d", row), profit.InexactFloat64())
	f.SetCellStyle(sheet, fmt.Sprintf("A%d", row), fmt.Sprintf("K%d", row), summaryStyle)

	widths := []float64{16, 28, 12, 13, 11, 7, 12, 10, 12, 12, 18}
	for i, w := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheet, col, col, w)
	}

	filename := fmt.Sprintf("sales_orders_%s.xlsx", s.now().Format("20060102"))
	return f, filename, nil
}

// ImportResult reports a product import.
type ImportResult struct {
	Created int      `json:"created"`
	Updated int      `json:"updated"`
	Errors  []string `json:"errors"`
}

var productImportColumns = []string{"code", "name", "category", "unit", "cost price", "sale price", "current stock", "reorder level"}

// ImportProducts reads a workbook whose first sheet has the header row
// Code, Name, Category, Unit, Cost Price, Sale Price, Current Stock, Reorder Level.
// Rows with a known code update that product; others are created. Invalid rows
// are reported and skipped.
func (s *CatalogService) ImportProducts(ctx context.Context, actor Actor, r io.Reader) (*ImportResult, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, invalid("not a readable xlsx file: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, invalid("read sheet: %v", err)
	}
	if len(rows) == 0 {
		return nil, invalid("the sheet is empty")
	}
	col := map[string]int{}
	for i, h := range rows[0] {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, name := range productImportColumns {
		if _, ok := col[name]; !ok {
			return nil, invalid("missing column %q", name)
		}
	}
	cell := func(row []string, name string) string {
		i := col[name]
		if i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	result := &ImportResult{Errors: []string{}}
	var parsed []models.Product
	for n, row := range rows[1:] {
		line := n + 2
		p := models.Product{
			Code:     cell(row, "code"),
			Name:     cell(row, "name"),
			Category: cell(row, "category"),
			Unit:     cell(row, "unit"),
		}
		if p.Code == "" && p.Name == "" {
			continue
		}
		var perr error
		parseFloat := func(name string) float64 {
			v, err := strconv.ParseFloat(cell(row, name), 64)
			if err != nil && perr == nil {
				perr = fmt.Errorf("%s: %q is not a number", name, cell(row, name))
			}
			return v
		}
		parseInt := func(name string) int {
			v, err := strconv.Atoi(cell(row, name))
			if err != nil && perr == nil {
				perr = fmt.Errorf("%s: %q is not a whole number", name, cell(row, name))
			}
			return v
		}
		p.CostPrice = parseFloat("cost price")
		p.SalePrice = parseFloat("sale price")
		p.CurrentStock = parseInt("current stock")
		p.ReorderLevel = parseInt("reorder level")
		if perr == nil {
			perr = validateProduct(p)
		}
		if perr != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", line, perr))
			continue
		}
		parsed = append(parsed, p)
	}

	err = s.store.Update(ctx, []store.Key{store.Products, store.AuditLog}, func(tx store.Tx) error {
		result.Created, result.Updated = 0, 0
		products, err := store.DecodeList[models.Product](tx, store.Products)
		if err != nil {
			return err
		}
		for _, p := range parsed {
			found := false
			for i := range products {
				if strings.EqualFold(products[i].Code, p.Code) {
					p.ID = products[i].ID
					products[i] = p
					found = true
					result.Updated++
					break
				}
			}
			if !found {
				p.ID = "P" + uuid.NewString()
				products = append(products, p)
				result.Created++
			}
		}
		if err := store.EncodeList(tx, store.Products, products); err != nil {
			return err
		}
		return s.appendAudit(tx, actor, "import", "product", "",
			fmt.Sprintf("%d created, %d updated", result.Created, result.Updated))
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("products imported",
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
		zap.Int("rejected", len(result.Errors)),
		zap.String("by", actor.displayName()))
	return result, nil
}
