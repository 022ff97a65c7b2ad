package ai

import (
	"context"
	"fmt"

	"go-erp-agent/internal/services"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
)

type simpleProduct struct {
	ID           string  `json:"id"`
	Code         string  `json:"code"`
	Name         string  `json:"name"`
	Category     string  `json:"category"`
	Stock        int     `json:"stock"`
	ReorderLevel int     `json:"reorder_level"`
	Cost         float64 `json:"cost"`
	Price        float64 `json:"price"`
}

// execute runs one tool call. Failures are reported back to the model as
// {"error": ...} rather than ending the conversation.
func (a *Agent) execute(ctx context.Context, actor services.Actor, call genai.FunctionCall) map[string]any {
	out, err := a.runTool(ctx, actor, call.Name, call.Args)
	a.metrics.ToolCalled(call.Name, err == nil)
	if err != nil {
		a.log.Info("assistant tool failed", zap.String("tool", call.Name), zap.Error(err))
		return map[string]any{"error": err.Error()}
	}
	a.log.Debug("assistant tool ran", zap.String("tool", call.Name))
	return out
}

func (a *Agent) runTool(ctx context.Context, actor services.Actor, name string, args map[string]any) (map[string]any, error) {
	switch name {
	case "check_inventory":
		search, _ := args["search"].(string)
		products := a.svc.Catalog.ListProducts(ctx, search)
		list := make([]simpleProduct, 0, len(products))
		for _, p := range products {
			list = append(list, simpleProduct{
				ID: p.ID, Code: p.Code, Name: p.Name, Category: p.Category,
				Stock: p.CurrentStock, ReorderLevel: p.ReorderLevel, Cost: p.CostPrice, Price: p.SalePrice,
			})
		}
		return map[string]any{"inventory": list}, nil

	case "low_stock_report":
		low := a.svc.Stock.LowStock(ctx)
		list := make([]simpleProduct, 0, len(low))
		for _, p := range low {
			list = append(list, simpleProduct{
				ID: p.ID, Code: p.Code, Name: p.Name, Category: p.Category,
				Stock: p.CurrentStock, ReorderLevel: p.ReorderLevel, Cost: p.CostPrice, Price: p.SalePrice,
			})
		}
		return map[string]any{"low_stock": list, "count": len(list)}, nil

	case "update_product_price":
		id := stringArg(args["product_id"])
		name, _ := args["product_name"].(string)
		price, ok := args["new_price"].(float64)
		if (id == "" && name == "") || !ok {
			return nil, fmt.Errorf("product_id or product_name, and new_price are required")
		}
		if id == "" {
			found, err := a.svc.Catalog.FindProductByName(ctx, name)
			if err != nil {
				return nil, err
			}
			id = found.ID
		}
		p, err := a.svc.Catalog.UpdateProduct(ctx, actor, id, services.ProductPatch{SalePrice: &price})
		if err != nil {
			return nil, err
		}
		return map[string]any{"status": "Success", "product": p.Name, "new_price": p.SalePrice}, nil

	case "get_sales_report":
		start, _ := args["start_date"].(string)
		end, _ := args["end_date"].(string)
		report, err := a.svc.Reports.SalesReport(ctx, start, end)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"revenue":     report.TotalRevenue,
			"profit":      report.TotalProfit,
			"sales_count": report.TotalCount,
			"top_selling": report.TopSelling,
		}, nil
	}
	return nil, fmt.Errorf("unknown tool %q", name)
}

// stringArg accepts ids the model sends as numbers as well as strings.
func stringArg(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return fmt.Sprintf("%.0f", t)
	}
	return ""
}
