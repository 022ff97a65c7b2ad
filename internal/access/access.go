// Package access decides which pages a role may open and what its menu shows.
package access

import (
	"strings"

	"go-erp-agent/internal/models"
)

type MenuItem struct {
	Label string `json:"label"`
	Href  string `json:"href"`
}

var menus = map[models.Role][]MenuItem{
	models.RoleAdmin: {
		{"Dashboard", "/dashboard/admin"},
		{"User Management", "/users"},
		{"Sales Orders", "/sales"},
		{"Purchase Orders", "/procurement"},
		{"Inventory", "/inventory"},
		{"Finance", "/finance"},
		{"Reports", "/reports"},
		{"Settings", "/settings"},
	},
	models.RoleManager: {
		{"Dashboard", "/dashboard/manager"},
		{"Sales Orders", "/sales"},
		{"Purchase Orders", "/procurement"},
		{"Inventory", "/inventory"},
		{"Finance", "/finance"},
		{"Reports", "/reports"},
	},
	models.RoleSales: {
		{"Dashboard", "/dashboard/sales"},
		{"My Orders", "/sales"},
		{"Customers", "/sales/customers"},
		{"Create Order", "/sales/create"},
	},
	models.RoleProcurement: {
		{"Dashboard", "/dashboard/procurement"},
		{"Purchase Orders", "/procurement"},
		{"Suppliers", "/procurement/suppliers"},
		{"Create PO", "/procurement/create"},
		{"Inventory", "/inventory"},
	},
	models.RoleWarehouse: {
		{"Dashboard", "/dashboard/warehouse"},
		{"Stock In", "/warehouse/stock-in"},
		{"Stock Out", "/warehouse/stock-out"},
		{"Inventory", "/inventory"},
		{"Stock Movements", "/warehouse/movements"},
	},
	models.RoleFinance: {
		{"Dashboard", "/dashboard/finance"},
		{"Overview", "/finance"},
		{"Profit Analysis", "/finance/profit"},
		{"Cost Reports", "/finance/costing"},
		{"Reports", "/reports"},
	},
}

// Pages the gate knows about.
const (
	PageUsers                = "/users"
	PageSales                = "/sales"
	PageSalesCreate          = "/sales/create"
	PageSalesCustomers       = "/sales/customers"
	PageSalesDetail          = "/sales/:id"
	PageProcurement          = "/procurement"
	PageProcurementCreate    = "/procurement/create"
	PageProcurementSuppliers = "/procurement/suppliers"
	PageInventory            = "/inventory"
	PageInventoryManage      = "/inventory/manage"
	PageWarehouseStockIn     = "/warehouse/stock-in"
	PageWarehouseStockOut    = "/warehouse/stock-out"
	PageWarehouseMovements   = "/warehouse/movements"
	PageFinance              = "/finance"
	PageFinanceProfit        = "/finance/profit"
	PageFinanceCosting       = "/finance/costing"
	PageReports              = "/reports"
	PageSettings             = "/settings"
	PageAssistant            = "/assistant"
	PageLogin                = "/login"
	PageUnauthorized         = "/unauthorized"
	dashboardPrefix          = "/dashboard/"
)

var (
	salesDesk       = []models.Role{models.RoleAdmin, models.RoleManager, models.RoleSales}
	procurementDesk = []models.Role{models.RoleAdmin, models.RoleManager, models.RoleProcurement}
	warehouseDesk   = []models.Role{models.RoleAdmin, models.RoleWarehouse}
	reportDesk      = []models.Role{models.RoleAdmin, models.RoleManager, models.RoleFinance}
	adminOnly       = []models.Role{models.RoleAdmin}
	financeOnly     = []models.Role{models.RoleFinance}
	inventoryDesk   = []models.Role{models.RoleAdmin, models.RoleManager, models.RoleWarehouse}
)

var pages = map[string][]models.Role{
	PageUsers:                adminOnly,
	PageSettings:             adminOnly,
	PageAssistant:            adminOnly,
	PageSales:                salesDesk,
	PageSalesCreate:          salesDesk,
	PageSalesCustomers:       salesDesk,
	PageSalesDetail:          salesDesk,
	PageProcurement:          procurementDesk,
	PageProcurementCreate:    procurementDesk,
	PageProcurementSuppliers: procurementDesk,
	PageInventoryManage:      inventoryDesk,
	PageInventory: {
		models.RoleAdmin, models.RoleManager, models.RoleSales, models.RoleProcurement, models.RoleWarehouse,
	},
	PageWarehouseStockIn:   warehouseDesk,
	PageWarehouseStockOut:  warehouseDesk,
	PageWarehouseMovements: warehouseDesk,
	PageFinance:            reportDesk,
	PageReports:            reportDesk,
	PageFinanceProfit:      financeOnly,
	PageFinanceCosting:     financeOnly,
}

// Decision is the outcome of a gate check.
type Decision int

const (
	Allow Decision = iota
	RedirectLogin
	RedirectUnauthorized
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case RedirectLogin:
		return "redirect_login"
	case RedirectUnauthorized:
		return "redirect_unauthorized"
	}
	return "unknown"
}

// Redirect is where a client is sent for this decision, "" for Allow.
func (d Decision) Redirect() string {
	switch d {
	case RedirectLogin:
		return PageLogin
	case RedirectUnauthorized:
		return PageUnauthorized
	}
	return ""
}

// Menu returns the navigation entries for a role. Unknown roles get none.
func Menu(role models.Role) []MenuItem {
	items := menus[role]
	out := make([]MenuItem, len(items))
	copy(out, items)
	return out
}

// Home is the dashboard a role lands on after login.
func Home(role models.Role) string {
	return dashboardPrefix + string(role)
}

// AllowedRoles returns the roles that may open page. Dashboards belong to
// their role alone. ok is false for pages the gate does not know.
func AllowedRoles(page string) (roles []models.Role, ok bool) {
	if strings.HasPrefix(page, dashboardPrefix) {
		r := models.Role(strings.TrimPrefix(page, dashboardPrefix))
		if !r.Valid() {
			return nil, false
		}
		return []models.Role{r}, true
	}
	roles, ok = pages[page]
	return roles, ok
}

// Authorize decides whether a session may open a page guarded by allowed.
// A nil allowed list admits any signed-in user.
func Authorize(sess *models.Session, allowed []models.Role) Decision {
	if sess == nil {
		return RedirectLogin
	}
	if allowed == nil {
		return Allow
	}
	for _, r := range allowed {
		if r == sess.Role {
			return Allow
		}
	}
	return RedirectUnauthorized
}

// AuthorizePage is Authorize against the page table. Unknown pages are
// treated as unauthorized for everyone.
func AuthorizePage(sess *models.Session, page string) Decision {
	if sess == nil {
		return RedirectLogin
	}
	allowed, ok := AllowedRoles(page)
	if !ok {
		return RedirectUnauthorized
	}
	return Authorize(sess, allowed)
}
