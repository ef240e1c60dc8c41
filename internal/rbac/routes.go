package rbac

import "strings"

// Route is a console view gated by one capability.
type Route struct {
	Path       string     `json:"path" yaml:"path"`
	Title      string     `json:"title" yaml:"title"`
	Capability Capability `json:"capability" yaml:"capability"`
	// Section groups routes in the navigation menu.
	Section string `json:"section" yaml:"section"`
}

// Navigation sections.
const (
	SectionOperations     = "Operations"
	SectionMasterData     = "Master Data"
	SectionAdministration = "Administration"
)

// Routes is the console route table in navigation order.
//
// Categories share the suppliers capability because both are master data
// maintained by managers. Warehouses are stock locations and follow inventory.
var Routes = []Route{
	{Path: "/dashboard", Title: "Dashboard", Capability: CapDashboard, Section: SectionOperations},
	{Path: "/products", Title: "Products", Capability: CapProducts, Section: SectionOperations},
	{Path: "/inventory", Title: "Inventory", Capability: CapInventory, Section: SectionOperations},
	{Path: "/warehouses", Title: "Warehouses", Capability: CapInventory, Section: SectionOperations},
	{Path: "/purchase-orders", Title: "Purchase Orders", Capability: CapOrders, Section: SectionOperations},
	{Path: "/sales-orders", Title: "Sales Orders", Capability: CapOrders, Section: SectionOperations},
	{Path: "/categories", Title: "Categories", Capability: CapSuppliers, Section: SectionMasterData},
	{Path: "/suppliers", Title: "Suppliers", Capability: CapSuppliers, Section: SectionMasterData},
	{Path: "/customers", Title: "Customers", Capability: CapCustomers, Section: SectionMasterData},
	{Path: "/users", Title: "Users", Capability: CapUsers, Section: SectionAdministration},
	{Path: "/reports", Title: "Reports", Capability: CapReports, Section: SectionAdministration},
	{Path: "/settings", Title: "Settings", Capability: CapSettings, Section: SectionAdministration},
}

// AllowedRoles returns the roles that may open the route.
func (r Route) AllowedRoles() []Role {
	return AllowedRoles(r.Capability)
}

// Matches reports whether path is the route itself or one of its sub-paths,
// e.g. /products/edit/42 for /products.
func (r Route) Matches(path string) bool {
	return path == r.Path || strings.HasPrefix(path, r.Path+"/")
}

// Lookup finds the route serving path.
func Lookup(path string) (Route, bool) {
	path = "/" + strings.Trim(path, "/")
	for _, r := range Routes {
		if r.Matches(path) {
			return r, true
		}
	}
	return Route{}, false
}

// Visible returns the routes whose capability role holds, in navigation order.
func Visible(role Role) []Route {
	var out []Route
	for _, r := range Routes {
		if Can(role, r.Capability) {
			out = append(out, r)
		}
	}
	return out
}
