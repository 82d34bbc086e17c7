package handler

import "net/http"

// Handlers groups the HTTP handlers served by the API
type Handlers struct {
	Health *HealthHandler
	Groups *GroupHandler
	Tabs   *TabHandler
	Tree   *TreeHandler
}

// NewRouter registers every route on a ServeMux (Go 1.22+ patterns)
func NewRouter(h Handlers) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", h.Health.HealthCheck)

	// Group routes
	mux.HandleFunc("GET /api/groups", h.Groups.ListGroups)
	mux.HandleFunc("POST /api/groups", h.Groups.CreateGroup)
	mux.HandleFunc("GET /api/groups/{id}", h.Groups.GetGroup)
	mux.HandleFunc("GET /api/groups/{id}/tree", h.Tree.GetTree)

	// Tab creation is group-scoped
	mux.HandleFunc("POST /api/groups/{id}/tabs", h.Tabs.CreateTab)
	mux.HandleFunc("POST /api/groups/{id}/tabs/bulk", h.Tabs.CreateTabs)

	// Tab routes
	mux.HandleFunc("PATCH /api/tabs/{id}", h.Tabs.UpdateTab)
	mux.HandleFunc("DELETE /api/tabs/{id}", h.Tabs.DeleteTab)
	mux.HandleFunc("POST /api/tabs/{id}/move", h.Tabs.MoveTab)
	mux.HandleFunc("POST /api/tabs/{id}/reorder", h.Tabs.ReorderTab)

	return mux
}
