package app

import (
	"github.com/gorilla/mux"
	"github.com/tshalif/estimationtoolsplugin/pkg/chart"
)

// RegisterRoutes registers all API endpoints. Disabled components get no routes.
func RegisterRoutes(r *mux.Router, deps *Dependencies) {

	// Chart proxy
	if deps.ChartProxyHandler != nil {
		r.HandleFunc(chart.ProxyPath, deps.ChartProxyHandler.GetChart).Methods("GET")
	}

	// Macros
	r.HandleFunc("/api/macro", deps.MacroHandler.List).Methods("GET")
	r.HandleFunc("/api/macro/{name}", deps.MacroHandler.Expand).Methods("GET")

	// Workload
	if deps.WorkloadHandler != nil {
		r.HandleFunc("/api/workload", deps.WorkloadHandler.GetWorkload).Methods("GET")
	}
}
