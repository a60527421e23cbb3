package app

import (
	"github.com/tshalif/estimationtoolsplugin/internal/config"
	"github.com/tshalif/estimationtoolsplugin/internal/utils"
	"github.com/tshalif/estimationtoolsplugin/pkg/burndown"
	"github.com/tshalif/estimationtoolsplugin/pkg/chart"
	"github.com/tshalif/estimationtoolsplugin/pkg/hoursremaining"
	"github.com/tshalif/estimationtoolsplugin/pkg/macro"
	"github.com/tshalif/estimationtoolsplugin/pkg/ticket"
	"github.com/tshalif/estimationtoolsplugin/pkg/workload"
)

// Dependencies holds all services and handlers for the application.
type Dependencies struct {
	TicketRepo ticket.Repository
	Clock      utils.Clock

	ChartRenderer     chart.Renderer
	ChartClient       chart.Client
	ChartProxyHandler *chart.ProxyHandler

	// nil when the estimation field is not configured
	WorkloadService       *workload.ServiceImpl
	WorkloadHandler       *workload.Handler
	HoursRemainingService *hoursremaining.ServiceImpl
	BurndownService       *burndown.ServiceImpl

	MacroRegistry *macro.Registry
	MacroHandler  *macro.Handler
}

// BuildDependencies initializes and wires all application services and handlers. Estimation
// components stay disabled unless the estimation field is a declared custom field.
func BuildDependencies(repo ticket.Repository, cfg config.Application, clock utils.Clock) *Dependencies {
	deps := &Dependencies{}
	deps.TicketRepo = repo
	deps.Clock = clock
	et := cfg.EstimationTools

	deps.ChartRenderer = chart.NewRenderer(et.ServersideCharts, cfg.Chart.ServiceURL, cfg.Host)
	deps.MacroRegistry = macro.NewRegistry()
	deps.MacroHandler = macro.NewHandler(deps.MacroRegistry)

	if et.ComponentEnabled("GoogleChartProxy") {
		deps.ChartClient = chart.NewClient(cfg.Chart.UpstreamURL, cfg.Chart.Timeout)
		deps.ChartProxyHandler = chart.NewProxyHandler(deps.ChartClient)
	}

	if et.ComponentEnabled(workload.MacroName) {
		deps.WorkloadService = workload.NewService(workload.Config{
			EstimationField:  et.EstimationField,
			ClosedStates:     et.ClosedStates,
			EstimationSuffix: et.EstimationSuffix,
			SkipMalformed:    et.SkipMalformed,
		}, repo, deps.ChartRenderer, clock)
		deps.WorkloadHandler = workload.NewHandler(deps.WorkloadService)
		deps.MacroRegistry.Register(deps.WorkloadService)
	}

	if et.ComponentEnabled(hoursremaining.MacroName) {
		deps.HoursRemainingService = hoursremaining.NewService(hoursremaining.Config{
			EstimationField: et.EstimationField,
			ClosedStates:    et.ClosedStates,
		}, repo)
		deps.MacroRegistry.Register(deps.HoursRemainingService)
	}

	if et.ComponentEnabled(burndown.MacroName) {
		deps.BurndownService = burndown.NewService(burndown.Config{
			EstimationField: et.EstimationField,
			ClosedStates:    et.ClosedStates,
		}, repo, deps.ChartRenderer, clock)
		deps.MacroRegistry.Register(deps.BurndownService)
	}

	return deps
}
