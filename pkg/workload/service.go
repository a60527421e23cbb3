package workload

import (
	"context"

	"github.com/tshalif/estimationtoolsplugin/internal/utils"
	"github.com/tshalif/estimationtoolsplugin/pkg/chart"
	"github.com/tshalif/estimationtoolsplugin/pkg/macro"
	"github.com/tshalif/estimationtoolsplugin/pkg/ticket"
	log "github.com/sirupsen/logrus"
)

type Result struct {
	Spec  ChartSpec
	Image chart.Image
}

type Service interface {
	macro.Macro
	Chart(ctx context.Context, content string) (Result, error)
}

type ServiceImpl struct {
	cfg        Config
	repo       ticket.Repository
	renderer   chart.Renderer
	clock      utils.Clock
	aggregator Aggregator
}

func NewService(cfg Config, repo ticket.Repository, renderer chart.Renderer, clock utils.Clock) *ServiceImpl {
	return &ServiceImpl{
		cfg:        cfg,
		repo:       repo,
		renderer:   renderer,
		clock:      clock,
		aggregator: NewAggregator(cfg),
	}
}

func (s *ServiceImpl) Name() string {
	return MacroName
}

// Expand renders the workload pie chart as an <img> element.
func (s *ServiceImpl) Expand(ctx context.Context, content string) (string, error) {
	result, err := s.Chart(ctx, content)
	if err != nil {
		return "", err
	}
	return result.Image.HTML(), nil
}

// Chart parses the macro arguments, queries the matching tickets and aggregates them.
func (s *ServiceImpl) Chart(ctx context.Context, content string) (Result, error) {
	args := macro.ParseArgs(content)
	dates, err := macro.ResolveDates(ctx, args, s.repo, s.clock)
	if err != nil {
		return Result{}, err
	}
	options, queryArgs := args.Split()
	opts, err := ParseOptions(options, dates)
	if err != nil {
		return Result{}, err
	}

	query := ticket.NewQuery(queryArgs).With(ticket.NotEmpty(s.cfg.EstimationField))
	tickets, err := s.repo.Query(ctx, query)
	if err != nil {
		log.Errorf("WorkloadChart: ticket query failed: %v", err)
		return Result{}, err
	}

	spec, err := s.aggregator.Compute(ctx, opts, tickets, s.repo)
	if err != nil {
		return Result{}, err
	}

	params := spec.Params()
	log.Debugf("WorkloadChart data: %s", params.Encode())
	return Result{Spec: spec, Image: s.renderer.Image(ChartName, params)}, nil
}
