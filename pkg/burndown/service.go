package burndown

import (
	"context"

	"github.com/tshalif/estimationtoolsplugin/internal/utils"
	"github.com/tshalif/estimationtoolsplugin/pkg/chart"
	"github.com/tshalif/estimationtoolsplugin/pkg/macro"
	"github.com/tshalif/estimationtoolsplugin/pkg/ticket"
	log "github.com/sirupsen/logrus"
)

type Result struct {
	Timetable Timetable
	Spec      ChartSpec
	Image     chart.Image
}

type ServiceImpl struct {
	cfg      Config
	repo     ticket.Repository
	renderer chart.Renderer
	clock    utils.Clock
}

func NewService(cfg Config, repo ticket.Repository, renderer chart.Renderer, clock utils.Clock) *ServiceImpl {
	return &ServiceImpl{cfg: cfg, repo: repo, renderer: renderer, clock: clock}
}

func (s *ServiceImpl) Name() string {
	return MacroName
}

func (s *ServiceImpl) Expand(ctx context.Context, content string) (string, error) {
	result, err := s.Chart(ctx, content)
	if err != nil {
		return "", err
	}
	return result.Image.HTML(), nil
}

func (s *ServiceImpl) Chart(ctx context.Context, content string) (Result, error) {
	args := macro.ParseArgs(content)
	dates, err := macro.ResolveDates(ctx, args, s.repo, s.clock)
	if err != nil {
		return Result{}, err
	}
	_, queryArgs := args.Split()
	opts, err := ParseOptions(args, dates)
	if err != nil {
		return Result{}, err
	}

	timetable, err := s.timetable(ctx, opts, queryArgs)
	if err != nil {
		return Result{}, err
	}
	if !opts.Weekends {
		timetable.RemoveWeekends()
	}

	spec, err := Scale(timetable, opts)
	if err != nil {
		return Result{}, err
	}
	params := spec.Params()
	log.Debugf("BurndownChart data: %s", params.Encode())
	return Result{Timetable: timetable, Spec: spec, Image: s.renderer.Image(ChartName, params)}, nil
}

func (s *ServiceImpl) timetable(ctx context.Context, opts Options, queryArgs map[string]string) (Timetable, error) {
	timetable := NewTimetable(opts.StartDate, opts.EndDate)

	query := ticket.NewQuery(queryArgs).With(ticket.NotEmpty(s.cfg.EstimationField))
	tickets, err := s.repo.Query(ctx, query)
	if err != nil {
		log.Errorf("BurndownChart: ticket query failed: %v", err)
		return nil, err
	}

	for _, t := range tickets {
		if err := timetable.Add(ctx, s.cfg, opts, t, s.repo); err != nil {
			log.Errorf("BurndownChart: failed to load history of ticket #%d: %v", t.Id, err)
			return nil, err
		}
	}
	return timetable, nil
}
