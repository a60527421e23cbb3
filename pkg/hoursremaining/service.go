package hoursremaining

import (
	"context"
	"strconv"
	"strings"

	"github.com/tshalif/estimationtoolsplugin/pkg/macro"
	"github.com/tshalif/estimationtoolsplugin/pkg/ticket"
	"github.com/tshalif/estimationtoolsplugin/pkg/workload"
	log "github.com/sirupsen/logrus"
)

const MacroName = "HoursRemaining"

type Config struct {
	EstimationField string
	ClosedStates    []string
}

// ServiceImpl sums the estimations of the open tickets matching a query.
type ServiceImpl struct {
	cfg  Config
	repo ticket.Repository
}

func NewService(cfg Config, repo ticket.Repository) *ServiceImpl {
	return &ServiceImpl{cfg: cfg, repo: repo}
}

func (s *ServiceImpl) Name() string {
	return MacroName
}

func (s *ServiceImpl) Expand(ctx context.Context, content string) (string, error) {
	sum, err := s.Sum(ctx, content)
	if err != nil {
		return "", err
	}
	return workload.FormatHours(sum), nil
}

// Sum ignores estimations that are not numbers.
func (s *ServiceImpl) Sum(ctx context.Context, content string) (float64, error) {
	query := ticket.NewQuery(macro.ParseArgs(content)).
		With(ticket.NotEmpty(s.cfg.EstimationField)).
		With(ticket.NotIn("status", s.cfg.ClosedStates))

	tickets, err := s.repo.Query(ctx, query)
	if err != nil {
		log.Errorf("HoursRemaining: ticket query failed: %v", err)
		return 0, err
	}

	sum := 0.0
	for _, t := range tickets {
		estimation, err := strconv.ParseFloat(strings.TrimSpace(t.Get(s.cfg.EstimationField)), 64)
		if err != nil {
			log.Debugf("HoursRemaining: ignoring estimation %q of ticket #%d", t.Get(s.cfg.EstimationField), t.Id)
			continue
		}
		sum += estimation
	}
	return sum, nil
}
