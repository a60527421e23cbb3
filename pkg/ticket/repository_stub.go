package ticket

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"time"
)

type RepositoryStub struct {
	nextId      int
	tickets     map[int]Ticket
	completions map[int]Completion
	changes     map[int][]Change
	milestones  map[string]Milestone
}

func NewRepositoryStub() *RepositoryStub {
	s := &RepositoryStub{}
	s.Cleanup()
	return s
}

// AddTicket stores a ticket with the given field values and returns it with its new id.
func (s *RepositoryStub) AddTicket(created time.Time, values map[string]string) Ticket {
	s.nextId++
	t := Ticket{Id: s.nextId, Created: created, Values: map[string]string{"status": "new"}}
	for field, value := range values {
		t.Values[field] = value
	}
	s.tickets[t.Id] = t
	return t
}

func (s *RepositoryStub) SetCompletion(ticketId int, completion Completion) {
	s.completions[ticketId] = completion
}

func (s *RepositoryStub) AddChange(ticketId int, change Change) {
	s.changes[ticketId] = append(s.changes[ticketId], change)
}

func (s *RepositoryStub) AddMilestone(milestone Milestone) {
	s.milestones[milestone.Name] = milestone
}

func (s *RepositoryStub) Query(ctx context.Context, query Query) ([]Ticket, error) {
	ids := make([]int, 0, len(s.tickets))
	for id := range s.tickets {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	var result []Ticket
	for _, id := range ids {
		if query.Matches(s.tickets[id]) {
			result = append(result, s.tickets[id])
		}
	}
	return result, nil
}

func (s *RepositoryStub) GetCompletion(ctx context.Context, ticketId int) (Completion, error) {
	return s.completions[ticketId], nil
}

func (s *RepositoryStub) GetChanges(ctx context.Context, ticketId int, fields ...string) ([]Change, error) {
	var result []Change
	for _, change := range s.changes[ticketId] {
		if slices.Contains(fields, change.Field) {
			result = append(result, change)
		}
	}
	slices.SortStableFunc(result, func(a, b Change) int { return a.Time.Compare(b.Time) })
	return result, nil
}

func (s *RepositoryStub) GetMilestone(ctx context.Context, name string) (Milestone, error) {
	milestone, ok := s.milestones[name]
	if !ok {
		return Milestone{}, fmt.Errorf("couldn't find milestone %s: %w", name, ErrMilestoneNotFound)
	}
	return milestone, nil
}

func (s *RepositoryStub) Cleanup() {
	s.nextId = 0
	s.tickets = make(map[int]Ticket)
	s.completions = make(map[int]Completion)
	s.changes = make(map[int][]Change)
	s.milestones = make(map[string]Milestone)
}
