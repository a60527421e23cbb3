package ticket

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseConstraint(t *testing.T) {
	tests := []struct {
		name string
		key  string
		want Constraint
	}{
		{"equals", "milestone", Constraint{Field: "milestone", Mode: Equals, Values: []string{"Sprint 1"}}},
		{"not equals", "status!", Constraint{Field: "status", Mode: Equals, Negate: true, Values: []string{"Sprint 1"}}},
		{"contains", "summary~", Constraint{Field: "summary", Mode: Contains, Values: []string{"Sprint 1"}}},
		{"not contains", "summary!~", Constraint{Field: "summary", Mode: Contains, Negate: true, Values: []string{"Sprint 1"}}},
		{"starts with", "keywords^", Constraint{Field: "keywords", Mode: StartsWith, Values: []string{"Sprint 1"}}},
		{"ends with", "keywords$", Constraint{Field: "keywords", Mode: EndsWith, Values: []string{"Sprint 1"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseConstraint(tt.key, "Sprint 1"))
		})
	}
}

func TestNewQuery(t *testing.T) {
	t.Run("should split alternatives and drop meta keys", func(t *testing.T) {
		q := NewQuery(map[string]string{
			"milestone": "Sprint 1|Sprint 2",
			"max":       "0",
			"order":     "id",
		})

		assert.Equal(t, []Constraint{
			{Field: "milestone", Mode: Equals, Values: []string{"Sprint 1", "Sprint 2"}},
		}, q.Constraints)
	})

	t.Run("should keep query arguments immutable when adding constraints", func(t *testing.T) {
		q := NewQuery(map[string]string{"milestone": "m1"})

		extended := q.With(NotEmpty("estimatedhours"))

		assert.Len(t, q.Constraints, 1)
		assert.Len(t, extended.Constraints, 2)
	})
}

func TestQuery_Matches(t *testing.T) {
	ticket := Ticket{Id: 1, Values: map[string]string{
		"milestone":      "Sprint 1",
		"status":         "assigned",
		"summary":        "Test#One",
		"estimatedhours": "10",
		"totalhours":     "",
	}}

	tests := []struct {
		name  string
		query Query
		want  bool
	}{
		{"equal value", NewQuery(map[string]string{"milestone": "Sprint 1"}), true},
		{"one of alternatives", NewQuery(map[string]string{"milestone": "Sprint 2|Sprint 1"}), true},
		{"different value", NewQuery(map[string]string{"milestone": "Sprint 2"}), false},
		{"not in closed states", Query{}.With(NotIn("status", []string{"closed", "verified"})), true},
		{"in closed states", Query{}.With(NotIn("status", []string{"closed", "assigned"})), false},
		{"non-empty field", Query{}.With(NotEmpty("estimatedhours")), true},
		{"empty field", Query{}.With(NotEmpty("totalhours")), false},
		{"missing field is empty", Query{}.With(NotEmpty("due_close")), false},
		{"contains is case-insensitive", NewQuery(map[string]string{"summary~": "one"}), true},
		{"starts with", NewQuery(map[string]string{"summary^": "test"}), true},
		{"ends with", NewQuery(map[string]string{"summary$": "two"}), false},
		{"special characters", NewQuery(map[string]string{"summary": "Test#One"}), true},
		{"all constraints must match", NewQuery(map[string]string{"milestone": "Sprint 1", "status": "closed"}), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.query.Matches(ticket))
		})
	}
}

func TestRepositoryImpl_buildQuery(t *testing.T) {
	t.Run("should join custom fields and bind every value", func(t *testing.T) {
		repo := NewRepository(nil, []string{"estimatedhours"})
		q := NewQuery(map[string]string{"milestone": "Sprint 1|Sprint 2", "summary~": "50%"}).
			With(NotEmpty("estimatedhours"))

		sql, args := repo.buildQuery(q)

		assert.Contains(t, sql, "LEFT JOIN ticket_custom c0 ON (c0.ticket = t.id AND c0.name = $1)")
		assert.Contains(t, sql, "(COALESCE(t.milestone, '') = $2 OR COALESCE(t.milestone, '') = $3)")
		assert.Contains(t, sql, "(COALESCE(t.summary, '') ILIKE $4)")
		assert.Contains(t, sql, "NOT (COALESCE(c0.value, '') = $5)")
		assert.Equal(t, []any{"estimatedhours", "Sprint 1", "Sprint 2", `%50\%%`, ""}, args)
	})

	t.Run("should ignore unknown fields", func(t *testing.T) {
		repo := NewRepository(nil, nil)

		sql, args := repo.buildQuery(NewQuery(map[string]string{"nosuchfield": "x"}))

		assert.NotContains(t, sql, "WHERE")
		assert.Empty(t, args)
	})
}
