package ticket

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/tshalif/estimationtoolsplugin/internal/test_utils"
)

var pgContainer *postgres.PostgresContainer
var openDb func() *pgxpool.Pool

var customFields = []string{"estimatedhours", "totalhours", "complete", "due_close"}

func TestMain(m *testing.M) {
	pgContainer, openDb = test_utils.TestWithDB()
	code := m.Run()
	if err := testcontainers.TerminateContainer(pgContainer); err != nil {
		log.Errorf("failed to terminate container: %s", err)
	}
	os.Exit(code)
}

func setupTestRepository(t *testing.T) (context.Context, *RepositoryImpl, *pgxpool.Pool) {
	ctx := context.Background()
	db := openDb()
	repository := NewRepository(db, customFields)
	t.Cleanup(func() {
		db.Close()
		err := pgContainer.Restore(ctx)
		require.NoError(t, err)
	})
	return ctx, repository, db
}

func insertTicket(t *testing.T, db *pgxpool.Pool, created time.Time, standard map[string]string, custom map[string]string) int {
	t.Helper()
	id, err := test_utils.InsertTicket(context.Background(), db, test_utils.TicketFixture{Created: created, Fields: standard, Custom: custom})
	require.NoError(t, err)
	return id
}

func TestRepositoryImpl_Query(t *testing.T) {
	created := time.Date(2024, time.January, 2, 10, 0, 0, 0, time.UTC)

	t.Run("should return tickets with custom fields matching the query", func(t *testing.T) {
		// given
		ctx, repo, db := setupTestRepository(t)
		id1 := insertTicket(t, db, created, map[string]string{"owner": "A", "milestone": "m1", "status": "new"},
			map[string]string{"estimatedhours": "10"})
		insertTicket(t, db, created, map[string]string{"owner": "B", "milestone": "m2", "status": "new"},
			map[string]string{"estimatedhours": "20"})
		insertTicket(t, db, created, map[string]string{"owner": "C", "milestone": "m1", "status": "new"}, nil)

		// when
		tickets, err := repo.Query(ctx, NewQuery(map[string]string{"milestone": "m1"}).With(NotEmpty("estimatedhours")))

		// then
		require.NoError(t, err)
		require.Len(t, tickets, 1)
		assert.Equal(t, id1, tickets[0].Id)
		assert.Equal(t, "A", tickets[0].Owner())
		assert.Equal(t, "new", tickets[0].Status())
		assert.Equal(t, "10", tickets[0].Get("estimatedhours"))
		assert.Equal(t, "", tickets[0].Get("totalhours"))
		assert.True(t, created.Equal(tickets[0].Created))
	})

	t.Run("should exclude closed states and match special characters", func(t *testing.T) {
		// given
		ctx, repo, db := setupTestRepository(t)
		insertTicket(t, db, created, map[string]string{"status": "closed", "summary": "Test#One"},
			map[string]string{"estimatedhours": "5"})
		open := insertTicket(t, db, created, map[string]string{"status": "assigned", "summary": "Test#One"},
			map[string]string{"estimatedhours": "5"})

		// when
		tickets, err := repo.Query(ctx, NewQuery(map[string]string{"summary": "Test#One"}).
			With(NotIn("status", []string{"closed"})))

		// then
		require.NoError(t, err)
		require.Len(t, tickets, 1)
		assert.Equal(t, open, tickets[0].Id)
	})
}

func TestRepositoryImpl_GetCompletion(t *testing.T) {
	t.Run("should return completion custom fields", func(t *testing.T) {
		// given
		ctx, repo, db := setupTestRepository(t)
		id := insertTicket(t, db, time.Now(), map[string]string{"status": "new"},
			map[string]string{"totalhours": "4", "complete": "50", "due_close": "2024/01/10"})

		// when
		completion, err := repo.GetCompletion(ctx, id)

		// then
		require.NoError(t, err)
		assert.Equal(t, Completion{TotalHours: "4", Complete: "50", DueClose: "2024/01/10"}, completion)
	})

	t.Run("should return empty completion for unknown ticket", func(t *testing.T) {
		ctx, repo, _ := setupTestRepository(t)

		completion, err := repo.GetCompletion(ctx, 999)

		require.NoError(t, err)
		assert.Equal(t, Completion{}, completion)
	})
}

func TestRepositoryImpl_GetChanges(t *testing.T) {
	t.Run("should return changes of requested fields ordered by time", func(t *testing.T) {
		// given
		ctx, repo, db := setupTestRepository(t)
		id := insertTicket(t, db, time.Now(), map[string]string{"status": "new"}, nil)
		t1 := time.Date(2024, time.January, 3, 0, 0, 0, 0, time.UTC)
		t2 := t1.Add(24 * time.Hour)
		for _, c := range []Change{
			{Field: "status", Time: t2, OldValue: "new", NewValue: "closed"},
			{Field: "estimatedhours", Time: t1, OldValue: "10", NewValue: "5"},
			{Field: "summary", Time: t1, OldValue: "a", NewValue: "b"},
		} {
			err := test_utils.InsertChange(ctx, db, test_utils.ChangeFixture{
				Ticket: id, Time: c.Time, Field: c.Field, OldValue: c.OldValue, NewValue: c.NewValue,
			})
			require.NoError(t, err)
		}

		// when
		changes, err := repo.GetChanges(ctx, id, "estimatedhours", "status")

		// then
		require.NoError(t, err)
		require.Len(t, changes, 2)
		assert.Equal(t, "estimatedhours", changes[0].Field)
		assert.True(t, t1.Equal(changes[0].Time))
		assert.Equal(t, "status", changes[1].Field)
		assert.Equal(t, "closed", changes[1].NewValue)
	})
}

func TestRepositoryImpl_GetMilestone(t *testing.T) {
	t.Run("should return milestone dates", func(t *testing.T) {
		// given
		ctx, repo, db := setupTestRepository(t)
		due := time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)
		require.NoError(t, test_utils.InsertMilestone(ctx, db, "Sprint 1", &due, nil))

		// when
		milestone, err := repo.GetMilestone(ctx, "Sprint 1")

		// then
		require.NoError(t, err)
		require.NotNil(t, milestone.Due)
		assert.True(t, due.Equal(*milestone.Due))
		assert.Nil(t, milestone.Completed)
	})

	t.Run("should return ErrMilestoneNotFound for unknown milestone", func(t *testing.T) {
		ctx, repo, _ := setupTestRepository(t)

		_, err := repo.GetMilestone(ctx, "nope")

		assert.ErrorIs(t, err, ErrMilestoneNotFound)
	})
}
