// Package e2e drives the lead API end to end in process: the view
// synchronizer talks to the real router over HTTP, backed by the
// Postgres store (sqlmock) behind the Redis list cache (miniredis).
package e2e

import (
	"context"
	"errors"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"lead-crm/internal/common/logger"
	"lead-crm/internal/leads/api"
	"lead-crm/internal/leads/client"
	"lead-crm/internal/leads/service"
	"lead-crm/internal/leads/store"
	"lead-crm/internal/models"
	"lead-crm/internal/view"
	"lead-crm/pkg/catalog"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var leadColumns = []string{
	"id", "name", "phone", "alt_phone", "email", "alt_email",
	"status", "qualification", "interest_field", "source", "assigned_to", "job_interest",
	"state", "city", "passout_year", "heard_from", "created_at", "updated_at",
}

type stack struct {
	mock sqlmock.Sqlmock
	mr   *miniredis.Miniredis
	sync *view.Synchronizer
}

func newStack(t *testing.T) *stack {
	t.Helper()
	log := logger.NewTestLogger(t)

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	st := store.NewCachedStore(store.NewPostgresStore(db, log), rdb, time.Minute, log)
	svc := service.New(st, catalog.Default(), service.Options{Logger: log})

	srv := httptest.NewServer(api.NewRouter(api.Deps{Service: svc, Logger: log}))
	t.Cleanup(srv.Close)

	sync := view.NewSynchronizer(client.New(srv.URL, 5*time.Second), view.Options{
		Logger:   log,
		Location: time.UTC,
	})
	return &stack{mock: mock, mr: mr, sync: sync}
}

func row(rows *sqlmock.Rows, id, name, email, status, source string, ts time.Time) *sqlmock.Rows {
	return rows.AddRow(
		id, name, "555-0100", "", email, "",
		status, "Bachelors", "Web Development", source, "John Doe", "Select job interest",
		"", "", "", "", ts, ts,
	)
}

func TestLeadLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newStack(t)
	older := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	newer := time.Date(2024, 3, 2, 16, 45, 0, 0, time.UTC)

	// 1. Initial load hits Postgres and fills the cache.
	s.mock.ExpectQuery(regexp.QuoteMeta("FROM leads ORDER BY created_at DESC")).
		WillReturnRows(row(sqlmock.NewRows(leadColumns), "lead-a", "Ana Silva", "ana@example.com", "Contacted", "Referral", older))

	require.NoError(t, s.sync.OnLoad(ctx))
	require.Len(t, s.sync.Leads(), 1)
	assert.True(t, s.mr.Exists(store.ListCacheKey))

	// 2. A second load is served from Redis without touching Postgres.
	require.NoError(t, s.sync.OnLoad(ctx))
	require.Len(t, s.sync.Leads(), 1)

	// 3. Create goes through validation, the duplicate check and the insert,
	// then the list is refetched from Postgres because the cache was dropped.
	s.mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM leads WHERE email = $1)")).
		WithArgs("bob@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	s.mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO leads")).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(newer, newer))
	s.mock.ExpectQuery(regexp.QuoteMeta("FROM leads ORDER BY created_at DESC")).
		WillReturnRows(row(
			row(sqlmock.NewRows(leadColumns), "lead-b", "Bob Stone", "bob@example.com", "New", "Website", newer),
			"lead-a", "Ana Silva", "ana@example.com", "Contacted", "Referral", older,
		))

	created, err := s.sync.CreateLead(ctx, models.CreateLeadRequest{
		Name:  "Bob Stone",
		Phone: "555-0100",
		Email: "Bob@Example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "Bob Stone", created.Name)
	assert.Equal(t, "New", created.Status)
	assert.Equal(t, "03/02/2024", created.UpdatedDate)
	assert.Equal(t, "04:45 PM", created.UpdatedTime)

	leads := s.sync.Leads()
	require.Len(t, leads, 2)
	assert.Equal(t, "Bob Stone", leads[0].Name)

	// 4. Filters and search narrow the list locally.
	s.sync.OnFilterChange(view.FilterSet{MatchType: view.MatchAll, Source: "Referral"})
	require.Len(t, s.sync.Filtered(), 1)
	assert.Equal(t, "Ana Silva", s.sync.Filtered()[0].Name)

	s.sync.OnFilterChange(view.FilterSet{MatchType: view.MatchAny, Source: "Referral", Status: "New"})
	assert.Len(t, s.sync.Filtered(), 2)

	s.sync.OnSearchChange("stone")
	require.Len(t, s.sync.Filtered(), 1)
	assert.Equal(t, "Bob Stone", s.sync.Filtered()[0].Name)

	// 5. A duplicate e-mail is rejected and nothing changes locally.
	s.mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM leads WHERE email = $1)")).
		WithArgs("ana@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	_, err = s.sync.CreateLead(ctx, models.CreateLeadRequest{
		Name:  "Ana Again",
		Phone: "555-0199",
		Email: "ana@example.com",
	})
	var rejected *view.RejectedError
	require.True(t, errors.As(err, &rejected))
	assert.Equal(t, "A lead with this email already exists", rejected.Message)
	assert.Len(t, s.sync.Leads(), 2)

	require.NoError(t, s.mock.ExpectationsWereMet())
}

func TestCreate_ValidationErrorsReachTheView(t *testing.T) {
	s := newStack(t)

	_, err := s.sync.CreateLead(context.Background(), models.CreateLeadRequest{
		Name:   "Cara",
		Phone:  "555-0102",
		Email:  "cara@example.com",
		Status: "Lost",
	})

	var rejected *view.RejectedError
	require.True(t, errors.As(err, &rejected))
	assert.Equal(t, "Validation Error", rejected.Message)
	assert.NotEmpty(t, rejected.Errors)
	assert.Empty(t, s.sync.Leads())
	require.NoError(t, s.mock.ExpectationsWereMet())
}

func TestLoad_DatabaseFailureKeepsState(t *testing.T) {
	ctx := context.Background()
	s := newStack(t)
	ts := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	s.mock.ExpectQuery(regexp.QuoteMeta("FROM leads ORDER BY created_at DESC")).
		WillReturnRows(row(sqlmock.NewRows(leadColumns), "lead-a", "Ana Silva", "ana@example.com", "New", "Website", ts))
	require.NoError(t, s.sync.OnLoad(ctx))

	s.mr.FlushAll()
	s.mock.ExpectQuery(regexp.QuoteMeta("FROM leads ORDER BY created_at DESC")).
		WillReturnError(errors.New("connection reset"))

	err := s.sync.OnLoad(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, view.ErrLoadFailed)
	assert.Len(t, s.sync.Leads(), 1)
	require.NoError(t, s.mock.ExpectationsWereMet())
}
