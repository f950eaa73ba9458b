// Package store persists leads in PostgreSQL.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"lead-crm/internal/common/database"
	"lead-crm/internal/common/logger"
	"lead-crm/internal/models"

	"github.com/google/uuid"
)

var (
	ErrDuplicateEmail = errors.New("DUPLICATE_LEAD_EMAIL")
	ErrQueryFailed    = errors.New("DATABASE_QUERY_FAILED")
	ErrInsertFailed   = errors.New("DATABASE_INSERT_FAILED")
)

const emailConstraint = "leads_email_key"

//go:embed schema.sql
var schemaDDL string

// Store is the persistence contract the lead service depends on.
type Store interface {
	List(ctx context.Context) ([]models.Lead, error)
	Insert(ctx context.Context, lead *models.Lead) error
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

var leadColumns = []string{
	"id", "name", "phone", "alt_phone", "email", "alt_email",
	"status", "qualification", "interest_field", "source", "assigned_to", "job_interest",
	"state", "city", "passout_year", "heard_from", "created_at", "updated_at",
}

var (
	selectLeadsSQL = fmt.Sprintf(
		"SELECT %s FROM leads ORDER BY created_at DESC",
		strings.Join(leadColumns, ", "),
	)
	insertLeadSQL = fmt.Sprintf(
		"INSERT INTO leads (%s) VALUES (%s) RETURNING created_at, updated_at",
		strings.Join(leadColumns, ", "),
		placeholders(len(leadColumns)),
	)
	existsByEmailSQL = "SELECT EXISTS(SELECT 1 FROM leads WHERE email = $1)"
)

func placeholders(n int) string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("$%d", i+1)
	}
	return strings.Join(out, ", ")
}

// PostgresStore implements Store on a *sql.DB.
type PostgresStore struct {
	db     *sql.DB
	logger logger.Logger
	now    func() time.Time
}

func NewPostgresStore(db *sql.DB, log logger.Logger) *PostgresStore {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &PostgresStore{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"component": "lead-store"}),
		now:    time.Now,
	}
}

// EnsureSchema creates the leads table and its indexes when missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaDDL); err != nil {
		return fmt.Errorf("apply leads schema: %w", err)
	}
	return nil
}

// List returns every lead, newest first.
func (s *PostgresStore) List(ctx context.Context) ([]models.Lead, error) {
	rows, err := s.db.QueryContext(ctx, selectLeadsSQL)
	if err != nil {
		return nil, fmt.Errorf("%w: list leads: %v", ErrQueryFailed, err)
	}
	defer rows.Close()

	leads := []models.Lead{}
	for rows.Next() {
		var l models.Lead
		if err := rows.Scan(
			&l.ID, &l.Name, &l.Phone, &l.AltPhone, &l.Email, &l.AltEmail,
			&l.Status, &l.Qualification, &l.InterestField, &l.Source, &l.AssignedTo, &l.JobInterest,
			&l.State, &l.City, &l.PassoutYear, &l.HeardFrom, &l.CreatedAt, &l.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("%w: scan lead: %v", ErrQueryFailed, err)
		}
		leads = append(leads, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate leads: %v", ErrQueryFailed, err)
	}

	return leads, nil
}

// Insert assigns an id and timestamps to lead and stores it. A conflicting
// email yields ErrDuplicateEmail.
func (s *PostgresStore) Insert(ctx context.Context, lead *models.Lead) error {
	now := s.now().UTC()
	if lead.ID == "" {
		lead.ID = uuid.New().String()
	}
	lead.CreatedAt = now
	lead.UpdatedAt = now

	err := s.db.QueryRowContext(ctx, insertLeadSQL,
		lead.ID, lead.Name, lead.Phone, lead.AltPhone, lead.Email, lead.AltEmail,
		lead.Status, lead.Qualification, lead.InterestField, lead.Source, lead.AssignedTo, lead.JobInterest,
		lead.State, lead.City, lead.PassoutYear, lead.HeardFrom, lead.CreatedAt, lead.UpdatedAt,
	).Scan(&lead.CreatedAt, &lead.UpdatedAt)
	if err != nil {
		if database.IsUniqueViolation(err, emailConstraint) {
			return fmt.Errorf("%w: %s", ErrDuplicateEmail, lead.Email)
		}
		return fmt.Errorf("%w: insert lead: %v", ErrInsertFailed, err)
	}

	s.logger.Debug("lead inserted", map[string]interface{}{
		"leadId": lead.ID,
	})
	return nil
}

// ExistsByEmail reports whether a lead with email is stored.
func (s *PostgresStore) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	if err := s.db.QueryRowContext(ctx, existsByEmailSQL, email).Scan(&exists); err != nil {
		return false, fmt.Errorf("%w: duplicate check: %v", ErrQueryFailed, err)
	}
	return exists, nil
}
