package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/mmynk/payroll/internal/models"
)

const disbursementColumns = "id, pay_group_id, scheduled_at, created_at, updated_at, updated_by, state"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDisbursement(row rowScanner) (*models.Disbursement, error) {
	d := &models.Disbursement{}
	var scheduledAt, createdAt, updatedAt int64
	var state string
	if err := row.Scan(&d.ID, &d.PayGroupID, &scheduledAt, &createdAt, &updatedAt, &d.UpdatedBy, &state); err != nil {
		return nil, err
	}
	d.ScheduledAt = fromMillis(scheduledAt)
	d.CreatedAt = fromMillis(createdAt)
	d.UpdatedAt = fromMillis(updatedAt)
	d.State = models.DisbursementState(state)
	return d, nil
}

// CreateDisbursement persists a new disbursement.
func (s *SQLiteStore) CreateDisbursement(ctx context.Context, d *models.Disbursement) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO disbursements (`+disbursementColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.PayGroupID, toMillis(d.ScheduledAt), toMillis(d.CreatedAt), toMillis(d.UpdatedAt),
		d.UpdatedBy, string(d.State),
	)
	if err != nil {
		return fmt.Errorf("failed to insert disbursement: %w", translate(err))
	}

	return nil
}

// GetDisbursement retrieves a disbursement by ID.
func (s *SQLiteStore) GetDisbursement(ctx context.Context, id uuid.UUID) (*models.Disbursement, error) {
	return getDisbursement(ctx, s.db, id)
}

func getDisbursement(ctx context.Context, q queryer, id uuid.UUID) (*models.Disbursement, error) {
	d, err := scanDisbursement(q.QueryRowContext(ctx,
		"SELECT "+disbursementColumns+" FROM disbursements WHERE id = ?", id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("disbursement", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get disbursement: %w", err)
	}
	return d, nil
}

// ListDisbursements retrieves all disbursements of a pay group, soonest first.
func (s *SQLiteStore) ListDisbursements(ctx context.Context, payGroupID uuid.UUID) ([]*models.Disbursement, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+disbursementColumns+" FROM disbursements WHERE pay_group_id = ? ORDER BY scheduled_at, created_at",
		payGroupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list disbursements: %w", err)
	}
	defer rows.Close()

	var disbursements []*models.Disbursement
	for rows.Next() {
		d, err := scanDisbursement(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan disbursement: %w", err)
		}
		disbursements = append(disbursements, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate disbursements: %w", err)
	}

	return disbursements, nil
}

// UpdateDisbursement saves the mutable fields of a disbursement: its state,
// schedule, and update stamp. The write only applies while the stored state
// is still from; otherwise it fails with models.ErrInvalidTransition.
func (s *SQLiteStore) UpdateDisbursement(ctx context.Context, d *models.Disbursement, from models.DisbursementState) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE disbursements
		 SET scheduled_at = ?, updated_at = ?, updated_by = ?, state = ?
		 WHERE id = ? AND state = ?`,
		toMillis(d.ScheduledAt), toMillis(d.UpdatedAt), d.UpdatedBy, string(d.State), d.ID, string(from),
	)
	if err != nil {
		return fmt.Errorf("failed to update disbursement: %w", translate(err))
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check updated rows: %w", err)
	}
	if n > 0 {
		return nil
	}

	var current string
	err = s.db.QueryRowContext(ctx, `SELECT state FROM disbursements WHERE id = ?`, d.ID).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return notFound("disbursement", d.ID)
	}
	if err != nil {
		return fmt.Errorf("failed to read disbursement state: %w", err)
	}
	return fmt.Errorf("%w: disbursement %s is %s, expected %s", models.ErrInvalidTransition, d.ID, current, from)
}
