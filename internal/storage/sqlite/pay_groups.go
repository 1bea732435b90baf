package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/payroll/internal/models"
	"github.com/mmynk/payroll/internal/storage"
)

// CreatePayGroup persists a new pay group and its approvers.
func (s *SQLiteStore) CreatePayGroup(ctx context.Context, pg *models.PayGroup) error {
	if pg.ID == uuid.Nil {
		pg.ID = uuid.New()
	}
	if pg.CreatedAt.IsZero() {
		pg.CreatedAt = time.Now().UTC()
	}

	return s.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO pay_groups (id, category, name, created_at) VALUES (?, ?, ?, ?)",
			pg.ID, string(pg.Category), pg.Name, toMillis(pg.CreatedAt),
		)
		if err != nil {
			return fmt.Errorf("failed to insert pay group: %w", translate(err))
		}

		for _, approver := range pg.ApproverIDs {
			_, err = tx.ExecContext(ctx,
				"INSERT INTO pay_group_approvers (pay_group_id, approver_id) VALUES (?, ?)",
				pg.ID, approver,
			)
			if err != nil {
				return fmt.Errorf("failed to insert approver: %w", translate(err))
			}
		}
		return nil
	})
}

// GetPayGroup retrieves a pay group by ID, including its approvers.
func (s *SQLiteStore) GetPayGroup(ctx context.Context, id uuid.UUID) (*models.PayGroup, error) {
	return getPayGroup(ctx, s.db, id)
}

func getPayGroup(ctx context.Context, q queryer, id uuid.UUID) (*models.PayGroup, error) {
	pg := &models.PayGroup{}
	var category string
	var createdAt int64
	err := q.QueryRowContext(ctx,
		"SELECT id, category, name, created_at FROM pay_groups WHERE id = ?",
		id,
	).Scan(&pg.ID, &category, &pg.Name, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("pay group", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pay group: %w", err)
	}
	pg.Category = models.PayCategory(category)
	pg.CreatedAt = fromMillis(createdAt)

	approvers, err := listApprovers(ctx, q, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	pg.ApproverIDs = approvers[id]

	return pg, nil
}

// ListPayGroups retrieves all pay groups ordered by creation time.
func (s *SQLiteStore) ListPayGroups(ctx context.Context) ([]*models.PayGroup, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, category, name, created_at FROM pay_groups ORDER BY created_at, name",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list pay groups: %w", err)
	}
	defer rows.Close()

	var groups []*models.PayGroup
	var ids []uuid.UUID
	for rows.Next() {
		pg := &models.PayGroup{}
		var category string
		var createdAt int64
		if err := rows.Scan(&pg.ID, &category, &pg.Name, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan pay group: %w", err)
		}
		pg.Category = models.PayCategory(category)
		pg.CreatedAt = fromMillis(createdAt)
		groups = append(groups, pg)
		ids = append(ids, pg.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate pay groups: %w", err)
	}
	rows.Close()

	approvers, err := listApprovers(ctx, s.db, ids)
	if err != nil {
		return nil, err
	}
	for _, pg := range groups {
		pg.ApproverIDs = approvers[pg.ID]
	}

	return groups, nil
}

// listApprovers loads the approver sets of the given pay groups.
func listApprovers(ctx context.Context, q queryer, ids []uuid.UUID) (map[uuid.UUID][]string, error) {
	result := make(map[uuid.UUID][]string, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := q.QueryContext(ctx,
		"SELECT pay_group_id, approver_id FROM pay_group_approvers WHERE pay_group_id IN ("+placeholders(len(ids))+") ORDER BY approver_id",
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get approvers: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var groupID uuid.UUID
		var approver string
		if err := rows.Scan(&groupID, &approver); err != nil {
			return nil, fmt.Errorf("failed to scan approver: %w", err)
		}
		result[groupID] = append(result[groupID], approver)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate approvers: %w", err)
	}

	return result, nil
}

// DeletePayGroup removes a pay group. Foreign keys cascade the delete to its
// disbursements and to every pay entry owned by the group or its disbursements.
func (s *SQLiteStore) DeletePayGroup(ctx context.Context, id uuid.UUID) (storage.DeleteResult, error) {
	var result storage.DeleteResult

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRowContext(ctx, "SELECT 1 FROM pay_groups WHERE id = ?", id).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return notFound("pay group", id)
		}
		if err != nil {
			return fmt.Errorf("failed to check pay group existence: %w", err)
		}

		err = tx.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM disbursements WHERE pay_group_id = ?", id,
		).Scan(&result.Disbursements)
		if err != nil {
			return fmt.Errorf("failed to count disbursements: %w", err)
		}

		err = tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM pay_entries
			 WHERE pay_group_id = ?
			    OR disbursement_id IN (SELECT id FROM disbursements WHERE pay_group_id = ?)`,
			id, id,
		).Scan(&result.PayEntries)
		if err != nil {
			return fmt.Errorf("failed to count pay entries: %w", err)
		}

		if _, err := tx.ExecContext(ctx, "DELETE FROM pay_groups WHERE id = ?", id); err != nil {
			return fmt.Errorf("failed to delete pay group: %w", translate(err))
		}
		return nil
	})
	if err != nil {
		return storage.DeleteResult{}, err
	}

	return result, nil
}
