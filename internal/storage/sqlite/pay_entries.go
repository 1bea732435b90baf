package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/mmynk/payroll/internal/models"
)

const payEntryColumns = "id, discriminator, pay_group_id, disbursement_id, employee_id, account_number, routing_number, amount"

func scanPayEntryRecord(row rowScanner) (models.PayEntryRecord, error) {
	var rec models.PayEntryRecord
	var discriminator int
	var payGroupID, disbursementID uuid.NullUUID
	err := row.Scan(&rec.ID, &discriminator, &payGroupID, &disbursementID,
		&rec.EmployeeID, &rec.AccountNumber, &rec.RoutingNumber, &rec.Amount)
	if err != nil {
		return rec, err
	}
	rec.Discriminator = models.ParentKind(discriminator)
	rec.PayGroupID = uuidPtr(payGroupID)
	rec.DisbursementID = uuidPtr(disbursementID)
	return rec, nil
}

// CreatePayEntry persists a new pay entry. The table's check constraint
// rejects rows whose discriminator and parent keys disagree.
func (s *SQLiteStore) CreatePayEntry(ctx context.Context, e *models.PayEntry) error {
	return insertPayEntryRecord(ctx, s.db, e.Record())
}

func insertPayEntryRecord(ctx context.Context, q queryer, rec models.PayEntryRecord) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO pay_entries (`+payEntryColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, int(rec.Discriminator), nullUUID(rec.PayGroupID), nullUUID(rec.DisbursementID),
		rec.EmployeeID, rec.AccountNumber, rec.RoutingNumber, rec.Amount.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert pay entry: %w", translate(err))
	}
	return nil
}

// GetPayEntry retrieves a pay entry by ID with its parent attached.
func (s *SQLiteStore) GetPayEntry(ctx context.Context, id uuid.UUID) (*models.PayEntry, error) {
	rec, err := scanPayEntryRecord(s.db.QueryRowContext(ctx,
		"SELECT "+payEntryColumns+" FROM pay_entries WHERE id = ?", id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("pay entry", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pay entry: %w", err)
	}

	entry, err := models.RestorePayEntry(rec)
	if err != nil {
		return nil, err
	}

	if err := s.hydrate(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// ListPayEntries retrieves the pay entries owned by owner, each with the
// owner attached.
func (s *SQLiteStore) ListPayEntries(ctx context.Context, owner models.Owner) ([]*models.PayEntry, error) {
	column := "pay_group_id"
	if owner.Kind() == models.ParentDisbursement {
		column = "disbursement_id"
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+payEntryColumns+" FROM pay_entries WHERE "+column+" = ? ORDER BY employee_id, id",
		owner.ParentID(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list pay entries: %w", err)
	}
	defer rows.Close()

	var records []models.PayEntryRecord
	for rows.Next() {
		rec, err := scanPayEntryRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pay entry: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate pay entries: %w", err)
	}
	rows.Close()

	if len(records) == 0 {
		return nil, nil
	}

	// Every entry shares the same parent, so load it once.
	var parentPG *models.PayGroup
	var parentD *models.Disbursement
	if owner.Kind() == models.ParentPayGroup {
		parentPG, err = getPayGroup(ctx, s.db, owner.ParentID())
	} else {
		parentD, err = getDisbursement(ctx, s.db, owner.ParentID())
	}
	if err != nil {
		return nil, err
	}

	entries := make([]*models.PayEntry, 0, len(records))
	for _, rec := range records {
		entry, err := models.RestorePayEntry(rec)
		if err != nil {
			return nil, err
		}
		if parentPG != nil {
			err = entry.AttachPayGroup(parentPG)
		} else {
			err = entry.AttachDisbursement(parentD)
		}
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

// hydrate loads and attaches the parent the entry's discriminator points at.
func (s *SQLiteStore) hydrate(ctx context.Context, entry *models.PayEntry) error {
	switch o := entry.Owner().(type) {
	case models.OwnedByPayGroup:
		pg, err := getPayGroup(ctx, s.db, o.PayGroupID)
		if err != nil {
			return fmt.Errorf("failed to load parent of pay entry %s: %w", entry.ID, err)
		}
		return entry.AttachPayGroup(pg)
	case models.OwnedByDisbursement:
		d, err := getDisbursement(ctx, s.db, o.DisbursementID)
		if err != nil {
			return fmt.Errorf("failed to load parent of pay entry %s: %w", entry.ID, err)
		}
		return entry.AttachDisbursement(d)
	}
	return nil
}

// DeletePayEntry removes a pay entry by ID.
func (s *SQLiteStore) DeletePayEntry(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM pay_entries WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete pay entry: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deleted rows: %w", err)
	}
	if n == 0 {
		return notFound("pay entry", id)
	}

	return nil
}
