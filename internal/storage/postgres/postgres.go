// Package postgres provides a PostgreSQL implementation of the
// storage.PayrollStore interface built on GORM.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/mmynk/payroll/internal/models"
	"github.com/mmynk/payroll/internal/storage"
)

var _ storage.PayrollStore = (*PostgresStore)(nil)

// PostgresStore implements storage.PayrollStore on PostgreSQL.
type PostgresStore struct {
	db *gorm.DB
}

// New connects to the database at dsn and migrates the schema.
func New(dsn string) (*PostgresStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store, err := NewWithDB(db)
	if err != nil {
		if sqlDB, dbErr := db.DB(); dbErr == nil {
			sqlDB.Close()
		}
		return nil, err
	}
	return store, nil
}

// NewWithDB wraps an existing connection. The connection must have been
// opened with TranslateError so constraint failures map onto storage errors.
func NewWithDB(db *gorm.DB) (*PostgresStore, error) {
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return &PostgresStore{db: db}, nil
}

// Migrate creates or updates the payroll tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(tables...); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// Close closes the underlying connection pool.
func (s *PostgresStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// translate maps GORM's translated driver errors onto the storage sentinels.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %v", storage.ErrConflict, err)
	case errors.Is(err, gorm.ErrCheckConstraintViolated),
		errors.Is(err, gorm.ErrForeignKeyViolated):
		return fmt.Errorf("%w: %v", storage.ErrConstraintViolation, err)
	}
	return err
}

func notFound(kind string, id uuid.UUID) error {
	return fmt.Errorf("%s %s: %w", kind, id, storage.ErrNotFound)
}

// CreatePayGroup persists a new pay group and its approvers.
func (s *PostgresStore) CreatePayGroup(ctx context.Context, pg *models.PayGroup) error {
	if pg.ID == uuid.Nil {
		pg.ID = uuid.New()
	}
	if pg.CreatedAt.IsZero() {
		pg.CreatedAt = time.Now().UTC()
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := toPayGroupRow(pg)
		if err := tx.Omit(clause.Associations).Create(&row).Error; err != nil {
			return fmt.Errorf("failed to insert pay group: %w", translate(err))
		}

		if len(pg.ApproverIDs) == 0 {
			return nil
		}
		approvers := make([]approverRow, len(pg.ApproverIDs))
		for i, a := range pg.ApproverIDs {
			approvers[i] = approverRow{PayGroupID: pg.ID, ApproverID: a}
		}
		if err := tx.Omit(clause.Associations).Create(&approvers).Error; err != nil {
			return fmt.Errorf("failed to insert approvers: %w", translate(err))
		}
		return nil
	})
}

// GetPayGroup retrieves a pay group by ID, including its approvers.
func (s *PostgresStore) GetPayGroup(ctx context.Context, id uuid.UUID) (*models.PayGroup, error) {
	return getPayGroup(s.db.WithContext(ctx), id)
}

func getPayGroup(db *gorm.DB, id uuid.UUID) (*models.PayGroup, error) {
	var row payGroupRow
	err := db.Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("pay group", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pay group: %w", err)
	}

	approvers, err := listApprovers(db, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	return row.model(approvers[id]), nil
}

// ListPayGroups retrieves all pay groups ordered by creation time.
func (s *PostgresStore) ListPayGroups(ctx context.Context) ([]*models.PayGroup, error) {
	db := s.db.WithContext(ctx)

	var rows []payGroupRow
	if err := db.Order("created_at, name").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list pay groups: %w", err)
	}

	ids := make([]uuid.UUID, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}
	approvers, err := listApprovers(db, ids)
	if err != nil {
		return nil, err
	}

	groups := make([]*models.PayGroup, len(rows))
	for i, r := range rows {
		groups[i] = r.model(approvers[r.ID])
	}
	return groups, nil
}

func listApprovers(db *gorm.DB, ids []uuid.UUID) (map[uuid.UUID][]string, error) {
	result := make(map[uuid.UUID][]string, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	var rows []approverRow
	if err := db.Where("pay_group_id IN ?", ids).Order("approver_id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to get approvers: %w", err)
	}
	for _, r := range rows {
		result[r.PayGroupID] = append(result[r.PayGroupID], r.ApproverID)
	}
	return result, nil
}

// DeletePayGroup removes a pay group. Foreign keys cascade the delete to its
// disbursements and to every pay entry owned by the group or its disbursements.
func (s *PostgresStore) DeletePayGroup(ctx context.Context, id uuid.UUID) (storage.DeleteResult, error) {
	var result storage.DeleteResult

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Lock the group so the counts match what the cascade removes.
		var row payGroupRow
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&row).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound("pay group", id)
		}
		if err != nil {
			return fmt.Errorf("failed to check pay group existence: %w", err)
		}

		if err := tx.Model(&disbursementRow{}).Where("pay_group_id = ?", id).Count(&result.Disbursements).Error; err != nil {
			return fmt.Errorf("failed to count disbursements: %w", err)
		}

		owned := tx.Model(&disbursementRow{}).Select("id").Where("pay_group_id = ?", id)
		err = tx.Model(&payEntryRow{}).
			Where("pay_group_id = ? OR disbursement_id IN (?)", id, owned).
			Count(&result.PayEntries).Error
		if err != nil {
			return fmt.Errorf("failed to count pay entries: %w", err)
		}

		if err := tx.Where("id = ?", id).Delete(&payGroupRow{}).Error; err != nil {
			return fmt.Errorf("failed to delete pay group: %w", translate(err))
		}
		return nil
	})
	if err != nil {
		return storage.DeleteResult{}, err
	}
	return result, nil
}

// CreateDisbursement persists a new disbursement.
func (s *PostgresStore) CreateDisbursement(ctx context.Context, d *models.Disbursement) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}

	row := toDisbursementRow(d)
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to insert disbursement: %w", translate(err))
	}
	return nil
}

// GetDisbursement retrieves a disbursement by ID.
func (s *PostgresStore) GetDisbursement(ctx context.Context, id uuid.UUID) (*models.Disbursement, error) {
	return getDisbursement(s.db.WithContext(ctx), id)
}

func getDisbursement(db *gorm.DB, id uuid.UUID) (*models.Disbursement, error) {
	var row disbursementRow
	err := db.Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("disbursement", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get disbursement: %w", err)
	}
	return row.model(), nil
}

// ListDisbursements retrieves all disbursements of a pay group, soonest first.
func (s *PostgresStore) ListDisbursements(ctx context.Context, payGroupID uuid.UUID) ([]*models.Disbursement, error) {
	var rows []disbursementRow
	err := s.db.WithContext(ctx).
		Where("pay_group_id = ?", payGroupID).
		Order("scheduled_at, created_at").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list disbursements: %w", err)
	}

	disbursements := make([]*models.Disbursement, len(rows))
	for i, r := range rows {
		disbursements[i] = r.model()
	}
	return disbursements, nil
}

// UpdateDisbursement saves the state, schedule and update stamp of a
// disbursement. The row is locked and its state compared with from before
// writing; a mismatch fails with models.ErrInvalidTransition.
func (s *PostgresStore) UpdateDisbursement(ctx context.Context, d *models.Disbursement, from models.DisbursementState) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row disbursementRow
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id", "state").
			Where("id = ?", d.ID).
			Take(&row).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound("disbursement", d.ID)
		}
		if err != nil {
			return fmt.Errorf("failed to lock disbursement: %w", translate(err))
		}
		if models.DisbursementState(row.State) != from {
			return fmt.Errorf("%w: disbursement %s is %s, expected %s", models.ErrInvalidTransition, d.ID, row.State, from)
		}

		err = tx.Model(&disbursementRow{}).
			Where("id = ?", d.ID).
			Updates(map[string]any{
				"scheduled_at": d.ScheduledAt,
				"updated_at":   d.UpdatedAt,
				"updated_by":   d.UpdatedBy,
				"state":        string(d.State),
			}).Error
		if err != nil {
			return fmt.Errorf("failed to update disbursement: %w", translate(err))
		}
		return nil
	})
}

// CreatePayEntry persists a new pay entry. The table's check constraint
// rejects rows whose discriminator and parent keys disagree.
func (s *PostgresStore) CreatePayEntry(ctx context.Context, e *models.PayEntry) error {
	return insertPayEntryRecord(s.db.WithContext(ctx), e.Record())
}

func insertPayEntryRecord(db *gorm.DB, rec models.PayEntryRecord) error {
	row := toPayEntryRow(rec)
	if err := db.Omit(clause.Associations).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to insert pay entry: %w", translate(err))
	}
	return nil
}

// GetPayEntry retrieves a pay entry by ID with its parent attached.
func (s *PostgresStore) GetPayEntry(ctx context.Context, id uuid.UUID) (*models.PayEntry, error) {
	db := s.db.WithContext(ctx)

	var row payEntryRow
	err := db.Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("pay entry", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pay entry: %w", err)
	}

	entry, err := models.RestorePayEntry(row.record())
	if err != nil {
		return nil, err
	}

	switch o := entry.Owner().(type) {
	case models.OwnedByPayGroup:
		pg, err := getPayGroup(db, o.PayGroupID)
		if err != nil {
			return nil, fmt.Errorf("failed to load parent of pay entry %s: %w", id, err)
		}
		err = entry.AttachPayGroup(pg)
		if err != nil {
			return nil, err
		}
	case models.OwnedByDisbursement:
		d, err := getDisbursement(db, o.DisbursementID)
		if err != nil {
			return nil, fmt.Errorf("failed to load parent of pay entry %s: %w", id, err)
		}
		err = entry.AttachDisbursement(d)
		if err != nil {
			return nil, err
		}
	}
	return entry, nil
}

// ListPayEntries retrieves the pay entries owned by owner, each with the
// owner attached.
func (s *PostgresStore) ListPayEntries(ctx context.Context, owner models.Owner) ([]*models.PayEntry, error) {
	db := s.db.WithContext(ctx)

	column := "pay_group_id"
	if owner.Kind() == models.ParentDisbursement {
		column = "disbursement_id"
	}

	var rows []payEntryRow
	err := db.Where(column+" = ?", owner.ParentID()).Order("employee_id, id").Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list pay entries: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	var parentPG *models.PayGroup
	var parentD *models.Disbursement
	if owner.Kind() == models.ParentPayGroup {
		parentPG, err = getPayGroup(db, owner.ParentID())
	} else {
		parentD, err = getDisbursement(db, owner.ParentID())
	}
	if err != nil {
		return nil, err
	}

	entries := make([]*models.PayEntry, 0, len(rows))
	for _, r := range rows {
		entry, err := models.RestorePayEntry(r.record())
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

// DeletePayEntry removes a pay entry by ID.
func (s *PostgresStore) DeletePayEntry(ctx context.Context, id uuid.UUID) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&payEntryRow{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete pay entry: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound("pay entry", id)
	}
	return nil
}

// CreateBusinessEmployee inserts a business employee and their bank accounts.
// A duplicate email fails with storage.ErrConflict.
func (s *PostgresStore) CreateBusinessEmployee(ctx context.Context, e *models.BusinessEmployee) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := businessEmployeeRow{ID: e.ID, Name: e.Name, Email: models.NormalizeEmail(e.Email)}
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("failed to create business employee: %w", translate(err))
		}
		return insertBankAccounts(tx, e)
	})
}

func insertBankAccounts(tx *gorm.DB, e *models.BusinessEmployee) error {
	if len(e.BankAccounts) == 0 {
		return nil
	}
	rows := make([]bankAccountRow, len(e.BankAccounts))
	for i, acct := range e.BankAccounts {
		rows[i] = bankAccountRow{
			BusinessEmployeeID: e.ID,
			Position:           i,
			AccountID:          acct.AccountID,
			RoutingNumber:      acct.RoutingNumber,
			PayPercentage:      acct.PayPercentage,
		}
	}
	if err := tx.Omit(clause.Associations).Create(&rows).Error; err != nil {
		return fmt.Errorf("failed to insert bank accounts: %w", translate(err))
	}
	return nil
}

// GetBusinessEmployee retrieves a business employee with their bank accounts
// in their original order.
func (s *PostgresStore) GetBusinessEmployee(ctx context.Context, id uuid.UUID) (*models.BusinessEmployee, error) {
	db := s.db.WithContext(ctx)

	var row businessEmployeeRow
	err := db.Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("business employee", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get business employee: %w", err)
	}

	var accounts []bankAccountRow
	if err := db.Where("business_employee_id = ?", id).Order("position").Find(&accounts).Error; err != nil {
		return nil, fmt.Errorf("failed to get bank accounts: %w", err)
	}

	e := &models.BusinessEmployee{ID: row.ID, Name: row.Name, Email: row.Email}
	for _, a := range accounts {
		e.BankAccounts = append(e.BankAccounts, models.BankAccount{
			AccountID:     a.AccountID,
			RoutingNumber: a.RoutingNumber,
			PayPercentage: a.PayPercentage,
		})
	}
	return e, nil
}

// UpdateBusinessEmployee replaces the name, email and bank accounts of an
// existing business employee.
func (s *PostgresStore) UpdateBusinessEmployee(ctx context.Context, e *models.BusinessEmployee) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&businessEmployeeRow{}).
			Where("id = ?", e.ID).
			Updates(map[string]any{"name": e.Name, "email": models.NormalizeEmail(e.Email)})
		if res.Error != nil {
			return fmt.Errorf("failed to update business employee: %w", translate(res.Error))
		}
		if res.RowsAffected == 0 {
			return notFound("business employee", e.ID)
		}

		if err := tx.Where("business_employee_id = ?", e.ID).Delete(&bankAccountRow{}).Error; err != nil {
			return fmt.Errorf("failed to clear bank accounts: %w", err)
		}
		return insertBankAccounts(tx, e)
	})
}

// DeleteBusinessEmployee removes a business employee; their bank accounts cascade.
func (s *PostgresStore) DeleteBusinessEmployee(ctx context.Context, id uuid.UUID) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&businessEmployeeRow{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete business employee: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound("business employee", id)
	}
	return nil
}
