// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/mmynk/payroll/internal/models"
)

var (
	// ErrNotFound is returned (possibly wrapped) when a record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a write collides with a uniqueness rule,
	// e.g. a duplicate BusinessEmployee email.
	ErrConflict = errors.New("conflict")

	// ErrConstraintViolation is returned when the storage engine rejects a row
	// because it breaks a check constraint, such as the PayEntry
	// discriminator rule.
	ErrConstraintViolation = errors.New("constraint violation")
)

// DeleteResult reports what a cascading PayGroup delete removed.
type DeleteResult struct {
	Disbursements int64
	PayEntries    int64
}

// PayrollStore is the persistence gateway for the payroll aggregates.
// Implementations keep the PayEntry single-parent rule at the storage level
// and cascade PayGroup deletes to Disbursements and PayEntries.
type PayrollStore interface {
	CreatePayGroup(ctx context.Context, pg *models.PayGroup) error
	GetPayGroup(ctx context.Context, id uuid.UUID) (*models.PayGroup, error)
	ListPayGroups(ctx context.Context) ([]*models.PayGroup, error)
	// DeletePayGroup removes the group, its Disbursements and every PayEntry
	// owned by either, in one transaction.
	DeletePayGroup(ctx context.Context, id uuid.UUID) (DeleteResult, error)

	CreateDisbursement(ctx context.Context, d *models.Disbursement) error
	GetDisbursement(ctx context.Context, id uuid.UUID) (*models.Disbursement, error)
	ListDisbursements(ctx context.Context, payGroupID uuid.UUID) ([]*models.Disbursement, error)
	// UpdateDisbursement writes d only if its stored state is still from,
	// failing with models.ErrInvalidTransition otherwise.
	UpdateDisbursement(ctx context.Context, d *models.Disbursement, from models.DisbursementState) error

	CreatePayEntry(ctx context.Context, e *models.PayEntry) error
	// GetPayEntry returns the entry with its parent attached.
	GetPayEntry(ctx context.Context, id uuid.UUID) (*models.PayEntry, error)
	// ListPayEntries returns the entries owned by owner, each with its parent attached.
	ListPayEntries(ctx context.Context, owner models.Owner) ([]*models.PayEntry, error)
	DeletePayEntry(ctx context.Context, id uuid.UUID) error

	CreateBusinessEmployee(ctx context.Context, e *models.BusinessEmployee) error
	GetBusinessEmployee(ctx context.Context, id uuid.UUID) (*models.BusinessEmployee, error)
	UpdateBusinessEmployee(ctx context.Context, e *models.BusinessEmployee) error
	DeleteBusinessEmployee(ctx context.Context, id uuid.UUID) error

	// Close releases any resources held by the store.
	Close() error
}

// EmployeeStore is the persistence gateway for the employee directory.
type EmployeeStore interface {
	CreateEmployee(ctx context.Context, e *models.Employee) error
	GetEmployee(ctx context.Context, id uuid.UUID) (*models.Employee, error)
	// ListEmployees returns up to limit employees starting after cursor, plus
	// the cursor for the next page ("" when there are no more).
	ListEmployees(ctx context.Context, limit int, cursor string) ([]*models.Employee, string, error)
	UpdateEmployee(ctx context.Context, e *models.Employee) error
	DeleteEmployee(ctx context.Context, id uuid.UUID) error
}
