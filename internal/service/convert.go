// Package service implements the payroll Connect services.
package service

import (
	"errors"
	"log/slog"
	"strings"

	"connectrpc.com/connect"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mmynk/payroll/internal/models"
	"github.com/mmynk/payroll/internal/storage"
	"github.com/mmynk/payroll/pkg/api"
)

var errSaveFailed = errors.New("save failed")

// toConnectError maps domain and storage errors onto Connect codes.
// Constraint violations are reported without storage detail.
func toConnectError(err error) *connect.Error {
	var connectErr *connect.Error
	if errors.As(err, &connectErr) {
		return connectErr
	}

	var verrs models.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, storage.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, storage.ErrConflict):
		return connect.NewError(connect.CodeAlreadyExists, err)
	case errors.Is(err, models.ErrInvalidTransition):
		return connect.NewError(connect.CodeFailedPrecondition, err)
	case errors.Is(err, storage.ErrConstraintViolation):
		return connect.NewError(connect.CodeInternal, errSaveFailed)
	}
	return connect.NewError(connect.CodeInternal, err)
}

// userErrors extracts field errors for the response payload. ok is false
// when err is not a validation failure.
func userErrors(err error) ([]api.FieldError, bool) {
	var verrs models.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, false
	}
	return fieldErrors(verrs), true
}

func fieldErrors(verrs models.ValidationErrors) []api.FieldError {
	out := make([]api.FieldError, len(verrs))
	for i, fe := range verrs {
		out[i] = api.FieldError{Field: fe.Field, Message: fe.Message}
	}
	return out
}

// parseID parses a required UUID argument.
func parseID(field, raw string) (uuid.UUID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return uuid.Nil, connect.NewError(connect.CodeInvalidArgument, errors.New(field+" is required"))
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, connect.NewError(connect.CodeInvalidArgument, errors.New(field+" must be a UUID"))
	}
	return id, nil
}

// parseDecimal adds a field error to errs when raw is not a decimal.
func parseDecimal(errs *models.ValidationErrors, field, raw string) decimal.Decimal {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		*errs = append(*errs, models.FieldError{Field: field, Message: "is required"})
		return decimal.Zero
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		*errs = append(*errs, models.FieldError{Field: field, Message: "must be a decimal number"})
		return decimal.Zero
	}
	return d
}

// logIntegrityError records a pay entry whose parent references disagree
// with its discriminator.
func logIntegrityError(err error) {
	var inconsistent *models.InconsistentEntryStateError
	if !errors.As(err, &inconsistent) {
		return
	}
	slog.Error("Pay entry integrity violation",
		"entry_id", inconsistent.EntryID,
		"discriminator", inconsistent.Discriminator.String(),
		"missing_reference", inconsistent.Reference,
		"reason", inconsistent.Reason,
	)
}

// formatMoney renders at least two decimal places without rounding away
// finer precision.
func formatMoney(d decimal.Decimal) string {
	if d.Exponent() < -2 {
		return d.String()
	}
	return d.StringFixed(2)
}

func toAPIPayGroup(pg *models.PayGroup) *api.PayGroup {
	approvers := pg.ApproverIDs
	if approvers == nil {
		approvers = []string{}
	}
	return &api.PayGroup{
		ID:          pg.ID.String(),
		Category:    pg.Category.String(),
		Name:        pg.Name,
		ApproverIDs: approvers,
		CreatedAt:   pg.CreatedAt,
	}
}

func toAPIDisbursement(d *models.Disbursement) *api.Disbursement {
	return &api.Disbursement{
		ID:          d.ID.String(),
		PayGroupID:  d.PayGroupID.String(),
		ScheduledAt: d.ScheduledAt,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
		UpdatedBy:   d.UpdatedBy,
		State:       d.State.String(),
	}
}

// toAPIPayEntry renders e with the parent returned by models.ResolveParent.
func toAPIPayEntry(e *models.PayEntry, parent models.Parent) *api.PayEntry {
	out := &api.PayEntry{
		ID:            e.ID.String(),
		ParentType:    e.Discriminator().String(),
		EmployeeID:    e.EmployeeID,
		AccountNumber: e.AccountNumber,
		RoutingNumber: e.RoutingNumber,
		Amount:        formatMoney(e.Amount),
	}
	switch p := parent.(type) {
	case *models.PayGroup:
		out.Owner.PayGroup = toAPIPayGroup(p)
	case *models.Disbursement:
		out.Owner.Disbursement = toAPIDisbursement(p)
	}
	return out
}

func toAPIBusinessEmployee(e *models.BusinessEmployee) *api.BusinessEmployee {
	accounts := make([]api.BankAccount, len(e.BankAccounts))
	for i, a := range e.BankAccounts {
		accounts[i] = api.BankAccount{
			AccountID:     a.AccountID,
			RoutingNumber: a.RoutingNumber,
			PayPercentage: a.PayPercentage.String(),
		}
	}
	return &api.BusinessEmployee{
		ID:           e.ID.String(),
		Name:         e.Name,
		Email:        e.Email,
		BankAccounts: accounts,
	}
}

func toAPIEmployee(e *models.Employee) *api.Employee {
	return &api.Employee{
		ID:         e.ID.String(),
		FirstName:  e.FirstName,
		LastName:   e.LastName,
		Email:      e.Email,
		Department: e.Department,
		Salary:     formatMoney(e.Salary),
		CreatedAt:  e.CreatedAt,
		UpdatedAt:  e.UpdatedAt,
	}
}
