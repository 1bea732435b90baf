package service

import (
	"context"
	"fmt"
	"log/slog"

	"connectrpc.com/connect"
	"github.com/google/uuid"

	"github.com/mmynk/payroll/internal/models"
	"github.com/mmynk/payroll/internal/storage"
	"github.com/mmynk/payroll/internal/validation"
	"github.com/mmynk/payroll/pkg/api"
	"github.com/mmynk/payroll/pkg/api/apiconnect"
)

var _ apiconnect.BusinessEmployeeServiceHandler = (*BusinessEmployeeService)(nil)

// BusinessEmployeeService implements the Connect BusinessEmployeeService.
type BusinessEmployeeService struct {
	store     storage.PayrollStore
	validator *validation.Validator
}

// NewBusinessEmployeeService creates a new BusinessEmployeeService with the given storage backend.
func NewBusinessEmployeeService(store storage.PayrollStore) *BusinessEmployeeService {
	return &BusinessEmployeeService{
		store:     store,
		validator: validation.New(),
	}
}

// buildBusinessEmployee converts request fields into a model and validates
// it. Every problem found is returned.
func (s *BusinessEmployeeService) buildBusinessEmployee(id uuid.UUID, name, email string, accounts []api.BankAccount) (*models.BusinessEmployee, models.ValidationErrors) {
	var errs models.ValidationErrors
	e := &models.BusinessEmployee{
		ID:           id,
		Name:         name,
		Email:        models.NormalizeEmail(email),
		BankAccounts: make([]models.BankAccount, len(accounts)),
	}
	for i, a := range accounts {
		e.BankAccounts[i] = models.BankAccount{
			AccountID:     a.AccountID,
			RoutingNumber: a.RoutingNumber,
			PayPercentage: parseDecimal(&errs, fmt.Sprintf("bankAccounts[%d].payPercentage", i), a.PayPercentage),
		}
	}

	// Unparseable percentages stay zero so the remaining rules still run;
	// their fields already carry the parse error.
	reported := make(map[string]bool, len(errs))
	for _, fe := range errs {
		reported[fe.Field] = true
	}
	for _, fe := range s.validator.BusinessEmployee(e) {
		if !reported[fe.Field] {
			errs = append(errs, fe)
		}
	}
	if len(errs) > 0 {
		return nil, errs
	}
	return e, nil
}

// CreateBusinessEmployee creates a business employee and its bank accounts.
// Invalid input is reported in the response's errors list.
func (s *BusinessEmployeeService) CreateBusinessEmployee(ctx context.Context, req *connect.Request[api.CreateBusinessEmployeeRequest]) (*connect.Response[api.CreateBusinessEmployeeResponse], error) {
	slog.Info("CreateBusinessEmployee request received",
		"name", req.Msg.Name,
		"accounts_count", len(req.Msg.BankAccounts),
	)

	e, errs := s.buildBusinessEmployee(uuid.New(), req.Msg.Name, req.Msg.Email, req.Msg.BankAccounts)
	if len(errs) > 0 {
		slog.Warn("CreateBusinessEmployee rejected", "errors_count", len(errs))
		return connect.NewResponse(&api.CreateBusinessEmployeeResponse{Errors: fieldErrors(errs)}), nil
	}

	if err := s.store.CreateBusinessEmployee(ctx, e); err != nil {
		slog.Error("CreateBusinessEmployee failed", "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Business employee created", "business_employee_id", e.ID)

	return connect.NewResponse(&api.CreateBusinessEmployeeResponse{BusinessEmployee: toAPIBusinessEmployee(e)}), nil
}

// GetBusinessEmployee retrieves a business employee with its bank accounts.
func (s *BusinessEmployeeService) GetBusinessEmployee(ctx context.Context, req *connect.Request[api.GetBusinessEmployeeRequest]) (*connect.Response[api.GetBusinessEmployeeResponse], error) {
	slog.Info("GetBusinessEmployee request received", "business_employee_id", req.Msg.BusinessEmployeeID)

	id, err := parseID("businessEmployeeId", req.Msg.BusinessEmployeeID)
	if err != nil {
		return nil, err
	}

	e, err := s.store.GetBusinessEmployee(ctx, id)
	if err != nil {
		slog.Error("GetBusinessEmployee failed", "business_employee_id", id, "error", err)
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&api.GetBusinessEmployeeResponse{BusinessEmployee: toAPIBusinessEmployee(e)}), nil
}

// UpdateBusinessEmployee replaces a business employee's fields and its whole
// set of bank accounts.
func (s *BusinessEmployeeService) UpdateBusinessEmployee(ctx context.Context, req *connect.Request[api.UpdateBusinessEmployeeRequest]) (*connect.Response[api.UpdateBusinessEmployeeResponse], error) {
	slog.Info("UpdateBusinessEmployee request received",
		"business_employee_id", req.Msg.BusinessEmployeeID,
		"accounts_count", len(req.Msg.BankAccounts),
	)

	id, err := parseID("businessEmployeeId", req.Msg.BusinessEmployeeID)
	if err != nil {
		return nil, err
	}

	e, errs := s.buildBusinessEmployee(id, req.Msg.Name, req.Msg.Email, req.Msg.BankAccounts)
	if len(errs) > 0 {
		slog.Warn("UpdateBusinessEmployee rejected", "business_employee_id", id, "errors_count", len(errs))
		return connect.NewResponse(&api.UpdateBusinessEmployeeResponse{Errors: fieldErrors(errs)}), nil
	}

	if err := s.store.UpdateBusinessEmployee(ctx, e); err != nil {
		slog.Error("UpdateBusinessEmployee failed", "business_employee_id", id, "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Business employee updated", "business_employee_id", id)

	return connect.NewResponse(&api.UpdateBusinessEmployeeResponse{BusinessEmployee: toAPIBusinessEmployee(e)}), nil
}

// DeleteBusinessEmployee deletes a business employee and its bank accounts.
func (s *BusinessEmployeeService) DeleteBusinessEmployee(ctx context.Context, req *connect.Request[api.DeleteBusinessEmployeeRequest]) (*connect.Response[api.DeleteBusinessEmployeeResponse], error) {
	slog.Info("DeleteBusinessEmployee request received", "business_employee_id", req.Msg.BusinessEmployeeID)

	id, err := parseID("businessEmployeeId", req.Msg.BusinessEmployeeID)
	if err != nil {
		return nil, err
	}

	if err := s.store.DeleteBusinessEmployee(ctx, id); err != nil {
		slog.Error("DeleteBusinessEmployee failed", "business_employee_id", id, "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Business employee deleted", "business_employee_id", id)

	return connect.NewResponse(&api.DeleteBusinessEmployeeResponse{}), nil
}
