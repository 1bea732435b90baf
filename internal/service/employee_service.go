package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"connectrpc.com/connect"
	"github.com/google/uuid"

	"github.com/mmynk/payroll/internal/models"
	"github.com/mmynk/payroll/internal/storage"
	"github.com/mmynk/payroll/internal/storage/dynamo"
	"github.com/mmynk/payroll/internal/validation"
	"github.com/mmynk/payroll/pkg/api"
	"github.com/mmynk/payroll/pkg/api/apiconnect"
)

var _ apiconnect.EmployeeServiceHandler = (*EmployeeService)(nil)

// EmployeeService implements the Connect EmployeeService on the employee
// directory store.
type EmployeeService struct {
	store     storage.EmployeeStore
	validator *validation.Validator
}

// NewEmployeeService creates a new EmployeeService with the given directory store.
func NewEmployeeService(store storage.EmployeeStore) *EmployeeService {
	return &EmployeeService{
		store:     store,
		validator: validation.New(),
	}
}

func (s *EmployeeService) buildEmployee(id uuid.UUID, firstName, lastName, email, department, salary string) (*models.Employee, models.ValidationErrors) {
	var errs models.ValidationErrors
	e := &models.Employee{
		ID:         id,
		FirstName:  strings.TrimSpace(firstName),
		LastName:   strings.TrimSpace(lastName),
		Email:      models.NormalizeEmail(email),
		Department: strings.TrimSpace(department),
		Salary:     parseDecimal(&errs, "salary", salary),
	}
	if len(errs) > 0 {
		return nil, errs
	}
	if verrs := s.validator.Employee(e); len(verrs) > 0 {
		return nil, verrs
	}
	return e, nil
}

// CreateEmployee adds an employee to the directory.
func (s *EmployeeService) CreateEmployee(ctx context.Context, req *connect.Request[api.CreateEmployeeRequest]) (*connect.Response[api.CreateEmployeeResponse], error) {
	slog.Info("CreateEmployee request received", "department", req.Msg.Department)

	e, errs := s.buildEmployee(uuid.New(), req.Msg.FirstName, req.Msg.LastName, req.Msg.Email, req.Msg.Department, req.Msg.Salary)
	if len(errs) > 0 {
		return connect.NewResponse(&api.CreateEmployeeResponse{Errors: fieldErrors(errs)}), nil
	}

	if err := s.store.CreateEmployee(ctx, e); err != nil {
		slog.Error("CreateEmployee failed", "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Employee created", "employee_id", e.ID)

	return connect.NewResponse(&api.CreateEmployeeResponse{Employee: toAPIEmployee(e)}), nil
}

// GetEmployee retrieves an employee by ID.
func (s *EmployeeService) GetEmployee(ctx context.Context, req *connect.Request[api.GetEmployeeRequest]) (*connect.Response[api.GetEmployeeResponse], error) {
	slog.Info("GetEmployee request received", "employee_id", req.Msg.EmployeeID)

	id, err := parseID("employeeId", req.Msg.EmployeeID)
	if err != nil {
		return nil, err
	}

	e, err := s.store.GetEmployee(ctx, id)
	if err != nil {
		slog.Error("GetEmployee failed", "employee_id", id, "error", err)
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&api.GetEmployeeResponse{Employee: toAPIEmployee(e)}), nil
}

// ListEmployees returns one page of the directory.
func (s *EmployeeService) ListEmployees(ctx context.Context, req *connect.Request[api.ListEmployeesRequest]) (*connect.Response[api.ListEmployeesResponse], error) {
	slog.Info("ListEmployees request received", "limit", req.Msg.Limit)

	if req.Msg.Limit < 0 {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("limit must not be negative"))
	}

	employees, next, err := s.store.ListEmployees(ctx, req.Msg.Limit, req.Msg.Cursor)
	if errors.Is(err, dynamo.ErrInvalidCursor) {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}
	if err != nil {
		slog.Error("ListEmployees failed", "error", err)
		return nil, toConnectError(err)
	}

	out := make([]*api.Employee, len(employees))
	for i, e := range employees {
		out[i] = toAPIEmployee(e)
	}

	slog.Info("ListEmployees successful", "count", len(out), "has_more", next != "")

	return connect.NewResponse(&api.ListEmployeesResponse{Employees: out, NextCursor: next}), nil
}

// UpdateEmployee replaces an employee's profile.
func (s *EmployeeService) UpdateEmployee(ctx context.Context, req *connect.Request[api.UpdateEmployeeRequest]) (*connect.Response[api.UpdateEmployeeResponse], error) {
	slog.Info("UpdateEmployee request received", "employee_id", req.Msg.EmployeeID)

	id, err := parseID("employeeId", req.Msg.EmployeeID)
	if err != nil {
		return nil, err
	}

	e, errs := s.buildEmployee(id, req.Msg.FirstName, req.Msg.LastName, req.Msg.Email, req.Msg.Department, req.Msg.Salary)
	if len(errs) > 0 {
		return connect.NewResponse(&api.UpdateEmployeeResponse{Errors: fieldErrors(errs)}), nil
	}

	if err := s.store.UpdateEmployee(ctx, e); err != nil {
		slog.Error("UpdateEmployee failed", "employee_id", id, "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Employee updated", "employee_id", id)

	return connect.NewResponse(&api.UpdateEmployeeResponse{Employee: toAPIEmployee(e)}), nil
}

// DeleteEmployee removes an employee from the directory.
func (s *EmployeeService) DeleteEmployee(ctx context.Context, req *connect.Request[api.DeleteEmployeeRequest]) (*connect.Response[api.DeleteEmployeeResponse], error) {
	slog.Info("DeleteEmployee request received", "employee_id", req.Msg.EmployeeID)

	id, err := parseID("employeeId", req.Msg.EmployeeID)
	if err != nil {
		return nil, err
	}

	if err := s.store.DeleteEmployee(ctx, id); err != nil {
		slog.Error("DeleteEmployee failed", "employee_id", id, "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Employee deleted", "employee_id", id)

	return connect.NewResponse(&api.DeleteEmployeeResponse{}), nil
}
