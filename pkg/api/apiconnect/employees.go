package apiconnect

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/payroll/pkg/api"
)

const (
	BusinessEmployeeServiceName = "payroll.v1.BusinessEmployeeService"
	EmployeeServiceName         = "payroll.v1.EmployeeService"
)

const (
	BusinessEmployeeServiceCreateBusinessEmployeeProcedure = "/payroll.v1.BusinessEmployeeService/CreateBusinessEmployee"
	BusinessEmployeeServiceGetBusinessEmployeeProcedure    = "/payroll.v1.BusinessEmployeeService/GetBusinessEmployee"
	BusinessEmployeeServiceUpdateBusinessEmployeeProcedure = "/payroll.v1.BusinessEmployeeService/UpdateBusinessEmployee"
	BusinessEmployeeServiceDeleteBusinessEmployeeProcedure = "/payroll.v1.BusinessEmployeeService/DeleteBusinessEmployee"

	EmployeeServiceCreateEmployeeProcedure = "/payroll.v1.EmployeeService/CreateEmployee"
	EmployeeServiceGetEmployeeProcedure    = "/payroll.v1.EmployeeService/GetEmployee"
	EmployeeServiceListEmployeesProcedure  = "/payroll.v1.EmployeeService/ListEmployees"
	EmployeeServiceUpdateEmployeeProcedure = "/payroll.v1.EmployeeService/UpdateEmployee"
	EmployeeServiceDeleteEmployeeProcedure = "/payroll.v1.EmployeeService/DeleteEmployee"
)

// BusinessEmployeeServiceHandler is implemented by the BusinessEmployee service.
type BusinessEmployeeServiceHandler interface {
	CreateBusinessEmployee(context.Context, *connect.Request[api.CreateBusinessEmployeeRequest]) (*connect.Response[api.CreateBusinessEmployeeResponse], error)
	GetBusinessEmployee(context.Context, *connect.Request[api.GetBusinessEmployeeRequest]) (*connect.Response[api.GetBusinessEmployeeResponse], error)
	UpdateBusinessEmployee(context.Context, *connect.Request[api.UpdateBusinessEmployeeRequest]) (*connect.Response[api.UpdateBusinessEmployeeResponse], error)
	DeleteBusinessEmployee(context.Context, *connect.Request[api.DeleteBusinessEmployeeRequest]) (*connect.Response[api.DeleteBusinessEmployeeResponse], error)
}

// NewBusinessEmployeeServiceHandler returns the mount path and handler for svc.
func NewBusinessEmployeeServiceHandler(svc BusinessEmployeeServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	return route("/"+BusinessEmployeeServiceName+"/", map[string]http.Handler{
		BusinessEmployeeServiceCreateBusinessEmployeeProcedure: connect.NewUnaryHandler(BusinessEmployeeServiceCreateBusinessEmployeeProcedure, svc.CreateBusinessEmployee, opts...),
		BusinessEmployeeServiceGetBusinessEmployeeProcedure:    connect.NewUnaryHandler(BusinessEmployeeServiceGetBusinessEmployeeProcedure, svc.GetBusinessEmployee, opts...),
		BusinessEmployeeServiceUpdateBusinessEmployeeProcedure: connect.NewUnaryHandler(BusinessEmployeeServiceUpdateBusinessEmployeeProcedure, svc.UpdateBusinessEmployee, opts...),
		BusinessEmployeeServiceDeleteBusinessEmployeeProcedure: connect.NewUnaryHandler(BusinessEmployeeServiceDeleteBusinessEmployeeProcedure, svc.DeleteBusinessEmployee, opts...),
	})
}

// BusinessEmployeeServiceClient is a client for the BusinessEmployee service.
type BusinessEmployeeServiceClient struct {
	create *connect.Client[api.CreateBusinessEmployeeRequest, api.CreateBusinessEmployeeResponse]
	get    *connect.Client[api.GetBusinessEmployeeRequest, api.GetBusinessEmployeeResponse]
	update *connect.Client[api.UpdateBusinessEmployeeRequest, api.UpdateBusinessEmployeeResponse]
	delete *connect.Client[api.DeleteBusinessEmployeeRequest, api.DeleteBusinessEmployeeResponse]
}

// NewBusinessEmployeeServiceClient constructs a client for the service at baseURL.
func NewBusinessEmployeeServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *BusinessEmployeeServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = clientOptions(opts)
	return &BusinessEmployeeServiceClient{
		create: connect.NewClient[api.CreateBusinessEmployeeRequest, api.CreateBusinessEmployeeResponse](httpClient, baseURL+BusinessEmployeeServiceCreateBusinessEmployeeProcedure, opts...),
		get:    connect.NewClient[api.GetBusinessEmployeeRequest, api.GetBusinessEmployeeResponse](httpClient, baseURL+BusinessEmployeeServiceGetBusinessEmployeeProcedure, opts...),
		update: connect.NewClient[api.UpdateBusinessEmployeeRequest, api.UpdateBusinessEmployeeResponse](httpClient, baseURL+BusinessEmployeeServiceUpdateBusinessEmployeeProcedure, opts...),
		delete: connect.NewClient[api.DeleteBusinessEmployeeRequest, api.DeleteBusinessEmployeeResponse](httpClient, baseURL+BusinessEmployeeServiceDeleteBusinessEmployeeProcedure, opts...),
	}
}

func (c *BusinessEmployeeServiceClient) CreateBusinessEmployee(ctx context.Context, req *connect.Request[api.CreateBusinessEmployeeRequest]) (*connect.Response[api.CreateBusinessEmployeeResponse], error) {
	return c.create.CallUnary(ctx, req)
}

func (c *BusinessEmployeeServiceClient) GetBusinessEmployee(ctx context.Context, req *connect.Request[api.GetBusinessEmployeeRequest]) (*connect.Response[api.GetBusinessEmployeeResponse], error) {
	return c.get.CallUnary(ctx, req)
}

func (c *BusinessEmployeeServiceClient) UpdateBusinessEmployee(ctx context.Context, req *connect.Request[api.UpdateBusinessEmployeeRequest]) (*connect.Response[api.UpdateBusinessEmployeeResponse], error) {
	return c.update.CallUnary(ctx, req)
}

func (c *BusinessEmployeeServiceClient) DeleteBusinessEmployee(ctx context.Context, req *connect.Request[api.DeleteBusinessEmployeeRequest]) (*connect.Response[api.DeleteBusinessEmployeeResponse], error) {
	return c.delete.CallUnary(ctx, req)
}

// EmployeeServiceHandler is implemented by the Employee directory service.
type EmployeeServiceHandler interface {
	CreateEmployee(context.Context, *connect.Request[api.CreateEmployeeRequest]) (*connect.Response[api.CreateEmployeeResponse], error)
	GetEmployee(context.Context, *connect.Request[api.GetEmployeeRequest]) (*connect.Response[api.GetEmployeeResponse], error)
	ListEmployees(context.Context, *connect.Request[api.ListEmployeesRequest]) (*connect.Response[api.ListEmployeesResponse], error)
	UpdateEmployee(context.Context, *connect.Request[api.UpdateEmployeeRequest]) (*connect.Response[api.UpdateEmployeeResponse], error)
	DeleteEmployee(context.Context, *connect.Request[api.DeleteEmployeeRequest]) (*connect.Response[api.DeleteEmployeeResponse], error)
}

// NewEmployeeServiceHandler returns the mount path and handler for svc.
func NewEmployeeServiceHandler(svc EmployeeServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	return route("/"+EmployeeServiceName+"/", map[string]http.Handler{
		EmployeeServiceCreateEmployeeProcedure: connect.NewUnaryHandler(EmployeeServiceCreateEmployeeProcedure, svc.CreateEmployee, opts...),
		EmployeeServiceGetEmployeeProcedure:    connect.NewUnaryHandler(EmployeeServiceGetEmployeeProcedure, svc.GetEmployee, opts...),
		EmployeeServiceListEmployeesProcedure:  connect.NewUnaryHandler(EmployeeServiceListEmployeesProcedure, svc.ListEmployees, opts...),
		EmployeeServiceUpdateEmployeeProcedure: connect.NewUnaryHandler(EmployeeServiceUpdateEmployeeProcedure, svc.UpdateEmployee, opts...),
		EmployeeServiceDeleteEmployeeProcedure: connect.NewUnaryHandler(EmployeeServiceDeleteEmployeeProcedure, svc.DeleteEmployee, opts...),
	})
}

// EmployeeServiceClient is a client for the Employee directory service.
type EmployeeServiceClient struct {
	create *connect.Client[api.CreateEmployeeRequest, api.CreateEmployeeResponse]
	get    *connect.Client[api.GetEmployeeRequest, api.GetEmployeeResponse]
	list   *connect.Client[api.ListEmployeesRequest, api.ListEmployeesResponse]
	update *connect.Client[api.UpdateEmployeeRequest, api.UpdateEmployeeResponse]
	delete *connect.Client[api.DeleteEmployeeRequest, api.DeleteEmployeeResponse]
}

// NewEmployeeServiceClient constructs a client for the service at baseURL.
func NewEmployeeServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *EmployeeServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = clientOptions(opts)
	return &EmployeeServiceClient{
		create: connect.NewClient[api.CreateEmployeeRequest, api.CreateEmployeeResponse](httpClient, baseURL+EmployeeServiceCreateEmployeeProcedure, opts...),
		get:    connect.NewClient[api.GetEmployeeRequest, api.GetEmployeeResponse](httpClient, baseURL+EmployeeServiceGetEmployeeProcedure, opts...),
		list:   connect.NewClient[api.ListEmployeesRequest, api.ListEmployeesResponse](httpClient, baseURL+EmployeeServiceListEmployeesProcedure, opts...),
		update: connect.NewClient[api.UpdateEmployeeRequest, api.UpdateEmployeeResponse](httpClient, baseURL+EmployeeServiceUpdateEmployeeProcedure, opts...),
		delete: connect.NewClient[api.DeleteEmployeeRequest, api.DeleteEmployeeResponse](httpClient, baseURL+EmployeeServiceDeleteEmployeeProcedure, opts...),
	}
}

func (c *EmployeeServiceClient) CreateEmployee(ctx context.Context, req *connect.Request[api.CreateEmployeeRequest]) (*connect.Response[api.CreateEmployeeResponse], error) {
	return c.create.CallUnary(ctx, req)
}

func (c *EmployeeServiceClient) GetEmployee(ctx context.Context, req *connect.Request[api.GetEmployeeRequest]) (*connect.Response[api.GetEmployeeResponse], error) {
	return c.get.CallUnary(ctx, req)
}

func (c *EmployeeServiceClient) ListEmployees(ctx context.Context, req *connect.Request[api.ListEmployeesRequest]) (*connect.Response[api.ListEmployeesResponse], error) {
	return c.list.CallUnary(ctx, req)
}

func (c *EmployeeServiceClient) UpdateEmployee(ctx context.Context, req *connect.Request[api.UpdateEmployeeRequest]) (*connect.Response[api.UpdateEmployeeResponse], error) {
	return c.update.CallUnary(ctx, req)
}

func (c *EmployeeServiceClient) DeleteEmployee(ctx context.Context, req *connect.Request[api.DeleteEmployeeRequest]) (*connect.Response[api.DeleteEmployeeResponse], error) {
	return c.delete.CallUnary(ctx, req)
}
