// Package apiconnect wires the payroll services to Connect: procedure names,
// HTTP handlers and typed clients. Every handler and client speaks JSON
// through api.Codec.
package apiconnect

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/payroll/pkg/api"
)

const (
	PayGroupServiceName     = "payroll.v1.PayGroupService"
	DisbursementServiceName = "payroll.v1.DisbursementService"
	PayEntryServiceName     = "payroll.v1.PayEntryService"
)

const (
	PayGroupServiceCreatePayGroupProcedure = "/payroll.v1.PayGroupService/CreatePayGroup"
	PayGroupServiceGetPayGroupProcedure    = "/payroll.v1.PayGroupService/GetPayGroup"
	PayGroupServiceListPayGroupsProcedure  = "/payroll.v1.PayGroupService/ListPayGroups"
	PayGroupServiceDeletePayGroupProcedure = "/payroll.v1.PayGroupService/DeletePayGroup"

	DisbursementServiceCreateDisbursementProcedure     = "/payroll.v1.DisbursementService/CreateDisbursement"
	DisbursementServiceGetDisbursementProcedure        = "/payroll.v1.DisbursementService/GetDisbursement"
	DisbursementServiceListDisbursementsProcedure      = "/payroll.v1.DisbursementService/ListDisbursements"
	DisbursementServiceTransitionDisbursementProcedure = "/payroll.v1.DisbursementService/TransitionDisbursement"

	PayEntryServiceCreatePayEntryProcedure = "/payroll.v1.PayEntryService/CreatePayEntry"
	PayEntryServiceGetPayEntryProcedure    = "/payroll.v1.PayEntryService/GetPayEntry"
	PayEntryServiceListPayEntriesProcedure = "/payroll.v1.PayEntryService/ListPayEntries"
	PayEntryServiceDeletePayEntryProcedure = "/payroll.v1.PayEntryService/DeletePayEntry"
)

func handlerOptions(opts []connect.HandlerOption) []connect.HandlerOption {
	return append([]connect.HandlerOption{connect.WithCodec(api.Codec{})}, opts...)
}

func clientOptions(opts []connect.ClientOption) []connect.ClientOption {
	return append([]connect.ClientOption{connect.WithCodec(api.Codec{})}, opts...)
}

// route builds the service-level handler that dispatches on procedure path.
func route(prefix string, handlers map[string]http.Handler) (string, http.Handler) {
	return prefix, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h, ok := handlers[r.URL.Path]; ok {
			h.ServeHTTP(w, r)
			return
		}
		http.NotFound(w, r)
	})
}

// PayGroupServiceHandler is implemented by the PayGroup service.
type PayGroupServiceHandler interface {
	CreatePayGroup(context.Context, *connect.Request[api.CreatePayGroupRequest]) (*connect.Response[api.CreatePayGroupResponse], error)
	GetPayGroup(context.Context, *connect.Request[api.GetPayGroupRequest]) (*connect.Response[api.GetPayGroupResponse], error)
	ListPayGroups(context.Context, *connect.Request[api.ListPayGroupsRequest]) (*connect.Response[api.ListPayGroupsResponse], error)
	DeletePayGroup(context.Context, *connect.Request[api.DeletePayGroupRequest]) (*connect.Response[api.DeletePayGroupResponse], error)
}

// NewPayGroupServiceHandler returns the mount path and handler for svc.
func NewPayGroupServiceHandler(svc PayGroupServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	return route("/"+PayGroupServiceName+"/", map[string]http.Handler{
		PayGroupServiceCreatePayGroupProcedure: connect.NewUnaryHandler(PayGroupServiceCreatePayGroupProcedure, svc.CreatePayGroup, opts...),
		PayGroupServiceGetPayGroupProcedure:    connect.NewUnaryHandler(PayGroupServiceGetPayGroupProcedure, svc.GetPayGroup, opts...),
		PayGroupServiceListPayGroupsProcedure:  connect.NewUnaryHandler(PayGroupServiceListPayGroupsProcedure, svc.ListPayGroups, opts...),
		PayGroupServiceDeletePayGroupProcedure: connect.NewUnaryHandler(PayGroupServiceDeletePayGroupProcedure, svc.DeletePayGroup, opts...),
	})
}

// PayGroupServiceClient is a client for the PayGroup service.
type PayGroupServiceClient struct {
	createPayGroup *connect.Client[api.CreatePayGroupRequest, api.CreatePayGroupResponse]
	getPayGroup    *connect.Client[api.GetPayGroupRequest, api.GetPayGroupResponse]
	listPayGroups  *connect.Client[api.ListPayGroupsRequest, api.ListPayGroupsResponse]
	deletePayGroup *connect.Client[api.DeletePayGroupRequest, api.DeletePayGroupResponse]
}

// NewPayGroupServiceClient constructs a client for the service at baseURL.
func NewPayGroupServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *PayGroupServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = clientOptions(opts)
	return &PayGroupServiceClient{
		createPayGroup: connect.NewClient[api.CreatePayGroupRequest, api.CreatePayGroupResponse](httpClient, baseURL+PayGroupServiceCreatePayGroupProcedure, opts...),
		getPayGroup:    connect.NewClient[api.GetPayGroupRequest, api.GetPayGroupResponse](httpClient, baseURL+PayGroupServiceGetPayGroupProcedure, opts...),
		listPayGroups:  connect.NewClient[api.ListPayGroupsRequest, api.ListPayGroupsResponse](httpClient, baseURL+PayGroupServiceListPayGroupsProcedure, opts...),
		deletePayGroup: connect.NewClient[api.DeletePayGroupRequest, api.DeletePayGroupResponse](httpClient, baseURL+PayGroupServiceDeletePayGroupProcedure, opts...),
	}
}

func (c *PayGroupServiceClient) CreatePayGroup(ctx context.Context, req *connect.Request[api.CreatePayGroupRequest]) (*connect.Response[api.CreatePayGroupResponse], error) {
	return c.createPayGroup.CallUnary(ctx, req)
}

func (c *PayGroupServiceClient) GetPayGroup(ctx context.Context, req *connect.Request[api.GetPayGroupRequest]) (*connect.Response[api.GetPayGroupResponse], error) {
	return c.getPayGroup.CallUnary(ctx, req)
}

func (c *PayGroupServiceClient) ListPayGroups(ctx context.Context, req *connect.Request[api.ListPayGroupsRequest]) (*connect.Response[api.ListPayGroupsResponse], error) {
	return c.listPayGroups.CallUnary(ctx, req)
}

func (c *PayGroupServiceClient) DeletePayGroup(ctx context.Context, req *connect.Request[api.DeletePayGroupRequest]) (*connect.Response[api.DeletePayGroupResponse], error) {
	return c.deletePayGroup.CallUnary(ctx, req)
}

// DisbursementServiceHandler is implemented by the Disbursement service.
type DisbursementServiceHandler interface {
	CreateDisbursement(context.Context, *connect.Request[api.CreateDisbursementRequest]) (*connect.Response[api.CreateDisbursementResponse], error)
	GetDisbursement(context.Context, *connect.Request[api.GetDisbursementRequest]) (*connect.Response[api.GetDisbursementResponse], error)
	ListDisbursements(context.Context, *connect.Request[api.ListDisbursementsRequest]) (*connect.Response[api.ListDisbursementsResponse], error)
	TransitionDisbursement(context.Context, *connect.Request[api.TransitionDisbursementRequest]) (*connect.Response[api.TransitionDisbursementResponse], error)
}

// NewDisbursementServiceHandler returns the mount path and handler for svc.
func NewDisbursementServiceHandler(svc DisbursementServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	return route("/"+DisbursementServiceName+"/", map[string]http.Handler{
		DisbursementServiceCreateDisbursementProcedure:     connect.NewUnaryHandler(DisbursementServiceCreateDisbursementProcedure, svc.CreateDisbursement, opts...),
		DisbursementServiceGetDisbursementProcedure:        connect.NewUnaryHandler(DisbursementServiceGetDisbursementProcedure, svc.GetDisbursement, opts...),
		DisbursementServiceListDisbursementsProcedure:      connect.NewUnaryHandler(DisbursementServiceListDisbursementsProcedure, svc.ListDisbursements, opts...),
		DisbursementServiceTransitionDisbursementProcedure: connect.NewUnaryHandler(DisbursementServiceTransitionDisbursementProcedure, svc.TransitionDisbursement, opts...),
	})
}

// DisbursementServiceClient is a client for the Disbursement service.
type DisbursementServiceClient struct {
	createDisbursement     *connect.Client[api.CreateDisbursementRequest, api.CreateDisbursementResponse]
	getDisbursement        *connect.Client[api.GetDisbursementRequest, api.GetDisbursementResponse]
	listDisbursements      *connect.Client[api.ListDisbursementsRequest, api.ListDisbursementsResponse]
	transitionDisbursement *connect.Client[api.TransitionDisbursementRequest, api.TransitionDisbursementResponse]
}

// NewDisbursementServiceClient constructs a client for the service at baseURL.
func NewDisbursementServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *DisbursementServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = clientOptions(opts)
	return &DisbursementServiceClient{
		createDisbursement:     connect.NewClient[api.CreateDisbursementRequest, api.CreateDisbursementResponse](httpClient, baseURL+DisbursementServiceCreateDisbursementProcedure, opts...),
		getDisbursement:        connect.NewClient[api.GetDisbursementRequest, api.GetDisbursementResponse](httpClient, baseURL+DisbursementServiceGetDisbursementProcedure, opts...),
		listDisbursements:      connect.NewClient[api.ListDisbursementsRequest, api.ListDisbursementsResponse](httpClient, baseURL+DisbursementServiceListDisbursementsProcedure, opts...),
		transitionDisbursement: connect.NewClient[api.TransitionDisbursementRequest, api.TransitionDisbursementResponse](httpClient, baseURL+DisbursementServiceTransitionDisbursementProcedure, opts...),
	}
}

func (c *DisbursementServiceClient) CreateDisbursement(ctx context.Context, req *connect.Request[api.CreateDisbursementRequest]) (*connect.Response[api.CreateDisbursementResponse], error) {
	return c.createDisbursement.CallUnary(ctx, req)
}

func (c *DisbursementServiceClient) GetDisbursement(ctx context.Context, req *connect.Request[api.GetDisbursementRequest]) (*connect.Response[api.GetDisbursementResponse], error) {
	return c.getDisbursement.CallUnary(ctx, req)
}

func (c *DisbursementServiceClient) ListDisbursements(ctx context.Context, req *connect.Request[api.ListDisbursementsRequest]) (*connect.Response[api.ListDisbursementsResponse], error) {
	return c.listDisbursements.CallUnary(ctx, req)
}

func (c *DisbursementServiceClient) TransitionDisbursement(ctx context.Context, req *connect.Request[api.TransitionDisbursementRequest]) (*connect.Response[api.TransitionDisbursementResponse], error) {
	return c.transitionDisbursement.CallUnary(ctx, req)
}

// PayEntryServiceHandler is implemented by the PayEntry service.
type PayEntryServiceHandler interface {
	CreatePayEntry(context.Context, *connect.Request[api.CreatePayEntryRequest]) (*connect.Response[api.CreatePayEntryResponse], error)
	GetPayEntry(context.Context, *connect.Request[api.GetPayEntryRequest]) (*connect.Response[api.GetPayEntryResponse], error)
	ListPayEntries(context.Context, *connect.Request[api.ListPayEntriesRequest]) (*connect.Response[api.ListPayEntriesResponse], error)
	DeletePayEntry(context.Context, *connect.Request[api.DeletePayEntryRequest]) (*connect.Response[api.DeletePayEntryResponse], error)
}

// NewPayEntryServiceHandler returns the mount path and handler for svc.
func NewPayEntryServiceHandler(svc PayEntryServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	return route("/"+PayEntryServiceName+"/", map[string]http.Handler{
		PayEntryServiceCreatePayEntryProcedure: connect.NewUnaryHandler(PayEntryServiceCreatePayEntryProcedure, svc.CreatePayEntry, opts...),
		PayEntryServiceGetPayEntryProcedure:    connect.NewUnaryHandler(PayEntryServiceGetPayEntryProcedure, svc.GetPayEntry, opts...),
		PayEntryServiceListPayEntriesProcedure: connect.NewUnaryHandler(PayEntryServiceListPayEntriesProcedure, svc.ListPayEntries, opts...),
		PayEntryServiceDeletePayEntryProcedure: connect.NewUnaryHandler(PayEntryServiceDeletePayEntryProcedure, svc.DeletePayEntry, opts...),
	})
}

// PayEntryServiceClient is a client for the PayEntry service.
type PayEntryServiceClient struct {
	createPayEntry *connect.Client[api.CreatePayEntryRequest, api.CreatePayEntryResponse]
	getPayEntry    *connect.Client[api.GetPayEntryRequest, api.GetPayEntryResponse]
	listPayEntries *connect.Client[api.ListPayEntriesRequest, api.ListPayEntriesResponse]
	deletePayEntry *connect.Client[api.DeletePayEntryRequest, api.DeletePayEntryResponse]
}

// NewPayEntryServiceClient constructs a client for the service at baseURL.
func NewPayEntryServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *PayEntryServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = clientOptions(opts)
	return &PayEntryServiceClient{
		createPayEntry: connect.NewClient[api.CreatePayEntryRequest, api.CreatePayEntryResponse](httpClient, baseURL+PayEntryServiceCreatePayEntryProcedure, opts...),
		getPayEntry:    connect.NewClient[api.GetPayEntryRequest, api.GetPayEntryResponse](httpClient, baseURL+PayEntryServiceGetPayEntryProcedure, opts...),
		listPayEntries: connect.NewClient[api.ListPayEntriesRequest, api.ListPayEntriesResponse](httpClient, baseURL+PayEntryServiceListPayEntriesProcedure, opts...),
		deletePayEntry: connect.NewClient[api.DeletePayEntryRequest, api.DeletePayEntryResponse](httpClient, baseURL+PayEntryServiceDeletePayEntryProcedure, opts...),
	}
}

func (c *PayEntryServiceClient) CreatePayEntry(ctx context.Context, req *connect.Request[api.CreatePayEntryRequest]) (*connect.Response[api.CreatePayEntryResponse], error) {
	return c.createPayEntry.CallUnary(ctx, req)
}

func (c *PayEntryServiceClient) GetPayEntry(ctx context.Context, req *connect.Request[api.GetPayEntryRequest]) (*connect.Response[api.GetPayEntryResponse], error) {
	return c.getPayEntry.CallUnary(ctx, req)
}

func (c *PayEntryServiceClient) ListPayEntries(ctx context.Context, req *connect.Request[api.ListPayEntriesRequest]) (*connect.Response[api.ListPayEntriesResponse], error) {
	return c.listPayEntries.CallUnary(ctx, req)
}

func (c *PayEntryServiceClient) DeletePayEntry(ctx context.Context, req *connect.Request[api.DeletePayEntryRequest]) (*connect.Response[api.DeletePayEntryResponse], error) {
	return c.deletePayEntry.CallUnary(ctx, req)
}
