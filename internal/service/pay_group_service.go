package service

import (
	"context"
	"log/slog"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/payroll/internal/metrics"
	"github.com/mmynk/payroll/internal/models"
	"github.com/mmynk/payroll/internal/storage"
	"github.com/mmynk/payroll/pkg/api"
	"github.com/mmynk/payroll/pkg/api/apiconnect"
)

var _ apiconnect.PayGroupServiceHandler = (*PayGroupService)(nil)

// PayGroupService implements the Connect PayGroupService.
type PayGroupService struct {
	store   storage.PayrollStore
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewPayGroupService creates a new PayGroupService with the given storage
// backend. m may be nil.
func NewPayGroupService(store storage.PayrollStore, m *metrics.Metrics) *PayGroupService {
	return &PayGroupService{
		store:   store,
		metrics: m,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// CreatePayGroup creates a new pay group. Invalid input is reported in the
// response's errors list.
func (s *PayGroupService) CreatePayGroup(ctx context.Context, req *connect.Request[api.CreatePayGroupRequest]) (*connect.Response[api.CreatePayGroupResponse], error) {
	slog.Info("CreatePayGroup request received",
		"name", req.Msg.Name,
		"category", req.Msg.Category,
		"approvers_count", len(req.Msg.ApproverIDs),
	)

	// Unknown categories are reported by NewPayGroup.
	category, _ := models.ParsePayCategory(req.Msg.Category)

	pg, err := models.NewPayGroup(req.Msg.Name, category, req.Msg.ApproverIDs, s.now())
	if errs, ok := userErrors(err); ok {
		return connect.NewResponse(&api.CreatePayGroupResponse{Errors: errs}), nil
	}
	if err != nil {
		return nil, toConnectError(err)
	}

	if err := s.store.CreatePayGroup(ctx, pg); err != nil {
		slog.Error("CreatePayGroup failed", "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Pay group created", "pay_group_id", pg.ID)

	return connect.NewResponse(&api.CreatePayGroupResponse{PayGroup: toAPIPayGroup(pg)}), nil
}

// GetPayGroup retrieves a pay group by ID.
func (s *PayGroupService) GetPayGroup(ctx context.Context, req *connect.Request[api.GetPayGroupRequest]) (*connect.Response[api.GetPayGroupResponse], error) {
	slog.Info("GetPayGroup request received", "pay_group_id", req.Msg.PayGroupID)

	id, err := parseID("payGroupId", req.Msg.PayGroupID)
	if err != nil {
		return nil, err
	}

	pg, err := s.store.GetPayGroup(ctx, id)
	if err != nil {
		slog.Error("GetPayGroup failed", "pay_group_id", id, "error", err)
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&api.GetPayGroupResponse{PayGroup: toAPIPayGroup(pg)}), nil
}

// ListPayGroups retrieves all pay groups.
func (s *PayGroupService) ListPayGroups(ctx context.Context, req *connect.Request[api.ListPayGroupsRequest]) (*connect.Response[api.ListPayGroupsResponse], error) {
	slog.Info("ListPayGroups request received")

	groups, err := s.store.ListPayGroups(ctx)
	if err != nil {
		slog.Error("ListPayGroups failed", "error", err)
		return nil, toConnectError(err)
	}

	out := make([]*api.PayGroup, len(groups))
	for i, pg := range groups {
		out[i] = toAPIPayGroup(pg)
	}

	slog.Info("ListPayGroups successful", "count", len(groups))

	return connect.NewResponse(&api.ListPayGroupsResponse{PayGroups: out}), nil
}

// DeletePayGroup deletes a pay group together with its disbursements and
// every pay entry owned by either.
func (s *PayGroupService) DeletePayGroup(ctx context.Context, req *connect.Request[api.DeletePayGroupRequest]) (*connect.Response[api.DeletePayGroupResponse], error) {
	slog.Info("DeletePayGroup request received", "pay_group_id", req.Msg.PayGroupID)

	id, err := parseID("payGroupId", req.Msg.PayGroupID)
	if err != nil {
		return nil, err
	}

	result, err := s.store.DeletePayGroup(ctx, id)
	if err != nil {
		slog.Error("DeletePayGroup failed", "pay_group_id", id, "error", err)
		return nil, toConnectError(err)
	}

	if s.metrics != nil {
		s.metrics.AddCascadeDeletes(result.Disbursements, result.PayEntries)
	}

	slog.Info("Pay group deleted",
		"pay_group_id", id,
		"disbursements_deleted", result.Disbursements,
		"pay_entries_deleted", result.PayEntries,
	)

	return connect.NewResponse(&api.DeletePayGroupResponse{
		DeletedDisbursements: result.Disbursements,
		DeletedPayEntries:    result.PayEntries,
	}), nil
}
