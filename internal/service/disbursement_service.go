package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/payroll/internal/middleware"
	"github.com/mmynk/payroll/internal/models"
	"github.com/mmynk/payroll/internal/storage"
	"github.com/mmynk/payroll/pkg/api"
	"github.com/mmynk/payroll/pkg/api/apiconnect"
)

var _ apiconnect.DisbursementServiceHandler = (*DisbursementService)(nil)

var errNoActor = errors.New("request has no authenticated actor")

// DisbursementService implements the Connect DisbursementService.
type DisbursementService struct {
	store storage.PayrollStore
	now   func() time.Time
}

// NewDisbursementService creates a new DisbursementService with the given storage backend.
func NewDisbursementService(store storage.PayrollStore) *DisbursementService {
	return &DisbursementService{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func actorFrom(ctx context.Context) (string, error) {
	actor := middleware.GetActorID(ctx)
	if actor == "" {
		return "", connect.NewError(connect.CodeUnauthenticated, errNoActor)
	}
	return actor, nil
}

// CreateDisbursement schedules a new pending disbursement under an existing
// pay group.
func (s *DisbursementService) CreateDisbursement(ctx context.Context, req *connect.Request[api.CreateDisbursementRequest]) (*connect.Response[api.CreateDisbursementResponse], error) {
	slog.Info("CreateDisbursement request received",
		"pay_group_id", req.Msg.PayGroupID,
		"scheduled_at", req.Msg.ScheduledAt,
	)

	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}

	payGroupID, err := parseID("payGroupId", req.Msg.PayGroupID)
	if err != nil {
		return nil, err
	}

	d, err := models.NewDisbursement(payGroupID, req.Msg.ScheduledAt, actor, s.now())
	if errs, ok := userErrors(err); ok {
		return connect.NewResponse(&api.CreateDisbursementResponse{Errors: errs}), nil
	}
	if err != nil {
		return nil, toConnectError(err)
	}

	if _, err := s.store.GetPayGroup(ctx, payGroupID); err != nil {
		slog.Error("CreateDisbursement failed", "pay_group_id", payGroupID, "error", err)
		return nil, toConnectError(err)
	}

	if err := s.store.CreateDisbursement(ctx, d); err != nil {
		slog.Error("CreateDisbursement failed", "pay_group_id", payGroupID, "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Disbursement created", "disbursement_id", d.ID, "pay_group_id", payGroupID)

	return connect.NewResponse(&api.CreateDisbursementResponse{Disbursement: toAPIDisbursement(d)}), nil
}

// GetDisbursement retrieves a disbursement by ID.
func (s *DisbursementService) GetDisbursement(ctx context.Context, req *connect.Request[api.GetDisbursementRequest]) (*connect.Response[api.GetDisbursementResponse], error) {
	slog.Info("GetDisbursement request received", "disbursement_id", req.Msg.DisbursementID)

	id, err := parseID("disbursementId", req.Msg.DisbursementID)
	if err != nil {
		return nil, err
	}

	d, err := s.store.GetDisbursement(ctx, id)
	if err != nil {
		slog.Error("GetDisbursement failed", "disbursement_id", id, "error", err)
		return nil, toConnectError(err)
	}

	return connect.NewResponse(&api.GetDisbursementResponse{Disbursement: toAPIDisbursement(d)}), nil
}

// ListDisbursements retrieves the disbursements of a pay group.
func (s *DisbursementService) ListDisbursements(ctx context.Context, req *connect.Request[api.ListDisbursementsRequest]) (*connect.Response[api.ListDisbursementsResponse], error) {
	slog.Info("ListDisbursements request received", "pay_group_id", req.Msg.PayGroupID)

	payGroupID, err := parseID("payGroupId", req.Msg.PayGroupID)
	if err != nil {
		return nil, err
	}

	if _, err := s.store.GetPayGroup(ctx, payGroupID); err != nil {
		return nil, toConnectError(err)
	}

	disbursements, err := s.store.ListDisbursements(ctx, payGroupID)
	if err != nil {
		slog.Error("ListDisbursements failed", "pay_group_id", payGroupID, "error", err)
		return nil, toConnectError(err)
	}

	out := make([]*api.Disbursement, len(disbursements))
	for i, d := range disbursements {
		out[i] = toAPIDisbursement(d)
	}

	slog.Info("ListDisbursements successful", "pay_group_id", payGroupID, "count", len(out))

	return connect.NewResponse(&api.ListDisbursementsResponse{Disbursements: out}), nil
}

// TransitionDisbursement moves a disbursement along its lifecycle. Approving
// or rejecting is limited to the pay group's approvers when it names any.
func (s *DisbursementService) TransitionDisbursement(ctx context.Context, req *connect.Request[api.TransitionDisbursementRequest]) (*connect.Response[api.TransitionDisbursementResponse], error) {
	slog.Info("TransitionDisbursement request received",
		"disbursement_id", req.Msg.DisbursementID,
		"state", req.Msg.State,
	)

	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}

	id, err := parseID("disbursementId", req.Msg.DisbursementID)
	if err != nil {
		return nil, err
	}

	next, ok := models.ParseDisbursementState(req.Msg.State)
	if !ok {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("unknown disbursement state %q", req.Msg.State))
	}

	d, err := s.store.GetDisbursement(ctx, id)
	if err != nil {
		slog.Error("TransitionDisbursement failed", "disbursement_id", id, "error", err)
		return nil, toConnectError(err)
	}

	if next == models.DisbursementApproved || next == models.DisbursementRejected {
		pg, err := s.store.GetPayGroup(ctx, d.PayGroupID)
		if err != nil {
			return nil, toConnectError(err)
		}
		if len(pg.ApproverIDs) > 0 && !pg.HasApprover(actor) {
			return nil, connect.NewError(connect.CodePermissionDenied,
				fmt.Errorf("%s is not an approver of pay group %s", actor, pg.ID))
		}
	}

	previous := d.State
	if err := d.TransitionTo(next, actor, s.now()); err != nil {
		return nil, toConnectError(err)
	}

	if err := s.store.UpdateDisbursement(ctx, d, previous); err != nil {
		slog.Error("TransitionDisbursement failed", "disbursement_id", id, "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Disbursement transitioned",
		"disbursement_id", id,
		"from", previous,
		"to", d.State,
		"actor_id", actor,
	)

	return connect.NewResponse(&api.TransitionDisbursementResponse{Disbursement: toAPIDisbursement(d)}), nil
}
