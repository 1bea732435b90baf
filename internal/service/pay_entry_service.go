package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/payroll/internal/metrics"
	"github.com/mmynk/payroll/internal/models"
	"github.com/mmynk/payroll/internal/storage"
	"github.com/mmynk/payroll/pkg/api"
	"github.com/mmynk/payroll/pkg/api/apiconnect"
)

var _ apiconnect.PayEntryServiceHandler = (*PayEntryService)(nil)

// PayEntryService implements the Connect PayEntryService.
type PayEntryService struct {
	store   storage.PayrollStore
	policy  models.AmountPolicy
	metrics *metrics.Metrics
}

// NewPayEntryService creates a new PayEntryService. Amounts are checked
// against policy. m may be nil.
func NewPayEntryService(store storage.PayrollStore, policy models.AmountPolicy, m *metrics.Metrics) *PayEntryService {
	return &PayEntryService{
		store:   store,
		policy:  policy,
		metrics: m,
	}
}

// CreatePayEntry creates an entry owned by exactly one parent, named by
// parentType and parentId.
func (s *PayEntryService) CreatePayEntry(ctx context.Context, req *connect.Request[api.CreatePayEntryRequest]) (*connect.Response[api.CreatePayEntryResponse], error) {
	slog.Info("CreatePayEntry request received",
		"parent_type", req.Msg.ParentType,
		"parent_id", req.Msg.ParentID,
		"employee_id", req.Msg.EmployeeID,
	)

	kind, ok := models.ParseParentKind(req.Msg.ParentType)
	if !ok {
		return nil, connect.NewError(connect.CodeInvalidArgument,
			fmt.Errorf("parentType must be %q or %q", models.ParentPayGroup, models.ParentDisbursement))
	}
	parentID, err := parseID("parentId", req.Msg.ParentID)
	if err != nil {
		return nil, err
	}

	var errs models.ValidationErrors
	amount := parseDecimal(&errs, "amount", req.Msg.Amount)
	if len(errs) > 0 {
		return connect.NewResponse(&api.CreatePayEntryResponse{Errors: fieldErrors(errs)}), nil
	}

	var entry *models.PayEntry
	switch kind {
	case models.ParentPayGroup:
		entry, err = models.NewPayEntryForPayGroup(parentID,
			req.Msg.EmployeeID, req.Msg.AccountNumber, req.Msg.RoutingNumber, amount, s.policy)
	case models.ParentDisbursement:
		entry, err = models.NewPayEntryForDisbursement(parentID,
			req.Msg.EmployeeID, req.Msg.AccountNumber, req.Msg.RoutingNumber, amount, s.policy)
	}
	if fes, ok := userErrors(err); ok {
		return connect.NewResponse(&api.CreatePayEntryResponse{Errors: fes}), nil
	}
	if err != nil {
		return nil, toConnectError(err)
	}

	if err := s.attachParent(ctx, entry); err != nil {
		slog.Error("CreatePayEntry failed", "parent_type", kind.String(), "parent_id", parentID, "error", err)
		return nil, toConnectError(err)
	}

	if err := s.store.CreatePayEntry(ctx, entry); err != nil {
		slog.Error("CreatePayEntry failed", "parent_type", kind.String(), "parent_id", parentID, "error", err)
		return nil, toConnectError(err)
	}

	out, err := s.render(entry)
	if err != nil {
		return nil, err
	}

	slog.Info("Pay entry created",
		"pay_entry_id", entry.ID,
		"parent_type", kind.String(),
		"parent_id", parentID,
	)

	return connect.NewResponse(&api.CreatePayEntryResponse{PayEntry: out}), nil
}

// attachParent loads the entry's owner so a missing parent is reported as
// NotFound rather than as a foreign key failure.
func (s *PayEntryService) attachParent(ctx context.Context, e *models.PayEntry) error {
	switch o := e.Owner().(type) {
	case models.OwnedByPayGroup:
		pg, err := s.store.GetPayGroup(ctx, o.PayGroupID)
		if err != nil {
			return err
		}
		return e.AttachPayGroup(pg)
	case models.OwnedByDisbursement:
		d, err := s.store.GetDisbursement(ctx, o.DisbursementID)
		if err != nil {
			return err
		}
		return e.AttachDisbursement(d)
	}
	return fmt.Errorf("pay entry %s has no owner", e.ID)
}

// GetPayEntry retrieves a pay entry together with its parent.
func (s *PayEntryService) GetPayEntry(ctx context.Context, req *connect.Request[api.GetPayEntryRequest]) (*connect.Response[api.GetPayEntryResponse], error) {
	slog.Info("GetPayEntry request received", "pay_entry_id", req.Msg.PayEntryID)

	id, err := parseID("payEntryId", req.Msg.PayEntryID)
	if err != nil {
		return nil, err
	}

	entry, err := s.store.GetPayEntry(ctx, id)
	if err != nil {
		slog.Error("GetPayEntry failed", "pay_entry_id", id, "error", err)
		return nil, s.storeError(err)
	}

	out, err := s.render(entry)
	if err != nil {
		return nil, err
	}

	return connect.NewResponse(&api.GetPayEntryResponse{PayEntry: out}), nil
}

// ListPayEntries retrieves the entries owned by one parent.
func (s *PayEntryService) ListPayEntries(ctx context.Context, req *connect.Request[api.ListPayEntriesRequest]) (*connect.Response[api.ListPayEntriesResponse], error) {
	slog.Info("ListPayEntries request received",
		"parent_type", req.Msg.ParentType,
		"parent_id", req.Msg.ParentID,
	)

	kind, ok := models.ParseParentKind(req.Msg.ParentType)
	if !ok {
		return nil, connect.NewError(connect.CodeInvalidArgument,
			fmt.Errorf("parentType must be %q or %q", models.ParentPayGroup, models.ParentDisbursement))
	}
	parentID, err := parseID("parentId", req.Msg.ParentID)
	if err != nil {
		return nil, err
	}

	var owner models.Owner
	switch kind {
	case models.ParentPayGroup:
		owner = models.OwnedByPayGroup{PayGroupID: parentID}
	case models.ParentDisbursement:
		owner = models.OwnedByDisbursement{DisbursementID: parentID}
	}

	entries, err := s.store.ListPayEntries(ctx, owner)
	if err != nil {
		slog.Error("ListPayEntries failed", "parent_type", kind.String(), "parent_id", parentID, "error", err)
		return nil, s.storeError(err)
	}

	out := make([]*api.PayEntry, 0, len(entries))
	for _, e := range entries {
		rendered, err := s.render(e)
		if err != nil {
			return nil, err
		}
		out = append(out, rendered)
	}

	slog.Info("ListPayEntries successful", "parent_type", kind.String(), "parent_id", parentID, "count", len(out))

	return connect.NewResponse(&api.ListPayEntriesResponse{PayEntries: out}), nil
}

// DeletePayEntry deletes a single pay entry. Its parent is untouched.
func (s *PayEntryService) DeletePayEntry(ctx context.Context, req *connect.Request[api.DeletePayEntryRequest]) (*connect.Response[api.DeletePayEntryResponse], error) {
	slog.Info("DeletePayEntry request received", "pay_entry_id", req.Msg.PayEntryID)

	id, err := parseID("payEntryId", req.Msg.PayEntryID)
	if err != nil {
		return nil, err
	}

	if err := s.store.DeletePayEntry(ctx, id); err != nil {
		slog.Error("DeletePayEntry failed", "pay_entry_id", id, "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Pay entry deleted", "pay_entry_id", id)

	return connect.NewResponse(&api.DeletePayEntryResponse{}), nil
}

// render resolves e's parent. An entry whose stored references disagree with
// its discriminator is logged and reported as an internal error.
func (s *PayEntryService) render(e *models.PayEntry) (*api.PayEntry, error) {
	parent, err := models.ResolveParent(e)
	if err != nil {
		return nil, s.storeError(err)
	}
	return toAPIPayEntry(e, parent), nil
}

// storeError maps an error from loading or rendering pay entries. A corrupt
// row is logged and counted, and the client only sees which entry is bad.
func (s *PayEntryService) storeError(err error) error {
	var inconsistent *models.InconsistentEntryStateError
	if !errors.As(err, &inconsistent) {
		return toConnectError(err)
	}
	logIntegrityError(err)
	if s.metrics != nil {
		s.metrics.IncrementIntegrityError(inconsistent.Discriminator.String())
	}
	return connect.NewError(connect.CodeInternal, fmt.Errorf("pay entry %s is inconsistent", inconsistent.EntryID))
}

