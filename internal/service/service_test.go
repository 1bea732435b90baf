package service

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/mmynk/payroll/internal/auth"
	"github.com/mmynk/payroll/internal/metrics"
	"github.com/mmynk/payroll/internal/middleware"
	"github.com/mmynk/payroll/internal/models"
	"github.com/mmynk/payroll/internal/storage"
	"github.com/mmynk/payroll/internal/storage/sqlite"
	"github.com/mmynk/payroll/pkg/api"
	"github.com/mmynk/payroll/pkg/api/apiconnect"
)

const testSecret = "test-secret-key-for-service-tests"

type testClients struct {
	payGroups         *apiconnect.PayGroupServiceClient
	disbursements     *apiconnect.DisbursementServiceClient
	payEntries        *apiconnect.PayEntryServiceClient
	businessEmployees *apiconnect.BusinessEmployeeServiceClient
	employees         *apiconnect.EmployeeServiceClient

	store      *sqlite.SQLiteStore
	jwtManager *auth.JWTManager
	metrics    *metrics.Metrics
	registry   *prometheus.Registry
}

// token returns a bearer token for actor.
func (c *testClients) token(t *testing.T, actor string) string {
	t.Helper()
	tok, err := c.jwtManager.Generate(actor)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}
	return tok
}

// authed wraps msg in a request carrying a token for actor.
func authed[T any](t *testing.T, c *testClients, actor string, msg *T) *connect.Request[T] {
	t.Helper()
	req := connect.NewRequest(msg)
	req.Header().Set("Authorization", "Bearer "+c.token(t, actor))
	return req
}

type serverOptions struct {
	store  storage.PayrollStore
	policy models.AmountPolicy
}

// setupTestServer serves every payroll service over httptest with the same
// interceptor chain the server binary uses.
func setupTestServer(t *testing.T, opts ...func(*serverOptions)) *testClients {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	o := serverOptions{store: store, policy: models.AmountAny}
	for _, opt := range opts {
		opt(&o)
	}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	jwtManager := auth.NewJWTManager(testSecret, time.Hour)

	interceptors := connect.WithInterceptors(
		middleware.MetricsInterceptor(m),
		middleware.AuthByProcedure(jwtManager, ReadOnlyProcedures...),
		middleware.LoggingInterceptor(ReadOnlyProcedures...),
	)

	mux := http.NewServeMux()
	mux.Handle(apiconnect.NewPayGroupServiceHandler(NewPayGroupService(o.store, m), interceptors))
	mux.Handle(apiconnect.NewDisbursementServiceHandler(NewDisbursementService(o.store), interceptors))
	mux.Handle(apiconnect.NewPayEntryServiceHandler(NewPayEntryService(o.store, o.policy, m), interceptors))
	mux.Handle(apiconnect.NewBusinessEmployeeServiceHandler(NewBusinessEmployeeService(o.store), interceptors))
	mux.Handle(apiconnect.NewEmployeeServiceHandler(NewEmployeeService(newMemEmployeeStore()), interceptors))

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return &testClients{
		payGroups:         apiconnect.NewPayGroupServiceClient(http.DefaultClient, server.URL),
		disbursements:     apiconnect.NewDisbursementServiceClient(http.DefaultClient, server.URL),
		payEntries:        apiconnect.NewPayEntryServiceClient(http.DefaultClient, server.URL),
		businessEmployees: apiconnect.NewBusinessEmployeeServiceClient(http.DefaultClient, server.URL),
		employees:         apiconnect.NewEmployeeServiceClient(http.DefaultClient, server.URL),
		store:             store,
		jwtManager:        jwtManager,
		metrics:           m,
		registry:          reg,
	}
}

func assertCode(t *testing.T, err error, want connect.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %v error, got nil", want)
	}
	if got := connect.CodeOf(err); got != want {
		t.Fatalf("expected code %v, got %v (%v)", want, got, err)
	}
}

func createPayGroup(t *testing.T, c *testClients, name string, approvers ...string) *api.PayGroup {
	t.Helper()
	resp, err := c.payGroups.CreatePayGroup(context.Background(), authed(t, c, "alice", &api.CreatePayGroupRequest{
		Name:        name,
		Category:    "payroll",
		ApproverIDs: approvers,
	}))
	if err != nil {
		t.Fatalf("CreatePayGroup failed: %v", err)
	}
	if len(resp.Msg.Errors) > 0 {
		t.Fatalf("CreatePayGroup rejected: %v", resp.Msg.Errors)
	}
	return resp.Msg.PayGroup
}

func createDisbursement(t *testing.T, c *testClients, payGroupID string) *api.Disbursement {
	t.Helper()
	resp, err := c.disbursements.CreateDisbursement(context.Background(), authed(t, c, "alice", &api.CreateDisbursementRequest{
		PayGroupID:  payGroupID,
		ScheduledAt: time.Date(2026, 11, 1, 9, 0, 0, 0, time.UTC),
	}))
	if err != nil {
		t.Fatalf("CreateDisbursement failed: %v", err)
	}
	if len(resp.Msg.Errors) > 0 {
		t.Fatalf("CreateDisbursement rejected: %v", resp.Msg.Errors)
	}
	return resp.Msg.Disbursement
}

func createPayEntry(t *testing.T, c *testClients, parentType, parentID, amount string) *api.PayEntry {
	t.Helper()
	resp, err := c.payEntries.CreatePayEntry(context.Background(), authed(t, c, "alice", &api.CreatePayEntryRequest{
		ParentType:    parentType,
		ParentID:      parentID,
		EmployeeID:    "emp1",
		AccountNumber: "acct1",
		RoutingNumber: "123456789",
		Amount:        amount,
	}))
	if err != nil {
		t.Fatalf("CreatePayEntry failed: %v", err)
	}
	if len(resp.Msg.Errors) > 0 {
		t.Fatalf("CreatePayEntry rejected: %v", resp.Msg.Errors)
	}
	return resp.Msg.PayEntry
}

func TestCreatePayGroup(t *testing.T) {
	c := setupTestServer(t)

	pg := createPayGroup(t, c, "Engineering", "alice", "bob", "alice")

	if pg.ID == "" {
		t.Error("expected non-empty pay group ID")
	}
	if pg.Category != "PAYROLL" {
		t.Errorf("category: expected 'PAYROLL', got '%s'", pg.Category)
	}
	if len(pg.ApproverIDs) != 2 {
		t.Errorf("approvers: expected 2 after dedup, got %v", pg.ApproverIDs)
	}
	if pg.CreatedAt.IsZero() {
		t.Error("expected non-zero CreatedAt")
	}

	// Reads do not require a token.
	getResp, err := c.payGroups.GetPayGroup(context.Background(), connect.NewRequest(&api.GetPayGroupRequest{PayGroupID: pg.ID}))
	if err != nil {
		t.Fatalf("GetPayGroup failed: %v", err)
	}
	if getResp.Msg.PayGroup.Name != "Engineering" {
		t.Errorf("name: expected 'Engineering', got '%s'", getResp.Msg.PayGroup.Name)
	}

	listResp, err := c.payGroups.ListPayGroups(context.Background(), connect.NewRequest(&api.ListPayGroupsRequest{}))
	if err != nil {
		t.Fatalf("ListPayGroups failed: %v", err)
	}
	if len(listResp.Msg.PayGroups) != 1 {
		t.Errorf("expected 1 pay group, got %d", len(listResp.Msg.PayGroups))
	}
}

func TestCreatePayGroupValidation(t *testing.T) {
	c := setupTestServer(t)

	resp, err := c.payGroups.CreatePayGroup(context.Background(), authed(t, c, "alice", &api.CreatePayGroupRequest{
		Name:     "",
		Category: "Stipend",
	}))
	if err != nil {
		t.Fatalf("validation failures belong in the payload, got error: %v", err)
	}
	if resp.Msg.PayGroup != nil {
		t.Error("expected no pay group on validation failure")
	}

	fields := map[string]bool{}
	for _, fe := range resp.Msg.Errors {
		fields[fe.Field] = true
	}
	if !fields["name"] || !fields["category"] {
		t.Errorf("expected name and category errors, got %v", resp.Msg.Errors)
	}
}

func TestMutationsRequireAuth(t *testing.T) {
	c := setupTestServer(t)

	_, err := c.payGroups.CreatePayGroup(context.Background(), connect.NewRequest(&api.CreatePayGroupRequest{
		Name:     "Engineering",
		Category: "PAYROLL",
	}))
	assertCode(t, err, connect.CodeUnauthenticated)

	req := connect.NewRequest(&api.CreatePayGroupRequest{Name: "Engineering", Category: "PAYROLL"})
	req.Header().Set("Authorization", "Bearer not-a-token")
	_, err = c.payGroups.CreatePayGroup(context.Background(), req)
	assertCode(t, err, connect.CodeUnauthenticated)
}

func TestGetPayGroupErrors(t *testing.T) {
	c := setupTestServer(t)

	_, err := c.payGroups.GetPayGroup(context.Background(), connect.NewRequest(&api.GetPayGroupRequest{PayGroupID: uuid.NewString()}))
	assertCode(t, err, connect.CodeNotFound)

	_, err = c.payGroups.GetPayGroup(context.Background(), connect.NewRequest(&api.GetPayGroupRequest{PayGroupID: "nope"}))
	assertCode(t, err, connect.CodeInvalidArgument)
}

func TestCreatePayEntryForPayGroup(t *testing.T) {
	c := setupTestServer(t)
	pg := createPayGroup(t, c, "Engineering")

	entry := createPayEntry(t, c, "pay_group", pg.ID, "500.00")

	if entry.ParentType != "pay_group" {
		t.Errorf("parent type: expected 'pay_group', got '%s'", entry.ParentType)
	}
	if entry.Owner.PayGroup == nil || entry.Owner.PayGroup.ID != pg.ID {
		t.Fatalf("expected pay group owner %s, got %+v", pg.ID, entry.Owner)
	}
	if entry.Owner.Disbursement != nil {
		t.Errorf("expected no disbursement owner, got %+v", entry.Owner.Disbursement)
	}
	if entry.Amount != "500.00" {
		t.Errorf("amount: expected '500.00', got '%s'", entry.Amount)
	}

	getResp, err := c.payEntries.GetPayEntry(context.Background(), connect.NewRequest(&api.GetPayEntryRequest{PayEntryID: entry.ID}))
	if err != nil {
		t.Fatalf("GetPayEntry failed: %v", err)
	}
	got := getResp.Msg.PayEntry
	if got.Owner.PayGroup == nil || got.Owner.PayGroup.Name != "Engineering" {
		t.Errorf("expected resolved pay group parent, got %+v", got.Owner)
	}
	if got.Owner.Disbursement != nil {
		t.Error("expected disbursement owner to be empty")
	}
}

func TestCreatePayEntryForDisbursement(t *testing.T) {
	c := setupTestServer(t)
	pg := createPayGroup(t, c, "Engineering")
	d := createDisbursement(t, c, pg.ID)

	entry := createPayEntry(t, c, "disbursement", d.ID, "-25.5")

	if entry.ParentType != "disbursement" {
		t.Errorf("parent type: expected 'disbursement', got '%s'", entry.ParentType)
	}
	if entry.Owner.Disbursement == nil || entry.Owner.Disbursement.ID != d.ID {
		t.Fatalf("expected disbursement owner %s, got %+v", d.ID, entry.Owner)
	}
	if entry.Owner.PayGroup != nil {
		t.Error("expected pay group owner to be empty")
	}
	if entry.Amount != "-25.50" {
		t.Errorf("amount: expected '-25.50', got '%s'", entry.Amount)
	}

	listResp, err := c.payEntries.ListPayEntries(context.Background(), connect.NewRequest(&api.ListPayEntriesRequest{
		ParentType: "disbursement",
		ParentID:   d.ID,
	}))
	if err != nil {
		t.Fatalf("ListPayEntries failed: %v", err)
	}
	if len(listResp.Msg.PayEntries) != 1 {
		t.Fatalf("expected 1 entry under the disbursement, got %d", len(listResp.Msg.PayEntries))
	}

	listResp, err = c.payEntries.ListPayEntries(context.Background(), connect.NewRequest(&api.ListPayEntriesRequest{
		ParentType: "pay_group",
		ParentID:   pg.ID,
	}))
	if err != nil {
		t.Fatalf("ListPayEntries failed: %v", err)
	}
	if len(listResp.Msg.PayEntries) != 0 {
		t.Errorf("expected no entries directly under the pay group, got %d", len(listResp.Msg.PayEntries))
	}
}

func TestCreatePayEntryErrors(t *testing.T) {
	c := setupTestServer(t, func(o *serverOptions) { o.policy = models.AmountPositive })
	pg := createPayGroup(t, c, "Engineering")

	tests := []struct {
		name       string
		req        *api.CreatePayEntryRequest
		wantCode   connect.Code
		wantFields []string
	}{
		{
			name:     "unknown parent type",
			req:      &api.CreatePayEntryRequest{ParentType: "employee", ParentID: pg.ID, Amount: "1"},
			wantCode: connect.CodeInvalidArgument,
		},
		{
			name:     "missing parent",
			req:      &api.CreatePayEntryRequest{ParentType: "pay_group", EmployeeID: "emp1", AccountNumber: "a", RoutingNumber: "123456789", Amount: "1"},
			wantCode: connect.CodeInvalidArgument,
		},
		{
			name:     "parent does not exist",
			req:      &api.CreatePayEntryRequest{ParentType: "disbursement", ParentID: uuid.NewString(), EmployeeID: "emp1", AccountNumber: "a", RoutingNumber: "123456789", Amount: "1"},
			wantCode: connect.CodeNotFound,
		},
		{
			name:       "bad amount",
			req:        &api.CreatePayEntryRequest{ParentType: "pay_group", ParentID: pg.ID, EmployeeID: "emp1", AccountNumber: "a", RoutingNumber: "123456789", Amount: "lots"},
			wantFields: []string{"amount"},
		},
		{
			name:       "field errors",
			req:        &api.CreatePayEntryRequest{ParentType: "pay_group", ParentID: pg.ID, RoutingNumber: "12345", Amount: "0"},
			wantFields: []string{"employeeId", "accountNumber", "routingNumber", "amount"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := c.payEntries.CreatePayEntry(context.Background(), authed(t, c, "alice", tt.req))
			if tt.wantCode != 0 {
				assertCode(t, err, tt.wantCode)
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			var got []string
			for _, fe := range resp.Msg.Errors {
				got = append(got, fe.Field)
			}
			if strings.Join(got, ",") != strings.Join(tt.wantFields, ",") {
				t.Errorf("fields: expected %v, got %v", tt.wantFields, got)
			}
		})
	}
}

func TestDeletePayGroupCascades(t *testing.T) {
	c := setupTestServer(t)
	pg := createPayGroup(t, c, "Engineering")
	other := createPayGroup(t, c, "Sales")

	createPayEntry(t, c, "pay_group", pg.ID, "100")
	createPayEntry(t, c, "pay_group", pg.ID, "200")
	d := createDisbursement(t, c, pg.ID)
	disbursed := createPayEntry(t, c, "disbursement", d.ID, "300")
	survivor := createPayEntry(t, c, "pay_group", other.ID, "400")

	resp, err := c.payGroups.DeletePayGroup(context.Background(), authed(t, c, "alice", &api.DeletePayGroupRequest{PayGroupID: pg.ID}))
	if err != nil {
		t.Fatalf("DeletePayGroup failed: %v", err)
	}
	if resp.Msg.DeletedDisbursements != 1 {
		t.Errorf("deleted disbursements: expected 1, got %d", resp.Msg.DeletedDisbursements)
	}
	if resp.Msg.DeletedPayEntries != 3 {
		t.Errorf("deleted pay entries: expected 3, got %d", resp.Msg.DeletedPayEntries)
	}

	_, err = c.disbursements.GetDisbursement(context.Background(), connect.NewRequest(&api.GetDisbursementRequest{DisbursementID: d.ID}))
	assertCode(t, err, connect.CodeNotFound)

	_, err = c.payEntries.GetPayEntry(context.Background(), connect.NewRequest(&api.GetPayEntryRequest{PayEntryID: disbursed.ID}))
	assertCode(t, err, connect.CodeNotFound)

	if _, err := c.payEntries.GetPayEntry(context.Background(), connect.NewRequest(&api.GetPayEntryRequest{PayEntryID: survivor.ID})); err != nil {
		t.Errorf("entry of another pay group should survive: %v", err)
	}

	_, err = c.payGroups.DeletePayGroup(context.Background(), authed(t, c, "alice", &api.DeletePayGroupRequest{PayGroupID: pg.ID}))
	assertCode(t, err, connect.CodeNotFound)
}

func TestDeletePayEntry(t *testing.T) {
	c := setupTestServer(t)
	pg := createPayGroup(t, c, "Engineering")
	entry := createPayEntry(t, c, "pay_group", pg.ID, "100")

	if _, err := c.payEntries.DeletePayEntry(context.Background(), authed(t, c, "alice", &api.DeletePayEntryRequest{PayEntryID: entry.ID})); err != nil {
		t.Fatalf("DeletePayEntry failed: %v", err)
	}

	_, err := c.payEntries.DeletePayEntry(context.Background(), authed(t, c, "alice", &api.DeletePayEntryRequest{PayEntryID: entry.ID}))
	assertCode(t, err, connect.CodeNotFound)

	if _, err := c.payGroups.GetPayGroup(context.Background(), connect.NewRequest(&api.GetPayGroupRequest{PayGroupID: pg.ID})); err != nil {
		t.Errorf("pay group should survive entry deletion: %v", err)
	}
}

func TestDisbursementLifecycle(t *testing.T) {
	c := setupTestServer(t)
	pg := createPayGroup(t, c, "Engineering")
	d := createDisbursement(t, c, pg.ID)

	if d.State != "PENDING" {
		t.Errorf("state: expected 'PENDING', got '%s'", d.State)
	}
	if d.UpdatedBy != "alice" {
		t.Errorf("updatedBy: expected 'alice', got '%s'", d.UpdatedBy)
	}

	transition := func(actor, state string) (*api.Disbursement, error) {
		resp, err := c.disbursements.TransitionDisbursement(context.Background(), authed(t, c, actor, &api.TransitionDisbursementRequest{
			DisbursementID: d.ID,
			State:          state,
		}))
		if err != nil {
			return nil, err
		}
		return resp.Msg.Disbursement, nil
	}

	approved, err := transition("bob", "approved")
	if err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if approved.State != "APPROVED" || approved.UpdatedBy != "bob" {
		t.Errorf("expected APPROVED by bob, got %s by %s", approved.State, approved.UpdatedBy)
	}

	_, err = transition("bob", "REJECTED")
	assertCode(t, err, connect.CodeFailedPrecondition)

	_, err = transition("bob", "CANCELLED")
	assertCode(t, err, connect.CodeInvalidArgument)

	scheduled, err := transition("carol", "SCHEDULED")
	if err != nil {
		t.Fatalf("schedule failed: %v", err)
	}
	if scheduled.State != "SCHEDULED" {
		t.Errorf("state: expected 'SCHEDULED', got '%s'", scheduled.State)
	}

	listResp, err := c.disbursements.ListDisbursements(context.Background(), connect.NewRequest(&api.ListDisbursementsRequest{PayGroupID: pg.ID}))
	if err != nil {
		t.Fatalf("ListDisbursements failed: %v", err)
	}
	if len(listResp.Msg.Disbursements) != 1 || listResp.Msg.Disbursements[0].State != "SCHEDULED" {
		t.Errorf("expected one SCHEDULED disbursement, got %+v", listResp.Msg.Disbursements)
	}
}

func TestDisbursementApprovers(t *testing.T) {
	c := setupTestServer(t)
	pg := createPayGroup(t, c, "Engineering", "dana")
	d := createDisbursement(t, c, pg.ID)

	_, err := c.disbursements.TransitionDisbursement(context.Background(), authed(t, c, "bob", &api.TransitionDisbursementRequest{
		DisbursementID: d.ID,
		State:          "APPROVED",
	}))
	assertCode(t, err, connect.CodePermissionDenied)

	resp, err := c.disbursements.TransitionDisbursement(context.Background(), authed(t, c, "dana", &api.TransitionDisbursementRequest{
		DisbursementID: d.ID,
		State:          "APPROVED",
	}))
	if err != nil {
		t.Fatalf("approver should be allowed: %v", err)
	}
	if resp.Msg.Disbursement.UpdatedBy != "dana" {
		t.Errorf("updatedBy: expected 'dana', got '%s'", resp.Msg.Disbursement.UpdatedBy)
	}
}

func TestCreateDisbursementUnknownPayGroup(t *testing.T) {
	c := setupTestServer(t)

	_, err := c.disbursements.CreateDisbursement(context.Background(), authed(t, c, "alice", &api.CreateDisbursementRequest{
		PayGroupID:  uuid.NewString(),
		ScheduledAt: time.Now(),
	}))
	assertCode(t, err, connect.CodeNotFound)
}

// staleDisbursementStore hands out a disbursement snapshot taken before a
// concurrent writer changed it.
type staleDisbursementStore struct {
	storage.PayrollStore

	mu    sync.Mutex
	stale *models.Disbursement
}

func (s *staleDisbursementStore) setStale(d *models.Disbursement) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stale = d
}

func (s *staleDisbursementStore) GetDisbursement(ctx context.Context, id uuid.UUID) (*models.Disbursement, error) {
	s.mu.Lock()
	stale := s.stale
	s.mu.Unlock()
	if stale != nil && stale.ID == id {
		cp := *stale
		return &cp, nil
	}
	return s.PayrollStore.GetDisbursement(ctx, id)
}

func TestTransitionDisbursementLostUpdate(t *testing.T) {
	stores := &staleDisbursementStore{}
	c := setupTestServer(t, func(o *serverOptions) {
		stores.PayrollStore = o.store
		o.store = stores
	})
	ctx := context.Background()
	pg := createPayGroup(t, c, "Engineering")
	d := createDisbursement(t, c, pg.ID)

	id, err := uuid.Parse(d.ID)
	if err != nil {
		t.Fatalf("invalid disbursement id: %v", err)
	}
	snapshot, err := c.store.GetDisbursement(ctx, id)
	if err != nil {
		t.Fatalf("GetDisbursement failed: %v", err)
	}

	_, err = c.disbursements.TransitionDisbursement(ctx, authed(t, c, "bob", &api.TransitionDisbursementRequest{
		DisbursementID: d.ID,
		State:          "REJECTED",
	}))
	if err != nil {
		t.Fatalf("reject failed: %v", err)
	}

	stores.setStale(snapshot)
	_, err = c.disbursements.TransitionDisbursement(ctx, authed(t, c, "carol", &api.TransitionDisbursementRequest{
		DisbursementID: d.ID,
		State:          "APPROVED",
	}))
	assertCode(t, err, connect.CodeFailedPrecondition)

	got, err := c.store.GetDisbursement(ctx, id)
	if err != nil {
		t.Fatalf("GetDisbursement failed: %v", err)
	}
	if got.State != models.DisbursementRejected || got.UpdatedBy != "bob" {
		t.Errorf("expected REJECTED by bob to stand, got %s by %s", got.State, got.UpdatedBy)
	}
}

// brokenEntryStore serves a pay entry whose parent was never attached.
type brokenEntryStore struct {
	storage.PayrollStore
	entry *models.PayEntry
}

func (s *brokenEntryStore) GetPayEntry(ctx context.Context, id uuid.UUID) (*models.PayEntry, error) {
	if id == s.entry.ID {
		return s.entry, nil
	}
	return s.PayrollStore.GetPayEntry(ctx, id)
}

func TestGetPayEntryInconsistent(t *testing.T) {
	pgID := uuid.New()
	entry, err := models.RestorePayEntry(models.PayEntryRecord{
		ID:            uuid.New(),
		Discriminator: models.ParentPayGroup,
		PayGroupID:    &pgID,
		EmployeeID:    "emp1",
		AccountNumber: "acct1",
		RoutingNumber: "123456789",
	})
	if err != nil {
		t.Fatalf("RestorePayEntry failed: %v", err)
	}

	c := setupTestServer(t, func(o *serverOptions) {
		o.store = &brokenEntryStore{PayrollStore: o.store, entry: entry}
	})

	_, err = c.payEntries.GetPayEntry(context.Background(), connect.NewRequest(&api.GetPayEntryRequest{PayEntryID: entry.ID.String()}))
	assertCode(t, err, connect.CodeInternal)

	families, err := c.registry.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	found := false
	for _, mf := range families {
		if mf.GetName() == "payroll_pay_entry_integrity_errors_total" {
			found = true
		}
	}
	if !found {
		t.Error("expected integrity error to be counted")
	}
}

// corruptEntryStore fails pay entry reads the way a store does when a row
// violates the single-parent rule while being loaded.
type corruptEntryStore struct {
	storage.PayrollStore
	entryID uuid.UUID
}

func (s *corruptEntryStore) corrupt() error {
	return fmt.Errorf("failed to load pay entry: %w", &models.InconsistentEntryStateError{
		EntryID:       s.entryID,
		Discriminator: models.ParentDisbursement,
		Reference:     "disbursement",
		Reason:        "is missing",
	})
}

func (s *corruptEntryStore) GetPayEntry(context.Context, uuid.UUID) (*models.PayEntry, error) {
	return nil, s.corrupt()
}

func (s *corruptEntryStore) ListPayEntries(context.Context, models.Owner) ([]*models.PayEntry, error) {
	return nil, s.corrupt()
}

func TestPayEntryLoadInconsistent(t *testing.T) {
	entryID := uuid.New()
	c := setupTestServer(t, func(o *serverOptions) {
		o.store = &corruptEntryStore{PayrollStore: o.store, entryID: entryID}
	})
	ctx := context.Background()

	_, err := c.payEntries.GetPayEntry(ctx, connect.NewRequest(&api.GetPayEntryRequest{PayEntryID: entryID.String()}))
	assertCode(t, err, connect.CodeInternal)
	if strings.Contains(err.Error(), "reference") {
		t.Errorf("integrity details leaked to the client: %v", err)
	}
	if !strings.Contains(err.Error(), entryID.String()) {
		t.Errorf("expected the entry id in %v", err)
	}

	_, err = c.payEntries.ListPayEntries(ctx, connect.NewRequest(&api.ListPayEntriesRequest{
		ParentType: "DISBURSEMENT",
		ParentID:   uuid.NewString(),
	}))
	assertCode(t, err, connect.CodeInternal)

	counter := c.metrics.IntegrityErrors.WithLabelValues(models.ParentDisbursement.String())
	if got := testutil.ToFloat64(counter); got != 2 {
		t.Errorf("integrity errors = %v, want 2", got)
	}
}

func TestBusinessEmployeeLifecycle(t *testing.T) {
	c := setupTestServer(t)

	createResp, err := c.businessEmployees.CreateBusinessEmployee(context.Background(), authed(t, c, "alice", &api.CreateBusinessEmployeeRequest{
		Name:  "Ada Lovelace",
		Email: " Ada@Example.com ",
		BankAccounts: []api.BankAccount{
			{AccountID: "chk", RoutingNumber: "123456789", PayPercentage: "0.6"},
			{AccountID: "sav", RoutingNumber: "987654321", PayPercentage: "0.4"},
		},
	}))
	if err != nil {
		t.Fatalf("CreateBusinessEmployee failed: %v", err)
	}
	if len(createResp.Msg.Errors) > 0 {
		t.Fatalf("CreateBusinessEmployee rejected: %v", createResp.Msg.Errors)
	}
	be := createResp.Msg.BusinessEmployee
	if be.Email != "ada@example.com" {
		t.Errorf("email: expected 'ada@example.com', got '%s'", be.Email)
	}

	_, err = c.businessEmployees.CreateBusinessEmployee(context.Background(), authed(t, c, "alice", &api.CreateBusinessEmployeeRequest{
		Name:         "Impostor",
		Email:        "ADA@example.com",
		BankAccounts: []api.BankAccount{{AccountID: "x", RoutingNumber: "123456789", PayPercentage: "1"}},
	}))
	assertCode(t, err, connect.CodeAlreadyExists)

	updResp, err := c.businessEmployees.UpdateBusinessEmployee(context.Background(), authed(t, c, "alice", &api.UpdateBusinessEmployeeRequest{
		BusinessEmployeeID: be.ID,
		Name:               "Ada King",
		Email:              "ada@example.com",
		BankAccounts:       []api.BankAccount{{AccountID: "chk", RoutingNumber: "123456789", PayPercentage: "1"}},
	}))
	if err != nil {
		t.Fatalf("UpdateBusinessEmployee failed: %v", err)
	}
	if len(updResp.Msg.Errors) > 0 {
		t.Fatalf("UpdateBusinessEmployee rejected: %v", updResp.Msg.Errors)
	}

	getResp, err := c.businessEmployees.GetBusinessEmployee(context.Background(), connect.NewRequest(&api.GetBusinessEmployeeRequest{BusinessEmployeeID: be.ID}))
	if err != nil {
		t.Fatalf("GetBusinessEmployee failed: %v", err)
	}
	if getResp.Msg.BusinessEmployee.Name != "Ada King" {
		t.Errorf("name: expected 'Ada King', got '%s'", getResp.Msg.BusinessEmployee.Name)
	}
	if len(getResp.Msg.BusinessEmployee.BankAccounts) != 1 {
		t.Errorf("expected accounts to be replaced, got %d", len(getResp.Msg.BusinessEmployee.BankAccounts))
	}

	if _, err := c.businessEmployees.DeleteBusinessEmployee(context.Background(), authed(t, c, "alice", &api.DeleteBusinessEmployeeRequest{BusinessEmployeeID: be.ID})); err != nil {
		t.Fatalf("DeleteBusinessEmployee failed: %v", err)
	}
	_, err = c.businessEmployees.GetBusinessEmployee(context.Background(), connect.NewRequest(&api.GetBusinessEmployeeRequest{BusinessEmployeeID: be.ID}))
	assertCode(t, err, connect.CodeNotFound)
}

func TestBusinessEmployeeValidation(t *testing.T) {
	c := setupTestServer(t)

	tests := []struct {
		name      string
		accounts  []api.BankAccount
		wantField string
		wantMsg   string
	}{
		{
			name: "percentages short of one",
			accounts: []api.BankAccount{
				{AccountID: "chk", RoutingNumber: "123456789", PayPercentage: "0.6"},
				{AccountID: "sav", RoutingNumber: "987654321", PayPercentage: "0.3"},
			},
			wantField: "bankAccounts",
			wantMsg:   "sum to 1.0",
		},
		{
			name:      "no accounts",
			accounts:  nil,
			wantField: "bankAccounts",
		},
		{
			name:      "bad routing number",
			accounts:  []api.BankAccount{{AccountID: "chk", RoutingNumber: "12-345", PayPercentage: "1"}},
			wantField: "bankAccounts[0].routingNumber",
		},
		{
			name:      "percentage not a number",
			accounts:  []api.BankAccount{{AccountID: "chk", RoutingNumber: "123456789", PayPercentage: "half"}},
			wantField: "bankAccounts[0].payPercentage",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := c.businessEmployees.CreateBusinessEmployee(context.Background(), authed(t, c, "alice", &api.CreateBusinessEmployeeRequest{
				Name:         "Grace Hopper",
				Email:        "grace@example.com",
				BankAccounts: tt.accounts,
			}))
			if err != nil {
				t.Fatalf("validation failures belong in the payload, got error: %v", err)
			}
			if resp.Msg.BusinessEmployee != nil {
				t.Fatal("expected no employee on validation failure")
			}
			var match *api.FieldError
			for i := range resp.Msg.Errors {
				if resp.Msg.Errors[i].Field == tt.wantField {
					match = &resp.Msg.Errors[i]
				}
			}
			if match == nil {
				t.Fatalf("expected error on %s, got %v", tt.wantField, resp.Msg.Errors)
			}
			if tt.wantMsg != "" && !strings.Contains(match.Message, tt.wantMsg) {
				t.Errorf("message: expected to contain %q, got %q", tt.wantMsg, match.Message)
			}
		})
	}
}

func TestBusinessEmployeeValidationCollectsAll(t *testing.T) {
	c := setupTestServer(t)

	resp, err := c.businessEmployees.CreateBusinessEmployee(context.Background(), authed(t, c, "alice", &api.CreateBusinessEmployeeRequest{
		Name:         "",
		Email:        "not-an-email",
		BankAccounts: []api.BankAccount{{AccountID: "", RoutingNumber: "12", PayPercentage: "abc"}},
	}))
	if err != nil {
		t.Fatalf("validation failures belong in the payload, got error: %v", err)
	}

	got := make(map[string][]string)
	for _, fe := range resp.Msg.Errors {
		got[fe.Field] = append(got[fe.Field], fe.Message)
	}
	for _, field := range []string{
		"name",
		"email",
		"bankAccounts[0].accountId",
		"bankAccounts[0].routingNumber",
		"bankAccounts[0].payPercentage",
	} {
		if len(got[field]) == 0 {
			t.Errorf("missing error for %s (got %v)", field, resp.Msg.Errors)
		}
	}
	if msgs := got["bankAccounts[0].payPercentage"]; len(msgs) != 1 || msgs[0] != "must be a decimal number" {
		t.Errorf("payPercentage errors: expected only the parse error, got %v", msgs)
	}
}

func TestEmployeeDirectory(t *testing.T) {
	c := setupTestServer(t)

	var ids []string
	for _, name := range []string{"Ada", "Grace", "Katherine"} {
		resp, err := c.employees.CreateEmployee(context.Background(), authed(t, c, "alice", &api.CreateEmployeeRequest{
			FirstName:  name,
			LastName:   "Test",
			Email:      strings.ToLower(name) + "@example.com",
			Department: "Engineering",
			Salary:     "120000",
		}))
		if err != nil {
			t.Fatalf("CreateEmployee failed: %v", err)
		}
		if len(resp.Msg.Errors) > 0 {
			t.Fatalf("CreateEmployee rejected: %v", resp.Msg.Errors)
		}
		if resp.Msg.Employee.Salary != "120000.00" {
			t.Errorf("salary: expected '120000.00', got '%s'", resp.Msg.Employee.Salary)
		}
		ids = append(ids, resp.Msg.Employee.ID)
	}

	page, err := c.employees.ListEmployees(context.Background(), connect.NewRequest(&api.ListEmployeesRequest{Limit: 2}))
	if err != nil {
		t.Fatalf("ListEmployees failed: %v", err)
	}
	if len(page.Msg.Employees) != 2 || page.Msg.NextCursor == "" {
		t.Fatalf("expected a full first page with a cursor, got %d employees, cursor %q", len(page.Msg.Employees), page.Msg.NextCursor)
	}
	rest, err := c.employees.ListEmployees(context.Background(), connect.NewRequest(&api.ListEmployeesRequest{Limit: 2, Cursor: page.Msg.NextCursor}))
	if err != nil {
		t.Fatalf("ListEmployees failed: %v", err)
	}
	if len(rest.Msg.Employees) != 1 || rest.Msg.NextCursor != "" {
		t.Errorf("expected a final page of 1, got %d employees, cursor %q", len(rest.Msg.Employees), rest.Msg.NextCursor)
	}

	updResp, err := c.employees.UpdateEmployee(context.Background(), authed(t, c, "alice", &api.UpdateEmployeeRequest{
		EmployeeID: ids[0],
		FirstName:  "Ada",
		LastName:   "Lovelace",
		Email:      "ada@example.com",
		Salary:     "-1",
	}))
	if err != nil {
		t.Fatalf("UpdateEmployee failed: %v", err)
	}
	if len(updResp.Msg.Errors) != 1 || updResp.Msg.Errors[0].Field != "salary" {
		t.Errorf("expected a salary error, got %v", updResp.Msg.Errors)
	}

	if _, err := c.employees.DeleteEmployee(context.Background(), authed(t, c, "alice", &api.DeleteEmployeeRequest{EmployeeID: ids[0]})); err != nil {
		t.Fatalf("DeleteEmployee failed: %v", err)
	}
	_, err = c.employees.GetEmployee(context.Background(), connect.NewRequest(&api.GetEmployeeRequest{EmployeeID: ids[0]}))
	assertCode(t, err, connect.CodeNotFound)
}

// memEmployeeStore is an in-memory storage.EmployeeStore. Its cursor is the
// last returned ID.
type memEmployeeStore struct {
	mu        sync.Mutex
	employees map[uuid.UUID]models.Employee
}

func newMemEmployeeStore() *memEmployeeStore {
	return &memEmployeeStore{employees: make(map[uuid.UUID]models.Employee)}
}

func (s *memEmployeeStore) CreateEmployee(_ context.Context, e *models.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.employees[e.ID]; ok {
		return storage.ErrConflict
	}
	e.CreatedAt = time.Now().UTC()
	e.UpdatedAt = e.CreatedAt
	s.employees[e.ID] = *e
	return nil
}

func (s *memEmployeeStore) GetEmployee(_ context.Context, id uuid.UUID) (*models.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.employees[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &e, nil
}

func (s *memEmployeeStore) ListEmployees(_ context.Context, limit int, cursor string) ([]*models.Employee, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]string, 0, len(s.employees))
	for id := range s.employees {
		keys = append(keys, id.String())
	}
	sort.Strings(keys)

	var out []*models.Employee
	for _, k := range keys {
		if cursor != "" && k <= cursor {
			continue
		}
		e := s.employees[uuid.MustParse(k)]
		out = append(out, &e)
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
		return out, out[len(out)-1].ID.String(), nil
	}
	return out, "", nil
}

func (s *memEmployeeStore) UpdateEmployee(_ context.Context, e *models.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.employees[e.ID]
	if !ok {
		return storage.ErrNotFound
	}
	e.CreatedAt = existing.CreatedAt
	e.UpdatedAt = time.Now().UTC()
	s.employees[e.ID] = *e
	return nil
}

func (s *memEmployeeStore) DeleteEmployee(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.employees[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.employees, id)
	return nil
}
