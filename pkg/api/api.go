// Package api defines the request and response messages of the payroll
// Connect services. Messages travel as JSON; see Codec.
package api

import (
	"encoding/json"
	"time"
)

// Codec is a Connect codec that encodes messages as JSON. It is registered
// under the "json" name, replacing Connect's protobuf-only JSON codec.
type Codec struct{}

// Name implements connect.Codec.
func (Codec) Name() string { return "json" }

// Marshal implements connect.Codec.
func (Codec) Marshal(msg any) ([]byte, error) {
	return json.Marshal(msg)
}

// Unmarshal implements connect.Codec. An empty body decodes to the zero message.
func (Codec) Unmarshal(data []byte, msg any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, msg)
}

// FieldError is a user-facing validation failure scoped to one input field.
// Validation failures are returned in the response payload, not as RPC errors.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// PayGroup is the wire form of a pay group.
type PayGroup struct {
	ID          string    `json:"id"`
	Category    string    `json:"category"`
	Name        string    `json:"name"`
	ApproverIDs []string  `json:"approverIds"`
	CreatedAt   time.Time `json:"createdAt"`
}

type CreatePayGroupRequest struct {
	Name        string   `json:"name"`
	Category    string   `json:"category"`
	ApproverIDs []string `json:"approverIds"`
}

type CreatePayGroupResponse struct {
	PayGroup *PayGroup   `json:"payGroup,omitempty"`
	Errors   []FieldError `json:"errors,omitempty"`
}

type GetPayGroupRequest struct {
	PayGroupID string `json:"payGroupId"`
}

type GetPayGroupResponse struct {
	PayGroup *PayGroup `json:"payGroup"`
}

type ListPayGroupsRequest struct{}

type ListPayGroupsResponse struct {
	PayGroups []*PayGroup `json:"payGroups"`
}

type DeletePayGroupRequest struct {
	PayGroupID string `json:"payGroupId"`
}

// DeletePayGroupResponse reports what the cascading delete removed.
type DeletePayGroupResponse struct {
	DeletedDisbursements int64 `json:"deletedDisbursements"`
	DeletedPayEntries    int64 `json:"deletedPayEntries"`
}

// Disbursement is the wire form of a disbursement.
type Disbursement struct {
	ID          string    `json:"id"`
	PayGroupID  string    `json:"payGroupId"`
	ScheduledAt time.Time `json:"scheduledAt"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	UpdatedBy   string    `json:"updatedBy"`
	State       string    `json:"state"`
}

type CreateDisbursementRequest struct {
	PayGroupID  string    `json:"payGroupId"`
	ScheduledAt time.Time `json:"scheduledAt"`
}

type CreateDisbursementResponse struct {
	Disbursement *Disbursement `json:"disbursement,omitempty"`
	Errors       []FieldError  `json:"errors,omitempty"`
}

type GetDisbursementRequest struct {
	DisbursementID string `json:"disbursementId"`
}

type GetDisbursementResponse struct {
	Disbursement *Disbursement `json:"disbursement"`
}

type ListDisbursementsRequest struct {
	PayGroupID string `json:"payGroupId"`
}

type ListDisbursementsResponse struct {
	Disbursements []*Disbursement `json:"disbursements"`
}

// TransitionDisbursementRequest moves a disbursement to State, one of
// APPROVED, REJECTED or SCHEDULED.
type TransitionDisbursementRequest struct {
	DisbursementID string `json:"disbursementId"`
	State          string `json:"state"`
}

type TransitionDisbursementResponse struct {
	Disbursement *Disbursement `json:"disbursement"`
}

// PayEntryOwner holds the single parent of a pay entry. Exactly one field is set.
type PayEntryOwner struct {
	PayGroup     *PayGroup     `json:"payGroup,omitempty"`
	Disbursement *Disbursement `json:"disbursement,omitempty"`
}

// PayEntry is the wire form of a pay entry with its resolved owner.
type PayEntry struct {
	ID            string        `json:"id"`
	ParentType    string        `json:"parentType"`
	EmployeeID    string        `json:"employeeId"`
	AccountNumber string        `json:"accountNumber"`
	RoutingNumber string        `json:"routingNumber"`
	Amount        string        `json:"amount"`
	Owner         PayEntryOwner `json:"owner"`
}

// CreatePayEntryRequest names its parent by type ("pay_group" or
// "disbursement") and ID. Amount is a decimal string.
type CreatePayEntryRequest struct {
	ParentType    string `json:"parentType"`
	ParentID      string `json:"parentId"`
	EmployeeID    string `json:"employeeId"`
	AccountNumber string `json:"accountNumber"`
	RoutingNumber string `json:"routingNumber"`
	Amount        string `json:"amount"`
}

type CreatePayEntryResponse struct {
	PayEntry *PayEntry   `json:"payEntry,omitempty"`
	Errors   []FieldError `json:"errors,omitempty"`
}

type GetPayEntryRequest struct {
	PayEntryID string `json:"payEntryId"`
}

type GetPayEntryResponse struct {
	PayEntry *PayEntry `json:"payEntry"`
}

type ListPayEntriesRequest struct {
	ParentType string `json:"parentType"`
	ParentID   string `json:"parentId"`
}

type ListPayEntriesResponse struct {
	PayEntries []*PayEntry `json:"payEntries"`
}

type DeletePayEntryRequest struct {
	PayEntryID string `json:"payEntryId"`
}

type DeletePayEntryResponse struct{}
