// Package models defines the core domain models for the payroll records service.
//
// # Aggregates
//
//   - PayGroup: an administrative grouping of payments (Payroll or HSA)
//   - Disbursement: a scheduled payout under exactly one PayGroup
//   - PayEntry: a single payment line owned by either a PayGroup or a Disbursement
//   - BusinessEmployee: a payee with one or more bank accounts splitting their pay
//   - Employee: an employee profile managed through the employee directory
//
// # PayEntry ownership
//
// A PayEntry belongs to exactly one parent. In memory that is expressed with the
// sealed Owner interface, which has two implementations: OwnedByPayGroup and
// OwnedByDisbursement. PayEntries are only created through NewPayEntryForPayGroup
// and NewPayEntryForDisbursement, and the owner cannot be changed afterwards.
//
// Storage uses the flat PayEntryRecord instead: an integer discriminator and two
// nullable foreign keys, exactly one of which is set. RestorePayEntry converts a
// record back and rejects any row whose discriminator and keys disagree.
//
// ResolveParent returns the hydrated parent of an entry. It performs no I/O; the
// storage layer attaches the parent with AttachPayGroup or AttachDisbursement
// before handing the entry out.
//
// # Errors
//
//   - ValidationErrors: field-scoped input problems, returned to callers as data
//   - InconsistentEntryStateError: a loaded PayEntry violates the ownership invariant
//   - ErrInvalidTransition: a Disbursement lifecycle change that is not allowed
package models
