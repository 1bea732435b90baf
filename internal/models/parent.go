package models

// Parent is the aggregate that owns a PayEntry: either *PayGroup or
// *Disbursement.
type Parent interface {
	ParentKind() ParentKind
	isParent()
}

// ResolveParent returns the hydrated parent of e. It does no I/O. An entry
// whose discriminator points at a parent that was not attached, or that has
// both parents attached, yields an *InconsistentEntryStateError.
func ResolveParent(e *PayEntry) (Parent, error) {
	switch o := e.owner.(type) {
	case OwnedByPayGroup:
		if e.payGroup == nil {
			return nil, inconsistent(e.ID, ParentPayGroup, "pay_group", "is null")
		}
		if e.disbursement != nil {
			return nil, inconsistent(e.ID, ParentPayGroup, "disbursement", "is set")
		}
		if e.payGroup.ID != o.PayGroupID {
			return nil, inconsistent(e.ID, ParentPayGroup, "pay_group", "does not match the stored pay_group_id")
		}
		return e.payGroup, nil
	case OwnedByDisbursement:
		if e.disbursement == nil {
			return nil, inconsistent(e.ID, ParentDisbursement, "disbursement", "is null")
		}
		if e.payGroup != nil {
			return nil, inconsistent(e.ID, ParentDisbursement, "pay_group", "is set")
		}
		if e.disbursement.ID != o.DisbursementID {
			return nil, inconsistent(e.ID, ParentDisbursement, "disbursement", "does not match the stored disbursement_id")
		}
		return e.disbursement, nil
	default:
		return nil, inconsistent(e.ID, e.kind(), "owner", "is missing")
	}
}
