package service

import "github.com/mmynk/payroll/pkg/api/apiconnect"

// ReadOnlyProcedures lists the RPCs that may be called without a token.
// Every other procedure requires an authenticated actor.
var ReadOnlyProcedures = []string{
	apiconnect.PayGroupServiceGetPayGroupProcedure,
	apiconnect.PayGroupServiceListPayGroupsProcedure,
	apiconnect.DisbursementServiceGetDisbursementProcedure,
	apiconnect.DisbursementServiceListDisbursementsProcedure,
	apiconnect.PayEntryServiceGetPayEntryProcedure,
	apiconnect.PayEntryServiceListPayEntriesProcedure,
	apiconnect.BusinessEmployeeServiceGetBusinessEmployeeProcedure,
	apiconnect.EmployeeServiceGetEmployeeProcedure,
	apiconnect.EmployeeServiceListEmployeesProcedure,
}
