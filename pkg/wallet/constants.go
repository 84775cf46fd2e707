package wallet

const (
	operationProvision      = "provision"
	operationCredit         = "credit"
	operationDebit          = "debit"
	operationHold           = "hold"
	operationRelease        = "release"
	operationReverse        = "reverse"
	operationSetStatus      = "set_status"
	operationUpdateSettings = "update_settings"

	operationStatusOK    = "ok"
	operationStatusError = "error"

	errorOperationService    = "service"
	errorSubjectBalance      = "balance"
	errorCodeNegativeBalance = "negative_balance"

	// DefaultPageSize bounds statement pages when the caller passes zero.
	DefaultPageSize = 20
	// MaxPageSize caps statement pages regardless of the caller's request.
	MaxPageSize = 100
)
