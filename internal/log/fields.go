package log

// Common field names for structured logging.
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldError      = "error"
	FieldOperation  = "operation"

	FieldOwnerID      = "owner_id"
	FieldAccountID    = "account_id"
	FieldCategoryID   = "category_id"
	FieldAmountCents  = "amount_cents"
	FieldYear         = "year"
	FieldMonth        = "month"
	FieldFundingMonth = "funding_month"
	FieldTargetRole   = "target_role"
	FieldStaged       = "staged"
	FieldFunded       = "funded"
	FieldSheetsRef    = "sheets_ref"
)

// Standard component names.
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentFunding   = "funding"
	ComponentReconcile = "reconcile"
	ComponentExport    = "export"
)

// Standard operation names.
const (
	OpCreate   = "create"
	OpRead     = "read"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpList     = "list"
	OpImport   = "import"
	OpFinalize = "finalize"
	OpFund     = "fund"
	OpExport   = "export"
	OpStartup  = "startup"
	OpShutdown = "shutdown"
)
