package log

// Component names.
const (
	ComponentApp     = "app"
	ComponentEngine  = "engine"
	ComponentLedger  = "ledger"
	ComponentIngest  = "ingest"
	ComponentStorage = "storage"
	ComponentAMQP    = "amqp"
	ComponentWorker  = "worker"
	ComponentExport  = "export"
	ComponentService = "service"
)

// Field names shared across components so log lines stay greppable.
const (
	FieldComponent = "component"
	FieldError     = "error"
	FieldYear      = "year"
	FieldMonth     = "month"
	FieldPeriod    = "period"
	FieldAccount   = "account"
	FieldCategory  = "category"
	FieldAmount    = "amount"
	FieldCount     = "count"
	FieldPath      = "path"
	FieldQueue     = "queue"
	FieldExchange  = "exchange"
	FieldMessageID = "message_id"
	FieldDuration  = "duration"
)
