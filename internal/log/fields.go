package log

// Attribute keys shared by every component.
const (
	FieldComponent   = "component"
	FieldRequestID   = "request_id"
	FieldClientIP    = "client_ip"
	FieldMethod      = "method"
	FieldPath        = "path"
	FieldQuery       = "query"
	FieldStatusCode  = "status_code"
	FieldDuration    = "duration_ms"
	FieldUserAgent   = "user_agent"
	FieldReferer     = "referer"
	FieldSuccess     = "success"
	FieldError       = "error"
	FieldOperation   = "operation"
	FieldCardID      = "card_id"
	FieldFromLane    = "from_lane"
	FieldToLane      = "to_lane"
	FieldCardCount   = "card_count"
	FieldEntryID     = "entry_id"
	FieldPlantingID  = "planting_id"
	FieldVariety     = "variety"
	FieldLocation    = "location"
	FieldQuantity    = "quantity"
	FieldEntryType   = "entry_type"
	FieldCategory    = "category"
	FieldAmountCents = "amount_cents"
	FieldRangeStart  = "range_start"
	FieldRangeEnd    = "range_end"
	FieldBackend     = "backend"
	FieldCacheKey    = "cache_key"
)

const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentBoard     = "board"
	ComponentLedger    = "ledger"
	ComponentPlantings = "plantings"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentSheets    = "sheets"
	ComponentCache     = "cache"
	ComponentSecurity  = "security"
	ComponentRateLimit = "rate_limit"
	ComponentTrace     = "trace"
	ComponentBackend   = "backend"
	ComponentTemplate  = "template"
	ComponentCLI       = "cli"
)

// Operation names for the operation attribute.
const (
	OpCreate   = "create"
	OpRead     = "read"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpList     = "list"
	OpMove     = "move"
	OpSave     = "save"
	OpLoad     = "load"
	OpSync     = "sync"
	OpValidate = "validate"
	OpParse    = "parse"
	OpRender   = "render"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)
