package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldError      = "error"
	FieldUser       = "user"
	FieldBackend    = "backend"
	FieldOrigin     = "origin"
	FieldRecords    = "records"
	FieldFilename   = "filename"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentHTTP    = "http"
	ComponentSource  = "source"
	ComponentStorage = "storage"
	ComponentAudit   = "audit"
)
