package log

import "time"

// Common field names for structured logging
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
	FieldSuccess     = "success"
	FieldError       = "error"
	FieldErrorType   = "error_type"
	FieldOperation   = "operation"
	FieldReportID    = "report_id"
	FieldShape       = "shape"
	FieldRecordCount = "record_count"
	FieldEntryCount  = "entry_count"
	FieldBytes       = "bytes"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentReport    = "report"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentSheets    = "sheets"
	ComponentCache     = "cache"
	ComponentRateLimit = "rate_limit"
	ComponentBackend   = "backend"
	ComponentSeed      = "seed"
)

// Operations defines standard operation names
const (
	OpFetch     = "fetch"
	OpAggregate = "aggregate"
	OpRender    = "render"
	OpSummarize = "summarize"
	OpSeed      = "seed"
	OpShutdown  = "shutdown"
	OpStartup   = "startup"
)

// ErrorTypes classify failures for logs and the report_errors_total metric.
const (
	ErrorTypeValidation  = "validation_error"
	ErrorTypeNotFound    = "not_found_error"
	ErrorTypeEmptySeries = "empty_series_error"
	ErrorTypeSource      = "source_error"
	ErrorTypeInternal    = "internal_error"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

func (f LogFields) WithRequestID(requestID string) LogFields {
	f[FieldRequestID] = requestID
	return f
}

func (f LogFields) WithClientIP(ip string) LogFields {
	f[FieldClientIP] = ip
	return f
}

// WithError adds the error message; nil errors are skipped.
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithReport adds the report id and chart shape.
func (f LogFields) WithReport(id, shape string) LogFields {
	f[FieldReportID] = id
	f[FieldShape] = shape
	return f
}

// WithCounts adds how many records went in and how many entries came out.
func (f LogFields) WithCounts(records, entries int) LogFields {
	f[FieldRecordCount] = records
	f[FieldEntryCount] = entries
	return f
}

func (f LogFields) WithDuration(d time.Duration) LogFields {
	f[FieldDuration] = d.Milliseconds()
	return f
}

// WithHTTPRequest adds HTTP request fields
func (f LogFields) WithHTTPRequest(method, path, query, userAgent string) LogFields {
	f[FieldMethod] = method
	f[FieldPath] = path
	f[FieldQuery] = query
	if userAgent != "" {
		f[FieldUserAgent] = userAgent
	}
	return f
}

// WithHTTPResponse adds HTTP response fields
func (f LogFields) WithHTTPResponse(statusCode int, durationMs int64) LogFields {
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = durationMs
	f[FieldSuccess] = statusCode < 400
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
