package log

import "time"

// Field names shared across components.
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldQuery      = "query"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldUserAgent  = "user_agent"
	FieldReferer    = "referer"
	FieldSuccess    = "success"
	FieldError      = "error"
	FieldOperation  = "operation"
	FieldAccountID  = "account_id"
	FieldRange      = "range"
	FieldRevision   = "revision"
	FieldBuckets    = "buckets"
	FieldCount      = "count"
)

const (
	ComponentApp     = "app"
	ComponentHTTP    = "http"
	ComponentLedger  = "ledger"
	ComponentPeriod  = "period"
	ComponentStorage = "storage"
	ComponentAMQP    = "amqp"
	ComponentCache   = "cache"
	ComponentBackend = "backend"
	ComponentImport  = "import"
)

const (
	OpList      = "list"
	OpRead      = "read"
	OpAggregate = "aggregate"
	OpImport    = "import"
	OpRender    = "render"
	OpShutdown  = "shutdown"
	OpStartup   = "startup"
)

// LogFields builds attribute lists for slog calls.
type LogFields map[string]any

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

// WithOverview adds the fields describing one aggregation.
func (f LogFields) WithOverview(accountID, rangeKey, revision string, buckets int) LogFields {
	f[FieldAccountID] = accountID
	f[FieldRange] = rangeKey
	f[FieldRevision] = revision
	f[FieldBuckets] = buckets
	return f
}

func (f LogFields) WithAccount(accountID string) LogFields {
	f[FieldAccountID] = accountID
	return f
}

func (f LogFields) WithRange(rangeKey string) LogFields {
	f[FieldRange] = rangeKey
	return f
}

func (f LogFields) WithHTTPRequest(method, path, query, userAgent, referer string) LogFields {
	f[FieldMethod] = method
	f[FieldPath] = path
	f[FieldQuery] = query
	if userAgent != "" {
		f[FieldUserAgent] = userAgent
	}
	if referer != "" {
		f[FieldReferer] = referer
	}
	return f
}

func (f LogFields) WithHTTPResponse(statusCode int, duration time.Duration) LogFields {
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = duration.Milliseconds()
	f[FieldSuccess] = statusCode < 400
	return f
}

// ToSlice flattens the fields into slog's alternating key/value form.
// The component key is left out; Logger already carries it.
func (f LogFields) ToSlice() []any {
	out := make([]any, 0, len(f)*2)
	for k, v := range f {
		if k == FieldComponent {
			continue
		}
		out = append(out, k, v)
	}
	return out
}
