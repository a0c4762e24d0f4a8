package logger

// Field keys shared by every service so log queries work across them.
const (
	FieldService   = "service"
	FieldComponent = "component"
	FieldRequestID = "request_id"
	FieldOperation = "operation"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldStatus    = "status"
	FieldOutcome   = "outcome"
	FieldError     = "error"
	FieldDuration  = "duration_ms"
	FieldAttempt   = "attempt"
)

// Fields pairs up alternating keys and values. Pairs whose key is not a
// string are dropped, as is a trailing key without a value.
//
//	log.Info("Order placed", logger.Fields("order_id", id, "items", n))
func Fields(kvs ...interface{}) map[string]interface{} {
	m := make(map[string]interface{}, len(kvs)/2)
	for i := 0; i+1 < len(kvs); i += 2 {
		if key, ok := kvs[i].(string); ok {
			m[key] = kvs[i+1]
		}
	}
	return m
}

// ErrorFields describes a failed operation. Extra fields are merged in;
// they cannot override the operation or the error.
func ErrorFields(op string, err error, extra ...map[string]interface{}) map[string]interface{} {
	m := make(map[string]interface{}, 2)
	for _, e := range extra {
		for k, v := range e {
			m[k] = v
		}
	}
	m[FieldOperation] = op
	if err != nil {
		m[FieldError] = err.Error()
	}
	return m
}
