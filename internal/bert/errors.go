package bert

// Error is a categorized failure from the model wrapper.
type Error struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return e.Message
}

// Common error values. Callers match them with errors.Is.
var (
	ErrBundleExists    = &Error{Type: "bundle_exists", Message: "model path already exists and overwrite was not set"}
	ErrBundleInvalid   = &Error{Type: "bundle_invalid", Message: "saved model bundle is missing or malformed"}
	ErrSourceMissing   = &Error{Type: "source_missing", Message: "bundle does not record its source model"}
	ErrFetchFailed     = &Error{Type: "fetch_failed", Message: "failed to fetch model from hub"}
	ErrGraphInvalid    = &Error{Type: "graph_invalid", Message: "model graph is missing expected inputs or outputs"}
	ErrInferenceFailed = &Error{Type: "inference_failed", Message: "graph execution failed"}
	ErrSessionActive   = &Error{Type: "session_active", Message: "a session is already active for this model"}
)
