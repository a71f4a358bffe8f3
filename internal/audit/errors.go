package audit

import "errors"

var (
	// ErrValidation marks a request the caller must fix (missing description).
	ErrValidation = errors.New("invalid audit request")
	// ErrMissingIdentity is returned when a core operation is called without
	// an authenticated identity; nothing downstream is invoked.
	ErrMissingIdentity = errors.New("identity required")
	// ErrProviderUnavailable covers timeouts, transport failures, non-2xx and
	// rate-limit responses from the language model.
	ErrProviderUnavailable = errors.New("model provider unavailable")
	// ErrMalformedModelOutput means the model answered but the payload failed
	// schema validation.
	ErrMalformedModelOutput = errors.New("malformed model output")
	// ErrStorageUnavailable wraps backing-store failures.
	ErrStorageUnavailable = errors.New("audit storage unavailable")
	ErrNotFound           = errors.New("audit not found")
)

// Outcome returns the metric/log label for an error returned by the pipeline.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrMalformedModelOutput):
		return "malformed_model_output"
	case errors.Is(err, ErrProviderUnavailable):
		return "provider_unavailable"
	case errors.Is(err, ErrStorageUnavailable):
		return "storage_unavailable"
	}
	return "error"
}
