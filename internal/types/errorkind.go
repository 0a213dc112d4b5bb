package types

// ErrorKind classifies a provider failure so the caller can decide between
// retrying, surfacing immediately, or requiring manual intervention.
// Adapters must map every vendor error into one of these kinds.
type ErrorKind string

const (
	// ErrorKindValidation is malformed input, surfaced immediately, never retried
	ErrorKindValidation ErrorKind = "validation"
	// ErrorKindTransient is a network timeout, 5xx or connection reset, retried with backoff
	ErrorKindTransient ErrorKind = "transient"
	// ErrorKindBusiness is a compliance rejection from the provider, requires manual correction
	ErrorKindBusiness ErrorKind = "business"
	// ErrorKindAuth is an expired or invalid token, one refresh-and-retry then terminal
	ErrorKindAuth ErrorKind = "auth"
	// ErrorKindExhaustion means the registered number range is used up, never retried
	ErrorKindExhaustion ErrorKind = "exhaustion"
)

func (k ErrorKind) String() string {
	return string(k)
}

// IsRetryable reports whether the delivery queue may replay a call
// that failed with this kind.
func (k ErrorKind) IsRetryable() bool {
	return k == ErrorKindTransient
}
