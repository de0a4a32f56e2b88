package paystub

// Error codes raised by the paystub domain
const (
	ErrCodeUnknownField = "UNKNOWN_FIELD"
)
