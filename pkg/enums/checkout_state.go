package enums

// CheckoutState models the per-vendor orchestration state machine. Sent is
// terminal: a vendor whose checkout reached Sent must never be retried.
type CheckoutState string

const (
	CheckoutStateIdle       CheckoutState = "idle"
	CheckoutStateSubmitting CheckoutState = "submitting"
	CheckoutStateSent       CheckoutState = "sent"
	CheckoutStateFailed     CheckoutState = "failed"
)

// String implements fmt.Stringer.
func (s CheckoutState) String() string {
	return string(s)
}

// Terminal reports whether no further submission is allowed from this state.
func (s CheckoutState) Terminal() bool {
	return s == CheckoutStateSent
}
