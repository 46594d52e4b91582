package agenda

import "fmt"

// NormalizationError reports a provider event that could not be converted
// into a canonical event. The assembler logs these and moves on; they never
// abort a pass.
type NormalizationError struct {
	EventID string
	Reason  string
}

func (e *NormalizationError) Error() string {
	if e.EventID == "" {
		return "normalize event: " + e.Reason
	}
	return fmt.Sprintf("normalize event %s: %s", e.EventID, e.Reason)
}

func normErr(eventID, format string, args ...any) error {
	return &NormalizationError{EventID: eventID, Reason: fmt.Sprintf(format, args...)}
}
