package aggregator

import "fmt"

// MalformedInputError reports a required field that is absent or has the wrong shape.
// The whole document must be rejected.
type MalformedInputError struct {
	Field  string
	Reason string
}

func (e *MalformedInputError) Error() string {
	return fmt.Sprintf("malformed input: %s: %s", e.Field, e.Reason)
}

func malformed(field, format string, args ...any) error {
	return &MalformedInputError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// IdentityResolutionError reports a round participant or event username that cannot be
// resolved to a rostered identity. No record is emitted for that round.
type IdentityResolutionError struct {
	Round    int
	Username string
	PlayerID string
}

func (e *IdentityResolutionError) Error() string {
	if e.PlayerID != "" {
		return fmt.Sprintf("round %d: player %s (%q) is not in the match roster", e.Round, e.PlayerID, e.Username)
	}
	return fmt.Sprintf("round %d: username %q is not in the round roster", e.Round, e.Username)
}
