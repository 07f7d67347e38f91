package domain

import "fmt"

// MaxOwnerIDLength bounds an owner id.
const MaxOwnerIDLength = 128

// ErrInvalidOwnerID rejects owner ids that cannot be used as a single
// object key segment.
var ErrInvalidOwnerID = fmt.Errorf("%w: invalid owner ID", ErrValidation)

// ValidateOwnerID accepts non-empty ids of letters, digits and . _ - @ + :
// up to MaxOwnerIDLength bytes. "." and ".." are rejected. Owner ids become
// a path segment of generated audio keys, and the completion handler
// recovers them positionally from that path.
func ValidateOwnerID(ownerID string) error {
	if ownerID == "" || len(ownerID) > MaxOwnerIDLength || ownerID == "." || ownerID == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidOwnerID, ownerID)
	}
	for _, c := range ownerID {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '.', c == '_', c == '-', c == '@', c == '+', c == ':':
		default:
			return fmt.Errorf("%w: %q", ErrInvalidOwnerID, ownerID)
		}
	}
	return nil
}
