package gpg

import (
	"strings"

	"github.com/commitsign/commitsign/pkg/commitsign/output"
)

// Normalized is the result of fingerprint normalization. Short is true when
// the input was a 16-character key id rather than a full fingerprint; callers
// must surface this, short ids are collision-prone.
type Normalized struct {
	Value string
	Short bool
}

// NormalizeFingerprint canonicalizes a fingerprint or short key id:
// whitespace and colon separators are stripped, the result is uppercased,
// and an optional leading "0x" prefix is removed. Exactly 40 hex characters
// is the canonical form; exactly 16 is accepted as a legacy short id.
// Anything else is a validation error.
func NormalizeFingerprint(s string) (Normalized, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r', ':':
			return -1
		}
		return r
	}, s)
	cleaned = strings.ToUpper(cleaned)
	cleaned = strings.TrimPrefix(cleaned, "0X")

	if !isHex(cleaned) {
		return Normalized{}, output.NewErrorf(output.CodeFingerprintInvalid,
			"fingerprint %q contains non-hexadecimal characters", s)
	}

	switch len(cleaned) {
	case 40:
		return Normalized{Value: cleaned}, nil
	case 16:
		return Normalized{Value: cleaned, Short: true}, nil
	default:
		return Normalized{}, output.NewErrorf(output.CodeFingerprintInvalid,
			"fingerprint %q has length %d, expected 40 (full) or 16 (short id)", s, len(cleaned))
	}
}

func isHex(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		isDigit := r >= '0' && r <= '9'
		isUpper := r >= 'A' && r <= 'F'
		if !isDigit && !isUpper {
			return false
		}
	}
	return true
}
