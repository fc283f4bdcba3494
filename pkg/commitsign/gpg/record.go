package gpg

import "strings"

// Algorithm identifies the public-key algorithm of a key.
type Algorithm int

const (
	AlgoUnknown Algorithm = iota
	AlgoRSA
	AlgoDSA
	AlgoECDH
	AlgoECDSA
	AlgoEdDSA
)

// GPG algorithm IDs (RFC 4880/9580)
const (
	gpgAlgoRSA            = 1
	gpgAlgoRSAEncryptOnly = 2 // Deprecated
	gpgAlgoRSASignOnly    = 3 // Deprecated
	gpgAlgoDSA            = 17
	gpgAlgoECDH           = 18
	gpgAlgoECDSA          = 19
	gpgAlgoEdDSA          = 22
)

// algorithmFromID maps a GPG colon-listing algorithm ID to an Algorithm.
func algorithmFromID(id int) Algorithm {
	switch id {
	case gpgAlgoRSA, gpgAlgoRSAEncryptOnly, gpgAlgoRSASignOnly:
		return AlgoRSA
	case gpgAlgoDSA:
		return AlgoDSA
	case gpgAlgoECDH:
		return AlgoECDH
	case gpgAlgoECDSA:
		return AlgoECDSA
	case gpgAlgoEdDSA:
		return AlgoEdDSA
	default:
		return AlgoUnknown
	}
}

// String returns the algorithm name.
func (a Algorithm) String() string {
	switch a {
	case AlgoRSA:
		return "RSA"
	case AlgoDSA:
		return "DSA"
	case AlgoECDH:
		return "ECDH"
	case AlgoECDSA:
		return "ECDSA"
	case AlgoEdDSA:
		return "EdDSA"
	default:
		return "Unknown"
	}
}

// KeyRecord describes a key as reported by the keyring.
type KeyRecord struct {
	Fingerprint string // 40 hex characters, uppercase
	CreatedAt   int64  // epoch seconds
	Algorithm   Algorithm
	Bits        int
	UIDs        []string // free-text identity strings, typically "Name <email>"
	HasSecret   bool
}

// ShortID returns the 16-character short key id derived from the fingerprint.
func (k KeyRecord) ShortID() string {
	if len(k.Fingerprint) < 16 {
		return k.Fingerprint
	}
	return k.Fingerprint[len(k.Fingerprint)-16:]
}

// MatchesEmail reports whether any UID contains the given email,
// case-insensitively.
func (k KeyRecord) MatchesEmail(email string) bool {
	if email == "" {
		return false
	}
	needle := strings.ToLower(email)
	for _, uid := range k.UIDs {
		if strings.Contains(strings.ToLower(uid), needle) {
			return true
		}
	}
	return false
}
