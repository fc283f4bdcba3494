package gpg

import (
	"fmt"
	"strings"

	"github.com/ProtonMail/gopenpgp/v3/crypto"
)

// ArmoredKeyInfo summarizes an armored public key block without touching the
// keyring. Candidate ordering and post-import verification work from this.
type ArmoredKeyInfo struct {
	Fingerprint string
	Algorithm   Algorithm
	Bits        int
	UIDs        []string
	Emails      []string
}

// InspectArmored parses an armored key block and extracts its fingerprint,
// algorithm, and identity information.
func InspectArmored(armored string) (*ArmoredKeyInfo, error) {
	key, err := crypto.NewKeyFromArmored(armored)
	if err != nil {
		return nil, fmt.Errorf("failed to parse armored key: %w", err)
	}

	info := &ArmoredKeyInfo{
		Fingerprint: strings.ToUpper(key.GetFingerprint()),
	}

	entity := key.GetEntity()
	if entity == nil {
		return info, nil
	}

	if entity.PrimaryKey != nil {
		info.Algorithm = algorithmFromID(int(entity.PrimaryKey.PubKeyAlgo))
		if bits, err := entity.PrimaryKey.BitLength(); err == nil {
			info.Bits = int(bits)
		}
	}

	for _, ident := range entity.Identities {
		if ident == nil {
			continue
		}
		info.UIDs = append(info.UIDs, ident.Name)
		if ident.UserId != nil && ident.UserId.Email != "" {
			info.Emails = append(info.Emails, ident.UserId.Email)
		} else if email := emailFromUID(ident.Name); email != "" {
			info.Emails = append(info.Emails, email)
		}
	}

	return info, nil
}

// MatchesEmail reports whether the key carries the given email,
// case-insensitively.
func (i *ArmoredKeyInfo) MatchesEmail(email string) bool {
	needle := strings.ToLower(email)
	for _, e := range i.Emails {
		if strings.ToLower(e) == needle {
			return true
		}
	}
	return false
}

// emailFromUID extracts the email from a "Name <email>" UID string.
func emailFromUID(uid string) string {
	start := strings.LastIndex(uid, "<")
	end := strings.LastIndex(uid, ">")
	if start < 0 || end < start {
		return ""
	}
	return uid[start+1 : end]
}
