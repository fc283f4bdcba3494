package gpg

import (
	"strconv"
	"strings"
)

// The colon-delimited listing format produced by gpg --with-colons is the
// closest thing GnuPG has to a machine-readable interface. It is treated
// here as a semi-stable wire format; all knowledge of it stays in this file.
//
// Fields of interest (0-based):
//
//	sec/pub  [2]=key length  [3]=algorithm id  [4]=key id  [5]=creation
//	fpr      [9]=fingerprint (for the most recent sec/pub or sub/ssb)
//	uid      [9]=user id string
const (
	colFieldBits     = 2
	colFieldAlgo     = 3
	colFieldCreation = 5
	colFieldPayload  = 9
)

// parseKeyListing parses the output of a gpg --with-colons key listing into
// KeyRecords. secret marks the records as carrying secret material (i.e. the
// listing came from --list-secret-keys). Fingerprint lines following subkey
// records are ignored; only the primary key fingerprint is recorded.
func parseKeyListing(out string, secret bool) []KeyRecord {
	var records []KeyRecord
	var current *KeyRecord
	var inSubkey bool

	flush := func() {
		if current != nil && current.Fingerprint != "" {
			records = append(records, *current)
		}
		current = nil
	}

	for _, line := range strings.Split(out, "\n") {
		fields := strings.Split(line, ":")
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "sec", "pub":
			flush()
			inSubkey = false
			rec := KeyRecord{HasSecret: secret}
			if len(fields) > colFieldBits {
				rec.Bits, _ = strconv.Atoi(fields[colFieldBits])
			}
			if len(fields) > colFieldAlgo {
				id, _ := strconv.Atoi(fields[colFieldAlgo])
				rec.Algorithm = algorithmFromID(id)
			}
			if len(fields) > colFieldCreation {
				rec.CreatedAt, _ = strconv.ParseInt(fields[colFieldCreation], 10, 64)
			}
			current = &rec
		case "ssb", "sub":
			inSubkey = true
		case "fpr":
			if current != nil && !inSubkey && current.Fingerprint == "" && len(fields) > colFieldPayload {
				current.Fingerprint = strings.ToUpper(fields[colFieldPayload])
			}
		case "uid":
			if current != nil && len(fields) > colFieldPayload {
				current.UIDs = append(current.UIDs, decodeColonField(fields[colFieldPayload]))
			}
		}
	}
	flush()

	return records
}

// decodeColonField undoes the escaping gpg applies inside colon-listing
// fields: colons appear as \x3a and backslashes as doubled backslashes.
func decodeColonField(s string) string {
	if !strings.Contains(s, "\\") {
		return s
	}
	s = strings.ReplaceAll(s, "\\x3a", ":")
	s = strings.ReplaceAll(s, "\\\\", "\\")
	return s
}
