package dedupe

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

const keyDelimiter = "-"

// Key derives the content hash used as a filing's natural key.
// Missing components are hashed as empty strings.
func Key(hcpNumber, filingDate, clinicName, address string) string {
	sum := sha256.Sum256([]byte(strings.Join([]string{hcpNumber, filingDate, clinicName, address}, keyDelimiter)))
	return hex.EncodeToString(sum[:])
}

// StrictKey is Key but refuses to hash a record with no identifying fields at all.
func StrictKey(hcpNumber, filingDate, clinicName, address string) (string, error) {
	if hcpNumber == "" && filingDate == "" && clinicName == "" && address == "" {
		return "", ErrEmptyKeyInputs
	}
	return Key(hcpNumber, filingDate, clinicName, address), nil
}
