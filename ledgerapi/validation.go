package ledgerapi

import (
	"encoding/hex"
	"fmt"
	"regexp"
)

var (
	classicAddressPattern = regexp.MustCompile(`^r[1-9A-HJ-NP-Za-km-z]{24,34}$`) //nolint:gochecknoglobals
	hash256Pattern        = regexp.MustCompile(`^[0-9A-Fa-f]{64}$`)              //nolint:gochecknoglobals
)

// IsValidAddress reports whether s has the form of a classic account address.
func IsValidAddress(s string) bool {
	return classicAddressPattern.MatchString(s)
}

func validateAddress(field, address string) error {
	if !IsValidAddress(address) {
		return &ValidationError{Field: field, Message: fmt.Sprintf("%q is not a valid account address", address)}
	}
	return nil
}

func validateHash(field, hash string) error {
	if !hash256Pattern.MatchString(hash) {
		return &ValidationError{Field: field, Message: fmt.Sprintf("%q is not a 256-bit hex hash", hash)}
	}
	return nil
}

func validateBlob(field, blob string) error {
	if blob == "" {
		return &ValidationError{Field: field, Message: "must not be empty"}
	}
	if _, err := hex.DecodeString(blob); err != nil {
		return &ValidationError{Field: field, Message: "must be an even-length hex string"}
	}
	return nil
}
