package enums

import (
	"fmt"
	"strings"
)

// ClientStatus is the lifecycle state of a customer record.
type ClientStatus string

const (
	ClientStatusActive   ClientStatus = "Active"
	ClientStatusInactive ClientStatus = "Inactive"
)

var validClientStatuses = []ClientStatus{
	ClientStatusActive,
	ClientStatusInactive,
}

// String implements fmt.Stringer.
func (s ClientStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ClientStatus.
func (s ClientStatus) IsValid() bool {
	for _, candidate := range validClientStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseClientStatus matches raw input case-insensitively and returns the canonical value.
func ParseClientStatus(value string) (ClientStatus, error) {
	value = strings.TrimSpace(value)
	for _, candidate := range validClientStatuses {
		if strings.EqualFold(string(candidate), value) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid client status %q", value)
}
