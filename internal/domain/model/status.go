// Package model defines the core data types shared by the court list publisher.
package model

import (
	"fmt"
	"strings"
)

// Status is the lifecycle state of one dimension (publish or file) of a status record.
//
//nolint:recvcheck // UnmarshalText needs pointer receiver, Valid needs value receiver
type Status string

const (
	// StatusRequested indicates work has been asked for but has not finished.
	StatusRequested Status = "REQUESTED"
	// StatusSuccessful indicates the dimension reached its terminal success state.
	StatusSuccessful Status = "SUCCESSFUL"
	// StatusFailed indicates the dimension reached its terminal failure state.
	StatusFailed Status = "FAILED"
)

// Valid returns true if the Status is one of the known values.
func (s Status) Valid() bool {
	return s == StatusRequested || s == StatusSuccessful || s == StatusFailed
}

// Terminal reports whether no further transition is expected without a new request.
func (s Status) Terminal() bool {
	return s == StatusSuccessful || s == StatusFailed
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(text []byte) error {
	v := Status(strings.ToUpper(strings.TrimSpace(string(text))))
	if !v.Valid() {
		return fmt.Errorf("invalid status: %q", string(text))
	}
	*s = v
	return nil
}

// CourtListType selects the document variant produced for a court list.
//
//nolint:recvcheck // UnmarshalText needs pointer receiver, Valid needs value receiver
type CourtListType string

const (
	// CourtListTypeStandard is the full-detail list for court users.
	CourtListTypeStandard CourtListType = "STANDARD"
	// CourtListTypePublic is the redacted list displayed in the court building.
	CourtListTypePublic CourtListType = "PUBLIC"
	// CourtListTypeOnlinePublic is the redacted list published online.
	CourtListTypeOnlinePublic CourtListType = "ONLINE_PUBLIC"
)

// CourtListTypes lists every supported variant in a stable order.
func CourtListTypes() []CourtListType {
	return []CourtListType{CourtListTypeStandard, CourtListTypePublic, CourtListTypeOnlinePublic}
}

// Valid returns true if the CourtListType is supported.
func (t CourtListType) Valid() bool {
	switch t {
	case CourtListTypeStandard, CourtListTypePublic, CourtListTypeOnlinePublic:
		return true
	default:
		return false
	}
}

// String implements fmt.Stringer.
func (t CourtListType) String() string {
	return string(t)
}

// UnmarshalText accepts case-insensitive names using '_', '-' or ' ' as separators.
func (t *CourtListType) UnmarshalText(text []byte) error {
	v, err := ParseCourtListType(string(text))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// ParseCourtListType normalises raw input into a CourtListType.
func ParseCourtListType(raw string) (CourtListType, error) {
	norm := strings.ToUpper(strings.TrimSpace(raw))
	norm = strings.NewReplacer("-", "_", " ", "_").Replace(norm)
	v := CourtListType(norm)
	if !v.Valid() {
		return "", fmt.Errorf("invalid court list type: %q", raw)
	}
	return v, nil
}
