package transform

import (
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/target/courtlist-publisher/internal/domain/model"
)

// Field limits imposed by the downstream schemas.
const (
	MaxAddressLine    = 35
	MaxPostcode       = 8
	MaxOffenceTitle   = 120
	MaxOffenceWording = 4000
)

// DefaultStartTime is used when a sitting has no parsable start time.
const DefaultStartTime = "00:00"

const (
	dateOfBirthLayout = "2 Jan 2006"
	isoDateLayout     = "2006-01-02"
)

// RoomNumber keeps the digits of a court room name. Names without digits map to 1.
func RoomNumber(name string) int {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, name)
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 1
	}
	return n
}

// StartTime normalises a listing start time to HH:mm.
func StartTime(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultStartTime
	}
	for _, layout := range []string{"15:04", "15:04:05", time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format("15:04")
		}
	}
	return DefaultStartTime
}

// ISODateOfBirth converts "2 Jan 2006" to "2006-01-02". Anything else yields nil.
func ISODateOfBirth(raw string) *string {
	t, err := time.Parse(dateOfBirthLayout, strings.TrimSpace(raw))
	if err != nil {
		return nil
	}
	s := t.Format(isoDateLayout)
	return &s
}

// Age parses a non-negative whole-number age.
func Age(raw string) *int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 0 {
		return nil
	}
	return &n
}

// Judge is one member of the judiciary sitting in a room.
type Judge struct {
	Name      string `json:"johKnownAs"`
	Presiding bool   `json:"isPresiding"`
}

// SplitJudiciary splits a "," or ";" separated list. The first name presides.
func SplitJudiciary(raw string) []Judge {
	parts := strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == ';' })
	judges := make([]Judge, 0, len(parts))
	for _, p := range parts {
		name := strings.TrimSpace(p)
		if name == "" {
			continue
		}
		judges = append(judges, Judge{Name: name, Presiding: len(judges) == 0})
	}
	return judges
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// Address is a schema-shaped postal address.
type Address struct {
	Lines    []string `json:"line"`
	Postcode string   `json:"postCode,omitempty"`
}

// AddressLines trims each line to MaxAddressLine runes and the postcode to MaxPostcode.
func AddressLines(addr model.Address) Address {
	src := addr.Lines()
	lines := make([]string, 0, len(src))
	for _, l := range src {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, Truncate(l, MaxAddressLine))
		}
	}
	return Address{
		Lines:    lines,
		Postcode: Truncate(strings.TrimSpace(addr.Postcode), MaxPostcode),
	}
}

// defendantName renders a display name for public lists.
func defendantName(d model.Defendant) string {
	if d.IsOrganisation() {
		return strings.TrimSpace(d.OrganisationName)
	}
	return strings.Join(strings.FieldsFunc(d.FirstName+" "+d.Surname, unicode.IsSpace), " ")
}

// sittingStart prefers the hearing's own start time over the timeslot's.
func sittingStart(slot model.Timeslot, h model.Hearing) string {
	if strings.TrimSpace(h.StartTime) != "" {
		return StartTime(h.StartTime)
	}
	return StartTime(slot.StartTime)
}
