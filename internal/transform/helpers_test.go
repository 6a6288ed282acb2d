package transform

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/courtlist-publisher/internal/domain/model"
)

func TestRoomNumber(t *testing.T) {
	tests := map[string]int{
		"Courtroom 01":         1,
		"Court 12":             12,
		"Room 3A":              3,
		"Main Hall":            1,
		"":                     1,
		"1st Floor, 4":         14,
		"99999999999999999999": 1,
	}
	for in, want := range tests {
		assert.Equal(t, want, RoomNumber(in), in)
	}
}

func TestStartTime(t *testing.T) {
	tests := map[string]string{
		"10:00":                "10:00",
		"10:30:00":             "10:30",
		"2026-03-02T14:15:00Z": "14:15",
		"":                     DefaultStartTime,
		"   ":                  DefaultStartTime,
		"half ten":             DefaultStartTime,
		"25:00":                DefaultStartTime,
	}
	for in, want := range tests {
		assert.Equal(t, want, StartTime(in), in)
	}
}

func TestISODateOfBirth(t *testing.T) {
	got := ISODateOfBirth("2 Jan 1990")
	require.NotNil(t, got)
	assert.Equal(t, "1990-01-02", *got)

	got = ISODateOfBirth("12 Dec 1985")
	require.NotNil(t, got)
	assert.Equal(t, "1985-12-12", *got)

	for _, bad := range []string{"", "1990-01-02", "31 Feb 1990", "unknown"} {
		assert.Nil(t, ISODateOfBirth(bad), bad)
	}
}

func TestAge(t *testing.T) {
	got := Age(" 36 ")
	require.NotNil(t, got)
	assert.Equal(t, 36, *got)

	for _, bad := range []string{"", "thirty", "-1", "36.5"} {
		assert.Nil(t, Age(bad), bad)
	}
}

func TestSplitJudiciary(t *testing.T) {
	judges := SplitJudiciary("District Judge Smith, Mr J Jones; ;Mrs K Patel")
	assert.Equal(t, []Judge{
		{Name: "District Judge Smith", Presiding: true},
		{Name: "Mr J Jones"},
		{Name: "Mrs K Patel"},
	}, judges)

	empty := SplitJudiciary(" ")
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 5))
	assert.Equal(t, "ab", Truncate("abc", 2))
	assert.Equal(t, "žž", Truncate("žžž", 2))
	assert.Empty(t, Truncate("abc", 0))
}

func TestAddressLines(t *testing.T) {
	long := strings.Repeat("x", 50)
	addr := AddressLines(model.Address{
		Address1: " " + long,
		Address3: "Battersea",
		Postcode: "SW11 1JU EXTRA",
	})

	require.Len(t, addr.Lines, 2)
	assert.Len(t, addr.Lines[0], MaxAddressLine)
	assert.Equal(t, "Battersea", addr.Lines[1])
	assert.Equal(t, "SW11 1JU", addr.Postcode)

	empty := AddressLines(model.Address{})
	assert.NotNil(t, empty.Lines)
	assert.Empty(t, empty.Lines)
}
