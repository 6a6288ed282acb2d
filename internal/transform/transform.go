// Package transform maps raw listing payloads onto the document shapes accepted by the
// publication hub. Every transform is pure: the same payload yields the same document, and
// malformed leaf fields degrade to null or a default instead of failing.
package transform

import (
	"fmt"
	"time"

	"github.com/target/courtlist-publisher/internal/domain/model"
)

// Document is a transformed court list ready for validation, publication and rendering.
type Document interface {
	Variant() model.CourtListType
}

// Func transforms a listing payload into one document variant.
type Func func(p *model.CourtListPayload) Document

// Option configures For.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock sets the clock used for publication timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// For selects the transform for a court list type.
func For(t model.CourtListType, opts ...Option) (Func, error) {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	switch t {
	case model.CourtListTypeStandard:
		return wrap(Standard), nil
	case model.CourtListTypePublic:
		return wrap(Public), nil
	case model.CourtListTypeOnlinePublic:
		return wrap(OnlinePublic(o.now)), nil
	default:
		return nil, fmt.Errorf("no transform for court list type %q", t)
	}
}

// wrap keeps a nil payload from surfacing as a non-nil Document holding a nil pointer.
func wrap[D Document](fn func(*model.CourtListPayload) D) Func {
	return func(p *model.CourtListPayload) Document {
		if p == nil {
			return nil
		}
		return fn(p)
	}
}

// DocumentInfo is the header shared by every variant.
type DocumentInfo struct {
	ListType        model.CourtListType `json:"listType"`
	ListDate        string              `json:"listDate"`
	CourtCentreID   string              `json:"courtCentreId"`
	PublicationDate string              `json:"publicationDate,omitempty"`
}

// Venue identifies the court centre a list belongs to.
type Venue struct {
	Name    string  `json:"venueName"`
	OUCode  string  `json:"ouCode,omitempty"`
	Address Address `json:"venueAddress"`
}

func documentInfo(p *model.CourtListPayload, t model.CourtListType) DocumentInfo {
	return DocumentInfo{
		ListType:      t,
		ListDate:      listDate(p),
		CourtCentreID: p.CourtCentreID,
	}
}

func venue(p *model.CourtListPayload) Venue {
	return Venue{
		Name:    p.CourtCentreName,
		OUCode:  p.OUCode,
		Address: AddressLines(p.CourtCentreAddress),
	}
}

// listDate falls back to the first hearing day when the payload carries no list date.
func listDate(p *model.CourtListPayload) string {
	if p.ListDate != "" || len(p.HearingDates) == 0 {
		return p.ListDate
	}
	return p.HearingDates[0].HearingDate
}
