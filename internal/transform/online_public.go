package transform

import (
	"strings"
	"time"

	"github.com/target/courtlist-publisher/internal/domain/model"
)

// PublicationTimeLayout is ISO-8601 UTC with millisecond precision.
const PublicationTimeLayout = "2006-01-02T15:04:05.000Z"

// OnlinePublicDocument is the list published on the public website. Its tree runs
// venue / court list / court house / court room / session / sitting / hearing / case.
type OnlinePublicDocument struct {
	Document   DocumentInfo      `json:"document"`
	Venue      Venue             `json:"venue"`
	CourtLists []OnlineCourtList `json:"courtLists"`
}

// Variant implements Document.
func (*OnlinePublicDocument) Variant() model.CourtListType { return model.CourtListTypeOnlinePublic }

// OnlineCourtList covers one hearing day.
type OnlineCourtList struct {
	HearingDate string           `json:"hearingDate"`
	CourtHouse  OnlineCourtHouse `json:"courtHouse"`
}

// OnlineCourtHouse lists the rooms sitting at the venue.
type OnlineCourtHouse struct {
	Name       string            `json:"courtHouseName"`
	CourtRooms []OnlineCourtRoom `json:"courtRoom"`
}

// OnlineCourtRoom is one room.
type OnlineCourtRoom struct {
	Name     string          `json:"courtRoomName"`
	Number   int             `json:"courtRoomNumber"`
	Sessions []OnlineSession `json:"session"`
}

// OnlineSession is a room's sitting for the day.
type OnlineSession struct {
	Judiciary []Judge         `json:"judiciary"`
	Sittings  []OnlineSitting `json:"sittings"`
}

// OnlineSitting is one timeslot.
type OnlineSitting struct {
	SittingStart string          `json:"sittingStart"`
	Hearings     []OnlineHearing `json:"hearing"`
}

// OnlineHearing is one listed hearing.
type OnlineHearing struct {
	HearingType string       `json:"hearingType,omitempty"`
	Cases       []OnlineCase `json:"case"`
}

// OnlineCase carries only what may be shown online.
type OnlineCase struct {
	CaseURN              string            `json:"caseUrn"`
	ReportingRestriction bool              `json:"reportingRestriction"`
	Defendants           []OnlineDefendant `json:"defendants"`
}

// OnlineDefendant is a name only. Organisations are carried in Surname.
type OnlineDefendant struct {
	Forename string `json:"forename,omitempty"`
	Surname  string `json:"surname"`
}

// OnlinePublic returns the online transform stamped with now().
func OnlinePublic(now func() time.Time) func(*model.CourtListPayload) *OnlinePublicDocument {
	if now == nil {
		now = time.Now
	}
	return func(p *model.CourtListPayload) *OnlinePublicDocument {
		info := documentInfo(p, model.CourtListTypeOnlinePublic)
		info.PublicationDate = now().UTC().Format(PublicationTimeLayout)

		doc := &OnlinePublicDocument{
			Document:   info,
			Venue:      venue(p),
			CourtLists: make([]OnlineCourtList, 0, len(p.HearingDates)),
		}
		for _, day := range p.HearingDates {
			doc.CourtLists = append(doc.CourtLists, onlineCourtList(p.CourtCentreName, day))
		}
		return doc
	}
}

func onlineCourtList(houseName string, day model.HearingDay) OnlineCourtList {
	house := OnlineCourtHouse{
		Name:       houseName,
		CourtRooms: make([]OnlineCourtRoom, 0, len(day.CourtRooms)),
	}
	for _, room := range day.CourtRooms {
		session := OnlineSession{
			Judiciary: SplitJudiciary(room.Judiciary),
			Sittings:  make([]OnlineSitting, 0, len(room.Timeslots)),
		}
		for _, slot := range room.Timeslots {
			session.Sittings = append(session.Sittings, onlineSitting(slot))
		}
		house.CourtRooms = append(house.CourtRooms, OnlineCourtRoom{
			Name:     room.CourtRoomName,
			Number:   RoomNumber(room.CourtRoomName),
			Sessions: []OnlineSession{session},
		})
	}
	return OnlineCourtList{HearingDate: day.HearingDate, CourtHouse: house}
}

func onlineSitting(slot model.Timeslot) OnlineSitting {
	sitting := OnlineSitting{
		SittingStart: StartTime(slot.StartTime),
		Hearings:     make([]OnlineHearing, 0, len(slot.Hearings)),
	}
	for _, h := range slot.Hearings {
		defendants := make([]OnlineDefendant, 0, len(h.Defendants))
		for _, d := range h.Defendants {
			if d.IsOrganisation() {
				defendants = append(defendants, OnlineDefendant{Surname: strings.TrimSpace(d.OrganisationName)})
				continue
			}
			defendants = append(defendants, OnlineDefendant{
				Forename: strings.TrimSpace(d.FirstName),
				Surname:  strings.TrimSpace(d.Surname),
			})
		}
		sitting.Hearings = append(sitting.Hearings, OnlineHearing{
			HearingType: strings.TrimSpace(h.HearingType),
			Cases: []OnlineCase{{
				CaseURN:              strings.TrimSpace(h.CaseNumber),
				ReportingRestriction: strings.TrimSpace(h.ReportingRestrictionReason) != "",
				Defendants:           defendants,
			}},
		})
	}
	return sitting
}
