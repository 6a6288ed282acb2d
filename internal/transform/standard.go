package transform

import (
	"strings"

	"github.com/target/courtlist-publisher/internal/domain/model"
)

// Party roles used in standard lists.
const (
	RoleDefendant            = "DEFENDANT"
	RoleProsecutingAuthority = "PROSECUTING_AUTHORITY"
)

// StandardDocument is the full-detail list for court users.
type StandardDocument struct {
	Document DocumentInfo      `json:"document"`
	Venue    Venue             `json:"venue"`
	Sessions []StandardSession `json:"sessions"`
}

// Variant implements Document.
func (*StandardDocument) Variant() model.CourtListType { return model.CourtListTypeStandard }

// StandardSession is one court room sitting on one day.
type StandardSession struct {
	SessionDate     string          `json:"sessionDate"`
	CourtRoomName   string          `json:"courtRoomName"`
	CourtRoomNumber int             `json:"courtRoomNumber"`
	Judiciary       []Judge         `json:"judiciary"`
	Blocks          []StandardBlock `json:"blocks"`
}

// StandardBlock groups cases listed in the same timeslot.
type StandardBlock struct {
	BlockStart string         `json:"blockStart"`
	Cases      []StandardCase `json:"cases"`
}

// StandardCase is one defendant's appearance in a hearing.
type StandardCase struct {
	CaseNumber           string    `json:"caseNumber"`
	HearingType          string    `json:"hearingType,omitempty"`
	SittingStart         string    `json:"sittingStart"`
	EstimatedDuration    string    `json:"estimatedDuration,omitempty"`
	ReportingRestriction string    `json:"reportingRestrictionDetail,omitempty"`
	Parties              []Party   `json:"party"`
	Offences             []Offence `json:"offence"`
}

// Party is a defendant or the prosecuting authority. Exactly one of the detail blocks is set.
type Party struct {
	Role         string        `json:"partyRole"`
	Individual   *Individual   `json:"individualDetails,omitempty"`
	Organisation *Organisation `json:"organisationDetails,omitempty"`
}

// Individual holds a person's details.
type Individual struct {
	Forenames   string   `json:"individualForenames"`
	Surname     string   `json:"individualSurname"`
	DateOfBirth *string  `json:"dateOfBirth"`
	Age         *int     `json:"age"`
	Address     *Address `json:"address,omitempty"`
}

// Organisation holds an organisation's details.
type Organisation struct {
	Name    string   `json:"organisationName"`
	Address *Address `json:"organisationAddress,omitempty"`
}

// Offence is one charge on a standard list.
type Offence struct {
	Code    string `json:"offenceCode,omitempty"`
	Title   string `json:"offenceTitle"`
	Wording string `json:"offenceWording,omitempty"`
}

// Standard builds the full-detail document.
func Standard(p *model.CourtListPayload) *StandardDocument {
	doc := &StandardDocument{
		Document: documentInfo(p, model.CourtListTypeStandard),
		Venue:    venue(p),
		Sessions: make([]StandardSession, 0),
	}

	for _, day := range p.HearingDates {
		for _, room := range day.CourtRooms {
			session := StandardSession{
				SessionDate:     day.HearingDate,
				CourtRoomName:   room.CourtRoomName,
				CourtRoomNumber: RoomNumber(room.CourtRoomName),
				Judiciary:       SplitJudiciary(room.Judiciary),
				Blocks:          make([]StandardBlock, 0, len(room.Timeslots)),
			}
			for _, slot := range room.Timeslots {
				session.Blocks = append(session.Blocks, standardBlock(slot))
			}
			doc.Sessions = append(doc.Sessions, session)
		}
	}
	return doc
}

func standardBlock(slot model.Timeslot) StandardBlock {
	block := StandardBlock{
		BlockStart: StartTime(slot.StartTime),
		Cases:      make([]StandardCase, 0),
	}
	for _, h := range slot.Hearings {
		for _, d := range h.Defendants {
			block.Cases = append(block.Cases, standardCase(slot, h, d))
		}
	}
	return block
}

func standardCase(slot model.Timeslot, h model.Hearing, d model.Defendant) StandardCase {
	c := StandardCase{
		CaseNumber:           strings.TrimSpace(h.CaseNumber),
		HearingType:          strings.TrimSpace(h.HearingType),
		SittingStart:         sittingStart(slot, h),
		EstimatedDuration:    strings.TrimSpace(h.EstimatedDuration),
		ReportingRestriction: strings.TrimSpace(h.ReportingRestrictionReason),
		Parties:              []Party{defendantParty(d)},
		Offences:             make([]Offence, 0, len(d.Offences)),
	}
	if prosecutor := strings.TrimSpace(h.ProsecutorType); prosecutor != "" {
		c.Parties = append(c.Parties, Party{
			Role:         RoleProsecutingAuthority,
			Organisation: &Organisation{Name: prosecutor},
		})
	}
	for _, o := range d.Offences {
		c.Offences = append(c.Offences, Offence{
			Code:    strings.TrimSpace(o.OffenceCode),
			Title:   Truncate(strings.TrimSpace(o.OffenceTitle), MaxOffenceTitle),
			Wording: Truncate(strings.TrimSpace(o.OffenceWording), MaxOffenceWording),
		})
	}
	return c
}

func defendantParty(d model.Defendant) Party {
	var addr *Address
	if !d.Address.IsZero() {
		a := AddressLines(d.Address)
		addr = &a
	}

	if d.IsOrganisation() {
		return Party{
			Role:         RoleDefendant,
			Organisation: &Organisation{Name: strings.TrimSpace(d.OrganisationName), Address: addr},
		}
	}
	return Party{
		Role: RoleDefendant,
		Individual: &Individual{
			Forenames:   strings.TrimSpace(d.FirstName),
			Surname:     strings.TrimSpace(d.Surname),
			DateOfBirth: ISODateOfBirth(d.DateOfBirth),
			Age:         Age(d.Age),
			Address:     addr,
		},
	}
}
