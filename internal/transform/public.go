package transform

import (
	"strings"

	"github.com/target/courtlist-publisher/internal/domain/model"
)

// PublicDocument is the court-notice list. It carries case numbers and defendant names only.
type PublicDocument struct {
	Document DocumentInfo    `json:"document"`
	Venue    Venue           `json:"venue"`
	Sessions []PublicSession `json:"sessions"`
}

// Variant implements Document.
func (*PublicDocument) Variant() model.CourtListType { return model.CourtListTypePublic }

// PublicSession is one court room sitting on one day.
type PublicSession struct {
	SessionDate     string        `json:"sessionDate"`
	CourtRoomName   string        `json:"courtRoomName"`
	CourtRoomNumber int           `json:"courtRoomNumber"`
	Judiciary       []Judge       `json:"judiciary"`
	Blocks          []PublicBlock `json:"blocks"`
}

// PublicBlock groups cases listed in the same timeslot.
type PublicBlock struct {
	BlockStart string       `json:"blockStart"`
	Cases      []PublicCase `json:"cases"`
}

// PublicCase is one defendant's appearance.
type PublicCase struct {
	CaseNumber    string `json:"caseNumber"`
	SittingStart  string `json:"sittingStart"`
	DefendantName string `json:"defendantName"`
}

// Public builds the redacted document.
func Public(p *model.CourtListPayload) *PublicDocument {
	doc := &PublicDocument{
		Document: documentInfo(p, model.CourtListTypePublic),
		Venue:    venue(p),
		Sessions: make([]PublicSession, 0),
	}

	for _, day := range p.HearingDates {
		for _, room := range day.CourtRooms {
			session := PublicSession{
				SessionDate:     day.HearingDate,
				CourtRoomName:   room.CourtRoomName,
				CourtRoomNumber: RoomNumber(room.CourtRoomName),
				Judiciary:       SplitJudiciary(room.Judiciary),
				Blocks:          make([]PublicBlock, 0, len(room.Timeslots)),
			}
			for _, slot := range room.Timeslots {
				block := PublicBlock{BlockStart: StartTime(slot.StartTime), Cases: make([]PublicCase, 0)}
				for _, h := range slot.Hearings {
					for _, d := range h.Defendants {
						block.Cases = append(block.Cases, PublicCase{
							CaseNumber:    strings.TrimSpace(h.CaseNumber),
							SittingStart:  sittingStart(slot, h),
							DefendantName: defendantName(d),
						})
					}
				}
				session.Blocks = append(session.Blocks, block)
			}
			doc.Sessions = append(doc.Sessions, session)
		}
	}
	return doc
}
