// Package testutil provides testing utilities and fixtures for the court list publisher.
package testutil

import (
	"github.com/target/courtlist-publisher/internal/domain/model"
)

// Fixture identifiers shared across package tests.
const (
	CourtCentreID = "f8254db1-1683-483e-afb3-b87fde5a0a26"
	PublishDate   = "2026-03-02"
)

// PublishRequestBuilder provides a fluent interface for building PublishRequest values.
type PublishRequestBuilder struct {
	req model.PublishRequest
}

// NewPublishRequest returns a builder for a valid single-day STANDARD request.
func NewPublishRequest() *PublishRequestBuilder {
	return &PublishRequestBuilder{req: model.PublishRequest{
		CourtCentreID: CourtCentreID,
		StartDate:     PublishDate,
		EndDate:       PublishDate,
		CourtListType: model.CourtListTypeStandard,
	}}
}

// WithCentre sets the court centre.
func (b *PublishRequestBuilder) WithCentre(id string) *PublishRequestBuilder {
	b.req.CourtCentreID = id
	return b
}

// WithType sets the court list type.
func (b *PublishRequestBuilder) WithType(t model.CourtListType) *PublishRequestBuilder {
	b.req.CourtListType = t
	return b
}

// WithDates sets start and end dates independently.
func (b *PublishRequestBuilder) WithDates(start, end string) *PublishRequestBuilder {
	b.req.StartDate = start
	b.req.EndDate = end
	return b
}

// WithExternalCalls sets makeExternalCalls.
func (b *PublishRequestBuilder) WithExternalCalls(on bool) *PublishRequestBuilder {
	b.req.MakeExternalCalls = &on
	return b
}

// Build returns the request.
func (b *PublishRequestBuilder) Build() model.PublishRequest {
	return b.req
}

// CourtListPayloadBuilder builds listing payloads for transform and pipeline tests.
type CourtListPayloadBuilder struct {
	p model.CourtListPayload
}

// NewCourtListPayload returns a well-formed payload: one day, one room, one timeslot,
// one hearing with an individual and an organisation defendant.
func NewCourtListPayload() *CourtListPayloadBuilder {
	return &CourtListPayloadBuilder{p: model.CourtListPayload{
		CourtCentreID:   CourtCentreID,
		CourtCentreName: "Lavender Hill Magistrates' Court",
		OUCode:          "B01LY00",
		CourtCentreAddress: model.Address{
			Address1: "176A Lavender Hill",
			Address2: "London",
			Postcode: "SW11 1JU",
		},
		ListDate: PublishDate,
		HearingDates: []model.HearingDay{{
			HearingDate: PublishDate,
			CourtRooms: []model.CourtRoom{{
				CourtRoomName: "Courtroom 01",
				Judiciary:     "District Judge Smith, Mr J Jones; Mrs K Patel",
				Timeslots: []model.Timeslot{{
					StartTime: "10:00",
					Hearings: []model.Hearing{{
						ID:                         "5e6d0f4e-8c57-4a1e-9a6b-0f1c6a2f9a01",
						CaseNumber:                 "28DI1234567",
						HearingType:                "First hearing",
						StartTime:                  "10:30:00",
						ReportingRestrictionReason: "",
						ProsecutorType:             "CPS",
						Defendants: []model.Defendant{
							{
								FirstName:   "Alex",
								Surname:     "Example",
								DateOfBirth: "2 Jan 1990",
								Age:         "36",
								Address: model.Address{
									Address1: "1 High Street",
									Address2: "Battersea",
									Postcode: "SW11 2AA",
								},
								Offences: []model.Offence{{
									OffenceCode:    "TH68001",
									OffenceTitle:   "Theft from a shop",
									OffenceWording: "On 01/01/2026 at London stole goods to the value of 10 pounds.",
								}},
							},
							{
								OrganisationName: "Example Trading Ltd",
								Address:          model.Address{Address1: "2 Market Row", Postcode: "SW9 8LB"},
								Offences: []model.Offence{{
									OffenceCode:  "FS12001",
									OffenceTitle: "Fail to comply with food safety regulations",
								}},
							},
						},
					}},
				}},
			}},
		}},
	}}
}

// WithHearing replaces the first hearing.
func (b *CourtListPayloadBuilder) WithHearing(h model.Hearing) *CourtListPayloadBuilder {
	b.p.HearingDates[0].CourtRooms[0].Timeslots[0].Hearings[0] = h
	return b
}

// MutateHearing edits the first hearing in place.
func (b *CourtListPayloadBuilder) MutateHearing(fn func(h *model.Hearing)) *CourtListPayloadBuilder {
	fn(&b.p.HearingDates[0].CourtRooms[0].Timeslots[0].Hearings[0])
	return b
}

// MutateDefendant edits the first defendant of the first hearing in place.
func (b *CourtListPayloadBuilder) MutateDefendant(fn func(d *model.Defendant)) *CourtListPayloadBuilder {
	fn(&b.p.HearingDates[0].CourtRooms[0].Timeslots[0].Hearings[0].Defendants[0])
	return b
}

// WithRoomName sets the name of the first court room.
func (b *CourtListPayloadBuilder) WithRoomName(name string) *CourtListPayloadBuilder {
	b.p.HearingDates[0].CourtRooms[0].CourtRoomName = name
	return b
}

// WithTimeslotStart sets the start time of the first timeslot.
func (b *CourtListPayloadBuilder) WithTimeslotStart(start string) *CourtListPayloadBuilder {
	b.p.HearingDates[0].CourtRooms[0].Timeslots[0].StartTime = start
	return b
}

// WithAddress sets the venue address.
func (b *CourtListPayloadBuilder) WithAddress(a model.Address) *CourtListPayloadBuilder {
	b.p.CourtCentreAddress = a
	return b
}

// Build returns a pointer to a copy of the payload.
func (b *CourtListPayloadBuilder) Build() *model.CourtListPayload {
	p := b.p
	return &p
}
