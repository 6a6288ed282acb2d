package model

// CourtListPayload is the raw listing data fetched for one court centre and day.
// It is transient and owned by a single pipeline execution.
type CourtListPayload struct {
	CourtCentreID      string       `json:"courtCentreId"`
	CourtCentreName    string       `json:"courtCentreName"`
	WelshCourtCentre   string       `json:"welshCourtCentreName,omitempty"`
	OUCode             string       `json:"ouCode,omitempty"`
	CourtCentreAddress Address      `json:"courtCentreAddress"`
	ListDate           string       `json:"listDate,omitempty"`
	HearingDates       []HearingDay `json:"hearingDates"`
}

// Address is a postal address as supplied by the listing service.
type Address struct {
	Address1 string `json:"address1,omitempty"`
	Address2 string `json:"address2,omitempty"`
	Address3 string `json:"address3,omitempty"`
	Address4 string `json:"address4,omitempty"`
	Address5 string `json:"address5,omitempty"`
	Postcode string `json:"postcode,omitempty"`
}

// Lines returns the non-empty address lines in order, excluding the postcode.
func (a Address) Lines() []string {
	lines := make([]string, 0, 5)
	for _, l := range []string{a.Address1, a.Address2, a.Address3, a.Address4, a.Address5} {
		if l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

// IsZero reports whether the address carries no data.
func (a Address) IsZero() bool {
	return a == Address{}
}

// HearingDay groups court rooms sitting on one date.
type HearingDay struct {
	HearingDate string      `json:"hearingDate"`
	CourtRooms  []CourtRoom `json:"courtRooms"`
}

// CourtRoom is a room sitting on a hearing day.
type CourtRoom struct {
	CourtRoomID   string     `json:"courtRoomId,omitempty"`
	CourtRoomName string     `json:"courtRoomName"`
	Judiciary     string     `json:"judiciaryNames,omitempty"`
	Timeslots     []Timeslot `json:"timeslots"`
}

// Timeslot is a block of hearings with a common start time.
type Timeslot struct {
	StartTime string    `json:"startTime,omitempty"`
	Hearings  []Hearing `json:"hearings"`
}

// Hearing is one listed case hearing.
type Hearing struct {
	ID                         string      `json:"id,omitempty"`
	CaseNumber                 string      `json:"caseNumber"`
	HearingType                string      `json:"hearingType,omitempty"`
	StartTime                  string      `json:"startTime,omitempty"`
	EstimatedDuration          string      `json:"estimatedDuration,omitempty"`
	ReportingRestrictionReason string      `json:"reportingRestrictionReason,omitempty"`
	ProsecutorType             string      `json:"prosecutorType,omitempty"`
	PanelType                  string      `json:"panel,omitempty"`
	Defendants                 []Defendant `json:"defendants"`
}

// Defendant is a party to a hearing: an individual or an organisation.
type Defendant struct {
	ID               string    `json:"id,omitempty"`
	FirstName        string    `json:"firstName,omitempty"`
	Surname          string    `json:"surname,omitempty"`
	OrganisationName string    `json:"organisationName,omitempty"`
	DateOfBirth      string    `json:"dateOfBirth,omitempty"`
	Age              string    `json:"age,omitempty"`
	Nationality      string    `json:"nationality,omitempty"`
	Address          Address   `json:"address"`
	Offences         []Offence `json:"offences"`
}

// IsOrganisation reports whether the defendant is an organisation rather than a person.
func (d Defendant) IsOrganisation() bool {
	return d.OrganisationName != "" && d.FirstName == "" && d.Surname == ""
}

// Offence is a charge listed against a defendant.
type Offence struct {
	OffenceCode    string `json:"offenceCode,omitempty"`
	OffenceTitle   string `json:"offenceTitle,omitempty"`
	OffenceWording string `json:"offenceWording,omitempty"`
	PleaStatus     string `json:"plea,omitempty"`
}

// CourtCentre is the reference-data view of a court centre used for enrichment.
type CourtCentre struct {
	ID        string  `json:"id"`
	Name      string  `json:"oucodeL3Name"`
	WelshName string  `json:"oucodeL3WelshName,omitempty"`
	OUCode    string  `json:"oucode,omitempty"`
	Address   Address `json:"address"`
}
