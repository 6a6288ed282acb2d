package model

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// PublishDateLayout is the wire and storage layout of a publish date.
const PublishDateLayout = "2006-01-02"

// PublishStatusRecord tracks the publish and file lifecycle of one court list.
type PublishStatusRecord struct {
	CourtListID         string        `json:"courtListId"                   db:"court_list_id"`
	CourtCentreID       string        `json:"courtCentreId"                 db:"court_centre_id"`
	PublishDate         string        `json:"publishDate"                   db:"publish_date"`
	CourtListType       CourtListType `json:"courtListType"                 db:"court_list_type"`
	PublishStatus       Status        `json:"publishStatus"                 db:"publish_status"`
	FileStatus          Status        `json:"fileStatus"                    db:"file_status"`
	FileID              *string       `json:"fileId"                        db:"court_list_file_id"`
	FileURL             *string       `json:"fileUrl"                       db:"file_url"`
	PublishErrorMessage *string       `json:"publishErrorMessage,omitempty" db:"publish_error_message"`
	FileErrorMessage    *string       `json:"fileErrorMessage,omitempty"    db:"file_error_message"`
	LastUpdated         time.Time     `json:"lastUpdated"                   db:"last_updated"`
}

// NaturalKey identifies a record by its business identity.
type NaturalKey struct {
	CourtCentreID string
	PublishDate   string
	CourtListType CourtListType
}

// Key returns the natural key of the record.
func (r *PublishStatusRecord) Key() NaturalKey {
	return NaturalKey{
		CourtCentreID: r.CourtCentreID,
		PublishDate:   r.PublishDate,
		CourtListType: r.CourtListType,
	}
}

// HasFile reports whether a rendered file has been uploaded for the record.
func (r *PublishStatusRecord) HasFile() bool {
	return r.FileStatus == StatusSuccessful && r.FileID != nil && *r.FileID != ""
}

// PublishRequest is the client request that starts a publish cycle.
type PublishRequest struct {
	CourtCentreID     string        `json:"courtCentreId"               validate:"required"`
	StartDate         string        `json:"startDate"                   validate:"required,datetime=2006-01-02"`
	EndDate           string        `json:"endDate"                     validate:"required,datetime=2006-01-02,eqfield=StartDate"`
	CourtListType     CourtListType `json:"courtListType"               validate:"required"`
	MakeExternalCalls *bool         `json:"makeExternalCalls,omitempty"`
}

// FieldError describes a single invalid request field.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Message
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func requestValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// Validate checks required fields, date formats, single-day range and list type.
// The first violation is returned as a *FieldError.
func (r *PublishRequest) Validate() error {
	if r == nil {
		return &FieldError{Field: "body", Message: "request is required"}
	}
	r.CourtCentreID = strings.TrimSpace(r.CourtCentreID)
	r.StartDate = strings.TrimSpace(r.StartDate)
	r.EndDate = strings.TrimSpace(r.EndDate)

	if err := requestValidator().Struct(r); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fieldErrorFrom(verrs[0])
		}
		return err
	}
	if !r.CourtListType.Valid() {
		return &FieldError{Field: "courtListType", Message: fmt.Sprintf("unsupported court list type %q", r.CourtListType)}
	}
	return nil
}

func fieldErrorFrom(fe validator.FieldError) *FieldError {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return &FieldError{Field: field, Message: "is required"}
	case "datetime":
		return &FieldError{Field: field, Message: "must be a date in YYYY-MM-DD format"}
	case "eqfield":
		return &FieldError{Field: field, Message: "must equal startDate; a publish targets a single day"}
	default:
		return &FieldError{Field: field, Message: "failed " + fe.Tag() + " validation"}
	}
}

// ExternalCalls resolves the optional makeExternalCalls flag against a default.
func (r *PublishRequest) ExternalCalls(def bool) bool {
	if r == nil || r.MakeExternalCalls == nil {
		return def
	}
	return *r.MakeExternalCalls
}

// UpsertPublishStatusParams carries the values used by an idempotent upsert.
type UpsertPublishStatusParams struct {
	NewID         string
	CourtCentreID string
	PublishDate   string
	CourtListType CourtListType
	Now           time.Time
}

// StatusQueryMode identifies which lookup a StatusQuery performs.
type StatusQueryMode int

const (
	// StatusQueryInvalid means neither lookup precondition holds.
	StatusQueryInvalid StatusQueryMode = iota
	// StatusQueryByID looks up a single record by courtListId.
	StatusQueryByID
	// StatusQueryByCentreAndDate lists records for a centre and publish date.
	StatusQueryByCentreAndDate
)

// StatusQuery holds the optional filters accepted by findPublishStatus.
type StatusQuery struct {
	CourtListID   string
	CourtCentreID string
	PublishDate   string
	CourtListType *CourtListType
}

// Mode returns the lookup implied by the populated filters. courtListId takes precedence.
func (q StatusQuery) Mode() StatusQueryMode {
	switch {
	case strings.TrimSpace(q.CourtListID) != "":
		return StatusQueryByID
	case strings.TrimSpace(q.CourtCentreID) != "" && strings.TrimSpace(q.PublishDate) != "":
		return StatusQueryByCentreAndDate
	default:
		return StatusQueryInvalid
	}
}

// PublishJobPayload is the job descriptor consumed by the publish pipeline.
type PublishJobPayload struct {
	CourtListID       string        `json:"courtListId"`
	CourtCentreID     string        `json:"courtCentreId"`
	CourtListType     CourtListType `json:"courtListType"`
	PublishDate       string        `json:"publishDate"`
	MakeExternalCalls bool          `json:"makeExternalCalls"`
	RequestedBy       string        `json:"requestedBy,omitempty"`
}

// ParsedCourtListID returns the job's courtListId as a UUID.
func (p PublishJobPayload) ParsedCourtListID() (uuid.UUID, error) {
	id := strings.TrimSpace(p.CourtListID)
	if id == "" {
		return uuid.Nil, errors.New("courtListId is required")
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("courtListId is malformed: %w", err)
	}
	return parsed, nil
}
