package core

import (
	"context"
	"errors"
	"time"

	"github.com/target/courtlist-publisher/internal/domain/model"
)

// Ports for the downstream services the publish pipeline talks to.

// CourtListQuery identifies the listing data to fetch.
type CourtListQuery struct {
	CourtCentreID string
	ListType      model.CourtListType
	Date          string
}

// ListingClient fetches raw court list payloads from the listing service.
type ListingClient interface {
	FetchCourtList(ctx context.Context, q CourtListQuery) (*model.CourtListPayload, error)
}

// ReferenceDataClient resolves court centre reference data.
type ReferenceDataClient interface {
	CourtCentre(ctx context.Context, courtCentreID string) (*model.CourtCentre, error)
}

// Publication is a validated document addressed to the publication hub.
type Publication struct {
	CourtListID   string
	CourtCentreID string
	CourtListType model.CourtListType
	ContentDate   string
	Body          []byte
}

// PublicationClient posts documents to the publication hub.
type PublicationClient interface {
	Publish(ctx context.Context, pub Publication) error
}

// RenderRequest asks the document generator for a PDF.
type RenderRequest struct {
	TemplateName string
	Data         []byte
}

// DocumentRenderer renders documents to PDF bytes.
type DocumentRenderer interface {
	Render(ctx context.Context, req RenderRequest) ([]byte, error)
}

// UploadParams describes an object to store.
type UploadParams struct {
	Name        string
	Data        []byte
	ContentType string
}

// ErrBlobNotFound is returned by BlobStore.Download when the object does not exist.
var ErrBlobNotFound = errors.New("blob not found")

// BlobStore stores rendered files and issues time-limited retrieval URLs.
type BlobStore interface {
	Upload(ctx context.Context, params UploadParams) (string, error)
	Download(ctx context.Context, name string) ([]byte, error)
}

// JobHandle identifies a submitted job. It carries no cancellation capability.
type JobHandle struct {
	ID          string
	Backend     string
	SubmittedAt time.Time
}

// JobSubmitter hands a job descriptor to an asynchronous executor and returns immediately.
type JobSubmitter interface {
	Submit(ctx context.Context, job model.PublishJobPayload) (JobHandle, error)
}

// StatusMilestones records pipeline progress on a status record. Each call reports false when
// no record exists for courtListID.
type StatusMilestones interface {
	MarkPublishCompleted(ctx context.Context, courtListID string, branchErr error) (bool, error)
	MarkFileUploaded(ctx context.Context, courtListID, fileURL string) (bool, error)
	RecordFileFailure(ctx context.Context, courtListID string, branchErr error) (bool, error)
}
