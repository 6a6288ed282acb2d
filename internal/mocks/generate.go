// Package mocks provides gomock implementations of the core ports.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	repo := mocks.NewMockPublishStatusRepository(ctrl)
//	repo.EXPECT().GetByID(gomock.Any(), id).Return(rec, nil)
package mocks

//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=publish_status_repository_mock.go github.com/target/courtlist-publisher/internal/core PublishStatusRepository
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=job_repository_mock.go github.com/target/courtlist-publisher/internal/core JobRepository
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=reaper_repository_mock.go github.com/target/courtlist-publisher/internal/core ReaperRepository
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=cache_repository_mock.go github.com/target/courtlist-publisher/internal/core CacheRepository

// Downstream collaborators.
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=listing_client_mock.go github.com/target/courtlist-publisher/internal/core ListingClient
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=reference_data_client_mock.go github.com/target/courtlist-publisher/internal/core ReferenceDataClient
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=publication_client_mock.go github.com/target/courtlist-publisher/internal/core PublicationClient
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=document_renderer_mock.go github.com/target/courtlist-publisher/internal/core DocumentRenderer
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=blob_store_mock.go github.com/target/courtlist-publisher/internal/core BlobStore
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=job_submitter_mock.go github.com/target/courtlist-publisher/internal/core JobSubmitter
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=status_milestones_mock.go github.com/target/courtlist-publisher/internal/core StatusMilestones
