package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/target/courtlist-publisher/internal/core"
	"github.com/target/courtlist-publisher/internal/data"
	"github.com/target/courtlist-publisher/internal/domain/model"
	apperrors "github.com/target/courtlist-publisher/internal/errors"
)

// maxErrorMessageRunes bounds branch error text stored on a status record.
const maxErrorMessageRunes = 2000

// PublishStatusServiceOptions groups dependencies for PublishStatusService.
type PublishStatusServiceOptions struct {
	Repo         core.PublishStatusRepository // Required: status store
	Cache        core.CacheRepository         // Optional: write-through status cache
	CacheTTL     time.Duration                // Optional: defaults to core.DefaultStatusCacheTTL
	TimeProvider data.TimeProvider            // Optional: defaults to wall clock
	Logger       *slog.Logger                 // Optional: structured logger
}

// PublishStatusService owns the status record state machine. It is the only writer of
// court_list_publish_status rows.
type PublishStatusService struct {
	repo   core.PublishStatusRepository
	cache  *core.StatusCache
	clock  data.TimeProvider
	logger *slog.Logger
}

// NewPublishStatusService constructs a new PublishStatusService.
func NewPublishStatusService(opts PublishStatusServiceOptions) (*PublishStatusService, error) {
	if opts.Repo == nil {
		return nil, errors.New("PublishStatusRepository is required")
	}
	clock := opts.TimeProvider
	if clock == nil {
		clock = &data.RealTimeProvider{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &PublishStatusService{
		repo:   opts.Repo,
		cache:  core.NewStatusCache(opts.Cache, opts.CacheTTL),
		clock:  clock,
		logger: logger.With("component", "publish_status_service"),
	}, nil
}

// MustNewPublishStatusService constructs a new PublishStatusService and panics on error.
func MustNewPublishStatusService(opts PublishStatusServiceOptions) *PublishStatusService {
	svc, err := NewPublishStatusService(opts)
	if err != nil {
		//nolint:forbidigo // Must constructor fails fast when dependencies are invalid during startup
		panic(fmt.Sprintf("failed to create PublishStatusService: %v", err))
	}
	return svc
}

// CreateOrUpdate starts a publish cycle for the request's natural key. An existing record keeps
// its courtListId and is reset to REQUESTED; otherwise a new record is created.
func (s *PublishStatusService) CreateOrUpdate(
	ctx context.Context,
	req *model.PublishRequest,
) (*model.PublishStatusRecord, error) {
	if err := req.Validate(); err != nil {
		return nil, validationError(err)
	}

	rec, inserted, err := s.repo.Upsert(ctx, model.UpsertPublishStatusParams{
		NewID:         uuid.NewString(),
		CourtCentreID: req.CourtCentreID,
		PublishDate:   req.StartDate,
		CourtListType: req.CourtListType,
		Now:           s.clock.Now(),
	})
	if err != nil {
		return nil, s.storeError(err, "create or update publish status")
	}

	s.writeThrough(ctx, rec.CourtListID, rec)
	s.logger.InfoContext(ctx, "publish status requested",
		"court_list_id", rec.CourtListID,
		"court_centre_id", rec.CourtCentreID,
		"court_list_type", rec.CourtListType,
		"publish_date", rec.PublishDate,
		"inserted", inserted,
	)
	return rec, nil
}

// GetByCourtListID returns one record, reading through the cache when one is configured.
func (s *PublishStatusService) GetByCourtListID(ctx context.Context, courtListID string) (*model.PublishStatusRecord, error) {
	id, err := parseCourtListID(courtListID)
	if err != nil {
		return nil, err
	}

	if cached, cerr := s.cache.Get(ctx, id); cerr != nil {
		s.logger.WarnContext(ctx, "status cache read failed", "court_list_id", id, "error", cerr)
	} else if cached != nil {
		return cached, nil
	}

	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if data.IsNotFound(err) {
			return nil, apperrors.NotFoundf("court list %s not found", id)
		}
		return nil, s.storeError(err, "get publish status")
	}

	// A milestone may have landed since the row was read; the versioned put keeps its record.
	if stored, perr := s.cache.Put(ctx, rec); perr != nil {
		s.logger.WarnContext(ctx, "status cache write failed", "court_list_id", id, "error", perr)
	} else if !stored {
		s.logger.DebugContext(ctx, "status cache kept newer record", "court_list_id", id)
	}
	return rec, nil
}

// Find looks records up by courtListId, or by court centre and publish date optionally
// narrowed by list type. A by-id lookup that matches nothing returns an empty slice.
func (s *PublishStatusService) Find(ctx context.Context, q model.StatusQuery) ([]*model.PublishStatusRecord, error) {
	switch q.Mode() {
	case model.StatusQueryByID:
		rec, err := s.GetByCourtListID(ctx, q.CourtListID)
		if apperrors.IsNotFound(err) {
			return []*model.PublishStatusRecord{}, nil
		}
		if err != nil {
			return nil, err
		}
		return []*model.PublishStatusRecord{rec}, nil

	case model.StatusQueryByCentreAndDate:
		date := strings.TrimSpace(q.PublishDate)
		if _, err := time.Parse(model.PublishDateLayout, date); err != nil {
			return nil, apperrors.ValidationField("publishDate", "must be a date in YYYY-MM-DD format")
		}
		if q.CourtListType != nil && !q.CourtListType.Valid() {
			return nil, apperrors.ValidationField("courtListType", fmt.Sprintf("unsupported court list type %q", *q.CourtListType))
		}
		recs, err := s.repo.FindByCentreAndDate(ctx, core.FindByCentreAndDateParams{
			CourtCentreID: strings.TrimSpace(q.CourtCentreID),
			PublishDate:   date,
			CourtListType: q.CourtListType,
		})
		if err != nil {
			return nil, s.storeError(err, "find publish status")
		}
		return recs, nil

	default:
		return nil, apperrors.Validation("either courtListId or both courtCentreId and publishDate are required")
	}
}

// MarkPublishCompleted closes the publish dimension. The hub call is best effort, so the
// status becomes SUCCESSFUL whatever branchErr says; branchErr is kept as the error message.
func (s *PublishStatusService) MarkPublishCompleted(ctx context.Context, courtListID string, branchErr error) (bool, error) {
	var msg *string
	if branchErr != nil {
		m := errorMessage(branchErr)
		msg = &m
	}
	rec, err := s.repo.MarkPublishCompleted(ctx, core.MarkPublishParams{
		CourtListID:  courtListID,
		ErrorMessage: msg,
		Now:          s.clock.Now(),
	})
	return s.afterMilestone(ctx, courtListID, "publish completed", rec, err)
}

// MarkFileUploaded records the uploaded PDF and its retrieval URL.
func (s *PublishStatusService) MarkFileUploaded(ctx context.Context, courtListID, fileURL string) (bool, error) {
	rec, err := s.repo.MarkFileUploaded(ctx, core.MarkFileParams{
		CourtListID: courtListID,
		FileURL:     fileURL,
		Now:         s.clock.Now(),
	})
	return s.afterMilestone(ctx, courtListID, "file uploaded", rec, err)
}

// RecordFileFailure stores the PDF branch error. fileStatus keeps its prior value.
func (s *PublishStatusService) RecordFileFailure(ctx context.Context, courtListID string, branchErr error) (bool, error) {
	if branchErr == nil {
		return false, errors.New("file failure requires an error")
	}
	rec, err := s.repo.RecordFileError(ctx, core.RecordFileErrorParams{
		CourtListID:  courtListID,
		ErrorMessage: errorMessage(branchErr),
		Now:          s.clock.Now(),
	})
	return s.afterMilestone(ctx, courtListID, "file failure recorded", rec, err)
}

// WaitForTerminal polls the record every interval until publishStatus is terminal.
// When ctx ends first the last observed record is returned with ctx's error; the pipeline is
// unaffected.
func (s *PublishStatusService) WaitForTerminal(
	ctx context.Context,
	courtListID string,
	interval time.Duration,
) (*model.PublishStatusRecord, error) {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var last *model.PublishStatusRecord
	for {
		rec, err := s.GetByCourtListID(ctx, courtListID)
		switch {
		case err == nil:
			last = rec
			if rec.PublishStatus.Terminal() {
				return rec, nil
			}
		case ctx.Err() != nil:
		default:
			return last, err
		}

		select {
		case <-ctx.Done():
			return last, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (s *PublishStatusService) afterMilestone(
	ctx context.Context,
	courtListID, milestone string,
	rec *model.PublishStatusRecord,
	err error,
) (bool, error) {
	if err != nil {
		return false, s.storeError(err, milestone)
	}
	if rec == nil {
		s.logger.WarnContext(ctx, "status milestone skipped, record missing",
			"court_list_id", courtListID, "milestone", milestone)
		return false, nil
	}
	s.writeThrough(ctx, courtListID, rec)
	s.logger.DebugContext(ctx, "status milestone recorded", "court_list_id", courtListID, "milestone", milestone)
	return true, nil
}

// writeThrough caches the row a write returned. When that fails the entry is dropped instead,
// so readers fall back to the store rather than an older cached record.
func (s *PublishStatusService) writeThrough(ctx context.Context, courtListID string, rec *model.PublishStatusRecord) {
	_, err := s.cache.Put(ctx, rec)
	if err == nil {
		return
	}
	s.logger.WarnContext(ctx, "status cache write failed", "court_list_id", courtListID, "error", err)
	if err := s.cache.Invalidate(ctx, courtListID); err != nil {
		s.logger.WarnContext(ctx, "status cache invalidation failed", "court_list_id", courtListID, "error", err)
	}
}

func (s *PublishStatusService) storeError(err error, op string) error {
	if errors.Is(err, data.ErrStatusConflict) {
		return apperrors.Wrap(err, apperrors.ErrCodeConflict, "concurrent publish requests did not converge")
	}
	if mapped := apperrors.MapDBError(err); apperrors.GetCode(mapped) != "" {
		return mapped
	}
	return fmt.Errorf("%s: %w", op, err)
}

func parseCourtListID(raw string) (string, error) {
	id := strings.TrimSpace(raw)
	if id == "" {
		return "", apperrors.ValidationField("courtListId", "is required")
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", apperrors.ValidationField("courtListId", "must be a UUID")
	}
	return parsed.String(), nil
}

func validationError(err error) error {
	var fe *model.FieldError
	if errors.As(err, &fe) {
		return apperrors.ValidationField(fe.Field, fe.Error())
	}
	return apperrors.Wrap(err, apperrors.ErrCodeValidation, "invalid publish request")
}

func errorMessage(err error) string {
	msg := err.Error()
	if utf8.RuneCountInString(msg) <= maxErrorMessageRunes {
		return msg
	}
	return string([]rune(msg)[:maxErrorMessageRunes])
}
