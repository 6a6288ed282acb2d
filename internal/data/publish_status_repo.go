package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/target/courtlist-publisher/internal/core"
	"github.com/target/courtlist-publisher/internal/data/pgxutil"
	"github.com/target/courtlist-publisher/internal/domain/model"
)

// ErrPublishStatusNotFound is returned when no record matches a courtListId.
var ErrPublishStatusNotFound = errors.New("publish status not found")

// PublishStatusRepo persists court list status records in Postgres.
type PublishStatusRepo struct {
	DB *sql.DB
}

// NewPublishStatusRepo creates a new PublishStatusRepo.
func NewPublishStatusRepo(db *sql.DB) *PublishStatusRepo {
	return &PublishStatusRepo{DB: db}
}

const publishStatusColumns = `
  court_list_id::text AS court_list_id,
  court_centre_id,
  publish_date::text AS publish_date,
  court_list_type,
  publish_status,
  file_status,
  court_list_file_id::text AS court_list_file_id,
  file_url,
  publish_error_message,
  file_error_message,
  last_updated
`

// upsertPublishStatusSQL converges concurrent requests for one natural key on a single row.
// xmax = 0 only for a freshly inserted tuple.
const upsertPublishStatusSQL = `
  INSERT INTO court_list_publish_status AS s (
    court_list_id, court_centre_id, publish_date, court_list_type,
    publish_status, file_status, last_updated
  )
  VALUES ($1, $2, $3::date, $4, 'REQUESTED', 'REQUESTED', $5)
  ON CONFLICT (court_centre_id, publish_date, court_list_type) DO UPDATE
  SET publish_status = 'REQUESTED',
      publish_error_message = NULL,
      last_updated = GREATEST(s.last_updated + interval '1 microsecond', EXCLUDED.last_updated)
  RETURNING ` + publishStatusColumns + `, (xmax = 0) AS inserted`

// Upsert creates the record for the natural key, or resets an existing one for a new publish cycle.
func (r *PublishStatusRepo) Upsert(
	ctx context.Context,
	params model.UpsertPublishStatusParams,
) (*model.PublishStatusRecord, bool, error) {
	if strings.TrimSpace(params.NewID) == "" {
		return nil, false, errors.New("new court list id is required")
	}
	if !params.CourtListType.Valid() {
		return nil, false, fmt.Errorf("invalid court list type: %s", params.CourtListType)
	}

	now := params.Now
	if now.IsZero() {
		now = time.Now()
	}

	var (
		rec      *model.PublishStatusRecord
		inserted bool
	)
	err := pgxutil.RetryOnConflict(ctx, pgxutil.DefaultRetryPolicy, func() error {
		row := r.DB.QueryRowContext(ctx, upsertPublishStatusSQL,
			params.NewID,
			params.CourtCentreID,
			params.PublishDate,
			string(params.CourtListType),
			now.UTC(),
		)
		next := &model.PublishStatusRecord{}
		if err := scanPublishStatus(row, next, &inserted); err != nil {
			return err
		}
		rec = next
		return nil
	})
	if err != nil {
		if pgxutil.IsRetryable(err) {
			return nil, false, fmt.Errorf("upsert publish status: %w: %w", ErrStatusConflict, err)
		}
		return nil, false, fmt.Errorf("upsert publish status: %w", err)
	}
	return rec, inserted, nil
}

// GetByID returns the record for courtListId or ErrPublishStatusNotFound.
func (r *PublishStatusRepo) GetByID(ctx context.Context, courtListID string) (*model.PublishStatusRecord, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT `+publishStatusColumns+`
		FROM court_list_publish_status
		WHERE court_list_id = $1
	`, courtListID)

	rec := &model.PublishStatusRecord{}
	if err := scanPublishStatus(row, rec, nil); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPublishStatusNotFound
		}
		return nil, fmt.Errorf("get publish status: %w", err)
	}
	return rec, nil
}

// FindByCentreAndDate lists records for a centre and date, newest first, optionally narrowed by type.
func (r *PublishStatusRepo) FindByCentreAndDate(
	ctx context.Context,
	params core.FindByCentreAndDateParams,
) ([]*model.PublishStatusRecord, error) {
	query := `
		SELECT ` + publishStatusColumns + `
		FROM court_list_publish_status
		WHERE court_centre_id = $1 AND publish_date = $2::date`
	args := []any{params.CourtCentreID, params.PublishDate}
	if params.CourtListType != nil {
		query += ` AND court_list_type = $3`
		args = append(args, string(*params.CourtListType))
	}
	query += `
		ORDER BY last_updated DESC, court_list_id`

	var result []*model.PublishStatusRecord
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("query publish status: %w", err)
		}
		defer rows.Close()

		vals, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[model.PublishStatusRecord])
		if err != nil {
			return fmt.Errorf("collect publish status: %w", err)
		}
		result = vals
		return nil
	}); err != nil {
		return nil, err
	}
	if result == nil {
		result = []*model.PublishStatusRecord{}
	}
	return result, nil
}

// MarkPublishCompleted flips publish_status to SUCCESSFUL and records the branch error, if any.
// It returns the updated row, or nil when courtListId is unknown.
func (r *PublishStatusRepo) MarkPublishCompleted(
	ctx context.Context,
	params core.MarkPublishParams,
) (*model.PublishStatusRecord, error) {
	return r.updateMilestone(ctx, "mark publish completed", `
		UPDATE court_list_publish_status
		SET publish_status = 'SUCCESSFUL',
		    publish_error_message = $2,
		    last_updated = `+bumpLastUpdated+`
		WHERE court_list_id = $1
		RETURNING `+publishStatusColumns,
		params.CourtListID, nullableString(params.ErrorMessage), milestoneTime(params.Now))
}

// MarkFileUploaded records the uploaded file; file id always equals the court list id.
func (r *PublishStatusRepo) MarkFileUploaded(
	ctx context.Context,
	params core.MarkFileParams,
) (*model.PublishStatusRecord, error) {
	return r.updateMilestone(ctx, "mark file uploaded", `
		UPDATE court_list_publish_status
		SET court_list_file_id = court_list_id,
		    file_url = $2,
		    file_status = 'SUCCESSFUL',
		    file_error_message = NULL,
		    last_updated = `+bumpLastUpdated+`
		WHERE court_list_id = $1
		RETURNING `+publishStatusColumns,
		params.CourtListID, params.FileURL, milestoneTime(params.Now))
}

// RecordFileError stores the PDF branch failure. file_status is left as it was.
func (r *PublishStatusRepo) RecordFileError(
	ctx context.Context,
	params core.RecordFileErrorParams,
) (*model.PublishStatusRecord, error) {
	return r.updateMilestone(ctx, "record file error", `
		UPDATE court_list_publish_status
		SET file_error_message = $2,
		    last_updated = `+bumpLastUpdated+`
		WHERE court_list_id = $1
		RETURNING `+publishStatusColumns,
		params.CourtListID, params.ErrorMessage, milestoneTime(params.Now))
}

// bumpLastUpdated moves last_updated strictly forward on every write, so each row version
// carries a distinct timestamp that caches can order by.
const bumpLastUpdated = `GREATEST(last_updated + interval '1 microsecond', $3)`

func (r *PublishStatusRepo) updateMilestone(
	ctx context.Context,
	op, query string,
	args ...any,
) (*model.PublishStatusRecord, error) {
	rec := &model.PublishStatusRecord{}
	if err := scanPublishStatus(r.DB.QueryRowContext(ctx, query, args...), rec, nil); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return rec, nil
}

type publishStatusScanner interface {
	Scan(dest ...any) error
}

func scanPublishStatus(s publishStatusScanner, rec *model.PublishStatusRecord, inserted *bool) error {
	var fileID, fileURL, publishErr, fileErr sql.NullString
	dest := []any{
		&rec.CourtListID,
		&rec.CourtCentreID,
		&rec.PublishDate,
		&rec.CourtListType,
		&rec.PublishStatus,
		&rec.FileStatus,
		&fileID,
		&fileURL,
		&publishErr,
		&fileErr,
		&rec.LastUpdated,
	}
	if inserted != nil {
		dest = append(dest, inserted)
	}
	if err := s.Scan(dest...); err != nil {
		return err
	}
	rec.FileID = cloneNullableString(fileID)
	rec.FileURL = cloneNullableString(fileURL)
	rec.PublishErrorMessage = cloneNullableString(publishErr)
	rec.FileErrorMessage = cloneNullableString(fileErr)
	rec.LastUpdated = rec.LastUpdated.UTC()
	return nil
}

func nullableString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func milestoneTime(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t.UTC()
}
