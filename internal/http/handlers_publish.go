// Package httpx exposes the court list publish API over HTTP.
package httpx

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/target/courtlist-publisher/internal/core"
	"github.com/target/courtlist-publisher/internal/domain/model"
	apperrors "github.com/target/courtlist-publisher/internal/errors"
)

// StatusService is the status record API the handlers need.
type StatusService interface {
	CreateOrUpdate(ctx context.Context, req *model.PublishRequest) (*model.PublishStatusRecord, error)
	GetByCourtListID(ctx context.Context, courtListID string) (*model.PublishStatusRecord, error)
	Find(ctx context.Context, q model.StatusQuery) ([]*model.PublishStatusRecord, error)
}

// JobTrigger hands an accepted request to the executor.
type JobTrigger interface {
	Trigger(ctx context.Context, rec *model.PublishStatusRecord, req *model.PublishRequest) (core.JobHandle, error)
}

// PublishHandlers serves the publish and status endpoints.
type PublishHandlers struct {
	Status  StatusService
	Trigger JobTrigger
	Logger  *slog.Logger
}

// Publish handles POST /publish. The record is returned as soon as the job is submitted;
// clients poll /publish-status for the outcome.
func (h *PublishHandlers) Publish(w http.ResponseWriter, r *http.Request) {
	var req model.PublishRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	rec, err := h.Status.CreateOrUpdate(r.Context(), &req)
	if err != nil {
		WriteServiceError(w, r, h.Logger, err)
		return
	}

	if _, err := h.Trigger.Trigger(r.Context(), rec, &req); err != nil {
		h.logger().ErrorContext(r.Context(), "publish job submission failed",
			"court_list_id", rec.CourtListID,
			"error", err,
		)
		WriteError(w, ErrorParams{Code: http.StatusInternalServerError, ErrCode: "submit_failed", Err: errSubmitFailed})
		return
	}

	WriteJSON(w, http.StatusOK, rec)
}

// FindStatus handles GET /publish-status. A lookup by courtListId that matches nothing is a
// 404; a centre and date lookup returns a possibly empty list.
func (h *PublishHandlers) FindStatus(w http.ResponseWriter, r *http.Request) {
	q, err := statusQueryFromRequest(r)
	if err != nil {
		WriteServiceError(w, r, h.Logger, err)
		return
	}

	recs, err := h.Status.Find(r.Context(), q)
	if err != nil {
		WriteServiceError(w, r, h.Logger, err)
		return
	}
	if q.Mode() == model.StatusQueryByID && len(recs) == 0 {
		WriteError(w, ErrorParams{Code: http.StatusNotFound, ErrCode: "not_found", Err: errStatusNotFound})
		return
	}

	WriteJSON(w, http.StatusOK, recs)
}

// GetStatus handles GET /publish-status/{courtListId}.
func (h *PublishHandlers) GetStatus(w http.ResponseWriter, r *http.Request) {
	rec, err := h.Status.GetByCourtListID(r.Context(), r.PathValue("courtListId"))
	if err != nil {
		WriteServiceError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, rec)
}

func (h *PublishHandlers) logger() *slog.Logger {
	if h.Logger == nil {
		return slog.Default()
	}
	return h.Logger
}

// statusQueryFromRequest accepts courtListType in any case, with '-' or ' ' for '_'.
func statusQueryFromRequest(r *http.Request) (model.StatusQuery, error) {
	values := r.URL.Query()
	q := model.StatusQuery{
		CourtListID:   values.Get("courtListId"),
		CourtCentreID: values.Get("courtCentreId"),
		PublishDate:   values.Get("publishDate"),
	}
	if raw := values.Get("courtListType"); raw != "" {
		t, err := model.ParseCourtListType(raw)
		if err != nil {
			return model.StatusQuery{}, apperrors.ValidationField("courtListType", err.Error())
		}
		q.CourtListType = &t
	}
	return q, nil
}
