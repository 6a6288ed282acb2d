package httpx

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/target/courtlist-publisher/internal/core"
	apperrors "github.com/target/courtlist-publisher/internal/errors"
	"github.com/target/courtlist-publisher/internal/pipeline"
)

var (
	errSubmitFailed   = errors.New("publish job could not be submitted")
	errStatusNotFound = errors.New("no publish status for courtListId")
	errFileNotFound   = errors.New("no file has been uploaded for this court list")
)

// FileDownloader reads stored files by blob name.
type FileDownloader interface {
	Download(ctx context.Context, name string) ([]byte, error)
}

// FileHandlers serves rendered court list PDFs.
type FileHandlers struct {
	Status StatusService
	Files  FileDownloader
	Logger *slog.Logger
}

// Download handles GET /files/download/{courtListId}. It answers 404 until the file branch has
// uploaded a PDF for the record.
func (h *FileHandlers) Download(w http.ResponseWriter, r *http.Request) {
	rec, err := h.Status.GetByCourtListID(r.Context(), r.PathValue("courtListId"))
	switch {
	case apperrors.IsNotFound(err):
		WriteError(w, ErrorParams{Code: http.StatusNotFound, ErrCode: "not_found", Err: errFileNotFound})
		return
	case err != nil:
		WriteServiceError(w, r, h.Logger, err)
		return
	case !rec.HasFile():
		WriteError(w, ErrorParams{Code: http.StatusNotFound, ErrCode: "not_found", Err: errFileNotFound})
		return
	}

	name := pipeline.FileName(*rec.FileID)
	data, err := h.Files.Download(r.Context(), name)
	if errors.Is(err, core.ErrBlobNotFound) {
		WriteError(w, ErrorParams{Code: http.StatusNotFound, ErrCode: "not_found", Err: errFileNotFound})
		return
	}
	if err != nil {
		WriteServiceError(w, r, h.Logger, fmt.Errorf("download %s: %w", name, err))
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", rec.CourtListID+".pdf"))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
