package media

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/motorline/media-api/internal/middleware"
	"github.com/motorline/media-api/internal/pkg/response"
	"github.com/motorline/media-api/internal/pkg/validator"
)

// MaxUploadMemory bounds multipart parsing; larger parts spill to disk
const MaxUploadMemory = 32 * 1024 * 1024

var errUploadTooLarge = errors.New("file exceeds maximum size")

// Handler handles media HTTP requests
type Handler struct {
	service     *Service
	maxFileSize int64
}

// NewHandler creates media handler
func NewHandler(service *Service, maxFileSize int64) *Handler {
	return &Handler{service: service, maxFileSize: maxFileSize}
}

// Ingest handles POST /media
// Multipart form: file + option fields
func (h *Handler) Ingest(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(MaxUploadMemory); err != nil {
		response.BadRequest(w, "Invalid multipart form")
		return
	}

	req := ParseIngestRequest(r)
	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		response.BadRequest(w, "No file provided")
		return
	}
	defer file.Close()

	upload, err := readUpload(header, file, h.maxFileSize)
	if err != nil {
		if errors.Is(err, errUploadTooLarge) {
			response.Error(w, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "File exceeds maximum size")
		} else {
			response.BadRequest(w, "Failed to read uploaded file")
		}
		return
	}

	asset, err := h.service.Ingest(r.Context(), upload, req.Options(middleware.GetActorID(r.Context())))
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.Created(w, asset)
}

// IngestBatch handles POST /media/batch
// Multipart form: files + shared option fields
func (h *Handler) IngestBatch(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(MaxUploadMemory); err != nil {
		response.BadRequest(w, "Invalid multipart form")
		return
	}

	req := ParseIngestRequest(r)
	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	if r.MultipartForm == nil || len(r.MultipartForm.File["files"]) == 0 {
		response.BadRequest(w, "No files provided")
		return
	}

	var files []File
	for _, header := range r.MultipartForm.File["files"] {
		part, err := header.Open()
		if err != nil {
			continue
		}
		upload, err := readUpload(header, part, h.maxFileSize)
		part.Close()
		if err != nil {
			continue // oversized files are skipped, matching batch semantics
		}
		files = append(files, upload)
	}

	assets := h.service.IngestBatch(r.Context(), files, req.Options(middleware.GetActorID(r.Context())))

	response.Created(w, map[string]interface{}{
		"assets":    assets,
		"ingested":  len(assets),
		"submitted": len(r.MultipartForm.File["files"]),
	})
}

// List handles GET /media
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page := ParsePage(r)

	result, err := h.service.Query(r.Context(), ParseFilter(r), ParseSort(r), page)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.WithMeta(w, result.Assets, response.Meta{
		Total:   result.Total,
		Offset:  page.Offset,
		Limit:   page.Limit,
		HasMore: result.HasMore,
	})
}

// GetByID handles GET /media/{id}
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	asset, err := h.service.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.OK(w, asset)
}

// Update handles PATCH /media/{id}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	asset, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), req.Fields())
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.OK(w, asset)
}

// Delete handles DELETE /media/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, err)
		return
	}

	response.NoContent(w)
}

// Stats handles GET /media/stats
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, stats)
}

// Reoptimize handles POST /media/{id}/reoptimize
func (h *Handler) Reoptimize(w http.ResponseWriter, r *http.Request) {
	asset, err := h.service.Reoptimize(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.OK(w, asset)
}

// BulkReoptimize handles POST /media/reoptimize
func (h *Handler) BulkReoptimize(w http.ResponseWriter, r *http.Request) {
	var category *Category
	if v := r.URL.Query().Get("category"); v != "" {
		c := Category(v)
		if !c.Valid() {
			response.BadRequest(w, "Invalid category")
			return
		}
		category = &c
	}

	count, err := h.service.BulkReoptimize(r.Context(), category)
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, map[string]int{"reoptimized": count})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrAssetNotFound):
		response.NotFound(w, "Media asset not found")
	case errors.Is(err, ErrInvalidFile):
		response.BadRequest(w, "File is empty, too large, or not an allowed image type")
	case errors.Is(err, ErrInvalidCategory):
		response.BadRequest(w, "Invalid category")
	case errors.Is(err, ErrQuotaExceeded):
		response.Error(w, http.StatusInsufficientStorage, "QUOTA_EXCEEDED", "Storage quota exceeded")
	case errors.Is(err, ErrOriginalMissing):
		response.Conflict(w, "Original file is missing from storage")
	default:
		response.InternalError(w)
	}
}

// readUpload buffers one multipart file, enforcing the size ceiling while reading
func readUpload(header *multipart.FileHeader, file multipart.File, maxSize int64) (File, error) {
	data, err := io.ReadAll(io.LimitReader(file, maxSize+1))
	if err != nil {
		return File{}, fmt.Errorf("read upload %s: %w", header.Filename, err)
	}
	if int64(len(data)) > maxSize {
		return File{}, errUploadTooLarge
	}
	return File{
		Name:     header.Filename,
		MimeType: header.Header.Get("Content-Type"),
		Size:     int64(len(data)),
		Data:     data,
	}, nil
}
