package media

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/motorline/media-api/internal/pkg/optimizer"
)

// IngestRequest carries the non-file multipart form fields of an upload
type IngestRequest struct {
	Category     string `json:"category" validate:"required,mediacategory"`
	EntityID     string `json:"entity_id" validate:"omitempty,max=255"`
	AltText      string `json:"alt_text" validate:"omitempty,max=500"`
	Title        string `json:"title" validate:"omitempty,max=255"`
	Description  string `json:"description" validate:"omitempty,max=2000"`
	Tags         string `json:"tags"`
	IsPublic     bool   `json:"is_public"`
	IsFeatured   bool   `json:"is_featured"`
	DisplayOrder int    `json:"display_order"`

	Thumbnails bool   `json:"thumbnails"`
	Formats    string `json:"formats"`
	Watermark  bool   `json:"watermark"`
	AutoTag    bool   `json:"auto_tag"`
}

// ParseIngestRequest reads ingest options from an already-parsed multipart form
func ParseIngestRequest(r *http.Request) IngestRequest {
	req := IngestRequest{
		Category:     r.FormValue("category"),
		EntityID:     r.FormValue("entity_id"),
		AltText:      r.FormValue("alt_text"),
		Title:        r.FormValue("title"),
		Description:  r.FormValue("description"),
		Tags:         r.FormValue("tags"),
		IsPublic:     formBool(r, "is_public", true),
		IsFeatured:   formBool(r, "is_featured", false),
		DisplayOrder: formInt(r, "display_order", 0),
		Thumbnails:   formBool(r, "thumbnails", true),
		Formats:      r.FormValue("formats"),
		Watermark:    formBool(r, "watermark", false),
		AutoTag:      formBool(r, "auto_tag", false),
	}
	return req
}

// Options converts the request into pipeline ingest options
func (req IngestRequest) Options(uploadedBy string) IngestOptions {
	return IngestOptions{
		Category:           Category(req.Category),
		EntityID:           req.EntityID,
		AltText:            req.AltText,
		Title:              req.Title,
		Description:        req.Description,
		Tags:               splitCSV(req.Tags),
		IsPublic:           req.IsPublic,
		IsFeatured:         req.IsFeatured,
		DisplayOrder:       req.DisplayOrder,
		GenerateThumbnails: req.Thumbnails,
		ExtraFormats:       parseFormats(req.Formats),
		ApplyWatermark:     req.Watermark,
		AutoTag:            req.AutoTag,
		UploadedBy:         uploadedBy,
	}
}

// UpdateRequest is the PATCH body. Absent fields stay untouched.
type UpdateRequest struct {
	AltText      *string   `json:"alt_text" validate:"omitempty,max=500"`
	Title        *string   `json:"title" validate:"omitempty,max=255"`
	Description  *string   `json:"description" validate:"omitempty,max=2000"`
	Tags         *[]string `json:"tags"`
	Category     *string   `json:"category" validate:"omitempty,mediacategory"`
	EntityID     *string   `json:"entity_id" validate:"omitempty,max=255"`
	IsPublic     *bool     `json:"is_public"`
	IsFeatured   *bool     `json:"is_featured"`
	DisplayOrder *int      `json:"display_order"`
}

// Fields converts the request into service update fields
func (req UpdateRequest) Fields() UpdateFields {
	fields := UpdateFields{
		AltText:      req.AltText,
		Title:        req.Title,
		Description:  req.Description,
		EntityID:     req.EntityID,
		IsPublic:     req.IsPublic,
		IsFeatured:   req.IsFeatured,
		DisplayOrder: req.DisplayOrder,
	}
	if req.Tags != nil {
		fields.Tags = *req.Tags
		if fields.Tags == nil {
			fields.Tags = []string{}
		}
	}
	if req.Category != nil {
		c := Category(*req.Category)
		fields.Category = &c
	}
	return fields
}

// ParseFilter reads listing filters from query parameters
func ParseFilter(r *http.Request) *Filter {
	q := r.URL.Query()
	filter := &Filter{}

	if v := q.Get("category"); v != "" {
		c := Category(v)
		filter.Category = &c
	}
	if v := q.Get("entity_id"); v != "" {
		filter.EntityID = &v
	}
	if v := q.Get("mime"); v != "" {
		filter.MimePrefix = &v
	}
	if v := q.Get("is_public"); v != "" {
		b := v == "true" || v == "1"
		filter.IsPublic = &b
	}
	if v := q.Get("is_featured"); v != "" {
		b := v == "true" || v == "1"
		filter.IsFeatured = &b
	}
	if v := q.Get("uploaded_by"); v != "" {
		filter.UploadedBy = &v
	}
	if v := q.Get("search"); v != "" {
		filter.Search = &v
	}
	if t, ok := parseTime(q.Get("from")); ok {
		filter.From = &t
	}
	if t, ok := parseTime(q.Get("to")); ok {
		filter.To = &t
	}
	return filter
}

func parseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseSort reads sort key and direction from query parameters
func ParseSort(r *http.Request) Sort {
	q := r.URL.Query()
	return Sort{
		Key:  q.Get("sort"),
		Desc: q.Get("order") != "asc",
	}
}

// ParsePage reads offset/limit pagination, capped at 100 per page
func ParsePage(r *http.Request) Page {
	q := r.URL.Query()
	page := Page{Limit: 20}
	if v, err := strconv.Atoi(q.Get("offset")); err == nil && v >= 0 {
		page.Offset = v
	}
	if v, err := strconv.Atoi(q.Get("limit")); err == nil && v > 0 {
		page.Limit = v
	}
	if page.Limit > 100 {
		page.Limit = 100
	}
	return page
}

func formBool(r *http.Request, key string, def bool) bool {
	v := r.FormValue(key)
	if v == "" {
		return def
	}
	return v == "true" || v == "1"
}

func formInt(r *http.Request, key string, def int) int {
	v, err := strconv.Atoi(r.FormValue(key))
	if err != nil {
		return def
	}
	return v
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseFormats(s string) []optimizer.Format {
	var formats []optimizer.Format
	for _, name := range splitCSV(s) {
		f := optimizer.Format(strings.ToLower(name))
		if f.Valid() {
			formats = append(formats, f)
		}
	}
	return formats
}
