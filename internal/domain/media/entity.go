package media

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// Category classifies an asset within the dealership site
type Category string

const (
	CategoryVehicle     Category = "vehicle"
	CategoryService     Category = "service"
	CategoryBlog        Category = "blog"
	CategoryTestimonial Category = "testimonial"
	CategoryBanner      Category = "banner"
	CategoryGallery     Category = "gallery"
	CategoryOther       Category = "other"
)

// Categories lists every valid category
var Categories = []Category{
	CategoryVehicle,
	CategoryService,
	CategoryBlog,
	CategoryTestimonial,
	CategoryBanner,
	CategoryGallery,
	CategoryOther,
}

// Valid reports whether c is a known category
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// VariantPurpose tags what a derived variant is for
type VariantPurpose string

const (
	PurposeThumbnail VariantPurpose = "thumbnail"
	PurposeMedium    VariantPurpose = "medium"
	PurposeLarge     VariantPurpose = "large"
	PurposeWeb       VariantPurpose = "web"
	PurposeSocial    VariantPurpose = "social"
	PurposeOriginal  VariantPurpose = "original"
)

// Metadata is the open-ended JSON bag persisted alongside an asset
type Metadata map[string]interface{}

// Value serializes metadata as JSON text for storage
func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}
	return string(data), nil
}

// Scan deserializes metadata from its text representation
func (m *Metadata) Scan(src interface{}) error {
	if src == nil {
		*m = Metadata{}
		return nil
	}
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported metadata source type %T", src)
	}
	if len(data) == 0 {
		*m = Metadata{}
		return nil
	}
	return json.Unmarshal(data, m)
}

// Asset is a persisted media record; derived files live on disk and are
// addressed through the storage keys held here.
type Asset struct {
	ID           string `db:"id" json:"id"`
	OriginalName string `db:"original_name" json:"original_name"`
	Filename     string `db:"filename" json:"filename"`

	// Path/URL point at the canonical optimized rendition,
	// OriginalPath at the untouched upload.
	Path         string `db:"path" json:"path"`
	URL          string `db:"url" json:"url"`
	OriginalPath string `db:"original_path" json:"original_path"`
	ThumbnailURL string `db:"thumbnail_url" json:"thumbnail_url,omitempty"`

	MimeType string `db:"mime_type" json:"mime_type"`
	Size     int64  `db:"size" json:"size"` // optimized byte count
	Width    int    `db:"width" json:"width"`
	Height   int    `db:"height" json:"height"`

	AltText     string         `db:"alt_text" json:"alt_text,omitempty"`
	Title       string         `db:"title" json:"title,omitempty"`
	Description string         `db:"description" json:"description,omitempty"`
	Tags        pq.StringArray `db:"tags" json:"tags"`
	Category    Category       `db:"category" json:"category"`
	EntityID    string         `db:"entity_id" json:"entity_id,omitempty"`

	IsPublic     bool `db:"is_public" json:"is_public"`
	IsFeatured   bool `db:"is_featured" json:"is_featured"`
	DisplayOrder int  `db:"display_order" json:"display_order"`

	Metadata   Metadata `db:"metadata" json:"metadata"`
	UploadedBy string   `db:"uploaded_by" json:"uploaded_by"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`

	// Variants are assembled at ingest time and not separately persisted
	Variants []Variant `db:"-" json:"variants,omitempty"`
}

// Variant is one derived encoding of an asset
type Variant struct {
	Purpose  VariantPurpose `json:"purpose"`
	Filename string         `json:"filename"`
	Path     string         `json:"path"`
	URL      string         `json:"url"`
	Size     int64          `json:"size"`
	Width    int            `json:"width"`
	Height   int            `json:"height"`
	Quality  int            `json:"quality,omitempty"`
	Format   string         `json:"format"`
}

// dedupeTags removes duplicates while preserving first-seen order
func dedupeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}
