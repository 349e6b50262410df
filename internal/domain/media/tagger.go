package media

import "context"

// Tagger derives tags for an ingested asset. A real inference backend can be
// plugged in without touching the pipeline contract.
type Tagger interface {
	Tags(ctx context.Context, category Category, originalName string) []string
}

// StaticTagger maps each category to a fixed tag set
type StaticTagger struct{}

var staticTags = map[Category][]string{
	CategoryVehicle:     {"vehicle", "automotive", "inventory"},
	CategoryService:     {"service", "maintenance", "workshop"},
	CategoryBlog:        {"blog", "article"},
	CategoryTestimonial: {"testimonial", "customer"},
	CategoryBanner:      {"banner", "promotion"},
	CategoryGallery:     {"gallery", "showroom"},
	CategoryOther:       {"misc"},
}

// Tags returns the fixed tag set for the category
func (StaticTagger) Tags(ctx context.Context, category Category, originalName string) []string {
	tags, ok := staticTags[category]
	if !ok {
		return staticTags[CategoryOther]
	}
	return tags
}
