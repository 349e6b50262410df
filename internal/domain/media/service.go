package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/motorline/media-api/internal/pkg/optimizer"
	"github.com/motorline/media-api/internal/pkg/storage"
)

const (
	// Canonical optimized rendition: capped resolution, WebP
	optimizedMaxWidth  = 1920
	optimizedMaxHeight = 1080
	optimizedQuality   = 85

	thumbnailsDir = "thumbnails"
	stagingDir    = "staging"

	statsCacheKey = "media:stats"
	statsCacheTTL = 30 * time.Second
)

// extendedMimeTypes widen the optimizer allow-list at the pipeline layer
var extendedMimeTypes = []string{"image/gif", "image/svg+xml", "image/avif"}

// passthroughTypes are accepted but stored without transformation;
// no decoder is available for them
var passthroughTypes = map[string]bool{
	"image/svg+xml": true,
	"image/avif":    true,
}

// Config bounds the pipeline
type Config struct {
	Quota         int64 // aggregate byte budget across all assets
	MaxFileSize   int64 // per-file ceiling, the single authoritative limit
	WatermarkText string
}

// File is a decoded upload handed to the pipeline
type File struct {
	Name     string
	MimeType string
	Size     int64
	Data     []byte
}

// IngestOptions controls a single ingestion
type IngestOptions struct {
	Category     Category
	EntityID     string
	AltText      string
	Title        string
	Description  string
	Tags         []string
	IsPublic     bool
	IsFeatured   bool
	DisplayOrder int

	GenerateThumbnails bool
	ExtraFormats       []optimizer.Format
	ApplyWatermark     bool
	AutoTag            bool

	UploadedBy string
}

// QueryResult is one page of a media listing
type QueryResult struct {
	Assets  []*Asset `json:"assets"`
	Total   int      `json:"total"`
	HasMore bool     `json:"has_more"`
}

// UpdateFields are the mutable descriptive fields of an asset.
// Nil pointers leave the current value untouched.
type UpdateFields struct {
	AltText      *string
	Title        *string
	Description  *string
	Tags         []string
	Category     *Category
	EntityID     *string
	IsPublic     *bool
	IsFeatured   *bool
	DisplayOrder *int
}

// BreakdownEntry is one bucket of a stats breakdown
type BreakdownEntry struct {
	Count int   `json:"count"`
	Size  int64 `json:"size"`
}

// StorageUsage is the quota snapshot
type StorageUsage struct {
	Used        int64   `json:"used"`
	Available   int64   `json:"available"`
	Total       int64   `json:"total"`
	UsedPercent float64 `json:"used_percent"`
}

// Stats aggregates all persisted assets
type Stats struct {
	TotalAssets int                       `json:"total_assets"`
	TotalSize   int64                     `json:"total_size"`
	ByCategory  map[string]BreakdownEntry `json:"by_category"`
	ByMimeType  map[string]BreakdownEntry `json:"by_mime_type"`
	ByMonth     map[string]BreakdownEntry `json:"by_month"`
	Storage     StorageUsage              `json:"storage"`
}

// Service orchestrates media ingestion, optimization and lifecycle
type Service struct {
	repo   Repository
	store  storage.Storage
	opt    *optimizer.Optimizer
	tagger Tagger
	cache  *redis.Client // nil disables stats caching
	cfg    Config
}

// NewService creates the media pipeline service
func NewService(repo Repository, store storage.Storage, opt *optimizer.Optimizer, tagger Tagger, cache *redis.Client, cfg Config) *Service {
	if tagger == nil {
		tagger = StaticTagger{}
	}
	if cfg.Quota <= 0 {
		cfg.Quota = 1 << 30 // 1 GiB
	}
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = 10 * 1024 * 1024 // 10 MB
	}
	return &Service{
		repo:   repo,
		store:  store,
		opt:    opt,
		tagger: tagger,
		cache:  cache,
		cfg:    cfg,
	}
}

type stagedFile struct {
	src string // key under staging/
	dst string // final key
}

// Ingest validates, optimizes and persists one uploaded file. Files are
// written to a staging prefix first and promoted only after the database
// insert succeeds, so a failed ingest leaves no public artifacts behind.
func (s *Service) Ingest(ctx context.Context, file File, opts IngestOptions) (*Asset, error) {
	if !opts.Category.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCategory, opts.Category)
	}

	if file.Size == 0 {
		file.Size = int64(len(file.Data))
	}
	mime := optimizer.NormalizeMime(file.MimeType)
	if mime == "" || mime == "application/octet-stream" {
		mime = optimizer.DetectMime(file.Data)
	}
	if err := optimizer.Validate(mime, file.Size, s.cfg.MaxFileSize, extendedMimeTypes...); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}

	used, err := s.repo.TotalSize(ctx)
	if err != nil {
		return nil, fmt.Errorf("read storage usage: %w", err)
	}
	if used+file.Size > s.cfg.Quota {
		return nil, fmt.Errorf("%w: %d of %d bytes in use", ErrQuotaExceeded, used, s.cfg.Quota)
	}

	id := newAssetID()
	category := string(opts.Category)
	staging := path.Join(stagingDir, id)

	ext := strings.ToLower(filepath.Ext(file.Name))
	if ext == "" {
		ext = optimizer.ExtensionForMime(mime)
	}
	originalFilename := id + ext

	var files []stagedFile
	put := func(finalKey string, data []byte, contentType string) error {
		src := path.Join(staging, finalKey)
		if err := s.store.Put(ctx, src, bytes.NewReader(data), contentType); err != nil {
			return fmt.Errorf("write %s: %w", finalKey, err)
		}
		files = append(files, stagedFile{src: src, dst: finalKey})
		return nil
	}
	fail := func(err error) (*Asset, error) {
		s.cleanupStaging(ctx, staging)
		return nil, err
	}

	// Original, byte-for-byte
	originalKey := path.Join(category, "original", originalFilename)
	if err := put(originalKey, file.Data, mime); err != nil {
		return fail(err)
	}

	// Canonical optimized rendition
	passthrough := passthroughTypes[mime]
	optimizedFilename := id + ".webp"
	optimizedMime := optimizer.FormatWebP.MimeType()
	var optimized []byte
	if passthrough {
		optimizedFilename = originalFilename
		optimizedMime = mime
		optimized = file.Data
	} else {
		optimized, err = s.opt.Transform(file.Data, optimizer.TransformSpec{
			Width:   optimizedMaxWidth,
			Height:  optimizedMaxHeight,
			Quality: optimizedQuality,
			Format:  optimizer.FormatWebP,
			Fit:     optimizer.FitInside,
		})
		if err != nil {
			return fail(fmt.Errorf("%w: %v", ErrInvalidFile, err))
		}
	}
	optimizedKey := path.Join(category, "optimized", optimizedFilename)
	if err := put(optimizedKey, optimized, optimizedMime); err != nil {
		return fail(err)
	}

	// Dimensions come from the written original, not the upload headers
	width, height := 0, 0
	if !passthrough {
		meta, err := s.opt.ReadMetadata(ctx, s.store, path.Join(staging, originalKey))
		if err != nil {
			return fail(fmt.Errorf("read original metadata: %w", err))
		}
		width, height = meta.Width, meta.Height
	}

	variants := []Variant{
		{
			Purpose:  PurposeOriginal,
			Filename: originalFilename,
			Path:     originalKey,
			URL:      s.store.GetURL(originalKey),
			Size:     file.Size,
			Width:    width,
			Height:   height,
			Format:   strings.TrimPrefix(mime, "image/"),
		},
	}

	// Thumbnails, fixed triple
	var thumbURLs map[string]string
	if opts.GenerateThumbnails && !passthrough {
		thumbs, err := s.opt.Thumbnails(file.Data, id)
		if err != nil {
			return fail(fmt.Errorf("derive thumbnails: %w", err))
		}
		thumbURLs = make(map[string]string, len(thumbs))
		for _, th := range thumbs {
			key := path.Join(thumbnailsDir, th.Filename)
			if err := put(key, th.Data, "image/webp"); err != nil {
				return fail(err)
			}
			thumbURLs[th.Name] = s.store.GetURL(key)
			variants = append(variants, Variant{
				Purpose:  thumbnailPurpose(th.Name),
				Filename: th.Filename,
				Path:     key,
				URL:      s.store.GetURL(key),
				Size:     int64(len(th.Data)),
				Width:    th.Width,
				Height:   th.Height,
				Quality:  optimizer.ThumbnailQuality,
				Format:   string(optimizer.FormatWebP),
			})
		}
	}

	// Extra full-size encodings of the canonical rendition
	var extraFormats []string
	if !passthrough {
		for _, format := range opts.ExtraFormats {
			if format == optimizer.FormatWebP {
				continue
			}
			data, err := s.opt.Transform(optimized, optimizer.TransformSpec{
				Quality: optimizedQuality,
				Format:  format,
			})
			if err != nil {
				return fail(fmt.Errorf("encode %s variant: %w", format, err))
			}
			filename := id + format.Extension()
			key := path.Join(category, "optimized", filename)
			if err := put(key, data, format.MimeType()); err != nil {
				return fail(err)
			}
			extraFormats = append(extraFormats, string(format))
			variants = append(variants, Variant{
				Purpose:  PurposeWeb,
				Filename: filename,
				Path:     key,
				URL:      s.store.GetURL(key),
				Size:     int64(len(data)),
				Quality:  optimizedQuality,
				Format:   string(format),
			})
		}
	}

	// Watermark overwrites the staged canonical rendition
	if opts.ApplyWatermark && !passthrough {
		optimized, err = s.opt.Watermark(optimized, s.cfg.WatermarkText, optimizer.FormatWebP, optimizedQuality)
		if err != nil {
			return fail(fmt.Errorf("apply watermark: %w", err))
		}
		if err := s.store.Put(ctx, path.Join(staging, optimizedKey), bytes.NewReader(optimized), optimizedMime); err != nil {
			return fail(fmt.Errorf("write %s: %w", optimizedKey, err))
		}
	}

	tags := opts.Tags
	if opts.AutoTag {
		tags = append(tags, s.tagger.Tags(ctx, opts.Category, file.Name)...)
	}
	tags = dedupeTags(tags)

	optimizedSize := int64(len(optimized))
	metadata := Metadata{
		"original_size":     file.Size,
		"original_format":   strings.TrimPrefix(mime, "image/"),
		"compression_ratio": compressionRatio(file.Size, optimizedSize),
	}
	if len(extraFormats) > 0 {
		metadata["extra_formats"] = extraFormats
	}
	if opts.ApplyWatermark && !passthrough {
		metadata["watermarked"] = true
	}
	if thumbURLs != nil {
		metadata["thumbnails"] = thumbURLs
	}

	variants = append(variants, Variant{
		Purpose:  PurposeWeb,
		Filename: optimizedFilename,
		Path:     optimizedKey,
		URL:      s.store.GetURL(optimizedKey),
		Size:     optimizedSize,
		Width:    width,
		Height:   height,
		Quality:  optimizedQuality,
		Format:   strings.TrimPrefix(optimizedMime, "image/"),
	})

	now := time.Now().UTC()
	asset := &Asset{
		ID:           id,
		OriginalName: filepath.Base(file.Name),
		Filename:     optimizedFilename,
		Path:         optimizedKey,
		URL:          s.store.GetURL(optimizedKey),
		OriginalPath: originalKey,
		MimeType:     optimizedMime,
		Size:         optimizedSize,
		Width:        width,
		Height:       height,
		AltText:      opts.AltText,
		Title:        opts.Title,
		Description:  opts.Description,
		Tags:         tags,
		Category:     opts.Category,
		EntityID:     opts.EntityID,
		IsPublic:     opts.IsPublic,
		IsFeatured:   opts.IsFeatured,
		DisplayOrder: opts.DisplayOrder,
		Metadata:     metadata,
		UploadedBy:   opts.UploadedBy,
		CreatedAt:    now,
		UpdatedAt:    now,
		Variants:     variants,
	}
	if url, ok := thumbURLs["medium"]; ok {
		asset.ThumbnailURL = url
	}

	if err := s.repo.Create(ctx, asset); err != nil {
		return fail(fmt.Errorf("persist asset: %w", err))
	}

	// Promote staged files into the public layout. If promotion fails the
	// row is removed again so callers never see a half-materialized asset.
	for i, f := range files {
		if err := s.store.Move(ctx, f.src, f.dst); err != nil {
			if _, derr := s.repo.Delete(ctx, id); derr != nil {
				log.Error().Err(derr).Str("asset_id", id).Msg("Failed to remove row after promotion failure")
			}
			for _, promoted := range files[:i] {
				if derr := s.store.Delete(ctx, promoted.dst); derr != nil {
					log.Warn().Err(derr).Str("key", promoted.dst).Msg("Failed to remove promoted file")
				}
			}
			s.cleanupStaging(ctx, staging)
			return nil, fmt.Errorf("promote %s: %w", f.dst, err)
		}
	}
	s.cleanupStaging(ctx, staging)
	s.invalidateStatsCache(ctx)

	log.Info().
		Str("asset_id", id).
		Str("category", category).
		Int64("original_size", file.Size).
		Int64("optimized_size", optimizedSize).
		Msg("Media asset ingested")

	return asset, nil
}

// IngestBatch runs Ingest sequentially over all files. A failing file is
// logged and skipped; the batch always returns the successes.
func (s *Service) IngestBatch(ctx context.Context, files []File, opts IngestOptions) []*Asset {
	assets := make([]*Asset, 0, len(files))
	for _, file := range files {
		asset, err := s.Ingest(ctx, file, opts)
		if err != nil {
			log.Warn().Err(err).Str("file", file.Name).Msg("Skipping file in batch ingest")
			continue
		}
		assets = append(assets, asset)
	}
	return assets
}

// GetByID returns one asset
func (s *Service) GetByID(ctx context.Context, id string) (*Asset, error) {
	asset, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load asset: %w", err)
	}
	if asset == nil {
		return nil, ErrAssetNotFound
	}
	return asset, nil
}

// Query returns one page of assets matching the filter
func (s *Service) Query(ctx context.Context, filter *Filter, sort Sort, page Page) (*QueryResult, error) {
	assets, total, err := s.repo.List(ctx, filter, sort, page)
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}
	hasMore := page.Limit > 0 && page.Offset+len(assets) < total
	return &QueryResult{Assets: assets, Total: total, HasMore: hasMore}, nil
}

// Update mutates descriptive fields only. Binary content, dimensions and
// paths are immutable after ingest.
func (s *Service) Update(ctx context.Context, id string, fields UpdateFields) (*Asset, error) {
	asset, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load asset: %w", err)
	}
	if asset == nil {
		return nil, ErrAssetNotFound
	}

	if fields.AltText != nil {
		asset.AltText = *fields.AltText
	}
	if fields.Title != nil {
		asset.Title = *fields.Title
	}
	if fields.Description != nil {
		asset.Description = *fields.Description
	}
	if fields.Tags != nil {
		asset.Tags = dedupeTags(fields.Tags)
	}
	if fields.Category != nil {
		if !fields.Category.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrInvalidCategory, *fields.Category)
		}
		asset.Category = *fields.Category
	}
	if fields.EntityID != nil {
		asset.EntityID = *fields.EntityID
	}
	if fields.IsPublic != nil {
		asset.IsPublic = *fields.IsPublic
	}
	if fields.IsFeatured != nil {
		asset.IsFeatured = *fields.IsFeatured
	}
	if fields.DisplayOrder != nil {
		asset.DisplayOrder = *fields.DisplayOrder
	}

	asset.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, asset); err != nil {
		return nil, fmt.Errorf("update asset: %w", err)
	}
	s.invalidateStatsCache(ctx)
	return asset, nil
}

// Delete removes the row and best-effort deletes every backing file.
// A file missing on disk never blocks the logical deletion.
func (s *Service) Delete(ctx context.Context, id string) error {
	asset, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("load asset: %w", err)
	}
	if asset == nil {
		return ErrAssetNotFound
	}

	for _, key := range s.fileKeys(asset) {
		if err := s.store.Delete(ctx, key); err != nil {
			log.Warn().Err(err).Str("asset_id", id).Str("key", key).Msg("Failed to delete asset file")
		}
	}

	found, err := s.repo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete asset: %w", err)
	}
	if !found {
		return ErrAssetNotFound
	}
	s.invalidateStatsCache(ctx)
	return nil
}

// Stats aggregates all persisted assets and the quota snapshot
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	if cached := s.cachedStats(ctx); cached != nil {
		return cached, nil
	}

	agg, err := s.repo.Aggregate(ctx)
	if err != nil {
		return nil, fmt.Errorf("aggregate assets: %w", err)
	}

	stats := &Stats{
		TotalAssets: agg.TotalAssets,
		TotalSize:   agg.TotalSize,
		ByCategory:  make(map[string]BreakdownEntry, len(agg.ByCategory)),
		ByMimeType:  make(map[string]BreakdownEntry, len(agg.ByMimeType)),
		ByMonth:     make(map[string]BreakdownEntry, len(agg.ByMonth)),
	}
	for _, row := range agg.ByCategory {
		stats.ByCategory[row.Key] = BreakdownEntry{Count: row.Count, Size: row.Size}
	}
	for _, row := range agg.ByMimeType {
		family := mimeFamily(row.Key)
		entry := stats.ByMimeType[family]
		entry.Count += row.Count
		entry.Size += row.Size
		stats.ByMimeType[family] = entry
	}
	for _, row := range agg.ByMonth {
		stats.ByMonth[row.Key] = BreakdownEntry{Count: row.Count, Size: row.Size}
	}

	available := s.cfg.Quota - agg.TotalSize
	if available < 0 {
		available = 0
	}
	stats.Storage = StorageUsage{
		Used:        agg.TotalSize,
		Available:   available,
		Total:       s.cfg.Quota,
		UsedPercent: round2(float64(agg.TotalSize) / float64(s.cfg.Quota) * 100),
	}

	s.storeStatsCache(ctx, stats)
	return stats, nil
}

// Reoptimize re-runs the canonical optimization from the stored original,
// overwriting the optimized file in place.
func (s *Service) Reoptimize(ctx context.Context, id string) (*Asset, error) {
	asset, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load asset: %w", err)
	}
	if asset == nil {
		return nil, ErrAssetNotFound
	}
	if passthroughTypes[asset.MimeType] {
		return asset, nil // nothing to re-encode
	}

	exists, err := s.store.Exists(ctx, asset.OriginalPath)
	if err != nil {
		return nil, fmt.Errorf("stat original: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrOriginalMissing, asset.OriginalPath)
	}

	rc, err := s.store.Get(ctx, asset.OriginalPath)
	if err != nil {
		return nil, fmt.Errorf("open original: %w", err)
	}
	data, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		return nil, fmt.Errorf("read original: %w", err)
	}

	optimized, err := s.opt.Transform(data, optimizer.TransformSpec{
		Width:   optimizedMaxWidth,
		Height:  optimizedMaxHeight,
		Quality: optimizedQuality,
		Format:  optimizer.FormatWebP,
		Fit:     optimizer.FitInside,
	})
	if err != nil {
		return nil, fmt.Errorf("optimize: %w", err)
	}

	if err := s.store.Put(ctx, asset.Path, bytes.NewReader(optimized), asset.MimeType); err != nil {
		return nil, fmt.Errorf("write optimized: %w", err)
	}

	asset.Size = int64(len(optimized))
	if asset.Metadata == nil {
		asset.Metadata = Metadata{}
	}
	asset.Metadata["compression_ratio"] = compressionRatio(int64(len(data)), asset.Size)
	asset.Metadata["reoptimized_at"] = time.Now().UTC().Format(time.RFC3339)
	asset.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, asset); err != nil {
		return nil, fmt.Errorf("update asset: %w", err)
	}
	s.invalidateStatsCache(ctx)
	return asset, nil
}

// BulkReoptimize re-optimizes every asset, optionally narrowed to one
// category. Per-asset failures are logged and skipped.
func (s *Service) BulkReoptimize(ctx context.Context, category *Category) (int, error) {
	assets, _, err := s.repo.List(ctx, &Filter{Category: category}, Sort{Key: "created_at"}, Page{})
	if err != nil {
		return 0, fmt.Errorf("list assets: %w", err)
	}

	count := 0
	for _, asset := range assets {
		if _, err := s.Reoptimize(ctx, asset.ID); err != nil {
			log.Warn().Err(err).Str("asset_id", asset.ID).Msg("Skipping asset in bulk reoptimize")
			continue
		}
		count++
	}
	return count, nil
}

// fileKeys lists every storage key an asset may own. Extra format keys live
// next to the canonical rendition, so their directory comes from the stored
// path rather than the category, which can change after ingest. Deleting a
// missing key is a no-op.
func (s *Service) fileKeys(asset *Asset) []string {
	keys := []string{asset.OriginalPath, asset.Path}
	for _, size := range optimizer.ThumbnailSizes {
		keys = append(keys, path.Join(thumbnailsDir, fmt.Sprintf("%s_%s.webp", asset.ID, size.Name)))
	}
	optimizedDir := path.Dir(asset.Path)
	for _, name := range metadataStrings(asset.Metadata, "extra_formats") {
		ext := optimizer.Format(name).Extension()
		if ext == "" {
			continue
		}
		keys = append(keys, path.Join(optimizedDir, asset.ID+ext))
	}
	return keys
}

func (s *Service) cleanupStaging(ctx context.Context, staging string) {
	if err := s.store.DeletePrefix(ctx, staging); err != nil {
		log.Warn().Err(err).Str("prefix", staging).Msg("Failed to clean staging prefix")
	}
}

func (s *Service) cachedStats(ctx context.Context) *Stats {
	if s.cache == nil {
		return nil
	}
	data, err := s.cache.Get(ctx, statsCacheKey).Bytes()
	if err != nil {
		return nil
	}
	var stats Stats
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil
	}
	return &stats
}

func (s *Service) storeStatsCache(ctx context.Context, stats *Stats) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(stats)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, statsCacheKey, data, statsCacheTTL).Err(); err != nil {
		log.Warn().Err(err).Msg("Failed to cache stats snapshot")
	}
}

func (s *Service) invalidateStatsCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, statsCacheKey).Err(); err != nil {
		log.Warn().Err(err).Msg("Failed to invalidate stats cache")
	}
}

// newAssetID builds a generation-time id: millisecond timestamp plus a
// random suffix. Identity is deliberately not content-addressed.
func newAssetID() string {
	return fmt.Sprintf("m%d_%s", time.Now().UnixMilli(), strings.SplitN(uuid.NewString(), "-", 2)[0])
}

func thumbnailPurpose(name string) VariantPurpose {
	switch name {
	case "medium":
		return PurposeMedium
	case "large":
		return PurposeLarge
	default:
		return PurposeThumbnail
	}
}

// compressionRatio is the percentage saved by optimization
func compressionRatio(original, optimized int64) float64 {
	if original <= 0 {
		return 0
	}
	return round2((1 - float64(optimized)/float64(original)) * 100)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// mimeFamily folds a MIME type into its stats bucket ("image/jpeg" -> "jpeg")
func mimeFamily(mime string) string {
	mime = optimizer.NormalizeMime(mime)
	if idx := strings.Index(mime, "/"); idx != -1 {
		mime = mime[idx+1:]
	}
	if mime == "jpg" {
		mime = "jpeg"
	}
	return mime
}

func metadataStrings(meta Metadata, key string) []string {
	raw, ok := meta[key]
	if !ok {
		return nil
	}
	switch v := raw.(type) {
	case []string:
		return v
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if str, ok := item.(string); ok {
				out = append(out, str)
			}
		}
		return out
	}
	return nil
}
