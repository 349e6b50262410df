package optimizer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // Register WebP decoder

	"github.com/motorline/media-api/internal/pkg/storage"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported encoding format")
	ErrUnreadableImage   = errors.New("image could not be decoded")
	ErrFileNotFound      = errors.New("file not found")
)

// Format is a supported encoding target
type Format string

const (
	FormatJPEG Format = "jpeg"
	FormatPNG  Format = "png"
	FormatWebP Format = "webp"
)

// Valid reports whether the optimizer can encode the format
func (f Format) Valid() bool {
	switch f {
	case FormatJPEG, FormatPNG, FormatWebP:
		return true
	}
	return false
}

// Extension returns the file extension for the format
func (f Format) Extension() string {
	switch f {
	case FormatJPEG:
		return ".jpg"
	case FormatPNG:
		return ".png"
	case FormatWebP:
		return ".webp"
	}
	return ""
}

// MimeType returns the MIME type for the format
func (f Format) MimeType() string {
	switch f {
	case FormatJPEG:
		return "image/jpeg"
	case FormatPNG:
		return "image/png"
	case FormatWebP:
		return "image/webp"
	}
	return "application/octet-stream"
}

// FitMode controls how the source aspect ratio meets the target box
type FitMode string

const (
	FitCover   FitMode = "cover"   // crop to fill the box
	FitContain FitMode = "contain" // letterbox inside the box
	FitFill    FitMode = "fill"    // stretch, ignoring aspect ratio
	FitInside  FitMode = "inside"  // shrink until both sides fit
	FitOutside FitMode = "outside" // shrink until both sides cover
)

const (
	// DefaultQuality applies when a transform spec leaves quality unset
	DefaultQuality = 80
	// ThumbnailQuality is fixed for all derived thumbnails
	ThumbnailQuality = 70
)

// ThumbnailSize is one of the fixed square bounds every asset gets thumbnails at
type ThumbnailSize struct {
	Name  string
	Bound int
}

// ThumbnailSizes are derived for every asset that requests thumbnails
var ThumbnailSizes = []ThumbnailSize{
	{Name: "small", Bound: 150},
	{Name: "medium", Bound: 300},
	{Name: "large", Bound: 600},
}

// TransformSpec describes a single transformation
type TransformSpec struct {
	Width   int // 0 keeps the source width
	Height  int // 0 keeps the source height
	Quality int // 1-100, DefaultQuality when unset
	Format  Format
	Fit     FitMode
}

// Thumbnail is one derived thumbnail variant
type Thumbnail struct {
	Name     string
	Filename string
	Data     []byte
	Width    int
	Height   int
}

// Metadata describes a stored image file
type Metadata struct {
	Width  int
	Height int
	Format string
	Size   int64
}

// Optimizer is a stateless image transformation engine
type Optimizer struct{}

// New creates an optimizer
func New() *Optimizer {
	return &Optimizer{}
}

// Transform decodes src, resizes it to the requested box and re-encodes.
// Resizing never enlarges past the source resolution.
func (o *Optimizer) Transform(src []byte, spec TransformSpec) ([]byte, error) {
	if !spec.Format.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, spec.Format)
	}

	img, err := imaging.Decode(bytes.NewReader(src), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableImage, err)
	}

	if spec.Width > 0 || spec.Height > 0 {
		img = resize(img, spec.Width, spec.Height, spec.Fit)
	}

	return encode(img, spec.Format, spec.Quality)
}

// Thumbnails derives the fixed thumbnail set from src, named {baseID}_{size}.webp
func (o *Optimizer) Thumbnails(src []byte, baseID string) ([]Thumbnail, error) {
	img, err := imaging.Decode(bytes.NewReader(src), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableImage, err)
	}

	thumbs := make([]Thumbnail, 0, len(ThumbnailSizes))
	for _, size := range ThumbnailSizes {
		thumb := imaging.Fit(img, size.Bound, size.Bound, imaging.Lanczos)

		data, err := encode(thumb, FormatWebP, ThumbnailQuality)
		if err != nil {
			return nil, fmt.Errorf("encode thumbnail %s: %w", size.Name, err)
		}

		thumbs = append(thumbs, Thumbnail{
			Name:     size.Name,
			Filename: fmt.Sprintf("%s_%s.webp", baseID, size.Name),
			Data:     data,
			Width:    thumb.Bounds().Dx(),
			Height:   thumb.Bounds().Dy(),
		})
	}

	return thumbs, nil
}

// ReadMetadata probes a stored file for dimensions, format and byte size
func (o *Optimizer) ReadMetadata(ctx context.Context, st storage.Storage, key string) (*Metadata, error) {
	exists, err := st.Exists(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", key, err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, key)
	}

	info, err := st.GetInfo(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", key, err)
	}

	rc, err := st.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", key, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableImage, err)
	}

	return &Metadata{
		Width:  cfg.Width,
		Height: cfg.Height,
		Format: format,
		Size:   info.Size,
	}, nil
}

// resize maps a fit mode onto the target box. The box is clamped against
// the source bounds first so no mode ever upscales.
func resize(img image.Image, width, height int, fit FitMode) image.Image {
	srcW := img.Bounds().Dx()
	srcH := img.Bounds().Dy()

	if width > srcW {
		width = srcW
	}
	if height > srcH {
		height = srcH
	}

	switch fit {
	case FitCover:
		if width == 0 {
			width = srcW * height / srcH
		}
		if height == 0 {
			height = srcH * width / srcW
		}
		return imaging.Fill(img, width, height, imaging.Center, imaging.Lanczos)

	case FitFill:
		if width == 0 {
			width = srcW
		}
		if height == 0 {
			height = srcH
		}
		return imaging.Resize(img, width, height, imaging.Lanczos)

	case FitContain:
		if width == 0 {
			width = srcW
		}
		if height == 0 {
			height = srcH
		}
		fitted := imaging.Fit(img, width, height, imaging.Lanczos)
		if fitted.Bounds().Dx() == width && fitted.Bounds().Dy() == height {
			return fitted
		}
		canvas := imaging.New(width, height, color.NRGBA{0, 0, 0, 0})
		return imaging.PasteCenter(canvas, fitted)

	case FitOutside:
		if width == 0 || height == 0 {
			return imaging.Fit(img, orDefault(width, srcW), orDefault(height, srcH), imaging.Lanczos)
		}
		scaleW := float64(width) / float64(srcW)
		scaleH := float64(height) / float64(srcH)
		scale := scaleW
		if scaleH > scale {
			scale = scaleH
		}
		return imaging.Resize(img, int(float64(srcW)*scale+0.5), 0, imaging.Lanczos)

	default: // FitInside and unset
		if width == 0 {
			width = srcW
		}
		if height == 0 {
			height = srcH
		}
		return imaging.Fit(img, width, height, imaging.Lanczos)
	}
}

func orDefault(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

// encode writes the image in the given format. JPEG and WebP honor the
// quality parameter, PNG always uses the strongest compression level.
func encode(img image.Image, format Format, quality int) ([]byte, error) {
	if quality <= 0 {
		quality = DefaultQuality
	}

	var buf bytes.Buffer
	switch format {
	case FormatJPEG:
		if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
			return nil, fmt.Errorf("encode jpeg: %w", err)
		}
	case FormatPNG:
		if err := imaging.Encode(&buf, img, imaging.PNG, imaging.PNGCompressionLevel(png.BestCompression)); err != nil {
			return nil, fmt.Errorf("encode png: %w", err)
		}
	case FormatWebP:
		if err := webp.Encode(&buf, img, &webp.Options{Quality: float32(quality)}); err != nil {
			return nil, fmt.Errorf("encode webp: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	return buf.Bytes(), nil
}
