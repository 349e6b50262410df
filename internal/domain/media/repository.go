package media

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

// Filter narrows a media listing
type Filter struct {
	Category   *Category
	EntityID   *string
	MimePrefix *string
	IsPublic   *bool
	IsFeatured *bool
	UploadedBy *string
	From       *time.Time
	To         *time.Time
	Search     *string // matched against filename, title and alt text
}

// Sort orders a media listing. Key must be one of the allow-listed columns.
type Sort struct {
	Key  string
	Desc bool
}

// sortColumns is the allow-list of sortable columns
var sortColumns = map[string]string{
	"created_at":    "created_at",
	"updated_at":    "updated_at",
	"size":          "size",
	"display_order": "display_order",
	"original_name": "original_name",
}

// Page is offset pagination; Limit 0 means unlimited
type Page struct {
	Offset int
	Limit  int
}

// GroupCount is one row of a stats breakdown
type GroupCount struct {
	Key   string `db:"key"`
	Count int    `db:"count"`
	Size  int64  `db:"size"`
}

// Aggregates holds everything the stats endpoint derives from persistence
type Aggregates struct {
	TotalAssets int
	TotalSize   int64
	ByCategory  []GroupCount
	ByMimeType  []GroupCount
	ByMonth     []GroupCount
}

// Repository defines media data access
type Repository interface {
	Create(ctx context.Context, asset *Asset) error
	GetByID(ctx context.Context, id string) (*Asset, error)
	List(ctx context.Context, filter *Filter, sort Sort, page Page) ([]*Asset, int, error)
	Update(ctx context.Context, asset *Asset) error
	Delete(ctx context.Context, id string) (bool, error)
	TotalSize(ctx context.Context) (int64, error)
	Aggregate(ctx context.Context) (*Aggregates, error)
}

type repository struct {
	db *sqlx.DB
}

// NewRepository creates a Postgres-backed media repository
func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

const assetColumns = `
	id, original_name, filename, path, url, original_path, thumbnail_url,
	mime_type, size, width, height,
	alt_text, title, description, tags, category, entity_id,
	is_public, is_featured, display_order,
	metadata, uploaded_by, created_at, updated_at
`

func (r *repository) Create(ctx context.Context, asset *Asset) error {
	query := `
		INSERT INTO media_assets (` + assetColumns + `)
		VALUES (
			$1, $2, $3, $4, $5, $6, $7,
			$8, $9, $10, $11,
			$12, $13, $14, $15, $16, $17,
			$18, $19, $20,
			$21, $22, $23, $24
		)
	`
	_, err := r.db.ExecContext(ctx, query,
		asset.ID, asset.OriginalName, asset.Filename, asset.Path, asset.URL, asset.OriginalPath, asset.ThumbnailURL,
		asset.MimeType, asset.Size, asset.Width, asset.Height,
		asset.AltText, asset.Title, asset.Description, asset.Tags, asset.Category, asset.EntityID,
		asset.IsPublic, asset.IsFeatured, asset.DisplayOrder,
		asset.Metadata, asset.UploadedBy, asset.CreatedAt, asset.UpdatedAt,
	)
	return err
}

func (r *repository) GetByID(ctx context.Context, id string) (*Asset, error) {
	query := `SELECT ` + assetColumns + ` FROM media_assets WHERE id = $1`
	var asset Asset
	err := r.db.GetContext(ctx, &asset, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &asset, nil
}

func (r *repository) List(ctx context.Context, filter *Filter, sort Sort, page Page) ([]*Asset, int, error) {
	conditions := []string{"TRUE"}
	args := []interface{}{}
	argIndex := 1

	if filter == nil {
		filter = &Filter{}
	}

	if filter.Category != nil {
		conditions = append(conditions, fmt.Sprintf("category = $%d", argIndex))
		args = append(args, *filter.Category)
		argIndex++
	}

	if filter.EntityID != nil && *filter.EntityID != "" {
		conditions = append(conditions, fmt.Sprintf("entity_id = $%d", argIndex))
		args = append(args, *filter.EntityID)
		argIndex++
	}

	if filter.MimePrefix != nil && *filter.MimePrefix != "" {
		conditions = append(conditions, fmt.Sprintf("mime_type LIKE $%d", argIndex))
		args = append(args, *filter.MimePrefix+"%")
		argIndex++
	}

	if filter.IsPublic != nil {
		conditions = append(conditions, fmt.Sprintf("is_public = $%d", argIndex))
		args = append(args, *filter.IsPublic)
		argIndex++
	}

	if filter.IsFeatured != nil {
		conditions = append(conditions, fmt.Sprintf("is_featured = $%d", argIndex))
		args = append(args, *filter.IsFeatured)
		argIndex++
	}

	if filter.UploadedBy != nil && *filter.UploadedBy != "" {
		conditions = append(conditions, fmt.Sprintf("uploaded_by = $%d", argIndex))
		args = append(args, *filter.UploadedBy)
		argIndex++
	}

	if filter.From != nil {
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", argIndex))
		args = append(args, *filter.From)
		argIndex++
	}

	if filter.To != nil {
		conditions = append(conditions, fmt.Sprintf("created_at <= $%d", argIndex))
		args = append(args, *filter.To)
		argIndex++
	}

	if filter.Search != nil && *filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(original_name ILIKE $%d OR title ILIKE $%d OR alt_text ILIKE $%d)",
			argIndex, argIndex, argIndex,
		))
		args = append(args, "%"+*filter.Search+"%")
		argIndex++
	}

	where := "WHERE " + strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM media_assets %s", where)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, err
	}

	column, ok := sortColumns[sort.Key]
	if !ok {
		column = "created_at"
		sort.Desc = true
	}
	direction := "ASC"
	if sort.Desc {
		direction = "DESC"
	}

	query := fmt.Sprintf(
		"SELECT %s FROM media_assets %s ORDER BY %s %s, id ASC",
		assetColumns, where, column, direction,
	)

	if page.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIndex)
		args = append(args, page.Limit)
		argIndex++
	}
	if page.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIndex)
		args = append(args, page.Offset)
		argIndex++
	}

	var assets []*Asset
	if err := r.db.SelectContext(ctx, &assets, query, args...); err != nil {
		return nil, 0, err
	}
	return assets, total, nil
}

func (r *repository) Update(ctx context.Context, asset *Asset) error {
	query := `
		UPDATE media_assets SET
			alt_text = $2,
			title = $3,
			description = $4,
			tags = $5,
			category = $6,
			entity_id = $7,
			is_public = $8,
			is_featured = $9,
			display_order = $10,
			size = $11,
			metadata = $12,
			updated_at = $13
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query,
		asset.ID,
		asset.AltText,
		asset.Title,
		asset.Description,
		asset.Tags,
		asset.Category,
		asset.EntityID,
		asset.IsPublic,
		asset.IsFeatured,
		asset.DisplayOrder,
		asset.Size,
		asset.Metadata,
		asset.UpdatedAt,
	)
	if err != nil {
		return err
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return ErrAssetNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM media_assets WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	affected, _ := result.RowsAffected()
	return affected > 0, nil
}

func (r *repository) TotalSize(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.GetContext(ctx, &total, `SELECT COALESCE(SUM(size), 0) FROM media_assets`)
	return total, err
}

func (r *repository) Aggregate(ctx context.Context) (*Aggregates, error) {
	agg := &Aggregates{}

	if err := r.db.GetContext(ctx, &agg.TotalAssets, `SELECT COUNT(*) FROM media_assets`); err != nil {
		return nil, err
	}
	if err := r.db.GetContext(ctx, &agg.TotalSize, `SELECT COALESCE(SUM(size), 0) FROM media_assets`); err != nil {
		return nil, err
	}

	byCategory := `
		SELECT category AS key, COUNT(*) AS count, COALESCE(SUM(size), 0) AS size
		FROM media_assets GROUP BY category ORDER BY category
	`
	if err := r.db.SelectContext(ctx, &agg.ByCategory, byCategory); err != nil {
		return nil, err
	}

	byMime := `
		SELECT mime_type AS key, COUNT(*) AS count, COALESCE(SUM(size), 0) AS size
		FROM media_assets GROUP BY mime_type ORDER BY mime_type
	`
	if err := r.db.SelectContext(ctx, &agg.ByMimeType, byMime); err != nil {
		return nil, err
	}

	byMonth := `
		SELECT to_char(created_at, 'YYYY-MM') AS key, COUNT(*) AS count, COALESCE(SUM(size), 0) AS size
		FROM media_assets GROUP BY 1 ORDER BY 1
	`
	if err := r.db.SelectContext(ctx, &agg.ByMonth, byMonth); err != nil {
		return nil, err
	}

	return agg, nil
}
