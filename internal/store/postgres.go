package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zivkovicn/vestnik/internal/models"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var articleColumns = []string{
	"id",
	"slug",
	"title",
	"COALESCE(summary, '')",
	"COALESCE(content, '')",
	"lang",
	"COALESCE(source_url, '')",
	"COALESCE(sources_json, '')",
	"COALESCE(topic_key, '')",
	"category",
	"country",
	"COALESCE(cover_image, '')",
	"COALESCE(content_source, '')",
	"COALESCE(seo_title, '')",
	"COALESCE(seo_description, '')",
	"COALESCE(og_image, '')",
	"COALESCE(canonical_url, '')",
	"noindex",
	"published_at",
	"created_at",
	"updated_at",
}

// PostgresRepository persists articles in Postgres through pgx.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

var _ Repository = (*PostgresRepository)(nil)

func NewPostgresRepository(ctx context.Context, databaseURL string) (*PostgresRepository, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return &PostgresRepository{pool: pool}, nil
}

func (r *PostgresRepository) Close() {
	r.pool.Close()
}

func (r *PostgresRepository) FindBySourceURL(ctx context.Context, urls ...string) (*models.Article, error) {
	cleaned := make([]string, 0, len(urls))
	for _, u := range urls {
		if u != "" {
			cleaned = append(cleaned, u)
		}
	}
	if len(cleaned) == 0 {
		return nil, nil
	}

	query, args, err := psql.
		Select(articleColumns...).
		From("articles").
		Where(sq.Eq{"source_url": cleaned}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	return r.queryOne(ctx, query, args)
}

func (r *PostgresRepository) FindRecentByTitle(ctx context.Context, probe string, since time.Time) (*models.Article, error) {
	probe = strings.ToLower(strings.TrimSpace(probe))
	if probe == "" {
		return nil, nil
	}

	query, args, err := psql.
		Select(articleColumns...).
		From("articles").
		Where("COALESCE(published_at, created_at) >= ?", since).
		Where("(POSITION(? IN LOWER(title)) > 0 OR POSITION(LOWER(title) IN ?) > 0 OR POSITION(? IN slug) > 0)",
			probe, probe, slugProbe(probe)).
		OrderBy("COALESCE(published_at, created_at) DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	return r.queryOne(ctx, query, args)
}

func (r *PostgresRepository) FindUniqueSlug(ctx context.Context, base string) (string, error) {
	candidate := base
	for i := 2; ; i++ {
		var exists bool
		err := r.pool.QueryRow(ctx,
			"SELECT EXISTS (SELECT 1 FROM articles WHERE slug = $1)", candidate).Scan(&exists)
		if err != nil {
			return "", fmt.Errorf("probe slug %q: %w", candidate, err)
		}
		if !exists {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
}

func (r *PostgresRepository) Create(ctx context.Context, a *models.Article) error {
	query, args, err := psql.
		Insert("articles").
		Columns("id", "slug", "title", "summary", "content", "lang",
			"source_url", "sources_json", "topic_key", "category", "country",
			"cover_image", "content_source", "seo_title", "seo_description",
			"og_image", "canonical_url", "noindex",
			"published_at", "created_at", "updated_at").
		Values(a.ID, a.Slug, a.Title, nullable(a.Summary), nullable(a.Content), a.Lang,
			nullable(a.SourceURL), nullable(a.SourcesJSON), nullable(a.TopicKey), string(a.Category), a.Country,
			nullable(a.CoverImage), nullable(a.ContentSource), nullable(a.SeoTitle), nullable(a.SeoDescription),
			nullable(a.OgImage), nullable(a.CanonicalURL), a.Noindex,
			a.PublishedAt, a.CreatedAt, a.UpdatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert article: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Update(ctx context.Context, id string, patch models.ArticlePatch) error {
	if patch.Empty() {
		return nil
	}

	builder := psql.Update("articles").Where(sq.Eq{"id": id})
	if patch.Summary != nil {
		builder = builder.Set("summary", nullable(*patch.Summary))
	}
	if patch.Content != nil {
		builder = builder.Set("content", nullable(*patch.Content))
	}
	if patch.CoverImage != nil {
		builder = builder.Set("cover_image", nullable(*patch.CoverImage))
	}
	if patch.ContentSource != nil {
		builder = builder.Set("content_source", nullable(*patch.ContentSource))
	}
	if patch.Category != nil {
		builder = builder.Set("category", string(*patch.Category))
	}
	if patch.SeoTitle != nil {
		builder = builder.Set("seo_title", nullable(*patch.SeoTitle))
	}
	if patch.SeoDescription != nil {
		builder = builder.Set("seo_description", nullable(*patch.SeoDescription))
	}
	if patch.OgImage != nil {
		builder = builder.Set("og_image", nullable(*patch.OgImage))
	}
	if patch.CanonicalURL != nil {
		builder = builder.Set("canonical_url", nullable(*patch.CanonicalURL))
	}
	if patch.Noindex != nil {
		builder = builder.Set("noindex", *patch.Noindex)
	}
	builder = builder.Set("updated_at", time.Now().UTC())

	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update article: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) GetBySlug(ctx context.Context, slug string) (*models.Article, error) {
	query, args, err := psql.
		Select(articleColumns...).
		From("articles").
		Where(sq.Eq{"slug": slug}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	a, err := r.queryOne(ctx, query, args)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, ErrNotFound
	}
	return a, nil
}

func (r *PostgresRepository) List(ctx context.Context, page, pageSize int) ([]*models.Article, error) {
	if page < 1 {
		page = 1
	}

	query, args, err := psql.
		Select(articleColumns...).
		From("articles").
		Where("published_at IS NOT NULL").
		OrderBy("published_at DESC").
		Limit(uint64(pageSize)).
		Offset(uint64((page - 1) * pageSize)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	return r.queryMany(ctx, query, args)
}

func (r *PostgresRepository) ListAfter(ctx context.Context, cursor string, limit int) ([]*models.Article, error) {
	builder := psql.
		Select(articleColumns...).
		From("articles").
		OrderBy("id ASC").
		Limit(uint64(limit))
	if cursor != "" {
		builder = builder.Where(sq.Gt{"id": cursor})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	return r.queryMany(ctx, query, args)
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM articles WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete article: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM articles").Scan(&count); err != nil {
		return 0, fmt.Errorf("count articles: %w", err)
	}
	return count, nil
}

func (r *PostgresRepository) queryOne(ctx context.Context, query string, args []interface{}) (*models.Article, error) {
	row := r.pool.QueryRow(ctx, query, args...)
	a, err := scanArticle(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan article: %w", err)
	}
	return a, nil
}

func (r *PostgresRepository) queryMany(ctx context.Context, query string, args []interface{}) ([]*models.Article, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query articles: %w", err)
	}
	defer rows.Close()

	var articles []*models.Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}
		articles = append(articles, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate articles: %w", err)
	}
	return articles, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanArticle(row rowScanner) (*models.Article, error) {
	var a models.Article
	var category string
	err := row.Scan(
		&a.ID, &a.Slug, &a.Title, &a.Summary, &a.Content, &a.Lang,
		&a.SourceURL, &a.SourcesJSON, &a.TopicKey, &category, &a.Country,
		&a.CoverImage, &a.ContentSource, &a.SeoTitle, &a.SeoDescription,
		&a.OgImage, &a.CanonicalURL, &a.Noindex,
		&a.PublishedAt, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.Category = models.Category(category)
	return &a, nil
}

// nullable maps "" to NULL so empty fields stay unset in the database and
// backfill can find them later.
func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// slugProbe approximates the slug form of a lowercase title probe, enough
// for the substring comparison against stored slugs.
func slugProbe(probe string) string {
	return strings.ReplaceAll(strings.TrimSpace(probe), " ", "-")
}
