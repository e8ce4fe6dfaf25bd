package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/SergeiKhy/shortly/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrLinkNotFound = errors.New("link not found")
	ErrCodeExists   = errors.New("short code already exists")
	// ErrDuplicateURL нарушение уникальности (original_url, owner_id):
	// конкурентный запрос уже создал ссылку в этом owner scope
	ErrDuplicateURL = errors.New("url already shortened in this owner scope")
)

type LinkRepository interface {
	Create(ctx context.Context, link *models.Link) error
	GetByShortCode(ctx context.Context, code string) (*models.Link, error)
	GetByOriginalURL(ctx context.Context, originalURL string, ownerID *uuid.UUID) (*models.Link, error)
	CodeExists(ctx context.Context, code string) (bool, error)
	IncrementClickCount(ctx context.Context, linkID int64) error
}

type linkRepository struct {
	db *PostgresDB
}

func NewLinkRepository(db *PostgresDB) LinkRepository {
	return &linkRepository{db: db}
}

func (r *linkRepository) Create(ctx context.Context, link *models.Link) error {
	query := `
		INSERT INTO links (short_code, original_url, owner_id, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	err := r.db.Pool.QueryRow(
		ctx,
		query,
		link.ShortCode,
		link.OriginalURL,
		link.OwnerID,
		link.ExpiresAt,
		link.CreatedAt,
	).Scan(&link.ID, &link.CreatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			switch pgErr.ConstraintName {
			case "links_short_code_key":
				return ErrCodeExists
			case "links_url_owner_key", "links_url_anonymous_key":
				return ErrDuplicateURL
			}
		}
		return fmt.Errorf("failed to create link: %w", err)
	}

	return nil
}

// GetByShortCode возвращает ссылку без фильтра по expires_at:
// истёкшие ссылки остаются доступными для аналитики
func (r *linkRepository) GetByShortCode(ctx context.Context, code string) (*models.Link, error) {
	query := `
		SELECT id, short_code, original_url, owner_id, click_count, expires_at, created_at
		FROM links
		WHERE short_code = $1
	`

	return r.scanLink(r.db.Pool.QueryRow(ctx, query, code))
}

func (r *linkRepository) GetByOriginalURL(ctx context.Context, originalURL string, ownerID *uuid.UUID) (*models.Link, error) {
	query := `
		SELECT id, short_code, original_url, owner_id, click_count, expires_at, created_at
		FROM links
		WHERE original_url = $1 AND owner_id IS NOT DISTINCT FROM $2
	`

	return r.scanLink(r.db.Pool.QueryRow(ctx, query, originalURL, ownerID))
}

func (r *linkRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM links WHERE short_code = $1)`

	var exists bool
	if err := r.db.Pool.QueryRow(ctx, query, code).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check short code: %w", err)
	}

	return exists, nil
}

func (r *linkRepository) IncrementClickCount(ctx context.Context, linkID int64) error {
	query := `UPDATE links SET click_count = click_count + 1 WHERE id = $1`

	result, err := r.db.Pool.Exec(ctx, query, linkID)
	if err != nil {
		return fmt.Errorf("failed to increment click count: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrLinkNotFound
	}

	return nil
}

func (r *linkRepository) scanLink(row pgx.Row) (*models.Link, error) {
	link := &models.Link{}
	err := row.Scan(
		&link.ID,
		&link.ShortCode,
		&link.OriginalURL,
		&link.OwnerID,
		&link.ClickCount,
		&link.ExpiresAt,
		&link.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLinkNotFound
		}
		return nil, fmt.Errorf("failed to get link: %w", err)
	}

	return link, nil
}
