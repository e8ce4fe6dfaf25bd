package repository

import (
	"context"
	"fmt"

	"github.com/SergeiKhy/shortly/internal/models"
)

type ClickRepository interface {
	RecordClick(ctx context.Context, click *models.Click) error
	ListByLink(ctx context.Context, linkID int64) ([]models.Click, error)
}

type clickRepository struct {
	db *PostgresDB
}

func NewClickRepository(db *PostgresDB) ClickRepository {
	return &clickRepository{db: db}
}

func (r *clickRepository) RecordClick(ctx context.Context, click *models.Click) error {
	query := `
		INSERT INTO clicks (link_id, clicked_at, country, referrer, user_agent, ip_address)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		click.LinkID,
		click.ClickedAt,
		click.Country,
		click.Referrer,
		click.UserAgent,
		click.IPAddress,
	)

	if err != nil {
		return fmt.Errorf("failed to record click: %w", err)
	}

	return nil
}

// ListByLink возвращает все клики по ссылке в порядке записи.
// Порядок важен: агрегатор разрешает ничьи по первому появлению группы
func (r *clickRepository) ListByLink(ctx context.Context, linkID int64) ([]models.Click, error) {
	query := `
		SELECT id, link_id, clicked_at, country, referrer, user_agent, ip_address
		FROM clicks
		WHERE link_id = $1
		ORDER BY clicked_at, id
	`

	rows, err := r.db.Pool.Query(ctx, query, linkID)
	if err != nil {
		return nil, fmt.Errorf("failed to list clicks: %w", err)
	}
	defer rows.Close()

	var clicks []models.Click
	for rows.Next() {
		var click models.Click
		if err := rows.Scan(
			&click.ID,
			&click.LinkID,
			&click.ClickedAt,
			&click.Country,
			&click.Referrer,
			&click.UserAgent,
			&click.IPAddress,
		); err != nil {
			return nil, fmt.Errorf("failed to scan click: %w", err)
		}
		clicks = append(clicks, click)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating clicks: %w", err)
	}

	return clicks, nil
}
