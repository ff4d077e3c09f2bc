package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Neetrino/clean-house/internal/database"
	"github.com/Neetrino/clean-house/internal/models"
)

// ListCategories returns active categories with a count of their active
// products, ordered by name.
func ListCategories(ctx context.Context, db *sql.DB) ([]models.Category, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT c.id, c.name, c.slug, c.description, c.is_active,
		       COUNT(p.id) FILTER (WHERE p.is_active)
		FROM categories c
		LEFT JOIN products p ON p.category_id = c.id
		WHERE c.is_active = TRUE
		GROUP BY c.id
		ORDER BY c.name`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	categories := []models.Category{}
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.IsActive, &c.ProductCount); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return categories, nil
}

func GetCategoryBySlug(ctx context.Context, db *sql.DB, slug string) (*models.Category, error) {
	c := &models.Category{}

	err := db.QueryRowContext(ctx, `
		SELECT c.id, c.name, c.slug, c.description, c.is_active,
		       COUNT(p.id) FILTER (WHERE p.is_active)
		FROM categories c
		LEFT JOIN products p ON p.category_id = c.id
		WHERE c.slug = $1 AND c.is_active = TRUE
		GROUP BY c.id`,
		slug).Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.IsActive, &c.ProductCount)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrCategoryNotFound
		}
		return nil, fmt.Errorf("get category: %w", err)
	}

	return c, nil
}
