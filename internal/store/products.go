package store

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"

	"github.com/Neetrino/clean-house/internal/database"
	"github.com/Neetrino/clean-house/internal/models"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// ProductFilter is the typed query surface for catalog listings. Every
// field translates to a parameterized predicate; customer-facing queries
// always add is_active = TRUE.
type ProductFilter struct {
	CategoryID string
	Search     string
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
	Featured   bool
	SortBy     string
	SortOrder  string
	Page       int
	Limit      int
}

var productSortColumns = map[string]string{
	"createdAt":  "p.created_at",
	"created_at": "p.created_at",
	"price":      "p.price",
	"name":       "p.name",
}

func (f ProductFilter) whereClause() (string, []interface{}) {
	conds := []string{"p.is_active = TRUE"}
	var args []interface{}

	if f.CategoryID != "" {
		args = append(args, f.CategoryID)
		conds = append(conds, fmt.Sprintf("p.category_id = $%d", len(args)))
	}

	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		pattern := len(args)
		args = append(args, f.Search)
		exact := len(args)
		conds = append(conds, fmt.Sprintf(
			"(p.name ILIKE $%d OR p.description ILIKE $%d OR $%d = ANY(p.tags))",
			pattern, pattern, exact))
	}

	if f.MinPrice != nil {
		args = append(args, *f.MinPrice)
		conds = append(conds, fmt.Sprintf("p.price >= $%d", len(args)))
	}

	if f.MaxPrice != nil {
		args = append(args, *f.MaxPrice)
		conds = append(conds, fmt.Sprintf("p.price <= $%d", len(args)))
	}

	if f.Featured {
		conds = append(conds, "p.is_featured = TRUE")
	}

	return strings.Join(conds, " AND "), args
}

func (f ProductFilter) orderClause() string {
	col, ok := productSortColumns[f.SortBy]
	if !ok {
		col = "p.created_at"
	}

	dir := "DESC"
	if strings.EqualFold(f.SortOrder, "asc") {
		dir = "ASC"
	}

	return col + " " + dir
}

// roundRating matches the display contract: mean review rating rounded to
// one decimal place, zero when there are no reviews.
func roundRating(avg float64) float64 {
	return math.Round(avg*10) / 10
}

const productColumns = `
	p.id, p.sku, p.name, p.description, p.price, p.compare_at_price,
	p.images, p.tags, p.is_active, p.is_featured, p.category_id,
	p.created_at, p.updated_at`

const ratingJoin = `
	LEFT JOIN (
		SELECT product_id, AVG(rating)::float8 AS avg_rating, COUNT(*) AS review_count
		FROM reviews
		GROUP BY product_id
	) r ON r.product_id = p.id`

func scanProductRow(rows interface {
	Scan(dest ...interface{}) error
}, p *models.Product) error {
	var (
		comparePrice decimal.NullDecimal
		categoryID   sql.NullString
		catName      sql.NullString
		catSlug      sql.NullString
		avgRating    float64
	)

	err := rows.Scan(
		&p.ID, &p.SKU, &p.Name, &p.Description, &p.Price, &comparePrice,
		pq.Array(&p.Images), pq.Array(&p.Tags), &p.IsActive, &p.IsFeatured,
		&categoryID, &p.CreatedAt, &p.UpdatedAt,
		&catName, &catSlug,
		&avgRating, &p.ReviewCount,
	)
	if err != nil {
		return err
	}

	if comparePrice.Valid {
		p.CompareAtPrice = &comparePrice.Decimal
	}
	if categoryID.Valid {
		p.CategoryID = &categoryID.String
		p.Category = &models.Category{
			ID:   categoryID.String,
			Name: catName.String,
			Slug: catSlug.String,
		}
	}
	p.AverageRating = roundRating(avgRating)

	return nil
}

// ListProducts returns active products matching the filter, newest first by
// default, as an offset page with per-product rating aggregates.
func ListProducts(ctx context.Context, db *sql.DB, filter ProductFilter) (*OffsetPage, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 || filter.Limit > 100 {
		filter.Limit = 10
	}

	where, args := filter.whereClause()

	var total int64
	countQuery := "SELECT COUNT(*) FROM products p WHERE " + where
	if err := db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s,
		       c.name, c.slug,
		       COALESCE(r.avg_rating, 0), COALESCE(r.review_count, 0)
		FROM products p
		LEFT JOIN categories c ON c.id = p.category_id
		%s
		WHERE %s
		ORDER BY %s
		LIMIT $%d OFFSET $%d`,
		productColumns, ratingJoin, where, filter.orderClause(), len(args)+1, len(args)+2)

	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products := []models.Product{}
	for rows.Next() {
		var p models.Product
		if err := scanProductRow(rows, &p); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return NewOffsetPage(products, total, filter.Page, filter.Limit), nil
}

// GetProduct fetches one active product with its category, active variants
// and reviews. Inactive and missing products are indistinguishable to the
// caller.
func GetProduct(ctx context.Context, db *sql.DB, id string) (*models.Product, error) {
	p := &models.Product{}

	query := fmt.Sprintf(`
		SELECT %s,
		       c.name, c.slug,
		       COALESCE(r.avg_rating, 0), COALESCE(r.review_count, 0)
		FROM products p
		LEFT JOIN categories c ON c.id = p.category_id
		%s
		WHERE p.id = $1 AND p.is_active = TRUE`,
		productColumns, ratingJoin)

	row := db.QueryRowContext(ctx, query, id)
	if err := scanProductRow(row, p); err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrProductNotFound
		}
		return nil, fmt.Errorf("get product: %w", err)
	}

	variants, err := listVariants(ctx, db, id)
	if err != nil {
		return nil, err
	}
	p.Variants = variants

	reviews, err := listReviews(ctx, db, id)
	if err != nil {
		return nil, err
	}
	p.Reviews = reviews

	return p, nil
}

func listVariants(ctx context.Context, db *sql.DB, productID string) ([]models.ProductVariant, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, product_id, name, price, attributes, is_active
		FROM product_variants
		WHERE product_id = $1 AND is_active = TRUE
		ORDER BY name`,
		productID)
	if err != nil {
		return nil, fmt.Errorf("list variants: %w", err)
	}
	defer rows.Close()

	var variants []models.ProductVariant
	for rows.Next() {
		var v models.ProductVariant
		if err := rows.Scan(&v.ID, &v.ProductID, &v.Name, &v.Price, &v.Attributes, &v.IsActive); err != nil {
			return nil, fmt.Errorf("scan variant: %w", err)
		}
		variants = append(variants, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return variants, nil
}

func listReviews(ctx context.Context, db *sql.DB, productID string) ([]models.Review, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT rv.id, rv.product_id, rv.user_id, u.name, rv.rating, rv.comment, rv.created_at
		FROM reviews rv
		JOIN users u ON u.id = rv.user_id
		WHERE rv.product_id = $1
		ORDER BY rv.created_at DESC`,
		productID)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	var reviews []models.Review
	for rows.Next() {
		var rv models.Review
		if err := rows.Scan(&rv.ID, &rv.ProductID, &rv.UserID, &rv.UserName, &rv.Rating, &rv.Comment, &rv.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		reviews = append(reviews, rv)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return reviews, nil
}

// SearchProducts is the lightweight typeahead query: active products whose
// name, description or tags match, capped at limit.
func SearchProducts(ctx context.Context, db *sql.DB, q string, limit int) ([]models.Product, error) {
	if limit < 1 || limit > 50 {
		limit = 10
	}

	filter := ProductFilter{Search: q}
	where, args := filter.whereClause()

	query := fmt.Sprintf(`
		SELECT %s,
		       c.name, c.slug,
		       COALESCE(r.avg_rating, 0), COALESCE(r.review_count, 0)
		FROM products p
		LEFT JOIN categories c ON c.id = p.category_id
		%s
		WHERE %s
		ORDER BY p.created_at DESC
		LIMIT $%d`,
		productColumns, ratingJoin, where, len(args)+1)

	args = append(args, limit)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search products: %w", err)
	}
	defer rows.Close()

	products := []models.Product{}
	for rows.Next() {
		var p models.Product
		if err := scanProductRow(rows, &p); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return products, nil
}

// FeaturedProducts returns up to limit active featured products.
func FeaturedProducts(ctx context.Context, db *sql.DB, limit int) ([]models.Product, error) {
	if limit < 1 || limit > 50 {
		limit = 8
	}

	page, err := ListProducts(ctx, db, ProductFilter{Featured: true, Limit: limit})
	if err != nil {
		return nil, err
	}

	return page.Items.([]models.Product), nil
}

type CreateProductParams struct {
	SKU            string
	Name           string
	Description    string
	Price          decimal.Decimal
	CompareAtPrice *decimal.Decimal
	Images         []string
	Tags           []string
	IsFeatured     bool
	CategoryID     *string
}

func CreateProduct(ctx context.Context, db *sql.DB, params CreateProductParams) (*models.Product, error) {
	p := &models.Product{
		ID:             uuid.New().String(),
		SKU:            params.SKU,
		Name:           params.Name,
		Description:    params.Description,
		Price:          params.Price,
		CompareAtPrice: params.CompareAtPrice,
		Images:         params.Images,
		Tags:           params.Tags,
		IsActive:       true,
		IsFeatured:     params.IsFeatured,
		CategoryID:     params.CategoryID,
	}
	if p.Images == nil {
		p.Images = []string{}
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}

	var comparePrice decimal.NullDecimal
	if params.CompareAtPrice != nil {
		comparePrice = decimal.NullDecimal{Decimal: *params.CompareAtPrice, Valid: true}
	}

	err := db.QueryRowContext(ctx, `
		INSERT INTO products (id, sku, name, description, price, compare_at_price,
		                      images, tags, is_active, is_featured, category_id,
		                      created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, TRUE, $9, $10, NOW(), NOW())
		RETURNING created_at, updated_at`,
		p.ID, p.SKU, p.Name, p.Description, p.Price, comparePrice,
		pq.Array(p.Images), pq.Array(p.Tags), p.IsFeatured, p.CategoryID).
		Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	return p, nil
}

// UpdateProductParams carries a partial update; nil fields are untouched.
type UpdateProductParams struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	Images      []string
	Tags        []string
	IsActive    *bool
	IsFeatured  *bool
	CategoryID  *string
}

func UpdateProduct(ctx context.Context, db *sql.DB, id string, params UpdateProductParams) (*models.Product, error) {
	sets := []string{"updated_at = NOW()"}
	var args []interface{}

	add := func(col string, val interface{}) {
		args = append(args, val)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if params.Name != nil {
		add("name", *params.Name)
	}
	if params.Description != nil {
		add("description", *params.Description)
	}
	if params.Price != nil {
		add("price", *params.Price)
	}
	if params.Images != nil {
		add("images", pq.Array(params.Images))
	}
	if params.Tags != nil {
		add("tags", pq.Array(params.Tags))
	}
	if params.IsActive != nil {
		add("is_active", *params.IsActive)
	}
	if params.IsFeatured != nil {
		add("is_featured", *params.IsFeatured)
	}
	if params.CategoryID != nil {
		add("category_id", *params.CategoryID)
	}

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE products SET %s WHERE id = $%d`,
		strings.Join(sets, ", "), len(args))

	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("get rows affected: %w", err)
	}
	if affected == 0 {
		return nil, database.ErrProductNotFound
	}

	return getProductAnyState(ctx, db, id)
}

// getProductAnyState is the admin fetch: no is_active filter.
func getProductAnyState(ctx context.Context, db *sql.DB, id string) (*models.Product, error) {
	p := &models.Product{}

	query := fmt.Sprintf(`
		SELECT %s,
		       c.name, c.slug,
		       COALESCE(r.avg_rating, 0), COALESCE(r.review_count, 0)
		FROM products p
		LEFT JOIN categories c ON c.id = p.category_id
		%s
		WHERE p.id = $1`,
		productColumns, ratingJoin)

	row := db.QueryRowContext(ctx, query, id)
	if err := scanProductRow(row, p); err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrProductNotFound
		}
		return nil, fmt.Errorf("get product: %w", err)
	}

	return p, nil
}

func DeleteProduct(ctx context.Context, db *sql.DB, id string) error {
	result, err := db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if affected == 0 {
		return database.ErrProductNotFound
	}

	return nil
}
