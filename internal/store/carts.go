package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Neetrino/clean-house/internal/database"
	"github.com/Neetrino/clean-house/internal/models"
	"github.com/Neetrino/clean-house/internal/pricing"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// GetCart returns the user's cart with fully hydrated lines and computed
// totals, creating an empty cart on first access.
func GetCart(ctx context.Context, db *sql.DB, userID string) (*models.Cart, error) {
	cart, err := getOrCreateCart(ctx, db, userID)
	if err != nil {
		return nil, err
	}

	items, err := loadCartItems(ctx, db, cart.ID)
	if err != nil {
		return nil, err
	}

	cart.Items = items
	cart.Subtotal, cart.TotalItems = ComputeCartTotals(items)

	return cart, nil
}

// ComputeCartTotals sums effective unit price times quantity over the
// lines. Variant price overrides product price wherever a variant is set.
func ComputeCartTotals(items []models.CartItem) (decimal.Decimal, int) {
	subtotal := decimal.Zero
	totalItems := 0

	for _, item := range items {
		subtotal = subtotal.Add(pricing.LineTotal(item.EffectiveUnitPrice(), item.Quantity))
		totalItems += item.Quantity
	}

	return subtotal, totalItems
}

type AddToCartParams struct {
	UserID    string
	ProductID string
	VariantID *string
	Quantity  int
}

// AddToCart adds quantity of (product, variant) to the user's cart. An
// existing line for the same combination is incremented, never duplicated:
// the insert upserts against the unique line index, so two concurrent adds
// cannot race into two rows.
func AddToCart(ctx context.Context, db *sql.DB, params AddToCartParams) (*models.CartItem, error) {
	if params.Quantity < 1 {
		return nil, database.ErrInvalidQuantity
	}

	item := &models.CartItem{
		ProductID: params.ProductID,
		VariantID: params.VariantID,
	}

	err := db.QueryRowContext(ctx, `
		SELECT id, name, price, images, is_active
		FROM products
		WHERE id = $1 AND is_active = TRUE`,
		params.ProductID).Scan(
		&item.Product.ID, &item.Product.Name, &item.Product.Price,
		pq.Array(&item.Product.Images), &item.Product.IsActive)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrProductNotFound
		}
		return nil, fmt.Errorf("get product: %w", err)
	}

	if params.VariantID != nil {
		variant := &models.CartVariant{}
		err := db.QueryRowContext(ctx, `
			SELECT id, name, price, attributes
			FROM product_variants
			WHERE id = $1 AND product_id = $2 AND is_active = TRUE`,
			*params.VariantID, params.ProductID).Scan(
			&variant.ID, &variant.Name, &variant.Price, &variant.Attributes)
		if err != nil {
			if err == sql.ErrNoRows {
				return nil, database.ErrVariantNotFound
			}
			return nil, fmt.Errorf("get variant: %w", err)
		}
		item.Variant = variant
	}

	err = database.WithRetry(ctx, db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		cart, err := getOrCreateCart(ctx, tx, params.UserID)
		if err != nil {
			return err
		}
		item.CartID = cart.ID

		return tx.QueryRowContext(ctx, `
			INSERT INTO cart_items (id, cart_id, product_id, variant_id, quantity, created_at)
			VALUES ($1, $2, $3, $4, $5, NOW())
			ON CONFLICT (cart_id, product_id, COALESCE(variant_id, ''))
			DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity
			RETURNING id, quantity, created_at`,
			uuid.New().String(), cart.ID, params.ProductID, params.VariantID, params.Quantity).
			Scan(&item.ID, &item.Quantity, &item.CreatedAt)
	})
	if err != nil {
		return nil, fmt.Errorf("add cart item: %w", err)
	}

	return item, nil
}

// UpdateCartItem replaces the quantity of a line in the user's cart. It
// does not re-check product activity; the line was validated when added.
func UpdateCartItem(ctx context.Context, db *sql.DB, userID, itemID string, quantity int) (*models.CartItem, error) {
	if quantity < 1 {
		return nil, database.ErrInvalidQuantity
	}

	result, err := db.ExecContext(ctx, `
		UPDATE cart_items ci
		SET quantity = $1
		FROM carts c
		WHERE ci.id = $2 AND ci.cart_id = c.id AND c.user_id = $3`,
		quantity, itemID, userID)
	if err != nil {
		return nil, fmt.Errorf("update cart item: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("get rows affected: %w", err)
	}
	if affected == 0 {
		return nil, database.ErrCartItemNotFound
	}

	return getCartItem(ctx, db, itemID)
}

// RemoveFromCart deletes a line from the user's cart.
func RemoveFromCart(ctx context.Context, db *sql.DB, userID, itemID string) error {
	result, err := db.ExecContext(ctx, `
		DELETE FROM cart_items ci
		USING carts c
		WHERE ci.id = $1 AND ci.cart_id = c.id AND c.user_id = $2`,
		itemID, userID)
	if err != nil {
		return fmt.Errorf("remove cart item: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if affected == 0 {
		return database.ErrCartItemNotFound
	}

	return nil
}

// ClearCart removes every line from the user's cart. The cart row itself
// survives. A missing or already-empty cart is a no-op.
func ClearCart(ctx context.Context, db *sql.DB, userID string) error {
	_, err := db.ExecContext(ctx, `
		DELETE FROM cart_items ci
		USING carts c
		WHERE ci.cart_id = c.id AND c.user_id = $1`,
		userID)
	if err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}

	return nil
}

func getOrCreateCart(ctx context.Context, q queryer, userID string) (*models.Cart, error) {
	cart := &models.Cart{UserID: userID}

	// The no-op DO UPDATE makes the insert return the existing row, so
	// first access and every later access are the same statement.
	err := q.QueryRowContext(ctx, `
		INSERT INTO carts (id, user_id, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())
		ON CONFLICT (user_id) DO UPDATE SET updated_at = carts.updated_at
		RETURNING id, created_at, updated_at`,
		uuid.New().String(), userID).Scan(&cart.ID, &cart.CreatedAt, &cart.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("get or create cart: %w", err)
	}

	return cart, nil
}

const cartItemQuery = `
	SELECT ci.id, ci.cart_id, ci.product_id, ci.variant_id, ci.quantity, ci.created_at,
	       p.id, p.name, p.price, p.images, p.is_active,
	       v.id, v.name, v.price, v.attributes
	FROM cart_items ci
	JOIN products p ON p.id = ci.product_id
	LEFT JOIN product_variants v ON v.id = ci.variant_id`

func scanCartItem(rows interface {
	Scan(dest ...interface{}) error
}, item *models.CartItem) error {
	var (
		variantID   sql.NullString
		vID, vName  sql.NullString
		vPrice      decimal.NullDecimal
		vAttributes []byte
	)

	err := rows.Scan(
		&item.ID, &item.CartID, &item.ProductID, &variantID, &item.Quantity, &item.CreatedAt,
		&item.Product.ID, &item.Product.Name, &item.Product.Price,
		pq.Array(&item.Product.Images), &item.Product.IsActive,
		&vID, &vName, &vPrice, &vAttributes,
	)
	if err != nil {
		return err
	}

	if variantID.Valid {
		item.VariantID = &variantID.String
	}
	if vID.Valid {
		item.Variant = &models.CartVariant{
			ID:         vID.String,
			Name:       vName.String,
			Price:      vPrice.Decimal,
			Attributes: vAttributes,
		}
	}

	return nil
}

func loadCartItems(ctx context.Context, q queryer, cartID string) ([]models.CartItem, error) {
	rows, err := q.QueryContext(ctx, cartItemQuery+`
		WHERE ci.cart_id = $1
		ORDER BY ci.created_at`,
		cartID)
	if err != nil {
		return nil, fmt.Errorf("load cart items: %w", err)
	}
	defer rows.Close()

	items := []models.CartItem{}
	for rows.Next() {
		var item models.CartItem
		if err := scanCartItem(rows, &item); err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return items, nil
}

func getCartItem(ctx context.Context, db *sql.DB, itemID string) (*models.CartItem, error) {
	item := &models.CartItem{}

	row := db.QueryRowContext(ctx, cartItemQuery+` WHERE ci.id = $1`, itemID)
	if err := scanCartItem(row, item); err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrCartItemNotFound
		}
		return nil, fmt.Errorf("get cart item: %w", err)
	}

	return item, nil
}
