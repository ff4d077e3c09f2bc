package store

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/Neetrino/clean-house/internal/database"
	"github.com/Neetrino/clean-house/internal/models"
	"github.com/Neetrino/clean-house/internal/pricing"
	"github.com/google/uuid"
)

const orderNumberPrefix = "CH"

const orderNumberAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// GenerateOrderNumber builds the human-readable order number: prefix,
// millisecond timestamp, four random alphanumerics. The unique index on
// orders.order_number backs it; a fresh number is generated on every
// checkout attempt, so a collision just burns one retry.
func GenerateOrderNumber() string {
	suffix := make([]byte, 4)
	for i := range suffix {
		suffix[i] = orderNumberAlphabet[rand.Intn(len(orderNumberAlphabet))]
	}
	return fmt.Sprintf("%s%d%s", orderNumberPrefix, time.Now().UnixMilli(), suffix)
}

type CreateOrderParams struct {
	UserID            string
	ShippingAddressID string
	BillingAddressID  string
	PaymentMethod     string
	Notes             string
}

// CreateOrder converts the user's cart into an immutable priced order.
// Price snapshot, order insert and cart clear happen in one retried
// serializable transaction: a failure anywhere leaves both the order
// absent and the cart intact.
func CreateOrder(ctx context.Context, db *sql.DB, params CreateOrderParams) (*models.Order, error) {
	// An order-number collision aborts the whole transaction, so the retry
	// has to restart it; each attempt generates a fresh number.
	var order *models.Order
	var err error
	for attempt := 0; attempt < 3; attempt++ {
		order, err = createOrderOnce(ctx, db, params)
		if err == nil || !database.IsUniqueViolation(err, "orders_order_number_key") {
			return order, err
		}
	}
	return nil, err
}

func createOrderOnce(ctx context.Context, db *sql.DB, params CreateOrderParams) (*models.Order, error) {
	var orderID string

	err := database.WithRetry(ctx, db, database.TxOptions{
		IsolationLevel: sql.LevelSerializable,
		MaxRetries:     3,
	}, func(tx *sql.Tx) error {
		if err := addressOwnedBy(ctx, tx, params.ShippingAddressID, params.UserID); err != nil {
			return err
		}
		if err := addressOwnedBy(ctx, tx, params.BillingAddressID, params.UserID); err != nil {
			return err
		}

		var cartID string
		err := tx.QueryRowContext(ctx,
			`SELECT id FROM carts WHERE user_id = $1`,
			params.UserID).Scan(&cartID)
		if err != nil {
			if err == sql.ErrNoRows {
				return database.ErrEmptyCart
			}
			return fmt.Errorf("get cart: %w", err)
		}

		lines, err := loadCartItems(ctx, tx, cartID)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return database.ErrEmptyCart
		}

		// Effective unit prices are resolved now; later price changes
		// never touch the order.
		subtotal, _ := ComputeCartTotals(lines)
		quote := pricing.QuoteSubtotal(subtotal)

		orderID = uuid.New().String()
		orderNumber := GenerateOrderNumber()

		_, err = tx.ExecContext(ctx, `
			INSERT INTO orders (id, order_number, user_id, shipping_address_id,
			                    billing_address_id, payment_method, subtotal, tax,
			                    shipping, total, status, payment_status, notes,
			                    created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW(), NOW())`,
			orderID, orderNumber, params.UserID, params.ShippingAddressID,
			params.BillingAddressID, params.PaymentMethod, quote.Subtotal, quote.Tax,
			quote.Shipping, quote.Total, models.OrderStatusPending,
			models.PaymentStatusPending, params.Notes)
		if err != nil {
			return fmt.Errorf("create order: %w", err)
		}

		for _, line := range lines {
			unitPrice := line.EffectiveUnitPrice()
			_, err = tx.ExecContext(ctx, `
				INSERT INTO order_items (id, order_id, product_id, variant_id,
				                         product_name, quantity, unit_price, total)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
				uuid.New().String(), orderID, line.ProductID, line.VariantID,
				line.Product.Name, line.Quantity, unitPrice,
				pricing.LineTotal(unitPrice, line.Quantity))
			if err != nil {
				return fmt.Errorf("create order item: %w", err)
			}
		}

		_, err = tx.ExecContext(ctx,
			`DELETE FROM cart_items WHERE cart_id = $1`,
			cartID)
		if err != nil {
			return fmt.Errorf("clear cart: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return getOrderByID(ctx, db, orderID)
}

// GetOrder fetches one of the caller's orders with hydrated items. Orders
// belonging to other users are reported as missing.
func GetOrder(ctx context.Context, db *sql.DB, userID, orderID string) (*models.Order, error) {
	order, err := getOrderByID(ctx, db, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, database.ErrOrderNotFound
	}
	return order, nil
}

type ListOrdersParams struct {
	Status string
	Page   int
	Limit  int
}

// ListOrders returns the user's orders, newest first, with items.
func ListOrders(ctx context.Context, db *sql.DB, userID string, params ListOrdersParams) (*OffsetPage, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.Limit < 1 || params.Limit > 100 {
		params.Limit = 10
	}

	where := "o.user_id = $1"
	args := []interface{}{userID}
	if params.Status != "" {
		args = append(args, params.Status)
		where += fmt.Sprintf(" AND o.status = $%d", len(args))
	}

	var total int64
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM orders o WHERE "+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count orders: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM orders o
		WHERE %s
		ORDER BY o.created_at DESC
		LIMIT $%d OFFSET $%d`,
		orderColumns, where, len(args)+1, len(args)+2)

	args = append(args, params.Limit, (params.Page-1)*params.Limit)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := []models.Order{}
	for rows.Next() {
		var o models.Order
		if err := scanOrder(rows, &o); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	for i := range orders {
		items, err := loadOrderItems(ctx, db, orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].Items = items
	}

	return NewOffsetPage(orders, total, params.Page, params.Limit), nil
}

// UpdateOrderStatus is the privileged partial update: either field may be
// nil to leave it unchanged. Any transition is allowed here; only the
// customer-facing cancel path enforces rules.
func UpdateOrderStatus(ctx context.Context, db *sql.DB, orderID string, status, paymentStatus *string) (*models.Order, error) {
	sets := []string{"updated_at = NOW()"}
	var args []interface{}

	if status != nil {
		args = append(args, *status)
		sets = append(sets, fmt.Sprintf("status = $%d", len(args)))
	}
	if paymentStatus != nil {
		args = append(args, *paymentStatus)
		sets = append(sets, fmt.Sprintf("payment_status = $%d", len(args)))
	}

	args = append(args, orderID)
	query := fmt.Sprintf(`UPDATE orders SET %s WHERE id = $%d`,
		strings.Join(sets, ", "), len(args))

	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("get rows affected: %w", err)
	}
	if affected == 0 {
		return nil, database.ErrOrderNotFound
	}

	return getOrderByID(ctx, db, orderID)
}

// CancelOrder sets the caller's order to CANCELLED. Already-cancelled,
// shipped and delivered orders are refused. The status check and the
// update run in one transaction so two racing cancels cannot both succeed.
func CancelOrder(ctx context.Context, db *sql.DB, userID, orderID string) (*models.Order, error) {
	err := database.WithTransaction(ctx, db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		var status string
		err := tx.QueryRowContext(ctx,
			`SELECT status FROM orders WHERE id = $1 AND user_id = $2 FOR UPDATE`,
			orderID, userID).Scan(&status)
		if err != nil {
			if err == sql.ErrNoRows {
				return database.ErrOrderNotFound
			}
			return fmt.Errorf("get order: %w", err)
		}

		if status == models.OrderStatusCancelled {
			return database.ErrOrderAlreadyCancelled
		}
		if !models.CanCancel(status) {
			return database.ErrOrderNotCancellable
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2`,
			models.OrderStatusCancelled, orderID)
		if err != nil {
			return fmt.Errorf("cancel order: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return getOrderByID(ctx, db, orderID)
}

const orderColumns = `
	o.id, o.order_number, o.user_id, o.shipping_address_id, o.billing_address_id,
	o.payment_method, o.subtotal, o.tax, o.shipping, o.total, o.status,
	o.payment_status, o.notes, o.created_at, o.updated_at`

func scanOrder(rows interface {
	Scan(dest ...interface{}) error
}, o *models.Order) error {
	return rows.Scan(
		&o.ID, &o.OrderNumber, &o.UserID, &o.ShippingAddressID, &o.BillingAddressID,
		&o.PaymentMethod, &o.Subtotal, &o.Tax, &o.Shipping, &o.Total, &o.Status,
		&o.PaymentStatus, &o.Notes, &o.CreatedAt, &o.UpdatedAt,
	)
}

func getOrderByID(ctx context.Context, db *sql.DB, orderID string) (*models.Order, error) {
	o := &models.Order{}

	row := db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT %s FROM orders o WHERE o.id = $1`, orderColumns),
		orderID)
	if err := scanOrder(row, o); err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	items, err := loadOrderItems(ctx, db, orderID)
	if err != nil {
		return nil, err
	}
	o.Items = items

	return o, nil
}

func loadOrderItems(ctx context.Context, q queryer, orderID string) ([]models.OrderItem, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, order_id, product_id, variant_id, product_name, quantity, unit_price, total
		FROM order_items
		WHERE order_id = $1
		ORDER BY product_name`,
		orderID)
	if err != nil {
		return nil, fmt.Errorf("load order items: %w", err)
	}
	defer rows.Close()

	items := []models.OrderItem{}
	for rows.Next() {
		var (
			item      models.OrderItem
			variantID sql.NullString
		)
		err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &variantID,
			&item.ProductName, &item.Quantity, &item.UnitPrice, &item.Total)
		if err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		if variantID.Valid {
			item.VariantID = &variantID.String
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return items, nil
}
