package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Neetrino/clean-house/internal/models"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// PeriodStart maps a report period selector to its cutoff relative to now.
// Unrecognized values fall back to 30 days.
func PeriodStart(period string, now time.Time) time.Time {
	switch period {
	case "7d":
		return now.AddDate(0, 0, -7)
	case "30d":
		return now.AddDate(0, 0, -30)
	case "90d":
		return now.AddDate(0, 0, -90)
	case "1y":
		return now.AddDate(-1, 0, 0)
	default:
		return now.AddDate(0, 0, -30)
	}
}

type StatusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

type TopProduct struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	OrderCount int64           `json:"order_count"`
}

type DashboardOverview struct {
	TotalUsers    int64           `json:"total_users"`
	TotalOrders   int64           `json:"total_orders"`
	TotalProducts int64           `json:"total_products"`
	TotalRevenue  decimal.Decimal `json:"total_revenue"`
}

type Dashboard struct {
	Overview     DashboardOverview `json:"overview"`
	RecentUsers  []models.User     `json:"recent_users"`
	RecentOrders []models.Order    `json:"recent_orders"`
	TopProducts  []TopProduct      `json:"top_products"`
	OrderStats   []StatusCount     `json:"order_stats"`
}

// DashboardStats gathers the admin overview. The queries are independent
// reads, so they fan out in parallel; each goroutine writes its own field.
func DashboardStats(ctx context.Context, db *sql.DB, since time.Time) (*Dashboard, error) {
	d := &Dashboard{
		Overview:     DashboardOverview{TotalRevenue: decimal.Zero},
		RecentUsers:  []models.User{},
		RecentOrders: []models.Order{},
		TopProducts:  []TopProduct{},
		OrderStats:   []StatusCount{},
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM users WHERE created_at >= $1`,
			since).Scan(&d.Overview.TotalUsers)
		if err != nil {
			return fmt.Errorf("count users: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		err := db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM orders WHERE created_at >= $1`,
			since).Scan(&d.Overview.TotalOrders)
		if err != nil {
			return fmt.Errorf("count orders: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		err := db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM products WHERE is_active = TRUE`).
			Scan(&d.Overview.TotalProducts)
		if err != nil {
			return fmt.Errorf("count products: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		err := db.QueryRowContext(ctx, `
			SELECT COALESCE(SUM(total), 0)
			FROM orders
			WHERE created_at >= $1 AND payment_status = $2`,
			since, models.PaymentStatusPaid).Scan(&d.Overview.TotalRevenue)
		if err != nil {
			return fmt.Errorf("sum revenue: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		rows, err := db.QueryContext(ctx, `
			SELECT id, email, name, role, created_at, updated_at
			FROM users
			ORDER BY created_at DESC
			LIMIT 5`)
		if err != nil {
			return fmt.Errorf("recent users: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var u models.User
			if err := rows.Scan(&u.ID, &u.Email, &u.Name, &u.Role, &u.CreatedAt, &u.UpdatedAt); err != nil {
				return fmt.Errorf("scan user: %w", err)
			}
			d.RecentUsers = append(d.RecentUsers, u)
		}
		return rows.Err()
	})

	g.Go(func() error {
		orders, err := recentOrdersWithUser(ctx, db, "", 5)
		if err != nil {
			return err
		}
		d.RecentOrders = orders
		return nil
	})

	g.Go(func() error {
		rows, err := db.QueryContext(ctx, `
			SELECT p.id, p.name, p.price, COUNT(oi.id)
			FROM products p
			JOIN order_items oi ON oi.product_id = p.id
			WHERE p.is_active = TRUE
			GROUP BY p.id
			ORDER BY COUNT(oi.id) DESC
			LIMIT 5`)
		if err != nil {
			return fmt.Errorf("top products: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var tp TopProduct
			if err := rows.Scan(&tp.ID, &tp.Name, &tp.Price, &tp.OrderCount); err != nil {
				return fmt.Errorf("scan top product: %w", err)
			}
			d.TopProducts = append(d.TopProducts, tp)
		}
		return rows.Err()
	})

	g.Go(func() error {
		rows, err := db.QueryContext(ctx, `
			SELECT status, COUNT(*)
			FROM orders
			WHERE created_at >= $1
			GROUP BY status`,
			since)
		if err != nil {
			return fmt.Errorf("order stats: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var sc StatusCount
			if err := rows.Scan(&sc.Status, &sc.Count); err != nil {
				return fmt.Errorf("scan status count: %w", err)
			}
			d.OrderStats = append(d.OrderStats, sc)
		}
		return rows.Err()
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return d, nil
}

// RecentOrders returns the latest orders across all users, optionally
// filtered by status, each with its user and items.
func RecentOrders(ctx context.Context, db *sql.DB, status string, limit int) ([]models.Order, error) {
	if limit < 1 || limit > 100 {
		limit = 10
	}

	orders, err := recentOrdersWithUser(ctx, db, status, limit)
	if err != nil {
		return nil, err
	}

	for i := range orders {
		items, err := loadOrderItems(ctx, db, orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].Items = items
	}

	return orders, nil
}

func recentOrdersWithUser(ctx context.Context, db *sql.DB, status string, limit int) ([]models.Order, error) {
	query := fmt.Sprintf(`
		SELECT %s, u.id, u.email, u.name, u.role, u.created_at, u.updated_at
		FROM orders o
		JOIN users u ON u.id = o.user_id`,
		orderColumns)

	args := []interface{}{}
	if status != "" {
		args = append(args, status)
		query += fmt.Sprintf(" WHERE o.status = $%d", len(args))
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY o.created_at DESC LIMIT $%d", len(args))

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("recent orders: %w", err)
	}
	defer rows.Close()

	orders := []models.Order{}
	for rows.Next() {
		var (
			o models.Order
			u models.User
		)
		err := rows.Scan(
			&o.ID, &o.OrderNumber, &o.UserID, &o.ShippingAddressID, &o.BillingAddressID,
			&o.PaymentMethod, &o.Subtotal, &o.Tax, &o.Shipping, &o.Total, &o.Status,
			&o.PaymentStatus, &o.Notes, &o.CreatedAt, &o.UpdatedAt,
			&u.ID, &u.Email, &u.Name, &u.Role, &u.CreatedAt, &u.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		o.User = &u
		orders = append(orders, o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return orders, nil
}

// TopProducts ranks active products by how many order lines reference them
// within the period.
func TopProducts(ctx context.Context, db *sql.DB, since time.Time, limit int) ([]TopProduct, error) {
	if limit < 1 || limit > 100 {
		limit = 10
	}

	rows, err := db.QueryContext(ctx, `
		SELECT p.id, p.name, p.price, COUNT(oi.id)
		FROM products p
		JOIN order_items oi ON oi.product_id = p.id
		JOIN orders o ON o.id = oi.order_id
		WHERE p.is_active = TRUE AND o.created_at >= $1
		GROUP BY p.id
		ORDER BY COUNT(oi.id) DESC
		LIMIT $2`,
		since, limit)
	if err != nil {
		return nil, fmt.Errorf("top products: %w", err)
	}
	defer rows.Close()

	products := []TopProduct{}
	for rows.Next() {
		var tp TopProduct
		if err := rows.Scan(&tp.ID, &tp.Name, &tp.Price, &tp.OrderCount); err != nil {
			return nil, fmt.Errorf("scan top product: %w", err)
		}
		products = append(products, tp)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return products, nil
}

type SalesBucket struct {
	Date  string          `json:"date"`
	Total decimal.Decimal `json:"total"`
	Count int64           `json:"count"`
}

type SalesSummary struct {
	TotalRevenue      decimal.Decimal `json:"total_revenue"`
	TotalOrders       int64           `json:"total_orders"`
	AverageOrderValue decimal.Decimal `json:"average_order_value"`
}

type SalesReportResult struct {
	ReportData []SalesBucket `json:"report_data"`
	Summary    SalesSummary  `json:"summary"`
}

// SalesBucketKey maps an order timestamp to its report bucket. The week
// key is calendar day-of-month divided by seven, not an ISO week; that is
// the established reporting contract.
func SalesBucketKey(t time.Time, groupBy string) string {
	switch groupBy {
	case "week":
		week := (t.Day() + 6) / 7
		return fmt.Sprintf("%d-W%d", t.Year(), week)
	case "month":
		return fmt.Sprintf("%d-%02d", t.Year(), int(t.Month()))
	default: // day
		return t.Format("2006-01-02")
	}
}

type salesRow struct {
	Total     decimal.Decimal
	CreatedAt time.Time
}

// GroupSales buckets paid-order rows (assumed sorted by creation time) and
// derives the summary. The summary always equals the sums over buckets.
func GroupSales(rows []salesRow, groupBy string) SalesReportResult {
	buckets := []SalesBucket{}
	index := map[string]int{}

	summary := SalesSummary{
		TotalRevenue:      decimal.Zero,
		AverageOrderValue: decimal.Zero,
	}

	for _, row := range rows {
		key := SalesBucketKey(row.CreatedAt, groupBy)
		i, ok := index[key]
		if !ok {
			i = len(buckets)
			index[key] = i
			buckets = append(buckets, SalesBucket{Date: key, Total: decimal.Zero})
		}
		buckets[i].Total = buckets[i].Total.Add(row.Total)
		buckets[i].Count++

		summary.TotalRevenue = summary.TotalRevenue.Add(row.Total)
		summary.TotalOrders++
	}

	if summary.TotalOrders > 0 {
		summary.AverageOrderValue = summary.TotalRevenue.Div(decimal.NewFromInt(summary.TotalOrders))
	}

	return SalesReportResult{ReportData: buckets, Summary: summary}
}

// SalesReport aggregates paid orders since the cutoff into time buckets.
func SalesReport(ctx context.Context, db *sql.DB, since time.Time, groupBy string) (*SalesReportResult, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT total, created_at
		FROM orders
		WHERE created_at >= $1 AND payment_status = $2
		ORDER BY created_at`,
		since, models.PaymentStatusPaid)
	if err != nil {
		return nil, fmt.Errorf("sales report: %w", err)
	}
	defer rows.Close()

	var sales []salesRow
	for rows.Next() {
		var row salesRow
		if err := rows.Scan(&row.Total, &row.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan sales row: %w", err)
		}
		sales = append(sales, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	result := GroupSales(sales, groupBy)
	return &result, nil
}
