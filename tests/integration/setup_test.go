package integration

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/Neetrino/clean-house/internal/database"
	"github.com/Neetrino/clean-house/internal/models"
	"github.com/Neetrino/clean-house/internal/store"
)

func setupTestDB(t *testing.T) (*sql.DB, func()) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:14-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "testuser",
			"POSTGRES_PASSWORD": "testpass",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	postgres, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start postgres container: %v", err)
	}

	host, err := postgres.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := postgres.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	dsn := fmt.Sprintf("postgres://testuser:testpass@%s:%s/testdb?sslmode=disable", host, port.Port())

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}

	if err := db.Ping(); err != nil {
		t.Fatalf("Failed to ping database: %v", err)
	}

	if err := database.MigrateUp(db, "../../migrations"); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	cleanup := func() {
		if err := db.Close(); err != nil {
			t.Logf("Failed to close database: %v", err)
		}
		if err := postgres.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	}

	return db, cleanup
}

func seedUser(t *testing.T, db *sql.DB, email string) *models.User {
	t.Helper()

	user, err := store.CreateUser(context.Background(), db, email, "Test User", models.RoleUser)
	if err != nil {
		t.Fatalf("Create user: %v", err)
	}
	return user
}

func seedAddress(t *testing.T, db *sql.DB, userID string) *models.Address {
	t.Helper()

	addr, err := store.CreateAddress(context.Background(), db, models.Address{
		UserID:     userID,
		Label:      "home",
		Line1:      "1 Test Street",
		City:       "Yerevan",
		PostalCode: "0001",
		Country:    "AM",
	})
	if err != nil {
		t.Fatalf("Create address: %v", err)
	}
	return addr
}

func seedProduct(t *testing.T, db *sql.DB, sku string, price int64) *models.Product {
	t.Helper()

	product, err := store.CreateProduct(context.Background(), db, store.CreateProductParams{
		SKU:   sku,
		Name:  "Product " + sku,
		Price: decimal.NewFromInt(price),
	})
	if err != nil {
		t.Fatalf("Create product: %v", err)
	}
	return product
}

func seedVariant(t *testing.T, db *sql.DB, productID, name string, price int64) string {
	t.Helper()

	id := uuid.New().String()
	_, err := db.ExecContext(context.Background(), `
		INSERT INTO product_variants (id, product_id, name, price, attributes, is_active)
		VALUES ($1, $2, $3, $4, '{}', TRUE)`,
		id, productID, name, decimal.NewFromInt(price))
	if err != nil {
		t.Fatalf("Create variant: %v", err)
	}
	return id
}

func seedCategory(t *testing.T, db *sql.DB, name, slug string) string {
	t.Helper()

	id := uuid.New().String()
	_, err := db.ExecContext(context.Background(), `
		INSERT INTO categories (id, name, slug, description, is_active)
		VALUES ($1, $2, $3, '', TRUE)`,
		id, name, slug)
	if err != nil {
		t.Fatalf("Create category: %v", err)
	}
	return id
}

func seedReview(t *testing.T, db *sql.DB, productID, userID string, rating int) {
	t.Helper()

	_, err := db.ExecContext(context.Background(), `
		INSERT INTO reviews (id, product_id, user_id, rating, comment)
		VALUES ($1, $2, $3, $4, '')`,
		uuid.New().String(), productID, userID, rating)
	if err != nil {
		t.Fatalf("Create review: %v", err)
	}
}

// placeOrder fills the user's cart with quantity of the product and checks out.
func placeOrder(t *testing.T, db *sql.DB, user *models.User, productID string, quantity int) *models.Order {
	t.Helper()

	ctx := context.Background()

	addr := seedAddress(t, db, user.ID)

	_, err := store.AddToCart(ctx, db, store.AddToCartParams{
		UserID:    user.ID,
		ProductID: productID,
		Quantity:  quantity,
	})
	if err != nil {
		t.Fatalf("Add to cart: %v", err)
	}

	order, err := store.CreateOrder(ctx, db, store.CreateOrderParams{
		UserID:            user.ID,
		ShippingAddressID: addr.ID,
		BillingAddressID:  addr.ID,
		PaymentMethod:     "card",
	})
	if err != nil {
		t.Fatalf("Create order: %v", err)
	}
	return order
}
