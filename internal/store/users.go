package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Neetrino/clean-house/internal/database"
	"github.com/Neetrino/clean-house/internal/models"
	"github.com/google/uuid"
)

func CreateUser(ctx context.Context, db *sql.DB, email, name, role string) (*models.User, error) {
	user := &models.User{
		ID:    uuid.New().String(),
		Email: email,
		Name:  name,
		Role:  role,
	}

	err := db.QueryRowContext(ctx, `
		INSERT INTO users (id, email, name, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING created_at, updated_at`,
		user.ID, email, name, role).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	return user, nil
}

func GetUser(ctx context.Context, db *sql.DB, id string) (*models.User, error) {
	user := &models.User{}

	err := db.QueryRowContext(ctx, `
		SELECT id, email, name, role, created_at, updated_at
		FROM users
		WHERE id = $1`,
		id).Scan(&user.ID, &user.Email, &user.Name, &user.Role, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, database.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	return user, nil
}

func ListUsers(ctx context.Context, db *sql.DB, page, pageSize int) (*OffsetPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}

	var total int64
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}

	rows, err := db.QueryContext(ctx, `
		SELECT id, email, name, role, created_at, updated_at
		FROM users
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`,
		pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var user models.User
		if err := rows.Scan(&user.ID, &user.Email, &user.Name, &user.Role, &user.CreatedAt, &user.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return NewOffsetPage(users, total, page, pageSize), nil
}

func CreateAddress(ctx context.Context, db *sql.DB, addr models.Address) (*models.Address, error) {
	addr.ID = uuid.New().String()

	_, err := db.ExecContext(ctx, `
		INSERT INTO addresses (id, user_id, label, line1, line2, city, postal_code, country)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		addr.ID, addr.UserID, addr.Label, addr.Line1, addr.Line2, addr.City, addr.PostalCode, addr.Country)
	if err != nil {
		return nil, fmt.Errorf("create address: %w", err)
	}

	return &addr, nil
}

func ListAddresses(ctx context.Context, db *sql.DB, userID string) ([]models.Address, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, user_id, label, line1, line2, city, postal_code, country
		FROM addresses
		WHERE user_id = $1
		ORDER BY label`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("list addresses: %w", err)
	}
	defer rows.Close()

	addresses := []models.Address{}
	for rows.Next() {
		var a models.Address
		if err := rows.Scan(&a.ID, &a.UserID, &a.Label, &a.Line1, &a.Line2, &a.City, &a.PostalCode, &a.Country); err != nil {
			return nil, fmt.Errorf("scan address: %w", err)
		}
		addresses = append(addresses, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return addresses, nil
}

// addressOwnedBy verifies the address exists and belongs to the user.
// Missing and not-owned are reported identically.
func addressOwnedBy(ctx context.Context, q queryer, addressID, userID string) error {
	var exists bool
	err := q.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM addresses WHERE id = $1 AND user_id = $2)`,
		addressID, userID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check address: %w", err)
	}
	if !exists {
		return database.ErrAddressNotFound
	}
	return nil
}

// queryer is the read surface shared by *sql.DB and *sql.Tx.
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}
