package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/hongminglow/church-portal-be/internal/models"
	"github.com/hongminglow/church-portal-be/internal/storage"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Ensure Store satisfies the storage.UserStore interface at compile time.
var _ storage.UserStore = (*Store)(nil)

// Store provides Postgres-backed credential lookups.
type Store struct {
	pool *pgxpool.Pool
}

// NewUserStore opens a pool and makes sure the users table exists.
func NewUserStore(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	s := &Store{pool: pool}
	if err := s.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return s, nil
}

// Close releases database resources.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if s.pool == nil {
		return errors.New("connection pool is nil")
	}
	return s.pool.Ping(ctx)
}

// ensureSchema creates the users table the portal shares with the CRUD side.
// Column changes belong to the migration tooling, not here.
func (s *Store) ensureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id BIGSERIAL PRIMARY KEY,
			email TEXT NOT NULL,
			display_name TEXT NOT NULL DEFAULT '',
			role TEXT NOT NULL DEFAULT 'member' CHECK (role IN ('member', 'admin')),
			password_hash TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS users_email_lower_unique_idx ON users (lower(email));`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// FindByEmail fetches a user by email address, ignoring case.
func (s *Store) FindByEmail(ctx context.Context, email string) (models.User, error) {
	const query = `
	SELECT id, email, display_name, role, password_hash, created_at
	FROM users
	WHERE lower(email) = lower($1);
	`
	row := s.pool.QueryRow(ctx, query, email)
	return scanUser(row)
}

// FindAdminByEmail fetches a user by email address only if it holds the admin role.
func (s *Store) FindAdminByEmail(ctx context.Context, email string) (models.User, error) {
	const query = `
	SELECT id, email, display_name, role, password_hash, created_at
	FROM users
	WHERE lower(email) = lower($1) AND role = $2;
	`
	row := s.pool.QueryRow(ctx, query, email, string(models.RoleAdmin))
	return scanUser(row)
}

func scanUser(row pgx.Row) (models.User, error) {
	var user models.User
	var role string
	if err := row.Scan(&user.ID, &user.Email, &user.DisplayName, &role, &user.PasswordHash, &user.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, storage.ErrNotFound
		}
		return models.User{}, fmt.Errorf("scan user: %w", err)
	}
	user.Role = models.Role(role)
	return user, nil
}
