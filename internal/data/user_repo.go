package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/target/petalcart/internal/data/pgxutil"
	domainauth "github.com/target/petalcart/internal/domain/auth"
	apperrors "github.com/target/petalcart/internal/errors"
)

// ErrUserNotFound is returned when a user is not found.
var ErrUserNotFound = apperrors.NotFound("user not found")

const userColumns = `id, email, name, password_hash, role, is_active, email_verified, created_at, updated_at`

// UserRepo provides database operations for storefront accounts.
type UserRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewUserRepo creates a new UserRepo instance with the given database connection.
func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

// NewUserRepoWithTimeProvider creates a UserRepo with a custom TimeProvider (useful for testing).
func NewUserRepoWithTimeProvider(db *sql.DB, timeProvider TimeProvider) *UserRepo {
	return &UserRepo{DB: db, timeProvider: timeProvider}
}

// Create inserts a new account. A duplicate email maps to a conflict error on field "email".
func (r *UserRepo) Create(ctx context.Context, req *domainauth.CreateUserRequest) (*domainauth.User, error) {
	if req == nil {
		return nil, errors.New("create user request is required")
	}
	role := req.Role
	if role != domainauth.RoleAdmin {
		role = domainauth.RoleClient
	}
	now := r.timeProvider.Now()

	q := `INSERT INTO users (email, name, password_hash, role, email_verified, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		RETURNING ` + userColumns
	u, err := r.queryOne(ctx, q,
		domainauth.NormalizeEmail(req.Email), req.Name, req.PasswordHash, string(role), req.EmailVerified, now)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", apperrors.MapDBError(err))
	}
	return u, nil
}

// GetByID retrieves an account by id.
func (r *UserRepo) GetByID(ctx context.Context, id int64) (*domainauth.User, error) {
	return r.get(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// GetByEmail retrieves an account by normalised email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domainauth.User, error) {
	return r.get(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, domainauth.NormalizeEmail(email))
}

// UpsertExternal creates an account for an IdP identity or refreshes name and role of an existing one.
// Password hashes of existing accounts are left untouched.
func (r *UserRepo) UpsertExternal(ctx context.Context, req *domainauth.CreateUserRequest) (*domainauth.User, error) {
	if req == nil {
		return nil, errors.New("upsert user request is required")
	}
	now := r.timeProvider.Now()
	q := `INSERT INTO users (email, name, role, email_verified, created_at, updated_at)
		VALUES ($1, $2, $3, TRUE, $4, $4)
		ON CONFLICT (email) DO UPDATE
		SET name = EXCLUDED.name, role = EXCLUDED.role, email_verified = TRUE, updated_at = EXCLUDED.updated_at
		RETURNING ` + userColumns
	u, err := r.queryOne(ctx, q, domainauth.NormalizeEmail(req.Email), req.Name, string(req.Role), now)
	if err != nil {
		return nil, fmt.Errorf("upsert user: %w", apperrors.MapDBError(err))
	}
	return u, nil
}

// SetRole changes the role of the account with email.
func (r *UserRepo) SetRole(ctx context.Context, email string, role domainauth.Role) (*domainauth.User, error) {
	if role != domainauth.RoleAdmin && role != domainauth.RoleClient {
		return nil, apperrors.ValidationField("role", "role must be client or admin")
	}
	q := `UPDATE users SET role = $2, updated_at = $3 WHERE email = $1 RETURNING ` + userColumns
	u, err := r.queryOne(ctx, q, domainauth.NormalizeEmail(email), string(role), r.timeProvider.Now())
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("set role: %w", apperrors.MapDBError(err))
	}
	return u, nil
}

func (r *UserRepo) get(ctx context.Context, q string, args ...any) (*domainauth.User, error) {
	u, err := r.queryOne(ctx, q, args...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (r *UserRepo) queryOne(ctx context.Context, q string, args ...any) (*domainauth.User, error) {
	var u domainauth.User
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, q, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		u, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[domainauth.User])
		return err
	})
	if err != nil {
		return nil, err
	}
	return &u, nil
}
