package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"ecommerce-backend/internal/auth"
	"ecommerce-backend/pkg/apperror"

	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"
)

const (
	bcryptCost = 10

	defaultListLimit = 20
	maxListLimit     = 100
)

type Conf struct {
	db *sql.DB
}

func NewConf(db *sql.DB) (Conf, error) {
	if db == nil {
		return Conf{}, fmt.Errorf("db is nil")
	}
	return Conf{db: db}, nil
}

func (c *Conf) InsertUser(ctx context.Context, nu NewUser) (User, error) {
	return c.insertUser(ctx, nu.Email, nu.Password, nu.Name, auth.RoleUser)
}

// InsertUserWithRole is the admin-create path; signup always inserts with
// the "user" role, this one can also mint admins.
func (c *Conf) InsertUserWithRole(ctx context.Context, nu AdminNewUser) (User, error) {
	role := nu.Role
	if role == "" {
		role = auth.RoleUser
	}
	return c.insertUser(ctx, nu.Email, nu.Password, nu.Name, role)
}

func (c *Conf) insertUser(ctx context.Context, email, password, name, role string) (User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	query := `
		INSERT INTO users (email, password_hash, name, role)
		VALUES ($1, $2, $3, $4)
		RETURNING id, email, password_hash, name, role, created_at, updated_at
	`
	var u User
	err = c.db.QueryRowContext(ctx, query, email, string(hash), name, role).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return User{}, apperror.Wrap(apperror.Conflict, "email is already registered", err)
		}
		return User{}, fmt.Errorf("failed to insert user: %w", err)
	}
	return u, nil
}

func (c *Conf) GetUserByEmail(ctx context.Context, email string) (User, error) {
	query := `
		SELECT id, email, password_hash, name, role, created_at, updated_at
		FROM users
		WHERE email = $1
	`
	var u User
	err := c.db.QueryRowContext(ctx, query, email).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, apperror.New(apperror.NotFound, "user not found")
		}
		return User{}, fmt.Errorf("failed to query user by email: %w", err)
	}
	return u, nil
}

func (c *Conf) GetUserByID(ctx context.Context, id int64) (User, error) {
	query := `
		SELECT id, email, password_hash, name, role, created_at, updated_at
		FROM users
		WHERE id = $1
	`
	var u User
	err := c.db.QueryRowContext(ctx, query, id).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, apperror.New(apperror.NotFound, "user not found")
		}
		return User{}, fmt.Errorf("failed to query user by id: %w", err)
	}
	return u, nil
}

// Authenticate verifies the email/password pair. A missing user and a wrong
// password produce the same error so callers cannot probe for accounts.
func (c *Conf) Authenticate(ctx context.Context, email, password string) (User, error) {
	u, err := c.GetUserByEmail(ctx, email)
	if err != nil {
		if apperror.KindOf(err) == apperror.NotFound {
			return User{}, apperror.New(apperror.Unauthenticated, "invalid credentials")
		}
		return User{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return User{}, apperror.New(apperror.Unauthenticated, "invalid credentials")
	}
	return u, nil
}

func (c *Conf) ListUsers(ctx context.Context, params ListParams) (ListResult, error) {
	params = params.clamp()
	where, args := searchFilter(params.Query)

	var total int
	if err := c.db.QueryRowContext(ctx, `SELECT count(*) FROM users`+where, args...).Scan(&total); err != nil {
		return ListResult{}, fmt.Errorf("failed to count users: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT id, email, password_hash, name, role, created_at, updated_at
		FROM users%s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d OFFSET $%d
	`, where, len(args)+1, len(args)+2)
	args = append(args, params.Limit, (params.Page-1)*params.Limit)

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return ListResult{}, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	items := []User{}
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Role, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return ListResult{}, fmt.Errorf("failed to scan user: %w", err)
		}
		items = append(items, u)
	}
	if err := rows.Err(); err != nil {
		return ListResult{}, fmt.Errorf("error iterating users: %w", err)
	}
	return ListResult{Items: items, Total: total, Page: params.Page, Limit: params.Limit}, nil
}

func (p ListParams) clamp() ListParams {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = defaultListLimit
	}
	if p.Limit > maxListLimit {
		p.Limit = maxListLimit
	}
	return p
}

func searchFilter(q string) (string, []any) {
	if q == "" {
		return "", nil
	}
	return " WHERE (email ILIKE $1 OR name ILIKE $1)", []any{"%" + q + "%"}
}

func (c *Conf) UpdateUserInDB(ctx context.Context, id int64, up UpdateUser) (User, error) {
	u, err := c.GetUserByID(ctx, id)
	if err != nil {
		return User{}, err
	}

	if up.Email != nil {
		u.Email = *up.Email
	}
	if up.Name != nil {
		u.Name = *up.Name
	}
	if up.Role != nil {
		u.Role = *up.Role
	}
	if up.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*up.Password), bcryptCost)
		if err != nil {
			return User{}, fmt.Errorf("failed to hash password: %w", err)
		}
		u.PasswordHash = string(hash)
	}

	query := `
		UPDATE users
		SET email = $1, name = $2, role = $3, password_hash = $4, updated_at = now()
		WHERE id = $5
		RETURNING updated_at
	`
	err = c.db.QueryRowContext(ctx, query, u.Email, u.Name, u.Role, u.PasswordHash, id).Scan(&u.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return User{}, apperror.Wrap(apperror.Conflict, "email is already registered", err)
		}
		return User{}, fmt.Errorf("failed to update user: %w", err)
	}
	return u, nil
}

func (c *Conf) DeleteUserFromDB(ctx context.Context, id int64) error {
	res, err := c.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return apperror.New(apperror.NotFound, "user not found")
	}
	return nil
}

// unique_violation, class 23
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
