package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/iamqureshi/realtime-messaging-mern-chat-app/internal/models"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrUserExists   = errors.New("user already exists")
)

// UserRepository abstracts the session store: identities, credentials and
// refresh-token validity.
type UserRepository interface {
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	GetUserByID(ctx context.Context, userID int) (models.User, error)
	GetUserByLogin(ctx context.Context, login string) (models.User, error)
	GetUsersByIDs(ctx context.Context, userIDs []int) ([]models.User, error)
	SearchUsers(ctx context.Context, keyword string, excludeID int) ([]models.User, error)
	SetRefreshToken(ctx context.Context, userID int, token string) error
	ClearRefreshToken(ctx context.Context, userID int) error
}

// UserRepo is a sqlx implementation of UserRepository.
type UserRepo struct {
	db *sqlx.DB
}

// NewUserRepo constructs a UserRepo.
func NewUserRepo(db *sqlx.DB) *UserRepo {
	return &UserRepo{db: db}
}

const userColumns = `id, username, email, first_name, last_name, avatar, password_hash, refresh_token, created_at`

// CreateUser inserts a new account. Duplicate username/email maps to ErrUserExists.
func (r *UserRepo) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	query := `INSERT INTO users (username, email, first_name, last_name, avatar, password_hash)
        VALUES ($1, $2, $3, $4, $5, $6) RETURNING ` + userColumns
	var created models.User
	err := r.db.QueryRowxContext(ctx, query,
		user.Username, user.Email, user.FirstName, user.LastName, user.Avatar, user.PasswordHash,
	).StructScan(&created)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return models.User{}, ErrUserExists
		}
		return models.User{}, err
	}
	return created, nil
}

// GetUserByID fetches a single account.
func (r *UserRepo) GetUserByID(ctx context.Context, userID int) (models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE id=$1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}

// GetUserByLogin fetches an account by username or email.
func (r *UserRepo) GetUserByLogin(ctx context.Context, login string) (models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user,
		`SELECT `+userColumns+` FROM users WHERE username=LOWER($1) OR email=LOWER($1)`, login)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}

// GetUsersByIDs loads a batch of accounts; missing ids are skipped.
func (r *UserRepo) GetUsersByIDs(ctx context.Context, userIDs []int) ([]models.User, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	var users []models.User
	err := r.db.SelectContext(ctx, &users,
		`SELECT `+userColumns+` FROM users WHERE id = ANY($1)`, pq.Array(userIDs))
	return users, err
}

// SearchUsers matches username or email case-insensitively, excluding the caller.
func (r *UserRepo) SearchUsers(ctx context.Context, keyword string, excludeID int) ([]models.User, error) {
	var users []models.User
	err := r.db.SelectContext(ctx, &users,
		`SELECT `+userColumns+` FROM users
         WHERE id <> $2 AND (username ILIKE '%' || $1 || '%' OR email ILIKE '%' || $1 || '%')
         ORDER BY username ASC`, keyword, excludeID)
	return users, err
}

// SetRefreshToken persists the currently valid refresh token for the user.
func (r *UserRepo) SetRefreshToken(ctx context.Context, userID int, token string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET refresh_token=$2 WHERE id=$1`, userID, token)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrUserNotFound
	}
	return nil
}

// ClearRefreshToken invalidates the stored refresh token on logout.
func (r *UserRepo) ClearRefreshToken(ctx context.Context, userID int) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET refresh_token='' WHERE id=$1`, userID)
	return err
}
