package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"iotcare-data/internal/domain"

	"github.com/jmoiron/sqlx"
)

const userColumns = "user_id, user_name, email, phone_number, user_role, created_at"

// UserRepository users 表访问
type UserRepository interface {
	CreateUser(ctx context.Context, u *domain.User) (*domain.User, error)
	GetUser(ctx context.Context, userID string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	ListUsers(ctx context.Context, role string, limit, offset int) ([]domain.User, error)
	UpdateUser(ctx context.Context, userID string, patch *domain.UserUpdateInput) (*domain.User, error)
	UpdateUserRole(ctx context.Context, userID, role string) (*domain.User, error)
	DeleteUser(ctx context.Context, userID string) (bool, error)
	ListUserDevices(ctx context.Context, userID string) ([]domain.Device, error)
}

// PostgresUserRepository UserRepository 的 PostgreSQL 实现
type PostgresUserRepository struct {
	sess Session
}

// NewPostgresUserRepository 创建用户 Repository
func NewPostgresUserRepository(sess Session) *PostgresUserRepository {
	return &PostgresUserRepository{sess: sess}
}

// 确保实现了接口
var _ UserRepository = (*PostgresUserRepository)(nil)

func (r *PostgresUserRepository) CreateUser(ctx context.Context, u *domain.User) (*domain.User, error) {
	query := `INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + userColumns

	var out domain.User
	err := withTx(ctx, r.sess, func(tx *sqlx.Tx) error {
		return tx.QueryRowxContext(ctx, query,
			u.UserID, u.UserName, u.Email, u.PhoneNumber, u.UserRole, u.CreatedAt,
		).StructScan(&out)
	})
	if err != nil {
		return nil, normalize("user", fmt.Errorf("insert user: %w", err))
	}
	return &out, nil
}

func (r *PostgresUserRepository) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	return getOne[domain.User](ctx, r.sess, "user",
		`SELECT `+userColumns+` FROM users WHERE user_id = $1`, userID)
}

func (r *PostgresUserRepository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return getOne[domain.User](ctx, r.sess, "user",
		`SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email)
}

func (r *PostgresUserRepository) ListUsers(ctx context.Context, role string, limit, offset int) ([]domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users`
	args := []any{}
	if role != "" {
		query += ` WHERE user_role = $1`
		args = append(args, role)
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC, user_id ASC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)
	return getMany[domain.User](ctx, r.sess, "user", query, args...)
}

func (r *PostgresUserRepository) UpdateUser(ctx context.Context, userID string, patch *domain.UserUpdateInput) (*domain.User, error) {
	sets, args := setClause(patch, 2)
	if len(sets) == 0 {
		return r.GetUser(ctx, userID)
	}
	query := `UPDATE users SET ` + strings.Join(sets, ", ") + ` WHERE user_id = $1 RETURNING ` + userColumns
	return updateOne[domain.User](ctx, r.sess, "user", query, append([]any{userID}, args...)...)
}

func (r *PostgresUserRepository) UpdateUserRole(ctx context.Context, userID, role string) (*domain.User, error) {
	query := `UPDATE users SET user_role = $2 WHERE user_id = $1 RETURNING ` + userColumns
	return updateOne[domain.User](ctx, r.sess, "user", query, userID, role)
}

func (r *PostgresUserRepository) DeleteUser(ctx context.Context, userID string) (bool, error) {
	return deleteOne(ctx, r.sess, "user", `DELETE FROM users WHERE user_id = $1`, userID)
}

func (r *PostgresUserRepository) ListUserDevices(ctx context.Context, userID string) ([]domain.Device, error) {
	return getMany[domain.Device](ctx, r.sess, "device",
		`SELECT `+deviceColumns+` FROM devices WHERE user_id = $1 ORDER BY device_id`, userID)
}

// getOne 查询单行；不存在时返回 nil, nil
func getOne[T any](ctx context.Context, q querier, record, query string, args ...any) (*T, error) {
	var out T
	err := q.QueryRowxContext(ctx, query, args...).StructScan(&out)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, normalize(record, fmt.Errorf("query %s: %w", record, err))
	}
	decorate(&out)
	return &out, nil
}

func getMany[T any](ctx context.Context, q querier, record, query string, args ...any) ([]T, error) {
	rows, err := q.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, normalize(record, fmt.Errorf("query %s: %w", record, err))
	}
	defer rows.Close()

	out := []T{}
	for rows.Next() {
		var v T
		if err := rows.StructScan(&v); err != nil {
			return nil, normalize(record, fmt.Errorf("scan %s: %w", record, err))
		}
		decorate(&v)
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, normalize(record, err)
	}
	return out, nil
}

// updateOne 在事务中执行 UPDATE ... RETURNING；不存在时返回 nil, nil
func updateOne[T any](ctx context.Context, sess Session, record, query string, args ...any) (*T, error) {
	var out *T
	err := withTx(ctx, sess, func(tx *sqlx.Tx) error {
		v, err := getOne[T](ctx, tx, record, query, args...)
		out = v
		return err
	})
	if err != nil {
		return nil, normalize(record, err)
	}
	return out, nil
}

func deleteOne(ctx context.Context, sess Session, record, query string, args ...any) (bool, error) {
	var affected int64
	err := withTx(ctx, sess, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return false, normalize(record, fmt.Errorf("delete %s: %w", record, err))
	}
	return affected > 0, nil
}
