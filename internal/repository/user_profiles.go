package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"iotcare-data/internal/domain"

	"github.com/jmoiron/sqlx"
)

const profileColumns = "user_id, date_of_birth, gender, address, address_detail, medical_history, significant_notes, current_status, created_at, updated_at"

// UserProfileRepository user_profiles 表访问
type UserProfileRepository interface {
	CreateProfile(ctx context.Context, p *domain.UserProfile) (*domain.UserProfile, error)
	GetProfile(ctx context.Context, userID string) (*domain.UserProfile, error)
	ListProfiles(ctx context.Context, limit, offset int) ([]domain.UserProfile, error)
	ListProfilesByGender(ctx context.Context, gender string, limit, offset int) ([]domain.UserProfile, error)
	ListProfilesByAge(ctx context.Context, minAge, maxAge int, today time.Time, limit, offset int) ([]domain.UserProfile, error)
	SearchMedicalHistory(ctx context.Context, keyword string, limit, offset int) ([]domain.UserProfile, error)
	UpdateProfile(ctx context.Context, userID string, patch *domain.UserProfileUpdateInput, now time.Time) (*domain.UserProfile, error)
	DeleteProfile(ctx context.Context, userID string) (bool, error)
}

// PostgresUserProfilesRepository UserProfileRepository 的 PostgreSQL 实现
type PostgresUserProfilesRepository struct {
	sess Session
}

// NewPostgresUserProfilesRepository 创建用户档案 Repository
func NewPostgresUserProfilesRepository(sess Session) *PostgresUserProfilesRepository {
	return &PostgresUserProfilesRepository{sess: sess}
}

// 确保实现了接口
var _ UserProfileRepository = (*PostgresUserProfilesRepository)(nil)

func (r *PostgresUserProfilesRepository) CreateProfile(ctx context.Context, p *domain.UserProfile) (*domain.UserProfile, error) {
	query := `INSERT INTO user_profiles (` + profileColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + profileColumns

	var out domain.UserProfile
	err := withTx(ctx, r.sess, func(tx *sqlx.Tx) error {
		return tx.QueryRowxContext(ctx, query,
			p.UserID, p.DateOfBirth, p.Gender, p.Address, p.AddressDetail,
			p.MedicalHistory, p.SignificantNotes, p.CurrentStatus, p.CreatedAt, p.UpdatedAt,
		).StructScan(&out)
	})
	if err != nil {
		return nil, normalize("user-profile", fmt.Errorf("insert profile: %w", err))
	}
	out.Decorate()
	return &out, nil
}

func (r *PostgresUserProfilesRepository) GetProfile(ctx context.Context, userID string) (*domain.UserProfile, error) {
	return getOne[domain.UserProfile](ctx, r.sess, "user-profile",
		`SELECT `+profileColumns+` FROM user_profiles WHERE user_id = $1`, userID)
}

func (r *PostgresUserProfilesRepository) ListProfiles(ctx context.Context, limit, offset int) ([]domain.UserProfile, error) {
	return getMany[domain.UserProfile](ctx, r.sess, "user-profile",
		`SELECT `+profileColumns+` FROM user_profiles ORDER BY created_at DESC, user_id LIMIT $1 OFFSET $2`,
		limit, offset)
}

func (r *PostgresUserProfilesRepository) ListProfilesByGender(ctx context.Context, gender string, limit, offset int) ([]domain.UserProfile, error) {
	return getMany[domain.UserProfile](ctx, r.sess, "user-profile",
		`SELECT `+profileColumns+` FROM user_profiles WHERE gender = $1 ORDER BY created_at DESC, user_id LIMIT $2 OFFSET $3`,
		gender, limit, offset)
}

// ListProfilesByAge 年龄在 [minAge, maxAge] 内：出生日期在 (today-(maxAge+1)年, today-minAge年]
func (r *PostgresUserProfilesRepository) ListProfilesByAge(ctx context.Context, minAge, maxAge int, today time.Time, limit, offset int) ([]domain.UserProfile, error) {
	latest := domain.Date{Time: today.AddDate(-minAge, 0, 0)}
	earliest := domain.Date{Time: today.AddDate(-(maxAge + 1), 0, 1)}
	return getMany[domain.UserProfile](ctx, r.sess, "user-profile",
		`SELECT `+profileColumns+` FROM user_profiles
		WHERE date_of_birth >= $1 AND date_of_birth <= $2
		ORDER BY date_of_birth DESC, user_id LIMIT $3 OFFSET $4`,
		earliest, latest, limit, offset)
}

func (r *PostgresUserProfilesRepository) SearchMedicalHistory(ctx context.Context, keyword string, limit, offset int) ([]domain.UserProfile, error) {
	return getMany[domain.UserProfile](ctx, r.sess, "user-profile",
		`SELECT `+profileColumns+` FROM user_profiles
		WHERE medical_history ILIKE '%' || $1 || '%'
		ORDER BY created_at DESC, user_id LIMIT $2 OFFSET $3`,
		escapeLike(keyword), limit, offset)
}

func (r *PostgresUserProfilesRepository) UpdateProfile(ctx context.Context, userID string, patch *domain.UserProfileUpdateInput, now time.Time) (*domain.UserProfile, error) {
	sets, args := setClause(patch, 3)
	if len(sets) == 0 {
		return r.GetProfile(ctx, userID)
	}
	sets = append(sets, "updated_at = $2")
	query := `UPDATE user_profiles SET ` + strings.Join(sets, ", ") + ` WHERE user_id = $1 RETURNING ` + profileColumns
	return updateOne[domain.UserProfile](ctx, r.sess, "user-profile", query, append([]any{userID, now}, args...)...)
}

func (r *PostgresUserProfilesRepository) DeleteProfile(ctx context.Context, userID string) (bool, error) {
	return deleteOne(ctx, r.sess, "user-profile", `DELETE FROM user_profiles WHERE user_id = $1`, userID)
}

// escapeLike 转义 LIKE 通配符
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
