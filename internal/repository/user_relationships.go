package repository

import (
	"context"
	"fmt"
	"time"

	"iotcare-data/internal/domain"

	"github.com/jmoiron/sqlx"
)

const relationshipColumns = "relationship_id, subject_user_id, target_user_id, relationship_type, status, created_at, updated_at"

// UserRelationshipRepository user_relationships 表访问
type UserRelationshipRepository interface {
	CreateRelationship(ctx context.Context, rel *domain.UserRelationship) (*domain.UserRelationship, error)
	GetRelationship(ctx context.Context, relationshipID string) (*domain.UserRelationship, error)
	ListRelationships(ctx context.Context, limit, offset int) ([]domain.UserRelationship, error)
	ListBySubject(ctx context.Context, userID string) ([]domain.UserRelationship, error)
	ListByTarget(ctx context.Context, userID string) ([]domain.UserRelationship, error)
	ListByType(ctx context.Context, relType string) ([]domain.UserRelationship, error)
	UpdateStatus(ctx context.Context, relationshipID, status string, now time.Time) (*domain.UserRelationship, error)
	DeleteRelationship(ctx context.Context, relationshipID string) (bool, error)
}

// PostgresUserRelationshipsRepository UserRelationshipRepository 的 PostgreSQL 实现
type PostgresUserRelationshipsRepository struct {
	sess Session
}

// NewPostgresUserRelationshipsRepository 创建用户关系 Repository
func NewPostgresUserRelationshipsRepository(sess Session) *PostgresUserRelationshipsRepository {
	return &PostgresUserRelationshipsRepository{sess: sess}
}

// 确保实现了接口
var _ UserRelationshipRepository = (*PostgresUserRelationshipsRepository)(nil)

func (r *PostgresUserRelationshipsRepository) CreateRelationship(ctx context.Context, rel *domain.UserRelationship) (*domain.UserRelationship, error) {
	query := `INSERT INTO user_relationships (` + relationshipColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + relationshipColumns

	var out domain.UserRelationship
	err := withTx(ctx, r.sess, func(tx *sqlx.Tx) error {
		return tx.QueryRowxContext(ctx, query,
			rel.RelationshipID, rel.SubjectUserID, rel.TargetUserID, rel.RelationshipType,
			rel.Status, rel.CreatedAt, rel.UpdatedAt,
		).StructScan(&out)
	})
	if err != nil {
		return nil, normalize("user-relationship", fmt.Errorf("insert relationship: %w", err))
	}
	return &out, nil
}

func (r *PostgresUserRelationshipsRepository) GetRelationship(ctx context.Context, relationshipID string) (*domain.UserRelationship, error) {
	return getOne[domain.UserRelationship](ctx, r.sess, "user-relationship",
		`SELECT `+relationshipColumns+` FROM user_relationships WHERE relationship_id = $1`, relationshipID)
}

func (r *PostgresUserRelationshipsRepository) ListRelationships(ctx context.Context, limit, offset int) ([]domain.UserRelationship, error) {
	return getMany[domain.UserRelationship](ctx, r.sess, "user-relationship",
		`SELECT `+relationshipColumns+` FROM user_relationships ORDER BY created_at DESC, relationship_id LIMIT $1 OFFSET $2`,
		limit, offset)
}

func (r *PostgresUserRelationshipsRepository) ListBySubject(ctx context.Context, userID string) ([]domain.UserRelationship, error) {
	return r.listWhere(ctx, "subject_user_id", userID)
}

func (r *PostgresUserRelationshipsRepository) ListByTarget(ctx context.Context, userID string) ([]domain.UserRelationship, error) {
	return r.listWhere(ctx, "target_user_id", userID)
}

func (r *PostgresUserRelationshipsRepository) ListByType(ctx context.Context, relType string) ([]domain.UserRelationship, error) {
	return r.listWhere(ctx, "relationship_type", relType)
}

func (r *PostgresUserRelationshipsRepository) listWhere(ctx context.Context, col, value string) ([]domain.UserRelationship, error) {
	query := `SELECT ` + relationshipColumns + ` FROM user_relationships WHERE ` + col + ` = $1 ORDER BY created_at DESC, relationship_id LIMIT $2`
	return getMany[domain.UserRelationship](ctx, r.sess, "user-relationship", query, value, MaxListLimit)
}

func (r *PostgresUserRelationshipsRepository) UpdateStatus(ctx context.Context, relationshipID, status string, now time.Time) (*domain.UserRelationship, error) {
	query := `UPDATE user_relationships SET status = $2, updated_at = $3 WHERE relationship_id = $1 RETURNING ` + relationshipColumns
	return updateOne[domain.UserRelationship](ctx, r.sess, "user-relationship", query, relationshipID, status, now)
}

func (r *PostgresUserRelationshipsRepository) DeleteRelationship(ctx context.Context, relationshipID string) (bool, error) {
	return deleteOne(ctx, r.sess, "user-relationship", `DELETE FROM user_relationships WHERE relationship_id = $1`, relationshipID)
}
