package service

import (
	"context"
	"strings"

	"iotcare-data/internal/apperr"
	"iotcare-data/internal/domain"
	"iotcare-data/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const recordRelationship = "user_relationship"

// UserRelationshipService 用户关系服务接口
type UserRelationshipService interface {
	CreateRelationship(ctx context.Context, in domain.UserRelationshipCreateInput) (*domain.UserRelationship, error)
	GetRelationship(ctx context.Context, relationshipID string) (*domain.UserRelationship, error)
	ListRelationships(ctx context.Context, limit, offset int) ([]domain.UserRelationship, error)
	ListAsSubject(ctx context.Context, userID string) ([]domain.UserRelationship, error)
	ListAsTarget(ctx context.Context, userID string) ([]domain.UserRelationship, error)
	ListByType(ctx context.Context, relType string) ([]domain.UserRelationship, error)
	UpdateStatus(ctx context.Context, relationshipID string, in domain.RelationshipStatusInput) (*domain.UserRelationship, error)
	DeleteRelationship(ctx context.Context, relationshipID string) error
}

type userRelationshipService struct {
	repo repository.UserRelationshipRepository
	deps Deps
}

// NewUserRelationshipService 创建 UserRelationshipService 实例
func NewUserRelationshipService(repo repository.UserRelationshipRepository, deps Deps) UserRelationshipService {
	return &userRelationshipService{repo: repo, deps: deps}
}

func (s *userRelationshipService) CreateRelationship(ctx context.Context, in domain.UserRelationshipCreateInput) (*domain.UserRelationship, error) {
	// 1. 参数验证
	if err := domain.ValidateStruct(recordRelationship, in); err != nil {
		return nil, err
	}
	status := in.Status
	if status == "" {
		status = domain.RelationshipActive
	}

	// 2. 调用 Repository
	now := s.deps.now()
	rel, err := s.repo.CreateRelationship(ctx, &domain.UserRelationship{
		RelationshipID:   uuid.NewString(),
		SubjectUserID:    in.SubjectUserID,
		TargetUserID:     in.TargetUserID,
		RelationshipType: strings.TrimSpace(in.RelationshipType),
		Status:           status,
		CreatedAt:        now,
		UpdatedAt:        now,
	})
	if err != nil {
		s.deps.logger().Error("CreateRelationship failed",
			zap.String("subject_user_id", in.SubjectUserID),
			zap.String("target_user_id", in.TargetUserID),
			zap.Error(err),
		)
		return nil, err
	}
	return rel, nil
}

func (s *userRelationshipService) GetRelationship(ctx context.Context, relationshipID string) (*domain.UserRelationship, error) {
	if err := checkUUID(recordRelationship, "relationship_id", relationshipID); err != nil {
		return nil, err
	}
	rel, err := s.repo.GetRelationship(ctx, relationshipID)
	if err != nil {
		s.deps.logger().Error("GetRelationship failed", zap.String("relationship_id", relationshipID), zap.Error(err))
		return nil, err
	}
	if rel == nil {
		return nil, apperr.NotFound(recordRelationship, "relationship "+relationshipID+" not found")
	}
	return rel, nil
}

func (s *userRelationshipService) ListRelationships(ctx context.Context, limit, offset int) ([]domain.UserRelationship, error) {
	if err := CheckPaging(recordRelationship, limit, offset); err != nil {
		return nil, err
	}
	return s.repo.ListRelationships(ctx, limit, offset)
}

func (s *userRelationshipService) ListAsSubject(ctx context.Context, userID string) ([]domain.UserRelationship, error) {
	if err := checkUUID(recordRelationship, "user_id", userID); err != nil {
		return nil, err
	}
	return s.repo.ListBySubject(ctx, userID)
}

func (s *userRelationshipService) ListAsTarget(ctx context.Context, userID string) ([]domain.UserRelationship, error) {
	if err := checkUUID(recordRelationship, "user_id", userID); err != nil {
		return nil, err
	}
	return s.repo.ListByTarget(ctx, userID)
}

func (s *userRelationshipService) ListByType(ctx context.Context, relType string) ([]domain.UserRelationship, error) {
	relType = strings.TrimSpace(relType)
	if relType == "" {
		return nil, apperr.Validation(recordRelationship, "relationship_type", "must not be blank")
	}
	return s.repo.ListByType(ctx, relType)
}

func (s *userRelationshipService) UpdateStatus(ctx context.Context, relationshipID string, in domain.RelationshipStatusInput) (*domain.UserRelationship, error) {
	if err := checkUUID(recordRelationship, "relationship_id", relationshipID); err != nil {
		return nil, err
	}
	if err := domain.ValidateStruct(recordRelationship, in); err != nil {
		return nil, err
	}
	rel, err := s.repo.UpdateStatus(ctx, relationshipID, in.Status, s.deps.now())
	if err != nil {
		s.deps.logger().Error("UpdateStatus failed", zap.String("relationship_id", relationshipID), zap.Error(err))
		return nil, err
	}
	if rel == nil {
		return nil, apperr.NotFound(recordRelationship, "relationship "+relationshipID+" not found")
	}
	return rel, nil
}

func (s *userRelationshipService) DeleteRelationship(ctx context.Context, relationshipID string) error {
	if err := checkUUID(recordRelationship, "relationship_id", relationshipID); err != nil {
		return err
	}
	ok, err := s.repo.DeleteRelationship(ctx, relationshipID)
	if err != nil {
		s.deps.logger().Error("DeleteRelationship failed", zap.String("relationship_id", relationshipID), zap.Error(err))
		return err
	}
	if !ok {
		return apperr.NotFound(recordRelationship, "relationship "+relationshipID+" not found")
	}
	return nil
}
