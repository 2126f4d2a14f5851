package service

import (
	"context"
	"strings"

	"iotcare-data/internal/apperr"
	"iotcare-data/internal/domain"
	"iotcare-data/internal/repository"

	"go.uber.org/zap"
)

const recordProfile = "user_profile"

// UserProfileService 用户档案服务接口
type UserProfileService interface {
	CreateProfile(ctx context.Context, userID string, in domain.UserProfileCreateInput) (*domain.UserProfile, error)
	GetProfile(ctx context.Context, userID string) (*domain.UserProfile, error)
	ListProfiles(ctx context.Context, req ListProfilesRequest) ([]domain.UserProfile, error)
	UpdateProfile(ctx context.Context, userID string, in domain.UserProfileUpdateInput) (*domain.UserProfile, error)
	DeleteProfile(ctx context.Context, userID string) error
}

type userProfileService struct {
	repo repository.UserProfileRepository
	deps Deps
}

// NewUserProfileService 创建 UserProfileService 实例
func NewUserProfileService(repo repository.UserProfileRepository, deps Deps) UserProfileService {
	return &userProfileService{repo: repo, deps: deps}
}

// ListProfilesRequest 档案列表请求；过滤条件互斥，优先级 Gender > 年龄段 > Keyword
type ListProfilesRequest struct {
	Gender  string
	MinAge  *int
	MaxAge  *int
	Keyword string
	Limit   int
	Offset  int
}

func (s *userProfileService) CreateProfile(ctx context.Context, userID string, in domain.UserProfileCreateInput) (*domain.UserProfile, error) {
	// 1. 参数验证
	if err := checkUUID(recordProfile, "user_id", userID); err != nil {
		return nil, err
	}
	if err := domain.ValidateStruct(recordProfile, in); err != nil {
		return nil, err
	}
	now := s.deps.now()
	if in.DateOfBirth.IsZero() {
		return nil, apperr.Validation(recordProfile, "date_of_birth", "is required")
	}
	if in.DateOfBirth.After(now) {
		return nil, apperr.Validation(recordProfile, "date_of_birth", "must not be in the future")
	}

	// 2. 调用 Repository（用户不存在或档案已存在时返回 Conflict）
	p, err := s.repo.CreateProfile(ctx, &domain.UserProfile{
		UserID:           userID,
		DateOfBirth:      in.DateOfBirth,
		Gender:           in.Gender,
		Address:          in.Address,
		AddressDetail:    in.AddressDetail,
		MedicalHistory:   in.MedicalHistory,
		SignificantNotes: in.SignificantNotes,
		CurrentStatus:    in.CurrentStatus,
		CreatedAt:        now,
		UpdatedAt:        now,
	})
	if err != nil {
		s.deps.logger().Error("CreateProfile failed", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	return p, nil
}

func (s *userProfileService) GetProfile(ctx context.Context, userID string) (*domain.UserProfile, error) {
	if err := checkUUID(recordProfile, "user_id", userID); err != nil {
		return nil, err
	}
	p, err := s.repo.GetProfile(ctx, userID)
	if err != nil {
		s.deps.logger().Error("GetProfile failed", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	if p == nil {
		s.deps.logger().Warn("Profile not found", zap.String("user_id", userID))
		return nil, apperr.NotFound(recordProfile, "profile for user "+userID+" not found")
	}
	return p, nil
}

func (s *userProfileService) ListProfiles(ctx context.Context, req ListProfilesRequest) ([]domain.UserProfile, error) {
	if err := CheckPaging(recordProfile, req.Limit, req.Offset); err != nil {
		return nil, err
	}

	var (
		profiles []domain.UserProfile
		err      error
	)
	switch {
	case req.Gender != "":
		if err := domain.ValidateStruct(recordProfile, struct {
			Gender string `json:"gender" validate:"oneof=male female other"`
		}{req.Gender}); err != nil {
			return nil, err
		}
		profiles, err = s.repo.ListProfilesByGender(ctx, req.Gender, req.Limit, req.Offset)
	case req.MinAge != nil || req.MaxAge != nil:
		minAge, maxAge := 0, 150
		if req.MinAge != nil {
			minAge = *req.MinAge
		}
		if req.MaxAge != nil {
			maxAge = *req.MaxAge
		}
		if minAge < 0 || maxAge > 150 {
			return nil, apperr.Validation(recordProfile, "age", "must be within 0..150")
		}
		if minAge > maxAge {
			return nil, apperr.Validation(recordProfile, "min_age", "must not exceed max_age")
		}
		profiles, err = s.repo.ListProfilesByAge(ctx, minAge, maxAge, s.deps.now(), req.Limit, req.Offset)
	case req.Keyword != "":
		kw := strings.TrimSpace(req.Keyword)
		if kw == "" {
			return nil, apperr.Validation(recordProfile, "keyword", "must not be blank")
		}
		profiles, err = s.repo.SearchMedicalHistory(ctx, kw, req.Limit, req.Offset)
	default:
		profiles, err = s.repo.ListProfiles(ctx, req.Limit, req.Offset)
	}
	if err != nil {
		s.deps.logger().Error("ListProfiles failed", zap.Error(err))
		return nil, err
	}
	return profiles, nil
}

func (s *userProfileService) UpdateProfile(ctx context.Context, userID string, in domain.UserProfileUpdateInput) (*domain.UserProfile, error) {
	if err := checkUUID(recordProfile, "user_id", userID); err != nil {
		return nil, err
	}
	if err := domain.ValidatePatch(recordProfile, &in); err != nil {
		return nil, err
	}
	now := s.deps.now()
	if in.DateOfBirth != nil && (in.DateOfBirth.IsZero() || in.DateOfBirth.After(now)) {
		return nil, apperr.Validation(recordProfile, "date_of_birth", "must be a past date")
	}
	p, err := s.repo.UpdateProfile(ctx, userID, &in, now)
	if err != nil {
		s.deps.logger().Error("UpdateProfile failed", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	if p == nil {
		return nil, apperr.NotFound(recordProfile, "profile for user "+userID+" not found")
	}
	return p, nil
}

func (s *userProfileService) DeleteProfile(ctx context.Context, userID string) error {
	if err := checkUUID(recordProfile, "user_id", userID); err != nil {
		return err
	}
	ok, err := s.repo.DeleteProfile(ctx, userID)
	if err != nil {
		s.deps.logger().Error("DeleteProfile failed", zap.String("user_id", userID), zap.Error(err))
		return err
	}
	if !ok {
		return apperr.NotFound(recordProfile, "profile for user "+userID+" not found")
	}
	return nil
}
