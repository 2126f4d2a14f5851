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

const recordUser = "user"

// UserService 用户管理服务接口
type UserService interface {
	CreateUser(ctx context.Context, in domain.UserCreateInput) (*domain.User, error)
	GetUser(ctx context.Context, userID string) (*domain.User, error)
	ListUsers(ctx context.Context, req ListUsersRequest) ([]domain.User, error)
	UpdateUser(ctx context.Context, userID string, in domain.UserUpdateInput) (*domain.User, error)
	ChangeRole(ctx context.Context, req ChangeRoleRequest) (*domain.User, error)
	DeleteUser(ctx context.Context, req DeleteUserRequest) error
	ListUserDevices(ctx context.Context, userID string) ([]domain.Device, error)
}

// userService 实现
type userService struct {
	repo repository.UserRepository
	deps Deps
}

// NewUserService 创建 UserService 实例
func NewUserService(repo repository.UserRepository, deps Deps) UserService {
	return &userService{repo: repo, deps: deps}
}

// ListUsersRequest 查询用户列表请求
type ListUsersRequest struct {
	Role   string // 可选：角色过滤
	Limit  int    // 1..1000
	Offset int
}

// ChangeRoleRequest 修改角色请求
type ChangeRoleRequest struct {
	ActorID  string // 必填：操作者（X-Actor-User-ID）
	TargetID string // 必填
	Input    domain.RoleChangeInput
}

// DeleteUserRequest 删除用户请求
type DeleteUserRequest struct {
	ActorID  string // production 环境必填
	TargetID string
}

// CreateUser 创建用户；email 唯一
func (s *userService) CreateUser(ctx context.Context, in domain.UserCreateInput) (*domain.User, error) {
	// 1. 参数验证
	if err := domain.ValidateStruct(recordUser, in); err != nil {
		return nil, err
	}
	role := in.UserRole
	if role == "" {
		role = domain.RoleUser
	}

	// 2. email 唯一性检查
	if in.Email != nil {
		existing, err := s.repo.GetUserByEmail(ctx, *in.Email)
		if err != nil {
			s.deps.logger().Error("GetUserByEmail failed", zap.Error(err))
			return nil, err
		}
		if existing != nil {
			return nil, apperr.Conflict(recordUser, "email already registered", nil)
		}
	}

	// 3. 调用 Repository
	u := &domain.User{
		UserID:      uuid.NewString(),
		UserName:    strings.TrimSpace(in.UserName),
		Email:       in.Email,
		PhoneNumber: in.PhoneNumber,
		UserRole:    role,
		CreatedAt:   s.deps.now(),
	}
	out, err := s.repo.CreateUser(ctx, u)
	if err != nil {
		s.deps.logger().Error("CreateUser failed", zap.String("user_name", u.UserName), zap.Error(err))
		return nil, err
	}
	return out, nil
}

// GetUser 查询用户
func (s *userService) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	if err := checkUUID(recordUser, "user_id", userID); err != nil {
		return nil, err
	}
	u, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		s.deps.logger().Error("GetUser failed", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	if u == nil {
		s.deps.logger().Warn("User not found", zap.String("user_id", userID))
		return nil, apperr.NotFound(recordUser, "user "+userID+" not found")
	}
	return u, nil
}

// ListUsers 查询用户列表
func (s *userService) ListUsers(ctx context.Context, req ListUsersRequest) ([]domain.User, error) {
	if err := CheckPaging(recordUser, req.Limit, req.Offset); err != nil {
		return nil, err
	}
	if req.Role != "" && !domain.IsValidRole(req.Role) {
		return nil, apperr.Validation(recordUser, "role", "must be one of [admin, caregiver, user, family]")
	}
	users, err := s.repo.ListUsers(ctx, req.Role, req.Limit, req.Offset)
	if err != nil {
		s.deps.logger().Error("ListUsers failed", zap.Error(err))
		return nil, err
	}
	return users, nil
}

// UpdateUser 更新基本信息（不含角色）
func (s *userService) UpdateUser(ctx context.Context, userID string, in domain.UserUpdateInput) (*domain.User, error) {
	if err := checkUUID(recordUser, "user_id", userID); err != nil {
		return nil, err
	}
	if err := domain.ValidatePatch(recordUser, &in); err != nil {
		return nil, err
	}
	if in.Email != nil {
		existing, err := s.repo.GetUserByEmail(ctx, *in.Email)
		if err != nil {
			return nil, err
		}
		if existing != nil && existing.UserID != userID {
			return nil, apperr.Conflict(recordUser, "email already registered", nil)
		}
	}
	u, err := s.repo.UpdateUser(ctx, userID, &in)
	if err != nil {
		s.deps.logger().Error("UpdateUser failed", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	if u == nil {
		return nil, apperr.NotFound(recordUser, "user "+userID+" not found")
	}
	return u, nil
}

// ChangeRole 操作者必须能管理目标的当前角色以及新角色
func (s *userService) ChangeRole(ctx context.Context, req ChangeRoleRequest) (*domain.User, error) {
	// 1. 参数验证
	if err := domain.ValidateStruct(recordUser, req.Input); err != nil {
		return nil, err
	}
	if err := checkUUID(recordUser, "user_id", req.TargetID); err != nil {
		return nil, err
	}

	// 2. 权限检查
	actor, err := s.actor(ctx, req.ActorID)
	if err != nil {
		return nil, err
	}
	target, err := s.GetUser(ctx, req.TargetID)
	if err != nil {
		return nil, err
	}
	if !domain.CanManage(actor.UserRole, target.UserRole) {
		s.deps.logger().Warn("Role change denied",
			zap.String("actor_id", actor.UserID),
			zap.String("actor_role", actor.UserRole),
			zap.String("target_role", target.UserRole),
		)
		return nil, apperr.Forbidden("role " + actor.UserRole + " cannot manage role " + target.UserRole)
	}
	if !domain.CanManage(actor.UserRole, req.Input.UserRole) {
		return nil, apperr.Forbidden("role " + actor.UserRole + " cannot assign role " + req.Input.UserRole)
	}

	// 3. 调用 Repository
	u, err := s.repo.UpdateUserRole(ctx, req.TargetID, req.Input.UserRole)
	if err != nil {
		s.deps.logger().Error("UpdateUserRole failed", zap.String("user_id", req.TargetID), zap.Error(err))
		return nil, err
	}
	if u == nil {
		return nil, apperr.NotFound(recordUser, "user "+req.TargetID+" not found")
	}
	return u, nil
}

// DeleteUser production 环境下需要能管理目标用户的操作者
func (s *userService) DeleteUser(ctx context.Context, req DeleteUserRequest) error {
	if err := checkUUID(recordUser, "user_id", req.TargetID); err != nil {
		return err
	}
	if s.deps.Production || req.ActorID != "" {
		actor, err := s.actor(ctx, req.ActorID)
		if err != nil {
			return err
		}
		target, err := s.GetUser(ctx, req.TargetID)
		if err != nil {
			return err
		}
		if !domain.CanManage(actor.UserRole, target.UserRole) {
			return apperr.Forbidden("role " + actor.UserRole + " cannot delete role " + target.UserRole)
		}
	}

	ok, err := s.repo.DeleteUser(ctx, req.TargetID)
	if err != nil {
		s.deps.logger().Error("DeleteUser failed", zap.String("user_id", req.TargetID), zap.Error(err))
		return err
	}
	if !ok {
		return apperr.NotFound(recordUser, "user "+req.TargetID+" not found")
	}
	return nil
}

// ListUserDevices 用户名下的设备
func (s *userService) ListUserDevices(ctx context.Context, userID string) ([]domain.Device, error) {
	if _, err := s.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	devices, err := s.repo.ListUserDevices(ctx, userID)
	if err != nil {
		s.deps.logger().Error("ListUserDevices failed", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	return devices, nil
}

// actor 解析操作者；缺失或不存在均为 Forbidden
func (s *userService) actor(ctx context.Context, actorID string) (*domain.User, error) {
	if actorID == "" {
		return nil, apperr.Forbidden("acting user is required")
	}
	if _, err := uuid.Parse(actorID); err != nil {
		return nil, apperr.Forbidden("acting user is not recognised")
	}
	actor, err := s.repo.GetUser(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if actor == nil {
		return nil, apperr.Forbidden("acting user is not recognised")
	}
	return actor, nil
}

func checkUUID(record, field, v string) error {
	if _, err := uuid.Parse(v); err != nil {
		return apperr.Validation(record, field, "must be a UUID")
	}
	return nil
}
