package service

import (
	"context"
	"strings"

	"iotcare-data/internal/apperr"
	"iotcare-data/internal/domain"
	"iotcare-data/internal/repository"

	"go.uber.org/zap"
)

const recordDevice = "device"

// DeviceService 设备管理服务接口
type DeviceService interface {
	RegisterDevice(ctx context.Context, in domain.DeviceCreateInput) (*domain.Device, error)
	GetDevice(ctx context.Context, deviceID string) (*domain.Device, error)
	ListDevices(ctx context.Context, req ListDevicesRequest) ([]domain.Device, error)
	UpdateDevice(ctx context.Context, deviceID string, in domain.DeviceUpdateInput) (*domain.Device, error)
	DeleteDevice(ctx context.Context, deviceID string) error
	AssignDevice(ctx context.Context, deviceID string, in domain.DeviceAssignInput) (*domain.Device, error)
	UnassignDevice(ctx context.Context, deviceID string) (*domain.Device, error)
	DeviceStatus(ctx context.Context, deviceID string) (*domain.DeviceStatus, error)
}

type deviceService struct {
	repo repository.DeviceRepository
	deps Deps
}

// NewDeviceService 创建 DeviceService 实例
func NewDeviceService(repo repository.DeviceRepository, deps Deps) DeviceService {
	return &deviceService{repo: repo, deps: deps}
}

// ListDevicesRequest 查询设备列表请求
type ListDevicesRequest struct {
	UserID string // 可选：按用户过滤
	Limit  int
	Offset int
}

func (s *deviceService) RegisterDevice(ctx context.Context, in domain.DeviceCreateInput) (*domain.Device, error) {
	// 1. 参数验证
	if err := domain.ValidateStruct(recordDevice, in); err != nil {
		return nil, err
	}

	// 2. 安装时间缺省为当前时间
	installedAt := s.deps.now()
	if in.InstalledAt != nil {
		installedAt = *in.InstalledAt
	}

	// 3. 调用 Repository
	d, err := s.repo.CreateDevice(ctx, &domain.Device{
		DeviceID:      strings.TrimSpace(in.DeviceID),
		UserID:        in.UserID,
		LocationLabel: in.LocationLabel,
		InstalledAt:   installedAt,
	})
	if err != nil {
		s.deps.logger().Error("CreateDevice failed", zap.String("device_id", in.DeviceID), zap.Error(err))
		return nil, err
	}
	return d, nil
}

func (s *deviceService) GetDevice(ctx context.Context, deviceID string) (*domain.Device, error) {
	d, err := s.repo.GetDevice(ctx, deviceID)
	if err != nil {
		s.deps.logger().Error("GetDevice failed", zap.String("device_id", deviceID), zap.Error(err))
		return nil, err
	}
	if d == nil {
		s.deps.logger().Warn("Device not found", zap.String("device_id", deviceID))
		return nil, apperr.NotFound(recordDevice, "device "+deviceID+" not found")
	}
	return d, nil
}

func (s *deviceService) ListDevices(ctx context.Context, req ListDevicesRequest) ([]domain.Device, error) {
	if err := CheckPaging(recordDevice, req.Limit, req.Offset); err != nil {
		return nil, err
	}
	if req.UserID != "" {
		if err := checkUUID(recordDevice, "user_id", req.UserID); err != nil {
			return nil, err
		}
	}
	devices, err := s.repo.ListDevices(ctx, req.UserID, req.Limit, req.Offset)
	if err != nil {
		s.deps.logger().Error("ListDevices failed", zap.String("user_id", req.UserID), zap.Error(err))
		return nil, err
	}
	return devices, nil
}

func (s *deviceService) UpdateDevice(ctx context.Context, deviceID string, in domain.DeviceUpdateInput) (*domain.Device, error) {
	if err := domain.ValidatePatch(recordDevice, &in); err != nil {
		return nil, err
	}
	d, err := s.repo.UpdateDevice(ctx, deviceID, &in)
	if err != nil {
		s.deps.logger().Error("UpdateDevice failed", zap.String("device_id", deviceID), zap.Error(err))
		return nil, err
	}
	if d == nil {
		return nil, apperr.NotFound(recordDevice, "device "+deviceID+" not found")
	}
	return d, nil
}

// DeleteDevice 仍有时序数据引用时由数据库拒绝（Conflict）
func (s *deviceService) DeleteDevice(ctx context.Context, deviceID string) error {
	ok, err := s.repo.DeleteDevice(ctx, deviceID)
	if err != nil {
		s.deps.logger().Error("DeleteDevice failed", zap.String("device_id", deviceID), zap.Error(err))
		return err
	}
	if !ok {
		return apperr.NotFound(recordDevice, "device "+deviceID+" not found")
	}
	return nil
}

func (s *deviceService) AssignDevice(ctx context.Context, deviceID string, in domain.DeviceAssignInput) (*domain.Device, error) {
	if err := domain.ValidateStruct(recordDevice, in); err != nil {
		return nil, err
	}
	userID := in.UserID
	return s.assign(ctx, deviceID, &userID)
}

func (s *deviceService) UnassignDevice(ctx context.Context, deviceID string) (*domain.Device, error) {
	return s.assign(ctx, deviceID, nil)
}

func (s *deviceService) assign(ctx context.Context, deviceID string, userID *string) (*domain.Device, error) {
	d, err := s.repo.AssignDevice(ctx, deviceID, userID)
	if err != nil {
		s.deps.logger().Error("AssignDevice failed", zap.String("device_id", deviceID), zap.Error(err))
		return nil, err
	}
	if d == nil {
		return nil, apperr.NotFound(recordDevice, "device "+deviceID+" not found")
	}
	return d, nil
}

// DeviceStatus 分配情况与最近一次上报时间
func (s *deviceService) DeviceStatus(ctx context.Context, deviceID string) (*domain.DeviceStatus, error) {
	d, err := s.GetDevice(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	lastSeen, err := s.repo.LastSeen(ctx, deviceID)
	if err != nil {
		s.deps.logger().Error("LastSeen failed", zap.String("device_id", deviceID), zap.Error(err))
		return nil, err
	}
	st := domain.NewDeviceStatus(*d, lastSeen, s.deps.now())
	return &st, nil
}
