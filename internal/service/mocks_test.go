package service

import (
	"context"
	"time"

	"iotcare-data/internal/domain"
	"iotcare-data/internal/repository"

	"github.com/stretchr/testify/mock"
)

// mockRecordRepo 是 RecordRepository 的 mock 实现
type mockRecordRepo[R domain.Record, P any] struct {
	mock.Mock
	kind *domain.Kind
}

func newMockRecordRepo[R domain.Record, P any](slug string) *mockRecordRepo[R, P] {
	return &mockRecordRepo[R, P]{kind: domain.MustKind(slug)}
}

func (m *mockRecordRepo[R, P]) Kind() *domain.Kind { return m.kind }

func (m *mockRecordRepo[R, P]) Create(ctx context.Context, rec *R) (*R, error) {
	args := m.Called(ctx, rec)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*R), args.Error(1)
}

func (m *mockRecordRepo[R, P]) Get(ctx context.Context, key string, at time.Time) (*R, error) {
	args := m.Called(ctx, key, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*R), args.Error(1)
}

func (m *mockRecordRepo[R, P]) Latest(ctx context.Context, key string) (*R, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*R), args.Error(1)
}

func (m *mockRecordRepo[R, P]) List(ctx context.Context, q repository.ListQuery) ([]R, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]R), args.Error(1)
}

func (m *mockRecordRepo[R, P]) Series(ctx context.Context, q repository.SeriesQuery) ([]R, bool, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, false, args.Error(2)
	}
	return args.Get(0).([]R), args.Bool(1), args.Error(2)
}

func (m *mockRecordRepo[R, P]) Update(ctx context.Context, key string, at time.Time, patch *P) (*R, error) {
	args := m.Called(ctx, key, at, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*R), args.Error(1)
}

func (m *mockRecordRepo[R, P]) Delete(ctx context.Context, key string, at time.Time) (bool, error) {
	args := m.Called(ctx, key, at)
	return args.Bool(0), args.Error(1)
}

func (m *mockRecordRepo[R, P]) Statistics(ctx context.Context, key string, start, end *time.Time) (*repository.Statistics, error) {
	args := m.Called(ctx, key, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.Statistics), args.Error(1)
}

// MockUserRepository 是 UserRepository 的 mock 实现
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) CreateUser(ctx context.Context, u *domain.User) (*domain.User, error) {
	args := m.Called(ctx, u)
	if fn, ok := args.Get(0).(func(context.Context, *domain.User) *domain.User); ok {
		return fn(ctx, u), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) ListUsers(ctx context.Context, role string, limit, offset int) ([]domain.User, error) {
	args := m.Called(ctx, role, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.User), args.Error(1)
}

func (m *MockUserRepository) UpdateUser(ctx context.Context, userID string, patch *domain.UserUpdateInput) (*domain.User, error) {
	args := m.Called(ctx, userID, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) UpdateUserRole(ctx context.Context, userID, role string) (*domain.User, error) {
	args := m.Called(ctx, userID, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) DeleteUser(ctx context.Context, userID string) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) ListUserDevices(ctx context.Context, userID string) ([]domain.Device, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Device), args.Error(1)
}

// MockDeviceRepository 是 DeviceRepository 的 mock 实现
type MockDeviceRepository struct {
	mock.Mock
}

func (m *MockDeviceRepository) CreateDevice(ctx context.Context, d *domain.Device) (*domain.Device, error) {
	args := m.Called(ctx, d)
	if fn, ok := args.Get(0).(func(context.Context, *domain.Device) *domain.Device); ok {
		return fn(ctx, d), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Device), args.Error(1)
}

func (m *MockDeviceRepository) GetDevice(ctx context.Context, deviceID string) (*domain.Device, error) {
	args := m.Called(ctx, deviceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Device), args.Error(1)
}

func (m *MockDeviceRepository) ListDevices(ctx context.Context, userID string, limit, offset int) ([]domain.Device, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Device), args.Error(1)
}

func (m *MockDeviceRepository) UpdateDevice(ctx context.Context, deviceID string, patch *domain.DeviceUpdateInput) (*domain.Device, error) {
	args := m.Called(ctx, deviceID, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Device), args.Error(1)
}

func (m *MockDeviceRepository) AssignDevice(ctx context.Context, deviceID string, userID *string) (*domain.Device, error) {
	args := m.Called(ctx, deviceID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Device), args.Error(1)
}

func (m *MockDeviceRepository) DeleteDevice(ctx context.Context, deviceID string) (bool, error) {
	args := m.Called(ctx, deviceID)
	return args.Bool(0), args.Error(1)
}

func (m *MockDeviceRepository) LastSeen(ctx context.Context, deviceID string) (*time.Time, error) {
	args := m.Called(ctx, deviceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*time.Time), args.Error(1)
}

// mockNotifier 记录 Emergency 通知
type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) NotifyEmergency(ctx context.Context, snap *domain.HomeStateSnapshot) error {
	return m.Called(ctx, snap).Error(0)
}
