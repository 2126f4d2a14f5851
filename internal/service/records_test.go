package service

import (
	"context"
	"testing"
	"time"

	"iotcare-data/internal/apperr"
	"iotcare-data/internal/domain"
	"iotcare-data/internal/repository"
	"iotcare-data/internal/store"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var t0 = time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC)

func intPtr(v int) *int           { return &v }
func strPtr(v string) *string     { return &v }
func floatPtr(v float64) *float64 { return &v }
func boolPtr(v bool) *bool        { return &v }
func fixedNow() func() time.Time  { return func() time.Time { return t0 } }
func testDeps() Deps              { return Deps{Logger: zap.NewNop(), Now: fixedNow()} }

type relayRepo = mockRecordRepo[domain.RelayLog, domain.RelayPatch]

func newRelayService(t *testing.T, deps Deps) (*relayRepo, *RecordService[domain.RelayLog, domain.RelayPatch]) {
	t.Helper()
	repo := newMockRecordRepo[domain.RelayLog, domain.RelayPatch](domain.KindActuatorRelay)
	return repo, NewRecordService[domain.RelayLog, domain.RelayPatch](repo, deps)
}

func TestRecordService_Create_Success(t *testing.T) {
	repo, svc := newRelayService(t, testDeps())
	rec := &domain.RelayLog{Time: t0, DeviceID: "relay-1", Channel: intPtr(3), State: strPtr("on")}
	repo.On("Create", mock.Anything, rec).Return(rec, nil)

	out, err := svc.Create(context.Background(), rec, "http")
	require.NoError(t, err)
	assert.Equal(t, "relay-1", out.DeviceID)
	assert.Equal(t, 3, *out.Channel)
	repo.AssertExpectations(t)
}

func TestRecordService_Create_ChannelOutOfRange(t *testing.T) {
	repo, svc := newRelayService(t, testDeps())
	rec := &domain.RelayLog{Time: t0, DeviceID: "relay-1", Channel: intPtr(0), State: strPtr("on")}

	_, err := svc.Create(context.Background(), rec, "http")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	assert.Contains(t, apperr.PublicDetail(err), "1..16")
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRecordService_Create_MissingTime(t *testing.T) {
	_, svc := newRelayService(t, testDeps())
	_, err := svc.Create(context.Background(), &domain.RelayLog{DeviceID: "relay-1", Channel: intPtr(1), State: strPtr("off")}, "http")
	require.Error(t, err)
	assert.Equal(t, "time is required", apperr.PublicDetail(err))
}

func TestRecordService_Create_AfterCreateHook(t *testing.T) {
	repo := newMockRecordRepo[domain.RelayLog, domain.RelayPatch](domain.KindActuatorRelay)
	var seen *domain.RelayLog
	svc := NewRecordService[domain.RelayLog, domain.RelayPatch](repo, testDeps(),
		WithAfterCreate[domain.RelayLog, domain.RelayPatch](func(_ context.Context, r *domain.RelayLog) { seen = r }))
	rec := &domain.RelayLog{Time: t0, DeviceID: "relay-1", Channel: intPtr(1), State: strPtr("off")}
	repo.On("Create", mock.Anything, rec).Return(rec, nil)

	_, err := svc.Create(context.Background(), rec, "mqtt")
	require.NoError(t, err)
	assert.Same(t, rec, seen)
}

func TestRecordService_Get_NotFound(t *testing.T) {
	repo, svc := newRelayService(t, testDeps())
	repo.On("Get", mock.Anything, "relay-1", t0).Return(nil, nil)

	_, err := svc.Get(context.Background(), "relay-1", t0)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	assert.Contains(t, apperr.PublicDetail(err), "device_id relay-1 at 2025-01-15T10:30:00Z")
}

func TestRecordService_List_Validation(t *testing.T) {
	_, svc := newRelayService(t, testDeps())
	ctx := context.Background()
	later := t0.Add(time.Hour)

	tests := []struct {
		name   string
		req    ListRequest
		detail string
	}{
		{"limit zero", ListRequest{Limit: 0}, "limit must be within 1..1000"},
		{"limit too large", ListRequest{Limit: 1001}, "limit must be within 1..1000"},
		{"negative offset", ListRequest{Limit: 10, Offset: -1}, "offset must be >= 0"},
		{"inverted window", ListRequest{Limit: 10, Start: &later, End: &t0}, "start_time must not be after end_time"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.List(ctx, tt.req)
			require.Error(t, err)
			assert.Equal(t, tt.detail, apperr.PublicDetail(err))
		})
	}
}

func TestRecordService_List_PassesQuery(t *testing.T) {
	repo, svc := newRelayService(t, testDeps())
	want := repository.ListQuery{Key: "relay-1", Filters: map[string]any{"channel": 2}, Limit: 100, Offset: 100}
	repo.On("List", mock.Anything, want).Return([]domain.RelayLog{{Time: t0, DeviceID: "relay-1"}}, nil)

	items, err := svc.List(context.Background(), ListRequest{Key: "relay-1", Filters: map[string]any{"channel": 2}, Limit: 100, Offset: 100})
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestRecordService_Update_EmptyPatch(t *testing.T) {
	_, svc := newRelayService(t, testDeps())
	_, err := svc.Update(context.Background(), "relay-1", t0, &domain.RelayPatch{})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestRecordService_Delete_Missing(t *testing.T) {
	repo, svc := newRelayService(t, testDeps())
	repo.On("Delete", mock.Anything, "relay-1", t0).Return(false, nil)

	err := svc.Delete(context.Background(), "relay-1", t0)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestRecordService_Latest_ReadThroughCache(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	deps := testDeps()
	deps.Cache = store.NewLatestCache(store.NewRedisKV(client), time.Minute)
	repo, svc := newRelayService(t, deps)
	rec := &domain.RelayLog{Time: t0, DeviceID: "relay-1", Channel: intPtr(4), State: strPtr("pulse")}
	repo.On("Latest", mock.Anything, "relay-1").Return(rec, nil).Once()

	ctx := context.Background()
	first, err := svc.Latest(ctx, "relay-1")
	require.NoError(t, err)
	second, err := svc.Latest(ctx, "relay-1")
	require.NoError(t, err)

	assert.Equal(t, first.Time, second.Time.UTC())
	assert.Equal(t, 4, *second.Channel)
	assert.True(t, mr.Exists("iotcare:latest:actuator-relay:relay-1"))
	repo.AssertNumberOfCalls(t, "Latest", 1)

	// 删除后缓存失效
	repo.On("Delete", mock.Anything, "relay-1", t0).Return(true, nil)
	require.NoError(t, svc.Delete(ctx, "relay-1", t0))
	assert.False(t, mr.Exists("iotcare:latest:actuator-relay:relay-1"))
}

func TestRecordService_Latest_ConcurrentCreateNotShadowed(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	deps := testDeps()
	deps.Cache = store.NewLatestCache(store.NewRedisKV(client), time.Minute)
	repo, svc := newRelayService(t, deps)
	ctx := context.Background()

	older := &domain.RelayLog{Time: t0, DeviceID: "relay-1", Channel: intPtr(1), State: strPtr("on")}
	newer := &domain.RelayLog{Time: t0.Add(time.Minute), DeviceID: "relay-1", Channel: intPtr(2), State: strPtr("off")}
	repo.On("Create", mock.Anything, mock.Anything).Return(newer, nil)
	// the create commits after the database read but before the cache fill
	repo.On("Latest", mock.Anything, "relay-1").Return(older, nil).Once().Run(func(mock.Arguments) {
		_, err := svc.Create(ctx, &domain.RelayLog{Time: newer.Time, DeviceID: "relay-1", Channel: intPtr(2), State: strPtr("off")}, "http")
		require.NoError(t, err)
	})
	repo.On("Latest", mock.Anything, "relay-1").Return(newer, nil).Once()

	first, err := svc.Latest(ctx, "relay-1")
	require.NoError(t, err)
	assert.Equal(t, t0, first.Time)
	assert.False(t, mr.Exists("iotcare:latest:actuator-relay:relay-1"))

	second, err := svc.Latest(ctx, "relay-1")
	require.NoError(t, err)
	assert.Equal(t, newer.Time, second.Time.UTC())
	assert.Equal(t, 2, *second.Channel)
	assert.True(t, mr.Exists("iotcare:latest:actuator-relay:relay-1"))
}

func TestRecordService_Latest_Empty(t *testing.T) {
	repo, svc := newRelayService(t, testDeps())
	repo.On("Latest", mock.Anything, "relay-9").Return(nil, nil)

	_, err := svc.Latest(context.Background(), "relay-9")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestRecordService_CreateFrom_DecodeError(t *testing.T) {
	_, svc := newRelayService(t, testDeps())
	_, err := svc.CreateFrom(context.Background(), func(any) error {
		return apperr.Parse("malformed JSON body", nil)
	}, "http")
	assert.True(t, apperr.Is(err, apperr.KindParse))
}
