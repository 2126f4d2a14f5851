package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"iotcare-data/internal/apperr"
	"iotcare-data/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	relayCols = []string{"time", "device_id", "channel", "state", "reason", "raw_payload"}
	ts        = time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC)
)

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

func setupMockRelayRepo(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, *TimeSeriesRepository[domain.RelayLog, domain.RelayPatch]) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sdb := sqlx.NewDb(db, "sqlmock")
	repo := NewTimeSeriesRepository[domain.RelayLog, domain.RelayPatch](sdb, domain.KindActuatorRelay)
	return sdb, mock, repo
}

func TestTimeSeries_Create_Success(t *testing.T) {
	db, mock, repo := setupMockRelayRepo(t)
	defer db.Close()

	rec := &domain.RelayLog{Time: ts, DeviceID: "dev-1", Channel: intPtr(3), State: strPtr("on")}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(
		"INSERT INTO actuator_log_relay (time, device_id, channel, state, reason, raw_payload) VALUES ($1, $2, $3, $4, $5, $6) RETURNING",
	)).
		WithArgs(ts, "dev-1", 3, "on", nil, nil).
		WillReturnRows(sqlmock.NewRows(relayCols).AddRow(ts, "dev-1", int64(3), "on", nil, []byte(`{"src":"panel"}`)))
	mock.ExpectCommit()

	out, err := repo.Create(context.Background(), rec)
	require.NoError(t, err)
	assert.Equal(t, "dev-1", out.DeviceID)
	assert.Equal(t, 3, *out.Channel)
	assert.JSONEq(t, `{"src":"panel"}`, string(out.RawPayload))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTimeSeries_Create_Duplicate(t *testing.T) {
	db, mock, repo := setupMockRelayRepo(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO actuator_log_relay").
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value"})
	mock.ExpectRollback()

	_, err := repo.Create(context.Background(), &domain.RelayLog{Time: ts, DeviceID: "dev-1", Channel: intPtr(1), State: strPtr("on")})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTimeSeries_Create_UnknownDevice(t *testing.T) {
	db, mock, repo := setupMockRelayRepo(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO actuator_log_relay").
		WillReturnError(&pq.Error{Code: "23503", Message: "violates foreign key constraint"})
	mock.ExpectRollback()

	_, err := repo.Create(context.Background(), &domain.RelayLog{Time: ts, DeviceID: "ghost", Channel: intPtr(1), State: strPtr("on")})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindConflict))
	assert.Contains(t, apperr.PublicDetail(err), "referenced entity")
}

func TestTimeSeries_Create_DriverFault(t *testing.T) {
	db, mock, repo := setupMockRelayRepo(t)
	defer db.Close()

	mock.ExpectBegin().WillReturnError(errors.New("connection reset"))

	_, err := repo.Create(context.Background(), &domain.RelayLog{Time: ts, DeviceID: "d", Channel: intPtr(1), State: strPtr("on")})
	require.Error(t, err)
	assert.Equal(t, apperr.KindPersistence, apperr.KindOf(err))
	assert.Equal(t, "internal server error", apperr.PublicDetail(err))
}

func TestTimeSeries_Get(t *testing.T) {
	db, mock, repo := setupMockRelayRepo(t)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("FROM actuator_log_relay WHERE device_id = $1 AND time = $2")).
		WithArgs("dev-1", ts).
		WillReturnRows(sqlmock.NewRows(relayCols).AddRow(ts, "dev-1", int64(2), "off", "manual", nil))

	out, err := repo.Get(context.Background(), "dev-1", ts)
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, "manual", *out.Reason)
	assert.Nil(t, out.RawPayload)

	mock.ExpectQuery("FROM actuator_log_relay").
		WithArgs("dev-1", ts).
		WillReturnRows(sqlmock.NewRows(relayCols))

	out, err = repo.Get(context.Background(), "dev-1", ts)
	require.NoError(t, err)
	assert.Nil(t, out)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTimeSeries_Latest(t *testing.T) {
	db, mock, repo := setupMockRelayRepo(t)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("WHERE device_id = $1 ORDER BY time DESC LIMIT 1")).
		WithArgs("dev-1").
		WillReturnRows(sqlmock.NewRows(relayCols).AddRow(ts, "dev-1", int64(5), "pulse", nil, nil))

	out, err := repo.Latest(context.Background(), "dev-1")
	require.NoError(t, err)
	assert.Equal(t, "pulse", *out.State)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTimeSeries_List_WindowFiltersPaging(t *testing.T) {
	db, mock, repo := setupMockRelayRepo(t)
	defer db.Close()

	start, end := ts.Add(-time.Hour), ts
	mock.ExpectQuery(regexp.QuoteMeta(
		"FROM actuator_log_relay WHERE device_id = $1 AND time >= $2 AND time <= $3 AND channel = $4 ORDER BY time DESC, device_id ASC LIMIT $5 OFFSET $6",
	)).
		WithArgs("dev-1", start, end, 2, 100, 100).
		WillReturnRows(sqlmock.NewRows(relayCols).
			AddRow(ts, "dev-1", int64(2), "on", nil, nil).
			AddRow(ts.Add(-time.Minute), "dev-1", int64(2), "off", nil, nil))

	out, err := repo.List(context.Background(), ListQuery{
		Key: "dev-1", Start: &start, End: &end,
		Filters: map[string]any{"channel": 2},
		Limit:   100, Offset: 100,
	})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.True(t, out[0].Time.After(out[1].Time))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTimeSeries_List_LimitCapped(t *testing.T) {
	db, mock, repo := setupMockRelayRepo(t)
	defer db.Close()

	mock.ExpectQuery("ORDER BY time DESC").
		WithArgs(MaxListLimit, 0).
		WillReturnRows(sqlmock.NewRows(relayCols))

	out, err := repo.List(context.Background(), ListQuery{Limit: 5000})
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.NotNil(t, out)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTimeSeries_List_UnknownFilter(t *testing.T) {
	db, mock, repo := setupMockRelayRepo(t)
	defer db.Close()

	_, err := repo.List(context.Background(), ListQuery{Filters: map[string]any{"reason": "x"}})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTimeSeries_Series_NewestFirst(t *testing.T) {
	db, mock, repo := setupMockRelayRepo(t)
	defer db.Close()

	start := ts.Add(-time.Hour)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE device_id = $1 AND time >= $2 ORDER BY time DESC LIMIT 100001")).
		WithArgs("dev-1", start).
		WillReturnRows(sqlmock.NewRows(relayCols))

	items, truncated, err := repo.Series(context.Background(), SeriesQuery{Key: "dev-1", Start: &start})
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.False(t, truncated)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTimeSeries_Series_ThresholdInSQL(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewTimeSeriesRepository[domain.GasReading, domain.GasPatch](sqlx.NewDb(db, "sqlmock"), domain.KindMQ5)

	start, end := ts.Add(-time.Hour), ts
	mock.ExpectQuery(regexp.QuoteMeta(
		"FROM sensor_raw_mq5 WHERE device_id = $1 AND time >= $2 AND time <= $3 AND ppm_value >= $4 ORDER BY time DESC LIMIT 100001")).
		WithArgs("mq5-1", start, end, 1000.0).
		WillReturnRows(sqlmock.NewRows([]string{"time", "device_id", "analog_value", "ppm_value", "gas_type", "raw_payload"}).
			AddRow(ts, "mq5-1", int64(900), 1200.0, "LPG", nil))

	items, truncated, err := repo.Series(context.Background(), SeriesQuery{
		Key: "mq5-1", Start: &start, End: &end,
		Where: []Bound{{Column: "ppm_value", Op: ">=", Value: 1000.0}},
	})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.False(t, truncated)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTimeSeries_Series_AnyOfAndTruncation(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewTimeSeriesRepository[domain.TemperatureReading, domain.TemperaturePatch](sqlx.NewDb(db, "sqlmock"), domain.KindTemperature)

	cols := []string{"time", "device_id", "temperature_celsius", "humidity_percent", "raw_payload"}
	mock.ExpectQuery(regexp.QuoteMeta(
		"WHERE device_id = $1 AND (temperature_celsius <= $2 OR temperature_celsius >= $3) ORDER BY time DESC LIMIT 3")).
		WithArgs("t-1", 0.0, 50.0).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(ts, "t-1", 55.0, nil, nil).
			AddRow(ts.Add(-time.Minute), "t-1", -3.0, nil, nil).
			AddRow(ts.Add(-2*time.Minute), "t-1", 51.0, nil, nil))

	items, truncated, err := repo.Series(context.Background(), SeriesQuery{
		Key: "t-1",
		AnyOf: []Bound{
			{Column: "temperature_celsius", Op: "<=", Value: 0.0},
			{Column: "temperature_celsius", Op: ">=", Value: 50.0},
		},
		Limit: 2,
	})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.True(t, truncated)
	assert.Equal(t, ts, items[0].Time)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTimeSeries_Series_RejectsUnknownColumn(t *testing.T) {
	db, mock, repo := setupMockRelayRepo(t)
	defer db.Close()

	_, _, err := repo.Series(context.Background(), SeriesQuery{
		Where: []Bound{{Column: "channel; DROP TABLE x", Op: ">=", Value: 1}},
	})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTimeSeries_Update(t *testing.T) {
	db, mock, repo := setupMockRelayRepo(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(
		"UPDATE actuator_log_relay SET state = $3, reason = $4 WHERE device_id = $1 AND time = $2 RETURNING",
	)).
		WithArgs("dev-1", ts, "off", "timer").
		WillReturnRows(sqlmock.NewRows(relayCols).AddRow(ts, "dev-1", int64(1), "off", "timer", nil))
	mock.ExpectCommit()

	out, err := repo.Update(context.Background(), "dev-1", ts, &domain.RelayPatch{State: strPtr("off"), Reason: strPtr("timer")})
	require.NoError(t, err)
	assert.Equal(t, "off", *out.State)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTimeSeries_Update_Missing(t *testing.T) {
	db, mock, repo := setupMockRelayRepo(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("UPDATE actuator_log_relay").
		WillReturnRows(sqlmock.NewRows(relayCols))
	mock.ExpectCommit()

	out, err := repo.Update(context.Background(), "dev-1", ts, &domain.RelayPatch{State: strPtr("off")})
	require.NoError(t, err)
	assert.Nil(t, out)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTimeSeries_Delete(t *testing.T) {
	db, mock, repo := setupMockRelayRepo(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM actuator_log_relay WHERE device_id = $1 AND time = $2")).
		WithArgs("dev-1", ts).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	ok, err := repo.Delete(context.Background(), "dev-1", ts)
	require.NoError(t, err)
	assert.True(t, ok)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM actuator_log_relay").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	ok, err = repo.Delete(context.Background(), "dev-1", ts)
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTimeSeries_Create_PreparesAndDecorates(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewTimeSeriesRepository[domain.ButtonEvent, domain.ButtonPatch](sqlx.NewDb(db, "sqlmock"), domain.KindButton)

	cols := []string{"time", "device_id", "button_state", "event_type", "press_duration_ms", "raw_payload"}
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO sensor_event_button (time, device_id, button_state, event_type, press_duration_ms, raw_payload)")).
		WillReturnRows(sqlmock.NewRows(cols).AddRow(ts, "btn-1", "LONG_PRESS", "crisis_acknowledged", int64(1500), nil))
	mock.ExpectCommit()

	out, err := repo.Create(context.Background(), &domain.ButtonEvent{
		Time: ts, DeviceID: "btn-1",
		ButtonState: strPtr("LONG_PRESS"), EventType: strPtr("crisis_acknowledged"), PressDurationMs: intPtr(1500),
	})
	require.NoError(t, err)
	assert.Equal(t, 3, out.Priority)
	assert.True(t, out.IsLongPress)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPool_Acquire(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	pool := NewPool(sqlx.NewDb(db, "sqlmock"))
	sess, release, err := pool.Acquire(context.Background())
	require.NoError(t, err)
	require.NotNil(t, sess)

	mock.ExpectExec("SELECT 1").WillReturnResult(sqlmock.NewResult(0, 0))
	_, err = sess.ExecContext(context.Background(), "SELECT 1")
	require.NoError(t, err)
	require.NoError(t, release())
	require.NoError(t, mock.ExpectationsWereMet())
}
