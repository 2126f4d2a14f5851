package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"iotcare-data/internal/domain"

	"github.com/jmoiron/sqlx"
)

const deviceColumns = "device_id, user_id, location_label, installed_at"

// DeviceRepository devices 表访问
type DeviceRepository interface {
	CreateDevice(ctx context.Context, d *domain.Device) (*domain.Device, error)
	GetDevice(ctx context.Context, deviceID string) (*domain.Device, error)
	ListDevices(ctx context.Context, userID string, limit, offset int) ([]domain.Device, error)
	UpdateDevice(ctx context.Context, deviceID string, patch *domain.DeviceUpdateInput) (*domain.Device, error)
	AssignDevice(ctx context.Context, deviceID string, userID *string) (*domain.Device, error)
	DeleteDevice(ctx context.Context, deviceID string) (bool, error)
	LastSeen(ctx context.Context, deviceID string) (*time.Time, error)
}

// PostgresDevicesRepository DeviceRepository 的 PostgreSQL 实现
type PostgresDevicesRepository struct {
	sess Session
}

// NewPostgresDevicesRepository 创建设备 Repository
func NewPostgresDevicesRepository(sess Session) *PostgresDevicesRepository {
	return &PostgresDevicesRepository{sess: sess}
}

// 确保实现了接口
var _ DeviceRepository = (*PostgresDevicesRepository)(nil)

func (r *PostgresDevicesRepository) CreateDevice(ctx context.Context, d *domain.Device) (*domain.Device, error) {
	query := `INSERT INTO devices (` + deviceColumns + `) VALUES ($1, $2, $3, $4) RETURNING ` + deviceColumns

	var out domain.Device
	err := withTx(ctx, r.sess, func(tx *sqlx.Tx) error {
		return tx.QueryRowxContext(ctx, query, d.DeviceID, d.UserID, d.LocationLabel, d.InstalledAt).StructScan(&out)
	})
	if err != nil {
		return nil, normalize("device", fmt.Errorf("insert device: %w", err))
	}
	return &out, nil
}

func (r *PostgresDevicesRepository) GetDevice(ctx context.Context, deviceID string) (*domain.Device, error) {
	return getOne[domain.Device](ctx, r.sess, "device",
		`SELECT `+deviceColumns+` FROM devices WHERE device_id = $1`, deviceID)
}

func (r *PostgresDevicesRepository) ListDevices(ctx context.Context, userID string, limit, offset int) ([]domain.Device, error) {
	query := `SELECT ` + deviceColumns + ` FROM devices`
	args := []any{}
	if userID != "" {
		query += ` WHERE user_id = $1`
		args = append(args, userID)
	}
	query += fmt.Sprintf(` ORDER BY device_id ASC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)
	return getMany[domain.Device](ctx, r.sess, "device", query, args...)
}

func (r *PostgresDevicesRepository) UpdateDevice(ctx context.Context, deviceID string, patch *domain.DeviceUpdateInput) (*domain.Device, error) {
	sets, args := setClause(patch, 2)
	if len(sets) == 0 {
		return r.GetDevice(ctx, deviceID)
	}
	query := `UPDATE devices SET ` + strings.Join(sets, ", ") + ` WHERE device_id = $1 RETURNING ` + deviceColumns
	return updateOne[domain.Device](ctx, r.sess, "device", query, append([]any{deviceID}, args...)...)
}

// AssignDevice userID 为 nil 时解除分配
func (r *PostgresDevicesRepository) AssignDevice(ctx context.Context, deviceID string, userID *string) (*domain.Device, error) {
	query := `UPDATE devices SET user_id = $2 WHERE device_id = $1 RETURNING ` + deviceColumns
	return updateOne[domain.Device](ctx, r.sess, "device", query, deviceID, userID)
}

func (r *PostgresDevicesRepository) DeleteDevice(ctx context.Context, deviceID string) (bool, error) {
	return deleteOne(ctx, r.sess, "device", `DELETE FROM devices WHERE device_id = $1`, deviceID)
}

// LastSeen 所有按设备存储的时序表中该设备最新的 time
func (r *PostgresDevicesRepository) LastSeen(ctx context.Context, deviceID string) (*time.Time, error) {
	var parts []string
	for _, slug := range domain.DeviceKindSlugs() {
		parts = append(parts, fmt.Sprintf("SELECT MAX(time) AS t FROM %s WHERE device_id = $1", domain.MustKind(slug).Table))
	}
	query := "SELECT MAX(t) FROM (" + strings.Join(parts, " UNION ALL ") + ") AS seen"

	var t sql.NullTime
	if err := r.sess.QueryRowxContext(ctx, query, deviceID).Scan(&t); err != nil {
		return nil, normalize("device", fmt.Errorf("last seen: %w", err))
	}
	if !t.Valid {
		return nil, nil
	}
	return &t.Time, nil
}
