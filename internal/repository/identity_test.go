package repository

import (
	"context"
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
	userCols    = []string{"user_id", "user_name", "email", "phone_number", "user_role", "created_at"}
	deviceCols  = []string{"device_id", "user_id", "location_label", "installed_at"}
	profileCols = []string{"user_id", "date_of_birth", "gender", "address", "address_detail", "medical_history", "significant_notes", "current_status", "created_at", "updated_at"}
	relCols     = []string{"relationship_id", "subject_user_id", "target_user_id", "relationship_type", "status", "created_at", "updated_at"}
)

const (
	aliceID = "7f1e8a52-33a1-4a4b-9a59-1f0a4c1d2e01"
	bobID   = "0b5c1d9e-8f22-4f6e-b2a3-5c9d7e8f0a12"
)

func setupMockSession(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock
}

func TestUserRepository_CreateUser(t *testing.T) {
	db, mock := setupMockSession(t)
	defer db.Close()
	repo := NewPostgresUserRepository(db)

	email := "alice@example.com"
	u := &domain.User{UserID: aliceID, UserName: "Alice", Email: &email, UserRole: domain.RoleUser, CreatedAt: ts}

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs(aliceID, "Alice", email, nil, domain.RoleUser, ts).
		WillReturnRows(sqlmock.NewRows(userCols).AddRow(aliceID, "Alice", email, nil, "user", ts))
	mock.ExpectCommit()

	out, err := repo.CreateUser(context.Background(), u)
	require.NoError(t, err)
	assert.Equal(t, "Alice", out.UserName)
	assert.Nil(t, out.PhoneNumber)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_CreateUser_DuplicateEmail(t *testing.T) {
	db, mock := setupMockSession(t)
	defer db.Close()
	repo := NewPostgresUserRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO users`).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "users_email_key"})
	mock.ExpectRollback()

	_, err := repo.CreateUser(context.Background(), &domain.User{UserID: aliceID, UserName: "Alice", UserRole: "user"})
	assert.True(t, apperr.Is(err, apperr.KindConflict))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_GetUserByEmail(t *testing.T) {
	db, mock := setupMockSession(t)
	defer db.Close()
	repo := NewPostgresUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE lower(email) = lower($1)`)).
		WithArgs("ALICE@example.com").
		WillReturnRows(sqlmock.NewRows(userCols).AddRow(aliceID, "Alice", "alice@example.com", nil, "user", ts))

	out, err := repo.GetUserByEmail(context.Background(), "ALICE@example.com")
	require.NoError(t, err)
	assert.Equal(t, aliceID, out.UserID)

	mock.ExpectQuery(`FROM users`).WithArgs("nobody@example.com").WillReturnRows(sqlmock.NewRows(userCols))
	out, err = repo.GetUserByEmail(context.Background(), "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, out)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_ListUsers(t *testing.T) {
	db, mock := setupMockSession(t)
	defer db.Close()
	repo := NewPostgresUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE user_role = $1 ORDER BY created_at DESC, user_id ASC LIMIT $2 OFFSET $3`)).
		WithArgs("caregiver", 10, 0).
		WillReturnRows(sqlmock.NewRows(userCols).AddRow(bobID, "Bob", nil, "010-1234-5678", "caregiver", ts))

	out, err := repo.ListUsers(context.Background(), "caregiver", 10, 0)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "010-1234-5678", *out[0].PhoneNumber)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM users ORDER BY created_at DESC, user_id ASC LIMIT $1 OFFSET $2`)).
		WithArgs(100, 20).
		WillReturnRows(sqlmock.NewRows(userCols))
	out, err = repo.ListUsers(context.Background(), "", 100, 20)
	require.NoError(t, err)
	assert.Empty(t, out)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_UpdateUserRole(t *testing.T) {
	db, mock := setupMockSession(t)
	defer db.Close()
	repo := NewPostgresUserRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE users SET user_role = $2 WHERE user_id = $1`)).
		WithArgs(bobID, "family").
		WillReturnRows(sqlmock.NewRows(userCols).AddRow(bobID, "Bob", nil, nil, "family", ts))
	mock.ExpectCommit()

	out, err := repo.UpdateUserRole(context.Background(), bobID, "family")
	require.NoError(t, err)
	assert.Equal(t, "family", out.UserRole)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_UpdateUser_EmptyPatchReads(t *testing.T) {
	db, mock := setupMockSession(t)
	defer db.Close()
	repo := NewPostgresUserRepository(db)

	mock.ExpectQuery(`SELECT .* FROM users WHERE user_id = \$1`).
		WithArgs(bobID).
		WillReturnRows(sqlmock.NewRows(userCols).AddRow(bobID, "Bob", nil, nil, "user", ts))

	out, err := repo.UpdateUser(context.Background(), bobID, &domain.UserUpdateInput{})
	require.NoError(t, err)
	assert.Equal(t, "Bob", out.UserName)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeviceRepository_AssignAndUnassign(t *testing.T) {
	db, mock := setupMockSession(t)
	defer db.Close()
	repo := NewPostgresDevicesRepository(db)

	uid := aliceID
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE devices SET user_id = $2 WHERE device_id = $1`)).
		WithArgs("dev-1", aliceID).
		WillReturnRows(sqlmock.NewRows(deviceCols).AddRow("dev-1", aliceID, "kitchen", ts))
	mock.ExpectCommit()

	out, err := repo.AssignDevice(context.Background(), "dev-1", &uid)
	require.NoError(t, err)
	assert.True(t, out.IsAssigned())

	mock.ExpectBegin()
	mock.ExpectQuery(`UPDATE devices`).
		WithArgs("dev-1", nil).
		WillReturnRows(sqlmock.NewRows(deviceCols).AddRow("dev-1", nil, "kitchen", ts))
	mock.ExpectCommit()

	out, err = repo.AssignDevice(context.Background(), "dev-1", nil)
	require.NoError(t, err)
	assert.False(t, out.IsAssigned())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeviceRepository_LastSeen(t *testing.T) {
	db, mock := setupMockSession(t)
	defer db.Close()
	repo := NewPostgresDevicesRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT MAX(t) FROM (SELECT MAX(time) AS t FROM actuator_log_buzzer WHERE device_id = $1 UNION ALL`)).
		WithArgs("dev-1").
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(ts))

	seen, err := repo.LastSeen(context.Background(), "dev-1")
	require.NoError(t, err)
	require.NotNil(t, seen)
	assert.True(t, seen.Equal(ts))

	mock.ExpectQuery(`UNION ALL`).
		WithArgs("dev-2").
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(nil))
	seen, err = repo.LastSeen(context.Background(), "dev-2")
	require.NoError(t, err)
	assert.Nil(t, seen)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeviceRepository_Delete_Referenced(t *testing.T) {
	db, mock := setupMockSession(t)
	defer db.Close()
	repo := NewPostgresDevicesRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM devices`).
		WithArgs("dev-1").
		WillReturnError(&pq.Error{Code: "23503"})
	mock.ExpectRollback()

	_, err := repo.DeleteDevice(context.Background(), "dev-1")
	assert.True(t, apperr.Is(err, apperr.KindConflict))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileRepository_ListByAge(t *testing.T) {
	db, mock := setupMockSession(t)
	defer db.Close()
	repo := NewPostgresUserProfilesRepository(db)

	today := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	dob := time.Date(1945, 3, 2, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE date_of_birth >= $1 AND date_of_birth <= $2`)).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), 50, 0).
		WillReturnRows(sqlmock.NewRows(profileCols).
			AddRow(aliceID, dob, "female", nil, nil, "hypertension", nil, nil, ts, ts))

	out, err := repo.ListProfilesByAge(context.Background(), 65, 90, today, 50, 0)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "female", out[0].Gender)
	assert.Greater(t, out[0].Age, 79)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileRepository_SearchMedicalHistory_EscapesWildcards(t *testing.T) {
	db, mock := setupMockSession(t)
	defer db.Close()
	repo := NewPostgresUserProfilesRepository(db)

	mock.ExpectQuery(`ILIKE`).
		WithArgs(`100\%`, 100, 0).
		WillReturnRows(sqlmock.NewRows(profileCols))

	_, err := repo.SearchMedicalHistory(context.Background(), "100%", 100, 0)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileRepository_UpdateProfile_StampsUpdatedAt(t *testing.T) {
	db, mock := setupMockSession(t)
	defer db.Close()
	repo := NewPostgresUserProfilesRepository(db)

	status := "hospitalized"
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE user_profiles SET current_status = $3, updated_at = $2 WHERE user_id = $1`)).
		WithArgs(aliceID, ts, status).
		WillReturnRows(sqlmock.NewRows(profileCols).
			AddRow(aliceID, time.Date(1950, 1, 1, 0, 0, 0, 0, time.UTC), "female", nil, nil, nil, nil, status, ts, ts))
	mock.ExpectCommit()

	out, err := repo.UpdateProfile(context.Background(), aliceID, &domain.UserProfileUpdateInput{CurrentStatus: &status}, ts)
	require.NoError(t, err)
	assert.Equal(t, status, *out.CurrentStatus)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRelationshipRepository_ListBySubject(t *testing.T) {
	db, mock := setupMockSession(t)
	defer db.Close()
	repo := NewPostgresUserRelationshipsRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE subject_user_id = $1 ORDER BY created_at DESC, relationship_id LIMIT $2`)).
		WithArgs(aliceID, MaxListLimit).
		WillReturnRows(sqlmock.NewRows(relCols).AddRow("rel-1", aliceID, bobID, "caregiver", "active", ts, ts))

	out, err := repo.ListBySubject(context.Background(), aliceID)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.True(t, out[0].IsActive())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRelationshipRepository_UpdateStatus_Missing(t *testing.T) {
	db, mock := setupMockSession(t)
	defer db.Close()
	repo := NewPostgresUserRelationshipsRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`UPDATE user_relationships SET status`).
		WithArgs("rel-x", "inactive", ts).
		WillReturnRows(sqlmock.NewRows(relCols))
	mock.ExpectCommit()

	out, err := repo.UpdateStatus(context.Background(), "rel-x", "inactive", ts)
	require.NoError(t, err)
	assert.Nil(t, out)
	require.NoError(t, mock.ExpectationsWereMet())
}
