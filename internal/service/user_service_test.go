package service

import (
	"context"
	"testing"

	"iotcare-data/internal/apperr"
	"iotcare-data/internal/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	adminID     = "11111111-1111-1111-1111-111111111111"
	caregiverID = "22222222-2222-2222-2222-222222222222"
	familyID    = "33333333-3333-3333-3333-333333333333"
	elderID     = "44444444-4444-4444-4444-444444444444"
)

func testUsers() map[string]*domain.User {
	return map[string]*domain.User{
		adminID:     {UserID: adminID, UserName: "관리자", UserRole: domain.RoleAdmin},
		caregiverID: {UserID: caregiverID, UserName: "요양보호사", UserRole: domain.RoleCaregiver},
		familyID:    {UserID: familyID, UserName: "가족", UserRole: domain.RoleFamily},
		elderID:     {UserID: elderID, UserName: "김영희", UserRole: domain.RoleUser},
	}
}

func setupUserService(t *testing.T, production bool) (*MockUserRepository, UserService) {
	t.Helper()
	repo := new(MockUserRepository)
	for id, u := range testUsers() {
		repo.On("GetUser", mock.Anything, id).Return(u, nil).Maybe()
	}
	deps := testDeps()
	deps.Production = production
	return repo, NewUserService(repo, deps)
}

func TestUserService_CreateUser_DefaultsRole(t *testing.T) {
	repo, svc := setupUserService(t, false)
	email := "younghee@example.com"
	repo.On("GetUserByEmail", mock.Anything, email).Return(nil, nil)
	repo.On("CreateUser", mock.Anything, mock.MatchedBy(func(u *domain.User) bool {
		_, err := uuid.Parse(u.UserID)
		return err == nil && u.UserRole == domain.RoleUser && u.UserName == "김영희"
	})).Return(func(_ context.Context, u *domain.User) *domain.User { return u }, nil)

	u, err := svc.CreateUser(context.Background(), domain.UserCreateInput{UserName: " 김영희 ", Email: &email})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleUser, u.UserRole)
	assert.Equal(t, t0, u.CreatedAt)
	repo.AssertExpectations(t)
}

func TestUserService_CreateUser_DuplicateEmail(t *testing.T) {
	repo, svc := setupUserService(t, false)
	email := "dup@example.com"
	repo.On("GetUserByEmail", mock.Anything, email).Return(&domain.User{UserID: elderID, Email: &email}, nil)

	_, err := svc.CreateUser(context.Background(), domain.UserCreateInput{UserName: "중복", Email: &email})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindConflict))
	repo.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything)
}

func TestUserService_GetUser_InvalidID(t *testing.T) {
	_, svc := setupUserService(t, false)
	_, err := svc.GetUser(context.Background(), "not-a-uuid")
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestUserService_ChangeRole(t *testing.T) {
	tests := []struct {
		name    string
		actor   string
		target  string
		newRole string
		want    apperr.Kind
	}{
		{"caregiver cannot touch admin", caregiverID, adminID, domain.RoleUser, apperr.KindForbidden},
		{"caregiver cannot grant caregiver", caregiverID, familyID, domain.RoleCaregiver, apperr.KindForbidden},
		{"family cannot manage family", familyID, familyID, domain.RoleUser, apperr.KindForbidden},
		{"missing actor", "", elderID, domain.RoleFamily, apperr.KindForbidden},
		{"unknown actor", "55555555-5555-5555-5555-555555555555", elderID, domain.RoleFamily, apperr.KindForbidden},
		{"invalid role", adminID, elderID, "root", apperr.KindValidation},
		{"caregiver promotes user to family", caregiverID, elderID, domain.RoleFamily, ""},
		{"admin demotes admin", adminID, adminID, domain.RoleCaregiver, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, svc := setupUserService(t, false)
			repo.On("GetUser", mock.Anything, "55555555-5555-5555-5555-555555555555").Return(nil, nil).Maybe()
			updated := &domain.User{UserID: tt.target, UserRole: tt.newRole}
			repo.On("UpdateUserRole", mock.Anything, tt.target, tt.newRole).Return(updated, nil).Maybe()

			u, err := svc.ChangeRole(context.Background(), ChangeRoleRequest{
				ActorID:  tt.actor,
				TargetID: tt.target,
				Input:    domain.RoleChangeInput{UserRole: tt.newRole},
			})
			if tt.want == "" {
				require.NoError(t, err)
				assert.Equal(t, tt.newRole, u.UserRole)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.want, apperr.KindOf(err))
			repo.AssertNotCalled(t, "UpdateUserRole", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestUserService_DeleteUser_ProductionRequiresActor(t *testing.T) {
	repo, svc := setupUserService(t, true)

	err := svc.DeleteUser(context.Background(), DeleteUserRequest{TargetID: elderID})
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	err = svc.DeleteUser(context.Background(), DeleteUserRequest{ActorID: familyID, TargetID: caregiverID})
	assert.True(t, apperr.Is(err, apperr.KindForbidden))
	repo.AssertNotCalled(t, "DeleteUser", mock.Anything, mock.Anything)

	repo.On("DeleteUser", mock.Anything, elderID).Return(true, nil)
	require.NoError(t, svc.DeleteUser(context.Background(), DeleteUserRequest{ActorID: caregiverID, TargetID: elderID}))
}

func TestUserService_DeleteUser_Development(t *testing.T) {
	repo, svc := setupUserService(t, false)
	repo.On("DeleteUser", mock.Anything, elderID).Return(false, nil)

	err := svc.DeleteUser(context.Background(), DeleteUserRequest{TargetID: elderID})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestUserService_ListUsers_RoleFilter(t *testing.T) {
	repo, svc := setupUserService(t, false)
	repo.On("ListUsers", mock.Anything, domain.RoleFamily, 100, 0).Return([]domain.User{*testUsers()[familyID]}, nil)

	users, err := svc.ListUsers(context.Background(), ListUsersRequest{Role: domain.RoleFamily, Limit: 100})
	require.NoError(t, err)
	assert.Len(t, users, 1)

	_, err = svc.ListUsers(context.Background(), ListUsersRequest{Role: "root", Limit: 100})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestUserService_UpdateUser_EmailTakenByOther(t *testing.T) {
	repo, svc := setupUserService(t, false)
	email := "taken@example.com"
	repo.On("GetUserByEmail", mock.Anything, email).Return(&domain.User{UserID: familyID}, nil)

	_, err := svc.UpdateUser(context.Background(), elderID, domain.UserUpdateInput{Email: &email})
	assert.True(t, apperr.Is(err, apperr.KindConflict))
}
