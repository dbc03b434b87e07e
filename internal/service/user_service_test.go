package service

import (
	"context"
	"testing"

	"backend/internal/model"
	"backend/pkg/apperror"

	"github.com/google/uuid"
)

func createUserRequest() CreateUserRequest {
	return CreateUserRequest{
		Username: "pc-binh-thanh",
		Email:    "pc@example.com",
		Password: "secret123",
		Role:     model.RolePC,
	}
}

func TestCreateUserRejectsDuplicateExternalRef(t *testing.T) {
	users := &userRepoStub{
		getByExternalRefFn: func(ctx context.Context, ref string) (*model.User, error) {
			return &model.User{ID: uuid.New(), ExternalRef: ref}, nil
		},
	}
	svc := NewUserService(users, &tokenRepoStub{})

	req := createUserRequest()
	req.ExternalRef = "HR-00042"
	_, err := svc.CreateUser(context.Background(), req)
	if apperror.StatusOf(err) != 409 {
		t.Fatalf("status = %d, want 409", apperror.StatusOf(err))
	}
}

func TestCreateUserSkipsExternalRefLookupWhenEmpty(t *testing.T) {
	users := &userRepoStub{
		getByExternalRefFn: func(ctx context.Context, ref string) (*model.User, error) {
			t.Fatal("external ref looked up for a user without one")
			return nil, nil
		},
	}
	svc := NewUserService(users, &tokenRepoStub{})

	user, err := svc.CreateUser(context.Background(), createUserRequest())
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	if user.Username != "pc-binh-thanh" {
		t.Errorf("username = %q, want pc-binh-thanh", user.Username)
	}
}

func TestDeleteUserRevokesRefreshTokens(t *testing.T) {
	userID := uuid.New()

	var deletedUser string
	users := &userRepoStub{
		getByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			return &model.User{ID: userID, Role: model.RolePC}, nil
		},
		deleteFn: func(ctx context.Context, id string) error {
			deletedUser = id
			return nil
		},
	}
	var revokedFor string
	tokens := &tokenRepoStub{
		deleteForUserFn: func(ctx context.Context, id string) error {
			revokedFor = id
			return nil
		},
	}
	svc := NewUserService(users, tokens)

	if err := svc.DeleteUser(context.Background(), userID.String()); err != nil {
		t.Fatalf("DeleteUser() error = %v", err)
	}
	if revokedFor != userID.String() {
		t.Errorf("tokens revoked for %q, want %q", revokedFor, userID)
	}
	if deletedUser != userID.String() {
		t.Errorf("deleted user %q, want %q", deletedUser, userID)
	}
}

func TestDeleteUserMissingLeavesTokensAlone(t *testing.T) {
	tokens := &tokenRepoStub{
		deleteForUserFn: func(ctx context.Context, id string) error {
			t.Fatal("tokens revoked for a user that does not exist")
			return nil
		},
	}
	svc := NewUserService(&userRepoStub{}, tokens)

	err := svc.DeleteUser(context.Background(), uuid.NewString())
	if apperror.StatusOf(err) != 404 {
		t.Fatalf("status = %d, want 404", apperror.StatusOf(err))
	}
}
