package service

import (
	"context"
	"testing"

	"connectrpc.com/connect"
)

func TestRegisterAndLogin(t *testing.T) {
	s := setupTestServer(t)
	ctx := context.Background()

	alice := s.register(t, "alice@example.com", "Alice")
	if alice.user.ID == "" || alice.token == "" {
		t.Fatalf("Register returned %+v", alice)
	}
	if alice.user.CreatedAt == nil {
		t.Error("expected CreatedAt in response")
	}

	resp, err := s.auth.Login(ctx, connect.NewRequest(&LoginRequest{
		Email:    "Alice@Example.com",
		Password: "password123",
	}))
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if resp.Msg.User.ID != alice.user.ID {
		t.Errorf("Login user = %s, want %s", resp.Msg.User.ID, alice.user.ID)
	}

	me, err := s.auth.GetCurrentUser(ctx, authed(account{token: resp.Msg.Token}, &GetCurrentUserRequest{}))
	if err != nil {
		t.Fatalf("GetCurrentUser failed: %v", err)
	}
	if me.Msg.User.DisplayName != "Alice" {
		t.Errorf("DisplayName = %q, want Alice", me.Msg.User.DisplayName)
	}
}

func TestRegisterErrors(t *testing.T) {
	s := setupTestServer(t)
	s.register(t, "taken@example.com", "Taken")

	tests := []struct {
		name string
		req  *RegisterRequest
		want connect.Code
	}{
		{"duplicate email", &RegisterRequest{Email: "taken@example.com", DisplayName: "Again", Password: "password123"}, connect.CodeAlreadyExists},
		{"bad email", &RegisterRequest{Email: "not-an-email", DisplayName: "Bad", Password: "password123"}, connect.CodeInvalidArgument},
		{"missing name", &RegisterRequest{Email: "new@example.com", Password: "password123"}, connect.CodeInvalidArgument},
		{"short password", &RegisterRequest{Email: "new@example.com", DisplayName: "New", Password: "short"}, connect.CodeInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.auth.Register(context.Background(), connect.NewRequest(tt.req))
			assertCode(t, err, tt.want)
		})
	}
}

func TestLoginErrors(t *testing.T) {
	s := setupTestServer(t)
	s.register(t, "bob@example.com", "Bob")
	ctx := context.Background()

	_, err := s.auth.Login(ctx, connect.NewRequest(&LoginRequest{Email: "bob@example.com", Password: "wrong-password"}))
	assertCode(t, err, connect.CodeUnauthenticated)

	_, err = s.auth.Login(ctx, connect.NewRequest(&LoginRequest{Email: "nobody@example.com", Password: "password123"}))
	assertCode(t, err, connect.CodeUnauthenticated)

	_, err = s.auth.Login(ctx, connect.NewRequest(&LoginRequest{Email: "bob@example.com"}))
	assertCode(t, err, connect.CodeInvalidArgument)
}

func TestGetCurrentUser_Unauthenticated(t *testing.T) {
	s := setupTestServer(t)
	ctx := context.Background()

	_, err := s.auth.GetCurrentUser(ctx, connect.NewRequest(&GetCurrentUserRequest{}))
	assertCode(t, err, connect.CodeUnauthenticated)

	_, err = s.auth.GetCurrentUser(ctx, authed(account{token: "garbage"}, &GetCurrentUserRequest{}))
	assertCode(t, err, connect.CodeUnauthenticated)
}
