package service

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/housemates/internal/auth"
	"github.com/mmynk/housemates/internal/metrics"
	"github.com/mmynk/housemates/internal/middleware"
	"github.com/mmynk/housemates/internal/storage/sqlite"
)

const (
	testMaxMembers    = 4
	testSettleTimeout = 5 * time.Second
)

type testServer struct {
	auth    *AuthServiceClient
	groups  *GroupServiceClient
	expense *ExpenseServiceClient
	metrics *metrics.Metrics
}

// setupTestServer starts all three services against a fresh SQLite database.
func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "housemates-service-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	store, err := sqlite.New(filepath.Join(tempDir, "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	authenticator := auth.NewPasswordAuthenticator(store).WithCost(bcrypt.MinCost)
	m := metrics.New(prometheus.NewRegistry())
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	public := connect.WithInterceptors(middleware.OptionalAuth(jwtManager))
	private := connect.WithInterceptors(middleware.RequireAuth(jwtManager))

	mux := http.NewServeMux()
	mux.Handle(NewAuthServiceHandler(NewAuthService(authenticator, jwtManager, store, logger), public))
	mux.Handle(NewGroupServiceHandler(NewGroupService(store, testMaxMembers), private))
	mux.Handle(NewExpenseServiceHandler(NewExpenseService(store, testMaxMembers, testSettleTimeout, m), private))

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return &testServer{
		auth:    NewAuthServiceClient(http.DefaultClient, server.URL),
		groups:  NewGroupServiceClient(http.DefaultClient, server.URL),
		expense: NewExpenseServiceClient(http.DefaultClient, server.URL),
		metrics: m,
	}
}

// account is a registered user and their session token.
type account struct {
	user  *User
	token string
}

func (s *testServer) register(t *testing.T, email, name string) account {
	t.Helper()
	resp, err := s.auth.Register(context.Background(), connect.NewRequest(&RegisterRequest{
		Email:       email,
		DisplayName: name,
		Password:    "password123",
	}))
	if err != nil {
		t.Fatalf("Register(%s) failed: %v", email, err)
	}
	return account{user: resp.Msg.User, token: resp.Msg.Token}
}

// authed builds a request carrying the account's bearer token.
func authed[T any](a account, msg *T) *connect.Request[T] {
	req := connect.NewRequest(msg)
	req.Header().Set("Authorization", "Bearer "+a.token)
	return req
}

// household creates a group owned by the first account with the rest added as members.
func (s *testServer) household(t *testing.T, name string, accounts ...account) *Group {
	t.Helper()
	ctx := context.Background()

	resp, err := s.groups.CreateGroup(ctx, authed(accounts[0], &CreateGroupRequest{Name: name}))
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	group := resp.Msg.Group
	for _, a := range accounts[1:] {
		added, err := s.groups.AddMember(ctx, authed(accounts[0], &AddMemberRequest{
			GroupID: group.ID,
			Email:   a.user.Email,
		}))
		if err != nil {
			t.Fatalf("AddMember(%s) failed: %v", a.user.Email, err)
		}
		group = added.Msg.Group
	}
	return group
}

func assertCode(t *testing.T, err error, want connect.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %v error, got nil", want)
	}
	if got := connect.CodeOf(err); got != want {
		t.Errorf("code = %v, want %v (error: %v)", got, want, err)
	}
}
