package grpc

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/authkit/internal/logging"
	"github.com/dmitrijs2005/authkit/internal/server/models"
	"github.com/dmitrijs2005/authkit/internal/server/services"
	"github.com/stretchr/testify/require"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

type nopLogger struct{}

func (n nopLogger) Debug(context.Context, string, ...any) {}
func (n nopLogger) Info(context.Context, string, ...any)  {}
func (n nopLogger) Warn(context.Context, string, ...any)  {}
func (n nopLogger) Error(context.Context, string, ...any) {}
func (n nopLogger) With(...any) logging.Logger            { return n }

// ---- fakes ----

type fakeAuth struct {
	loginResp *services.LoginResult
	loginErr  error

	refreshResp string
	refreshErr  error

	logoutErr    error
	loggedOutIDs []int64

	authUser  *models.User
	authErr   error
	authToken string
}

func (f *fakeAuth) Login(ctx context.Context, email, password string) (*services.LoginResult, error) {
	return f.loginResp, f.loginErr
}
func (f *fakeAuth) Refresh(ctx context.Context, refreshToken string) (string, error) {
	return f.refreshResp, f.refreshErr
}
func (f *fakeAuth) Logout(ctx context.Context, userID int64) error {
	f.loggedOutIDs = append(f.loggedOutIDs, userID)
	return f.logoutErr
}
func (f *fakeAuth) Authenticate(ctx context.Context, accessToken string) (*models.User, error) {
	f.authToken = accessToken
	return f.authUser, f.authErr
}

type fakeUsers struct {
	registerIn  services.RegisterInput
	registerErr error

	getID  int64
	getErr error

	listSkip, listLimit int
	list                []models.UserView
	listErr             error

	updateID  int64
	updateIn  services.UpdateInput
	updateErr error

	deleteID  int64
	deleteErr error
}

func view(id int64) *models.UserView {
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	return &models.UserView{
		ID:          id,
		Email:       "user@example.com",
		ProfileName: "user",
		Role:        models.RoleCommon,
		IsActive:    true,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}
}

func (f *fakeUsers) Register(ctx context.Context, in services.RegisterInput) (*models.UserView, error) {
	f.registerIn = in
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	return view(1), nil
}
func (f *fakeUsers) Get(ctx context.Context, id int64) (*models.UserView, error) {
	f.getID = id
	if f.getErr != nil {
		return nil, f.getErr
	}
	return view(id), nil
}
func (f *fakeUsers) List(ctx context.Context, skip, limit int) ([]models.UserView, error) {
	f.listSkip, f.listLimit = skip, limit
	return f.list, f.listErr
}
func (f *fakeUsers) Update(ctx context.Context, caller *models.User, id int64, in services.UpdateInput) (*models.UserView, error) {
	f.updateID, f.updateIn = id, in
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	return view(id), nil
}
func (f *fakeUsers) Delete(ctx context.Context, caller *models.User, id int64) error {
	f.deleteID = id
	return f.deleteErr
}

type fakeObserver struct {
	mu    sync.Mutex
	calls []string
}

func (o *fakeObserver) ObserveRPC(method, code string, d time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls = append(o.calls, method+" "+code)
}

// ---- helpers ----

func newServer(a *fakeAuth, u *fakeUsers) *GRPCServer {
	return &GRPCServer{
		address: "127.0.0.1:0",
		auth:    a,
		users:   u,
		logger:  nopLogger{},
	}
}

func mustStruct(t *testing.T, m map[string]any) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(m)
	require.NoError(t, err)
	return s
}

// errorInfo extracts the ErrorInfo detail from a status error.
func errorInfo(t *testing.T, err error) *errdetails.ErrorInfo {
	t.Helper()
	st, ok := status.FromError(err)
	require.True(t, ok, "not a status error: %v", err)
	for _, d := range st.Details() {
		if info, ok := d.(*errdetails.ErrorInfo); ok {
			return info
		}
	}
	t.Fatalf("no ErrorInfo in %v", err)
	return nil
}
