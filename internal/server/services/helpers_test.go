package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/authkit/internal/dbx"
	"github.com/dmitrijs2005/authkit/internal/logging"
	"github.com/dmitrijs2005/authkit/internal/server/auth"
	"github.com/dmitrijs2005/authkit/internal/server/models"
	"github.com/dmitrijs2005/authkit/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/authkit/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/authkit/internal/server/repositories/users"
	"github.com/stretchr/testify/require"
)

const (
	accessSecret  = "access-secret"
	refreshSecret = "refresh-secret"
)

var testTokens = TokenSettings{
	AccessSecret:  accessSecret,
	RefreshSecret: refreshSecret,
	AccessTTL:     15 * time.Minute,
	RefreshTTL:    24 * time.Hour,
}

func testHasher() auth.Hasher {
	return auth.NewArgon2idHasher(auth.Argon2Params{Time: 1, MemoryKiB: 1024, Threads: 1})
}

// recLogger keeps error messages for assertions.
type recLogger struct {
	mu     sync.Mutex
	errors []string
}

func (l *recLogger) Debug(context.Context, string, ...any) {}
func (l *recLogger) Info(context.Context, string, ...any)  {}
func (l *recLogger) Warn(context.Context, string, ...any)  {}
func (l *recLogger) Error(_ context.Context, msg string, _ ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, msg)
}
func (l *recLogger) With(...any) logging.Logger { return l }

func (l *recLogger) errorMessages() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.errors...)
}

type recorder struct {
	mu     sync.Mutex
	events map[string]int
}

func (r *recorder) AuthEvent(op, result string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.events == nil {
		r.events = map[string]int{}
	}
	r.events[op+"/"+result]++
}

func (r *recorder) count(key string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events[key]
}

type testEnv struct {
	m      repomanager.RepositoryManager
	auth   *AuthService
	users  *UserService
	codec  *auth.TokenCodec
	log    *recLogger
	events *recorder
}

func newEnvWith(t *testing.T, m repomanager.RepositoryManager) *testEnv {
	t.Helper()
	log := &recLogger{}
	events := &recorder{}
	hasher := testHasher()
	codec := auth.NewTokenCodec(nil)

	as, err := NewAuthService(m, hasher, codec, testTokens, log, events)
	require.NoError(t, err)

	return &testEnv{
		m:      m,
		auth:   as,
		users:  NewUserService(m, hasher, log),
		codec:  codec,
		log:    log,
		events: events,
	}
}

func newEnv(t *testing.T) *testEnv {
	return newEnvWith(t, repomanager.NewMemoryRepositoryManager(repomanager.Options{ExcludeDeletedUsers: true}))
}

func (e *testEnv) register(t *testing.T, email, password string) *models.UserView {
	t.Helper()
	v, err := e.users.Register(context.Background(), RegisterInput{Email: email, Password: password, ProfileName: "Profile"})
	require.NoError(t, err)
	return v
}

// --- fakes for failure injection ---

type fakeUsersRepo struct {
	getByEmailErr error
	getByIDErr    error
	createErr     error
	listErr       error
	updateErr     error
	softDeleteErr error
	user          *models.User
}

func (f *fakeUsersRepo) GetByEmail(context.Context, string) (*models.User, error) {
	if f.getByEmailErr != nil {
		return nil, f.getByEmailErr
	}
	return f.user, nil
}

func (f *fakeUsersRepo) GetByID(context.Context, int64) (*models.User, error) {
	if f.getByIDErr != nil {
		return nil, f.getByIDErr
	}
	return f.user, nil
}

func (f *fakeUsersRepo) Create(_ context.Context, u *models.User) (*models.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	u.ID = 1
	return u, nil
}

func (f *fakeUsersRepo) Update(_ context.Context, u *models.User) (*models.User, error) {
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	return u, nil
}

func (f *fakeUsersRepo) List(context.Context, int, int) ([]*models.User, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return []*models.User{f.user}, nil
}

func (f *fakeUsersRepo) SoftDelete(context.Context, int64) error {
	return f.softDeleteErr
}

type fakeSessionsRepo struct {
	session   *models.Session
	getErr    error
	createErr error
	setErr    error
	clearErr  error
}

func (f *fakeSessionsRepo) GetByUserID(context.Context, int64) (*models.Session, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.session, nil
}

func (f *fakeSessionsRepo) Create(_ context.Context, userID int64) (*models.Session, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &models.Session{UserID: userID}, nil
}

func (f *fakeSessionsRepo) SetToken(context.Context, int64, string, int64) error { return f.setErr }
func (f *fakeSessionsRepo) ClearToken(context.Context, int64) error              { return f.clearErr }

type fakeRepoManager struct {
	u     *fakeUsersRepo
	s     *fakeSessionsRepo
	txErr error
}

func (m *fakeRepoManager) DB() dbx.DBTX                        { return nil }
func (m *fakeRepoManager) RunMigrations(context.Context) error { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) users.Repository     { return m.u }
func (m *fakeRepoManager) Sessions(dbx.DBTX) sessions.Repository {
	return m.s
}
func (m *fakeRepoManager) RunInTx(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	if m.txErr != nil {
		return m.txErr
	}
	return fn(ctx, nil)
}
