package cli

import (
	"bufio"
	"context"
	"io"
	"log"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/authkit/internal/client/client"
	"github.com/dmitrijs2005/authkit/internal/client/config"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

// onlineCheckInterval is how often the watcher pings the server.
const onlineCheckInterval = 3 * time.Second

// AuthAPI is the server surface the CLI drives. *client.GRPCClient
// satisfies it.
type AuthAPI interface {
	Register(ctx context.Context, email, password, profileName string) (*client.User, error)
	Login(ctx context.Context, email, password string) (*client.User, error)
	Logout(ctx context.Context) error
	GetUser(ctx context.Context, id int64) (*client.User, error)
	ListUsers(ctx context.Context, skip, limit int) ([]client.User, error)
	UpdateUser(ctx context.Context, id int64, profileName, role *string) (*client.User, error)
	DeleteUser(ctx context.Context, id int64) error
	Ping(ctx context.Context) error
	IsLoggedIn() bool
	Close() error
}

type App struct {
	config *config.Config
	api    AuthAPI
	email  string
	reader *bufio.Reader
	out    io.Writer

	mu   sync.Mutex
	mode Mode
}

func NewApp(c *config.Config) (*App, error) {

	apiClient, err := client.NewAuthKitClient(c.ServerEndpointAddr)
	if err != nil {
		return nil, err
	}

	return &App{config: c, api: apiClient, reader: bufio.NewReader(os.Stdin), out: os.Stdout}, nil
}

func (app *App) setMode(mode Mode) {
	app.mu.Lock()
	defer app.mu.Unlock()
	if app.mode != mode {
		app.mode = mode
		log.Printf("Switched to %s mode\n", mode)
	}
}

// Mode returns the last observed connectivity state.
func (app *App) Mode() Mode {
	app.mu.Lock()
	defer app.mu.Unlock()
	return app.mode
}

func (app *App) getStatus() string {
	s := ""
	if app.email != "" {
		s = app.email + " "
	}
	return s + string(app.Mode())
}

// withTimeout bounds a single server call.
func (app *App) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if app.config == nil || app.config.RequestTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, app.config.RequestTimeout)
}

func (app *App) Run(ctx context.Context) {
	defer func() {
		if err := app.api.Close(); err != nil {
			log.Printf("closing connection: %v", err)
		}
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go app.StartOnlineStatusWatcher(ctx, onlineCheckInterval)

	log.Println("Welcome to authkit CLI (type 'help' for commands)")
	runREPL(ctx, app, app.getStatus, app.reader)
}

func (app *App) isLoggedIn() bool {
	return app.api.IsLoggedIn()
}

func (app *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
			err := app.api.Ping(pingCtx)
			cancel()

			if err != nil {
				app.setMode(ModeOffline)
			} else {
				app.setMode(ModeOnline)
			}

		case <-ctx.Done():
			return
		}
	}
}
