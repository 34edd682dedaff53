package auth

import (
	"context"
	"sync"

	"github.com/dealhunt/dealhunt-go/internal/logger"
	"github.com/dealhunt/dealhunt-go/internal/models"
	"go.uber.org/zap"
)

// Controller holds the process-local AuthState and exposes the auth
// operations under a uniform envelope: loading is set while an operation is
// in flight, the error is cleared at the start of every operation, and a
// failed operation never clears an existing session.
type Controller struct {
	svc *Service

	mu       sync.Mutex
	state    models.AuthState
	initOnce sync.Once

	watcherMu sync.Mutex
	watchers  map[int]chan models.AuthState
	nextID    int
}

// NewController creates the controller. Initialization runs once, on the
// first Initialize or Snapshot call.
func NewController(svc *Service) *Controller {
	return &Controller{
		svc:      svc,
		state:    models.AuthState{Loading: true},
		watchers: make(map[int]chan models.AuthState),
	}
}

// Initialize restores the session at process start. Safe to call more than
// once; only the first call does work.
func (c *Controller) Initialize(ctx context.Context) {
	c.initOnce.Do(func() {
		c.begin()

		current, err := c.svc.GetCurrentSession(ctx)
		if err != nil {
			logger.Error("auth initialization failed", zap.Error(err))
			c.update(func(state *models.AuthState) {
				state.User = nil
				state.Session = nil
				state.Loading = false
				state.Error = &models.AuthError{
					Message: "Failed to initialize authentication",
					Code:    models.CodeInitError,
				}
			})
			return
		}

		c.setSession(current)
	})
}

// Snapshot returns the current state, initializing on first use and
// proactively refreshing a session that has entered the expiry buffer.
func (c *Controller) Snapshot(ctx context.Context) models.AuthState {
	c.Initialize(ctx)

	c.mu.Lock()
	current := c.state.Session
	c.mu.Unlock()

	if current != nil && c.svc.IsTokenExpired(current) {
		c.RefreshToken(ctx)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SignInWithEmail signs in with email credentials and publishes the result.
func (c *Controller) SignInWithEmail(ctx context.Context, email, password string) (*models.Session, error) {
	return c.run(func() (*models.Session, error) {
		return c.svc.SignInWithEmail(ctx, email, password)
	})
}

// SignUpWithEmail registers a new account and publishes the result.
func (c *Controller) SignUpWithEmail(ctx context.Context, email, password string, metadata map[string]any) (*models.Session, error) {
	return c.run(func() (*models.Session, error) {
		return c.svc.SignUpWithEmail(ctx, email, password, metadata)
	})
}

// SignInWithGoogle runs the Google OAuth flow and publishes the result.
func (c *Controller) SignInWithGoogle(ctx context.Context) (*models.Session, error) {
	return c.run(func() (*models.Session, error) {
		return c.svc.SignInWithGoogle(ctx)
	})
}

// SignInWithFacebook runs the Facebook OAuth flow and publishes the result.
func (c *Controller) SignInWithFacebook(ctx context.Context) (*models.Session, error) {
	return c.run(func() (*models.Session, error) {
		return c.svc.SignInWithFacebook(ctx)
	})
}

// SignOut ends the session. The state always ends unauthenticated, whatever
// the remote outcome.
func (c *Controller) SignOut(ctx context.Context) {
	c.begin()
	c.svc.SignOut(ctx)
	c.setSession(nil)
}

// RefreshToken renews the session. A nil result demotes the state to
// signed-out silently; the next interaction requiring auth re-authenticates.
func (c *Controller) RefreshToken(ctx context.Context) *models.Session {
	refreshed := c.svc.RefreshToken(ctx)
	if refreshed == nil {
		c.svc.SignOut(ctx)
		c.setSession(nil)
		return nil
	}

	c.update(func(state *models.AuthState) {
		state.User = &refreshed.User
		state.Session = refreshed
		state.Error = nil
	})
	return refreshed
}

// ClearError drops the last operation's error from the state.
func (c *Controller) ClearError() {
	c.update(func(state *models.AuthState) {
		state.Error = nil
	})
}

// IsAuthenticated reports whether a session is currently held.
func (c *Controller) IsAuthenticated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.IsAuthenticated()
}

// Subscribe returns a channel receiving every published state and a cancel
// function. Slow receivers miss intermediate states rather than block.
func (c *Controller) Subscribe() (<-chan models.AuthState, func()) {
	c.watcherMu.Lock()
	defer c.watcherMu.Unlock()

	id := c.nextID
	c.nextID++
	ch := make(chan models.AuthState, 1)
	c.watchers[id] = ch

	cancel := func() {
		c.watcherMu.Lock()
		defer c.watcherMu.Unlock()
		if watcher, ok := c.watchers[id]; ok {
			delete(c.watchers, id)
			close(watcher)
		}
	}
	return ch, cancel
}

// run executes an operation under the loading/error envelope.
func (c *Controller) run(op func() (*models.Session, error)) (*models.Session, error) {
	c.begin()

	established, err := op()
	if err != nil {
		c.fail(err)
		return nil, err
	}

	c.setSession(established)
	return established, nil
}

func (c *Controller) begin() {
	c.update(func(state *models.AuthState) {
		state.Loading = true
		state.Error = nil
	})
}

func (c *Controller) setSession(session *models.Session) {
	c.update(func(state *models.AuthState) {
		if session != nil {
			state.User = &session.User
			state.Session = session
		} else {
			state.User = nil
			state.Session = nil
		}
		state.Loading = false
		state.Error = nil
	})
}

// fail records the error and keeps the previous session: a failed sign-in
// must not log out an already-authenticated user.
func (c *Controller) fail(err error) {
	authErr, ok := err.(*models.AuthError)
	if !ok {
		authErr = &models.AuthError{Message: err.Error(), Code: models.CodeAuthError}
	}
	c.update(func(state *models.AuthState) {
		state.Loading = false
		state.Error = authErr
	})
}

func (c *Controller) update(mutate func(*models.AuthState)) {
	c.mu.Lock()
	mutate(&c.state)
	published := c.state
	c.mu.Unlock()

	c.publish(published)
}

func (c *Controller) publish(state models.AuthState) {
	c.watcherMu.Lock()
	defer c.watcherMu.Unlock()

	for _, watcher := range c.watchers {
		select {
		case watcher <- state:
		default:
			// Drop the stale state and replace it with the latest.
			select {
			case <-watcher:
			default:
			}
			select {
			case watcher <- state:
			default:
			}
		}
	}
}
