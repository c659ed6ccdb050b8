// package retry replays the most recent mutating call after an expired access token
// has been refreshed.
//
// The coordinator holds exactly one pending operation. Starting a new mutating
// call overwrites the slot, so only the latest one is ever replayed. A replay
// runs with a marked context: if it expires again the coordinator gives up
// instead of refreshing in a loop.
package retry

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/ssx/internal/models"
	"github.com/desertthunder/ssx/internal/shared"
)

// Operation is a replayable mutating call.
type Operation struct {
	Name string
	Run  func(ctx context.Context) error
}

// RefreshFunc exchanges the refresh token for a new access token.
type RefreshFunc func(ctx context.Context) error

type replayKey struct{}

// IsReplay reports whether ctx belongs to a replayed operation.
func IsReplay(ctx context.Context) bool {
	v, _ := ctx.Value(replayKey{}).(bool)
	return v
}

func withReplay(ctx context.Context) context.Context {
	return context.WithValue(ctx, replayKey{}, true)
}

// Coordinator owns the single pending-operation slot.
type Coordinator struct {
	mu      sync.Mutex
	pending *Operation
	refresh RefreshFunc
	logger  *log.Logger
}

func NewCoordinator(refresh RefreshFunc, logger *log.Logger) *Coordinator {
	if logger == nil {
		logger = shared.NewLogger(os.Stderr)
	}
	return &Coordinator{refresh: refresh, logger: shared.WithLogger(logger, "component", "retry")}
}

// NeedsRefresh reports whether env carries the expired-token error shape: status 401
// and a message containing "access token expired".
func NeedsRefresh(env *models.Envelope) bool {
	return env != nil && env.Error.TokenExpired()
}

// Register makes op the pending operation, replacing any earlier one. Calls made
// from a replay are ignored.
func (c *Coordinator) Register(ctx context.Context, op Operation) {
	if IsReplay(ctx) {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending != nil && c.pending.Name != op.Name {
		c.logger.Debug("replacing pending operation", "old", c.pending.Name, "new", op.Name)
	}
	c.pending = &op
}

// Pending returns the name of the pending operation.
func (c *Coordinator) Pending() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending == nil {
		return "", false
	}
	return c.pending.Name, true
}

// Clear empties the slot.
func (c *Coordinator) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = nil
}

func (c *Coordinator) take() *Operation {
	c.mu.Lock()
	defer c.mu.Unlock()
	op := c.pending
	c.pending = nil
	return op
}

// Handle inspects env and reports whether it was an expired-token error.
//
// On expiry the coordinator refreshes and replays the pending operation once,
// returning the replay's error. A failed refresh clears the slot and returns
// an error wrapping [shared.ErrRefreshFailed]. An expiry seen while replaying
// returns [shared.ErrTokenExpired].
func (c *Coordinator) Handle(ctx context.Context, env *models.Envelope) (bool, error) {
	if !NeedsRefresh(env) {
		return false, nil
	}

	if IsReplay(ctx) {
		c.Clear()
		return true, fmt.Errorf("%w: still expired after refresh", shared.ErrTokenExpired)
	}

	if c.refresh == nil {
		c.Clear()
		return true, fmt.Errorf("%w: no refresher configured", shared.ErrRefreshFailed)
	}

	c.logger.Info("access token expired, refreshing")
	if err := c.refresh(ctx); err != nil {
		c.Clear()
		c.logger.Error("token refresh failed", "error", err)
		return true, fmt.Errorf("%w: %w", shared.ErrRefreshFailed, err)
	}

	op := c.take()
	if op == nil {
		c.logger.Debug("token refreshed with nothing to replay")
		return true, nil
	}

	c.logger.Info("replaying operation", "operation", op.Name)
	return true, op.Run(withReplay(ctx))
}
