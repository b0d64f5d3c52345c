package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/hollowtree/etcdmate/pkg/config"
	"github.com/hollowtree/etcdmate/pkg/connector"
	"github.com/hollowtree/etcdmate/pkg/log"
	"github.com/hollowtree/etcdmate/pkg/metrics"
	"github.com/hollowtree/etcdmate/pkg/ops"
)

// DialFunc establishes a connection for a profile. Overridable in tests.
type DialFunc func(ctx context.Context, profile *config.Profile) (*clientv3.Client, error)

// backend is the capability surface the operation layer needs from an
// open connection. *clientv3.Client satisfies it.
type backend interface {
	ops.KV
	ops.MemberLister
	ops.StatusReader
}

// Session pairs the active profile selection with the live connection,
// if any. At most one connection exists per session; every command runs
// under the session mutex for its full duration, so the connection slot
// is never touched concurrently.
type Session struct {
	mu     sync.Mutex
	cfg    *config.AppConfig
	client *clientv3.Client
	dial   DialFunc
	wrap   func(*clientv3.Client) backend
	logger zerolog.Logger
}

// New creates a session over the given configuration. No connection is
// opened until the first operation needs one.
func New(cfg *config.AppConfig) *Session {
	return &Session{
		cfg:    cfg,
		dial:   connector.Connect,
		wrap:   func(c *clientv3.Client) backend { return c },
		logger: log.WithComponent("session"),
	}
}

// SetDial replaces the dial function. Intended for tests.
func (s *Session) SetDial(dial DialFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dial = dial
}

// ensureClient returns the held connection, dialing one if the slot is
// empty. Idempotent when already connected. Caller must hold s.mu.
func (s *Session) ensureClient(ctx context.Context) (backend, error) {
	if s.client != nil {
		return s.wrap(s.client), nil
	}

	profile := s.cfg.Current()
	if profile == nil {
		return nil, config.ErrNoCurrentProfile
	}

	client, err := s.dial(ctx, profile)
	if err != nil {
		return nil, fmt.Errorf("failed to connect using profile %q: %w", profile.Name, err)
	}

	s.client = client
	metrics.Connected.Set(1)
	logger := log.WithProfile(profile.Name)
	logger.Info().Msg("connection established")
	return s.wrap(client), nil
}

// invalidateLocked drops the held connection. Caller must hold s.mu.
func (s *Session) invalidateLocked() {
	if s.client == nil {
		return
	}
	if err := s.client.Close(); err != nil {
		s.logger.Debug().Err(err).Msg("closing invalidated connection")
	}
	s.client = nil
	metrics.Connected.Set(0)
}

// Invalidate drops the held connection; the next operation reconnects.
func (s *Session) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invalidateLocked()
}

// Close releases the session's connection.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invalidateLocked()
	return nil
}

// Connected reports whether a live connection is currently held.
func (s *Session) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.client != nil
}

// Config returns a snapshot of the current configuration. The snapshot
// is for reading; changes go through ApplyConfig or UseProfile.
func (s *Session) Config() config.AppConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.cfg
}

// ApplyConfig replaces the configuration. The connection is invalidated
// only when the active profile selection changed; edits to inactive
// profiles leave a healthy connection alone.
func (s *Session) ApplyConfig(cfg *config.AppConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switched := s.cfg.CurrentProfile != cfg.CurrentProfile
	s.cfg = cfg
	if switched {
		s.logger.Info().Str("profile", cfg.CurrentProfile).Msg("active profile changed")
		s.invalidateLocked()
	}
}

// UseProfile switches the active profile by name. Switching invalidates
// the connection eagerly; no new connection is opened until next use.
func (s *Session) UseProfile(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cfg.ProfileByName(name) == nil {
		return fmt.Errorf("unknown profile %q", name)
	}
	if s.cfg.CurrentProfile != name {
		s.cfg.CurrentProfile = name
		s.logger.Info().Str("profile", name).Msg("active profile changed")
		s.invalidateLocked()
	}
	return nil
}

// Connect resets the session and eagerly establishes a connection for
// the active profile. It reports false, without error, when no profile
// is configured; that is a normal empty state on first run.
func (s *Session) Connect(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.invalidateLocked()
	if s.cfg.Current() == nil {
		return false, nil
	}
	if _, err := s.ensureClient(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// TestConnection dials with an arbitrary profile (saved or not) and
// returns the server version. The session's own connection is untouched.
func (s *Session) TestConnection(ctx context.Context, profile *config.Profile) (string, error) {
	if len(profile.Endpoints) == 0 {
		return "", fmt.Errorf("profile %q has no endpoints", profile.Name)
	}

	s.mu.Lock()
	dial := s.dial
	s.mu.Unlock()

	client, err := dial(ctx, profile)
	if err != nil {
		return "", err
	}
	defer client.Close()

	st, err := ops.Status(ctx, client, profile.Endpoints[0].Addr())
	if err != nil {
		return "", err
	}
	return st.Version, nil
}

// opContext derives the per-call context from the active profile's
// request timeout, when one is configured. Caller must hold s.mu.
func (s *Session) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if p := s.cfg.Current(); p != nil {
		if d, ok := p.Timeout(); ok {
			return context.WithTimeout(ctx, d)
		}
	}
	return ctx, func() {}
}
