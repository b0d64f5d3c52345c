package session

import (
	"context"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/hollowtree/etcdmate/pkg/metrics"
)

// opFunc is one operation-layer call over an open connection.
type opFunc[T any] func(ctx context.Context, b backend) (T, error)

// IsStaleAuth reports whether err is the one failure the session
// recovers from automatically: the server rejecting the cached auth
// token. The match is deliberately narrow. Unauthenticated alone is
// not enough, since bad credentials produce the same code and must not
// trigger a reconnect loop.
func IsStaleAuth(err error) bool {
	if err == nil {
		return false
	}
	st, ok := status.FromError(err)
	if !ok {
		return false
	}
	return st.Code() == codes.Unauthenticated && strings.Contains(st.Message(), "invalid auth token")
}

// run executes fn under the session mutex, holding it for the whole
// command: lock check, connection acquisition, the call itself, and the
// optional single reconnect-and-redo.
func run[T any](ctx context.Context, s *Session, name string, mutating bool, fn opFunc[T]) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	timer := metrics.NewTimer()
	v, err := execute(ctx, s, mutating, fn)
	timer.ObserveDurationVec(metrics.OperationDuration, name)

	st := "ok"
	if err != nil {
		st = "error"
	}
	metrics.OperationsTotal.WithLabelValues(name, st).Inc()
	return v, err
}

// execute implements the retry policy. Connection-acquisition failures
// propagate immediately. The operation is retried at most once, and
// only when the first attempt failed with the stale-auth signature;
// tokens expire independently of connection health, so a reconnect
// gets a fresh token and the redo is expected to succeed. Every other
// failure, including a second stale-auth in a row, is returned as-is.
func execute[T any](ctx context.Context, s *Session, mutating bool, fn opFunc[T]) (T, error) {
	var zero T

	if mutating {
		if err := s.cfg.EnsureCurrentUnlocked(); err != nil {
			return zero, err
		}
	}

	b, err := s.ensureClient(ctx)
	if err != nil {
		return zero, err
	}

	v, err := attempt(ctx, s, b, fn)
	if !IsStaleAuth(err) {
		return v, err
	}

	s.logger.Info().Msg("auth token rejected, reconnecting")
	metrics.ReconnectsTotal.Inc()
	s.invalidateLocked()

	b, cerr := s.ensureClient(ctx)
	if cerr != nil {
		return zero, cerr
	}
	return attempt(ctx, s, b, fn)
}

func attempt[T any](ctx context.Context, s *Session, b backend, fn opFunc[T]) (T, error) {
	opCtx, cancel := s.opContext(ctx)
	defer cancel()
	return fn(opCtx, b)
}
