package session

import (
	"context"
	"fmt"

	"github.com/hollowtree/etcdmate/pkg/config"
	"github.com/hollowtree/etcdmate/pkg/ops"
	"github.com/hollowtree/etcdmate/pkg/types"
)

// ListByPrefix returns all key-value pairs under the prefix.
func (s *Session) ListByPrefix(ctx context.Context, prefix string) ([]types.Item, error) {
	return run(ctx, s, "list", false, func(ctx context.Context, b backend) ([]types.Item, error) {
		return ops.ListByPrefix(ctx, b, prefix)
	})
}

// ListKeys returns the keys under the prefix, sorted ascending.
func (s *Session) ListKeys(ctx context.Context, prefix string) ([]string, error) {
	return run(ctx, s, "keys", false, func(ctx context.Context, b backend) ([]string, error) {
		return ops.ListKeys(ctx, b, prefix)
	})
}

// GetRange returns the closed key interval [start, end], sorted.
func (s *Session) GetRange(ctx context.Context, start, end string) ([]types.Item, error) {
	return run(ctx, s, "range", false, func(ctx context.Context, b backend) ([]types.Item, error) {
		return ops.GetRange(ctx, b, start, end)
	})
}

// GetAtRevision reads a key pinned to a historical revision; nil when
// the key had no value at that revision.
func (s *Session) GetAtRevision(ctx context.Context, key string, revision int64) (*types.Item, error) {
	return run(ctx, s, "at_revision", false, func(ctx context.Context, b backend) (*types.Item, error) {
		return ops.GetAtRevision(ctx, b, key, revision)
	})
}

// Put writes a key. Rejected locally when the active profile is locked.
func (s *Session) Put(ctx context.Context, key, value string) error {
	_, err := run(ctx, s, "put", true, func(ctx context.Context, b backend) (struct{}, error) {
		return struct{}{}, ops.Put(ctx, b, key, value)
	})
	return err
}

// Delete removes a key. Rejected locally when the active profile is
// locked; deleting a missing key is not an error.
func (s *Session) Delete(ctx context.Context, key string) error {
	_, err := run(ctx, s, "delete", true, func(ctx context.Context, b backend) (struct{}, error) {
		return struct{}{}, ops.Delete(ctx, b, key)
	})
	return err
}

// BulkPut writes entries in order, stopping at the first failure. It
// returns the number of entries written. The whole batch runs as one
// command under the session lock. A batch retried after a stale-auth
// reconnect re-runs from the first entry; every write is an
// unconditional upsert, so the rerun converges on the same state. The
// %w wrap keeps the gRPC status reachable for the stale-auth check.
func (s *Session) BulkPut(ctx context.Context, entries []types.KeyValue) (int, error) {
	return run(ctx, s, "bulk_put", true, func(ctx context.Context, b backend) (int, error) {
		for i, entry := range entries {
			if err := ops.Put(ctx, b, entry.Key, entry.Value); err != nil {
				return i, fmt.Errorf("entry %d (%s): %w", i, entry.Key, err)
			}
		}
		return len(entries), nil
	})
}

// Members lists the cluster membership of the active profile's cluster.
func (s *Session) Members(ctx context.Context) ([]types.Member, error) {
	return run(ctx, s, "members", false, func(ctx context.Context, b backend) ([]types.Member, error) {
		return ops.Members(ctx, b)
	})
}

// Status reports the status of the active profile's first endpoint.
func (s *Session) Status(ctx context.Context) (*types.ClusterStatus, error) {
	return run(ctx, s, "status", false, func(ctx context.Context, b backend) (*types.ClusterStatus, error) {
		profile := s.cfg.Current()
		if profile == nil || len(profile.Endpoints) == 0 {
			return nil, config.ErrNoCurrentProfile
		}
		return ops.Status(ctx, b, profile.Endpoints[0].Addr())
	})
}
