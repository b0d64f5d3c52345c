package ops

import (
	"context"
	"fmt"
	"unicode/utf8"

	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/hollowtree/etcdmate/pkg/log"
	"github.com/hollowtree/etcdmate/pkg/types"
)

// Remote errors are returned verbatim so the session manager can match
// the stale-auth signature on the raw gRPC status; nothing in this
// package wraps or retries.

// KV is the key-value subset of the etcd client consumed here.
// *clientv3.Client satisfies it.
type KV interface {
	Get(ctx context.Context, key string, opts ...clientv3.OpOption) (*clientv3.GetResponse, error)
	Put(ctx context.Context, key, val string, opts ...clientv3.OpOption) (*clientv3.PutResponse, error)
	Delete(ctx context.Context, key string, opts ...clientv3.OpOption) (*clientv3.DeleteResponse, error)
}

// MemberLister is the cluster subset consumed by Members.
type MemberLister interface {
	MemberList(ctx context.Context) (*clientv3.MemberListResponse, error)
}

// StatusReader is the maintenance subset consumed by Status.
type StatusReader interface {
	Status(ctx context.Context, endpoint string) (*clientv3.StatusResponse, error)
}

// ListByPrefix fetches all key-value pairs sharing the byte prefix.
// Undecodable entries are dropped from the result.
func ListByPrefix(ctx context.Context, kv KV, prefix string) ([]types.Item, error) {
	resp, err := kv.Get(ctx, prefix, clientv3.WithPrefix())
	if err != nil {
		return nil, err
	}

	items, skipped := types.ItemsFromKVs(resp.Kvs)
	if skipped > 0 {
		logger := log.WithComponent("ops")
		logger.Debug().
			Int("skipped", skipped).
			Str("prefix", prefix).
			Msg("dropped entries with non-UTF-8 key or value")
	}
	return items, nil
}

// ListKeys fetches only the keys under the prefix, sorted ascending.
// The read is serializable rather than linearized: a listing does not
// need read-your-writes and the relaxed level avoids a quorum round.
func ListKeys(ctx context.Context, kv KV, prefix string) ([]string, error) {
	resp, err := kv.Get(ctx, prefix,
		clientv3.WithPrefix(),
		clientv3.WithKeysOnly(),
		clientv3.WithSerializable(),
		clientv3.WithSort(clientv3.SortByKey, clientv3.SortAscend),
	)
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(resp.Kvs))
	for _, item := range resp.Kvs {
		if !utf8.Valid(item.Key) {
			continue
		}
		keys = append(keys, string(item.Key))
	}
	return keys, nil
}

// GetRange fetches the closed key interval [start, end], sorted
// ascending. etcd ranges are half-open, so the inclusive upper bound is
// converted by appending a NUL byte: the smallest key strictly greater
// than end, which keeps end itself in the range and excludes everything
// beyond it.
func GetRange(ctx context.Context, kv KV, start, end string) ([]types.Item, error) {
	resp, err := kv.Get(ctx, start,
		clientv3.WithRange(end+"\x00"),
		clientv3.WithSort(clientv3.SortByKey, clientv3.SortAscend),
	)
	if err != nil {
		return nil, err
	}

	items, skipped := types.ItemsFromKVs(resp.Kvs)
	if skipped > 0 {
		logger := log.WithComponent("ops")
		logger.Debug().
			Int("skipped", skipped).
			Str("start", start).
			Str("end", end).
			Msg("dropped entries with non-UTF-8 key or value")
	}
	return items, nil
}

// Put writes a key unconditionally.
func Put(ctx context.Context, kv KV, key, value string) error {
	_, err := kv.Put(ctx, key, value)
	return err
}

// Delete removes a key. Deleting a key that does not exist is not an
// error.
func Delete(ctx context.Context, kv KV, key string) error {
	_, err := kv.Delete(ctx, key)
	return err
}

// GetAtRevision reads a key as of a historical revision. It returns nil
// when the key had no value at that revision.
func GetAtRevision(ctx context.Context, kv KV, key string, revision int64) (*types.Item, error) {
	resp, err := kv.Get(ctx, key, clientv3.WithRev(revision))
	if err != nil {
		return nil, err
	}
	if len(resp.Kvs) == 0 {
		return nil, nil
	}

	item, ok := types.ItemFromKV(resp.Kvs[0])
	if !ok {
		return nil, nil
	}
	return &item, nil
}

// Members lists the cluster membership.
func Members(ctx context.Context, cluster MemberLister) ([]types.Member, error) {
	resp, err := cluster.MemberList(ctx)
	if err != nil {
		return nil, err
	}

	members := make([]types.Member, 0, len(resp.Members))
	for _, m := range resp.Members {
		members = append(members, types.MemberFromPB(m))
	}
	return members, nil
}

// Status reports the status of a single endpoint.
func Status(ctx context.Context, maint StatusReader, endpoint string) (*types.ClusterStatus, error) {
	resp, err := maint.Status(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	return &types.ClusterStatus{
		Endpoint:  endpoint,
		Version:   resp.Version,
		DBSize:    resp.DbSize,
		Leader:    fmt.Sprintf("%x", resp.Leader),
		RaftIndex: resp.RaftIndex,
		RaftTerm:  resp.RaftTerm,
		IsLearner: resp.IsLearner,
	}, nil
}
