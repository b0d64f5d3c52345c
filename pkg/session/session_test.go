package session

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/etcd/api/v3/mvccpb"
	clientv3 "go.etcd.io/etcd/client/v3"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/hollowtree/etcdmate/pkg/config"
	"github.com/hollowtree/etcdmate/pkg/types"
)

var errStaleAuth = status.Error(codes.Unauthenticated, "etcdserver: invalid auth token")

func testConfig() *config.AppConfig {
	return &config.AppConfig{
		Profiles: []config.Profile{
			{Name: "prod", Endpoints: []config.Endpoint{{Host: "10.0.0.1", Port: 2379}}},
			{Name: "dev", Endpoints: []config.Endpoint{{Host: "localhost", Port: 2379}}},
			{Name: "frozen", Endpoints: []config.Endpoint{{Host: "localhost", Port: 2379}}, Locked: true},
		},
		CurrentProfile: "prod",
	}
}

// newTestSession wires a session to a dial stub that hands out inert
// clients and counts connection attempts.
func newTestSession(cfg *config.AppConfig) (*Session, *int) {
	dials := new(int)
	s := New(cfg)
	s.dial = func(ctx context.Context, p *config.Profile) (*clientv3.Client, error) {
		*dials++
		return clientv3.NewCtxClient(context.Background()), nil
	}
	return s, dials
}

func noop(ctx context.Context, b backend) (string, error) {
	return "ok", nil
}

func TestRun_NoActiveProfile(t *testing.T) {
	s, dials := newTestSession(&config.AppConfig{})

	_, err := run(context.Background(), s, "test", false, noop)
	assert.ErrorIs(t, err, config.ErrNoCurrentProfile)
	assert.Zero(t, *dials, "no connection may be attempted without a profile")
}

func TestRun_DanglingProfileName(t *testing.T) {
	cfg := testConfig()
	cfg.CurrentProfile = "deleted"
	s, dials := newTestSession(cfg)

	_, err := run(context.Background(), s, "test", false, noop)
	assert.ErrorIs(t, err, config.ErrNoCurrentProfile)
	assert.Zero(t, *dials)
}

func TestRun_LockCheckBeforeAnyNetworkCall(t *testing.T) {
	cfg := testConfig()
	cfg.CurrentProfile = "frozen"
	s, dials := newTestSession(cfg)

	calls := 0
	_, err := run(context.Background(), s, "put", true, func(ctx context.Context, b backend) (string, error) {
		calls++
		return "", nil
	})

	assert.ErrorIs(t, err, config.ErrProfileLocked)
	assert.Zero(t, *dials, "locked profiles must never reach the network")
	assert.Zero(t, calls)
}

func TestRun_ReadAllowedOnLockedProfile(t *testing.T) {
	cfg := testConfig()
	cfg.CurrentProfile = "frozen"
	s, dials := newTestSession(cfg)

	v, err := run(context.Background(), s, "list", false, noop)
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
	assert.Equal(t, 1, *dials)
}

func TestRun_ConnectionReused(t *testing.T) {
	s, dials := newTestSession(testConfig())

	for i := 0; i < 3; i++ {
		_, err := run(context.Background(), s, "test", false, noop)
		require.NoError(t, err)
	}

	assert.Equal(t, 1, *dials, "ensureClient must be idempotent while connected")
	assert.True(t, s.Connected())
}

func TestRun_StaleAuthReconnectAndRedoOnce(t *testing.T) {
	s, dials := newTestSession(testConfig())

	calls := 0
	v, err := run(context.Background(), s, "test", false, func(ctx context.Context, b backend) (string, error) {
		calls++
		if calls == 1 {
			return "", errStaleAuth
		}
		return "recovered", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "recovered", v)
	assert.Equal(t, 2, calls, "operation must run exactly twice")
	assert.Equal(t, 2, *dials, "one initial connection plus one reconnect")
}

func TestRun_StaleAuthOnEveryCallFailsAfterTwoAttempts(t *testing.T) {
	s, dials := newTestSession(testConfig())

	calls := 0
	_, err := run(context.Background(), s, "test", false, func(ctx context.Context, b backend) (string, error) {
		calls++
		return "", errStaleAuth
	})

	assert.Equal(t, errStaleAuth, err, "second failure surfaces as-is")
	assert.Equal(t, 2, calls, "one retry, never unbounded")
	assert.Equal(t, 2, *dials)
}

func TestRun_OtherRemoteErrorsAreNotRetried(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"transient network", status.Error(codes.Unavailable, "etcdserver: leader changed")},
		{"bad credentials", status.Error(codes.Unauthenticated, "etcdserver: authentication failed, invalid user ID or password")},
		{"compacted revision", status.Error(codes.OutOfRange, "etcdserver: mvcc: required revision has been compacted")},
		{"plain error", errors.New("boom")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, dials := newTestSession(testConfig())

			calls := 0
			_, err := run(context.Background(), s, "test", false, func(ctx context.Context, b backend) (string, error) {
				calls++
				return "", tt.err
			})

			assert.Equal(t, tt.err, err)
			assert.Equal(t, 1, calls, "non-stale-auth failures surface immediately")
			assert.Equal(t, 1, *dials)
		})
	}
}

func TestRun_ConnectFailurePropagatesWithoutRetry(t *testing.T) {
	s := New(testConfig())
	dials := 0
	s.dial = func(ctx context.Context, p *config.Profile) (*clientv3.Client, error) {
		dials++
		return nil, errors.New("connection refused")
	}

	calls := 0
	_, err := run(context.Background(), s, "test", false, func(ctx context.Context, b backend) (string, error) {
		calls++
		return "", nil
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "prod")
	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, 1, dials, "connect errors get a single attempt")
	assert.Zero(t, calls)
}

func TestRun_ProfileTimeoutAppliedToOperationContext(t *testing.T) {
	cfg := testConfig()
	ms := int64(5000)
	cfg.Profiles[0].TimeoutMS = &ms
	s, _ := newTestSession(cfg)

	_, err := run(context.Background(), s, "test", false, func(ctx context.Context, b backend) (string, error) {
		_, hasDeadline := ctx.Deadline()
		assert.True(t, hasDeadline, "profile timeout must bound the call")
		return "", nil
	})
	require.NoError(t, err)
}

func TestUseProfile_SwitchInvalidatesConnection(t *testing.T) {
	s, dials := newTestSession(testConfig())

	_, err := run(context.Background(), s, "test", false, noop)
	require.NoError(t, err)
	require.True(t, s.Connected())

	require.NoError(t, s.UseProfile("dev"))
	assert.False(t, s.Connected(), "switching must disconnect eagerly")

	_, err = run(context.Background(), s, "test", false, noop)
	require.NoError(t, err)
	assert.Equal(t, 2, *dials, "exactly one new connection after the switch")
}

func TestUseProfile_SameProfileKeepsConnection(t *testing.T) {
	s, dials := newTestSession(testConfig())

	_, err := run(context.Background(), s, "test", false, noop)
	require.NoError(t, err)

	require.NoError(t, s.UseProfile("prod"))
	assert.True(t, s.Connected())
	assert.Equal(t, 1, *dials)
}

func TestUseProfile_UnknownName(t *testing.T) {
	s, _ := newTestSession(testConfig())
	assert.Error(t, s.UseProfile("nope"))
}

func TestApplyConfig_InvalidatesOnlyOnSelectionChange(t *testing.T) {
	s, dials := newTestSession(testConfig())

	_, err := run(context.Background(), s, "test", false, noop)
	require.NoError(t, err)

	// Editing an inactive profile keeps the connection
	next := testConfig()
	next.Profiles[1].Locked = true
	s.ApplyConfig(next)
	assert.True(t, s.Connected())

	// Changing the selection drops it
	switched := testConfig()
	switched.CurrentProfile = "dev"
	s.ApplyConfig(switched)
	assert.False(t, s.Connected())

	_, err = run(context.Background(), s, "test", false, noop)
	require.NoError(t, err)
	assert.Equal(t, 2, *dials)
}

func TestConnect_NoProfileIsEmptyStateNotError(t *testing.T) {
	s, dials := newTestSession(&config.AppConfig{})

	ok, err := s.Connect(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, *dials)
}

func TestConnect_ResetsAndDialsEagerly(t *testing.T) {
	s, dials := newTestSession(testConfig())

	ok, err := s.Connect(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, s.Connected())
	assert.Equal(t, 1, *dials)

	// A second call resets the slot and dials again
	ok, err = s.Connect(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2, *dials)
}

func TestPut_LockedProfileFailsBeforeNetwork(t *testing.T) {
	cfg := testConfig()
	cfg.CurrentProfile = "frozen"
	s, dials := newTestSession(cfg)

	err := s.Put(context.Background(), "/k", "v")
	assert.ErrorIs(t, err, config.ErrProfileLocked)

	err = s.Delete(context.Background(), "/k")
	assert.ErrorIs(t, err, config.ErrProfileLocked)

	assert.Zero(t, *dials)
}

// memBackend is a storing fake behind the session's backend seam, so
// operations run through the real ops layer against an in-memory map.
type memBackend struct {
	data     map[string]string
	rev      int64
	putCalls int

	// failPutCall makes the Nth Put call (1-based) fail once with the
	// stale-auth signature.
	failPutCall int
	failed      bool
}

func newMemBackend() *memBackend {
	return &memBackend{data: make(map[string]string)}
}

func (m *memBackend) Get(_ context.Context, key string, opts ...clientv3.OpOption) (*clientv3.GetResponse, error) {
	op := clientv3.OpGet(key, opts...)
	end := string(op.RangeBytes())

	var kvs []*mvccpb.KeyValue
	for k, v := range m.data {
		if end == "" {
			if k != key {
				continue
			}
		} else if k < key || k >= end {
			continue
		}
		kvs = append(kvs, &mvccpb.KeyValue{
			Key:         []byte(k),
			Value:       []byte(v),
			Version:     1,
			ModRevision: m.rev,
		})
	}
	sort.Slice(kvs, func(i, j int) bool { return string(kvs[i].Key) < string(kvs[j].Key) })
	return &clientv3.GetResponse{Kvs: kvs, Count: int64(len(kvs))}, nil
}

func (m *memBackend) Put(_ context.Context, key, val string, _ ...clientv3.OpOption) (*clientv3.PutResponse, error) {
	m.putCalls++
	if m.failPutCall == m.putCalls && !m.failed {
		m.failed = true
		return nil, errStaleAuth
	}
	m.rev++
	m.data[key] = val
	return &clientv3.PutResponse{}, nil
}

func (m *memBackend) Delete(_ context.Context, key string, _ ...clientv3.OpOption) (*clientv3.DeleteResponse, error) {
	delete(m.data, key)
	return &clientv3.DeleteResponse{}, nil
}

func (m *memBackend) MemberList(context.Context) (*clientv3.MemberListResponse, error) {
	return &clientv3.MemberListResponse{}, nil
}

func (m *memBackend) Status(_ context.Context, _ string) (*clientv3.StatusResponse, error) {
	return &clientv3.StatusResponse{}, nil
}

// newBackedSession routes operations to a memBackend while the dial
// stub still accounts for connection attempts.
func newBackedSession(cfg *config.AppConfig, mem *memBackend) (*Session, *int) {
	s, dials := newTestSession(cfg)
	s.wrap = func(*clientv3.Client) backend { return mem }
	return s, dials
}

func TestPutThenListByPrefixRoundTrip(t *testing.T) {
	mem := newMemBackend()
	s, _ := newBackedSession(testConfig(), mem)

	require.NoError(t, s.Put(context.Background(), "/app/host", "db1"))
	require.NoError(t, s.Put(context.Background(), "/other/key", "x"))

	items, err := s.ListByPrefix(context.Background(), "/app/")
	require.NoError(t, err)
	require.Len(t, items, 1, "exactly the written key under the prefix")
	assert.Equal(t, "/app/host", items[0].Key)
	assert.Equal(t, "db1", items[0].Value)
}

func TestDeleteThenListRoundTrip(t *testing.T) {
	mem := newMemBackend()
	s, _ := newBackedSession(testConfig(), mem)

	require.NoError(t, s.Put(context.Background(), "/app/a", "1"))
	require.NoError(t, s.Delete(context.Background(), "/app/a"))

	items, err := s.ListByPrefix(context.Background(), "/app/")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestBulkPut_StaleAuthMidBatchRerunsWholeBatch(t *testing.T) {
	mem := newMemBackend()
	mem.failPutCall = 2
	s, dials := newBackedSession(testConfig(), mem)

	entries := []types.KeyValue{
		{Key: "/app/a", Value: "1"},
		{Key: "/app/b", Value: "2"},
	}
	written, err := s.BulkPut(context.Background(), entries)
	require.NoError(t, err, "wrapped stale-auth error must still trigger the retry")
	assert.Equal(t, 2, written)
	assert.Equal(t, 2, *dials, "one initial connection plus one reconnect")

	// The retried batch starts over from the first entry
	assert.Equal(t, 4, mem.putCalls)
	assert.Equal(t, "1", mem.data["/app/a"])
	assert.Equal(t, "2", mem.data["/app/b"])
}

func TestTestConnection_NoEndpoints(t *testing.T) {
	s, dials := newTestSession(testConfig())

	_, err := s.TestConnection(context.Background(), &config.Profile{Name: "empty"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no endpoints")
	assert.Zero(t, *dials)
}

func TestIsStaleAuth(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"exact signature", errStaleAuth, true},
		{"unauthenticated, different message", status.Error(codes.Unauthenticated, "etcdserver: user name is empty"), false},
		{"other code, same message", status.Error(codes.Internal, "invalid auth token"), false},
		{"plain error", errors.New("invalid auth token"), false},
		{"context canceled", context.Canceled, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsStaleAuth(tt.err))
		})
	}
}
