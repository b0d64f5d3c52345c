package ops

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/etcd/api/v3/etcdserverpb"
	"go.etcd.io/etcd/api/v3/mvccpb"
	clientv3 "go.etcd.io/etcd/client/v3"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// fakeKV records each call as a clientv3.Op so tests can inspect the
// exact range, revision, and read options sent to the server.
type fakeKV struct {
	getResp *clientv3.GetResponse
	err     error

	getOps  []clientv3.Op
	puts    [][2]string
	deletes []string
}

func (f *fakeKV) Get(_ context.Context, key string, opts ...clientv3.OpOption) (*clientv3.GetResponse, error) {
	f.getOps = append(f.getOps, clientv3.OpGet(key, opts...))
	return f.getResp, f.err
}

func (f *fakeKV) Put(_ context.Context, key, val string, _ ...clientv3.OpOption) (*clientv3.PutResponse, error) {
	f.puts = append(f.puts, [2]string{key, val})
	return &clientv3.PutResponse{}, f.err
}

func (f *fakeKV) Delete(_ context.Context, key string, _ ...clientv3.OpOption) (*clientv3.DeleteResponse, error) {
	f.deletes = append(f.deletes, key)
	return &clientv3.DeleteResponse{}, f.err
}

func kvs(pairs ...string) []*mvccpb.KeyValue {
	out := make([]*mvccpb.KeyValue, 0, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		out = append(out, &mvccpb.KeyValue{Key: []byte(pairs[i]), Value: []byte(pairs[i+1])})
	}
	return out
}

func TestListByPrefix(t *testing.T) {
	fake := &fakeKV{getResp: &clientv3.GetResponse{
		Kvs: append(kvs("/app/a", "1", "/app/b", "2"),
			&mvccpb.KeyValue{Key: []byte{0xff}, Value: []byte("binary")}),
	}}

	items, err := ListByPrefix(context.Background(), fake, "/app/")
	require.NoError(t, err)

	// Binary entry silently dropped
	require.Len(t, items, 2)
	assert.Equal(t, "/app/a", items[0].Key)
	assert.Equal(t, "/app/b", items[1].Key)

	require.Len(t, fake.getOps, 1)
	op := fake.getOps[0]
	assert.Equal(t, "/app/", string(op.KeyBytes()))
	assert.Equal(t, clientv3.GetPrefixRangeEnd("/app/"), string(op.RangeBytes()))
}

func TestListKeys(t *testing.T) {
	fake := &fakeKV{getResp: &clientv3.GetResponse{
		Kvs: kvs("/app/a", "", "/app/b", ""),
	}}

	keys, err := ListKeys(context.Background(), fake, "/app/")
	require.NoError(t, err)
	assert.Equal(t, []string{"/app/a", "/app/b"}, keys)

	require.Len(t, fake.getOps, 1)
	op := fake.getOps[0]
	assert.True(t, op.IsKeysOnly(), "listing should not transfer values")
	assert.True(t, op.IsSerializable(), "listing should use a serializable read")
}

func TestGetRange_InclusiveUpperBound(t *testing.T) {
	fake := &fakeKV{getResp: &clientv3.GetResponse{
		Kvs: kvs("a", "1", "am", "2", "b", "3"),
	}}

	items, err := GetRange(context.Background(), fake, "a", "b")
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "b", items[2].Key)

	require.Len(t, fake.getOps, 1)
	op := fake.getOps[0]
	assert.Equal(t, "a", string(op.KeyBytes()))
	// Exclusive bound is the inclusive key plus a NUL byte: "b" stays in
	// range, "ba" does not.
	assert.Equal(t, "b\x00", string(op.RangeBytes()))
	assert.Less(t, "b", "b\x00")
	assert.Less(t, "b\x00", "ba")
}

func TestPutAndDelete(t *testing.T) {
	fake := &fakeKV{}

	require.NoError(t, Put(context.Background(), fake, "/k", "v"))
	require.NoError(t, Delete(context.Background(), fake, "/k"))

	assert.Equal(t, [][2]string{{"/k", "v"}}, fake.puts)
	assert.Equal(t, []string{"/k"}, fake.deletes)
}

func TestGetAtRevision(t *testing.T) {
	fake := &fakeKV{getResp: &clientv3.GetResponse{
		Kvs:   kvs("/k", "old"),
		Count: 1,
	}}

	item, err := GetAtRevision(context.Background(), fake, "/k", 42)
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Equal(t, "old", item.Value)

	require.Len(t, fake.getOps, 1)
	assert.Equal(t, int64(42), fake.getOps[0].Rev())
}

func TestGetAtRevision_NoValue(t *testing.T) {
	fake := &fakeKV{getResp: &clientv3.GetResponse{}}

	item, err := GetAtRevision(context.Background(), fake, "/k", 42)
	require.NoError(t, err)
	assert.Nil(t, item)
}

func TestErrorsPassThroughVerbatim(t *testing.T) {
	remoteErr := status.Error(codes.Unauthenticated, "etcdserver: invalid auth token")
	fake := &fakeKV{err: remoteErr}

	_, err := ListByPrefix(context.Background(), fake, "/app/")
	assert.Same(t, remoteErr, err, "remote errors must not be wrapped")

	err = Put(context.Background(), fake, "k", "v")
	assert.Same(t, remoteErr, err)
}

type fakeCluster struct {
	resp *clientv3.MemberListResponse
	err  error
}

func (f *fakeCluster) MemberList(context.Context) (*clientv3.MemberListResponse, error) {
	return f.resp, f.err
}

func TestMembers(t *testing.T) {
	fake := &fakeCluster{resp: &clientv3.MemberListResponse{
		Members: []*etcdserverpb.Member{
			{ID: 1, Name: "a", PeerURLs: []string{"http://a:2380"}, ClientURLs: []string{"http://a:2379"}},
			{ID: 0xbeef, Name: "b", IsLearner: true},
		},
	}}

	members, err := Members(context.Background(), fake)
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, "1", members[0].ID)
	assert.Equal(t, "beef", members[1].ID)
	assert.True(t, members[1].IsLearner)
}

type fakeMaintenance struct {
	resp     *clientv3.StatusResponse
	err      error
	endpoint string
}

func (f *fakeMaintenance) Status(_ context.Context, endpoint string) (*clientv3.StatusResponse, error) {
	f.endpoint = endpoint
	return f.resp, f.err
}

func TestStatus(t *testing.T) {
	fake := &fakeMaintenance{resp: &clientv3.StatusResponse{
		Version:   "3.5.21",
		DbSize:    4096,
		Leader:    0xcafe,
		RaftIndex: 10,
		RaftTerm:  3,
	}}

	st, err := Status(context.Background(), fake, "10.0.0.1:2379")
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.1:2379", fake.endpoint)
	assert.Equal(t, "3.5.21", st.Version)
	assert.Equal(t, int64(4096), st.DBSize)
	assert.Equal(t, "cafe", st.Leader)
	assert.Equal(t, uint64(10), st.RaftIndex)
	assert.Equal(t, uint64(3), st.RaftTerm)
}
