package types

import (
	"fmt"
	"unicode/utf8"

	"go.etcd.io/etcd/api/v3/etcdserverpb"
	"go.etcd.io/etcd/api/v3/mvccpb"
)

// Item is a decoded key-value pair plus the store metadata attached to it.
// Keys and values are always valid UTF-8; entries that are not decodable
// never become Items (see ItemsFromKVs).
type Item struct {
	Key            string `json:"key"`
	Value          string `json:"value"`
	Version        int64  `json:"version"`
	CreateRevision int64  `json:"create_revision"`
	ModRevision    int64  `json:"mod_revision"`
	Lease          int64  `json:"lease"`
}

// KeyValue is a bare pair used for bulk imports.
type KeyValue struct {
	Key   string `json:"key" yaml:"key"`
	Value string `json:"value" yaml:"value"`
}

// Member describes one member of the etcd cluster.
type Member struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	PeerURLs   []string `json:"peer_urls"`
	ClientURLs []string `json:"client_urls"`
	IsLearner  bool     `json:"is_learner,omitempty"`
}

// ClusterStatus is the status of a single endpoint as reported by the
// etcd maintenance API.
type ClusterStatus struct {
	Endpoint  string `json:"endpoint"`
	Version   string `json:"version"`
	DBSize    int64  `json:"db_size"`
	Leader    string `json:"leader"`
	RaftIndex uint64 `json:"raft_index"`
	RaftTerm  uint64 `json:"raft_term"`
	IsLearner bool   `json:"is_learner,omitempty"`
}

// ItemFromKV converts a single stored key-value. The second return is
// false when the key or value is not valid UTF-8.
func ItemFromKV(kv *mvccpb.KeyValue) (Item, bool) {
	if !utf8.Valid(kv.Key) || !utf8.Valid(kv.Value) {
		return Item{}, false
	}
	return Item{
		Key:            string(kv.Key),
		Value:          string(kv.Value),
		Version:        kv.Version,
		CreateRevision: kv.CreateRevision,
		ModRevision:    kv.ModRevision,
		Lease:          kv.Lease,
	}, true
}

// ItemsFromKVs decodes a result set, dropping entries whose key or value
// is not valid UTF-8. The number of dropped entries is returned so callers
// can surface it without changing the result shape.
func ItemsFromKVs(kvs []*mvccpb.KeyValue) ([]Item, int) {
	items := make([]Item, 0, len(kvs))
	skipped := 0
	for _, kv := range kvs {
		item, ok := ItemFromKV(kv)
		if !ok {
			skipped++
			continue
		}
		items = append(items, item)
	}
	return items, skipped
}

// MemberFromPB converts an etcd cluster member. Member IDs are rendered
// in hex, matching etcdctl output.
func MemberFromPB(m *etcdserverpb.Member) Member {
	return Member{
		ID:         fmt.Sprintf("%x", m.ID),
		Name:       m.Name,
		PeerURLs:   m.PeerURLs,
		ClientURLs: m.ClientURLs,
		IsLearner:  m.IsLearner,
	}
}
