package connector

import (
	"context"
	"fmt"

	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/hollowtree/etcdmate/pkg/config"
)

// buildConfig translates a profile into etcd client options. Endpoint
// order is preserved; the client library owns the failover policy.
func buildConfig(profile *config.Profile) clientv3.Config {
	endpoints := make([]string, 0, len(profile.Endpoints))
	for _, ep := range profile.Endpoints {
		endpoints = append(endpoints, ep.Addr())
	}

	cfg := clientv3.Config{
		Endpoints: endpoints,
	}
	if profile.User != nil {
		cfg.Username = profile.User.Username
		cfg.Password = profile.User.Password
	}
	if d, ok := profile.ConnectTimeout(); ok {
		cfg.DialTimeout = d
	}
	return cfg
}

// Connect establishes a new etcd client for the profile. It never
// retries; reconnect policy lives in the session manager.
//
// The client's lifetime is not tied to ctx: the session caches the
// client across commands, so its base context must outlive the call
// that happened to dial it. Per-call contexts bound individual RPCs.
func Connect(ctx context.Context, profile *config.Profile) (*clientv3.Client, error) {
	if len(profile.Endpoints) == 0 {
		return nil, fmt.Errorf("profile %q has no endpoints", profile.Name)
	}

	client, err := clientv3.New(buildConfig(profile))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to etcd: %w", err)
	}
	return client, nil
}
