/*
Package session is the connection session manager: the one component in
etcdmate with a resource lifecycle, a retry policy, and a consistency
concern.

A Session owns at most one live etcd connection, derived from the
active profile. The connection is created lazily on first use,
invalidated eagerly when the active profile changes, and rebuilt
transparently when the server rejects the cached auth token.

# Lifecycle

Two states per session: Disconnected and Connected.

	Disconnected --ensureClient, profile resolves, dial succeeds--> Connected
	Disconnected --no active profile--> stays Disconnected (normal, not fatal)
	Connected    --profile switch--> Disconnected (eager, reconnect deferred)
	Connected    --stale-auth failure--> Disconnected, then immediately
	             redialed and the failed call re-issued, once

# Retry Policy

Auth tokens issued by etcd expire independently of TCP connection
health: a long-idle session holds a connection that looks fine but
carries a dead token. Rather than refreshing tokens on a timer, the
session reacts to the specific failure signature (gRPC status
Unauthenticated with an "invalid auth token" message) by dropping the
connection and re-running the failed call exactly once against a fresh
one.

Nothing else is retried. Connection-acquisition failures, transient
network errors, and a second stale-auth in a row all surface
immediately; the client optimizes for "stale token after long idle",
not for general unreliability, and a wider retry would change the
latency behavior the UI depends on.

# Concurrency

One mutex serializes every command for its full duration, connection
acquisition and network round-trips included. A second command blocks
until the first completes, so the check-health-maybe-rebuild sequence
never races with another command over the connection slot. Mutating
operations (Put, Delete, BulkPut) run the client-side lock check for
the active profile inside the same critical section, before any
network activity.
*/
package session
