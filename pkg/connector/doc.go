/*
Package connector turns a connection profile into a live etcd client.

It is a stateless, pure translation layer: each profile endpoint becomes
a host:port address (profile order preserved, since the client library
uses it for failover), credentials are applied only when present, and
the dial timeout only when configured. Connect performs exactly one
connection attempt; the single-reconnect policy on stale auth tokens
belongs to pkg/session, and nothing here retries.
*/
package connector
