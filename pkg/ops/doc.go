/*
Package ops implements the operation layer: each etcd request the
client issues, expressed as a narrow function over an open connection.

The functions here are deliberately policy-free. They accept small
interfaces (KV, MemberLister, StatusReader) satisfied by
*clientv3.Client, translate one request, decode the response, and
return remote errors verbatim. The session manager in pkg/session owns
the connection lifecycle and the single reconnect-and-redo retry; ops
never retries, and never wraps a remote error in a way that would hide
the gRPC status the retry predicate matches on.

# Range Semantics

etcd's range primitive is half-open: [start, end). GetRange exposes a
closed interval [start, end] by sending end + "\x00" as the exclusive
bound, the smallest byte string sorting strictly after end. This keeps
end itself in the range while any longer key ("ba" for end "b") is not.

Prefix listings use the client library's prefix range. ListKeys asks
for keys only with a serializable read, trading linearizability for a
cheaper listing.

# Lossy Decoding

Result sets are decoded through pkg/types, which drops entries whose
key or value is not valid UTF-8. Listings log the number of dropped
entries at debug level.
*/
package ops
