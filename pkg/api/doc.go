/*
Package api serves etcdmate's operations to a local desktop frontend
over HTTP/JSON.

The server is the command-dispatch boundary: it deserializes a request,
hands it to the session (which owns locking, connection lifecycle, and
the single stale-auth retry), and serializes the result. Handlers hold
no state and implement no policy of their own.

# Endpoints

	POST /v1/kv/list          {"prefix"}            -> [Item]
	POST /v1/kv/keys          {"prefix"}            -> [string]
	POST /v1/kv/range         {"start","end"}       -> [Item]
	POST /v1/kv/put           {"key","value"}       -> {"status"}
	POST /v1/kv/delete        {"key"}               -> {"status"}
	POST /v1/kv/at-revision   {"key","revision"}    -> Item | 404
	POST /v1/kv/import        {"entries":[{k,v}]}   -> {"written"}
	GET  /v1/cluster/members                         -> [Member]
	GET  /v1/cluster/status                          -> Status
	POST /v1/connection/init                         -> {"connected"}
	POST /v1/connection/test  Profile               -> {"version"}
	GET  /v1/config                                  -> AppConfig
	PUT  /v1/config           AppConfig             -> {"status"}
	GET  /v1/history/{profile}                       -> [string]
	POST /v1/history/{profile} {"path"}              -> [string]
	GET  /healthz, GET /metrics

# Errors

Every failure crosses this boundary as a single flattened message:

	{"error": "failed to connect using profile \"prod\": ..."}

Local configuration errors (no active profile, locked profile) map to
409; store failures map to 502. There is no structured error taxonomy
on the wire; the frontend renders the message as-is.
*/
package api
