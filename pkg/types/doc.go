/*
Package types defines the core data types shared across etcdmate's
packages: decoded key-value items, cluster members, and endpoint status.

Items carry the store metadata (version, create/mod revision, lease)
verbatim from the etcd response so the frontend can display it and pin
point-in-time reads to a revision.

# UTF-8 Filtering

etcd keys and values are arbitrary byte strings, but etcdmate presents
them as text. Entries whose key or value is not valid UTF-8 are dropped
from result sets rather than failing the whole request:

	items, skipped := types.ItemsFromKVs(resp.Kvs)
	if skipped > 0 {
		// listing is complete minus `skipped` undecodable entries
	}

This is a deliberate lossy filter inherited from the desktop client's
behavior; the skipped count is reported so callers can log it.

# See Also

  - pkg/ops for the operations producing these types
  - pkg/session for the session manager that executes them
*/
package types
