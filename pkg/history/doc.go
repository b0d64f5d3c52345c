/*
Package history persists the per-profile list of recently visited key
paths in a local BoltDB file.

Each profile maps to an MRU list: saving a path moves it to the front,
deduplicates, and truncates the list to the 20 most recent entries.
Reads of unknown profiles return an empty list rather than an error so
the frontend can always render a (possibly empty) history.

The database lives next to the config file under the user config
directory and is safe for concurrent use via BoltDB's transactions.
*/
package history
