/*
Package config manages etcdmate's on-disk configuration: the set of
connection profiles, the active profile selection, and UI preferences.

The configuration is a single JSON file under the user config directory
(for example ~/.config/etcdmate/config.json on Linux). A missing file is
treated as an empty configuration, not an error, so first runs work
without any setup.

# Profiles

A profile names one etcd cluster: its endpoints in failover order, an
optional credential, optional request/dial timeouts, and a lock flag.
Locked profiles reject put/delete client-side before any network call:

	if err := cfg.EnsureCurrentUnlocked(); err != nil {
		return err // ErrProfileLocked or ErrNoCurrentProfile
	}

The active selection is stored by name. A name that no longer resolves
to a profile behaves exactly like no selection (ErrNoCurrentProfile);
the session layer treats that as a normal empty state, not a failure.
*/
package config
