package common

import "time"

// RoleAdvertiser is the only role allowed to mutate a cart. The engine
// enforces this on every operation, independent of any UI gating.
const RoleAdvertiser = "advertiser"

// AnonymousUserID is the local-storage bucket used when no session exists.
const AnonymousUserID = "anonymous"

// DefaultCartScope disambiguates cart keys from other per-user cached state
// sharing the same local database.
const DefaultCartScope = "marketplace"

// DefaultSyncDebounce is how long the engine waits after the last mutation
// before pushing the snapshot to the remote store.
const DefaultSyncDebounce = 1000 * time.Millisecond
