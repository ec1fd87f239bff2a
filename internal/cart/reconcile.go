package cart

import "github.com/vallamarket/cartsync/internal/models"

// Winner says which copy of the cart survives hydration.
type Winner int

const (
	// KeepLocal leaves the in-memory/local snapshot untouched.
	KeepLocal Winner = iota
	// TakeRemote overwrites in-memory and local state from the remote row.
	TakeRemote
)

// Reconcile decides between the local and remote snapshots. The remote copy
// wins only when no local cart exists or when it is strictly newer; ties go
// to the local copy, so a slow fetch can never clobber a cart the user just
// built on this device.
func Reconcile(local, remote *models.CartSnapshot) Winner {
	if remote == nil {
		return KeepLocal
	}
	if local == nil {
		return TakeRemote
	}
	if remote.UpdatedAt.After(local.UpdatedAt) {
		return TakeRemote
	}
	return KeepLocal
}
