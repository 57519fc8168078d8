// Package watchlist resolves the auxiliary notify-others email list attached
// to a shipment. The dispatcher consults it when a notification references a
// shipment; every resolved address gets a best-effort email.
package watchlist

import "context"

// Resolver answers which email addresses watch a shipment.
type Resolver interface {
	Resolve(ctx context.Context, shipmentID string) ([]string, error)
}

// Store manages watcher subscriptions.
type Store interface {
	Resolver
	Add(ctx context.Context, shipmentID, email string) error
}
