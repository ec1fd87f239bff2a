// Command migrate applies the backend schema (cart rows, reservations, the
// availability function and the notification triggers) to the configured
// PostgreSQL database.
package main

import (
	"context"
	"log"

	"github.com/vallamarket/cartsync/internal/config"
	"github.com/vallamarket/cartsync/internal/remote"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()

	if err := remote.Migrate(ctx, cfg.DatabaseDSN); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	log.Println("backend schema is up to date")
}
