package config

import (
	"flag"
	"os"
	"time"

	"github.com/vallamarket/cartsync/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-d string   PostgreSQL DSN of the marketplace backend
//	-l string   path of the local SQLite cart database
//	-s string   namespace scope for local storage keys
//	-i int      sync debounce in milliseconds (default from Config)
//
// Note: The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-d", "-l", "-s", "-i"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "PostgreSQL DSN of the marketplace backend")
	fs.StringVar(&cfg.LocalDBPath, "l", cfg.LocalDBPath, "path of the local cart database")
	fs.StringVar(&cfg.CartScope, "s", cfg.CartScope, "cart namespace scope")
	syncDebounce := fs.Int("i", int(cfg.SyncDebounce.Milliseconds()), "sync debounce (in milliseconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.SyncDebounce = time.Duration(*syncDebounce) * time.Millisecond
}
