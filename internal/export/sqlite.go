package export

import (
	"birdwatch/internal/config"

	_ "modernc.org/sqlite"
)

// buildSQLiteDSN treats Host (or DSN) as the path of the target file.
func buildSQLiteDSN(cfg config.Export) string {
	if cfg.DSN != "" {
		return cfg.DSN
	}
	return cfg.Host + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
}
