package persistence

import (
	"context"
	"fmt"
	"io/fs"
	"sort"

	"go.uber.org/zap"

	"github.com/spec-kit/support-desk/internal/repository"
)

// RunMigrations applies every .sql file in migrations in lexical order.
// Statements are written to be idempotent, so reruns are safe.
func RunMigrations(ctx context.Context, db repository.DB, migrations fs.FS, logger *zap.Logger) (int, error) {
	if db == nil {
		logger.Warn("no postgres pool available; skipping migrations")
		return 0, nil
	}

	filenames, err := fs.Glob(migrations, "*.sql")
	if err != nil {
		return 0, fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(filenames)

	for _, name := range filenames {
		content, err := fs.ReadFile(migrations, name)
		if err != nil {
			return 0, fmt.Errorf("read migration %s: %w", name, err)
		}

		logger.Info("applying migration", zap.String("file", name))
		if _, err := db.Exec(ctx, string(content)); err != nil {
			return 0, fmt.Errorf("apply migration %s: %w", name, err)
		}
	}

	logger.Info("migrations applied", zap.Int("count", len(filenames)))
	return len(filenames), nil
}
