package db

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"chronos-go/pkg/logger"
	"gorm.io/gorm"
)

const (
	migrationsDirName = "migrations"
	migrationsDirEnv  = "MIGRATIONS_DIR"
)

// Migrate applies every *.sql file from the migrations directory that has not been
// recorded in schema_migrations yet. Each file runs in its own transaction.
func Migrate(ctx context.Context, gormDB *gorm.DB, log logger.Logger) (int, error) {
	path, err := resolveMigrationsDir()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Warn("db: migrations directory not found, skipping")
			return 0, nil
		}
		return 0, err
	}

	conn := gormDB.WithContext(ctx)
	if err := ensureSchemaMigrations(conn); err != nil {
		return 0, fmt.Errorf("ensure schema_migrations: %w", err)
	}

	files, err := listMigrationFiles(path)
	if err != nil {
		return 0, err
	}

	applied := 0
	for _, name := range files {
		done, err := isMigrationApplied(conn, name)
		if err != nil {
			return applied, err
		}
		if done {
			continue
		}

		contents, err := os.ReadFile(filepath.Join(path, name))
		if err != nil {
			return applied, err
		}

		sql := strings.TrimSpace(string(contents))
		if sql == "" {
			continue
		}

		err = conn.Transaction(func(tx *gorm.DB) error {
			if err := tx.Exec(sql).Error; err != nil {
				return err
			}
			return recordMigration(tx, name)
		})
		if err != nil {
			return applied, fmt.Errorf("apply migration %s: %w", name, err)
		}

		log.Info("db: migration applied", "file", name)
		applied++
	}

	return applied, nil
}

func listMigrationFiles(path string) ([]string, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

func ensureSchemaMigrations(conn *gorm.DB) error {
	return conn.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			filename TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
	`).Error
}

func isMigrationApplied(conn *gorm.DB, name string) (bool, error) {
	var count int64
	if err := conn.Raw("SELECT COUNT(1) FROM schema_migrations WHERE filename = ?", name).Scan(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func recordMigration(conn *gorm.DB, name string) error {
	return conn.Exec("INSERT INTO schema_migrations (filename, applied_at) VALUES (?, ?)", name, time.Now().UTC()).Error
}

func resolveMigrationsDir() (string, error) {
	if dir := strings.TrimSpace(os.Getenv(migrationsDirEnv)); dir != "" {
		info, err := os.Stat(dir)
		if err != nil {
			return "", err
		}
		if !info.IsDir() {
			return "", fmt.Errorf("%s is not a directory", dir)
		}
		return dir, nil
	}
	return findMigrationsDir(migrationsDirName)
}

func findMigrationsDir(dirName string) (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		candidate := filepath.Join(dir, dirName)
		info, err := os.Stat(candidate)
		if err == nil && info.IsDir() {
			return candidate, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", os.ErrNotExist
}
