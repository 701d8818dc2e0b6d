// ABOUTME: Data migration between vigil storage backends.
// ABOUTME: Copies users, habits, mood records, and alerts from source to destination.

package storage

import (
	"context"
	"fmt"
	"os"
)

// MigrateSummary holds counts of migrated entities.
type MigrateSummary struct {
	Users       int
	Habits      int
	MoodRecords int
	Alerts      int
}

// MigrateData copies all data from src to dst storage.
// Users go first so habits, moods, and alerts always find their owner.
// The destination should be empty before calling this function.
func MigrateData(ctx context.Context, src, dst Repository) (*MigrateSummary, error) {
	data, err := GetAllData(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("read source: %w", err)
	}

	if err := ImportData(ctx, dst, data); err != nil {
		return nil, fmt.Errorf("write destination: %w", err)
	}

	return &MigrateSummary{
		Users:       len(data.Users),
		Habits:      len(data.Habits),
		MoodRecords: len(data.MoodRecords),
		Alerts:      len(data.Alerts),
	}, nil
}

// IsDirNonEmpty checks whether a directory exists and contains any files or subdirectories.
// Returns false if the directory does not exist or is empty.
func IsDirNonEmpty(path string) (bool, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("read directory %q: %w", path, err)
	}
	return len(entries) > 0, nil
}
