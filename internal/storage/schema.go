// ABOUTME: SQLite schema definition and initialization.
// ABOUTME: Enforces one mood per user per day and one open alert per user and kind.
package storage

// initSchema creates or updates the database schema.
func (d *DB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		risk_level TEXT NOT NULL DEFAULT 'low',
		active INTEGER NOT NULL DEFAULT 1,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS habits (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		name TEXT NOT NULL,
		current_streak INTEGER NOT NULL DEFAULT 0,
		longest_streak INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS habit_completions (
		habit_id TEXT NOT NULL,
		day TEXT NOT NULL,
		PRIMARY KEY (habit_id, day),
		FOREIGN KEY (habit_id) REFERENCES habits(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS mood_records (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		day TEXT NOT NULL,
		mood TEXT NOT NULL,
		content TEXT NOT NULL DEFAULT '',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE (user_id, day),
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS risk_alerts (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		alert_kind TEXT NOT NULL,
		severity TEXT NOT NULL,
		description TEXT NOT NULL,
		related_data TEXT NOT NULL DEFAULT '{}',
		is_resolved INTEGER NOT NULL DEFAULT 0,
		resolved_by TEXT,
		resolved_at DATETIME,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_alerts_one_open
		ON risk_alerts(user_id, alert_kind) WHERE is_resolved = 0;
	CREATE INDEX IF NOT EXISTS idx_users_risk ON users(risk_level, active);
	CREATE INDEX IF NOT EXISTS idx_habits_user ON habits(user_id);
	CREATE INDEX IF NOT EXISTS idx_moods_user_day ON mood_records(user_id, day);
	CREATE INDEX IF NOT EXISTS idx_alerts_created ON risk_alerts(created_at DESC);
	`

	_, err := d.db.Exec(schema)
	return err
}
