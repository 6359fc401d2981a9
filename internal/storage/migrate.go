package storage

import "fmt"

// Migrate ensures the required tables are present.
func Migrate(db *DB) error {
	var stmts []string
	switch db.dialect {
	case SQLite:
		stmts = []string{
			`CREATE TABLE IF NOT EXISTS users (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				full_name TEXT NOT NULL,
				email TEXT NOT NULL UNIQUE,
				password_hash TEXT NOT NULL,
				created_at DATETIME NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS user_tokens (
				token TEXT PRIMARY KEY,
				user_id INTEGER NOT NULL,
				created_at DATETIME NOT NULL,
				expires_at DATETIME NOT NULL,
				FOREIGN KEY(user_id) REFERENCES users(id) ON DELETE CASCADE
			)`,
			`CREATE INDEX IF NOT EXISTS idx_user_tokens_user ON user_tokens(user_id)`,
			`CREATE TABLE IF NOT EXISTS sessions (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				user_id INTEGER NOT NULL,
				interview_type TEXT NOT NULL,
				status TEXT NOT NULL DEFAULT 'in_progress',
				started_at DATETIME NOT NULL,
				ended_at DATETIME,
				duration_minutes INTEGER,
				total_questions INTEGER NOT NULL DEFAULT 0,
				FOREIGN KEY(user_id) REFERENCES users(id) ON DELETE CASCADE
			)`,
			`CREATE INDEX IF NOT EXISTS idx_sessions_user_started ON sessions(user_id, started_at DESC)`,
			`CREATE TABLE IF NOT EXISTS conversation_messages (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				session_id INTEGER NOT NULL,
				message_type TEXT NOT NULL CHECK (message_type IN ('question', 'answer')),
				content TEXT NOT NULL,
				sequence_number INTEGER NOT NULL,
				timestamp DATETIME NOT NULL,
				UNIQUE(session_id, sequence_number),
				FOREIGN KEY(session_id) REFERENCES sessions(id) ON DELETE CASCADE
			)`,
			`CREATE TABLE IF NOT EXISTS feedback (
				session_id INTEGER PRIMARY KEY,
				overall_score REAL NOT NULL,
				technical_accuracy TEXT NOT NULL,
				communication_quality TEXT NOT NULL,
				strengths TEXT NOT NULL,
				areas_of_improvement TEXT NOT NULL,
				created_at DATETIME NOT NULL,
				FOREIGN KEY(session_id) REFERENCES sessions(id) ON DELETE CASCADE
			)`,
		}
	case MySQL:
		stmts = []string{
			`CREATE TABLE IF NOT EXISTS users (
				id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
				full_name VARCHAR(255) NOT NULL,
				email VARCHAR(255) NOT NULL UNIQUE,
				password_hash VARCHAR(255) NOT NULL,
				created_at DATETIME(6) NOT NULL,
				PRIMARY KEY (id)
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
			`CREATE TABLE IF NOT EXISTS user_tokens (
				token VARCHAR(255) NOT NULL PRIMARY KEY,
				user_id BIGINT UNSIGNED NOT NULL,
				created_at DATETIME(6) NOT NULL,
				expires_at DATETIME(6) NOT NULL,
				INDEX idx_user_tokens_user (user_id),
				CONSTRAINT fk_user_tokens_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
			`CREATE TABLE IF NOT EXISTS sessions (
				id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
				user_id BIGINT UNSIGNED NOT NULL,
				interview_type VARCHAR(50) NOT NULL,
				status VARCHAR(20) NOT NULL DEFAULT 'in_progress',
				started_at DATETIME(6) NOT NULL,
				ended_at DATETIME(6) NULL,
				duration_minutes INT NULL,
				total_questions INT NOT NULL DEFAULT 0,
				PRIMARY KEY (id),
				INDEX idx_sessions_user_started (user_id, started_at),
				CONSTRAINT fk_sessions_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
			`CREATE TABLE IF NOT EXISTS conversation_messages (
				id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
				session_id BIGINT UNSIGNED NOT NULL,
				message_type ENUM('question', 'answer') NOT NULL,
				content MEDIUMTEXT NOT NULL,
				sequence_number INT NOT NULL,
				timestamp DATETIME(6) NOT NULL,
				PRIMARY KEY (id),
				UNIQUE KEY uniq_session_sequence (session_id, sequence_number),
				CONSTRAINT fk_messages_session FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
			`CREATE TABLE IF NOT EXISTS feedback (
				session_id BIGINT UNSIGNED NOT NULL PRIMARY KEY,
				overall_score DECIMAL(4,2) NOT NULL,
				technical_accuracy TEXT NOT NULL,
				communication_quality TEXT NOT NULL,
				strengths TEXT NOT NULL,
				areas_of_improvement TEXT NOT NULL,
				created_at DATETIME(6) NOT NULL,
				CONSTRAINT fk_feedback_session FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		}
	case Postgres:
		stmts = []string{
			`CREATE TABLE IF NOT EXISTS users (
				id BIGSERIAL PRIMARY KEY,
				full_name TEXT NOT NULL,
				email TEXT NOT NULL UNIQUE,
				password_hash TEXT NOT NULL,
				created_at TIMESTAMPTZ NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS user_tokens (
				token TEXT PRIMARY KEY,
				user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				created_at TIMESTAMPTZ NOT NULL,
				expires_at TIMESTAMPTZ NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_user_tokens_user ON user_tokens(user_id)`,
			`CREATE TABLE IF NOT EXISTS sessions (
				id BIGSERIAL PRIMARY KEY,
				user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				interview_type TEXT NOT NULL,
				status TEXT NOT NULL DEFAULT 'in_progress',
				started_at TIMESTAMPTZ NOT NULL,
				ended_at TIMESTAMPTZ,
				duration_minutes INTEGER,
				total_questions INTEGER NOT NULL DEFAULT 0
			)`,
			`CREATE INDEX IF NOT EXISTS idx_sessions_user_started ON sessions(user_id, started_at DESC)`,
			`CREATE TABLE IF NOT EXISTS conversation_messages (
				id BIGSERIAL PRIMARY KEY,
				session_id BIGINT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
				message_type TEXT NOT NULL CHECK (message_type IN ('question', 'answer')),
				content TEXT NOT NULL,
				sequence_number INTEGER NOT NULL,
				timestamp TIMESTAMPTZ NOT NULL,
				UNIQUE(session_id, sequence_number)
			)`,
			`CREATE TABLE IF NOT EXISTS feedback (
				session_id BIGINT PRIMARY KEY REFERENCES sessions(id) ON DELETE CASCADE,
				overall_score DOUBLE PRECISION NOT NULL,
				technical_accuracy TEXT NOT NULL,
				communication_quality TEXT NOT NULL,
				strengths TEXT NOT NULL,
				areas_of_improvement TEXT NOT NULL,
				created_at TIMESTAMPTZ NOT NULL
			)`,
		}
	default:
		return fmt.Errorf("unsupported driver for migration: %s", db.dialect)
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate (%s): %w", db.dialect, err)
		}
	}
	return nil
}
