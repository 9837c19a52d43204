package storage

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const maxHistoryEntries = 1000

// PromptHistory keeps the prompts typed at the input box across runs.
type PromptHistory struct {
	db *sql.DB
}

// NewPromptHistory opens <dataDir>/history.db.
func NewPromptHistory(dataDir string) (*PromptHistory, error) {
	return openPromptHistory(filepath.Join(dataDir, "history.db"))
}

func openPromptHistory(dbPath string) (*PromptHistory, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	h := &PromptHistory{db: db}
	if err := h.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return h, nil
}

func (h *PromptHistory) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS prompts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		text TEXT NOT NULL,
		work_dir TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_prompts_created ON prompts(created_at);
	`
	_, err := h.db.Exec(schema)
	return err
}

// Add records a prompt. Blank prompts and immediate repeats are ignored.
func (h *PromptHistory) Add(text, workDir string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var last string
	err := h.db.QueryRow(`SELECT text FROM prompts ORDER BY id DESC LIMIT 1`).Scan(&last)
	switch {
	case err == sql.ErrNoRows:
	case err != nil:
		return fmt.Errorf("failed to read history: %w", err)
	case last == text:
		return nil
	}

	if _, err := h.db.Exec(
		`INSERT INTO prompts (text, work_dir, created_at) VALUES (?, ?, ?)`,
		text, workDir, time.Now(),
	); err != nil {
		return fmt.Errorf("failed to add prompt: %w", err)
	}

	_, err = h.db.Exec(
		`DELETE FROM prompts WHERE id <= (SELECT id FROM prompts ORDER BY id DESC LIMIT 1 OFFSET ?)`,
		maxHistoryEntries,
	)
	if err != nil {
		return fmt.Errorf("failed to trim history: %w", err)
	}
	return nil
}

// Recent returns up to n prompts, oldest first, so the newest is last.
func (h *PromptHistory) Recent(n int) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}

	rows, err := h.db.Query(`SELECT text FROM prompts ORDER BY id DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var text string
		if err := rows.Scan(&text); err != nil {
			return nil, fmt.Errorf("failed to scan history: %w", err)
		}
		out = append(out, text)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func (h *PromptHistory) Close() error {
	return h.db.Close()
}
