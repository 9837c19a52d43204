package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"chatcli/config"
	"chatcli/message"
)

// Session is one saved conversation transcript.
type Session struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Provider  string            `json:"provider"`
	Model     string            `json:"model"`
	WorkDir   string            `json:"work_dir,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
	Messages  []message.Message `json:"messages"`
}

// SessionMetadata is a lightweight version of Session for listing
type SessionMetadata struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Provider     string    `json:"provider"`
	Model        string    `json:"model"`
	WorkDir      string    `json:"work_dir,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	MessageCount int       `json:"message_count"`
}

// SessionStorage handles session persistence
type SessionStorage struct {
	sessionsDir string
}

// NewSessionStorage creates <dataDir>/sessions if needed.
func NewSessionStorage(dataDir string) (*SessionStorage, error) {
	sessionsDir := filepath.Join(dataDir, "sessions")

	// 0700: transcripts can contain file contents and command output
	if err := os.MkdirAll(sessionsDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create sessions directory: %w", err)
	}

	return &SessionStorage{
		sessionsDir: sessionsDir,
	}, nil
}

func (s *SessionStorage) path(id string) string {
	return filepath.Join(s.sessionsDir, id+".json")
}

// Save writes the session, assigning an ID and timestamps when missing.
func (s *SessionStorage) Save(session *Session) error {
	if session.ID == "" {
		session.ID = uuid.New().String()
	}

	session.UpdatedAt = time.Now()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = session.UpdatedAt
	}
	if session.Name == "" {
		session.Name = GenerateSessionName(firstUserText(session.Messages))
	}

	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := os.WriteFile(s.path(session.ID), data, 0600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}

	if config.DebugLog != nil {
		config.DebugLog.Printf("[Storage] saved session %s (%d entries)", session.ID, len(session.Messages))
	}
	return nil
}

// Load loads a session from disk
func (s *SessionStorage) Load(id string) (*Session, error) {
	data, err := os.ReadFile(s.path(id))
	if err != nil {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	return &session, nil
}

// List returns metadata for all sessions, sorted by update time (newest first)
func (s *SessionStorage) List() ([]SessionMetadata, error) {
	entries, err := os.ReadDir(s.sessionsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read sessions directory: %w", err)
	}

	var sessions []SessionMetadata

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		session, err := s.Load(strings.TrimSuffix(entry.Name(), ".json"))
		if err != nil {
			continue // Skip corrupted files
		}

		sessions = append(sessions, SessionMetadata{
			ID:           session.ID,
			Name:         session.Name,
			Provider:     session.Provider,
			Model:        session.Model,
			WorkDir:      session.WorkDir,
			CreatedAt:    session.CreatedAt,
			UpdatedAt:    session.UpdatedAt,
			MessageCount: len(message.ForDisplay(session.Messages)),
		})
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].UpdatedAt.After(sessions[j].UpdatedAt)
	})

	return sessions, nil
}

// Delete deletes a session from disk
func (s *SessionStorage) Delete(id string) error {
	if err := os.Remove(s.path(id)); err != nil {
		return fmt.Errorf("failed to delete session file: %w", err)
	}

	// Forget it as the current session too.
	if current, err := s.LoadCurrentSessionID(); err == nil && current == id {
		_ = os.Remove(s.currentIDPath())
	}
	return nil
}

// Resolve finds a session by full ID or unique ID prefix.
func (s *SessionStorage) Resolve(prefix string) (string, error) {
	if prefix == "" {
		return "", fmt.Errorf("empty session id")
	}
	list, err := s.List()
	if err != nil {
		return "", err
	}

	var found []string
	for _, m := range list {
		if m.ID == prefix {
			return m.ID, nil
		}
		if strings.HasPrefix(m.ID, prefix) {
			found = append(found, m.ID)
		}
	}
	switch len(found) {
	case 0:
		return "", fmt.Errorf("no session matches %q", prefix)
	case 1:
		return found[0], nil
	default:
		return "", fmt.Errorf("session id %q is ambiguous (%d matches)", prefix, len(found))
	}
}

func (s *SessionStorage) currentIDPath() string {
	return filepath.Join(filepath.Dir(s.sessionsDir), "current_session.id")
}

// SaveCurrentSessionID saves the ID of the current session
func (s *SessionStorage) SaveCurrentSessionID(id string) error {
	return os.WriteFile(s.currentIDPath(), []byte(id), 0600)
}

// LoadCurrentSessionID loads the ID of the last active session
func (s *SessionStorage) LoadCurrentSessionID() (string, error) {
	data, err := os.ReadFile(s.currentIDPath())
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// RenameSession updates the name of a session
func (s *SessionStorage) RenameSession(id string, newName string) error {
	session, err := s.Load(id)
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}

	session.Name = newName

	if err := s.Save(session); err != nil {
		return fmt.Errorf("failed to save renamed session: %w", err)
	}

	return nil
}

// ExportToJSON copies a session to exportPath.
func (s *SessionStorage) ExportToJSON(id string, exportPath string) error {
	session, err := s.Load(id)
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}

	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(exportPath), 0700); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(exportPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	return nil
}

// GenerateSessionName generates a session name from the first user message
func GenerateSessionName(firstMessage string) string {
	firstMessage = strings.Join(strings.Fields(firstMessage), " ")
	if firstMessage == "" {
		return fmt.Sprintf("Session %s", time.Now().Format("Jan 2, 3:04 PM"))
	}

	if r := []rune(firstMessage); len(r) > 30 {
		return string(r[:30]) + "..."
	}
	return firstMessage
}

func firstUserText(entries []message.Message) string {
	for _, m := range entries {
		if m.Role == message.RoleUser {
			return m.Text
		}
	}
	return ""
}
