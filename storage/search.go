package storage

import (
	"strings"
	"time"

	"chatcli/message"
)

// MessageMatch is one transcript entry containing the search query.
type MessageMatch struct {
	SessionID    string
	SessionName  string
	MessageIndex int
	Role         message.Role
	Preview      string
	Timestamp    time.Time
}

const previewLength = 100

// SearchMessages finds entries whose text contains query, case-insensitively.
// System entries are skipped.
func SearchMessages(entries []message.Message, query string) []MessageMatch {
	if query == "" {
		return nil
	}

	queryLower := strings.ToLower(query)
	var matches []MessageMatch

	for i, m := range entries {
		if m.Role == message.RoleSystem {
			continue
		}

		text := entryText(m)
		idx := strings.Index(strings.ToLower(text), queryLower)
		if idx < 0 {
			continue
		}

		matches = append(matches, MessageMatch{
			MessageIndex: i,
			Role:         m.Role,
			Preview:      preview(text, idx),
			Timestamp:    m.Timestamp,
		})
	}

	return matches
}

// SearchAllSessions runs SearchMessages over every saved session, newest
// session first.
func (s *SessionStorage) SearchAllSessions(query string) ([]MessageMatch, error) {
	if query == "" {
		return nil, nil
	}

	list, err := s.List()
	if err != nil {
		return nil, err
	}

	var matches []MessageMatch
	for _, meta := range list {
		session, err := s.Load(meta.ID)
		if err != nil {
			continue
		}
		for _, m := range SearchMessages(session.Messages, query) {
			m.SessionID = session.ID
			m.SessionName = session.Name
			matches = append(matches, m)
		}
	}
	return matches, nil
}

func entryText(m message.Message) string {
	if len(m.Parts) == 0 {
		return m.Text
	}
	var parts []string
	if m.Text != "" {
		parts = append(parts, m.Text)
	}
	for _, p := range m.Parts {
		for _, s := range []string{p.ToolName, p.Title, p.Text} {
			if s != "" {
				parts = append(parts, s)
			}
		}
	}
	return strings.Join(parts, " ")
}

// preview returns up to previewLength bytes of text around the match at idx.
func preview(text string, idx int) string {
	text = strings.ReplaceAll(text, "\n", " ")
	start := 0
	if idx > previewLength/2 {
		start = idx - previewLength/2
	}
	end := start + previewLength
	if end > len(text) {
		end = len(text)
	}

	// Keep the cut on rune boundaries.
	for start > 0 && start < len(text) && !isRuneStart(text[start]) {
		start--
	}
	for end < len(text) && !isRuneStart(text[end]) {
		end++
	}

	out := text[start:end]
	if start > 0 {
		out = "..." + out
	}
	if end < len(text) {
		out += "..."
	}
	return out
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
