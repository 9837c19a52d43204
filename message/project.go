package message

// ForModel projects the log into what is sent to the model:
//   - gui entries are dropped
//   - tool results lose their display title and text
//   - tool calls that never received a result (declined, or still pending)
//     are dropped, and an assistant entry left empty is dropped with them
//   - the results answering an assistant tool-call entry are emitted as one
//     tool entry directly after it, ahead of any assistant text that was
//     logged in between (a decline notice, for instance)
func ForModel(entries []Message) []Message {
	out := make([]Message, 0, len(entries))
	consumed := make(map[int]bool)

	for i, m := range entries {
		switch {
		case m.Role == RoleGUI, consumed[i]:
			continue
		case m.Role == RoleTool:
			// Results whose call entry was not found earlier.
			continue
		case m.Role == RoleAssistant && m.HasToolCalls():
			calls, results, used := collectResults(entries, i)
			for _, j := range used {
				consumed[j] = true
			}
			if len(calls) == 0 {
				if m.Text != "" {
					out = append(out, Message{Role: RoleAssistant, Text: m.Text, Timestamp: m.Timestamp})
				}
				continue
			}
			out = append(out, Message{Role: RoleAssistant, Text: m.Text, Parts: calls, Timestamp: m.Timestamp})
			out = append(out, Message{Role: RoleTool, Parts: results, Timestamp: m.Timestamp})
		default:
			out = append(out, m)
		}
	}

	return out
}

// collectResults pairs the tool calls of entries[i] with their results found
// in the tool entries that follow, up to the next user turn or tool-call entry.
func collectResults(entries []Message, i int) (calls, results []Part, used []int) {
	found := make(map[string]Part)
	for j := i + 1; j < len(entries); j++ {
		e := entries[j]
		if e.Role == RoleUser || (e.Role == RoleAssistant && e.HasToolCalls()) {
			break
		}
		if e.Role != RoleTool {
			continue
		}
		used = append(used, j)
		for _, p := range e.Parts {
			if p.Type == PartToolResult {
				found[p.ToolCallID] = p
			}
		}
	}

	for _, p := range entries[i].Parts {
		if p.Type != PartToolCall {
			continue
		}
		r, ok := found[p.ToolCallID]
		if !ok {
			continue
		}
		calls = append(calls, p)
		results = append(results, Part{
			Type:       PartToolResult,
			ToolCallID: r.ToolCallID,
			ToolName:   r.ToolName,
			Result:     r.Result,
		})
	}
	return calls, results, used
}

// ForDisplay is the log as the user sees it: everything except system entries.
func ForDisplay(entries []Message) []Message {
	out := make([]Message, 0, len(entries))
	for _, m := range entries {
		if m.Role == RoleSystem {
			continue
		}
		out = append(out, m)
	}
	return out
}

// LastAssistantText returns the text of the most recent assistant text entry.
func LastAssistantText(entries []Message) string {
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].Role == RoleAssistant && entries[i].Text != "" {
			return entries[i].Text
		}
	}
	return ""
}
