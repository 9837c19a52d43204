package commands

import (
	"strings"

	"github.com/sahilm/fuzzy"
)

// Complete returns the commands matching the typed prefix. Commands whose
// name starts with the prefix come first in name order, followed by fuzzy
// matches ranked by score. Input without a leading slash matches nothing.
func (r *Registry) Complete(prefix string) []*Command {
	prefix = strings.TrimSpace(prefix)
	if !strings.HasPrefix(prefix, "/") || strings.Contains(prefix, " ") {
		return nil
	}

	all := r.All()
	if prefix == "/" {
		return all
	}

	var (
		out   []*Command
		names = make([]string, len(all))
	)
	for i, c := range all {
		if strings.HasPrefix(c.Name, prefix) {
			out = append(out, c)
			continue
		}
		names[i] = c.Name
	}
	for _, m := range fuzzy.Find(prefix[1:], names) {
		out = append(out, all[m.Index])
	}
	return out
}
