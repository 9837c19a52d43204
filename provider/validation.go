package provider

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sahilm/fuzzy"

	"chatcli/config"
)

const pingTimeout = 10 * time.Second

// PingProvider validates a provider's credentials by calling Ping().
// Used by `chat-cli auth set` to check a key before storing it.
func PingProvider(ctx context.Context, providerID, baseURL, apiKey string) error {
	p, err := NewProvider(Config{
		Type:    MapProviderIDToType(providerID),
		BaseURL: baseURL,
		APIKey:  apiKey,
	})
	if err != nil {
		return fmt.Errorf("failed to create provider: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := p.Ping(ctx); err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}

	if config.DebugLog != nil {
		config.DebugLog.Printf("[Provider] Provider %s ping successful", providerID)
	}
	return nil
}

// FetchModels lists the provider's models sorted by name. A non-empty query
// filters and ranks them with fuzzy matching against the display and API
// names, as used by `chat-cli models <query>` and `/model <query>`.
func FetchModels(ctx context.Context, p Provider, query string) ([]ModelInfo, error) {
	models, err := p.ListModels(ctx)
	if err != nil {
		return nil, err
	}

	sort.Slice(models, func(i, j int) bool {
		return strings.ToLower(models[i].InternalName) < strings.ToLower(models[j].InternalName)
	})

	if config.DebugLog != nil {
		config.DebugLog.Printf("[Provider] Fetched %d models from %s", len(models), p.GetDisplayName())
	}

	if query == "" {
		return models, nil
	}
	return MatchModels(models, query), nil
}

// MatchModels ranks models by fuzzy match of query against InternalName.
// An exact match is always returned first.
func MatchModels(models []ModelInfo, query string) []ModelInfo {
	names := make([]string, len(models))
	for i, m := range models {
		names[i] = m.InternalName
	}

	var out []ModelInfo
	for i, m := range models {
		if strings.EqualFold(m.InternalName, query) || strings.EqualFold(m.Name, query) {
			out = append(out, m)
			names[i] = ""
		}
	}
	for _, match := range fuzzy.Find(query, names) {
		out = append(out, models[match.Index])
	}
	return out
}
