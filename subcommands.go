package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/mattn/go-runewidth"

	"chatcli/commands"
	"chatcli/config"
	"chatcli/message"
	"chatcli/provider"
	"chatcli/storage"
)

const descWidth = 70

func (c *ConfigCmd) Run(g *Globals) error {
	cfg, err := loadConfig(g)
	if err != nil {
		return err
	}
	out, err := commands.FormatConfig(cfg)
	if err != nil {
		return err
	}
	fmt.Printf("# %s\n%s\n", config.GetSettingsFilePath(), out)
	return nil
}

func (c *ToolsCmd) Run(g *Globals) error {
	ctx := context.Background()
	a, err := newAgent(ctx, g, c.MCP)
	if err != nil {
		return err
	}
	defer a.close()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, def := range a.registry.Definitions() {
		gated := ""
		if a.gate.IsGated(def.Name) {
			gated = "gated"
		}
		desc := strings.SplitN(def.Description, "\n", 2)[0]
		fmt.Fprintf(w, "%s\t%s\t%s\n", def.Name, gated, runewidth.Truncate(desc, descWidth, "..."))
	}
	return w.Flush()
}

func (c *ModelsCmd) Run(g *Globals) error {
	cfg, err := loadConfig(g)
	if err != nil {
		return err
	}
	p, err := provider.FromConfig(cfg)
	if err != nil {
		return err
	}

	models, err := provider.FetchModels(context.Background(), p, c.Query)
	if err != nil {
		return fmt.Errorf("failed to list models: %w", err)
	}
	if len(models) == 0 {
		return fmt.Errorf("no model matches %q", c.Query)
	}
	if c.Use {
		return saveDefaultModel(models[0].InternalName)
	}
	for _, m := range models {
		marker := " "
		if m.InternalName == p.GetModel() {
			marker = "*"
		}
		fmt.Printf("%s %s\n", marker, m.InternalName)
	}
	return nil
}

// saveDefaultModel writes model into config.toml. The file is re-encoded,
// so comments from the template are not kept.
func saveDefaultModel(model string) error {
	path := config.GetSettingsFilePath()
	fc, err := config.LoadFileConfig(path)
	if err != nil {
		return err
	}
	fc.Model = model
	if err := config.SaveFileConfig(path, fc); err != nil {
		return err
	}
	fmt.Printf("Default model set to %s\n", model)
	return nil
}

// credentialStore returns the loaded store or explains why there is none.
func credentialStore(g *Globals) (*config.CredentialStore, error) {
	cfg, err := loadConfig(g)
	if err != nil {
		return nil, err
	}
	if cfg.CredentialStore == nil {
		return nil, fmt.Errorf("credential store unavailable: %w", cfg.CredentialErr)
	}
	return cfg.CredentialStore, nil
}

func (c *AuthSetCmd) Run(g *Globals) error {
	if !config.IsKnownProvider(c.Provider) {
		return fmt.Errorf("unknown provider: %s", c.Provider)
	}
	store, err := credentialStore(g)
	if err != nil {
		return err
	}

	key := c.Key
	if key == "" {
		fmt.Fprintf(os.Stderr, "API key for %s: ", config.ProviderDisplayName(c.Provider))
		sc := bufio.NewScanner(os.Stdin)
		if sc.Scan() {
			key = strings.TrimSpace(sc.Text())
		}
		if err := sc.Err(); err != nil {
			return fmt.Errorf("failed to read key: %w", err)
		}
	}
	if key == "" {
		return errors.New("no key given")
	}
	if c.Check {
		if err := provider.PingProvider(context.Background(), c.Provider, config.ProviderDefaultBaseURL(c.Provider), key); err != nil {
			return fmt.Errorf("key rejected by %s: %w", c.Provider, err)
		}
	}

	if err := store.Set(c.Provider, key); err != nil {
		return err
	}
	if err := store.Save(); err != nil {
		return fmt.Errorf("failed to save credentials: %w", err)
	}
	fmt.Printf("Stored key for %s (%s)\n", c.Provider, store.Method())
	return nil
}

func (c *AuthDeleteCmd) Run(g *Globals) error {
	store, err := credentialStore(g)
	if err != nil {
		return err
	}
	if store.Get(c.Provider) == "" {
		return fmt.Errorf("no key stored for %s", c.Provider)
	}
	store.Delete(c.Provider)
	if err := store.Save(); err != nil {
		return fmt.Errorf("failed to save credentials: %w", err)
	}
	fmt.Printf("Removed key for %s\n", c.Provider)
	return nil
}

func (c *AuthListCmd) Run(g *Globals) error {
	store, err := credentialStore(g)
	if err != nil {
		return err
	}
	ids := store.Providers()
	if len(ids) == 0 {
		fmt.Println("No stored keys.")
		return nil
	}
	for _, id := range ids {
		fmt.Printf("%s (%s)\n", id, config.ProviderDisplayName(id))
	}
	return nil
}

func sessionStorage(g *Globals) (*storage.SessionStorage, error) {
	cfg, err := loadConfig(g)
	if err != nil {
		return nil, err
	}
	return storage.NewSessionStorage(cfg.DataDir())
}

func (c *SessionsListCmd) Run(g *Globals) error {
	s, err := sessionStorage(g)
	if err != nil {
		return err
	}
	list, err := s.List()
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Println("No saved sessions.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, m := range list {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d messages\t%s\n",
			shortID(m.ID), m.UpdatedAt.Format("2006-01-02 15:04"), m.Model, m.MessageCount, m.Name)
	}
	return w.Flush()
}

func (c *SessionsShowCmd) Run(g *Globals) error {
	s, err := sessionStorage(g)
	if err != nil {
		return err
	}
	id, err := s.Resolve(c.ID)
	if err != nil {
		return err
	}
	session, err := s.Load(id)
	if err != nil {
		return err
	}

	fmt.Printf("# %s (%s, %s)\n\n", session.Name, session.Model, session.UpdatedAt.Format("2006-01-02 15:04"))
	printTranscript(os.Stdout, message.ForDisplay(session.Messages))
	return nil
}

func (c *SessionsDeleteCmd) Run(g *Globals) error {
	s, err := sessionStorage(g)
	if err != nil {
		return err
	}
	id, err := s.Resolve(c.ID)
	if err != nil {
		return err
	}
	if err := s.Delete(id); err != nil {
		return err
	}
	fmt.Printf("Deleted session %s\n", id)
	return nil
}

func (c *SessionsSearchCmd) Run(g *Globals) error {
	s, err := sessionStorage(g)
	if err != nil {
		return err
	}
	matches, err := s.SearchAllSessions(c.Query)
	if err != nil {
		return err
	}
	if len(matches) == 0 {
		fmt.Printf("No messages match %q\n", c.Query)
		return nil
	}
	for _, m := range matches {
		fmt.Printf("%s  %s  [%s] %s\n", shortID(m.SessionID), m.SessionName, m.Role, m.Preview)
	}
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func (c *VersionCmd) Run() error {
	fmt.Printf("chat-cli %s (commit %s, built %s)\n", version, commit, buildTime)
	return nil
}
