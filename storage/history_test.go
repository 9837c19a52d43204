package storage

import (
	"fmt"
	"slices"
	"testing"
)

func TestPromptHistory(t *testing.T) {
	tests := []struct {
		name     string
		add      []string
		n        int
		validate func(t *testing.T, got []string)
	}{
		{
			name: "oldest first",
			add:  []string{"one", "two", "three"},
			n:    10,
			validate: func(t *testing.T, got []string) {
				if !slices.Equal(got, []string{"one", "two", "three"}) {
					t.Errorf("got %v", got)
				}
			},
		},
		{
			name: "limit keeps the newest",
			add:  []string{"one", "two", "three"},
			n:    2,
			validate: func(t *testing.T, got []string) {
				if !slices.Equal(got, []string{"two", "three"}) {
					t.Errorf("got %v", got)
				}
			},
		},
		{
			name: "blank and repeated prompts skipped",
			add:  []string{"  ", "same", "same", "other", "same"},
			n:    10,
			validate: func(t *testing.T, got []string) {
				if !slices.Equal(got, []string{"same", "other", "same"}) {
					t.Errorf("got %v", got)
				}
			},
		},
		{
			name: "zero",
			add:  []string{"one"},
			n:    0,
			validate: func(t *testing.T, got []string) {
				if got != nil {
					t.Errorf("got %v", got)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := NewPromptHistory(t.TempDir())
			if err != nil {
				t.Fatal(err)
			}
			defer h.Close()

			for _, p := range tt.add {
				if err := h.Add(p, "/work"); err != nil {
					t.Fatal(err)
				}
			}
			got, err := h.Recent(tt.n)
			if err != nil {
				t.Fatal(err)
			}
			tt.validate(t, got)
		})
	}
}

func TestPromptHistoryTrim(t *testing.T) {
	h, err := NewPromptHistory(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()

	for i := 0; i < maxHistoryEntries+5; i++ {
		if err := h.Add(fmt.Sprintf("prompt %d", i), ""); err != nil {
			t.Fatal(err)
		}
	}
	got, err := h.Recent(maxHistoryEntries + 100)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != maxHistoryEntries {
		t.Fatalf("kept %d entries", len(got))
	}
	if got[0] != "prompt 5" || got[len(got)-1] != fmt.Sprintf("prompt %d", maxHistoryEntries+4) {
		t.Errorf("wrong window: %q .. %q", got[0], got[len(got)-1])
	}
}
