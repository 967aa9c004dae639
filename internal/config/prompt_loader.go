package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"resumefit/internal/analysis"
)

// LoadedPrompts holds prompt content resolved from inline values and files.
// A file always wins over an inline value for the same slot.
type LoadedPrompts struct {
	System map[analysis.NarrativeKind]string
	User   map[analysis.NarrativeKind]string
}

// For returns the system and user prompt overrides for a narrative kind.
// Empty strings mean the built-in prompt should be used.
func (p LoadedPrompts) For(kind analysis.NarrativeKind) (system, user string) {
	return p.System[kind], p.User[kind]
}

// Count returns the number of non-empty overrides
func (p LoadedPrompts) Count() int {
	n := 0
	for _, m := range []map[analysis.NarrativeKind]string{p.System, p.User} {
		for _, v := range m {
			if v != "" {
				n++
			}
		}
	}
	return n
}

type promptSlot struct {
	kind   analysis.NarrativeKind
	inline string
	file   string
}

func (n NarrativePrompts) slots() []promptSlot {
	return []promptSlot{
		{analysis.KindOverallFeedback, n.OverallFeedback, n.OverallFeedbackFile},
		{analysis.KindImprovedVersion, n.ImprovedVersion, n.ImprovedVersionFile},
		{analysis.KindInsights, n.Insights, n.InsightsFile},
	}
}

// loadPrompts resolves every configured prompt into c.prompts
func (c *Config) loadPrompts() error {
	log.Println("[CONFIG] Starting custom prompt loading")

	system, err := resolvePrompts(c.AI.CustomPrompts.SystemPrompts, "system")
	if err != nil {
		return fmt.Errorf("failed to load system prompts: %w", err)
	}
	user, err := resolvePrompts(c.AI.CustomPrompts.UserPrompts, "user")
	if err != nil {
		return fmt.Errorf("failed to load user prompts: %w", err)
	}
	c.prompts = LoadedPrompts{System: system, User: user}

	if count := c.prompts.Count(); count == 0 {
		log.Println("[CONFIG] No custom prompts loaded - using built-in defaults")
	} else {
		log.Printf("[CONFIG] Total custom prompts loaded: %d", count)
	}
	return nil
}

func resolvePrompts(prompts NarrativePrompts, promptType string) (map[analysis.NarrativeKind]string, error) {
	out := make(map[analysis.NarrativeKind]string)
	for _, slot := range prompts.slots() {
		if slot.file != "" {
			content, err := loadPromptFromFile(slot.file, promptType, string(slot.kind))
			if err != nil {
				return nil, err
			}
			out[slot.kind] = content
			continue
		}
		if inline := strings.TrimSpace(slot.inline); inline != "" {
			out[slot.kind] = inline
		}
	}
	return out, nil
}

// loadPromptFromFile loads a prompt from a file with proper error handling and logging
func loadPromptFromFile(filePath, promptType, kind string) (string, error) {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve absolute path for %s %s prompt file '%s': %w", promptType, kind, filePath, err)
	}

	if _, err := os.Stat(absPath); os.IsNotExist(err) {
		return "", fmt.Errorf("%s %s prompt file not found: %s", promptType, kind, absPath)
	}

	content, err := os.ReadFile(absPath)
	if err != nil {
		return "", fmt.Errorf("failed to read %s %s prompt file '%s': %w", promptType, kind, absPath, err)
	}

	trimmed := strings.TrimSpace(string(content))
	if trimmed == "" {
		return "", fmt.Errorf("%s %s prompt file '%s' is empty", promptType, kind, absPath)
	}

	log.Printf("[CONFIG] Successfully loaded %s %s prompt from file: %s (%d characters)",
		promptType, kind, absPath, len(trimmed))

	return trimmed, nil
}

// validatePromptFiles checks that every configured prompt file exists before anything is loaded
func (c *Config) validatePromptFiles() error {
	var validationErrors []string

	check := func(prompts NarrativePrompts, promptType string) {
		for _, slot := range prompts.slots() {
			if slot.file == "" {
				continue
			}
			absPath, err := filepath.Abs(slot.file)
			if err != nil {
				validationErrors = append(validationErrors, fmt.Sprintf("invalid path for %s %s prompt: %s", promptType, slot.kind, slot.file))
				continue
			}
			if _, err := os.Stat(absPath); os.IsNotExist(err) {
				validationErrors = append(validationErrors, fmt.Sprintf("%s %s prompt file not found: %s", promptType, slot.kind, absPath))
			}
		}
	}

	check(c.AI.CustomPrompts.SystemPrompts, "system")
	check(c.AI.CustomPrompts.UserPrompts, "user")

	if len(validationErrors) > 0 {
		return fmt.Errorf("prompt file validation failed:\n%s", strings.Join(validationErrors, "\n"))
	}
	return nil
}
