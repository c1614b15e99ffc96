package notes

import (
	"context"
	"strings"
	"testing"
)

func TestPromptNamesTheFiveSections(t *testing.T) {
	for _, section := range []string{
		"# Lecture Topic",
		"## Executive Summary",
		"## Key Concepts",
		"## Detailed Notes",
		"## Action Items",
	} {
		if !strings.Contains(Prompt, section) {
			t.Errorf("prompt missing section %q", section)
		}
	}
}

func TestNewGeminiRequiresKey(t *testing.T) {
	_, err := NewGemini(context.Background(), "", DefaultModel, "")
	if err == nil {
		t.Fatal("NewGemini should fail without an API key")
	}
	if !strings.Contains(err.Error(), "LECTERN_GEMINI_API_KEY") {
		t.Errorf("error should tell the user how to set the key: %v", err)
	}
}
