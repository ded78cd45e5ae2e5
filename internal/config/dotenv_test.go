package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDotenv(t *testing.T) {
	content := `# Jarvis credentials
OPENAI_API_KEY=sk-test
OPENAI_ORG_ID=org-123

QUOTED="with spaces"
SINGLE='single quoted'
`
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	// Pre-set one var to verify it is not overridden.
	t.Setenv("OPENAI_ORG_ID", "org-existing")
	os.Unsetenv("OPENAI_API_KEY")
	os.Unsetenv("QUOTED")
	os.Unsetenv("SINGLE")
	t.Cleanup(func() {
		os.Unsetenv("OPENAI_API_KEY")
		os.Unsetenv("QUOTED")
		os.Unsetenv("SINGLE")
	})

	if err := LoadDotenv(path); err != nil {
		t.Fatalf("LoadDotenv: %v", err)
	}

	if got := os.Getenv("OPENAI_API_KEY"); got != "sk-test" {
		t.Errorf("OPENAI_API_KEY: got %q, want %q", got, "sk-test")
	}
	if got := os.Getenv("OPENAI_ORG_ID"); got != "org-existing" {
		t.Errorf("OPENAI_ORG_ID should not be overridden: got %q", got)
	}
	if got := os.Getenv("QUOTED"); got != "with spaces" {
		t.Errorf("QUOTED: got %q, want %q", got, "with spaces")
	}
	if got := os.Getenv("SINGLE"); got != "single quoted" {
		t.Errorf("SINGLE: got %q, want %q", got, "single quoted")
	}
}

func TestLoadDotenvMissingFile(t *testing.T) {
	if err := LoadDotenv(filepath.Join(t.TempDir(), "nope.env")); err != nil {
		t.Fatalf("missing file should be ignored, got: %v", err)
	}
}
