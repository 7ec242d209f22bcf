package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeEnvFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDotEnv_SetsVariables(t *testing.T) {
	path := writeEnvFile(t, `
# local overrides
PORT=9090
export SUPABASE_URL=https://db.example.com
PROVIDER_MODEL="gpt-4o-mini"
EMAIL_NAME='FitCoach'
not a valid line
`)

	for _, key := range []string{"PORT", "SUPABASE_URL", "PROVIDER_MODEL", "EMAIL_NAME"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("load: %v", err)
	}

	want := map[string]string{
		"PORT":           "9090",
		"SUPABASE_URL":   "https://db.example.com",
		"PROVIDER_MODEL": "gpt-4o-mini",
		"EMAIL_NAME":     "FitCoach",
	}
	for key, expected := range want {
		if got := os.Getenv(key); got != expected {
			t.Errorf("%s: expected %q, got %q", key, expected, got)
		}
	}
}

func TestLoadDotEnv_EnvironmentWins(t *testing.T) {
	path := writeEnvFile(t, "PORT=9090\n")
	t.Setenv("PORT", "3000")

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := os.Getenv("PORT"); got != "3000" {
		t.Errorf("expected the environment to win, got %q", got)
	}
}

func TestLoadDotEnv_MissingFile(t *testing.T) {
	err := LoadDotEnv(filepath.Join(t.TempDir(), "nope.env"))
	if err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

func TestParseEnvLine(t *testing.T) {
	cases := []struct {
		line  string
		key   string
		value string
		ok    bool
	}{
		{"KEY=value", "KEY", "value", true},
		{"  KEY = value  ", "KEY", "value", true},
		{`KEY="quoted value"`, "KEY", "quoted value", true},
		{"export KEY=value", "KEY", "value", true},
		{"KEY=", "KEY", "", true},
		{"KEY=a=b", "KEY", "a=b", true},
		{"# comment", "", "", false},
		{"", "", "", false},
		{"no assignment here", "", "", false},
		{"=orphan", "", "", false},
	}

	for _, tc := range cases {
		key, value, ok := parseEnvLine(tc.line)
		if ok != tc.ok || key != tc.key || value != tc.value {
			t.Errorf("parseEnvLine(%q) = (%q, %q, %v), expected (%q, %q, %v)",
				tc.line, key, value, ok, tc.key, tc.value, tc.ok)
		}
	}
}
