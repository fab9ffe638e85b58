package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGuardOutput(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "forms_gen.go")

	overwrite, err := guardOutput(missing, false)
	if err != nil || overwrite {
		t.Errorf("A missing output file must pass, got overwrite=%v err=%v", overwrite, err)
	}

	existing := filepath.Join(dir, "existing.go")
	if err := os.WriteFile(existing, []byte("package admin\n"), 0644); err != nil {
		t.Fatalf("Failed to write fixture file: %v", err)
	}

	if _, err := guardOutput(existing, false); err == nil {
		t.Error("Expected an error for an existing file without force")
	}

	overwrite, err = guardOutput(existing, true)
	if err != nil {
		t.Fatalf("Force must allow the overwrite, got: %v", err)
	}
	if !overwrite {
		t.Error("Expected the overwrite to be reported so the command can warn")
	}
}

func TestResolveConnectionString_EnvIndirection(t *testing.T) {
	t.Setenv("OPENADMIN_GEN_TEST_URL", "postgresql://localhost/app")

	for _, arg := range []string{
		"env:OPENADMIN_GEN_TEST_URL",
		"${OPENADMIN_GEN_TEST_URL}",
		"$OPENADMIN_GEN_TEST_URL",
	} {
		got, err := resolveConnectionString([]string{arg})
		if err != nil {
			t.Fatalf("resolveConnectionString(%q) failed: %v", arg, err)
		}
		if got != "postgresql://localhost/app" {
			t.Errorf("resolveConnectionString(%q) = %q", arg, got)
		}
	}

	if _, err := resolveConnectionString([]string{"env:OPENADMIN_GEN_TEST_UNSET"}); err == nil {
		t.Error("Expected an error for an unset variable")
	}
	if _, err := resolveConnectionString([]string{"env:not a name"}); err == nil {
		t.Error("Expected an error for an invalid variable name")
	}
}
