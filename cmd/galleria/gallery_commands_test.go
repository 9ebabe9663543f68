package main

import (
	"encoding/json"
	"testing"
)

func TestGalleryAddListShowRemove(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{
		"gallery", "add",
		"--id", "g1",
		"--cron", "0 * * * *",
		"--search", `{"keyword":"lens"}`,
	}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("gallery add: %v", err)
	}
	requireContains(t, out, "Gallery g1 registered")

	out, _, err = runCLI(t, []string{"gallery", "list"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("gallery list: %v", err)
	}
	requireContains(t, out, "g1")
	requireContains(t, out, "initialization")

	out, _, err = runCLI(t, []string{"gallery", "show", "g1"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("gallery show: %v", err)
	}
	requireContains(t, out, `{"keyword":"lens"}`)

	out, _, err = runCLI(t, []string{"gallery", "show", "g1", "--json"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("gallery show --json: %v", err)
	}
	var view map[string]any
	if err := json.Unmarshal([]byte(out), &view); err != nil {
		t.Fatalf("decode show output: %v", err)
	}
	if view["id"] != "g1" || view["stage"] != "initialization" {
		t.Fatalf("unexpected view: %v", view)
	}

	out, _, err = runCLI(t, []string{"gallery", "remove", "g1"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("gallery remove: %v", err)
	}
	requireContains(t, out, "Gallery g1 removed")

	if _, _, err := runCLI(t, []string{"gallery", "show", "g1"}, env.socketPath, env.configPath); err == nil {
		t.Fatal("expected show after removal to fail")
	}
}

func TestGalleryUpdateCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	if _, _, err := runCLI(t, []string{
		"gallery", "add", "--id", "g1", "--cron", "@hourly",
	}, env.socketPath, env.configPath); err != nil {
		t.Fatalf("gallery add: %v", err)
	}

	out, _, err := runCLI(t, []string{
		"gallery", "update", "g1", "--cron", "@daily",
	}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("gallery update: %v", err)
	}
	requireContains(t, out, "Gallery g1 updated (cron @daily)")
}

func TestGalleryAddRejectsInvalidCriteria(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{
		"gallery", "add", "--cron", "@hourly", "--search", "{not json",
	}, env.socketPath, env.configPath)
	if err == nil {
		t.Fatal("expected invalid criteria to be rejected")
	}
	requireContains(t, err.Error(), "not valid JSON")
}
