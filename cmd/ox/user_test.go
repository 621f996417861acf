package main

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/blueox/schedule/internal/session"
)

func initDB(t *testing.T) string {
	t.Helper()
	cfg := writeConfig(t, "")
	if out, err := run(t, "", "db", "init", "--config", cfg); err != nil {
		t.Fatalf("db init: %v\n%s", err, out)
	}
	return cfg
}

func TestUserAdd_WithPasswordFlag(t *testing.T) {
	cfg := initDB(t)

	out, err := run(t, "", "user", "add", "Foreman@BlueOx.test", "--role", "editor", "--password", "correct-horse", "--config", cfg)
	if err != nil {
		t.Fatalf("user add: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Created user foreman@blueox.test") || !strings.Contains(out, "role editor") {
		t.Errorf("output = %s", out)
	}

	_, gormDB, _ := connectFromConfig(cfg)
	c := session.NewClient(gormDB, session.NewTokens("0123456789abcdef-cli", time.Hour), "")
	if _, err := c.SignIn(context.Background(), "foreman@blueox.test", "correct-horse"); err != nil {
		t.Errorf("SignIn with created user: %v", err)
	}
}

func TestUserAdd_PromptsForPassword(t *testing.T) {
	cfg := initDB(t)

	out, err := run(t, "typed-password\n", "user", "add", "clerk@blueox.test", "--config", cfg)
	if err != nil {
		t.Fatalf("user add: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Password: ") || !strings.Contains(out, "role viewer") {
		t.Errorf("output = %s", out)
	}
}

func TestUserAdd_Errors(t *testing.T) {
	cfg := initDB(t)
	run(t, "", "user", "add", "dup@blueox.test", "--password", "correct-horse", "--config", cfg)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"bad role", []string{"user", "add", "x@blueox.test", "--role", "owner", "--password", "correct-horse"}, "unknown role"},
		{"short password", []string{"user", "add", "x@blueox.test", "--password", "short"}, "at least 8"},
		{"duplicate", []string{"user", "add", "dup@blueox.test", "--password", "correct-horse"}, "already exists"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, "", append(tt.args, "--config", cfg)...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestUserRole(t *testing.T) {
	cfg := initDB(t)
	run(t, "", "user", "add", "crew@blueox.test", "--password", "correct-horse", "--config", cfg)

	out, err := run(t, "", "user", "role", "crew@blueox.test", "admin", "--config", cfg)
	if err != nil {
		t.Fatalf("user role: %v", err)
	}
	if !strings.Contains(out, "crew@blueox.test is now admin") {
		t.Errorf("output = %s", out)
	}

	if _, err := run(t, "", "user", "role", "ghost@blueox.test", "admin", "--config", cfg); err == nil || !strings.Contains(err.Error(), "unknown user") {
		t.Errorf("unknown user err = %v", err)
	}
	if _, err := run(t, "", "user", "role", "crew@blueox.test", "boss", "--config", cfg); err == nil || !strings.Contains(err.Error(), "invalid role") {
		t.Errorf("bad role err = %v", err)
	}
}
