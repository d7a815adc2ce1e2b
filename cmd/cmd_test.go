package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"video-toolbox/infrastructure/config"
)

func TestRunCheckWithDependencies(t *testing.T) {
	tests := []struct {
		name    string
		checks  []Check
		wantErr bool
		wantOut []string
	}{
		{
			name: "all pass",
			checks: []Check{
				{Name: "media engine", Run: func(context.Context) error { return nil }},
				{Name: "database", Run: func(context.Context) error { return nil }},
			},
			wantOut: []string{"OK    media engine", "OK    database"},
		},
		{
			name: "one failure is reported and the rest still run",
			checks: []Check{
				{Name: "media engine", Run: func(context.Context) error { return errors.New("ffmpeg not found") }},
				{Name: "database", Run: func(context.Context) error { return nil }},
			},
			wantErr: true,
			wantOut: []string{"FAIL  media engine: ffmpeg not found", "OK    database"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			err := RunCheckWithDependencies(context.Background(), tt.checks, &out)

			if tt.wantErr {
				if !errors.Is(err, ErrChecksFailed) {
					t.Fatalf("expected ErrChecksFailed, got %v", err)
				}
			} else if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			for _, want := range tt.wantOut {
				if !strings.Contains(out.String(), want) {
					t.Errorf("output missing %q:\n%s", want, out.String())
				}
			}
		})
	}
}

func TestLinkBuilder(t *testing.T) {
	tests := []struct {
		name   string
		server config.ServerConfig
		want   string
	}{
		{
			name:   "public base url wins",
			server: config.ServerConfig{Address: ":8080", PublicBaseURL: "https://videos.example.com/"},
			want:   "https://videos.example.com/api/v1.0/video/shared/abc",
		},
		{
			name:   "bare port becomes localhost",
			server: config.ServerConfig{Address: ":8080"},
			want:   "http://localhost:8080/api/v1.0/video/shared/abc",
		},
		{
			name:   "host and port kept",
			server: config.ServerConfig{Address: "10.0.0.5:9000"},
			want:   "http://10.0.0.5:9000/api/v1.0/video/shared/abc",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := config.Default()
			c.Server = tt.server
			if got := LinkBuilder(c)("abc"); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRunMigrateWithDependencies_Memory(t *testing.T) {
	var out bytes.Buffer
	if err := RunMigrateWithDependencies(context.Background(), "memory", "", &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out.String(), "nothing to migrate") {
		t.Errorf("unexpected output: %s", out.String())
	}
}

func TestRunMigrateWithDependencies_SQLite(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "videos.db")

	var out bytes.Buffer
	if err := RunMigrateWithDependencies(context.Background(), "sqlite3", dsn, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// running twice is a no-op
	if err := RunMigrateWithDependencies(context.Background(), "sqlite3", dsn, &out); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
	if _, err := os.Stat(dsn); err != nil {
		t.Errorf("database file not created: %v", err)
	}
}

type mockMinter struct {
	userID string
	ttl    time.Duration
	err    error
}

func (m *mockMinter) Mint(userID string, ttl time.Duration) (string, error) {
	m.userID = userID
	m.ttl = ttl
	if m.err != nil {
		return "", m.err
	}
	return "signed-token", nil
}

func TestRunTokenWithDependencies(t *testing.T) {
	minter := &mockMinter{}
	var out bytes.Buffer

	if err := RunTokenWithDependencies(minter, "7", time.Hour, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.String() != "signed-token\n" {
		t.Errorf("expected the token alone on a line, got %q", out.String())
	}
	if minter.userID != "7" || minter.ttl != time.Hour {
		t.Errorf("minter called with %q %s", minter.userID, minter.ttl)
	}

	minter.err = errors.New("empty secret")
	if err := RunTokenWithDependencies(minter, "7", time.Hour, &out); err == nil {
		t.Error("expected minting error")
	}
}

func TestFindLatestVideo(t *testing.T) {
	dir := t.TempDir()
	write := func(name string, age time.Duration) {
		t.Helper()
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
		when := time.Now().Add(-age)
		if err := os.Chtimes(path, when, when); err != nil {
			t.Fatal(err)
		}
	}

	write("old.mp4", 2*time.Hour)
	write("new.mkv", time.Hour)
	write("notes.json", 0)

	got, err := findLatestVideo(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filepath.Base(got) != "new.mkv" {
		t.Errorf("expected new.mkv, got %s", got)
	}

	if _, err := findLatestVideo(t.TempDir()); err == nil {
		t.Error("expected error for a directory without videos")
	}
}
