package cli

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/spf13/viper"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"inbox/claim 01.pdf", "claim-01"},
		{"https://example.com/claims/42.txt", "42"},
		{"https://example.com/", "example"},
		{"notes", "notes"},
		{"", "document"},
		{strings.Repeat("a", 150) + ".txt", strings.Repeat("a", 100)},
	}

	for _, tt := range tests {
		if got := sanitizeFilename(tt.in); got != tt.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCollectSources_Directory(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.txt", "a.PDF", "c.html", "skip.docx"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "nested.txt"), 0o755); err != nil {
		t.Fatal(err)
	}

	got, err := collectSources(dir)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	want := []string{
		filepath.Join(dir, "a.PDF"),
		filepath.Join(dir, "b.txt"),
		filepath.Join(dir, "c.html"),
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestCollectSources_ListFile(t *testing.T) {
	list := filepath.Join(t.TempDir(), "sources.txt")
	content := "# inbox\nclaims/a.pdf\n\nhttps://example.com/b.txt\nclaims/a.pdf\n"
	if err := os.WriteFile(list, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := collectSources(list)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	want := []string{"claims/a.pdf", "https://example.com/b.txt"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestCollectSources_EmptyDirectory(t *testing.T) {
	if _, err := collectSources(t.TempDir()); err == nil {
		t.Error("Expected error for a directory without documents")
	}
}

func TestWriteDefaultConfig_RefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fnol", "config.yaml")

	if err := writeDefaultConfig(path); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "fast_track_threshold: 25000") {
		t.Errorf("Expected default threshold in config file, got:\n%s", data)
	}

	if err := writeDefaultConfig(path); err == nil {
		t.Error("Expected error when the config file already exists")
	}
}

func TestLoadConfig_Hierarchy(t *testing.T) {
	t.Cleanup(viper.Reset)
	origCfgFile := cfgFile
	t.Cleanup(func() { cfgFile = origCfgFile })

	path := filepath.Join(t.TempDir(), "config.yaml")
	yamlConfig := "server:\n  port: 9000\nrouting:\n  fast_track_threshold: 10000\n"
	if err := os.WriteFile(path, []byte(yamlConfig), 0o644); err != nil {
		t.Fatal(err)
	}
	cfgFile = path

	// Environment beats the config file
	t.Setenv("FNOL_SERVER_PORT", "9100")

	viper.Reset()
	initConfig()

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if cfg.Server.Port != 9100 {
		t.Errorf("Expected env port 9100, got %d", cfg.Server.Port)
	}
	if cfg.Routing.FastTrackThreshold != 10000 {
		t.Errorf("Expected file threshold 10000, got %v", cfg.Routing.FastTrackThreshold)
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Expected default host, got %q", cfg.Server.Host)
	}
	if cfg.Cache.TTL.Minutes() != 10 {
		t.Errorf("Expected default cache TTL of 10m, got %v", cfg.Cache.TTL)
	}
}

func TestLoadConfig_RejectsInvalid(t *testing.T) {
	t.Cleanup(viper.Reset)
	origCfgFile := cfgFile
	t.Cleanup(func() { cfgFile = origCfgFile })
	cfgFile = filepath.Join(t.TempDir(), "missing.yaml")

	t.Setenv("FNOL_ROUTING_FAST_TRACK_THRESHOLD", "-5")

	viper.Reset()
	initConfig()

	if _, err := loadConfig(); err == nil {
		t.Error("Expected negative threshold to be rejected")
	}
}
