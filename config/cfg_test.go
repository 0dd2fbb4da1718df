package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rupor-github/gencfg"

	"premail/common"
)

func TestLoadConfiguration_NoFile(t *testing.T) {
	cfg, err := LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() with empty path error = %v", err)
	}

	if cfg == nil {
		t.Fatal("LoadConfiguration() returned nil config")
	}

	if cfg.Version != 1 {
		t.Errorf("Default config version = %d, want 1", cfg.Version)
	}
}

func TestLoadConfiguration_WithFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `version: 1
document:
  warn_level: risky
  line_length: 72
  link_query_string: "utm_source=newsletter"
  base_url: "https://example.com/mail/"
  mail_context: true
  local_asset_root: "assets/./public"
fetch:
  timeout: 15s
  user_agent: "test-agent"
  authorization: "Bearer abc"
logging:
  console:
    level: normal
  file:
    level: debug
    destination: /tmp/test.log
    mode: append
reporting:
  destination: /tmp/test-report.zip
`

	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := LoadConfiguration(configPath)
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}

	if cfg.Document.WarnLevel != common.WarnLevelRisky {
		t.Errorf("WarnLevel = %v, want risky", cfg.Document.WarnLevel)
	}
	if cfg.Document.LineLength != 72 {
		t.Errorf("LineLength = %d, want 72", cfg.Document.LineLength)
	}
	if cfg.Document.LinkQueryString != "utm_source=newsletter" {
		t.Errorf("LinkQueryString = %q", cfg.Document.LinkQueryString)
	}
	if !cfg.Document.MailContext {
		t.Error("Expected MailContext to be true")
	}
	if cfg.Document.LocalAssetRoot != filepath.Clean("assets/public") {
		t.Errorf("LocalAssetRoot = %q, want cleaned path", cfg.Document.LocalAssetRoot)
	}
	if cfg.Fetch.Timeout != 15*time.Second {
		t.Errorf("Timeout = %v, want 15s", cfg.Fetch.Timeout)
	}
	if cfg.Fetch.Authorization != "Bearer abc" {
		t.Errorf("Authorization was not loaded")
	}
	// not overwritten by file, comes from template
	if cfg.Fetch.MaxImportDepth != 4 {
		t.Errorf("MaxImportDepth = %d, want default 4", cfg.Fetch.MaxImportDepth)
	}
	if !cfg.Document.PlainText {
		t.Error("Expected PlainText default to survive")
	}
}

func TestLoadConfiguration_NonExistentFile(t *testing.T) {
	_, err := LoadConfiguration("/nonexistent/config.yaml")
	if err == nil {
		t.Error("Expected error for nonexistent file")
	}
}

func TestLoadConfiguration_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	invalidYAML := `version: 1
document:
  line_length: 65
  invalid indent
`

	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	_, err := LoadConfiguration(configPath)
	if err == nil {
		t.Error("Expected error for invalid YAML")
	}
}

func TestLoadConfiguration_UnknownFields(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "unknown.yaml")

	content := `version: 1
document:
  inline_everything: true
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	_, err := LoadConfiguration(configPath)
	if err == nil {
		t.Error("Expected error for unknown fields")
	}
}

func TestLoadConfiguration_ValidationError(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"version", "version: 2\n"},
		{"line length", "version: 1\ndocument:\n  line_length: 3\n"},
		{"warn level", "version: 1\ndocument:\n  warn_level: loud\n"},
		{"base url", "version: 1\ndocument:\n  base_url: \"not a url\"\n"},
		{"import depth", "version: 1\nfetch:\n  max_import_depth: 100\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), "invalid_values.yaml")
			if err := os.WriteFile(configPath, []byte(tt.content), 0644); err != nil {
				t.Fatalf("Failed to write config file: %v", err)
			}
			if _, err := LoadConfiguration(configPath); err == nil {
				t.Error("Expected validation error")
			}
		})
	}
}

func TestLoadConfiguration_WithOptions(t *testing.T) {
	option := func(opts *gencfg.ProcessingOptions) {
		// Options are opaque, just test that we can pass them
	}

	cfg, err := LoadConfiguration("", option)
	if err != nil {
		t.Fatalf("LoadConfiguration() with options error = %v", err)
	}

	if cfg == nil {
		t.Fatal("LoadConfiguration() returned nil config")
	}
}

func TestPrepare(t *testing.T) {
	data, err := Prepare()
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}

	if len(data) == 0 {
		t.Error("Prepare() returned empty data")
	}

	// Verify it's valid YAML by trying to unmarshal
	cfg := &Config{}
	_, err = unmarshalConfig(data, cfg, true)
	if err != nil {
		t.Errorf("Prepared config is not valid: %v", err)
	}
	if strings.Contains(cfg.Fetch.UserAgent, "{{") {
		t.Errorf("user agent template was not expanded: %q", cfg.Fetch.UserAgent)
	}
}

func TestConfig_DefaultValues(t *testing.T) {
	cfg, err := LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}

	if cfg.Document.WarnLevel != common.WarnLevelSafe {
		t.Errorf("WarnLevel = %v, want safe", cfg.Document.WarnLevel)
	}
	if cfg.Document.LineLength != 65 {
		t.Errorf("LineLength = %d, want 65", cfg.Document.LineLength)
	}
	if cfg.Document.MailContext {
		t.Error("MailContext must be off by default")
	}
	if cfg.Fetch.Timeout != 0 {
		t.Errorf("Timeout = %v, want none", cfg.Fetch.Timeout)
	}
	if cfg.Logging.ConsoleLogger.Level != "normal" {
		t.Errorf("console level = %q, want normal", cfg.Logging.ConsoleLogger.Level)
	}
}

func TestDump(t *testing.T) {
	cfg, err := LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	cfg.Document.OutputNameTemplate = "{{ .SourceFile }}-mail"
	cfg.Fetch.Authorization = "Bearer top-secret"

	data, err := Dump(cfg)
	if err != nil {
		t.Fatalf("Dump() error = %v", err)
	}
	if strings.Contains(string(data), "top-secret") {
		t.Error("Dump() leaked authorization value")
	}

	// Verify we can load it back
	cfg2 := &Config{}
	_, err = unmarshalConfig(data, cfg2, false)
	if err != nil {
		t.Fatalf("Dumped config cannot be loaded: %v", err)
	}

	if cfg2.Version != cfg.Version {
		t.Errorf("Version mismatch after dump/load: got %d, want %d", cfg2.Version, cfg.Version)
	}
	if cfg2.Document.WarnLevel != cfg.Document.WarnLevel {
		t.Errorf("WarnLevel mismatch after dump/load: got %v, want %v", cfg2.Document.WarnLevel, cfg.Document.WarnLevel)
	}
	if cfg2.Document.OutputNameTemplate != cfg.Document.OutputNameTemplate {
		t.Errorf("OutputNameTemplate = %q", cfg2.Document.OutputNameTemplate)
	}
}

func TestUnmarshalConfig(t *testing.T) {
	t.Run("valid config without processing", func(t *testing.T) {
		data := []byte(`version: 1`)
		cfg := &Config{}

		result, err := unmarshalConfig(data, cfg, false)
		if err != nil {
			t.Errorf("unmarshalConfig() error = %v", err)
		}

		if result == nil {
			t.Fatal("unmarshalConfig() returned nil")
		}

		if result.Version != 1 {
			t.Errorf("Version = %d, want 1", result.Version)
		}
	})

	t.Run("invalid yaml", func(t *testing.T) {
		data := []byte(`invalid: [yaml`)
		cfg := &Config{}

		_, err := unmarshalConfig(data, cfg, false)
		if err == nil {
			t.Error("Expected error for invalid YAML")
		}
	})
}

func TestLoadConfiguration_OutputNameTemplateNotExpanded(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	content := "version: 1\ndocument:\n  output_name_template: \"{{ .SourceFile }}-{{ .Kind }}\"\n"
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	cfg, err := LoadConfiguration(configPath)
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	if cfg.Document.OutputNameTemplate != "{{ .SourceFile }}-{{ .Kind }}" {
		t.Errorf("OutputNameTemplate = %q, must be kept verbatim", cfg.Document.OutputNameTemplate)
	}
}
