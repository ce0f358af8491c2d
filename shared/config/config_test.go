package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Mode != "production" {
		t.Errorf("Mode = %q, want %q", cfg.Mode, "production")
	}
	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.Source.Kind != SourceEmbed {
		t.Errorf("Source.Kind = %q, want %q", cfg.Source.Kind, SourceEmbed)
	}
	if cfg.Source.Policy != "fail-fast" {
		t.Errorf("Source.Policy = %q, want fail-fast", cfg.Source.Policy)
	}
	if cfg.Cache.Enabled {
		t.Error("Cache.Enabled = true, want false")
	}
	if len(cfg.CORS.AllowedOrigins) != 1 || cfg.CORS.AllowedOrigins[0] != "*" {
		t.Errorf("CORS.AllowedOrigins = %v", cfg.CORS.AllowedOrigins)
	}
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("BLOG_MODE", "development")
	t.Setenv("BLOG_PORT", "9090")
	t.Setenv("BLOG_SOURCE_KIND", "github")
	t.Setenv("BLOG_GITHUB_OWNER", "someone")
	t.Setenv("BLOG_GITHUB_REPO", "posts")
	t.Setenv("BLOG_CACHE_ENABLED", "true")

	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Mode != "development" {
		t.Errorf("Mode = %q, want development", cfg.Mode)
	}
	if cfg.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Port)
	}
	if cfg.Source.Kind != SourceGithub || cfg.Github.Owner != "someone" || cfg.Github.Repo != "posts" {
		t.Errorf("unexpected github config: %+v %+v", cfg.Source, cfg.Github)
	}
	if !cfg.Cache.Enabled {
		t.Error("Cache.Enabled = false, want true")
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	content := []byte(`
mode: dev
source:
  kind: s3
  policy: skip-invalid
s3:
  bucket: my-posts
  prefix: blog/
`)
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), content, 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Mode != "dev" {
		t.Errorf("Mode = %q, want dev", cfg.Mode)
	}
	if cfg.Source.Kind != SourceS3 || cfg.S3.Bucket != "my-posts" || cfg.S3.Prefix != "blog/" {
		t.Errorf("unexpected s3 config: %+v %+v", cfg.Source, cfg.S3)
	}
	if cfg.Source.Policy != "skip-invalid" {
		t.Errorf("Source.Policy = %q, want skip-invalid", cfg.Source.Policy)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{
			name: "unknown source",
			env:  map[string]string{"BLOG_SOURCE_KIND": "ftp"},
		},
		{
			name: "github without repo",
			env:  map[string]string{"BLOG_SOURCE_KIND": "github", "BLOG_GITHUB_OWNER": "me"},
		},
		{
			name: "s3 without bucket",
			env:  map[string]string{"BLOG_SOURCE_KIND": "s3"},
		},
		{
			name: "bad policy",
			env:  map[string]string{"BLOG_SOURCE_POLICY": "ignore"},
		},
		{
			name: "bad port",
			env:  map[string]string{"BLOG_PORT": "70000"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(t.TempDir()); err == nil {
				t.Error("Load() should fail")
			}
		})
	}
}
