package template

import (
	"testing"
)

func TestTemplateURL(t *testing.T) {
	tests := []struct {
		name     string
		template string
		version  string
		os       string
		arch     string
		expected string
	}{
		{
			name:     "normalized version",
			template: "https://example.com/{{.version}}/tool-{{.os}}-{{.arch}}.tar.gz",
			version:  "v1.2.3",
			os:       "linux",
			arch:     "amd64",
			expected: "https://example.com/1.2.3/tool-linux-amd64.tar.gz",
		},
		{
			name:     "original tag preserved",
			template: "https://example.com/{{.tag}}/tool",
			version:  "v1.2.3",
			os:       "darwin",
			arch:     "arm64",
			expected: "https://example.com/v1.2.3/tool",
		},
		{
			name:     "no placeholders",
			template: "https://example.com/tool.zip",
			version:  "2.0.0",
			os:       "windows",
			arch:     "amd64",
			expected: "https://example.com/tool.zip",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := TemplateURL(tt.template, tt.version, tt.os, tt.arch)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result != tt.expected {
				t.Errorf("TemplateURL() = %q, expected %q", result, tt.expected)
			}
		})
	}
}

func TestTemplateURLWithAsset(t *testing.T) {
	result, err := TemplateURLWithAsset("{{.asset}}.sha256", "v1.0.0", "linux", "amd64", "tool-linux-amd64.tar.gz")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "tool-linux-amd64.tar.gz.sha256" {
		t.Errorf("unexpected result: %q", result)
	}
}

func TestTemplateString(t *testing.T) {
	result, err := TemplateString("{{.name}}-{{.version}}", map[string]string{"name": "jq", "version": "1.7.1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "jq-1.7.1" {
		t.Errorf("unexpected result: %q", result)
	}
}
