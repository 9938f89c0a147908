// Package template renders the {{.version}}/{{.os}}/{{.arch}} placeholder
// templates manifests use for download URLs, asset patterns, and
// environment values, on top of gomplate.
package template

import (
	"fmt"

	"github.com/flanksource/gomplate/v3"
	depsversion "github.com/vx-dev/vx/pkg/version"
)

// RenderTemplate renders a Go-template string against data.
func RenderTemplate(templateStr string, data map[string]interface{}) (string, error) {
	result, err := gomplate.RunTemplate(data, gomplate.Template{Template: templateStr})
	if err != nil {
		return "", fmt.Errorf("template execution failed: %w", err)
	}
	return result, nil
}

// TemplateString renders a template against string-valued data.
func TemplateString(pattern string, data map[string]string) (string, error) {
	interfaceData := make(map[string]interface{}, len(data))
	for k, v := range data {
		interfaceData[k] = v
	}
	return RenderTemplate(pattern, interfaceData)
}

// urlData is the variable set every URL-ish template sees: the normalized
// version, the original tag, and the target platform.
func urlData(version, os, arch string) map[string]interface{} {
	return map[string]interface{}{
		"version": depsversion.Normalize(version),
		"tag":     version,
		"os":      os,
		"arch":    arch,
	}
}

// TemplateURL renders a download-URL template for a version and platform.
func TemplateURL(urlTemplate, version, os, arch string) (string, error) {
	return RenderTemplate(urlTemplate, urlData(version, os, arch))
}

// TemplateURLWithAsset additionally exposes the resolved asset name, used
// by checksum-file templates that embed it.
func TemplateURLWithAsset(urlTemplate, version, os, arch, asset string) (string, error) {
	data := urlData(version, os, arch)
	data["asset"] = asset
	return RenderTemplate(urlTemplate, data)
}
