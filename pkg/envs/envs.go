package envs

import (
	"fmt"

	"github.com/vx-dev/vx/pkg/template"
)

// RenderEnvs renders environment variable values using template variables
func RenderEnvs(envs map[string]string, data map[string]interface{}) (map[string]string, error) {
	rendered := make(map[string]string)
	for key, valueTemplate := range envs {
		value, err := template.RenderTemplate(valueTemplate, data)
		if err != nil {
			return nil, fmt.Errorf("failed to render env var %s: %w", key, err)
		}
		rendered[key] = value
	}
	return rendered, nil
}

// PrintEnvs prints environment variables to stdout in KEY=value format
func PrintEnvs(envs map[string]string) {
	for key, value := range envs {
		fmt.Printf("%s=%s\n", key, value)
	}
}
