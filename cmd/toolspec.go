package cmd

import "strings"

// splitToolSpec splits a "tool@version" CLI argument into its parts.
// A bare "tool" yields an empty version, letting the dispatcher fall back
// to whatever it considers latest-installed.
func splitToolSpec(spec string) (tool, version string) {
	if idx := strings.Index(spec, "@"); idx != -1 {
		return spec[:idx], spec[idx+1:]
	}
	return spec, ""
}
