package version

import (
	"fmt"
	"strings"

	"github.com/flanksource/gomplate/v3"
	"github.com/vx-dev/vx/pkg/types"
)

// ApplyVersionExpr runs a manifest's version_expr over each discovered
// version. The expression sees tag, version, sha, published, and
// prerelease, and can either filter (return a boolean) or rewrite the tag
// (return a string), which is how manifests strip vendor prefixes like
// "go1.22.0" or "release-". Anything else passes the version through
// unchanged.
func ApplyVersionExpr(versions []types.Version, expr string) ([]types.Version, error) {
	if expr == "" {
		return versions, nil
	}

	filtered := make([]types.Version, 0, len(versions))
	for _, v := range versions {
		data := map[string]interface{}{
			"tag":        v.Tag,
			"version":    v.Version,
			"sha":        v.SHA,
			"published":  v.Published,
			"prerelease": v.Prerelease,
		}

		evaluated, err := gomplate.RunTemplate(data, gomplate.Template{Expression: expr})
		if err != nil {
			return nil, fmt.Errorf("failed to evaluate version_expr for version %s: %w", v.Version, err)
		}

		switch result := strings.TrimSpace(evaluated); result {
		case "true":
			filtered = append(filtered, v)
		case "false", "":
			// excluded
		default:
			// A string result rewrites the tag; the version string follows.
			v.Tag = result
			v.Version = Normalize(result)
			filtered = append(filtered, v)
		}
	}
	return filtered, nil
}
