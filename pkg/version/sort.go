package version

import (
	"sort"

	"github.com/Masterminds/semver/v3"
	"github.com/vx-dev/vx/pkg/types"
)

// SortVersions orders versions newest-first by semver precedence. Versions
// that don't parse as semver sort after every parseable one (falling back
// to a reverse string compare among themselves), and equal versions are
// broken by the later publish date so catalogs that re-tag a release keep
// a stable winner.
func SortVersions(versions []types.Version) {
	sort.SliceStable(versions, func(i, j int) bool {
		vi, errI := semver.NewVersion(Normalize(versions[i].Version))
		vj, errJ := semver.NewVersion(Normalize(versions[j].Version))

		switch {
		case errI != nil && errJ != nil:
			return versions[i].Version > versions[j].Version
		case errI != nil:
			return false
		case errJ != nil:
			return true
		}

		if c := vi.Compare(vj); c != 0 {
			return c > 0
		}
		return versions[i].Published.After(versions[j].Published)
	})
}

// FilterToValidSemver drops versions whose normalized string doesn't parse
// as semver, so constraint matching downstream never has to guard against
// malformed catalog entries (date-stamped tags, "latest" aliases, etc.).
func FilterToValidSemver(versions []types.Version) []types.Version {
	filtered := make([]types.Version, 0, len(versions))
	for _, v := range versions {
		if _, err := semver.NewVersion(Normalize(v.Version)); err == nil {
			filtered = append(filtered, v)
		}
	}
	return filtered
}
