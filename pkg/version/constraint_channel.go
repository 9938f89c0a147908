package version

import (
	"strings"
)

// ChannelConstraint selects the newest version published under a named
// release channel (e.g. "lts", "current"), as declared by a provider's
// version_source.channel field. It is only resolvable against
// a catalog of types.Version entries that carry a Channel, so Check always
// accepts, narrowing happens in SelectChannel against the full catalog.
type ChannelConstraint struct {
	Channel string
}

func (c *ChannelConstraint) Check(version string) bool { return true }

func (c *ChannelConstraint) String() string { return "channel:" + c.Channel }

// LtsConstraint is sugar for ChannelConstraint{Channel: "lts"}, the most
// common named channel across providers (Node.js, Go, Java).
type LtsConstraint struct{}

func (c *LtsConstraint) Check(version string) bool { return true }

func (c *LtsConstraint) String() string { return "lts" }

// parseNamedChannel recognizes "lts" and "channel:<name>" constraint
// strings before falling through to ParseConstraint's semver handling.
func parseNamedChannel(constraint string) (Constraint, bool) {
	lower := strings.ToLower(strings.TrimSpace(constraint))
	switch {
	case lower == "lts":
		return &LtsConstraint{}, true
	case strings.HasPrefix(lower, "channel:"):
		return &ChannelConstraint{Channel: strings.TrimPrefix(lower, "channel:")}, true
	default:
		return nil, false
	}
}
