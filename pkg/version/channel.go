package version

import (
	"fmt"

	"github.com/vx-dev/vx/pkg/types"
)

// SelectChannel resolves a ChannelConstraint/LtsConstraint against a full
// version catalog, returning the newest entry tagged with the requested
// channel. This is only consulted when a provider declares
// version_source.channel; callers
// that resolve against a provider with no declared channel should skip this
// and fall back to plain semver-max selection.
func SelectChannel(catalog []types.Version, channel string) (types.Version, error) {
	var matches []types.Version
	for _, v := range catalog {
		if v.Channel == channel {
			matches = append(matches, v)
		}
	}
	if len(matches) == 0 {
		return types.Version{}, fmt.Errorf("no versions found for channel %q", channel)
	}

	sorted := SortVersionStructs(matches)
	return sorted[0], nil
}

// ChannelFor returns the channel name a Constraint requests, and whether it
// is a channel-style constraint at all.
func ChannelFor(c Constraint) (string, bool) {
	switch t := c.(type) {
	case *LtsConstraint:
		return "lts", true
	case *ChannelConstraint:
		return t.Channel, true
	default:
		return "", false
	}
}
