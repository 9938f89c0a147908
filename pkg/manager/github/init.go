package github

import (
	"github.com/vx-dev/vx/pkg/manager"
)

func init() {
	// The release manager shares the singleton API client.
	_ = GetClient()
	manager.Register(NewGitHubReleaseManager())
}
