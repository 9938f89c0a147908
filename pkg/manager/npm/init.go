package npm

import (
	"github.com/vx-dev/vx/pkg/manager"
)

func init() {
	manager.Register(NewNpmManager())
}
