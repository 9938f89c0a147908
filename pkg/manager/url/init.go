package url

import (
	"github.com/vx-dev/vx/pkg/manager"
)

func init() {
	manager.Register(NewURLManager())
	manager.Register(NewLatestOnlyManager())
}
