package platform

import "runtime"

func runtimeGOARCH() string {
	return runtime.GOARCH
}
