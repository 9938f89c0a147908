package manager

import (
	"context"
	"errors"
	"testing"

	"github.com/vx-dev/vx/mock"
	"github.com/vx-dev/vx/pkg/platform"
	"github.com/vx-dev/vx/pkg/types"
)

func TestRegistryRegisterAndGet(t *testing.T) {
	reg := NewRegistry()
	reg.Register(mock.NewMockPackageManager("fake").WithVersions("1.0.0", "2.0.0"))

	mgr, ok := reg.Get("fake")
	if !ok {
		t.Fatal("expected registered manager to be found")
	}
	if mgr.Name() != "fake" {
		t.Errorf("Name() = %q, expected %q", mgr.Name(), "fake")
	}

	versions, err := mgr.DiscoverVersions(context.Background(), types.Package{Name: "tool"}, platform.Platform{}, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(versions) != 2 {
		t.Errorf("expected 2 versions, got %d", len(versions))
	}
}

func TestRegistryGetForPackageUnknown(t *testing.T) {
	reg := NewRegistry()

	_, err := reg.GetForPackage(types.Package{Name: "tool", Manager: "nope"})
	var notFound *ErrManagerNotFound
	if !errors.As(err, &notFound) {
		t.Fatalf("expected ErrManagerNotFound, got %v", err)
	}
}

func TestRegistryList(t *testing.T) {
	reg := NewRegistry()
	reg.Register(mock.NewMockPackageManager("a"))
	reg.Register(mock.NewMockPackageManager("b"))

	if got := len(reg.List()); got != 2 {
		t.Errorf("List() returned %d names, expected 2", got)
	}
}
