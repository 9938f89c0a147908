package version

import (
	"testing"

	"github.com/vx-dev/vx/pkg/types"
)

func TestParseNamedChannel(t *testing.T) {
	c, err := ParseConstraint("lts")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := c.(*LtsConstraint); !ok {
		t.Errorf("expected *LtsConstraint, got %T", c)
	}

	c, err = ParseConstraint("channel:current")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cc, ok := c.(*ChannelConstraint)
	if !ok || cc.Channel != "current" {
		t.Errorf("expected ChannelConstraint{current}, got %#v", c)
	}
}

func TestSelectChannel(t *testing.T) {
	catalog := []types.Version{
		{Version: "20.1.0", Channel: "current"},
		{Version: "18.19.0", Channel: "lts"},
		{Version: "18.18.0", Channel: "lts"},
	}

	v, err := SelectChannel(catalog, "lts")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Version != "18.19.0" {
		t.Errorf("expected newest lts 18.19.0, got %s", v.Version)
	}

	if _, err := SelectChannel(catalog, "nightly"); err == nil {
		t.Error("expected error for unknown channel")
	}
}

func TestChannelFor(t *testing.T) {
	if ch, ok := ChannelFor(&LtsConstraint{}); !ok || ch != "lts" {
		t.Errorf("ChannelFor(LtsConstraint) = %q, %v", ch, ok)
	}
	if ch, ok := ChannelFor(&ChannelConstraint{Channel: "edge"}); !ok || ch != "edge" {
		t.Errorf("ChannelFor(ChannelConstraint) = %q, %v", ch, ok)
	}
	if _, ok := ChannelFor(&AnyConstraint{}); ok {
		t.Error("expected AnyConstraint to not be a channel constraint")
	}
}
