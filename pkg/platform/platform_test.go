package platform

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   Platform
		want Platform
	}{
		{Platform{"macos", "x86_64"}, Platform{"darwin", "amd64"}},
		{Platform{"OSX", "arm64"}, Platform{"darwin", "arm64"}},
		{Platform{"win32", "x64"}, Platform{"windows", "amd64"}},
		{Platform{"linux", "aarch64"}, Platform{"linux", "arm64"}},
		{Platform{"linux", "i686"}, Platform{"linux", "386"}},
		{Platform{"linux", "armv7l"}, Platform{"linux", "arm"}},
	}

	for _, test := range tests {
		got := test.in.Normalize()
		if got != test.want {
			t.Errorf("Normalize(%+v) = %+v, expected %+v", test.in, got, test.want)
		}
	}
}

func TestParse(t *testing.T) {
	plat, err := Parse("linux-amd64")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plat.OS != "linux" || plat.Arch != "amd64" {
		t.Errorf("Parse(linux-amd64) = %+v", plat)
	}

	if _, err := Parse("linux"); err == nil {
		t.Error("expected error for malformed platform string")
	}
}

func TestString(t *testing.T) {
	plat := Platform{OS: "linux", Arch: "amd64"}
	if plat.String() != "linux-amd64" {
		t.Errorf("String() = %q, expected linux-amd64", plat.String())
	}
}

func TestCurrentRespectsOverrides(t *testing.T) {
	SetGlobalOverrides("freebsd", "arm64")
	defer SetGlobalOverrides("", "")

	plat := Current()
	if plat.OS != "freebsd" || plat.Arch != "arm64" {
		t.Errorf("Current() = %+v, expected freebsd-arm64", plat)
	}
}

func TestMatches(t *testing.T) {
	tests := []struct {
		name      string
		plat      Platform
		supported Platform
		want      bool
	}{
		{"exact match", Platform{"linux", "amd64"}, Platform{"linux", "amd64"}, true},
		{"os mismatch", Platform{"linux", "amd64"}, Platform{"darwin", "amd64"}, false},
		{"arch-agnostic entry", Platform{"linux", "arm64"}, Platform{"linux", ""}, true},
		{"os-agnostic entry", Platform{"linux", "amd64"}, Platform{"", "amd64"}, true},
		{"wildcard entry", Platform{"windows", "386"}, Platform{}, true},
	}

	for _, test := range tests {
		if got := test.plat.Matches(test.supported); got != test.want {
			t.Errorf("%s: Matches(%+v, %+v) = %v, expected %v", test.name, test.plat, test.supported, got, test.want)
		}
	}
}

func TestBinaryExtension(t *testing.T) {
	if (Platform{OS: "windows"}).BinaryExtension() != ".exe" {
		t.Error("expected .exe on windows")
	}
	if (Platform{OS: "linux"}).BinaryExtension() != "" {
		t.Error("expected empty extension on linux")
	}
}

func TestAddExtension(t *testing.T) {
	win := Platform{OS: "windows"}
	if got := win.AddExtension("tool"); got != "tool.exe" {
		t.Errorf("AddExtension = %q", got)
	}
	if got := win.AddExtension("tool.exe"); got != "tool.exe" {
		t.Errorf("AddExtension should not double-append: %q", got)
	}
}
