package action

// LayoutKind tags which install-layout variant a provider's install_layout
// function returned.
type LayoutKind string

const (
	LayoutSingleBinary LayoutKind = "single_binary"
	LayoutArchive      LayoutKind = "archive"
	LayoutDirectory    LayoutKind = "directory"
	LayoutSystem       LayoutKind = "system"   // msi/pkg installers, pkg/system
	LayoutExternal     LayoutKind = "external" // delegated to another toolchain (e.g. `go install`)
)

// LayoutDescriptor describes how a downloaded artifact becomes an installed
// tool. Only the fields relevant to Kind are populated.
type LayoutDescriptor struct {
	Kind LayoutKind `json:"__type"`

	// SingleBinary / Archive
	ExecutablePath string `json:"executable_path,omitempty"` // path within the extracted tree, may be a CEL/glob expression

	// Archive
	ArchiveFormat string `json:"archive_format,omitempty"` // "tar.gz", "tar.xz", "zip", "" = auto-detect from extension

	// Directory
	Symlinks []string `json:"symlinks,omitempty"` // glob patterns of paths to symlink into bin/

	// System
	InstallerKind string `json:"installer_kind,omitempty"` // "msi", "pkg"

	// External
	Method string            `json:"method,omitempty"` // e.g. "go" for `go install`
	Args   []string          `json:"args,omitempty"`
	Env    map[string]string `json:"env,omitempty"`
}
