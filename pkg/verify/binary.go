// Package verify inspects installed artifacts. Its one concern in the
// core is format sniffing: confirming a binary the store committed was
// actually built for the platform directory it sits in.
package verify

import (
	"debug/elf"
	"debug/macho"
	"debug/pe"
	"fmt"
	"os"
)

// BinaryInfo describes a native executable's format and target platform.
// Type is "elf", "macho", "pe", or "unknown" for anything the stdlib
// object-file parsers don't recognize (scripts, jars, wrappers).
type BinaryInfo struct {
	Type string
	OS   string
	Arch string
}

// DetectBinaryPlatform parses path's object-file header and reports what
// platform it targets. Non-native files are not an error: they come back
// with Type "unknown" so callers can skip them.
func DetectBinaryPlatform(path string) (*BinaryInfo, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	if f, err := elf.Open(path); err == nil {
		defer f.Close()
		return &BinaryInfo{Type: "elf", OS: "linux", Arch: elfArch(f.Machine)}, nil
	}
	if f, err := macho.Open(path); err == nil {
		defer f.Close()
		return &BinaryInfo{Type: "macho", OS: "darwin", Arch: machoArch(f.Cpu)}, nil
	}
	if f, err := pe.Open(path); err == nil {
		defer f.Close()
		return &BinaryInfo{Type: "pe", OS: "windows", Arch: peArch(f.Machine)}, nil
	}

	return &BinaryInfo{Type: "unknown"}, nil
}

func elfArch(machine elf.Machine) string {
	switch machine {
	case elf.EM_X86_64:
		return "amd64"
	case elf.EM_AARCH64:
		return "arm64"
	case elf.EM_386:
		return "386"
	case elf.EM_ARM:
		return "arm"
	default:
		return machine.String()
	}
}

func machoArch(cpu macho.Cpu) string {
	switch cpu {
	case macho.CpuAmd64:
		return "amd64"
	case macho.CpuArm64:
		return "arm64"
	default:
		return cpu.String()
	}
}

func peArch(machine uint16) string {
	switch machine {
	case pe.IMAGE_FILE_MACHINE_AMD64:
		return "amd64"
	case pe.IMAGE_FILE_MACHINE_ARM64:
		return "arm64"
	case pe.IMAGE_FILE_MACHINE_I386:
		return "386"
	default:
		return fmt.Sprintf("0x%x", machine)
	}
}
