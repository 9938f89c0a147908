package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/vx-dev/vx/pkg/platform"
)

// DefaultTmpGracePeriod is how long an orphaned tmp/<uuid> install
// directory is kept before Sweep removes it, resolving the "24h vs next
// start" ambiguity into a single configurable value.
const DefaultTmpGracePeriod = 24 * time.Hour

// SweepOrphanedTmp removes tmp/<uuid> directories left behind by an install
// that never reached its atomic commit: a crash, a kill
// -9, or a SIGINT mid-download. It is safe to call on every vx startup -
// anything younger than grace is left alone since it may belong to another
// vx process still running.
func SweepOrphanedTmp(paths platform.Paths, grace time.Duration) ([]string, error) {
	if grace <= 0 {
		grace = DefaultTmpGracePeriod
	}

	root := paths.TmpDir()
	entries, err := os.ReadDir(root)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading tmp dir %s: %w", root, err)
	}

	locksDir := paths.LocksDir()
	cutoff := time.Now().Add(-grace)

	var removed []string
	for _, e := range entries {
		path := filepath.Join(root, e.Name())
		if path == locksDir {
			continue // locks/ is managed by AcquireLock/Release, not a scratch install dir
		}

		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}

		if err := os.RemoveAll(path); err != nil {
			return removed, fmt.Errorf("removing orphaned tmp dir %s: %w", path, err)
		}
		removed = append(removed, path)
	}
	return removed, nil
}

// RepairResult reports what Repair found while re-scanning the store.
type RepairResult struct {
	// Reconstructed lists triples whose store directory existed without a
	// .record.json (crash between the commit rename and the record write,
	// and for which a minimal record was rebuilt.
	Reconstructed []string
	// Quarantined lists triples whose .record.json pointed at an
	// Executable that no longer exists, and triples with no .record.json
	// whose executable could not be guessed; their directory is renamed aside
	// rather than silently left broken for the dispatcher to trip over.
	Quarantined []string
}

// Repair re-scans store/<tool>/<version>/<platform>/ for every installed
// tool and fixes the two inconsistent states a crash can leave behind: a
// committed directory with no record, and a record whose executable_path
// no longer resolves. It never touches a directory
// that is consistent.
func Repair(s *Store) (RepairResult, error) {
	var result RepairResult

	root := s.Paths.StoreRoot()
	tools, err := os.ReadDir(root)
	if os.IsNotExist(err) {
		return result, nil
	}
	if err != nil {
		return result, fmt.Errorf("reading store root %s: %w", root, err)
	}

	for _, toolEntry := range tools {
		if !toolEntry.IsDir() || toolEntry.Name() == ".staging" {
			continue
		}
		tool := toolEntry.Name()

		versions, err := os.ReadDir(filepath.Join(root, tool))
		if err != nil {
			continue
		}
		for _, versionEntry := range versions {
			if !versionEntry.IsDir() {
				continue
			}
			version := versionEntry.Name()

			platforms, err := os.ReadDir(filepath.Join(root, tool, version))
			if err != nil {
				continue
			}
			for _, platEntry := range platforms {
				if !platEntry.IsDir() {
					continue
				}
				plat, err := platform.Parse(platEntry.Name())
				if err != nil {
					continue
				}

				dir := s.Paths.PlatformStoreDir(tool, version, plat)
				if err := repairOne(s, tool, version, plat, dir, &result); err != nil {
					return result, err
				}
			}
		}
	}
	return result, nil
}

func repairOne(s *Store, tool, version string, plat platform.Platform, dir string, result *RepairResult) error {
	triple := fmt.Sprintf("%s@%s/%s", tool, version, plat)

	rec, ok, err := s.Lookup(tool, version, plat)
	if err != nil {
		return fmt.Errorf("reading record for %s: %w", triple, err)
	}

	if !ok {
		// Directory committed, but the record write never landed: rebuild
		// a minimal record by re-deriving the executable from whatever is
		// on disk, same selection order `vx install` itself uses.
		exe, found := guessExecutable(dir, tool)
		if !found {
			result.Quarantined = append(result.Quarantined, triple)
			return quarantine(s, dir)
		}

		rebuilt := Record{
			Tool:        tool,
			Version:     version,
			Platform:    plat,
			Executable:  exe,
			InstalledAt: time.Now(),
		}
		data, err := json.MarshalIndent(rebuilt, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding reconstructed record for %s: %w", triple, err)
		}
		if err := os.WriteFile(s.Paths.RecordPath(tool, version, plat), data, 0o644); err != nil {
			return fmt.Errorf("rewriting reconstructed record for %s: %w", triple, err)
		}
		result.Reconstructed = append(result.Reconstructed, triple)
		return nil
	}

	if _, err := os.Stat(rec.Executable); err != nil {
		result.Quarantined = append(result.Quarantined, triple)
		return quarantine(s, dir)
	}
	return nil
}

// guessExecutable looks for the tool's expected binary name directly under
// dir or under a conventional bin/ subdirectory, mirroring the executable
// selection order the installer uses when it first commits.
func guessExecutable(dir, tool string) (string, bool) {
	for _, candidate := range []string{filepath.Join(dir, tool), filepath.Join(dir, "bin", tool)} {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true
		}
	}
	return "", false
}

// quarantine renames an inconsistent store directory aside so it stops
// satisfying Lookup while preserving its contents for inspection, rather
// than deleting evidence of whatever went wrong.
func quarantine(s *Store, dir string) error {
	quarantineDir := filepath.Join(s.Paths.StoreRoot(), ".quarantine")
	if err := os.MkdirAll(quarantineDir, 0o755); err != nil {
		return fmt.Errorf("creating quarantine dir: %w", err)
	}
	dest := filepath.Join(quarantineDir, filepath.Base(filepath.Dir(dir))+"-"+filepath.Base(dir)+"-"+fmt.Sprintf("%d", time.Now().UnixNano()))
	if err := os.Rename(dir, dest); err != nil {
		return fmt.Errorf("quarantining %s: %w", dir, err)
	}
	return nil
}
