package extract

import (
	"archive/tar"
	"archive/zip"
	"compress/bzip2"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/flanksource/clicky/task"
	"github.com/ulikunitz/xz"
	"github.com/vx-dev/vx/pkg/system"
)

// Options configures Extract.
type Options struct {
	FullExtract bool
	BinaryPath  string
}

// Option configures Extract.
type Option func(*Options)

// WithFullExtract tells Extract to unpack every entry in the archive
// rather than stopping once a single binary candidate is found, used by
// the install engine so post-extract Actions (FlattenDir, CreateShim, the
// CEL post-process pipeline) have the whole archive contents to work with.
func WithFullExtract() Option {
	return func(o *Options) { o.FullExtract = true }
}

// WithBinaryPath names the binary to return from the extracted archive
// when WithFullExtract is not set.
func WithBinaryPath(binaryPath string) Option {
	return func(o *Options) { o.BinaryPath = binaryPath }
}

// Extract unpacks archivePath into extractDir, supporting the formats the
// asset catalog actually ships (gzip/xz/bzip2-compressed tar, plain tar,
// zip/jar). With WithFullExtract it returns extractDir; otherwise it
// returns the single binary it found inside, matching ExtractArchive's
// older behavior for non-archive-mode callers.
func Extract(archivePath, extractDir string, t *task.Task, opts ...Option) (string, error) {
	var o Options
	for _, fn := range opts {
		fn(&o)
	}

	if err := os.MkdirAll(extractDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create extract directory: %w", err)
	}

	if t != nil {
		t.Debugf("Extract: unpacking %s into %s", archivePath, extractDir)
	}
	if err := extractAll(archivePath, extractDir); err != nil {
		return "", fmt.Errorf("failed to extract archive: %w", err)
	}

	if o.FullExtract {
		return extractDir, nil
	}
	return findBinaryInDir(extractDir, o.BinaryPath, t)
}

// FindBinaryInDir is the exported entry point the install engine uses once
// an archive has already been fully extracted via WithFullExtract.
func FindBinaryInDir(extractDir, binaryPath string, t *task.Task) (string, error) {
	return findBinaryInDir(extractDir, binaryPath, t)
}

func extractAll(archivePath, extractDir string) error {
	lower := strings.ToLower(archivePath)
	switch {
	case strings.HasSuffix(lower, ".tar.gz"), strings.HasSuffix(lower, ".tgz"):
		return untarWith(archivePath, extractDir, func(r io.Reader) (io.Reader, error) {
			return gzip.NewReader(r)
		})
	case strings.HasSuffix(lower, ".tar.xz"), strings.HasSuffix(lower, ".txz"):
		return untarWith(archivePath, extractDir, func(r io.Reader) (io.Reader, error) {
			return xz.NewReader(r)
		})
	case strings.HasSuffix(lower, ".tar.bz2"), strings.HasSuffix(lower, ".tbz2"):
		return untarWith(archivePath, extractDir, func(r io.Reader) (io.Reader, error) {
			return bzip2.NewReader(r), nil
		})
	case strings.HasSuffix(lower, ".tar"):
		return untarWith(archivePath, extractDir, func(r io.Reader) (io.Reader, error) {
			return r, nil
		})
	case strings.HasSuffix(lower, ".zip"), strings.HasSuffix(lower, ".jar"):
		return unzipAll(archivePath, extractDir)
	case strings.HasSuffix(lower, ".msi"), strings.HasSuffix(lower, ".pkg"):
		// Vendor installer formats expand through their platform tooling
		// into a plain tree, after which they're handled like any archive.
		return system.Extract(context.Background(), archivePath, extractDir)
	default:
		return fmt.Errorf("unsupported archive type: %s", archivePath)
	}
}

func untarWith(archivePath, dir string, wrap func(io.Reader) (io.Reader, error)) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return err
	}
	defer f.Close()

	r, err := wrap(f)
	if err != nil {
		return fmt.Errorf("decompressing %s: %w", archivePath, err)
	}

	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading tar entry in %s: %w", archivePath, err)
		}

		target, err := safeJoin(dir, hdr.Name)
		if err != nil {
			return err
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return err
			}
			out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, os.FileMode(hdr.Mode&0o777|0o200))
			if err != nil {
				return err
			}
			if _, err := io.Copy(out, tr); err != nil {
				out.Close()
				return fmt.Errorf("writing %s: %w", target, err)
			}
			out.Close()
		case tar.TypeSymlink:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return err
			}
			_ = os.Remove(target)
			if err := os.Symlink(hdr.Linkname, target); err != nil {
				return fmt.Errorf("creating symlink %s: %w", target, err)
			}
		}
	}
}

func unzipAll(archivePath, dir string) error {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("opening zip %s: %w", archivePath, err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		target, err := safeJoin(dir, f.Name)
		if err != nil {
			return err
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}

		rc, err := f.Open()
		if err != nil {
			return fmt.Errorf("reading zip entry %s: %w", f.Name, err)
		}
		out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, f.Mode()|0o200)
		if err != nil {
			rc.Close()
			return err
		}
		_, err = io.Copy(out, rc)
		rc.Close()
		out.Close()
		if err != nil {
			return fmt.Errorf("writing %s: %w", target, err)
		}
	}
	return nil
}

// safeJoin joins dir and name, rejecting entries that would escape dir via
// ".." (a zip/tar-slip guard; the asset catalog is third-party data).
func safeJoin(dir, name string) (string, error) {
	target := filepath.Join(dir, name)
	cleanDir := filepath.Clean(dir)
	if target != cleanDir && !strings.HasPrefix(target, cleanDir+string(os.PathSeparator)) {
		return "", fmt.Errorf("archive entry %q escapes extract directory", name)
	}
	return target, nil
}

// findBinaryInDir locates the binary inside an already-unpacked archive.
// binaryPath, when set, is tried verbatim and then flattened (basename only,
// to tolerate archives that nest the binary under a version-named
// top-level directory); otherwise every executable file under extractDir is
// a candidate, and a name match against binaryPath's basename breaks ties
// when more than one is found.
func findBinaryInDir(extractDir, binaryPath string, t *task.Task) (string, error) {
	if binaryPath != "" {
		fullPath := filepath.Join(extractDir, binaryPath)
		if fileExists(fullPath) {
			return fullPath, nil
		}

		flatPath := filepath.Join(extractDir, filepath.Base(binaryPath))
		if fileExists(flatPath) {
			return flatPath, nil
		}
	}

	var executables []string
	err := filepath.Walk(extractDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || info.Mode()&0111 == 0 {
			return nil
		}
		executables = append(executables, path)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to search for executables: %w", err)
	}

	if len(executables) == 0 {
		return "", fmt.Errorf("no executable files found in archive")
	}
	if len(executables) == 1 {
		return executables[0], nil
	}

	if binaryPath != "" {
		baseName := filepath.Base(binaryPath)
		for _, exe := range executables {
			if filepath.Base(exe) == baseName {
				return exe, nil
			}
		}
	}
	return executables[0], nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
