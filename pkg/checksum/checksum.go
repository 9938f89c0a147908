// Package checksum parses, discovers, and verifies artifact checksums: the
// prefixed "sha256:<hex>" form vx records in install records and lock
// files, the sums-file formats release pages publish, and the CEL
// extraction hook manifests use when a vendor hides checksums inside a
// JSON or YAML document.
package checksum

import (
	"context"
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"hash"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/flanksource/commons/logger"
	"github.com/flanksource/gomplate/v3"
	depshttp "github.com/vx-dev/vx/pkg/httpclient"
	"github.com/vx-dev/vx/pkg/types"
)

// HashType names a supported digest algorithm.
type HashType string

const (
	HashTypeMD5    HashType = "md5"
	HashTypeSHA1   HashType = "sha1"
	HashTypeSHA256 HashType = "sha256"
	HashTypeSHA384 HashType = "sha384"
	HashTypeSHA512 HashType = "sha512"
)

// hexLengths maps a bare hex digest's length to its algorithm, used when a
// checksum arrives without a type prefix.
var hexLengths = map[int]HashType{
	32:  HashTypeMD5,
	40:  HashTypeSHA1,
	64:  HashTypeSHA256,
	96:  HashTypeSHA384,
	128: HashTypeSHA512,
}

// CreateHasher returns the hash.Hash for a HashType.
func CreateHasher(hashType HashType) (hash.Hash, error) {
	switch hashType {
	case HashTypeMD5:
		return md5.New(), nil
	case HashTypeSHA1:
		return sha1.New(), nil
	case HashTypeSHA256:
		return sha256.New(), nil
	case HashTypeSHA384:
		return sha512.New384(), nil
	case HashTypeSHA512:
		return sha512.New(), nil
	default:
		return nil, fmt.Errorf("unsupported hash type: %s", hashType)
	}
}

// isHex reports whether s is entirely hex digits.
func isHex(s string) bool {
	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') && (c < 'A' || c > 'F') {
			return false
		}
	}
	return len(s) > 0
}

// ParseChecksum splits an optionally prefixed checksum ("sha256:abc...")
// into its value and type, inferring the type from the digest length when
// no prefix is present.
func ParseChecksum(checksum string) (value string, hashType HashType) {
	checksum = strings.TrimSpace(checksum)
	if prefix, rest, ok := strings.Cut(checksum, ":"); ok {
		return rest, HashType(strings.ToLower(prefix))
	}
	if t, ok := hexLengths[len(checksum)]; ok && isHex(checksum) {
		return checksum, t
	}
	return checksum, ""
}

// ParseChecksumWithType is ParseChecksum for callers that require the type
// to be determinable.
func ParseChecksumWithType(checksum string) (value string, hashType HashType, err error) {
	value, hashType = ParseChecksum(checksum)
	if hashType == "" {
		return "", "", fmt.Errorf("cannot determine hash type of checksum %q", checksum)
	}
	if _, err := CreateHasher(hashType); err != nil {
		return "", "", err
	}
	return value, hashType, nil
}

// FormatChecksum renders the canonical prefixed form.
func FormatChecksum(value string, hashType HashType) string {
	return string(hashType) + ":" + value
}

// ParseChecksumFile extracts the digest for fileURL's artifact from a
// checksum file's contents. Three shapes are understood: the coreutils
// sums format ("<hex>  <filename>" per line, matched by basename), the BSD
// format ("SHA256 (<filename>) = <hex>") and a single bare digest (the
// "<asset>.sha256" convention).
func ParseChecksumFile(content, fileURL string) (value string, hashType HashType, err error) {
	target := path.Base(strings.Split(fileURL, "?")[0])

	var bare string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) == 1 {
			if t, ok := hexLengths[len(fields[0])]; ok && isHex(fields[0]) && bare == "" {
				bare = fields[0]
				hashType = t
			}
			continue
		}

		digest, name := fields[0], fields[len(fields)-1]
		// BSD-style "SHA256 (file) = <hex>" puts the digest last.
		if !isHex(digest) && isHex(name) {
			digest, name = name, fields[1]
			name = strings.Trim(name, "()")
		}
		t, ok := hexLengths[len(digest)]
		if !ok || !isHex(digest) {
			continue
		}
		if path.Base(strings.TrimPrefix(name, "*")) == target {
			return digest, t, nil
		}
	}

	if bare != "" {
		return bare, hashType, nil
	}
	return "", "", fmt.Errorf("no checksum for %s found in checksum file", target)
}

// EvaluateCELExpression runs a manifest's checksum_expr against the
// downloaded checksum documents. The expression sees each document under
// the name the manifest gave it plus `url` and `file` (the artifact's
// basename), and returns either a bare digest or a "type:digest" string.
func EvaluateCELExpression(checksumContents map[string]string, fileURL, expr string) (value string, hashType HashType, err error) {
	vars := map[string]interface{}{
		"url":  fileURL,
		"file": path.Base(strings.Split(fileURL, "?")[0]),
	}
	for name, content := range checksumContents {
		vars[name] = content
	}

	result, err := gomplate.RunTemplate(vars, gomplate.Template{Expression: expr})
	if err != nil {
		return "", "", fmt.Errorf("evaluating checksum_expr: %w", err)
	}

	result = strings.Trim(strings.TrimSpace(result), `"'`)
	if result == "" {
		return "", "", fmt.Errorf("checksum_expr %q produced no checksum", expr)
	}
	return ParseChecksumWithType(result)
}

// CalculateFileChecksum downloads url and returns its sha256 in prefixed
// form plus the byte count, the lock generator's fallback when no
// publisher-supplied checksum can be discovered.
func CalculateFileChecksum(ctx context.Context, rawURL string) (string, int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", 0, fmt.Errorf("building request for %s: %w", rawURL, err)
	}

	resp, err := depshttp.GetHttpClient().Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("downloading %s: %w", rawURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", 0, fmt.Errorf("downloading %s: HTTP %d", rawURL, resp.StatusCode)
	}

	hasher := sha256.New()
	size, err := io.Copy(hasher, resp.Body)
	if err != nil {
		return "", 0, fmt.Errorf("hashing %s: %w", rawURL, err)
	}
	return fmt.Sprintf("sha256:%x", hasher.Sum(nil)), size, nil
}

// Discovery locates publisher-supplied checksums for a resolved artifact
// by probing the conventional checksum-file locations next to it. Each
// candidate is data (a URL pattern), not code, so adding a convention is a
// one-line change.
type Discovery struct {
	// candidates are templated sibling names tried in order; {file} is the
	// artifact's basename.
	candidates []string
}

// NewDiscovery returns a Discovery preloaded with the common conventions:
// goreleaser's checksums.txt, the SHA256SUMS family, and per-asset
// "<file>.sha256" files.
func NewDiscovery() *Discovery {
	return &Discovery{
		candidates: []string{
			"checksums.txt",
			"SHA256SUMS",
			"sha256sums.txt",
			"{file}.sha256",
			"{file}.sha256sum",
		},
	}
}

// FindChecksums probes each candidate next to the resolution's download
// URL and returns asset-name to prefixed-checksum for the first that
// parses. An empty map and nil error means nothing was published.
func (d *Discovery) FindChecksums(ctx context.Context, resolution *types.Resolution) (map[string]string, error) {
	downloadURL := resolution.DownloadURL
	if downloadURL == "" {
		return nil, fmt.Errorf("resolution has no download URL")
	}

	parsed, err := url.Parse(downloadURL)
	if err != nil {
		return nil, fmt.Errorf("invalid download URL %s: %w", downloadURL, err)
	}
	file := path.Base(parsed.Path)
	dir := path.Dir(parsed.Path)

	assetName := file
	if resolution.GitHubAsset != nil && resolution.GitHubAsset.AssetName != "" {
		assetName = resolution.GitHubAsset.AssetName
	}

	for _, candidate := range d.candidates {
		name := strings.ReplaceAll(candidate, "{file}", file)
		probe := *parsed
		probe.Path = path.Join(dir, name)

		content, err := fetch(ctx, probe.String())
		if err != nil {
			continue
		}

		value, hashType, err := ParseChecksumFile(content, downloadURL)
		if err != nil {
			continue
		}
		logger.GetLogger().V(2).Infof("Found checksum for %s in %s", file, name)
		return map[string]string{assetName: FormatChecksum(value, hashType)}, nil
	}

	return map[string]string{}, nil
}

func fetch(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := depshttp.GetHttpClient().Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}
	return string(body), nil
}
