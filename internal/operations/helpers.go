package operations

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mareasperez/pg-backup-restore/internal/catalog"
)

// copyFile duplicates src to dst, overwriting dst.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %q: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create %q: %w", dst, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("copy %q to %q: %w", src, dst, err)
	}
	return nil
}

// fileSHA256 computes the mandatory strong checksum.
func fileSHA256(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %q: %w", path, err)
	}
	defer file.Close()

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", fmt.Errorf("hash %q: %w", path, err)
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}

// legacyChecksum shells out to md5sum for the optional legacy checksum. A
// missing or failing md5sum degrades to "unavailable" rather than failing
// the backup.
func (op *Operator) legacyChecksum(ctx context.Context, path string) string {
	output, err := op.exec.Run(ctx, nil, "md5sum", path)
	if err != nil {
		op.log.Warn("legacy checksum unavailable", "path", path, "error", err.Error())
		return catalog.LegacyChecksumUnavailable
	}
	fields := strings.Fields(string(output))
	if len(fields) == 0 {
		return catalog.LegacyChecksumUnavailable
	}
	return fields[0]
}

// tailLines returns the last n non-empty lines of text, for operator triage
// of a failed child process.
func tailLines(text string, n int) string {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	var kept []string
	for _, line := range lines {
		if strings.TrimSpace(line) != "" {
			kept = append(kept, line)
		}
	}
	if len(kept) > n {
		kept = kept[len(kept)-n:]
	}
	return strings.Join(kept, "\n")
}

// describeArtifact renders one artifact for prompts and listings, including
// the degraded marker when metadata is missing.
func describeArtifact(a catalog.Artifact) string {
	desc := fmt.Sprintf("%s/%s (%s)", a.Environment, a.Timestamp, a.DumpPath)
	if !a.HasMetadata {
		return desc + " [no metadata - unverified]"
	}
	meta, err := a.LoadMetadata()
	if err != nil {
		return desc + " [metadata unreadable]"
	}
	return fmt.Sprintf("%s [size=%d sha256=%s md5=%s]", desc, meta.SizeBytes, shortHash(meta.SHA256), meta.MD5)
}

func shortHash(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	return hash
}
