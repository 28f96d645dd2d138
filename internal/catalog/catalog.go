// Package catalog enumerates timestamped backup artifacts under the artifact
// root. Directory names are timestamp-formatted, so lexicographic order
// equals chronological order.
package catalog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/mareasperez/pg-backup-restore/internal/logger"
)

// ErrArtifact means no valid backup artifact exists for a requested source.
var ErrArtifact = errors.New("no valid backup artifacts found")

// Artifact is one backup outcome on disk: a dump file under a timestamped
// directory, plus an optional metadata record. An artifact without metadata
// is usable but unverified, never invalid.
type Artifact struct {
	Environment string
	Timestamp   string
	Dir         string
	DumpPath    string
	Compressed  bool
	HasMetadata bool
}

// MetadataPath returns where the sibling metadata record lives.
func (a Artifact) MetadataPath() string {
	return filepath.Join(a.Dir, MetadataFilename)
}

// LoadMetadata reads the artifact's metadata record, if present.
func (a Artifact) LoadMetadata() (Metadata, error) {
	var m Metadata
	if err := m.Load(a.MetadataPath()); err != nil {
		return Metadata{}, err
	}
	return m, nil
}

// Catalog reads and lays out the artifact root directory tree.
type Catalog struct {
	root string
	log  logger.Logger
}

// New returns a catalog rooted at the artifact directory.
func New(root string, log logger.Logger) *Catalog {
	return &Catalog{root: root, log: log}
}

// Root returns the artifact root directory.
func (c *Catalog) Root() string { return c.root }

// EnvironmentDir returns the per-environment artifact directory.
func (c *Catalog) EnvironmentDir(env string) string {
	return filepath.Join(c.root, env)
}

// DumpFilename returns the fixed dump file name inside an artifact directory.
func DumpFilename(env string, compressed bool) string {
	name := env + ".dump"
	if compressed {
		name += ".zst"
	}
	return name
}

// ConveniencePath is the fixed top-level path overwritten by every
// successful backup, for quick manual transfer.
func (c *Catalog) ConveniencePath(env string) string {
	return filepath.Join(c.root, env+"-latest.dump")
}

// NewArtifactDir creates the timestamped directory for a fresh backup.
// Timestamp granularity is coarser than expected call frequency, so a
// collision is not handled beyond the mkdir itself.
func (c *Catalog) NewArtifactDir(env, timestamp string) (string, error) {
	dir := filepath.Join(c.root, env, timestamp)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create artifact directory %q: %w", dir, err)
	}
	return dir, nil
}

// List returns the environment's artifacts newest first. Directories without
// a dump file are skipped; missing metadata only flags the artifact.
func (c *Catalog) List(env string) ([]Artifact, error) {
	dir := c.EnvironmentDir(env)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read artifact directory %q: %w", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))

	var artifacts []Artifact
	for _, name := range names {
		artifactDir := filepath.Join(dir, name)
		artifact := Artifact{
			Environment: env,
			Timestamp:   name,
			Dir:         artifactDir,
		}

		plain := filepath.Join(artifactDir, DumpFilename(env, false))
		compressed := filepath.Join(artifactDir, DumpFilename(env, true))
		switch {
		case fileExists(plain):
			artifact.DumpPath = plain
		case fileExists(compressed):
			artifact.DumpPath = compressed
			artifact.Compressed = true
		default:
			c.log.Warn("skipping artifact directory without dump file", "dir", artifactDir)
			continue
		}

		artifact.HasMetadata = fileExists(artifact.MetadataPath())
		artifacts = append(artifacts, artifact)
	}
	return artifacts, nil
}

// Latest resolves the most recent valid artifact for the environment.
func (c *Catalog) Latest(env string) (Artifact, error) {
	artifacts, err := c.List(env)
	if err != nil {
		return Artifact{}, err
	}
	if len(artifacts) == 0 {
		return Artifact{}, fmt.Errorf("%w for environment %q (looked under %s)",
			ErrArtifact, env, c.EnvironmentDir(env))
	}
	return artifacts[0], nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
