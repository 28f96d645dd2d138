package operations

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/mareasperez/pg-backup-restore/internal/catalog"
	"github.com/mareasperez/pg-backup-restore/internal/config"
	"github.com/mareasperez/pg-backup-restore/internal/database"
	"github.com/mareasperez/pg-backup-restore/internal/progress"
)

// Backup produces exactly one new artifact for the environment, or fails.
// The external dump process is supervised by polling the growing output
// file; ETA is computed against the independently-queried raw database size.
func (op *Operator) Backup(ctx context.Context, env config.Environment) (catalog.Artifact, error) {
	db := database.NewPostgres(env, op.exec, op.log)

	if err := db.Probe(ctx); err != nil {
		return catalog.Artifact{}, err
	}

	// Raw-size failure is non-fatal: the backup proceeds, ETA degrades.
	rawSize, err := db.RawSize(ctx)
	if err != nil {
		op.log.Warn("raw database size unknown; ETA will display as unavailable",
			"environment", env.Name,
			"error", err.Error(),
		)
		rawSize = 0
	}

	timestamp := time.Now().Format(op.settings.Backup.TimestampFormat)
	dir, err := op.catalog.NewArtifactDir(env.Name, timestamp)
	if err != nil {
		return catalog.Artifact{}, err
	}
	dumpPath := filepath.Join(dir, catalog.DumpFilename(env.Name, false))

	var diag bytes.Buffer
	proc, err := db.StartDump(ctx, dumpPath, &diag)
	if err != nil {
		return catalog.Artifact{}, err
	}

	op.log.Info("backup started",
		"environment", env.Name,
		"database", env.Database,
		"path", dumpPath,
		"raw_size", rawSize,
	)
	start := time.Now()

	done := make(chan error, 1)
	go func() { done <- proc.Wait() }()

	monitor := &progress.Monitor{
		Source:   &progress.FileSizeSource{Path: dumpPath, Total: rawSize},
		Interval: op.settings.Backup.PollInterval,
		Label:    "backup " + env.Name,
		Unit:     progress.UnitBytes,
		Out:      op.out,
		Log:      op.log,
	}
	if err := monitor.Watch(ctx, done); err != nil {
		tail := tailLines(diag.String(), 10)
		op.log.Error("backup failed",
			"environment", env.Name,
			"error", err.Error(),
			"diagnostics", tail,
		)
		return catalog.Artifact{}, fmt.Errorf("%w: pg_dump: %v: %s", database.ErrToolExecution, err, tail)
	}

	// Overwrite the convenience copy before optional compression so it stays
	// directly usable by pg_restore.
	if err := copyFile(dumpPath, op.catalog.ConveniencePath(env.Name)); err != nil {
		return catalog.Artifact{}, fmt.Errorf("update convenience copy: %w", err)
	}

	finalPath := dumpPath
	compressed := false
	if op.settings.Backup.Compress {
		finalPath, err = CompressZstd(dumpPath)
		if err != nil {
			return catalog.Artifact{}, fmt.Errorf("compress backup file: %w", err)
		}
		compressed = true
	}

	info, err := os.Stat(finalPath)
	if err != nil {
		return catalog.Artifact{}, fmt.Errorf("stat completed dump: %w", err)
	}
	sha, err := fileSHA256(finalPath)
	if err != nil {
		return catalog.Artifact{}, fmt.Errorf("checksum completed dump: %w", err)
	}

	meta := catalog.Metadata{
		CompletedAt: time.Now(),
		Environment: env.Name,
		Host:        env.Host,
		Database:    env.Database,
		DumpPath:    finalPath,
		SizeBytes:   info.Size(),
		SHA256:      sha,
		MD5:         op.legacyChecksum(ctx, finalPath),
		LogPath:     op.settings.Log.Path,
	}
	if err := meta.Write(dir); err != nil {
		return catalog.Artifact{}, err
	}

	op.log.Info("backup completed",
		"environment", env.Name,
		"database", env.Database,
		"path", finalPath,
		"size_bytes", info.Size(),
		"sha256", sha,
		"duration", time.Since(start).String(),
	)
	_, _ = color.New(color.FgGreen).Fprintf(op.out, "backup %s completed: %s\n", env.Name, finalPath)

	return catalog.Artifact{
		Environment: env.Name,
		Timestamp:   timestamp,
		Dir:         dir,
		DumpPath:    finalPath,
		Compressed:  compressed,
		HasMetadata: true,
	}, nil
}
