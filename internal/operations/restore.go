package operations

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/mareasperez/pg-backup-restore/internal/catalog"
	"github.com/mareasperez/pg-backup-restore/internal/config"
	"github.com/mareasperez/pg-backup-restore/internal/database"
	"github.com/mareasperez/pg-backup-restore/internal/progress"
)

// ConfirmPolicy selects which safety-gate checks a restore performs.
type ConfirmPolicy int

const (
	// PolicyInteractive requires both the artifact yes/no affirmation and
	// the typed database-name confirmation.
	PolicyInteractive ConfirmPolicy = iota
	// PolicyUnattended skips both checks, so sync can run end to end
	// without a terminal. Callers wanting a stricter unattended mode pass
	// PolicyTypedOnly.
	PolicyUnattended
	// PolicyTypedOnly skips the artifact affirmation but still demands the
	// typed database-name confirmation.
	PolicyTypedOnly
)

// RestoreOptions parameterizes one restore invocation.
type RestoreOptions struct {
	// Source names the environment whose artifacts are restored. Empty
	// means the target's own artifacts.
	Source string
	// Latest selects the most recent artifact without listing alternatives.
	Latest bool
	// Policy picks the confirmation checks to run.
	Policy ConfirmPolicy
}

// Restore fully replaces data in the target environment from a source
// artifact. This system adds no transactional wrapper of its own: a failed
// restore leaves state only as good as pg_restore's partial-failure
// behavior.
func (op *Operator) Restore(ctx context.Context, target config.Environment, opts RestoreOptions) error {
	source := opts.Source
	if source == "" {
		source = target.Name
	}

	// The artifact must exist before any prompting happens.
	artifact, err := op.selectArtifact(source, opts)
	if err != nil {
		return err
	}

	db := database.NewPostgres(target, op.exec, op.log)
	if err := db.Probe(ctx); err != nil {
		return err
	}

	dumpPath := artifact.DumpPath
	if artifact.Compressed {
		dumpPath, err = DecompressZstd(artifact.DumpPath)
		if err != nil {
			return fmt.Errorf("decompress artifact: %w", err)
		}
		defer os.Remove(dumpPath)
	}

	// Listing failure means "total unknown", never fatal.
	total := 0
	if entries, err := db.ManifestEntries(ctx, dumpPath); err != nil {
		op.log.Warn("manifest listing failed; restore total unknown",
			"artifact", artifact.DumpPath,
			"error", err.Error(),
		)
	} else {
		total = entries
	}

	switch opts.Policy {
	case PolicyInteractive:
		if err := op.gate.ConfirmArtifact(describeArtifact(artifact)); err != nil {
			return err
		}
		if err := op.gate.ConfirmTarget(target.Database); err != nil {
			return err
		}
	case PolicyTypedOnly:
		if err := op.gate.ConfirmTarget(target.Database); err != nil {
			return err
		}
	case PolicyUnattended:
		op.log.Info("unattended restore; confirmation skipped",
			"target", target.Name,
			"artifact", artifact.DumpPath,
		)
	}

	scratch, err := os.CreateTemp("", "pg-restore-*.log")
	if err != nil {
		return fmt.Errorf("create diagnostic scratch file: %w", err)
	}
	scratchPath := scratch.Name()
	defer os.Remove(scratchPath)

	restoreCtx, cancel := context.WithTimeout(ctx, op.settings.Restore.Timeout)
	defer cancel()

	proc, err := db.StartRestore(restoreCtx, dumpPath, scratch)
	if err != nil {
		scratch.Close()
		return err
	}

	op.log.Info("restore started",
		"target", target.Name,
		"database", target.Database,
		"source", source,
		"artifact", artifact.DumpPath,
		"total_units", total,
	)
	start := time.Now()

	done := make(chan error, 1)
	go func() {
		waitErr := proc.Wait()
		scratch.Close()
		done <- waitErr
	}()

	monitor := &progress.Monitor{
		Source: &progress.KeywordSource{
			Path:     scratchPath,
			Total:    int64(total),
			Keywords: progress.RestoreKeywords,
		},
		Interval: op.settings.Restore.PollInterval,
		Warmup:   progress.DefaultWarmup,
		Label:    "restore " + target.Name,
		Unit:     progress.UnitObjects,
		Out:      op.out,
		Log:      op.log,
	}
	waitErr := monitor.Watch(restoreCtx, done)

	if restoreCtx.Err() == context.DeadlineExceeded {
		_ = proc.Kill()
		if errors.Is(waitErr, context.DeadlineExceeded) {
			<-done // reap the killed child
		}
		op.log.Error("restore timed out; child terminated",
			"target", target.Name,
			"ceiling", op.settings.Restore.Timeout.String(),
		)
		return fmt.Errorf("%w: restore exceeded %s", database.ErrTimeout, op.settings.Restore.Timeout)
	}

	if waitErr != nil {
		tail := op.scratchTail(scratchPath)
		op.log.Error("restore failed",
			"target", target.Name,
			"error", waitErr.Error(),
			"diagnostics", tail,
		)
		return fmt.Errorf("%w: pg_restore: %v: %s", database.ErrToolExecution, waitErr, tail)
	}

	op.log.Info("restore completed",
		"target", target.Name,
		"database", target.Database,
		"artifact", artifact.DumpPath,
		"duration", time.Since(start).String(),
	)
	_, _ = color.New(color.FgGreen).Fprintf(op.out, "restore %s completed from %s\n", target.Name, artifact.DumpPath)
	return nil
}

// selectArtifact resolves which artifact to restore: the latest, or an
// explicit pick from the newest-first listing. Selecting latest still shows
// the artifact's metadata before use.
func (op *Operator) selectArtifact(source string, opts RestoreOptions) (catalog.Artifact, error) {
	if opts.Latest {
		artifact, err := op.catalog.Latest(source)
		if err != nil {
			return catalog.Artifact{}, err
		}
		fmt.Fprintf(op.out, "using latest artifact: %s\n", describeArtifact(artifact))
		return artifact, nil
	}

	artifacts, err := op.catalog.List(source)
	if err != nil {
		return catalog.Artifact{}, err
	}
	if len(artifacts) == 0 {
		return catalog.Artifact{}, fmt.Errorf("%w for environment %q (looked under %s)",
			catalog.ErrArtifact, source, op.catalog.EnvironmentDir(source))
	}

	for i, artifact := range artifacts {
		fmt.Fprintf(op.out, "  %d) %s\n", i+1, describeArtifact(artifact))
	}
	answer, err := op.gate.ReadLine(fmt.Sprintf("Select artifact [1-%d]", len(artifacts)))
	if err != nil {
		return catalog.Artifact{}, err
	}
	index, err := strconv.Atoi(answer)
	if err != nil || index < 1 || index > len(artifacts) {
		return catalog.Artifact{}, fmt.Errorf("invalid artifact selection %q", answer)
	}
	return artifacts[index-1], nil
}

// scratchTail surfaces the final diagnostic lines verbatim for triage.
func (op *Operator) scratchTail(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return tailLines(string(data), 10)
}
