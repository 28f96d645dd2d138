package operations

import (
	"context"
	"fmt"

	"github.com/mareasperez/pg-backup-restore/internal/config"
	"github.com/mareasperez/pg-backup-restore/internal/database"
)

// DropOptions parameterizes the schema reset.
type DropOptions struct {
	// Yes skips the typed confirmation. It never skips the pre-drop backup.
	Yes bool
	// SkipBackup skips the automatic pre-drop backup. Dangerous; it is a
	// separately-named flag on purpose.
	SkipBackup bool
}

// Drop irreversibly resets the environment's primary schema. The sequence is
// probe, typed confirmation, automatic pre-drop backup, then one atomic
// drop-and-recreate statement. A failure of the drop statement itself is
// fatal, reported verbatim, and never retried.
func (op *Operator) Drop(ctx context.Context, env config.Environment, opts DropOptions) error {
	db := database.NewPostgres(env, op.exec, op.log)

	if err := db.Probe(ctx); err != nil {
		return err
	}

	if !opts.Yes {
		if err := op.gate.ConfirmTarget(env.Database); err != nil {
			return err
		}
	}

	if opts.SkipBackup {
		op.log.Warn("pre-drop backup skipped by flag", "environment", env.Name)
	} else {
		if _, err := op.Backup(ctx, env); err != nil {
			return fmt.Errorf("pre-drop backup failed, schema left untouched: %w", err)
		}
	}

	if err := db.ResetSchema(ctx); err != nil {
		op.log.Error("schema reset failed", "environment", env.Name, "error", err.Error())
		return err
	}

	op.log.Info("drop completed", "environment", env.Name, "database", env.Database)
	return nil
}
