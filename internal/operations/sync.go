package operations

import (
	"context"
	"fmt"

	"github.com/mareasperez/pg-backup-restore/internal/config"
)

// Sync refreshes target from source: a fresh backup of source, then an
// unattended restore of that backup into target. One up-front affirmation
// covers the composite effect; if the backup step fails the restore never
// runs.
func (op *Operator) Sync(ctx context.Context, source, target config.Environment) error {
	summary := fmt.Sprintf("Back up %q and then overwrite %q with that backup", source.Name, target.Name)
	if err := op.gate.ConfirmComposite(summary); err != nil {
		return err
	}

	if _, err := op.Backup(ctx, source); err != nil {
		return fmt.Errorf("sync aborted, backup of %q failed: %w", source.Name, err)
	}

	if err := op.Restore(ctx, target, RestoreOptions{
		Source: source.Name,
		Latest: true,
		// The operator already affirmed the composite effect above.
		Policy: PolicyUnattended,
	}); err != nil {
		return fmt.Errorf("sync: restore into %q failed: %w", target.Name, err)
	}

	op.log.Info("sync completed", "source", source.Name, "target", target.Name)
	return nil
}
