// Package operations contains the orchestration engine: backup and restore
// supervision, the source→target sync workflow, and the gated schema drop.
// One environment, one operation, run to completion; callers serialize
// invocations per environment externally.
package operations

import (
	"io"
	"os"

	"github.com/mareasperez/pg-backup-restore/internal/catalog"
	"github.com/mareasperez/pg-backup-restore/internal/config"
	"github.com/mareasperez/pg-backup-restore/internal/confirm"
	"github.com/mareasperez/pg-backup-restore/internal/executor"
	"github.com/mareasperez/pg-backup-restore/internal/logger"
)

// Operator runs all orchestrated operations with one settings snapshot.
// Settings are read once and treated as read-only for the run.
type Operator struct {
	settings config.GlobalSettings
	exec     executor.CommandExecutor
	gate     *confirm.Gate
	catalog  *catalog.Catalog
	log      logger.Logger
	out      io.Writer
}

// Option overrides an Operator collaborator.
type Option func(*Operator)

// WithExecutor overrides how external commands are spawned.
func WithExecutor(exec executor.CommandExecutor) Option {
	return func(op *Operator) {
		if exec != nil {
			op.exec = exec
		}
	}
}

// WithConfirmer overrides the operator-intent reader.
func WithConfirmer(confirmer confirm.Confirmer) Option {
	return func(op *Operator) {
		if confirmer != nil {
			op.gate = confirm.NewGate(confirmer, op.log)
		}
	}
}

// WithOutput overrides where progress and prompts are printed.
func WithOutput(out io.Writer) Option {
	return func(op *Operator) {
		if out != nil {
			op.out = out
		}
	}
}

// WithLogger overrides the logger.
func WithLogger(log logger.Logger) Option {
	return func(op *Operator) {
		if log != nil {
			op.log = log
		}
	}
}

// NewOperator builds an Operator from resolved settings plus any overrides.
func NewOperator(settings config.GlobalSettings, opts ...Option) *Operator {
	op := &Operator{
		settings: settings,
		exec:     &executor.DefaultExecutor{},
		log:      logger.Global(),
		out:      os.Stdout,
	}
	for _, opt := range opts {
		opt(op)
	}
	if op.gate == nil {
		op.gate = confirm.NewGate(confirm.NewStdinConfirmer(), op.log)
	}
	op.catalog = catalog.New(settings.Backup.Directory, op.log)
	return op
}

// Catalog exposes the artifact catalog built from the settings.
func (op *Operator) Catalog() *catalog.Catalog {
	return op.catalog
}
