package operations

import (
	"fmt"

	"github.com/fatih/color"
)

// List prints the environment's artifacts newest first, with metadata
// details where present and a degraded marker where not.
func (op *Operator) List(env string) error {
	artifacts, err := op.catalog.List(env)
	if err != nil {
		return err
	}
	if len(artifacts) == 0 {
		fmt.Fprintf(op.out, "no backup artifacts for %q under %s\n", env, op.catalog.EnvironmentDir(env))
		return nil
	}

	_, _ = color.New(color.Bold).Fprintf(op.out, "backups for %s (newest first):\n", env)
	for _, artifact := range artifacts {
		fmt.Fprintf(op.out, "  %s\n", describeArtifact(artifact))
	}
	return nil
}
