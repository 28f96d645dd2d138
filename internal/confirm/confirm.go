// Package confirm implements the safety gate guarding irreversible
// operations. Prompting sits behind the Confirmer interface so tests supply
// canned answers without a terminal.
package confirm

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mareasperez/pg-backup-restore/internal/logger"
)

// ErrConfirmation means the operator declined or the typed answer did not
// match. The caller aborts immediately; nothing has been mutated yet.
var ErrConfirmation = errors.New("operation not confirmed")

// Confirmer reads operator intent.
type Confirmer interface {
	// Confirm asks a yes/no question; only "y"/"yes" affirm.
	Confirm(prompt string) (bool, error)
	// ReadLine prompts and returns one trimmed line of input.
	ReadLine(prompt string) (string, error)
}

// StdinConfirmer is the interactive Confirmer reading from standard input.
type StdinConfirmer struct {
	in  *bufio.Reader
	out io.Writer
}

var _ Confirmer = (*StdinConfirmer)(nil)

// NewStdinConfirmer returns a Confirmer bound to the process terminal.
func NewStdinConfirmer() *StdinConfirmer {
	return &StdinConfirmer{in: bufio.NewReader(os.Stdin), out: os.Stdout}
}

func (c *StdinConfirmer) Confirm(prompt string) (bool, error) {
	answer, err := c.ReadLine(prompt + " [y/N]")
	if err != nil {
		return false, err
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

func (c *StdinConfirmer) ReadLine(prompt string) (string, error) {
	_, _ = color.New(color.Bold).Fprintf(c.out, "%s: ", prompt)
	line, err := c.in.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read confirmation input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// Gate composes the two independent confirmation checks. Callers mix them
// per operation: restore uses both in interactive mode, drop uses the typed
// check, sync uses one composite affirmation.
type Gate struct {
	confirmer Confirmer
	log       logger.Logger
}

// NewGate returns a safety gate backed by the given Confirmer.
func NewGate(confirmer Confirmer, log logger.Logger) *Gate {
	return &Gate{confirmer: confirmer, log: log}
}

// ConfirmArtifact is check (a): a yes/no affirmation to use one specific
// artifact.
func (g *Gate) ConfirmArtifact(description string) error {
	ok, err := g.confirmer.Confirm(fmt.Sprintf("Use artifact %s?", description))
	if err != nil {
		return err
	}
	if !ok {
		g.log.Warn("artifact use declined", "artifact", description)
		return fmt.Errorf("%w: artifact declined", ErrConfirmation)
	}
	return nil
}

// ConfirmTarget is check (b): the operator must type the target database
// name exactly. No partial matches, no case folding.
func (g *Gate) ConfirmTarget(database string) error {
	answer, err := g.confirmer.ReadLine(
		fmt.Sprintf("Type the target database name (%s) to proceed", database))
	if err != nil {
		return err
	}
	if answer != database {
		g.log.Warn("typed confirmation mismatch", "expected", database)
		return fmt.Errorf("%w: typed answer does not match %q", ErrConfirmation, database)
	}
	return nil
}

// ReadLine exposes free-form input, used for artifact selection.
func (g *Gate) ReadLine(prompt string) (string, error) {
	return g.confirmer.ReadLine(prompt)
}

// ConfirmComposite asks one up-front yes/no describing a multi-step effect,
// e.g. "back up X, then overwrite Y".
func (g *Gate) ConfirmComposite(summary string) error {
	ok, err := g.confirmer.Confirm(summary)
	if err != nil {
		return err
	}
	if !ok {
		g.log.Warn("composite operation declined", "summary", summary)
		return fmt.Errorf("%w: declined", ErrConfirmation)
	}
	return nil
}
