// Package database wraps the PostgreSQL client tools (psql, pg_dump,
// pg_restore). It never speaks the wire protocol itself; all data transfer is
// delegated to the external executables.
package database

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mareasperez/pg-backup-restore/internal/config"
	"github.com/mareasperez/pg-backup-restore/internal/executor"
	"github.com/mareasperez/pg-backup-restore/internal/logger"
)

// Postgres holds one resolved environment plus the executor used to spawn
// the client tools against it.
type Postgres struct {
	Host     string
	Port     string
	Username string
	Password string
	Database string

	exec executor.CommandExecutor
	log  logger.Logger
}

// NewPostgres builds a client-tool wrapper for one environment.
func NewPostgres(env config.Environment, exec executor.CommandExecutor, log logger.Logger) *Postgres {
	return &Postgres{
		Host:     env.Host,
		Port:     env.Port,
		Username: env.Username,
		Password: env.Password,
		Database: env.Database,
		exec:     exec,
		log:      log,
	}
}

// env returns the extra environment for non-interactive authentication.
func (p *Postgres) env() []string {
	return []string{"PGPASSWORD=" + p.Password}
}

func (p *Postgres) connArgs() []string {
	return []string{
		"-h", p.Host,
		"-p", p.Port,
		"-U", p.Username,
	}
}

// Probe executes a trivial read query. It must pass before any mutating step.
func (p *Postgres) Probe(ctx context.Context) error {
	args := append(p.connArgs(), "-d", p.Database, "-tA", "-c", "SELECT 1")
	output, err := p.exec.Run(ctx, p.env(), "psql", args...)
	if err != nil {
		p.log.Error("connectivity probe failed",
			"database", p.Database,
			"host", p.Host,
			"error", err.Error(),
		)
		return fmt.Errorf("%w: %s: %v", ErrConnectivity, strings.TrimSpace(string(output)), err)
	}
	return nil
}

// RawSize queries the uncompressed logical size of the database in bytes.
// Callers treat failure as "size unknown", not as fatal.
func (p *Postgres) RawSize(ctx context.Context) (int64, error) {
	query := fmt.Sprintf("SELECT pg_database_size('%s')", p.Database)
	args := append(p.connArgs(), "-d", p.Database, "-tA", "-c", query)
	output, err := p.exec.Run(ctx, p.env(), "psql", args...)
	if err != nil {
		return 0, fmt.Errorf("query database size: %w", err)
	}
	size, err := strconv.ParseInt(strings.TrimSpace(string(output)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse database size %q: %w", strings.TrimSpace(string(output)), err)
	}
	return size, nil
}

// StartDump spawns pg_dump in custom format writing to outPath and returns
// without waiting, so the caller can watch the file grow.
func (p *Postgres) StartDump(ctx context.Context, outPath string, diag io.Writer) (executor.Process, error) {
	args := append(p.connArgs(),
		"-d", p.Database,
		"-F", "c",
		"-f", outPath,
	)
	proc, err := p.exec.Start(ctx, p.env(), io.Discard, diag, "pg_dump", args...)
	if err != nil {
		return nil, fmt.Errorf("%w: spawn pg_dump: %v", ErrToolExecution, err)
	}
	return proc, nil
}

// StartRestore spawns pg_restore in clean-then-recreate verbose mode against
// this database, streaming its diagnostics to diag. The caller scans diag to
// count completed work units.
func (p *Postgres) StartRestore(ctx context.Context, dumpPath string, diag io.Writer) (executor.Process, error) {
	args := append(p.connArgs(),
		"-d", p.Database,
		"--clean",
		"--if-exists",
		"--verbose",
		"-F", "c",
		dumpPath,
	)
	proc, err := p.exec.Start(ctx, p.env(), diag, diag, "pg_restore", args...)
	if err != nil {
		return nil, fmt.Errorf("%w: spawn pg_restore: %v", ErrToolExecution, err)
	}
	return proc, nil
}

// ManifestEntries lists the archive's table of contents with pg_restore -l
// and counts the entries. Comment lines start with ";".
func (p *Postgres) ManifestEntries(ctx context.Context, dumpPath string) (int, error) {
	output, err := p.exec.Run(ctx, nil, "pg_restore", "-l", dumpPath)
	if err != nil {
		return 0, fmt.Errorf("list archive manifest: %w", err)
	}
	count := 0
	for _, line := range strings.Split(string(output), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, ";") {
			continue
		}
		count++
	}
	return count, nil
}

// ResetSchema drops and recreates the public schema in a single statement.
// Irreversible; callers gate it behind typed confirmation.
func (p *Postgres) ResetSchema(ctx context.Context) error {
	args := append(p.connArgs(),
		"-d", p.Database,
		"-v", "ON_ERROR_STOP=1",
		"-c", "DROP SCHEMA public CASCADE; CREATE SCHEMA public;",
	)
	output, err := p.exec.Run(ctx, p.env(), "psql", args...)
	if err != nil {
		return fmt.Errorf("%w: drop schema: %s: %v", ErrToolExecution, strings.TrimSpace(string(output)), err)
	}
	p.log.Info("schema reset", "database", p.Database, "host", p.Host)
	return nil
}
