package operations

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mareasperez/pg-backup-restore/internal/catalog"
	"github.com/mareasperez/pg-backup-restore/internal/config"
	"github.com/mareasperez/pg-backup-restore/internal/executor"
	"github.com/mareasperez/pg-backup-restore/internal/logger"
	"github.com/stretchr/testify/require"
)

type recordedCall struct {
	name string
	args []string
	env  []string
}

func (c recordedCall) joined() string {
	return c.name + " " + strings.Join(c.args, " ")
}

// fakeTools simulates the PostgreSQL client tools behind the executor seam.
// Each knob overrides one tool's behavior; the zero value makes every call
// succeed with plausible output.
type fakeTools struct {
	probeErr       error
	rawSize        string
	rawSizeErr     error
	md5Err         error
	manifest       string
	manifestErr    error
	dumpContent    []byte
	dumpWaitErr    error
	restoreLines   string
	restoreWaitErr error
	restoreProc    executor.Process
	dropErr        error

	runCalls   []recordedCall
	startCalls []recordedCall
}

func (f *fakeTools) Run(ctx context.Context, env []string, name string, args ...string) ([]byte, error) {
	call := recordedCall{name: name, args: args, env: env}
	f.runCalls = append(f.runCalls, call)

	joined := call.joined()
	switch {
	case name == "psql" && strings.Contains(joined, "SELECT 1"):
		if f.probeErr != nil {
			return []byte("connection refused"), f.probeErr
		}
		return []byte("1\n"), nil
	case name == "psql" && strings.Contains(joined, "pg_database_size"):
		if f.rawSizeErr != nil {
			return nil, f.rawSizeErr
		}
		if f.rawSize == "" {
			return []byte("8192\n"), nil
		}
		return []byte(f.rawSize), nil
	case name == "psql" && strings.Contains(joined, "DROP SCHEMA"):
		if f.dropErr != nil {
			return []byte("ERROR"), f.dropErr
		}
		return nil, nil
	case name == "md5sum":
		if f.md5Err != nil {
			return nil, f.md5Err
		}
		return []byte("0cc175b9c0f1b6a831c399e269772661  " + args[0]), nil
	case name == "pg_restore" && len(args) > 0 && args[0] == "-l":
		if f.manifestErr != nil {
			return nil, f.manifestErr
		}
		if f.manifest == "" {
			return []byte("; header\n200; TABLE users\n201; TABLE orders\n202; ACL users\n"), nil
		}
		return []byte(f.manifest), nil
	}
	return nil, nil
}

func (f *fakeTools) Start(ctx context.Context, env []string, stdout, stderr io.Writer, name string, args ...string) (executor.Process, error) {
	call := recordedCall{name: name, args: args, env: env}
	f.startCalls = append(f.startCalls, call)

	switch name {
	case "pg_dump":
		content := f.dumpContent
		if content == nil {
			content = []byte("fake custom-format dump")
		}
		if path := argAfter(args, "-f"); path != "" {
			if err := os.WriteFile(path, content, 0o644); err != nil {
				return nil, err
			}
		}
		return &mockProcess{waitErr: f.dumpWaitErr}, nil
	case "pg_restore":
		if f.restoreProc != nil {
			return f.restoreProc, nil
		}
		if f.restoreLines != "" {
			_, _ = io.WriteString(stdout, f.restoreLines)
		}
		return &mockProcess{waitErr: f.restoreWaitErr}, nil
	}
	return &mockProcess{}, nil
}

func argAfter(args []string, flag string) string {
	for i, arg := range args {
		if arg == flag && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

type mockProcess struct {
	waitErr  error
	waitFunc func() error
	killFunc func() error
}

func (p *mockProcess) Wait() error {
	if p.waitFunc != nil {
		return p.waitFunc()
	}
	return p.waitErr
}

func (p *mockProcess) Kill() error {
	if p.killFunc != nil {
		return p.killFunc()
	}
	return nil
}

// scriptedConfirmer replays canned answers and records every prompt.
type scriptedConfirmer struct {
	answers []string
	prompts []string
}

func (s *scriptedConfirmer) next() string {
	if len(s.answers) == 0 {
		return ""
	}
	answer := s.answers[0]
	s.answers = s.answers[1:]
	return answer
}

func (s *scriptedConfirmer) Confirm(prompt string) (bool, error) {
	s.prompts = append(s.prompts, prompt)
	answer := strings.ToLower(s.next())
	return answer == "y" || answer == "yes", nil
}

func (s *scriptedConfirmer) ReadLine(prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	return s.next(), nil
}

func testSettings(dir string) config.GlobalSettings {
	return config.GlobalSettings{
		Backup: config.BackupSettings{
			Directory:       dir,
			TimestampFormat: "2006-01-02_15-04-05",
			PollInterval:    2 * time.Millisecond,
		},
		Restore: config.RestoreSettings{
			PollInterval: 2 * time.Millisecond,
			Timeout:      time.Second,
		},
		Log: config.LogSettings{Path: filepath.Join(dir, "operations.log")},
	}
}

func testEnv(name string) config.Environment {
	return config.Environment{
		Name:     name,
		Host:     "db.internal",
		Port:     "5432",
		Database: "appdb",
		Username: "app",
		Password: "sekret",
	}
}

func newTestOperator(t *testing.T, settings config.GlobalSettings, tools *fakeTools, confirmer *scriptedConfirmer) (*Operator, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	op := NewOperator(settings,
		WithLogger(logger.Nop()),
		WithExecutor(tools),
		WithConfirmer(confirmer),
		WithOutput(&out),
	)
	return op, &out
}

// seedArtifact lays a dump file (and optional metadata) under the catalog
// layout so restore tests have something to pick.
func seedArtifact(t *testing.T, root, env, timestamp string, withMeta bool) string {
	t.Helper()
	dir := filepath.Join(root, env, timestamp)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	dumpPath := filepath.Join(dir, catalog.DumpFilename(env, false))
	require.NoError(t, os.WriteFile(dumpPath, []byte("fake dump"), 0o644))
	if withMeta {
		meta := catalog.Metadata{
			CompletedAt: time.Now(),
			Environment: env,
			SizeBytes:   9,
			SHA256:      "feedfacefeedface",
			MD5:         catalog.LegacyChecksumUnavailable,
		}
		require.NoError(t, meta.Write(dir))
	}
	return dumpPath
}

func seededDumpPath(root, env, timestamp string) string {
	return filepath.Join(root, env, timestamp, catalog.DumpFilename(env, false))
}

var errExit = errors.New("exit status 1")

func startedTools(calls []recordedCall) []string {
	names := make([]string, 0, len(calls))
	for _, call := range calls {
		names = append(names, call.name)
	}
	return names
}
