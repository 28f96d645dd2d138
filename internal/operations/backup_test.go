package operations

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mareasperez/pg-backup-restore/internal/catalog"
	"github.com/mareasperez/pg-backup-restore/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackup(t *testing.T) {
	root := t.TempDir()
	content := []byte("custom-format dump bytes")
	tools := &fakeTools{dumpContent: content}
	op, out := newTestOperator(t, testSettings(root), tools, &scriptedConfirmer{})

	artifact, err := op.Backup(context.Background(), testEnv("staging"))
	require.NoError(t, err)

	assert.Equal(t, "staging", artifact.Environment)
	assert.False(t, artifact.Compressed)
	assert.True(t, artifact.HasMetadata)

	got, err := os.ReadFile(artifact.DumpPath)
	require.NoError(t, err)
	assert.Equal(t, content, got)

	// Convenience copy is byte-identical to the dump.
	copied, err := os.ReadFile(op.Catalog().ConveniencePath("staging"))
	require.NoError(t, err)
	assert.Equal(t, content, copied)

	meta, err := artifact.LoadMetadata()
	require.NoError(t, err)
	wantSHA := sha256.Sum256(content)
	assert.Equal(t, hex.EncodeToString(wantSHA[:]), meta.SHA256)
	assert.Equal(t, "0cc175b9c0f1b6a831c399e269772661", meta.MD5)
	assert.EqualValues(t, len(content), meta.SizeBytes)
	assert.Equal(t, "appdb", meta.Database)

	assert.Equal(t, []string{"pg_dump"}, startedTools(tools.startCalls))
	assert.Contains(t, out.String(), "backup staging completed")
}

func TestBackupProbeFailureIsFatal(t *testing.T) {
	root := t.TempDir()
	tools := &fakeTools{probeErr: errExit}
	op, _ := newTestOperator(t, testSettings(root), tools, &scriptedConfirmer{})

	_, err := op.Backup(context.Background(), testEnv("staging"))
	require.Error(t, err)
	assert.ErrorIs(t, err, database.ErrConnectivity)
	assert.Empty(t, tools.startCalls)

	// No artifact directory is created when the probe fails.
	_, statErr := os.Stat(filepath.Join(root, "staging"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestBackupProceedsWhenRawSizeUnknown(t *testing.T) {
	root := t.TempDir()
	tools := &fakeTools{rawSizeErr: errors.New("permission denied")}
	op, _ := newTestOperator(t, testSettings(root), tools, &scriptedConfirmer{})

	artifact, err := op.Backup(context.Background(), testEnv("staging"))
	require.NoError(t, err)
	assert.True(t, artifact.HasMetadata)
}

func TestBackupDumpFailure(t *testing.T) {
	root := t.TempDir()
	tools := &fakeTools{dumpWaitErr: errExit}
	op, _ := newTestOperator(t, testSettings(root), tools, &scriptedConfirmer{})

	_, err := op.Backup(context.Background(), testEnv("staging"))
	require.Error(t, err)
	assert.ErrorIs(t, err, database.ErrToolExecution)

	// A failed backup never writes metadata.
	entries, readErr := os.ReadDir(filepath.Join(root, "staging"))
	require.NoError(t, readErr)
	require.Len(t, entries, 1)
	metaPath := filepath.Join(root, "staging", entries[0].Name(), catalog.MetadataFilename)
	_, statErr := os.Stat(metaPath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestBackupLegacyChecksumDegrades(t *testing.T) {
	root := t.TempDir()
	tools := &fakeTools{md5Err: errors.New("md5sum: not found")}
	op, _ := newTestOperator(t, testSettings(root), tools, &scriptedConfirmer{})

	artifact, err := op.Backup(context.Background(), testEnv("staging"))
	require.NoError(t, err)

	meta, err := artifact.LoadMetadata()
	require.NoError(t, err)
	assert.Equal(t, catalog.LegacyChecksumUnavailable, meta.MD5)
	assert.NotEmpty(t, meta.SHA256)
}

func TestBackupWithCompression(t *testing.T) {
	root := t.TempDir()
	settings := testSettings(root)
	settings.Backup.Compress = true
	content := []byte(strings.Repeat("pg dump payload ", 100))
	tools := &fakeTools{dumpContent: content}
	op, _ := newTestOperator(t, settings, tools, &scriptedConfirmer{})

	artifact, err := op.Backup(context.Background(), testEnv("staging"))
	require.NoError(t, err)
	assert.True(t, artifact.Compressed)
	assert.True(t, strings.HasSuffix(artifact.DumpPath, ".dump.zst"))

	// The uncompressed original is gone; the convenience copy keeps the
	// plain bytes for direct pg_restore use.
	plain := strings.TrimSuffix(artifact.DumpPath, ".zst")
	_, statErr := os.Stat(plain)
	assert.True(t, os.IsNotExist(statErr))

	copied, err := os.ReadFile(op.Catalog().ConveniencePath("staging"))
	require.NoError(t, err)
	assert.Equal(t, content, copied)

	// The artifact round-trips through decompression.
	restored, err := DecompressZstd(artifact.DumpPath)
	require.NoError(t, err)
	defer os.Remove(restored)
	got, err := os.ReadFile(restored)
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestBackupAuthenticatesViaEnvironment(t *testing.T) {
	root := t.TempDir()
	tools := &fakeTools{}
	op, _ := newTestOperator(t, testSettings(root), tools, &scriptedConfirmer{})

	_, err := op.Backup(context.Background(), testEnv("staging"))
	require.NoError(t, err)

	require.NotEmpty(t, tools.startCalls)
	dump := tools.startCalls[0]
	assert.Contains(t, dump.env, "PGPASSWORD=sekret")
	// The password never appears on the command line.
	assert.NotContains(t, strings.Join(dump.args, " "), "sekret")
}
