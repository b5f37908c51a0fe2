package suppressions

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenSelectsStoreByScheme(t *testing.T) {
	s, err := Open("failures.txt")
	require.NoError(t, err)
	assert.Equal(t, &FileStore{Path: "failures.txt"}, s)

	s, err = Open("file:///tmp/failures.txt")
	require.NoError(t, err)
	assert.Equal(t, &FileStore{Path: "/tmp/failures.txt"}, s)

	s, err = Open("redis://localhost:6379/ledger-failures")
	require.NoError(t, err)
	assert.IsType(t, &RedisStore{}, s)
	assert.Equal(t, "redis://localhost:6379/ledger-failures", s.Description())

	s, err = Open("consul://localhost:8500/ledger/failures")
	require.NoError(t, err)
	assert.IsType(t, &ConsulStore{}, s)
	assert.Equal(t, "consul key ledger/failures", s.Description())

	s, err = Open("dynamodb://harness-table/failures?region=eu-west-1")
	require.NoError(t, err)
	assert.Equal(t, "dynamodb://harness-table/failures", s.Description())
}

func TestOpenRejectsIncompleteURLs(t *testing.T) {
	for _, location := range []string{
		"redis://localhost:6379",
		"consul://localhost:8500/",
		"dynamodb://table-only",
		"ftp://somewhere/key",
	} {
		t.Run(location, func(t *testing.T) {
			_, err := Open(location)
			assert.Error(t, err)
		})
	}
}

func TestParseAndFormatTestIDs(t *testing.T) {
	ids := ParseTestIDs("GetFee/basic\n\n  # comment\nGetLedger/not found  \n")
	assert.Equal(t, []string{"GetFee/basic", "GetLedger/not found"}, ids)
	assert.Equal(t, "GetFee/basic\nGetLedger/not found\n", FormatTestIDs(ids))
	assert.Equal(t, "", FormatTestIDs(nil))
}

func TestFileStoreRoundTrip(t *testing.T) {
	store := &FileStore{Path: filepath.Join(t.TempDir(), "failures.txt")}

	ids, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, ids, 0)

	require.NoError(t, store.Save(context.Background(), []string{"GetFee/a", "Submit/b"}))
	ids, err = store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"GetFee/a", "Submit/b"}, ids)
}

func TestFileStoreReportsUnwritablePath(t *testing.T) {
	store := &FileStore{Path: filepath.Join(t.TempDir(), "missing-dir", "failures.txt")}
	assert.Error(t, store.Save(context.Background(), []string{"x"}))
}
