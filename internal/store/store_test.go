package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/doctord/internal/diagnostic"
)

func sampleSet(passID string) *diagnostic.ResultSet {
	return diagnostic.NewResultSet(passID, []diagnostic.Result{
		{ID: "r1", Severity: diagnostic.SeverityCritical, Summary: "compile error", ProviderID: "p1", Confidence: 90},
		{ID: "r2", Severity: diagnostic.SeverityLow, Summary: "slow step", ProviderID: "p2", Confidence: 40},
	}, 2)
}

func TestBuildKey(t *testing.T) {
	assert.Equal(t, "ci/main#42", BuildKey("ci/main", 42))
}

func TestMemoryStore_AttachOnce(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	key := BuildKey("ci/main", 1)

	require.NoError(t, s.Attach(ctx, key, sampleSet("pass-1")))

	err := s.Attach(ctx, key, sampleSet("pass-2"))
	assert.ErrorIs(t, err, ErrAlreadyAttached)

	got, err := s.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "pass-1", got.PassID())
}

func TestMemoryStore_GetMissing(t *testing.T) {
	s := NewMemoryStore()
	_, err := s.Get(context.Background(), "nope#0")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := NewFileStore(dir)
	require.NoError(t, err)

	key := BuildKey("ci/main", 7)
	require.NoError(t, s.Attach(ctx, key, sampleSet("pass-7")))

	// Reopen from disk.
	reopened, err := NewFileStore(dir)
	require.NoError(t, err)

	got, err := reopened.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "pass-7", got.PassID())
	assert.Equal(t, 2, got.Count())

	highest, ok := got.HighestSeverity()
	require.True(t, ok)
	assert.Equal(t, diagnostic.SeverityCritical, highest)

	keys, err := reopened.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{key}, keys)
}

func TestFileStore_AttachOnce(t *testing.T) {
	ctx := context.Background()
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	key := BuildKey("ci/nightly", 3)
	require.NoError(t, s.Attach(ctx, key, sampleSet("a")))
	assert.ErrorIs(t, s.Attach(ctx, key, sampleSet("b")), ErrAlreadyAttached)
}
