package persistence

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexcodex/uigen/catalog"
	"github.com/lexcodex/uigen/validator"
	"github.com/lexcodex/uigen/workflow"
)

func newTestStore(t *testing.T) *SessionStore {
	t.Helper()
	store, err := NewSessionStore(filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestLoadMissingSessionReturnsNil(t *testing.T) {
	store := newTestStore(t)
	sess, err := store.Load(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, sess)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	in := &workflow.Session{
		ID:    "s1",
		Query: "a page with a header",
		Code:  "export default () => null;",
		Components: []catalog.Ref{
			{Title: "Header", Reason: "page header"},
			{Title: "Divider", Reason: "separator"},
		},
		Instructions: "none",
		Diagnostics: []validator.Diagnostic{
			{Line: 4, Column: 8, Code: "TS2741", Message: "Property 'title' is missing."},
		},
		LastError: "repair budget exhausted",
		UpdatedAt: time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, store.Save(ctx, in))

	out, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, in.ID, out.ID)
	assert.Equal(t, in.Query, out.Query)
	assert.Equal(t, in.Code, out.Code)
	assert.Equal(t, in.Components, out.Components)
	assert.Equal(t, in.Diagnostics, out.Diagnostics)
	assert.Equal(t, in.LastError, out.LastError)
	assert.True(t, in.UpdatedAt.Equal(out.UpdatedAt))
}

func TestSaveUpsertsLatestTurn(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first := &workflow.Session{ID: "s1", Query: "header", Code: "v1",
		Diagnostics: []validator.Diagnostic{{Line: 1, Code: "TS1005", Message: "';' expected."}}}
	require.NoError(t, store.Save(ctx, first))

	second := &workflow.Session{ID: "s1", Query: "header also add a divider", Code: "v2"}
	require.NoError(t, store.Save(ctx, second))

	out, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "v2", out.Code)
	assert.Equal(t, "header also add a divider", out.Query)
	// A clean turn wipes the previous diagnostics.
	assert.Empty(t, out.Diagnostics)
}

func TestSaveRequiresID(t *testing.T) {
	store := newTestStore(t)
	assert.Error(t, store.Save(context.Background(), &workflow.Session{}))
	assert.Error(t, store.Save(context.Background(), nil))
}

func TestDeleteSession(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &workflow.Session{ID: "s1", Query: "q"}))
	require.NoError(t, store.Delete(ctx, "s1"))

	sess, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Nil(t, sess)

	// Absent ids are fine to delete.
	assert.NoError(t, store.Delete(ctx, "s1"))
}
