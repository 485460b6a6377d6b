package editable

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestViewVariantIsStatic(t *testing.T) {
	f := New("title", "Hello", false, nil)
	v := f.Render()
	assert.False(t, v.Interactive)
	assert.Equal(t, "Hello", v.Value)
	assert.False(t, f.Focus(), "view mode cannot be focused")
}

func TestEditVariantPrepopulated(t *testing.T) {
	f := New("title", "Hello", true, nil)
	f.SetEditMode(true)
	v := f.Render()
	assert.True(t, v.Interactive)
	assert.True(t, v.Multiline)
	assert.Equal(t, "Hello", v.Value)
}

func TestBlurCommitsBufferVerbatimOnce(t *testing.T) {
	var commits []string
	f := New("title", "Hello", false, func(v string) <-chan error {
		commits = append(commits, v)
		return nil
	})
	f.SetEditMode(true)

	require.True(t, f.Focus())
	f.Input("  New title ")
	assert.Empty(t, commits, "keystrokes never commit")

	got, done, ok := f.Blur()
	require.True(t, ok)
	assert.Equal(t, "  New title ", got)
	assert.Equal(t, []string{"  New title "}, commits)
	assert.NoError(t, <-done, "a nil result reads as success")

	_, _, ok = f.Blur()
	assert.False(t, ok)
	assert.Len(t, commits, 1)
	assert.Equal(t, "  New title ", f.Value())
}

func TestRejectedBlurReportsAndReverts(t *testing.T) {
	errBad := errors.New("bad icon")
	var f *Field
	f = New("iconName", "Code", false, func(v string) <-chan error {
		f.Resync("Code")
		done := make(chan error, 1)
		done <- errBad
		return done
	})
	f.SetEditMode(true)
	require.True(t, f.Focus())
	f.Input("Bogus")

	_, done, ok := f.Blur()
	require.True(t, ok)
	assert.ErrorIs(t, <-done, errBad)
	assert.Equal(t, "Code", f.Value())
	assert.Equal(t, "Code", f.Render().Value)
}

func TestResyncWhileUnfocusedReplacesBuffer(t *testing.T) {
	f := New("title", "Local", false, nil)
	f.SetEditMode(true)
	f.Resync("Remote")
	assert.Equal(t, "Remote", f.Render().Value)
}

func TestResyncWhileFocusedKeepsEdit(t *testing.T) {
	var committed string
	f := New("title", "Old", false, func(v string) <-chan error {
		committed = v
		return nil
	})
	f.SetEditMode(true)
	f.Focus()
	f.Input("Local (unsaved)")

	f.Resync("Remote")
	assert.Equal(t, "Local (unsaved)", f.Render().Value)
	assert.Equal(t, "Remote", f.Value())

	f.Blur()
	assert.Equal(t, "Local (unsaved)", committed)
}

func TestInputWithoutFocusIsIgnored(t *testing.T) {
	f := New("title", "Old", false, nil)
	f.SetEditMode(true)
	f.Input("typed")
	assert.Equal(t, "Old", f.Buffer())
}

func TestLeavingEditModeDiscardsBuffer(t *testing.T) {
	called := false
	f := New("title", "Old", false, func(string) <-chan error {
		called = true
		return nil
	})
	f.SetEditMode(true)
	f.Focus()
	f.Input("draft")
	f.SetEditMode(false)

	assert.False(t, called)
	assert.Equal(t, "Old", f.Render().Value)
	_, _, ok := f.Blur()
	assert.False(t, ok)
}

func TestExplicitCommit(t *testing.T) {
	var commits []string
	f := New("tags", "Go", false, func(v string) <-chan error {
		commits = append(commits, v)
		return nil
	})
	_, ok := f.Commit("x")
	assert.False(t, ok, "no commit in view mode")
	f.SetEditMode(true)
	_, ok = f.Commit("Go, Rust")
	assert.True(t, ok)
	assert.Equal(t, []string{"Go, Rust"}, commits)
	assert.Equal(t, "Go, Rust", f.Value())
}

func TestRenderAsDoesNotSwitchMode(t *testing.T) {
	f := New("title", "Shown", false, nil)
	v := f.RenderAs(true)
	assert.True(t, v.Interactive)
	assert.Equal(t, "Shown", v.Value)
	assert.False(t, f.Render().Interactive)

	f.SetEditMode(true)
	f.Focus()
	f.Input("draft")
	assert.Equal(t, "Shown", f.RenderAs(false).Value, "visitors never see a draft")
	assert.Equal(t, "draft", f.RenderAs(true).Value)
}
