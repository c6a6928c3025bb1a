package ui

import (
	"bytes"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/docsync/internal/reconcile"
)

func TestNewTUIRenderer_FailsForNonTTY(t *testing.T) {
	// Given: a non-TTY buffer
	cfg := NewConfig(&bytes.Buffer{}, WithLive(true))

	// When: creating the live renderer
	r, err := NewTUIRenderer(cfg)

	// Then: it refuses
	assert.Error(t, err)
	assert.Nil(t, r)
}

func TestNewRenderer_LiveFallsBackToPlainForBuffers(t *testing.T) {
	r := NewRenderer(NewConfig(&bytes.Buffer{}, WithLive(true)))

	_, ok := r.(*PlainRenderer)
	assert.True(t, ok)
}

func TestPassModel_InitialView(t *testing.T) {
	// Given: a fresh model
	m := newPassModel("/data")
	m.styles = NoColorStyles()

	// When: rendering
	view := m.View()

	// Then: every stage and the directory are shown
	for _, label := range []string{"SCAN", "DIFF", "APPLY", "COMMIT"} {
		assert.Contains(t, view, label)
	}
	assert.Contains(t, view, "/data")
}

func TestPassModel_StateAndFailures(t *testing.T) {
	m := newPassModel("")
	m.styles = NoColorStyles()

	// When: the pass reaches APPLYING and one item fails
	_, _ = m.Update(stateMsg{passID: "3f2a9c1e-aaaa", state: reconcile.StateApplying})
	_, _ = m.Update(failureMsg(reconcile.Failure{Identity: "bad.txt", Op: reconcile.OpAdd, Err: errors.New("x")}))
	view := m.View()

	// Then: the view shows the pass and the failure
	assert.Equal(t, reconcile.StateApplying, m.state)
	assert.Contains(t, view, "3f2a9c1e")
	assert.NotContains(t, view, "3f2a9c1e-aaaa")
	assert.Contains(t, view, "1 failed")
	assert.Contains(t, view, "add bad.txt")
}

func TestPassModel_EndQuits(t *testing.T) {
	m := newPassModel("")

	_, cmd := m.Update(passEndMsg{})

	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, m.View())
}

func TestPassModel_WindowResize(t *testing.T) {
	m := newPassModel("")

	_, _ = m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	assert.Equal(t, 70, m.bar.Width)

	_, _ = m.Update(tea.WindowSizeMsg{Width: 30, Height: 30})
	assert.Equal(t, 20, m.bar.Width)
}

func TestStageFraction_Increases(t *testing.T) {
	prev := -1.0
	for _, s := range []reconcile.State{
		reconcile.StateIdle,
		reconcile.StateScanning,
		reconcile.StateDiffing,
		reconcile.StateApplying,
		reconcile.StateCommitting,
		reconcile.StateDone,
	} {
		f := stageFraction(s)
		assert.Greater(t, f, prev, s.String())
		prev = f
	}
	assert.Equal(t, 1.0, stageFraction(reconcile.StateFailed))
}
