package ui

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/docsync/internal/reconcile"
)

func TestStateIcon(t *testing.T) {
	tests := []struct {
		state reconcile.State
		want  string
	}{
		{reconcile.StateIdle, "IDLE"},
		{reconcile.StateScanning, "SCAN"},
		{reconcile.StateDiffing, "DIFF"},
		{reconcile.StateApplying, "APPLY"},
		{reconcile.StateCommitting, "COMMIT"},
		{reconcile.StateDone, "DONE"},
		{reconcile.StateFailed, "FAIL"},
		{reconcile.State(99), "???"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, StateIcon(tt.state))
		})
	}
}

func TestIsTTY_WithBuffer_ReturnsFalse(t *testing.T) {
	assert.False(t, IsTTY(&bytes.Buffer{}))
}

func TestIsTTY_WithNil_ReturnsFalse(t *testing.T) {
	assert.False(t, IsTTY(nil))
}

func TestIsTTY_WithRegularFile_ReturnsFalse(t *testing.T) {
	// Given: a regular file
	f, err := os.CreateTemp(t.TempDir(), "out")
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	// Then: it is not a terminal
	assert.False(t, IsTTY(f))
}

func TestNewConfig_WithOptions(t *testing.T) {
	buf := &bytes.Buffer{}
	cfg := NewConfig(buf,
		WithForcePlain(true),
		WithNoColor(true),
		WithVerbose(true),
		WithProjectDir("/data"),
	)

	assert.Equal(t, buf, cfg.Output)
	assert.True(t, cfg.ForcePlain)
	assert.True(t, cfg.NoColor)
	assert.True(t, cfg.Verbose)
	assert.Equal(t, "/data", cfg.ProjectDir)
}

func TestNewRenderer_ForcePlain_ReturnsPlainRenderer(t *testing.T) {
	r := NewRenderer(NewConfig(&bytes.Buffer{}, WithForcePlain(true)))

	_, ok := r.(*PlainRenderer)
	assert.True(t, ok, "expected *PlainRenderer")
}

func TestNewRenderer_NonTTY_ReturnsPlainRenderer(t *testing.T) {
	// Given: output that is not a terminal
	r := NewRenderer(NewConfig(&bytes.Buffer{}))

	// Then: plain output is chosen
	_, ok := r.(*PlainRenderer)
	assert.True(t, ok, "expected *PlainRenderer")
}

func TestRenderer_InterfaceCompliance(t *testing.T) {
	var _ Renderer = (*PlainRenderer)(nil)
	var _ Renderer = (*StyledRenderer)(nil)
	var _ reconcile.Observer = (*PlainRenderer)(nil)
}

func TestDetectNoColor(t *testing.T) {
	t.Run("set", func(t *testing.T) {
		t.Setenv("NO_COLOR", "1")
		assert.True(t, DetectNoColor())
	})

	t.Run("unset", func(t *testing.T) {
		t.Setenv("NO_COLOR", "")
		require.NoError(t, os.Unsetenv("NO_COLOR"))
		assert.False(t, DetectNoColor())
	})
}

func TestDetectCI(t *testing.T) {
	ciVars := []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "TRAVIS"}

	t.Run("set", func(t *testing.T) {
		t.Setenv("CI", "true")
		assert.True(t, DetectCI())
	})

	t.Run("unset", func(t *testing.T) {
		for _, v := range ciVars {
			t.Setenv(v, "")
			require.NoError(t, os.Unsetenv(v))
		}
		assert.False(t, DetectCI())
	})
}
