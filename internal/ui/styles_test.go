package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNoColorStyles_RenderUnchanged(t *testing.T) {
	// Given: plain styles
	styles := NoColorStyles()

	// Then: text passes through untouched
	assert.Equal(t, "+", styles.Added.Render("+"))
	assert.Equal(t, "DONE", styles.Success.Render("DONE"))
	assert.Equal(t, "body", styles.Panel.Render("body"))
}

func TestDefaultStyles_HeaderIsBold(t *testing.T) {
	assert.True(t, DefaultStyles().Header.GetBold())
}

func TestDefaultStyles_PanelHasBorder(t *testing.T) {
	panel := DefaultStyles().Panel
	assert.True(t, panel.GetBorderLeft())
	assert.True(t, panel.GetBorderRight())
}

func TestGetStyles(t *testing.T) {
	assert.False(t, GetStyles(true).Header.GetBold())
	assert.True(t, GetStyles(false).Header.GetBold())
}
