package cmd

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/docsync/pkg/version"
)

func runVersion(t *testing.T, args ...string) string {
	t.Helper()
	cmd := newVersionCmd()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetArgs(args)
	require.NoError(t, cmd.Execute())
	return buf.String()
}

func TestVersionCmd_DefaultOutput(t *testing.T) {
	out := runVersion(t)

	assert.Contains(t, out, "docsync")
	assert.Contains(t, out, version.Short())
	assert.Contains(t, out, "commit")
}

func TestVersionCmd_ShortOutput(t *testing.T) {
	out := runVersion(t, "--short")

	assert.Equal(t, version.Short(), strings.TrimSpace(out))
}

func TestVersionCmd_ShortWinsOverJSON(t *testing.T) {
	out := runVersion(t, "--short", "--json")

	assert.Equal(t, version.Short(), strings.TrimSpace(out))
}

func TestVersionCmd_JSONOutput(t *testing.T) {
	out := runVersion(t, "--json")

	var info map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, version.Short(), info["version"])
	for _, key := range []string{"commit", "date", "go_version", "os", "arch"} {
		assert.Contains(t, info, key)
	}
}
