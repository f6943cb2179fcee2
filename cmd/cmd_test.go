package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zachkp/folio/internal/kpi"
)

// run executes the root command with args against a config path in a
// temporary directory.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	contentFile, kpiJSON, servePort = "", false, 0

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	cfg := filepath.Join(t.TempDir(), "folio.yml")
	rootCmd.SetArgs(append([]string{"--config", cfg}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func TestKPIArgs(t *testing.T) {
	out, err := run(t, "kpi", "Grew platform users from 20K to 400K", "Saved $2M in annual costs")
	require.NoError(t, err)
	assert.Contains(t, out, "2M cost savings")
	assert.Contains(t, out, "400K user growth")
}

func TestKPIArgsJSON(t *testing.T) {
	out, err := run(t, "kpi", "--json", "Increased conversion by 25%")
	require.NoError(t, err)

	var kpis []kpi.KPI
	require.NoError(t, json.Unmarshal([]byte(out), &kpis))
	require.Len(t, kpis, 1)
	assert.Equal(t, "25%", kpis[0].Value)
}

func TestKPIBuiltInContent(t *testing.T) {
	out, err := run(t, "kpi")
	require.NoError(t, err)
	assert.Contains(t, out, "exp-target (2023-target)")
	assert.Contains(t, out, "  20% boosted operational efficiency by")
	assert.Contains(t, out, "exp-jasons (2016-jasons-catered-events)")
}

func TestContentCheck(t *testing.T) {
	out, err := run(t, "content", "check")
	require.NoError(t, err)
	assert.Contains(t, out, "content OK: Zach Kordas-Potter")
	assert.Contains(t, out, "experience: 3")
	assert.Contains(t, out, "Languages & Runtimes")
}

func TestContentCheckInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "content.yaml")
	require.NoError(t, os.WriteFile(path, []byte("user:\n  full_name: \"\"\n"), 0o600))

	_, err := run(t, "content", "check", "--file", path)
	assert.Error(t, err)
}

func TestContentDumpRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "content.yaml")
	out, err := run(t, "content", "dump", path)
	require.NoError(t, err)
	assert.Contains(t, out, "wrote "+path)

	out, err = run(t, "content", "check", "--file", path)
	require.NoError(t, err)
	assert.Contains(t, out, "content OK")

	_, err = run(t, "content", "dump", path)
	assert.Error(t, err)
}

func TestConfigInitAndShow(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "folio.yml")
	t.Setenv("PORT", "")
	t.Setenv("FOLIO_SMTP__PASSWORD", "hunter2")

	rootCmd.SetArgs([]string{"--config", path, "config", "init"})
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	require.NoError(t, rootCmd.Execute())
	assert.FileExists(t, path)

	out.Reset()
	rootCmd.SetArgs([]string{"--config", path, "config", "show"})
	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "cooldown_ms: 1000")
	assert.Contains(t, out.String(), "********")
	assert.NotContains(t, out.String(), "hunter2")

	rootCmd.SetArgs([]string{"--config", path, "config", "init"})
	assert.Error(t, rootCmd.Execute())
}
