package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grepmcp/grepmcp/internal/config"
)

// isolateConfig points the user config at a temp directory so tests never
// touch the real ~/.config/grepmcp.
func isolateConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	return dir
}

func TestConfigCmd_ShowJSON(t *testing.T) {
	isolateConfig(t)

	cmd := newConfigCmd()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--json"})

	require.NoError(t, cmd.Execute())

	var cfg map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &cfg))
	assert.Contains(t, cfg, "search")
	assert.Contains(t, cfg, "history")
	assert.Contains(t, cfg, "logging")
}

func TestConfigCmd_ShowYAML(t *testing.T) {
	isolateConfig(t)

	cmd := newConfigCmd()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetArgs([]string{})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "search:")
	assert.Contains(t, buf.String(), "text_extensions:")
}

func TestConfigCmd_Path(t *testing.T) {
	dir := isolateConfig(t)

	cmd := newConfigCmd()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"path"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), filepath.Join(dir, "grepmcp", "config.yaml"))
}

func TestConfigCmd_Init(t *testing.T) {
	isolateConfig(t)

	cmd := newConfigCmd()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"init"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "Created user configuration")
	assert.True(t, config.UserConfigExists())

	// Loading the created template back must produce a valid config.
	_, err := config.LoadUserConfig()
	require.NoError(t, err)
}

func TestConfigCmd_InitRefusesOverwrite(t *testing.T) {
	isolateConfig(t)

	first := newConfigCmd()
	first.SetOut(&bytes.Buffer{})
	first.SetArgs([]string{"init"})
	require.NoError(t, first.Execute())

	second := newConfigCmd()
	buf := &bytes.Buffer{}
	second.SetOut(buf)
	second.SetArgs([]string{"init"})
	require.NoError(t, second.Execute())

	assert.Contains(t, buf.String(), "already exists")
}

func TestConfigCmd_InitForceCreatesBackup(t *testing.T) {
	isolateConfig(t)

	first := newConfigCmd()
	first.SetOut(&bytes.Buffer{})
	first.SetArgs([]string{"init"})
	require.NoError(t, first.Execute())

	second := newConfigCmd()
	buf := &bytes.Buffer{}
	second.SetOut(buf)
	second.SetArgs([]string{"init", "--force"})
	require.NoError(t, second.Execute())

	assert.Contains(t, buf.String(), "Backed up existing config")

	backups, err := config.ListUserConfigBackups()
	require.NoError(t, err)
	assert.NotEmpty(t, backups)
}

func TestConfigCmd_InitProject(t *testing.T) {
	isolateConfig(t)
	dir := t.TempDir()
	oldDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	defer func() { _ = os.Chdir(oldDir) }()

	cmd := newConfigCmd()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"init", "--project"})

	require.NoError(t, cmd.Execute())
	assert.FileExists(t, filepath.Join(dir, config.ProjectConfigName))
}

func TestConfigCmd_RestoreListsBackups(t *testing.T) {
	isolateConfig(t)

	cmd := newConfigCmd()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"restore"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "No backups found")
}
