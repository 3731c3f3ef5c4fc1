package main

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elit-parking/campaign-cli/internal/config"
)

// loadTestConfig loads defaults from an empty temp dir into the global cfg.
func loadTestConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) }) //nolint:errcheck

	prev := cfg
	c, err := config.Load()
	require.NoError(t, err)
	cfg = c
	cfg.Output.Dir = dir
	t.Cleanup(func() { cfg = prev })
	return dir
}

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, name := range []string{"prepare", "send", "templates"} {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "campaign-cli", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestPrepareCommand_Flags(t *testing.T) {
	for _, name := range []string{"input", "output-dir", "all-countries", "seed"} {
		assert.NotNil(t, prepareCmd.Flags().Lookup(name), "prepare should have --%s flag", name)
	}
}

func TestSendCommand_Flags(t *testing.T) {
	group := sendCmd.Flags().Lookup("group")
	require.NotNil(t, group)
	assert.Equal(t, "ALL", group.DefValue)

	limit := sendCmd.Flags().Lookup("limit")
	require.NotNil(t, limit)
	assert.Equal(t, "-1", limit.DefValue)

	for _, name := range []string{"input", "test", "yes", "output-dir"} {
		assert.NotNil(t, sendCmd.Flags().Lookup(name), "send should have --%s flag", name)
	}
}

func TestTemplatesCommand_Flags(t *testing.T) {
	format := templatesCmd.Flags().Lookup("format")
	require.NotNil(t, format)
	assert.Equal(t, "yaml", format.DefValue)
	assert.NotNil(t, templatesCmd.Flags().Lookup("verify"))
}

func TestNewTwilioClient(t *testing.T) {
	c := newTwilioClient(config.TwilioConfig{AccountSID: "AC1", AuthToken: "tok", BaseURL: "http://localhost", TimeoutSecs: 5})
	assert.NotNil(t, c)
}

func TestOutputDir(t *testing.T) {
	dir := loadTestConfig(t)
	assert.Equal(t, dir, outputDir(""))
	assert.Equal(t, "custom", outputDir("custom"))
}
