package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestConfig(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "log:\n  level: error\n  format: json\ncatalog:\n  path: " +
		filepath.Join(wd, "..", "..", "data", "catalog.yaml") + "\ncache:\n  enabled: false\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestAnalyzeCommand_UnreadableImage(t *testing.T) {
	configFile := writeTestConfig(t)
	image := filepath.Join(t.TempDir(), "receipt.jpg")
	require.NoError(t, os.WriteFile(image, []byte("not a photo"), 0o600))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs([]string{"--config", configFile, "analyze", image})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 1")

	var line map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &line))
	assert.Equal(t, image, line["file"])
	assert.Equal(t, false, line["success"])
	assert.Equal(t, []any{}, line["products"])
	assert.NotEmpty(t, line["error"])
}

func TestAnalyzeCommand_MissingFileDoesNotAbortBatch(t *testing.T) {
	configFile := writeTestConfig(t)
	dir := t.TempDir()
	missing := filepath.Join(dir, "missing.jpg")
	corrupt := filepath.Join(dir, "corrupt.jpg")
	require.NoError(t, os.WriteFile(corrupt, []byte("not a photo"), 0o600))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs([]string{"--config", configFile, "analyze", missing, corrupt})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 of 2")

	dec := json.NewDecoder(&out)
	for _, want := range []string{missing, corrupt} {
		var line map[string]any
		require.NoError(t, dec.Decode(&line))
		assert.Equal(t, want, line["file"])
		assert.Equal(t, false, line["success"])
		assert.NotEmpty(t, line["error"])
	}
}

func TestAnalyzeCommand_RequiresArguments(t *testing.T) {
	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs([]string{"--config", writeTestConfig(t), "analyze"})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	assert.Error(t, rootCmd.Execute())
}
