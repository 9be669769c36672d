package main

import (
	"os"
	"path/filepath"
	"testing"

	stderrors "errors"

	"github.com/mcncl/pastecs/internal/config"
	"github.com/mcncl/pastecs/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// withCLI resets the package-level CLI state around a test.
func withCLI(t *testing.T, configure func()) {
	t.Helper()
	saved := CLI
	t.Cleanup(func() { CLI = saved })

	CLI.File = ""
	CLI.Output = ""
	CLI.RootName = config.DefaultRootName
	CLI.Namespace = ""
	CLI.Schema = false
	CLI.Config = ""
	CLI.MaxDepth = config.DefaultMaxDepth
	CLI.Debug = false
	CLI.Interactive = false

	configure()
}

func writeTempJSON(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func runToFile(t *testing.T, cfg *config.Config) string {
	t.Helper()
	CLI.Output = filepath.Join(t.TempDir(), "output.cs")

	require.NoError(t, run(&Context{Config: cfg}))

	data, err := os.ReadFile(CLI.Output)
	require.NoError(t, err)
	return string(data)
}

func TestRun_FileToFile(t *testing.T) {
	withCLI(t, func() {
		CLI.File = writeTempJSON(t, `{"menu":{"header":"SVG Viewer","items":[{"id":"Open","label":"Open"},{"id":"OpenNew","label":"Open New"}]}}`)
	})

	code := runToFile(t, config.NewConfig())

	expected := `public class Root
{
    public Menu menu { get; set; }
}

public class Menu
{
    public string header { get; set; }
    public Items[] items { get; set; }
}

public class Items
{
    public string id { get; set; }
    public string label { get; set; }
}
`
	assert.Equal(t, expected, code)
}

func TestRun_CustomRootNameAndNamespace(t *testing.T) {
	withCLI(t, func() {
		CLI.File = writeTempJSON(t, `{"name": "x"}`)
	})

	cfg := config.NewConfig()
	cfg.RootName = "Person"
	cfg.Output.Namespace = "My.Models"

	code := runToFile(t, cfg)
	assert.Contains(t, code, "namespace My.Models\n{\n")
	assert.Contains(t, code, "    public class Person\n")
	assert.Contains(t, code, "        public string name { get; set; }\n")
}

func TestRun_InvalidJSONFile(t *testing.T) {
	withCLI(t, func() {
		CLI.File = writeTempJSON(t, `{"broken": `)
	})

	err := run(&Context{Config: config.NewConfig()})
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrInvalidJSON))
}

func TestRun_FileNotFound(t *testing.T) {
	withCLI(t, func() {
		CLI.File = filepath.Join(t.TempDir(), "missing.json")
	})

	err := run(&Context{Config: config.NewConfig()})
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrFileNotFound))
}

func TestRun_ArrayRootRejected(t *testing.T) {
	withCLI(t, func() {
		CLI.File = writeTempJSON(t, `[1, 2, 3]`)
	})

	err := run(&Context{Config: config.NewConfig()})
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.ErrUnsupportedRoot))
}

func TestRun_SchemaMode(t *testing.T) {
	withCLI(t, func() {
		CLI.File = writeTempJSON(t, `{
			"title": "user",
			"type": "object",
			"properties": {
				"id": {"type": "integer"},
				"name": {"type": "string"}
			},
			"required": ["id", "name"]
		}`)
		CLI.Schema = true
	})

	code := runToFile(t, config.NewConfig())
	assert.Contains(t, code, "public class User\n")
	assert.Contains(t, code, "public int id { get; set; }")
	assert.Contains(t, code, "public string name { get; set; }")
}

func TestRun_SchemaModeInvalidSchema(t *testing.T) {
	withCLI(t, func() {
		CLI.File = writeTempJSON(t, `{"type": `)
		CLI.Schema = true
	})

	err := run(&Context{Config: config.NewConfig()})
	assert.Error(t, err)
}

func TestLoadConfig_CLIFlagsOverrideFile(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, ".pastecs.yml")
	require.NoError(t, os.WriteFile(configPath, []byte("root_name: FromFile\nmax_depth: 64\n"), 0644))

	withCLI(t, func() {
		CLI.Config = configPath
		CLI.RootName = "FromFlag"
	})

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "FromFlag", cfg.RootName, "an explicit flag beats the config file")
	assert.Equal(t, 64, cfg.MaxDepth, "a flag left at its default does not")
}

func TestLoadConfig_DefaultsWithoutFile(t *testing.T) {
	withCLI(t, func() {})

	// Run from an empty directory so the config lookup cannot pick up a
	// real config file from the working tree.
	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	defer func() {
		require.NoError(t, os.Chdir(cwd))
	}()

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, config.DefaultRootName, cfg.RootName)
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	withCLI(t, func() {
		CLI.Config = filepath.Join(t.TempDir(), "missing.yml")
	})

	_, err := loadConfig()
	assert.Error(t, err)
}
