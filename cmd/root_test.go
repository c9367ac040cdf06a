package cmd

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/marketing-site/internal/config"
)

func stubConfig(t *testing.T, fn func(string) (config.Config, error)) {
	t.Helper()
	orig := loadConfig
	loadConfig = fn
	t.Cleanup(func() { loadConfig = orig })
}

func TestRootRegistersSubcommands(t *testing.T) {
	root := newRootCmd()
	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	require.Contains(t, names, "serve")
	require.Contains(t, names, "migrate")
	require.NotNil(t, root.PersistentFlags().Lookup("config"))
}

func TestMigrateRejectsMemoryDriver(t *testing.T) {
	var gotPath string
	stubConfig(t, func(path string) (config.Config, error) {
		gotPath = path
		return config.Config{Database: config.DatabaseConfig{Driver: "memory"}}, nil
	})

	root := newRootCmd()
	root.SetArgs([]string{"migrate", "--config", "site.yaml"})
	err := root.Execute()

	require.ErrorContains(t, err, "database.driver=postgres")
	require.Equal(t, "site.yaml", gotPath)
}

func TestConfigErrorsSurface(t *testing.T) {
	stubConfig(t, func(string) (config.Config, error) {
		return config.Config{}, errors.New("server.port must be > 0")
	})

	root := newRootCmd()
	root.SetArgs([]string{"serve"})
	require.ErrorContains(t, root.Execute(), "load config: server.port")
}
