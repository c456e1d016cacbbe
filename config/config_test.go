package config

import (
	"log/slog"
	"os"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zoobzio/stmtql"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(afero.NewMemMapFs(), "")
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Dialect)
	assert.Equal(t, "bind", cfg.ParameterStyle)
	assert.False(t, cfg.MinifyAliases)
}

func TestLoad_File(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/etc/stmtql.yaml", []byte(`
dialect: mssql
database_version: "10.50.0"
parameter_style: replacement
minify_aliases: true
log_level: debug
`), 0o644))

	cfg, err := Load(fs, "/etc/stmtql.yaml")
	require.NoError(t, err)
	assert.Equal(t, "mssql", cfg.Dialect)
	assert.Equal(t, "10.50.0", cfg.DatabaseVersion)
	assert.True(t, cfg.MinifyAliases)

	level, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)

	c, err := cfg.Compiler()
	require.NoError(t, err)
	assert.Equal(t, stmtql.MSSQL, c.Dialect())
	assert.False(t, c.Capabilities().OffsetFetch)
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "stmtql.yaml", []byte("dialect: mysql\n"), 0o644))
	t.Setenv("STMTQL_DIALECT", "sqlite")

	cfg, err := Load(fs, "stmtql.yaml")
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Dialect)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(afero.NewMemMapFs(), "nope.yaml")
		assert.Error(t, err)
	})

	t.Run("invalid values", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, "bad.yaml", []byte("dialect: oracle\nparameter_style: inline\n"), 0o644))

		_, err := Load(fs, "bad.yaml")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "oracle")
		assert.Contains(t, err.Error(), "inline")
	})
}

func TestConfig_Compiler(t *testing.T) {
	cfg := &Config{Dialect: "pg", ParameterStyle: "replacement", LogLevel: "info"}
	c, err := cfg.Compiler()
	require.NoError(t, err)

	st, err := c.Select(stmtql.QueryDescriptor{
		Table:       &stmtql.TableRef{Name: "events"},
		FindOptions: stmtql.FindOptions{Where: stmtql.WhereOptions{"kind": "login"}},
	})
	require.NoError(t, err)
	assert.Equal(t, `SELECT * FROM "events" WHERE "kind" = 'login';`, st.Query)
	assert.Nil(t, st.Bind)
}

func TestConfig_CompilerBadVersion(t *testing.T) {
	cfg := &Config{Dialect: "sqlite", DatabaseVersion: "three", LogLevel: "info"}
	_, err := cfg.Compiler()
	assert.Error(t, err)
}

func TestLoadEnvFiles(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "proj/.env", []byte("STMTQL_TEST_A=from-env\nSTMTQL_TEST_B=from-env\nSTMTQL_TEST_C=from-env\n"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "proj/.env.local", []byte("STMTQL_TEST_B=from-local\n"), 0o644))

	t.Setenv("STMTQL_TEST_C", "preset")
	for _, k := range []string{"STMTQL_TEST_A", "STMTQL_TEST_B"} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}

	require.NoError(t, LoadEnvFiles(fs, "proj"))
	assert.Equal(t, "from-env", os.Getenv("STMTQL_TEST_A"))
	assert.Equal(t, "from-local", os.Getenv("STMTQL_TEST_B"))
	assert.Equal(t, "preset", os.Getenv("STMTQL_TEST_C"))
}

func TestLoadEnvFiles_Missing(t *testing.T) {
	assert.NoError(t, LoadEnvFiles(afero.NewMemMapFs(), "empty"))
}
