package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xpack-migrator/internal/migrate/realm"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, ".", cfg.InputDir)
	assert.Equal(t, "searchguard", cfg.OutputDir)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "console", cfg.LogFormat)
	assert.False(t, cfg.AllowCritical)
	assert.Equal(t, filepath.Join("searchguard", ReportFile), cfg.ReportPath())

	opts, err := cfg.RealmOptions()
	require.NoError(t, err)
	assert.Equal(t, realm.ScopeFallbackSub, opts.ScopeFallback)
}

func TestLoadFlags(t *testing.T) {
	v := viper.New()
	fs := pflag.NewFlagSet("migrate", pflag.ContinueOnError)
	require.NoError(t, RegisterFlags(v, fs))

	require.NoError(t, fs.Parse([]string{
		"-i", "in", "--output-dir", "out",
		"--roles", "/tmp/roles.yml",
		"--ldap-scope-fallback", "omit",
		"--allow-critical",
		"--log-format", "json",
	}))

	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, "in", cfg.InputDir)
	assert.Equal(t, "out", cfg.OutputDir)
	assert.True(t, cfg.AllowCritical)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "/tmp/roles.yml", cfg.InputPath(cfg.Roles, "roles.json"))
	assert.Equal(t, filepath.Join("in", "users.json"), cfg.InputPath(cfg.Users, "users.json"))

	opts, err := cfg.RealmOptions()
	require.NoError(t, err)
	assert.Equal(t, realm.ScopeFallbackOmit, opts.ScopeFallback)
}

func TestLoadEnvironment(t *testing.T) {
	t.Setenv("XPACK_MIGRATOR_OUTPUT_DIR", "from-env")
	t.Setenv("XPACK_MIGRATOR_LOG_LEVEL", "debug")

	cfg, err := Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.OutputDir)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "migrator.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
input_dir: /etc/xpack
ldap_scope_fallback: one
dump_ir: true
`), 0o600))

	v := viper.New()
	v.Set(KeyConfig, path)

	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, "/etc/xpack", cfg.InputDir)
	assert.Equal(t, "one", cfg.LDAPScopeFallback)
	assert.True(t, cfg.DumpIR)
}

func TestLoadMissingConfigFile(t *testing.T) {
	v := viper.New()
	v.Set(KeyConfig, filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := Load(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			InputDir:   ".",
			OutputDir:  "out",
			ReportFile: ReportFile,
			LogLevel:   "info",
			LogFormat:  "console",
		}
	}

	tests := []struct {
		name   string
		modify func(*Config)
		errs   []string
	}{
		{
			name:   "valid",
			modify: func(*Config) {},
		},
		{
			name:   "empty scope fallback is allowed",
			modify: func(c *Config) { c.LDAPScopeFallback = "" },
		},
		{
			name:   "unknown scope fallback",
			modify: func(c *Config) { c.LDAPScopeFallback = "base" },
			errs:   []string{`ldap_scope_fallback: must be one of [sub one omit], got "base"`},
		},
		{
			name: "several failures",
			modify: func(c *Config) {
				c.OutputDir = ""
				c.LogLevel = "verbose"
			},
			errs: []string{"output_dir: required", "log_level: must be one of [debug info warn error]"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.modify(&cfg)

			err := cfg.Validate()
			if len(tt.errs) == 0 {
				require.NoError(t, err)

				return
			}

			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalid))

			for _, msg := range tt.errs {
				assert.Contains(t, err.Error(), msg)
			}
		})
	}
}
