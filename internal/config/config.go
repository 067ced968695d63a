package config

import (
	"path/filepath"
	"reflect"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"xpack-migrator/internal/migrate/realm"
	"xpack-migrator/internal/xpack"
)

// EnvPrefix is the prefix of the environment variables read by Load.
const EnvPrefix = "XPACK_MIGRATOR"

// ReportFile is the default name of the migration report.
const ReportFile = "migration_report.md"

// Configuration keys.
const (
	KeyConfig            = "config"
	KeyInputDir          = "input_dir"
	KeyOutputDir         = "output_dir"
	KeyElasticsearch     = "elasticsearch"
	KeyKibana            = "kibana"
	KeyRoles             = "roles"
	KeyRoleMappings      = "role_mappings"
	KeyUsers             = "users"
	KeyReportFile        = "report_file"
	KeyLDAPScopeFallback = "ldap_scope_fallback"
	KeyAllowCritical     = "allow_critical"
	KeyDumpIR            = "dump_ir"
	KeyLogLevel          = "log_level"
	KeyLogFormat         = "log_format"
)

// ErrInvalid is returned by Load when the configuration fails validation.
var ErrInvalid = errors.New("invalid configuration")

// Config is the validated command line configuration.
type Config struct {
	// InputDir holds the X-Pack files under their default names.
	InputDir string `mapstructure:"input_dir" validate:"required"`
	// OutputDir receives the Search Guard files and the report.
	OutputDir string `mapstructure:"output_dir" validate:"required"`

	// Per-file paths override the default name inside InputDir.
	Elasticsearch string `mapstructure:"elasticsearch"`
	Kibana        string `mapstructure:"kibana"`
	Roles         string `mapstructure:"roles"`
	RoleMappings  string `mapstructure:"role_mappings"`
	Users         string `mapstructure:"users"`

	ReportFile        string `mapstructure:"report_file" validate:"required"`
	LDAPScopeFallback string `mapstructure:"ldap_scope_fallback" validate:"omitempty,oneof=sub one omit"`
	AllowCritical     bool   `mapstructure:"allow_critical"`
	DumpIR            bool   `mapstructure:"dump_ir"`
	LogLevel          string `mapstructure:"log_level" validate:"oneof=debug info warn error"`
	LogFormat         string `mapstructure:"log_format" validate:"oneof=console json"`
}

// SetDefaults registers the default of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyInputDir, ".")
	v.SetDefault(KeyOutputDir, "searchguard")
	v.SetDefault(KeyElasticsearch, "")
	v.SetDefault(KeyKibana, "")
	v.SetDefault(KeyRoles, "")
	v.SetDefault(KeyRoleMappings, "")
	v.SetDefault(KeyUsers, "")
	v.SetDefault(KeyReportFile, ReportFile)
	v.SetDefault(KeyLDAPScopeFallback, string(realm.ScopeFallbackSub))
	v.SetDefault(KeyAllowCritical, false)
	v.SetDefault(KeyDumpIR, false)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "console")
}

// RegisterFlags defines the migration flags on fs and binds them to v.
func RegisterFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	fs.StringP("config", "c", "", "Path to a YAML configuration file")
	fs.StringP("input-dir", "i", ".", "Directory with the X-Pack configuration files")
	fs.StringP("output-dir", "o", "searchguard", "Directory for the Search Guard configuration files")
	fs.String("elasticsearch", "", "Path to elasticsearch.yml (default <input-dir>/"+xpack.ElasticsearchFile+")")
	fs.String("kibana", "", "Path to kibana.yml (default <input-dir>/"+xpack.KibanaFile+")")
	fs.String("roles", "", "Path to the roles export (default <input-dir>/"+xpack.RolesFile+")")
	fs.String("role-mappings", "", "Path to the role mapping export (default <input-dir>/"+xpack.RoleMappingsFile+")")
	fs.String("users", "", "Path to the users export (default <input-dir>/"+xpack.UsersFile+")")
	fs.String("report-file", ReportFile, "Name of the migration report inside the output directory")
	fs.String("ldap-scope-fallback", string(realm.ScopeFallbackSub),
		"Scope for LDAP searches Search Guard cannot express: sub, one or omit")
	fs.Bool("allow-critical", false, "Write the output even if critical issues were found")
	fs.Bool("dump-ir", false, "Print the parsed X-Pack configuration with secret values masked")
	fs.String("log-level", "info", "Log level: debug, info, warn or error")
	fs.String("log-format", "console", "Log format: console or json")

	for key, flag := range map[string]string{
		KeyConfig:            "config",
		KeyInputDir:          "input-dir",
		KeyOutputDir:         "output-dir",
		KeyElasticsearch:     "elasticsearch",
		KeyKibana:            "kibana",
		KeyRoles:             "roles",
		KeyRoleMappings:      "role-mappings",
		KeyUsers:             "users",
		KeyReportFile:        "report-file",
		KeyLDAPScopeFallback: "ldap-scope-fallback",
		KeyAllowCritical:     "allow-critical",
		KeyDumpIR:            "dump-ir",
		KeyLogLevel:          "log-level",
		KeyLogFormat:         "log-format",
	} {
		if err := v.BindPFlag(key, fs.Lookup(flag)); err != nil {
			return errors.Wrapf(err, "failed to bind flag %s", flag)
		}
	}

	return nil
}

// Load reads the configuration from v, the environment and the config file
// named by the "config" key, then validates it.
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if file := v.GetString(KeyConfig); file != "" {
		v.SetConfigFile(file)

		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "failed to read config file %s", file)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to decode configuration")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the struct tags. All failures are returned together.
func (c *Config) Validate() error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		return strings.SplitN(f.Tag.Get("mapstructure"), ",", 2)[0]
	})

	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return errors.Wrap(err, "failed to validate configuration")
	}

	var result *multierror.Error

	for _, fe := range fieldErrs {
		if fe.Param() != "" {
			result = multierror.Append(result, errors.Newf("%s: must be one of [%s], got %q", fe.Field(), fe.Param(), fe.Value()))

			continue
		}

		result = multierror.Append(result, errors.Newf("%s: %s", fe.Field(), fe.Tag()))
	}

	return errors.Mark(result, ErrInvalid)
}

// InputPath returns the path of an input file: the explicit override, or
// name inside InputDir.
func (c *Config) InputPath(override, name string) string {
	if override != "" {
		return override
	}

	return filepath.Join(c.InputDir, name)
}

// ReportPath returns the path of the migration report.
func (c *Config) ReportPath() string {
	return filepath.Join(c.OutputDir, c.ReportFile)
}

// RealmOptions returns the realm translation policies.
func (c *Config) RealmOptions() (realm.Options, error) {
	fallback, err := realm.ParseScopeFallback(c.LDAPScopeFallback)
	if err != nil {
		return realm.Options{}, errors.Wrap(err, KeyLDAPScopeFallback)
	}

	opts := realm.DefaultOptions()
	opts.ScopeFallback = fallback

	return opts, nil
}
