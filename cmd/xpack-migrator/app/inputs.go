package app

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/davecgh/go-spew/spew"
	"go.uber.org/zap"

	"xpack-migrator/internal/config"
	"xpack-migrator/internal/migrate"
	"xpack-migrator/internal/migrate/realm"
	"xpack-migrator/internal/xpack"
)

// inputs are the parsed X-Pack files. Absent files stay nil.
type inputs struct {
	Elasticsearch *xpack.ElasticsearchConfig
	Kibana        *xpack.KibanaConfig
	Roles         *xpack.Roles
	RoleMappings  *xpack.RoleMappings
	Users         *xpack.Users
}

// inputFile lists where one input may live. An explicit path must exist;
// default locations are tried in order and may all be missing.
type inputFile struct {
	paths    []string
	explicit bool
}

func locate(cfg *config.Config, override string, names ...string) inputFile {
	if override != "" {
		return inputFile{paths: []string{override}, explicit: true}
	}

	f := inputFile{}
	for _, name := range names {
		f.paths = append(f.paths, filepath.Join(cfg.InputDir, name))
	}

	return f
}

func load[T any](log *zap.Logger, f inputFile, parse func(file string, data []byte) (*T, error)) (*T, error) {
	for _, path := range f.paths {
		data, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) && !f.explicit {
			continue
		}

		if err != nil {
			return nil, errors.Wrapf(err, "failed to read %s", path)
		}

		v, err := parse(filepath.Base(path), data)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse %s", path)
		}

		log.Info("loaded input", zap.String("path", path))

		return v, nil
	}

	log.Debug("input not found", zap.Strings("paths", f.paths))

	return nil, nil
}

func loadInputs(cfg *config.Config, log *zap.Logger) (*inputs, error) {
	var (
		in  inputs
		err error
	)

	if in.Elasticsearch, err = load(log, locate(cfg, cfg.Elasticsearch, xpack.ElasticsearchFile),
		xpack.ParseElasticsearch); err != nil {
		return nil, err
	}

	if in.Kibana, err = load(log, locate(cfg, cfg.Kibana, xpack.KibanaFile), xpack.ParseKibana); err != nil {
		return nil, err
	}

	if in.Roles, err = load(log, locate(cfg, cfg.Roles, xpack.RolesFile, "roles.yml", "roles.yaml"),
		xpack.ParseRoles); err != nil {
		return nil, err
	}

	if in.RoleMappings, err = load(log, locate(cfg, cfg.RoleMappings, xpack.RoleMappingsFile),
		xpack.ParseRoleMappings); err != nil {
		return nil, err
	}

	if in.Users, err = load(log, locate(cfg, cfg.Users, xpack.UsersFile), xpack.ParseUsers); err != nil {
		return nil, err
	}

	return &in, nil
}

func (in *inputs) context(opts realm.Options) *migrate.Context {
	return migrate.NewContext(
		migrate.WithElasticsearch(in.Elasticsearch),
		migrate.WithKibana(in.Kibana),
		migrate.WithRoles(in.Roles),
		migrate.WithRoleMappings(in.RoleMappings),
		migrate.WithUsers(in.Users),
		migrate.WithOptions(opts),
	)
}

// dump prints the parsed inputs for debugging. Traceables render through their
// String method, which masks secret values.
func (in *inputs) dump(w io.Writer) {
	cs := spew.ConfigState{
		Indent:                  "  ",
		DisablePointerAddresses: true,
		DisableCapacities:       true,
		SortKeys:                true,
	}

	cs.Fdump(w, in)
}
