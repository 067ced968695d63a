package migrate

import (
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"xpack-migrator/internal/diagnostic"
	"xpack-migrator/internal/searchguard"
)

// ErrDuplicateFile is returned when two translators produce the same document.
var ErrDuplicateFile = errors.New("document produced twice")

// Result is the outcome of a migration.
type Result struct {
	// Configs are the produced documents in translator order.
	Configs []searchguard.Config
	// Report is the rendered migration report.
	Report string
	// Summary is the one-paragraph issue count.
	Summary string
	// Counts are the issue counts per severity.
	Counts diagnostic.Counts
}

// HasCritical returns true if any critical issue was reported.
func (r *Result) HasCritical() bool {
	return r.Counts.Critical > 0
}

// Config returns the produced document with the given file name.
func (r *Result) Config(fileName string) (searchguard.Config, bool) {
	for _, c := range r.Configs {
		if c.FileName() == fileName {
			return c, true
		}
	}

	return nil, false
}

// Migrator runs the translators of a registry.
type Migrator struct {
	registry *Registry
	logger   *zap.Logger
}

// MigratorOption configures a Migrator.
type MigratorOption func(*Migrator)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) MigratorOption {
	return func(m *Migrator) { m.logger = l }
}

// NewMigrator returns a migrator over registry.
func NewMigrator(registry *Registry, opts ...MigratorOption) *Migrator {
	m := &Migrator{registry: registry, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Migrate runs every translator against ctx. Issues are collected in rep.
func (m *Migrator) Migrate(ctx *Context, rep *diagnostic.Reporter) (*Result, error) {
	var configs []searchguard.Config

	seen := map[string]string{}

	for _, t := range m.registry.Translators() {
		m.logger.Debug("running translator", zap.String("translator", t.Name()))

		produced, err := t.Translate(ctx, rep)
		if err != nil {
			return nil, errors.Wrapf(err, "translator %s failed", t.Name())
		}

		for _, c := range produced {
			if prev, ok := seen[c.FileName()]; ok {
				return nil, errors.Wrapf(ErrDuplicateFile, "%s by %s and %s", c.FileName(), prev, t.Name())
			}

			seen[c.FileName()] = t.Name()
			configs = append(configs, c)
		}

		m.logger.Debug("translator finished",
			zap.String("translator", t.Name()),
			zap.Int("documents", len(produced)))
	}

	counts := rep.Counts()

	m.logger.Info("migration finished",
		zap.Int("files", len(configs)),
		zap.Int("critical", counts.Critical),
		zap.Int("inconvertible", counts.Inconvertible),
		zap.Int("problems", counts.Problem))

	return &Result{
		Configs: configs,
		Report:  rep.Render(),
		Summary: rep.Summary(),
		Counts:  counts,
	}, nil
}
