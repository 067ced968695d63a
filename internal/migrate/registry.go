package migrate

import (
	"slices"

	"xpack-migrator/internal/diagnostic"
	"xpack-migrator/internal/searchguard"
)

// Translator converts one part of the X-Pack configuration.
type Translator interface {
	// Name identifies the translator in logs.
	Name() string
	// Translate returns the documents produced from ctx. Findings go to rep;
	// an error means the translator itself failed.
	Translate(ctx *Context, rep *diagnostic.Reporter) ([]searchguard.Config, error)
}

// Registry is an ordered list of translators.
type Registry struct {
	translators []Translator
}

// NewRegistry returns a registry holding ts in order.
func NewRegistry(ts ...Translator) *Registry {
	return &Registry{translators: slices.Clone(ts)}
}

// DefaultRegistry returns a registry with every built-in translator.
func DefaultRegistry() *Registry {
	return NewRegistry(
		&AuthTranslator{},
		&FrontendAuthTranslator{},
		NewRolesTranslator(),
		&RoleMappingsTranslator{},
		&UsersTranslator{},
		&TLSTranslator{},
	)
}

// Register appends t.
func (r *Registry) Register(t Translator) {
	r.translators = append(r.translators, t)
}

// Translators returns the registered translators in order.
func (r *Registry) Translators() []Translator {
	return slices.Clone(r.translators)
}
