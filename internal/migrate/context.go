package migrate

import (
	"xpack-migrator/internal/migrate/realm"
	"xpack-migrator/internal/xpack"
)

// Context is the immutable set of parsed inputs. Each input is optional.
type Context struct {
	users         *xpack.Users
	roles         *xpack.Roles
	roleMappings  *xpack.RoleMappings
	elasticsearch *xpack.ElasticsearchConfig
	kibana        *xpack.KibanaConfig
	options       realm.Options
}

// ContextOption sets one input of a Context.
type ContextOption func(*Context)

// WithUsers sets the native users.
func WithUsers(u *xpack.Users) ContextOption {
	return func(c *Context) { c.users = u }
}

// WithRoles sets the roles.
func WithRoles(r *xpack.Roles) ContextOption {
	return func(c *Context) { c.roles = r }
}

// WithRoleMappings sets the role mappings.
func WithRoleMappings(m *xpack.RoleMappings) ContextOption {
	return func(c *Context) { c.roleMappings = m }
}

// WithElasticsearch sets the elasticsearch.yml security section.
func WithElasticsearch(e *xpack.ElasticsearchConfig) ContextOption {
	return func(c *Context) { c.elasticsearch = e }
}

// WithKibana sets the kibana.yml security section.
func WithKibana(k *xpack.KibanaConfig) ContextOption {
	return func(c *Context) { c.kibana = k }
}

// WithOptions sets the realm translation policies.
func WithOptions(o realm.Options) ContextOption {
	return func(c *Context) { c.options = o }
}

// NewContext returns a context with the given inputs and default policies.
func NewContext(opts ...ContextOption) *Context {
	c := &Context{options: realm.DefaultOptions()}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Users returns the native users, if provided.
func (c *Context) Users() (*xpack.Users, bool) {
	return c.users, c.users != nil
}

// Roles returns the roles, if provided.
func (c *Context) Roles() (*xpack.Roles, bool) {
	return c.roles, c.roles != nil
}

// RoleMappings returns the role mappings, if provided.
func (c *Context) RoleMappings() (*xpack.RoleMappings, bool) {
	return c.roleMappings, c.roleMappings != nil
}

// Elasticsearch returns the elasticsearch.yml security section, if provided.
func (c *Context) Elasticsearch() (*xpack.ElasticsearchConfig, bool) {
	return c.elasticsearch, c.elasticsearch != nil
}

// Kibana returns the kibana.yml security section, if provided.
func (c *Context) Kibana() (*xpack.KibanaConfig, bool) {
	return c.kibana, c.kibana != nil
}

// Options returns the realm translation policies.
func (c *Context) Options() realm.Options {
	return c.options
}
