package searchguard

import (
	"slices"
)

// File names of the Search Guard configuration documents.
const (
	AuthCFile         = "sg_authc.yml"
	FrontendAuthCFile = "sg_frontend_authc.yml"
	RolesFile         = "sg_roles.yml"
	RolesMappingFile  = "sg_roles_mapping.yml"
	InternalUsersFile = "sg_internal_users.yml"
	ActionGroupsFile  = "sg_action_groups.yml"
)

// Config is one Search Guard configuration document.
type Config interface {
	// FileName returns the canonical file name of the document.
	FileName() string
	// Document renders the document into its canonical ordered form.
	Document() *Document
}

// AuthDomain is one entry of an auth_domains list.
type AuthDomain struct {
	Type  string
	Label string
	// Config holds the type specific keys in dotted form, e.g. "ldap.idp.hosts".
	Config *Document
}

// NewAuthDomain returns a domain with an empty config.
func NewAuthDomain(typ string) AuthDomain {
	return AuthDomain{Type: typ, Config: NewDocument()}
}

func (a AuthDomain) document() *Document {
	doc := NewDocument().Set("type", a.Type)
	if a.Label != "" {
		doc.Set("label", a.Label)
	}

	if a.Config != nil {
		for _, k := range a.Config.Keys() {
			v, _ := a.Config.Get(k)
			doc.Set(k, v)
		}
	}

	return doc
}

func domainDocuments(domains []AuthDomain) []*Document {
	out := make([]*Document, 0, len(domains))
	for _, d := range domains {
		out = append(out, d.document())
	}

	return out
}

// AuthC is sg_authc.yml.
type AuthC struct {
	Domains []AuthDomain
}

// FileName implements Config.
func (*AuthC) FileName() string { return AuthCFile }

// Document implements Config.
func (a *AuthC) Document() *Document {
	return NewDocument().Set("auth_domains", domainDocuments(a.Domains))
}

// FrontendAuthC is sg_frontend_authc.yml. All domains belong to the default
// configuration.
type FrontendAuthC struct {
	Domains []AuthDomain
}

// FileName implements Config.
func (*FrontendAuthC) FileName() string { return FrontendAuthCFile }

// Document implements Config.
func (f *FrontendAuthC) Document() *Document {
	return NewDocument().Set("default", NewDocument().Set("auth_domains", domainDocuments(f.Domains)))
}

// IndexPermission grants actions on index, alias or data stream patterns.
type IndexPermission struct {
	Patterns       []string
	AllowedActions []string
	DLS            string
	FLS            []string
}

func (p IndexPermission) document(patternKey string) *Document {
	doc := NewDocument().
		Set(patternKey, nonNil(p.Patterns)).
		Set("allowed_actions", nonNil(p.AllowedActions))

	if p.DLS != "" {
		doc.Set("dls", p.DLS)
	}

	if len(p.FLS) > 0 {
		doc.Set("fls", p.FLS)
	}

	return doc
}

// TenantPermission grants Kibana actions on tenants.
type TenantPermission struct {
	TenantPatterns []string
	AllowedActions []string
}

// Role is one entry of sg_roles.yml.
type Role struct {
	Name                  string
	Description           string
	ClusterPermissions    []string
	IndexPermissions      []IndexPermission
	AliasPermissions      []IndexPermission
	DataStreamPermissions []IndexPermission
	TenantPermissions     []TenantPermission
}

func (r *Role) document() *Document {
	doc := NewDocument()
	if r.Description != "" {
		doc.Set("description", r.Description)
	}

	doc.Set("cluster_permissions", nonNil(r.ClusterPermissions))

	permissions := func(key, patternKey string, perms []IndexPermission) {
		if len(perms) == 0 {
			return
		}

		docs := make([]*Document, 0, len(perms))
		for _, p := range perms {
			docs = append(docs, p.document(patternKey))
		}

		doc.Set(key, docs)
	}

	permissions("index_permissions", "index_patterns", r.IndexPermissions)
	permissions("alias_permissions", "alias_patterns", r.AliasPermissions)
	permissions("data_stream_permissions", "data_stream_patterns", r.DataStreamPermissions)

	if len(r.TenantPermissions) > 0 {
		docs := make([]*Document, 0, len(r.TenantPermissions))
		for _, t := range r.TenantPermissions {
			docs = append(docs, NewDocument().
				Set("tenant_patterns", nonNil(t.TenantPatterns)).
				Set("allowed_actions", nonNil(t.AllowedActions)))
		}

		doc.Set("tenant_permissions", docs)
	}

	return doc
}

// Roles is sg_roles.yml. Roles render in insertion order.
type Roles struct {
	Roles []*Role
}

// FileName implements Config.
func (*Roles) FileName() string { return RolesFile }

// Document implements Config.
func (r *Roles) Document() *Document {
	doc := NewDocument()
	for _, role := range r.Roles {
		doc.Set(role.Name, role.document())
	}

	return doc
}

// RoleMapping assigns a role to users, backend roles, hosts and IPs.
type RoleMapping struct {
	Users        []string
	BackendRoles []string
	Hosts        []string
	IPs          []string
}

// IsEmpty returns true if the mapping matches nobody.
func (m RoleMapping) IsEmpty() bool {
	return len(m.Users) == 0 && len(m.BackendRoles) == 0 && len(m.Hosts) == 0 && len(m.IPs) == 0
}

func (m *RoleMapping) document() *Document {
	doc := NewDocument()

	for _, kv := range []struct {
		key    string
		values []string
	}{
		{"users", m.Users},
		{"backend_roles", m.BackendRoles},
		{"hosts", m.Hosts},
		{"ips", m.IPs},
	} {
		if len(kv.values) > 0 {
			doc.Set(kv.key, kv.values)
		}
	}

	return doc
}

// RolesMapping is sg_roles_mapping.yml, keyed by role name.
type RolesMapping struct {
	roles    []string
	mappings map[string]*RoleMapping
}

// NewRolesMapping returns an empty document.
func NewRolesMapping() *RolesMapping {
	return &RolesMapping{mappings: map[string]*RoleMapping{}}
}

// Roles returns the mapped role names in first-seen order.
func (m *RolesMapping) Roles() []string {
	return slices.Clone(m.roles)
}

// Mapping returns the mapping of role.
func (m *RolesMapping) Mapping(role string) (*RoleMapping, bool) {
	rm, ok := m.mappings[role]

	return rm, ok
}

// FileName implements Config.
func (*RolesMapping) FileName() string { return RolesMappingFile }

// Document implements Config.
func (m *RolesMapping) Document() *Document {
	doc := NewDocument()
	for _, role := range m.roles {
		doc.Set(role, m.mappings[role].document())
	}

	return doc
}

// InternalUser is one entry of sg_internal_users.yml.
type InternalUser struct {
	Name             string
	Hash             string
	SearchGuardRoles []string
	Attributes       *Document
	Description      string
}

func (u *InternalUser) document() *Document {
	doc := NewDocument()
	if u.Hash != "" {
		doc.Set("hash", u.Hash)
	}

	if len(u.SearchGuardRoles) > 0 {
		doc.Set("search_guard_roles", u.SearchGuardRoles)
	}

	if u.Attributes != nil && u.Attributes.Len() > 0 {
		doc.Set("attributes", u.Attributes)
	}

	if u.Description != "" {
		doc.Set("description", u.Description)
	}

	return doc
}

// InternalUsers is sg_internal_users.yml.
type InternalUsers struct {
	Users []*InternalUser
}

// FileName implements Config.
func (*InternalUsers) FileName() string { return InternalUsersFile }

// Document implements Config.
func (u *InternalUsers) Document() *Document {
	doc := NewDocument()
	for _, user := range u.Users {
		doc.Set(user.Name, user.document())
	}

	return doc
}

// Action group types.
const (
	ActionGroupCluster = "cluster"
	ActionGroupIndex   = "index"
	ActionGroupKibana  = "kibana"
)

// ActionGroup is a named bundle of action patterns.
type ActionGroup struct {
	Name           string
	Type           string
	Description    string
	AllowedActions []string
}

// ActionGroups is sg_action_groups.yml.
type ActionGroups struct {
	Groups []*ActionGroup
}

// FileName implements Config.
func (*ActionGroups) FileName() string { return ActionGroupsFile }

// Document implements Config.
func (a *ActionGroups) Document() *Document {
	doc := NewDocument()
	for _, g := range a.Groups {
		doc.Set(g.Name, NewDocument().
			Set("type", g.Type).
			Set("description", g.Description).
			Set("allowed_actions", nonNil(g.AllowedActions)))
	}

	return doc
}

// Group returns the group with the given name.
func (a *ActionGroups) Group(name string) (*ActionGroup, bool) {
	for _, g := range a.Groups {
		if g.Name == name {
			return g, true
		}
	}

	return nil, false
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}

	return s
}
