package migrate

import (
	"fmt"
	"strings"

	"xpack-migrator/internal/common"
	"xpack-migrator/internal/diagnostic"
	"xpack-migrator/internal/luceneregex"
	"xpack-migrator/internal/match"
	"xpack-migrator/internal/searchguard"
	"xpack-migrator/internal/trace"
	"xpack-migrator/internal/xpack"
)

// Kibana tenant action groups and the global tenant.
const (
	kibanaAllWrite = "SGS_KIBANA_ALL_WRITE"
	kibanaAllRead  = "SGS_KIBANA_ALL_READ"
	globalTenant   = "SGS_GLOBAL_TENANT"

	kibanaApplicationPrefix = "kibana-"
	spaceResourcePrefix     = "space:"
	featurePrivilegePrefix  = "feature_"
)

var kibanaPrivileges = map[string]string{
	"all":        kibanaAllWrite,
	"read":       kibanaAllRead,
	"space_all":  kibanaAllWrite,
	"space_read": kibanaAllRead,
}

var knownKibanaPrivileges = []string{"all", "read", "space_all", "space_read"}

// RolesTranslator produces sg_roles.yml and, when custom action groups are
// needed, sg_action_groups.yml.
type RolesTranslator struct{}

// NewRolesTranslator returns a roles translator.
func NewRolesTranslator() *RolesTranslator {
	return &RolesTranslator{}
}

// Name implements Translator.
func (*RolesTranslator) Name() string { return "roles" }

// Translate implements Translator.
func (*RolesTranslator) Translate(ctx *Context, rep *diagnostic.Reporter) ([]searchguard.Config, error) {
	roles, ok := ctx.Roles()
	if !ok {
		rep.ProblemMessage("Skipping roles migration: no roles provided")

		return nil, nil
	}

	reportRejected(rep, roles.Rejected)

	groups := NewActionGroupRegistry()
	out := &searchguard.Roles{}

	for _, r := range roles.Roles {
		t := &roleTranslation{rep: rep, groups: groups, role: r}
		if role, ok := t.translate(); ok {
			out.Roles = append(out.Roles, role)
		}
	}

	configs := []searchguard.Config{out}
	if groups.Len() > 0 {
		configs = append(configs, groups.Config())
	}

	return configs, nil
}

// roleTranslation translates one role.
type roleTranslation struct {
	rep    *diagnostic.Reporter
	groups *ActionGroupRegistry
	role   *xpack.Role
}

func (t *roleTranslation) translate() (*searchguard.Role, bool) {
	r := t.role

	if r.Reserved {
		t.rep.Inconvertible(trace.At(r.Source),
			fmt.Sprintf("Role '%s' is a reserved X-Pack role; Search Guard ships its own built-in roles", r.Name))

		return nil, false
	}

	if t.hasRemotePrivileges() {
		return nil, false
	}

	reportUnknown(t.rep, r.Unknown)

	if enabled, ok := r.TransientMetadataEnabled.Get(); ok && !enabled {
		t.rep.Critical(r.TransientMetadataEnabled,
			fmt.Sprintf("Role '%s' is disabled in X-Pack; it becomes active in Search Guard", r.Name))
	}

	if r.RunAs.IsPresent() {
		t.rep.Inconvertible(r.RunAs, "Search Guard has no run_as privilege; impersonation is configured in sg_authz instead")
	}

	if r.Global.IsPresent() {
		t.rep.Inconvertible(r.Global, "Global privileges have no Search Guard equivalent")
	}

	if md, ok := r.Metadata.Get(); ok && md.Kind() == trace.KindMap && len(md.Keys()) > 0 {
		t.rep.Inconvertible(r.Metadata, "Search Guard roles cannot carry metadata")
	}

	role := &searchguard.Role{Name: r.Name}

	if d, ok := r.Description.Get(); ok {
		role.Description = d
	}

	if cluster, ok := r.Cluster.Get(); ok {
		for _, p := range cluster {
			if name := t.privilege(p, searchguard.ActionGroupCluster); name != "" {
				role.ClusterPermissions = common.AppendUnique(role.ClusterPermissions, name)
			}
		}
	}

	if indices, ok := r.Indices.Get(); ok {
		for _, entry := range indices {
			if perm, ok := t.indexPermission(entry); ok {
				role.IndexPermissions = append(role.IndexPermissions, perm)
			}
		}
	}

	if apps, ok := r.Applications.Get(); ok {
		for _, entry := range apps {
			if perm, ok := t.tenantPermission(entry); ok {
				role.TenantPermissions = append(role.TenantPermissions, perm)
			}
		}
	}

	return role, true
}

func (t *roleTranslation) hasRemotePrivileges() bool {
	remote := false

	for _, o := range []trace.OptTraceable[*trace.Node]{t.role.RemoteIndices, t.role.RemoteCluster} {
		if o.IsPresent() {
			t.rep.Inconvertible(o, fmt.Sprintf("Remote cluster privileges are not supported; role '%s' was not migrated", t.role.Name))

			remote = true
		}
	}

	return remote
}

// privilege resolves one cluster or index privilege to an action group or
// action pattern. It returns "" when nothing is granted.
func (t *roleTranslation) privilege(p trace.Traceable[string], typ string) string {
	name, err := p.Value()
	if err != nil {
		return ""
	}

	if isRawAction(name) {
		return name
	}

	table, known, kind := indexPrivileges, knownIndexPrivileges, "index"
	if typ == searchguard.ActionGroupCluster {
		table, known, kind = clusterPrivileges, knownClusterPrivileges, "cluster"
	}

	entry, ok := table[name]
	if !ok {
		t.rep.Problem(p, fmt.Sprintf("Unknown %s privilege '%s' in role '%s' was not migrated.%s",
			kind, name, t.role.Name, match.DidYouMean(name, known)))

		return ""
	}

	switch entry.kind {
	case builtin:
		return entry.group
	case custom:
		return t.groups.Ensure(typ, name, entry.actions)
	case inconvertiblePrivilege:
		t.rep.Inconvertible(p, fmt.Sprintf("Privilege '%s' cannot be migrated: %s", name, entry.reason))

		return ""
	default:
		panic(fmt.Sprintf("unknown privilege kind %d", entry.kind))
	}
}

func (t *roleTranslation) indexPermission(entry trace.Traceable[xpack.IndexPrivileges]) (searchguard.IndexPermission, bool) {
	ip, err := entry.Value()
	if err != nil {
		return searchguard.IndexPermission{}, false
	}

	reportUnknown(t.rep, ip.Unknown)

	if restricted, ok := ip.AllowRestrictedIndices.Get(); ok && restricted {
		t.rep.Inconvertible(ip.AllowRestrictedIndices, "Search Guard protects its own indices separately; allow_restricted_indices was not migrated")
	}

	var perm searchguard.IndexPermission

	if names, err := ip.Names.Value(); err == nil {
		for _, n := range names {
			if pattern, ok := t.indexPattern(n); ok {
				perm.Patterns = common.AppendUnique(perm.Patterns, pattern)
			}
		}
	}

	if len(perm.Patterns) == 0 {
		t.rep.Problem(trace.At(entry.Source()), "No index pattern could be migrated; the permission was skipped")

		return perm, false
	}

	if privileges, err := ip.Privileges.Value(); err == nil {
		for _, p := range privileges {
			if name := t.privilege(p, searchguard.ActionGroupIndex); name != "" {
				perm.AllowedActions = common.AppendUnique(perm.AllowedActions, name)
			}
		}
	}

	if len(perm.AllowedActions) == 0 {
		t.rep.Problem(trace.At(entry.Source()), "No privilege could be migrated; the permission was skipped")

		return perm, false
	}

	perm.FLS = t.fieldSecurity(ip.FieldSecurity)
	perm.DLS = t.documentSecurity(ip.Query)

	return perm, true
}

// indexPattern converts a Lucene regex pattern. Other patterns are kept.
func (t *roleTranslation) indexPattern(n trace.Traceable[string]) (string, bool) {
	name, err := n.Value()
	if err != nil || common.IsBlank(name) {
		return "", false
	}

	if !luceneregex.IsRegex(name) {
		return name, true
	}

	converted, err := luceneregex.Convert(name)
	if err != nil {
		t.rep.Problem(n, fmt.Sprintf("Index pattern cannot be converted and was dropped: %v", err))

		return "", false
	}

	return converted, true
}

// fieldSecurity renders field_security as an FLS list: granted fields first,
// then excluded fields prefixed with '~'.
func (t *roleTranslation) fieldSecurity(fs trace.OptTraceable[xpack.FieldSecurity]) []string {
	sec, ok := fs.Get()
	if !ok {
		return nil
	}

	grantList, hasGrant := sec.Grant.Get()

	var grants []string

	for _, f := range grantList {
		field, err := f.Value()
		if err != nil {
			continue
		}

		if strings.HasPrefix(field, "~") {
			t.rep.Critical(f, "A granted field starting with '~' becomes an exclusion in Search Guard; it was removed")

			continue
		}

		grants = common.AppendUnique(grants, field)
	}

	var excepts []string

	if exceptList, ok := sec.Except.Get(); ok {
		for _, field := range exceptList.Values() {
			excepts = common.AppendUnique(excepts, "~"+field)
		}
	}

	if hasGrant && len(grantList) == 0 && len(excepts) == 0 {
		t.rep.Critical(sec.Grant, "An empty grant hides every field; Search Guard has no equivalent and the role would see all fields")

		return nil
	}

	if common.IsSingle(grants) && grants[0] == "*" {
		grants = nil
	}

	return append(grants, excepts...)
}

// tenantPermission maps a Kibana application privilege to tenants.
func (t *roleTranslation) tenantPermission(entry trace.Traceable[xpack.ApplicationPrivileges]) (searchguard.TenantPermission, bool) {
	var perm searchguard.TenantPermission

	app, err := entry.Value()
	if err != nil {
		return perm, false
	}

	name, err := app.Application.Value()
	if err != nil {
		return perm, false
	}

	if !strings.HasPrefix(name, kibanaApplicationPrefix) {
		t.rep.Inconvertible(app.Application, fmt.Sprintf("Privileges of application '%s' cannot be migrated", name))

		return perm, false
	}

	if privileges, err := app.Privileges.Value(); err == nil {
		for _, p := range privileges {
			if group := t.kibanaPrivilege(p); group != "" {
				perm.AllowedActions = common.AppendUnique(perm.AllowedActions, group)
			}
		}
	}

	if resources, err := app.Resources.Value(); err == nil {
		for _, r := range resources {
			if tenant := t.tenant(r); tenant != "" {
				perm.TenantPatterns = common.AppendUnique(perm.TenantPatterns, tenant)
			}
		}
	}

	if len(perm.AllowedActions) == 0 || len(perm.TenantPatterns) == 0 {
		t.rep.Problem(trace.At(entry.Source()),
			fmt.Sprintf("No tenant permission could be migrated for application '%s'", name))

		return perm, false
	}

	return perm, true
}

func (t *roleTranslation) kibanaPrivilege(p trace.Traceable[string]) string {
	name, err := p.Value()
	if err != nil {
		return ""
	}

	if group, ok := kibanaPrivileges[name]; ok {
		return group
	}

	if strings.HasPrefix(name, featurePrivilegePrefix) {
		t.rep.Inconvertible(p, "Kibana feature privileges have no Search Guard equivalent")

		return ""
	}

	t.rep.Problem(p, fmt.Sprintf("Unknown Kibana privilege '%s' was not migrated.%s", name, match.DidYouMean(name, knownKibanaPrivileges)))

	return ""
}

func (t *roleTranslation) tenant(r trace.Traceable[string]) string {
	resource, err := r.Value()
	if err != nil {
		return ""
	}

	switch {
	case resource == "*":
		return "*"
	case resource == spaceResourcePrefix+"default":
		return globalTenant
	case strings.HasPrefix(resource, spaceResourcePrefix) && len(resource) > len(spaceResourcePrefix):
		return strings.TrimPrefix(resource, spaceResourcePrefix)
	default:
		t.rep.Problem(r, fmt.Sprintf("Kibana resource '%s' does not name a space; it was dropped", resource))

		return ""
	}
}
