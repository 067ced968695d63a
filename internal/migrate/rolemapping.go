package migrate

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"

	"xpack-migrator/internal/common"
	"xpack-migrator/internal/diagnostic"
	"xpack-migrator/internal/luceneregex"
	"xpack-migrator/internal/match"
	"xpack-migrator/internal/searchguard"
	"xpack-migrator/internal/trace"
	"xpack-migrator/internal/xpack"
)

// Rule fields understood by the role mapping translator.
const (
	fieldUsername  = "username"
	fieldDN        = "dn"
	fieldGroups    = "groups"
	fieldHost      = "host"
	fieldRemoteIP  = "remote_ip"
	fieldRealmName = "realm.name"

	metadataFieldPrefix = "metadata."
)

var knownRuleFields = []string{fieldDN, fieldGroups, fieldHost, fieldRealmName, fieldRemoteIP, fieldUsername}

// RoleMappingsTranslator produces sg_roles_mapping.yml.
type RoleMappingsTranslator struct{}

// Name implements Translator.
func (*RoleMappingsTranslator) Name() string { return "role mappings" }

// Translate implements Translator.
func (*RoleMappingsTranslator) Translate(ctx *Context, rep *diagnostic.Reporter) ([]searchguard.Config, error) {
	mappings, ok := ctx.RoleMappings()
	if !ok {
		rep.ProblemMessage("Skipping role mapping migration: no role mappings provided")

		return nil, nil
	}

	reportRejected(rep, mappings.Rejected)

	out := searchguard.NewRolesMapping()

	for _, m := range mappings.Mappings {
		identities, ok := translateMapping(m, rep)
		if !ok {
			continue
		}

		roles, _ := m.Roles.Get()
		for _, role := range roles.Values() {
			if err := out.Add(role, identities); err != nil {
				return nil, errors.Wrapf(err, "role mapping %q", m.Name)
			}
		}
	}

	return []searchguard.Config{out}, nil
}

// translateMapping collects the identities a mapping matches. It returns false
// when the mapping is excluded.
func translateMapping(m *xpack.RoleMapping, rep *diagnostic.Reporter) (searchguard.RoleMapping, bool) {
	var identities searchguard.RoleMapping

	if enabled, err := m.Enabled.Value(); err == nil && !enabled {
		rep.Problem(m.Enabled, fmt.Sprintf("Role mapping '%s' is disabled; it was not migrated", m.Name))

		return identities, false
	}

	if m.RoleTemplates.IsPresent() {
		rep.Problem(m.RoleTemplates, fmt.Sprintf("Role templates cannot be migrated; role mapping '%s' was excluded", m.Name))

		return identities, false
	}

	reportUnknown(rep, m.Unknown)

	if md, ok := m.Metadata.Get(); ok && md.Kind() == trace.KindMap && len(md.Keys()) > 0 {
		rep.Inconvertible(m.Metadata, "Search Guard role mappings cannot carry metadata")
	}

	rule, err := m.Rules.Value()
	if err != nil {
		return identities, false
	}

	w := &ruleWalker{rep: rep, mapping: m.Name}
	w.walk(rule, m.Rules.Source(), &identities)

	if identities.IsEmpty() {
		rep.Problem(trace.At(m.Source), fmt.Sprintf("Role mapping '%s' matches no user, backend role, host or IP; it was excluded", m.Name))

		return identities, false
	}

	return identities, true
}

// ruleWalker flattens a rule tree into identities. Only disjunctions can be
// expressed in Search Guard.
type ruleWalker struct {
	rep     *diagnostic.Reporter
	mapping string
}

func (w *ruleWalker) walk(rule xpack.Rule, src trace.Source, out *searchguard.RoleMapping) {
	switch r := rule.(type) {
	case nil:
		return
	case *xpack.AnyRule:
		for _, child := range r.Rules {
			if c, err := child.Value(); err == nil {
				w.walk(c, child.Source(), out)
			}
		}
	case *xpack.AllRule:
		w.rep.Problem(trace.At(src), "Search Guard role mappings cannot require all of several conditions; the 'all' rule was skipped")
	case *xpack.ExceptRule:
		w.rep.Problem(trace.At(src), "Search Guard role mappings cannot negate a condition; the 'except' rule was skipped")
	case *xpack.FieldRule:
		w.field(r, out)
	default:
		panic(fmt.Sprintf("unknown rule type %T", rule))
	}
}

func (w *ruleWalker) field(r *xpack.FieldRule, out *searchguard.RoleMapping) {
	var target *[]string

	switch {
	case r.Field == fieldUsername || r.Field == fieldDN:
		target = &out.Users
	case r.Field == fieldGroups:
		target = &out.BackendRoles
	case r.Field == fieldHost:
		target = &out.Hosts
	case r.Field == fieldRemoteIP:
		target = &out.IPs
	case r.Field == fieldRealmName:
		w.rep.Problem(trace.At(r.FieldSource), "Search Guard role mappings cannot match on the realm; the rule was ignored")

		return
	case strings.HasPrefix(r.Field, metadataFieldPrefix):
		w.rep.Inconvertible(trace.At(r.FieldSource), "Search Guard role mappings cannot match on user metadata")

		return
	default:
		w.rep.Problem(trace.At(r.FieldSource), fmt.Sprintf("Unknown field '%s' in role mapping '%s'; the rule was ignored.%s",
			r.Field, w.mapping, match.DidYouMean(r.Field, knownRuleFields)))

		return
	}

	for _, v := range r.Values {
		if value, ok := w.value(v); ok {
			*target = common.AppendUnique(*target, value)
		}
	}
}

// value converts a /regex/ value; other values are kept.
func (w *ruleWalker) value(v trace.Traceable[string]) (string, bool) {
	s, err := v.Value()
	if err != nil || common.IsBlank(s) {
		return "", false
	}

	if !luceneregex.IsRegex(s) {
		return s, true
	}

	converted, err := luceneregex.Convert(s)
	if err != nil {
		w.rep.Problem(v, fmt.Sprintf("Value cannot be converted and was dropped: %v", err))

		return "", false
	}

	return converted, true
}
