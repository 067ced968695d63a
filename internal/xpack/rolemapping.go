package xpack

import (
	"strings"

	"xpack-migrator/internal/trace"
)

// RoleMappingsFile is the default name of the role mapping export.
const RoleMappingsFile = "role_mapping.json"

// RoleMappings is the output of GET _security/role_mapping.
type RoleMappings struct {
	Source   trace.Source
	Mappings []*RoleMapping
	Rejected []Rejected
}

// RoleMapping assigns roles to users matched by Rules.
type RoleMapping struct {
	Name          string
	Source        trace.Source
	Enabled       trace.Traceable[bool]
	Roles         trace.OptTraceable[trace.List[string]]
	RoleTemplates trace.OptTraceable[trace.List[RoleTemplate]]
	Rules         trace.Traceable[Rule]
	Metadata      trace.OptTraceable[*trace.Node]
	Unknown       []Setting
}

// RoleTemplate is a mustache template that yields role names.
type RoleTemplate struct {
	TemplateSource trace.OptTraceable[string]
	TemplateID     trace.OptTraceable[string]
	Format         trace.OptTraceable[string]
}

// Rule matches users. The set of implementations is closed.
type Rule interface {
	isRule()
}

// FieldRule matches a user field against one or more values.
type FieldRule struct {
	Field       string
	FieldSource trace.Source
	Values      trace.List[string]
}

// AnyRule matches when one of Rules matches.
type AnyRule struct {
	Rules trace.List[Rule]
}

// AllRule matches when every one of Rules matches.
type AllRule struct {
	Rules trace.List[Rule]
}

// ExceptRule negates Rule.
type ExceptRule struct {
	Rule trace.Traceable[Rule]
}

func (*FieldRule) isRule()  {}
func (*AnyRule) isRule()    {}
func (*AllRule) isRule()    {}
func (*ExceptRule) isRule() {}

// RuleKinds are the keys a rule object may have.
var RuleKinds = []string{"any", "all", "except", "field"}

var ruleExpectation = "exactly one of: " + strings.Join(RuleKinds, ", ")

// ParseRoleMappings reads a role mapping document keyed by mapping name.
func ParseRoleMappings(file string, data []byte) (*RoleMappings, error) {
	out := &RoleMappings{Source: trace.NewConfig(file)}

	rejected, err := readNamed(file, data, "role mapping", func(name string, r *trace.Reader) error {
		m := parseRoleMapping(name, r)
		if err := r.Err(); err != nil {
			return err
		}

		out.Mappings = append(out.Mappings, m)

		return nil
	})
	if err != nil {
		return nil, err
	}

	out.Rejected = rejected

	return out, nil
}

func parseRoleMapping(name string, r *trace.Reader) *RoleMapping {
	m := &RoleMapping{
		Name:    name,
		Source:  r.Source(),
		Enabled: trace.WithDefault(r.Get("enabled"), trace.Bool, true),
		Roles:   optStrings(r, "roles"),
		RoleTemplates: trace.OptionalRecordList(r.Get("role_templates"), func(t *trace.Reader) RoleTemplate {
			return RoleTemplate{
				TemplateSource: optString(t, "template.source"),
				TemplateID:     optString(t, "template.id"),
				Format:         optString(t, "format"),
			}
		}),
		Rules:    trace.RequiredRecord(r.Get("rules"), buildRule),
		Metadata: optNode(r, "metadata"),
	}

	switch {
	case m.Roles.IsPresent() && m.RoleTemplates.IsPresent():
		r.Report(&trace.InvalidValueError{At: r.Source(), Expected: "either roles or role_templates, not both"})
	case !m.Roles.IsPresent() && !m.RoleTemplates.IsPresent():
		r.Report(&trace.MissingAttributeError{At: trace.NewAttribute(r.Source(), "roles")})
	}

	m.Unknown = unknown(r)

	return m
}

// buildRule parses one rule object. Errors are reported to r; the returned
// rule is nil when the object is invalid.
func buildRule(r *trace.Reader) Rule {
	keys := r.Keys()
	if len(keys) != 1 {
		for _, k := range keys {
			r.Entry(k)
		}

		r.Report(&trace.InvalidValueError{At: r.Source(), Expected: ruleExpectation, Actual: strings.Join(keys, ", ")})

		return nil
	}

	attr := r.Entry(keys[0])
	if !attr.Exists() {
		r.Report(&trace.MissingAttributeError{At: attr.Source()})

		return nil
	}

	switch keys[0] {
	case "any":
		rules, ok := trace.OptionalRecordList(attr, buildRule).Get()
		if !ok {
			return nil
		}

		return &AnyRule{Rules: rules}
	case "all":
		rules, ok := trace.OptionalRecordList(attr, buildRule).Get()
		if !ok {
			return nil
		}

		return &AllRule{Rules: rules}
	case "except":
		inner := trace.RequiredRecord(attr, buildRule)
		if !inner.IsValid() {
			return nil
		}

		return &ExceptRule{Rule: inner}
	case "field":
		field, err := trace.RequiredRecord(attr, buildFieldRule).Value()
		if err != nil {
			return nil
		}

		return field
	default:
		r.Report(&trace.InvalidValueError{At: attr.Source(), Expected: ruleExpectation, Actual: keys[0]})

		return nil
	}
}

func buildFieldRule(r *trace.Reader) Rule {
	keys := r.Keys()
	if len(keys) != 1 {
		for _, k := range keys {
			r.Entry(k)
		}

		r.Report(&trace.InvalidValueError{At: r.Source(), Expected: "exactly one field", Actual: strings.Join(keys, ", ")})

		return nil
	}

	attr := r.Entry(keys[0])

	values, err := trace.RequiredList(attr, trace.String).Value()
	if err != nil {
		return nil
	}

	return &FieldRule{Field: keys[0], FieldSource: attr.Source(), Values: values}
}
