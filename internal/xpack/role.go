package xpack

import (
	"xpack-migrator/internal/trace"
)

// RolesFile is the default name of the roles export.
const RolesFile = "roles.json"

// Roles is the output of GET _security/role.
type Roles struct {
	Source   trace.Source
	Roles    []*Role
	Rejected []Rejected
}

// Role is one X-Pack role.
type Role struct {
	Name                     string
	Source                   trace.Source
	Description              trace.OptTraceable[string]
	Cluster                  trace.OptTraceable[trace.List[string]]
	Indices                  trace.OptTraceable[trace.List[IndexPrivileges]]
	Applications             trace.OptTraceable[trace.List[ApplicationPrivileges]]
	RunAs                    trace.OptTraceable[trace.List[string]]
	Global                   trace.OptTraceable[*trace.Node]
	Metadata                 trace.OptTraceable[*trace.Node]
	TransientMetadataEnabled trace.OptTraceable[bool]
	RemoteIndices            trace.OptTraceable[*trace.Node]
	RemoteCluster            trace.OptTraceable[*trace.Node]
	// Reserved is set for built-in roles (metadata._reserved).
	Reserved bool
	Unknown  []Setting
}

// IndexPrivileges is one entry of a role's indices list.
type IndexPrivileges struct {
	Names                  trace.Traceable[trace.List[string]]
	Privileges             trace.Traceable[trace.List[string]]
	FieldSecurity          trace.OptTraceable[FieldSecurity]
	Query                  trace.OptTraceable[string]
	AllowRestrictedIndices trace.OptTraceable[bool]
	Unknown                []Setting
}

// FieldSecurity restricts the visible fields of the matched indices.
type FieldSecurity struct {
	Grant  trace.OptTraceable[trace.List[string]]
	Except trace.OptTraceable[trace.List[string]]
}

// ApplicationPrivileges is one entry of a role's applications list.
type ApplicationPrivileges struct {
	Application trace.Traceable[string]
	Privileges  trace.Traceable[trace.List[string]]
	Resources   trace.Traceable[trace.List[string]]
}

// ParseRoles reads a role document keyed by role name. JSON and YAML are
// accepted; keys are not expanded.
func ParseRoles(file string, data []byte) (*Roles, error) {
	out := &Roles{Source: trace.NewConfig(file)}

	rejected, err := readNamed(file, data, "role", func(name string, r *trace.Reader) error {
		role := parseRole(name, r)
		if err := r.Err(); err != nil {
			return err
		}

		out.Roles = append(out.Roles, role)

		return nil
	})
	if err != nil {
		return nil, err
	}

	out.Rejected = rejected

	return out, nil
}

// Role returns the role with the given name.
func (r *Roles) Role(name string) (*Role, bool) {
	for _, role := range r.Roles {
		if role.Name == name {
			return role, true
		}
	}

	return nil, false
}

func parseRole(name string, r *trace.Reader) *Role {
	role := &Role{
		Name:                     name,
		Source:                   r.Source(),
		Description:              optString(r, "description"),
		Cluster:                  optStrings(r, "cluster"),
		Indices:                  trace.OptionalRecordList(r.Get("indices"), parseIndexPrivileges),
		Applications:             trace.OptionalRecordList(r.Get("applications"), parseApplicationPrivileges),
		RunAs:                    optStrings(r, "run_as"),
		Global:                   optNode(r, "global"),
		Metadata:                 optNode(r, "metadata"),
		TransientMetadataEnabled: optBool(r, "transient_metadata.enabled"),
		RemoteIndices:            optNode(r, "remote_indices"),
		RemoteCluster:            optNode(r, "remote_cluster"),
	}

	role.Reserved = isReserved(role.Metadata)
	role.Unknown = unknown(r)

	return role
}

func parseIndexPrivileges(r *trace.Reader) IndexPrivileges {
	p := IndexPrivileges{
		Names:      trace.RequiredList(r.Get("names"), trace.String),
		Privileges: trace.RequiredList(r.Get("privileges"), trace.String),
		FieldSecurity: trace.OptionalRecord(r.Get("field_security"), func(f *trace.Reader) FieldSecurity {
			return FieldSecurity{
				Grant:  optStrings(f, "grant"),
				Except: optStrings(f, "except"),
			}
		}),
		Query:                  trace.Optional(r.Get("query"), trace.JSONString),
		AllowRestrictedIndices: optBool(r, "allow_restricted_indices"),
	}

	p.Unknown = unknown(r)

	return p
}

func parseApplicationPrivileges(r *trace.Reader) ApplicationPrivileges {
	return ApplicationPrivileges{
		Application: trace.Required(r.Get("application"), trace.String),
		Privileges:  trace.RequiredList(r.Get("privileges"), trace.String),
		Resources:   trace.RequiredList(r.Get("resources"), trace.String),
	}
}
