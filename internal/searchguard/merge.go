package searchguard

import (
	"dario.cat/mergo"
	"github.com/cockroachdb/errors"
)

// Add merges mapping into the mapping of role. Lists are concatenated, so adding
// the same mapping twice keeps the shape and repeats the entries.
func (m *RolesMapping) Add(role string, mapping RoleMapping) error {
	existing, ok := m.mappings[role]
	if !ok {
		existing = &RoleMapping{}
		m.mappings[role] = existing
		m.roles = append(m.roles, role)
	}

	if err := mergo.Merge(existing, mapping, mergo.WithAppendSlice); err != nil {
		return errors.Wrapf(err, "failed to merge mapping of role %q", role)
	}

	return nil
}
