package xpack

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const roleMappingsJSON = `{
  "admins": {
    "enabled": true,
    "roles": ["superuser"],
    "rules": {"any": [
      {"field": {"groups": "cn=admins,dc=example,dc=com"}},
      {"field": {"username": ["alice", "bob"]}}
    ]},
    "metadata": {}
  },
  "templated": {
    "role_templates": [{"template": {"source": "{{#tojson}}groups{{/tojson}}"}, "format": "json"}],
    "rules": {"field": {"realm.name": "saml1"}}
  },
  "both": {"roles": ["a"], "role_templates": [], "rules": {"field": {"username": "*"}}},
  "two_keys": {"roles": ["a"], "rules": {"any": [], "all": []}},
  "negated": {
    "roles": ["b"],
    "rules": {"all": [{"field": {"dn": "*,ou=x"}}, {"except": {"field": {"username": "eve"}}}]}
  }
}`

func TestParseRoleMappings(t *testing.T) {
	mappings, err := ParseRoleMappings(RoleMappingsFile, []byte(roleMappingsJSON))
	require.NoError(t, err)

	require.Len(t, mappings.Mappings, 3)

	admins := mappings.Mappings[0]
	assert.Equal(t, "admins", admins.Name)
	assert.True(t, admins.Enabled.Get())

	anyRule, ok := admins.Rules.Get().(*AnyRule)
	require.True(t, ok)
	require.Len(t, anyRule.Rules, 2)

	groups, ok := anyRule.Rules[0].Get().(*FieldRule)
	require.True(t, ok)
	assert.Equal(t, "groups", groups.Field)
	assert.Equal(t, []string{"cn=admins,dc=example,dc=com"}, groups.Values.Values())

	users, ok := anyRule.Rules[1].Get().(*FieldRule)
	require.True(t, ok)
	assert.Equal(t, []string{"alice", "bob"}, users.Values.Values())
	assert.Equal(t, "role_mapping.json: admins.rules.any.1.field.username", users.FieldSource.FullPath())

	templated := mappings.Mappings[1]
	assert.False(t, templated.Roles.IsPresent())

	templates, ok := templated.RoleTemplates.Get()
	require.True(t, ok)

	src, ok := templates[0].Get().TemplateSource.Get()
	require.True(t, ok)
	assert.Equal(t, "{{#tojson}}groups{{/tojson}}", src)

	realmRule, ok := templated.Rules.Get().(*FieldRule)
	require.True(t, ok)
	assert.Equal(t, "realm.name", realmRule.Field)

	negated := mappings.Mappings[2]
	allRule, ok := negated.Rules.Get().(*AllRule)
	require.True(t, ok)
	require.Len(t, allRule.Rules, 2)

	except, ok := allRule.Rules[1].Get().(*ExceptRule)
	require.True(t, ok)

	inner, ok := except.Rule.Get().(*FieldRule)
	require.True(t, ok)
	assert.Equal(t, "username", inner.Field)

	require.Len(t, mappings.Rejected, 2)
	assert.Equal(t, "both", mappings.Rejected[0].Name)
	assert.Contains(t, mappings.Rejected[0].Err.Error(), "either roles or role_templates")
	assert.Equal(t, "two_keys", mappings.Rejected[1].Name)
	assert.Contains(t, mappings.Rejected[1].Err.Error(), ruleExpectation)
}

func TestParseRoleMappingWithoutRoles(t *testing.T) {
	mappings, err := ParseRoleMappings(RoleMappingsFile, []byte(`{"m": {"rules": {"field": {"username": "x"}}}}`))
	require.NoError(t, err)

	assert.Empty(t, mappings.Mappings)
	require.Len(t, mappings.Rejected, 1)
	assert.Contains(t, mappings.Rejected[0].Err.Error(), "role_mapping.json: m.roles: Required attribute is missing")
}
