package migrate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xpack-migrator/internal/diagnostic"
	"xpack-migrator/internal/searchguard"
	"xpack-migrator/internal/xpack"
)

func translateUsers(t *testing.T, doc string) (*searchguard.InternalUsers, *diagnostic.Reporter) {
	t.Helper()

	users, err := xpack.ParseUsers(xpack.UsersFile, []byte(doc))
	require.NoError(t, err)

	rep := diagnostic.NewSearchGuard()

	configs, err := (&UsersTranslator{}).Translate(NewContext(WithUsers(users)), rep)
	require.NoError(t, err)
	require.Len(t, configs, 1)

	out, ok := configs[0].(*searchguard.InternalUsers)
	require.True(t, ok)

	return out, rep
}

func TestUsers(t *testing.T) {
	out, rep := translateUsers(t, `{
  "alice": {
    "roles": ["admin", "viewer"],
    "full_name": "Alice Example",
    "email": "alice@example.com",
    "metadata": {"team": "ops", "_internal": 1},
    "profile_uid": "u_1",
    "password_hash": "$2a$10$abcdefghijklmnopqrstuv"
  },
  "bob": {"roles": "viewer", "enabled": false},
  "elastic": {"roles": ["superuser"], "metadata": {"_reserved": true}},
  "carol": {"roles": ["viewer"]}
}`)

	require.Len(t, out.Users, 2)

	alice := out.Users[0]
	assert.Equal(t, "alice", alice.Name)
	assert.Equal(t, "$2a$10$abcdefghijklmnopqrstuv", alice.Hash)
	assert.Equal(t, []string{"admin", "viewer"}, alice.SearchGuardRoles)
	assert.Equal(t, []string{"team", "name", "email", "profile_id"}, alice.Attributes.Keys())

	name, _ := alice.Attributes.Get("name")
	assert.Equal(t, "Alice Example", name)

	carol := out.Users[1]
	assert.Equal(t, "carol", carol.Name)
	assert.Empty(t, carol.Hash)

	assert.Equal(t, map[string]diagnostic.Severity{
		"users.json: bob.enabled":         diagnostic.Problem,
		"users.json: elastic":             diagnostic.Problem,
		"users.json: carol.password_hash": diagnostic.Problem,
	}, issuePaths(rep))
}

func TestUnsupportedHashIsMasked(t *testing.T) {
	const hash = "{PBKDF2}10000$c2FsdA==$aGFzaA=="

	out, rep := translateUsers(t, `{"dave": {"roles": ["viewer"], "password_hash": "`+hash+`"}}`)

	require.Len(t, out.Users, 1)
	assert.Equal(t, hash, out.Users[0].Hash)

	issues := rep.Issues()
	require.Len(t, issues, 1)
	assert.True(t, issues[0].Secret)
	assert.Contains(t, issues[0].Message, "{PBKDF2}")
	assert.NotContains(t, rep.Render(), "c2FsdA==")
	assert.NotContains(t, issues[0].String(), "c2FsdA==")
}
