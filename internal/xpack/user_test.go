package xpack

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseUsersAPIShape(t *testing.T) {
	users, err := ParseUsers(UsersFile, []byte(`{
  "alice": {
    "username": "alice",
    "roles": ["admin"],
    "full_name": "Alice Example",
    "email": "alice@example.com",
    "metadata": {"team": "ops"},
    "enabled": true,
    "password_hash": "$2a$10$abcdefghijklmnopqrstuv"
  },
  "bob": {"roles": "viewer", "enabled": false},
  "elastic": {"roles": ["superuser"], "metadata": {"_reserved": true}},
  "broken": {"roles": [["x"]]}
}`))
	require.NoError(t, err)

	require.Len(t, users.Users, 3)

	alice := users.Users[0]
	assert.Equal(t, "alice", alice.Username)
	assert.True(t, alice.PasswordHash.IsSecret())

	hash, ok := alice.PasswordHash.Get()
	require.True(t, ok)
	assert.Equal(t, "$2a$10$abcdefghijklmnopqrstuv", hash)

	name, _ := alice.FullName.Get()
	assert.Equal(t, "Alice Example", name)
	assert.Empty(t, alice.Unknown)

	bob := users.Users[1]
	assert.False(t, bob.Enabled.Get())
	assert.False(t, bob.PasswordHash.IsPresent())

	roles, _ := bob.Roles.Get()
	assert.Equal(t, []string{"viewer"}, roles.Values())

	assert.True(t, users.Users[2].Reserved)

	require.Len(t, users.Rejected, 1)
	assert.Equal(t, "broken", users.Rejected[0].Name)
}

func TestParseUsersIndexDump(t *testing.T) {
	users, err := ParseUsers(UsersFile, []byte(`{
  "took": 3,
  "hits": {
    "total": {"value": 3},
    "hits": [
      {"_id": "user-carol", "_source": {"type": "user", "password": "$2a$10$carol", "roles": ["r"], "enabled": true}},
      {"_id": "role-x", "_source": {"type": "role", "cluster": ["all"]}},
      {"_id": "user-dave", "_source": {"type": "user", "username": "david", "roles": [], "enabled": true, "full_name": null}}
    ]
  }
}`))
	require.NoError(t, err)

	require.Len(t, users.Users, 2)

	carol := users.Users[0]
	assert.Equal(t, "carol", carol.Username)
	assert.Equal(t, "users.json: hits.hits.0._source", carol.Source.FullPath())
	assert.True(t, carol.PasswordHash.IsSecret())
	assert.Equal(t, "users.json: hits.hits.0._source.password", carol.PasswordHash.Source().FullPath())

	dave := users.Users[1]
	assert.Equal(t, "david", dave.Username)
	assert.False(t, dave.FullName.IsPresent())
	assert.Empty(t, users.Rejected)
}
