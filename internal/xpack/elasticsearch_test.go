package xpack

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xpack-migrator/internal/trace"
)

const elasticsearchYAML = `
cluster.name: prod
xpack.security.enabled: true
xpack.security.fips_mode.enabled: false
xpack.security.transport.ssl.enabled: true
xpack.security.transport.ssl.key: certs/node.key
xpack.security.transport.ssl.keystore.password: s3cret
xpack.security.authc.realms:
  native.native1:
    order: 0
  ldap.ldap1:
    order: 2
    url: ["ldaps://ldap1:636", "ldaps://ldap2:636"]
    bind_dn: cn=admin,dc=example,dc=com
    bind_password: first
    secure_bind_password: second
    user_search.base_dn: ou=people,dc=example,dc=com
    user_search.pool.size: 20
    timeout.tcp_connect: 5s
    cache.ttl: 10m
    frobnicate: 1
  saml.broken:
    idp.entity_id: https://idp.example.com
  pki: 5
`

func TestParseElasticsearch(t *testing.T) {
	cfg, err := ParseElasticsearch(ElasticsearchFile, []byte(elasticsearchYAML))
	require.NoError(t, err)

	assert.True(t, cfg.Enabled.Get())
	require.Len(t, cfg.Realms, 2)

	native, ok := cfg.Realms[0].(*NativeRealm)
	require.True(t, ok)
	assert.Equal(t, "native1", native.Name)
	assert.Equal(t, 0, native.Order.Get())
	assert.True(t, native.Enabled.Get())
	assert.Equal(t, "elasticsearch.yml: xpack.security.authc.realms.native.native1", native.Source.FullPath())

	ldap, ok := cfg.Realms[1].(*LDAPRealm)
	require.True(t, ok)
	assert.Equal(t, "ldap.ldap1", ldap.ID())
	assert.Equal(t, 2, ldap.Order.Get())

	urls, ok := ldap.URLs.Get()
	require.True(t, ok)
	assert.Equal(t, []string{"ldaps://ldap1:636", "ldaps://ldap2:636"}, urls.Values())

	assert.True(t, ldap.BindPassword.IsSecret())
	assert.True(t, ldap.SecureBindPassword.IsSecret())

	size, ok := ldap.UserSearch.PoolSize.Get()
	require.True(t, ok)
	assert.Equal(t, 20, size)

	timeout, _ := ldap.TimeoutTCPConnect.Get()
	assert.Equal(t, "5s", timeout)

	require.Len(t, ldap.Ignored, 1)
	assert.Equal(t, "elasticsearch.yml: xpack.security.authc.realms.ldap.ldap1.cache.ttl", ldap.Ignored[0].Source().FullPath())

	require.Len(t, ldap.Unknown, 1)
	assert.Equal(t, "elasticsearch.yml: xpack.security.authc.realms.ldap.ldap1.frobnicate", ldap.Unknown[0].Source().FullPath())

	require.Len(t, cfg.Rejected, 2)
	assert.Equal(t, "saml.broken", cfg.Rejected[0].Name)

	var missing *trace.MissingAttributeError
	require.True(t, errors.As(trace.Errors(cfg.Rejected[0].Err)[0], &missing))
	assert.Equal(t, "elasticsearch.yml: xpack.security.authc.realms.saml.broken.order", missing.Source().FullPath())
	assert.Equal(t, "pki", cfg.Rejected[1].Name)

	assert.True(t, cfg.TransportSSL.IsConfigured())
	assert.False(t, cfg.HTTPSSL.IsConfigured())
	assert.True(t, cfg.TransportSSL.KeystorePassword.IsSecret())

	require.Len(t, cfg.Unknown, 1)
	assert.Equal(t, "elasticsearch.yml: xpack.security.fips_mode.enabled", cfg.Unknown[0].Source().FullPath())

	found, ok := cfg.Realm("ldap1")
	require.True(t, ok)
	assert.Same(t, cfg.Realms[1], found)
}

func TestParseElasticsearchWithoutSecuritySection(t *testing.T) {
	cfg, err := ParseElasticsearch(ElasticsearchFile, []byte("cluster.name: dev\n"))
	require.NoError(t, err)

	assert.True(t, cfg.Enabled.Get())
	assert.Empty(t, cfg.Realms)
	assert.Empty(t, cfg.Unknown)
}

func TestParseElasticsearchConflict(t *testing.T) {
	_, err := ParseElasticsearch(ElasticsearchFile, []byte(`
xpack.security.enabled: true
xpack:
  security:
    enabled: false
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), trace.InvalidTreeStructureMessage)
}

func TestParseRealm(t *testing.T) {
	tests := []struct {
		name    string
		typ     string
		doc     string
		check   func(t *testing.T, r Realm)
		wantErr string
	}{
		{
			name:    "active directory requires a domain",
			typ:     TypeActiveDirectory,
			doc:     "order: 1\n",
			wantErr: "domain_name: Required attribute is missing",
		},
		{
			name: "active directory",
			typ:  TypeActiveDirectory,
			doc:  "order: 1\ndomain_name: ad.example.com\n",
			check: func(t *testing.T, r Realm) {
				ad, ok := r.(*ActiveDirectoryRealm)
				require.True(t, ok)
				assert.Equal(t, "ad.example.com", ad.DomainName.Get())
			},
		},
		{
			name: "disabled realm",
			typ:  TypeFile,
			doc:  "order: 3\nenabled: false\ncache.max_users: 10\n",
			check: func(t *testing.T, r Realm) {
				f, ok := r.(*FileRealm)
				require.True(t, ok)
				assert.False(t, f.Enabled.Get())

				maxUsers, _ := f.Cache.MaxUsers.Get()
				assert.Equal(t, 10, maxUsers)
			},
		},
		{
			name: "jwt secrets",
			typ:  TypeJWT,
			doc:  "order: 4\nallowed_issuer: https://issuer\nhmac_key: abc\n",
			check: func(t *testing.T, r Realm) {
				jwt, ok := r.(*JWTRealm)
				require.True(t, ok)
				assert.True(t, jwt.HMACKey.IsSecret())

				issuers, _ := jwt.AllowedIssuer.Get()
				assert.Equal(t, []string{"https://issuer"}, issuers.Values())
			},
		},
		{
			name: "unknown type keeps the raw node",
			typ:  "custom",
			doc:  "order: 9\nfoo: bar\n",
			check: func(t *testing.T, r Realm) {
				u, ok := r.(*UnknownRealm)
				require.True(t, ok)
				assert.Equal(t, "custom", u.Type)

				foo, ok := u.Raw.Field("foo")
				require.True(t, ok)
				assert.Equal(t, "bar", foo.Text())
			},
		},
		{
			name:    "order must be an integer",
			typ:     TypeNative,
			doc:     "order: first\n",
			wantErr: "order: Invalid value 'first'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node, err := trace.Parse("realm.yml", []byte(tt.doc), trace.WithShortcutKeys())
			require.NoError(t, err)

			r, err := ParseRealm(tt.typ, "r1", trace.NewReader(node, trace.NewConfig("realm.yml")))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)

				return
			}

			require.NoError(t, err)
			tt.check(t, r)
		})
	}
}
