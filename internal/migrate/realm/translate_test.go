package realm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xpack-migrator/internal/diagnostic"
	"xpack-migrator/internal/searchguard"
	"xpack-migrator/internal/xpack"
)

const realmPrefix = "elasticsearch.yml: xpack.security.authc.realms."

// parseRealm parses one realm given as the YAML body below
// xpack.security.authc.realms.<typ>.<name>.
func parseRealm(t *testing.T, typ, name, body string) xpack.Realm {
	t.Helper()

	var sb strings.Builder
	sb.WriteString("xpack.security.authc.realms." + typ + "." + name + ":\n")

	for _, line := range strings.Split(strings.Trim(body, "\n"), "\n") {
		sb.WriteString("  " + line + "\n")
	}

	cfg, err := xpack.ParseElasticsearch(xpack.ElasticsearchFile, []byte(sb.String()))
	require.NoError(t, err)
	require.Empty(t, cfg.Rejected)

	r, ok := cfg.Realm(name)
	require.True(t, ok)

	return r
}

func translate(t *testing.T, r xpack.Realm, opts Options) (searchguard.AuthDomain, bool, *diagnostic.Reporter) {
	t.Helper()

	rep := diagnostic.NewSearchGuard()
	domain, ok := Translate(r, rep, opts)

	return domain, ok, rep
}

// issuesAt returns the issues reported on path, relative to realmPrefix.
func issuesAt(rep *diagnostic.Reporter, path string) []diagnostic.Issue {
	var out []diagnostic.Issue

	for _, i := range rep.Issues() {
		if i.Path() == realmPrefix+path {
			out = append(out, i)
		}
	}

	return out
}

func configValue(t *testing.T, d searchguard.AuthDomain, key string) any {
	t.Helper()

	v, ok := d.Config.Get(key)
	require.True(t, ok, "missing key %s in %v", key, d.Config.Keys())

	return v
}

func TestLDAPBothPasswords(t *testing.T) {
	r := parseRealm(t, "ldap", "corp", `
order: 1
url: ldaps://ldap.example.com:636
bind_dn: cn=admin,dc=example,dc=com
bind_password: plain-value
secure_bind_password: secure-value
user_search:
  base_dn: ou=people,dc=example,dc=com
  filter: (uid={0})
group_search:
  base_dn: ou=groups,dc=example,dc=com
  filter: (member={0})
`)

	d, ok, rep := translate(t, r, DefaultOptions())
	require.True(t, ok)
	assert.Equal(t, TypeLDAP, d.Type)

	assert.Equal(t, []string{"ldaps://ldap.example.com:636"}, configValue(t, d, "ldap.idp.hosts"))
	assert.Equal(t, "cn=admin,dc=example,dc=com", configValue(t, d, "ldap.idp.bind_dn"))
	assert.Equal(t, "secure-value", configValue(t, d, "ldap.idp.password"))
	assert.Equal(t, "(uid=${user.name})", configValue(t, d, "ldap.user_search.filter.raw"))
	assert.Equal(t, "(member=${dn})", configValue(t, d, "ldap.group_search.filter.raw"))

	issues := issuesAt(rep, "ldap.corp.bind_password")
	require.Len(t, issues, 1)
	assert.Equal(t, diagnostic.Problem, issues[0].Severity)
	assert.True(t, issues[0].Secret)
	assert.Equal(t, "Both bind_password and secure_bind_password are set; using secure_bind_password", issues[0].Message)

	report := rep.Render()
	assert.NotContains(t, report, "plain-value")
	assert.NotContains(t, report, "secure-value")
}

func TestLDAPSinglePassword(t *testing.T) {
	r := parseRealm(t, "ldap", "corp", `
order: 1
url: ldap://ldap.example.com
secure_bind_password: only-secure
user_search.base_dn: ou=people,dc=example,dc=com
group_search.base_dn: ou=groups,dc=example,dc=com
`)

	d, ok, rep := translate(t, r, DefaultOptions())
	require.True(t, ok)
	assert.Equal(t, "only-secure", configValue(t, d, "ldap.idp.password"))
	assert.Empty(t, issuesAt(rep, "ldap.corp.bind_password"))

	// The X-Pack default user filter is made explicit.
	assert.Equal(t, "(uid=${user.name})", configValue(t, d, "ldap.user_search.filter.raw"))

	issues := issuesAt(rep, "ldap.corp.user_search.filter")
	require.Len(t, issues, 1)
	assert.Equal(t, diagnostic.DefaultApplied, issues[0].Preset)
}

func TestLDAPScopeFallback(t *testing.T) {
	body := `
order: 1
url: ldap://ldap.example.com
user_search:
  base_dn: ou=people,dc=example,dc=com
  scope: base
group_search:
  base_dn: ou=groups,dc=example,dc=com
  scope: one_level
`

	tests := []struct {
		name      string
		fallback  ScopeFallback
		wantScope string
		wantSev   diagnostic.Severity
	}{
		{name: "default", fallback: "", wantScope: "sub", wantSev: diagnostic.Problem},
		{name: "sub", fallback: ScopeFallbackSub, wantScope: "sub", wantSev: diagnostic.Problem},
		{name: "one", fallback: ScopeFallbackOne, wantScope: "one", wantSev: diagnostic.Problem},
		{name: "omit", fallback: ScopeFallbackOmit, wantScope: "", wantSev: diagnostic.Inconvertible},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, ok, rep := translate(t, parseRealm(t, "ldap", "corp", body), Options{ScopeFallback: tt.fallback})
			require.True(t, ok)

			scope, has := d.Config.Get("ldap.user_search.scope")
			if tt.wantScope == "" {
				assert.False(t, has)
			} else {
				assert.Equal(t, tt.wantScope, scope)
			}

			assert.Equal(t, "one", configValue(t, d, "ldap.group_search.scope"))

			issues := issuesAt(rep, "ldap.corp.user_search.scope")
			require.Len(t, issues, 1)
			assert.Equal(t, tt.wantSev, issues[0].Severity)
		})
	}
}

func TestLDAPInconvertibleSettings(t *testing.T) {
	r := parseRealm(t, "ldap", "corp", `
order: 1
url: ldap://ldap.example.com
bind_dn: not a dn
user_search:
  base_dn: ou=people,dc=example,dc=com
  pool.enabled: false
  pool.size: 40
group_search:
  base_dn: ou=groups,dc=example,dc=com
  user_attribute: uid
  filter: (memberUid={0})
load_balance.type: dns_round_robin
timeout.tcp_read: 5s
follow_referrals: false
ssl:
  verification_mode: none
  key_passphrase: hidden
`)

	d, ok, rep := translate(t, r, DefaultOptions())
	require.True(t, ok)

	assert.Equal(t, "(memberUid=${ldap_user_entry.uid})", configValue(t, d, "ldap.group_search.filter.raw"))
	assert.Equal(t, "roundrobin", configValue(t, d, "ldap.idp.connection_strategy"))
	assert.Equal(t, "not a dn", configValue(t, d, "ldap.idp.bind_dn"))

	pool := issuesAt(rep, "ldap.corp.user_search.pool.enabled")
	require.Len(t, pool, 1)
	assert.Equal(t, diagnostic.Inconvertible, pool[0].Severity)
	assert.Equal(t, "Connection pool cannot be disabled in Search Guard; its default pool size is used", pool[0].Message)

	size := issuesAt(rep, "ldap.corp.user_search.pool.size")
	require.Len(t, size, 1)
	assert.Equal(t, diagnostic.IgnoredKey, size[0].Preset)

	_, hasSize := d.Config.Get("ldap.idp.connection_pool.max_size")
	assert.False(t, hasSize)

	require.Len(t, issuesAt(rep, "ldap.corp.bind_dn"), 1)
	require.Len(t, issuesAt(rep, "ldap.corp.timeout.tcp_read"), 1)
	require.Len(t, issuesAt(rep, "ldap.corp.follow_referrals"), 1)
	require.Len(t, issuesAt(rep, "ldap.corp.ssl.verification_mode"), 1)
	require.Len(t, issuesAt(rep, "ldap.corp.load_balance.type"), 1)

	passphrase := issuesAt(rep, "ldap.corp.ssl.key_passphrase")
	require.Len(t, passphrase, 1)
	assert.True(t, passphrase[0].Secret)
	assert.NotContains(t, rep.Render(), "hidden")
}

func TestActiveDirectoryDefaults(t *testing.T) {
	r := parseRealm(t, "active_directory", "ad", `
order: 0
domain_name: corp.example.com
`)

	d, ok, rep := translate(t, r, DefaultOptions())
	require.True(t, ok)
	assert.Equal(t, TypeLDAP, d.Type)

	assert.Equal(t, []string{"ldap://corp.example.com:389"}, configValue(t, d, "ldap.idp.hosts"))
	assert.Equal(t, "DC=corp,DC=example,DC=com", configValue(t, d, "ldap.user_search.base_dn"))
	assert.Equal(t, "DC=corp,DC=example,DC=com", configValue(t, d, "ldap.group_search.base_dn"))
	assert.Contains(t, configValue(t, d, "ldap.user_search.filter.raw"), "userPrincipalName=${user.name}@corp.example.com")

	for _, i := range rep.Issues() {
		assert.Equal(t, diagnostic.DefaultApplied, i.Preset, i.String())
	}
}

func TestSAML(t *testing.T) {
	r := parseRealm(t, "saml", "sso", `
order: 2
idp.metadata.path: https://idp.example.com/metadata.xml
idp.entity_id: https://idp.example.com
sp:
  entity_id: https://kibana.example.com
  acs: https://kibana.example.com:5601/api/security/saml/callback
attributes:
  principal: nameid:persistent
  groups: groups
`)

	d, ok, rep := translate(t, r, DefaultOptions())
	require.True(t, ok)
	assert.True(t, IsFrontend(r))
	assert.Equal(t, TypeSAML, d.Type)

	assert.Equal(t, "https://idp.example.com/metadata.xml", configValue(t, d, "saml.idp.metadata_url"))
	assert.Equal(t, "https://kibana.example.com:5601/", configValue(t, d, "kibana_url"))
	assert.Equal(t, "saml_response.name_id", configValue(t, d, "user_mapping.user_name.from"))
	assert.Equal(t, "saml_response.attributes.groups", configValue(t, d, "user_mapping.roles.from"))
	assert.True(t, rep.IsEmpty(), rep.Render())
}

func TestSAMLMissingValues(t *testing.T) {
	r := parseRealm(t, "saml", "sso", `
order: 2
idp.metadata.path: /etc/es/idp.xml
`)

	d, ok, rep := translate(t, r, DefaultOptions())
	require.True(t, ok)

	assert.Equal(t, "", configValue(t, d, "saml.idp.entity_id"))
	assert.Equal(t, "", configValue(t, d, "saml.sp.entity_id"))
	require.Len(t, issuesAt(rep, "saml.sso.idp.metadata.path"), 1)
	require.Len(t, issuesAt(rep, "saml.sso.idp.entity_id"), 1)
	require.Len(t, issuesAt(rep, "saml.sso.sp.acs"), 1)
}

func TestKibanaURL(t *testing.T) {
	tests := []struct {
		acs  string
		want string
	}{
		{"https://kibana.example.com/api/security/saml/callback", "https://kibana.example.com/"},
		{"https://kibana.example.com:443/api/security/saml/callback", "https://kibana.example.com/"},
		{"http://kibana.example.com:80/api/security/saml/callback", "http://kibana.example.com/"},
		{"http://localhost:5601/api/security/saml/callback", "http://localhost:5601/"},
		{"not a url", "not a url"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, kibanaURL(tt.acs), tt.acs)
	}
}

func TestOIDC(t *testing.T) {
	r := parseRealm(t, "oidc", "oidc1", `
order: 3
rp.client_id: kibana
op.issuer: https://op.example.com/
op.token_endpoint: https://op.example.com/token
claims.groups: groups
`)

	d, ok, rep := translate(t, r, DefaultOptions())
	require.True(t, ok)
	assert.True(t, IsFrontend(r))

	assert.Equal(t, "https://op.example.com/.well-known/openid-configuration", configValue(t, d, "oidc.idp.openid_configuration_url"))
	assert.Equal(t, "kibana", configValue(t, d, "oidc.client_id"))
	assert.Equal(t, "oidc_id_token.sub", configValue(t, d, "user_mapping.user_name.from"))
	assert.Equal(t, "oidc_id_token.groups", configValue(t, d, "user_mapping.roles.from"))

	secret := issuesAt(rep, "oidc.oidc1.rp.client_secret")
	require.Len(t, secret, 1)
	assert.True(t, secret[0].Secret)

	principal := issuesAt(rep, "oidc.oidc1.claims.principal")
	require.Len(t, principal, 1)
	assert.Equal(t, diagnostic.DefaultApplied, principal[0].Preset)

	endpoint := issuesAt(rep, "oidc.oidc1.op.token_endpoint")
	require.Len(t, endpoint, 1)
	assert.Equal(t, diagnostic.IgnoredKey, endpoint[0].Preset)
}

func TestPKIUsernamePattern(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		want     string
		wantKind diagnostic.Severity
	}{
		{name: "default", body: "order: 0", want: "clientcert.subject.cn", wantKind: diagnostic.Problem},
		{name: "email", body: "order: 0\nusername_pattern: \"EMAILADDRESS=(.*?)(?:,|$)\"", want: "clientcert.subject.email_address"},
		{name: "ou", body: "order: 0\nusername_pattern: \"OU=(.*?)(?:,|$)\"", want: "clientcert.subject.ou"},
		{name: "complex", body: "order: 0\nusername_pattern: \"CN=(.*?)\\\\+UID=(.*?)(?:,|$)\"", wantKind: diagnostic.Inconvertible},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, ok, rep := translate(t, parseRealm(t, "pki", "pki1", tt.body), DefaultOptions())
			require.True(t, ok)
			assert.Equal(t, TypeClientCert, d.Type)

			got, has := d.Config.Get("user_mapping.user_name.from")
			if tt.want == "" {
				assert.False(t, has)
			} else {
				assert.Equal(t, tt.want, got)
			}

			issues := issuesAt(rep, "pki.pki1.username_pattern")
			if tt.name == "default" || tt.name == "complex" {
				require.Len(t, issues, 1)
				assert.Equal(t, tt.wantKind, issues[0].Severity)
			} else {
				assert.Empty(t, issues)
			}
		})
	}
}

func TestJWTTruncation(t *testing.T) {
	r := parseRealm(t, "jwt", "jwt1", `
order: 4
allowed_issuer: https://issuer.example.com
allowed_audiences: [aud-a, aud-b, aud-c]
pkc_jwkset_path: https://issuer.example.com/jwks.json
claims.principal: email
hmac_key: hmac-secret-value
`)

	d, ok, rep := translate(t, r, DefaultOptions())
	require.True(t, ok)
	assert.False(t, IsFrontend(r))

	assert.Equal(t, "https://issuer.example.com", configValue(t, d, "jwt.required_issuer"))
	assert.Equal(t, "aud-a", configValue(t, d, "jwt.required_audience"))
	assert.Equal(t, "https://issuer.example.com/jwks.json", configValue(t, d, "jwt.signing.jwks_endpoint.url"))
	assert.Equal(t, "jwt.email", configValue(t, d, "user_mapping.user_name.from"))

	assert.Len(t, issuesAt(rep, "jwt.jwt1.allowed_audiences.1"), 1)
	assert.Len(t, issuesAt(rep, "jwt.jwt1.allowed_audiences.2"), 1)
	assert.Empty(t, issuesAt(rep, "jwt.jwt1.allowed_audiences.0"))

	hmac := issuesAt(rep, "jwt.jwt1.hmac_key")
	require.Len(t, hmac, 1)
	assert.True(t, hmac[0].Secret)
	assert.NotContains(t, rep.Render(), "hmac-secret-value")
}

func TestKerberos(t *testing.T) {
	r := parseRealm(t, "kerberos", "krb", `
order: 5
keytab.path: /etc/es/es.keytab
remove_realm_name: true
`)

	d, ok, rep := translate(t, r, DefaultOptions())
	require.True(t, ok)

	assert.Equal(t, "/etc/es/es.keytab", configValue(t, d, "kerberos.acceptor_keytab"))
	assert.Equal(t, true, configValue(t, d, "kerberos.strip_realm_from_principal"))

	issues := issuesAt(rep, "kerberos.krb")
	require.Len(t, issues, 1)
	assert.Equal(t, diagnostic.MissingParameter, issues[0].Preset)
}

func TestInternalRealms(t *testing.T) {
	d, ok, rep := translate(t, parseRealm(t, "native", "native1", "order: 0\ncache.ttl: 10m"), DefaultOptions())
	require.True(t, ok)
	assert.Equal(t, TypeInternalUsers, d.Type)
	assert.Equal(t, 0, d.Config.Len())
	require.Len(t, issuesAt(rep, "native.native1.cache.ttl"), 1)

	d, ok, rep = translate(t, parseRealm(t, "file", "file1", "order: 1"), DefaultOptions())
	require.True(t, ok)
	assert.Equal(t, TypeInternalUsers, d.Type)

	issues := issuesAt(rep, "file.file1")
	require.Len(t, issues, 1)
	assert.Equal(t, diagnostic.Inconvertible, issues[0].Severity)
}

func TestDisabledRealm(t *testing.T) {
	r := parseRealm(t, "ldap", "old", "order: 9\nenabled: false\ntimeout.tcp_read: 5s")

	_, ok, rep := translate(t, r, DefaultOptions())
	require.False(t, ok)

	issues := rep.Issues()
	require.Len(t, issues, 1)
	assert.Equal(t, realmPrefix+"ldap.old.enabled", issues[0].Path())
	assert.Equal(t, diagnostic.Problem, issues[0].Severity)
}

func TestUnknownRealm(t *testing.T) {
	r := parseRealm(t, "ldapx", "typo", "order: 1")

	_, ok, rep := translate(t, r, DefaultOptions())
	require.False(t, ok)

	issues := issuesAt(rep, "ldapx.typo")
	require.Len(t, issues, 1)
	assert.Equal(t, diagnostic.Problem, issues[0].Severity)
	assert.Contains(t, issues[0].Message, "Realm migration for type 'ldapx' is not yet implemented.")
	assert.Contains(t, issues[0].Message, "'ldap'")
}

func TestParseScopeFallback(t *testing.T) {
	f, err := ParseScopeFallback("")
	require.NoError(t, err)
	assert.Equal(t, ScopeFallbackSub, f)

	f, err = ParseScopeFallback("OMIT")
	require.NoError(t, err)
	assert.Equal(t, ScopeFallbackOmit, f)

	_, err = ParseScopeFallback("base")
	require.ErrorIs(t, err, ErrUnknownScopeFallback)
}
