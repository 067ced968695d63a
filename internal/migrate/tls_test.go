package migrate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xpack-migrator/internal/diagnostic"
	"xpack-migrator/internal/xpack"
)

func parseElasticsearch(t *testing.T, doc string) *xpack.ElasticsearchConfig {
	t.Helper()

	cfg, err := xpack.ParseElasticsearch(xpack.ElasticsearchFile, []byte(doc))
	require.NoError(t, err)

	return cfg
}

func TestTLSSettingsAreReported(t *testing.T) {
	es := parseElasticsearch(t, `
xpack.security.transport.ssl.enabled: true
xpack.security.transport.ssl.key: certs/node.key
xpack.security.transport.ssl.key_passphrase: very-secret
xpack.security.transport.ssl.certificate: certs/node.crt
xpack.security.transport.ssl.certificate_authorities: [certs/ca1.crt, certs/ca2.crt]
xpack.security.transport.ssl.verification_mode: certificate
xpack.security.http.ssl.keystore.path: http.p12
xpack.security.http.ssl.keystore.password: also-secret
xpack.security.http.ssl.client_authentication: optional
`)

	rep := diagnostic.NewSearchGuard()

	configs, err := (&TLSTranslator{}).Translate(NewContext(WithElasticsearch(es)), rep)
	require.NoError(t, err)
	assert.Empty(t, configs)

	byPath := map[string]diagnostic.Issue{}
	for _, i := range rep.Issues() {
		assert.Equal(t, diagnostic.Inconvertible, i.Severity)
		byPath[i.Path()] = i
	}

	require.Len(t, byPath, 9)

	prefix := "elasticsearch.yml: xpack.security."

	assert.Contains(t, byPath[prefix+"transport.ssl.key"].Message, "searchguard.ssl.transport.pemkey_filepath")
	assert.Contains(t, byPath[prefix+"transport.ssl.certificate_authorities"].Message, "concatenated")
	assert.Contains(t, byPath[prefix+"transport.ssl.verification_mode"].Message, "enforce_hostname_verification: false")
	assert.Contains(t, byPath[prefix+"http.ssl.keystore.path"].Message, "searchguard.ssl.http.keystore_filepath")
	assert.Contains(t, byPath[prefix+"http.ssl.client_authentication"].Message, "searchguard.ssl.http.clientauth_mode")

	assert.True(t, byPath[prefix+"transport.ssl.key_passphrase"].Secret)
	assert.True(t, byPath[prefix+"http.ssl.keystore.password"].Secret)

	report := rep.Render()
	assert.NotContains(t, report, "very-secret")
	assert.NotContains(t, report, "also-secret")
}

func TestTLSWithoutSettings(t *testing.T) {
	rep := diagnostic.NewSearchGuard()

	_, err := (&TLSTranslator{}).Translate(NewContext(WithElasticsearch(parseElasticsearch(t, "cluster.name: dev\n"))), rep)
	require.NoError(t, err)
	assert.True(t, rep.IsEmpty())
}
