package migrate

import (
	"fmt"

	"xpack-migrator/internal/common"
	"xpack-migrator/internal/diagnostic"
	"xpack-migrator/internal/searchguard"
	"xpack-migrator/internal/trace"
	"xpack-migrator/internal/xpack"
)

// TLSTranslator reports the Search Guard TLS settings that replace the X-Pack
// ones. TLS lives in elasticsearch.yml, so no document is produced.
type TLSTranslator struct{}

// Name implements Translator.
func (*TLSTranslator) Name() string { return "tls" }

// Translate implements Translator.
func (*TLSTranslator) Translate(ctx *Context, rep *diagnostic.Reporter) ([]searchguard.Config, error) {
	es, ok := ctx.Elasticsearch()
	if !ok {
		return nil, nil
	}

	translateSSL(rep, "transport", es.TransportSSL)
	translateSSL(rep, "http", es.HTTPSSL)

	return nil, nil
}

// setting is an optional value a report can point at.
type setting interface {
	trace.Subject
	IsPresent() bool
}

func translateSSL(rep *diagnostic.Reporter, layer string, s xpack.SSLSettings) {
	if !s.IsConfigured() {
		return
	}

	key := func(name string) string { return "searchguard.ssl." + layer + "." + name }

	replace := func(v setting, sgKey string) {
		if !v.IsPresent() {
			return
		}

		msg := fmt.Sprintf("TLS is configured in elasticsearch.yml; set %s instead", sgKey)
		if v.IsSecret() {
			rep.InconvertibleSecret(v, msg)

			return
		}

		rep.Inconvertible(v, msg)
	}

	replace(s.Enabled, key("enabled"))
	replace(s.Key, key("pemkey_filepath"))
	replace(s.KeyPassphrase, key("pemkey_password"))
	replace(s.Certificate, key("pemcert_filepath"))
	replace(s.KeystorePath, key("keystore_filepath"))
	replace(s.KeystorePassword, key("keystore_password"))
	replace(s.TruststorePath, key("truststore_filepath"))
	replace(s.TruststorePassword, key("truststore_password"))
	replace(s.SupportedProtocols, key("enabled_protocols"))
	replace(s.CipherSuites, key("enabled_ciphers"))

	if cas, ok := s.CertificateAuthorities.Get(); ok {
		msg := fmt.Sprintf("TLS is configured in elasticsearch.yml; set %s instead", key("pemtrustedcas_filepath"))
		if common.IsMultiple(cas) {
			msg += "; Search Guard reads a single file, so the certificates must be concatenated"
		}

		rep.Inconvertible(s.CertificateAuthorities, msg)
	}

	if mode, ok := s.VerificationMode.Get(); ok {
		rep.Inconvertible(s.VerificationMode, verificationModeHint(layer, mode))
	}

	if s.ClientAuthentication.IsPresent() {
		if layer == "http" {
			replace(s.ClientAuthentication, key("clientauth_mode"))
		} else {
			rep.Inconvertible(s.ClientAuthentication, "Search Guard always requires client certificates on the transport layer")
		}
	}
}

func verificationModeHint(layer, mode string) string {
	if layer != "transport" {
		return "Search Guard has no verification mode for the HTTP layer"
	}

	hostnames := "searchguard.ssl.transport.enforce_hostname_verification"

	switch mode {
	case "full":
		return fmt.Sprintf("TLS is configured in elasticsearch.yml; set %s: true instead", hostnames)
	case "certificate":
		return fmt.Sprintf("TLS is configured in elasticsearch.yml; set %s: false instead", hostnames)
	default:
		return fmt.Sprintf("Verification mode '%s' has no Search Guard equivalent; certificates are always verified", mode)
	}
}
