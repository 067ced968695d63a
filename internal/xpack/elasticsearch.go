package xpack

import (
	"github.com/cockroachdb/errors"

	"xpack-migrator/internal/trace"
)

// ElasticsearchFile is the default name of the node configuration file.
const ElasticsearchFile = "elasticsearch.yml"

// SSLSettings is one of the xpack.security.{transport,http}.ssl sections.
type SSLSettings struct {
	Source                 trace.Source
	Enabled                trace.OptTraceable[bool]
	Key                    trace.OptTraceable[string]
	KeyPassphrase          trace.OptTraceable[string]
	Certificate            trace.OptTraceable[string]
	CertificateAuthorities trace.OptTraceable[trace.List[string]]
	VerificationMode       trace.OptTraceable[string]
	ClientAuthentication   trace.OptTraceable[string]
	KeystorePath           trace.OptTraceable[string]
	KeystorePassword       trace.OptTraceable[string]
	TruststorePath         trace.OptTraceable[string]
	TruststorePassword     trace.OptTraceable[string]
	SupportedProtocols     trace.OptTraceable[trace.List[string]]
	CipherSuites           trace.OptTraceable[trace.List[string]]
}

// IsConfigured returns true if any setting of the section is present.
func (s SSLSettings) IsConfigured() bool {
	return s.Enabled.IsPresent() || s.Key.IsPresent() || s.KeyPassphrase.IsPresent() ||
		s.Certificate.IsPresent() || s.CertificateAuthorities.IsPresent() ||
		s.VerificationMode.IsPresent() || s.ClientAuthentication.IsPresent() ||
		s.KeystorePath.IsPresent() || s.KeystorePassword.IsPresent() ||
		s.TruststorePath.IsPresent() || s.TruststorePassword.IsPresent() ||
		s.SupportedProtocols.IsPresent() || s.CipherSuites.IsPresent()
}

// ElasticsearchConfig is the security part of elasticsearch.yml.
type ElasticsearchConfig struct {
	Source       trace.Source
	Enabled      trace.Traceable[bool]
	Realms       []Realm
	Rejected     []Rejected
	TransportSSL SSLSettings
	HTTPSSL      SSLSettings
	// Unknown are xpack.security settings the parser does not recognize.
	Unknown []Setting
}

// ParseElasticsearch reads elasticsearch.yml. Shortcut keys are expanded.
// Realms with structural errors end up in Rejected; an error is returned only
// when the document itself cannot be read.
func ParseElasticsearch(file string, data []byte) (*ElasticsearchConfig, error) {
	node, err := trace.Parse(file, data, trace.WithShortcutKeys())
	if err != nil {
		return nil, err
	}

	root := trace.NewReader(node, trace.NewConfig(file))

	secAttr := root.Get("xpack.security")

	secNode := trace.NewMap()
	if secAttr.Exists() {
		if secAttr.Node().Kind() != trace.KindMap {
			return nil, errors.Newf("%s: expected an object", secAttr.Source().FullPath())
		}

		secNode = secAttr.Node()
	}

	sec := root.Child(secNode, secAttr.Source())

	cfg := &ElasticsearchConfig{
		Source:       root.Source(),
		Enabled:      trace.WithDefault(sec.Get("enabled"), trace.Bool, true),
		TransportSSL: parseSSL(sec, "transport.ssl"),
		HTTPSSL:      parseSSL(sec, "http.ssl"),
	}

	realmsAttr := sec.Get("authc.realms")
	if err := root.Err(); err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", file)
	}

	if realmsAttr.Exists() {
		if realmsAttr.Node().Kind() != trace.KindMap {
			return nil, errors.Newf("%s: expected an object keyed by realm type", realmsAttr.Source().FullPath())
		}

		cfg.parseRealms(sec.Child(realmsAttr.Node(), realmsAttr.Source()))
	}

	cfg.Unknown = unknown(sec)

	return cfg, nil
}

func (c *ElasticsearchConfig) parseRealms(realms *trace.Reader) {
	for _, typ := range realms.Keys() {
		typeAttr := realms.Entry(typ)

		if typeAttr.Node().Kind() != trace.KindMap {
			c.Rejected = append(c.Rejected, Rejected{
				Kind:   "realm",
				Name:   typ,
				Source: typeAttr.Source(),
				Err:    &trace.InvalidValueError{At: typeAttr.Source(), Expected: "an object keyed by realm name"},
			})

			continue
		}

		byName := realms.Child(typeAttr.Node(), typeAttr.Source())

		for _, name := range byName.Keys() {
			entry := byName.Entry(name)

			rr, err := trace.RecordReader(entry)
			if err != nil {
				c.Rejected = append(c.Rejected, Rejected{Kind: "realm", Name: typ + "." + name, Source: entry.Source(), Err: err})

				continue
			}

			realm, err := ParseRealm(typ, name, rr)
			if err != nil {
				c.Rejected = append(c.Rejected, Rejected{Kind: "realm", Name: typ + "." + name, Source: entry.Source(), Err: err})

				continue
			}

			c.Realms = append(c.Realms, realm)
		}
	}
}

// Realm returns the realm with the given name, of any type.
func (c *ElasticsearchConfig) Realm(name string) (Realm, bool) {
	for _, r := range c.Realms {
		if r.Common().Name == name {
			return r, true
		}
	}

	return nil, false
}

func parseSSL(sec *trace.Reader, prefix string) SSLSettings {
	get := func(k string) string { return prefix + "." + k }

	return SSLSettings{
		Source:                 trace.NewAttribute(sec.Source(), prefix),
		Enabled:                optBool(sec, get("enabled")),
		Key:                    optString(sec, get("key")),
		KeyPassphrase:          optSecret(sec, get("key_passphrase")),
		Certificate:            optString(sec, get("certificate")),
		CertificateAuthorities: optStrings(sec, get("certificate_authorities")),
		VerificationMode:       optString(sec, get("verification_mode")),
		ClientAuthentication:   optString(sec, get("client_authentication")),
		KeystorePath:           optString(sec, get("keystore.path")),
		KeystorePassword:       optSecret(sec, get("keystore.password")),
		TruststorePath:         optString(sec, get("truststore.path")),
		TruststorePassword:     optSecret(sec, get("truststore.password")),
		SupportedProtocols:     optStrings(sec, get("supported_protocols")),
		CipherSuites:           optStrings(sec, get("cipher_suites")),
	}
}
