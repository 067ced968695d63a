package xpack

import (
	"github.com/cockroachdb/errors"

	"xpack-migrator/internal/trace"
)

// KibanaFile is the default name of the Kibana configuration file.
const KibanaFile = "kibana.yml"

// Kibana provider types.
const (
	ProviderBasic     = "basic"
	ProviderToken     = "token"
	ProviderSAML      = "saml"
	ProviderOIDC      = "oidc"
	ProviderPKI       = "pki"
	ProviderKerberos  = "kerberos"
	ProviderAnonymous = "anonymous"
)

// KibanaConfig is the security part of kibana.yml.
type KibanaConfig struct {
	Source                 trace.Source
	Enabled                trace.Traceable[bool]
	Providers              []*Provider
	SelectorEnabled        trace.OptTraceable[bool]
	LoginAssistanceMessage trace.OptTraceable[string]
	CookieName             trace.OptTraceable[string]
	EncryptionKey          trace.OptTraceable[string]
	SecureCookies          trace.OptTraceable[bool]
	SameSiteCookies        trace.OptTraceable[string]
	SessionIdleTimeout     trace.OptTraceable[string]
	SessionLifespan        trace.OptTraceable[string]
	SessionCleanupInterval trace.OptTraceable[string]
	AuditEnabled           trace.OptTraceable[bool]
	// Ignored are recognized settings that have no counterpart in Search Guard.
	Ignored  []Setting
	Rejected []Rejected
	Unknown  []Setting
}

// Provider is one entry of xpack.security.authc.providers.
type Provider struct {
	Type            string
	Name            string
	Source          trace.Source
	Order           trace.Traceable[int]
	Enabled         trace.Traceable[bool]
	Description     trace.OptTraceable[string]
	Hint            trace.OptTraceable[string]
	Icon            trace.OptTraceable[string]
	ShowInSelector  trace.OptTraceable[bool]
	AccessAgreement trace.OptTraceable[string]
	// Realm names the Elasticsearch realm of saml and oidc providers.
	Realm   trace.OptTraceable[string]
	Ignored []Setting
	Unknown []Setting
}

// ParseKibana reads kibana.yml. Shortcut keys are expanded. Both the provider
// map (authc.providers.<type>.<name>) and the legacy list of provider types are
// accepted.
func ParseKibana(file string, data []byte) (*KibanaConfig, error) {
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

	cfg := &KibanaConfig{
		Source:                 root.Source(),
		Enabled:                trace.WithDefault(sec.Get("enabled"), trace.Bool, true),
		SelectorEnabled:        optBool(sec, "authc.selector.enabled"),
		LoginAssistanceMessage: optString(sec, "loginAssistanceMessage"),
		CookieName:             optString(sec, "cookieName"),
		EncryptionKey:          optSecret(sec, "encryptionKey"),
		SecureCookies:          optBool(sec, "secureCookies"),
		SameSiteCookies:        optString(sec, "sameSiteCookies"),
		SessionIdleTimeout:     optString(sec, "session.idleTimeout"),
		SessionLifespan:        optString(sec, "session.lifespan"),
		SessionCleanupInterval: optString(sec, "session.cleanupInterval"),
		AuditEnabled:           optBool(sec, "audit.enabled"),
		Ignored: settings(sec,
			"loginHelp", "session.concurrentSessions.maxSessions",
			"authc.http.enabled", "authc.http.autoSchemesEnabled", "authc.http.schemes",
			"audit.appender", "audit.ignore_filters",
		),
	}

	providers := sec.Get("authc.providers")
	if err := root.Err(); err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", file)
	}

	if providers.Exists() {
		switch providers.Node().Kind() {
		case trace.KindMap:
			cfg.parseProviders(sec.Child(providers.Node(), providers.Source()))
		case trace.KindList:
			cfg.parseLegacyProviders(sec, providers)
		default:
			return nil, errors.Newf("%s: expected an object keyed by provider type or a list of provider types",
				providers.Source().FullPath())
		}
	}

	cfg.Unknown = unknown(sec)

	return cfg, nil
}

func (c *KibanaConfig) parseProviders(byType *trace.Reader) {
	for _, typ := range byType.Keys() {
		typeAttr := byType.Entry(typ)

		if typeAttr.Node().Kind() != trace.KindMap {
			c.Rejected = append(c.Rejected, Rejected{
				Kind:   "provider",
				Name:   typ,
				Source: typeAttr.Source(),
				Err:    &trace.InvalidValueError{At: typeAttr.Source(), Expected: "an object keyed by provider name"},
			})

			continue
		}

		byName := byType.Child(typeAttr.Node(), typeAttr.Source())

		for _, name := range byName.Keys() {
			entry := byName.Entry(name)

			r, err := trace.RecordReader(entry)
			if err == nil {
				p := parseProvider(typ, name, r)
				if err = r.Err(); err == nil {
					c.Providers = append(c.Providers, p)

					continue
				}
			}

			c.Rejected = append(c.Rejected, Rejected{Kind: "provider", Name: typ + "." + name, Source: entry.Source(), Err: err})
		}
	}
}

// parseLegacyProviders handles "authc.providers: [basic, saml]". The list
// position is the order; saml and oidc read their realm from authc.<type>.realm.
func (c *KibanaConfig) parseLegacyProviders(sec *trace.Reader, providers *trace.Attribute) {
	types, err := trace.RequiredList(providers, trace.String).Value()
	if err != nil {
		c.Rejected = append(c.Rejected, Rejected{Kind: "provider", Name: "providers", Source: providers.Source(), Err: err})

		return
	}

	for i, typ := range types {
		v := typ.Get()

		p := &Provider{
			Type:    v,
			Name:    v,
			Source:  typ.Source(),
			Order:   trace.Of(typ.Source(), i),
			Enabled: trace.Of(typ.Source(), true),
		}

		if v == ProviderSAML || v == ProviderOIDC {
			p.Realm = optString(sec, "authc."+v+".realm")
		} else {
			p.Realm = trace.Absent[string](trace.NewAttribute(sec.Source(), "authc."+v+".realm"))
		}

		c.Providers = append(c.Providers, p)
	}
}

func parseProvider(typ, name string, r *trace.Reader) *Provider {
	p := &Provider{
		Type:            typ,
		Name:            name,
		Source:          r.Source(),
		Order:           trace.Required(r.Get("order"), trace.Int),
		Enabled:         trace.WithDefault(r.Get("enabled"), trace.Bool, true),
		Description:     optString(r, "description"),
		Hint:            optString(r, "hint"),
		Icon:            optString(r, "icon"),
		ShowInSelector:  optBool(r, "showInSelector"),
		AccessAgreement: optString(r, "accessAgreement.message"),
		Ignored: settings(r,
			"origin", "session.idleTimeout", "session.lifespan",
			"maxRedirectURLSize", "useRelayStateDeepLink",
			"credentials.username", "credentials.password", "credentials.apiKey",
		),
	}

	switch typ {
	case ProviderSAML, ProviderOIDC:
		p.Realm = trace.Optional(r.Get("realm"), trace.String)
		if !p.Realm.IsPresent() {
			r.Report(&trace.MissingAttributeError{At: p.Realm.Source()})
		}
	default:
		p.Realm = optString(r, "realm")
	}

	p.Unknown = unknown(r)

	return p
}
