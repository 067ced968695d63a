package migrate

import (
	"cmp"
	"fmt"
	"slices"

	"xpack-migrator/internal/diagnostic"
	"xpack-migrator/internal/match"
	"xpack-migrator/internal/migrate/realm"
	"xpack-migrator/internal/searchguard"
	"xpack-migrator/internal/trace"
	"xpack-migrator/internal/xpack"
)

// Search Guard frontend domain type for user name and password logins.
const typeBasic = "basic"

var knownProviderTypes = []string{
	xpack.ProviderBasic, xpack.ProviderToken, xpack.ProviderSAML, xpack.ProviderOIDC,
	xpack.ProviderPKI, xpack.ProviderKerberos, xpack.ProviderAnonymous,
}

// FrontendAuthTranslator produces sg_frontend_authc.yml from the Kibana
// providers, or from the Elasticsearch realms when Kibana defines none.
type FrontendAuthTranslator struct{}

// Name implements Translator.
func (*FrontendAuthTranslator) Name() string { return "frontend auth" }

// Translate implements Translator.
func (*FrontendAuthTranslator) Translate(ctx *Context, rep *diagnostic.Reporter) ([]searchguard.Config, error) {
	kb, hasKibana := ctx.Kibana()
	es, hasES := ctx.Elasticsearch()

	if !hasKibana && !hasES {
		rep.ProblemMessage("Skipping frontend auth migration: no Kibana or Elasticsearch configuration provided")

		return nil, nil
	}

	f := &frontend{ctx: ctx, rep: rep, es: es, translated: map[xpack.Realm]translatedRealm{}}

	if hasKibana {
		f.reportKibana(kb)
	}

	switch {
	case hasKibana && len(kb.Providers) > 0:
		f.fromProviders(kb.Providers)
	case hasES:
		f.fromRealms()
	}

	// Kibana without providers offers the basic login.
	if hasKibana && len(kb.Providers) == 0 && len(f.domains) == 0 {
		f.addBasic("")
	}

	if len(f.domains) == 0 {
		return nil, nil
	}

	return []searchguard.Config{&searchguard.FrontendAuthC{Domains: f.domains}}, nil
}

type frontend struct {
	ctx     *Context
	rep     *diagnostic.Reporter
	es      *xpack.ElasticsearchConfig
	domains []searchguard.AuthDomain
	basic   bool

	// translated holds the realms referenced by providers.
	translated map[xpack.Realm]translatedRealm
}

type translatedRealm struct {
	domain searchguard.AuthDomain
	ok     bool
}

func (f *frontend) addBasic(label string) {
	if f.basic {
		return
	}

	f.basic = true
	f.domains = append(f.domains, searchguard.AuthDomain{Type: typeBasic, Label: label, Config: searchguard.NewDocument()})
}

func (f *frontend) fromProviders(providers []*xpack.Provider) {
	sorted := slices.Clone(providers)
	slices.SortStableFunc(sorted, func(a, b *xpack.Provider) int {
		return cmp.Compare(providerOrder(a), providerOrder(b))
	})

	for _, p := range sorted {
		f.fromProvider(p)
	}

	// Frontend realms no provider points at are unreachable from Kibana.
	if f.es == nil {
		return
	}

	for _, r := range f.es.Realms {
		if _, used := f.translated[r]; realm.IsFrontend(r) && !used {
			f.rep.Problem(trace.At(r.Common().Source),
				"Realm is not referenced by any Kibana provider; it was not migrated")
		}
	}
}

func (f *frontend) fromProvider(p *xpack.Provider) {
	rep := f.rep

	if enabled, err := p.Enabled.Value(); err == nil && !enabled {
		rep.Problem(p.Enabled, fmt.Sprintf("Provider '%s.%s' is disabled; it was not migrated", p.Type, p.Name))

		return
	}

	reportIgnored(rep, p.Ignored)
	reportUnknown(rep, p.Unknown)

	for _, s := range []trace.Subject{p.Hint, p.Icon, p.ShowInSelector, p.AccessAgreement} {
		if _, ok := s.DisplayValue(); ok {
			rep.Inconvertible(s, "The Search Guard login page cannot be customized per provider")
		}
	}

	label, _ := p.Description.Get()

	switch p.Type {
	case xpack.ProviderBasic, xpack.ProviderToken:
		f.addBasic(label)

	case xpack.ProviderSAML, xpack.ProviderOIDC:
		r, ok := f.providerRealm(p)
		if !ok {
			return
		}

		domain, ok := f.translate(r)
		if !ok {
			return
		}

		domain.Label = label
		f.domains = append(f.domains, domain)

	case xpack.ProviderPKI, xpack.ProviderKerberos, xpack.ProviderAnonymous:
		rep.Inconvertible(trace.At(p.Source),
			fmt.Sprintf("Kibana %s providers have no equivalent in Search Guard frontend authentication", p.Type))

	default:
		rep.Problem(trace.At(p.Source), fmt.Sprintf("Unknown provider type '%s'; it was not migrated.%s",
			p.Type, match.DidYouMean(p.Type, knownProviderTypes)))
	}
}

// translate translates a realm once, however many providers reference it.
func (f *frontend) translate(r xpack.Realm) (searchguard.AuthDomain, bool) {
	if t, ok := f.translated[r]; ok {
		return t.domain, t.ok
	}

	domain, ok := realm.Translate(r, f.rep, f.ctx.Options())
	f.translated[r] = translatedRealm{domain: domain, ok: ok}

	return domain, ok
}

// providerRealm finds the Elasticsearch realm of a saml or oidc provider.
func (f *frontend) providerRealm(p *xpack.Provider) (xpack.Realm, bool) {
	name, ok := p.Realm.Get()
	if !ok {
		f.rep.Preset(diagnostic.MissingParameter, p.Realm, "realm")

		return nil, false
	}

	if f.es == nil {
		f.rep.Problem(p.Realm, "Realm cannot be resolved without elasticsearch.yml; the provider was not migrated")

		return nil, false
	}

	r, ok := f.es.Realm(name)
	if !ok {
		f.rep.Problem(p.Realm, "Realm not found in elasticsearch.yml; the provider was not migrated")

		return nil, false
	}

	if r.Common().Type != p.Type {
		f.rep.Problem(p.Realm, fmt.Sprintf("Realm is of type '%s', not '%s'; the provider was not migrated",
			r.Common().Type, p.Type))

		return nil, false
	}

	return r, true
}

func (f *frontend) fromRealms() {
	for _, r := range sortedRealms(f.es.Realms) {
		switch r.(type) {
		case *xpack.NativeRealm, *xpack.FileRealm:
			if enabled, err := r.Common().Enabled.Value(); err == nil && enabled {
				f.addBasic("")
			}
		case *xpack.SAMLRealm, *xpack.OIDCRealm:
			if domain, ok := realm.Translate(r, f.rep, f.ctx.Options()); ok {
				f.domains = append(f.domains, domain)
			}
		}
	}
}

func (f *frontend) reportKibana(kb *xpack.KibanaConfig) {
	rep := f.rep

	if enabled, err := kb.Enabled.Value(); err == nil && !enabled {
		rep.Problem(kb.Enabled, "Security is disabled in Kibana; Search Guard always requires a login")
	}

	reportRejected(rep, kb.Rejected)
	reportIgnored(rep, kb.Ignored)
	reportUnknown(rep, kb.Unknown)

	for _, s := range []trace.Subject{
		kb.CookieName, kb.SecureCookies, kb.SameSiteCookies, kb.LoginAssistanceMessage,
		kb.AuditEnabled, kb.SessionCleanupInterval, kb.SelectorEnabled,
	} {
		if _, ok := s.DisplayValue(); ok {
			rep.Inconvertible(s, "Setting has no equivalent in the Search Guard Kibana plugin; configure it manually")
		}
	}

	if kb.EncryptionKey.IsPresent() {
		rep.InconvertibleSecret(kb.EncryptionKey, "Set searchguard.cookie.password in kibana.yml instead")
	}

	for _, s := range []trace.OptTraceable[string]{kb.SessionIdleTimeout, kb.SessionLifespan} {
		if s.IsPresent() {
			rep.Critical(s, "Session limits are not migrated; Search Guard defaults may keep sessions alive longer")
		}
	}
}

func providerOrder(p *xpack.Provider) int {
	order, err := p.Order.Value()
	if err != nil {
		return 0
	}

	return order
}
