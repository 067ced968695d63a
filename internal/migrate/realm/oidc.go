package realm

import (
	"strings"

	"xpack-migrator/internal/diagnostic"
	"xpack-migrator/internal/xpack"
)

const wellKnownPath = "/.well-known/openid-configuration"

func translateOIDC(b *configBuilder, r *xpack.OIDCRealm) {
	rep := b.rep

	if issuer, ok := r.Issuer.Get(); ok {
		b.set("oidc.idp.openid_configuration_url", strings.TrimSuffix(issuer, "/")+wellKnownPath)
		ignored(rep, r.AuthorizationEndpoint, r.TokenEndpoint, r.UserinfoEndpoint, r.EndsessionEndpoint, r.JWKSetPath)
	} else {
		rep.Preset(diagnostic.MissingParameter, r.Issuer, "oidc.idp.openid_configuration_url")
		inconvertible(rep, "Search Guard discovers endpoints from the issuer; explicit endpoints cannot be migrated",
			r.AuthorizationEndpoint, r.TokenEndpoint, r.UserinfoEndpoint, r.EndsessionEndpoint, r.JWKSetPath)
	}

	if !put(b, "oidc.client_id", r.ClientID) {
		rep.Preset(diagnostic.MissingParameter, r.ClientID, "oidc.client_id")
	}

	if !put(b, "oidc.client_secret", r.ClientSecret) {
		rep.ProblemSecret(r.ClientSecret, "Client secret is a keystore value; set oidc.client_secret manually")
	}

	principal := orDefault(b, r.ClaimPrincipal, "sub")
	b.set("user_mapping.user_name.from", "oidc_id_token."+principal)

	if groups, ok := r.ClaimGroups.Get(); ok {
		b.set("user_mapping.roles.from", "oidc_id_token."+groups)
	}

	put(b, "oidc.logout_url", r.PostLogoutRedirectURI)

	if cas, ok := r.CertificateAuthorities.Get(); ok {
		b.set("oidc.idp.tls.trusted_cas", fileRefs(cas.Values()))
	}

	inconvertible(rep, "Search Guard derives this value from kibana_url and the IdP metadata",
		r.RedirectURI, r.ResponseType)
	inconvertible(rep, "Requested scopes are not migrated; Search Guard requests the openid scope",
		r.RequestedScopes)
	inconvertible(rep, "Additional claims are not mapped; configure user_mapping.attrs manually",
		r.ClaimName, r.ClaimMail)
	inconvertible(rep, "Proxy settings must be configured manually in oidc.idp.proxy", r.HTTPProxyHost)
}
