package realm

import (
	"xpack-migrator/internal/xpack"
)

func translateJWT(b *configBuilder, r *xpack.JWTRealm) {
	rep := b.rep

	if path, ok := r.PKCJWKSetPath.Get(); ok {
		if isURL(path) {
			b.set("jwt.signing.jwks_endpoint.url", path)
		} else {
			rep.Inconvertible(r.PKCJWKSetPath,
				"JWK sets read from a file are not supported; put the keys into jwt.signing.jwks or serve them from a URL")
		}
	}

	putFirst(b, "jwt.required_issuer", r.AllowedIssuer)
	putFirst(b, "jwt.required_audience", r.AllowedAudiences)

	principal := orDefault(b, r.ClaimPrincipal, "sub")
	b.set("user_mapping.user_name.from", "jwt."+principal)

	if groups, ok := r.ClaimGroups.Get(); ok {
		b.set("user_mapping.roles.from", "jwt."+groups)
	}

	inconvertible(rep, "Search Guard derives the allowed algorithms from the signing keys",
		r.AllowedSignatureAlgorithms)
	inconvertible(rep, "Client authentication for JWT realms is not supported", r.ClientAuthType)
	inconvertibleSecret(rep, "Shared secrets are not migrated; configure jwt.signing manually",
		r.ClientAuthSharedSecret, r.HMACKey)
	inconvertible(rep, "Search Guard only accepts ID tokens in the Authorization header", r.TokenType)
	inconvertible(rep, "Fallback claims are not supported", r.FallbackClaims)
}
