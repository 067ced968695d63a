package realm

import (
	"fmt"

	"xpack-migrator/internal/diagnostic"
	"xpack-migrator/internal/match"
	"xpack-migrator/internal/searchguard"
	"xpack-migrator/internal/trace"
	"xpack-migrator/internal/xpack"
)

// Search Guard auth domain types.
const (
	TypeInternalUsers = "basic/internal_users_db"
	TypeLDAP          = "basic/ldap"
	TypeClientCert    = "clientcert"
	TypeJWT           = "jwt"
	TypeKerberos      = "kerberos"
	TypeSAML          = "saml"
	TypeOIDC          = "oidc"
)

// Translate converts r into a Search Guard auth domain. It returns false when
// the realm yields no domain: it is disabled or of an unsupported type. Every
// setting that is not carried over is reported on rep.
func Translate(r xpack.Realm, rep *diagnostic.Reporter, opts Options) (searchguard.AuthDomain, bool) {
	c := r.Common()

	if enabled, err := c.Enabled.Value(); err == nil && !enabled {
		rep.Problem(c.Enabled, fmt.Sprintf("Realm '%s' is disabled; it was not migrated", c.ID()))

		return searchguard.AuthDomain{}, false
	}

	reportSettings(c, rep)

	b := newConfigBuilder(rep)

	switch realm := r.(type) {
	case *xpack.NativeRealm:
		translateCache(realm.Cache, rep)

		return b.domain(TypeInternalUsers), true

	case *xpack.FileRealm:
		translateCache(realm.Cache, rep)
		rep.Inconvertible(trace.At(c.Source), "The users and users_roles files are not migrated; add the users to sg_internal_users.yml")

		return b.domain(TypeInternalUsers), true

	case *xpack.LDAPRealm:
		translateLDAP(b, realm.LDAPSettings, nil, opts)

		return b.domain(TypeLDAP), true

	case *xpack.ActiveDirectoryRealm:
		translateLDAP(b, realm.LDAPSettings, &realm.DomainName, opts)

		return b.domain(TypeLDAP), true

	case *xpack.SAMLRealm:
		translateSAML(b, realm)

		return b.domain(TypeSAML), true

	case *xpack.OIDCRealm:
		translateOIDC(b, realm)

		return b.domain(TypeOIDC), true

	case *xpack.PKIRealm:
		translatePKI(b, realm)

		return b.domain(TypeClientCert), true

	case *xpack.JWTRealm:
		translateJWT(b, realm)

		return b.domain(TypeJWT), true

	case *xpack.KerberosRealm:
		translateKerberos(b, realm)

		return b.domain(TypeKerberos), true

	case *xpack.UnknownRealm:
		rep.Problem(trace.At(c.Source), fmt.Sprintf(
			"Realm migration for type '%s' is not yet implemented.%s",
			c.Type, match.DidYouMean(c.Type, xpack.KnownRealmTypes)))

		return searchguard.AuthDomain{}, false

	default:
		panic(fmt.Sprintf("realm: unhandled realm type %T", r))
	}
}

// IsFrontend returns true for realms that belong into sg_frontend_authc.yml.
func IsFrontend(r xpack.Realm) bool {
	switch r.(type) {
	case *xpack.SAMLRealm, *xpack.OIDCRealm:
		return true
	default:
		return false
	}
}

func reportSettings(c *xpack.RealmCommon, rep *diagnostic.Reporter) {
	for _, s := range c.Ignored {
		rep.Preset(diagnostic.IgnoredKey, s)
	}

	for _, s := range c.Unknown {
		rep.Preset(diagnostic.UnknownKey, s)
	}
}

func translateCache(cache xpack.CacheSettings, rep *diagnostic.Reporter) {
	inconvertible(rep, "Search Guard manages the user cache itself",
		cache.TTL, cache.MaxUsers, cache.HashAlgo)
}
