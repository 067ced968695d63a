package xpack

import (
	"xpack-migrator/internal/trace"
)

// Realm types as they appear under xpack.security.authc.realms.
const (
	TypeNative          = "native"
	TypeFile            = "file"
	TypeLDAP            = "ldap"
	TypeActiveDirectory = "active_directory"
	TypeSAML            = "saml"
	TypeOIDC            = "oidc"
	TypePKI             = "pki"
	TypeKerberos        = "kerberos"
	TypeJWT             = "jwt"
)

// KnownRealmTypes lists every realm type with a dedicated parser.
var KnownRealmTypes = []string{
	TypeNative, TypeFile, TypeLDAP, TypeActiveDirectory, TypeSAML,
	TypeOIDC, TypePKI, TypeKerberos, TypeJWT,
}

// Realm is one configured authentication realm. The set of implementations is
// closed; switch on the concrete type.
type Realm interface {
	// Common returns the attributes shared by all realm types.
	Common() *RealmCommon

	isRealm()
}

// RealmCommon holds the attributes shared by all realm types.
type RealmCommon struct {
	Type    string
	Name    string
	Source  trace.Source
	Order   trace.Traceable[int]
	Enabled trace.Traceable[bool]
	// Ignored are recognized settings that have no counterpart in Search Guard.
	Ignored []Setting
	// Unknown are settings the parser does not recognize.
	Unknown []Setting
}

// Common returns c.
func (c *RealmCommon) Common() *RealmCommon {
	return c
}

// ID returns "<type>.<name>".
func (c *RealmCommon) ID() string {
	return c.Type + "." + c.Name
}

// CacheSettings is the user cache of native and file realms.
type CacheSettings struct {
	TTL      trace.OptTraceable[string]
	MaxUsers trace.OptTraceable[int]
	HashAlgo trace.OptTraceable[string]
}

// NativeRealm authenticates against the .security index.
type NativeRealm struct {
	RealmCommon
	Cache CacheSettings
}

// FileRealm authenticates against the users file on each node.
type FileRealm struct {
	RealmCommon
	Cache CacheSettings
}

// UserSearch configures how LDAP users are looked up.
type UserSearch struct {
	BaseDN          trace.OptTraceable[string]
	Scope           trace.OptTraceable[string]
	Filter          trace.OptTraceable[string]
	Attribute       trace.OptTraceable[string]
	PoolEnabled     trace.OptTraceable[bool]
	PoolSize        trace.OptTraceable[int]
	PoolInitialSize trace.OptTraceable[int]
}

// GroupSearch configures how LDAP groups are looked up.
type GroupSearch struct {
	BaseDN        trace.OptTraceable[string]
	Scope         trace.OptTraceable[string]
	Filter        trace.OptTraceable[string]
	UserAttribute trace.OptTraceable[string]
}

// LDAPSSL is the TLS configuration of an LDAP connection.
type LDAPSSL struct {
	VerificationMode       trace.OptTraceable[string]
	CertificateAuthorities trace.OptTraceable[trace.List[string]]
	Certificate            trace.OptTraceable[string]
	Key                    trace.OptTraceable[string]
	KeyPassphrase          trace.OptTraceable[string]
	SecureKeyPassphrase    trace.OptTraceable[string]
}

// LDAPSettings is shared by ldap and active_directory realms.
type LDAPSettings struct {
	URLs                  trace.OptTraceable[trace.List[string]]
	LoadBalanceType       trace.OptTraceable[string]
	BindDN                trace.OptTraceable[string]
	BindPassword          trace.OptTraceable[string]
	SecureBindPassword    trace.OptTraceable[string]
	UserDNTemplates       trace.OptTraceable[trace.List[string]]
	UserSearch            UserSearch
	GroupSearch           GroupSearch
	UnmappedGroupsAsRoles trace.OptTraceable[bool]
	SSL                   LDAPSSL
	TimeoutTCPConnect     trace.OptTraceable[string]
	TimeoutTCPRead        trace.OptTraceable[string]
	TimeoutLDAPSearch     trace.OptTraceable[string]
	FollowReferrals       trace.OptTraceable[bool]
	AuthorizationRealms   trace.OptTraceable[trace.List[string]]
}

// LDAPRealm authenticates against a generic LDAP directory.
type LDAPRealm struct {
	RealmCommon
	LDAPSettings
}

// ActiveDirectoryRealm authenticates against Active Directory.
type ActiveDirectoryRealm struct {
	RealmCommon
	LDAPSettings
	DomainName trace.Traceable[string]
}

// SAMLRealm is a SAML service provider used by Kibana.
type SAMLRealm struct {
	RealmCommon
	IdPMetadataPath trace.OptTraceable[string]
	IdPEntityID     trace.OptTraceable[string]
	SPEntityID      trace.OptTraceable[string]
	SPACS           trace.OptTraceable[string]
	SPLogout        trace.OptTraceable[string]
	AttrPrincipal   trace.OptTraceable[string]
	AttrGroups      trace.OptTraceable[string]
	AttrName        trace.OptTraceable[string]
	AttrMail        trace.OptTraceable[string]
}

// OIDCRealm is an OpenID Connect relying party used by Kibana.
type OIDCRealm struct {
	RealmCommon
	ClientID               trace.OptTraceable[string]
	ClientSecret           trace.OptTraceable[string]
	ResponseType           trace.OptTraceable[string]
	RedirectURI            trace.OptTraceable[string]
	PostLogoutRedirectURI  trace.OptTraceable[string]
	RequestedScopes        trace.OptTraceable[trace.List[string]]
	Issuer                 trace.OptTraceable[string]
	AuthorizationEndpoint  trace.OptTraceable[string]
	TokenEndpoint          trace.OptTraceable[string]
	UserinfoEndpoint       trace.OptTraceable[string]
	EndsessionEndpoint     trace.OptTraceable[string]
	JWKSetPath             trace.OptTraceable[string]
	ClaimPrincipal         trace.OptTraceable[string]
	ClaimGroups            trace.OptTraceable[string]
	ClaimName              trace.OptTraceable[string]
	ClaimMail              trace.OptTraceable[string]
	CertificateAuthorities trace.OptTraceable[trace.List[string]]
	HTTPProxyHost          trace.OptTraceable[string]
}

// PKIRealm authenticates TLS client certificates.
type PKIRealm struct {
	RealmCommon
	UsernamePattern        trace.OptTraceable[string]
	UsernameAttribute      trace.OptTraceable[string]
	CertificateAuthorities trace.OptTraceable[trace.List[string]]
	TruststorePath         trace.OptTraceable[string]
	TruststorePassword     trace.OptTraceable[string]
	DelegationEnabled      trace.OptTraceable[bool]
}

// KerberosRealm authenticates SPNEGO tickets.
type KerberosRealm struct {
	RealmCommon
	KeytabPath      trace.OptTraceable[string]
	KrbDebug        trace.OptTraceable[bool]
	RemoveRealmName trace.OptTraceable[bool]
}

// JWTRealm authenticates bearer JSON web tokens.
type JWTRealm struct {
	RealmCommon
	AllowedIssuer              trace.OptTraceable[trace.List[string]]
	AllowedAudiences           trace.OptTraceable[trace.List[string]]
	AllowedSignatureAlgorithms trace.OptTraceable[trace.List[string]]
	PKCJWKSetPath              trace.OptTraceable[string]
	ClaimPrincipal             trace.OptTraceable[string]
	ClaimGroups                trace.OptTraceable[string]
	ClientAuthType             trace.OptTraceable[string]
	ClientAuthSharedSecret     trace.OptTraceable[string]
	HMACKey                    trace.OptTraceable[string]
	TokenType                  trace.OptTraceable[string]
	FallbackClaims             trace.OptTraceable[*trace.Node]
}

// UnknownRealm is a realm of a type without a dedicated parser.
type UnknownRealm struct {
	RealmCommon
	Raw *trace.Node
}

func (*NativeRealm) isRealm()          {}
func (*FileRealm) isRealm()            {}
func (*LDAPRealm) isRealm()            {}
func (*ActiveDirectoryRealm) isRealm() {}
func (*SAMLRealm) isRealm()            {}
func (*OIDCRealm) isRealm()            {}
func (*PKIRealm) isRealm()             {}
func (*KerberosRealm) isRealm()        {}
func (*JWTRealm) isRealm()             {}
func (*UnknownRealm) isRealm()         {}

// ParseRealm reads one realm record. The returned error aggregates every
// structural problem of the record.
func ParseRealm(typ, name string, r *trace.Reader) (Realm, error) {
	common := RealmCommon{
		Type:    typ,
		Name:    name,
		Source:  r.Source(),
		Order:   trace.Required(r.Get("order"), trace.Int),
		Enabled: trace.WithDefault(r.Get("enabled"), trace.Bool, true),
	}

	var realm Realm

	switch typ {
	case TypeNative:
		common.Ignored = settings(r, "authorization_realms")
		realm = &NativeRealm{RealmCommon: common, Cache: parseCache(r)}
	case TypeFile:
		common.Ignored = settings(r, "authorization_realms")
		realm = &FileRealm{RealmCommon: common, Cache: parseCache(r)}
	case TypeLDAP:
		common.Ignored = settings(r, ldapIgnored...)
		realm = &LDAPRealm{RealmCommon: common, LDAPSettings: parseLDAP(r)}
	case TypeActiveDirectory:
		common.Ignored = settings(r, ldapIgnored...)
		realm = &ActiveDirectoryRealm{
			RealmCommon:  common,
			LDAPSettings: parseLDAP(r),
			DomainName:   trace.Required(r.Get("domain_name"), trace.String),
		}
	case TypeSAML:
		realm = parseSAML(common, r)
	case TypeOIDC:
		realm = parseOIDC(common, r)
	case TypePKI:
		realm = parsePKI(common, r)
	case TypeKerberos:
		common.Ignored = settings(r, "cache.ttl", "cache.max_users", "authorization_realms")
		realm = &KerberosRealm{
			RealmCommon:     common,
			KeytabPath:      optString(r, "keytab.path"),
			KrbDebug:        optBool(r, "krb.debug"),
			RemoveRealmName: optBool(r, "remove_realm_name"),
		}
	case TypeJWT:
		realm = parseJWT(common, r)
	default:
		return &UnknownRealm{RealmCommon: common, Raw: r.Node()}, r.Err()
	}

	realm.Common().Unknown = unknown(r)

	return realm, r.Err()
}

var ldapIgnored = []string{
	"cache.ttl", "cache.max_users", "cache.hash_algo",
	"metadata", "user_group_attribute",
	"ssl.supported_protocols", "ssl.cipher_suites",
	"ssl.truststore.path", "ssl.keystore.path",
	"ssl.truststore.password", "ssl.keystore.password",
}

func parseCache(r *trace.Reader) CacheSettings {
	return CacheSettings{
		TTL:      optString(r, "cache.ttl"),
		MaxUsers: optInt(r, "cache.max_users"),
		HashAlgo: optString(r, "cache.hash_algo"),
	}
}

func parseLDAP(r *trace.Reader) LDAPSettings {
	return LDAPSettings{
		URLs:               optStrings(r, "url"),
		LoadBalanceType:    optString(r, "load_balance.type"),
		BindDN:             optString(r, "bind_dn"),
		BindPassword:       optSecret(r, "bind_password"),
		SecureBindPassword: optSecret(r, "secure_bind_password"),
		UserDNTemplates:    optStrings(r, "user_dn_templates"),
		UserSearch: UserSearch{
			BaseDN:          optString(r, "user_search.base_dn"),
			Scope:           optString(r, "user_search.scope"),
			Filter:          optString(r, "user_search.filter"),
			Attribute:       optString(r, "user_search.attribute"),
			PoolEnabled:     optBool(r, "user_search.pool.enabled"),
			PoolSize:        optInt(r, "user_search.pool.size"),
			PoolInitialSize: optInt(r, "user_search.pool.initial_size"),
		},
		GroupSearch: GroupSearch{
			BaseDN:        optString(r, "group_search.base_dn"),
			Scope:         optString(r, "group_search.scope"),
			Filter:        optString(r, "group_search.filter"),
			UserAttribute: optString(r, "group_search.user_attribute"),
		},
		UnmappedGroupsAsRoles: optBool(r, "unmapped_groups_as_roles"),
		SSL: LDAPSSL{
			VerificationMode:       optString(r, "ssl.verification_mode"),
			CertificateAuthorities: optStrings(r, "ssl.certificate_authorities"),
			Certificate:            optString(r, "ssl.certificate"),
			Key:                    optString(r, "ssl.key"),
			KeyPassphrase:          optSecret(r, "ssl.key_passphrase"),
			SecureKeyPassphrase:    optSecret(r, "ssl.secure_key_passphrase"),
		},
		TimeoutTCPConnect:   optString(r, "timeout.tcp_connect"),
		TimeoutTCPRead:      optString(r, "timeout.tcp_read"),
		TimeoutLDAPSearch:   optString(r, "timeout.ldap_search"),
		FollowReferrals:     optBool(r, "follow_referrals"),
		AuthorizationRealms: optStrings(r, "authorization_realms"),
	}
}

func parseSAML(common RealmCommon, r *trace.Reader) *SAMLRealm {
	common.Ignored = settings(r,
		"signing.certificate", "signing.key", "signing.keystore.path", "signing.saml_messages",
		"encryption.certificate", "encryption.key", "encryption.keystore.path",
		"nameid_format", "nameid.allow_create", "force_authn", "populate_user_metadata",
		"idp.use_single_logout", "attributes.dn", "authorization_realms",
	)

	return &SAMLRealm{
		RealmCommon:     common,
		IdPMetadataPath: optString(r, "idp.metadata.path"),
		IdPEntityID:     optString(r, "idp.entity_id"),
		SPEntityID:      optString(r, "sp.entity_id"),
		SPACS:           optString(r, "sp.acs"),
		SPLogout:        optString(r, "sp.logout"),
		AttrPrincipal:   optString(r, "attributes.principal"),
		AttrGroups:      optString(r, "attributes.groups"),
		AttrName:        optString(r, "attributes.name"),
		AttrMail:        optString(r, "attributes.mail"),
	}
}

func parseOIDC(common RealmCommon, r *trace.Reader) *OIDCRealm {
	common.Ignored = settings(r,
		"rp.signature_algorithm", "populate_user_metadata",
		"claim_patterns.principal", "claim_patterns.groups",
		"http.connect_timeout", "http.read_timeout", "http.max_connections",
		"authorization_realms",
	)

	return &OIDCRealm{
		RealmCommon:            common,
		ClientID:               optString(r, "rp.client_id"),
		ClientSecret:           optSecret(r, "rp.client_secret"),
		ResponseType:           optString(r, "rp.response_type"),
		RedirectURI:            optString(r, "rp.redirect_uri"),
		PostLogoutRedirectURI:  optString(r, "rp.post_logout_redirect_uri"),
		RequestedScopes:        optStrings(r, "rp.requested_scopes"),
		Issuer:                 optString(r, "op.issuer"),
		AuthorizationEndpoint:  optString(r, "op.authorization_endpoint"),
		TokenEndpoint:          optString(r, "op.token_endpoint"),
		UserinfoEndpoint:       optString(r, "op.userinfo_endpoint"),
		EndsessionEndpoint:     optString(r, "op.endsession_endpoint"),
		JWKSetPath:             optString(r, "op.jwkset_path"),
		ClaimPrincipal:         optString(r, "claims.principal"),
		ClaimGroups:            optString(r, "claims.groups"),
		ClaimName:              optString(r, "claims.name"),
		ClaimMail:              optString(r, "claims.mail"),
		CertificateAuthorities: optStrings(r, "ssl.certificate_authorities"),
		HTTPProxyHost:          optString(r, "http.proxy.host"),
	}
}

func parsePKI(common RealmCommon, r *trace.Reader) *PKIRealm {
	common.Ignored = settings(r, "truststore.type", "truststore.algorithm", "files.role_mapping", "cache.ttl", "authorization_realms")

	return &PKIRealm{
		RealmCommon:            common,
		UsernamePattern:        optString(r, "username_pattern"),
		UsernameAttribute:      optString(r, "username_attribute"),
		CertificateAuthorities: optStrings(r, "certificate_authorities"),
		TruststorePath:         optString(r, "truststore.path"),
		TruststorePassword:     optSecret(r, "truststore.password"),
		DelegationEnabled:      optBool(r, "delegation.enabled"),
	}
}

func parseJWT(common RealmCommon, r *trace.Reader) *JWTRealm {
	common.Ignored = settings(r,
		"cache.ttl", "cache.size", "jwt.cache.size", "populate_user_metadata",
		"http.proxy.host", "ssl.certificate_authorities", "authorization_realms",
		"claims.dn", "claims.mail", "claims.name",
	)

	return &JWTRealm{
		RealmCommon:                common,
		AllowedIssuer:              optStrings(r, "allowed_issuer"),
		AllowedAudiences:           optStrings(r, "allowed_audiences"),
		AllowedSignatureAlgorithms: optStrings(r, "allowed_signature_algorithms"),
		PKCJWKSetPath:              optString(r, "pkc_jwkset_path"),
		ClaimPrincipal:             optString(r, "claims.principal"),
		ClaimGroups:                optString(r, "claims.groups"),
		ClientAuthType:             optString(r, "client_authentication.type"),
		ClientAuthSharedSecret:     optSecret(r, "client_authentication.shared_secret"),
		HMACKey:                    optSecret(r, "hmac_key"),
		TokenType:                  optString(r, "token_type"),
		FallbackClaims:             optNode(r, "fallback_claims"),
	}
}
