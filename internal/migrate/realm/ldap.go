package realm

import (
	"fmt"
	"strings"

	"github.com/go-ldap/ldap/v3"

	"xpack-migrator/internal/diagnostic"
	"xpack-migrator/internal/trace"
	"xpack-migrator/internal/xpack"
)

// X-Pack search scopes.
const (
	scopeSubTree  = "sub_tree"
	scopeOneLevel = "one_level"
)

// X-Pack filter placeholder for the user name or DN.
const xpackPlaceholder = "{0}"

var loadBalanceTypes = map[string]string{
	"failover":    "failover",
	"round_robin": "roundrobin",
}

var dnsLoadBalanceTypes = map[string]string{
	"dns_failover":    "failover",
	"dns_round_robin": "roundrobin",
}

// translateLDAP handles ldap and active_directory realms. domain is nil for
// plain LDAP.
func translateLDAP(b *configBuilder, s xpack.LDAPSettings, domain *trace.Traceable[string], opts Options) {
	rep := b.rep

	var domainDN string
	if domain != nil {
		domainDN = domainToDN(domain.Get())
	}

	switch {
	case put(b, "ldap.idp.hosts", s.URLs):
	case domain != nil:
		b.set("ldap.idp.hosts", []string{fmt.Sprintf("ldap://%s:389", domain.Get())})
		rep.Preset(diagnostic.DefaultApplied, s.URLs, fmt.Sprintf("'ldap://%s:389'", domain.Get()))
	default:
		rep.Preset(diagnostic.MissingParameter, s.URLs, "ldap.idp.hosts")
	}

	translateLoadBalance(b, s.LoadBalanceType)

	if put(b, "ldap.idp.bind_dn", s.BindDN) {
		checkDN(rep, s.BindDN)
	}

	b.set("ldap.idp.password", bindPassword(rep, s.BindPassword, s.SecureBindPassword))

	translatePool(b, s.UserSearch)
	translateLDAPSSL(b, s.SSL)

	translateUserSearch(b, s, domain, domainDN, opts)
	translateGroupSearch(b, s.GroupSearch, domainDN, opts)

	inconvertible(rep, "Search Guard always searches for users; user DN templates are not supported",
		s.UserDNTemplates)
	inconvertible(rep, "Search Guard has no LDAP timeout settings",
		s.TimeoutTCPConnect, s.TimeoutTCPRead, s.TimeoutLDAPSearch)
	inconvertible(rep, "Referral handling cannot be configured in Search Guard", s.FollowReferrals)
	inconvertible(rep, "Delegated authorization is not supported; map roles in sg_roles_mapping.yml",
		s.AuthorizationRealms)
	inconvertible(rep, "Unmapped groups are never used as roles in Search Guard; add explicit role mappings",
		s.UnmappedGroupsAsRoles)
}

// bindPassword picks the bind password. The secure setting wins when both are
// set.
func bindPassword(rep *diagnostic.Reporter, plain, secure trace.OptTraceable[string]) string {
	p, hasPlain := plain.Get()
	sp, hasSecure := secure.Get()

	hasPlain = hasPlain && strings.TrimSpace(p) != ""
	hasSecure = hasSecure && strings.TrimSpace(sp) != ""

	switch {
	case hasPlain && hasSecure:
		rep.ProblemSecret(plain, "Both bind_password and secure_bind_password are set; using secure_bind_password")

		return sp
	case hasSecure:
		return sp
	case hasPlain:
		return p
	default:
		return ""
	}
}

func translateLoadBalance(b *configBuilder, v trace.OptTraceable[string]) {
	typ, ok := v.Get()
	if !ok {
		return
	}

	typ = strings.ToLower(typ)

	if strategy, ok := loadBalanceTypes[typ]; ok {
		b.set("ldap.idp.connection_strategy", strategy)

		return
	}

	if strategy, ok := dnsLoadBalanceTypes[typ]; ok {
		b.set("ldap.idp.connection_strategy", strategy)
		b.rep.Problem(v, fmt.Sprintf("DNS based load balancing is not supported; using '%s' over the configured hosts", strategy))

		return
	}

	b.rep.Problem(v, "Unknown load balancing type; Search Guard uses its default connection strategy")
}

func translatePool(b *configBuilder, us xpack.UserSearch) {
	if enabled, ok := us.PoolEnabled.Get(); ok && !enabled {
		b.rep.Inconvertible(us.PoolEnabled, "Connection pool cannot be disabled in Search Guard; its default pool size is used")
		ignored(b.rep, us.PoolInitialSize, us.PoolSize)

		return
	}

	put(b, "ldap.idp.connection_pool.min_size", us.PoolInitialSize)
	put(b, "ldap.idp.connection_pool.max_size", us.PoolSize)
}

func translateLDAPSSL(b *configBuilder, ssl xpack.LDAPSSL) {
	rep := b.rep

	if cas, ok := ssl.CertificateAuthorities.Get(); ok {
		b.set("ldap.idp.tls.trusted_cas", fileRefs(cas.Values()))
	}

	if cert, ok := ssl.Certificate.Get(); ok {
		b.set("ldap.idp.tls.client_auth.certificate", fileRef(cert))
	}

	if key, ok := ssl.Key.Get(); ok {
		b.set("ldap.idp.tls.client_auth.private_key", fileRef(key))
	}

	inconvertibleSecret(rep, "Key passphrases are not migrated; set ldap.idp.tls.client_auth.private_key_password manually",
		ssl.KeyPassphrase, ssl.SecureKeyPassphrase)

	mode, ok := ssl.VerificationMode.Get()
	if !ok {
		return
	}

	switch strings.ToLower(mode) {
	case "full":
	case "certificate":
		b.set("ldap.idp.tls.verify_hostnames", false)
	case "none":
		rep.Inconvertible(ssl.VerificationMode, "Search Guard always verifies LDAP server certificates")
	default:
		rep.Problem(ssl.VerificationMode, "Unknown verification mode; Search Guard verifies certificates and host names")
	}
}

func translateUserSearch(b *configBuilder, s xpack.LDAPSettings, domain *trace.Traceable[string], domainDN string, opts Options) {
	us := s.UserSearch
	rep := b.rep

	switch {
	case put(b, "ldap.user_search.base_dn", us.BaseDN):
		checkDN(rep, us.BaseDN)
	case domain != nil:
		b.set("ldap.user_search.base_dn", domainDN)
		rep.Preset(diagnostic.DefaultApplied, us.BaseDN, fmt.Sprintf("'%s'", domainDN))
	case s.UserDNTemplates.IsPresent():
		return
	default:
		rep.Preset(diagnostic.MissingParameter, us.BaseDN, "ldap.user_search.base_dn")

		return
	}

	translateScope(b, "ldap.user_search.scope", us.Scope, opts)

	switch {
	case us.Filter.IsPresent():
		filter, _ := us.Filter.Get()
		b.set("ldap.user_search.filter.raw", strings.ReplaceAll(filter, xpackPlaceholder, "${user.name}"))
		inconvertible(rep, "The attribute is ignored because a filter is set", us.Attribute)
	case us.Attribute.IsPresent():
		put(b, "ldap.user_search.filter.by_attribute", us.Attribute)
	case domain != nil:
		def := fmt.Sprintf("(&(objectClass=user)(|(sAMAccountName=${user.name})(userPrincipalName=${user.name}@%s)))", domain.Get())
		b.set("ldap.user_search.filter.raw", def)
		rep.Preset(diagnostic.DefaultApplied, us.Filter, fmt.Sprintf("'%s'", def))
	default:
		putDefault(b, "ldap.user_search.filter.raw", us.Filter, "(uid=${user.name})")
	}
}

func translateGroupSearch(b *configBuilder, gs xpack.GroupSearch, domainDN string, opts Options) {
	rep := b.rep

	switch {
	case put(b, "ldap.group_search.base_dn", gs.BaseDN):
		checkDN(rep, gs.BaseDN)
	case domainDN != "":
		b.set("ldap.group_search.base_dn", domainDN)
		rep.Preset(diagnostic.DefaultApplied, gs.BaseDN, fmt.Sprintf("'%s'", domainDN))
	default:
		rep.Problem(gs.BaseDN, "Group search is not configured; groups read from the user entry must be configured manually")
		inconvertible(rep, "Ignored without a group search base DN", gs.Scope, gs.Filter, gs.UserAttribute)

		return
	}

	translateScope(b, "ldap.group_search.scope", gs.Scope, opts)

	if filter, ok := gs.Filter.Get(); ok {
		placeholder := "${dn}"
		if attr, ok := gs.UserAttribute.Get(); ok && attr != "" {
			placeholder = "${ldap_user_entry." + attr + "}"
		}

		b.set("ldap.group_search.filter.raw", strings.ReplaceAll(filter, xpackPlaceholder, placeholder))
	} else {
		inconvertible(rep, "Ignored without a group search filter", gs.UserAttribute)
	}
}

// translateScope maps an X-Pack search scope. Scopes without an equivalent go
// through the configured fallback.
func translateScope(b *configBuilder, key string, v trace.OptTraceable[string], opts Options) {
	scope, ok := v.Get()
	if !ok {
		return
	}

	switch strings.ToLower(scope) {
	case scopeSubTree:
		b.set(key, "sub")

		return
	case scopeOneLevel:
		b.set(key, "one")

		return
	}

	fallback := opts.ScopeFallback
	if fallback == "" {
		fallback = ScopeFallbackSub
	}

	switch fallback {
	case ScopeFallbackOmit:
		b.rep.Inconvertible(v, "Search scope has no equivalent in Search Guard (available: sub, one); the scope was omitted")
	default:
		b.set(key, string(fallback))
		b.rep.Problem(v, fmt.Sprintf("Search scope has no equivalent in Search Guard; using '%s'", fallback))
	}
}

// checkDN reports a value that does not parse as a distinguished name. The
// value is migrated regardless.
func checkDN(rep *diagnostic.Reporter, v trace.OptTraceable[string]) {
	dn, ok := v.Get()
	if !ok {
		return
	}

	if _, err := ldap.ParseDN(dn); err != nil {
		rep.Problem(v, fmt.Sprintf("Invalid distinguished name (%v); it was migrated as is", err))
	}
}

// domainToDN turns "corp.example.com" into "DC=corp,DC=example,DC=com".
func domainToDN(domain string) string {
	var parts []string

	for _, c := range strings.Split(domain, ".") {
		if c = strings.TrimSpace(c); c != "" {
			parts = append(parts, "DC="+c)
		}
	}

	return strings.Join(parts, ",")
}
