package realm

import (
	"regexp"
	"strings"

	"xpack-migrator/internal/xpack"
)

// simplePattern matches the X-Pack username patterns that select a single
// subject attribute, e.g. "CN=(.*?)(?:,|$)".
var simplePattern = regexp.MustCompile(`^([A-Za-z][A-Za-z0-9]*)=\(\.\*\?\)\(\?:,\|\$\)$`)

// subjectAttributes renames subject attributes whose Search Guard name
// differs from the lower-cased X-Pack one.
var subjectAttributes = map[string]string{
	"emailaddress": "email_address",
	"email":        "email_address",
}

const subjectPrefix = "clientcert.subject."

func translatePKI(b *configBuilder, r *xpack.PKIRealm) {
	rep := b.rep

	switch {
	case r.UsernameAttribute.IsPresent():
		attr, _ := r.UsernameAttribute.Get()
		b.set("user_mapping.user_name.from", subjectPrefix+subjectAttribute(attr))
		ignored(rep, r.UsernamePattern)
	case r.UsernamePattern.IsPresent():
		pattern, _ := r.UsernamePattern.Get()

		m := simplePattern.FindStringSubmatch(strings.TrimSpace(pattern))
		if m == nil {
			rep.Inconvertible(r.UsernamePattern,
				"Username pattern is too complex to convert; set user_mapping.user_name.from manually")

			break
		}

		b.set("user_mapping.user_name.from", subjectPrefix+subjectAttribute(m[1]))
	default:
		putDefault(b, "user_mapping.user_name.from", r.UsernamePattern, subjectPrefix+"cn")
	}

	inconvertible(rep, "Client certificates are verified by the Search Guard TLS layer; configure the trusted CAs in elasticsearch.yml",
		r.CertificateAuthorities, r.TruststorePath)
	inconvertibleSecret(rep, "Truststore passwords are not migrated", r.TruststorePassword)
	inconvertible(rep, "PKI delegation is not supported by Search Guard", r.DelegationEnabled)
}

func subjectAttribute(attr string) string {
	attr = strings.ToLower(attr)
	if renamed, ok := subjectAttributes[attr]; ok {
		return renamed
	}

	return attr
}
