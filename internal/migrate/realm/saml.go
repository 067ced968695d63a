package realm

import (
	"net/url"
	"strings"

	"xpack-migrator/internal/diagnostic"
	"xpack-migrator/internal/trace"
	"xpack-migrator/internal/xpack"
)

func translateSAML(b *configBuilder, r *xpack.SAMLRealm) {
	rep := b.rep

	metadata := requiredOrEmpty(b, "saml.idp.metadata_url", r.IdPMetadataPath)
	if metadata != "" && !isURL(metadata) {
		rep.Problem(r.IdPMetadataPath,
			"IdP metadata is read from a local file; Search Guard expects a URL in saml.idp.metadata_url or the XML in saml.idp.metadata_xml")
	}

	requiredOrEmpty(b, "saml.idp.entity_id", r.IdPEntityID)
	requiredOrEmpty(b, "saml.sp.entity_id", r.SPEntityID)

	if principal, ok := r.AttrPrincipal.Get(); ok {
		b.set("user_mapping.user_name.from", samlAttribute(principal))
	}

	if groups, ok := r.AttrGroups.Get(); ok {
		b.set("user_mapping.roles.from", samlAttribute(groups))
	}

	if acs, ok := r.SPACS.Get(); ok {
		b.set("kibana_url", kibanaURL(acs))
	} else {
		rep.Preset(diagnostic.MissingParameter, r.SPACS, "kibana_url")
	}

	inconvertible(rep, "Search Guard derives the logout endpoint from kibana_url", r.SPLogout)
	inconvertible(rep, "Additional user attributes are not mapped; configure user_mapping.attrs manually",
		r.AttrName, r.AttrMail)
}

// requiredOrEmpty stores a value Search Guard requires. An absent value is
// reported and written as an empty string to be filled in manually.
func requiredOrEmpty(b *configBuilder, key string, v trace.OptTraceable[string]) string {
	if val, ok := v.Get(); ok {
		b.set(key, val)

		return val
	}

	b.rep.Problem(v, "Required value is missing; an empty string was written to "+key)
	b.doc.Set(key, "")

	return ""
}

// samlAttribute maps an X-Pack attribute name to a SAML response path.
func samlAttribute(attr string) string {
	if strings.HasPrefix(strings.ToLower(attr), "nameid") {
		return "saml_response.name_id"
	}

	return "saml_response.attributes." + attr
}

// kibanaURL derives the Kibana base URL from an assertion consumer service
// URL. Default ports are dropped. An unparsable value is returned as is.
func kibanaURL(acs string) string {
	u, err := url.Parse(acs)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return acs
	}

	host := u.Hostname()
	if port := u.Port(); port != "" && port != "80" && port != "443" {
		host += ":" + port
	}

	return u.Scheme + "://" + host + "/"
}

func isURL(s string) bool {
	u, err := url.Parse(s)

	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
