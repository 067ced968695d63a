package realm

import (
	"xpack-migrator/internal/diagnostic"
	"xpack-migrator/internal/trace"
	"xpack-migrator/internal/xpack"
)

func translateKerberos(b *configBuilder, r *xpack.KerberosRealm) {
	rep := b.rep

	if !put(b, "kerberos.acceptor_keytab", r.KeytabPath) {
		rep.Preset(diagnostic.MissingParameter, r.KeytabPath, "kerberos.acceptor_keytab")
	}

	put(b, "kerberos.krb_debug", r.KrbDebug)
	put(b, "kerberos.strip_realm_from_principal", r.RemoveRealmName)

	rep.Preset(diagnostic.MissingParameter, trace.At(r.Source), "kerberos.acceptor_principal")
}
