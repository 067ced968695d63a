package migrate

import (
	"fmt"
	"strings"

	"xpack-migrator/internal/diagnostic"
	"xpack-migrator/internal/searchguard"
	"xpack-migrator/internal/trace"
	"xpack-migrator/internal/xpack"
)

// unsupportedHashPrefixes mark X-Pack password hashes Search Guard cannot
// verify. Search Guard expects bcrypt.
var unsupportedHashPrefixes = []string{"{PBKDF2}", "{PBKDF2_STRETCH}", "{SSHA256}", "{SHA}", "{PLAIN}"}

// UsersTranslator produces sg_internal_users.yml from the native realm users.
type UsersTranslator struct{}

// Name implements Translator.
func (*UsersTranslator) Name() string { return "users" }

// Translate implements Translator.
func (*UsersTranslator) Translate(ctx *Context, rep *diagnostic.Reporter) ([]searchguard.Config, error) {
	users, ok := ctx.Users()
	if !ok {
		rep.ProblemMessage("Skipping users migration: no users provided")

		return nil, nil
	}

	reportRejected(rep, users.Rejected)

	out := &searchguard.InternalUsers{}

	for _, u := range users.Users {
		if user, ok := translateUser(u, rep); ok {
			out.Users = append(out.Users, user)
		}
	}

	return []searchguard.Config{out}, nil
}

func translateUser(u *xpack.User, rep *diagnostic.Reporter) (*searchguard.InternalUser, bool) {
	if u.Reserved {
		rep.Problem(trace.At(u.Source), fmt.Sprintf("User '%s' is a reserved X-Pack user; it was not migrated", u.Username))

		return nil, false
	}

	if enabled, err := u.Enabled.Value(); err == nil && !enabled {
		rep.Problem(u.Enabled, fmt.Sprintf("User '%s' is disabled; it was not migrated", u.Username))

		return nil, false
	}

	reportUnknown(rep, u.Unknown)

	user := &searchguard.InternalUser{Name: u.Username, Attributes: searchguard.NewDocument()}

	if hash, ok := u.PasswordHash.Get(); ok {
		user.Hash = hash

		if prefix, unsupported := hashPrefix(hash); unsupported {
			rep.ProblemSecret(u.PasswordHash,
				fmt.Sprintf("Password hashes of type %s cannot be verified by Search Guard; user '%s' needs a new bcrypt hash", prefix, u.Username))
		}
	} else {
		rep.Problem(u.PasswordHash, fmt.Sprintf("User '%s' has no password hash; a password must be set manually", u.Username))
	}

	if roles, ok := u.Roles.Get(); ok {
		user.SearchGuardRoles = roles.Values()
	}

	if md, ok := u.Metadata.Get(); ok && md.Kind() == trace.KindMap {
		for _, key := range md.Keys() {
			// Underscore keys are X-Pack bookkeeping.
			if strings.HasPrefix(key, "_") {
				continue
			}

			if value, ok := md.Field(key); ok {
				user.Attributes.Set(key, value.Interface())
			}
		}
	}

	for _, attr := range []struct {
		key   string
		value trace.OptTraceable[string]
	}{
		{"name", u.FullName},
		{"email", u.Email},
		{"profile_id", u.ProfileUID},
	} {
		if v, ok := attr.value.Get(); ok && v != "" {
			user.Attributes.Set(attr.key, v)
		}
	}

	return user, true
}

// hashPrefix returns the scheme prefix of a hash Search Guard cannot verify.
func hashPrefix(hash string) (string, bool) {
	for _, p := range unsupportedHashPrefixes {
		if strings.HasPrefix(hash, p) {
			return p, true
		}
	}

	return "", false
}
