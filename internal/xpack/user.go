package xpack

import (
	"strings"

	"github.com/cockroachdb/errors"

	"xpack-migrator/internal/trace"
)

// UsersFile is the default name of the users export.
const UsersFile = "users.json"

const userIDPrefix = "user-"

// Users are the native realm users.
type Users struct {
	Source   trace.Source
	Users    []*User
	Rejected []Rejected
}

// User is one native realm user.
type User struct {
	Username     string
	Source       trace.Source
	PasswordHash trace.OptTraceable[string]
	Roles        trace.OptTraceable[trace.List[string]]
	FullName     trace.OptTraceable[string]
	Email        trace.OptTraceable[string]
	Metadata     trace.OptTraceable[*trace.Node]
	Enabled      trace.Traceable[bool]
	ProfileUID   trace.OptTraceable[string]
	Reserved     bool
	Unknown      []Setting
}

// ParseUsers reads users in one of two shapes: the GET _security/user map
// keyed by username, or a search dump of the .security index whose hits carry
// documents with type "user". Other document types in a dump are skipped.
func ParseUsers(file string, data []byte) (*Users, error) {
	node, err := trace.Parse(file, data)
	if err != nil {
		return nil, err
	}

	if node.Kind() == trace.KindMap {
		if hits, ok := node.Field("hits"); ok && hits.Kind() == trace.KindMap {
			return parseUserDump(file, node)
		}
	}

	out := &Users{Source: trace.NewConfig(file)}

	rejected, err := readNamed(file, data, "user", func(name string, r *trace.Reader) error {
		u := parseUser(name, r)
		if err := r.Err(); err != nil {
			return err
		}

		out.Users = append(out.Users, u)

		return nil
	})
	if err != nil {
		return nil, err
	}

	out.Rejected = rejected

	return out, nil
}

func parseUserDump(file string, node *trace.Node) (*Users, error) {
	root := trace.NewReader(node, trace.NewConfig(file))
	hits := root.Get("hits.hits")

	if !hits.Exists() || hits.Node().Kind() != trace.KindList {
		return nil, errors.Newf("%s: expected hits.hits to be a list", file)
	}

	out := &Users{Source: root.Source()}

	for i, item := range hits.Node().Items() {
		hitSource := trace.NewListEntry(hits.Source(), i)
		if item.Kind() != trace.KindMap {
			out.Rejected = append(out.Rejected, Rejected{
				Kind:   "user",
				Name:   hitSource.PathPart(),
				Source: hitSource,
				Err:    &trace.InvalidValueError{At: hitSource, Expected: "an object", Actual: item.JSON()},
			})

			continue
		}

		hit := trace.NewReader(item, hitSource)
		id := trace.Optional(hit.Get("_id"), trace.String)

		doc, err := trace.RecordReader(hit.Entry("_source"))
		if err != nil {
			out.Rejected = append(out.Rejected, Rejected{Kind: "user", Name: hitSource.PathPart(), Source: hitSource, Err: err})

			continue
		}

		if typ, _ := trace.Optional(doc.Get("type"), trace.String).Get(); typ != "user" {
			continue
		}

		name, ok := trace.Optional(doc.Get("username"), trace.String).Get()
		if !ok {
			idValue, _ := id.Get()
			name = strings.TrimPrefix(idValue, userIDPrefix)
		}

		if name == "" {
			out.Rejected = append(out.Rejected, Rejected{
				Kind:   "user",
				Name:   hitSource.PathPart(),
				Source: hitSource,
				Err:    &trace.MissingAttributeError{At: trace.NewAttribute(doc.Source(), "username")},
			})

			continue
		}

		u := parseUser(name, doc)
		if err := doc.Err(); err != nil {
			out.Rejected = append(out.Rejected, Rejected{Kind: "user", Name: name, Source: doc.Source(), Err: err})

			continue
		}

		out.Users = append(out.Users, u)
	}

	return out, nil
}

func parseUser(name string, r *trace.Reader) *User {
	hash := optSecret(r, "password_hash")
	if !hash.IsPresent() {
		if legacy := optSecret(r, "password"); legacy.IsPresent() {
			hash = legacy
		}
	}

	u := &User{
		Username:     name,
		Source:       r.Source(),
		PasswordHash: hash,
		Roles:        optStrings(r, "roles"),
		FullName:     optString(r, "full_name"),
		Email:        optString(r, "email"),
		Metadata:     optNode(r, "metadata"),
		Enabled:      trace.WithDefault(r.Get("enabled"), trace.Bool, true),
		ProfileUID:   optString(r, "profile_uid"),
	}

	// Read for bookkeeping only; they repeat what the entry key already says.
	r.Get("username")
	r.Get("type")

	u.Reserved = isReserved(u.Metadata)
	u.Unknown = unknown(r)

	return u
}
