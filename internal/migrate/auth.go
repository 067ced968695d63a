package migrate

import (
	"cmp"
	"fmt"
	"slices"

	"xpack-migrator/internal/diagnostic"
	"xpack-migrator/internal/migrate/realm"
	"xpack-migrator/internal/searchguard"
	"xpack-migrator/internal/xpack"
)

// AuthTranslator produces sg_authc.yml from the backend realms.
type AuthTranslator struct{}

// Name implements Translator.
func (*AuthTranslator) Name() string { return "auth" }

// Translate implements Translator.
func (*AuthTranslator) Translate(ctx *Context, rep *diagnostic.Reporter) ([]searchguard.Config, error) {
	es, ok := ctx.Elasticsearch()
	if !ok {
		rep.ProblemMessage("Skipping auth migration: no elasticsearch configuration provided")

		return nil, nil
	}

	if enabled, err := es.Enabled.Value(); err == nil && !enabled {
		rep.Problem(es.Enabled, "Security is disabled in X-Pack; Search Guard always enforces authentication")
	}

	reportRejected(rep, es.Rejected)
	reportUnknown(rep, es.Unknown)

	authc := &searchguard.AuthC{}
	internal := ""

	for _, r := range sortedRealms(es.Realms) {
		if realm.IsFrontend(r) {
			continue
		}

		domain, ok := realm.Translate(r, rep, ctx.Options())
		if !ok {
			continue
		}

		if domain.Type == realm.TypeInternalUsers {
			if internal != "" {
				rep.ProblemMessage(fmt.Sprintf(
					"Realm '%s' was merged into the internal users domain migrated from realm '%s'",
					r.Common().ID(), internal))

				continue
			}

			internal = r.Common().ID()
		}

		authc.Domains = append(authc.Domains, domain)
	}

	if len(authc.Domains) == 0 {
		rep.ProblemMessage("No authentication domain was migrated; sg_authc.yml was not created")

		return nil, nil
	}

	return []searchguard.Config{authc}, nil
}

// sortedRealms orders realms by their order setting. Equal orders keep
// document order.
func sortedRealms(realms []xpack.Realm) []xpack.Realm {
	sorted := slices.Clone(realms)
	slices.SortStableFunc(sorted, func(a, b xpack.Realm) int {
		return cmp.Compare(realmOrder(a), realmOrder(b))
	})

	return sorted
}

func realmOrder(r xpack.Realm) int {
	order, err := r.Common().Order.Value()
	if err != nil {
		return 0
	}

	return order
}
