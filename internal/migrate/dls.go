package migrate

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/tidwall/gjson"

	"xpack-migrator/internal/match"
	"xpack-migrator/internal/trace"
)

var (
	toJSONSection          = regexp.MustCompile(`\{\{#toJson\}\}\s*([^{}]+?)\s*\{\{/toJson\}\}`)
	mustacheVariable       = regexp.MustCompile(`\{\{\s*([^{}]*?)\s*\}\}`)
	searchGuardPlaceholder = regexp.MustCompile(`\$\{[^{}]*\}`)
)

// queryTypes are the top-level Elasticsearch query types accepted in a DLS
// query.
var queryTypes = []string{
	"bool", "boosting", "combined_fields", "constant_score", "dis_max", "distance_feature",
	"exists", "function_score", "fuzzy", "geo_bounding_box", "geo_distance", "geo_polygon",
	"geo_shape", "has_child", "has_parent", "ids", "intervals", "match", "match_all",
	"match_bool_prefix", "match_none", "match_phrase", "match_phrase_prefix", "more_like_this",
	"multi_match", "nested", "parent_id", "percolate", "pinned", "prefix", "query_string",
	"range", "rank_feature", "regexp", "script", "script_score", "shape",
	"simple_query_string", "span_containing", "span_first", "span_multi", "span_near",
	"span_not", "span_or", "span_term", "span_within", "term", "terms", "terms_set",
	"wildcard", "wrapper",
}

// userAttribute maps an X-Pack template variable to a Search Guard user
// attribute path.
func userAttribute(variable string) (string, bool) {
	switch variable {
	case "_user.username":
		return "user.name", true
	case "_user.roles":
		return "user.roles", true
	case "_user.email":
		return "user.attrs.email", true
	case "_user.full_name":
		return "user.attrs.name", true
	}

	if attr, ok := strings.CutPrefix(variable, "_user.metadata."); ok && attr != "" {
		return "user.attrs." + attr, true
	}

	return "", false
}

// documentSecurity renders a role query as a Search Guard DLS query.
func (t *roleTranslation) documentSecurity(q trace.OptTraceable[string]) string {
	raw, ok := q.Get()
	if !ok {
		return ""
	}

	query, ok := t.unwrapTemplate(q, raw)
	if !ok {
		return ""
	}

	query = t.replaceVariables(q, query)

	// Placeholders may stand for whole JSON values, so they are neutralized
	// before the query is checked.
	checked := searchGuardPlaceholder.ReplaceAllString(query, "null")
	if !gjson.Valid(checked) {
		t.rep.Critical(q, "DLS query is not valid JSON; it was migrated as is and must be fixed manually")

		return query
	}

	t.checkQueryTypes(q, gjson.Parse(checked))

	return query
}

// unwrapTemplate returns the source of a {"template": ...} wrapper, or the
// query itself when it isn't one.
func (t *roleTranslation) unwrapTemplate(q trace.OptTraceable[string], raw string) (string, bool) {
	if !gjson.Valid(raw) || !gjson.Get(raw, "template").Exists() {
		return raw, true
	}

	if gjson.Get(raw, "template.id").Exists() {
		t.rep.Critical(q, "DLS query refers to a stored template, which cannot be resolved offline; it was not migrated")

		return "", false
	}

	if gjson.Get(raw, "template.params").Exists() {
		t.rep.Problem(q, "Template params are not supported; variables that use them are kept as is")
	}

	source := gjson.Get(raw, "template.source")

	switch {
	case source.Type == gjson.String:
		return source.Str, true
	case source.IsObject():
		return source.Raw, true
	default:
		t.rep.Critical(q, "DLS template has no source; it was not migrated")

		return "", false
	}
}

// replaceVariables rewrites mustache user variables into Search Guard
// placeholders. Unknown variables are kept and reported once each.
func (t *roleTranslation) replaceVariables(q trace.OptTraceable[string], query string) string {
	var unresolved []string

	query = toJSONSection.ReplaceAllStringFunc(query, func(m string) string {
		variable := toJSONSection.FindStringSubmatch(m)[1]
		if attr, ok := userAttribute(variable); ok {
			return "${" + attr + "|toJson}"
		}

		return m
	})

	query = mustacheVariable.ReplaceAllStringFunc(query, func(m string) string {
		variable := mustacheVariable.FindStringSubmatch(m)[1]
		if attr, ok := userAttribute(variable); ok {
			return "${" + attr + "}"
		}

		if !slices.Contains(unresolved, m) {
			unresolved = append(unresolved, m)
		}

		return m
	})

	for _, m := range unresolved {
		t.rep.Problem(q, fmt.Sprintf("Template variable '%s' has no Search Guard equivalent; it was kept as is", m))
	}

	return query
}

func (t *roleTranslation) checkQueryTypes(q trace.OptTraceable[string], query gjson.Result) {
	if !query.IsObject() {
		t.rep.Critical(q, "DLS query must be a JSON object")

		return
	}

	query.ForEach(func(key, _ gjson.Result) bool {
		name := key.String()
		if !slices.Contains(queryTypes, name) {
			t.rep.Problem(q, fmt.Sprintf("Unknown query type '%s' in DLS query.%s", name, match.DidYouMean(name, queryTypes)))
		}

		return true
	})
}
