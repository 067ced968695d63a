package migrate

import (
	"slices"
	"strings"
)

// privilegeKind says how an X-Pack privilege is carried over.
type privilegeKind int

const (
	// builtin privileges map to a Search Guard built-in action group.
	builtin privilegeKind = iota
	// custom privileges need a synthesized action group.
	custom
	// inconvertible privileges have no Search Guard equivalent.
	inconvertiblePrivilege
)

// privilege is one row of a privilege table.
type privilege struct {
	kind privilegeKind
	// group is the built-in action group of a builtin privilege.
	group string
	// actions are the action patterns of a custom privilege.
	actions []string
	// reason explains why an inconvertible privilege is not migrated.
	reason string
}

func direct(group string) privilege { return privilege{kind: builtin, group: group} }

func actions(patterns ...string) privilege { return privilege{kind: custom, actions: patterns} }

func unsupported(reason string) privilege {
	return privilege{kind: inconvertiblePrivilege, reason: reason}
}

const (
	reasonAPIKeys    = "API keys are not supported by Search Guard"
	reasonTokens     = "the X-Pack token service has no Search Guard equivalent"
	reasonIdP        = "Search Guard configures SAML and OIDC in sg_frontend_authc.yml, not through cluster privileges"
	reasonService    = "service accounts are not supported by Search Guard"
	reasonCCR        = "cross-cluster replication is an X-Pack feature"
	reasonCCS        = "cross-cluster privileges must be granted on the remote cluster"
	reasonDeprecated = "the privilege is deprecated"
	reasonInternal   = "the privilege grants access to X-Pack internals"
	reasonProfiles   = "user profiles are not supported by Search Guard"
	reasonFleet      = "Fleet and Elastic Agent privileges are X-Pack specific"
)

// clusterPrivileges maps X-Pack cluster privileges.
var clusterPrivileges = map[string]privilege{
	"all":                     direct("SGS_CLUSTER_ALL"),
	"monitor":                 direct("SGS_CLUSTER_MONITOR"),
	"create_snapshot":         direct("SGS_MANAGE_SNAPSHOTS"),
	"manage_index_templates":  direct("SGS_CLUSTER_MANAGE_INDEX_TEMPLATES"),
	"manage_ingest_pipelines": direct("SGS_CLUSTER_MANAGE_PIPELINES"),
	"manage_ilm":              direct("SGS_CLUSTER_MANAGE_ILM"),

	"manage_security":                      actions("cluster:admin/searchguard/*"),
	"manage":                               actions("cluster:*", "indices:admin/template/*", "indices:admin/index_template/*"),
	"monitor_ml":                           actions("cluster:monitor/xpack/ml/*"),
	"manage_ml":                            actions("cluster:admin/xpack/ml/*", "cluster:monitor/xpack/ml/*"),
	"monitor_snapshot":                     actions("cluster:admin/snapshot/get", "cluster:admin/snapshot/status", "cluster:admin/repository/get"),
	"manage_slm":                           actions("cluster:admin/slm/*", "cluster:admin/ilm/start", "cluster:admin/ilm/stop"),
	"read_slm":                             actions("cluster:admin/slm/get", "cluster:admin/slm/status"),
	"read_ilm":                             actions("cluster:admin/ilm/get", "cluster:admin/ilm/operation_mode/get"),
	"monitor_watcher":                      actions("cluster:monitor/xpack/watcher/*"),
	"manage_watcher":                       actions("cluster:admin/xpack/watcher/*", "cluster:monitor/xpack/watcher/*"),
	"monitor_transform":                    actions("cluster:monitor/transform/*"),
	"manage_transform":                     actions("cluster:admin/transform/*", "cluster:monitor/transform/*"),
	"manage_enrich":                        actions("cluster:admin/xpack/enrich/*"),
	"monitor_rollup":                       actions("cluster:monitor/xpack/rollup/*"),
	"manage_rollup":                        actions("cluster:admin/xpack/rollup/*", "cluster:monitor/xpack/rollup/*"),
	"read_ccr":                             actions("cluster:monitor/state", "cluster:monitor/xpack/info"),
	"transport_client":                     actions("cluster:monitor/nodes/liveness", "cluster:monitor/state"),
	"monitor_text_structure":               actions("cluster:monitor/text_structure/*"),
	"manage_pipeline":                      actions("cluster:admin/ingest/pipeline/*"),
	"cancel_task":                          actions("cluster:admin/tasks/cancel"),
	"monitor_data_stream_global_retention": actions("cluster:monitor/data_stream/global_retention/*"),

	"manage_api_key":                unsupported(reasonAPIKeys),
	"manage_own_api_key":            unsupported(reasonAPIKeys),
	"read_security":                 unsupported(reasonAPIKeys),
	"grant_api_key":                 unsupported(reasonAPIKeys),
	"manage_token":                  unsupported(reasonTokens),
	"manage_saml":                   unsupported(reasonIdP),
	"manage_oidc":                   unsupported(reasonIdP),
	"manage_service_account":        unsupported(reasonService),
	"manage_ccr":                    unsupported(reasonCCR),
	"cross_cluster_replication":     unsupported(reasonCCS),
	"cross_cluster_search":          unsupported(reasonCCS),
	"manage_data_frame_transforms":  unsupported(reasonDeprecated),
	"monitor_data_frame_transforms": unsupported(reasonDeprecated),
	"manage_user_profile":           unsupported(reasonProfiles),
	"manage_autoscaling":            unsupported(reasonInternal),
	"manage_logstash_pipelines":     unsupported(reasonInternal),
	"manage_behavioral_analytics":   unsupported(reasonInternal),
	"manage_search_application":     unsupported(reasonInternal),
	"manage_search_synonyms":        unsupported(reasonInternal),
	"manage_search_query_rules":     unsupported(reasonInternal),
	"manage_inference":              unsupported(reasonInternal),
	"monitor_inference":             unsupported(reasonInternal),
	"monitor_enrich":                unsupported(reasonInternal),
	"monitor_connector":             unsupported(reasonInternal),
	"manage_connector":              unsupported(reasonInternal),
	"postgres":                      unsupported(reasonInternal),
	"manage_fleet":                  unsupported(reasonFleet),
	"read_fleet_secrets":            unsupported(reasonFleet),
	"read_pipeline":                 unsupported(reasonInternal),
	"monitor_esql":                  unsupported(reasonInternal),
}

// indexPrivileges maps X-Pack index privileges.
var indexPrivileges = map[string]privilege{
	"all":          direct("SGS_INDICES_ALL"),
	"read":         direct("SGS_READ"),
	"write":        direct("SGS_WRITE"),
	"delete":       direct("SGS_DELETE"),
	"index":        direct("SGS_INDEX"),
	"create_index": direct("SGS_CREATE_INDEX"),
	"manage":       direct("SGS_MANAGE"),
	"monitor":      direct("SGS_INDICES_MONITOR"),
	"manage_ilm":   direct("SGS_INDICES_MANAGE_ILM"),

	"create":                       actions("indices:data/write/index*", "indices:data/write/bulk*", "indices:data/write/update/byquery"),
	"create_doc":                   actions("indices:data/write/index", "indices:data/write/bulk*"),
	"delete_index":                 actions("indices:admin/delete"),
	"view_index_metadata":          actions("indices:admin/aliases/get", "indices:admin/get", "indices:admin/mappings/get", "indices:admin/mappings/fields/get", "indices:admin/settings/get", "indices:monitor/settings/get"),
	"maintenance":                  actions("indices:admin/refresh*", "indices:admin/flush*", "indices:admin/synced_flush", "indices:admin/forcemerge*"),
	"auto_configure":               actions("indices:admin/auto_create", "indices:admin/mapping/auto_put"),
	"manage_data_stream_lifecycle": actions("indices:admin/data_stream/lifecycle/*"),

	"read_cross_cluster":                 unsupported(reasonCCS),
	"manage_follow_index":                unsupported(reasonCCR),
	"manage_leader_index":                unsupported(reasonCCR),
	"cross_cluster_replication":          unsupported(reasonCCR),
	"cross_cluster_replication_internal": unsupported(reasonCCR),
	"create_doc_internal":                unsupported(reasonInternal),
	"manage_failure_store":               unsupported(reasonInternal),
	"read_failure_store":                 unsupported(reasonInternal),
}

// rawActionPrefixes mark privileges given as concrete action names.
var rawActionPrefixes = []string{"cluster:", "indices:", "internal:"}

func isRawAction(name string) bool {
	for _, p := range rawActionPrefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}

	return false
}

func privilegeNames(table map[string]privilege) []string {
	names := make([]string, 0, len(table))
	for name := range table {
		names = append(names, name)
	}

	slices.Sort(names)

	return names
}

var (
	knownClusterPrivileges = privilegeNames(clusterPrivileges)
	knownIndexPrivileges   = privilegeNames(indexPrivileges)
)
