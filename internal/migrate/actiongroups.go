package migrate

import (
	"fmt"
	"slices"
	"strings"

	"xpack-migrator/internal/searchguard"
)

// ActionGroupRegistry collects the custom action groups synthesized for
// privileges that have no built-in counterpart.
type ActionGroupRegistry struct {
	groups searchguard.ActionGroups
}

// NewActionGroupRegistry returns an empty registry.
func NewActionGroupRegistry() *ActionGroupRegistry {
	return &ActionGroupRegistry{}
}

// Ensure registers the group for an X-Pack privilege and returns its name.
// Registering the same privilege again returns the existing group.
func (r *ActionGroupRegistry) Ensure(typ, privilege string, actions []string) string {
	name := customGroupName(typ, privilege)

	if _, ok := r.groups.Group(name); ok {
		return name
	}

	r.groups.Groups = append(r.groups.Groups, &searchguard.ActionGroup{
		Name:           name,
		Type:           typ,
		Description:    fmt.Sprintf("equivalent to X-Pack's '%s'", privilege),
		AllowedActions: slices.Clone(actions),
	})

	return name
}

// Len returns the number of registered groups.
func (r *ActionGroupRegistry) Len() int {
	return len(r.groups.Groups)
}

// Config returns the sg_action_groups.yml document.
func (r *ActionGroupRegistry) Config() *searchguard.ActionGroups {
	return &searchguard.ActionGroups{Groups: slices.Clone(r.groups.Groups)}
}

// customGroupName returns SGS_CLUSTER_<PRIV>_CUSTOM or SGS_INDICES_<PRIV>_CUSTOM.
func customGroupName(typ, privilege string) string {
	scope := "INDICES"
	if typ == searchguard.ActionGroupCluster {
		scope = "CLUSTER"
	}

	return "SGS_" + scope + "_" + strings.ToUpper(privilege) + "_CUSTOM"
}
