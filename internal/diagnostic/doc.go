// Package diagnostic collects and renders the findings of a migration run.
//
// Issues fall into three buckets:
//   - critical: the converted setting may weaken the security posture
//   - inconvertible: the setting has no equivalent concept in the target
//   - problem: anything else that needs a manual look
//
// Issues are keyed by the provenance of the value they refer to. Secret values
// are always rendered as a mask.
package diagnostic
