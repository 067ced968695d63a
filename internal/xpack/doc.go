// Package xpack parses X-Pack security configuration into typed, traceable
// records.
//
// Inputs and their parsers:
//   - elasticsearch.yml: ParseElasticsearch (realms, transport and http TLS)
//   - kibana.yml: ParseKibana (auth providers, session and cookie settings)
//   - roles: ParseRoles
//   - role mappings: ParseRoleMappings
//   - users: ParseUsers
//
// An entity with structural errors does not fail the whole document. It is
// listed as Rejected and the remaining entities are still returned. Settings
// that are recognized but have no Search Guard counterpart are collected as
// Ignored; settings nobody reads are collected as Unknown.
package xpack
