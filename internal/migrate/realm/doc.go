// Package realm translates X-Pack authentication realms into Search Guard
// auth domains.
//
// Translate dispatches on the concrete realm type. Each translator fills a
// configBuilder with the dotted Search Guard keys it can derive and reports
// every setting it cannot carry over. Backend realms end up in sg_authc.yml,
// SAML and OIDC realms in sg_frontend_authc.yml (see IsFrontend).
package realm
