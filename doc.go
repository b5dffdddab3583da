// Package taskguard implements stateless JWT authentication and
// per-resource ownership authorization.
//
// The package is the single authoritative implementation of the token
// issuer and token validator: every resource service instantiates the
// same TokenService with the same signing key through its own Config,
// so validation behavior cannot drift between deployments. Tokens are
// never persisted server side; a token dies at its exp claim or when
// the client discards it.
//
// Subpackages:
//
//   - middleware/jwtware: fiber middleware that runs the validator on
//     every protected request and attaches the resulting Principal.
//   - tasks: an owned-resource service (repository, enforcer, HTTP
//     controller) built on the ownership invariant.
//   - client: client-side token lifecycle (store, transport decorator,
//     login/logout state machine).
package taskguard
