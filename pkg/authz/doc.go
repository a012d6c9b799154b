// Package authz implements the authorization policy as a pure decision
// function over a principal and a resource descriptor.
//
// Every mutating and listing operation evaluates the policy exactly once
// before touching storage. The policy has no side effects and no access
// to storage; callers describe the target resource and the policy answers
// allow or deny with a reason suitable for logs and audit records.
package authz
