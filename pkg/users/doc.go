// Package users manages user accounts within tenants: creation under the
// tenant's user quota, listing with search, profile mutation with
// admin-only privileged fields, deletion that unassigns the user's tasks,
// and credential verification for login.
package users
