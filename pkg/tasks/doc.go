// Package tasks manages tasks within projects: creation and mutation with
// same-tenant assignee validation, status transitions, and filtered
// listings with assignee identity.
package tasks
