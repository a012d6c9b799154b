// Package projects manages tenant-scoped projects: creation under the
// tenant's project quota, listing with task counts, mutation, and deletion
// (cascading to the project's tasks).
package projects
