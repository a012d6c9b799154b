package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/platinummonkey/taskdeck/pkg/auth"
)

// SeedOptions controls what the seeder provisions.
type SeedOptions struct {
	// SuperAdminEmail and SuperAdminPassword bootstrap the platform
	// operator account.
	SuperAdminEmail    string
	SuperAdminPassword string

	// DemoData provisions the demo tenant with sample users, projects,
	// and tasks. Intended for development environments only.
	DemoData bool
}

// DefaultSeedOptions mirrors the stock bootstrap account.
func DefaultSeedOptions() SeedOptions {
	return SeedOptions{
		SuperAdminEmail:    "superadmin@system.com",
		SuperAdminPassword: "Admin@123",
	}
}

// Seed provisions bootstrap data inside one transaction. It is idempotent:
// when a super admin already exists the seeder assumes a previous run
// completed and does nothing.
func Seed(ctx context.Context, db *sql.DB, opts SeedOptions) error {
	var count int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE role = 'super_admin'`).Scan(&count)
	if err != nil {
		return fmt.Errorf("failed to check for existing seed: %w", err)
	}
	if count > 0 {
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin seed transaction: %w", err)
	}
	defer tx.Rollback()

	superHash, err := auth.HashPassword(opts.SuperAdminPassword)
	if err != nil {
		return fmt.Errorf("failed to hash super admin password: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO users(id, tenant_id, email, password_hash, full_name, role, is_active)
		 VALUES($1, NULL, $2, $3, $4, 'super_admin', TRUE)`,
		uuid.NewString(), opts.SuperAdminEmail, superHash, "System Super Admin")
	if err != nil {
		return fmt.Errorf("failed to seed super admin: %w", err)
	}

	if opts.DemoData {
		if err := seedDemoTenant(ctx, tx); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit seed: %w", err)
	}
	return nil
}

func seedDemoTenant(ctx context.Context, tx *sql.Tx) error {
	tenantID := uuid.NewString()
	_, err := tx.ExecContext(ctx,
		`INSERT INTO tenants(id, name, subdomain, status, subscription_plan, max_users, max_projects)
		 VALUES($1, $2, $3, 'active', 'pro', 25, 15)`,
		tenantID, "Demo Company", "demo")
	if err != nil {
		return fmt.Errorf("failed to seed demo tenant: %w", err)
	}

	adminHash, err := auth.HashPassword("Demo@123")
	if err != nil {
		return err
	}
	userHash, err := auth.HashPassword("User@123")
	if err != nil {
		return err
	}

	adminID := uuid.NewString()
	user1ID := uuid.NewString()
	user2ID := uuid.NewString()
	demoUsers := []struct {
		id, email, hash, name, role string
	}{
		{adminID, "admin@demo.com", adminHash, "Demo Admin", "tenant_admin"},
		{user1ID, "user1@demo.com", userHash, "Demo User One", "user"},
		{user2ID, "user2@demo.com", userHash, "Demo User Two", "user"},
	}
	for _, u := range demoUsers {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO users(id, tenant_id, email, password_hash, full_name, role, is_active)
			 VALUES($1, $2, $3, $4, $5, $6, TRUE)`,
			u.id, tenantID, u.email, u.hash, u.name, u.role)
		if err != nil {
			return fmt.Errorf("failed to seed demo user %s: %w", u.email, err)
		}
	}

	project1ID := uuid.NewString()
	project2ID := uuid.NewString()
	demoProjects := []struct {
		id, name, description string
	}{
		{project1ID, "Internal Operations", "First demo project"},
		{project2ID, "Customer Support", "Second demo project"},
	}
	for _, p := range demoProjects {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO projects(id, tenant_id, name, description, status, created_by)
			 VALUES($1, $2, $3, $4, 'active', $5)`,
			p.id, tenantID, p.name, p.description, adminID)
		if err != nil {
			return fmt.Errorf("failed to seed demo project %s: %w", p.name, err)
		}
	}

	demoTasks := []struct {
		title, description, status, priority, assignee, project string
		dueDays                                                 int
	}{
		{"Setup tenant onboarding flow", "Implement new registration & onboarding UX", "in_progress", "high", user1ID, project1ID, 5},
		{"Define project templates", "Create reusable project templates", "todo", "medium", user2ID, project1ID, 7},
		{"Setup ticket categories", "Define ticket priorities & routing", "todo", "low", user1ID, project2ID, 4},
		{"Automate canned replies", "Create canned response library", "in_progress", "medium", user2ID, project2ID, 6},
		{"Daily metrics dashboard", "Implement dashboard for support KPIs", "todo", "high", user2ID, project2ID, 10},
	}
	for _, t := range demoTasks {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO tasks(id, project_id, tenant_id, title, description, status, priority, assigned_to, due_date)
			 VALUES($1, $2, $3, $4, $5, $6, $7, $8, CURRENT_DATE + $9 * INTERVAL '1 day')`,
			uuid.NewString(), t.project, tenantID, t.title, t.description, t.status, t.priority, t.assignee, t.dueDays)
		if err != nil {
			return fmt.Errorf("failed to seed demo task %q: %w", t.title, err)
		}
	}
	return nil
}
