package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// Migration is one schema change, applied in Version order.
type Migration struct {
	Version     int
	Description string
	SQL         string
}

// Migrations returns the full ordered schema. Statements are idempotent so
// the runner can be re-applied safely on every startup.
func Migrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "Create tenants table",
			SQL: `
				CREATE TABLE IF NOT EXISTS tenants (
					id UUID PRIMARY KEY,
					name VARCHAR(255) NOT NULL,
					subdomain VARCHAR(63) NOT NULL UNIQUE,
					status VARCHAR(20) NOT NULL DEFAULT 'active'
						CHECK (status IN ('active', 'suspended')),
					subscription_plan VARCHAR(50) NOT NULL DEFAULT 'free',
					max_users INTEGER NOT NULL DEFAULT 5 CHECK (max_users >= 0),
					max_projects INTEGER NOT NULL DEFAULT 3 CHECK (max_projects >= 0),
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
				);

				CREATE INDEX IF NOT EXISTS idx_tenants_subdomain ON tenants(subdomain);
				CREATE INDEX IF NOT EXISTS idx_tenants_status ON tenants(status);
			`,
		},
		{
			Version:     2,
			Description: "Create users table",
			SQL: `
				CREATE TABLE IF NOT EXISTS users (
					id UUID PRIMARY KEY,
					tenant_id UUID REFERENCES tenants(id) ON DELETE CASCADE,
					email VARCHAR(255) NOT NULL,
					password_hash VARCHAR(255) NOT NULL,
					full_name VARCHAR(255) NOT NULL,
					role VARCHAR(20) NOT NULL
						CHECK (role IN ('super_admin', 'tenant_admin', 'user')),
					is_active BOOLEAN NOT NULL DEFAULT TRUE,
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					CHECK (tenant_id IS NOT NULL OR role = 'super_admin'),
					UNIQUE (tenant_id, email)
				);

				CREATE UNIQUE INDEX IF NOT EXISTS idx_users_super_admin_email
					ON users(email) WHERE tenant_id IS NULL;
				CREATE INDEX IF NOT EXISTS idx_users_tenant_id ON users(tenant_id);
				CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);
			`,
		},
		{
			Version:     3,
			Description: "Create projects table",
			SQL: `
				CREATE TABLE IF NOT EXISTS projects (
					id UUID PRIMARY KEY,
					tenant_id UUID NOT NULL REFERENCES tenants(id) ON DELETE CASCADE,
					name VARCHAR(255) NOT NULL,
					description TEXT,
					status VARCHAR(20) NOT NULL DEFAULT 'active',
					created_by UUID REFERENCES users(id) ON DELETE SET NULL,
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
				);

				CREATE INDEX IF NOT EXISTS idx_projects_tenant_id ON projects(tenant_id);
				CREATE INDEX IF NOT EXISTS idx_projects_created_by ON projects(created_by);
			`,
		},
		{
			Version:     4,
			Description: "Create tasks table",
			SQL: `
				CREATE TABLE IF NOT EXISTS tasks (
					id UUID PRIMARY KEY,
					project_id UUID NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
					tenant_id UUID NOT NULL REFERENCES tenants(id) ON DELETE CASCADE,
					title VARCHAR(255) NOT NULL,
					description TEXT,
					status VARCHAR(20) NOT NULL DEFAULT 'todo'
						CHECK (status IN ('todo', 'in_progress', 'completed')),
					priority VARCHAR(10) NOT NULL DEFAULT 'medium'
						CHECK (priority IN ('low', 'medium', 'high')),
					assigned_to UUID REFERENCES users(id) ON DELETE SET NULL,
					due_date DATE,
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
				);

				CREATE INDEX IF NOT EXISTS idx_tasks_project_id ON tasks(project_id);
				CREATE INDEX IF NOT EXISTS idx_tasks_tenant_id ON tasks(tenant_id);
				CREATE INDEX IF NOT EXISTS idx_tasks_assigned_to ON tasks(assigned_to);
			`,
		},
		{
			Version:     5,
			Description: "Create audit_logs table",
			SQL: `
				CREATE TABLE IF NOT EXISTS audit_logs (
					id BIGSERIAL PRIMARY KEY,
					tenant_id UUID,
					actor_id UUID,
					action VARCHAR(100) NOT NULL,
					entity_type VARCHAR(50) NOT NULL,
					entity_id VARCHAR(255),
					ip_address VARCHAR(45),
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
				);

				CREATE INDEX IF NOT EXISTS idx_audit_logs_tenant_id ON audit_logs(tenant_id);
				CREATE INDEX IF NOT EXISTS idx_audit_logs_created_at ON audit_logs(created_at);
				CREATE INDEX IF NOT EXISTS idx_audit_logs_action ON audit_logs(action);
			`,
		},
	}
}

// Migrate applies all migrations in order.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, m := range Migrations() {
		if _, err := db.ExecContext(ctx, m.SQL); err != nil {
			return fmt.Errorf("migration %d (%s) failed: %w", m.Version, m.Description, err)
		}
	}
	return nil
}
