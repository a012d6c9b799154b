package audit

import "time"

// Action names what happened. One constant per mutating operation.
type Action string

const (
	ActionRegisterTenant Action = "REGISTER_TENANT"
	ActionUpdateTenant   Action = "UPDATE_TENANT"
	ActionLogin          Action = "LOGIN"
	ActionLogout         Action = "LOGOUT"
	ActionCreateUser     Action = "CREATE_USER"
	ActionUpdateUser     Action = "UPDATE_USER"
	ActionDeleteUser     Action = "DELETE_USER"
	ActionCreateProject  Action = "CREATE_PROJECT"
	ActionUpdateProject  Action = "UPDATE_PROJECT"
	ActionDeleteProject  Action = "DELETE_PROJECT"
	ActionCreateTask     Action = "CREATE_TASK"
	ActionUpdateTask     Action = "UPDATE_TASK"
)

// Event is one audit record. TenantID and ActorID are empty for
// platform-level actions.
type Event struct {
	ID         int64     `json:"id,omitempty"`
	TenantID   string    `json:"tenantId,omitempty"`
	ActorID    string    `json:"actorId,omitempty"`
	Action     Action    `json:"action"`
	EntityType string    `json:"entityType"`
	EntityID   string    `json:"entityId,omitempty"`
	IPAddress  string    `json:"ipAddress,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// SearchFilter narrows audit log listings.
type SearchFilter struct {
	TenantID   string
	ActorID    string
	Action     Action
	EntityType string
	Since      time.Time
	Until      time.Time
	Limit      int
	Offset     int
}
