package api

import (
	"net/http"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/taskdeck/pkg/auth"
)

func TestCreateTask(t *testing.T) {
	s, mock := newTestServer(t)
	token := issueToken(t, s, auth.Principal{ID: "user-1", TenantID: "tenant-1", Role: auth.RoleUser})

	mock.ExpectQuery(`SELECT (.+) FROM projects WHERE id`).
		WithArgs("project-1").
		WillReturnRows(projectRow("project-1", "tenant-1", "Launch Plan", "user-1"))
	mock.ExpectQuery(`INSERT INTO tasks`).
		WillReturnRows(taskRow("task-1", "project-1", "tenant-1", "Write brief", "todo", "medium"))

	rec := doJSON(t, s, http.MethodPost, "/api/projects/project-1/tasks", token, map[string]string{
		"title": "Write brief",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var task struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	decodeBody(t, rec, &task)
	assert.Equal(t, "task-1", task.ID)
	assert.Equal(t, "todo", task.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateTaskCrossTenantAssignee(t *testing.T) {
	s, mock := newTestServer(t)
	token := issueToken(t, s, auth.Principal{ID: "user-1", TenantID: "tenant-1", Role: auth.RoleUser})

	mock.ExpectQuery(`SELECT (.+) FROM projects WHERE id`).
		WithArgs("project-1").
		WillReturnRows(projectRow("project-1", "tenant-1", "Launch Plan", "user-1"))
	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM users WHERE id = \$1 AND tenant_id = \$2\)`).
		WithArgs("user-foreign", "tenant-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	rec := doJSON(t, s, http.MethodPost, "/api/projects/project-1/tasks", token, map[string]string{
		"title":      "Write brief",
		"assignedTo": "user-foreign",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateTaskProjectNotFound(t *testing.T) {
	s, mock := newTestServer(t)
	token := issueToken(t, s, auth.Principal{ID: "user-1", TenantID: "tenant-1", Role: auth.RoleUser})

	mock.ExpectQuery(`SELECT (.+) FROM projects WHERE id`).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	rec := doJSON(t, s, http.MethodPost, "/api/projects/ghost/tasks", token, map[string]string{
		"title": "Orphan",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListTasks(t *testing.T) {
	s, mock := newTestServer(t)
	token := issueToken(t, s, auth.Principal{ID: "user-1", TenantID: "tenant-1", Role: auth.RoleUser})

	now := time.Now()
	mock.ExpectQuery(`SELECT (.+) FROM projects WHERE id`).
		WithArgs("project-1").
		WillReturnRows(projectRow("project-1", "tenant-1", "Launch Plan", "user-1"))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM tasks`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`SELECT (.+) FROM tasks`).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "project_id", "tenant_id", "title", "description", "status",
			"priority", "due_date", "created_at", "updated_at",
			"assignee_id", "assignee_name", "assignee_email",
		}).AddRow("task-1", "project-1", "tenant-1", "Write brief", "", "todo",
			"high", nil, now, now, "user-2", "A Colleague", "colleague@acme.test"))

	rec := doJSON(t, s, http.MethodGet, "/api/projects/project-1/tasks?priority=high", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Tasks []struct {
			Title      string `json:"title"`
			AssignedTo *struct {
				FullName string `json:"fullName"`
			} `json:"assignedTo"`
		} `json:"tasks"`
		Total int `json:"total"`
	}
	decodeBody(t, rec, &resp)
	require.Len(t, resp.Tasks, 1)
	require.NotNil(t, resp.Tasks[0].AssignedTo)
	assert.Equal(t, "A Colleague", resp.Tasks[0].AssignedTo.FullName)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateTask(t *testing.T) {
	s, mock := newTestServer(t)
	token := issueToken(t, s, auth.Principal{ID: "user-1", TenantID: "tenant-1", Role: auth.RoleUser})

	mock.ExpectQuery(`SELECT (.+) FROM tasks WHERE id`).
		WithArgs("task-1").
		WillReturnRows(taskRow("task-1", "project-1", "tenant-1", "Write brief", "todo", "medium"))
	mock.ExpectQuery(`UPDATE tasks SET`).
		WithArgs("Write the launch brief", "task-1").
		WillReturnRows(taskRow("task-1", "project-1", "tenant-1", "Write the launch brief", "todo", "medium"))

	rec := doJSON(t, s, http.MethodPut, "/api/tasks/task-1", token, map[string]string{
		"title": "Write the launch brief",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateTaskCrossTenantForbidden(t *testing.T) {
	s, mock := newTestServer(t)
	token := issueToken(t, s, auth.Principal{ID: "user-1", TenantID: "tenant-1", Role: auth.RoleUser})

	mock.ExpectQuery(`SELECT (.+) FROM tasks WHERE id`).
		WithArgs("task-9").
		WillReturnRows(taskRow("task-9", "project-9", "tenant-2", "Foreign task", "todo", "low"))

	rec := doJSON(t, s, http.MethodPut, "/api/tasks/task-9", token, map[string]string{
		"title": "Hijacked",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateTaskStatus(t *testing.T) {
	s, mock := newTestServer(t)
	token := issueToken(t, s, auth.Principal{ID: "user-1", TenantID: "tenant-1", Role: auth.RoleUser})

	mock.ExpectQuery(`SELECT (.+) FROM tasks WHERE id`).
		WithArgs("task-1").
		WillReturnRows(taskRow("task-1", "project-1", "tenant-1", "Write brief", "todo", "medium"))
	mock.ExpectQuery(`UPDATE tasks SET`).
		WithArgs("in_progress", "task-1").
		WillReturnRows(taskRow("task-1", "project-1", "tenant-1", "Write brief", "in_progress", "medium"))

	rec := doJSON(t, s, http.MethodPatch, "/api/tasks/task-1/status", token, map[string]string{
		"status": "in_progress",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var task struct {
		Status string `json:"status"`
	}
	decodeBody(t, rec, &task)
	assert.Equal(t, "in_progress", task.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateTaskStatusInvalid(t *testing.T) {
	s, mock := newTestServer(t)
	token := issueToken(t, s, auth.Principal{ID: "user-1", TenantID: "tenant-1", Role: auth.RoleUser})

	mock.ExpectQuery(`SELECT (.+) FROM tasks WHERE id`).
		WithArgs("task-1").
		WillReturnRows(taskRow("task-1", "project-1", "tenant-1", "Write brief", "todo", "medium"))

	rec := doJSON(t, s, http.MethodPatch, "/api/tasks/task-1/status", token, map[string]string{
		"status": "done",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
