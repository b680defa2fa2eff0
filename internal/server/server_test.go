package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mrtodp/fleetd/internal/config"
	"github.com/mrtodp/fleetd/internal/journal"
	"github.com/mrtodp/fleetd/internal/registry"
	"github.com/mrtodp/fleetd/internal/sched"
	"github.com/mrtodp/fleetd/pkg/model"
)

// stubDelegate assigns "ROBOT_<priority>" and rejects INVALID_TASK types.
type stubDelegate struct{}

func (stubDelegate) Assign(_ context.Context, task *model.Task, _ []model.Robot) (string, error) {
	if task.Type == "INVALID_TASK" {
		return "", fmt.Errorf("delegation backend rejected task %s", task.ID)
	}
	return fmt.Sprintf("ROBOT_%d", task.Priority), nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testServer(opts ...Option) *Server {
	logger := testLogger()
	scheduler := sched.New(registry.New(), stubDelegate{}, nil, sched.DefaultConfig(), logger)
	return New(config.DefaultServerConfig(), scheduler, logger, opts...)
}

// envelope is used to decode the standard response envelope.
type envelope struct {
	Status     string            `json:"status"`
	RequestID  string            `json:"request_id"`
	Timestamp  string            `json:"timestamp"`
	Data       json.RawMessage   `json:"data"`
	Pagination *model.Pagination `json:"pagination"`
	Error      *model.APIError   `json:"error"`
}

func doGet(t *testing.T, srv *Server, path string) envelope {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("GET %s: status=%d, want 200, body=%s", path, w.Code, w.Body.String())
	}
	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("GET %s: invalid JSON: %v", path, err)
	}
	return env
}

func doPost(t *testing.T, srv *Server, path, body string, wantStatus int) envelope {
	t.Helper()
	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	if w.Code != wantStatus {
		t.Fatalf("POST %s: status=%d, want %d, body=%s", path, w.Code, wantStatus, w.Body.String())
	}
	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("POST %s: invalid JSON: %v", path, err)
	}
	return env
}

func registerRobot(t *testing.T, srv *Server, id string, caps ...string) {
	t.Helper()
	capsJSON, _ := json.Marshal(caps)
	body := fmt.Sprintf(`{"id":%q,"capabilities":%s}`, id, capsJSON)
	doPost(t, srv, "/api/v1/robots/", body, http.StatusCreated)
}

func taskBody(id string, priority uint32, extra string) string {
	body := fmt.Sprintf(`{"id":%q,"type":"weld_component","priority":%d,"payload":[100,10,20,30,1]`, id, priority)
	if extra != "" {
		body += "," + extra
	}
	return body + "}"
}

func TestDiscovery(t *testing.T) {
	srv := testServer()
	env := doGet(t, srv, "/api/v1/")
	if env.Status != "ok" {
		t.Errorf("status = %q, want ok", env.Status)
	}
	if env.RequestID == "" {
		t.Error("request_id is empty")
	}

	var data struct {
		Name      string `json:"name"`
		Endpoints []struct {
			Path string `json:"path"`
		} `json:"endpoints"`
	}
	json.Unmarshal(env.Data, &data)
	if data.Name != "fleetd API" {
		t.Errorf("name = %q, want fleetd API", data.Name)
	}
	if len(data.Endpoints) < 7 {
		t.Errorf("endpoints count = %d, want >= 7", len(data.Endpoints))
	}
}

func TestHealth(t *testing.T) {
	srv := testServer()
	env := doGet(t, srv, "/api/v1/health")

	var data struct {
		Status  string `json:"status"`
		Version string `json:"version"`
		Journal string `json:"journal"`
	}
	json.Unmarshal(env.Data, &data)
	if data.Status != "healthy" {
		t.Errorf("health status = %q, want healthy", data.Status)
	}
	if data.Version != Version {
		t.Errorf("version = %q, want %q", data.Version, Version)
	}
	if data.Journal != "disabled" {
		t.Errorf("journal = %q, want disabled", data.Journal)
	}
}

func TestRegisterRobot(t *testing.T) {
	srv := testServer()
	env := doPost(t, srv, "/api/v1/robots/",
		`{"id":"Ford","capabilities":["heavy_lifting","navigation"]}`, http.StatusCreated)

	var robot model.Robot
	json.Unmarshal(env.Data, &robot)
	if robot.ID != "Ford" {
		t.Errorf("id = %q, want Ford", robot.ID)
	}
	if len(robot.Capabilities) != 2 {
		t.Errorf("capabilities = %v, want 2 entries", robot.Capabilities)
	}
	if robot.RegisteredAt.IsZero() {
		t.Error("registered_at is zero")
	}
}

func TestRegisterRobot_Duplicate(t *testing.T) {
	srv := testServer()
	registerRobot(t, srv, "Ford", "heavy_lifting")

	env := doPost(t, srv, "/api/v1/robots/",
		`{"id":"Ford","capabilities":["navigation"]}`, http.StatusConflict)
	if env.Error == nil || env.Error.Code != model.ErrConflict {
		t.Errorf("error = %v, want CONFLICT", env.Error)
	}
}

func TestRegisterRobot_InvalidBody(t *testing.T) {
	srv := testServer()

	env := doPost(t, srv, "/api/v1/robots/", "not json", http.StatusBadRequest)
	if env.Error == nil || env.Error.Code != model.ErrValidation {
		t.Errorf("error = %v, want VALIDATION_ERROR", env.Error)
	}

	env = doPost(t, srv, "/api/v1/robots/", `{"capabilities":["navigation"]}`, http.StatusBadRequest)
	if env.Error == nil || env.Error.Code != model.ErrValidation {
		t.Errorf("error = %v, want VALIDATION_ERROR", env.Error)
	}
}

func TestListRobots(t *testing.T) {
	srv := testServer()
	registerRobot(t, srv, "Ford", "heavy_lifting")
	registerRobot(t, srv, "Scion", "delicate_task")

	env := doGet(t, srv, "/api/v1/robots/")
	if env.Pagination == nil || env.Pagination.Total != 2 {
		t.Fatalf("pagination = %+v, want total 2", env.Pagination)
	}

	var robots []model.Robot
	json.Unmarshal(env.Data, &robots)
	if len(robots) != 2 || robots[0].ID != "Ford" || robots[1].ID != "Scion" {
		t.Errorf("robots = %v, want [Ford Scion]", robots)
	}
}

func TestGetRobot_NotFound(t *testing.T) {
	srv := testServer()
	req := httptest.NewRequest("GET", "/api/v1/robots/Marvin", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status=%d, want 404", w.Code)
	}
	var env envelope
	json.Unmarshal(w.Body.Bytes(), &env)
	if env.Error == nil || env.Error.Code != model.ErrNotFound {
		t.Errorf("error = %v, want NOT_FOUND", env.Error)
	}
}

func TestScheduleTask(t *testing.T) {
	srv := testServer()
	registerRobot(t, srv, "Ford", "heavy_lifting", "navigation")

	body := taskBody("TASK_WELD", 10, `"target_robot":"Ford","required_capabilities":["heavy_lifting"]`)
	env := doPost(t, srv, "/api/v1/tasks/", body, http.StatusAccepted)

	var snap model.TaskSnapshot
	json.Unmarshal(env.Data, &snap)
	if snap.State != model.TaskStatePending {
		t.Errorf("state = %q, want %q", snap.State, model.TaskStatePending)
	}
	if snap.Task.ID != "TASK_WELD" {
		t.Errorf("task id = %q, want TASK_WELD", snap.Task.ID)
	}
}

func TestScheduleTask_ValidationErrors(t *testing.T) {
	srv := testServer()
	registerRobot(t, srv, "Ford", "heavy_lifting")

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCode   model.ErrorCode
	}{
		{
			name:       "empty id",
			body:       taskBody("", 5, ""),
			wantStatus: http.StatusBadRequest,
			wantCode:   model.ErrValidation,
		},
		{
			name:       "short payload",
			body:       `{"id":"TASK_1","priority":5,"payload":[1,2,3]}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   model.ErrValidation,
		},
		{
			name:       "unknown target",
			body:       taskBody("TASK_1", 5, `"target_robot":"Marvin"`),
			wantStatus: http.StatusNotFound,
			wantCode:   model.ErrNotFound,
		},
		{
			name:       "capability mismatch",
			body:       taskBody("TASK_1", 5, `"target_robot":"Ford","required_capabilities":["delicate_task"]`),
			wantStatus: http.StatusBadRequest,
			wantCode:   model.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := doPost(t, srv, "/api/v1/tasks/", tt.body, tt.wantStatus)
			if env.Error == nil || env.Error.Code != tt.wantCode {
				t.Errorf("error = %v, want code %s", env.Error, tt.wantCode)
			}
		})
	}
}

func TestScheduleTask_CapabilityDetails(t *testing.T) {
	srv := testServer()
	registerRobot(t, srv, "Ford", "heavy_lifting")

	body := taskBody("TASK_1", 5, `"target_robot":"Ford","required_capabilities":["delicate_task"]`)
	env := doPost(t, srv, "/api/v1/tasks/", body, http.StatusBadRequest)
	if env.Error == nil || len(env.Error.Details) != 1 {
		t.Fatalf("error details = %v, want 1 entry", env.Error)
	}
	if !strings.Contains(env.Error.Details[0].Message, "delicate_task") {
		t.Errorf("detail = %q, want mention of delicate_task", env.Error.Details[0].Message)
	}
}

func TestScheduleTask_Duplicate(t *testing.T) {
	srv := testServer()
	doPost(t, srv, "/api/v1/tasks/", taskBody("TASK_1", 5, ""), http.StatusAccepted)

	env := doPost(t, srv, "/api/v1/tasks/", taskBody("TASK_1", 9, ""), http.StatusConflict)
	if env.Error == nil || env.Error.Code != model.ErrConflict {
		t.Errorf("error = %v, want CONFLICT", env.Error)
	}
}

func TestGetTask_NotFound(t *testing.T) {
	srv := testServer()
	req := httptest.NewRequest("GET", "/api/v1/tasks/TASK_GHOST", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status=%d, want 404", w.Code)
	}
}

func TestDrain(t *testing.T) {
	srv := testServer()
	doPost(t, srv, "/api/v1/tasks/", taskBody("TASK_LOW", 10, ""), http.StatusAccepted)
	doPost(t, srv, "/api/v1/tasks/", taskBody("TASK_HIGH", 20, ""), http.StatusAccepted)

	env := doPost(t, srv, "/api/v1/tasks/drain", "", http.StatusOK)

	var data struct {
		Assigned []model.AssignmentRecord `json:"assigned"`
		Count    int                      `json:"count"`
	}
	json.Unmarshal(env.Data, &data)
	if data.Count != 2 {
		t.Fatalf("count = %d, want 2", data.Count)
	}
	if data.Assigned[0].TaskID != "TASK_HIGH" || data.Assigned[1].TaskID != "TASK_LOW" {
		t.Errorf("assigned order = %v, want [TASK_HIGH TASK_LOW]", data.Assigned)
	}

	// Statuses reflect the drain.
	env = doGet(t, srv, "/api/v1/tasks/TASK_HIGH")
	var snap model.TaskSnapshot
	json.Unmarshal(env.Data, &snap)
	if snap.State != model.TaskStateAssigned || snap.Robot != "ROBOT_20" {
		t.Errorf("snapshot = %q/%q, want ASSIGNED/ROBOT_20", snap.State, snap.Robot)
	}
}

func TestDrain_ZeroPriority(t *testing.T) {
	srv := testServer()
	doPost(t, srv, "/api/v1/tasks/", taskBody("TASK_0", 0, ""), http.StatusAccepted)

	env := doPost(t, srv, "/api/v1/tasks/drain", "", http.StatusBadRequest)
	if env.Error == nil || env.Error.Code != model.ErrValidation {
		t.Errorf("error = %v, want VALIDATION_ERROR", env.Error)
	}
}

func TestDrain_BackendFailure(t *testing.T) {
	srv := testServer()
	body := `{"id":"TASK_BAD","type":"INVALID_TASK","priority":5,"payload":[100,10,20,30,1]}`
	doPost(t, srv, "/api/v1/tasks/", body, http.StatusAccepted)

	env := doPost(t, srv, "/api/v1/tasks/drain", "", http.StatusInternalServerError)
	if env.Error == nil || env.Error.Code != model.ErrInternal {
		t.Errorf("error = %v, want INTERNAL_ERROR", env.Error)
	}
	if !strings.Contains(env.Error.Message, "TASK_BAD") {
		t.Errorf("message = %q, want backend error verbatim", env.Error.Message)
	}
}

func TestStats(t *testing.T) {
	srv := testServer()
	doPost(t, srv, "/api/v1/tasks/", taskBody("TASK_1", 5, ""), http.StatusAccepted)

	env := doGet(t, srv, "/api/v1/stats")
	var stats model.Stats
	json.Unmarshal(env.Data, &stats)
	if stats.Scheduled != 1 {
		t.Errorf("scheduled = %d, want 1", stats.Scheduled)
	}
	if stats.QueueDepth != 1 {
		t.Errorf("queue_depth = %d, want 1", stats.QueueDepth)
	}
}

func TestHistory_WithJournal(t *testing.T) {
	logger := testLogger()
	jrnl, err := journal.NewSQLite(":memory:", logger)
	if err != nil {
		t.Fatalf("NewSQLite: %v", err)
	}
	if err := jrnl.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	t.Cleanup(func() { jrnl.Close() })

	scheduler := sched.New(registry.New(), stubDelegate{}, jrnl, sched.DefaultConfig(), logger)
	srv := New(config.DefaultServerConfig(), scheduler, logger, WithJournal(jrnl))

	doPost(t, srv, "/api/v1/tasks/", taskBody("TASK_1", 5, ""), http.StatusAccepted)
	doPost(t, srv, "/api/v1/tasks/drain", "", http.StatusOK)

	env := doGet(t, srv, "/api/v1/history?limit=10")
	if env.Pagination == nil || env.Pagination.Total != 1 {
		t.Fatalf("pagination = %+v, want total 1", env.Pagination)
	}

	var entries []journal.Entry
	json.Unmarshal(env.Data, &entries)
	if len(entries) != 1 || entries[0].TaskID != "TASK_1" {
		t.Fatalf("entries = %v, want [TASK_1]", entries)
	}
	if entries[0].State != string(model.TaskStateAssigned) {
		t.Errorf("entry state = %q, want ASSIGNED", entries[0].State)
	}
}

func TestHistory_NoJournal(t *testing.T) {
	srv := testServer()
	env := doGet(t, srv, "/api/v1/history")

	var entries []journal.Entry
	json.Unmarshal(env.Data, &entries)
	if len(entries) != 0 {
		t.Errorf("entries = %v, want empty", entries)
	}
}

func TestAuth_RequiredOnMutatingRoutes(t *testing.T) {
	dir := t.TempDir()
	keyFile := filepath.Join(dir, "keys")
	if err := os.WriteFile(keyFile, []byte("# operator keys\n\nsecret-key-1\n"), 0o600); err != nil {
		t.Fatalf("write key file: %v", err)
	}
	keys, err := LoadKeys(keyFile)
	if err != nil {
		t.Fatalf("LoadKeys: %v", err)
	}
	srv := testServer(WithKeys(keys))

	// Mutating request without a key is rejected.
	req := httptest.NewRequest("POST", "/api/v1/robots/", strings.NewReader(`{"id":"Ford"}`))
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status=%d, want 401", w.Code)
	}

	// Wrong key is rejected.
	req = httptest.NewRequest("POST", "/api/v1/robots/", strings.NewReader(`{"id":"Ford"}`))
	req.Header.Set("X-Fleet-Key", "wrong")
	w = httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status=%d, want 401", w.Code)
	}

	// Correct key passes.
	req = httptest.NewRequest("POST", "/api/v1/robots/",
		strings.NewReader(`{"id":"Ford","capabilities":["navigation"]}`))
	req.Header.Set("X-Fleet-Key", "secret-key-1")
	w = httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("status=%d, want 201, body=%s", w.Code, w.Body.String())
	}

	// Reads stay open.
	doGet(t, srv, "/api/v1/robots/")
}

func TestResponseEnvelope_HasRequestID(t *testing.T) {
	srv := testServer()
	env := doGet(t, srv, "/api/v1/health")
	if !strings.HasPrefix(env.RequestID, "req_") {
		t.Errorf("request_id = %q, want req_ prefix", env.RequestID)
	}
	if env.Timestamp == "" {
		t.Error("timestamp is empty")
	}
}

func TestResponseEnvelope_XRequestIDHeader(t *testing.T) {
	srv := testServer()
	req := httptest.NewRequest("GET", "/api/v1/health", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	xReqID := w.Header().Get("X-Request-ID")
	if !strings.HasPrefix(xReqID, "req_") {
		t.Errorf("X-Request-ID header = %q, want req_ prefix", xReqID)
	}
}
