//go:build e2e
// +build e2e

package e2e_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"

	"victim-aid-go/internal/auth"
	"victim-aid-go/internal/config"
	"victim-aid-go/internal/db"
	aiddomain "victim-aid-go/internal/domain/aid"
	auditdomain "victim-aid-go/internal/domain/audit"
	dashboarddomain "victim-aid-go/internal/domain/dashboard"
	familydomain "victim-aid-go/internal/domain/family"
	userdomain "victim-aid-go/internal/domain/user"
	victimdomain "victim-aid-go/internal/domain/victim"
	"victim-aid-go/internal/metrics"
	"victim-aid-go/internal/repository/inmemory"
	aidrepo "victim-aid-go/internal/repository/postgres/aid"
	auditrepo "victim-aid-go/internal/repository/postgres/audit"
	dashboardrepo "victim-aid-go/internal/repository/postgres/dashboard"
	familyrepo "victim-aid-go/internal/repository/postgres/family"
	userrepo "victim-aid-go/internal/repository/postgres/user"
	victimrepo "victim-aid-go/internal/repository/postgres/victim"
	"victim-aid-go/internal/storage"
	"victim-aid-go/internal/transport/httpserver"
	"victim-aid-go/internal/transport/httpserver/handler"
	adminhandler "victim-aid-go/internal/transport/httpserver/handler/admin"
	aidhandler "victim-aid-go/internal/transport/httpserver/handler/aid"
	commonhandler "victim-aid-go/internal/transport/httpserver/handler/common"
	familieshandler "victim-aid-go/internal/transport/httpserver/handler/families"
	reportshandler "victim-aid-go/internal/transport/httpserver/handler/reports"
	victimshandler "victim-aid-go/internal/transport/httpserver/handler/victims"
	"victim-aid-go/pkg/logger"
)

const (
	adminUsername = "admin"
	adminPassword = "admin-password"
)

type testEnv struct {
	server *httptest.Server
	db     *gorm.DB
	client *http.Client
}

func setupE2E(t *testing.T) *testEnv {
	t.Helper()

	dsn := os.Getenv("E2E_DB_DSN")
	if dsn == "" {
		t.Skip("E2E_DB_DSN not set; skipping e2e tests")
	}

	ctx := context.Background()
	log := logger.NewNop()
	cfg := config.Config{
		DB:      config.DBConfig{DSN: dsn},
		HTTP:    config.HTTPConfig{RequestTimeout: 10 * time.Second},
		Storage: config.StorageConfig{Driver: "memory", PublicPath: "/media"},
	}

	dbConn, err := db.NewPostgres(cfg.DB, log)
	if err != nil {
		t.Fatalf("db connect: %v", err)
	}
	if err := db.Migrate(ctx, dbConn, log); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := cleanDB(dbConn); err != nil {
		t.Fatalf("clean db: %v", err)
	}

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)
	auditLog := auditdomain.NewLogger(auditdomain.WithObserver(m))
	files := storage.NewMemory(cfg.Storage.PublicPath)

	users := userdomain.NewService(userrepo.NewPostgres(dbConn), auditLog, userdomain.WithHashCost(4))
	if _, err := users.EnsureAdmin(ctx, adminUsername, "admin@example.com", adminPassword); err != nil {
		t.Fatalf("bootstrap admin: %v", err)
	}

	tokens := auth.NewTokenManager("e2e-secret-e2e-secret-e2e-secret", "victim-aid", time.Hour)
	authService := auth.NewService(users, tokens, inmemory.NewRevocationList(), auth.WithLoginObserver(m))

	families := familydomain.NewService(familyrepo.NewPostgres(dbConn), auditLog)
	victims := victimdomain.NewService(victimrepo.NewPostgres(dbConn), files, auditLog)
	requests := aiddomain.NewService(aidrepo.NewPostgres(dbConn), auditLog)
	dashboard := dashboarddomain.NewService(dashboardrepo.NewPostgres(dbConn))
	auditService := auditdomain.NewService(auditrepo.NewPostgres(dbConn))

	handlers := &handler.Handlers{
		Common:   commonhandler.New(authService, m, log),
		Families: familieshandler.New(families, m, log),
		Victims:  victimshandler.New(victims, files, 5<<20, m, log),
		Aid:      aidhandler.New(requests, m, log),
		Reports:  reportshandler.New(dashboard, m, log),
		Admin:    adminhandler.New(users, auditService, m, log),
	}

	router := httpserver.NewRouter(cfg, handlers, httpserver.Deps{Auth: authService, Metrics: m, Gatherer: registry, Log: log})
	server := httptest.NewServer(router)

	return &testEnv{server: server, db: dbConn, client: &http.Client{Timeout: 10 * time.Second}}
}

func (e *testEnv) Close() {
	e.server.Close()
	sqlDB, err := e.db.DB()
	if err == nil {
		_ = sqlDB.Close()
	}
}

func cleanDB(dbConn *gorm.DB) error {
	return dbConn.WithContext(context.Background()).Exec(
		"TRUNCATE TABLE action_log_entries, aid_requests, victims, family_members, families, users RESTART IDENTITY CASCADE",
	).Error
}

func (e *testEnv) do(t *testing.T, method, path, token string, payload interface{}) (*http.Response, []byte) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, e.server.URL+path, body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response: %v", err)
	}

	return resp, respBody
}

// expect fails unless the response has the given status, then decodes the
// body into out when out is not nil.
func (e *testEnv) expect(t *testing.T, status int, method, path, token string, payload, out interface{}) {
	t.Helper()
	resp, body := e.do(t, method, path, token, payload)
	if resp.StatusCode != status {
		t.Fatalf("%s %s: expected %d, got %d: %s", method, path, status, resp.StatusCode, string(body))
	}
	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			t.Fatalf("%s %s: decode: %v", method, path, err)
		}
	}
}

func (e *testEnv) login(t *testing.T, username, password string) string {
	t.Helper()
	var resp loginResponse
	e.expect(t, http.StatusOK, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": username,
		"password": password,
	}, &resp)
	if resp.AccessToken == "" {
		t.Fatalf("login %s: empty token", username)
	}
	return resp.AccessToken
}

func (e *testEnv) createUser(t *testing.T, adminToken, username, role string) userResponse {
	t.Helper()
	var created userResponse
	e.expect(t, http.StatusCreated, http.MethodPost, "/api/admin/users", adminToken, map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"role":     role,
		"password": username + "-password",
	}, &created)
	return created
}

type loginResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	User        userResponse `json:"user"`
}

type userResponse struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	IsActive bool   `json:"is_active"`
}

type envelope struct {
	Success bool                `json:"success"`
	Code    string              `json:"code"`
	Message string              `json:"message"`
	Status  string              `json:"status"`
	Errors  map[string][]string `json:"errors"`
}

type familyResponse struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

type victimResponse struct {
	ID        uint   `json:"id"`
	Matricule string `json:"matricule"`
	FamilyID  *uint  `json:"family_id"`
}

type victimDetailResponse struct {
	Victim victimResponse  `json:"victim"`
	Family *familyResponse `json:"family"`
}

type aidResponse struct {
	ID     uint   `json:"id"`
	Status string `json:"status"`
}

type auditPage struct {
	Items []struct {
		ActorID uint   `json:"actor_id"`
		Action  string `json:"action"`
	} `json:"items"`
	Total int64 `json:"total"`
}

func TestE2EHealthAndAuth(t *testing.T) {
	env := setupE2E(t)
	defer env.Close()

	var health map[string]string
	env.expect(t, http.StatusOK, http.MethodGet, "/api/health", "", nil, &health)
	if health["status"] != "ok" {
		t.Fatalf("expected ok, got %v", health)
	}

	var errResp envelope
	env.expect(t, http.StatusUnauthorized, http.MethodGet, "/api/auth/me", "", nil, &errResp)
	if errResp.Code != "invalid_token" {
		t.Fatalf("expected invalid_token, got %q", errResp.Code)
	}

	env.expect(t, http.StatusUnauthorized, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": adminUsername,
		"password": "wrong-password",
	}, nil)

	token := env.login(t, adminUsername, adminPassword)

	var me userResponse
	env.expect(t, http.StatusOK, http.MethodGet, "/api/auth/me", token, nil, &me)
	if me.Username != adminUsername || me.Role != "admin" {
		t.Fatalf("unexpected me: %+v", me)
	}

	env.expect(t, http.StatusOK, http.MethodPost, "/api/auth/logout", token, nil, nil)
	env.expect(t, http.StatusUnauthorized, http.MethodGet, "/api/auth/me", token, nil, nil)
}

func TestE2EVictimAndAidFlow(t *testing.T) {
	env := setupE2E(t)
	defer env.Close()

	adminToken := env.login(t, adminUsername, adminPassword)
	env.createUser(t, adminToken, "agent1", "agent")
	env.createUser(t, adminToken, "assistant1", "assistant")
	env.createUser(t, adminToken, "responsable1", "responsable")

	agentToken := env.login(t, "agent1", "agent1-password")
	assistantToken := env.login(t, "assistant1", "assistant1-password")
	responsableToken := env.login(t, "responsable1", "responsable1-password")

	env.createUser(t, adminToken, "agent2", "agent")
	otherAgentToken := env.login(t, "agent2", "agent2-password")

	var victim victimResponse
	env.expect(t, http.StatusCreated, http.MethodPost, "/api/victims", agentToken, map[string]interface{}{
		"matricule":  "MAT-7001",
		"last_name":  "Diallo",
		"first_name": "Amadou",
		"death_date": "2024-06-12",
	}, &victim)

	var family familyResponse
	env.expect(t, http.StatusCreated, http.MethodPost, fmt.Sprintf("/api/victims/%d/family", victim.ID), agentToken, map[string]interface{}{
		"name":         "Famille Diallo",
		"city":         "Bamako",
		"person_count": 4,
	}, &family)

	var foreign envelope
	env.expect(t, http.StatusForbidden, http.MethodPost, "/api/victims", otherAgentToken, map[string]interface{}{
		"matricule":  "MAT-7002",
		"last_name":  "Traore",
		"first_name": "Issa",
		"family_id":  family.ID,
	}, &foreign)
	if foreign.Code != "access_denied" {
		t.Fatalf("expected linking to another agent's family denied, got %+v", foreign)
	}
	env.expect(t, http.StatusForbidden, http.MethodGet, fmt.Sprintf("/api/families/%d", family.ID), otherAgentToken, nil, nil)

	var dup envelope
	env.expect(t, http.StatusBadRequest, http.MethodPost, "/api/victims", agentToken, map[string]interface{}{
		"matricule":  "mat-7001",
		"last_name":  "Other",
		"first_name": "Person",
	}, &dup)
	if dup.Code != "validation_error" || len(dup.Errors["matricule"]) == 0 {
		t.Fatalf("expected matricule validation error, got %+v", dup)
	}

	var detail victimDetailResponse
	env.expect(t, http.StatusOK, http.MethodGet, fmt.Sprintf("/api/victims/%d", victim.ID), agentToken, nil, &detail)
	if detail.Victim.Matricule != "MAT-7001" || detail.Family == nil || detail.Family.Name != "Famille Diallo" {
		t.Fatalf("expected family in detail, got %+v", detail.Family)
	}

	var denied envelope
	env.expect(t, http.StatusForbidden, http.MethodPost, "/api/aid-requests", agentToken, map[string]interface{}{
		"family_id": family.ID,
		"kind":      "scolaire",
	}, &denied)
	if denied.Code != "access_denied" {
		t.Fatalf("expected access_denied, got %q", denied.Code)
	}

	var request aidResponse
	env.expect(t, http.StatusCreated, http.MethodPost, "/api/aid-requests", assistantToken, map[string]interface{}{
		"family_id":   family.ID,
		"kind":        "scolaire",
		"description": "school fees",
		"submit":      true,
	}, &request)
	if request.Status != "submitted" {
		t.Fatalf("expected submitted, got %q", request.Status)
	}

	validatePath := fmt.Sprintf("/api/aid-requests/%d/validate", request.ID)
	env.expect(t, http.StatusForbidden, http.MethodPost, validatePath, assistantToken, nil, nil)

	var applied envelope
	env.expect(t, http.StatusOK, http.MethodPost, validatePath, responsableToken, nil, &applied)
	if !applied.Success || applied.Status != "validated" {
		t.Fatalf("expected validated, got %+v", applied)
	}

	var again envelope
	env.expect(t, http.StatusOK, http.MethodPost, validatePath, responsableToken, nil, &again)
	if again.Success || again.Code != "state_conflict" || again.Status != "validated" {
		t.Fatalf("expected state_conflict, got %+v", again)
	}

	var refused envelope
	env.expect(t, http.StatusOK, http.MethodPost, fmt.Sprintf("/api/aid-requests/%d/refuse", request.ID), responsableToken, nil, &refused)
	if refused.Success || refused.Status != "validated" {
		t.Fatalf("expected refuse to be a no-op, got %+v", refused)
	}

	var aided struct {
		Families int64 `json:"families"`
	}
	env.expect(t, http.StatusOK, http.MethodGet, "/api/reports/families-aided", agentToken, nil, &aided)
	if aided.Families != 1 {
		t.Fatalf("expected 1 family aided, got %d", aided.Families)
	}

	var log auditPage
	env.expect(t, http.StatusOK, http.MethodGet, "/api/admin/audit-log?action=aid_request.validated", adminToken, nil, &log)
	if log.Total != 1 {
		t.Fatalf("expected one validation entry, got %d", log.Total)
	}
	env.expect(t, http.StatusForbidden, http.MethodGet, "/api/admin/audit-log", agentToken, nil, nil)
}

func TestE2EDeactivatedUserLosesAccess(t *testing.T) {
	env := setupE2E(t)
	defer env.Close()

	adminToken := env.login(t, adminUsername, adminPassword)
	agent := env.createUser(t, adminToken, "agent2", "agent")
	agentToken := env.login(t, "agent2", "agent2-password")
	env.expect(t, http.StatusOK, http.MethodGet, "/api/auth/me", agentToken, nil, nil)

	var toggled envelope
	env.expect(t, http.StatusOK, http.MethodPost, fmt.Sprintf("/api/admin/users/%d/toggle-active", agent.ID), adminToken, nil, &toggled)
	if toggled.Status != "inactive" {
		t.Fatalf("expected inactive, got %+v", toggled)
	}

	env.expect(t, http.StatusUnauthorized, http.MethodGet, "/api/victims", agentToken, nil, nil)

	resp, body := env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": "agent2",
		"password": "agent2-password",
	})
	if resp.StatusCode != http.StatusUnauthorized || !strings.Contains(string(body), "account_inactive") {
		t.Fatalf("expected account_inactive, got %d: %s", resp.StatusCode, string(body))
	}
}
