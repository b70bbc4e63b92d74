package handlers

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/joho/godotenv"

	"github.com/hongminglow/lapse-be/internal/auth"
	"github.com/hongminglow/lapse-be/internal/middleware"
	"github.com/hongminglow/lapse-be/internal/models"
	"github.com/hongminglow/lapse-be/internal/service"
	"github.com/hongminglow/lapse-be/internal/storage/postgres"
)

// TestPostgresIntegration exercises register, login and a task round trip
// against a live Postgres database.
func TestPostgresIntegration(t *testing.T) {
	if os.Getenv("RUN_INTEGRATION") != "true" {
		t.Skip("set RUN_INTEGRATION=true to run this integration test")
	}

	loadDotEnv()
	dbURL := mustGetEnv(t, "DATABASE_URL")

	ctx := context.Background()
	store, err := postgres.NewStore(ctx, dbURL)
	if err != nil {
		t.Fatalf("init store: %v", err)
	}
	defer store.Close()

	tokens := auth.NewTokenManager(mustGetEnv(t, "JWT_SECRET"), "lapse-integration", time.Hour)
	users := service.NewUserService(store, tokens)
	tasks := service.NewTaskService(store)

	mux := http.NewServeMux()
	authn := middleware.Authenticate(tokens)
	guards := Guards{
		Authenticated: authn,
		Admin: func(h http.Handler) http.Handler {
			return middleware.Chain(h, authn, middleware.RequireRole(models.RoleAdmin))
		},
	}
	NewUserHandler(users, 5*time.Second).Register(mux, guards)
	NewTaskHandler(tasks, 5*time.Second).Register(mux, guards)

	ts := httptest.NewServer(mux)
	defer ts.Close()

	username := fmt.Sprintf("apitest_%d", time.Now().UnixNano())
	email := username + "@example.com"
	password := fmt.Sprintf("Pass!%d", time.Now().UnixNano())

	var registered struct {
		User models.User `json:"user"`
	}
	call(t, ts.URL, http.MethodPost, "/users", "", map[string]string{
		"username": username, "email": email, "password": password,
	}, http.StatusCreated, &registered)
	if registered.User.Username != username || registered.User.Email != email {
		t.Fatalf("register mismatch: got %+v", registered.User)
	}

	var loggedIn struct {
		Token string      `json:"token"`
		User  models.User `json:"user"`
	}
	call(t, ts.URL, http.MethodPost, "/users/login", "", map[string]string{
		"email": email, "password": password,
	}, http.StatusOK, &loggedIn)
	if loggedIn.User.ID != registered.User.ID {
		t.Fatalf("login returned wrong user id: want %d got %d", registered.User.ID, loggedIn.User.ID)
	}
	if strings.TrimSpace(loggedIn.Token) == "" {
		t.Fatal("login response missing token")
	}

	var created struct {
		Task models.Task `json:"task"`
	}
	call(t, ts.URL, http.MethodPost, "/tasks", loggedIn.Token, map[string]string{"title": "integration"}, http.StatusCreated, &created)
	if created.Task.Status != models.StatusTodo {
		t.Fatalf("new task status = %q", created.Task.Status)
	}

	path := fmt.Sprintf("/users/%d", registered.User.ID)
	call(t, ts.URL, http.MethodDelete, path, loggedIn.Token, nil, http.StatusOK, nil)
	if _, err := store.GetTask(ctx, created.Task.ID); err == nil {
		t.Fatal("task survived owner deletion")
	}

	t.Logf("user %s (id=%d) registered, logged in, created task %d and was deleted", username, registered.User.ID, created.Task.ID)
}

func call(t *testing.T, baseURL, method, path, token string, payload any, want int, out any) {
	t.Helper()
	var body bytes.Buffer
	if payload != nil {
		if err := json.NewEncoder(&body).Encode(payload); err != nil {
			t.Fatalf("marshal %s payload: %v", path, err)
		}
	}
	req, err := http.NewRequest(method, baseURL+path, &body)
	if err != nil {
		t.Fatalf("build %s request: %v", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		t.Fatalf("%s %s status = %d, want %d", method, path, resp.StatusCode, want)
	}
	if out == nil {
		return
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode %s response: %v", path, err)
	}
}

func mustGetEnv(t *testing.T, key string) string {
	t.Helper()
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		t.Fatalf("%s is required", key)
	}
	return val
}

func loadDotEnv() {
	paths := []string{
		".env",
		"../.env",
		"../../.env",
		"../../../.env",
		"../../../../.env",
	}
	for _, path := range paths {
		_ = godotenv.Overload(path)
	}
}
