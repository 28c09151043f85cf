package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/codecollab-io/codecollab/db"
	"github.com/codecollab-io/codecollab/filetree"
	"github.com/codecollab-io/codecollab/persist"
	"github.com/codecollab-io/codecollab/realtime"
	"github.com/codecollab-io/codecollab/sandbox"
	"github.com/gin-gonic/gin"
)

// testDebounce keeps persistence tests fast
const testDebounce = 20 * time.Millisecond

type testApp struct {
	engine   *gin.Engine
	handlers *Handlers
	saver    *persist.Writer
}

// newTestApp wires the full HTTP surface against an isolated database
func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	if _, err := db.OpenAt(filepath.Join(t.TempDir(), "test.db")); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	rooms := realtime.NewManager()
	saver := persist.NewWriter(testDebounce, persist.StoreFunc(db.UpdateFileTree))
	t.Cleanup(saver.Stop)

	loader := func(projectID string) (*filetree.Tree, error) {
		project, err := db.GetProject(projectID)
		if err != nil {
			return nil, err
		}
		return filetree.Parse([]byte(project.FileTree))
	}
	sync := realtime.NewSynchronizer(saver, sandbox.NopMounter{}, loader)

	router := realtime.NewRouter(rooms, sync, nil)
	handlers := &Handlers{Rooms: rooms, Router: router, Sync: sync}

	engine := gin.New()
	SetupRoutes(engine, handlers)

	return &testApp{engine: engine, handlers: handlers, saver: saver}
}

// request performs one in-process HTTP call
func (a *testApp) request(method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)
	return w
}

// account is a registered test user
type account struct {
	ID    string
	Token string
}

// register creates a user through the real endpoint and returns its identity
func (a *testApp) register(t *testing.T, name string) account {
	t.Helper()
	w := a.request(http.MethodPost, "/users/register", "", gin.H{
		"name":     name,
		"email":    name + "@example.com",
		"password": "secret123",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register %s: status %d: %s", name, w.Code, w.Body)
	}

	var resp struct {
		Data struct {
			User struct {
				ID string `json:"id"`
			} `json:"user"`
			Token string `json:"token"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	return account{ID: resp.Data.User.ID, Token: resp.Data.Token}
}

// createProject creates a project through the real endpoint
func (a *testApp) createProject(t *testing.T, owner account, name string) string {
	t.Helper()
	w := a.request(http.MethodPost, "/projects/create", owner.Token, gin.H{"name": name})
	if w.Code != http.StatusCreated {
		t.Fatalf("create project: status %d: %s", w.Code, w.Body)
	}
	var resp struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	return resp.Data.ID
}

// errorCode extracts the machine-readable code from an error response
func errorCode(t *testing.T, w *httptest.ResponseRecorder) ErrorCode {
	t.Helper()
	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("not an error response: %s", w.Body)
	}
	return resp.Error.Code
}
