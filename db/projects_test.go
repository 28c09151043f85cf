package db

import (
	"path/filepath"
	"testing"

	"github.com/google/uuid"
)

func setupTestDB(t *testing.T) {
	t.Helper()
	if _, err := OpenAt(filepath.Join(t.TempDir(), "test.db")); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { Close() })
}

func createTestUser(t *testing.T, name string) *User {
	t.Helper()
	u := &User{
		ID:           uuid.New().String(),
		Name:         name,
		Email:        name + "@example.com",
		PasswordHash: "x",
		CreatedAt:    NowMs(),
	}
	if err := CreateUser(u); err != nil {
		t.Fatal(err)
	}
	return u
}

func createTestProject(t *testing.T, name, adminID string) *Project {
	t.Helper()
	p := &Project{
		ID:        uuid.New().String(),
		Name:      name,
		AdminID:   adminID,
		CreatedAt: NowMs(),
	}
	if err := CreateProject(p); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestCreateProject_AdminIsMember(t *testing.T) {
	setupTestDB(t)
	admin := createTestUser(t, "admin")
	p := createTestProject(t, "workspace", admin.ID)

	got, err := GetProject(p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !got.IsMember(admin.ID) {
		t.Error("admin should be a member of a new project")
	}
	if got.FileTree != "{}" {
		t.Errorf("new project file tree = %q, want empty object", got.FileTree)
	}
}

func TestGetProject_NotFound(t *testing.T) {
	setupTestDB(t)
	if _, err := GetProject(uuid.New().String()); err != ErrNotFound {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestAddMembers_IgnoresDuplicates(t *testing.T) {
	setupTestDB(t)
	admin := createTestUser(t, "admin")
	other := createTestUser(t, "other")
	p := createTestProject(t, "workspace", admin.ID)

	// Re-adding the admin must not fail or duplicate
	if err := AddMembers(p.ID, []string{other.ID, admin.ID}); err != nil {
		t.Fatal(err)
	}

	got, err := GetProject(p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.MemberIDs) != 2 {
		t.Errorf("members = %v, want 2 entries", got.MemberIDs)
	}
	if !got.IsMember(other.ID) {
		t.Error("added user missing from members")
	}
}

func TestListProjectsForUser(t *testing.T) {
	setupTestDB(t)
	admin := createTestUser(t, "admin")
	outsider := createTestUser(t, "outsider")
	p1 := createTestProject(t, "one", admin.ID)
	createTestProject(t, "two", outsider.ID)

	projects, err := ListProjectsForUser(admin.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(projects) != 1 || projects[0].ID != p1.ID {
		t.Errorf("projects = %+v, want only %s", projects, p1.ID)
	}
}

func TestUpdateFileTree_Overwrite(t *testing.T) {
	setupTestDB(t)
	admin := createTestUser(t, "admin")
	p := createTestProject(t, "workspace", admin.ID)

	tree := `{"app.js":{"file":{"contents":"1"}}}`
	if err := UpdateFileTree(p.ID, tree); err != nil {
		t.Fatal(err)
	}
	// Idempotent repeat
	if err := UpdateFileTree(p.ID, tree); err != nil {
		t.Fatal(err)
	}

	got, err := GetProject(p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.FileTree != tree {
		t.Errorf("file tree = %q", got.FileTree)
	}
}

func TestUpdateFileTree_MissingProject(t *testing.T) {
	setupTestDB(t)
	if err := UpdateFileTree(uuid.New().String(), "{}"); err != ErrNotFound {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestDeleteProject_CascadesMembers(t *testing.T) {
	setupTestDB(t)
	admin := createTestUser(t, "admin")
	p := createTestProject(t, "workspace", admin.ID)

	if err := DeleteProject(p.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := GetProject(p.ID); err != ErrNotFound {
		t.Errorf("error = %v, want ErrNotFound", err)
	}

	members, err := projectMembers(p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(members) != 0 {
		t.Errorf("membership rows survived delete: %v", members)
	}

	if err := DeleteProject(p.ID); err != ErrNotFound {
		t.Errorf("second delete error = %v, want ErrNotFound", err)
	}
}

func TestUsers_EmailUnique(t *testing.T) {
	setupTestDB(t)
	u := createTestUser(t, "ada")

	dup := &User{
		ID:           uuid.New().String(),
		Name:         "other",
		Email:        u.Email,
		PasswordHash: "x",
		CreatedAt:    NowMs(),
	}
	if err := CreateUser(dup); err == nil {
		t.Error("duplicate email should be rejected")
	}
}

func TestGetUserByEmail(t *testing.T) {
	setupTestDB(t)
	u := createTestUser(t, "ada")

	got, err := GetUserByEmail(u.Email)
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != u.ID {
		t.Errorf("ID = %q, want %q", got.ID, u.ID)
	}

	if _, err := GetUserByEmail("nobody@example.com"); err != ErrNotFound {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}
