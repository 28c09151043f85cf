package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestRegister_SetsTokenCookie(t *testing.T) {
	app := newTestApp(t)

	w := app.request(http.MethodPost, "/users/register", "", gin.H{
		"name":     "Ada",
		"email":    "ada@example.com",
		"password": "secret123",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("status %d: %s", w.Code, w.Body)
	}

	var hasCookie bool
	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == "token" && cookie.Value != "" {
			hasCookie = true
		}
	}
	if !hasCookie {
		t.Error("register should set the token cookie")
	}
}

func TestRegister_Validation(t *testing.T) {
	app := newTestApp(t)

	cases := []gin.H{
		{"name": "A", "email": "a@example.com", "password": "secret123"}, // name too short
		{"name": "Ada", "email": "not-an-email", "password": "secret123"},
		{"name": "Ada", "email": "ada@example.com", "password": "short"},
		{"name": "", "email": "", "password": ""},
	}
	for _, body := range cases {
		w := app.request(http.MethodPost, "/users/register", "", body)
		if w.Code != http.StatusBadRequest {
			t.Errorf("register %v: status %d, want 400", body, w.Code)
		}
		if code := errorCode(t, w); code != ErrCodeValidation {
			t.Errorf("register %v: code %s, want %s", body, code, ErrCodeValidation)
		}
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	app := newTestApp(t)
	app.register(t, "ada")

	w := app.request(http.MethodPost, "/users/register", "", gin.H{
		"name":     "Other",
		"email":    "ada@example.com",
		"password": "secret123",
	})
	if w.Code != http.StatusConflict {
		t.Errorf("status %d, want 409", w.Code)
	}
}

func TestLogin(t *testing.T) {
	app := newTestApp(t)
	app.register(t, "ada")

	w := app.request(http.MethodPost, "/users/login", "", gin.H{
		"email":    "ada@example.com",
		"password": "secret123",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body)
	}

	var resp struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Data.Token == "" {
		t.Error("login should return a token")
	}
}

func TestLogin_UniformRejection(t *testing.T) {
	app := newTestApp(t)
	app.register(t, "ada")

	wrongPassword := app.request(http.MethodPost, "/users/login", "", gin.H{
		"email":    "ada@example.com",
		"password": "wrong-password",
	})
	unknownEmail := app.request(http.MethodPost, "/users/login", "", gin.H{
		"email":    "nobody@example.com",
		"password": "secret123",
	})

	// Unknown email and wrong password are indistinguishable to the caller
	for _, w := range []*int{&wrongPassword.Code, &unknownEmail.Code} {
		if *w != http.StatusUnauthorized {
			t.Errorf("status %d, want 401", *w)
		}
	}
	if wrongPassword.Body.String() != unknownEmail.Body.String() {
		t.Errorf("rejections differ:\n%s\n%s", wrongPassword.Body, unknownEmail.Body)
	}
}

func TestProfile(t *testing.T) {
	app := newTestApp(t)
	ada := app.register(t, "ada")

	w := app.request(http.MethodGet, "/users/profile", ada.Token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body)
	}

	var resp struct {
		Data struct {
			ID    string `json:"id"`
			Email string `json:"email"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Data.ID != ada.ID {
		t.Errorf("ID = %q, want %q", resp.Data.ID, ada.ID)
	}
}

func TestProfile_RequiresAuth(t *testing.T) {
	app := newTestApp(t)

	w := app.request(http.MethodGet, "/users/profile", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status %d, want 401", w.Code)
	}
	if code := errorCode(t, w); code != ErrCodeAuthRequired {
		t.Errorf("code %s, want %s", code, ErrCodeAuthRequired)
	}

	w = app.request(http.MethodGet, "/users/profile", "garbage-token", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status %d, want 401", w.Code)
	}
	if code := errorCode(t, w); code != ErrCodeInvalidToken {
		t.Errorf("code %s, want %s", code, ErrCodeInvalidToken)
	}
}

func TestListUsers(t *testing.T) {
	app := newTestApp(t)
	ada := app.register(t, "ada")
	app.register(t, "bob")

	w := app.request(http.MethodGet, "/users/all", ada.Token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body)
	}

	var resp struct {
		Data []struct {
			Name string `json:"name"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Data) != 2 {
		t.Errorf("users = %d, want 2", len(resp.Data))
	}
}
