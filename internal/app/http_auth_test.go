package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"agenda/api/internal/authpw"
	"agenda/api/internal/store"
)

// memUserStore is an in-memory authpw.UserStore backing the HTTP auth flow tests.
type memUserStore struct {
	users  map[string]store.User // by email
	resets map[string]string     // token -> user id
}

func newMemUserStore() *memUserStore {
	return &memUserStore{users: make(map[string]store.User), resets: make(map[string]string)}
}

func (m *memUserStore) GetUserByEmail(_ context.Context, email string) (store.User, error) {
	user, ok := m.users[email]
	if !ok {
		return store.User{}, store.ErrNotFound
	}
	return user, nil
}

func (m *memUserStore) CreateUser(_ context.Context, user store.User) error {
	m.users[user.Email] = user
	return nil
}

func (m *memUserStore) UpdateUserVerificationToken(_ context.Context, userID, token string, _ time.Time) error {
	for email, user := range m.users {
		if user.ID == userID {
			user.VerificationToken = token
			m.users[email] = user
		}
	}
	return nil
}

func (m *memUserStore) VerifyUserEmail(_ context.Context, token string) error {
	for email, user := range m.users {
		if user.VerificationToken == token {
			user.IsEmailVerified = true
			m.users[email] = user
			return nil
		}
	}
	return store.ErrNotFound
}

func (m *memUserStore) UpdateUserPassword(_ context.Context, userID, passwordHash string) error {
	for email, user := range m.users {
		if user.ID == userID {
			user.PasswordHash = passwordHash
			m.users[email] = user
		}
	}
	return nil
}

func (m *memUserStore) CreatePasswordReset(_ context.Context, userID, token string, _ time.Time) error {
	m.resets[token] = userID
	return nil
}

func (m *memUserStore) GetPasswordReset(_ context.Context, token string) (string, error) {
	userID, ok := m.resets[token]
	if !ok {
		return "", store.ErrNotFound
	}
	return userID, nil
}

func (m *memUserStore) MarkPasswordResetUsed(_ context.Context, token string) error {
	delete(m.resets, token)
	return nil
}

func (m *memUserStore) byID(userID string) (store.User, bool) {
	for _, user := range m.users {
		if user.ID == userID {
			return user, true
		}
	}
	return store.User{}, false
}

func newAuthTestServer(users *memUserStore) *HTTPServer {
	fs := &fakeStore{
		getUserByIDFn: func(_ context.Context, id string) (store.User, error) {
			user, ok := users.byID(id)
			if !ok {
				return store.User{}, store.ErrNotFound
			}
			return user, nil
		},
	}
	svc := newTestService(fs)
	svc.authpw = authpw.NewService(users)
	return NewHTTPServer(svc, nil, "*")
}

func postJSON(t *testing.T, handler http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func TestSignUpVerifySignInFlow(t *testing.T) {
	users := newMemUserStore()
	server := newAuthTestServer(users)
	handler := server.Handler()

	// Sign up
	rr := postJSON(t, handler, "/api/auth/signup",
		`{"email":"ana@example.com","password":"segredo123","name":"Ana"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("signup status = %d, body %s", rr.Code, rr.Body.String())
	}
	var signup map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &signup); err != nil {
		t.Fatalf("parse signup response: %v", err)
	}
	token, _ := signup["devVerificationToken"].(string)
	if token == "" {
		t.Fatal("expected dev verification token when email is not configured")
	}

	// Sign in before verifying is rejected
	rr = postJSON(t, handler, "/api/auth/signin",
		`{"email":"ana@example.com","password":"segredo123"}`)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("unverified signin status = %d", rr.Code)
	}

	// Verify email
	rr = postJSON(t, handler, "/api/auth/verify-email", `{"token":"`+token+`"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("verify status = %d, body %s", rr.Code, rr.Body.String())
	}

	// Sign in succeeds and returns a session
	rr = postJSON(t, handler, "/api/auth/signin",
		`{"email":"ana@example.com","password":"segredo123"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("signin status = %d, body %s", rr.Code, rr.Body.String())
	}
	var signin map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &signin); err != nil {
		t.Fatalf("parse signin response: %v", err)
	}
	if signin["accessToken"] == "" || signin["refreshToken"] == "" {
		t.Errorf("missing tokens in %v", signin)
	}
	if signin["userName"] != "Ana" {
		t.Errorf("userName = %v", signin["userName"])
	}
}

func TestSignInWrongPassword(t *testing.T) {
	users := newMemUserStore()
	server := newAuthTestServer(users)
	handler := server.Handler()

	postJSON(t, handler, "/api/auth/signup",
		`{"email":"ana@example.com","password":"segredo123","name":"Ana"}`)

	rr := postJSON(t, handler, "/api/auth/signin",
		`{"email":"ana@example.com","password":"errada"}`)
	if rr.Code != http.StatusUnauthorized && rr.Code != http.StatusForbidden {
		t.Errorf("wrong password status = %d", rr.Code)
	}
}

func TestPasswordResetFlow(t *testing.T) {
	users := newMemUserStore()
	server := newAuthTestServer(users)
	handler := server.Handler()

	rr := postJSON(t, handler, "/api/auth/signup",
		`{"email":"ana@example.com","password":"segredo123","name":"Ana"}`)
	var signup map[string]any
	_ = json.Unmarshal(rr.Body.Bytes(), &signup)
	verify, _ := signup["devVerificationToken"].(string)
	postJSON(t, handler, "/api/auth/verify-email", `{"token":"`+verify+`"}`)

	// Request reset; dev bypass exposes the token
	rr = postJSON(t, handler, "/api/auth/reset-password/request",
		`{"email":"ana@example.com"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("request reset status = %d", rr.Code)
	}
	var reqReset map[string]any
	_ = json.Unmarshal(rr.Body.Bytes(), &reqReset)
	resetToken, _ := reqReset["devResetToken"].(string)
	if resetToken == "" {
		t.Fatal("expected dev reset token")
	}

	rr = postJSON(t, handler, "/api/auth/reset-password",
		`{"token":"`+resetToken+`","newPassword":"novasenha123"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("reset status = %d, body %s", rr.Code, rr.Body.String())
	}

	rr = postJSON(t, handler, "/api/auth/signin",
		`{"email":"ana@example.com","password":"novasenha123"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("signin with new password status = %d", rr.Code)
	}
}

func TestUnknownEmailResetDoesNotLeak(t *testing.T) {
	server := newAuthTestServer(newMemUserStore())

	rr := postJSON(t, server.Handler(), "/api/auth/reset-password/request",
		`{"email":"nobody@example.com"}`)
	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 regardless of account existence", rr.Code)
	}
	var body map[string]any
	_ = json.Unmarshal(rr.Body.Bytes(), &body)
	if _, leaked := body["devResetToken"]; leaked {
		t.Error("reset token issued for unknown account")
	}
}
