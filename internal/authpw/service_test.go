package authpw

import (
	"context"
	"errors"
	"testing"
	"time"

	"agenda/api/internal/store"
)

// mockUserStore is a mock implementation of UserStore for testing
type mockUserStore struct {
	users         map[string]store.User
	emailIndex    map[string]string // email -> userID
	verifications map[string]store.User
	resets        map[string]string // token -> userID
	usedResets    map[string]bool
}

func newMockUserStore() *mockUserStore {
	return &mockUserStore{
		users:         make(map[string]store.User),
		emailIndex:    make(map[string]string),
		verifications: make(map[string]store.User),
		resets:        make(map[string]string),
		usedResets:    make(map[string]bool),
	}
}

func (m *mockUserStore) GetUserByEmail(ctx context.Context, email string) (store.User, error) {
	if userID, ok := m.emailIndex[email]; ok {
		return m.users[userID], nil
	}
	return store.User{}, store.ErrNotFound
}

func (m *mockUserStore) CreateUser(ctx context.Context, user store.User) error {
	m.users[user.ID] = user
	m.emailIndex[user.Email] = user.ID
	return nil
}

func (m *mockUserStore) UpdateUserVerificationToken(ctx context.Context, userID, token string, expiresAt time.Time) error {
	if user, ok := m.users[userID]; ok {
		user.VerificationToken = token
		user.VerificationExpiresAt = &expiresAt
		m.users[userID] = user
		m.verifications[token] = user
	}
	return nil
}

func (m *mockUserStore) VerifyUserEmail(ctx context.Context, token string) error {
	if user, ok := m.verifications[token]; ok {
		user.IsEmailVerified = true
		m.users[user.ID] = user
		m.emailIndex[user.Email] = user.ID
		return nil
	}
	return errors.New("invalid token")
}

func (m *mockUserStore) UpdateUserPassword(ctx context.Context, userID, passwordHash string) error {
	if user, ok := m.users[userID]; ok {
		user.PasswordHash = passwordHash
		m.users[userID] = user
	}
	return nil
}

func (m *mockUserStore) CreatePasswordReset(ctx context.Context, userID, token string, expiresAt time.Time) error {
	m.resets[token] = userID
	return nil
}

func (m *mockUserStore) GetPasswordReset(ctx context.Context, token string) (string, error) {
	if m.usedResets[token] {
		return "", store.ErrNotFound
	}
	if userID, ok := m.resets[token]; ok {
		return userID, nil
	}
	return "", store.ErrNotFound
}

func (m *mockUserStore) MarkPasswordResetUsed(ctx context.Context, token string) error {
	m.usedResets[token] = true
	return nil
}

func TestSignUpAndVerify(t *testing.T) {
	mock := newMockUserStore()
	svc := NewService(mock)
	ctx := context.Background()

	resp, err := svc.SignUp(ctx, SignUpRequest{Email: "ana@example.com", Password: "password123", Name: "Ana"})
	if err != nil {
		t.Fatalf("SignUp failed: %v", err)
	}
	if !resp.RequiresEmailVerify {
		t.Error("expected RequiresEmailVerify")
	}
	if resp.VerificationToken == "" {
		t.Fatal("expected a verification token")
	}

	// Sign-in before verification flags the account
	signIn, err := svc.SignIn(ctx, SignInRequest{Email: "ana@example.com", Password: "password123"})
	if err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}
	if !signIn.RequiresVerify {
		t.Error("expected RequiresVerify before email verification")
	}

	if err := svc.VerifyEmail(ctx, resp.VerificationToken); err != nil {
		t.Fatalf("VerifyEmail failed: %v", err)
	}

	signIn, err = svc.SignIn(ctx, SignInRequest{Email: "ana@example.com", Password: "password123"})
	if err != nil {
		t.Fatalf("SignIn after verify failed: %v", err)
	}
	if signIn.RequiresVerify {
		t.Error("did not expect RequiresVerify after verification")
	}
	if signIn.User.Email != "ana@example.com" {
		t.Errorf("unexpected user: %+v", signIn.User)
	}
}

func TestSignUpValidation(t *testing.T) {
	svc := NewService(newMockUserStore())
	ctx := context.Background()

	if _, err := svc.SignUp(ctx, SignUpRequest{Email: "", Password: "password123", Name: "Ana"}); err == nil {
		t.Error("expected error for missing email")
	}
	if _, err := svc.SignUp(ctx, SignUpRequest{Email: "a@b.com", Password: "short", Name: "Ana"}); err == nil {
		t.Error("expected error for short password")
	}
}

func TestSignUpDuplicateEmail(t *testing.T) {
	mock := newMockUserStore()
	svc := NewService(mock)
	ctx := context.Background()

	if _, err := svc.SignUp(ctx, SignUpRequest{Email: "ana@example.com", Password: "password123", Name: "Ana"}); err != nil {
		t.Fatalf("first SignUp failed: %v", err)
	}
	if _, err := svc.SignUp(ctx, SignUpRequest{Email: "ana@example.com", Password: "password456", Name: "Ana B"}); err == nil {
		t.Error("expected error for duplicate email")
	}
}

func TestSignInWrongPassword(t *testing.T) {
	mock := newMockUserStore()
	svc := NewService(mock)
	ctx := context.Background()

	resp, err := svc.SignUp(ctx, SignUpRequest{Email: "ana@example.com", Password: "password123", Name: "Ana"})
	if err != nil {
		t.Fatalf("SignUp failed: %v", err)
	}
	if err := svc.VerifyEmail(ctx, resp.VerificationToken); err != nil {
		t.Fatalf("VerifyEmail failed: %v", err)
	}

	if _, err := svc.SignIn(ctx, SignInRequest{Email: "ana@example.com", Password: "wrong-password"}); err == nil {
		t.Error("expected error for wrong password")
	}
}

func TestPasswordResetFlow(t *testing.T) {
	mock := newMockUserStore()
	svc := NewService(mock)
	ctx := context.Background()

	resp, err := svc.SignUp(ctx, SignUpRequest{Email: "ana@example.com", Password: "password123", Name: "Ana"})
	if err != nil {
		t.Fatalf("SignUp failed: %v", err)
	}
	if err := svc.VerifyEmail(ctx, resp.VerificationToken); err != nil {
		t.Fatalf("VerifyEmail failed: %v", err)
	}

	token, err := svc.RequestPasswordReset(ctx, "ana@example.com")
	if err != nil {
		t.Fatalf("RequestPasswordReset failed: %v", err)
	}
	if token == "" {
		t.Fatal("expected a reset token")
	}

	if err := svc.ResetPassword(ctx, ResetPasswordRequest{Token: token, NewPassword: "newpassword1"}); err != nil {
		t.Fatalf("ResetPassword failed: %v", err)
	}

	if _, err := svc.SignIn(ctx, SignInRequest{Email: "ana@example.com", Password: "newpassword1"}); err != nil {
		t.Errorf("SignIn with new password failed: %v", err)
	}
	if _, err := svc.SignIn(ctx, SignInRequest{Email: "ana@example.com", Password: "password123"}); err == nil {
		t.Error("old password still accepted after reset")
	}

	// Token is single use
	if err := svc.ResetPassword(ctx, ResetPasswordRequest{Token: token, NewPassword: "anotherpass1"}); err == nil {
		t.Error("expected error reusing reset token")
	}
}

func TestRequestPasswordResetUnknownEmail(t *testing.T) {
	svc := NewService(newMockUserStore())

	// Unknown emails are not revealed: no error, empty token
	token, err := svc.RequestPasswordReset(context.Background(), "nobody@example.com")
	if err != nil {
		t.Fatalf("RequestPasswordReset failed: %v", err)
	}
	if token != "" {
		t.Error("expected empty token for unknown email")
	}
}
