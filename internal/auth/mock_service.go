package auth

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/inkvault/backend/internal/models"
)

// MockCall records a method call for assertion
type MockCall struct {
	Method string
	Args   []interface{}
}

// MockAuthService is a mock implementation of AuthServiceInterface for testing.
// Sessions handed to AddSession validate; every other token is rejected.
type MockAuthService struct {
	mu sync.Mutex

	// Call tracking
	Calls []MockCall

	// Configurable function overrides
	RegisterFunc             func(req RegisterRequest) error
	VerifyEmailFunc          func(code string) (*AuthResponse, error)
	LoginFunc                func(req LoginRequest) (*AuthResponse, error)
	RequestPasswordResetFunc func(email string) error
	ResetPasswordFunc        func(email, code, newPassword string) error
	ChangePasswordFunc       func(userID, current, next string) error

	// Default error to return
	DefaultError error

	// Sessions keyed by token
	Sessions map[string]*models.Session
}

// NewMockAuthService creates a new mock auth service with sensible defaults
func NewMockAuthService() *MockAuthService {
	return &MockAuthService{
		Calls:    make([]MockCall, 0),
		Sessions: make(map[string]*models.Session),
	}
}

// recordCall records a method call for later assertion
func (m *MockAuthService) recordCall(method string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, MockCall{Method: method, Args: args})
}

// GetCallsForMethod returns calls for a specific method
func (m *MockAuthService) GetCallsForMethod(method string) []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []MockCall
	for _, call := range m.Calls {
		if call.Method == method {
			result = append(result, call)
		}
	}
	return result
}

// AssertCalled checks if a method was called at least once
func (m *MockAuthService) AssertCalled(method string) bool {
	return len(m.GetCallsForMethod(method)) > 0
}

// AddSession registers a valid bearer token for userID and returns it
func (m *MockAuthService) AddSession(userID string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	token := "mock_token_" + uuid.NewString()
	now := time.Now().UTC()
	m.Sessions[token] = &models.Session{
		ID:        uuid.NewString(),
		Token:     token,
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(7 * 24 * time.Hour),
	}
	return token
}

// ============================================================================
// AuthServiceInterface implementation
// ============================================================================

func (m *MockAuthService) Register(_ context.Context, req RegisterRequest) error {
	m.recordCall("Register", req)
	if m.RegisterFunc != nil {
		return m.RegisterFunc(req)
	}
	return m.DefaultError
}

func (m *MockAuthService) VerifyEmail(_ context.Context, code string) (*AuthResponse, error) {
	m.recordCall("VerifyEmail", code)
	if m.VerifyEmailFunc != nil {
		return m.VerifyEmailFunc(code)
	}
	if m.DefaultError != nil {
		return nil, m.DefaultError
	}
	return nil, ErrInvalidCode
}

func (m *MockAuthService) Login(_ context.Context, req LoginRequest) (*AuthResponse, error) {
	m.recordCall("Login", req)
	if m.LoginFunc != nil {
		return m.LoginFunc(req)
	}
	if m.DefaultError != nil {
		return nil, m.DefaultError
	}
	return nil, ErrInvalidCredentials
}

func (m *MockAuthService) Logout(_ context.Context, token string) error {
	m.recordCall("Logout", token)
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Sessions, token)
	return m.DefaultError
}

func (m *MockAuthService) ValidateSession(_ context.Context, token string) (*models.Session, error) {
	m.recordCall("ValidateSession", token)
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.Sessions[token]; ok {
		return s, nil
	}
	return nil, ErrInvalidToken
}

func (m *MockAuthService) RequestPasswordReset(_ context.Context, email string) error {
	m.recordCall("RequestPasswordReset", email)
	if m.RequestPasswordResetFunc != nil {
		return m.RequestPasswordResetFunc(email)
	}
	return m.DefaultError
}

func (m *MockAuthService) ResetPassword(_ context.Context, email, code, newPassword string) error {
	m.recordCall("ResetPassword", email, code, newPassword)
	if m.ResetPasswordFunc != nil {
		return m.ResetPasswordFunc(email, code, newPassword)
	}
	return m.DefaultError
}

func (m *MockAuthService) ChangePassword(_ context.Context, userID, current, next string) error {
	m.recordCall("ChangePassword", userID, current, next)
	if m.ChangePasswordFunc != nil {
		return m.ChangePasswordFunc(userID, current, next)
	}
	return m.DefaultError
}

// Ensure MockAuthService implements AuthServiceInterface
var _ AuthServiceInterface = (*MockAuthService)(nil)
