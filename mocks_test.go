package taskguard_test

import (
	"context"

	taskguard "github.com/goliatone/go-taskguard"
	"github.com/stretchr/testify/mock"
)

// MockIdentity implements taskguard.Identity for testing
type MockIdentity struct {
	mock.Mock
}

func (m *MockIdentity) ID() int64 {
	args := m.Called()
	return args.Get(0).(int64)
}

func (m *MockIdentity) Username() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockIdentity) Email() string {
	args := m.Called()
	return args.String(0)
}

// MockLogger implements taskguard.Logger for testing
type MockLogger struct {
	mock.Mock
}

func (m *MockLogger) Debug(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Info(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Warn(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Error(format string, args ...any) {
	m.Called(format, args)
}

// NoopLogger swallows all output; used where log assertions add noise
type NoopLogger struct{}

func (NoopLogger) Debug(format string, args ...any) {}
func (NoopLogger) Info(format string, args ...any)  {}
func (NoopLogger) Warn(format string, args ...any)  {}
func (NoopLogger) Error(format string, args ...any) {}

// MockUserTracker implements taskguard.UserTracker
type MockUserTracker struct {
	mock.Mock
}

func (m *MockUserTracker) GetByUsername(ctx context.Context, username string) (*taskguard.User, error) {
	args := m.Called(ctx, username)
	if user, ok := args.Get(0).(*taskguard.User); ok {
		return user, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserTracker) TrackAttemptedLogin(ctx context.Context, user *taskguard.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserTracker) TrackSuccessfulLogin(ctx context.Context, user *taskguard.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// MockIdentityProvider implements taskguard.IdentityProvider
type MockIdentityProvider struct {
	mock.Mock
}

func (m *MockIdentityProvider) VerifyIdentity(ctx context.Context, username, password string) (taskguard.Identity, error) {
	args := m.Called(ctx, username, password)
	if identity, ok := args.Get(0).(taskguard.Identity); ok {
		return identity, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockIdentityProvider) FindIdentityByUsername(ctx context.Context, username string) (taskguard.Identity, error) {
	args := m.Called(ctx, username)
	if identity, ok := args.Get(0).(taskguard.Identity); ok {
		return identity, args.Error(1)
	}
	return nil, args.Error(1)
}

type staticIdentity struct {
	id       int64
	username string
	email    string
}

func (s staticIdentity) ID() int64        { return s.id }
func (s staticIdentity) Username() string { return s.username }
func (s staticIdentity) Email() string    { return s.email }
