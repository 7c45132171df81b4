package game

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/StanleyRoberts/Nix-Bot-sub000/domain"
)

// --- Provider ---

type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) FetchBatch(ctx context.Context, minCount int) ([]domain.Question, error) {
	args := m.Called(ctx, minCount)
	return args.Get(0).([]domain.Question), args.Error(1)
}

// --- Rand ---

type MockRand struct {
	mock.Mock
}

func (m *MockRand) Intn(n int) int {
	args := m.Called(n)
	return args.Int(0)
}

func (m *MockRand) Shuffle(n int, swap func(i, j int)) {
	m.Called(n)
}

// --- SettingsSource ---

type MockSettingsSource struct {
	mock.Mock
}

func (m *MockSettingsSource) GetRoomSettings(ctx context.Context, roomID string) (domain.RoomSettings, error) {
	args := m.Called(ctx, roomID)
	return args.Get(0).(domain.RoomSettings), args.Error(1)
}

// --- PostSource ---

type MockPostSource struct {
	mock.Mock
}

func (m *MockPostSource) Top(ctx context.Context, limit int) ([]domain.Post, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]domain.Post), args.Error(1)
}

// --- WordSource ---

type MockWordSource struct {
	mock.Mock
}

func (m *MockWordSource) Pack(name string) ([]string, error) {
	args := m.Called(name)
	return args.Get(0).([]string), args.Error(1)
}

// --- EffectSink ---

type MockEffectSink struct {
	mock.Mock
}

func (m *MockEffectSink) Apply(ctx context.Context, roomID string, effects []domain.Effect) {
	m.Called(ctx, roomID, effects)
}
