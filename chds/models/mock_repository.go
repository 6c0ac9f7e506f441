package models

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
)

// MockRepository is a testify mock of Repository used by service-level unit
// tests.
type MockRepository struct {
	mock.Mock
}

var _ Repository = &MockRepository{}

func (m *MockRepository) GetResidentByResidentID(ctx context.Context, residentID string) (*Resident, error) {
	args := m.Called(ctx, residentID)
	var resident *Resident
	if args.Get(0) != nil {
		resident = args.Get(0).(*Resident)
	}
	return resident, args.Error(1)
}

func (m *MockRepository) CountBySecretariatAndMobile(ctx context.Context, secretariat, mobile, excludeResidentID string) (int, error) {
	args := m.Called(ctx, secretariat, mobile, excludeResidentID)
	return args.Int(0), args.Error(1)
}

func (m *MockRepository) CountByHealthID(ctx context.Context, healthID, excludeResidentID string) (int, error) {
	args := m.Called(ctx, healthID, excludeResidentID)
	return args.Int(0), args.Error(1)
}

func (m *MockRepository) UpdateResidentFields(ctx context.Context, residentID string, fields map[string]interface{}) error {
	args := m.Called(ctx, residentID, fields)
	return args.Error(0)
}

func (m *MockRepository) WalkResidents(ctx context.Context, mandal, secretariat string, fn func(*Resident) error) error {
	args := m.Called(ctx, mandal, secretariat, fn)
	return args.Error(0)
}

func (m *MockRepository) CreateChangeLogEntry(ctx context.Context, entry ChangeLogEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockRepository) CreateImportHistory(ctx context.Context, entry ImportHistoryEntry) (uint, error) {
	args := m.Called(ctx, entry)
	return uint(args.Int(0)), args.Error(1)
}

func (m *MockRepository) GetImportHistory(ctx context.Context, limit int) ([]ImportHistoryEntry, error) {
	args := m.Called(ctx, limit)
	var entries []ImportHistoryEntry
	if args.Get(0) != nil {
		entries = args.Get(0).([]ImportHistoryEntry)
	}
	return entries, args.Error(1)
}

func (m *MockRepository) GetLockingSetting(ctx context.Context) (*LockingSetting, error) {
	args := m.Called(ctx)
	var setting *LockingSetting
	if args.Get(0) != nil {
		setting = args.Get(0).(*LockingSetting)
	}
	return setting, args.Error(1)
}

func (m *MockRepository) SetCutoffDate(ctx context.Context, cutoff *time.Time) error {
	args := m.Called(ctx, cutoff)
	return args.Error(0)
}
