package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	apperrors "github.com/merchflow/autopilot/internal/errors"
	"github.com/merchflow/autopilot/internal/models"
	"github.com/merchflow/autopilot/internal/repositories"
)

// mockApprovalRepo keeps approval records in memory with the same transition
// semantics as the real repository.
type mockApprovalRepo struct {
	mu    sync.Mutex
	items map[string]*models.PendingApproval
}

func newMockApprovalRepo() *mockApprovalRepo {
	return &mockApprovalRepo{items: map[string]*models.PendingApproval{}}
}

func (m *mockApprovalRepo) seed(a *models.PendingApproval) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[a.ID] = a
}

func (m *mockApprovalRepo) Create(ctx context.Context, a *models.PendingApproval) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[a.ID] = a
	return nil
}

func (m *mockApprovalRepo) GetByID(ctx context.Context, userID, id string) (*models.PendingApproval, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.items[id]
	if !ok || a.UserID != userID {
		return nil, apperrors.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *mockApprovalRepo) List(ctx context.Context, userID string, filter *models.ApprovalFilter) ([]*models.PendingApproval, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var list []*models.PendingApproval
	for _, a := range m.items {
		if a.UserID != userID {
			continue
		}
		if filter != nil && filter.Status != "" && a.Status != filter.Status {
			continue
		}
		if filter != nil && filter.ActionType != "" && a.ActionType != filter.ActionType {
			continue
		}
		cp := *a
		list = append(list, &cp)
	}
	return list, nil
}

func (m *mockApprovalRepo) Transition(ctx context.Context, userID, id string, to models.ApprovalStatus, reviewer string, at time.Time) (*models.PendingApproval, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.items[id]
	if !ok || a.UserID != userID {
		return nil, apperrors.ErrNotFound
	}
	if a.Status != models.StatusPending {
		cp := *a
		return &cp, apperrors.ErrAlreadyReviewed
	}
	a.Status = to
	a.ReviewedAt = &at
	a.ReviewedBy = &reviewer
	cp := *a
	return &cp, nil
}

func (m *mockApprovalRepo) SetExecutionResult(ctx context.Context, userID, id string, executedActionID *string, executionErr *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.items[id]
	if !ok || a.UserID != userID {
		return apperrors.ErrNotFound
	}
	a.ExecutedActionID = executedActionID
	a.ExecutionError = executionErr
	return nil
}

// mockCounterRepo applies the same guarded-increment semantics as the SQL
// implementation.
type mockCounterRepo struct {
	mu       sync.Mutex
	counters map[string]*models.DailyConsumption
}

func newMockCounterRepo() *mockCounterRepo {
	return &mockCounterRepo{counters: map[string]*models.DailyConsumption{}}
}

func (m *mockCounterRepo) key(userID, day string) string { return userID + "|" + day }

func (m *mockCounterRepo) Get(ctx context.Context, userID, day string) (*models.DailyConsumption, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.counters[m.key(userID, day)]; ok {
		cp := *c
		return &cp, nil
	}
	return &models.DailyConsumption{UserID: userID, Day: day, CreditsSpent: decimal.Zero}, nil
}

func (m *mockCounterRepo) Commit(ctx context.Context, userID, day string, cost decimal.Decimal, creditLimit decimal.Decimal, actionLimit int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.counters[m.key(userID, day)]
	if !ok {
		c = &models.DailyConsumption{UserID: userID, Day: day, CreditsSpent: decimal.Zero}
		m.counters[m.key(userID, day)] = c
	}
	if c.CreditsSpent.Add(cost).GreaterThan(creditLimit) || c.ActionsExecuted+1 > actionLimit {
		return false, nil
	}
	c.CreditsSpent = c.CreditsSpent.Add(cost)
	c.ActionsExecuted++
	return true, nil
}

// mockAuditRepo records appended entries and executions.
type mockAuditRepo struct {
	mu      sync.Mutex
	entries []*models.AuditEntry
	execs   []*models.ExecutedAction
}

func (m *mockAuditRepo) Append(ctx context.Context, e *models.AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
	return nil
}

func (m *mockAuditRepo) ListEntries(ctx context.Context, userID string, limit, offset int) ([]*models.AuditEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var list []*models.AuditEntry
	for _, e := range m.entries {
		if e.UserID == userID {
			list = append(list, e)
		}
	}
	return list, nil
}

func (m *mockAuditRepo) RecordExecution(ctx context.Context, a *models.ExecutedAction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.execs = append(m.execs, a)
	return nil
}

func (m *mockAuditRepo) ListExecutedActions(ctx context.Context, userID string, limit, offset int) ([]*models.ExecutedAction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var list []*models.ExecutedAction
	for _, a := range m.execs {
		if a.UserID == userID {
			list = append(list, a)
		}
	}
	return list, nil
}

// mockExecutor counts calls and can be told to fail.
type mockExecutor struct {
	mu    sync.Mutex
	calls int
	fail  error
}

func (m *mockExecutor) Execute(ctx context.Context, userID string, actionType models.ActionType, payload json.RawMessage) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.fail != nil {
		return "", m.fail
	}
	return fmt.Sprintf("exec-%d", m.calls), nil
}

func (m *mockExecutor) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// mockSettingsService returns fixed settings, standing in for the fetch-fresh
// settings read the coordinator performs per evaluation.
type mockSettingsService struct {
	settings *models.AutomationSettings
}

func (m *mockSettingsService) Get(ctx context.Context, userID string) (*models.AutomationSettings, error) {
	cp := *m.settings
	return &cp, nil
}

func (m *mockSettingsService) Update(ctx context.Context, userID string, patch *models.SettingsPatch) (*models.AutomationSettings, error) {
	m.settings.Apply(patch)
	cp := *m.settings
	return &cp, nil
}

// mockSettingsRepo backs the settings service tests.
type mockSettingsRepo struct {
	mu       sync.Mutex
	settings *models.AutomationSettings
}

func (m *mockSettingsRepo) Get(ctx context.Context, userID string) (*models.AutomationSettings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.settings == nil || m.settings.UserID != userID {
		return nil, apperrors.ErrNotFound
	}
	cp := *m.settings
	return &cp, nil
}

func (m *mockSettingsRepo) Create(ctx context.Context, s *models.AutomationSettings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.settings != nil && m.settings.UserID == s.UserID {
		return fmt.Errorf("settings already exist for %s", s.UserID)
	}
	m.settings = s
	return nil
}

func (m *mockSettingsRepo) Update(ctx context.Context, s *models.AutomationSettings) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.settings == nil || m.settings.Version != s.Version {
		return false, nil
	}
	cp := *s
	cp.Version++
	m.settings = &cp
	s.Version++
	return true, nil
}

// compile-time checks that mocks satisfy interfaces
var _ repositories.ApprovalRepository = (*mockApprovalRepo)(nil)
var _ repositories.CounterRepository = (*mockCounterRepo)(nil)
var _ repositories.AuditRepository = (*mockAuditRepo)(nil)
var _ repositories.SettingsRepository = (*mockSettingsRepo)(nil)
var _ Executor = (*mockExecutor)(nil)
var _ SettingsService = (*mockSettingsService)(nil)
