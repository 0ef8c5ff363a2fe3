package services

import (
	"context"
	"errors"
	"fmt"

	apperrors "github.com/merchflow/autopilot/internal/errors"
	"github.com/merchflow/autopilot/internal/models"
	"github.com/merchflow/autopilot/internal/repositories"
)

const settingsUpdateRetries = 3

type settingsService struct {
	repo repositories.SettingsRepository
}

// NewSettingsService creates the automation settings service.
func NewSettingsService(repo repositories.SettingsRepository) SettingsService {
	return &settingsService{repo: repo}
}

// Get returns the tenant's settings, creating the defaults on first read.
func (s *settingsService) Get(ctx context.Context, userID string) (*models.AutomationSettings, error) {
	settings, err := s.repo.Get(ctx, userID)
	if err == nil {
		return settings, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	defaults := models.DefaultAutomationSettings(userID)
	if createErr := s.repo.Create(ctx, defaults); createErr != nil {
		// Another request may have bootstrapped the row first.
		if settings, err = s.repo.Get(ctx, userID); err == nil {
			return settings, nil
		}
		return nil, fmt.Errorf("failed to create default settings: %w", createErr)
	}
	return defaults, nil
}

// Update applies a partial patch under optimistic concurrency. Changes take
// effect on the next guardrail evaluation; in-flight evaluations keep the
// settings they already read.
func (s *settingsService) Update(ctx context.Context, userID string, patch *models.SettingsPatch) (*models.AutomationSettings, error) {
	if patch == nil {
		return nil, fmt.Errorf("%w: empty settings patch", apperrors.ErrInvalidArgument)
	}
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	for attempt := 0; attempt < settingsUpdateRetries; attempt++ {
		settings, err := s.Get(ctx, userID)
		if err != nil {
			return nil, err
		}
		settings.Apply(patch)
		ok, err := s.repo.Update(ctx, settings)
		if err != nil {
			return nil, fmt.Errorf("failed to update settings: %w", err)
		}
		if ok {
			return settings, nil
		}
		// Version moved underneath; re-read and retry.
	}
	return nil, fmt.Errorf("failed to update settings: too many concurrent updates")
}
