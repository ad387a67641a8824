package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"budgetwise/internal/core"
	applog "budgetwise/internal/log"
)

var ErrEmptyProfile = errors.New("nothing to update: give a name or an email")

// Profile returns the user's record in the backend directory.
func (s *Service) Profile(ctx context.Context, u User) (core.UserProfile, error) {
	ctx, cancel := s.call(ctx)
	defer cancel()
	p, err := u.Backend.Me(ctx)
	if err != nil {
		return core.UserProfile{}, fmt.Errorf("load profile: %w", err)
	}
	return p, nil
}

// UpdateProfile changes the display name and email. Blank values keep the
// stored ones.
func (s *Service) UpdateProfile(ctx context.Context, u User, name, email string) (core.UserProfile, error) {
	name, email = strings.TrimSpace(name), strings.TrimSpace(email)
	if name == "" && email == "" {
		return core.UserProfile{}, ErrEmptyProfile
	}

	ctx, cancel := s.call(ctx)
	defer cancel()
	p, err := u.Backend.UpdateProfile(ctx, core.UserProfile{Subject: u.Subject, Name: name, Email: email})
	if err != nil {
		return core.UserProfile{}, fmt.Errorf("update profile: %w", err)
	}
	slog.InfoContext(ctx, "Profile updated", applog.FieldSubject, u.Subject)
	return p, nil
}
