package profile

import (
	"context"
	"errors"
	"time"
)

var ErrProfileNotFound = errors.New("profile not found")

// Profile is owned by the external profile-management system. Only ChosenCareer
// and IsCompleted are written from this service.
type Profile struct {
	ID             int64     `json:"id"`
	ExternalID     string    `json:"external_id"`
	Name           string    `json:"name"`
	Age            *int      `json:"age,omitempty"`
	Gender         string    `json:"gender"`
	EducationLevel string    `json:"education_level"`
	Skills         string    `json:"skills"`
	Preferences    string    `json:"preferences"`
	ChosenCareer   *string   `json:"chosen_career,omitempty"`
	IsCompleted    bool      `json:"is_completed"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// WithChosenCareer returns a copy of p with the chosen career replaced.
func (p Profile) WithChosenCareer(career string) *Profile {
	c := career
	p.ChosenCareer = &c
	return &p
}

type Repository interface {
	// GetByExternalID returns ErrProfileNotFound when no record matches.
	GetByExternalID(ctx context.Context, externalID string) (*Profile, error)
	UpdateChosenCareer(ctx context.Context, id int64, career string) error
	MarkCompleted(ctx context.Context, id int64) error
}
