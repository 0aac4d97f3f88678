package suggestion

import (
	"context"
	"errors"

	"github.com/khoahotran/career-compass/internal/domain/profile"
	"github.com/khoahotran/career-compass/internal/domain/suggestion"
	"github.com/khoahotran/career-compass/pkg/apperror"
)

type QueryUseCase struct {
	profiles profile.Repository
	records  suggestion.RecordWriter
}

func NewQueryUseCase(pr profile.Repository, rw suggestion.RecordWriter) *QueryUseCase {
	return &QueryUseCase{profiles: pr, records: rw}
}

// LatestSuggestions returns the career suggestions from the most recent first-stage run.
func (uc *QueryUseCase) LatestSuggestions(ctx context.Context, externalID string) ([]suggestion.CareerSuggestion, error) {
	p, err := uc.profiles.GetByExternalID(ctx, externalID)
	if err != nil {
		if errors.Is(err, profile.ErrProfileNotFound) {
			return nil, apperror.NewProfileNotFound(externalID)
		}
		return nil, apperror.NewInternal("failed to load profile", err)
	}

	list, err := uc.records.LatestCareerSuggestions(ctx, p.ID)
	if err != nil {
		return nil, apperror.NewInternal("failed to read suggestions", err)
	}
	return list, nil
}
