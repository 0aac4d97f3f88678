package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/khoahotran/career-compass/internal/domain/suggestion"
)

var errRecordNotWritten = errors.New("record insert affected no rows")

type postgresSuggestionRepo struct {
	db *pgxpool.Pool
}

func NewPostgresSuggestionRepo(db *pgxpool.Pool) suggestion.RecordWriter {
	return &postgresSuggestionRepo{db: db}
}

func (r *postgresSuggestionRepo) WriteRecord(ctx context.Context, profileID int64, rec suggestion.Record) error {
	builder, err := insertFor(profileID, rec)
	if err != nil {
		return err
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build %s insert: %w", rec.Stage, err)
	}
	cmdTag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to insert %s record: %w", rec.Stage, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return errRecordNotWritten
	}
	return nil
}

func insertFor(profileID int64, rec suggestion.Record) (sq.InsertBuilder, error) {
	switch v := rec.Payload.(type) {
	case suggestion.CareerSuggestion:
		return psql.Insert("career_suggestions").
			Columns("user_profile_id", "run_id", "position", "career_name", "career_description").
			Values(profileID, rec.RunID, rec.Position, v.CareerName, v.CareerDescription), nil
	case suggestion.SkillDetail:
		return psql.Insert("skill_details").
			Columns("user_profile_id", "run_id", "career_name", "position", "skill_name", "description").
			Values(profileID, rec.RunID, rec.Career, rec.Position, v.SkillName, v.Description), nil
	case suggestion.RoadmapPhase:
		milestones, err := json.Marshal(v.Milestones)
		if err != nil {
			return sq.InsertBuilder{}, fmt.Errorf("failed to marshal milestones: %w", err)
		}
		return psql.Insert("roadmap_phases").
			Columns("user_profile_id", "run_id", "career_name", "position", "phase", "milestones").
			Values(profileID, rec.RunID, rec.Career, rec.Position, v.Phase, milestones), nil
	default:
		return sq.InsertBuilder{}, fmt.Errorf("unsupported record payload %T", rec.Payload)
	}
}

// LatestCareerSuggestions returns the rows of the most recent careers run, in
// the order the model produced them.
func (r *postgresSuggestionRepo) LatestCareerSuggestions(ctx context.Context, profileID int64) ([]suggestion.CareerSuggestion, error) {
	latestRun := psql.Select("run_id").
		From("career_suggestions").
		Where(sq.Eq{"user_profile_id": profileID}).
		OrderBy("created_at DESC", "id DESC").
		Limit(1)

	query, args, err := psql.Select("career_name", "career_description").
		From("career_suggestions").
		Where(sq.Eq{"user_profile_id": profileID}).
		Where(sq.Expr("run_id = (?)", latestRun)).
		OrderBy("position ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build latest suggestions query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest suggestions: %w", err)
	}
	defer rows.Close()

	list := make([]suggestion.CareerSuggestion, 0)
	for rows.Next() {
		var s suggestion.CareerSuggestion
		if err := rows.Scan(&s.CareerName, &s.CareerDescription); err != nil {
			return nil, fmt.Errorf("failed to scan suggestion row: %w", err)
		}
		list = append(list, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating suggestion rows: %w", err)
	}
	return list, nil
}
