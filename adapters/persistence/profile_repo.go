package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/khoahotran/career-compass/internal/domain/profile"
)

var errNoProfileRow = errors.New("profile row not found")

type postgresProfileRepo struct {
	db *pgxpool.Pool
}

func NewPostgresProfileRepo(db *pgxpool.Pool) profile.Repository {
	return &postgresProfileRepo{db: db}
}

func scanProfile(row pgx.Row) (*profile.Profile, error) {
	p := &profile.Profile{}
	var age sql.NullInt32
	var chosenCareer sql.NullString

	err := row.Scan(
		&p.ID,
		&p.ExternalID,
		&p.Name,
		&age,
		&p.Gender,
		&p.EducationLevel,
		&p.Skills,
		&p.Preferences,
		&chosenCareer,
		&p.IsCompleted,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, profile.ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to scan profile row: %w", err)
	}

	if age.Valid {
		v := int(age.Int32)
		p.Age = &v
	}
	if chosenCareer.Valid {
		p.ChosenCareer = &chosenCareer.String
	}
	return p, nil
}

func (r *postgresProfileRepo) GetByExternalID(ctx context.Context, externalID string) (*profile.Profile, error) {
	query, args, err := psql.Select(
		"id", "external_id", "name", "age", "gender", "education_level",
		"skills", "preferences", "chosen_career", "is_completed", "updated_at",
	).
		From("user_profiles").
		Where(sq.Eq{"external_id": externalID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build profile query: %w", err)
	}
	return scanProfile(r.db.QueryRow(ctx, query, args...))
}

func (r *postgresProfileRepo) UpdateChosenCareer(ctx context.Context, id int64, career string) error {
	query, args, err := psql.Update("user_profiles").
		Set("chosen_career", career).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build chosen career update: %w", err)
	}
	return r.execOne(ctx, "update chosen career", query, args...)
}

func (r *postgresProfileRepo) MarkCompleted(ctx context.Context, id int64) error {
	query, args, err := psql.Update("user_profiles").
		Set("is_completed", true).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build completion update: %w", err)
	}
	return r.execOne(ctx, "mark profile completed", query, args...)
}

func (r *postgresProfileRepo) execOne(ctx context.Context, op, query string, args ...any) error {
	cmdTag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("failed to %s: %w", op, errNoProfileRow)
	}
	return nil
}
