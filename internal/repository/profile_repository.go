package repository

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/gurkanbulca/taskboard/internal/database"
	"github.com/gurkanbulca/taskboard/internal/models"
)

type ProfileRepository struct {
	db      sqlx.ExtContext
	dialect string
}

func NewProfileRepository(db *sqlx.DB) *ProfileRepository {
	return &ProfileRepository{db: db, dialect: database.Dialect(db)}
}

// WithTx returns a repository bound to tx.
func (r *ProfileRepository) WithTx(tx *sqlx.Tx) *ProfileRepository {
	return &ProfileRepository{db: tx, dialect: r.dialect}
}

func (r *ProfileRepository) Create(ctx context.Context, p *models.Profile) error {
	query, args := sql.Dialect(r.dialect).
		Insert(profilesTable).
		Columns("id", "user_id", "image").
		Values(p.ID, p.UserID, p.Image).
		Query()

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert profile: %w", translate(err))
	}
	return nil
}

func (r *ProfileRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	query, args := sql.Dialect(r.dialect).
		Select("id", "user_id", "image").
		From(sql.Table(profilesTable)).
		Where(sql.EQ("user_id", userID)).
		Query()

	var p models.Profile
	if err := sqlx.GetContext(ctx, r.db, &p, query, args...); err != nil {
		return nil, fmt.Errorf("get profile of %s: %w", userID, translate(err))
	}
	return &p, nil
}

func (r *ProfileRepository) UpdateImage(ctx context.Context, userID uuid.UUID, image string) error {
	query, args := sql.Dialect(r.dialect).
		Update(profilesTable).
		Set("image", image).
		Where(sql.EQ("user_id", userID)).
		Query()

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update profile of %s: %w", userID, err)
	}
	if err := expectRows(res); err != nil {
		return fmt.Errorf("update profile of %s: %w", userID, err)
	}
	return nil
}

func (r *ProfileRepository) DeleteByUserID(ctx context.Context, userID uuid.UUID) error {
	query, args := sql.Dialect(r.dialect).
		Delete(profilesTable).
		Where(sql.EQ("user_id", userID)).
		Query()

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete profile of %s: %w", userID, err)
	}
	return nil
}

// CountByUserID is used to check the one-profile-per-user invariant.
func (r *ProfileRepository) CountByUserID(ctx context.Context, userID uuid.UUID) (int, error) {
	query, args := sql.Dialect(r.dialect).
		Select(sql.Count("*")).
		From(sql.Table(profilesTable)).
		Where(sql.EQ("user_id", userID)).
		Query()

	var n int
	if err := sqlx.GetContext(ctx, r.db, &n, query, args...); err != nil {
		return 0, fmt.Errorf("count profiles of %s: %w", userID, err)
	}
	return n, nil
}
