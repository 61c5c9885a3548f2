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

var userColumns = []string{"id", "username", "email", "role", "password_hash", "date_joined"}

type UserRepository struct {
	db      sqlx.ExtContext
	dialect string
}

func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db, dialect: database.Dialect(db)}
}

// WithTx returns a repository bound to tx.
func (r *UserRepository) WithTx(tx *sqlx.Tx) *UserRepository {
	return &UserRepository{db: tx, dialect: r.dialect}
}

func (r *UserRepository) Create(ctx context.Context, u *models.User) error {
	query, args := sql.Dialect(r.dialect).
		Insert(usersTable).
		Columns(userColumns...).
		Values(u.ID, u.Username, u.Email, u.Role, u.PasswordHash, u.DateJoined.UTC()).
		Query()

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert user: %w", translate(err))
	}
	return nil
}

func (r *UserRepository) getBy(ctx context.Context, column string, value any) (*models.User, error) {
	query, args := sql.Dialect(r.dialect).
		Select(userColumns...).
		From(sql.Table(usersTable)).
		Where(sql.EQ(column, value)).
		Query()

	var u models.User
	if err := sqlx.GetContext(ctx, r.db, &u, query, args...); err != nil {
		return nil, fmt.Errorf("get user by %s: %w", column, translate(err))
	}
	return &u, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return r.getBy(ctx, "id", id)
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getBy(ctx, "username", username)
}

// UserUpdateInput lists the account fields; nil means unchanged.
type UserUpdateInput struct {
	Username *string
	Email    *string
	Role     *models.Role
}

func (r *UserRepository) Update(ctx context.Context, id uuid.UUID, in *UserUpdateInput) (*models.User, error) {
	update := sql.Dialect(r.dialect).Update(usersTable)
	changed := false

	if in.Username != nil {
		update.Set("username", *in.Username)
		changed = true
	}
	if in.Email != nil {
		update.Set("email", *in.Email)
		changed = true
	}
	if in.Role != nil {
		update.Set("role", *in.Role)
		changed = true
	}

	if changed {
		query, args := update.Where(sql.EQ("id", id)).Query()
		res, err := r.db.ExecContext(ctx, query, args...)
		if err != nil {
			return nil, fmt.Errorf("update user %s: %w", id, translate(err))
		}
		if err := expectRows(res); err != nil {
			return nil, fmt.Errorf("update user %s: %w", id, err)
		}
	}

	return r.GetByID(ctx, id)
}

func (r *UserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query, args := sql.Dialect(r.dialect).
		Delete(usersTable).
		Where(sql.EQ("id", id)).
		Query()

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete user %s: %w", id, err)
	}
	if err := expectRows(res); err != nil {
		return fmt.Errorf("delete user %s: %w", id, err)
	}
	return nil
}
