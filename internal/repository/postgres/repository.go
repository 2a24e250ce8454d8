package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/devops-thiago/otel-example-go/internal/repository"
)

// uniqueViolation is the PostgreSQL error code for unique constraint hits.
const uniqueViolation = "23505"

// Repository implements UserRepository on a pgx connection pool.
// Query spans come from the tracer installed on the pool's conn config;
// this package calls no tracing API.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a PostgreSQL-backed user repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{
		pool: pool,
	}
}

const userColumns = "id, name, email, bio, created_at, updated_at"

func scanUser(row pgx.Row) (repository.User, error) {
	var u repository.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Bio, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// Create inserts a new user, letting the database fill id and timestamps.
func (r *Repository) Create(ctx context.Context, name, email string, bio *string) (repository.User, error) {
	user, err := scanUser(r.pool.QueryRow(ctx,
		`INSERT INTO users (name, email, bio)
		 VALUES ($1, $2, $3)
		 RETURNING `+userColumns,
		name, email, bio))
	if err != nil {
		if isUniqueViolation(err) {
			return repository.User{}, repository.ErrEmailTaken
		}
		return repository.User{}, err
	}
	return user, nil
}

// GetByID fetches one user by primary key.
func (r *Repository) GetByID(ctx context.Context, id int64) (repository.User, error) {
	user, err := scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return repository.User{}, repository.ErrNotFound
		}
		return repository.User{}, err
	}
	return user, nil
}

// GetByEmail fetches one user by email.
func (r *Repository) GetByEmail(ctx context.Context, email string) (repository.User, error) {
	user, err := scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return repository.User{}, repository.ErrNotFound
		}
		return repository.User{}, err
	}
	return user, nil
}

// List returns all users ordered by id.
func (r *Repository) List(ctx context.Context) ([]repository.User, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]repository.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

// Update applies the non-nil fields of upd and bumps updated_at.
// COALESCE keeps unset fields at their current value, so partial updates
// stay a single statement.
func (r *Repository) Update(ctx context.Context, id int64, upd repository.UserUpdate) (repository.User, error) {
	user, err := scanUser(r.pool.QueryRow(ctx,
		`UPDATE users
		 SET name = COALESCE($2, name),
		     email = COALESCE($3, email),
		     bio = COALESCE($4, bio),
		     updated_at = now()
		 WHERE id = $1
		 RETURNING `+userColumns,
		id, upd.Name, upd.Email, upd.Bio))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return repository.User{}, repository.ErrNotFound
		}
		if isUniqueViolation(err) {
			return repository.User{}, repository.ErrEmailTaken
		}
		return repository.User{}, err
	}
	return user, nil
}

// Delete removes a user by id.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
