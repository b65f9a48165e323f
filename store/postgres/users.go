package postgres

import (
	"context"
	"database/sql"
	"errors"

	contactbook "github.com/getcontactbook/contactbook"
)

// UserRepository implements [contactbook.UserStore].
type UserRepository struct {
	db DBTX
}

// NewUserRepository returns a repository bound to db.
func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (contactbook.User, error) {
	const query = `
		SELECT id, first_name, last_name, email, password_hash, role, reset_token
		FROM users
		WHERE id = $1`

	return r.scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (contactbook.User, error) {
	const query = `
		SELECT id, first_name, last_name, email, password_hash, role, reset_token
		FROM users
		WHERE email = $1`

	return r.scanUser(r.db.QueryRowContext(ctx, query, email))
}

func (r *UserRepository) Create(ctx context.Context, user contactbook.User) error {
	const query = `
		INSERT INTO users (id, first_name, last_name, email, password_hash, role, reset_token)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.FirstName, user.LastName, user.Email,
		user.PasswordHash, string(user.Role), user.ResetToken,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return contactbook.ErrDuplicateIdentity
		}
		return storageErr(err)
	}
	return nil
}

func (r *UserRepository) Update(ctx context.Context, user contactbook.User) error {
	const query = `
		UPDATE users
		SET first_name = $2, last_name = $3, email = $4,
		    password_hash = $5, role = $6, reset_token = $7
		WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query,
		user.ID, user.FirstName, user.LastName, user.Email,
		user.PasswordHash, string(user.Role), user.ResetToken,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return contactbook.ErrDuplicateIdentity
		}
		return storageErr(err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return storageErr(err)
	}
	if affected == 0 {
		return contactbook.ErrNotFound
	}
	return nil
}

func (r *UserRepository) scanUser(row *sql.Row) (contactbook.User, error) {
	var (
		user contactbook.User
		role string
	)
	err := row.Scan(
		&user.ID, &user.FirstName, &user.LastName, &user.Email,
		&user.PasswordHash, &role, &user.ResetToken,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return contactbook.User{}, contactbook.ErrNotFound
		}
		return contactbook.User{}, storageErr(err)
	}
	user.Role = contactbook.ParseRole(role)
	return user, nil
}
