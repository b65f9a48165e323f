package postgres

import (
	"context"
	"database/sql"
	"errors"

	contactbook "github.com/getcontactbook/contactbook"
)

// ContactRepository implements [contactbook.ContactStore].
type ContactRepository struct {
	db DBTX
}

// NewContactRepository returns a repository bound to db.
func NewContactRepository(db DBTX) *ContactRepository {
	return &ContactRepository{db: db}
}

func (r *ContactRepository) FindByID(ctx context.Context, id string) (contactbook.Contact, error) {
	const query = `
		SELECT id, owner_id, first_name, last_name, address, email, phone_number
		FROM contacts
		WHERE id = $1`

	var c contactbook.Contact
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&c.ID, &c.OwnerID, &c.FirstName, &c.LastName,
		&c.Address, &c.Email, &c.PhoneNumber,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return contactbook.Contact{}, contactbook.ErrNotFound
		}
		return contactbook.Contact{}, storageErr(err)
	}
	return c, nil
}

func (r *ContactRepository) FindByOwner(ctx context.Context, ownerID string) ([]contactbook.Contact, error) {
	const query = `
		SELECT id, owner_id, first_name, last_name, address, email, phone_number
		FROM contacts
		WHERE owner_id = $1
		ORDER BY last_name, first_name, id`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, storageErr(err)
	}
	defer rows.Close()

	return scanContacts(rows)
}

func (r *ContactRepository) FindAll(ctx context.Context) ([]contactbook.Contact, error) {
	const query = `
		SELECT id, owner_id, first_name, last_name, address, email, phone_number
		FROM contacts
		ORDER BY owner_id, last_name, first_name, id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, storageErr(err)
	}
	defer rows.Close()

	return scanContacts(rows)
}

func (r *ContactRepository) Create(ctx context.Context, contact contactbook.Contact) error {
	const query = `
		INSERT INTO contacts (id, owner_id, first_name, last_name, address, email, phone_number)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.ExecContext(ctx, query,
		contact.ID, contact.OwnerID, contact.FirstName, contact.LastName,
		contact.Address, contact.Email, contact.PhoneNumber,
	)
	if err != nil {
		return storageErr(err)
	}
	return nil
}

func (r *ContactRepository) Update(ctx context.Context, contact contactbook.Contact) error {
	// owner_id is deliberately absent from the SET list; ownership is
	// immutable after creation.
	const query = `
		UPDATE contacts
		SET first_name = $2, last_name = $3, address = $4, email = $5, phone_number = $6
		WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query,
		contact.ID, contact.FirstName, contact.LastName,
		contact.Address, contact.Email, contact.PhoneNumber,
	)
	if err != nil {
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

func (r *ContactRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM contacts WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
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

func scanContacts(rows *sql.Rows) ([]contactbook.Contact, error) {
	var out []contactbook.Contact
	for rows.Next() {
		var c contactbook.Contact
		err := rows.Scan(
			&c.ID, &c.OwnerID, &c.FirstName, &c.LastName,
			&c.Address, &c.Email, &c.PhoneNumber,
		)
		if err != nil {
			return nil, storageErr(err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(err)
	}
	return out, nil
}
