package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const contactExistsByEmail = `
SELECT EXISTS(SELECT 1 FROM contacts WHERE email = $1)
`

// ContactExistsByEmail reports whether a contact with exactly this email exists.
func (q *Queries) ContactExistsByEmail(ctx context.Context, email string) (bool, error) {
	row := q.db.QueryRow(ctx, contactExistsByEmail, email)
	var exists bool
	err := row.Scan(&exists)
	return exists, err
}

const insertContact = `
INSERT INTO contacts (id, import_id, first_name, last_name, email, phone)
VALUES ($1, $2, $3, $4, $5, $6)
`

type InsertContactParams struct {
	ID        pgtype.UUID
	ImportID  pgtype.UUID
	FirstName string
	LastName  string
	Email     string
	Phone     pgtype.Text
}

// InsertContact inserts a single contact row.
func (q *Queries) InsertContact(ctx context.Context, arg InsertContactParams) error {
	_, err := q.db.Exec(ctx, insertContact,
		arg.ID,
		arg.ImportID,
		arg.FirstName,
		arg.LastName,
		arg.Email,
		arg.Phone,
	)
	return err
}
