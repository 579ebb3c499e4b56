package db

import (
	"context"
)

const userColumns = `id, COALESCE(name, ''), COALESCE(email, ''), COALESCE(phone, ''), address_id`

func scanUser(row scanner) (User, error) {
	var i User
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Email,
		&i.Phone,
		&i.AddressID,
	)
	return i, err
}

const createUser = `INSERT INTO users (name, email, phone, address_id)
VALUES (NULLIF($1, ''), NULLIF($2, ''), NULLIF($3, ''), $4)
RETURNING ` + userColumns

const createUserWithID = `INSERT INTO users (id, name, email, phone, address_id)
VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), NULLIF($4, ''), $5)
RETURNING ` + userColumns

type CreateUserParams struct {
	// ID is assigned by the database when it is not valid.
	ID        NullID
	Name      string
	Email     string
	Phone     string
	AddressID NullID
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	if arg.ID.Valid {
		row := q.db.QueryRowContext(ctx, createUserWithID,
			arg.ID.Int64,
			arg.Name,
			arg.Email,
			arg.Phone,
			arg.AddressID,
		)
		return scanUser(row)
	}
	row := q.db.QueryRowContext(ctx, createUser,
		arg.Name,
		arg.Email,
		arg.Phone,
		arg.AddressID,
	)
	return scanUser(row)
}

const getUser = `SELECT ` + userColumns + ` FROM users WHERE id = $1`

func (q *Queries) GetUser(ctx context.Context, id int64) (User, error) {
	row := q.db.QueryRowContext(ctx, getUser, id)
	return scanUser(row)
}

const listUsers = `SELECT ` + userColumns + ` FROM users ORDER BY id`

func (q *Queries) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := q.db.QueryContext(ctx, listUsers)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []User{}
	for rows.Next() {
		i, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const updateUser = `UPDATE users
SET name = NULLIF($1, ''), email = NULLIF($2, ''), phone = NULLIF($3, ''), address_id = $4
WHERE id = $5
RETURNING ` + userColumns

type UpdateUserParams struct {
	Name      string
	Email     string
	Phone     string
	AddressID NullID
	ID        int64
}

func (q *Queries) UpdateUser(ctx context.Context, arg UpdateUserParams) (User, error) {
	row := q.db.QueryRowContext(ctx, updateUser,
		arg.Name,
		arg.Email,
		arg.Phone,
		arg.AddressID,
		arg.ID,
	)
	return scanUser(row)
}

const deleteUser = `DELETE FROM users WHERE id = $1`

func (q *Queries) DeleteUser(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteUser, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
