package db

import (
	"context"
)

const addressColumns = `id, street_address, city, country`

func scanAddress(row scanner) (Address, error) {
	var i Address
	err := row.Scan(
		&i.ID,
		&i.StreetAddress,
		&i.City,
		&i.Country,
	)
	return i, err
}

const createAddress = `INSERT INTO addresses (street_address, city, country)
VALUES ($1, $2, $3)
RETURNING ` + addressColumns

const createAddressWithID = `INSERT INTO addresses (id, street_address, city, country)
VALUES ($1, $2, $3, $4)
RETURNING ` + addressColumns

type CreateAddressParams struct {
	// ID is assigned by the database when it is not valid.
	ID            NullID
	StreetAddress string
	City          string
	Country       string
}

func (q *Queries) CreateAddress(ctx context.Context, arg CreateAddressParams) (Address, error) {
	if arg.ID.Valid {
		row := q.db.QueryRowContext(ctx, createAddressWithID,
			arg.ID.Int64,
			arg.StreetAddress,
			arg.City,
			arg.Country,
		)
		return scanAddress(row)
	}
	row := q.db.QueryRowContext(ctx, createAddress,
		arg.StreetAddress,
		arg.City,
		arg.Country,
	)
	return scanAddress(row)
}

const getAddress = `SELECT ` + addressColumns + ` FROM addresses WHERE id = $1`

func (q *Queries) GetAddress(ctx context.Context, id int64) (Address, error) {
	row := q.db.QueryRowContext(ctx, getAddress, id)
	return scanAddress(row)
}

const listAddresses = `SELECT ` + addressColumns + ` FROM addresses ORDER BY id`

func (q *Queries) ListAddresses(ctx context.Context) ([]Address, error) {
	rows, err := q.db.QueryContext(ctx, listAddresses)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []Address{}
	for rows.Next() {
		i, err := scanAddress(rows)
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

const updateAddress = `UPDATE addresses
SET street_address = $1, city = $2, country = $3
WHERE id = $4
RETURNING ` + addressColumns

type UpdateAddressParams struct {
	StreetAddress string
	City          string
	Country       string
	ID            int64
}

func (q *Queries) UpdateAddress(ctx context.Context, arg UpdateAddressParams) (Address, error) {
	row := q.db.QueryRowContext(ctx, updateAddress,
		arg.StreetAddress,
		arg.City,
		arg.Country,
		arg.ID,
	)
	return scanAddress(row)
}

const deleteAddress = `DELETE FROM addresses WHERE id = $1`

func (q *Queries) DeleteAddress(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteAddress, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
