package db

import (
	"context"
)

const creditCardColumns = `id, card_number, card_expiry_date, card_type, user_id, address_id`

func scanCreditCard(row scanner) (CreditCard, error) {
	var i CreditCard
	err := row.Scan(
		&i.ID,
		&i.CardNumber,
		&i.CardExpiryDate,
		&i.CardType,
		&i.UserID,
		&i.AddressID,
	)
	return i, err
}

const createCreditCard = `INSERT INTO credit_cards (card_number, card_expiry_date, card_type, user_id, address_id)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + creditCardColumns

const createCreditCardWithID = `INSERT INTO credit_cards (id, card_number, card_expiry_date, card_type, user_id, address_id)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + creditCardColumns

type CreateCreditCardParams struct {
	// ID is assigned by the database when it is not valid.
	ID             NullID
	CardNumber     int64
	CardExpiryDate string
	CardType       string
	UserID         NullID
	AddressID      NullID
}

func (q *Queries) CreateCreditCard(ctx context.Context, arg CreateCreditCardParams) (CreditCard, error) {
	if arg.ID.Valid {
		row := q.db.QueryRowContext(ctx, createCreditCardWithID,
			arg.ID.Int64,
			arg.CardNumber,
			arg.CardExpiryDate,
			arg.CardType,
			arg.UserID,
			arg.AddressID,
		)
		return scanCreditCard(row)
	}
	row := q.db.QueryRowContext(ctx, createCreditCard,
		arg.CardNumber,
		arg.CardExpiryDate,
		arg.CardType,
		arg.UserID,
		arg.AddressID,
	)
	return scanCreditCard(row)
}

const getCreditCard = `SELECT ` + creditCardColumns + ` FROM credit_cards WHERE id = $1`

func (q *Queries) GetCreditCard(ctx context.Context, id int64) (CreditCard, error) {
	row := q.db.QueryRowContext(ctx, getCreditCard, id)
	return scanCreditCard(row)
}

const listCreditCards = `SELECT ` + creditCardColumns + ` FROM credit_cards ORDER BY id`

func (q *Queries) ListCreditCards(ctx context.Context) ([]CreditCard, error) {
	rows, err := q.db.QueryContext(ctx, listCreditCards)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []CreditCard{}
	for rows.Next() {
		i, err := scanCreditCard(rows)
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

const updateCreditCard = `UPDATE credit_cards
SET card_number = $1, card_expiry_date = $2, card_type = $3, user_id = $4, address_id = $5
WHERE id = $6
RETURNING ` + creditCardColumns

type UpdateCreditCardParams struct {
	CardNumber     int64
	CardExpiryDate string
	CardType       string
	UserID         NullID
	AddressID      NullID
	ID             int64
}

func (q *Queries) UpdateCreditCard(ctx context.Context, arg UpdateCreditCardParams) (CreditCard, error) {
	row := q.db.QueryRowContext(ctx, updateCreditCard,
		arg.CardNumber,
		arg.CardExpiryDate,
		arg.CardType,
		arg.UserID,
		arg.AddressID,
		arg.ID,
	)
	return scanCreditCard(row)
}

const deleteCreditCard = `DELETE FROM credit_cards WHERE id = $1`

func (q *Queries) DeleteCreditCard(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteCreditCard, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
