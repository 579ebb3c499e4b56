package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"scrapesync-backend/internal/assert"
	"scrapesync-backend/internal/db"
	"strings"
)

// Kind is one of the three record kinds kept by the store.
type Kind int

const (
	KindUser Kind = iota
	KindAddress
	KindCreditCard
)

var Kinds = []Kind{KindUser, KindAddress, KindCreditCard}

func (k Kind) Table() string {
	switch k {
	case KindUser:
		return db.TABLE_USERS
	case KindAddress:
		return db.TABLE_ADDRESSES
	case KindCreditCard:
		return db.TABLE_CREDIT_CARDS
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

func (k Kind) String() string {
	return k.Table()
}

// ParseKind accepts a table name or its singular form.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.ReplaceAll(s, "-", "_")) {
	case "users", "user":
		return KindUser, nil
	case "addresses", "address":
		return KindAddress, nil
	case "credit_cards", "credit_card", "cards", "card":
		return KindCreditCard, nil
	}
	return 0, fmt.Errorf("unknown record kind %q", s)
}

// Store wraps every operation on the record tables in its own unit of work:
// a transaction is opened, the operation runs, then the transaction is
// committed on success or discarded on failure. No operation spans
// multiple calls.
type Store struct {
	makeTx db.MakeTx
}

func New(database *sql.DB) *Store {
	assert.NotNil(database)
	return &Store{makeTx: db.NewMakeTx(database)}
}

func NewFromMakeTx(makeTx db.MakeTx) *Store {
	assert.NotNil(makeTx)
	return &Store{makeTx: makeTx}
}

func withTx[T any](ctx context.Context, s *Store, fn func(qry *db.Queries) (T, error)) (T, error) {
	var out T

	qry, discard, commit, err := s.makeTx(ctx)
	if err != nil {
		return out, fmt.Errorf("begin unit of work: %w", err)
	}
	defer discard()

	out, err = fn(qry)
	if err != nil {
		return out, err
	}
	err = commit()
	if err != nil {
		return out, fmt.Errorf("commit unit of work: %w", err)
	}
	return out, nil
}

func notFound(table string, id int64, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return NotFoundError{Table: table, ID: id}
	}
	return fmt.Errorf("get %s %d: %w", table, id, err)
}

// Delete removes a single record and returns a human readable
// confirmation, it fails with ErrNotFound when the id does not exist.
func (s *Store) Delete(ctx context.Context, kind Kind, id int64) (string, error) {
	return withTx(ctx, s, func(qry *db.Queries) (string, error) {
		var affected int64
		var err error
		switch kind {
		case KindUser:
			affected, err = qry.DeleteUser(ctx, id)
		case KindAddress:
			affected, err = qry.DeleteAddress(ctx, id)
		case KindCreditCard:
			affected, err = qry.DeleteCreditCard(ctx, id)
		default:
			return "", fmt.Errorf("delete: unknown record kind %d", kind)
		}
		if err != nil {
			return "", fmt.Errorf("delete %s %d: %w", kind.Table(), id, err)
		}
		if affected == 0 {
			return "", NotFoundError{Table: kind.Table(), ID: id}
		}
		return fmt.Sprintf("Data with id %d successfully deleted from %s", id, kind.Table()), nil
	})
}
