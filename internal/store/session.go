package store

import (
	"context"
	"fmt"
	"scrapesync-backend/internal/db"
)

// Snapshot holds every stored record, keyed the way the read endpoint
// renders them.
type Snapshot struct {
	Users       []db.User       `json:"users"`
	Addresses   []db.Address    `json:"addresses"`
	CreditCards []db.CreditCard `json:"credit_cards"`
}

// Session is a read-only unit of work that can span several reads, it is
// used to scope one unit of work to one request.
type Session struct {
	qry *db.Queries
}

// Begin opens a Session, release must be called once the caller is done
// with it, it discards the underlying transaction.
func (s *Store) Begin(ctx context.Context) (sess *Session, release func() error, err error) {
	qry, discard, _, err := s.makeTx(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("begin session: %w", err)
	}
	return &Session{qry: qry}, discard, nil
}

func (sess *Session) Snapshot(ctx context.Context) (Snapshot, error) {
	users, err := sess.qry.ListUsers(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("list %s: %w", db.TABLE_USERS, err)
	}
	addresses, err := sess.qry.ListAddresses(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("list %s: %w", db.TABLE_ADDRESSES, err)
	}
	cards, err := sess.qry.ListCreditCards(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("list %s: %w", db.TABLE_CREDIT_CARDS, err)
	}
	return Snapshot{
		Users:       users,
		Addresses:   addresses,
		CreditCards: cards,
	}, nil
}

// Snapshot reads the three tables inside a single unit of work.
func (s *Store) Snapshot(ctx context.Context) (Snapshot, error) {
	sess, release, err := s.Begin(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	defer release()
	return sess.Snapshot(ctx)
}
