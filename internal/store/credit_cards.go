package store

import (
	"context"
	"scrapesync-backend/internal/db"
)

func (s *Store) InsertCreditCard(ctx context.Context, card NewCreditCard) (db.CreditCard, error) {
	err := card.validate()
	if err != nil {
		return db.CreditCard{}, err
	}
	return withTx(ctx, s, func(qry *db.Queries) (db.CreditCard, error) {
		created, err := qry.CreateCreditCard(ctx, db.CreateCreditCardParams{
			ID:             optionalID(&card.ID),
			CardNumber:     card.CardNumber,
			CardExpiryDate: card.CardExpiryDate,
			CardType:       card.CardType,
			UserID:         optionalID(card.UserID),
			AddressID:      optionalID(card.AddressID),
		})
		if err != nil {
			return db.CreditCard{}, wrapWrite("insert into", db.TABLE_CREDIT_CARDS, err)
		}
		return created, nil
	})
}

func (s *Store) UpdateCreditCard(ctx context.Context, id int64, patch CreditCardPatch) (db.CreditCard, error) {
	return withTx(ctx, s, func(qry *db.Queries) (db.CreditCard, error) {
		existing, err := qry.GetCreditCard(ctx, id)
		if err != nil {
			return db.CreditCard{}, notFound(db.TABLE_CREDIT_CARDS, id, err)
		}
		patch.apply(&existing)

		updated, err := qry.UpdateCreditCard(ctx, db.UpdateCreditCardParams{
			CardNumber:     existing.CardNumber,
			CardExpiryDate: existing.CardExpiryDate,
			CardType:       existing.CardType,
			UserID:         existing.UserID,
			AddressID:      existing.AddressID,
			ID:             id,
		})
		if err != nil {
			return db.CreditCard{}, wrapWrite("update", db.TABLE_CREDIT_CARDS, err)
		}
		return updated, nil
	})
}

func (s *Store) CreditCards(ctx context.Context) ([]db.CreditCard, error) {
	return withTx(ctx, s, func(qry *db.Queries) ([]db.CreditCard, error) {
		return qry.ListCreditCards(ctx)
	})
}
