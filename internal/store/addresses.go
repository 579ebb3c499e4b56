package store

import (
	"context"
	"scrapesync-backend/internal/db"
)

func (s *Store) InsertAddress(ctx context.Context, address NewAddress) (db.Address, error) {
	err := address.validate()
	if err != nil {
		return db.Address{}, err
	}
	return withTx(ctx, s, func(qry *db.Queries) (db.Address, error) {
		created, err := qry.CreateAddress(ctx, db.CreateAddressParams{
			ID:            optionalID(&address.ID),
			StreetAddress: address.StreetAddress,
			City:          address.City,
			Country:       address.Country,
		})
		if err != nil {
			return db.Address{}, wrapWrite("insert into", db.TABLE_ADDRESSES, err)
		}
		return created, nil
	})
}

func (s *Store) UpdateAddress(ctx context.Context, id int64, patch AddressPatch) (db.Address, error) {
	return withTx(ctx, s, func(qry *db.Queries) (db.Address, error) {
		existing, err := qry.GetAddress(ctx, id)
		if err != nil {
			return db.Address{}, notFound(db.TABLE_ADDRESSES, id, err)
		}
		patch.apply(&existing)

		updated, err := qry.UpdateAddress(ctx, db.UpdateAddressParams{
			StreetAddress: existing.StreetAddress,
			City:          existing.City,
			Country:       existing.Country,
			ID:            id,
		})
		if err != nil {
			return db.Address{}, wrapWrite("update", db.TABLE_ADDRESSES, err)
		}
		return updated, nil
	})
}

func (s *Store) Addresses(ctx context.Context) ([]db.Address, error) {
	return withTx(ctx, s, func(qry *db.Queries) ([]db.Address, error) {
		return qry.ListAddresses(ctx)
	})
}
