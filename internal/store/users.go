package store

import (
	"context"
	"scrapesync-backend/internal/db"
)

func (s *Store) InsertUser(ctx context.Context, user NewUser) (db.User, error) {
	return withTx(ctx, s, func(qry *db.Queries) (db.User, error) {
		created, err := qry.CreateUser(ctx, db.CreateUserParams{
			ID:        optionalID(&user.ID),
			Name:      user.Name,
			Email:     user.Email,
			Phone:     user.Phone,
			AddressID: optionalID(user.AddressID),
		})
		if err != nil {
			return db.User{}, wrapWrite("insert into", db.TABLE_USERS, err)
		}
		return created, nil
	})
}

func (s *Store) UpdateUser(ctx context.Context, id int64, patch UserPatch) (db.User, error) {
	return withTx(ctx, s, func(qry *db.Queries) (db.User, error) {
		existing, err := qry.GetUser(ctx, id)
		if err != nil {
			return db.User{}, notFound(db.TABLE_USERS, id, err)
		}
		patch.apply(&existing)

		updated, err := qry.UpdateUser(ctx, db.UpdateUserParams{
			Name:      existing.Name,
			Email:     existing.Email,
			Phone:     existing.Phone,
			AddressID: existing.AddressID,
			ID:        id,
		})
		if err != nil {
			return db.User{}, wrapWrite("update", db.TABLE_USERS, err)
		}
		return updated, nil
	})
}

func (s *Store) Users(ctx context.Context) ([]db.User, error) {
	return withTx(ctx, s, func(qry *db.Queries) ([]db.User, error) {
		return qry.ListUsers(ctx)
	})
}
