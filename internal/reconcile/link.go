package reconcile

import (
	"context"
	"fmt"
	"scrapesync-backend/internal/db"
	"scrapesync-backend/internal/store"
)

// firstUnclaimed returns the first candidate, in store order, that is not
// in claimed.
func firstUnclaimed(candidates []int64, claimed map[int64]bool) (int64, bool) {
	for _, id := range candidates {
		if !claimed[id] {
			return id, true
		}
	}
	return 0, false
}

// linkUsers gives every user without an address the first address that no
// other user holds. Links made earlier in the pass count as held.
func (s *Syncer) linkUsers(ctx context.Context, r *run) error {
	users, err := s.store.Users(ctx)
	if err != nil {
		return err
	}
	addresses, err := s.store.Addresses(ctx)
	if err != nil {
		return err
	}
	candidates := make([]int64, len(addresses))
	for i, address := range addresses {
		candidates[i] = address.ID
	}

	claimed := claimedIDs(users, func(u db.User) db.NullID { return u.AddressID })

	for _, user := range users {
		if user.AddressID.Valid {
			continue
		}
		addressID, ok := firstUnclaimed(candidates, claimed)
		if !ok {
			break
		}
		_, err := s.store.UpdateUser(ctx, user.ID, store.UserPatch{AddressID: &addressID})
		if err != nil {
			r.fail(report_sync_link, fmt.Errorf("link user %d to address %d: %w", user.ID, addressID, err))
			continue
		}
		claimed[addressID] = true
		r.report.Linked++
	}
	return nil
}

// linkCreditCards gives every card without a user the first user that no
// other card belongs to. Links made earlier in the pass count as held.
func (s *Syncer) linkCreditCards(ctx context.Context, r *run) error {
	cards, err := s.store.CreditCards(ctx)
	if err != nil {
		return err
	}
	users, err := s.store.Users(ctx)
	if err != nil {
		return err
	}
	candidates := make([]int64, len(users))
	for i, user := range users {
		candidates[i] = user.ID
	}

	claimed := claimedIDs(cards, func(c db.CreditCard) db.NullID { return c.UserID })

	for _, card := range cards {
		if card.UserID.Valid {
			continue
		}
		userID, ok := firstUnclaimed(candidates, claimed)
		if !ok {
			break
		}
		_, err := s.store.UpdateCreditCard(ctx, card.ID, store.CreditCardPatch{UserID: &userID})
		if err != nil {
			r.fail(report_sync_link, fmt.Errorf("link credit card %d to user %d: %w", card.ID, userID, err))
			continue
		}
		claimed[userID] = true
		r.report.Linked++
	}
	return nil
}

func claimedIDs[T any](records []T, ref func(T) db.NullID) map[int64]bool {
	claimed := map[int64]bool{}
	for _, record := range records {
		id := ref(record)
		if id.Valid {
			claimed[id.Int64] = true
		}
	}
	return claimed
}
