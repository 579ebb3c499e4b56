package reconcile

import (
	"context"
	"errors"
	"scrapesync-backend/internal/components/chrono"
	"scrapesync-backend/internal/components/telemetry"
	"scrapesync-backend/internal/db"
	"scrapesync-backend/internal/fetcher"
	"scrapesync-backend/internal/store"
	"scrapesync-backend/lib/testutil"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	users       []fetcher.Row
	addresses   []fetcher.Row
	creditCards []fetcher.Row
	err         error

	calls []string
}

func (f *fakeSource) Users(ctx context.Context) ([]fetcher.Row, error) {
	f.calls = append(f.calls, "users")
	return f.users, f.err
}

func (f *fakeSource) Addresses(ctx context.Context) ([]fetcher.Row, error) {
	f.calls = append(f.calls, "addresses")
	return f.addresses, f.err
}

func (f *fakeSource) CreditCards(ctx context.Context) ([]fetcher.Row, error) {
	f.calls = append(f.calls, "credit_cards")
	return f.creditCards, f.err
}

var testClock = chrono.FixedImpl{At: time.Date(2024, time.June, 1, 8, 0, 0, 0, time.UTC)}

func setup(t *testing.T, source *fakeSource) (*Syncer, *store.Store, *telemetry.Recorder) {
	res, cleanup := testutil.SetupDatabase(t, testutil.DatabaseParams{})
	t.Cleanup(cleanup)
	tel := &telemetry.Recorder{}
	return NewSyncer(res.Store, source, testClock, tel), res.Store, tel
}

func TestSyncUsersIsIdempotent(t *testing.T) {
	ctx := context.Background()
	source := &fakeSource{users: []fetcher.Row{
		{"id": "1", "name": "Leanne Graham", "email": "Sincere@april.biz", "phone": "1-770-736-8031"},
		{"id": "2", "name": "Ervin Howell", "email": "Shanna@melissa.tv", "phone": "010-692-6593"},
	}}
	syncer, s, _ := setup(t, source)

	report, err := syncer.SyncUsers(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, report.Fetched)
	require.Equal(t, 2, report.Inserted)
	require.Equal(t, 0, report.Updated)
	require.NotEmpty(t, report.RunID)
	require.Equal(t, testClock.At, report.Started)

	first, err := s.Users(ctx)
	require.NoError(t, err)

	report, err = syncer.SyncUsers(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, report.Inserted)
	require.Equal(t, 2, report.Updated)

	second, err := s.Users(ctx)
	require.NoError(t, err)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatal(diff)
	}
}

func TestSyncAddressesUpserts(t *testing.T) {
	ctx := context.Background()
	source := &fakeSource{}
	syncer, s, _ := setup(t, source)

	existing, err := s.InsertAddress(ctx, store.NewAddress{
		StreetAddress: "old street",
		City:          "Old Town",
		Country:       "Nowhere",
	})
	require.NoError(t, err)
	require.Equal(t, int64(1), existing.ID)

	source.addresses = []fetcher.Row{
		{"id": "1", "street_address": "Shevchenka str. 25", "city": "Zhmerynka", "country": ""},
		{"id": "42", "street_address": "5 Main St", "city": "Springfield", "country": "USA"},
	}
	report, err := syncer.SyncAddresses(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, report.Updated)
	require.Equal(t, 1, report.Inserted)

	addresses, err := s.Addresses(ctx)
	require.NoError(t, err)
	require.Equal(t, []db.Address{
		// an empty remote value leaves the stored one untouched
		{ID: 1, StreetAddress: "Shevchenka str. 25", City: "Zhmerynka", Country: "Nowhere"},
		// new records keep their remote identifier
		{ID: 42, StreetAddress: "5 Main St", City: "Springfield", Country: "USA"},
	}, addresses)
}

func TestSyncIsIdempotentWithSparseIDs(t *testing.T) {
	ctx := context.Background()
	source := &fakeSource{
		users: []fetcher.Row{
			{"id": "42", "name": "Leanne Graham", "email": "Sincere@april.biz", "phone": "1-770-736-8031"},
			{"id": "7", "name": "Ervin Howell", "email": "Shanna@melissa.tv", "phone": "010-692-6593"},
		},
		addresses: []fetcher.Row{
			{"id": "42", "street_address": "5 Main St", "city": "Springfield", "country": "USA"},
			{"id": "7", "street_address": "1 Loop Rd", "city": "Cupertino", "country": "USA"},
		},
		creditCards: []fetcher.Row{
			{"id": "42", "card_number": "1111", "card_expiry_date": "01/30", "card_type": "visa"},
			{"id": "7", "card_number": "2222", "card_expiry_date": "02/30", "card_type": "visa"},
		},
	}
	syncer, s, _ := setup(t, source)

	tasks := []struct {
		name string
		run  func(context.Context) (Report, error)
		ids  func() []int64
	}{
		{
			name: "users",
			run:  syncer.SyncUsers,
			ids: func() []int64 {
				users, err := s.Users(ctx)
				require.NoError(t, err)
				var ids []int64
				for _, u := range users {
					ids = append(ids, u.ID)
				}
				return ids
			},
		},
		{
			name: "addresses",
			run:  syncer.SyncAddresses,
			ids: func() []int64 {
				addresses, err := s.Addresses(ctx)
				require.NoError(t, err)
				var ids []int64
				for _, a := range addresses {
					ids = append(ids, a.ID)
				}
				return ids
			},
		},
		{
			name: "credit cards",
			run:  syncer.SyncCreditCards,
			ids: func() []int64 {
				cards, err := s.CreditCards(ctx)
				require.NoError(t, err)
				var ids []int64
				for _, c := range cards {
					ids = append(ids, c.ID)
				}
				return ids
			},
		},
	}

	for _, task := range tasks {
		t.Run(task.name, func(t *testing.T) {
			report, err := task.run(ctx)
			require.NoError(t, err)
			require.Equal(t, 2, report.Inserted)

			for i := 0; i < 2; i++ {
				report, err = task.run(ctx)
				require.NoError(t, err)
				require.Equal(t, 0, report.Inserted)
				require.Equal(t, 2, report.Updated)
			}
			require.Equal(t, []int64{7, 42}, task.ids())
		})
	}
}

func TestResyncAfterDelete(t *testing.T) {
	ctx := context.Background()
	source := &fakeSource{users: []fetcher.Row{
		{"id": "3", "name": "Leanne Graham", "email": "Sincere@april.biz", "phone": "1-770-736-8031"},
		{"id": "9", "name": "Ervin Howell", "email": "Shanna@melissa.tv", "phone": "010-692-6593"},
	}}
	syncer, s, _ := setup(t, source)

	_, err := syncer.SyncUsers(ctx)
	require.NoError(t, err)
	_, err = s.Delete(ctx, store.KindUser, 3)
	require.NoError(t, err)

	report, err := syncer.SyncUsers(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, report.Inserted)
	require.Equal(t, 1, report.Updated)

	report, err = syncer.SyncUsers(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, report.Inserted)
	require.Equal(t, 2, report.Updated)

	users, err := s.Users(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	require.Equal(t, int64(3), users[0].ID)
	require.Equal(t, "Leanne Graham", users[0].Name)
}

func TestRepeatedIDInOneBatch(t *testing.T) {
	ctx := context.Background()
	source := &fakeSource{addresses: []fetcher.Row{
		{"id": "5", "street_address": "first", "city": "a", "country": "x"},
		{"id": "5", "street_address": "second", "city": "a", "country": "x"},
	}}
	syncer, s, _ := setup(t, source)

	report, err := syncer.SyncAddresses(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, report.Inserted)
	require.Equal(t, 1, report.Updated)

	addresses, err := s.Addresses(ctx)
	require.NoError(t, err)
	require.Equal(t, []db.Address{{ID: 5, StreetAddress: "second", City: "a", Country: "x"}}, addresses)
}

func TestSyncCreditCardsDecodesRows(t *testing.T) {
	ctx := context.Background()
	source := &fakeSource{creditCards: []fetcher.Row{
		{"id": "1", "credit_card_number": "1228-1221-1221-1431", "credit_card_expiry_date": "2028-03-02", "credit_card_type": "visa"},
		{"id": "2", "card_number": "6771 8944 8571 4012", "card_expiry_date": "2026-11-30", "card_type": "mastercard"},
	}}
	syncer, s, _ := setup(t, source)

	_, err := syncer.SyncCreditCards(ctx)
	require.NoError(t, err)

	cards, err := s.CreditCards(ctx)
	require.NoError(t, err)
	require.Len(t, cards, 2)
	require.Equal(t, int64(1228122112211431), cards[0].CardNumber)
	require.Equal(t, "visa", cards[0].CardType)
	require.Equal(t, int64(6771894485714012), cards[1].CardNumber)
	require.Equal(t, "2026-11-30", cards[1].CardExpiryDate)
}

func TestLinkUsersToFirstUnclaimedAddress(t *testing.T) {
	ctx := context.Background()
	source := &fakeSource{}
	syncer, s, _ := setup(t, source)

	for _, city := range []string{"a", "b", "c"} {
		_, err := s.InsertAddress(ctx, store.NewAddress{StreetAddress: "street", City: city, Country: "x"})
		require.NoError(t, err)
	}
	_, err := s.InsertUser(ctx, store.NewUser{Name: "holder", AddressID: store.Ptr(int64(2))})
	require.NoError(t, err)
	for _, name := range []string{"first", "second", "third"} {
		_, err := s.InsertUser(ctx, store.NewUser{Name: name})
		require.NoError(t, err)
	}

	report, err := syncer.SyncUsers(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, report.Linked)

	users, err := s.Users(ctx)
	require.NoError(t, err)
	links := map[string]db.NullID{}
	for _, user := range users {
		links[user.Name] = user.AddressID
	}
	require.Equal(t, map[string]db.NullID{
		"holder": db.SomeID(2),
		"first":  db.SomeID(1),
		"second": db.SomeID(3),
		// no address is left
		"third": {},
	}, links)

	// a second pass has nothing left to assign
	report, err = syncer.SyncUsers(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, report.Linked)
}

func TestLinkCreditCardsToFirstUnclaimedUser(t *testing.T) {
	ctx := context.Background()
	source := &fakeSource{creditCards: []fetcher.Row{
		{"id": "1", "card_number": "1111", "card_expiry_date": "01/30", "card_type": "visa"},
		{"id": "2", "card_number": "2222", "card_expiry_date": "02/30", "card_type": "visa"},
	}}
	syncer, s, _ := setup(t, source)

	user, err := s.InsertUser(ctx, store.NewUser{Name: "only user"})
	require.NoError(t, err)

	report, err := syncer.SyncCreditCards(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, report.Inserted)
	require.Equal(t, 1, report.Linked)

	cards, err := s.CreditCards(ctx)
	require.NoError(t, err)
	require.Equal(t, db.SomeID(user.ID), cards[0].UserID)
	require.False(t, cards[1].UserID.Valid)
}

func TestCollectAndContinue(t *testing.T) {
	ctx := context.Background()
	source := &fakeSource{users: []fetcher.Row{
		{"name": "no id"},
		{"id": "1", "name": "a", "email": "same@example.com", "phone": "1"},
		{"id": "2", "name": "b", "email": "same@example.com", "phone": "2"},
		{"id": "3", "name": "c", "email": "c@example.com", "phone": "3"},
	}}
	syncer, s, tel := setup(t, source)

	report, err := syncer.SyncUsers(ctx)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrMalformedRow)
	require.ErrorIs(t, err, store.ErrUniqueViolation)
	require.ErrorContains(t, err, "2 record(s) failed")
	require.Equal(t, 2, report.Failed)
	require.Equal(t, 2, report.Inserted)
	require.Len(t, tel.Reports(telemetry.REPORT_BROKEN), 2)

	failed, ok := tel.Count("sync.done.users.failed")
	require.True(t, ok)
	require.Equal(t, int64(2), failed)

	users, err := s.Users(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	require.Equal(t, "a", users[0].Name)
	require.Equal(t, "c", users[1].Name)
}

func TestInvalidAddressIsCollected(t *testing.T) {
	ctx := context.Background()
	source := &fakeSource{addresses: []fetcher.Row{
		{"id": "1", "street_address": "street", "city": "", "country": "x"},
		{"id": "2", "street_address": "street", "city": "city", "country": "x"},
	}}
	syncer, s, _ := setup(t, source)

	report, err := syncer.SyncAddresses(ctx)
	require.ErrorIs(t, err, store.ErrInvalidRecord)
	require.Equal(t, 1, report.Inserted)

	addresses, err := s.Addresses(ctx)
	require.NoError(t, err)
	require.Len(t, addresses, 1)
}

func TestFetchFailureAborts(t *testing.T) {
	ctx := context.Background()
	source := &fakeSource{err: errors.New("connection refused")}
	syncer, s, tel := setup(t, source)

	for _, task := range []func(context.Context) (Report, error){
		syncer.SyncUsers,
		syncer.SyncAddresses,
		syncer.SyncCreditCards,
	} {
		_, err := task(ctx)
		require.ErrorContains(t, err, "connection refused")
	}
	require.Len(t, tel.Reports(telemetry.REPORT_BROKEN), 3)

	snapshot, err := s.Snapshot(ctx)
	require.NoError(t, err)
	require.Empty(t, snapshot.Users)
	require.Empty(t, snapshot.Addresses)
	require.Empty(t, snapshot.CreditCards)
}

func TestRowDecoding(t *testing.T) {
	_, err := remoteID(fetcher.Row{"id": "abc"})
	require.ErrorIs(t, err, ErrMalformedRow)
	_, err = remoteID(fetcher.Row{"id": "0"})
	require.ErrorIs(t, err, ErrMalformedRow)

	number, err := cardNumber(" 4000-0000 0000-0002 ")
	require.NoError(t, err)
	require.Equal(t, int64(4000000000000002), number)

	_, err = cardNumber("n/a")
	require.ErrorIs(t, err, ErrMalformedRow)

	_, _, err = decodeCreditCard(fetcher.Row{"id": "1"})
	require.ErrorIs(t, err, ErrMalformedRow)
}
