package reconcile

import (
	"context"
	"errors"
	"fmt"
	"scrapesync-backend/internal/assert"
	"scrapesync-backend/internal/components/chrono"
	"scrapesync-backend/internal/components/telemetry"
	"scrapesync-backend/internal/fetcher"
	"scrapesync-backend/internal/store"
	"time"

	"github.com/google/uuid"
)

const (
	report_sync_fetch  = "sync.fetch"
	report_sync_load   = "sync.load"
	report_sync_record = "sync.record"
	report_sync_link   = "sync.link"
	report_sync_done   = "sync.done"
)

// Source is where remote records come from, fetcher.Fetcher implements it.
type Source interface {
	Users(ctx context.Context) ([]fetcher.Row, error)
	Addresses(ctx context.Context) ([]fetcher.Row, error)
	CreditCards(ctx context.Context) ([]fetcher.Row, error)
}

// Report describes a single run of a task.
type Report struct {
	RunID    string
	Kind     store.Kind
	Started  time.Time
	Finished time.Time

	Fetched  int
	Updated  int
	Inserted int
	Linked   int
	Failed   int
}

func (r Report) String() string {
	return fmt.Sprintf(
		"%s run %s: fetched=%d updated=%d inserted=%d linked=%d failed=%d (%s)",
		r.Kind, r.RunID, r.Fetched, r.Updated, r.Inserted, r.Linked, r.Failed,
		r.Finished.Sub(r.Started),
	)
}

// Syncer reconciles the stored records of each kind against their remote
// source: records are matched by identifier, matched ones are updated and
// the rest are inserted under the remote identifier. Failures of a single record are collected and
// returned after the batch, only fetch and load failures abort a run.
type Syncer struct {
	store  *store.Store
	source Source
	tel    telemetry.API
	clock  chrono.API
}

func NewSyncer(s *store.Store, source Source, clock chrono.API, tel telemetry.API) *Syncer {
	assert.NotNil(s)
	assert.NotNil(source)
	assert.NotNil(clock)
	assert.NotNil(tel)
	return &Syncer{
		store:  s,
		source: source,
		clock:  clock,
		tel:    telemetry.NewScopedAPI("reconcile", tel),
	}
}

type run struct {
	report Report
	errs   []error
	tel    telemetry.API
}

func (s *Syncer) begin(kind store.Kind) *run {
	return &run{
		report: Report{
			RunID:   uuid.NewString(),
			Kind:    kind,
			Started: s.clock.Now().UTC(),
		},
		tel: s.tel,
	}
}

// fail records the failure of a single record and lets the run continue.
func (r *run) fail(id string, err error, params ...any) {
	r.report.Failed++
	r.errs = append(r.errs, err)
	r.tel.ReportBroken(id, append([]any{err, r.report.Kind.String()}, params...)...)
}

func (s *Syncer) finish(r *run) (Report, error) {
	r.report.Finished = s.clock.Now().UTC()

	kind := r.report.Kind.String()
	s.tel.ReportCount(fmt.Sprintf("%s.%s.fetched", report_sync_done, kind), int64(r.report.Fetched))
	s.tel.ReportCount(fmt.Sprintf("%s.%s.updated", report_sync_done, kind), int64(r.report.Updated))
	s.tel.ReportCount(fmt.Sprintf("%s.%s.inserted", report_sync_done, kind), int64(r.report.Inserted))
	s.tel.ReportCount(fmt.Sprintf("%s.%s.linked", report_sync_done, kind), int64(r.report.Linked))
	s.tel.ReportCount(fmt.Sprintf("%s.%s.failed", report_sync_done, kind), int64(r.report.Failed))
	s.tel.ReportDebug(report_sync_done, r.report.String())

	if len(r.errs) > 0 {
		return r.report, fmt.Errorf("reconcile %s: %d record(s) failed: %w", kind, len(r.errs), errors.Join(r.errs...))
	}
	return r.report, nil
}

func (s *Syncer) abort(r *run, id, op string, err error) (Report, error) {
	r.report.Finished = s.clock.Now().UTC()
	s.tel.ReportBroken(id, err, r.report.Kind.String())
	return r.report, fmt.Errorf("reconcile %s: %s: %w", r.report.Kind, op, err)
}

// SyncUsers upserts the remote users, then links every user without an
// address to the first address no other user holds.
func (s *Syncer) SyncUsers(ctx context.Context) (Report, error) {
	r := s.begin(store.KindUser)

	rows, err := s.source.Users(ctx)
	if err != nil {
		return s.abort(r, report_sync_fetch, "fetch", err)
	}
	r.report.Fetched = len(rows)

	existing, err := s.store.Users(ctx)
	if err != nil {
		return s.abort(r, report_sync_load, "load", err)
	}
	known := make(map[int64]bool, len(existing))
	for _, user := range existing {
		known[user.ID] = true
	}

	for i, row := range rows {
		id, user, err := decodeUser(row)
		if err != nil {
			r.fail(report_sync_record, fmt.Errorf("row %d: %w", i, err))
			continue
		}
		if known[id] {
			_, err = s.store.UpdateUser(ctx, id, store.UserPatch{
				Name:  &user.Name,
				Email: &user.Email,
				Phone: &user.Phone,
			})
			if err != nil {
				r.fail(report_sync_record, fmt.Errorf("update user %d: %w", id, err))
				continue
			}
			r.report.Updated++
			continue
		}
		user.ID = id
		_, err = s.store.InsertUser(ctx, user)
		if err != nil {
			r.fail(report_sync_record, fmt.Errorf("insert user %d: %w", id, err))
			continue
		}
		known[id] = true
		r.report.Inserted++
	}

	err = s.linkUsers(ctx, r)
	if err != nil {
		return s.abort(r, report_sync_load, "load before linking", err)
	}
	return s.finish(r)
}

// SyncAddresses upserts the remote addresses, addresses are never linked
// from this side.
func (s *Syncer) SyncAddresses(ctx context.Context) (Report, error) {
	r := s.begin(store.KindAddress)

	rows, err := s.source.Addresses(ctx)
	if err != nil {
		return s.abort(r, report_sync_fetch, "fetch", err)
	}
	r.report.Fetched = len(rows)

	existing, err := s.store.Addresses(ctx)
	if err != nil {
		return s.abort(r, report_sync_load, "load", err)
	}
	known := make(map[int64]bool, len(existing))
	for _, address := range existing {
		known[address.ID] = true
	}

	for i, row := range rows {
		id, address, err := decodeAddress(row)
		if err != nil {
			r.fail(report_sync_record, fmt.Errorf("row %d: %w", i, err))
			continue
		}
		if known[id] {
			_, err = s.store.UpdateAddress(ctx, id, store.AddressPatch{
				StreetAddress: &address.StreetAddress,
				City:          &address.City,
				Country:       &address.Country,
			})
			if err != nil {
				r.fail(report_sync_record, fmt.Errorf("update address %d: %w", id, err))
				continue
			}
			r.report.Updated++
			continue
		}
		address.ID = id
		_, err = s.store.InsertAddress(ctx, address)
		if err != nil {
			r.fail(report_sync_record, fmt.Errorf("insert address %d: %w", id, err))
			continue
		}
		known[id] = true
		r.report.Inserted++
	}

	return s.finish(r)
}

// SyncCreditCards upserts the remote credit cards, then links every card
// without an owner to the first user no other card belongs to.
func (s *Syncer) SyncCreditCards(ctx context.Context) (Report, error) {
	r := s.begin(store.KindCreditCard)

	rows, err := s.source.CreditCards(ctx)
	if err != nil {
		return s.abort(r, report_sync_fetch, "fetch", err)
	}
	r.report.Fetched = len(rows)

	existing, err := s.store.CreditCards(ctx)
	if err != nil {
		return s.abort(r, report_sync_load, "load", err)
	}
	known := make(map[int64]bool, len(existing))
	for _, card := range existing {
		known[card.ID] = true
	}

	for i, row := range rows {
		id, card, err := decodeCreditCard(row)
		if err != nil {
			r.fail(report_sync_record, fmt.Errorf("row %d: %w", i, err))
			continue
		}
		if known[id] {
			_, err = s.store.UpdateCreditCard(ctx, id, store.CreditCardPatch{
				CardNumber:     &card.CardNumber,
				CardExpiryDate: &card.CardExpiryDate,
				CardType:       &card.CardType,
			})
			if err != nil {
				r.fail(report_sync_record, fmt.Errorf("update credit card %d: %w", id, err))
				continue
			}
			r.report.Updated++
			continue
		}
		card.ID = id
		_, err = s.store.InsertCreditCard(ctx, card)
		if err != nil {
			r.fail(report_sync_record, fmt.Errorf("insert credit card %d: %w", id, err))
			continue
		}
		known[id] = true
		r.report.Inserted++
	}

	err = s.linkCreditCards(ctx, r)
	if err != nil {
		return s.abort(r, report_sync_load, "load before linking", err)
	}
	return s.finish(r)
}
