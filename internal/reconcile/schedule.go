package reconcile

import (
	"context"
	"fmt"
	"scrapesync-backend/internal/components/chrono"
)

const report_schedule_job = "schedule.job"

const (
	JOB_UPDATE_USERS        = "update_user_info"
	JOB_UPDATE_CREDIT_CARDS = "update_credit_card_info"
	JOB_UPDATE_ADDRESSES    = "update_addresses_info"
)

// Specs holds the cron spec of every job.
type Specs struct {
	Users       string
	Addresses   string
	CreditCards string
}

func DefaultSpecs() Specs {
	return Specs{
		Users:       "@every 30m",
		CreditCards: "@every 40m",
		Addresses:   "@every 60m",
	}
}

func (s Specs) withDefaults() Specs {
	defaults := DefaultSpecs()
	if s.Users == "" {
		s.Users = defaults.Users
	}
	if s.Addresses == "" {
		s.Addresses = defaults.Addresses
	}
	if s.CreditCards == "" {
		s.CreditCards = defaults.CreditCards
	}
	return s
}

// Job is a named task together with its cron spec.
type Job struct {
	Name string
	Spec string
	Run  func(ctx context.Context) (Report, error)
}

// Jobs lists the scheduled tasks of the syncer, empty specs fall back
// to DefaultSpecs.
func (s *Syncer) Jobs(specs Specs) []Job {
	specs = specs.withDefaults()
	return []Job{
		{Name: JOB_UPDATE_USERS, Spec: specs.Users, Run: s.SyncUsers},
		{Name: JOB_UPDATE_CREDIT_CARDS, Spec: specs.CreditCards, Run: s.SyncCreditCards},
		{Name: JOB_UPDATE_ADDRESSES, Spec: specs.Addresses, Run: s.SyncAddresses},
	}
}

// Schedule registers every job on cron, the jobs run with ctx so that
// cancelling it stops them.
func Schedule(ctx context.Context, cron chrono.CronAPI, syncer *Syncer, specs Specs) error {
	for _, job := range syncer.Jobs(specs) {
		job := job
		err := cron.Cron(job.Spec, func() {
			report, err := job.Run(ctx)
			if err != nil {
				syncer.tel.ReportBroken(report_schedule_job, fmt.Errorf("%s: %w", job.Name, err))
				return
			}
			syncer.tel.ReportDebug(report_schedule_job, job.Name, report.String())
		})
		if err != nil {
			return fmt.Errorf("schedule %s (%q): %w", job.Name, job.Spec, err)
		}
	}
	return nil
}
