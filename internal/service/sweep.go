package service

import (
	"context"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"gymdesk/internal/domain"
)

const (
	// sweepSendConcurrency caps in-flight notification sends.
	sweepSendConcurrency = 8
	// sweepSendTimeout bounds a single delivery so one hung SMTP
	// conversation cannot stall the batch.
	sweepSendTimeout = 10 * time.Second
)

// SweepReport summarizes one daily sweep run.
type SweepReport struct {
	Demoted       int64 `json:"demoted"`
	NotifiedToday int   `json:"notified_today"`
	NotifiedWeek  int   `json:"notified_week"`
	SendFailures  int   `json:"send_failures"`
}

// ExpirySweep is the daily batch: demote every member whose membership
// lapsed before today, then email members expiring today and members
// expiring seven days out. Notification failures are logged per member and
// never abort the run, so delivery is at-least-once across reruns.
type ExpirySweep struct {
	members  domain.MemberRepository
	plans    domain.PlanRepository
	notifier domain.Notifier
	clock    domain.Clock
}

func NewExpirySweep(
	members domain.MemberRepository,
	plans domain.PlanRepository,
	notifier domain.Notifier,
	clock domain.Clock,
) *ExpirySweep {
	return &ExpirySweep{
		members:  members,
		plans:    plans,
		notifier: notifier,
		clock:    clock,
	}
}

// Run executes the three passes. The demotion cutoff is the start of today,
// so members expiring later today stay Active for the "expires today"
// notices; the two notice windows are whole-day and do not overlap the
// demotion range.
func (s *ExpirySweep) Run(ctx context.Context) (*SweepReport, error) {
	now := s.clock.Now()
	report := &SweepReport{}

	startOfToday, endOfToday := domain.DayWindow(now, 0)

	demoted, err := s.members.MarkAllExpired(ctx, startOfToday)
	if err != nil {
		return nil, fmt.Errorf("demotion pass: %w", err)
	}
	report.Demoted = demoted
	log.Printf("[Sweep] Demoted %d expired members", demoted)

	var failures int64

	dueToday, err := s.members.FindDueBetween(ctx, startOfToday, endOfToday)
	if err != nil {
		return nil, fmt.Errorf("expires-today window: %w", err)
	}
	report.NotifiedToday = s.notifyBatch(ctx, dueToday, "today", &failures)

	weekStart, weekEnd := domain.DayWindow(now, 7)
	dueWeek, err := s.members.FindDueBetween(ctx, weekStart, weekEnd)
	if err != nil {
		return nil, fmt.Errorf("expires-in-a-week window: %w", err)
	}
	report.NotifiedWeek = s.notifyBatch(ctx, dueWeek, "in 7 days", &failures)

	report.SendFailures = int(atomic.LoadInt64(&failures))
	log.Printf("[Sweep] Notified %d (today) + %d (week), %d send failures",
		report.NotifiedToday, report.NotifiedWeek, report.SendFailures)
	return report, nil
}

// notifyBatch emails one window of members concurrently and returns how many
// sends succeeded. A failed send increments failures and is logged; it never
// fails the batch.
func (s *ExpirySweep) notifyBatch(ctx context.Context, members []*domain.Member, when string, failures *int64) int {
	if len(members) == 0 {
		return 0
	}

	plansByID := s.lookupPlans(ctx, members)

	var sent int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(sweepSendConcurrency)
	for _, m := range members {
		m := m
		if m.Email == "" {
			continue
		}
		g.Go(func() error {
			subject, body := renewalReminder(m, plansByID[m.PlanID], when)

			sendCtx, cancel := context.WithTimeout(gctx, sweepSendTimeout)
			defer cancel()
			if err := s.notifier.Send(sendCtx, m.Email, subject, body); err != nil {
				atomic.AddInt64(failures, 1)
				log.Printf("[Sweep] Failed to notify member %s: %v", m.ID, err)
				return nil
			}
			atomic.AddInt64(&sent, 1)
			return nil
		})
	}
	_ = g.Wait()
	return int(atomic.LoadInt64(&sent))
}

// lookupPlans batch-fetches the plans referenced by a notification window.
// A lookup failure only degrades the email body, so it is logged and the
// batch proceeds without plan details.
func (s *ExpirySweep) lookupPlans(ctx context.Context, members []*domain.Member) map[string]*domain.Plan {
	seen := make(map[string]bool)
	ids := make([]string, 0, len(members))
	for _, m := range members {
		if m.PlanID != "" && !seen[m.PlanID] {
			seen[m.PlanID] = true
			ids = append(ids, m.PlanID)
		}
	}

	plansByID := make(map[string]*domain.Plan, len(ids))
	if len(ids) == 0 {
		return plansByID
	}
	plans, err := s.plans.GetByIDs(ctx, ids)
	if err != nil {
		log.Printf("[Sweep] Plan lookup failed, sending reminders without plan details: %v", err)
		return plansByID
	}
	for _, p := range plans {
		plansByID[p.ID] = p
	}
	return plansByID
}

func renewalReminder(m *domain.Member, plan *domain.Plan, when string) (subject, body string) {
	subject = fmt.Sprintf("Your gym membership expires %s", when)
	body = fmt.Sprintf(
		"Hi %s,\n\nYour membership expires %s (on %s). Please renew at the front desk or online to keep access.\n",
		m.Name, when, m.NextBillDate.Format("02 Jan 2006"),
	)
	if plan != nil {
		body += fmt.Sprintf("\nYour current plan: %d month(s).\n", plan.Months)
	}
	body += "\nSee you at the gym!\n"
	return subject, body
}
