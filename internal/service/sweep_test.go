package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gymdesk/internal/domain"
)

func newSweepFixture(now time.Time) (*ExpirySweep, *fakeMemberRepo, *fakeNotifier) {
	members := newFakeMemberRepo()
	plans := newFakePlanRepo(&domain.Plan{ID: "plan-1m", GymID: "gym-1", Months: 1, Price: 1500})
	notifier := &fakeNotifier{failFor: make(map[string]bool)}
	sweep := NewExpirySweep(members, plans, notifier, &fakeClock{now: now})
	return sweep, members, notifier
}

func TestSweepWindows(t *testing.T) {
	// Sweep on 2024-03-01 notifies [03-01, 03-01 23:59:59]
	// and [03-08, 03-08 23:59:59], demotes strictly before 03-01.
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	sweep, members, notifier := newSweepFixture(now)

	yesterday := members.add(&domain.Member{
		GymID: "gym-1", Email: "late@example.com", PlanID: "plan-1m",
		Status: domain.StatusActive, NextBillDate: time.Date(2024, 2, 29, 18, 0, 0, 0, time.UTC),
	})
	today := members.add(&domain.Member{
		GymID: "gym-1", Email: "today@example.com", PlanID: "plan-1m",
		Status: domain.StatusActive, NextBillDate: time.Date(2024, 3, 1, 22, 0, 0, 0, time.UTC),
	})
	inThree := members.add(&domain.Member{
		GymID: "gym-1", Email: "midweek@example.com", PlanID: "plan-1m",
		Status: domain.StatusActive, NextBillDate: time.Date(2024, 3, 4, 12, 0, 0, 0, time.UTC),
	})
	inSeven := members.add(&domain.Member{
		GymID: "gym-1", Email: "week@example.com", PlanID: "plan-1m",
		Status: domain.StatusActive, NextBillDate: time.Date(2024, 3, 8, 6, 0, 0, 0, time.UTC),
	})

	report, err := sweep.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(1), report.Demoted)
	assert.Equal(t, 1, report.NotifiedToday)
	assert.Equal(t, 1, report.NotifiedWeek)
	assert.Zero(t, report.SendFailures)

	// Demoted member gets no reminder; the windows are disjoint from the
	// demotion range and from each other.
	assert.Equal(t, []string{"today@example.com", "week@example.com"}, notifier.sentTo())

	assert.Equal(t, domain.StatusInactive, members.get(yesterday.ID).Status)
	assert.Equal(t, domain.StatusActive, members.get(today.ID).Status,
		"expiring later today must stay Active until the day is over")
	assert.Equal(t, domain.StatusActive, members.get(inThree.ID).Status)
	assert.Equal(t, domain.StatusActive, members.get(inSeven.ID).Status)
}

func TestSweepIsolatesSendFailures(t *testing.T) {
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	sweep, members, notifier := newSweepFixture(now)

	for _, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		members.add(&domain.Member{
			GymID: "gym-1", Email: email, PlanID: "plan-1m",
			Status: domain.StatusActive, NextBillDate: time.Date(2024, 3, 1, 20, 0, 0, 0, time.UTC),
		})
	}
	notifier.failFor["b@example.com"] = true

	report, err := sweep.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, report.NotifiedToday)
	assert.Equal(t, 1, report.SendFailures)
	assert.Equal(t, []string{"a@example.com", "c@example.com"}, notifier.sentTo())
}

func TestSweepSkipsMembersWithoutEmail(t *testing.T) {
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	sweep, members, notifier := newSweepFixture(now)

	members.add(&domain.Member{
		GymID: "gym-1", PlanID: "plan-1m",
		Status: domain.StatusActive, NextBillDate: time.Date(2024, 3, 1, 20, 0, 0, 0, time.UTC),
	})

	report, err := sweep.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, report.NotifiedToday)
	assert.Empty(t, notifier.sentTo())
}

func TestSweepRerunDoesNotDemoteTwice(t *testing.T) {
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	sweep, members, _ := newSweepFixture(now)

	members.add(&domain.Member{
		GymID: "gym-1", Email: "late@example.com", PlanID: "plan-1m",
		Status: domain.StatusActive, NextBillDate: time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC),
	})

	first, err := sweep.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.Demoted)

	second, err := sweep.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, second.Demoted, "a rerun within the same day must be a no-op for demotions")
}
