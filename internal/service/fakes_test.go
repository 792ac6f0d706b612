package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"gymdesk/internal/domain"
)

// fakeClock pins "now" for deterministic billing math.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

// fakeMemberRepo is an in-memory MemberRepository with the same conditional
// update semantics as the Mongo implementation.
type fakeMemberRepo struct {
	mu      sync.Mutex
	members map[string]*domain.Member
	nextID  int

	// applyRenewalErrs lets a test inject errors per ApplyRenewal call.
	applyRenewalErrs []error
}

func newFakeMemberRepo() *fakeMemberRepo {
	return &fakeMemberRepo{members: make(map[string]*domain.Member)}
}

func (r *fakeMemberRepo) add(m *domain.Member) *domain.Member {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	m.ID = fmt.Sprintf("member-%d", r.nextID)
	if m.Version == 0 {
		m.Version = 1
	}
	cp := *m
	r.members[m.ID] = &cp
	return m
}

func (r *fakeMemberRepo) get(id string) *domain.Member {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *r.members[id]
	return &cp
}

func (r *fakeMemberRepo) Create(ctx context.Context, m *domain.Member) error {
	r.add(m)
	return nil
}

func (r *fakeMemberRepo) GetByID(ctx context.Context, gymID, id string) (*domain.Member, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.members[id]
	if !ok || m.GymID != gymID {
		return nil, domain.ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (r *fakeMemberRepo) GetByPhone(ctx context.Context, gymID, phone string) (*domain.Member, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.members {
		if m.GymID == gymID && m.Phone == phone {
			cp := *m
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *fakeMemberRepo) Update(ctx context.Context, m *domain.Member) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.members[m.ID]
	if !ok || existing.GymID != m.GymID {
		return domain.ErrNotFound
	}
	cp := *m
	r.members[m.ID] = &cp
	return nil
}

func (r *fakeMemberRepo) ApplyRenewal(ctx context.Context, gymID, id string, upd domain.RenewalUpdate, version int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.applyRenewalErrs) > 0 {
		err := r.applyRenewalErrs[0]
		r.applyRenewalErrs = r.applyRenewalErrs[1:]
		if err != nil {
			return err
		}
	}
	m, ok := r.members[id]
	if !ok || m.GymID != gymID {
		return domain.ErrNotFound
	}
	if m.Version != version {
		return domain.ErrVersionConflict
	}
	m.PlanID = upd.PlanID
	m.NextBillDate = upd.NextBillDate
	m.LastPayment = upd.LastPayment
	m.Status = domain.StatusActive
	m.Version++
	return nil
}

func (r *fakeMemberRepo) SetStatus(ctx context.Context, gymID, id, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.members[id]
	if !ok || m.GymID != gymID {
		return domain.ErrNotFound
	}
	m.Status = status
	return nil
}

func (r *fakeMemberRepo) markExpired(match func(m *domain.Member) bool) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, m := range r.members {
		if m.Status == domain.StatusActive && match(m) {
			m.Status = domain.StatusInactive
			m.Version++
			n++
		}
	}
	return n
}

// MarkExpired matches the Mongo implementation: $lte cutoff, gym-scoped.
func (r *fakeMemberRepo) MarkExpired(ctx context.Context, gymID string, cutoff time.Time) (int64, error) {
	return r.markExpired(func(m *domain.Member) bool {
		return m.GymID == gymID && !m.NextBillDate.After(cutoff)
	}), nil
}

// MarkAllExpired is $lt, all gyms.
func (r *fakeMemberRepo) MarkAllExpired(ctx context.Context, before time.Time) (int64, error) {
	return r.markExpired(func(m *domain.Member) bool {
		return m.NextBillDate.Before(before)
	}), nil
}

func (r *fakeMemberRepo) FindDueBetween(ctx context.Context, from, to time.Time) ([]*domain.Member, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Member
	for _, m := range r.members {
		if m.Status != domain.StatusActive {
			continue
		}
		if m.NextBillDate.Before(from) || m.NextBillDate.After(to) {
			continue
		}
		cp := *m
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeMemberRepo) GetByGym(ctx context.Context, gymID string, skip, limit int64) ([]*domain.Member, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Member
	for _, m := range r.members {
		if m.GymID == gymID {
			cp := *m
			out = append(out, &cp)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeMemberRepo) Search(ctx context.Context, gymID, term string) ([]*domain.Member, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Member
	for _, m := range r.members {
		if m.GymID == gymID && (strings.Contains(m.Name, term) || strings.Contains(m.Phone, term)) {
			cp := *m
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeMemberRepo) JoinedBetween(ctx context.Context, gymID string, from, to time.Time) ([]*domain.Member, error) {
	return nil, nil
}

func (r *fakeMemberRepo) ExpiringBetween(ctx context.Context, gymID string, from, to time.Time) ([]*domain.Member, error) {
	return nil, nil
}

func (r *fakeMemberRepo) Expired(ctx context.Context, gymID string, now time.Time) ([]*domain.Member, error) {
	return nil, nil
}

func (r *fakeMemberRepo) Inactive(ctx context.Context, gymID string) ([]*domain.Member, error) {
	return nil, nil
}

func (r *fakeMemberRepo) CountByStatus(ctx context.Context, gymID string) (map[string]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[string]int64)
	for _, m := range r.members {
		if m.GymID == gymID {
			counts[m.Status]++
		}
	}
	return counts, nil
}

func (r *fakeMemberRepo) CountActiveByPlan(ctx context.Context, gymID string) (map[string]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[string]int64)
	for _, m := range r.members {
		if m.GymID == gymID && m.Status == domain.StatusActive {
			counts[m.PlanID]++
		}
	}
	return counts, nil
}

type fakePlanRepo struct {
	plans map[string]*domain.Plan
}

func newFakePlanRepo(plans ...*domain.Plan) *fakePlanRepo {
	r := &fakePlanRepo{plans: make(map[string]*domain.Plan)}
	for _, p := range plans {
		r.plans[p.ID] = p
	}
	return r
}

func (r *fakePlanRepo) Upsert(ctx context.Context, plan *domain.Plan) error {
	r.plans[plan.ID] = plan
	return nil
}

func (r *fakePlanRepo) GetByID(ctx context.Context, gymID, id string) (*domain.Plan, error) {
	p, ok := r.plans[id]
	if !ok || p.GymID != gymID {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakePlanRepo) GetByGym(ctx context.Context, gymID string) ([]*domain.Plan, error) {
	var out []*domain.Plan
	for _, p := range r.plans {
		if p.GymID == gymID {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Months < out[j].Months })
	return out, nil
}

func (r *fakePlanRepo) GetByIDs(ctx context.Context, ids []string) ([]*domain.Plan, error) {
	var out []*domain.Plan
	for _, id := range ids {
		if p, ok := r.plans[id]; ok {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

type fakePaymentRepo struct {
	mu        sync.Mutex
	payments  []*domain.Payment
	createErr error
}

func (r *fakePaymentRepo) Create(ctx context.Context, p *domain.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	cp := *p
	cp.ID = fmt.Sprintf("payment-%d", len(r.payments)+1)
	r.payments = append(r.payments, &cp)
	return nil
}

func (r *fakePaymentRepo) GetByGym(ctx context.Context, gymID string, from, to time.Time) ([]*domain.Payment, error) {
	return r.payments, nil
}

func (r *fakePaymentRepo) GetByMember(ctx context.Context, gymID, memberID string) ([]*domain.Payment, error) {
	var out []*domain.Payment
	for _, p := range r.payments {
		if p.GymID == gymID && p.MemberID == memberID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakePaymentRepo) RevenueByMonth(ctx context.Context, gymID string, since time.Time) ([]domain.MonthlyRevenue, error) {
	return nil, nil
}

// passthroughTx mirrors SequentialTxRunner: no rollback, used to observe
// the ordering guarantee that the payment insert follows the member write.
type passthroughTx struct{}

func (passthroughTx) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// fakeNotifier records sends and can fail selected recipients.
type fakeNotifier struct {
	mu      sync.Mutex
	sent    []string
	failFor map[string]bool
	block   bool // when true, Send waits for ctx and returns its error
}

func (n *fakeNotifier) Send(ctx context.Context, to, subject, body string) error {
	if n.block {
		<-ctx.Done()
		return ctx.Err()
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failFor[to] {
		return fmt.Errorf("smtp refused %s", to)
	}
	n.sent = append(n.sent, to)
	return nil
}

func (n *fakeNotifier) sentTo() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := append([]string(nil), n.sent...)
	sort.Strings(out)
	return out
}
