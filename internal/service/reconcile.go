package service

import (
	"context"

	"gymdesk/internal/domain"
)

// ReconcileService is the request-path read-repair step: it demotes a gym's
// members whose bill date has passed so listing endpoints reflect current
// status. It never promotes anyone; promotion belongs to RenewalService.
type ReconcileService struct {
	members domain.MemberRepository
	clock   domain.Clock
}

func NewReconcileService(members domain.MemberRepository, clock domain.Clock) *ReconcileService {
	return &ReconcileService{members: members, clock: clock}
}

// ReconcileGym applies DeriveStatus to the gym's members in one conditional
// bulk update and returns how many were demoted. Running it twice without
// time advancing is a no-op: the first pass leaves nothing matching.
func (s *ReconcileService) ReconcileGym(ctx context.Context, gymID string) (int64, error) {
	return s.members.MarkExpired(ctx, gymID, s.clock.Now())
}
