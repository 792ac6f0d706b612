package middleware

import (
	"context"
	"log"

	"github.com/gofiber/fiber/v2"
)

// GymReconciler is the slice of the reconcile service this middleware uses.
type GymReconciler interface {
	ReconcileGym(ctx context.Context, gymID string) (int64, error)
}

// StatusRepair demotes expired members of the requesting gym before the
// handler runs, so listing endpoints never show a stale Active. The repair
// is best-effort: a store error is logged and the request proceeds with
// possibly stale statuses rather than failing the read.
//
// Mounted on listing reads only. The renewal endpoint must not run it;
// renewal is the promotion path and does its own version-checked write.
func StatusRepair(reconciler GymReconciler) fiber.Handler {
	return func(c *fiber.Ctx) error {
		gymID := GetGymID(c)
		if gymID == "" {
			return c.Next()
		}

		if _, err := reconciler.ReconcileGym(c.UserContext(), gymID); err != nil {
			log.Printf("[StatusRepair] Reconcile failed for gym %s: %v", gymID, err)
		}
		return c.Next()
	}
}
