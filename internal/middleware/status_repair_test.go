package middleware

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubReconciler struct {
	calls int
	err   error
	gymID string
}

func (s *stubReconciler) ReconcileGym(ctx context.Context, gymID string) (int64, error) {
	s.calls++
	s.gymID = gymID
	return 0, s.err
}

func newRepairApp(rec *stubReconciler) *fiber.App {
	app := fiber.New()
	app.Get("/members",
		func(c *fiber.Ctx) error {
			c.Locals(GymIDKey, "gym-1")
			return c.Next()
		},
		StatusRepair(rec),
		func(c *fiber.Ctx) error {
			return c.JSON(fiber.Map{"ok": true})
		},
	)
	return app
}

func TestStatusRepairRunsBeforeHandler(t *testing.T) {
	rec := &stubReconciler{}
	app := newRepairApp(rec)

	resp, err := app.Test(httptest.NewRequest("GET", "/members", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, 1, rec.calls)
	assert.Equal(t, "gym-1", rec.gymID)
}

func TestStatusRepairProceedsOnFailure(t *testing.T) {
	// A store hiccup during repair must not fail the read; the handler
	// serves possibly stale statuses instead.
	rec := &stubReconciler{err: errors.New("mongo timeout")}
	app := newRepairApp(rec)

	resp, err := app.Test(httptest.NewRequest("GET", "/members", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, 1, rec.calls)
}

func TestStatusRepairSkipsWithoutGymScope(t *testing.T) {
	rec := &stubReconciler{}
	app := fiber.New()
	app.Get("/members", StatusRepair(rec), func(c *fiber.Ctx) error {
		return c.SendStatus(200)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/members", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Zero(t, rec.calls)
}
