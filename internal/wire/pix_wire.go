package wire

import (
	"net/http"

	"lesson-pix/internal/adaptor"
	"lesson-pix/pkg/middleware"
	"lesson-pix/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wirePix(
	r chi.Router,
	pixHandler *adaptor.PixHandler,
	config *utils.Config,
	log *zap.Logger,
) {
	// ==================== PUBLIC ROUTES ====================
	r.Route("/api/pix", func(r chi.Router) {
		// POST /api/pix/charges - Generate (or reuse) a charge for a lesson
		r.Post("/charges", pixHandler.GenerateCharge)

		// GET /api/pix/charges/{id} - Charge details
		r.Get("/charges/{id}", pixHandler.GetCharge)

		// GET /api/pix/charges/{id}/status - Current status
		r.Get("/charges/{id}/status", pixHandler.GetStatus)

		// POST /api/pix/charges/{id}/cancel - Cancel a pending charge
		r.Post("/charges/{id}/cancel", pixHandler.CancelPayment)

		// POST /api/pix/verify - Check an inbound code
		r.Post("/verify", pixHandler.VerifyCode)

		// ==================== CONFIRM KEY ROUTES ====================
		r.Group(func(r chi.Router) {
			r.Use(middleware.ConfirmKey(config.Auth.ConfirmKeyHash, log))

			// POST /api/pix/charges/{id}/confirm - Mark a charge as paid
			r.Post("/charges/{id}/confirm", pixHandler.ConfirmPayment)
		})
	})

	// GET /api/lessons/{lessonId}/pix-charges - Charge history of a lesson
	r.Get("/api/lessons/{lessonId}/pix-charges", pixHandler.ListLessonCharges)

	// GET /qr/* - Rendered QR images
	if config.Pix.QRDir != "" {
		fs := http.StripPrefix("/qr/", http.FileServer(http.Dir(config.Pix.QRDir)))
		r.Get("/qr/*", fs.ServeHTTP)
	}
}
