package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/viralforge/mesh/services/financial-rails/M47-chargeback-engine/internal/adapters/security"
	"github.com/viralforge/mesh/services/financial-rails/M47-chargeback-engine/internal/application"
)

type Handler struct {
	service  *application.Service
	verifier *security.TokenVerifier
}

// NewHandler wires the HTTP surface. verifier may be nil in local/dev mode,
// in which case the bearer token is taken as the subject id directly.
func NewHandler(service *application.Service, verifier *security.TokenVerifier) *Handler {
	return &Handler{service: service, verifier: verifier}
}

func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { writeSuccess(w, http.StatusOK, "ok", nil) })
	r.Get("/readyz", func(w http.ResponseWriter, _ *http.Request) { writeSuccess(w, http.StatusOK, "ready", nil) })

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(handler.authMiddleware)
			r.Post("/evaluations", handler.evaluate)
			r.Get("/transactions/{transaction_id}/decisions", handler.listDecisions)
			r.Get("/transactions/{transaction_id}/audit", handler.listAudit)
			r.Get("/representments/{transaction_id}", handler.getRepresentment)
			r.Post("/representments/{transaction_id}/customer-evidence", handler.submitCustomerEvidence)
			r.Post("/representments/{transaction_id}/merchant-response", handler.merchantResponse)
			r.Post("/admin/representments/{transaction_id}/accept", handler.acceptRepresentment)
			r.Post("/admin/representments/{transaction_id}/reject", handler.rejectRepresentment)
			r.Post("/admin/representments/{transaction_id}/request-info", handler.requestCustomerInfo)
			r.Post("/admin/representments/{transaction_id}/prearbitration", handler.proceedToPrearbitration)
		})
	})
	return r
}
