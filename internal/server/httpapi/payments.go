package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/confkeeper/internal/server/services"
	"github.com/go-chi/chi/v5"
)

type initiateRequest struct {
	ConferenceID string  `json:"conference_id"`
	Amount       float64 `json:"amount"`
}

type refundRequest struct {
	Reason string `json:"reason"`
}

func (s *Server) handleInitiatePayment(w http.ResponseWriter, r *http.Request) {
	var in initiateRequest
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	p, err := s.svc.Payments.Initiate(r.Context(), identityFrom(r.Context()), in.ConferenceID, in.Amount)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, envelope{
		"success":         true,
		"payment_id":      p.ID,
		"amount":          p.Amount,
		"conference_name": p.ConferenceName,
		"message":         "Payment session created",
	})
}

func (s *Server) handleProcessPayment(w http.ResponseWriter, r *http.Request) {
	var in services.ProcessInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	p, err := s.svc.Payments.Process(r.Context(), identityFrom(r.Context()), in)
	if err != nil {
		if p == nil {
			s.writeError(w, r, err)
			return
		}
		// declined: the failed payment is still reported back
		writeJSON(w, http.StatusBadRequest, envelope{
			"success":    false,
			"error":      publicMessage(err, http.StatusBadRequest),
			"payment_id": p.ID,
			"status":     p.Status,
		})
		return
	}
	writeJSON(w, http.StatusOK, envelope{
		"success":        true,
		"message":        "Payment processed successfully",
		"transaction_id": p.TransactionID,
		"payment":        p,
	})
}

func (s *Server) handlePaymentStatus(w http.ResponseWriter, r *http.Request) {
	p, err := s.svc.Payments.Status(r.Context(), identityFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"success": true, "payment": p})
}

func (s *Server) handlePaymentHistory(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.Payments.History(r.Context(), identityFrom(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"success": true, "payments": list})
}

func (s *Server) handleRefundPayment(w http.ResponseWriter, r *http.Request) {
	var in refundRequest
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	p, err := s.svc.Payments.Refund(r.Context(), identityFrom(r.Context()), chi.URLParam(r, "id"), in.Reason)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, envelope{
		"success":   true,
		"refund_id": p.RefundID,
		"message":   "Refund request submitted",
	})
}
