package handlers

import (
	"context"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/afrelay/afrelay/internal/credentials"
	"github.com/afrelay/afrelay/internal/soap"
)

// TicketRenewer forces a fresh WSAA login for one service. *ticket.Manager
// satisfies it.
type TicketRenewer interface {
	Renew(ctx context.Context, service string) (*credentials.Ticket, error)
}

// Token renewal always answers 200: billing systems poll these endpoints and
// branch on the status string, not the HTTP code.

// RenewWSAAToken forces a fresh WSAA ticket for the invoicing service.
func RenewWSAAToken(tickets TicketRenewer, logger *logrus.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger.Info("Received request to generate access token at /wsaa/token")

		if _, err := tickets.Renew(r.Context(), soap.ServiceWSFE); err != nil {
			logger.WithError(err).Error("WSAA access token renewal failed")
			writeJSON(w, http.StatusOK, map[string]string{"status": "error generating access token."})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
	}
}

// RenewWSPCIToken forces a fresh WSAA ticket for the padron service.
func RenewWSPCIToken(tickets TicketRenewer, logger *logrus.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger.Info("Received request to generate WSPCI access token at /wspci/token")

		if _, err := tickets.Renew(r.Context(), soap.ServiceWSPCI); err != nil {
			logger.WithError(err).Error("WSPCI access token renewal failed")
			writeJSON(w, http.StatusOK, map[string]string{"status": "error generating wspci access token."})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
	}
}
