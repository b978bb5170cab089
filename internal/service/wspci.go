package service

import (
	"context"

	"github.com/afrelay/afrelay/internal/afip"
	"github.com/afrelay/afrelay/internal/soap"
	"github.com/afrelay/afrelay/internal/ticket"
)

// WSPCI relays the padron A5 taxpayer registry lookups under the padron
// ticket, which WSAA issues separately from the invoicing one.
type WSPCI struct {
	tickets *ticket.Manager
	clients *soap.ClientSet
	gateway *soap.Gateway
}

func NewWSPCI(tickets *ticket.Manager, clients *soap.ClientSet, gateway *soap.Gateway) *WSPCI {
	return &WSPCI{tickets: tickets, clients: clients, gateway: gateway}
}

func (s *WSPCI) GetPersona(ctx context.Context, req afip.GetPersonaRequest) (*afip.PersonaReturn, error) {
	token, sign, err := s.tickets.EnsureTicket(ctx, soap.ServiceWSPCI)
	if err != nil {
		return nil, err
	}
	return soap.Call(ctx, s.gateway, soap.ServiceWSPCI, "getPersona", func(ctx context.Context) (*afip.PersonaReturn, error) {
		return s.clients.WSPCI().GetPersona(ctx, token, sign, req.CuitRepresentada, req.IdPersona)
	})
}

func (s *WSPCI) Dummy(ctx context.Context) (*afip.WSPCIDummyResult, error) {
	return soap.Call(ctx, s.gateway, soap.ServiceWSPCI, "dummy", func(ctx context.Context) (*afip.WSPCIDummyResult, error) {
		return s.clients.WSPCI().Dummy(ctx)
	})
}
