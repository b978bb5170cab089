// Package service fronts the AFIP SOAP ports with the relay's contract:
// every operation gets a fresh ticket injected, runs under the gateway's
// retry policy and returns typed results for the JSON layer to envelope.
package service

import (
	"context"

	"github.com/afrelay/afrelay/internal/afip"
	"github.com/afrelay/afrelay/internal/soap"
	"github.com/afrelay/afrelay/internal/ticket"
)

// WSFE relays the electronic invoicing operations. Callers supply Cuit; the
// service fills Token and Sign from the current WSAA ticket so clients never
// handle credentials.
type WSFE struct {
	tickets *ticket.Manager
	clients *soap.ClientSet
	gateway *soap.Gateway
}

func NewWSFE(tickets *ticket.Manager, clients *soap.ClientSet, gateway *soap.Gateway) *WSFE {
	return &WSFE{tickets: tickets, clients: clients, gateway: gateway}
}

func (s *WSFE) auth(ctx context.Context, cuit int64) (afip.Auth, error) {
	token, sign, err := s.tickets.EnsureTicket(ctx, soap.ServiceWSFE)
	if err != nil {
		return afip.Auth{}, err
	}
	return afip.Auth{Token: token, Sign: sign, Cuit: cuit}, nil
}

// callWSFE ensures the ticket, stamps the auth triple and runs the port call
// under the gateway contract.
func callWSFE[T any](ctx context.Context, s *WSFE, cuit int64, method string, fn func(context.Context, afip.Auth) (T, error)) (T, error) {
	auth, err := s.auth(ctx, cuit)
	if err != nil {
		var zero T
		return zero, err
	}
	return soap.Call(ctx, s.gateway, soap.ServiceWSFE, method, func(ctx context.Context) (T, error) {
		return fn(ctx, auth)
	})
}

// ===== invoicing =====

func (s *WSFE) IssueInvoice(ctx context.Context, req afip.FECAERequest) (*afip.FECAEResult, error) {
	return callWSFE(ctx, s, req.Auth.Cuit, "FECAESolicitar", func(ctx context.Context, auth afip.Auth) (*afip.FECAEResult, error) {
		return s.clients.WSFE().FECAESolicitar(ctx, auth, req.FeCAEReq)
	})
}

func (s *WSFE) LastAuthorized(ctx context.Context, req afip.LastAuthorizedRequest) (*afip.LastAuthorizedResult, error) {
	return callWSFE(ctx, s, req.Cuit, "FECompUltimoAutorizado", func(ctx context.Context, auth afip.Auth) (*afip.LastAuthorizedResult, error) {
		return s.clients.WSFE().FECompUltimoAutorizado(ctx, auth, req.PtoVta, req.CbteTipo)
	})
}

func (s *WSFE) QueryInvoice(ctx context.Context, req afip.InvoiceQueryRequest) (*afip.InvoiceQueryResult, error) {
	return callWSFE(ctx, s, req.Cuit, "FECompConsultar", func(ctx context.Context, auth afip.Auth) (*afip.InvoiceQueryResult, error) {
		return s.clients.WSFE().FECompConsultar(ctx, auth, afip.FeCompConsReq{
			CbteTipo: req.CbteTipo,
			CbteNro:  req.CbteNro,
			PtoVta:   req.PtoVta,
		})
	})
}

// ===== CAEA family =====

// SolicitCaea and InformCaea also serve the outbox worker as its AFIP port.

func (s *WSFE) SolicitCaea(ctx context.Context, req afip.CaeaPeriodoOrdenRequest) (*afip.CaeaSolicitarResult, error) {
	return callWSFE(ctx, s, req.Cuit, "FECAEASolicitar", func(ctx context.Context, auth afip.Auth) (*afip.CaeaSolicitarResult, error) {
		return s.clients.WSFE().FECAEASolicitar(ctx, auth, req.Periodo, req.Orden)
	})
}

func (s *WSFE) ConsultCaea(ctx context.Context, req afip.CaeaPeriodoOrdenRequest) (*afip.CaeaSolicitarResult, error) {
	return callWSFE(ctx, s, req.Cuit, "FECAEAConsultar", func(ctx context.Context, auth afip.Auth) (*afip.CaeaSolicitarResult, error) {
		return s.clients.WSFE().FECAEAConsultar(ctx, auth, req.Periodo, req.Orden)
	})
}

func (s *WSFE) InformCaea(ctx context.Context, req afip.CaeaRegInformativoRequest) (*afip.CaeaRegInfResult, error) {
	return callWSFE(ctx, s, req.Cuit, "FECAEARegInformativo", func(ctx context.Context, auth afip.Auth) (*afip.CaeaRegInfResult, error) {
		return s.clients.WSFE().FECAEARegInformativo(ctx, auth, req.FeCAEARegInfReq)
	})
}

func (s *WSFE) InformCaeaNoMovement(ctx context.Context, req afip.CaeaSinMovimientoRequest) (*afip.CaeaSinMovInformarResult, error) {
	return callWSFE(ctx, s, req.Cuit, "FECAEASinMovimientoInformar", func(ctx context.Context, auth afip.Auth) (*afip.CaeaSinMovInformarResult, error) {
		return s.clients.WSFE().FECAEASinMovimientoInformar(ctx, auth, req.PtoVta, req.CAEA)
	})
}

func (s *WSFE) QueryCaeaNoMovement(ctx context.Context, req afip.CaeaSinMovimientoConsultarRequest) (*afip.CaeaSinMovConsultarResult, error) {
	return callWSFE(ctx, s, req.Cuit, "FECAEASinMovimientoConsultar", func(ctx context.Context, auth afip.Auth) (*afip.CaeaSinMovConsultarResult, error) {
		return s.clients.WSFE().FECAEASinMovimientoConsultar(ctx, auth, req.CAEA, req.PtoVta)
	})
}

// ===== parameter tables =====

func (s *WSFE) MaxRegXRequest(ctx context.Context, req afip.ParamsRequest) (*afip.RegXReqResult, error) {
	return callWSFE(ctx, s, req.Cuit, "FECompTotXRequest", func(ctx context.Context, auth afip.Auth) (*afip.RegXReqResult, error) {
		return s.clients.WSFE().FECompTotXRequest(ctx, auth)
	})
}

func (s *WSFE) VoucherTypes(ctx context.Context, req afip.ParamsRequest) (*afip.CbteTipoResult, error) {
	return callWSFE(ctx, s, req.Cuit, "FEParamGetTiposCbte", func(ctx context.Context, auth afip.Auth) (*afip.CbteTipoResult, error) {
		return s.clients.WSFE().FEParamGetTiposCbte(ctx, auth)
	})
}

func (s *WSFE) DocTypes(ctx context.Context, req afip.ParamsRequest) (*afip.DocTipoResult, error) {
	return callWSFE(ctx, s, req.Cuit, "FEParamGetTiposDoc", func(ctx context.Context, auth afip.Auth) (*afip.DocTipoResult, error) {
		return s.clients.WSFE().FEParamGetTiposDoc(ctx, auth)
	})
}

func (s *WSFE) ConceptTypes(ctx context.Context, req afip.ParamsRequest) (*afip.ConceptoTipoResult, error) {
	return callWSFE(ctx, s, req.Cuit, "FEParamGetTiposConcepto", func(ctx context.Context, auth afip.Auth) (*afip.ConceptoTipoResult, error) {
		return s.clients.WSFE().FEParamGetTiposConcepto(ctx, auth)
	})
}

func (s *WSFE) IvaTypes(ctx context.Context, req afip.ParamsRequest) (*afip.IvaTipoResult, error) {
	return callWSFE(ctx, s, req.Cuit, "FEParamGetTiposIva", func(ctx context.Context, auth afip.Auth) (*afip.IvaTipoResult, error) {
		return s.clients.WSFE().FEParamGetTiposIva(ctx, auth)
	})
}

func (s *WSFE) Currencies(ctx context.Context, req afip.ParamsRequest) (*afip.MonedaResult, error) {
	return callWSFE(ctx, s, req.Cuit, "FEParamGetTiposMonedas", func(ctx context.Context, auth afip.Auth) (*afip.MonedaResult, error) {
		return s.clients.WSFE().FEParamGetTiposMonedas(ctx, auth)
	})
}

func (s *WSFE) OptionalTypes(ctx context.Context, req afip.ParamsRequest) (*afip.OpcionalTipoResult, error) {
	return callWSFE(ctx, s, req.Cuit, "FEParamGetTiposOpcional", func(ctx context.Context, auth afip.Auth) (*afip.OpcionalTipoResult, error) {
		return s.clients.WSFE().FEParamGetTiposOpcional(ctx, auth)
	})
}

func (s *WSFE) TributeTypes(ctx context.Context, req afip.ParamsRequest) (*afip.TributoTipoResult, error) {
	return callWSFE(ctx, s, req.Cuit, "FEParamGetTiposTributos", func(ctx context.Context, auth afip.Auth) (*afip.TributoTipoResult, error) {
		return s.clients.WSFE().FEParamGetTiposTributos(ctx, auth)
	})
}

func (s *WSFE) Countries(ctx context.Context, req afip.ParamsRequest) (*afip.PaisTipoResult, error) {
	return callWSFE(ctx, s, req.Cuit, "FEParamGetTiposPaises", func(ctx context.Context, auth afip.Auth) (*afip.PaisTipoResult, error) {
		return s.clients.WSFE().FEParamGetTiposPaises(ctx, auth)
	})
}

func (s *WSFE) ReceiverIvaConditions(ctx context.Context, req afip.CondicionIvaReceptorRequest) (*afip.CondicionIvaReceptorResult, error) {
	return callWSFE(ctx, s, req.Cuit, "FEParamGetCondicionIvaReceptor", func(ctx context.Context, auth afip.Auth) (*afip.CondicionIvaReceptorResult, error) {
		return s.clients.WSFE().FEParamGetCondicionIvaReceptor(ctx, auth, req.ClaseCmp)
	})
}

func (s *WSFE) SalePoints(ctx context.Context, req afip.ParamsRequest) (*afip.PtoVentaResult, error) {
	return callWSFE(ctx, s, req.Cuit, "FEParamGetPtosVenta", func(ctx context.Context, auth afip.Auth) (*afip.PtoVentaResult, error) {
		return s.clients.WSFE().FEParamGetPtosVenta(ctx, auth)
	})
}

func (s *WSFE) Activities(ctx context.Context, req afip.ParamsRequest) (*afip.ActividadesResult, error) {
	return callWSFE(ctx, s, req.Cuit, "FEParamGetActividades", func(ctx context.Context, auth afip.Auth) (*afip.ActividadesResult, error) {
		return s.clients.WSFE().FEParamGetActividades(ctx, auth)
	})
}

func (s *WSFE) CurrencyQuote(ctx context.Context, req afip.CotizacionRequest) (*afip.CotizacionResult, error) {
	return callWSFE(ctx, s, req.Cuit, "FEParamGetCotizacion", func(ctx context.Context, auth afip.Auth) (*afip.CotizacionResult, error) {
		return s.clients.WSFE().FEParamGetCotizacion(ctx, auth, req.MonId, req.FchCotiz)
	})
}

// ===== health =====

// Dummy needs no ticket; AFIP exposes it unauthenticated for availability
// checks.
func (s *WSFE) Dummy(ctx context.Context) (*afip.DummyResult, error) {
	return soap.Call(ctx, s.gateway, soap.ServiceWSFE, "FEDummy", func(ctx context.Context) (*afip.DummyResult, error) {
		return s.clients.WSFE().FEDummy(ctx)
	})
}
