package handlers

import (
	"context"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/afrelay/afrelay/internal/service"
	"github.com/afrelay/afrelay/internal/soap"
)

// relay builds the pass-through handler every WSFE and WSPCI operation
// shares: parse and validate the payload, run the service call, answer 200
// with the uniform envelope whichever way the call went.
func relay[Req, Res any](logger *logrus.Logger, received, method string, call func(context.Context, Req) (Res, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger.Info(received)

		req, ok := decodeValid[Req](w, r)
		if !ok {
			return
		}
		res, err := call(r.Context(), req)
		writeJSON(w, http.StatusOK, soap.Resolve(method, res, err))
	}
}

// ===== invoicing =====

func IssueInvoice(svc *service.WSFE, logger *logrus.Logger) http.HandlerFunc {
	return relay(logger, "Received request to generate invoice at /wsfe/invoices",
		"FECAESolicitar", svc.IssueInvoice)
}

func LastAuthorizedInvoice(svc *service.WSFE, logger *logrus.Logger) http.HandlerFunc {
	return relay(logger, "Received request to fetch last authorized invoice at /wsfe/invoices/last-authorized",
		"FECompUltimoAutorizado", svc.LastAuthorized)
}

func QueryInvoice(svc *service.WSFE, logger *logrus.Logger) http.HandlerFunc {
	return relay(logger, "Received request to query specific invoice at /wsfe/invoices/query",
		"FECompConsultar", svc.QueryInvoice)
}

// ===== parameter tables =====

func MaxRegXRequest(svc *service.WSFE, logger *logrus.Logger) http.HandlerFunc {
	return relay(logger, "Received request to fetch WSFE max records per request at /wsfe/params/max-reg-x-request",
		"FECompTotXRequest", svc.MaxRegXRequest)
}

func VoucherTypes(svc *service.WSFE, logger *logrus.Logger) http.HandlerFunc {
	return relay(logger, "Received request to fetch WSFE voucher types at /wsfe/params/types-cbte",
		"FEParamGetTiposCbte", svc.VoucherTypes)
}

func ConceptTypes(svc *service.WSFE, logger *logrus.Logger) http.HandlerFunc {
	return relay(logger, "Received request to fetch WSFE concept types at /wsfe/params/types-concepto",
		"FEParamGetTiposConcepto", svc.ConceptTypes)
}

func DocTypes(svc *service.WSFE, logger *logrus.Logger) http.HandlerFunc {
	return relay(logger, "Received request to fetch WSFE document types at /wsfe/params/types-doc",
		"FEParamGetTiposDoc", svc.DocTypes)
}

func IvaTypes(svc *service.WSFE, logger *logrus.Logger) http.HandlerFunc {
	return relay(logger, "Received request to fetch WSFE VAT types at /wsfe/params/types-iva",
		"FEParamGetTiposIva", svc.IvaTypes)
}

func TributeTypes(svc *service.WSFE, logger *logrus.Logger) http.HandlerFunc {
	return relay(logger, "Received request to fetch WSFE tributo types at /wsfe/params/types-tributos",
		"FEParamGetTiposTributos", svc.TributeTypes)
}

func CurrencyTypes(svc *service.WSFE, logger *logrus.Logger) http.HandlerFunc {
	return relay(logger, "Received request to fetch WSFE currency types at /wsfe/params/types-monedas",
		"FEParamGetTiposMonedas", svc.Currencies)
}

func OptionalTypes(svc *service.WSFE, logger *logrus.Logger) http.HandlerFunc {
	return relay(logger, "Received request to fetch WSFE optional data types at /wsfe/params/types-opcional",
		"FEParamGetTiposOpcional", svc.OptionalTypes)
}

func CountryTypes(svc *service.WSFE, logger *logrus.Logger) http.HandlerFunc {
	return relay(logger, "Received request to fetch WSFE country types at /wsfe/params/types-paises",
		"FEParamGetTiposPaises", svc.Countries)
}

func ReceiverIvaConditions(svc *service.WSFE, logger *logrus.Logger) http.HandlerFunc {
	return relay(logger, "Received request to fetch WSFE receptor VAT conditions at /wsfe/params/condicion-iva-receptor",
		"FEParamGetCondicionIvaReceptor", svc.ReceiverIvaConditions)
}

func SalePoints(svc *service.WSFE, logger *logrus.Logger) http.HandlerFunc {
	return relay(logger, "Received request to fetch WSFE points of sale at /wsfe/params/puntos-venta",
		"FEParamGetPtosVenta", svc.SalePoints)
}

func Activities(svc *service.WSFE, logger *logrus.Logger) http.HandlerFunc {
	return relay(logger, "Received request to fetch WSFE activities at /wsfe/params/actividades",
		"FEParamGetActividades", svc.Activities)
}

func CurrencyQuote(svc *service.WSFE, logger *logrus.Logger) http.HandlerFunc {
	return relay(logger, "Received request to fetch WSFE currency quote at /wsfe/params/cotizacion",
		"FEParamGetCotizacion", svc.CurrencyQuote)
}

// ===== CAEA pass-through =====
//
// These talk to AFIP synchronously; the durable queue endpoints live in
// caea_queue.go.

func SolicitCaea(svc *service.WSFE, logger *logrus.Logger) http.HandlerFunc {
	return relay(logger, "Received request to solicit WSFE CAEA at /wsfe/caea/solicitar",
		"FECAEASolicitar", svc.SolicitCaea)
}

func ConsultCaea(svc *service.WSFE, logger *logrus.Logger) http.HandlerFunc {
	return relay(logger, "Received request to consult WSFE CAEA at /wsfe/caea/consultar",
		"FECAEAConsultar", svc.ConsultCaea)
}

func InformCaea(svc *service.WSFE, logger *logrus.Logger) http.HandlerFunc {
	return relay(logger, "Received request to inform WSFE CAEA at /wsfe/caea/informar",
		"FECAEARegInformativo", svc.InformCaea)
}

func ConsultCaeaNoMovement(svc *service.WSFE, logger *logrus.Logger) http.HandlerFunc {
	return relay(logger, "Received request to consult WSFE CAEA no-movement at /wsfe/caea/sin-movimiento/consultar",
		"FECAEASinMovimientoConsultar", svc.QueryCaeaNoMovement)
}

func InformCaeaNoMovement(svc *service.WSFE, logger *logrus.Logger) http.HandlerFunc {
	return relay(logger, "Received request to inform WSFE CAEA no-movement at /wsfe/caea/sin-movimiento/informar",
		"FECAEASinMovimientoInformar", svc.InformCaeaNoMovement)
}
