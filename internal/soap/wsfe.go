package soap

import (
	"context"
	"encoding/xml"

	"github.com/afrelay/afrelay/internal/afip"
)

const wsfeNamespace = "http://ar.gov.afip.dif.FEV1/"

// WSFEClient covers the electronic invoicing operations the relay fronts:
// CAE issuance, voucher queries, the CAEA family and the parameter tables.
type WSFEClient struct {
	transport *Transport
	endpoint  string
}

func (c *WSFEClient) call(ctx context.Context, method string, op, out any) error {
	body, err := requestBody(op)
	if err != nil {
		return err
	}
	raw, err := c.transport.Post(ctx, c.endpoint, wsfeNamespace+method, body)
	if err != nil {
		return err
	}
	return decodeResultElement(raw, method+"Result", out)
}

// authOnlyOp covers the many operations whose only input is Auth. The FEV1
// schema qualifies child elements, so the default-namespace attribute is
// enough.
type authOnlyOp struct {
	XMLName xml.Name
	NS      string    `xml:"xmlns,attr"`
	Auth    afip.Auth `xml:"Auth"`
}

func wsfeOp(method string, auth afip.Auth) authOnlyOp {
	return authOnlyOp{XMLName: xml.Name{Local: method}, NS: wsfeNamespace, Auth: auth}
}

// ===== invoicing =====

type fecaeSolicitarOp struct {
	XMLName  xml.Name      `xml:"FECAESolicitar"`
	NS       string        `xml:"xmlns,attr"`
	Auth     afip.Auth     `xml:"Auth"`
	FeCAEReq afip.FeCAEReq `xml:"FeCAEReq"`
}

func (c *WSFEClient) FECAESolicitar(ctx context.Context, auth afip.Auth, req afip.FeCAEReq) (*afip.FECAEResult, error) {
	var out afip.FECAEResult
	op := fecaeSolicitarOp{NS: wsfeNamespace, Auth: auth, FeCAEReq: req}
	if err := c.call(ctx, "FECAESolicitar", op, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type feCompUltimoAutorizadoOp struct {
	XMLName  xml.Name  `xml:"FECompUltimoAutorizado"`
	NS       string    `xml:"xmlns,attr"`
	Auth     afip.Auth `xml:"Auth"`
	PtoVta   int       `xml:"PtoVta"`
	CbteTipo int       `xml:"CbteTipo"`
}

func (c *WSFEClient) FECompUltimoAutorizado(ctx context.Context, auth afip.Auth, ptoVta, cbteTipo int) (*afip.LastAuthorizedResult, error) {
	var out afip.LastAuthorizedResult
	op := feCompUltimoAutorizadoOp{NS: wsfeNamespace, Auth: auth, PtoVta: ptoVta, CbteTipo: cbteTipo}
	if err := c.call(ctx, "FECompUltimoAutorizado", op, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type feCompConsultarOp struct {
	XMLName       xml.Name           `xml:"FECompConsultar"`
	NS            string             `xml:"xmlns,attr"`
	Auth          afip.Auth          `xml:"Auth"`
	FeCompConsReq afip.FeCompConsReq `xml:"FeCompConsReq"`
}

func (c *WSFEClient) FECompConsultar(ctx context.Context, auth afip.Auth, req afip.FeCompConsReq) (*afip.InvoiceQueryResult, error) {
	var out afip.InvoiceQueryResult
	op := feCompConsultarOp{NS: wsfeNamespace, Auth: auth, FeCompConsReq: req}
	if err := c.call(ctx, "FECompConsultar", op, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ===== CAEA family =====

type caeaPeriodoOrdenOp struct {
	XMLName xml.Name
	NS      string    `xml:"xmlns,attr"`
	Auth    afip.Auth `xml:"Auth"`
	Periodo int       `xml:"Periodo"`
	Orden   int       `xml:"Orden"`
}

func (c *WSFEClient) FECAEASolicitar(ctx context.Context, auth afip.Auth, periodo, orden int) (*afip.CaeaSolicitarResult, error) {
	var out afip.CaeaSolicitarResult
	op := caeaPeriodoOrdenOp{XMLName: xml.Name{Local: "FECAEASolicitar"}, NS: wsfeNamespace, Auth: auth, Periodo: periodo, Orden: orden}
	if err := c.call(ctx, "FECAEASolicitar", op, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *WSFEClient) FECAEAConsultar(ctx context.Context, auth afip.Auth, periodo, orden int) (*afip.CaeaSolicitarResult, error) {
	var out afip.CaeaSolicitarResult
	op := caeaPeriodoOrdenOp{XMLName: xml.Name{Local: "FECAEAConsultar"}, NS: wsfeNamespace, Auth: auth, Periodo: periodo, Orden: orden}
	if err := c.call(ctx, "FECAEAConsultar", op, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type caeaRegInformativoOp struct {
	XMLName         xml.Name             `xml:"FECAEARegInformativo"`
	NS              string               `xml:"xmlns,attr"`
	Auth            afip.Auth            `xml:"Auth"`
	FeCAEARegInfReq afip.FeCAEARegInfReq `xml:"FeCAEARegInfReq"`
}

func (c *WSFEClient) FECAEARegInformativo(ctx context.Context, auth afip.Auth, req afip.FeCAEARegInfReq) (*afip.CaeaRegInfResult, error) {
	var out afip.CaeaRegInfResult
	op := caeaRegInformativoOp{NS: wsfeNamespace, Auth: auth, FeCAEARegInfReq: req}
	if err := c.call(ctx, "FECAEARegInformativo", op, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type caeaSinMovInformarOp struct {
	XMLName xml.Name  `xml:"FECAEASinMovimientoInformar"`
	NS      string    `xml:"xmlns,attr"`
	Auth    afip.Auth `xml:"Auth"`
	PtoVta  int       `xml:"PtoVta"`
	CAEA    string    `xml:"CAEA"`
}

func (c *WSFEClient) FECAEASinMovimientoInformar(ctx context.Context, auth afip.Auth, ptoVta int, caea string) (*afip.CaeaSinMovInformarResult, error) {
	var out afip.CaeaSinMovInformarResult
	op := caeaSinMovInformarOp{NS: wsfeNamespace, Auth: auth, PtoVta: ptoVta, CAEA: caea}
	if err := c.call(ctx, "FECAEASinMovimientoInformar", op, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type caeaSinMovConsultarOp struct {
	XMLName xml.Name  `xml:"FECAEASinMovimientoConsultar"`
	NS      string    `xml:"xmlns,attr"`
	Auth    afip.Auth `xml:"Auth"`
	CAEA    string    `xml:"CAEA,omitempty"`
	PtoVta  int       `xml:"PtoVta"`
}

func (c *WSFEClient) FECAEASinMovimientoConsultar(ctx context.Context, auth afip.Auth, caea string, ptoVta int) (*afip.CaeaSinMovConsultarResult, error) {
	var out afip.CaeaSinMovConsultarResult
	op := caeaSinMovConsultarOp{NS: wsfeNamespace, Auth: auth, CAEA: caea, PtoVta: ptoVta}
	if err := c.call(ctx, "FECAEASinMovimientoConsultar", op, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ===== parameter tables =====

func (c *WSFEClient) FECompTotXRequest(ctx context.Context, auth afip.Auth) (*afip.RegXReqResult, error) {
	var out afip.RegXReqResult
	if err := c.call(ctx, "FECompTotXRequest", wsfeOp("FECompTotXRequest", auth), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *WSFEClient) FEParamGetTiposCbte(ctx context.Context, auth afip.Auth) (*afip.CbteTipoResult, error) {
	var out afip.CbteTipoResult
	if err := c.call(ctx, "FEParamGetTiposCbte", wsfeOp("FEParamGetTiposCbte", auth), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *WSFEClient) FEParamGetTiposDoc(ctx context.Context, auth afip.Auth) (*afip.DocTipoResult, error) {
	var out afip.DocTipoResult
	if err := c.call(ctx, "FEParamGetTiposDoc", wsfeOp("FEParamGetTiposDoc", auth), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *WSFEClient) FEParamGetTiposConcepto(ctx context.Context, auth afip.Auth) (*afip.ConceptoTipoResult, error) {
	var out afip.ConceptoTipoResult
	if err := c.call(ctx, "FEParamGetTiposConcepto", wsfeOp("FEParamGetTiposConcepto", auth), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *WSFEClient) FEParamGetTiposIva(ctx context.Context, auth afip.Auth) (*afip.IvaTipoResult, error) {
	var out afip.IvaTipoResult
	if err := c.call(ctx, "FEParamGetTiposIva", wsfeOp("FEParamGetTiposIva", auth), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *WSFEClient) FEParamGetTiposMonedas(ctx context.Context, auth afip.Auth) (*afip.MonedaResult, error) {
	var out afip.MonedaResult
	if err := c.call(ctx, "FEParamGetTiposMonedas", wsfeOp("FEParamGetTiposMonedas", auth), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *WSFEClient) FEParamGetTiposOpcional(ctx context.Context, auth afip.Auth) (*afip.OpcionalTipoResult, error) {
	var out afip.OpcionalTipoResult
	if err := c.call(ctx, "FEParamGetTiposOpcional", wsfeOp("FEParamGetTiposOpcional", auth), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *WSFEClient) FEParamGetTiposTributos(ctx context.Context, auth afip.Auth) (*afip.TributoTipoResult, error) {
	var out afip.TributoTipoResult
	if err := c.call(ctx, "FEParamGetTiposTributos", wsfeOp("FEParamGetTiposTributos", auth), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *WSFEClient) FEParamGetTiposPaises(ctx context.Context, auth afip.Auth) (*afip.PaisTipoResult, error) {
	var out afip.PaisTipoResult
	if err := c.call(ctx, "FEParamGetTiposPaises", wsfeOp("FEParamGetTiposPaises", auth), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type condicionIvaReceptorOp struct {
	XMLName  xml.Name  `xml:"FEParamGetCondicionIvaReceptor"`
	NS       string    `xml:"xmlns,attr"`
	Auth     afip.Auth `xml:"Auth"`
	ClaseCmp string    `xml:"ClaseCmp,omitempty"`
}

func (c *WSFEClient) FEParamGetCondicionIvaReceptor(ctx context.Context, auth afip.Auth, claseCmp string) (*afip.CondicionIvaReceptorResult, error) {
	var out afip.CondicionIvaReceptorResult
	op := condicionIvaReceptorOp{NS: wsfeNamespace, Auth: auth, ClaseCmp: claseCmp}
	if err := c.call(ctx, "FEParamGetCondicionIvaReceptor", op, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *WSFEClient) FEParamGetPtosVenta(ctx context.Context, auth afip.Auth) (*afip.PtoVentaResult, error) {
	var out afip.PtoVentaResult
	if err := c.call(ctx, "FEParamGetPtosVenta", wsfeOp("FEParamGetPtosVenta", auth), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *WSFEClient) FEParamGetActividades(ctx context.Context, auth afip.Auth) (*afip.ActividadesResult, error) {
	var out afip.ActividadesResult
	if err := c.call(ctx, "FEParamGetActividades", wsfeOp("FEParamGetActividades", auth), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type cotizacionOp struct {
	XMLName  xml.Name  `xml:"FEParamGetCotizacion"`
	NS       string    `xml:"xmlns,attr"`
	Auth     afip.Auth `xml:"Auth"`
	MonId    string    `xml:"MonId"`
	FchCotiz string    `xml:"FchCotiz,omitempty"`
}

func (c *WSFEClient) FEParamGetCotizacion(ctx context.Context, auth afip.Auth, monID, fchCotiz string) (*afip.CotizacionResult, error) {
	var out afip.CotizacionResult
	op := cotizacionOp{NS: wsfeNamespace, Auth: auth, MonId: monID, FchCotiz: fchCotiz}
	if err := c.call(ctx, "FEParamGetCotizacion", op, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ===== health =====

type feDummyOp struct {
	XMLName xml.Name `xml:"FEDummy"`
	NS      string   `xml:"xmlns,attr"`
}

func (c *WSFEClient) FEDummy(ctx context.Context) (*afip.DummyResult, error) {
	var out afip.DummyResult
	if err := c.call(ctx, "FEDummy", feDummyOp{NS: wsfeNamespace}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
