// Package afip holds the request and response payload shapes the relay
// exchanges with callers (JSON) and with AFIP's WSFE/WSPCI services (XML).
// Field order inside the SOAP-bound structs follows the FEV1 WSDL sequences.
package afip

// Auth is the per-call credential triple every WSFE operation carries.
// Callers send only Cuit; the relay injects Token and Sign from the current
// ticket before the SOAP call.
type Auth struct {
	Token string `json:"Token,omitempty" xml:"Token"`
	Sign  string `json:"Sign,omitempty" xml:"Sign"`
	Cuit  int64  `json:"Cuit" xml:"Cuit" validate:"required,gt=0"`
}

// ============================================================================
// FECAE (on-line CAE) request payloads
// ============================================================================

type FECAERequest struct {
	Auth     Auth     `json:"Auth" validate:"required"`
	FeCAEReq FeCAEReq `json:"FeCAEReq" validate:"required"`
}

type FeCAEReq struct {
	FeCabReq FeCabReq `json:"FeCabReq" xml:"FeCabReq" validate:"required"`
	FeDetReq FeDetReq `json:"FeDetReq" xml:"FeDetReq" validate:"required"`
}

type FeCabReq struct {
	CantReg  int `json:"CantReg" xml:"CantReg" validate:"required,gt=0"`
	PtoVta   int `json:"PtoVta" xml:"PtoVta" validate:"required,gt=0"`
	CbteTipo int `json:"CbteTipo" xml:"CbteTipo" validate:"required,gt=0"`
}

type FeDetReq struct {
	FECAEDetRequest []FECAEDetRequest `json:"FECAEDetRequest" xml:"FECAEDetRequest" validate:"required,min=1,dive"`
}

// FECAEDetRequest is one voucher detail row. The money and date rules the
// relay enforces before relaying live in Validate (validate.go).
type FECAEDetRequest struct {
	Concepto               int      `json:"Concepto" xml:"Concepto"`
	DocTipo                int      `json:"DocTipo" xml:"DocTipo"`
	DocNro                 int64    `json:"DocNro" xml:"DocNro"`
	CbteDesde              int64    `json:"CbteDesde" xml:"CbteDesde"`
	CbteHasta              int64    `json:"CbteHasta" xml:"CbteHasta"`
	CbteFch                string   `json:"CbteFch" xml:"CbteFch"`
	ImpTotal               float64  `json:"ImpTotal" xml:"ImpTotal"`
	ImpTotConc             float64  `json:"ImpTotConc" xml:"ImpTotConc"`
	ImpNeto                float64  `json:"ImpNeto" xml:"ImpNeto"`
	ImpOpEx                float64  `json:"ImpOpEx" xml:"ImpOpEx"`
	ImpTrib                float64  `json:"ImpTrib" xml:"ImpTrib"`
	ImpIVA                 float64  `json:"ImpIVA" xml:"ImpIVA"`
	FchServDesde           string   `json:"FchServDesde,omitempty" xml:"FchServDesde,omitempty"`
	FchServHasta           string   `json:"FchServHasta,omitempty" xml:"FchServHasta,omitempty"`
	FchVtoPago             string   `json:"FchVtoPago,omitempty" xml:"FchVtoPago,omitempty"`
	MonId                  string   `json:"MonId" xml:"MonId"`
	MonCotiz               *float64 `json:"MonCotiz,omitempty" xml:"MonCotiz,omitempty"`
	CanMisMonExt           string   `json:"CanMisMonExt,omitempty" xml:"CanMisMonExt,omitempty"`
	CondicionIVAReceptorId int      `json:"CondicionIVAReceptorId" xml:"CondicionIVAReceptorId"`

	CbtesAsoc   *CbtesAsoc   `json:"CbtesAsoc,omitempty" xml:"CbtesAsoc,omitempty"`
	Tributos    *Tributos    `json:"Tributos,omitempty" xml:"Tributos,omitempty"`
	Iva         *Iva         `json:"Iva,omitempty" xml:"Iva,omitempty"`
	Opcionales  *Opcionales  `json:"Opcionales,omitempty" xml:"Opcionales,omitempty"`
	Compradores *Compradores `json:"Compradores,omitempty" xml:"Compradores,omitempty"`
	PeriodoAsoc *PeriodoAsoc `json:"PeriodoAsoc,omitempty" xml:"PeriodoAsoc,omitempty"`
	Actividades *Actividades `json:"Actividades,omitempty" xml:"Actividades,omitempty"`
}

type CbtesAsoc struct {
	CbteAsoc []CbteAsoc `json:"CbteAsoc" xml:"CbteAsoc"`
}

type CbteAsoc struct {
	Tipo    int    `json:"Tipo" xml:"Tipo"`
	PtoVta  int    `json:"PtoVta" xml:"PtoVta"`
	Nro     int64  `json:"Nro" xml:"Nro"`
	Cuit    string `json:"Cuit,omitempty" xml:"Cuit,omitempty"`
	CbteFch string `json:"CbteFch" xml:"CbteFch"`
}

type Tributos struct {
	Tributo []Tributo `json:"Tributo" xml:"Tributo"`
}

type Tributo struct {
	Id      int     `json:"Id" xml:"Id"`
	Desc    string  `json:"Desc,omitempty" xml:"Desc,omitempty"`
	BaseImp float64 `json:"BaseImp" xml:"BaseImp"`
	Alic    float64 `json:"Alic" xml:"Alic"`
	Importe float64 `json:"Importe" xml:"Importe"`
}

type Iva struct {
	AlicIva []AlicIva `json:"AlicIva" xml:"AlicIva"`
}

type AlicIva struct {
	Id      int     `json:"Id" xml:"Id"`
	BaseImp float64 `json:"BaseImp" xml:"BaseImp"`
	Importe float64 `json:"Importe" xml:"Importe"`
}

type Opcionales struct {
	Opcional []Opcional `json:"Opcional" xml:"Opcional"`
}

type Opcional struct {
	Id    string `json:"Id" xml:"Id"`
	Valor string `json:"Valor" xml:"Valor"`
}

type Compradores struct {
	Comprador []Comprador `json:"Comprador" xml:"Comprador"`
}

type Comprador struct {
	DocTipo    int     `json:"DocTipo" xml:"DocTipo"`
	DocNro     int64   `json:"DocNro" xml:"DocNro"`
	Porcentaje float64 `json:"Porcentaje" xml:"Porcentaje"`
}

type PeriodoAsoc struct {
	FchDesde string `json:"FchDesde" xml:"FchDesde"`
	FchHasta string `json:"FchHasta" xml:"FchHasta"`
}

type Actividades struct {
	Actividad []Actividad `json:"Actividad" xml:"Actividad"`
}

type Actividad struct {
	Id int64 `json:"Id" xml:"Id"`
}

// ============================================================================
// Invoice query payloads
// ============================================================================

type LastAuthorizedRequest struct {
	Cuit     int64 `json:"Cuit" validate:"required,gt=0"`
	PtoVta   int   `json:"PtoVta" validate:"required,gt=0"`
	CbteTipo int   `json:"CbteTipo" validate:"required,gt=0"`
}

type InvoiceQueryRequest struct {
	Cuit     int64 `json:"Cuit" validate:"required,gt=0"`
	PtoVta   int   `json:"PtoVta" validate:"required,gt=0"`
	CbteTipo int   `json:"CbteTipo" validate:"required,gt=0"`
	CbteNro  int64 `json:"CbteNro" validate:"required,gt=0"`
}

// FeCompConsReq is the WSFE-side shape of an invoice query.
type FeCompConsReq struct {
	CbteTipo int   `json:"CbteTipo" xml:"CbteTipo"`
	CbteNro  int64 `json:"CbteNro" xml:"CbteNro"`
	PtoVta   int   `json:"PtoVta" xml:"PtoVta"`
}

// ============================================================================
// WSFE parameter-table payloads
// ============================================================================

type ParamsRequest struct {
	Cuit int64 `json:"Cuit" validate:"required,gt=0"`
}

type CondicionIvaReceptorRequest struct {
	Cuit     int64  `json:"Cuit" validate:"required,gt=0"`
	ClaseCmp string `json:"ClaseCmp,omitempty"`
}

type CotizacionRequest struct {
	Cuit     int64  `json:"Cuit" validate:"required,gt=0"`
	MonId    string `json:"MonId" validate:"required"`
	FchCotiz string `json:"FchCotiz,omitempty" validate:"omitempty,yyyymmdd"`
}

// ============================================================================
// CAEA payloads
// ============================================================================

type CaeaPeriodoOrdenRequest struct {
	Cuit    int64 `json:"Cuit" validate:"required,gt=0"`
	Periodo int   `json:"Periodo" validate:"required,gt=0"`
	Orden   int   `json:"Orden" validate:"required,oneof=1 2"`
}

type CaeaSinMovimientoRequest struct {
	Cuit   int64  `json:"Cuit" validate:"required,gt=0"`
	PtoVta int    `json:"PtoVta" validate:"required,gt=0"`
	CAEA   string `json:"CAEA" validate:"required"`
}

type CaeaSinMovimientoConsultarRequest struct {
	Cuit   int64  `json:"Cuit" validate:"required,gt=0"`
	PtoVta int    `json:"PtoVta" validate:"required,gt=0"`
	CAEA   string `json:"CAEA,omitempty"`
}

type CaeaRegInformativoRequest struct {
	Cuit            int64           `json:"Cuit" validate:"required,gt=0"`
	FeCAEARegInfReq FeCAEARegInfReq `json:"FeCAEARegInfReq" validate:"required"`
}

// QueueSolicitCaeaRequest enqueues a durable CAEA solicitation instead of
// calling AFIP inline.
type QueueSolicitCaeaRequest struct {
	Cuit    int64 `json:"Cuit" validate:"required,gt=0"`
	Periodo int   `json:"Periodo" validate:"required,gt=0"`
	Orden   int   `json:"Orden" validate:"required,oneof=1 2"`
}

// QueueIssueLocalInvoiceRequest reserves the next voucher number under an
// active CAEA cycle and enqueues the informative record.
type QueueIssueLocalInvoiceRequest struct {
	CycleId         int64           `json:"CycleId" validate:"required,gt=0"`
	Cuit            int64           `json:"Cuit" validate:"required,gt=0"`
	PtoVta          int             `json:"PtoVta" validate:"required,gt=0"`
	CbteTipo        int             `json:"CbteTipo" validate:"required,gt=0"`
	FeCAEARegInfReq FeCAEARegInfReq `json:"FeCAEARegInfReq" validate:"required"`
}

type FeCAEARegInfReq struct {
	FeCabReq FeCabReq     `json:"FeCabReq" xml:"FeCabReq"`
	FeDetReq FeCAEADetReq `json:"FeDetReq" xml:"FeDetReq"`
}

type FeCAEADetReq struct {
	FECAEADetRequest []FECAEADetRequest `json:"FECAEADetRequest" xml:"FECAEADetRequest"`
}

// FECAEADetRequest mirrors FECAEDetRequest plus the CAEA code the voucher
// was issued under. The resilience engine patches CbteDesde/CbteHasta/CAEA
// when it reserves a number.
type FECAEADetRequest struct {
	Concepto               int      `json:"Concepto" xml:"Concepto"`
	DocTipo                int      `json:"DocTipo" xml:"DocTipo"`
	DocNro                 int64    `json:"DocNro" xml:"DocNro"`
	CbteDesde              int64    `json:"CbteDesde" xml:"CbteDesde"`
	CbteHasta              int64    `json:"CbteHasta" xml:"CbteHasta"`
	CbteFch                string   `json:"CbteFch,omitempty" xml:"CbteFch,omitempty"`
	ImpTotal               float64  `json:"ImpTotal" xml:"ImpTotal"`
	ImpTotConc             float64  `json:"ImpTotConc" xml:"ImpTotConc"`
	ImpNeto                float64  `json:"ImpNeto" xml:"ImpNeto"`
	ImpOpEx                float64  `json:"ImpOpEx" xml:"ImpOpEx"`
	ImpTrib                float64  `json:"ImpTrib" xml:"ImpTrib"`
	ImpIVA                 float64  `json:"ImpIVA" xml:"ImpIVA"`
	FchServDesde           string   `json:"FchServDesde,omitempty" xml:"FchServDesde,omitempty"`
	FchServHasta           string   `json:"FchServHasta,omitempty" xml:"FchServHasta,omitempty"`
	FchVtoPago             string   `json:"FchVtoPago,omitempty" xml:"FchVtoPago,omitempty"`
	MonId                  string   `json:"MonId" xml:"MonId"`
	MonCotiz               *float64 `json:"MonCotiz,omitempty" xml:"MonCotiz,omitempty"`
	CanMisMonExt           string   `json:"CanMisMonExt,omitempty" xml:"CanMisMonExt,omitempty"`
	CondicionIVAReceptorId int      `json:"CondicionIVAReceptorId" xml:"CondicionIVAReceptorId"`
	CAEA                   string   `json:"CAEA" xml:"CAEA"`

	CbtesAsoc   *CbtesAsoc   `json:"CbtesAsoc,omitempty" xml:"CbtesAsoc,omitempty"`
	Tributos    *Tributos    `json:"Tributos,omitempty" xml:"Tributos,omitempty"`
	Iva         *Iva         `json:"Iva,omitempty" xml:"Iva,omitempty"`
	Opcionales  *Opcionales  `json:"Opcionales,omitempty" xml:"Opcionales,omitempty"`
	Compradores *Compradores `json:"Compradores,omitempty" xml:"Compradores,omitempty"`
	PeriodoAsoc *PeriodoAsoc `json:"PeriodoAsoc,omitempty" xml:"PeriodoAsoc,omitempty"`
	Actividades *Actividades `json:"Actividades,omitempty" xml:"Actividades,omitempty"`
}

// ============================================================================
// WSPCI payloads
// ============================================================================

type GetPersonaRequest struct {
	CuitRepresentada int64 `json:"cuitRepresentada" validate:"required,gt=0"`
	IdPersona        int64 `json:"idPersona" validate:"required,gt=0"`
}
