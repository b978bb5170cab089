package afip

// Response shapes follow the FEV1 WSDL element names so the JSON the relay
// returns matches what AFIP sends, observation and error lists included.

type Err struct {
	Code int    `json:"Code" xml:"Code"`
	Msg  string `json:"Msg" xml:"Msg"`
}

type ErrorList struct {
	Err []Err `json:"Err" xml:"Err"`
}

type Evt struct {
	Code int    `json:"Code" xml:"Code"`
	Msg  string `json:"Msg" xml:"Msg"`
}

type EventList struct {
	Evt []Evt `json:"Evt" xml:"Evt"`
}

type Obs struct {
	Code int    `json:"Code" xml:"Code"`
	Msg  string `json:"Msg" xml:"Msg"`
}

type ObsList struct {
	Obs []Obs `json:"Obs" xml:"Obs"`
}

// ============================================================================
// FECAESolicitar
// ============================================================================

type FECAEResult struct {
	FeCabResp *FeCabResp        `json:"FeCabResp,omitempty" xml:"FeCabResp,omitempty"`
	FeDetResp *FECAEDetRespList `json:"FeDetResp,omitempty" xml:"FeDetResp,omitempty"`
	Events    *EventList        `json:"Events,omitempty" xml:"Events,omitempty"`
	Errors    *ErrorList        `json:"Errors,omitempty" xml:"Errors,omitempty"`
}

type FeCabResp struct {
	Cuit       int64  `json:"Cuit" xml:"Cuit"`
	PtoVta     int    `json:"PtoVta" xml:"PtoVta"`
	CbteTipo   int    `json:"CbteTipo" xml:"CbteTipo"`
	FchProceso string `json:"FchProceso" xml:"FchProceso"`
	CantReg    int    `json:"CantReg" xml:"CantReg"`
	Resultado  string `json:"Resultado" xml:"Resultado"`
	Reproceso  string `json:"Reproceso" xml:"Reproceso"`
}

type FECAEDetRespList struct {
	FECAEDetResponse []FECAEDetResponse `json:"FECAEDetResponse" xml:"FECAEDetResponse"`
}

type FECAEDetResponse struct {
	Concepto      int      `json:"Concepto" xml:"Concepto"`
	DocTipo       int      `json:"DocTipo" xml:"DocTipo"`
	DocNro        int64    `json:"DocNro" xml:"DocNro"`
	CbteDesde     int64    `json:"CbteDesde" xml:"CbteDesde"`
	CbteHasta     int64    `json:"CbteHasta" xml:"CbteHasta"`
	CbteFch       string   `json:"CbteFch" xml:"CbteFch"`
	Resultado     string   `json:"Resultado" xml:"Resultado"`
	Observaciones *ObsList `json:"Observaciones,omitempty" xml:"Observaciones,omitempty"`
	CAE           string   `json:"CAE" xml:"CAE"`
	CAEFchVto     string   `json:"CAEFchVto" xml:"CAEFchVto"`
}

// ============================================================================
// FECompUltimoAutorizado / FECompConsultar
// ============================================================================

type LastAuthorizedResult struct {
	PtoVta   int        `json:"PtoVta" xml:"PtoVta"`
	CbteTipo int        `json:"CbteTipo" xml:"CbteTipo"`
	CbteNro  int64      `json:"CbteNro" xml:"CbteNro"`
	Errors   *ErrorList `json:"Errors,omitempty" xml:"Errors,omitempty"`
	Events   *EventList `json:"Events,omitempty" xml:"Events,omitempty"`
}

type InvoiceQueryResult struct {
	ResultGet *VoucherDetail `json:"ResultGet,omitempty" xml:"ResultGet,omitempty"`
	Errors    *ErrorList     `json:"Errors,omitempty" xml:"Errors,omitempty"`
	Events    *EventList     `json:"Events,omitempty" xml:"Events,omitempty"`
}

type VoucherDetail struct {
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
	MonCotiz               float64  `json:"MonCotiz" xml:"MonCotiz"`
	CondicionIVAReceptorId int      `json:"CondicionIVAReceptorId" xml:"CondicionIVAReceptorId"`
	Resultado              string   `json:"Resultado" xml:"Resultado"`
	CodAutorizacion        string   `json:"CodAutorizacion" xml:"CodAutorizacion"`
	EmisionTipo            string   `json:"EmisionTipo" xml:"EmisionTipo"`
	FchVto                 string   `json:"FchVto" xml:"FchVto"`
	FchProceso             string   `json:"FchProceso" xml:"FchProceso"`
	PtoVta                 int      `json:"PtoVta" xml:"PtoVta"`
	CbteTipo               int      `json:"CbteTipo" xml:"CbteTipo"`
	Observaciones          *ObsList `json:"Observaciones,omitempty" xml:"Observaciones,omitempty"`
}

// ============================================================================
// CAEA family
// ============================================================================

// CaeaResult is the ResultGet of FECAEASolicitar and FECAEAConsultar.
type CaeaResult struct {
	CAEA          string   `json:"CAEA" xml:"CAEA"`
	Periodo       int      `json:"Periodo" xml:"Periodo"`
	Orden         int      `json:"Orden" xml:"Orden"`
	FchVigDesde   string   `json:"FchVigDesde" xml:"FchVigDesde"`
	FchVigHasta   string   `json:"FchVigHasta" xml:"FchVigHasta"`
	FchTopeInf    string   `json:"FchTopeInf" xml:"FchTopeInf"`
	FchProceso    string   `json:"FchProceso" xml:"FchProceso"`
	Observaciones *ObsList `json:"Observaciones,omitempty" xml:"Observaciones,omitempty"`
}

type CaeaSolicitarResult struct {
	ResultGet *CaeaResult `json:"ResultGet,omitempty" xml:"ResultGet,omitempty"`
	Errors    *ErrorList  `json:"Errors,omitempty" xml:"Errors,omitempty"`
	Events    *EventList  `json:"Events,omitempty" xml:"Events,omitempty"`
}

type CaeaRegInfResult struct {
	FeCabResp *FeCabResp         `json:"FeCabResp,omitempty" xml:"FeCabResp,omitempty"`
	FeDetResp *FECAEADetRespList `json:"FeDetResp,omitempty" xml:"FeDetResp,omitempty"`
	Events    *EventList         `json:"Events,omitempty" xml:"Events,omitempty"`
	Errors    *ErrorList         `json:"Errors,omitempty" xml:"Errors,omitempty"`
}

type FECAEADetRespList struct {
	FECAEADetResponse []FECAEADetResponse `json:"FECAEADetResponse" xml:"FECAEADetResponse"`
}

type FECAEADetResponse struct {
	Concepto      int      `json:"Concepto" xml:"Concepto"`
	DocTipo       int      `json:"DocTipo" xml:"DocTipo"`
	DocNro        int64    `json:"DocNro" xml:"DocNro"`
	CbteDesde     int64    `json:"CbteDesde" xml:"CbteDesde"`
	CbteHasta     int64    `json:"CbteHasta" xml:"CbteHasta"`
	CbteFch       string   `json:"CbteFch" xml:"CbteFch"`
	Resultado     string   `json:"Resultado" xml:"Resultado"`
	Observaciones *ObsList `json:"Observaciones,omitempty" xml:"Observaciones,omitempty"`
	CAEA          string   `json:"CAEA" xml:"CAEA"`
}

type CaeaSinMovInformarResult struct {
	CAEA       string     `json:"CAEA" xml:"CAEA"`
	FchProceso string     `json:"FchProceso" xml:"FchProceso"`
	PtoVta     int        `json:"PtoVta" xml:"PtoVta"`
	Resultado  string     `json:"Resultado" xml:"Resultado"`
	Errors     *ErrorList `json:"Errors,omitempty" xml:"Errors,omitempty"`
	Events     *EventList `json:"Events,omitempty" xml:"Events,omitempty"`
}

type CaeaSinMovConsultarResult struct {
	ResultGet *CaeaSinMovList `json:"ResultGet,omitempty" xml:"ResultGet,omitempty"`
	Errors    *ErrorList      `json:"Errors,omitempty" xml:"Errors,omitempty"`
	Events    *EventList      `json:"Events,omitempty" xml:"Events,omitempty"`
}

type CaeaSinMovList struct {
	FECAEASinMov []CaeaSinMov `json:"FECAEASinMov" xml:"FECAEASinMov"`
}

type CaeaSinMov struct {
	CAEA       string `json:"CAEA" xml:"CAEA"`
	FchProceso string `json:"FchProceso" xml:"FchProceso"`
	PtoVta     int    `json:"PtoVta" xml:"PtoVta"`
}

// ============================================================================
// Parameter tables
// ============================================================================

type RegXReqResult struct {
	RegXReq int        `json:"RegXReq" xml:"RegXReq"`
	Errors  *ErrorList `json:"Errors,omitempty" xml:"Errors,omitempty"`
	Events  *EventList `json:"Events,omitempty" xml:"Events,omitempty"`
}

type CbteTipo struct {
	Id       int    `json:"Id" xml:"Id"`
	Desc     string `json:"Desc" xml:"Desc"`
	FchDesde string `json:"FchDesde" xml:"FchDesde"`
	FchHasta string `json:"FchHasta" xml:"FchHasta"`
}

type CbteTipoResult struct {
	ResultGet *CbteTipoList `json:"ResultGet,omitempty" xml:"ResultGet,omitempty"`
	Errors    *ErrorList    `json:"Errors,omitempty" xml:"Errors,omitempty"`
	Events    *EventList    `json:"Events,omitempty" xml:"Events,omitempty"`
}

type CbteTipoList struct {
	CbteTipo []CbteTipo `json:"CbteTipo" xml:"CbteTipo"`
}

type DocTipo struct {
	Id       int    `json:"Id" xml:"Id"`
	Desc     string `json:"Desc" xml:"Desc"`
	FchDesde string `json:"FchDesde" xml:"FchDesde"`
	FchHasta string `json:"FchHasta" xml:"FchHasta"`
}

type DocTipoResult struct {
	ResultGet *DocTipoList `json:"ResultGet,omitempty" xml:"ResultGet,omitempty"`
	Errors    *ErrorList   `json:"Errors,omitempty" xml:"Errors,omitempty"`
	Events    *EventList   `json:"Events,omitempty" xml:"Events,omitempty"`
}

type DocTipoList struct {
	DocTipo []DocTipo `json:"DocTipo" xml:"DocTipo"`
}

type ConceptoTipo struct {
	Id       int    `json:"Id" xml:"Id"`
	Desc     string `json:"Desc" xml:"Desc"`
	FchDesde string `json:"FchDesde" xml:"FchDesde"`
	FchHasta string `json:"FchHasta" xml:"FchHasta"`
}

type ConceptoTipoResult struct {
	ResultGet *ConceptoTipoList `json:"ResultGet,omitempty" xml:"ResultGet,omitempty"`
	Errors    *ErrorList        `json:"Errors,omitempty" xml:"Errors,omitempty"`
	Events    *EventList        `json:"Events,omitempty" xml:"Events,omitempty"`
}

type ConceptoTipoList struct {
	ConceptoTipo []ConceptoTipo `json:"ConceptoTipo" xml:"ConceptoTipo"`
}

// IvaTipo, Moneda and OpcionalTipo carry string ids in the WSDL.
type IvaTipo struct {
	Id       string `json:"Id" xml:"Id"`
	Desc     string `json:"Desc" xml:"Desc"`
	FchDesde string `json:"FchDesde" xml:"FchDesde"`
	FchHasta string `json:"FchHasta" xml:"FchHasta"`
}

type IvaTipoResult struct {
	ResultGet *IvaTipoList `json:"ResultGet,omitempty" xml:"ResultGet,omitempty"`
	Errors    *ErrorList   `json:"Errors,omitempty" xml:"Errors,omitempty"`
	Events    *EventList   `json:"Events,omitempty" xml:"Events,omitempty"`
}

type IvaTipoList struct {
	IvaTipo []IvaTipo `json:"IvaTipo" xml:"IvaTipo"`
}

type Moneda struct {
	Id       string `json:"Id" xml:"Id"`
	Desc     string `json:"Desc" xml:"Desc"`
	FchDesde string `json:"FchDesde" xml:"FchDesde"`
	FchHasta string `json:"FchHasta" xml:"FchHasta"`
}

type MonedaResult struct {
	ResultGet *MonedaList `json:"ResultGet,omitempty" xml:"ResultGet,omitempty"`
	Errors    *ErrorList  `json:"Errors,omitempty" xml:"Errors,omitempty"`
	Events    *EventList  `json:"Events,omitempty" xml:"Events,omitempty"`
}

type MonedaList struct {
	Moneda []Moneda `json:"Moneda" xml:"Moneda"`
}

type OpcionalTipo struct {
	Id       string `json:"Id" xml:"Id"`
	Desc     string `json:"Desc" xml:"Desc"`
	FchDesde string `json:"FchDesde" xml:"FchDesde"`
	FchHasta string `json:"FchHasta" xml:"FchHasta"`
}

type OpcionalTipoResult struct {
	ResultGet *OpcionalTipoList `json:"ResultGet,omitempty" xml:"ResultGet,omitempty"`
	Errors    *ErrorList        `json:"Errors,omitempty" xml:"Errors,omitempty"`
	Events    *EventList        `json:"Events,omitempty" xml:"Events,omitempty"`
}

type OpcionalTipoList struct {
	OpcionalTipo []OpcionalTipo `json:"OpcionalTipo" xml:"OpcionalTipo"`
}

type TributoTipo struct {
	Id       int    `json:"Id" xml:"Id"`
	Desc     string `json:"Desc" xml:"Desc"`
	FchDesde string `json:"FchDesde" xml:"FchDesde"`
	FchHasta string `json:"FchHasta" xml:"FchHasta"`
}

type TributoTipoResult struct {
	ResultGet *TributoTipoList `json:"ResultGet,omitempty" xml:"ResultGet,omitempty"`
	Errors    *ErrorList       `json:"Errors,omitempty" xml:"Errors,omitempty"`
	Events    *EventList       `json:"Events,omitempty" xml:"Events,omitempty"`
}

type TributoTipoList struct {
	TributoTipo []TributoTipo `json:"TributoTipo" xml:"TributoTipo"`
}

type PaisTipo struct {
	Id   int    `json:"Id" xml:"Id"`
	Desc string `json:"Desc" xml:"Desc"`
}

type PaisTipoResult struct {
	ResultGet *PaisTipoList `json:"ResultGet,omitempty" xml:"ResultGet,omitempty"`
	Errors    *ErrorList    `json:"Errors,omitempty" xml:"Errors,omitempty"`
	Events    *EventList    `json:"Events,omitempty" xml:"Events,omitempty"`
}

type PaisTipoList struct {
	PaisTipo []PaisTipo `json:"PaisTipo" xml:"PaisTipo"`
}

type CondicionIvaReceptor struct {
	Id       int    `json:"Id" xml:"Id"`
	Desc     string `json:"Desc" xml:"Desc"`
	CmpClase string `json:"Cmp_Clase" xml:"Cmp_Clase"`
}

type CondicionIvaReceptorResult struct {
	ResultGet *CondicionIvaReceptorList `json:"ResultGet,omitempty" xml:"ResultGet,omitempty"`
	Errors    *ErrorList                `json:"Errors,omitempty" xml:"Errors,omitempty"`
	Events    *EventList                `json:"Events,omitempty" xml:"Events,omitempty"`
}

type CondicionIvaReceptorList struct {
	CondicionIvaReceptor []CondicionIvaReceptor `json:"CondicionIvaReceptor" xml:"CondicionIvaReceptor"`
}

type PtoVenta struct {
	Nro         int    `json:"Nro" xml:"Nro"`
	EmisionTipo string `json:"EmisionTipo" xml:"EmisionTipo"`
	Bloqueado   string `json:"Bloqueado" xml:"Bloqueado"`
	FchBaja     string `json:"FchBaja" xml:"FchBaja"`
}

type PtoVentaResult struct {
	ResultGet *PtoVentaList `json:"ResultGet,omitempty" xml:"ResultGet,omitempty"`
	Errors    *ErrorList    `json:"Errors,omitempty" xml:"Errors,omitempty"`
	Events    *EventList    `json:"Events,omitempty" xml:"Events,omitempty"`
}

type PtoVentaList struct {
	PtoVenta []PtoVenta `json:"PtoVenta" xml:"PtoVenta"`
}

type ActividadesTipo struct {
	Id    int64  `json:"Id" xml:"Id"`
	Orden int    `json:"Orden" xml:"Orden"`
	Desc  string `json:"Desc" xml:"Desc"`
}

type ActividadesResult struct {
	ResultGet *ActividadesTipoList `json:"ResultGet,omitempty" xml:"ResultGet,omitempty"`
	Errors    *ErrorList           `json:"Errors,omitempty" xml:"Errors,omitempty"`
	Events    *EventList           `json:"Events,omitempty" xml:"Events,omitempty"`
}

type ActividadesTipoList struct {
	ActividadesTipo []ActividadesTipo `json:"ActividadesTipo" xml:"ActividadesTipo"`
}

// Cotizacion's ResultGet is a single object, not a list.
type Cotizacion struct {
	MonId    string  `json:"MonId" xml:"MonId"`
	MonCotiz float64 `json:"MonCotiz" xml:"MonCotiz"`
	FchCotiz string  `json:"FchCotiz" xml:"FchCotiz"`
}

type CotizacionResult struct {
	ResultGet *Cotizacion `json:"ResultGet,omitempty" xml:"ResultGet,omitempty"`
	Errors    *ErrorList  `json:"Errors,omitempty" xml:"Errors,omitempty"`
	Events    *EventList  `json:"Events,omitempty" xml:"Events,omitempty"`
}

// ============================================================================
// FEDummy / WSPCI
// ============================================================================

type DummyResult struct {
	AppServer  string `json:"AppServer" xml:"AppServer"`
	DbServer   string `json:"DbServer" xml:"DbServer"`
	AuthServer string `json:"AuthServer" xml:"AuthServer"`
}

// WSPCIDummyResult uses the padron service's lowercase element names.
type WSPCIDummyResult struct {
	Appserver  string `json:"appserver" xml:"appserver"`
	Authserver string `json:"authserver" xml:"authserver"`
	Dbserver   string `json:"dbserver" xml:"dbserver"`
}

// PersonaReturn is the A5 padron answer. Only the blocks the relay's
// consumers read are mapped; AFIP pads the rest with nils anyway.
type PersonaReturn struct {
	Metadata            *PersonaMetadata     `json:"metadata,omitempty" xml:"metadata,omitempty"`
	DatosGenerales      *DatosGenerales      `json:"datosGenerales,omitempty" xml:"datosGenerales,omitempty"`
	DatosMonotributo    *DatosMonotributo    `json:"datosMonotributo,omitempty" xml:"datosMonotributo,omitempty"`
	DatosRegimenGeneral *DatosRegimenGeneral `json:"datosRegimenGeneral,omitempty" xml:"datosRegimenGeneral,omitempty"`
	ErrorConstancia     *ErrorConstancia     `json:"errorConstancia,omitempty" xml:"errorConstancia,omitempty"`
}

type PersonaMetadata struct {
	FechaHora string `json:"fechaHora" xml:"fechaHora"`
	Servidor  string `json:"servidor" xml:"servidor"`
}

type DatosGenerales struct {
	IdPersona       int64      `json:"idPersona" xml:"idPersona"`
	TipoPersona     string     `json:"tipoPersona" xml:"tipoPersona"`
	TipoClave       string     `json:"tipoClave" xml:"tipoClave"`
	EstadoClave     string     `json:"estadoClave" xml:"estadoClave"`
	Apellido        string     `json:"apellido,omitempty" xml:"apellido,omitempty"`
	Nombre          string     `json:"nombre,omitempty" xml:"nombre,omitempty"`
	RazonSocial     string     `json:"razonSocial,omitempty" xml:"razonSocial,omitempty"`
	MesCierre       int        `json:"mesCierre,omitempty" xml:"mesCierre,omitempty"`
	DomicilioFiscal *Domicilio `json:"domicilioFiscal,omitempty" xml:"domicilioFiscal,omitempty"`
}

type Domicilio struct {
	CodPostal            string `json:"codPostal,omitempty" xml:"codPostal,omitempty"`
	DescripcionProvincia string `json:"descripcionProvincia,omitempty" xml:"descripcionProvincia,omitempty"`
	Direccion            string `json:"direccion,omitempty" xml:"direccion,omitempty"`
	IdProvincia          int    `json:"idProvincia,omitempty" xml:"idProvincia,omitempty"`
	TipoDomicilio        string `json:"tipoDomicilio,omitempty" xml:"tipoDomicilio,omitempty"`
}

type DatosMonotributo struct {
	CategoriaMonotributo    *CategoriaMonotributo `json:"categoriaMonotributo,omitempty" xml:"categoriaMonotributo,omitempty"`
	ActividadMonotributista []PersonaActividad    `json:"actividadMonotributista,omitempty" xml:"actividadMonotributista,omitempty"`
	Impuesto                []PersonaImpuesto     `json:"impuesto,omitempty" xml:"impuesto,omitempty"`
}

type CategoriaMonotributo struct {
	DescripcionCategoria string `json:"descripcionCategoria" xml:"descripcionCategoria"`
	IdCategoria          int    `json:"idCategoria" xml:"idCategoria"`
}

type DatosRegimenGeneral struct {
	Actividad []PersonaActividad `json:"actividad,omitempty" xml:"actividad,omitempty"`
	Impuesto  []PersonaImpuesto  `json:"impuesto,omitempty" xml:"impuesto,omitempty"`
	Regimen   []PersonaRegimen   `json:"regimen,omitempty" xml:"regimen,omitempty"`
}

type PersonaActividad struct {
	DescripcionActividad string `json:"descripcionActividad" xml:"descripcionActividad"`
	IdActividad          int64  `json:"idActividad" xml:"idActividad"`
	Nomenclador          int    `json:"nomenclador,omitempty" xml:"nomenclador,omitempty"`
	Orden                int    `json:"orden,omitempty" xml:"orden,omitempty"`
	Periodo              int    `json:"periodo,omitempty" xml:"periodo,omitempty"`
}

type PersonaImpuesto struct {
	DescripcionImpuesto string `json:"descripcionImpuesto" xml:"descripcionImpuesto"`
	IdImpuesto          int    `json:"idImpuesto" xml:"idImpuesto"`
	Periodo             int    `json:"periodo,omitempty" xml:"periodo,omitempty"`
}

type PersonaRegimen struct {
	DescripcionRegimen string `json:"descripcionRegimen" xml:"descripcionRegimen"`
	IdRegimen          int    `json:"idRegimen" xml:"idRegimen"`
	TipoRegimen        string `json:"tipoRegimen,omitempty" xml:"tipoRegimen,omitempty"`
	Periodo            int    `json:"periodo,omitempty" xml:"periodo,omitempty"`
}

type ErrorConstancia struct {
	IdPersona int64    `json:"idPersona" xml:"idPersona"`
	Apellido  string   `json:"apellido,omitempty" xml:"apellido,omitempty"`
	Nombre    string   `json:"nombre,omitempty" xml:"nombre,omitempty"`
	Error     []string `json:"error,omitempty" xml:"error,omitempty"`
}
