package afip

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fptr(v float64) *float64 { return &v }

func baseInvoiceRequest() FECAERequest {
	return FECAERequest{
		Auth: Auth{Cuit: 30740253022},
		FeCAEReq: FeCAEReq{
			FeCabReq: FeCabReq{CantReg: 1, PtoVta: 1, CbteTipo: 11},
			FeDetReq: FeDetReq{
				FECAEDetRequest: []FECAEDetRequest{
					{
						Concepto:               1,
						DocTipo:                99,
						DocNro:                 0,
						CbteDesde:              2,
						CbteHasta:              2,
						CbteFch:                "20260125",
						ImpTotal:               100.0,
						ImpNeto:                100.0,
						MonId:                  "PES",
						MonCotiz:               fptr(1.0),
						CondicionIVAReceptorId: 5,
					},
				},
			},
		},
	}
}

func fieldMessages(errs []FieldError) []string {
	out := make([]string, 0, len(errs))
	for _, e := range errs {
		out = append(out, e.Message)
	}
	return out
}

func TestInvoiceRequestValidBaseCase(t *testing.T) {
	errs := Validate(baseInvoiceRequest())
	require.Empty(t, errs)
}

func TestInvoiceRequestRejectsInvalidDateFormat(t *testing.T) {
	req := baseInvoiceRequest()
	req.FeCAEReq.FeDetReq.FECAEDetRequest[0].CbteFch = "2026-01-25"

	errs := Validate(req)
	require.NotEmpty(t, errs)
	assert.Contains(t, fieldMessages(errs), "CbteFch must use yyyymmdd format")
}

func TestInvoiceRequestRejectsInvalidServiceDates(t *testing.T) {
	req := baseInvoiceRequest()
	req.FeCAEReq.FeDetReq.FECAEDetRequest[0].FchServDesde = "01/01/2026"

	errs := Validate(req)
	require.NotEmpty(t, errs)
	assert.Contains(t, fieldMessages(errs), "FchServDesde must use yyyymmdd format")
}

func TestInvoiceRequestRequiresServiceDatesForConcept2And3(t *testing.T) {
	for _, concepto := range []int{2, 3} {
		req := baseInvoiceRequest()
		req.FeCAEReq.FeDetReq.FECAEDetRequest[0].Concepto = concepto

		errs := Validate(req)
		require.NotEmpty(t, errs)
		assert.Contains(t, fieldMessages(errs),
			"Concepto 2 or 3 requires FchServDesde, FchServHasta and FchVtoPago")
	}
}

func TestInvoiceRequestValidatesCbteRange(t *testing.T) {
	req := baseInvoiceRequest()
	req.FeCAEReq.FeDetReq.FECAEDetRequest[0].CbteDesde = 5
	req.FeCAEReq.FeDetReq.FECAEDetRequest[0].CbteHasta = 4

	errs := Validate(req)
	require.NotEmpty(t, errs)
	assert.Contains(t, fieldMessages(errs), "CbteDesde must be less than or equal to CbteHasta")
}

func TestInvoiceRequestValidatesTotalsConsistency(t *testing.T) {
	req := baseInvoiceRequest()
	req.FeCAEReq.FeDetReq.FECAEDetRequest[0].ImpTotal = 99.0

	errs := Validate(req)
	require.NotEmpty(t, errs)
	assert.Contains(t, fieldMessages(errs),
		"ImpTotal must equal ImpTotConc + ImpNeto + ImpOpEx + ImpTrib + ImpIVA")
}

func TestInvoiceRequestToleratesRoundingOnTotals(t *testing.T) {
	req := baseInvoiceRequest()
	req.FeCAEReq.FeDetReq.FECAEDetRequest[0].ImpTotal = 100.009

	errs := Validate(req)
	assert.Empty(t, errs)
}

func TestInvoiceRequestValidatesCurrencyRules(t *testing.T) {
	req := baseInvoiceRequest()
	req.FeCAEReq.FeDetReq.FECAEDetRequest[0].MonCotiz = fptr(0.5)

	errs := Validate(req)
	require.NotEmpty(t, errs)
	assert.Contains(t, fieldMessages(errs), "MonCotiz must be 1 for MonId PES")

	req = baseInvoiceRequest()
	row := &req.FeCAEReq.FeDetReq.FECAEDetRequest[0]
	row.MonId = "USD"
	row.MonCotiz = fptr(0)

	errs = Validate(req)
	require.NotEmpty(t, errs)
	assert.Contains(t, fieldMessages(errs), "MonCotiz must be greater than 0 when MonId is not PES")

	req = baseInvoiceRequest()
	row = &req.FeCAEReq.FeDetReq.FECAEDetRequest[0]
	row.MonId = "USD"
	row.MonCotiz = nil

	errs = Validate(req)
	require.NotEmpty(t, errs)
	assert.Contains(t, fieldMessages(errs), "MonCotiz must be greater than 0 when MonId is not PES")
}

func TestInvoiceRequestValidatesCantRegMatchesRows(t *testing.T) {
	req := baseInvoiceRequest()
	req.FeCAEReq.FeCabReq.CantReg = 2

	errs := Validate(req)
	require.NotEmpty(t, errs)
	assert.Contains(t, fieldMessages(errs), "FeCabReq.CantReg must match FECAEDetRequest size")
}

func TestInvoiceRequestValidServiceCaseForConcept2(t *testing.T) {
	req := baseInvoiceRequest()
	row := &req.FeCAEReq.FeDetReq.FECAEDetRequest[0]
	row.Concepto = 2
	row.FchServDesde = "20260101"
	row.FchServHasta = "20260131"
	row.FchVtoPago = "20260210"

	errs := Validate(req)
	assert.Empty(t, errs)
}

func TestCotizacionRequestDateGuard(t *testing.T) {
	errs := Validate(CotizacionRequest{Cuit: 30740253022, MonId: "DOL", FchCotiz: "2026-01-25"})
	require.NotEmpty(t, errs)
	assert.Equal(t, "FchCotiz", errs[0].Field)
	assert.Equal(t, "FchCotiz must use yyyymmdd format", errs[0].Message)

	errs = Validate(CotizacionRequest{Cuit: 30740253022, MonId: "DOL", FchCotiz: "20260125"})
	assert.Empty(t, errs)

	errs = Validate(CotizacionRequest{Cuit: 30740253022, MonId: "DOL"})
	assert.Empty(t, errs)
}

func TestQueueRequestValidation(t *testing.T) {
	errs := Validate(CaeaPeriodoOrdenRequest{Cuit: 30740253022, Periodo: 202608, Orden: 3})
	require.NotEmpty(t, errs)
	assert.Equal(t, "Orden", errs[0].Field)

	errs = Validate(CaeaPeriodoOrdenRequest{Cuit: 30740253022, Periodo: 202608, Orden: 2})
	assert.Empty(t, errs)
}
