package afip

import (
	"math"
	"regexp"

	"github.com/go-playground/validator/v10"
)

var dateYYYYMMDD = regexp.MustCompile(`^\d{8}$`)

// FieldError is one entry of the 422 response body
// {"detail":[{"field":..., "message":...}]}.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Used directly on fields such as CotizacionRequest.FchCotiz.
	_ = v.RegisterValidation("yyyymmdd", func(fl validator.FieldLevel) bool {
		return dateYYYYMMDD.MatchString(fl.Field().String())
	})
	v.RegisterStructValidation(validateInvoiceDetail, FECAEDetRequest{})
	v.RegisterStructValidation(validateCabMatchesDetail, FeCAEReq{})
	return v
}

// Validate runs tag and struct-level rules over a request payload and
// flattens the outcome into the wire-ready field error list. A nil return
// means the payload passed.
func Validate(payload any) []FieldError {
	err := validate.Struct(payload)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []FieldError{{Field: "request", Message: err.Error()}}
	}
	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{Field: fe.Field(), Message: messageFor(fe)})
	}
	return out
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "yyyymmdd":
		return fe.Field() + " must use yyyymmdd format"
	case "cbte_range":
		return "CbteDesde must be less than or equal to CbteHasta"
	case "service_dates":
		return "Concepto 2 or 3 requires FchServDesde, FchServHasta and FchVtoPago"
	case "imp_total":
		return "ImpTotal must equal ImpTotConc + ImpNeto + ImpOpEx + ImpTrib + ImpIVA"
	case "mon_cotiz_pes":
		return "MonCotiz must be 1 for MonId PES"
	case "mon_cotiz_foreign":
		return "MonCotiz must be greater than 0 when MonId is not PES"
	case "cant_reg":
		return "FeCabReq.CantReg must match FECAEDetRequest size"
	case "required":
		return fe.Field() + " is required"
	case "gt":
		return fe.Field() + " must be greater than " + fe.Param()
	case "min":
		return fe.Field() + " must contain at least " + fe.Param() + " item"
	case "oneof":
		return fe.Field() + " must be one of " + fe.Param()
	default:
		return fe.Field() + " failed " + fe.Tag() + " validation"
	}
}

// validateInvoiceDetail carries the business rules AFIP rejects with cryptic
// codes, so callers get a readable 422 before the SOAP round trip.
func validateInvoiceDetail(sl validator.StructLevel) {
	det := sl.Current().Interface().(FECAEDetRequest)

	checkDate := func(field, value string) {
		if !dateYYYYMMDD.MatchString(value) {
			sl.ReportError(value, field, field, "yyyymmdd", "")
		}
	}
	checkDate("CbteFch", det.CbteFch)
	if det.FchServDesde != "" {
		checkDate("FchServDesde", det.FchServDesde)
	}
	if det.FchServHasta != "" {
		checkDate("FchServHasta", det.FchServHasta)
	}
	if det.FchVtoPago != "" {
		checkDate("FchVtoPago", det.FchVtoPago)
	}

	if det.CbteDesde > det.CbteHasta {
		sl.ReportError(det.CbteDesde, "CbteDesde", "CbteDesde", "cbte_range", "")
	}

	if det.Concepto == 2 || det.Concepto == 3 {
		if det.FchServDesde == "" || det.FchServHasta == "" || det.FchVtoPago == "" {
			sl.ReportError(det.Concepto, "Concepto", "Concepto", "service_dates", "")
		}
	}

	expected := det.ImpTotConc + det.ImpNeto + det.ImpOpEx + det.ImpTrib + det.ImpIVA
	if math.Abs(det.ImpTotal-expected) > 0.01 {
		sl.ReportError(det.ImpTotal, "ImpTotal", "ImpTotal", "imp_total", "")
	}

	cotiz := 0.0
	if det.MonCotiz != nil {
		cotiz = *det.MonCotiz
	}
	if det.MonId == "PES" {
		if math.Abs(cotiz-1.0) > 0.0001 {
			sl.ReportError(cotiz, "MonCotiz", "MonCotiz", "mon_cotiz_pes", "")
		}
	} else if cotiz <= 0 {
		sl.ReportError(cotiz, "MonCotiz", "MonCotiz", "mon_cotiz_foreign", "")
	}
}

func validateCabMatchesDetail(sl validator.StructLevel) {
	req := sl.Current().Interface().(FeCAEReq)
	if req.FeCabReq.CantReg != len(req.FeDetReq.FECAEDetRequest) {
		sl.ReportError(req.FeCabReq.CantReg, "CantReg", "CantReg", "cant_reg", "")
	}
}
