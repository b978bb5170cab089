package handlers

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/afrelay/afrelay/internal/service"
)

// GetPersona looks a taxpayer up in the padron A5 registry.
func GetPersona(svc *service.WSPCI, logger *logrus.Logger) http.HandlerFunc {
	return relay(logger, "Received request to query persona at /wspci/persona",
		"getPersona", svc.GetPersona)
}
