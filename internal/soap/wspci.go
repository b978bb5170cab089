package soap

import (
	"context"
	"encoding/xml"

	"github.com/afrelay/afrelay/internal/afip"
)

const wspciNamespace = "http://a5.soap.ws.server.puc.sr/"

// WSPCIClient queries the padron (taxpayer registry) A5 service. Unlike FEV1
// its child elements are unqualified, hence the prefixed operation elements.
type WSPCIClient struct {
	transport *Transport
	endpoint  string
}

type getPersonaOp struct {
	XMLName          xml.Name `xml:"a5:getPersona"`
	NS               string   `xml:"xmlns:a5,attr"`
	Token            string   `xml:"token"`
	Sign             string   `xml:"sign"`
	CuitRepresentada int64    `xml:"cuitRepresentada"`
	IdPersona        int64    `xml:"idPersona"`
}

func (c *WSPCIClient) GetPersona(ctx context.Context, token, sign string, cuitRepresentada, idPersona int64) (*afip.PersonaReturn, error) {
	op := getPersonaOp{
		NS:               wspciNamespace,
		Token:            token,
		Sign:             sign,
		CuitRepresentada: cuitRepresentada,
		IdPersona:        idPersona,
	}
	body, err := requestBody(op)
	if err != nil {
		return nil, err
	}
	raw, err := c.transport.Post(ctx, c.endpoint, "", body)
	if err != nil {
		return nil, err
	}
	var out afip.PersonaReturn
	if err := decodeResultElement(raw, "personaReturn", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type wspciDummyOp struct {
	XMLName xml.Name `xml:"a5:dummy"`
	NS      string   `xml:"xmlns:a5,attr"`
}

func (c *WSPCIClient) Dummy(ctx context.Context) (*afip.WSPCIDummyResult, error) {
	body, err := requestBody(wspciDummyOp{NS: wspciNamespace})
	if err != nil {
		return nil, err
	}
	raw, err := c.transport.Post(ctx, c.endpoint, "", body)
	if err != nil {
		return nil, err
	}
	var out afip.WSPCIDummyResult
	if err := decodeResultElement(raw, "return", &out); err != nil {
		return nil, err
	}
	return &out, nil
}
