package soap

import (
	"context"
	"encoding/xml"
)

const wsaaNamespace = "http://wsaa.view.sua.dvadac.desein.afip.gov"

// WSAAClient talks to the authentication service. Its single operation trades
// a signed access ticket request for the login ticket XML.
type WSAAClient struct {
	transport *Transport
	endpoint  string
}

type loginCmsOp struct {
	XMLName xml.Name `xml:"wsaa:loginCms"`
	NS      string   `xml:"xmlns:wsaa,attr"`
	In0     string   `xml:"wsaa:in0"`
}

// LoginCms sends the base64 CMS and returns the raw loginTicketResponse XML.
func (c *WSAAClient) LoginCms(ctx context.Context, cms string) (string, error) {
	body, err := requestBody(loginCmsOp{NS: wsaaNamespace, In0: cms})
	if err != nil {
		return "", err
	}
	raw, err := c.transport.Post(ctx, c.endpoint, "", body)
	if err != nil {
		return "", err
	}
	var ticket string
	if err := decodeResultElement(raw, "loginCmsReturn", &ticket); err != nil {
		return "", err
	}
	return ticket, nil
}
