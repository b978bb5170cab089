package soap

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultHTTPTimeout = 30 * time.Second

// Transport posts SOAP 1.1 envelopes and classifies the outcome into the
// relay's error taxonomy before any XML payload decoding happens.
type Transport struct {
	client *http.Client
}

func NewTransport(client *http.Client) *Transport {
	if client == nil {
		client = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &Transport{client: client}
}

type faultEnvelope struct {
	XMLName xml.Name `xml:"Envelope"`
	Fault   struct {
		Code   string `xml:"faultcode"`
		String string `xml:"faultstring"`
	} `xml:"Body>Fault"`
}

// Post sends one envelope. A SOAP fault in the reply comes back as a
// non-retryable CallError even though AFIP wraps faults in HTTP 500; a non-2xx
// reply without a fault is transport trouble and stays retryable.
func (t *Transport) Post(ctx context.Context, url, soapAction string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, &CallError{Type: ErrTypeUnknown, Detail: err.Error()}
	}
	req.Header.Set("Content-Type", `text/xml; charset="utf-8"`)
	req.Header.Set("SOAPAction", fmt.Sprintf("%q", soapAction))

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, &CallError{Type: ErrTypeNetwork, Detail: err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &CallError{Type: ErrTypeNetwork, Detail: err.Error()}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var fault faultEnvelope
		if xml.Unmarshal(raw, &fault) == nil && fault.Fault.String != "" {
			detail := fault.Fault.String
			if fault.Fault.Code != "" {
				detail = fault.Fault.Code + ": " + detail
			}
			return nil, &CallError{Type: ErrTypeFault, Detail: detail}
		}
		return nil, &CallError{
			Type:   ErrTypeHTTP,
			Detail: fmt.Sprintf("unexpected status %d from %s", resp.StatusCode, url),
		}
	}
	return raw, nil
}

// decodeResultElement walks a 2xx reply until it reaches the named result
// element and unmarshals it. AFIP prefixes vary per service; matching on the
// local name sidesteps that. A missing or broken payload is final.
func decodeResultElement(raw []byte, target string, out any) error {
	dec := xml.NewDecoder(bytes.NewReader(raw))
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return &CallError{
				Type:   ErrTypeInvalidResponse,
				Detail: fmt.Sprintf("element %s not found in response", target),
			}
		}
		if err != nil {
			return &CallError{Type: ErrTypeInvalidResponse, Detail: err.Error()}
		}
		if se, ok := tok.(xml.StartElement); ok && se.Name.Local == target {
			if err := dec.DecodeElement(out, &se); err != nil {
				return &CallError{Type: ErrTypeInvalidResponse, Detail: err.Error()}
			}
			return nil
		}
	}
}

// requestBody wraps one operation element into a SOAP 1.1 envelope.
func requestBody(op any) ([]byte, error) {
	inner, err := xml.Marshal(op)
	if err != nil {
		return nil, &CallError{Type: ErrTypeUnknown, Detail: err.Error()}
	}
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	buf.WriteString(`<soapenv:Envelope xmlns:soapenv="http://schemas.xmlsoap.org/soap/envelope/"><soapenv:Body>`)
	buf.Write(inner)
	buf.WriteString(`</soapenv:Body></soapenv:Envelope>`)
	return buf.Bytes(), nil
}
