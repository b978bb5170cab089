package soap

import (
	"net/http"
	"sync"
)

const (
	wsaaHomoURL  = "https://wsaahomo.afip.gov.ar/ws/services/LoginCms"
	wsaaProdURL  = "https://wsaa.afip.gov.ar/ws/services/LoginCms"
	wsfeHomoURL  = "https://wswhomo.afip.gov.ar/wsfev1/service.asmx"
	wsfeProdURL  = "https://servicios1.afip.gov.ar/wsfev1/service.asmx"
	wspciHomoURL = "https://awshomo.afip.gov.ar/sr-padron/webservices/personaServiceA5"
	wspciProdURL = "https://aws.afip.gov.ar/sr-padron/webservices/personaServiceA5"
)

// Endpoints carries the per-service URLs. Each service switches between
// homologation and production on its own flag; mixed setups are common while
// certifying.
type Endpoints struct {
	WSAA  string
	WSFE  string
	WSPCI string
}

func EndpointsFromFlags(wsaaProd, wsfeProd, wspciProd bool) Endpoints {
	e := Endpoints{WSAA: wsaaHomoURL, WSFE: wsfeHomoURL, WSPCI: wspciHomoURL}
	if wsaaProd {
		e.WSAA = wsaaProdURL
	}
	if wsfeProd {
		e.WSFE = wsfeProdURL
	}
	if wspciProd {
		e.WSPCI = wspciProdURL
	}
	return e
}

// ClientSet hands out the three service ports, built lazily so that a broken
// endpoint never blocks process start. No package-level state: tests build
// their own set against httptest servers and Rewire/Reset swap live ones.
type ClientSet struct {
	mu        sync.Mutex
	endpoints Endpoints
	transport *Transport
	wsaa      *WSAAClient
	wsfe      *WSFEClient
	wspci     *WSPCIClient
}

func NewClientSet(endpoints Endpoints, httpClient *http.Client) *ClientSet {
	return &ClientSet{endpoints: endpoints, transport: NewTransport(httpClient)}
}

func (s *ClientSet) WSAA() *WSAAClient {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.wsaa == nil {
		s.wsaa = &WSAAClient{transport: s.transport, endpoint: s.endpoints.WSAA}
	}
	return s.wsaa
}

func (s *ClientSet) WSFE() *WSFEClient {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.wsfe == nil {
		s.wsfe = &WSFEClient{transport: s.transport, endpoint: s.endpoints.WSFE}
	}
	return s.wsfe
}

func (s *ClientSet) WSPCI() *WSPCIClient {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.wspci == nil {
		s.wspci = &WSPCIClient{transport: s.transport, endpoint: s.endpoints.WSPCI}
	}
	return s.wspci
}

// Reset drops the cached handles; the next accessor rebuilds them from the
// current endpoints.
func (s *ClientSet) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wsaa, s.wsfe, s.wspci = nil, nil, nil
}

// Rewire points the set somewhere else and drops the cached handles.
func (s *ClientSet) Rewire(endpoints Endpoints, httpClient *http.Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.endpoints = endpoints
	s.transport = NewTransport(httpClient)
	s.wsaa, s.wsfe, s.wspci = nil, nil, nil
}
