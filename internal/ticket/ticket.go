// Package ticket drives the WSAA login ticket lifecycle: it builds
// loginTicketRequest documents from AFIP's own clock, CMS-signs them with the
// taxpayer certificate, trades them for loginTicketResponse XML through
// LoginCms and keeps the per-service ticket files fresh.
package ticket

import (
	"context"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/afrelay/afrelay/internal/afiptime"
	"github.com/afrelay/afrelay/internal/clock"
	"github.com/afrelay/afrelay/internal/config"
	"github.com/afrelay/afrelay/internal/credentials"
	"github.com/afrelay/afrelay/internal/signing"
	"github.com/afrelay/afrelay/internal/soap"
)

// WSAA identifies each web service by its own id in the loginTicketRequest
// <service> element; the padrón service does not use the short "wspci" alias
// the relay routes carry.
const wspciLoginService = "ws_sr_constancia_inscripcion"

// TimeSource answers with the (uniqueId, generationTime, expirationTime)
// triple a fresh loginTicketRequest must carry. *afiptime.Source implements
// it against AFIP's NTP server.
type TimeSource interface {
	TicketWindow() (afiptime.TicketWindow, error)
}

// Manager is the single writer of the ticket files. It renews a service's
// ticket when the stored response is missing, corrupt or expiring within the
// configured threshold, and never persists a response it could not parse.
type Manager struct {
	cfg     *config.Config
	cred    *signing.Credential
	source  TimeSource
	clients *soap.ClientSet
	gateway *soap.Gateway
	clock   clock.Clock
	logger  *logrus.Logger

	mu sync.Mutex
}

// NewManager wires the lifecycle manager. A nil clk falls back to the system
// clock and a nil logger discards output, mirroring the gateway defaults.
func NewManager(cfg *config.Config, cred *signing.Credential, source TimeSource, clients *soap.ClientSet, gateway *soap.Gateway, clk clock.Clock, logger *logrus.Logger) *Manager {
	if clk == nil {
		clk = clock.System()
	}
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	return &Manager{
		cfg:     cfg,
		cred:    cred,
		source:  source,
		clients: clients,
		gateway: gateway,
		clock:   clk,
		logger:  logger,
	}
}

type ltrHeader struct {
	UniqueID       string `xml:"uniqueId"`
	GenerationTime string `xml:"generationTime"`
	ExpirationTime string `xml:"expirationTime"`
}

type loginTicketRequest struct {
	XMLName xml.Name  `xml:"loginTicketRequest"`
	Version string    `xml:"version,attr"`
	Header  ltrHeader `xml:"header"`
	Service string    `xml:"service"`
}

// EnsureTicket returns the (token, sign) pair for service, renewing first
// when the stored ticket is missing or expiring within the service's
// renew-before threshold. The fast path is a plain file read so proxied
// calls pay no NTP or WSAA round trip while the ticket is healthy.
func (m *Manager) EnsureTicket(ctx context.Context, service string) (token, sign string, err error) {
	threshold := m.renewBefore(service)

	if ticket := m.freshTicket(service, threshold); ticket != nil {
		return ticket.Token, ticket.Sign, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Another caller may have renewed while we waited for the lock.
	if ticket := m.freshTicket(service, threshold); ticket != nil {
		return ticket.Token, ticket.Sign, nil
	}

	ticket, err := m.renewLocked(ctx, service)
	if err != nil {
		return "", "", err
	}
	return ticket.Token, ticket.Sign, nil
}

// Renew forces a full renewal for service regardless of the stored ticket's
// state. The /wsaa/token and /wspci/token endpoints call this directly.
func (m *Manager) Renew(ctx context.Context, service string) (*credentials.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.renewLocked(ctx, service)
}

// WatchdogPass is the scheduler entry point: renew when expiring soon, log
// and skip otherwise.
func (m *Manager) WatchdogPass(ctx context.Context, service string) error {
	threshold := m.renewBefore(service)
	if ticket := m.freshTicket(service, threshold); ticket != nil {
		m.logger.WithFields(logrus.Fields{
			"service": service,
			"expires": ticket.ExpirationTime.UTC().Format(time.RFC3339),
		}).Debug("Ticket still valid, watchdog skipping renewal")
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if ticket := m.freshTicket(service, threshold); ticket != nil {
		return nil
	}
	_, err := m.renewLocked(ctx, service)
	return err
}

func (m *Manager) freshTicket(service string, threshold time.Duration) *credentials.Ticket {
	ticket, err := credentials.ReadFile(m.cfg.TicketResponsePath(service))
	if err != nil {
		return nil
	}
	if ticket.ExpiringSoon(m.clock.Now(), threshold) {
		return nil
	}
	return ticket
}

func (m *Manager) renewBefore(service string) time.Duration {
	minutes := m.cfg.Tickets.WSFERenewBeforeMinutes
	if service == soap.ServiceWSPCI {
		minutes = m.cfg.Tickets.WSPCIRenewBeforeMinutes
	}
	if minutes <= 0 {
		minutes = 15
	}
	return time.Duration(minutes) * time.Minute
}

func (m *Manager) renewLocked(ctx context.Context, service string) (*credentials.Ticket, error) {
	loginService, err := loginServiceID(service)
	if err != nil {
		return nil, err
	}

	window, err := m.source.TicketWindow()
	if err != nil {
		return nil, fmt.Errorf("obtain ticket window: %w", err)
	}

	request, err := renderLoginTicketRequest(window, loginService)
	if err != nil {
		return nil, err
	}
	if err := m.writeArtifact(m.requestPath(service), request); err != nil {
		return nil, fmt.Errorf("persist loginTicketRequest: %w", err)
	}

	der, err := signing.SignCMS(request, m.cred)
	if err != nil {
		return nil, fmt.Errorf("sign loginTicketRequest: %w", err)
	}
	if err := m.writeArtifact(m.cmsPath(service), der); err != nil {
		return nil, fmt.Errorf("persist signed CMS: %w", err)
	}

	b64 := base64.StdEncoding.EncodeToString(der)
	raw, err := soap.Call(ctx, m.gateway, soap.ServiceWSAA, "LoginCms", func(ctx context.Context) (string, error) {
		return m.clients.WSAA().LoginCms(ctx, b64)
	})
	if err != nil {
		return nil, err
	}

	// Parse before persisting so a malformed response never replaces a
	// still-usable ticket file.
	ticket, err := credentials.Parse([]byte(raw))
	if err != nil {
		return nil, err
	}
	if err := credentials.WriteAtomic(m.cfg.TicketResponsePath(service), []byte(raw)); err != nil {
		return nil, fmt.Errorf("persist loginTicketResponse: %w", err)
	}

	m.logger.WithFields(logrus.Fields{
		"service": service,
		"expires": ticket.ExpirationTime.UTC().Format(time.RFC3339),
	}).Info("Ticket renewed")
	return ticket, nil
}

func (m *Manager) requestPath(service string) string {
	name := "loginTicketRequest.xml"
	if service == soap.ServiceWSPCI {
		name = "wspci_loginTicketRequest.xml"
	}
	return filepath.Join(m.cfg.Tickets.XMLDir, name)
}

func (m *Manager) cmsPath(service string) string {
	name := "loginTicketRequest.xml.cms"
	if service == soap.ServiceWSPCI {
		name = "wspci_loginTicketRequest.xml.cms"
	}
	return filepath.Join(m.cfg.Tickets.CryptoDir, name)
}

func (m *Manager) writeArtifact(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func loginServiceID(service string) (string, error) {
	switch service {
	case soap.ServiceWSFE:
		return "wsfe", nil
	case soap.ServiceWSPCI:
		return wspciLoginService, nil
	default:
		return "", fmt.Errorf("unknown AFIP service %q", service)
	}
}

// renderLoginTicketRequest produces the XML document WSAA signs off on:
//
//	<loginTicketRequest version="1.0">
//	  <header><uniqueId/><generationTime/><expirationTime/></header>
//	  <service>wsfe</service>
//	</loginTicketRequest>
func renderLoginTicketRequest(window afiptime.TicketWindow, service string) ([]byte, error) {
	doc := loginTicketRequest{
		Version: "1.0",
		Header: ltrHeader{
			UniqueID:       strconv.FormatInt(window.UniqueID, 10),
			GenerationTime: window.GenerationString(),
			ExpirationTime: window.ExpirationString(),
		},
		Service: service,
	}

	body, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("render loginTicketRequest: %w", err)
	}
	return append([]byte(xml.Header), body...), nil
}
