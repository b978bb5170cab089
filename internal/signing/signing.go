// Package signing produces the CMS (PKCS#7) payload WSAA's LoginCms expects:
// the loginTicketRequest XML wrapped in a DER SignedData structure with the
// content embedded (non-detached), signed with the taxpayer certificate.
package signing

import (
	"crypto"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"

	"go.mozilla.org/pkcs7"
	"golang.org/x/crypto/pkcs12"

	"github.com/afrelay/afrelay/internal/config"
)

var errNoPEMBlock = errors.New("no PEM block found")

// Credential is the taxpayer certificate and its private key.
type Credential struct {
	Certificate *x509.Certificate
	PrivateKey  crypto.PrivateKey
}

// Load resolves the credential from the tickets config: a PKCS#12 bundle
// when p12_path is set, PEM certificate + key files otherwise.
func Load(cfg config.TicketsConfig) (*Credential, error) {
	if cfg.P12Path != "" {
		return LoadPKCS12(cfg.P12Path, cfg.P12Password)
	}
	return LoadPEM(cfg.CertPath, cfg.KeyPath)
}

// LoadPEM reads a PEM certificate and a PEM private key (PKCS#1, PKCS#8 or
// SEC1 EC) from separate files.
func LoadPEM(certPath, keyPath string) (*Credential, error) {
	certData, err := os.ReadFile(certPath)
	if err != nil {
		return nil, fmt.Errorf("read certificate: %w", err)
	}
	cert, err := parseCertificatePEM(certData)
	if err != nil {
		return nil, fmt.Errorf("parse certificate %s: %w", certPath, err)
	}

	keyData, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, fmt.Errorf("read private key: %w", err)
	}
	key, err := parsePrivateKeyPEM(keyData)
	if err != nil {
		return nil, fmt.Errorf("parse private key %s: %w", keyPath, err)
	}

	return &Credential{Certificate: cert, PrivateKey: key}, nil
}

// LoadPKCS12 reads a .p12 bundle holding both the certificate and the key.
func LoadPKCS12(path, password string) (*Credential, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read p12 bundle: %w", err)
	}

	key, cert, err := pkcs12.Decode(data, password)
	if err != nil {
		return nil, fmt.Errorf("decode p12 bundle %s: %w", path, err)
	}

	return &Credential{Certificate: cert, PrivateKey: key}, nil
}

// SignCMS wraps data in a DER SignedData with embedded content, mirroring
// `openssl cms -sign -nodetach -outform DER`.
func SignCMS(data []byte, cred *Credential) ([]byte, error) {
	signed, err := pkcs7.NewSignedData(data)
	if err != nil {
		return nil, fmt.Errorf("init signed data: %w", err)
	}
	signed.SetDigestAlgorithm(pkcs7.OIDDigestAlgorithmSHA256)

	if err := signed.AddSigner(cred.Certificate, cred.PrivateKey, pkcs7.SignerInfoConfig{}); err != nil {
		return nil, fmt.Errorf("add signer: %w", err)
	}

	der, err := signed.Finish()
	if err != nil {
		return nil, fmt.Errorf("finish signed data: %w", err)
	}
	return der, nil
}

func parseCertificatePEM(data []byte) (*x509.Certificate, error) {
	for block, rest := pem.Decode(data); block != nil; block, rest = pem.Decode(rest) {
		if block.Type == "CERTIFICATE" {
			return x509.ParseCertificate(block.Bytes)
		}
	}
	return nil, errNoPEMBlock
}

func parsePrivateKeyPEM(data []byte) (crypto.PrivateKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, errNoPEMBlock
	}

	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}
	if key, err := x509.ParsePKCS8PrivateKey(block.Bytes); err == nil {
		return key, nil
	}
	if key, err := x509.ParseECPrivateKey(block.Bytes); err == nil {
		return key, nil
	}
	return nil, errors.New("unsupported private key format")
}
