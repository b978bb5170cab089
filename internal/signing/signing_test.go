package signing

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mozilla.org/pkcs7"
)

func selfSignedPEM(t *testing.T) (certPath, keyPath string) {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	template := x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "afrelay-test", Organization: []string{"afrelay"}},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(24 * time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
	}
	der, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	require.NoError(t, err)

	dir := t.TempDir()
	certPath = filepath.Join(dir, "cert.pem")
	keyPath = filepath.Join(dir, "key.pem")

	certOut := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	keyOut := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
	require.NoError(t, os.WriteFile(certPath, certOut, 0o600))
	require.NoError(t, os.WriteFile(keyPath, keyOut, 0o600))
	return certPath, keyPath
}

func TestLoadPEM(t *testing.T) {
	certPath, keyPath := selfSignedPEM(t)

	cred, err := LoadPEM(certPath, keyPath)
	require.NoError(t, err)

	assert.Equal(t, "afrelay-test", cred.Certificate.Subject.CommonName)
	assert.NotNil(t, cred.PrivateKey)
}

func TestLoadPEMMissingFiles(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadPEM(filepath.Join(dir, "cert.pem"), filepath.Join(dir, "key.pem"))

	assert.Error(t, err)
}

func TestLoadPEMRejectsGarbage(t *testing.T) {
	dir := t.TempDir()
	certPath := filepath.Join(dir, "cert.pem")
	keyPath := filepath.Join(dir, "key.pem")
	require.NoError(t, os.WriteFile(certPath, []byte("not pem"), 0o600))
	require.NoError(t, os.WriteFile(keyPath, []byte("not pem"), 0o600))

	_, err := LoadPEM(certPath, keyPath)

	assert.ErrorIs(t, err, errNoPEMBlock)
}

func TestSignCMSEmbedsContent(t *testing.T) {
	certPath, keyPath := selfSignedPEM(t)
	cred, err := LoadPEM(certPath, keyPath)
	require.NoError(t, err)

	payload := []byte(`<loginTicketRequest version="1.0"><header/></loginTicketRequest>`)
	der, err := SignCMS(payload, cred)
	require.NoError(t, err)

	parsed, err := pkcs7.Parse(der)
	require.NoError(t, err)

	// Non-detached: the XML travels inside the SignedData.
	assert.Equal(t, payload, parsed.Content)
	require.Len(t, parsed.Signers, 1)
	assert.NoError(t, parsed.Verify())
}

func TestSignCMSDistinctPayloadsDistinctSignatures(t *testing.T) {
	certPath, keyPath := selfSignedPEM(t)
	cred, err := LoadPEM(certPath, keyPath)
	require.NoError(t, err)

	first, err := SignCMS([]byte("payload-a"), cred)
	require.NoError(t, err)
	second, err := SignCMS([]byte("payload-b"), cred)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}
