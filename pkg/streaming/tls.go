package streaming

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/Goden-Gun/balthazar/pkg/config"
)

// newTLSConfig builds a client TLS configuration from base64 encoded PEM
// blocks.
func newTLSConfig(key, cert, ca config.Secret) (*tls.Config, error) {
	keyPEM, err := decodePEM("KAFKA_KEY", key)
	if err != nil {
		return nil, err
	}
	certPEM, err := decodePEM("KAFKA_CERT", cert)
	if err != nil {
		return nil, err
	}
	caPEM, err := decodePEM("KAFKA_CA", ca)
	if err != nil {
		return nil, err
	}

	pair, err := tls.X509KeyPair(certPEM, keyPEM)
	if err != nil {
		return nil, fmt.Errorf("load kafka client certificate: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(caPEM) {
		return nil, errors.New("KAFKA_CA contains no PEM certificates")
	}
	return &tls.Config{
		MinVersion:   tls.VersionTLS12,
		Certificates: []tls.Certificate{pair},
		RootCAs:      pool,
	}, nil
}

func decodePEM(name string, value config.Secret) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(value.Reveal())
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	return raw, nil
}
