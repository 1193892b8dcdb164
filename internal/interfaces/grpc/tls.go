package grpc_interface

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"
)

const certValidity = 14 * 30 * 24 * time.Hour

// generateTLSKeyPair creates a self-signed certificate and its private key in
// the given directory, unless they exist already. The certificate is valid
// for localhost plus the given extra ips and domains.
func generateTLSKeyPair(
	location string, extraIPs, extraDomains []string,
) error {
	keyPath := filepath.Join(location, tlsKeyFile)
	certPath := filepath.Join(location, tlsCertFile)
	if fileExists(keyPath) && fileExists(certPath) {
		return nil
	}

	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return err
	}
	serialNumber, err := rand.Int(rand.Reader, serialNumberLimit)
	if err != nil {
		return err
	}

	ips := []net.IP{net.ParseIP("127.0.0.1"), net.IPv6loopback}
	for _, ip := range extraIPs {
		parsed := net.ParseIP(ip)
		if parsed == nil {
			return fmt.Errorf("invalid extra ip %s", ip)
		}
		ips = append(ips, parsed)
	}
	hostname, _ := os.Hostname()
	domains := []string{"localhost"}
	if hostname != "" {
		domains = append(domains, hostname)
	}
	domains = append(domains, extraDomains...)

	now := time.Now()
	template := x509.Certificate{
		SerialNumber: serialNumber,
		Subject: pkix.Name{
			Organization: []string{"coinpayd autogenerated cert"},
			CommonName:   domains[0],
		},
		NotBefore:             now.Add(-time.Hour),
		NotAfter:              now.Add(certValidity),
		KeyUsage:              x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		IsCA:                  true,
		BasicConstraintsValid: true,
		DNSNames:              domains,
		IPAddresses:           ips,
	}

	certDer, err := x509.CreateCertificate(
		rand.Reader, &template, &template, &priv.PublicKey, priv,
	)
	if err != nil {
		return err
	}
	keyDer, err := x509.MarshalECPrivateKey(priv)
	if err != nil {
		return err
	}

	if err := writePem(certPath, "CERTIFICATE", certDer, 0644); err != nil {
		return err
	}
	return writePem(keyPath, "EC PRIVATE KEY", keyDer, 0600)
}

func writePem(path, blockType string, data []byte, mode os.FileMode) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	defer f.Close()
	return pem.Encode(f, &pem.Block{Type: blockType, Bytes: data})
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
