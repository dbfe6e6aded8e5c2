package tlsroots

import (
	"crypto/tls"
	"encoding/pem"
	"errors"
	"fmt"
	"os"

	"golang.org/x/crypto/pkcs12"
)

var (
	// ErrNoIdentity is returned when no identity source is configured.
	ErrNoIdentity = errors.New("tlsroots: no identity configured")
)

// Source loads a listener identity and names the files it depends on.
type Source interface {
	Load() (tls.Certificate, error)
	Files() []string
}

// PKCS12File is a password-protected PKCS#12 bundle holding one key and its
// certificate chain.
type PKCS12File struct {
	Path     string
	Password string
}

// Load decodes the bundle.
func (s PKCS12File) Load() (tls.Certificate, error) {
	return LoadPKCS12(s.Path, s.Password)
}

// Files returns the bundle path.
func (s PKCS12File) Files() []string { return []string{s.Path} }

// KeyPairFiles is a PEM certificate chain plus its PEM private key.
type KeyPairFiles struct {
	CertFile string
	KeyFile  string
}

// Load reads both files.
func (s KeyPairFiles) Load() (tls.Certificate, error) {
	cert, err := tls.LoadX509KeyPair(s.CertFile, s.KeyFile)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("tlsroots: load key pair: %w", err)
	}
	return cert, nil
}

// Files returns the certificate and key paths.
func (s KeyPairFiles) Files() []string { return []string{s.CertFile, s.KeyFile} }

// LoadPKCS12 reads a PKCS#12 bundle and converts it to a tls.Certificate.
func LoadPKCS12(path, password string) (tls.Certificate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("tlsroots: read bundle %s: %w", path, err)
	}
	return ParsePKCS12(data, password)
}

// ParsePKCS12 converts DER-encoded PKCS#12 data to a tls.Certificate.
func ParsePKCS12(data []byte, password string) (tls.Certificate, error) {
	blocks, err := pkcs12.ToPEM(data, password)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("tlsroots: decode bundle: %w", err)
	}
	var pemData []byte
	for _, b := range blocks {
		pemData = append(pemData, pem.EncodeToMemory(b)...)
	}
	cert, err := tls.X509KeyPair(pemData, pemData)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("tlsroots: bundle key pair: %w", err)
	}
	return cert, nil
}

// ServerConfig returns a listener config serving the certificate loaded from
// src.
func ServerConfig(src Source) (*tls.Config, error) {
	if src == nil {
		return nil, ErrNoIdentity
	}
	cert, err := src.Load()
	if err != nil {
		return nil, err
	}
	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}, nil
}
