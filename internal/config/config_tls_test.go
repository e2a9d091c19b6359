package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// checkValidation asserts err matches wantErr; an empty wantErr means the
// input must validate cleanly.
func checkValidation(t *testing.T, err error, wantErr string) {
	t.Helper()
	if wantErr == "" {
		assert.NoError(t, err)
		return
	}
	assert.Error(t, err)
	assert.Contains(t, err.Error(), wantErr)
}

// TestValidateTLSConfig drives the full validation chain through the public
// entry point: mode, certificate material, duplicate sources, client auth
// policy and minimum version.
func TestValidateTLSConfig(t *testing.T) {
	tests := []struct {
		name    string
		tls     TLSConfig
		wantErr string
	}{
		{
			name: "disabled mode needs nothing",
			tls:  TLSConfig{Mode: "disabled"},
		},
		{
			name: "server mode with files",
			tls: TLSConfig{
				Mode:     "server",
				CertFile: "/etc/jdoptim/cert.pem",
				KeyFile:  "/etc/jdoptim/key.pem",
			},
		},
		{
			name: "server mode with inline content",
			tls: TLSConfig{
				Mode:        "server",
				CertContent: "cert-pem",
				KeyContent:  "key-pem",
			},
		},
		{
			name: "mutual mode with files and policy",
			tls: TLSConfig{
				Mode:             "mutual",
				CertFile:         "/etc/jdoptim/cert.pem",
				KeyFile:          "/etc/jdoptim/key.pem",
				CAFile:           "/etc/jdoptim/ca.pem",
				ClientAuthPolicy: "require",
				MinVersion:       "1.3",
			},
		},
		{
			name:    "unknown mode",
			tls:     TLSConfig{Mode: "tunnel"},
			wantErr: "invalid TLS mode: tunnel",
		},
		{
			name:    "server mode without material",
			tls:     TLSConfig{Mode: "server"},
			wantErr: "TLS certificate and key are required for server mode",
		},
		{
			name: "server mode with key only",
			tls: TLSConfig{
				Mode:    "server",
				KeyFile: "/etc/jdoptim/key.pem",
			},
			wantErr: "TLS certificate and key are required for server mode",
		},
		{
			name: "cert given twice",
			tls: TLSConfig{
				Mode:        "server",
				CertFile:    "/etc/jdoptim/cert.pem",
				CertContent: "cert-pem",
				KeyFile:     "/etc/jdoptim/key.pem",
			},
			wantErr: "cannot specify both certFile and certContent",
		},
		{
			name: "key given twice",
			tls: TLSConfig{
				Mode:       "server",
				CertFile:   "/etc/jdoptim/cert.pem",
				KeyFile:    "/etc/jdoptim/key.pem",
				KeyContent: "key-pem",
			},
			wantErr: "cannot specify both keyFile and keyContent",
		},
		{
			name: "mutual mode without CA",
			tls: TLSConfig{
				Mode:     "mutual",
				CertFile: "/etc/jdoptim/cert.pem",
				KeyFile:  "/etc/jdoptim/key.pem",
			},
			wantErr: "CA certificate is required for mutual TLS mode",
		},
		{
			name: "CA given twice",
			tls: TLSConfig{
				Mode:      "mutual",
				CertFile:  "/etc/jdoptim/cert.pem",
				KeyFile:   "/etc/jdoptim/key.pem",
				CAFile:    "/etc/jdoptim/ca.pem",
				CAContent: "ca-pem",
			},
			wantErr: "cannot specify both caFile and caContent",
		},
		{
			name: "bad client auth policy",
			tls: TLSConfig{
				Mode:             "mutual",
				CertFile:         "/etc/jdoptim/cert.pem",
				KeyFile:          "/etc/jdoptim/key.pem",
				CAFile:           "/etc/jdoptim/ca.pem",
				ClientAuthPolicy: "optional",
			},
			wantErr: "invalid clientAuthPolicy: optional",
		},
		{
			name: "bad minimum version",
			tls: TLSConfig{
				Mode:       "server",
				CertFile:   "/etc/jdoptim/cert.pem",
				KeyFile:    "/etc/jdoptim/key.pem",
				MinVersion: "1.0",
			},
			wantErr: "invalid TLS minVersion: 1.0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{Server: ServerConfig{TLS: tt.tls}}
			checkValidation(t, cfg.ValidateTLSConfig(), tt.wantErr)
		})
	}
}

// Mixed file/content sources for different pieces of material are legal;
// only doubling up the same piece is rejected.
func TestValidateSingleCertSourceMixed(t *testing.T) {
	tls := TLSConfig{
		CertFile:   "/etc/jdoptim/cert.pem",
		KeyContent: "key-pem",
	}
	checkValidation(t, validateSingleCertSource(tls), "")
}

func TestValidateCertAndKeyRequiredNamesMode(t *testing.T) {
	err := validateCertAndKeyRequired(TLSConfig{}, "mutual mode")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "mutual mode")
}

func TestValidateClientAuthPolicy(t *testing.T) {
	for _, policy := range []string{"", "require", "request", "verify"} {
		checkValidation(t, validateClientAuthPolicy(TLSConfig{ClientAuthPolicy: policy}), "")
	}
	checkValidation(t,
		validateClientAuthPolicy(TLSConfig{ClientAuthPolicy: "mandatory"}),
		"must be 'require', 'request', or 'verify'")
}

func TestValidateTLSVersion(t *testing.T) {
	for _, version := range []string{"", "1.2", "1.3"} {
		checkValidation(t, validateTLSVersion(TLSConfig{MinVersion: version}), "")
	}
	for _, version := range []string{"1.1", "ssl3", "latest"} {
		checkValidation(t,
			validateTLSVersion(TLSConfig{MinVersion: version}),
			"must be '1.2' or '1.3'")
	}
}
