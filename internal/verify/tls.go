// internal/verify/tls.go
package verify

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
)

// Trust labels reported by the admin connection test.
const (
	TrustInsecure  = "INSECURE"
	TrustCustomCA  = "CUSTOM_CA"
	TrustDefaultCA = "DEFAULT_CA"
)

// TLSConfig builds the connection policy for one outbound call. Insecure
// mode wins over a pinned CA; with neither set, nil selects the platform
// trust store. The returned config is scoped to a single transport; the
// process-wide TLS state is never touched, so tenants with contradictory
// trust settings cannot leak into each other.
func TLSConfig(caFile string, insecure bool) (*tls.Config, error) {
	if insecure {
		return &tls.Config{InsecureSkipVerify: true}, nil
	}
	if caFile != "" {
		pem, err := os.ReadFile(caFile)
		if err != nil {
			return nil, fmt.Errorf("read ca file: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("ca file %s contains no usable certificates", caFile)
		}
		return &tls.Config{RootCAs: pool}, nil
	}
	return nil, nil
}

// TrustLabel names the policy that TLSConfig would build.
func TrustLabel(caFile string, insecure bool) string {
	switch {
	case insecure:
		return TrustInsecure
	case caFile != "":
		return TrustCustomCA
	default:
		return TrustDefaultCA
	}
}
