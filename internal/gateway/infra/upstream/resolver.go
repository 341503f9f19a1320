// Package upstream issues outbound calls to named backend services,
// propagating the caller's bearer credential and reporting each outcome
// as a tagged result instead of an error per non-2xx status.
package upstream

import "fmt"

// Resolver turns a logical service name and path into a concrete URL.
// The mode is fixed once at startup and injected into the client; it is
// a contract with the deployment environment, not an implementation
// detail.
type Resolver struct {
	sidecarPort int
	directPort  int
}

// SidecarInvocation routes calls through a local service-invocation
// proxy listening on port (Dapr wire format).
func SidecarInvocation(port int) Resolver {
	return Resolver{sidecarPort: port}
}

// DirectPort addresses backends on the shared local port, useful for
// dev topologies where all services sit behind one host port.
func DirectPort(port int) Resolver {
	return Resolver{directPort: port}
}

// NewResolver picks sidecar mode when sidecarPort is non-zero,
// otherwise direct mode on directPort.
func NewResolver(sidecarPort, directPort int) Resolver {
	if sidecarPort != 0 {
		return SidecarInvocation(sidecarPort)
	}
	return DirectPort(directPort)
}

// URL resolves service+path under the configured mode.
func (r Resolver) URL(service, path string) string {
	if r.sidecarPort != 0 {
		return fmt.Sprintf("http://localhost:%d/v1.0/invoke/%s/method/%s", r.sidecarPort, service, path)
	}
	return fmt.Sprintf("http://localhost:%d/%s", r.directPort, service)
}

// Sidecar reports whether calls are routed through the invocation proxy.
func (r Resolver) Sidecar() bool { return r.sidecarPort != 0 }
