package httpc

import (
	"net/http"
	"testing"
	"time"
)

func TestNewClient_SetsTimeoutAndTransport(t *testing.T) {
	c := NewClient(5 * time.Second)

	if c.Timeout != 5*time.Second {
		t.Errorf("timeout: got %v, want 5s", c.Timeout)
	}
	transport, ok := c.Transport.(*http.Transport)
	if !ok {
		t.Fatal("expected a configured *http.Transport")
	}
	if transport.IdleConnTimeout != DefaultIdleConnTimeout {
		t.Errorf("idle conn timeout: got %v", transport.IdleConnTimeout)
	}
	if transport.MaxIdleConnsPerHost != 10 {
		t.Errorf("max idle conns per host: got %d", transport.MaxIdleConnsPerHost)
	}
}
