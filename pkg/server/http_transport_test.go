package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/greentrip/carbonmcp/pkg/emissions"
	"github.com/greentrip/carbonmcp/pkg/routes"
	"github.com/greentrip/carbonmcp/pkg/tools"
)

// newTestTransport builds an HTTP transport over an MCP server with the real
// trip tool registry mounted, so transport tests run against the tools the
// binary actually serves.
func newTestTransport(t *testing.T, config HTTPTransportConfig) *HTTPTransport {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	catalog, err := routes.DefaultCatalog()
	if err != nil {
		t.Fatalf("DefaultCatalog() error = %v", err)
	}
	engine, err := emissions.NewEngine(emissions.DefaultConfig())
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	registry, err := tools.NewRegistry(logger, catalog, engine)
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}

	mcpSrv := mcpserver.NewMCPServer(ServerName, ServerVersion)
	registry.RegisterAll(mcpSrv)

	return NewHTTPTransport(mcpSrv, config, logger)
}

func TestHTTPTransport_ServiceDiscovery(t *testing.T) {
	transport := newTestTransport(t, DefaultHTTPTransportConfig())
	srv := httptest.NewServer(transport.mux)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var discovery map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&discovery); err != nil {
		t.Fatal(err)
	}

	// The discovery document stays generic to avoid information disclosure
	if discovery["service"] != "mcp-server" {
		t.Errorf("expected service 'mcp-server', got %v", discovery["service"])
	}
	if discovery["transport"] != "HTTP+SSE" {
		t.Errorf("expected transport 'HTTP+SSE', got %v", discovery["transport"])
	}

	endpoints, ok := discovery["endpoints"].(map[string]interface{})
	if !ok {
		t.Fatal("expected endpoints to be a map")
	}
	if !strings.HasSuffix(endpoints["sse"].(string), "/sse") {
		t.Errorf("expected SSE endpoint to end with /sse, got %v", endpoints["sse"])
	}
	if !strings.HasSuffix(endpoints["message"].(string), "/message") {
		t.Errorf("expected message endpoint to end with /message, got %v", endpoints["message"])
	}

	auth, ok := discovery["auth"].(map[string]interface{})
	if !ok {
		t.Fatal("expected auth to be a map")
	}
	if auth["required"] != false {
		t.Errorf("expected auth.required=false for auth type none, got %v", auth["required"])
	}
}

func TestHTTPTransport_ServiceDiscoveryAuthRequired(t *testing.T) {
	config := DefaultHTTPTransportConfig()
	config.AuthType = "bearer"
	config.AuthToken = "a-long-enough-test-token-123456"

	transport := newTestTransport(t, config)
	srv := httptest.NewServer(transport.mux)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var discovery map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&discovery); err != nil {
		t.Fatal(err)
	}

	auth := discovery["auth"].(map[string]interface{})
	if auth["required"] != true {
		t.Errorf("expected auth.required=true for bearer auth, got %v", auth["required"])
	}
}

func TestHTTPTransport_HealthEndpoints(t *testing.T) {
	transport := newTestTransport(t, DefaultHTTPTransportConfig())
	srv := httptest.NewServer(transport.mux)
	defer srv.Close()

	for _, endpoint := range []string{"/health", "/ready", "/live"} {
		t.Run(endpoint, func(t *testing.T) {
			resp, err := http.Get(srv.URL + endpoint)
			if err != nil {
				t.Fatalf("failed to get %s: %v", endpoint, err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				t.Fatalf("expected 200 for %s, got %d", endpoint, resp.StatusCode)
			}

			var body map[string]interface{}
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatalf("failed to decode %s response: %v", endpoint, err)
			}
			if endpoint == "/health" && body["status"] != "ok" {
				t.Errorf("expected status=ok, got %v", body["status"])
			}
		})
	}
}

func TestHTTPTransport_SSEHandshake(t *testing.T) {
	transport := newTestTransport(t, DefaultHTTPTransportConfig())
	srv := httptest.NewServer(transport.mux)
	defer srv.Close()

	req, err := http.NewRequest("GET", srv.URL+"/sse", nil)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected 200, got %d. Body: %s", resp.StatusCode, string(body))
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Errorf("expected Content-Type text/event-stream, got %s", ct)
	}
	if cc := resp.Header.Get("Cache-Control"); cc != "no-cache" {
		t.Errorf("expected Cache-Control no-cache, got %s", cc)
	}

	// The handshake must advertise the message endpoint with a session ID
	buf := make([]byte, 1024)
	n, err := resp.Body.Read(buf)
	if err != nil && err != io.EOF {
		t.Fatal(err)
	}
	handshake := string(buf[:n])
	if !strings.Contains(handshake, "event: endpoint") {
		t.Error("expected 'event: endpoint' in SSE handshake")
	}
	if !strings.Contains(handshake, "/message?sessionId=") {
		t.Error("expected message endpoint with sessionId in SSE handshake")
	}
}

func TestHTTPTransport_MessageWithoutSession(t *testing.T) {
	transport := newTestTransport(t, DefaultHTTPTransportConfig())
	srv := httptest.NewServer(transport.mux)
	defer srv.Close()

	// POST /message without a session must yield a JSON-RPC error, not a 404
	resp, err := http.Post(srv.URL+"/message", "application/json",
		strings.NewReader(`{"jsonrpc":"2.0","method":"initialize","id":1}`))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		t.Fatal("POST /message returned 404; message handler not mounted")
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}

	var response map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		t.Fatal(err)
	}
	if response["jsonrpc"] != "2.0" {
		t.Error("response should be JSON-RPC 2.0")
	}
	if response["error"] == nil {
		t.Error("response should contain an error")
	}
}

func TestHTTPTransport_MessageInvalidSession(t *testing.T) {
	transport := newTestTransport(t, DefaultHTTPTransportConfig())
	srv := httptest.NewServer(transport.mux)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/message?sessionId=invalid-session", "application/json",
		strings.NewReader(`{"jsonrpc":"2.0","method":"initialize","id":1}`))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}

	var response map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		t.Fatal(err)
	}
	errorObj, ok := response["error"].(map[string]interface{})
	if !ok {
		t.Fatal("response should contain an error object")
	}
	if !strings.Contains(errorObj["message"].(string), "Invalid session") {
		t.Errorf("error message should mention invalid session, got %v", errorObj["message"])
	}
}

func TestHTTPTransport_Authentication(t *testing.T) {
	tests := []struct {
		name       string
		authType   string
		authToken  string
		authHeader string
		expectCode int
	}{
		{
			name:       "no auth required",
			authType:   "none",
			expectCode: http.StatusOK,
		},
		{
			name:       "bearer auth success",
			authType:   "bearer",
			authToken:  "a-long-enough-test-token-123456",
			authHeader: "Bearer a-long-enough-test-token-123456",
			expectCode: http.StatusOK,
		},
		{
			name:       "bearer auth wrong token",
			authType:   "bearer",
			authToken:  "a-long-enough-test-token-123456",
			authHeader: "Bearer wrong-token",
			expectCode: http.StatusBadRequest,
		},
		{
			name:       "bearer auth missing header",
			authType:   "bearer",
			authToken:  "a-long-enough-test-token-123456",
			expectCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultHTTPTransportConfig()
			config.AuthType = tt.authType
			config.AuthToken = tt.authToken

			transport := newTestTransport(t, config)
			srv := httptest.NewServer(transport.mux)
			defer srv.Close()

			req, err := http.NewRequest("GET", srv.URL+"/sse", nil)
			if err != nil {
				t.Fatal(err)
			}
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			req.Header.Set("Accept", "text/event-stream")

			client := &http.Client{Timeout: 2 * time.Second}
			resp, err := client.Do(req)
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.expectCode {
				body, _ := io.ReadAll(resp.Body)
				t.Errorf("expected %d, got %d. Body: %s", tt.expectCode, resp.StatusCode, string(body))
			}
		})
	}
}

func TestHTTPTransport_HTTPSRedirect(t *testing.T) {
	config := DefaultHTTPTransportConfig()
	config.ForceHTTPS = true

	transport := newTestTransport(t, config)
	srv := httptest.NewServer(transport.mux)
	defer srv.Close()

	req, _ := http.NewRequest("GET", srv.URL+"/sse", nil)
	client := &http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	resp, err := client.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusMovedPermanently {
		t.Errorf("expected 301 redirect, got %d", resp.StatusCode)
	}
	if location := resp.Header.Get("Location"); !strings.HasPrefix(location, "https://") {
		t.Errorf("expected HTTPS redirect, got %s", location)
	}
}

func TestHTTPTransport_DebugEndpoints(t *testing.T) {
	transport := newTestTransport(t, DefaultHTTPTransportConfig())
	srv := httptest.NewServer(transport.mux)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/sse/debug")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 for SSE debug, got %d", resp.StatusCode)
	}

	var debug map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&debug); err != nil {
		t.Fatal(err)
	}
	if debug["endpoint"] != "/sse" {
		t.Errorf("expected endpoint '/sse', got %v", debug["endpoint"])
	}

	resp2, err := http.Get(srv.URL + "/message/debug")
	if err != nil {
		t.Fatal(err)
	}
	defer resp2.Body.Close()

	if resp2.StatusCode != http.StatusOK {
		t.Errorf("expected 200 for message debug, got %d", resp2.StatusCode)
	}
}

func TestHTTPTransport_ConcurrentSSEConnections(t *testing.T) {
	transport := newTestTransport(t, DefaultHTTPTransportConfig())
	srv := httptest.NewServer(transport.mux)
	defer srv.Close()

	numConnections := 5
	errChan := make(chan error, numConnections)

	for i := 0; i < numConnections; i++ {
		go func(id int) {
			req, _ := http.NewRequest("GET", srv.URL+"/sse", nil)
			req.Header.Set("Accept", "text/event-stream")

			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				errChan <- fmt.Errorf("connection %d failed: %v", id, err)
				return
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				body, _ := io.ReadAll(resp.Body)
				errChan <- fmt.Errorf("connection %d got status %d: %s", id, resp.StatusCode, string(body))
				return
			}

			// Read the handshake line to confirm the stream is live
			reader := bufio.NewReader(resp.Body)
			if _, err := reader.ReadString('\n'); err != nil {
				errChan <- fmt.Errorf("connection %d read failed: %v", id, err)
				return
			}
			errChan <- nil
		}(i)
	}

	for i := 0; i < numConnections; i++ {
		if err := <-errChan; err != nil {
			t.Error(err)
		}
	}
}

func TestHTTPTransport_StartShutdown(t *testing.T) {
	config := DefaultHTTPTransportConfig()
	config.Addr = ":0" // random available port

	transport := newTestTransport(t, config)

	errCh := make(chan error, 1)
	go func() {
		errCh <- transport.Start()
	}()

	// Give it time to start
	time.Sleep(100 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := transport.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown failed: %v", err)
	}

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			t.Errorf("unexpected error from Start(): %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Error("server did not stop within timeout")
	}
}

func TestHTTPTransport_DoubleStart(t *testing.T) {
	config := DefaultHTTPTransportConfig()
	config.Addr = ":0"

	transport := newTestTransport(t, config)

	errCh := make(chan error, 1)
	go func() {
		errCh <- transport.Start()
	}()
	time.Sleep(100 * time.Millisecond)

	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		transport.Shutdown(ctx)
		<-errCh
	}()

	if err := transport.Start(); err == nil {
		t.Error("expected second Start() to fail while running")
	}
}
