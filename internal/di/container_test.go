package di

import (
	"context"
	"net/http"
	"testing"

	"github.com/phishlens/internal/backend"
	"github.com/phishlens/internal/config"
	"github.com/phishlens/internal/domain"
	"github.com/phishlens/internal/request"
	"github.com/phishlens/internal/service"
)

func testConfig(mock bool) *config.Config {
	return &config.Config{
		Server:    config.ServerConfig{Port: "18080"},
		Backend:   config.BackendConfig{BaseURL: "http://localhost:8000", MockMode: mock},
		Dashboard: config.DashboardConfig{DefaultMode: domain.ModeURLOnly},
		Logging:   config.LoggingConfig{Level: "error", Development: true},
	}
}

func TestBuildContainer_ResolvesGraph(t *testing.T) {
	c, err := BuildContainer(testConfig(true))
	if err != nil {
		t.Fatalf("BuildContainer() error = %v", err)
	}

	err = c.Invoke(func(d *service.Dashboard, srv *http.Server, client backend.Client) {
		if srv.Addr != ":18080" {
			t.Errorf("Addr = %q", srv.Addr)
		}
		if _, ok := client.(*backend.MockClient); !ok {
			t.Errorf("client = %T, want *backend.MockClient in mock mode", client)
		}
		if d.Mode() != domain.ModeURLOnly {
			t.Errorf("Mode() = %s, want default from config", d.Mode())
		}

		res, err := d.Analyze(context.Background(), domain.ModeURLOnly, request.FormFields{URL: "https://example.com"})
		if err != nil {
			t.Fatalf("Analyze() error = %v", err)
		}
		if res.RiskLevel != domain.RiskLow {
			t.Errorf("RiskLevel = %s", res.RiskLevel)
		}
	})
	if err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}
}

func TestBuildContainer_HTTPClient(t *testing.T) {
	c, err := BuildContainer(testConfig(false))
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Invoke(func(client backend.Client) {
		if _, ok := client.(*backend.HTTPClient); !ok {
			t.Errorf("client = %T, want *backend.HTTPClient", client)
		}
	}); err != nil {
		t.Fatal(err)
	}
}
