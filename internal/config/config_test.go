package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultCarriesStorefrontSettings(t *testing.T) {
	cfg := Default()
	if cfg.Feed.PageSize != 20 {
		t.Fatalf("unexpected feed page size: %d", cfg.Feed.PageSize)
	}
	if cfg.Checkout.CartDeliveryFee != 150 {
		t.Fatalf("unexpected cart delivery fee: %d", cfg.Checkout.CartDeliveryFee)
	}
	if cfg.Security.SessionRateLimit.WindowSeconds != 60 || cfg.Security.SessionRateLimit.MaxRequests != 20 {
		t.Fatalf("unexpected session rate limit: %+v", cfg.Security.SessionRateLimit)
	}
	if cfg.Delivery.MinLocationLength != 3 {
		t.Fatalf("unexpected min location length: %d", cfg.Delivery.MinLocationLength)
	}
	if len(cfg.Delivery.Couriers) != 3 {
		t.Fatalf("expected 3 couriers, got %d", len(cfg.Delivery.Couriers))
	}
	express := cfg.Delivery.Couriers[2]
	if express.Code != "express" || express.Price != 300 {
		t.Fatalf("unexpected express courier: %+v", express)
	}
	if cfg.Order.Currency != "KES" {
		t.Fatalf("unexpected currency: %s", cfg.Order.Currency)
	}
	if cfg.Server.Addr() != "0.0.0.0:8080" || cfg.Server.ReadHeaderTimeoutSeconds != 10 {
		t.Fatalf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Queue.Queues["critical"] <= cfg.Queue.Queues["default"] {
		t.Fatalf("critical queue should outweigh default: %v", cfg.Queue.Queues)
	}
}

func TestLoadFromExplicitFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storefront.yml")
	body := []byte(`server:
  port: "9090"
security:
  extra_grants:
    - role: courier_ops
      object: /orders/:id/events
      action: POST
`)
	if err := os.WriteFile(path, body, 0o644); err != nil {
		t.Fatalf("write config failed: %v", err)
	}
	cfg := LoadFrom(path)
	if cfg.Server.Port != "9090" {
		t.Fatalf("file value should override default, got %s", cfg.Server.Port)
	}
	if cfg.Cart.MaxItems != 50 {
		t.Fatalf("unset keys should keep defaults, got %d", cfg.Cart.MaxItems)
	}
	if len(cfg.Security.ExtraGrants) != 1 || cfg.Security.ExtraGrants[0].Role != "courier_ops" {
		t.Fatalf("unexpected extra grants: %+v", cfg.Security.ExtraGrants)
	}
}
