package devauth

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/target/petalcart/internal/ports"
)

func TestProvider_BeginAndExchange(t *testing.T) {
	prov, err := NewProvider(Config{Email: "Dev@Example.com", Groups: []string{"florists"}})
	if err != nil {
		t.Fatalf("NewProvider error: %v", err)
	}
	authURL, state, nonce, err := prov.Begin(context.Background(), ports.BeginInput{RedirectURL: "/"})
	if err != nil {
		t.Fatalf("Begin error: %v", err)
	}
	if !strings.HasPrefix(authURL, CallbackPath+"?") {
		t.Fatalf("unexpected authURL: %s", authURL)
	}
	u, err := url.Parse(authURL)
	if err != nil || u.Query().Get("state") != state {
		t.Fatalf("authURL does not carry state: %s", authURL)
	}
	if len(state) != 24 || len(nonce) != 24 {
		t.Fatalf("state and nonce should be 24 chars, got %q %q", state, nonce)
	}
	id, err := prov.Exchange(context.Background(), ports.ExchangeInput{Code: "dev", State: state, Nonce: nonce})
	if err != nil {
		t.Fatalf("Exchange error: %v", err)
	}
	if id.Email != "dev@example.com" || id.Subject != "dev:Dev@Example.com" || id.Name != "Dev User" {
		t.Fatalf("unexpected identity: %+v", id)
	}
	if time.Until(id.ExpiresAt) < 7*time.Hour {
		t.Fatalf("expiry should default to 8h, got %v", id.ExpiresAt)
	}
}

func TestProvider_RequiresEmail(t *testing.T) {
	if _, err := NewProvider(Config{}); err == nil {
		t.Fatal("expected error for missing email")
	}
}

func TestProvider_ExchangeCopiesGroups(t *testing.T) {
	prov, err := NewProvider(Config{Email: "a@b.c", Groups: []string{"x"}})
	if err != nil {
		t.Fatal(err)
	}
	id, _ := prov.Exchange(context.Background(), ports.ExchangeInput{})
	id.Groups[0] = "mutated"
	again, _ := prov.Exchange(context.Background(), ports.ExchangeInput{})
	if again.Groups[0] != "x" {
		t.Fatalf("groups leaked between exchanges: %v", again.Groups)
	}
}
