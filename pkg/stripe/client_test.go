package stripe

import (
	"context"
	"strings"
	"testing"

	"github.com/farmbasket/farmbasket-backend/pkg/config"
)

func TestNewClientRejectsMismatchedKey(t *testing.T) {
	t.Parallel()

	_, err := NewClient(context.Background(), config.StripeConfig{
		APIKey: "sk_live_abc",
		Secret: "whsec_abc",
		Env:    "test",
	}, nil)
	if err == nil || !strings.Contains(err.Error(), "test secret key") {
		t.Fatalf("expected test-key mismatch error, got %v", err)
	}
}

func TestNewClientRequiresSecrets(t *testing.T) {
	t.Parallel()

	if _, err := NewClient(context.Background(), config.StripeConfig{Secret: "whsec"}, nil); err != errAPIKeyRequired {
		t.Fatalf("expected api key error, got %v", err)
	}
	if _, err := NewClient(context.Background(), config.StripeConfig{APIKey: "sk_test_abc"}, nil); err != errSecretRequired {
		t.Fatalf("expected secret error, got %v", err)
	}
}

func TestNewClientNormalizesEnv(t *testing.T) {
	t.Parallel()

	client, err := NewClient(context.Background(), config.StripeConfig{
		APIKey: "sk_test_abc",
		Secret: "whsec_abc",
		Env:    " TEST ",
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client.Environment() != "test" {
		t.Fatalf("unexpected env %q", client.Environment())
	}
	if client.SigningSecret() != "whsec_abc" {
		t.Fatalf("unexpected signing secret")
	}
}
