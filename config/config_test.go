package config

import (
	"errors"
	"testing"
	"time"

	"puja-booking/services/pricing"
	"puja-booking/services/refund"
)

func setRequired(t *testing.T) {
	t.Setenv("DB_DATABASE", "puja")
	t.Setenv("DB_USERNAME", "puja")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.AssignmentTimeout != 5*time.Minute {
		t.Fatalf("expected 5m assignment timeout, got %s", cfg.AssignmentTimeout)
	}
	if cfg.Addr() != "0.0.0.0:8080" {
		t.Fatalf("unexpected addr %q", cfg.Addr())
	}

	card, err := cfg.RateCard()
	if err != nil {
		t.Fatalf("rate card: %v", err)
	}
	def := pricing.DefaultRateCard()
	if card.PlatformFeeBps != def.PlatformFeeBps || card.TravelRatePerKm[pricing.TravelModeCab] != def.TravelRatePerKm[pricing.TravelModeCab] {
		t.Fatalf("expected default rate card, got %+v", card)
	}

	policy, err := cfg.RefundPolicy()
	if err != nil {
		t.Fatalf("refund policy: %v", err)
	}
	want := refund.DefaultPolicy()
	if len(policy.Tiers) != len(want.Tiers) {
		t.Fatalf("expected %d tiers, got %+v", len(want.Tiers), policy.Tiers)
	}
	for i := range want.Tiers {
		if policy.Tiers[i] != want.Tiers[i] {
			t.Errorf("tier %d: got %+v want %+v", i, policy.Tiers[i], want.Tiers[i])
		}
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	t.Setenv("DB_DATABASE", "")
	t.Setenv("DB_USERNAME", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected an error without database settings")
	}
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("ASSIGNMENT_TIMEOUT", "90s")
	t.Setenv("PLATFORM_FEE_BPS", "1000")
	t.Setenv("REFUND_TIERS", "15:10000,0:2500")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.AssignmentTimeout != 90*time.Second {
		t.Fatalf("expected 90s, got %s", cfg.AssignmentTimeout)
	}
	card, _ := cfg.RateCard()
	if card.PlatformFeeBps != 1000 {
		t.Fatalf("expected platform fee override, got %d", card.PlatformFeeBps)
	}

	policy, _ := cfg.RefundPolicy()
	if len(policy.Tiers) != 2 || policy.Tiers[0].Name != "MORE_THAN_14_DAYS" || policy.Tiers[1].Bps != 2500 {
		t.Fatalf("unexpected tiers %+v", policy.Tiers)
	}
}

func TestLoad_RejectsOutOfRangeRates(t *testing.T) {
	setRequired(t)
	t.Setenv("PLATFORM_FEE_TAX_BPS", "12000")

	_, err := Load()
	if !errors.Is(err, pricing.ErrInvalidPricingInput) {
		t.Fatalf("expected invalid pricing input, got %v", err)
	}
}
