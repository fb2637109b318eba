package brandinfo

import (
	"testing"

	"github.com/free-plinko-game/aff-web-gen/internal/store"
)

func baseView() store.BrandView {
	return store.BrandView{
		Rank: 1,
		Brand: store.Brand{
			Name:          "Bet365",
			Slug:          "bet365",
			AffiliateLink: "https://aff.example/bet365",
			Description:   "Global bookmaker.",
			Rating:        4.2,
		},
		Geo: &store.BrandGeo{
			WelcomeBonus:   "100% up to £50",
			BonusCode:      "UK50",
			LicenseInfo:    "UKGC 1234",
			PaymentMethods: "Visa, Mastercard, PayPal",
		},
	}
}

func TestMergePrecedence(t *testing.T) {
	bv := baseView()
	bv.Override = &store.SiteBrandOverride{WelcomeBonus: "Exclusive £60"}

	info := Merge(bv)
	// Override wins where it is set.
	if info.WelcomeBonus != "Exclusive £60" {
		t.Errorf("override welcome bonus lost: %q", info.WelcomeBonus)
	}
	// Global layer is untouched where no upper layer overrides.
	if info.AffiliateLink != "https://aff.example/bet365" {
		t.Errorf("global affiliate link clobbered: %q", info.AffiliateLink)
	}
	// GEO layer is untouched by an empty override field.
	if info.BonusCode != "UK50" {
		t.Errorf("geo bonus code clobbered: %q", info.BonusCode)
	}
}

func TestMergeEmptyDoesNotOverride(t *testing.T) {
	bv := baseView()
	bv.Override = &store.SiteBrandOverride{Description: "", AffiliateLink: ""}
	info := Merge(bv)
	if info.Description != "Global bookmaker." {
		t.Errorf("empty override must not clear description: %q", info.Description)
	}
}

func TestMergeGeoRating(t *testing.T) {
	bv := baseView()
	bv.Geo.Rating = 4.8
	if got := Merge(bv).Rating; got != 4.8 {
		t.Errorf("geo rating should win: %v", got)
	}
	bv.Geo.Rating = 0
	if got := Merge(bv).Rating; got != 4.2 {
		t.Errorf("zero geo rating should keep global: %v", got)
	}
}

func TestMergeNoGeoRow(t *testing.T) {
	bv := baseView()
	bv.Geo = nil
	info := Merge(bv)
	if info.WelcomeBonus != "" || len(info.PaymentMethods) != 0 {
		t.Errorf("missing geo row should leave geo fields empty: %+v", info)
	}
}

func TestPaymentMethodsSplit(t *testing.T) {
	info := Merge(baseView())
	want := []string{"Visa", "Mastercard", "PayPal"}
	if len(info.PaymentMethods) != len(want) {
		t.Fatalf("payment methods: %v", info.PaymentMethods)
	}
	for i, m := range want {
		if info.PaymentMethods[i] != m {
			t.Errorf("payment method %d = %q want %q", i, info.PaymentMethods[i], m)
		}
	}
}

func TestLookupBySlugAndName(t *testing.T) {
	infos := MergeAll([]store.BrandView{baseView()})
	m := Lookup(infos)
	if m["bet365"] == nil || m["Bet365"] == nil {
		t.Fatal("lookup must key both slug and name")
	}
	if m["bet365"] != m["Bet365"] {
		t.Error("slug and name must resolve to the same record")
	}
}
