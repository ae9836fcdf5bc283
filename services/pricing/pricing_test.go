package pricing

import (
	"errors"
	"math"
	"math/rand"
	"reflect"
	"testing"
	"testing/quick"
)

func TestCompute_StandardCeremonyNoTravel(t *testing.T) {
	b, err := Compute(DefaultRateCard(), Input{ServiceFee: 7100, Attendees: 40})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if b.PlatformFee != 1065 {
		t.Fatalf("expected platform fee 1065, got %d", b.PlatformFee)
	}
	if b.PlatformFeeTax != 192 {
		t.Fatalf("expected platform fee tax 192, got %d", b.PlatformFeeTax)
	}
	if b.GrandTotal != 8357 {
		t.Fatalf("expected grand total 8357, got %d", b.GrandTotal)
	}
	if b.OfficiantPayout != 7100 {
		t.Fatalf("expected payout 7100, got %d", b.OfficiantPayout)
	}
	if b.TravelCost != 0 || b.FoodAllowance != 0 || b.AccommodationCost != 0 || b.TravelServiceFee != 0 || b.TravelServiceFeeTax != 0 {
		t.Fatalf("expected logistics components zeroed, got %+v", b)
	}
}

func TestCompute_TravelFoodAccommodation(t *testing.T) {
	card := DefaultRateCard()
	in := Input{
		ServiceFee: 11000,
		Travel: TravelFacts{
			Required:            true,
			Mode:                TravelModeCab,
			DistanceKm:          120,
			PlatformFacilitated: true,
			TravelDays:          2,
		},
		Food:          FoodArrangement{Mode: FoodModeAllowance, PujaDays: 1},
		Accommodation: AccommodationFacts{Mode: AccommodationModePlatformBooked, Nights: 2},
	}

	b, err := Compute(card, in)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	want := Breakdown{
		Dakshina:            11000,
		TravelCost:          1800, // 120km * 15
		FoodAllowance:       1500, // (2 + 1) * 500
		AccommodationCost:   4000,
		PlatformFee:         1650,
		PlatformFeeTax:      297,
		TravelServiceFee:    90,
		TravelServiceFeeTax: 16, // 16.2
	}
	want.GrandTotal = want.Sum()
	want.OfficiantPayout = 11000 + 1800 + 1500 + 4000
	if !reflect.DeepEqual(b, want) {
		t.Fatalf("unexpected breakdown\n got %+v\nwant %+v", b, want)
	}
}

func TestCompute_FoodArrangement(t *testing.T) {
	card := DefaultRateCard()
	base := Input{
		ServiceFee: 5000,
		Travel:     TravelFacts{Required: true, Mode: TravelModeTrain, DistanceKm: 300, TravelDays: 2},
		Food:       FoodArrangement{PujaDays: 3},
	}

	t.Run("customer provides meals counts travel days only", func(t *testing.T) {
		in := base
		in.Food.Mode = FoodModeCustomerProvides
		b, err := Compute(card, in)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if b.FoodAllowance != 2*card.FoodAllowancePerDay {
			t.Fatalf("expected allowance for 2 travel days, got %d", b.FoodAllowance)
		}
	})

	t.Run("allowance counts travel and puja days", func(t *testing.T) {
		in := base
		in.Food.Mode = FoodModeAllowance
		b, err := Compute(card, in)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if b.FoodAllowance != 5*card.FoodAllowancePerDay {
			t.Fatalf("expected allowance for 5 days, got %d", b.FoodAllowance)
		}
	})

	t.Run("travel days ignored without travel", func(t *testing.T) {
		in := base
		in.Travel = TravelFacts{TravelDays: 4}
		in.Food.Mode = FoodModeCustomerProvides
		b, err := Compute(card, in)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if b.FoodAllowance != 0 {
			t.Fatalf("expected no allowance, got %d", b.FoodAllowance)
		}
	})

	t.Run("travel not facilitated carries no service fee", func(t *testing.T) {
		b, err := Compute(card, base)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if b.TravelCost != 1200 {
			t.Fatalf("expected travel cost 1200, got %d", b.TravelCost)
		}
		if b.TravelServiceFee != 0 || b.TravelServiceFeeTax != 0 {
			t.Fatalf("expected no travel service fee, got %d/%d", b.TravelServiceFee, b.TravelServiceFeeTax)
		}
	})
}

func TestCompute_AllInclusivePackage(t *testing.T) {
	b, err := Compute(DefaultRateCard(), Input{
		ServiceFee:          21000,
		Travel:              TravelFacts{Required: true, Mode: TravelModeFlight, DistanceKm: 900, PlatformFacilitated: true, TravelDays: 2},
		Food:                FoodArrangement{Mode: FoodModeAllowance, PujaDays: 2},
		Accommodation:       AccommodationFacts{Mode: AccommodationModePlatformBooked, Nights: 3},
		AllInclusivePackage: true,
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if b.TravelCost != 0 || b.FoodAllowance != 0 || b.AccommodationCost != 0 || b.TravelServiceFee != 0 {
		t.Fatalf("expected absorbed logistics to be zero, got %+v", b)
	}
	if b.PlatformFee != 3150 {
		t.Fatalf("expected platform fee on package price, got %d", b.PlatformFee)
	}
	if err := b.Verify(); err != nil {
		t.Fatalf("expected valid breakdown, got %v", err)
	}
}

func TestCompute_InvalidInput(t *testing.T) {
	card := DefaultRateCard()
	negative := DefaultRateCard()
	negative.PlatformFeeBps = -1
	tooHigh := DefaultRateCard()
	tooHigh.TravelServiceFeeTaxBps = 10001
	negativeKm := DefaultRateCard()
	negativeKm.TravelRatePerKm = map[TravelMode]int64{TravelModeCab: -2}

	cases := []struct {
		name string
		card RateCard
		in   Input
	}{
		{"zero service fee", card, Input{}},
		{"negative service fee", card, Input{ServiceFee: -10}},
		{"service fee above ceiling", card, Input{ServiceFee: MaxServiceFee + 1}},
		{"service fee near int64 max", card, Input{ServiceFee: math.MaxInt64 / 2}},
		{"puja days above ceiling", card, Input{ServiceFee: 100, Food: FoodArrangement{Mode: FoodModeAllowance, PujaDays: MaxDays + 1}}},
		{"distance above ceiling", card, Input{ServiceFee: 100, Travel: TravelFacts{Required: true, Mode: TravelModeFlight, DistanceKm: MaxDistanceKm + 1}}},
		{"travel without distance", card, Input{ServiceFee: 100, Travel: TravelFacts{Required: true, Mode: TravelModeCab}}},
		{"travel without mode", card, Input{ServiceFee: 100, Travel: TravelFacts{Required: true, DistanceKm: 10}}},
		{"unknown travel mode", card, Input{ServiceFee: 100, Travel: TravelFacts{Required: true, Mode: "ROCKET", DistanceKm: 10}}},
		{"negative puja days", card, Input{ServiceFee: 100, Food: FoodArrangement{Mode: FoodModeAllowance, PujaDays: -1}}},
		{"unknown food mode", card, Input{ServiceFee: 100, Food: FoodArrangement{Mode: "BUFFET"}}},
		{"negative rate", negative, Input{ServiceFee: 100}},
		{"rate above 100 percent", tooHigh, Input{ServiceFee: 100}},
		{"negative per km rate", negativeKm, Input{ServiceFee: 100}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Compute(tc.card, tc.in)
			if !errors.Is(err, ErrInvalidPricingInput) {
				t.Fatalf("expected ErrInvalidPricingInput, got %v", err)
			}
		})
	}
}

type randomInput struct {
	Input
}

func (randomInput) Generate(r *rand.Rand, _ int) reflect.Value {
	modes := []TravelMode{TravelModeOwnVehicle, TravelModeCab, TravelModeBus, TravelModeTrain, TravelModeFlight}
	foods := []FoodMode{FoodModeNone, FoodModeAllowance, FoodModeCustomerProvides}
	stays := []AccommodationMode{AccommodationModeNone, AccommodationModeCustomerProvides, AccommodationModePlatformBooked}

	in := Input{
		ServiceFee:          1 + r.Int63n(200000),
		Attendees:           r.Intn(500),
		AllInclusivePackage: r.Intn(5) == 0,
		Food:                FoodArrangement{Mode: foods[r.Intn(len(foods))], PujaDays: r.Intn(5)},
		Accommodation:       AccommodationFacts{Mode: stays[r.Intn(len(stays))], Nights: r.Intn(5)},
	}
	if r.Intn(2) == 0 {
		in.Travel = TravelFacts{
			Required:            true,
			Mode:                modes[r.Intn(len(modes))],
			DistanceKm:          0.5 + r.Float64()*2000,
			PlatformFacilitated: r.Intn(2) == 0,
			TravelDays:          r.Intn(4),
		}
	}
	return reflect.ValueOf(randomInput{in})
}

func TestCompute_LargestAcceptedInputs(t *testing.T) {
	in := Input{
		ServiceFee:    MaxServiceFee,
		Attendees:     1000,
		Travel:        TravelFacts{Required: true, Mode: TravelModeFlight, DistanceKm: MaxDistanceKm, PlatformFacilitated: true, TravelDays: MaxDays},
		Food:          FoodArrangement{Mode: FoodModeAllowance, PujaDays: MaxDays},
		Accommodation: AccommodationFacts{Mode: AccommodationModePlatformBooked, Nights: MaxDays},
	}
	b, err := Compute(DefaultRateCard(), in)
	if err != nil {
		t.Fatalf("expected the ceiling to be accepted, got %v", err)
	}
	if b.GrandTotal <= b.Dakshina || b.PlatformFee <= 0 {
		t.Fatalf("expected positive components at the ceiling, got %+v", b)
	}
	if err := b.Verify(); err != nil {
		t.Fatalf("expected consistent breakdown, got %v", err)
	}
}

func TestCompute_TotalInvariant(t *testing.T) {
	card := DefaultRateCard()
	property := func(ri randomInput) bool {
		b, err := Compute(card, ri.Input)
		if err != nil {
			return false
		}
		return b.GrandTotal == b.Dakshina+b.TravelCost+b.FoodAllowance+b.AccommodationCost+
			b.PlatformFee+b.PlatformFeeTax+b.TravelServiceFee+b.TravelServiceFeeTax
	}
	if err := quick.Check(property, &quick.Config{MaxCount: 500}); err != nil {
		t.Fatal(err)
	}
}

func TestCompute_PayoutBound(t *testing.T) {
	card := DefaultRateCard()
	property := func(ri randomInput) bool {
		b, err := Compute(card, ri.Input)
		if err != nil {
			return false
		}
		platform := b.PlatformFee + b.PlatformFeeTax + b.TravelServiceFee + b.TravelServiceFeeTax
		return b.OfficiantPayout <= b.GrandTotal &&
			b.OfficiantPayout == b.GrandTotal-platform &&
			b.Verify() == nil
	}
	if err := quick.Check(property, &quick.Config{MaxCount: 500}); err != nil {
		t.Fatal(err)
	}
}

func TestBreakdown_Verify(t *testing.T) {
	b, err := Compute(DefaultRateCard(), Input{ServiceFee: 7100})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	b.GrandTotal++
	if err := b.Verify(); err == nil {
		t.Fatalf("expected tampered total to fail verification")
	}
}
