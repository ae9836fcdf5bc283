package pricing

import (
	"errors"
	"fmt"

	"puja-booking/money"
)

// ErrInvalidPricingInput is returned for malformed or out-of-range pricing inputs.
var ErrInvalidPricingInput = errors.New("invalid pricing input")

// Upper bounds keep every component and its basis-point products inside int64.
const (
	MaxServiceFee int64 = 10_000_000
	MaxDistanceKm       = 20_000
	MaxDays             = 365
)

type TravelMode string

const (
	TravelModeOwnVehicle TravelMode = "OWN_VEHICLE"
	TravelModeCab        TravelMode = "CAB"
	TravelModeBus        TravelMode = "BUS"
	TravelModeTrain      TravelMode = "TRAIN"
	TravelModeFlight     TravelMode = "FLIGHT"
)

type FoodMode string

const (
	FoodModeNone             FoodMode = "NONE"
	FoodModeAllowance        FoodMode = "ALLOWANCE"
	FoodModeCustomerProvides FoodMode = "CUSTOMER_PROVIDES"
)

type AccommodationMode string

const (
	AccommodationModeNone             AccommodationMode = "NONE"
	AccommodationModeCustomerProvides AccommodationMode = "CUSTOMER_PROVIDES"
	AccommodationModePlatformBooked   AccommodationMode = "PLATFORM_BOOKED"
)

// RateCard is the pricing policy. Percentages are basis points.
type RateCard struct {
	PlatformFeeBps         int64
	PlatformFeeTaxBps      int64
	TravelServiceFeeBps    int64
	TravelServiceFeeTaxBps int64
	FoodAllowancePerDay    int64
	AccommodationPerNight  int64
	TravelRatePerKm        map[TravelMode]int64
}

// DefaultRateCard mirrors the marketplace's published rates.
func DefaultRateCard() RateCard {
	return RateCard{
		PlatformFeeBps:         1500,
		PlatformFeeTaxBps:      1800,
		TravelServiceFeeBps:    500,
		TravelServiceFeeTaxBps: 1800,
		FoodAllowancePerDay:    500,
		AccommodationPerNight:  2000,
		TravelRatePerKm: map[TravelMode]int64{
			TravelModeOwnVehicle: 10,
			TravelModeCab:        15,
			TravelModeBus:        3,
			TravelModeTrain:      4,
			TravelModeFlight:     9,
		},
	}
}

// Validate checks every rate is within sane bounds.
func (c RateCard) Validate() error {
	for name, bps := range map[string]int64{
		"platform fee":           c.PlatformFeeBps,
		"platform fee tax":       c.PlatformFeeTaxBps,
		"travel service fee":     c.TravelServiceFeeBps,
		"travel service fee tax": c.TravelServiceFeeTaxBps,
	} {
		if !money.ValidBps(bps) {
			return fmt.Errorf("%w: %s rate %d bps out of range", ErrInvalidPricingInput, name, bps)
		}
	}
	if c.FoodAllowancePerDay < 0 || c.AccommodationPerNight < 0 {
		return fmt.Errorf("%w: negative daily rate", ErrInvalidPricingInput)
	}
	for mode, rate := range c.TravelRatePerKm {
		if rate < 0 {
			return fmt.Errorf("%w: negative per-km rate for %s", ErrInvalidPricingInput, mode)
		}
	}
	return nil
}

type TravelFacts struct {
	Required            bool
	Mode                TravelMode
	DistanceKm          float64
	PlatformFacilitated bool
	TravelDays          int
}

type FoodArrangement struct {
	Mode     FoodMode
	PujaDays int
}

type AccommodationFacts struct {
	Mode   AccommodationMode
	Nights int
}

// Input carries the logistics facts of one booking.
type Input struct {
	ServiceFee          int64
	Travel              TravelFacts
	Food                FoodArrangement
	Accommodation       AccommodationFacts
	Attendees           int
	AllInclusivePackage bool
}

// Breakdown is the itemized cost of a booking. Every component is always
// present; irrelevant ones are zero.
type Breakdown struct {
	Dakshina            int64 `gorm:"not null;default:0" json:"dakshina"`
	TravelCost          int64 `gorm:"not null;default:0" json:"travel_cost"`
	FoodAllowance       int64 `gorm:"not null;default:0" json:"food_allowance"`
	AccommodationCost   int64 `gorm:"not null;default:0" json:"accommodation_cost"`
	PlatformFee         int64 `gorm:"not null;default:0" json:"platform_fee"`
	PlatformFeeTax      int64 `gorm:"not null;default:0" json:"platform_fee_tax"`
	TravelServiceFee    int64 `gorm:"not null;default:0" json:"travel_service_fee"`
	TravelServiceFeeTax int64 `gorm:"not null;default:0" json:"travel_service_fee_tax"`
	GrandTotal          int64 `gorm:"not null;default:0" json:"grand_total"`
	OfficiantPayout     int64 `gorm:"not null;default:0" json:"officiant_payout"`
}

// Sum adds every charged component.
func (b Breakdown) Sum() int64 {
	return b.Dakshina + b.TravelCost + b.FoodAllowance + b.AccommodationCost +
		b.PlatformFee + b.PlatformFeeTax + b.TravelServiceFee + b.TravelServiceFeeTax
}

// NonRefundable is the platform fee plus its tax.
func (b Breakdown) NonRefundable() int64 {
	return b.PlatformFee + b.PlatformFeeTax
}

// Verify re-checks the total and payout invariants.
func (b Breakdown) Verify() error {
	if b.GrandTotal != b.Sum() {
		return fmt.Errorf("grand total %d does not match components %d", b.GrandTotal, b.Sum())
	}
	payout := b.Dakshina + b.TravelCost + b.FoodAllowance + b.AccommodationCost
	if b.OfficiantPayout != payout {
		return fmt.Errorf("officiant payout %d does not match payable components %d", b.OfficiantPayout, payout)
	}
	if b.OfficiantPayout > b.GrandTotal {
		return fmt.Errorf("officiant payout %d exceeds grand total %d", b.OfficiantPayout, b.GrandTotal)
	}
	return nil
}

// Compute prices one booking under the rate card.
func Compute(card RateCard, in Input) (Breakdown, error) {
	if err := card.Validate(); err != nil {
		return Breakdown{}, err
	}
	if err := validateInput(card, in); err != nil {
		return Breakdown{}, err
	}

	b := Breakdown{Dakshina: in.ServiceFee}
	b.PlatformFee = money.ApplyBps(in.ServiceFee, card.PlatformFeeBps)
	b.PlatformFeeTax = money.ApplyBps(b.PlatformFee, card.PlatformFeeTaxBps)

	// the package price already covers logistics
	if !in.AllInclusivePackage {
		travelDays := 0
		if in.Travel.Required {
			b.TravelCost = money.RoundHalfUp(in.Travel.DistanceKm * float64(card.TravelRatePerKm[in.Travel.Mode]))
			travelDays = in.Travel.TravelDays
			if in.Travel.PlatformFacilitated {
				b.TravelServiceFee = money.ApplyBps(b.TravelCost, card.TravelServiceFeeBps)
				b.TravelServiceFeeTax = money.ApplyBps(b.TravelServiceFee, card.TravelServiceFeeTaxBps)
			}
		}

		switch in.Food.Mode {
		case FoodModeAllowance:
			b.FoodAllowance = card.FoodAllowancePerDay * int64(travelDays+in.Food.PujaDays)
		case FoodModeCustomerProvides:
			// officiants still eat while in transit
			b.FoodAllowance = card.FoodAllowancePerDay * int64(travelDays)
		}

		if in.Accommodation.Mode == AccommodationModePlatformBooked {
			b.AccommodationCost = card.AccommodationPerNight * int64(in.Accommodation.Nights)
		}
	}

	b.GrandTotal = b.Sum()
	b.OfficiantPayout = b.Dakshina + b.TravelCost + b.FoodAllowance + b.AccommodationCost
	return b, nil
}

func validateInput(card RateCard, in Input) error {
	if in.ServiceFee <= 0 {
		return fmt.Errorf("%w: service fee must be positive", ErrInvalidPricingInput)
	}
	if in.ServiceFee > MaxServiceFee {
		return fmt.Errorf("%w: service fee %d above %d", ErrInvalidPricingInput, in.ServiceFee, MaxServiceFee)
	}
	if in.Attendees < 0 || in.Food.PujaDays < 0 || in.Travel.TravelDays < 0 || in.Accommodation.Nights < 0 {
		return fmt.Errorf("%w: counts must not be negative", ErrInvalidPricingInput)
	}
	if in.Food.PujaDays > MaxDays || in.Travel.TravelDays > MaxDays || in.Accommodation.Nights > MaxDays {
		return fmt.Errorf("%w: day counts above %d", ErrInvalidPricingInput, MaxDays)
	}
	if in.Travel.DistanceKm > MaxDistanceKm {
		return fmt.Errorf("%w: distance %.1f km above %d", ErrInvalidPricingInput, in.Travel.DistanceKm, MaxDistanceKm)
	}
	if in.Travel.Required {
		if in.Travel.Mode == "" || in.Travel.DistanceKm <= 0 {
			return fmt.Errorf("%w: travel requires a mode and a distance", ErrInvalidPricingInput)
		}
		if _, ok := card.TravelRatePerKm[in.Travel.Mode]; !ok {
			return fmt.Errorf("%w: unknown travel mode %q", ErrInvalidPricingInput, in.Travel.Mode)
		}
	} else if in.Travel.DistanceKm < 0 {
		return fmt.Errorf("%w: distance must not be negative", ErrInvalidPricingInput)
	}
	switch in.Food.Mode {
	case "", FoodModeNone, FoodModeAllowance, FoodModeCustomerProvides:
	default:
		return fmt.Errorf("%w: unknown food arrangement %q", ErrInvalidPricingInput, in.Food.Mode)
	}
	switch in.Accommodation.Mode {
	case "", AccommodationModeNone, AccommodationModeCustomerProvides, AccommodationModePlatformBooked:
	default:
		return fmt.Errorf("%w: unknown accommodation mode %q", ErrInvalidPricingInput, in.Accommodation.Mode)
	}
	return nil
}
