package usecase

// Pricing baseline tables. Loaded once as immutable package data; the
// estimator and destination expansion treat them as read-only configuration.

// DistanceBand labels.
const (
	BandShort     = "short"
	BandMedium    = "medium"
	BandLong      = "long"
	BandUltraLong = "ultra_long"
)

// Hotel tier labels.
const (
	TierBudget   = "budget"
	TierStandard = "standard"
	TierPremium  = "premium"
	TierLuxury   = "luxury"
)

// distanceBandProfile drives the fallback flight bounds and travel-time
// proxy for one discrete great-circle distance class.
type distanceBandProfile struct {
	Band              string
	MaxKm             float64
	FlightMin         float64
	FlightMax         float64
	TravelTimeHours   float64
	NonstopLikelihood float64
}

var distanceBands = []distanceBandProfile{
	{Band: BandShort, MaxKm: 900, FlightMin: 90, FlightMax: 240, TravelTimeHours: 2.1, NonstopLikelihood: 0.86},
	{Band: BandMedium, MaxKm: 2800, FlightMin: 260, FlightMax: 680, TravelTimeHours: 5.0, NonstopLikelihood: 0.72},
	{Band: BandLong, MaxKm: 6200, FlightMin: 480, FlightMax: 1150, TravelTimeHours: 9.5, NonstopLikelihood: 0.48},
	{Band: BandUltraLong, MaxKm: 0, FlightMin: 720, FlightMax: 1900, TravelTimeHours: 14.5, NonstopLikelihood: 0.30},
}

// distanceProfile maps a distance to its band; the last band is open-ended.
func distanceProfile(distanceKm float64) distanceBandProfile {
	for _, band := range distanceBands[:len(distanceBands)-1] {
		if distanceKm <= band.MaxKm {
			return band
		}
	}
	return distanceBands[len(distanceBands)-1]
}

// seasonMultipliers by calendar month (1-12).
var seasonMultipliers = map[int]float64{
	1:  0.92,
	2:  0.90,
	3:  0.97,
	4:  1.02,
	5:  1.05,
	6:  1.14,
	7:  1.22,
	8:  1.20,
	9:  1.04,
	10: 0.99,
	11: 0.93,
	12: 1.16,
}

// SeasonMultiplierForMonth returns the table value, defaulting to 1.0.
func SeasonMultiplierForMonth(month int) float64 {
	if multiplier, ok := seasonMultipliers[month]; ok {
		return multiplier
	}
	return 1.0
}

// tierProfile holds fallback nightly hotel bounds per price class.
type tierProfile struct {
	NightlyMin  float64
	NightlyMax  float64
	StarRating  float64
	GuestRating float64
}

var hotelTiers = map[string]tierProfile{
	TierBudget:   {NightlyMin: 45, NightlyMax: 95, StarRating: 2.8, GuestRating: 7.4},
	TierStandard: {NightlyMin: 80, NightlyMax: 190, StarRating: 3.6, GuestRating: 8.0},
	TierPremium:  {NightlyMin: 150, NightlyMax: 340, StarRating: 4.3, GuestRating: 8.7},
	TierLuxury:   {NightlyMin: 280, NightlyMax: 700, StarRating: 4.8, GuestRating: 9.2},
}

func tierProfileFor(tier string) tierProfile {
	if profile, ok := hotelTiers[tier]; ok {
		return profile
	}
	return hotelTiers[TierStandard]
}

// countryProfile seeds candidate metadata when no airport override exists.
type countryProfile struct {
	Tier              string
	Tags              []string
	NonstopLikelihood float64
}

var countryDefaults = map[string]countryProfile{
	"FR": {Tier: TierPremium, Tags: []string{"culture", "food", "romance"}, NonstopLikelihood: 0.78},
	"IT": {Tier: TierStandard, Tags: []string{"culture", "food", "history"}, NonstopLikelihood: 0.70},
	"ES": {Tier: TierStandard, Tags: []string{"beach", "food", "nightlife"}, NonstopLikelihood: 0.74},
	"JP": {Tier: TierPremium, Tags: []string{"culture", "food", "technology"}, NonstopLikelihood: 0.52},
	"TH": {Tier: TierBudget, Tags: []string{"beach", "food", "adventure"}, NonstopLikelihood: 0.38},
	"US": {Tier: TierStandard, Tags: []string{"city", "shopping", "nature"}, NonstopLikelihood: 0.82},
	"GB": {Tier: TierPremium, Tags: []string{"culture", "city", "history"}, NonstopLikelihood: 0.84},
	"PT": {Tier: TierStandard, Tags: []string{"beach", "food", "surf"}, NonstopLikelihood: 0.66},
	"GR": {Tier: TierStandard, Tags: []string{"beach", "history", "food"}, NonstopLikelihood: 0.58},
	"AE": {Tier: TierLuxury, Tags: []string{"luxury", "shopping", "beach"}, NonstopLikelihood: 0.62},
}

var defaultCountryProfile = countryProfile{
	Tier:              TierStandard,
	Tags:              []string{"culture", "food"},
	NonstopLikelihood: 0.55,
}

// CountryDefaultProfile returns the seed profile for a country code.
func CountryDefaultProfile(countryCode string) (string, []string, float64) {
	profile, ok := countryDefaults[countryCode]
	if !ok {
		profile = defaultCountryProfile
	}
	tags := make([]string, len(profile.Tags))
	copy(tags, profile.Tags)
	return profile.Tier, tags, profile.NonstopLikelihood
}

// airportOverrides refine the country defaults for specific hubs.
var airportOverrides = map[string]countryProfile{
	"CDG": {Tier: TierPremium, Tags: []string{"culture", "food", "romance", "city"}, NonstopLikelihood: 0.88},
	"BKK": {Tier: TierBudget, Tags: []string{"food", "nightlife", "culture"}, NonstopLikelihood: 0.52},
	"HND": {Tier: TierPremium, Tags: []string{"culture", "food", "technology", "city"}, NonstopLikelihood: 0.64},
	"DXB": {Tier: TierLuxury, Tags: []string{"luxury", "shopping"}, NonstopLikelihood: 0.80},
	"JFK": {Tier: TierPremium, Tags: []string{"city", "culture", "shopping"}, NonstopLikelihood: 0.90},
}

// AirportOverrideProfile returns the hub override when one exists.
func AirportOverrideProfile(airportCode string) (string, []string, float64, bool) {
	profile, ok := airportOverrides[airportCode]
	if !ok {
		return "", nil, 0, false
	}
	tags := make([]string, len(profile.Tags))
	copy(tags, profile.Tags)
	return profile.Tier, tags, profile.NonstopLikelihood, true
}
