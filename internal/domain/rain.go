package domain

// RainTier classifies an hour's rain volume for colouring.
type RainTier int

const (
	TierNone RainTier = iota // no rain field in the feed
	TierLight
	TierModerate
	TierHeavy
	TierViolent
)

var tierNames = [...]string{"none", "light", "moderate", "heavy", "violent"}

var tierColors = [...]Color{
	TierNone:     ColorBlack,
	TierLight:    0x4275C4,
	TierModerate: 0x284777,
	TierHeavy:    0x1E3559,
	TierViolent:  0xFF0000,
}

func (t RainTier) String() string {
	if t < 0 || int(t) >= len(tierNames) {
		return "unknown"
	}
	return tierNames[t]
}

// Color returns the precipitation column colour for the tier.
func (t RainTier) Color() Color {
	if t < 0 || int(t) >= len(tierColors) {
		return ColorBlack
	}
	return tierColors[t]
}

// ClassifyRain maps a one-hour rain volume in mm to a tier. A nil volume
// means the feed had no rain data for the hour.
func ClassifyRain(mm *float64) RainTier {
	if mm == nil {
		return TierNone
	}
	switch v := *mm; {
	case v < 2.5:
		return TierLight
	case v < 10.0:
		return TierModerate
	case v < 50.0:
		return TierHeavy
	default:
		return TierViolent
	}
}
