package checker

import "github.com/farcloser/critic/internal/types"

// Bands defines severity thresholds for a measured value. A value must go strictly past Mild to be an
// error, and strictly past Moderate or Severe to escalate.
type Bands struct {
	Mild     float64
	Moderate float64
	Severe   float64
	// Below means lower values are worse (peak level, channel difference, short duration).
	Below bool
}

// Scaled builds ascending bands from a base threshold and multipliers.
func Scaled(base, moderate, severe float64) Bands {
	return Bands{Mild: base, Moderate: base * moderate, Severe: base * severe}
}

// Inverse builds descending bands: the value is worse the further below base it falls.
func Inverse(base, moderate, severe float64) Bands {
	return Bands{Mild: base, Moderate: base / moderate, Severe: base / severe, Below: true}
}

func (b Bands) past(value, threshold float64) bool {
	if b.Below {
		return value < threshold
	}

	return value > threshold
}

// Exceeds reports whether value is an error at all.
func (b Bands) Exceeds(value float64) bool {
	return b.past(value, b.Mild)
}

// Grade rates a value already known to be an error: Mild unless it goes past Moderate or Severe.
func (b Bands) Grade(value float64) types.Severity {
	switch {
	case b.past(value, b.Severe):
		return types.SeveritySevere
	case b.past(value, b.Moderate):
		return types.SeverityModerate
	default:
		return types.SeverityMild
	}
}

// Match returns the severity for a value.
// Returns (SeverityNone, false) when the value does not go past the Mild threshold.
func (b Bands) Match(value float64) (types.Severity, bool) {
	if !b.Exceeds(value) {
		return types.SeverityNone, false
	}

	return b.Grade(value), true
}
