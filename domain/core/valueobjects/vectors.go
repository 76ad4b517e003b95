package valueobjects

import "math"

// Clamp01 clamps v to the [0,1] interval
func Clamp01(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}

// Clamp clamps v to the [lo,hi] interval
func Clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}

// PersonalityVector holds the five-factor personality traits, each in [0,1]
type PersonalityVector struct {
	Openness          float64 `json:"openness"`
	Conscientiousness float64 `json:"conscientiousness"`
	Extraversion      float64 `json:"extraversion"`
	Agreeableness     float64 `json:"agreeableness"`
	Neuroticism       float64 `json:"neuroticism"`
}

// DefaultPersonality returns a neutral personality vector
func DefaultPersonality() PersonalityVector {
	return PersonalityVector{0.5, 0.5, 0.5, 0.5, 0.5}
}

// Clamped returns a copy with every trait clamped to [0,1]
func (p PersonalityVector) Clamped() PersonalityVector {
	return PersonalityVector{
		Openness:          Clamp01(p.Openness),
		Conscientiousness: Clamp01(p.Conscientiousness),
		Extraversion:      Clamp01(p.Extraversion),
		Agreeableness:     Clamp01(p.Agreeableness),
		Neuroticism:       Clamp01(p.Neuroticism),
	}
}

// EmotionVector holds the character's emotional state, each in [0,1]
type EmotionVector struct {
	Joy     float64 `json:"joy"`
	Anger   float64 `json:"anger"`
	Sadness float64 `json:"sadness"`
	Fear    float64 `json:"fear"`
}

// DefaultEmotion returns an even emotional state
func DefaultEmotion() EmotionVector {
	return EmotionVector{0.25, 0.25, 0.25, 0.25}
}

// Add returns the element-wise sum of two emotion vectors, clamped to [0,1]
func (e EmotionVector) Add(delta EmotionVector) EmotionVector {
	return EmotionVector{
		Joy:     Clamp01(e.Joy + delta.Joy),
		Anger:   Clamp01(e.Anger + delta.Anger),
		Sadness: Clamp01(e.Sadness + delta.Sadness),
		Fear:    Clamp01(e.Fear + delta.Fear),
	}
}

// IsZero reports whether every component is zero
func (e EmotionVector) IsZero() bool {
	return e.Joy == 0 && e.Anger == 0 && e.Sadness == 0 && e.Fear == 0
}

// SocialVector holds the character's standing in the simulated world,
// each in [0,1]
type SocialVector struct {
	Reputation float64 `json:"reputation"`
	Trust      float64 `json:"trust"`
	Wealth     float64 `json:"wealth"`
	Status     float64 `json:"status"`
}

// DefaultSocial returns a middling social standing
func DefaultSocial() SocialVector {
	return SocialVector{0.5, 0.5, 0.5, 0.5}
}

// Add returns the element-wise sum of two social vectors, clamped to [0,1]
func (s SocialVector) Add(delta SocialVector) SocialVector {
	return SocialVector{
		Reputation: Clamp01(s.Reputation + delta.Reputation),
		Trust:      Clamp01(s.Trust + delta.Trust),
		Wealth:     Clamp01(s.Wealth + delta.Wealth),
		Status:     Clamp01(s.Status + delta.Status),
	}
}

// IsFinite reports whether every component is a finite number
func IsFinite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
