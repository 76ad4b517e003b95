package entities

import (
	"math"
	"strings"
	"time"

	"mirage-engine/domain/core/valueobjects"
	pkgerrors "mirage-engine/pkg/errors"
)

// SocialClass is one stratum of a regime's population. Ratios across a
// regime's classes always sum to 1.
type SocialClass struct {
	Name            string  `json:"name"`
	WealthLevel     float64 `json:"wealth_level"`
	PopulationRatio float64 `json:"population_ratio"`
	Influence       float64 `json:"influence"`
	Education       float64 `json:"education"`
	Health          float64 `json:"health"`
	Happiness       float64 `json:"happiness"`
	Mobility        float64 `json:"mobility"`
}

// Regime is the shared world state a set of characters live under.
// It is mutated only through its keeper goroutine, so the entity itself
// carries no locking.
type Regime struct {
	id           valueobjects.RegimeID
	name         string
	regimeType   string
	satisfaction float64
	corruption   float64
	stability    float64
	prosperity   float64
	freedom      float64
	techLevel    float64
	classes      []SocialClass
	createdAt    time.Time
	updatedAt    time.Time
	version      int
}

// NewRegime creates a regime with a class structure. Class population
// ratios are normalized so they sum to 1.
func NewRegime(name, regimeType string, classes []SocialClass) (*Regime, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, pkgerrors.NewValidationError("name", "name cannot be empty")
	}
	if len(classes) == 0 {
		return nil, pkgerrors.NewValidationError("classes", "at least one social class is required")
	}
	seen := make(map[string]bool, len(classes))
	total := 0.0
	for _, class := range classes {
		if class.Name == "" {
			return nil, pkgerrors.NewValidationError("classes", "class name cannot be empty")
		}
		if seen[class.Name] {
			return nil, pkgerrors.NewValidationError("classes", "duplicate class name: "+class.Name)
		}
		seen[class.Name] = true
		if class.PopulationRatio < 0 {
			return nil, pkgerrors.NewValidationError("classes", "population ratio cannot be negative")
		}
		total += class.PopulationRatio
	}
	if total <= 0 {
		return nil, pkgerrors.NewValidationError("classes", "population ratios must sum to a positive value")
	}

	owned := make([]SocialClass, len(classes))
	copy(owned, classes)
	for i := range owned {
		owned[i].PopulationRatio /= total
	}

	now := time.Now()
	return &Regime{
		id:           valueobjects.NewRegimeID(),
		name:         name,
		regimeType:   regimeType,
		satisfaction: 0.5,
		corruption:   0.2,
		stability:    0.6,
		prosperity:   0.5,
		freedom:      0.5,
		techLevel:    0.3,
		classes:      owned,
		createdAt:    now,
		updatedAt:    now,
		version:      1,
	}, nil
}

// ReconstructRegime recreates a regime from stored data
func ReconstructRegime(
	id valueobjects.RegimeID,
	name, regimeType string,
	satisfaction, corruption, stability, prosperity, freedom, techLevel float64,
	classes []SocialClass,
	createdAt, updatedAt time.Time,
	version int,
) *Regime {
	return &Regime{
		id:           id,
		name:         name,
		regimeType:   regimeType,
		satisfaction: satisfaction,
		corruption:   corruption,
		stability:    stability,
		prosperity:   prosperity,
		freedom:      freedom,
		techLevel:    techLevel,
		classes:      classes,
		createdAt:    createdAt,
		updatedAt:    updatedAt,
		version:      version,
	}
}

// ID returns the regime's unique identifier
func (r *Regime) ID() valueobjects.RegimeID { return r.id }

// Name returns the regime's name
func (r *Regime) Name() string { return r.name }

// RegimeType returns the free-form regime type descriptor
func (r *Regime) RegimeType() string { return r.regimeType }

// Satisfaction returns the population satisfaction scalar in [0,1]
func (r *Regime) Satisfaction() float64 { return r.satisfaction }

// Corruption returns the corruption scalar in [0,1]
func (r *Regime) Corruption() float64 { return r.corruption }

// Stability returns the stability scalar in [0,1]
func (r *Regime) Stability() float64 { return r.stability }

// Prosperity returns the prosperity scalar in [0,1]
func (r *Regime) Prosperity() float64 { return r.prosperity }

// Freedom returns the freedom scalar in [0,1]
func (r *Regime) Freedom() float64 { return r.freedom }

// TechLevel returns the technology scalar in [0,1]
func (r *Regime) TechLevel() float64 { return r.techLevel }

// Version returns the entity version for optimistic locking
func (r *Regime) Version() int { return r.version }

// CreatedAt returns when the regime was created
func (r *Regime) CreatedAt() time.Time { return r.createdAt }

// UpdatedAt returns when the regime last changed
func (r *Regime) UpdatedAt() time.Time { return r.updatedAt }

// Classes returns a copy of the social class structure
func (r *Regime) Classes() []SocialClass {
	out := make([]SocialClass, len(r.classes))
	copy(out, r.classes)
	return out
}

// Class returns the named social class, if present
func (r *Regime) Class(name string) (SocialClass, bool) {
	for _, class := range r.classes {
		if class.Name == name {
			return class, true
		}
	}
	return SocialClass{}, false
}

// PopulationRatioSum returns the sum of class population ratios.
// It stays within tolerance of 1 across any sequence of impacts.
func (r *Regime) PopulationRatioSum() float64 {
	total := 0.0
	for _, class := range r.classes {
		total += class.PopulationRatio
	}
	return total
}

// ApplyImpact folds a regime impact into the aggregate scalars, moving
// population between classes when the impact names a shift. All scalars
// clamp to [0,1] and ratios re-normalize so they keep summing to 1.
func (r *Regime) ApplyImpact(impact RegimeImpact) error {
	if impact.IsZero() {
		return nil
	}

	r.satisfaction = valueobjects.Clamp01(r.satisfaction + impact.Satisfaction)
	r.corruption = valueobjects.Clamp01(r.corruption + impact.Corruption)
	r.stability = valueobjects.Clamp01(r.stability + impact.Stability)
	r.prosperity = valueobjects.Clamp01(r.prosperity + impact.Prosperity)
	r.freedom = valueobjects.Clamp01(r.freedom + impact.Freedom)
	r.techLevel = valueobjects.Clamp01(r.techLevel + impact.TechLevel)

	if impact.PopulationShift != 0 {
		if err := r.shiftPopulation(impact.FromClass, impact.ToClass, impact.PopulationShift); err != nil {
			return err
		}
	}

	r.updatedAt = time.Now()
	r.version++
	return nil
}

// shiftPopulation moves ratio mass between two classes. The shift is
// capped at the source class's remaining ratio, then the whole vector
// is renormalized to absorb float drift.
func (r *Regime) shiftPopulation(from, to string, shift float64) error {
	if shift < 0 {
		from, to = to, from
		shift = -shift
	}
	fromIdx, toIdx := -1, -1
	for i := range r.classes {
		switch r.classes[i].Name {
		case from:
			fromIdx = i
		case to:
			toIdx = i
		}
	}
	if fromIdx < 0 {
		return pkgerrors.NewValidationError("from_class", "unknown social class: "+from)
	}
	if toIdx < 0 {
		return pkgerrors.NewValidationError("to_class", "unknown social class: "+to)
	}

	shift = math.Min(shift, r.classes[fromIdx].PopulationRatio)
	r.classes[fromIdx].PopulationRatio -= shift
	r.classes[toIdx].PopulationRatio += shift

	total := r.PopulationRatioSum()
	if total > 0 {
		for i := range r.classes {
			r.classes[i].PopulationRatio /= total
		}
	}
	return nil
}
