package navigation

import (
	_ "embed"
	"fmt"
	"slices"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

//go:embed drives.toml
var drivesTOML []byte

// ratingByClassDigit maps the classN suffix of an item name to its rating.
var ratingByClassDigit = map[int]string{1: "E", 2: "D", 3: "C", 4: "B", 5: "A"}

// DriveSpec is the base parameter set for one drive size.
type DriveSpec struct {
	Class       int                `toml:"class"`
	Exponent    float64            `toml:"exponent"`
	OptimalMass map[string]float64 `toml:"optimal_mass"`
	MaxFuel     map[string]float64 `toml:"max_fuel"`
}

// BoosterSpec is the flat range bonus of a Guardian drive booster.
type BoosterSpec struct {
	Size  int     `toml:"size"`
	Bonus float64 `toml:"bonus"`
}

// Tables holds the calibration tables for the range formula.
type Tables struct {
	EfficiencyFactor  float64            `toml:"efficiency_factor"`
	SafetyMargin      float64            `toml:"safety_margin"`
	MassManagerBonus  float64            `toml:"mass_manager_bonus"`
	MassManagerEffect string             `toml:"mass_manager_effect"`
	Scoopable         []string           `toml:"scoopable"`
	Ratings           map[string]float64 `toml:"ratings"`
	Drives            []DriveSpec        `toml:"drive"`
	Overcharge        []DriveSpec        `toml:"overcharge"`
	Boosters          []BoosterSpec      `toml:"booster"`
}

// LoadTables decodes the built-in drive tables.
func LoadTables() (*Tables, error) {
	return ParseTables(drivesTOML)
}

// ParseTables decodes drive tables from TOML.
func ParseTables(data []byte) (*Tables, error) {
	var t Tables
	if err := toml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("navigation: parsing drive tables: %w", err)
	}
	if err := t.normalize(); err != nil {
		return nil, err
	}
	return &t, nil
}

// normalize rejects tables without ratings or drives and fills defaults.
func (t *Tables) normalize() error {
	if len(t.Ratings) == 0 || len(t.Drives) == 0 {
		return fmt.Errorf("navigation: drive tables: %w", ErrEmptyTables)
	}
	if t.EfficiencyFactor <= 0 {
		t.EfficiencyFactor = 1
	}
	return nil
}

// driveSpec returns the drive parameters for class, from the overcharge table
// when overcharge is set.
func (t *Tables) driveSpec(class int, overcharge bool) (DriveSpec, bool) {
	list := t.Drives
	if overcharge {
		list = t.Overcharge
	}
	for _, s := range list {
		if s.Class == class {
			return s, true
		}
	}
	return DriveSpec{}, false
}

func (t *Tables) boosterBonus(size int) float64 {
	for _, b := range t.Boosters {
		if b.Size == size {
			return b.Bonus
		}
	}
	return 0
}

// IsScoopable reports whether a star of the given spectral class can be
// fuel-scooped. Sub-types such as "K_OrangeGiant" use the part before "_".
func (t *Tables) IsScoopable(starClass string) bool {
	class, _, _ := strings.Cut(starClass, "_")
	return slices.Contains(t.Scoopable, class)
}
