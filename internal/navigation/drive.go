// Package navigation estimates jump range and per-hop fuel use for a plotted
// route. Everything here is a pure computation over published state; nothing
// performs I/O or mutates its inputs.
package navigation

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/Devious-Alcedo/EliteInfoPanel-sub000/internal/snapshot"
)

// Engineering modifier labels read from the drive.
const (
	ModifierOptimalMass = "FSDOptimalMass"
	ModifierMaxFuel     = "MaxFuelPerJump"
)

const driveSlot = "FrameShiftDrive"

var (
	driveItem   = regexp.MustCompile(`^int_hyperdrive(_overcharge)?_size(\d)_class(\d)$`)
	boosterItem = regexp.MustCompile(`^int_guardianfsdbooster_size(\d)$`)
)

// Drive is a resolved frame shift drive with engineering applied.
type Drive struct {
	Item           string
	Class          int
	Rating         string
	Overcharge     bool
	Exponent       float64
	RatingConstant float64
	OptimalMass    float64
	MaxFuelPerJump float64

	// Flat range bonuses in light years.
	BoosterBonus     float64
	MassManagerBonus float64
}

// Bonus is the total flat range bonus.
func (d Drive) Bonus() float64 { return d.BoosterBonus + d.MassManagerBonus }

// String formats the drive as size and rating, e.g. "5A".
func (d Drive) String() string {
	s := fmt.Sprintf("%d%s", d.Class, d.Rating)
	if d.Overcharge {
		s += " SCO"
	}
	return s
}

// ResolveDrive finds the frame shift drive in loadout and looks up its
// parameters. Engineered optimal mass and max fuel per jump replace the
// table values.
func (t *Tables) ResolveDrive(loadout *snapshot.Loadout) (Drive, error) {
	if loadout == nil {
		return Drive{}, ErrNoLoadout
	}

	mod, ok := loadout.ModuleInSlot(driveSlot)
	if !ok {
		for _, m := range loadout.Modules {
			if strings.HasPrefix(strings.ToLower(m.Item), "int_hyperdrive") {
				mod, ok = m, true
				break
			}
		}
	}
	if !ok {
		return Drive{}, ErrNoDrive
	}

	item := strings.ToLower(mod.Item)
	m := driveItem.FindStringSubmatch(item)
	if m == nil {
		return Drive{}, fmt.Errorf("%w: %s", ErrUnknownDrive, mod.Item)
	}
	class, _ := strconv.Atoi(m[2])
	digit, _ := strconv.Atoi(m[3])
	rating, ok := ratingByClassDigit[digit]
	if !ok {
		return Drive{}, fmt.Errorf("%w: %s", ErrUnknownDrive, mod.Item)
	}
	overcharge := m[1] != ""

	ds, ok := t.driveSpec(class, overcharge)
	if !ok {
		return Drive{}, fmt.Errorf("%w: %s", ErrUnknownDrive, mod.Item)
	}
	d := Drive{
		Item:           item,
		Class:          class,
		Rating:         rating,
		Overcharge:     overcharge,
		Exponent:       ds.Exponent,
		RatingConstant: t.Ratings[rating],
		OptimalMass:    ds.OptimalMass[rating],
		MaxFuelPerJump: ds.MaxFuel[rating],
	}
	if d.Exponent <= 0 || d.RatingConstant <= 0 || d.OptimalMass <= 0 || d.MaxFuelPerJump <= 0 {
		return Drive{}, fmt.Errorf("%w: incomplete table entry for %s", ErrUnknownDrive, mod.Item)
	}

	if mod.Engineering != nil {
		if v, ok := mod.Engineering.Modifier(ModifierOptimalMass); ok && v.Value > 0 {
			d.OptimalMass = v.Value
		}
		if v, ok := mod.Engineering.Modifier(ModifierMaxFuel); ok && v.Value > 0 {
			d.MaxFuelPerJump = v.Value
		}
		if t.MassManagerEffect != "" && strings.EqualFold(mod.Engineering.ExperimentalEffect, t.MassManagerEffect) {
			d.MassManagerBonus = t.MassManagerBonus
		}
	}

	for _, other := range loadout.Modules {
		if bm := boosterItem.FindStringSubmatch(strings.ToLower(other.Item)); bm != nil {
			size, _ := strconv.Atoi(bm[1])
			d.BoosterBonus = t.boosterBonus(size)
			break
		}
	}
	return d, nil
}

// JumpRange is the uncalibrated range in light years for one jump burning
// fuel tonnes at the given total ship mass. Fuel beyond the drive's per-jump
// cap is ignored.
func JumpRange(d Drive, fuel, mass float64) float64 {
	if fuel <= 0 || mass <= 0 || d.Exponent <= 0 || d.RatingConstant <= 0 {
		return 0
	}
	fuel = math.Min(fuel, d.MaxFuelPerJump)
	inv := 1 / d.Exponent
	r := math.Pow(100, inv) * d.OptimalMass * math.Pow(fuel/d.RatingConstant, inv) / mass
	return r + d.Bonus()
}

// FuelForDistance inverts the range formula: the fuel needed to jump dist
// light years at mass, given a calibration factor. The result is capped at
// the drive's per-jump maximum and then scaled by efficiency. Flat bonuses
// are not subtracted, so the estimate errs high.
func FuelForDistance(d Drive, dist, mass, factor, efficiency float64) float64 {
	if dist <= 0 || mass <= 0 || d.Exponent <= 0 || d.OptimalMass <= 0 {
		return 0
	}
	if factor <= 0 {
		factor = 1
	}
	if efficiency <= 0 {
		efficiency = 1
	}
	perTon := factor * math.Pow(100, 1/d.Exponent) * d.OptimalMass / mass
	fuel := d.RatingConstant * math.Pow(dist/perTon, d.Exponent)
	return math.Min(fuel, d.MaxFuelPerJump) * efficiency
}

// CalibrationFactor is the multiplier that maps a computed maximum range
// onto the range the game reports. It is 1 when either value is unusable.
func CalibrationFactor(reportedMax, computedMax float64) float64 {
	if reportedMax <= 0 || computedMax <= 0 || math.IsNaN(reportedMax) || math.IsNaN(computedMax) {
		return 1
	}
	return reportedMax / computedMax
}

// RangeInfo is the calibrated range of the ship right now.
type RangeInfo struct {
	// MaxRange is the calibrated range with no cargo and one jump's fuel.
	MaxRange float64
	// CurrentRange is the calibrated range at the current mass and fuel.
	CurrentRange float64

	UnscaledMax     float64
	UnscaledCurrent float64
	Factor          float64
	LadenMass       float64
}

// Ranges computes uncalibrated maximum and current ranges, derives the
// calibration factor from the loadout's reported maximum, and applies it to
// both.
func Ranges(d Drive, loadout *snapshot.Loadout, cargoTons, fuelMain, fuelReserve float64) RangeInfo {
	if loadout == nil {
		return RangeInfo{Factor: 1}
	}
	unladen := loadout.UnladenMass
	laden := unladen + math.Max(cargoTons, 0) + math.Max(fuelMain, 0) + math.Max(fuelReserve, 0)

	info := RangeInfo{
		UnscaledMax:     JumpRange(d, d.MaxFuelPerJump, unladen),
		UnscaledCurrent: JumpRange(d, math.Min(fuelMain, d.MaxFuelPerJump), laden),
		LadenMass:       laden,
	}
	info.Factor = CalibrationFactor(loadout.MaxJumpRange, info.UnscaledMax)
	info.MaxRange = info.UnscaledMax * info.Factor
	info.CurrentRange = info.UnscaledCurrent * info.Factor
	return info
}
