package snapshot

// StatusFlags is the Status.json "Flags" bitmask.
type StatusFlags uint32

// StatusFlags bits.
const (
	FlagDocked StatusFlags = 1 << iota
	FlagLanded
	FlagLandingGearDown
	FlagShieldsUp
	FlagSupercruise
	FlagFlightAssistOff
	FlagHardpointsDeployed
	FlagInWing
	FlagLightsOn
	FlagCargoScoopDeployed
	FlagSilentRunning
	FlagScoopingFuel
	FlagSrvHandbrake
	FlagSrvTurretView
	FlagSrvTurretRetracted
	FlagSrvDriveAssist
	FlagFsdMassLocked
	FlagFsdCharging
	FlagFsdCooldown
	FlagLowFuel
	FlagOverHeating
	FlagHasLatLong
	FlagIsInDanger
	FlagBeingInterdicted
	FlagInMainShip
	FlagInFighter
	FlagInSRV
	FlagHudAnalysisMode
	FlagNightVision
	FlagAltitudeFromAverageRadius
	FlagFsdJump
	FlagSrvHighBeam
)

// StatusFlags2 is the Status.json "Flags2" bitmask (Odyssey).
type StatusFlags2 uint32

// StatusFlags2 bits.
const (
	Flag2OnFoot StatusFlags2 = 1 << iota
	Flag2InTaxi
	Flag2InMulticrew
	Flag2OnFootInStation
	Flag2OnFootOnPlanet
	Flag2AimDownSight
	Flag2LowOxygen
	Flag2LowHealth
	Flag2Cold
	Flag2Hot
	Flag2VeryCold
	Flag2VeryHot
	Flag2GlideMode
	Flag2OnFootInHangar
	Flag2OnFootSocialSpace
	Flag2OnFootExterior
	Flag2BreathableAtmosphere
	Flag2TelepresenceMulticrew
	Flag2PhysicalMulticrew
	Flag2FsdHyperdriveCharging
)

var flagNames = [...]string{
	"Docked", "Landed", "LandingGearDown", "ShieldsUp", "Supercruise",
	"FlightAssistOff", "HardpointsDeployed", "InWing", "LightsOn",
	"CargoScoopDeployed", "SilentRunning", "ScoopingFuel", "SrvHandbrake",
	"SrvTurretView", "SrvTurretRetracted", "SrvDriveAssist", "FsdMassLocked",
	"FsdCharging", "FsdCooldown", "LowFuel", "OverHeating", "HasLatLong",
	"IsInDanger", "BeingInterdicted", "InMainShip", "InFighter", "InSRV",
	"HudAnalysisMode", "NightVision", "AltitudeFromAverageRadius", "FsdJump",
	"SrvHighBeam",
}

var flag2Names = [...]string{
	"OnFoot", "InTaxi", "InMulticrew", "OnFootInStation", "OnFootOnPlanet",
	"AimDownSight", "LowOxygen", "LowHealth", "Cold", "Hot", "VeryCold",
	"VeryHot", "GlideMode", "OnFootInHangar", "OnFootSocialSpace",
	"OnFootExterior", "BreathableAtmosphere", "TelepresenceMulticrew",
	"PhysicalMulticrew", "FsdHyperdriveCharging",
}

// Has reports whether every bit of f is set.
func (s StatusFlags) Has(f StatusFlags) bool { return s&f == f }

// Has reports whether every bit of f is set.
func (s StatusFlags2) Has(f StatusFlags2) bool { return s&f == f }

// Derived flags. These combine raw bits into named facts instead of claiming
// spare bits in either enumeration.

// Docked reports whether the ship is docked.
func (s *Status) Docked() bool { return s != nil && s.Flags.Has(FlagDocked) }

// Supercruise reports whether the ship is in supercruise.
func (s *Status) Supercruise() bool { return s != nil && s.Flags.Has(FlagSupercruise) }

// FsdJumping reports whether the hyperspace tunnel is active.
func (s *Status) FsdJumping() bool { return s != nil && s.Flags.Has(FlagFsdJump) }

// LowFuel reports the game's low-fuel warning.
func (s *Status) LowFuel() bool { return s != nil && s.Flags.Has(FlagLowFuel) }

// HyperdriveCharging is FSD charging for a hyperspace jump.
func (s *Status) HyperdriveCharging() bool {
	return s != nil && s.Flags.Has(FlagFsdCharging) && s.Flags2.Has(Flag2FsdHyperdriveCharging)
}

// SupercruiseCharging is FSD charging without the hyperdrive bit.
func (s *Status) SupercruiseCharging() bool {
	return s != nil && s.Flags.Has(FlagFsdCharging) && !s.Flags2.Has(Flag2FsdHyperdriveCharging)
}

// OnFoot reports whether the commander is out of any vehicle.
func (s *Status) OnFoot() bool {
	if s == nil {
		return false
	}
	return s.Flags2&(Flag2OnFoot|Flag2OnFootInStation|Flag2OnFootOnPlanet|
		Flag2OnFootInHangar|Flag2OnFootSocialSpace|Flag2OnFootExterior) != 0
}

// InShip reports whether the commander is aboard the main ship.
func (s *Status) InShip() bool { return s != nil && s.Flags.Has(FlagInMainShip) }

// FlagNames lists the names of every set bit in Flags then Flags2.
func (s *Status) FlagNames() []string {
	if s == nil {
		return nil
	}
	var names []string
	for i, name := range flagNames {
		if s.Flags&(1<<i) != 0 {
			names = append(names, name)
		}
	}
	for i, name := range flag2Names {
		if s.Flags2&(1<<i) != 0 {
			names = append(names, name)
		}
	}
	return names
}

// AllFlagNames returns every named flag, used by publishers that report each
// flag's state individually.
func AllFlagNames() []string {
	names := make([]string, 0, len(flagNames)+len(flag2Names))
	names = append(names, flagNames[:]...)
	names = append(names, flag2Names[:]...)
	return names
}

// FlagActive reports whether the named flag is set.
func (s *Status) FlagActive(name string) bool {
	if s == nil {
		return false
	}
	for i, n := range flagNames {
		if n == name {
			return s.Flags&(1<<i) != 0
		}
	}
	for i, n := range flag2Names {
		if n == name {
			return s.Flags2&(1<<i) != 0
		}
	}
	return false
}
