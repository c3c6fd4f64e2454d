package navigation

import "errors"

var (
	// ErrNoLoadout is returned when no ship loadout is known yet.
	ErrNoLoadout = errors.New("navigation: no loadout")

	// ErrNoDrive is returned when the loadout has no frame shift drive fitted.
	ErrNoDrive = errors.New("navigation: no frame shift drive fitted")

	// ErrUnknownDrive is returned when the fitted drive is not in the tables.
	ErrUnknownDrive = errors.New("navigation: unknown frame shift drive")

	// ErrNotReady is returned when the state has not finished its first load.
	ErrNotReady = errors.New("navigation: state not loaded yet")

	// ErrEmptyTables is returned when drive tables lack ratings or drives.
	ErrEmptyTables = errors.New("navigation: empty drive tables")
)
