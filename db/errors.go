package db

import (
	"errors"
	"fmt"
	"strings"
)

// Error taxonomy surfaced to controllers. Every repo method returns one of
// these (possibly wrapped with ids via fmt.Errorf + %w) or a raw storage
// error, which controllers treat as internal.
var (
	ErrDeviceNotFound     = errors.New("device not found")
	ErrAssignmentNotFound = errors.New("no active assignment for device")
	ErrBarcodeTaken       = errors.New("a device with this barcode already exists")
	ErrAlreadyAssigned    = errors.New("device is already assigned to another order")
	ErrNotAssignable      = errors.New("device is not in a state that allows assignment")
	ErrStaleVersion       = errors.New("device was modified concurrently, retry with fresh data")
	ErrDeviceInUse        = errors.New("device has an active assignment")
	ErrInvalidInput       = errors.New("invalid input")
)

// MissingDevicesError carries the full set of unknown ids so a batch caller
// can fix the whole request at once instead of replaying it id by id.
type MissingDevicesError struct {
	IDs []string
}

func (e *MissingDevicesError) Error() string {
	return fmt.Sprintf("devices not found: %s", strings.Join(e.IDs, ", "))
}

// Is lets errors.Is(err, ErrDeviceNotFound) match batch misses too.
func (e *MissingDevicesError) Is(target error) bool { return target == ErrDeviceNotFound }
