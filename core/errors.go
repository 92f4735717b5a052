package core

import "errors"

// Sentinel errors returned for data-dependent failure conditions. Panics
// are reserved for conditions that indicate a programmer or ROM contract
// violation rather than recoverable data (see the invalid-opcode and
// empty-stack-pop panics in cpu.go).
var (
	ErrUnsupportedMapper      = errors.New("core: unsupported cartridge mapper type")
	ErrROMTooSmall            = errors.New("core: rom image smaller than its declared header size")
	ErrBatteryBlobSizeMismatch = errors.New("core: battery blob size does not match cartridge ram size")
)
