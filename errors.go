package neoos

import (
	"github.com/dani2318/NeoOS/errors"
)

// DriverError is the error type returned by every operation in this module.
type DriverError = errors.DriverError

// The five failure kinds a boot-time consumer has to tell apart.
var (
	// ErrDeviceRead means the block source failed to deliver sectors.
	ErrDeviceRead = errors.New(errors.EIO)
	// ErrOutOfHandles means every slot in the handle table is in use.
	ErrOutOfHandles = errors.New(errors.EMFILE)
	// ErrNotFound means a path component has no matching directory entry.
	ErrNotFound = errors.New(errors.ENOENT)
	// ErrNotADirectory means a non-final path component names a file.
	ErrNotADirectory = errors.New(errors.ENOTDIR)
	// ErrIncompatible means the boot sector describes a volume the driver
	// can't read.
	ErrIncompatible = errors.New(errors.EMEDIUMTYPE)
)

var (
	ErrBadHandle       = errors.New(errors.EBADF)
	ErrCorruptChain    = errors.New(errors.EUCLEAN)
	ErrReadOnly        = errors.New(errors.EROFS)
	ErrInvalidArgument = errors.New(errors.EINVAL)
	ErrIsADirectory    = errors.New(errors.EISDIR)
	ErrIllegalSeek     = errors.New(errors.ESPIPE)
)
