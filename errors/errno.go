// Errno codes reported by the driver. The syscall package doesn't define all of
// them on every platform (EUCLEAN and EMEDIUMTYPE in particular), and a boot
// loader has no host errno to borrow from anyway.

package errors

import (
	"fmt"
)

type Errno int

const (
	EOK Errno = iota
	ENOENT
	EIO
	EBADF
	ENOTDIR
	EISDIR
	EINVAL
	EMFILE
	ESPIPE
	EROFS
	ENOSYS
	EALREADY
	EUCLEAN
	EMEDIUMTYPE
)

var errorMessagesByCode = map[Errno]string{
	EOK:         "Success",
	ENOENT:      "No such file or directory",
	EIO:         "Input/output error",
	EBADF:       "Bad file descriptor",
	ENOTDIR:     "Not a directory",
	EISDIR:      "Is a directory",
	EINVAL:      "Invalid argument",
	EMFILE:      "Too many open files",
	ESPIPE:      "Illegal seek",
	EROFS:       "Read-only file system",
	ENOSYS:      "Function not implemented",
	EALREADY:    "Operation already in progress",
	EUCLEAN:     "Structure needs cleaning",
	EMEDIUMTYPE: "Wrong medium type",
}

var ErrNotFound = New(ENOENT)
var ErrIOFailed = New(EIO)
var ErrInvalidFileDescriptor = New(EBADF)
var ErrNotADirectory = New(ENOTDIR)
var ErrIsADirectory = New(EISDIR)
var ErrInvalidArgument = New(EINVAL)
var ErrTooManyOpenFiles = New(EMFILE)
var ErrIllegalSeek = New(ESPIPE)
var ErrReadOnlyFileSystem = New(EROFS)
var ErrNotImplemented = New(ENOSYS)
var ErrAlreadyInProgress = New(EALREADY)
var ErrFileSystemCorrupted = New(EUCLEAN)
var ErrWrongMediumType = New(EMEDIUMTYPE)

// StrError returns the human-readable message for an errno code.
func StrError(code Errno) string {
	message, ok := errorMessagesByCode[code]
	if ok {
		return message
	}
	return fmt.Sprintf("error %d not recognized.", int(code))
}
