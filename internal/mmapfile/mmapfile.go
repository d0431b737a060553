// Package mmapfile wraps the memory-mapping primitives used to map index
// files into the process address space.
package mmapfile

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// ErrZeroLength is returned when a zero-length file is requested to be mapped.
var ErrZeroLength = errors.New("mmapfile: zero length")

// Mapping is a memory-mapped region backed by an open file descriptor.
//
// The file descriptor is duplicated internally from the os.File passed to
// MapReadOnly or MapReadWrite, so the caller's *os.File may be closed once
// that call returns; the mapping
// itself keeps the underlying file alive until Unmap.
type Mapping struct {
	Data []byte
	fd   int
}

// MapReadOnly maps the whole of f read-only. f's size must be > 0.
func MapReadOnly(f *os.File) (*Mapping, error) {
	return mapFile(f, unix.PROT_READ)
}

// MapReadWrite maps the whole of f for reading and writing. f's size must be > 0.
func MapReadWrite(f *os.File) (*Mapping, error) {
	return mapFile(f, unix.PROT_READ|unix.PROT_WRITE)
}

func mapFile(f *os.File, prot int) (*Mapping, error) {
	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("mmapfile: stat: %w", err)
	}

	size := info.Size()
	if size == 0 {
		return nil, ErrZeroLength
	}

	fd, err := unix.Dup(int(f.Fd()))
	if err != nil {
		return nil, fmt.Errorf("mmapfile: dup: %w", err)
	}

	data, err := unix.Mmap(fd, 0, int(size), prot, unix.MAP_SHARED)
	if err != nil {
		_ = unix.Close(fd)

		return nil, fmt.Errorf("mmapfile: mmap: %w", err)
	}

	return &Mapping{Data: data, fd: fd}, nil
}

// Msync flushes dirty pages of the mapping to the backing file synchronously.
func (m *Mapping) Msync() error {
	if m == nil || m.Data == nil {
		return nil
	}

	err := unix.Msync(m.Data, unix.MS_SYNC)
	if err != nil {
		return fmt.Errorf("mmapfile: msync: %w", err)
	}

	return nil
}

// Unmap releases the mapping and closes the duplicated descriptor. Safe to
// call on a nil *Mapping or to call twice.
func (m *Mapping) Unmap() error {
	if m == nil || m.Data == nil {
		return nil
	}

	err := unix.Munmap(m.Data)

	m.Data = nil

	closeErr := unix.Close(m.fd)
	m.fd = -1

	if err != nil {
		return fmt.Errorf("mmapfile: munmap: %w", err)
	}

	if closeErr != nil {
		return fmt.Errorf("mmapfile: close dup fd: %w", closeErr)
	}

	return nil
}
