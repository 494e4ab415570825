// Package common contains the block-level plumbing shared by the FAT driver
// and its tools: sector devices over seekable streams, MBR partitions, and a
// fixed-size slot allocator.
package common

// LBA is a sector index relative to the start of a device or partition.
type LBA uint32

// SlotID is an index into a SlotPool.
type SlotID uint
