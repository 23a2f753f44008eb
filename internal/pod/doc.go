// Package pod owns the self-describing binary value format.
//
// Every value is a 32-bit size, a 32-bit type tag and size payload bytes,
// zero padded so the next value starts on an 8 byte boundary. All numeric
// fields are little-endian regardless of host.
//
// Ownership boundary:
// - type registry and wire constants
// - Builder (write side, frame stack, size patching)
// - Parser and Value views (read side, zero copy)
// - property lookup and debug dump
package pod
