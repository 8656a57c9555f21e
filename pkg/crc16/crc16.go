// Package crc16 implements the CRC-CCITT (false) checksum used by the
// EMVCo merchant-presented QR payload: polynomial 0x1021, initial
// register 0xFFFF, no final XOR, processed MSB-first over the UTF-8
// bytes of the payload.
//
// Two implementations are provided and must agree bit for bit: a direct
// per-bit loop and a 256-entry lookup-table variant. The table is
// generated once by running the per-bit algorithm over each possible
// leading byte.
package crc16

import (
	"fmt"
	"strings"
)

const (
	polynomial = 0x1021
	initial    = 0xFFFF
)

var table = makeTable()

func makeTable() [256]uint16 {
	var t [256]uint16
	for i := 0; i < 256; i++ {
		reg := uint16(i) << 8
		for bit := 0; bit < 8; bit++ {
			if reg&0x8000 != 0 {
				reg = reg<<1 ^ polynomial
			} else {
				reg <<= 1
			}
		}
		t[i] = reg
	}
	return t
}

// Checksum computes the checksum with the direct per-bit loop.
func Checksum(data []byte) uint16 {
	reg := uint16(initial)
	for _, b := range data {
		reg ^= uint16(b) << 8
		for bit := 0; bit < 8; bit++ {
			if reg&0x8000 != 0 {
				reg = reg<<1 ^ polynomial
			} else {
				reg <<= 1
			}
		}
	}
	return reg
}

// ChecksumTable computes the checksum with the lookup-table variant.
func ChecksumTable(data []byte) uint16 {
	reg := uint16(initial)
	for _, b := range data {
		reg = reg<<8 ^ table[byte(reg>>8)^b]
	}
	return reg
}

// ComputeChecksum returns the checksum of a payload prefix as the four
// uppercase hexadecimal digits carried in the checksum field. The prefix
// must already include the checksum field's own tag and length
// characters ("6304"); that inclusion is part of the checksum domain.
func ComputeChecksum(prefix string) string {
	return fmt.Sprintf("%04X", ChecksumTable([]byte(prefix)))
}

// Matches reports whether the rendered checksum value matches the
// expected four hex digits, comparing case-insensitively.
func Matches(prefix, expected string) bool {
	return strings.EqualFold(ComputeChecksum(prefix), expected)
}
