package pix

import "fmt"

// CRC-16/CCITT-FALSE parameters.
const (
	crcPolynomial uint16 = 0x1021
	crcInitial    uint16 = 0xFFFF
)

// CRC16Sum computes CRC-16/CCITT-FALSE over data: poly 0x1021, init 0xFFFF,
// MSB-first, no reflection, no final XOR.
func CRC16Sum(data []byte) uint16 {
	crc := crcInitial
	for _, b := range data {
		crc ^= uint16(b) << 8
		for i := 0; i < 8; i++ {
			if crc&0x8000 != 0 {
				crc = crc<<1 ^ crcPolynomial
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}

// CRC16 returns the checksum of data as 4 uppercase hex digits.
func CRC16(data []byte) string {
	return fmt.Sprintf("%04X", CRC16Sum(data))
}
