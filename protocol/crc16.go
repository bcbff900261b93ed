package protocol

// CRC16 calculates the CRC-16/XMODEM checksum used by the VESC frame
// trailer: polynomial 0x1021, initial value 0x0000, no reflection.
func CRC16(data []byte) uint16 {
	var crc uint16
	for _, b := range data {
		crc ^= uint16(b) << 8
		for i := 0; i < 8; i++ {
			if crc&0x8000 != 0 {
				crc = crc<<1 ^ 0x1021
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}
