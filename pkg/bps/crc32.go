package bps

import (
	"encoding/binary"
	"hash/crc32"
)

// SelfCRCConstant is the fixed value CRC32(data ++ le32(CRC32(data)))
// converges to for any data. The BPS trailer's own CRC32 field is chosen so
// that this identity holds over the entire patch file, letting a decoder
// validate the patch's integrity without needing an externally supplied
// checksum to compare against.
const SelfCRCConstant uint32 = 0x2144DF1C

// crcISOHDLCTable is the standard IEEE 802.3 / ISO-HDLC polynomial table
// (reflected 0xEDB88320), the same table every CRC-32 implementation in
// wide use (zip, gzip, git) is built on.
var crcISOHDLCTable = crc32.IEEETable

// CRC32 computes CRC-32/ISO-HDLC over data.
func CRC32(data []byte) uint32 {
	return crc32.Checksum(data, crcISOHDLCTable)
}

// AppendCRC32LE appends the little-endian 4-byte encoding of CRC32(data) to
// buf and returns the extended slice.
func AppendCRC32LE(buf []byte, data []byte) []byte {
	var le [4]byte
	binary.LittleEndian.PutUint32(le[:], CRC32(data))
	return append(buf, le[:]...)
}

// readUint32LE reads a little-endian uint32 from the front of buf, which
// must have length at least 4.
func readUint32LE(buf []byte) uint32 {
	return binary.LittleEndian.Uint32(buf)
}
