package funcgen

import (
	"encoding/binary"

	"github.com/cbegin/funcgen-go/internal/wave"
)

// RenderCodes synthesizes blocks blocks of cfg in DAC output order, without
// the transfer engine. A nil sine selects wave.SineTable. The result equals
// what a primed pipeline hands its sink when the producer keeps up.
func RenderCodes(cfg wave.Config, blocks int, sine wave.SineFunc) []uint16 {
	if blocks <= 0 {
		return nil
	}
	gen := wave.NewGenerator(sine)
	out := make([]uint16, 0, blocks*wave.BlockSize)
	var blk wave.Block
	for i := 0; i < blocks; i++ {
		gen.GenerateBlock(cfg, &blk)
		out = append(out, blk[:]...)
	}
	return out
}

// CodeToPCM16 maps a 12-bit DAC code onto signed 16-bit PCM with
// MidpointCode at zero. The mapping is exact: code 0 is -32768.
func CodeToPCM16(code uint16) int16 {
	return int16((int32(code) - wave.MidpointCode) << 4)
}

// EncodeWAVPCM16 wraps DAC codes in a mono 16-bit PCM WAV file.
func EncodeWAVPCM16(codes []uint16, sampleRate int) []byte {
	const channels, bytesPerSample = 1, 2
	dataSize := len(codes) * bytesPerSample
	out := make([]byte, 44+dataSize)
	copy(out[0:], "RIFF")
	binary.LittleEndian.PutUint32(out[4:], uint32(36+dataSize))
	copy(out[8:], "WAVE")
	copy(out[12:], "fmt ")
	binary.LittleEndian.PutUint32(out[16:], 16)
	binary.LittleEndian.PutUint16(out[20:], 1)
	binary.LittleEndian.PutUint16(out[22:], channels)
	binary.LittleEndian.PutUint32(out[24:], uint32(sampleRate))
	binary.LittleEndian.PutUint32(out[28:], uint32(sampleRate*channels*bytesPerSample))
	binary.LittleEndian.PutUint16(out[32:], channels*bytesPerSample)
	binary.LittleEndian.PutUint16(out[34:], 16)
	copy(out[36:], "data")
	binary.LittleEndian.PutUint32(out[40:], uint32(dataSize))
	for i, c := range codes {
		binary.LittleEndian.PutUint16(out[44+i*2:], uint16(CodeToPCM16(c)))
	}
	return out
}
