package wave

import "math"

// SineFunc maps a phase to a Q31 sine value. The phase is a Q31 fraction of
// one turn; bit 31 is ignored so the phase wraps at 1<<31.
type SineFunc func(phase uint32) int32

const (
	sineTableBits = 9
	sineTableSize = 1 << sineTableBits
	sineFracBits  = 31 - sineTableBits
	sineFracMask  = 1<<sineFracBits - 1
	sinePhaseMask = 1<<31 - 1
	q31Max        = math.MaxInt32
)

var sineTable = buildSineTable()

func buildSineTable() [sineTableSize + 1]int32 {
	var t [sineTableSize + 1]int32
	for i := range t {
		t[i] = int32(math.Round(math.Sin(2*math.Pi*float64(i)/sineTableSize) * q31Max))
	}
	return t
}

// SineTable is the fixed-point sine: a 512-entry Q31 table with linear
// interpolation between entries.
func SineTable(phase uint32) int32 {
	phase &= sinePhaseMask
	idx := phase >> sineFracBits
	frac := int64(phase & sineFracMask)
	a := int64(sineTable[idx])
	b := int64(sineTable[idx+1])
	return int32(a + (b-a)*frac>>sineFracBits)
}

// SineFloat computes the same function with math.Sin. Block output matches
// SineTable within one DAC code.
func SineFloat(phase uint32) int32 {
	turns := float64(phase&sinePhaseMask) / (1 << 31)
	return int32(math.Sin(2*math.Pi*turns) * q31Max)
}
