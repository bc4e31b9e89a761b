package funcgen

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cbegin/funcgen-go/internal/wave"
)

func TestRenderCodesFirstSamples(t *testing.T) {
	codes := RenderCodes(wave.DefaultConfig(), 2, nil)
	if len(codes) != 2*wave.BlockSize {
		t.Fatalf("len = %d, want %d", len(codes), 2*wave.BlockSize)
	}
	for i, want := range []uint16{2048, 2070, 2092, 2115} {
		if codes[i] != want {
			t.Fatalf("code %d = %d, want %d", i, codes[i], want)
		}
	}
	if RenderCodes(wave.DefaultConfig(), 0, nil) != nil {
		t.Fatalf("zero blocks rendered codes")
	}
}

func TestCodeToPCM16(t *testing.T) {
	cases := []struct {
		code uint16
		want int16
	}{
		{0, -32768},
		{wave.MidpointCode, 0},
		{3072, 16384},
		{wave.MaxCode, 32752},
	}
	for _, tc := range cases {
		if got := CodeToPCM16(tc.code); got != tc.want {
			t.Fatalf("CodeToPCM16(%d) = %d, want %d", tc.code, got, tc.want)
		}
	}
}

func TestEncodeWAVPCM16Header(t *testing.T) {
	codes := []uint16{2048, 3072, 1024}
	wav := EncodeWAVPCM16(codes, wave.SampleRate)
	if len(wav) != 44+2*len(codes) {
		t.Fatalf("len = %d", len(wav))
	}
	if string(wav[0:4]) != "RIFF" || string(wav[8:12]) != "WAVE" || string(wav[36:40]) != "data" {
		t.Fatalf("bad chunk ids: %q", wav[:40])
	}
	le := binary.LittleEndian
	checks := []struct {
		name string
		got  uint32
		want uint32
	}{
		{"riff size", le.Uint32(wav[4:]), uint32(36 + 2*len(codes))},
		{"format", uint32(le.Uint16(wav[20:])), 1},
		{"channels", uint32(le.Uint16(wav[22:])), 1},
		{"sample rate", le.Uint32(wav[24:]), wave.SampleRate},
		{"byte rate", le.Uint32(wav[28:]), 2 * wave.SampleRate},
		{"block align", uint32(le.Uint16(wav[32:])), 2},
		{"bits", uint32(le.Uint16(wav[34:])), 16},
		{"data size", le.Uint32(wav[40:]), uint32(2 * len(codes))},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Fatalf("%s = %d, want %d", c.name, c.got, c.want)
		}
	}
	if got := int16(le.Uint16(wav[46:])); got != 16384 {
		t.Fatalf("second sample = %d, want 16384", got)
	}
}

func TestGoldenWAVSnapshot(t *testing.T) {
	cases := []struct {
		name string
		file string
		cfg  wave.Config
	}{
		{"sine", "golden_sine_1k.sha256", wave.Config{Freq: 1000, Amp: 20, Shape: wave.ShapeSine}},
		{"triangle", "golden_triangle_1k.sha256", wave.Config{Freq: 1000, Amp: 20, Shape: wave.ShapeTriangle}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			wav := EncodeWAVPCM16(RenderCodes(tc.cfg, 750, nil), wave.SampleRate)
			sum := sha256.Sum256(wav)
			got := hex.EncodeToString(sum[:])
			raw, err := os.ReadFile(filepath.Join("testdata", tc.file))
			if err != nil {
				t.Fatalf("read golden hash: %v", err)
			}
			want := strings.TrimSpace(string(raw))
			if got != want {
				t.Fatalf("golden mismatch\nwant: %s\ngot:  %s", want, got)
			}
		})
	}
}
