// Package config loads the generator's runtime settings. Values are layered
// with koanf: built-in defaults, then an optional YAML file, then FGEN_
// environment variables.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	yml "gopkg.in/yaml.v2"

	"github.com/cbegin/funcgen-go/internal/wave"
)

// FileName is the config file looked up when no path is given.
const FileName = "fgen.yml"

// EnvPrefix prefixes every environment override, e.g. FGEN_WAVE_FREQ or
// FGEN_AUDIO_FIFO_BLOCKS.
const EnvPrefix = "FGEN_"

const (
	OutputAudio   = "audio"
	OutputDiscard = "discard"

	SineTable = "table"
	SineFloat = "float"
)

type Wave struct {
	Freq  int    `koanf:"freq" yaml:"freq"`
	Amp   int    `koanf:"amp" yaml:"amp"`
	Shape string `koanf:"shape" yaml:"shape"`
}

type HTTP struct {
	// Addr is the remote panel listen address. Empty disables it.
	Addr string `koanf:"addr" yaml:"addr"`
}

type Audio struct {
	FIFOBlocks int     `koanf:"fifo_blocks" yaml:"fifo_blocks"`
	Volume     float64 `koanf:"volume" yaml:"volume"`
}

type Analog struct {
	// CutoffHz is the reconstruction filter corner. 0 disables the filter.
	CutoffHz float64 `koanf:"cutoff_hz" yaml:"cutoff_hz"`
}

type Config struct {
	Wave   Wave   `koanf:"wave" yaml:"wave"`
	Output string `koanf:"output" yaml:"output"`
	Sine   string `koanf:"sine" yaml:"sine"`
	HTTP   HTTP   `koanf:"http" yaml:"http"`
	Audio  Audio  `koanf:"audio" yaml:"audio"`
	Analog Analog `koanf:"analog" yaml:"analog"`
}

func Default() Config {
	d := wave.DefaultConfig()
	return Config{
		Wave:   Wave{Freq: d.Freq, Amp: d.Amp, Shape: d.Shape.String()},
		Output: OutputAudio,
		Sine:   SineTable,
		Audio:  Audio{FIFOBlocks: 8, Volume: 0.5},
		Analog: Analog{CutoffHz: 12000},
	}
}

// Load layers defaults, the YAML file at path and the environment. A missing
// file is not an error; an empty path skips the file.
func Load(path string) (Config, error) {
	k := koanf.New(".")
	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return Config{}, fmt.Errorf("config defaults: %w", err)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("config file %s: %w", path, err)
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return Config{}, fmt.Errorf("config env: %w", err)
	}
	var c Config
	if err := k.Unmarshal("", &c); err != nil {
		return Config{}, fmt.Errorf("config unmarshal: %w", err)
	}
	return c, nil
}

// envKey maps FGEN_AUDIO_FIFO_BLOCKS to audio.fifo_blocks. Only the first
// underscore separates the section from the key.
func envKey(s string) string {
	return strings.Replace(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "_", ".", 1)
}

// Validate checks every field the generator consumes.
func (c Config) Validate() error {
	if _, err := c.WaveConfig(); err != nil {
		return err
	}
	switch c.Output {
	case OutputAudio, OutputDiscard:
	default:
		return fmt.Errorf("output %q: want %s or %s", c.Output, OutputAudio, OutputDiscard)
	}
	if _, err := c.SineFunc(); err != nil {
		return err
	}
	if c.Audio.FIFOBlocks < 2 {
		return fmt.Errorf("audio.fifo_blocks %d: want at least 2", c.Audio.FIFOBlocks)
	}
	if c.Audio.Volume < 0 || c.Audio.Volume > 1 {
		return fmt.Errorf("audio.volume %v: want 0..1", c.Audio.Volume)
	}
	if c.Analog.CutoffHz < 0 {
		return fmt.Errorf("analog.cutoff_hz %v: must not be negative", c.Analog.CutoffHz)
	}
	return nil
}

// WaveConfig returns the start-up waveform.
func (c Config) WaveConfig() (wave.Config, error) {
	shape, err := wave.ParseShape(c.Wave.Shape)
	if err != nil {
		return wave.Config{}, err
	}
	wc := wave.Config{Freq: c.Wave.Freq, Amp: c.Wave.Amp, Shape: shape}
	if err := wc.Validate(); err != nil {
		return wave.Config{}, err
	}
	return wc, nil
}

func (c Config) SineFunc() (wave.SineFunc, error) {
	switch c.Sine {
	case SineTable, "":
		return wave.SineTable, nil
	case SineFloat:
		return wave.SineFloat, nil
	}
	return nil, fmt.Errorf("sine %q: want %s or %s", c.Sine, SineTable, SineFloat)
}

// Write emits c as YAML, in the layout Load reads back.
func Write(w io.Writer, c Config) error {
	enc := yml.NewEncoder(w)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("config encode: %w", err)
	}
	return enc.Close()
}
