package param

import (
	"fmt"
	"strings"
)

// ChoiceOption represents a single choice in a list parameter
type ChoiceOption struct {
	Value   float64
	Name    string
	Aliases []string
}

// Choice creates a parameter builder for a multiple choice parameter.
// Options must be listed in ascending value order.
func Choice(address uint64, identifier, name string, options []ChoiceOption) *Builder {
	formatter := func(value float64) string {
		for _, opt := range options {
			if opt.Value == value {
				return opt.Name
			}
		}
		return "Unknown"
	}

	parser := func(str string) (float64, error) {
		str = strings.TrimSpace(str)
		for _, opt := range options {
			if strings.EqualFold(str, opt.Name) {
				return opt.Value, nil
			}
			for _, alias := range opt.Aliases {
				if strings.EqualFold(str, alias) {
					return opt.Value, nil
				}
			}
		}
		return 0, fmt.Errorf("unknown option: %s", str)
	}

	b := New(address, identifier, name).Formatter(formatter, parser)
	if len(options) == 0 {
		return b
	}
	return b.Range(options[0].Value, options[len(options)-1].Value).
		Steps(int32(len(options) - 1)).
		Default(options[0].Value)
}

// Common parameter helpers

// GainParameter creates a fader gain parameter (-inf to +12 dB). Values at
// or below -60 dB mean silence.
func GainParameter(address uint64, identifier, name string) *Builder {
	return New(address, identifier, name).
		Range(-60, 12).
		Default(0).
		Unit("dB").
		Formatter(DecibelFormatter, DecibelParser)
}

// LevelParameter creates a 0-1 amount shown as a percentage.
func LevelParameter(address uint64, identifier, name string, defaultVal float64) *Builder {
	return New(address, identifier, name).
		Range(0, 1).
		Default(defaultVal).
		Unit("%").
		Formatter(PercentFormatter, PercentParser)
}

// TimeParameter creates a time parameter in seconds.
func TimeParameter(address uint64, identifier, name string, minSec, maxSec, defaultSec float64) *Builder {
	return New(address, identifier, name).
		Range(minSec, maxSec).
		Default(defaultSec).
		Unit("s").
		Formatter(SecondsFormatter, SecondsParser)
}

// OctaveParameter creates a whole-octave shift of +/- maxOctaves.
func OctaveParameter(address uint64, identifier, name string, maxOctaves int) *Builder {
	return New(address, identifier, name).
		Range(-float64(maxOctaves), float64(maxOctaves)).
		Default(0).
		Steps(int32(2*maxOctaves)).
		Unit("octaves").
		Formatter(OctaveFormatter, OctaveParser)
}

// BypassParameter creates an on/off bypass switch.
func BypassParameter(address uint64, identifier, name string) *Builder {
	return Choice(address, identifier, name, []ChoiceOption{
		{Value: 0, Name: "Off", Aliases: []string{"false", "0"}},
		{Value: 1, Name: "On", Aliases: []string{"true", "1"}},
	})
}
