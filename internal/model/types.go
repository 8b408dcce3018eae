// Package model defines shared data structures.
package model

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// System identifies one of the two compared recognizers.
type System int

const (
	SystemA System = iota
	SystemB
)

// Systems lists both systems in report order.
var Systems = []System{SystemA, SystemB}

// Key returns the short key used in batch files and tables.
func (s System) Key() string {
	if s == SystemB {
		return "b"
	}
	return "a"
}

// Other returns the opposite system.
func (s System) Other() System {
	if s == SystemA {
		return SystemB
	}
	return SystemA
}

// Mode selects the raw or lenient variant of a transcription.
type Mode int

const (
	ModeRaw Mode = iota
	ModeLenient
)

// Modes lists both modes in report order.
var Modes = []Mode{ModeRaw, ModeLenient}

func (m Mode) String() string {
	if m == ModeLenient {
		return "lenient"
	}
	return "raw"
}

// Source is a (system, mode) pair selecting one variant of a sample.
type Source struct {
	System System
	Mode   Mode
}

// Sources lists the four single configurations in fixed order.
var Sources = []Source{
	{SystemA, ModeRaw},
	{SystemA, ModeLenient},
	{SystemB, ModeRaw},
	{SystemB, ModeLenient},
}

// Key returns a stable identifier such as "a_raw".
func (s Source) Key() string {
	return fmt.Sprintf("%s_%s", s.System.Key(), s.Mode)
}

// Attribution labels the origin of a mismatch.
type Attribution string

const (
	AttributionNone      Attribution = ""
	AttributionCorrect   Attribution = "CORRECT"
	AttributionUserError Attribution = "USER_ERROR"
	AttributionASRError  Attribution = "ASR_ERROR"
	AttributionAmbiguous Attribution = "AMBIGUOUS"
)

// Valid reports whether a is a known label or absent.
func (a Attribution) Valid() bool {
	switch a {
	case AttributionNone, AttributionCorrect, AttributionUserError, AttributionASRError, AttributionAmbiguous:
		return true
	}
	return false
}

// Scan implements sql.Scanner.
func (a *Attribution) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		*a = AttributionNone
	case string:
		*a = Attribution(v)
	case []byte:
		*a = Attribution(string(v))
	default:
		return fmt.Errorf("cannot scan %T into Attribution", value)
	}
	return nil
}

// Value implements driver.Valuer.
func (a Attribution) Value() (driver.Value, error) {
	return string(a), nil
}

// Variant is one transcription of a sample with its precomputed metrics.
type Variant struct {
	Hypothesis  string      `json:"hypothesis,omitempty" yaml:"hypothesis,omitempty"`
	CER         *float64    `json:"cer,omitempty" yaml:"cer,omitempty"`
	WER         *float64    `json:"wer,omitempty" yaml:"wer,omitempty"`
	Attribution Attribution `json:"attribution,omitempty" yaml:"attribution,omitempty"`
}

// SystemOutput holds the raw and lenient variants from one system.
type SystemOutput struct {
	Raw     Variant `json:"raw" yaml:"raw"`
	Lenient Variant `json:"lenient" yaml:"lenient"`
}

// Sample is one evaluation unit. Samples are never mutated after loading.
type Sample struct {
	Text      string       `json:"text" yaml:"text"`
	Human     string       `json:"human,omitempty" yaml:"human,omitempty"`
	CreatedAt *time.Time   `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	A         SystemOutput `json:"a" yaml:"a"`
	B         SystemOutput `json:"b" yaml:"b"`
}

// Output returns the output of the given system.
func (s Sample) Output(sys System) SystemOutput {
	if sys == SystemB {
		return s.B
	}
	return s.A
}

// Variant returns the variant selected by src.
func (s Sample) Variant(src Source) Variant {
	out := s.Output(src.System)
	if src.Mode == ModeLenient {
		return out.Lenient
	}
	return out.Raw
}

// WithVariant returns a copy of s with the variant for src replaced.
func (s Sample) WithVariant(src Source, v Variant) Sample {
	out := s.Output(src.System)
	if src.Mode == ModeLenient {
		out.Lenient = v
	} else {
		out.Raw = v
	}
	if src.System == SystemB {
		s.B = out
	} else {
		s.A = out
	}
	return s
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}

// Names holds display names for the two systems.
type Names struct {
	A string
	B string
}

// DefaultNames are used when no names are configured.
var DefaultNames = Names{A: "Whisper", B: "Wav2Vec2"}

// Of returns the display name of sys.
func (n Names) Of(sys System) string {
	if sys == SystemB {
		return n.B
	}
	return n.A
}

// SampleFilter selects stored samples for reporting.
type SampleFilter struct {
	Batch string
	Since *time.Time
	Last  int
}

// BatchInfo summarizes a stored batch.
type BatchInfo struct {
	Name        string
	ImportedAt  time.Time
	SampleCount int
}

// Comparable is the verdict when two rates differ by less than the band.
const Comparable = "Comparable"

// Winner names the system with the lower error rate, or Comparable when
// |a-b| < band.
func (n Names) Winner(a, b, band float64) string {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	if diff < band {
		return Comparable
	}
	if a < b {
		return n.A
	}
	return n.B
}
