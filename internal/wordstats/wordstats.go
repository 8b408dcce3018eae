// Package wordstats analyzes recognizer performance per target word.
package wordstats

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/dysgair/capteval/internal/metrics"
	"github.com/dysgair/capteval/internal/model"
)

const (
	rankingSize = 10
	bucketCount = 10

	// DefaultOverTranscriptionThreshold is the WER-CER gap, in points, above
	// which a sample is flagged.
	DefaultOverTranscriptionThreshold = 20.0
)

// WordRanking holds mean error rates for one target word.
type WordRanking struct {
	Word     string  `json:"word" yaml:"word"`
	Attempts int     `json:"attempts" yaml:"attempts"`
	Length   int     `json:"word_length" yaml:"word_length"`
	AvgCERA  float64 `json:"a_avg_cer" yaml:"a_avg_cer"`
	AvgCERB  float64 `json:"b_avg_cer" yaml:"b_avg_cer"`
	AvgWERA  float64 `json:"a_avg_wer" yaml:"a_avg_wer"`
	AvgWERB  float64 `json:"b_avg_wer" yaml:"b_avg_wer"`
}

func (w WordRanking) difficulty() float64 {
	return (w.AvgCERA + w.AvgCERB) / 2
}

// Distribution is a histogram of per-word mean CER in 10-point buckets.
type Distribution struct {
	Buckets []string `json:"buckets" yaml:"buckets"`
	A       []int    `json:"a_counts" yaml:"a_counts"`
	B       []int    `json:"b_counts" yaml:"b_counts"`
}

// Difficulty ranks words for one mode.
type Difficulty struct {
	TotalUniqueWords int           `json:"total_unique_words" yaml:"total_unique_words"`
	MostDifficult    []WordRanking `json:"most_difficult" yaml:"most_difficult"`
	Easiest          []WordRanking `json:"easiest" yaml:"easiest"`
	AllWords         []WordRanking `json:"all_words" yaml:"all_words"`
	Distribution     Distribution  `json:"distribution" yaml:"distribution"`
}

// DifficultyResult covers both modes.
type DifficultyResult struct {
	Raw     Difficulty `json:"raw" yaml:"raw"`
	Lenient Difficulty `json:"lenient" yaml:"lenient"`
}

type accum struct {
	sum float64
	n   int
}

func (a *accum) add(v *float64) {
	if v == nil {
		return
	}
	a.sum += metrics.SafeFloat(*v, 0)
	a.n++
}

func (a accum) mean() float64 {
	return metrics.SafeDivide(a.sum, float64(a.n), 0)
}

// WordDifficulty groups samples by trimmed target text and ranks words by the
// mean of both systems' average CER, hardest first. Missing metrics are left
// out of the averages.
func WordDifficulty(samples []model.Sample) DifficultyResult {
	return DifficultyResult{
		Raw:     difficulty(samples, model.ModeRaw),
		Lenient: difficulty(samples, model.ModeLenient),
	}
}

func difficulty(samples []model.Sample, mode model.Mode) Difficulty {
	type word struct {
		attempts               int
		cerA, cerB, werA, werB accum
	}
	srcA := model.Source{System: model.SystemA, Mode: mode}
	srcB := model.Source{System: model.SystemB, Mode: mode}
	var order []string
	words := map[string]*word{}
	for _, s := range samples {
		text := strings.TrimSpace(s.Text)
		if text == "" {
			continue
		}
		w, ok := words[text]
		if !ok {
			w = &word{}
			words[text] = w
			order = append(order, text)
		}
		w.attempts++
		w.cerA.add(s.Variant(srcA).CER)
		w.cerB.add(s.Variant(srcB).CER)
		w.werA.add(s.Variant(srcA).WER)
		w.werB.add(s.Variant(srcB).WER)
	}
	rankings := make([]WordRanking, 0, len(order))
	for _, text := range order {
		w := words[text]
		rankings = append(rankings, WordRanking{
			Word:     text,
			Attempts: w.attempts,
			Length:   utf8.RuneCountInString(text),
			AvgCERA:  w.cerA.mean(),
			AvgCERB:  w.cerB.mean(),
			AvgWERA:  w.werA.mean(),
			AvgWERB:  w.werB.mean(),
		})
	}
	sort.SliceStable(rankings, func(i, j int) bool {
		return rankings[i].difficulty() > rankings[j].difficulty()
	})
	d := Difficulty{
		TotalUniqueWords: len(rankings),
		MostDifficult:    rankings[:min(rankingSize, len(rankings))],
		AllWords:         rankings,
		Distribution:     distribution(rankings),
	}
	easiest := make([]WordRanking, 0, rankingSize)
	for i := len(rankings) - 1; i >= 0 && len(easiest) < rankingSize; i-- {
		easiest = append(easiest, rankings[i])
	}
	d.Easiest = easiest
	return d
}

func distribution(rankings []WordRanking) Distribution {
	d := Distribution{
		Buckets: make([]string, bucketCount),
		A:       make([]int, bucketCount),
		B:       make([]int, bucketCount),
	}
	for i := range d.Buckets {
		d.Buckets[i] = fmt.Sprintf("%d-%d%%", i*10, (i+1)*10)
	}
	for _, r := range rankings {
		d.A[bucketOf(r.AvgCERA)]++
		d.B[bucketOf(r.AvgCERB)]++
	}
	return d
}

func bucketOf(cer float64) int {
	idx := int(cer / 10)
	if idx < 0 {
		return 0
	}
	return min(idx, bucketCount-1)
}

// LengthBucket holds mean error rates for targets of a length range.
type LengthBucket struct {
	Label   string  `json:"label" yaml:"label"`
	Count   int     `json:"count" yaml:"count"`
	AvgCERA float64 `json:"a_avg_cer" yaml:"a_avg_cer"`
	AvgCERB float64 `json:"b_avg_cer" yaml:"b_avg_cer"`
	AvgWERA float64 `json:"a_avg_wer" yaml:"a_avg_wer"`
	AvgWERB float64 `json:"b_avg_wer" yaml:"b_avg_wer"`
}

// LengthResult covers both modes. Buckets are ordered 1-3, 4-6, 7-9, 10+.
type LengthResult struct {
	Raw     []LengthBucket `json:"raw" yaml:"raw"`
	Lenient []LengthBucket `json:"lenient" yaml:"lenient"`
}

var lengthRanges = []struct {
	lo, hi int
	label  string
}{
	{1, 3, "1-3"},
	{4, 6, "4-6"},
	{7, 9, "7-9"},
	{10, int(^uint(0) >> 1), "10+"},
}

// WordLength groups samples by the character count of their target and
// averages each system's CER and WER per group.
func WordLength(samples []model.Sample) LengthResult {
	return LengthResult{
		Raw:     lengthBuckets(samples, model.ModeRaw),
		Lenient: lengthBuckets(samples, model.ModeLenient),
	}
}

func lengthBuckets(samples []model.Sample, mode model.Mode) []LengthBucket {
	srcA := model.Source{System: model.SystemA, Mode: mode}
	srcB := model.Source{System: model.SystemB, Mode: mode}
	type group struct {
		count                  int
		cerA, cerB, werA, werB accum
	}
	groups := make([]group, len(lengthRanges))
	for _, s := range samples {
		n := utf8.RuneCountInString(s.Text)
		for i, r := range lengthRanges {
			if n < r.lo || n > r.hi {
				continue
			}
			g := &groups[i]
			g.count++
			g.cerA.add(s.Variant(srcA).CER)
			g.cerB.add(s.Variant(srcB).CER)
			g.werA.add(s.Variant(srcA).WER)
			g.werB.add(s.Variant(srcB).WER)
			break
		}
	}
	out := make([]LengthBucket, len(lengthRanges))
	for i, r := range lengthRanges {
		g := groups[i]
		out[i] = LengthBucket{
			Label:   r.label,
			Count:   g.count,
			AvgCERA: metrics.Round2(g.cerA.mean()),
			AvgCERB: metrics.Round2(g.cerB.mean()),
			AvgWERA: metrics.Round2(g.werA.mean()),
			AvgWERB: metrics.Round2(g.werB.mean()),
		}
	}
	return out
}

// Anomaly is a sample where a system's WER exceeds its CER by more than the
// threshold, which happens when extra words are hallucinated.
type Anomaly struct {
	Target         string  `json:"target" yaml:"target"`
	TranscriptionA string  `json:"a_transcription" yaml:"a_transcription"`
	TranscriptionB string  `json:"b_transcription" yaml:"b_transcription"`
	WERA           float64 `json:"a_wer" yaml:"a_wer"`
	CERA           float64 `json:"a_cer" yaml:"a_cer"`
	DeltaA         float64 `json:"a_delta" yaml:"a_delta"`
	WERB           float64 `json:"b_wer" yaml:"b_wer"`
	CERB           float64 `json:"b_cer" yaml:"b_cer"`
	DeltaB         float64 `json:"b_delta" yaml:"b_delta"`
}

// OverTranscriptionResult lists flagged samples.
type OverTranscriptionResult struct {
	Anomalies  []Anomaly `json:"anomalies" yaml:"anomalies"`
	Count      int       `json:"count" yaml:"count"`
	Percentage float64   `json:"percentage" yaml:"percentage"`
	Threshold  float64   `json:"threshold" yaml:"threshold"`
}

// OverTranscription flags samples whose raw WER minus CER exceeds threshold
// for either system. Missing metrics count as 0.
func OverTranscription(samples []model.Sample, threshold float64) OverTranscriptionResult {
	res := OverTranscriptionResult{Anomalies: []Anomaly{}, Threshold: threshold}
	total := 0
	for _, s := range samples {
		target := strings.TrimSpace(s.Text)
		if target == "" {
			continue
		}
		total++
		a := Anomaly{
			Target:         target,
			TranscriptionA: s.A.Raw.Hypothesis,
			TranscriptionB: s.B.Raw.Hypothesis,
			WERA:           metrics.SafeFloatPtr(s.A.Raw.WER, 0),
			CERA:           metrics.SafeFloatPtr(s.A.Raw.CER, 0),
			WERB:           metrics.SafeFloatPtr(s.B.Raw.WER, 0),
			CERB:           metrics.SafeFloatPtr(s.B.Raw.CER, 0),
		}
		a.DeltaA = a.WERA - a.CERA
		a.DeltaB = a.WERB - a.CERB
		if a.DeltaA > threshold || a.DeltaB > threshold {
			res.Anomalies = append(res.Anomalies, a)
		}
	}
	res.Count = len(res.Anomalies)
	res.Percentage = metrics.Percent(res.Count, total)
	return res
}
