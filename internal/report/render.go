package report

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dysgair/capteval/internal/compare"
	"github.com/dysgair/capteval/internal/errstats"
	"github.com/dysgair/capteval/internal/model"
)

const (
	confusionRows    = 10
	anomalyRows      = 5
	narrowCardsBelow = 80
	defaultTextWidth = 80
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#C89A3A"))
	cardStyle  = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	cardTitleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	mutedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
)

// TextOptions controls text rendering.
type TextOptions struct {
	Width int
	Color bool
}

type printer struct {
	w     io.Writer
	opts  TextOptions
	names model.Names
	err   error
}

func (p *printer) line(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format+"\n", args...)
}

func (p *printer) raw(s string) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintln(p.w, s)
}

func (p *printer) title(s string) {
	if p.opts.Color {
		p.raw("\n" + titleStyle.Render(s))
		return
	}
	p.raw("\n" + s)
	p.raw(strings.Repeat("=", len([]rune(s))))
}

func (p *printer) table(headers []string, rows [][]string, right map[int]bool) {
	for _, l := range formatTable(headers, rows, right) {
		p.raw(l)
	}
}

func (p *printer) muted(s string) {
	if p.opts.Color {
		s = mutedStyle.Render(s)
	}
	p.raw(s)
}

// RenderText writes a human-readable report.
func RenderText(w io.Writer, r Report, opts TextOptions) error {
	if opts.Width <= 0 {
		opts.Width = defaultTextWidth
	}
	names := r.Names
	if names.A == "" || names.B == "" {
		names = model.DefaultNames
	}
	p := &printer{w: w, opts: opts, names: names}

	header := fmt.Sprintf("%d samples, language %s", r.SampleSize, r.Language)
	if r.Name != "" {
		header = r.Name + ": " + header
	}
	p.raw(header)

	if r.Summary != nil {
		p.summary(*r.Summary)
	}
	if r.Design != nil {
		p.design(*r.Design)
	}
	if r.Recommendations != nil {
		p.recommendations(*r.Recommendations)
	}
	if r.Comparison != nil {
		p.comparison(*r.Comparison)
	}
	if r.Hybrid != nil {
		p.hybrid(*r.Hybrid)
	}
	if r.Implications != nil {
		p.implications(*r.Implications)
	}
	if r.Agreement != nil {
		p.agreement(*r.Agreement)
	}
	if r.AttributionDistribution != nil {
		p.attribution(*r.AttributionDistribution)
	}
	if r.ErrorCost != nil {
		p.cost(*r.ErrorCost)
	}
	if r.Reliability != nil {
		p.reliability(r.Reliability)
	}
	if r.Linguistic != nil {
		p.linguistic(*r.Linguistic)
	}
	if r.Characters != nil {
		p.characters(*r.Characters)
	}
	if r.WordDifficulty != nil {
		p.words(r)
	}
	if r.WordLength != nil {
		p.length(r)
	}
	if r.OverTranscription != nil {
		p.overTranscription(r)
	}
	if r.Examples != nil {
		p.examples(*r.Examples)
	}
	if r.Curve != nil {
		p.curve(*r.Curve)
	}
	return p.err
}

func (p *printer) summary(s Summary) {
	p.title("Executive summary")
	if s.InsufficientData != "" {
		p.muted("Insufficient data: " + s.InsufficientData)
		return
	}
	cards := []string{
		metricCard("Recordings", fmt.Sprintf("%d", s.TotalRecordings)),
		metricCard("Words", fmt.Sprintf("%d", s.TotalWords)),
		metricCard("Winner", s.OverallWinner),
		metricCard(p.names.A+" raw CER", fmt.Sprintf("%.2f", s.Raw.MeanA)),
		metricCard(p.names.B+" raw CER", fmt.Sprintf("%.2f", s.Raw.MeanB)),
		metricCard(p.names.A+" lenient CER", fmt.Sprintf("%.2f", s.Normalized.MeanA)),
		metricCard(p.names.B+" lenient CER", fmt.Sprintf("%.2f", s.Normalized.MeanB)),
	}
	if p.opts.Width < narrowCardsBelow {
		p.raw(lipgloss.JoinVertical(lipgloss.Left, cards...))
	} else {
		row1 := lipgloss.JoinHorizontal(lipgloss.Top, cards[:3]...)
		row2 := lipgloss.JoinHorizontal(lipgloss.Top, cards[3:]...)
		p.raw(lipgloss.JoinVertical(lipgloss.Left, row1, row2))
	}
	p.line("Recordings per word: avg %.2f, min %d, max %d", s.AvgRecordingsPerWord, s.MinRecordingsPerWord, s.MaxRecordingsPerWord)
	p.raw(lipgloss.NewStyle().Width(p.opts.Width).Render(s.KeyFinding))
}

func metricCard(label, value string) string {
	content := fmt.Sprintf("%s\n%s", cardTitleStyle.Render(label), cardValueStyle.Render(value))
	return cardStyle.Render(content)
}

func (p *printer) design(d Design) {
	p.title("Study design")
	p.line("%s (%s)", d.StudyType, d.ResearchDesign.Type)
	p.line("Task: %s, language %s", d.DataCollection.Task, d.DataCollection.Language)
	p.line("Systems: %s", strings.Join(d.DataCollection.Systems, ", "))
	p.line("Unique words: %d  Recordings: %d  Dates: %s",
		d.ResearchDesign.UniqueWords, d.ResearchDesign.TotalRecordings, d.DataCollection.DateRange)
	p.line("Statistics: %s; %s", d.StatisticalApproach.Paradigm, d.StatisticalApproach.EffectSizeMeasure)
	bullets(p, "Limitations", d.Limitations)
}

func (p *printer) recommendations(a Advice) {
	p.title("Recommendations")
	p.line("Primary: %s (%s confidence): %s", a.Primary.System, a.Primary.Confidence, a.Primary.Rationale)
	bullets(p, "System design", a.SystemDesign)
	bullets(p, "Pedagogy", a.PedagogicalConsiderations)
	bullets(p, "Needs human verification", a.HumanVerification)
}

func bullets(p *printer, heading string, items []string) {
	p.line("%s:", heading)
	for _, item := range items {
		p.line("  - %s", item)
	}
}

func (p *printer) comparison(c compare.ModelComparisonResult) {
	p.title("Model comparison")
	headers := []string{"Mode", "Metric", "N", p.names.A, p.names.B, "Diff pp", "Cohen's d", "Effect", p.names.A + " better %"}
	var rows [][]string
	add := func(mode, metric string, pr compare.Paired) {
		if pr.InsufficientData != "" {
			rows = append(rows, []string{mode, metric, "0", "-", "-", "-", "-", pr.InsufficientData, "-"})
			return
		}
		rows = append(rows, []string{
			mode, metric, fmt.Sprintf("%d", pr.N),
			fmt.Sprintf("%.2f", pr.A.Mean), fmt.Sprintf("%.2f", pr.B.Mean),
			fmt.Sprintf("%.2f", pr.Difference.PercentagePointDifference),
			fmt.Sprintf("%.3f", pr.EffectSize.CohensD), string(pr.EffectSize.Interpretation),
			fmt.Sprintf("%.1f", pr.SuperiorityRate),
		})
	}
	add("raw", "CER", c.Raw.CER)
	add("raw", "WER", c.Raw.WER)
	add("lenient", "CER", c.Lenient.CER)
	add("lenient", "WER", c.Lenient.WER)
	p.table(headers, rows, map[int]bool{2: true, 3: true, 4: true, 5: true, 6: true, 8: true})
}

func (p *printer) hybrid(h compare.HybridResult) {
	p.title("Hybrid best case")
	if h.InsufficientData != "" {
		p.muted("Insufficient data: " + h.InsufficientData)
		return
	}
	p.line("Hybrid CER %.2f vs best single %s %.2f over %d samples (%.2f pp, %.1f%% better)",
		h.HybridCER, h.BestSingleConfig, h.BestSingleCER, h.SampleSize, h.ImprovementAbsolute, h.ImprovementPercentage)
	p.line("Selected %s %d (%.1f%%), %s %d (%.1f%%), ties %d (%.1f%%)",
		p.names.A, h.Selection.A, h.SelectionShare.A,
		p.names.B, h.Selection.B, h.SelectionShare.B,
		h.Selection.Tie, h.SelectionShare.Tie)
}

func (p *printer) implications(pi compare.PracticalImplications) {
	p.title("Hybrid practical implications")
	if pi.InsufficientData != "" {
		p.muted("Insufficient data: " + pi.InsufficientData)
		return
	}
	rows := [][]string{
		subsetRow("overall", pi.Overall),
		subsetRow("clusters", pi.Clusters),
		subsetRow("difficult words", pi.DifficultWords),
	}
	p.table([]string{"Subset", "N", "Hybrid", "Best single", "Config", "Gain pp"}, rows, map[int]bool{1: true, 2: true, 3: true, 5: true})
	er := pi.ErrorReduction
	p.line("ASR errors of %s: %d, preventable by switching: %d (%.1f%%)",
		er.BestConfig, er.TotalASRErrors, er.Preventable, er.ReductionRate)
}

func subsetRow(label string, h compare.HybridSubsetResult) []string {
	if h.InsufficientData != "" {
		return []string{label, "0", "-", "-", "-", "-"}
	}
	return []string{
		label, fmt.Sprintf("%d", h.SampleSize),
		fmt.Sprintf("%.2f", h.HybridCER), fmt.Sprintf("%.2f", h.BestSingleCER),
		h.BestSingleConfig, fmt.Sprintf("%.2f", h.ImprovementAbsolute),
	}
}

func (p *printer) agreement(a compare.AgreementResult) {
	p.title("Agreement")
	if a.InsufficientData != "" {
		p.muted("Insufficient data: " + a.InsufficientData)
		return
	}
	p.line("Agreement rate %.1f%% over %d samples", a.AgreementRate, a.SampleSize)
	rows := [][]string{
		{"both correct", fmt.Sprintf("%d", a.Counts.BothCorrect), fmt.Sprintf("%.2f", a.CER.BothCorrect)},
		{"both incorrect", fmt.Sprintf("%d", a.Counts.BothIncorrect), fmt.Sprintf("%.2f", a.CER.BothIncorrect)},
		{"only " + p.names.A, fmt.Sprintf("%d", a.Counts.OnlyA), fmt.Sprintf("%.2f", a.CER.OnlyA)},
		{"only " + p.names.B, fmt.Sprintf("%d", a.Counts.OnlyB), fmt.Sprintf("%.2f", a.CER.OnlyB)},
	}
	p.table([]string{"Outcome", "Count", "Mean CER"}, rows, map[int]bool{1: true, 2: true})
}

func (p *printer) attribution(a compare.AttributionDistributionResult) {
	p.title("Attribution distribution")
	if a.InsufficientData != "" {
		p.muted("Insufficient data: " + a.InsufficientData)
		return
	}
	headers := append([]string{"Mode", "System"}, compare.DistributionLabels...)
	headers = append(headers, "Usable %", "Trust")
	var rows [][]string
	for _, mode := range model.Modes {
		md := a.Raw
		if mode == model.ModeLenient {
			md = a.Lenient
		}
		for _, sys := range model.Systems {
			d, score := md.A, md.ScoreA
			if sys == model.SystemB {
				d, score = md.B, md.ScoreB
			}
			row := []string{mode.String(), p.names.Of(sys)}
			for _, label := range compare.DistributionLabels {
				row = append(row, fmt.Sprintf("%d", d.Counts[label]))
			}
			row = append(row, fmt.Sprintf("%.1f", score.UsableFeedbackPct), fmt.Sprintf("%.1f", score.TrustScore))
			rows = append(rows, row)
		}
	}
	right := map[int]bool{}
	for i := 2; i < len(headers); i++ {
		right[i] = true
	}
	p.table(headers, rows, right)
}

func (p *printer) cost(c compare.AttributionCostResult) {
	p.title("Error attribution cost")
	headers := []string{"Mode", "System", "FA", "FR", "TP", "TN", "Total", "Risk", "Safety"}
	var rows [][]string
	for _, mode := range model.Modes {
		mc := c.Raw
		if mode == model.ModeLenient {
			mc = c.Lenient
		}
		for _, sys := range model.Systems {
			cost := mc.A
			if sys == model.SystemB {
				cost = mc.B
			}
			if cost.InsufficientData != "" {
				rows = append(rows, []string{mode.String(), p.names.Of(sys), "-", "-", "-", "-", "0", "-", "-"})
				continue
			}
			rows = append(rows, []string{
				mode.String(), p.names.Of(sys),
				fmt.Sprintf("%d", cost.FalseAcceptance.Count), fmt.Sprintf("%d", cost.FalseRejection.Count),
				fmt.Sprintf("%d", cost.TruePositive.Count), fmt.Sprintf("%d", cost.TrueNegative.Count),
				fmt.Sprintf("%d", cost.Total),
				fmt.Sprintf("%.1f", cost.RiskScore), fmt.Sprintf("%.1f", cost.SafetyScore),
			})
		}
	}
	p.table(headers, rows, map[int]bool{2: true, 3: true, 4: true, 5: true, 6: true, 7: true, 8: true})
	p.line("%s", c.Raw.Comparison.Recommendation)
	p.line("%s", c.Lenient.Comparison.Recommendation)
}

func (p *printer) reliability(rel map[string]compare.ReliabilityStats) {
	p.title("Consistency and reliability")
	var rows [][]string
	for _, src := range model.Sources {
		st, ok := rel[src.Key()]
		if !ok {
			continue
		}
		rows = append(rows, []string{
			p.names.Of(src.System) + " " + src.Mode.String(),
			fmt.Sprintf("%d", st.N),
			fmt.Sprintf("%.2f", st.Mean), fmt.Sprintf("%.2f", st.Std),
			fmt.Sprintf("%.2f", st.IQR), fmt.Sprintf("%.2f", st.Percentile95),
			fmt.Sprintf("%.2f", st.CV), st.Rating,
		})
	}
	p.table([]string{"Source", "N", "Mean", "Std", "IQR", "P95", "CV", "Rating"}, rows,
		map[int]bool{1: true, 2: true, 3: true, 4: true, 5: true, 6: true})
}

func (p *printer) linguistic(pt errstats.Patterns) {
	p.title("Linguistic patterns")
	headers := []string{"Mode", "Category", p.names.A + " %", p.names.B + " %", "Diff", "Winner"}
	var rows [][]string
	for _, mode := range model.Modes {
		mb := pt.Raw
		if mode == model.ModeLenient {
			mb = pt.Lenient
		}
		for _, bucket := range errstats.Buckets {
			cmp := mb.Comparison[bucket]
			rows = append(rows, []string{
				mode.String(), bucket,
				fmt.Sprintf("%.2f", mb.A.Categories[bucket].ErrorRate),
				fmt.Sprintf("%.2f", mb.B.Categories[bucket].ErrorRate),
				fmt.Sprintf("%.2f", cmp.Difference), cmp.Winner,
			})
		}
	}
	p.table(headers, rows, map[int]bool{2: true, 3: true, 4: true})
}

func (p *printer) characters(c errstats.CharacterAnalysis) {
	p.title("Character confusions")
	for _, sys := range model.Systems {
		res := c.A
		if sys == model.SystemB {
			res = c.B
		}
		p.line("%s:", p.names.Of(sys))
		if len(res.Confusion) == 0 {
			p.muted("  no confusions")
			continue
		}
		var rows [][]string
		for i, e := range res.Confusion {
			if i == confusionRows {
				break
			}
			rows = append(rows, []string{displayUnit(e.Expected), displayUnit(e.Actual), fmt.Sprintf("%d", e.Count)})
		}
		p.table([]string{"Expected", "Actual", "Count"}, rows, map[int]bool{2: true})
	}
}

func displayUnit(u string) string {
	if u == "" {
		return "∅"
	}
	return u
}

func (p *printer) words(r Report) {
	p.title("Most difficult words (lenient)")
	d := r.WordDifficulty.Lenient
	if len(d.MostDifficult) == 0 {
		p.muted("No words with lenient scores.")
		return
	}
	var rows [][]string
	for _, w := range d.MostDifficult {
		rows = append(rows, []string{
			w.Word, fmt.Sprintf("%d", w.Attempts),
			fmt.Sprintf("%.2f", w.AvgCERA), fmt.Sprintf("%.2f", w.AvgCERB),
		})
	}
	p.table([]string{"Word", "Attempts", p.names.A, p.names.B}, rows, map[int]bool{1: true, 2: true, 3: true})
	p.line("%d unique words", d.TotalUniqueWords)
}

func (p *printer) length(r Report) {
	p.title("CER by word length (lenient)")
	var rows [][]string
	for _, b := range r.WordLength.Lenient {
		rows = append(rows, []string{
			b.Label, fmt.Sprintf("%d", b.Count),
			fmt.Sprintf("%.2f", b.AvgCERA), fmt.Sprintf("%.2f", b.AvgCERB),
		})
	}
	p.table([]string{"Length", "Count", p.names.A, p.names.B}, rows, map[int]bool{1: true, 2: true, 3: true})
}

func (p *printer) overTranscription(r Report) {
	o := r.OverTranscription
	p.title("Over-transcription")
	p.line("%d samples (%.1f%%) with WER exceeding CER by more than %.0f points", o.Count, o.Percentage, o.Threshold)
	var rows [][]string
	for i, a := range o.Anomalies {
		if i == anomalyRows {
			break
		}
		rows = append(rows, []string{
			a.Target, a.TranscriptionA, fmt.Sprintf("%.1f", a.DeltaA),
			a.TranscriptionB, fmt.Sprintf("%.1f", a.DeltaB),
		})
	}
	if len(rows) > 0 {
		p.table([]string{"Target", p.names.A, "Δ", p.names.B, "Δ"}, rows, map[int]bool{2: true, 4: true})
	}
}

func (p *printer) examples(e Examples) {
	p.title("Qualitative examples")
	p.line("Both correct %d, only %s %d, only %s %d, both incorrect %d, divergent %d",
		e.Counts.BothCorrect, p.names.A, e.Counts.OnlyA, p.names.B, e.Counts.OnlyB,
		e.Counts.BothIncorrect, e.Counts.Interesting)
	if len(e.Interesting) == 0 {
		return
	}
	var rows [][]string
	for _, ex := range e.Interesting {
		rows = append(rows, []string{
			ex.Target, ex.TranscriptionA, fmt.Sprintf("%.1f", ex.CERA),
			ex.TranscriptionB, fmt.Sprintf("%.1f", ex.CERB),
			fmt.Sprintf("%.2f", ex.Similarity),
		})
	}
	p.table([]string{"Target", p.names.A, "CER", p.names.B, "CER", "Similarity"}, rows, map[int]bool{2: true, 4: true, 5: true})
}

func (p *printer) curve(c Curve) {
	p.title(fmt.Sprintf("CER learning curve (moving average, window %d)", c.Window))
	if len(c.A) == 0 && len(c.B) == 0 {
		p.muted("No CER values to plot.")
		return
	}
	if p.err != nil {
		return
	}
	var buf bytes.Buffer
	series := []Series{{Name: p.names.A, Values: c.A}, {Name: p.names.B, Values: c.B}}
	if err := PlotSeries(&buf, "", series, PlotWidthFor(p.opts.Width), defaultPlotHeight, p.opts.Color); err != nil {
		p.err = err
		return
	}
	p.raw(strings.TrimRight(buf.String(), "\n"))
}
