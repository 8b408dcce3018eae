// Package align computes minimum edit-distance alignments between token
// sequences and the error rates derived from them.
package align

// Kind is the type of an alignment step.
type Kind int

const (
	Match Kind = iota
	Substitution
	Deletion
	Insertion
)

func (k Kind) String() string {
	switch k {
	case Match:
		return "match"
	case Substitution:
		return "substitution"
	case Deletion:
		return "deletion"
	case Insertion:
		return "insertion"
	default:
		return "unknown"
	}
}

// MarshalText encodes the kind by name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Op is one step of an alignment. Expected is the reference token and Actual
// the hypothesis token; the absent side of a deletion or insertion is "".
type Op struct {
	Kind     Kind   `json:"kind" yaml:"kind"`
	Expected string `json:"expected" yaml:"expected"`
	Actual   string `json:"actual" yaml:"actual"`
}

// IsError reports whether the op is anything other than a match.
func (o Op) IsError() bool {
	return o.Kind != Match
}

// Align returns the operations transforming ref into hyp in forward order.
// Ties in the backtrace prefer match, then substitution, deletion, insertion,
// so the output is deterministic for a given input.
func Align(ref, hyp []string) []Op {
	dp := table(ref, hyp)
	ops := make([]Op, 0, max(len(ref), len(hyp)))
	i, j := len(ref), len(hyp)
	for i > 0 || j > 0 {
		switch {
		case i > 0 && j > 0 && ref[i-1] == hyp[j-1] && dp[i][j] == dp[i-1][j-1]:
			ops = append(ops, Op{Kind: Match, Expected: ref[i-1], Actual: hyp[j-1]})
			i--
			j--
		case i > 0 && j > 0 && dp[i][j] == dp[i-1][j-1]+1:
			ops = append(ops, Op{Kind: Substitution, Expected: ref[i-1], Actual: hyp[j-1]})
			i--
			j--
		case i > 0 && dp[i][j] == dp[i-1][j]+1:
			ops = append(ops, Op{Kind: Deletion, Expected: ref[i-1]})
			i--
		default:
			ops = append(ops, Op{Kind: Insertion, Actual: hyp[j-1]})
			j--
		}
	}
	for l, r := 0, len(ops)-1; l < r; l, r = l+1, r-1 {
		ops[l], ops[r] = ops[r], ops[l]
	}
	return ops
}

// ErrorCount returns the number of non-match ops.
func ErrorCount(ops []Op) int {
	n := 0
	for _, op := range ops {
		if op.IsError() {
			n++
		}
	}
	return n
}

func table(ref, hyp []string) [][]int {
	dp := make([][]int, len(ref)+1)
	for i := range dp {
		dp[i] = make([]int, len(hyp)+1)
		dp[i][0] = i
	}
	for j := range dp[0] {
		dp[0][j] = j
	}
	for i := 1; i <= len(ref); i++ {
		for j := 1; j <= len(hyp); j++ {
			if ref[i-1] == hyp[j-1] {
				dp[i][j] = dp[i-1][j-1]
				continue
			}
			dp[i][j] = 1 + min(dp[i-1][j], dp[i][j-1], dp[i-1][j-1])
		}
	}
	return dp
}
