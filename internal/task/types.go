package task

// Condition identifies which judgement the participant performs on a block.
type Condition string

const (
	// ConditionControl asks whether the target digit appears in the triplet.
	ConditionControl Condition = "control"

	// ConditionOrder asks whether the triplet is ordered (either direction).
	ConditionOrder Condition = "order"
)

// Conditions is the fixed per-pair presentation order: every block pair shows
// one control block followed by one order block.
var Conditions = [2]Condition{ConditionControl, ConditionOrder}

// Trial is one presentation unit: a digit triplet with its correctness keys
// and, once scheduled, its planned onsets on the run clock.
type Trial struct {
	// Group is the stimulus-table block id this trial was drawn from.
	Group int

	// DigitL, DigitC, DigitR are the displayable digit values.
	DigitL string
	DigitC string
	DigitR string

	// IsTarget is the control-condition correctness key (0 or 1).
	IsTarget int

	// IsOrder is the order-condition correctness key. The sign encodes
	// direction, magnitude 1 means ordered, 0 means not ordered.
	IsOrder int

	// ISISeconds is the fixation duration preceding the digit display.
	// Zero until the trial is scheduled.
	ISISeconds float64

	// OnsetFixPlan and OnsetDigPlan are planned onsets in seconds relative
	// to task start (the first scanner pulse). Zero in self-paced plans.
	OnsetFixPlan float64
	OnsetDigPlan float64
}

// Press is the semantic classification of a response key.
type Press int

const (
	// PressNone indicates no accepted key arrived within the window.
	PressNone Press = iota

	// PressYes is the affirmative response key.
	PressYes

	// PressNo is the negative response key.
	PressNo
)

// Response is the scored outcome of one trial.
type Response struct {
	// Key is the physical key name that was pressed, or "" on timeout.
	Key string

	// RT is the reaction time in seconds, 0 on timeout.
	RT float64

	// Correct is 1 for a correct response, 0 for incorrect, and -1 for a
	// timeout. The -1 sentinel is preserved verbatim through storage and
	// export; downstream analysis decides how to treat it.
	Correct int
}

// Record is one fully executed trial: the trial, the actually observed onsets
// on both clocks, and the scored response. Records are append-only.
type Record struct {
	Condition Condition
	Pair      int // 1-based block-pair counter
	Block     int // 0-based sequential block index across the run
	Trial     Trial

	// Actual onsets: run-clock and free-running-clock variants.
	OnsetFix     float64
	OnsetFixGlob float64
	OnsetDig     float64
	OnsetDigGlob float64

	Response Response
}

// InfoMark records when a block's instruction screen actually appeared.
type InfoMark struct {
	Condition Condition
	Block     int
	Onset     float64
	OnsetGlob float64
}

// RunLog accumulates everything a run produces. It is owned exclusively by
// the trial executor; the pulse log lives separately (see engine.PulseLog)
// because it is fed from an asynchronous context.
type RunLog struct {
	Info    []InfoMark
	Records []Record
}

// AddInfo appends an instruction-screen mark.
func (l *RunLog) AddInfo(m InfoMark) {
	l.Info = append(l.Info, m)
}

// AddRecord appends a completed trial record.
func (l *RunLog) AddRecord(r Record) {
	l.Records = append(l.Records, r)
}
