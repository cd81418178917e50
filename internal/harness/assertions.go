package harness

import (
	"github.com/compneuro-ncu/order-task/internal/engine"
)

// viewKindByName maps scenario view names to engine view kinds.
var viewKindByName = map[string]engine.ViewKind{
	"blank":       engine.ViewBlank,
	"text":        engine.ViewText,
	"instruction": engine.ViewInstruction,
	"fixation":    engine.ViewFixation,
	"digits":      engine.ViewDigits,
	"feedback":    engine.ViewFeedback,
}

// evaluate checks every scenario assertion against the result, recording
// failures. All assertions are evaluated; the first failure does not stop
// the rest.
func evaluate(s *Scenario, result *Result) {
	for i, a := range s.Assertions {
		switch a.Type {
		case AssertRecordCount:
			if len(result.Records) != a.Count {
				result.Fail("assertion %d (record_count): got %d records, want %d", i, len(result.Records), a.Count)
			}
		case AssertCorrectSeq:
			assertCorrectSeq(i, a, result)
		case AssertPulseCount:
			if len(result.Pulses) != a.Count {
				result.Fail("assertion %d (pulse_count): got %d pulses, want %d", i, len(result.Pulses), a.Count)
			}
		case AssertViewOrder:
			assertViewOrder(i, a, result)
		case AssertAborted:
			if result.Aborted != a.Value {
				result.Fail("assertion %d (aborted): got %v, want %v", i, result.Aborted, a.Value)
			}
		case AssertRTWithin:
			assertRTWithin(i, a, result)
		}
	}
}

func assertCorrectSeq(i int, a Assertion, result *Result) {
	if len(result.Records) != len(a.Values) {
		result.Fail("assertion %d (correct_sequence): got %d records, want %d", i, len(result.Records), len(a.Values))
		return
	}
	for k, want := range a.Values {
		if got := result.Records[k].Response.Correct; got != want {
			result.Fail("assertion %d (correct_sequence): record %d correct=%d, want %d", i, k, got, want)
		}
	}
}

// assertViewOrder checks that the named view kinds first appear in the
// given order. Kinds not named are ignored.
func assertViewOrder(i int, a Assertion, result *Result) {
	first := map[engine.ViewKind]int{}
	for idx, v := range result.Views {
		if _, seen := first[v.Kind]; !seen {
			first[v.Kind] = idx
		}
	}

	prev := -1
	for _, name := range a.Views {
		kind := viewKindByName[name]
		idx, seen := first[kind]
		if !seen {
			result.Fail("assertion %d (view_order): view %q never rendered", i, name)
			return
		}
		if idx <= prev {
			result.Fail("assertion %d (view_order): view %q appeared out of order", i, name)
			return
		}
		prev = idx
	}
}

func assertRTWithin(i int, a Assertion, result *Result) {
	if a.Index >= len(result.Records) {
		result.Fail("assertion %d (rt_within): record %d does not exist (%d records)", i, a.Index, len(result.Records))
		return
	}
	rt := result.Records[a.Index].Response.RT
	if rt < a.Min || rt > a.Max {
		result.Fail("assertion %d (rt_within): record %d rt=%.4f outside [%.4f, %.4f]", i, a.Index, rt, a.Min, a.Max)
	}
}
