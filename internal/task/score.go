package task

// Score classifies a response against the trial's correctness keys.
//
// The classification rule depends on the block condition:
//
//   - control: yes is correct iff IsTarget == 1, no iff IsTarget == 0
//   - order:   yes is correct iff |IsOrder| == 1 (ordered either direction),
//     no iff IsOrder == 0
//
// A timeout (PressNone) is not an error but a first-class scored outcome:
// Correct = -1, RT = 0, empty key.
//
// key is the physical key name recorded for the log; rt is the response
// timestamp minus the digit-onset timestamp captured on the same clock.
func Score(cond Condition, t Trial, press Press, key string, rt float64) Response {
	switch press {
	case PressYes:
		if cond == ConditionControl {
			return Response{Key: key, RT: rt, Correct: boolToInt(t.IsTarget == 1)}
		}
		return Response{Key: key, RT: rt, Correct: boolToInt(t.IsOrder == 1 || t.IsOrder == -1)}
	case PressNo:
		if cond == ConditionControl {
			return Response{Key: key, RT: rt, Correct: boolToInt(t.IsTarget == 0)}
		}
		return Response{Key: key, RT: rt, Correct: boolToInt(t.IsOrder == 0)}
	default:
		return Response{Key: "", RT: 0, Correct: -1}
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
