package rules

// ScoreRound computes one seat's score delta for a finished round from
// its declared and captured pile counts. The redeal multiplier scales
// the whole delta.
//
//	declared 0, captured 0  -> +3 (successful zero)
//	declared 0, captured n  -> -n (broken zero)
//	declared d, captured d  -> d + 5 (hit target)
//	otherwise               -> -|declared - captured| (missed target)
func ScoreRound(declared, captured, multiplier int) int {
	var delta int

	switch {
	case declared == 0 && captured == 0:
		delta = 3
	case declared == 0:
		delta = -captured
	case declared == captured:
		delta = declared + 5
	default:
		diff := declared - captured
		if diff < 0 {
			diff = -diff
		}
		delta = -diff
	}

	return delta * multiplier
}
