package progress

// Percent returns round(100 * completed / total) using round-half-up, and
// false when total is zero so callers can leave stored values untouched.
// completed is clamped to [0, total].
func Percent(completed, total int) (int, bool) {
	if total <= 0 {
		return 0, false
	}
	if completed < 0 {
		completed = 0
	}
	if completed > total {
		completed = total
	}
	// (200c + t) / 2t == floor(100c/t + 1/2) in integer arithmetic.
	return (200*completed + total) / (2 * total), true
}
