package insight

import "strings"

// StrategyMarker is the substring whose first occurrence starts the strategy section.
const StrategyMarker = "Day Strategy"

// Split divides model output in one forward pass: lines before the first line
// containing StrategyMarker are the reflection, that line and everything after
// it the strategy. Without a marker the whole text is reflection.
func Split(raw string) (reflection, strategy string) {
	var before, after []string
	inStrategy := false
	for _, line := range strings.Split(raw, "\n") {
		if !inStrategy && strings.Contains(line, StrategyMarker) {
			inStrategy = true
		}
		if inStrategy {
			after = append(after, line)
		} else {
			before = append(before, line)
		}
	}
	return strings.TrimSpace(strings.Join(before, "\n")), strings.TrimSpace(strings.Join(after, "\n"))
}
