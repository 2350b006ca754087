// Package rewrite implements DynamicRewriters (spec.md §4.9): late
// materialisation of the dynamic-marker surfaces LatticeGraph attaches to
// numeral and date/time reading spans, run once per selected path after
// k-best selection so it never influences DP cost.
package rewrite

import (
	"strconv"
	"strings"

	"akaza-go/internal/lattice"
)

var kanjiDigit = [10]rune{'〇', '一', '二', '三', '四', '五', '六', '七', '八', '九'}

// placeName is the kanji multiplier for position 1..3 within a 4-digit
// group (position 0, the ones place, has no multiplier).
var placeName = [4]string{"", "十", "百", "千"}

// groupName is the kanji multiplier for each successive group of 4
// digits, least significant group first (group 0 has no suffix).
var groupName = []string{"", "万", "億", "兆"}

// Int2Kanji converts a run of ASCII decimal digits into its kanji numeral
// reading (spec.md §4.9, §8 example 4: "365" -> "三百六十五"). A leading
// "1" before 十/百/千 is elided, matching ordinary Japanese numeral
// writing ("十五", not "一十五"), while 万/億/兆 keep it ("一万"); "0"
// converts to "〇".
func Int2Kanji(digits string) string {
	if digits == "" {
		return ""
	}
	if _, err := strconv.ParseUint(digits, 10, 64); err != nil {
		// Not a plain non-negative integer (a digit-span reading may carry a
		// decimal part, e.g. "1.5"). Return the raw digits unchanged.
		return digits
	}
	if digits == strings.Repeat("0", len(digits)) {
		return string(kanjiDigit[0])
	}

	digits = strings.TrimLeft(digits, "0")
	groups := splitIntoGroupsOf4(digits)

	var b strings.Builder
	for gi := 0; gi < len(groups); gi++ {
		rendered := renderGroup(groups[gi])
		if rendered == "" {
			continue
		}
		b.WriteString(rendered)
		if groupIdx := len(groups) - 1 - gi; groupIdx < len(groupName) {
			b.WriteString(groupName[groupIdx])
		}
	}
	return b.String()
}

// splitIntoGroupsOf4 splits digits into 4-digit chunks from the right,
// most-significant group first.
func splitIntoGroupsOf4(digits string) []string {
	var groups []string
	for len(digits) > 0 {
		start := len(digits) - 4
		if start < 0 {
			start = 0
		}
		groups = append([]string{digits[start:]}, groups...)
		digits = digits[:start]
	}
	return groups
}

func renderGroup(group string) string {
	var b strings.Builder
	n := len(group)
	for i, r := range group {
		d := int(r - '0')
		if d == 0 {
			continue
		}
		place := n - i - 1
		if d == 1 && place > 0 {
			// elide "一" before 十/百/千
		} else {
			b.WriteRune(kanjiDigit[d])
		}
		b.WriteString(placeName[place])
	}
	return b.String()
}

// Materialise replaces a dynamic-marker surface with its displayed form.
// Non-marker nodes pass through unchanged. The unigram/bigram costs
// already fixed during DP resolution are untouched (spec.md §4.9).
func Materialise(n lattice.WordNode) lattice.WordNode {
	if !n.Dynamic || !lattice.IsMarker(n.Surface) {
		return n
	}
	// Every date/time class still only materialises the bare numeral: the
	// counter word itself (年/月/日/時/分) is a separate lattice node
	// (a normal dictionary hit on ねん/がつ/にち/じ/ふん), so appending it
	// here would duplicate it. The class distinction exists purely so a
	// caller inspecting the path can tell which counter a numeral
	// preceded (spec.md §4.9's "date/time formatters for the others").
	switch lattice.MarkerClass(n.Surface) {
	case lattice.ClassNumberKansuji, lattice.ClassDateYear, lattice.ClassDateMonth,
		lattice.ClassDateDay, lattice.ClassTimeHour, lattice.ClassTimeMinute:
		n.Surface = Int2Kanji(n.Reading)
	default:
		n.Surface = n.Reading
	}
	return n
}

// MaterialisePath materialises every dynamic-marker node in nodes,
// returning the display-ready sequence. The original nodes slice is left
// untouched; a new slice is returned.
func MaterialisePath(nodes []lattice.WordNode) []lattice.WordNode {
	out := make([]lattice.WordNode, len(nodes))
	for i, n := range nodes {
		out[i] = Materialise(n)
	}
	return out
}
