package planner

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// The notes-embedded marker grammar is the one wire format this engine owns:
//
//	[AutoPlan] Split 2/6 of "Write report"
//	[AutoPlan] Original Task ID: 5f3a...
//
// Split numbering starts at 1; quotes inside the title are backslash-escaped.
// Anything that does not match the full grammar is treated as plain user
// text, never as an error: user-authored notes may coincidentally resemble
// the grammar and must not be mistaken for blocks.
const MarkerPrefix = "[AutoPlan]"

var (
	splitMarkerLine  = regexp.MustCompile(`^\[AutoPlan\] Split (\d+)/(\d+) of "((?:\\"|[^"])*)"\s*$`)
	originMarkerLine = regexp.MustCompile(`^\[AutoPlan\] Original Task ID: (\S+)\s*$`)
	romanSuffix      = regexp.MustCompile(`\s+[IVXLCDM]+$`)
)

// SplitMarker renders the split marker for the 1-based block index. Only
// quotes in the title are escaped, so any other byte round-trips untouched.
func SplitMarker(index, total int, title string) string {
	escaped := strings.ReplaceAll(title, `"`, `\"`)
	return fmt.Sprintf(`%s Split %d/%d of "%s"`, MarkerPrefix, index, total, escaped)
}

// OriginMarker renders the original-task-id marker.
func OriginMarker(id string) string {
	return fmt.Sprintf("%s Original Task ID: %s", MarkerPrefix, id)
}

// BlockMarkers renders both marker lines appended to existing notes.
func BlockMarkers(notes, originID, title string, index, total int) string {
	lines := []string{SplitMarker(index, total, title), OriginMarker(originID)}
	notes = strings.TrimRight(notes, "\n")
	if notes == "" {
		return strings.Join(lines, "\n")
	}
	return notes + "\n" + strings.Join(lines, "\n")
}

// BlockInfo is the parsed marker pair of a split-block task.
type BlockInfo struct {
	OriginID string
	Index    int // 1-based
	Total    int
	Title    string // original title, unescaped
}

// ParseBlockInfo extracts the marker pair from notes. Both markers must be
// present for a task to count as a block.
func ParseBlockInfo(notes string) (BlockInfo, bool) {
	var info BlockInfo
	haveSplit, haveOrigin := false, false
	for _, line := range strings.Split(notes, "\n") {
		if m := splitMarkerLine.FindStringSubmatch(line); m != nil && !haveSplit {
			idx, err1 := strconv.Atoi(m[1])
			total, err2 := strconv.Atoi(m[2])
			if err1 != nil || err2 != nil || idx < 1 || total < 1 || idx > total {
				continue
			}
			info.Index, info.Total = idx, total
			info.Title = strings.ReplaceAll(m[3], `\"`, `"`)
			haveSplit = true
			continue
		}
		if m := originMarkerLine.FindStringSubmatch(line); m != nil && !haveOrigin {
			info.OriginID = m[1]
			haveOrigin = true
		}
	}
	if !haveSplit || !haveOrigin {
		return BlockInfo{}, false
	}
	return info, true
}

// IsSplitBlock reports whether the notes carry a complete marker pair. Used
// as the idempotence guard: already-processed tasks are never re-split.
func IsSplitBlock(notes string) bool {
	_, ok := ParseBlockInfo(notes)
	return ok
}

// StripMarkers removes marker lines, leaving user content untouched.
func StripMarkers(notes string) string {
	lines := strings.Split(notes, "\n")
	out := lines[:0]
	for _, line := range lines {
		if splitMarkerLine.MatchString(line) || originMarkerLine.MatchString(line) {
			continue
		}
		out = append(out, line)
	}
	return strings.TrimRight(strings.Join(out, "\n"), "\n")
}

var romanDigits = []struct {
	value int
	sym   string
}{
	{1000, "M"}, {900, "CM"}, {500, "D"}, {400, "CD"},
	{100, "C"}, {90, "XC"}, {50, "L"}, {40, "XL"},
	{10, "X"}, {9, "IX"}, {5, "V"}, {4, "IV"}, {1, "I"},
}

// RomanNumeral renders n >= 1 as a roman numeral; block tasks are titled
// "<original title> <numeral>".
func RomanNumeral(n int) string {
	if n < 1 {
		return ""
	}
	var b strings.Builder
	for _, d := range romanDigits {
		for n >= d.value {
			b.WriteString(d.sym)
			n -= d.value
		}
	}
	return b.String()
}

// BlockTitle renders the title of the 1-based block index.
func BlockTitle(title string, index int) string {
	return title + " " + RomanNumeral(index)
}

// StripRomanSuffix removes a trailing roman-numeral suffix from a title.
func StripRomanSuffix(title string) string {
	return romanSuffix.ReplaceAllString(title, "")
}
