package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"

	"github.com/julianstephens/dearbaby/internal/constants"
)

// DateParser turns user input into an unlock instant. It accepts YYYY-MM-DD,
// YYYY-MM-DD HH:MM, or English phrases such as "in 3 days" and "next friday at 9am".
type DateParser struct {
	parser *when.Parser
}

func NewDateParser() *DateParser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return &DateParser{parser: w}
}

// Parse interprets input relative to now in loc. A bare date means midnight.
func (p *DateParser) Parse(input string, now time.Time, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	input = strings.TrimSpace(input)
	if input == "" {
		return time.Time{}, fmt.Errorf("no date given")
	}

	for _, layout := range []string{constants.DateTimeFormat, constants.DateFormat} {
		if t, err := time.ParseInLocation(layout, input, loc); err == nil {
			return t, nil
		}
	}

	result, err := p.parser.Parse(input, now.In(loc))
	if err != nil || result == nil {
		return time.Time{}, fmt.Errorf("could not understand date %q", input)
	}
	return result.Time, nil
}

// FormatUnlock renders an unlock instant for display.
func FormatUnlock(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(constants.DateTimeFormat)
}
