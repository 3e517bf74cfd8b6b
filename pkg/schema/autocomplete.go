package schema

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/travigo/treni/pkg/ctdf"
)

// autocompleteDetector handles the ViaggiaTreno number lookup, one run per
// line: "9544 - MILANO CENTRALE - 19/10/26|9544-S01700-1760824800000".
// The same lines wrapped in a JSON string array are accepted too.
type autocompleteDetector struct{}

var autocompleteLineRegex = regexp.MustCompile(`^(.+?)\s*\|\s*(\d+)-([A-Za-z0-9]+)(?:-(\d+))?$`)

func (autocompleteDetector) Name() string {
	return "autocomplete"
}

func (autocompleteDetector) Detect(p *Probe) bool {
	lines := autocompleteLines(p)
	if len(lines) == 0 {
		return false
	}

	for _, line := range lines {
		if !autocompleteLineRegex.MatchString(line) {
			return false
		}
	}

	return true
}

func (autocompleteDetector) Extract(p *Probe, x *Extractor) Result {
	var choices []ctdf.Choice

	for i, line := range autocompleteLines(p) {
		matches := autocompleteLineRegex.FindStringSubmatch(line)

		index := i
		selection := ctdf.SelectionContext{
			Choice:      &index,
			TechnicalID: strings.Join(nonEmpty(matches[2:]), "-"),
			OriginCode:  strings.ToUpper(matches[3]),
		}

		if matches[4] != "" {
			if timestamp, err := strconv.ParseInt(matches[4], 10, 64); err == nil {
				selection.ReferenceTimestampMs = &timestamp
			}
		}
		selection.Date = selection.RunDate()

		choices = append(choices, ctdf.Choice{
			Label:            strings.TrimSpace(matches[1]),
			SelectionContext: selection,
		})
	}

	return Result{Kind: KindSelection, Choices: choices}
}

func autocompleteLines(p *Probe) []string {
	if !p.IsJSON {
		return p.Lines()
	}

	var lines []string
	for _, element := range p.Array {
		var line string
		if json.Unmarshal(element, &line) != nil {
			return nil
		}

		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}

	return lines
}

func nonEmpty(values []string) []string {
	var filtered []string
	for _, value := range values {
		if value != "" {
			filtered = append(filtered, value)
		}
	}

	return filtered
}
