package stations

import (
	"github.com/travigo/treni/pkg/util"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// NormaliseName folds spacing and casing so every backend spells a station
// the same way ("MILANO  CENTRALE" and "Milano Centrale" agree).
func NormaliseName(name string) string {
	name = util.CollapseSpaces(name)
	if name == "" || name == "--" {
		return name
	}

	// A Caser keeps state, so one is built per call
	return cases.Title(language.Italian).String(name)
}
