package sanitizer

import (
	"regexp"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// DefaultRegion is used for numbers written without a country code.
var DefaultRegion = "US"

var (
	rePhoneSeparators = regexp.MustCompile(`[\s\-().]`)
	reDialable        = regexp.MustCompile(`^\+?[0-9]+$`)
)

func NormalizePhone(phone string) string {
	compact := rePhoneSeparators.ReplaceAllString(strings.TrimSpace(phone), "")
	if compact == "" || !reDialable.MatchString(compact) {
		return compact
	}

	parsed, err := phonenumbers.Parse(compact, DefaultRegion)
	if err != nil || !phonenumbers.IsPossibleNumber(parsed) {
		return compact
	}
	return phonenumbers.Format(parsed, phonenumbers.E164)
}
