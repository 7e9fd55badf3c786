package gen

import (
	"strings"
	"unicode"

	"github.com/go-openapi/inflect"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	acronyms = map[string]bool{
		"API": true, "DB": true, "HTML": true, "HTTP": true, "ID": true,
		"JSON": true, "SQL": true, "TCP": true, "URL": true, "UTC": true,
		"UUID": true, "XML": true,
	}
	rules = ruleset()
)

func ruleset() *inflect.Ruleset {
	rules := inflect.NewDefaultRuleset()
	for w := range acronyms {
		rules.AddAcronym(w)
	}
	return rules
}

// snake converts the given identifier to snake case.
//
//	Username => username
//	FullName => full_name
//	HTTPCode => http_code
func snake(s string) string {
	var (
		j int
		b strings.Builder
	)
	for i := 0; i < len(s); i++ {
		r := rune(s[i])
		// Put '_' if it is not a start or end of a word, current letter is uppercase,
		// and previous is lowercase (cases like: "UserInfo"), or next letter is also
		// a lowercase and previous letter is not "_".
		if i > 0 && i < len(s)-1 && unicode.IsUpper(r) {
			if unicode.IsLower(rune(s[i-1])) ||
				j != i-1 && unicode.IsLower(rune(s[i+1])) && unicode.IsLetter(rune(s[i-1])) {
				j = i
				b.WriteString("_")
			}
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// pascal converts the given identifier to an exported Go name.
//
//	created_at => CreatedAt
//	order_id   => OrderID
func pascal(s string) string {
	words := strings.Split(snake(s), "_")
	// Casers keep state, a new one is used per call.
	title := cases.Title(language.English)
	for i, w := range words {
		if u := strings.ToUpper(w); acronyms[u] {
			words[i] = u
			continue
		}
		words[i] = title.String(w)
	}
	return strings.Join(words, "")
}

// plural returns the plural form of the given word.
func plural(s string) string {
	return rules.Pluralize(s)
}
