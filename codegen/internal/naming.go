package codegen

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// goInitialisms are words rendered fully upper case in Go identifiers.
var goInitialisms = map[string]bool{
	"API": true, "ASCII": true, "CPU": true, "CSS": true, "DNS": true,
	"EOF": true, "GUID": true, "HTML": true, "HTTP": true, "HTTPS": true,
	"ID": true, "IP": true, "JSON": true, "JWT": true, "LHS": true,
	"OS": true, "QPS": true, "RAM": true, "RHS": true, "RPC": true,
	"SQL": true, "SSH": true, "TCP": true, "TLS": true, "TTL": true,
	"UDP": true, "UI": true, "UID": true, "URI": true, "URL": true,
	"UTF8": true, "UUID": true, "VM": true, "XML": true,
}

// splitWords breaks a document name into words at non-alphanumeric runes
// and at case boundaries ("petID" -> pet, ID; "HTTPServer" -> HTTP, Server).
func splitWords(s string) []string {
	var words []string
	var cur []rune
	flush := func() {
		if len(cur) > 0 {
			words = append(words, string(cur))
			cur = cur[:0]
		}
	}

	runes := []rune(s)
	for i, r := range runes {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			flush()
			continue
		}
		if len(cur) > 0 && unicode.IsUpper(r) {
			prev := cur[len(cur)-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				flush()
			}
		}
		cur = append(cur, r)
	}
	flush()
	return words
}

func titleWord(w string) string {
	return cases.Title(language.Und).String(w)
}

// goName converts a document name to an exported Go identifier fragment.
// The result may start with a digit.
func goName(s string) string {
	var b strings.Builder
	for _, w := range splitWords(s) {
		if up := strings.ToUpper(w); goInitialisms[up] {
			b.WriteString(up)
			continue
		}
		b.WriteString(titleWord(w))
	}
	return b.String()
}

// goTypeName converts a schema name to an exported Go type name.
func goTypeName(s string) string {
	name := goName(s)
	if name == "" {
		return "Schema"
	}
	if unicode.IsDigit([]rune(name)[0]) {
		return "N" + name
	}
	return name
}

// pascalName converts a name to PascalCase without initialism handling.
func pascalName(s string) string {
	var b strings.Builder
	for _, w := range splitWords(s) {
		b.WriteString(titleWord(w))
	}
	return b.String()
}

// snakeName converts a name to snake_case.
func snakeName(s string) string {
	words := splitWords(s)
	for i, w := range words {
		words[i] = strings.ToLower(w)
	}
	return strings.Join(words, "_")
}

// uniqueNames makes names unique by appending a counter to repeats, in
// order of appearance.
func uniqueNames(names []string) []string {
	seen := make(map[string]int, len(names))
	out := make([]string, len(names))
	for i, n := range names {
		seen[n]++
		if seen[n] > 1 {
			out[i] = n + strconv.Itoa(seen[n])
			continue
		}
		out[i] = n
	}
	return out
}
