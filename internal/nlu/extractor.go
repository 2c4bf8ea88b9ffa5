package nlu

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/Harshitk-cp/skybot/internal/domain"
)

const punctuation = ",.?!;:\"'()"

var (
	isoDate  = regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`)
	number   = regexp.MustCompile(`\d[\d,]*`)
	iataCode = regexp.MustCompile(`^[A-Z]{3}$`)
)

var (
	originWords      = map[string]bool{"from": true, "depart": true, "departing": true, "leave": true, "leaving": true}
	destinationWords = map[string]bool{"to": true, "for": true, "at": true, "arrive": true, "arriving": true, "go": true, "going": true, "into": true}
)

// Cabin classes in the provider's vocabulary.
var cabinWords = map[string]string{
	"coach":    "COACH",
	"economy":  "COACH",
	"deluxe":   "PREMIUM_COACH",
	"premium":  "PREMIUM_COACH",
	"business": "BUSINESS",
	"first":    "FIRST",
}

// Capitalised words that never start a place name.
var stopWords = map[string]bool{
	"i": true, "i'm": true, "i'd": true, "i'll": true, "please": true, "hello": true, "hi": true,
	"hey": true, "want": true, "fly": true, "flying": true, "book": true, "find": true, "show": true,
	"the": true, "a": true, "an": true, "on": true, "in": true, "and": true, "but": true, "what": true,
	"which": true, "how": true, "can": true, "could": true, "would": true, "is": true, "are": true,
	"today": true, "tomorrow": true, "yes": true, "no": true, "ok": true, "okay": true, "thanks": true,
	"class": true, "flight": true, "flights": true, "my": true, "me": true, "we": true,
}

var weekdays = map[string]time.Weekday{
	"sunday": time.Sunday, "monday": time.Monday, "tuesday": time.Tuesday, "wednesday": time.Wednesday,
	"thursday": time.Thursday, "friday": time.Friday, "saturday": time.Saturday,
}

// KeywordExtractor pulls slot values out of an utterance with word lists and
// a few regular expressions.
type KeywordExtractor struct {
	now func() time.Time
}

func NewKeywordExtractor() *KeywordExtractor {
	return &KeywordExtractor{now: time.Now}
}

// WithClock returns a copy that resolves relative dates against now.
func (e *KeywordExtractor) WithClock(now func() time.Time) *KeywordExtractor {
	return &KeywordExtractor{now: now}
}

func (e *KeywordExtractor) ExtractInfo(utterance string) domain.Info {
	info := domain.Info{DialogAct: ClassifyAct(utterance)}
	if info.DialogAct == domain.ActOther {
		return info
	}

	info.Dates = isoDate.FindAllString(utterance, -1)
	info.Dates = append(info.Dates, e.relativeDates(utterance)...)
	info.Cabin = detectCabin(utterance)
	info.Numbers = detectNumbers(isoDate.ReplaceAllString(utterance, " "))
	e.detectLocations(tokenize(utterance), &info)
	return info
}

func (e *KeywordExtractor) relativeDates(utterance string) []string {
	today := e.now()
	var out []string
	for _, w := range tokenize(utterance) {
		lw := strings.ToLower(w)
		switch {
		case lw == "today":
			out = append(out, today.Format(time.DateOnly))
		case lw == "tomorrow":
			out = append(out, today.AddDate(0, 0, 1).Format(time.DateOnly))
		default:
			if wd, ok := weekdays[lw]; ok {
				days := (int(wd) - int(today.Weekday()) + 7) % 7
				if days == 0 {
					days = 7
				}
				out = append(out, today.AddDate(0, 0, days).Format(time.DateOnly))
			}
		}
	}
	return out
}

func detectCabin(utterance string) string {
	lower := strings.ToLower(utterance)
	if strings.Contains(lower, "premium") || strings.Contains(lower, "deluxe") {
		return "PREMIUM_COACH"
	}
	for _, w := range tokenize(lower) {
		if c, ok := cabinWords[w]; ok {
			return c
		}
	}
	return ""
}

func detectNumbers(text string) []int {
	seen := make(map[int]bool)
	var out []int
	for _, m := range number.FindAllString(text, -1) {
		n, err := strconv.Atoi(strings.ReplaceAll(strings.Trim(m, ","), ",", ""))
		if err != nil || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

// detectLocations groups runs of capitalised words into place names and
// assigns each a direction from the word before it. A directionless place
// directly followed by "to" is taken as the origin.
func (e *KeywordExtractor) detectLocations(words []string, info *domain.Info) {
	for i := 0; i < len(words); i++ {
		if !startsPlace(words[i]) {
			continue
		}
		j := i
		for j < len(words) && startsPlace(words[j]) && !iataCode.MatchString(words[j]) {
			j++
		}
		if j == i {
			j = i + 1 // lone IATA code
		}
		place := strings.Join(words[i:j], " ")

		var prev, next string
		if i > 0 {
			prev = strings.ToLower(words[i-1])
		}
		if j < len(words) {
			next = strings.ToLower(words[j])
		}

		switch {
		case originWords[prev] && info.Origin == "":
			info.Origin = place
		case destinationWords[prev] && info.Destination == "":
			info.Destination = place
		case next == "to" && info.Origin == "":
			info.Origin = place
		default:
			info.Locations = append(info.Locations, place)
		}
		i = j - 1
	}
}

func startsPlace(word string) bool {
	if word == "" || stopWords[strings.ToLower(word)] {
		return false
	}
	if _, ok := weekdays[strings.ToLower(word)]; ok {
		return false
	}
	if _, ok := cabinWords[strings.ToLower(word)]; ok {
		return false
	}
	r := []rune(word)[0]
	return unicode.IsUpper(r)
}

func tokenize(s string) []string {
	fields := strings.Fields(s)
	out := fields[:0]
	for _, f := range fields {
		if t := strings.Trim(f, punctuation); t != "" {
			out = append(out, t)
		}
	}
	return out
}
