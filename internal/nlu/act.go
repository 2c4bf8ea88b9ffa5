package nlu

import (
	"strings"

	"github.com/Harshitk-cp/skybot/internal/domain"
)

var (
	yesWords = map[string]bool{"yes": true, "yeah": true, "yep": true, "sure": true, "ok": true, "okay": true}
	noWords  = map[string]bool{"no": true, "nope": true, "nah": true, "not": true}
)

// ClassifyAct labels an utterance with a coarse dialogue act. Affirmation
// wins over negation, and either wins over a question mark.
func ClassifyAct(utterance string) domain.DialogAct {
	if strings.TrimSpace(utterance) == "" {
		return domain.ActOther
	}
	words := tokenize(utterance)
	for _, w := range words {
		if yesWords[strings.ToLower(w)] {
			return domain.ActYes
		}
	}
	for _, w := range words {
		if noWords[strings.ToLower(w)] {
			return domain.ActNo
		}
	}
	if strings.Contains(utterance, "?") {
		return domain.ActQuestion
	}
	return domain.ActStatement
}
