package domain

type DialogAct string

const (
	ActStatement DialogAct = "statement"
	ActQuestion  DialogAct = "question"
	ActYes       DialogAct = "yes"
	ActNo        DialogAct = "no"
	ActOther     DialogAct = "other"
)

// Info is what the language-understanding collaborator extracts from one
// utterance. Locations holds place mentions without a direction.
type Info struct {
	DialogAct   DialogAct `json:"dialog_act"`
	Origin      string    `json:"origin,omitempty"`
	Destination string    `json:"destination,omitempty"`
	Locations   []string  `json:"locations,omitempty"`
	Dates       []string  `json:"dates,omitempty"`
	Cabin       string    `json:"cabin,omitempty"`
	Numbers     []int     `json:"numbers,omitempty"`
}

// Empty reports whether no slot value was extracted.
func (i Info) Empty() bool {
	return i.Origin == "" && i.Destination == "" && len(i.Locations) == 0 &&
		len(i.Dates) == 0 && i.Cabin == "" && len(i.Numbers) == 0
}
