package settings

import "encoding/json"

// Document is the per-channel settings payload, stored as a JSON object.
// Absent fields default to false/empty, so the zero value is a valid
// all-defaults document.
type Document struct {
	// Talkative forwards engine replies even without an explicit mention.
	Talkative bool `json:"talkative"`
	// LearningDisabled stops messages being queued for the engine unless the
	// bot is explicitly mentioned.
	LearningDisabled bool `json:"learningdisabled"`
	// Ignores lists user ids whose messages are never relayed. Ordered,
	// duplicates allowed.
	Ignores []uint64 `json:"ignores"`
}

// LearningEnabled reports whether messages in the channel may be queued for
// the engine without a mention.
func (d Document) LearningEnabled() bool {
	return !d.LearningDisabled
}

// Ignored reports whether userID is on the channel's ignore list.
func (d Document) Ignored(userID uint64) bool {
	for _, id := range d.Ignores {
		if id == userID {
			return true
		}
	}
	return false
}

// Parse decodes a stored settings blob. Malformed or non-object payloads
// yield an all-defaults document, never an error: a settings lookup must
// always produce a usable document.
func Parse(raw string) Document {
	var d Document
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return Document{}
	}
	return d
}

// Encode serializes the whole document. The ignore list is always emitted as
// an array so the stored shape is stable.
func (d Document) Encode() string {
	if d.Ignores == nil {
		d.Ignores = []uint64{}
	}
	raw, err := json.Marshal(d)
	if err != nil {
		// Document has no unmarshalable fields; keep the row well-formed.
		return "{}"
	}
	return string(raw)
}
