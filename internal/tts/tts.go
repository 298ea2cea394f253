// Package tts carries speak/cancel commands to the device that actually
// plays audio, and optionally renders utterance text to MP3 files.
package tts

// Part says which side of a flashcard an utterance reads.
type Part string

const (
	Question Part = "question"
	Answer   Part = "answer"
)

// Voice holds the playback parameters sent with every utterance.
type Voice struct {
	Rate  float64
	Pitch float64
}

// DefaultVoice is rate 1, pitch 1.
var DefaultVoice = Voice{Rate: 1, Pitch: 1}

// Utterance is one playback request. Generation identifies it; a completion
// report must echo it back.
type Utterance struct {
	Generation  uint64  `json:"generation"`
	FlashcardID int64   `json:"flashcard_id"`
	Part        Part    `json:"part"`
	Text        string  `json:"text"`
	Rate        float64 `json:"rate"`
	Pitch       float64 `json:"pitch"`
}

type CommandKind string

const (
	CommandSpeak  CommandKind = "speak"
	CommandCancel CommandKind = "cancel"
)

// Command is what subscribers receive.
type Command struct {
	Kind      CommandKind `json:"kind"`
	Utterance *Utterance  `json:"utterance,omitempty"`
}
