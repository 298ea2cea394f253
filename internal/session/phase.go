package session

// Phase is the current node of the playback state machine.
type Phase string

const (
	Idle            Phase = "idle"
	PlayingQuestion Phase = "playing_question"
	AwaitingReveal  Phase = "awaiting_reveal"
	PlayingAnswer   Phase = "playing_answer"
	AwaitingAdvance Phase = "awaiting_advance"
	Paused          Phase = "paused"
	Finished        Phase = "finished"
)

// Active reports whether a question/answer cycle is in progress.
func (p Phase) Active() bool {
	switch p {
	case PlayingQuestion, AwaitingReveal, PlayingAnswer, AwaitingAdvance:
		return true
	}
	return false
}

// Speaking reports whether an utterance is expected to be playing.
func (p Phase) Speaking() bool {
	return p == PlayingQuestion || p == PlayingAnswer
}
