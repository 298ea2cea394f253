package session

// Trigger is an event that can move the state machine.
type Trigger int

const (
	Tap Trigger = iota
	SpeechFinished
)

func (t Trigger) String() string {
	if t == SpeechFinished {
		return "speech_finished"
	}
	return "tap"
}

// Verdict is the self-reported correctness signal.
type Verdict int

const (
	NoVerdict Verdict = iota
	VerdictCorrect
	VerdictIncorrect
)

func (v Verdict) String() string {
	switch v {
	case VerdictCorrect:
		return "correct"
	case VerdictIncorrect:
		return "incorrect"
	}
	return "none"
}

// Decision is the outcome of one trigger. A scored decision always advances
// and leaves Next empty: the target depends on the deck, not on the phase.
type Decision struct {
	Next    Phase
	Verdict Verdict
	Advance bool
}

// Ignored reports a trigger that has no effect in the current phase.
func (d Decision) Ignored() bool {
	return d.Next == "" && !d.Advance
}

// Arbitrate maps (phase, trigger) to a decision. It depends on nothing else:
// a tap while the answer is still playing means the user recalled it, a tap
// after the answer finished means they needed to hear it.
func Arbitrate(phase Phase, trigger Trigger) Decision {
	switch trigger {
	case Tap:
		switch phase {
		case PlayingQuestion, AwaitingReveal:
			return Decision{Next: PlayingAnswer}
		case PlayingAnswer:
			return Decision{Verdict: VerdictCorrect, Advance: true}
		case AwaitingAdvance:
			return Decision{Verdict: VerdictIncorrect, Advance: true}
		}
	case SpeechFinished:
		switch phase {
		case PlayingQuestion:
			return Decision{Next: AwaitingReveal}
		case PlayingAnswer:
			return Decision{Next: AwaitingAdvance}
		}
	}
	return Decision{}
}
