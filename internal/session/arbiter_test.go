package session_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vytor/speakflash/internal/session"
)

var allPhases = []session.Phase{
	session.Idle,
	session.PlayingQuestion,
	session.AwaitingReveal,
	session.PlayingAnswer,
	session.AwaitingAdvance,
	session.Paused,
	session.Finished,
}

func TestArbitrate_Tap(t *testing.T) {
	tests := []struct {
		phase session.Phase
		want  session.Decision
	}{
		{session.Idle, session.Decision{}},
		{session.PlayingQuestion, session.Decision{Next: session.PlayingAnswer}},
		{session.AwaitingReveal, session.Decision{Next: session.PlayingAnswer}},
		{session.PlayingAnswer, session.Decision{Verdict: session.VerdictCorrect, Advance: true}},
		{session.AwaitingAdvance, session.Decision{Verdict: session.VerdictIncorrect, Advance: true}},
		{session.Paused, session.Decision{}},
		{session.Finished, session.Decision{}},
	}
	for _, tt := range tests {
		t.Run(string(tt.phase), func(t *testing.T) {
			assert.Equal(t, tt.want, session.Arbitrate(tt.phase, session.Tap))
		})
	}
}

func TestArbitrate_SpeechFinished(t *testing.T) {
	for _, phase := range allPhases {
		d := session.Arbitrate(phase, session.SpeechFinished)
		assert.Equal(t, session.NoVerdict, d.Verdict, "completion never scores (%s)", phase)
		assert.False(t, d.Advance, "completion never advances (%s)", phase)

		switch phase {
		case session.PlayingQuestion:
			assert.Equal(t, session.AwaitingReveal, d.Next)
		case session.PlayingAnswer:
			assert.Equal(t, session.AwaitingAdvance, d.Next)
		default:
			assert.True(t, d.Ignored(), "phase %s", phase)
		}
	}
}

func TestArbitrate_VerdictDependsOnPhaseOnly(t *testing.T) {
	for i := 0; i < 10; i++ {
		assert.Equal(t, session.VerdictCorrect, session.Arbitrate(session.PlayingAnswer, session.Tap).Verdict)
		assert.Equal(t, session.VerdictIncorrect, session.Arbitrate(session.AwaitingAdvance, session.Tap).Verdict)
	}
}

func TestPhasePredicates(t *testing.T) {
	for _, p := range allPhases {
		if p.Speaking() {
			assert.True(t, p.Active(), "speaking phase %s must be active", p)
		}
	}
	assert.False(t, session.Paused.Active())
	assert.False(t, session.AwaitingReveal.Speaking())
}
