package session

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/vytor/speakflash/internal/deck"
	"github.com/vytor/speakflash/internal/logger"
	"github.com/vytor/speakflash/internal/models"
	"github.com/vytor/speakflash/internal/review"
	"github.com/vytor/speakflash/internal/tts"
)

// Speaker is the TTS output. Cancel must stop current and queued audio.
// Finished tells the output that generation ended on its own.
type Speaker interface {
	Speak(ctx context.Context, u tts.Utterance) error
	Cancel(ctx context.Context) error
	Finished(ctx context.Context, generation uint64) error
}

// ReviewLogger records a verdict without blocking the caller.
type ReviewLogger interface {
	LogReview(ctx context.Context, a review.Attempt) models.ReviewEvent
}

// State is the sequencer's position. Zero timestamps mean "not recorded".
type State struct {
	Phase          Phase
	Index          int
	QuestionEndAt  time.Time
	AnswerRevealAt time.Time
	Generation     uint64
}

type Options struct {
	Policy       deck.Policy
	Voice        tts.Voice
	Now          func() time.Time
	Rand         *rand.Rand
	NewSessionID func() string
}

// Sequencer is the playback state machine. It is not safe for concurrent
// use; Controller serializes every call onto one goroutine.
type Sequencer struct {
	speaker Speaker
	reviews ReviewLogger
	voice   tts.Voice
	now     func() time.Time
	rng     *rand.Rand
	newID   func() string
	log     *logger.Logger

	source  []models.Flashcard
	policy  deck.Policy
	deck    deck.Deck
	pending bool
	deckErr string

	state      State
	sessionID  string
	active     *tts.Utterance
	lastReview *models.ReviewEvent
}

func NewSequencer(speaker Speaker, reviews ReviewLogger, opts Options) *Sequencer {
	if opts.Policy == "" {
		opts.Policy = deck.OldestFirst
	}
	if opts.Voice == (tts.Voice{}) {
		opts.Voice = tts.DefaultVoice
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewSessionID == nil {
		opts.NewSessionID = uuid.NewString
	}
	return &Sequencer{
		speaker: speaker,
		reviews: reviews,
		voice:   opts.Voice,
		now:     opts.Now,
		rng:     opts.Rand,
		newID:   opts.NewSessionID,
		log:     logger.Default().WithPrefix("session"),
		policy:  opts.Policy,
		state:   State{Phase: Idle},
	}
}

// State returns a copy of the current position.
func (s *Sequencer) State() State { return s.state }

// Deck returns a copy of the deck in play.
func (s *Sequencer) Deck() deck.Deck {
	d := make(deck.Deck, len(s.deck))
	copy(d, s.deck)
	return d
}

// SetSource replaces the flashcard set. A non-nil err leaves an empty deck
// and is reported in snapshots until the next successful load.
func (s *Sequencer) SetSource(cards []models.Flashcard, err error) {
	if err != nil {
		s.source = nil
		s.deckErr = err.Error()
	} else {
		s.source = append([]models.Flashcard(nil), cards...)
		s.deckErr = ""
	}
	s.deckChanged("source")
}

// SetPolicy selects a new ordering.
func (s *Sequencer) SetPolicy(p deck.Policy) {
	s.policy = p
	s.deckChanged("policy")
}

// deckChanged rebuilds immediately when nothing is playing. Otherwise the
// rebuild waits for the next Start or Restart so in-flight audio is untouched.
func (s *Sequencer) deckChanged(reason string) {
	switch s.state.Phase {
	case Idle, Finished:
		s.rebuild()
		s.state = State{Phase: Idle, Generation: s.state.Generation}
		s.log.Debug("deck rebuilt (%s): policy=%s size=%d", reason, s.policy, len(s.deck))
	default:
		s.pending = true
		s.log.Debug("deck change (%s) deferred until next start/restart, phase=%s", reason, s.state.Phase)
	}
}

func (s *Sequencer) rebuild() {
	s.deck = deck.Order(s.source, s.policy, s.rng)
	s.pending = false
}

// Start begins a new session from the first card.
func (s *Sequencer) Start(ctx context.Context) {
	wasPending := s.pending
	if wasPending {
		s.rebuild()
	}
	if len(s.deck) == 0 {
		if wasPending {
			// the deck in play was replaced by an empty one
			s.stop(ctx)
		}
		s.log.Info("start ignored: deck is empty")
		return
	}

	s.sessionID = s.newID()
	s.lastReview = nil
	s.state.Index = 0
	s.clearTimestamps()
	s.log.Info("session started: session_id=%s cards=%d policy=%s", s.sessionID, len(s.deck), s.policy)
	s.play(ctx, tts.Question)
}

// Restart cancels playback and returns to Idle at the first card.
func (s *Sequencer) Restart(ctx context.Context) {
	if s.pending {
		s.rebuild()
	}
	s.stop(ctx)
	s.log.Info("session restarted")
}

func (s *Sequencer) stop(ctx context.Context) {
	s.cancel(ctx)
	s.state = State{Phase: Idle, Generation: s.state.Generation}
	s.sessionID = ""
}

// Pause cancels audio mid-cycle and keeps the current card.
func (s *Sequencer) Pause(ctx context.Context) {
	if !s.state.Phase.Active() {
		s.log.Debug("pause ignored in phase %s", s.state.Phase)
		return
	}
	s.cancel(ctx)
	s.clearTimestamps()
	s.state.Phase = Paused
	s.log.Info("session paused at index %d", s.state.Index)
}

// Resume replays the current card's question after a pause.
func (s *Sequencer) Resume(ctx context.Context) {
	if s.state.Phase != Paused {
		s.log.Debug("resume ignored in phase %s", s.state.Phase)
		return
	}
	s.log.Info("session resumed at index %d", s.state.Index)
	s.play(ctx, tts.Question)
}

// Tap handles the single user input.
func (s *Sequencer) Tap(ctx context.Context) {
	s.apply(ctx, Tap, Arbitrate(s.state.Phase, Tap))
}

// SpeechFinished handles a completion report. Reports carrying any
// generation other than the latest are discarded.
func (s *Sequencer) SpeechFinished(ctx context.Context, generation uint64) {
	if generation != s.state.Generation {
		s.log.Debug("stale completion discarded: got=%d current=%d", generation, s.state.Generation)
		return
	}
	s.apply(ctx, SpeechFinished, Arbitrate(s.state.Phase, SpeechFinished))
}

func (s *Sequencer) apply(ctx context.Context, trigger Trigger, d Decision) {
	if d.Ignored() {
		s.log.Debug("%s ignored in phase %s", trigger, s.state.Phase)
		return
	}

	now := s.now()
	switch {
	case d.Advance:
		s.score(ctx, d.Verdict == VerdictCorrect, now)
		s.advance(ctx)
	case d.Next == PlayingAnswer:
		// an early tap skips the natural end of the question
		if s.state.QuestionEndAt.IsZero() {
			s.state.QuestionEndAt = now
		}
		s.state.AnswerRevealAt = now
		s.play(ctx, tts.Answer)
	case d.Next == AwaitingReveal:
		s.state.QuestionEndAt = now
		s.finished(ctx)
		s.state.Phase = AwaitingReveal
	case d.Next == AwaitingAdvance:
		s.finished(ctx)
		s.state.Phase = AwaitingAdvance
	}
}

// finished retires the active utterance after it played to the end.
func (s *Sequencer) finished(ctx context.Context) {
	s.active = nil
	if err := s.speaker.Finished(ctx, s.state.Generation); err != nil {
		s.log.Warn("finish report failed: generation=%d: %v", s.state.Generation, err)
	}
}

func (s *Sequencer) score(ctx context.Context, correct bool, now time.Time) {
	card := s.deck[s.state.Index]
	event := s.reviews.LogReview(ctx, review.Attempt{
		SessionID:      s.sessionID,
		FlashcardID:    card.ID,
		Correct:        correct,
		ReviewedAt:     now,
		QuestionEndAt:  s.state.QuestionEndAt,
		AnswerRevealAt: s.state.AnswerRevealAt,
	})
	s.lastReview = &event
	s.log.Info("flashcard %d scored correct=%t time_taken=%.2fs", card.ID, correct, event.TimeTakenSeconds)
}

func (s *Sequencer) advance(ctx context.Context) {
	s.clearTimestamps()
	if s.state.Index+1 < len(s.deck) {
		s.state.Index++
		s.play(ctx, tts.Question)
		return
	}
	s.cancel(ctx)
	s.state.Phase = Finished
	s.log.Info("session finished: session_id=%s", s.sessionID)
}

// play cancels whatever is active, bumps the generation and speaks one side
// of the current card.
func (s *Sequencer) play(ctx context.Context, part tts.Part) {
	s.cancel(ctx)
	s.state.Generation++

	card := s.deck[s.state.Index]
	text, phase := card.Question, PlayingQuestion
	if part == tts.Answer {
		text, phase = card.Answer, PlayingAnswer
	}

	u := tts.Utterance{
		Generation:  s.state.Generation,
		FlashcardID: card.ID,
		Part:        part,
		Text:        text,
		Rate:        s.voice.Rate,
		Pitch:       s.voice.Pitch,
	}
	s.state.Phase = phase
	s.active = &u
	if err := s.speaker.Speak(ctx, u); err != nil {
		// the phase stays put so a tap can still move the session on
		s.log.Warn("speak failed: generation=%d part=%s: %v", u.Generation, part, err)
	}
}

func (s *Sequencer) cancel(ctx context.Context) {
	s.active = nil
	if err := s.speaker.Cancel(ctx); err != nil {
		s.log.Warn("cancel failed: %v", err)
	}
}

func (s *Sequencer) clearTimestamps() {
	s.state.QuestionEndAt = time.Time{}
	s.state.AnswerRevealAt = time.Time{}
}

// Snapshot is the read model returned to callers after every event.
type Snapshot struct {
	SessionID      string              `json:"session_id,omitempty"`
	Phase          Phase               `json:"phase"`
	Index          int                 `json:"index"`
	DeckSize       int                 `json:"deck_size"`
	Policy         deck.Policy         `json:"policy"`
	Pending        bool                `json:"pending_deck_change"`
	Generation     uint64              `json:"generation"`
	Card           *models.Flashcard   `json:"card,omitempty"`
	Utterance      *tts.Utterance      `json:"utterance,omitempty"`
	QuestionEndAt  *time.Time          `json:"question_end_at,omitempty"`
	AnswerRevealAt *time.Time          `json:"answer_reveal_at,omitempty"`
	LastReview     *models.ReviewEvent `json:"last_review,omitempty"`
	DeckError      string              `json:"deck_error,omitempty"`
}

func (s *Sequencer) Snapshot() Snapshot {
	snap := Snapshot{
		SessionID:  s.sessionID,
		Phase:      s.state.Phase,
		Index:      s.state.Index,
		DeckSize:   len(s.deck),
		Policy:     s.policy,
		Pending:    s.pending,
		Generation: s.state.Generation,
		DeckError:  s.deckErr,
	}
	if (s.state.Phase.Active() || s.state.Phase == Paused) && s.state.Index < len(s.deck) {
		card := s.deck[s.state.Index]
		snap.Card = &card
	}
	if s.active != nil {
		u := *s.active
		snap.Utterance = &u
	}
	if !s.state.QuestionEndAt.IsZero() {
		t := s.state.QuestionEndAt
		snap.QuestionEndAt = &t
	}
	if !s.state.AnswerRevealAt.IsZero() {
		t := s.state.AnswerRevealAt
		snap.AnswerRevealAt = &t
	}
	if s.lastReview != nil {
		r := *s.lastReview
		snap.LastReview = &r
	}
	return snap
}
