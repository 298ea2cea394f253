package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/vytor/speakflash/internal/deck"
	"github.com/vytor/speakflash/internal/logger"
	"github.com/vytor/speakflash/internal/models"
)

var ErrStopped = errors.New("session controller stopped")

// CardSource reads the full flashcard set. repository.FlashcardRepository satisfies it.
type CardSource interface {
	All(ctx context.Context) ([]models.Flashcard, error)
}

type event struct {
	name  string
	apply func(*Sequencer, context.Context)
	reply chan Snapshot
}

// Controller is the only entry point to a Sequencer. Taps, completion
// reports and controls are queued and applied one at a time in arrival
// order, so a tap and a completion that race are resolved by whichever
// reached the queue first.
type Controller struct {
	seq    *Sequencer
	cards  CardSource
	events chan event
	done   chan struct{}
	log    *logger.Logger

	// reloadMu keeps each store read paired with its install, so overlapping
	// reloads land in the order they read.
	reloadMu sync.Mutex
}

func NewController(seq *Sequencer, cards CardSource) *Controller {
	return &Controller{
		seq:    seq,
		cards:  cards,
		events: make(chan event, 64),
		done:   make(chan struct{}),
		log:    logger.Default().WithPrefix("controller"),
	}
}

// Run applies queued events until ctx is cancelled. Side effects of every
// event run with ctx, never with the caller's request context.
func (c *Controller) Run(ctx context.Context) {
	defer close(c.done)
	c.log.Info("session controller running")
	for {
		select {
		case <-ctx.Done():
			c.log.Info("session controller stopped")
			return
		case ev := <-c.events:
			c.log.Debug("applying %s", ev.name)
			ev.apply(c.seq, ctx)
			ev.reply <- c.seq.Snapshot()
		}
	}
}

// Done is closed once Run has returned.
func (c *Controller) Done() <-chan struct{} { return c.done }

// do enqueues fn and waits for its snapshot. If ctx ends after the event was
// queued the event is still applied; only the wait is abandoned.
func (c *Controller) do(ctx context.Context, name string, fn func(*Sequencer, context.Context)) (Snapshot, error) {
	ev := event{name: name, apply: fn, reply: make(chan Snapshot, 1)}

	select {
	case c.events <- ev:
	case <-c.done:
		return Snapshot{}, ErrStopped
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}

	select {
	case snap := <-ev.reply:
		return snap, nil
	case <-c.done:
		select {
		case snap := <-ev.reply:
			return snap, nil
		default:
			return Snapshot{}, ErrStopped
		}
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
}

func (c *Controller) Start(ctx context.Context) (Snapshot, error) {
	return c.do(ctx, "start", (*Sequencer).Start)
}

func (c *Controller) Restart(ctx context.Context) (Snapshot, error) {
	return c.do(ctx, "restart", (*Sequencer).Restart)
}

func (c *Controller) Pause(ctx context.Context) (Snapshot, error) {
	return c.do(ctx, "pause", (*Sequencer).Pause)
}

func (c *Controller) Resume(ctx context.Context) (Snapshot, error) {
	return c.do(ctx, "resume", (*Sequencer).Resume)
}

func (c *Controller) HandleTap(ctx context.Context) (Snapshot, error) {
	return c.do(ctx, "tap", (*Sequencer).Tap)
}

func (c *Controller) SetOrderPolicy(ctx context.Context, p deck.Policy) (Snapshot, error) {
	return c.do(ctx, "set-policy", func(s *Sequencer, _ context.Context) { s.SetPolicy(p) })
}

// SpeechFinished reports that the utterance with generation finished playing.
func (c *Controller) SpeechFinished(ctx context.Context, generation uint64) (Snapshot, error) {
	return c.do(ctx, "speech-finished", func(s *Sequencer, ctx context.Context) { s.SpeechFinished(ctx, generation) })
}

func (c *Controller) Snapshot(ctx context.Context) (Snapshot, error) {
	return c.do(ctx, "snapshot", func(*Sequencer, context.Context) {})
}

// Reload reads the flashcard store outside the queue and then installs the
// result. A read failure installs an empty deck and is returned. Concurrent
// reloads run one at a time.
func (c *Controller) Reload(ctx context.Context) (Snapshot, error) {
	c.reloadMu.Lock()
	defer c.reloadMu.Unlock()

	cards, loadErr := c.cards.All(ctx)
	if loadErr != nil {
		c.log.Error("failed to load flashcards: %v", loadErr)
	} else {
		c.log.Info("loaded %d flashcards", len(cards))
	}

	snap, err := c.do(ctx, "reload", func(s *Sequencer, _ context.Context) { s.SetSource(cards, loadErr) })
	if err != nil {
		return snap, err
	}
	if loadErr != nil {
		return snap, fmt.Errorf("load flashcards: %w", loadErr)
	}
	return snap, nil
}
