package tts

import (
	"context"
	"sync"

	"github.com/vytor/speakflash/internal/logger"
)

// Remote is a speaker whose audio output lives in connected clients. Speak
// and Cancel never block: commands go out on per-subscriber buffers and a
// subscriber that falls behind misses commands rather than stalling playback.
type Remote struct {
	mu      sync.Mutex
	current *Utterance
	subs    map[int]chan Command
	nextID  int
	log     *logger.Logger
}

func NewRemote() *Remote {
	return &Remote{
		subs: make(map[int]chan Command),
		log:  logger.Default().WithPrefix("tts"),
	}
}

func (r *Remote) Speak(_ context.Context, u Utterance) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.current = &u
	r.log.Debug("speak generation=%d part=%s flashcard_id=%d", u.Generation, u.Part, u.FlashcardID)
	r.broadcast(Command{Kind: CommandSpeak, Utterance: &u})
	return nil
}

func (r *Remote) Cancel(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.current = nil
	r.broadcast(Command{Kind: CommandCancel})
	return nil
}

// Finished marks the utterance with generation as played to the end. Clients
// already heard it, so nothing is broadcast; late joiners just get no replay.
// Any other generation is ignored.
func (r *Remote) Finished(_ context.Context, generation uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.current != nil && r.current.Generation == generation {
		r.current = nil
		r.log.Debug("finished generation=%d", generation)
	}
	return nil
}

// Current returns the utterance that is logically playing, if any.
func (r *Remote) Current() (Utterance, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current == nil {
		return Utterance{}, false
	}
	return *r.current, true
}

// Lookup returns the current utterance only if it carries generation.
func (r *Remote) Lookup(generation uint64) (Utterance, bool) {
	u, ok := r.Current()
	if !ok || u.Generation != generation {
		return Utterance{}, false
	}
	return u, true
}

// Subscribe registers a listener. A late joiner first receives the current
// utterance, if any. The returned func unsubscribes and closes the channel.
func (r *Remote) Subscribe(buffer int) (<-chan Command, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Command, buffer)

	r.mu.Lock()
	id := r.nextID
	r.nextID++
	r.subs[id] = ch
	if r.current != nil {
		u := *r.current
		ch <- Command{Kind: CommandSpeak, Utterance: &u}
	}
	r.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			r.mu.Lock()
			delete(r.subs, id)
			close(ch)
			r.mu.Unlock()
		})
	}
}

// Subscribers reports how many listeners are attached.
func (r *Remote) Subscribers() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.subs)
}

// broadcast must be called with r.mu held.
func (r *Remote) broadcast(cmd Command) {
	for id, ch := range r.subs {
		select {
		case ch <- cmd:
		default:
			r.log.Warn("subscriber %d is behind, dropped %s command", id, cmd.Kind)
		}
	}
}
