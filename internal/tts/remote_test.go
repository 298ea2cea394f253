package tts_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/speakflash/internal/tts"
)

func TestRemote_SpeakAndCancel(t *testing.T) {
	r := tts.NewRemote()
	ctx := context.Background()

	_, ok := r.Current()
	assert.False(t, ok)

	u := tts.Utterance{Generation: 1, FlashcardID: 1, Part: tts.Question, Text: "2+2", Rate: 1, Pitch: 1}
	require.NoError(t, r.Speak(ctx, u))

	got, ok := r.Current()
	require.True(t, ok)
	assert.Equal(t, u, got)

	require.NoError(t, r.Cancel(ctx))
	_, ok = r.Current()
	assert.False(t, ok)
}

func TestRemote_Lookup(t *testing.T) {
	r := tts.NewRemote()
	require.NoError(t, r.Speak(context.Background(), tts.Utterance{Generation: 4, Text: "3+3"}))

	u, ok := r.Lookup(4)
	require.True(t, ok)
	assert.Equal(t, "3+3", u.Text)

	_, ok = r.Lookup(3)
	assert.False(t, ok, "superseded generation is not served")
}

func TestRemote_SubscribersReceiveCommandsInOrder(t *testing.T) {
	r := tts.NewRemote()
	ctx := context.Background()

	ch, unsubscribe := r.Subscribe(8)
	defer unsubscribe()

	require.NoError(t, r.Cancel(ctx))
	require.NoError(t, r.Speak(ctx, tts.Utterance{Generation: 1, Part: tts.Question}))
	require.NoError(t, r.Cancel(ctx))
	require.NoError(t, r.Speak(ctx, tts.Utterance{Generation: 2, Part: tts.Answer}))

	kinds := []tts.CommandKind{}
	var last tts.Command
	for i := 0; i < 4; i++ {
		last = <-ch
		kinds = append(kinds, last.Kind)
	}
	assert.Equal(t, []tts.CommandKind{tts.CommandCancel, tts.CommandSpeak, tts.CommandCancel, tts.CommandSpeak}, kinds)
	require.NotNil(t, last.Utterance)
	assert.Equal(t, uint64(2), last.Utterance.Generation)
}

func TestRemote_LateSubscriberGetsCurrentUtterance(t *testing.T) {
	r := tts.NewRemote()
	require.NoError(t, r.Speak(context.Background(), tts.Utterance{Generation: 7, Text: "hello"}))

	ch, unsubscribe := r.Subscribe(1)
	defer unsubscribe()

	cmd := <-ch
	assert.Equal(t, tts.CommandSpeak, cmd.Kind)
	assert.Equal(t, uint64(7), cmd.Utterance.Generation)
}

func TestRemote_SlowSubscriberDoesNotBlock(t *testing.T) {
	r := tts.NewRemote()
	ctx := context.Background()

	_, unsubscribe := r.Subscribe(1)
	defer unsubscribe()

	for i := 0; i < 10; i++ {
		require.NoError(t, r.Speak(ctx, tts.Utterance{Generation: uint64(i + 1)}))
	}
	u, ok := r.Current()
	require.True(t, ok)
	assert.Equal(t, uint64(10), u.Generation)
}

func TestRemote_Unsubscribe(t *testing.T) {
	r := tts.NewRemote()
	ch, unsubscribe := r.Subscribe(1)
	assert.Equal(t, 1, r.Subscribers())

	unsubscribe()
	unsubscribe()
	assert.Equal(t, 0, r.Subscribers())

	_, open := <-ch
	assert.False(t, open)
	require.NoError(t, r.Cancel(context.Background()))
}

func TestRemote_FinishedClearsOnlyMatchingGeneration(t *testing.T) {
	r := tts.NewRemote()
	ctx := context.Background()
	require.NoError(t, r.Speak(ctx, tts.Utterance{Generation: 2, Text: "2+2"}))

	require.NoError(t, r.Finished(ctx, 1))
	_, ok := r.Current()
	assert.True(t, ok, "an older generation does not retire the current one")

	require.NoError(t, r.Finished(ctx, 2))
	_, ok = r.Current()
	assert.False(t, ok)
	_, ok = r.Lookup(2)
	assert.False(t, ok)

	commands, unsubscribe := r.Subscribe(4)
	defer unsubscribe()
	assert.Empty(t, commands, "nothing is replayed after a natural end")
}
