package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/vytor/speakflash/internal/deck"
	"github.com/vytor/speakflash/internal/logger"
	"github.com/vytor/speakflash/internal/repository/sqlite"
	"github.com/vytor/speakflash/internal/review"
	"github.com/vytor/speakflash/internal/services"
	"github.com/vytor/speakflash/internal/session"
	"github.com/vytor/speakflash/internal/testutil"
	"github.com/vytor/speakflash/internal/tts"
	"github.com/vytor/speakflash/internal/worker"
)

type fakeAudio struct {
	dir   string
	texts []string
}

func (f *fakeAudio) AudioFile(_ context.Context, text string) (string, error) {
	f.texts = append(f.texts, text)
	path := filepath.Join(f.dir, "clip.mp3")
	return path, os.WriteFile(path, []byte("ID3fake"), 0o644)
}

type HandlersSuite struct {
	suite.Suite
	server  *Server
	handler http.Handler
	audio   *fakeAudio
	stop    context.CancelFunc
	pool    *worker.Pool
}

func (s *HandlersSuite) SetupTest() {
	database := testutil.NewTestDB(s.T())
	cards := sqlite.NewFlashcardRepository(database)
	reviews := sqlite.NewReviewRepository(database)

	s.pool = worker.NewPool(1, 8)
	ctx, cancel := context.WithCancel(context.Background())
	s.stop = cancel
	s.pool.Start(ctx)

	speaker := tts.NewRemote()
	seq := session.NewSequencer(speaker, review.NewLogger(reviews, s.pool), session.Options{Policy: deck.OldestFirst})
	ctrl := session.NewController(seq, cards)
	go ctrl.Run(ctx)

	s.audio = &fakeAudio{dir: s.T().TempDir()}
	s.server = &Server{
		Session:    ctrl,
		Flashcards: services.NewFlashcardService(cards),
		Reviews:    services.NewReviewService(reviews),
		Speaker:    speaker,
		Audio:      s.audio,
		DB:         database,
	}
	s.handler = s.server.Routes()

	s.T().Cleanup(func() {
		cancel()
		<-ctrl.Done()
		s.pool.Stop()
		testutil.MustClose(s.T(), database)
	})
}

func (s *HandlersSuite) do(method, path string, body string, contentType string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", contentType)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *HandlersSuite) snapshot(rec *httptest.ResponseRecorder) session.Snapshot {
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	var snap session.Snapshot
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &snap))
	return snap
}

func (s *HandlersSuite) errorCode(rec *httptest.ResponseRecorder) string {
	var body struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body.Error.Code
}

func (s *HandlersSuite) seed() {
	rec := s.do(http.MethodPost, "/flashcards", `{"question":"2+2","answer":"4"}`, "application/json")
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	form := url.Values{"question": {"3+3"}, "answer": {"6"}}
	rec = s.do(http.MethodPost, "/flashcards", form.Encode(), "application/x-www-form-urlencoded")
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())

	snap := s.snapshot(s.do(http.MethodPost, "/session/reload", "", ""))
	s.Require().Equal(2, snap.DeckSize)
}

func (s *HandlersSuite) TestHealth() {
	rec := s.do(http.MethodGet, "/healthz", "", "")
	s.Equal(http.StatusOK, rec.Code)
	s.Equal("nosniff", rec.Header().Get("X-Content-Type-Options"))
	s.NotEmpty(rec.Header().Get("X-Request-ID"))

	rec = s.do(http.MethodGet, "/readyz", "", "")
	s.Equal(http.StatusOK, rec.Code)
}

func (s *HandlersSuite) TestFullCycleLogsReview() {
	s.seed()

	snap := s.snapshot(s.do(http.MethodGet, "/session", "", ""))
	s.Equal(session.Idle, snap.Phase)

	snap = s.snapshot(s.do(http.MethodPost, "/session/start", "", ""))
	s.Equal(session.PlayingQuestion, snap.Phase)
	s.Require().NotNil(snap.Utterance)
	s.Equal("2+2", snap.Utterance.Text)

	snap = s.snapshot(s.do(http.MethodPost, "/session/speech/1/finished", "", ""))
	s.Equal(session.AwaitingReveal, snap.Phase)

	snap = s.snapshot(s.do(http.MethodPost, "/session/tap", "", ""))
	s.Equal(session.PlayingAnswer, snap.Phase)

	// the question's completion arriving late is ignored
	snap = s.snapshot(s.do(http.MethodPost, "/session/speech/1/finished", "", ""))
	s.Equal(session.PlayingAnswer, snap.Phase)

	snap = s.snapshot(s.do(http.MethodPost, "/session/tap", "", ""))
	s.Equal(1, snap.Index)
	s.Equal(session.PlayingQuestion, snap.Phase)

	s.Eventually(func() bool {
		rec := s.do(http.MethodGet, "/reviews?correct=true", "", "")
		var body struct {
			Reviews []struct {
				FlashcardID int64 `json:"flashcard_id"`
				Correct     bool  `json:"correct"`
			} `json:"reviews"`
		}
		if rec.Code != http.StatusOK || json.Unmarshal(rec.Body.Bytes(), &body) != nil {
			return false
		}
		return len(body.Reviews) == 1 && body.Reviews[0].FlashcardID == 1 && body.Reviews[0].Correct
	}, 2*time.Second, 10*time.Millisecond)
}

func (s *HandlersSuite) TestSetOrder() {
	s.seed()

	snap := s.snapshot(s.do(http.MethodPut, "/session/order", `{"policy":"newest"}`, "application/json"))
	s.Equal(deck.NewestFirst, snap.Policy)

	snap = s.snapshot(s.do(http.MethodPut, "/session/order", "policy=random", "application/x-www-form-urlencoded"))
	s.Equal(deck.Random, snap.Policy)

	rec := s.do(http.MethodPut, "/session/order", `{"policy":"alphabetical"}`, "application/json")
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("VALIDATION_ERROR", s.errorCode(rec))

	rec = s.do(http.MethodPut, "/session/order", `{"policy":`, "application/json")
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("BAD_REQUEST", s.errorCode(rec))
}

func (s *HandlersSuite) TestPauseResumeRestart() {
	s.seed()
	s.snapshot(s.do(http.MethodPost, "/session/start", "", ""))

	snap := s.snapshot(s.do(http.MethodPost, "/session/pause", "", ""))
	s.Equal(session.Paused, snap.Phase)

	snap = s.snapshot(s.do(http.MethodPost, "/session/resume", "", ""))
	s.Equal(session.PlayingQuestion, snap.Phase)

	snap = s.snapshot(s.do(http.MethodPost, "/session/restart", "", ""))
	s.Equal(session.Idle, snap.Phase)
}

func (s *HandlersSuite) TestSpeechFinishedInvalidGeneration() {
	rec := s.do(http.MethodPost, "/session/speech/abc/finished", "", "")
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("BAD_REQUEST", s.errorCode(rec))
}

func (s *HandlersSuite) TestSpeechAudio() {
	s.seed()
	snap := s.snapshot(s.do(http.MethodPost, "/session/start", "", ""))

	rec := s.do(http.MethodGet, "/session/speech/1/audio", "", "")
	s.Equal(http.StatusOK, rec.Code, rec.Body.String())
	s.Equal("audio/mpeg", rec.Header().Get("Content-Type"))
	s.Equal([]string{"2+2"}, s.audio.texts)
	s.Equal(uint64(1), snap.Generation)

	s.snapshot(s.do(http.MethodPost, "/session/tap", "", ""))
	rec = s.do(http.MethodGet, "/session/speech/1/audio", "", "")
	s.Equal(http.StatusNotFound, rec.Code)

	s.server.Audio = nil
	rec = s.do(http.MethodGet, "/session/speech/2/audio", "", "")
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *HandlersSuite) TestSpeechAudioGoneAfterNaturalEnd() {
	s.seed()
	s.snapshot(s.do(http.MethodPost, "/session/start", "", ""))
	s.snapshot(s.do(http.MethodPost, "/session/speech/1/finished", "", ""))

	rec := s.do(http.MethodGet, "/session/speech/1/audio", "", "")
	s.Equal(http.StatusNotFound, rec.Code)
	s.Empty(s.audio.texts)
}

func (s *HandlersSuite) TestListReviewsValidation() {
	for _, q := range []string{"limit=abc", "flashcard_id=-1", "correct=maybe", "since=yesterday", "offset=-1"} {
		rec := s.do(http.MethodGet, "/reviews?"+q, "", "")
		s.Equal(http.StatusBadRequest, rec.Code, q)
	}
}

func (s *HandlersSuite) TestCreateFlashcardValidation() {
	rec := s.do(http.MethodPost, "/flashcards", `{"question":"","answer":"4"}`, "application/json")
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("VALIDATION_ERROR", s.errorCode(rec))

	rec = s.do(http.MethodGet, "/flashcards", "", "")
	s.Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{"flashcards":[]}`, rec.Body.String())
}

func (s *HandlersSuite) TestStoppedControllerIsUnavailable() {
	s.stop()
	<-s.server.Session.Done()

	rec := s.do(http.MethodPost, "/session/tap", "", "")
	s.Equal(http.StatusServiceUnavailable, rec.Code)
	s.Equal("UNAVAILABLE", s.errorCode(rec))

	rec = s.do(http.MethodGet, "/readyz", "", "")
	s.Equal(http.StatusServiceUnavailable, rec.Code)
}

func TestHandlersSuite(t *testing.T) {
	suite.Run(t, new(HandlersSuite))
}

func TestSpeechEventsStream(t *testing.T) {
	speaker := tts.NewRemote()
	srv := &Server{Speaker: speaker}
	ts := httptest.NewServer(srv.Routes())
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/session/speech/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	require.Eventually(t, func() bool { return speaker.Subscribers() == 1 }, time.Second, 5*time.Millisecond)
	require.NoError(t, speaker.Speak(ctx, tts.Utterance{Generation: 4, Part: tts.Question, Text: "2+2"}))

	reader := bufio.NewReader(resp.Body)
	var event, data string
	for data == "" {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "event: "):
			event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		}
	}

	require.Equal(t, "speak", event)
	var cmd tts.Command
	require.NoError(t, json.Unmarshal([]byte(data), &cmd))
	require.NotNil(t, cmd.Utterance)
	require.Equal(t, uint64(4), cmd.Utterance.Generation)
	require.Equal(t, "2+2", cmd.Utterance.Text)
}

func TestSpeechEvents_LogsWhenWriteDeadlineCannotBeCleared(t *testing.T) {
	var buf bytes.Buffer
	prev := logger.Default()
	logger.SetDefault(logger.New(logger.WithOutput(&buf), logger.WithLevel(logger.DEBUG)))
	defer logger.SetDefault(prev)

	speaker := tts.NewRemote()
	srv := &Server{Speaker: speaker}

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/session/speech/events", nil).WithContext(ctx)
	// a recorder supports Flush but not deadlines
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		defer close(done)
		srv.Routes().ServeHTTP(rec, req)
	}()

	require.Eventually(t, func() bool { return speaker.Subscribers() == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done

	require.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	require.Contains(t, buf.String(), "cannot clear write deadline")
	require.Equal(t, 0, speaker.Subscribers())
}
