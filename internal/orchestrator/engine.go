// Package orchestrator runs the per-message pipeline: read emotion, route,
// generate, shape, commit memory.
package orchestrator

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/edgesoul/edgesoul/internal/empathy"
	"github.com/edgesoul/edgesoul/internal/emotion"
	"github.com/edgesoul/edgesoul/internal/intent"
	"github.com/edgesoul/edgesoul/internal/knowledge"
	"github.com/edgesoul/edgesoul/internal/memory"
	"github.com/edgesoul/edgesoul/internal/session"
	"github.com/edgesoul/edgesoul/internal/tone"
	"github.com/edgesoul/edgesoul/internal/types"
)

// ErrSessionBusy is the only pipeline error surfaced to clients; everything
// else degrades to a fallback response.
var ErrSessionBusy = session.ErrBusy

const (
	emptyInputReply = "I'm here and listening! What would you like to talk about?"
	timeoutReply    = "I'm taking a bit longer than usual to think about that one. Could you ask me again in a moment?"
	failureReply    = "I'm having trouble putting together a good answer right now, but I'm still here for you. Could you try rephrasing that?"

	persistTimeout = 10 * time.Second
)

// Request is one incoming user message. Context optionally carries extra
// caller-supplied grounding for knowledge answers.
type Request struct {
	UserID    string
	SessionID string
	Text      string
	Context   string
}

// Result is one completed exchange, ready for the transport layer.
type Result struct {
	ResponseText string
	Emotion      types.EmotionReading
	ResponseType types.ResponseType
	// Tone is the emotional register applied to the response.
	Tone          string
	Model         string
	KnowledgeUsed bool
	// GenerationTime covers the response-generation stage only;
	// ProcessingTime covers the whole pipeline.
	GenerationTime time.Duration
	ProcessingTime time.Duration
	Timestamp      time.Time
}

// Options control pipeline timing and contention behavior.
type Options struct {
	// MessageTimeout bounds the whole pipeline for one message.
	MessageTimeout time.Duration
	// QueueSessions makes concurrent messages on one session wait in order
	// instead of being rejected with ErrSessionBusy.
	QueueSessions bool
}

// Engine wires the pipeline stages together. One Engine serves all sessions.
type Engine struct {
	reader    *emotion.Reader
	router    *intent.Router
	responder *knowledge.Responder
	empathy   *empathy.Generator
	shaper    *tone.Shaper
	mem       *memory.Service
	locker    *session.Locker
	opts      Options
}

// NewEngine builds the orchestration pipeline.
func NewEngine(reader *emotion.Reader, router *intent.Router, responder *knowledge.Responder, generator *empathy.Generator, shaper *tone.Shaper, mem *memory.Service, opts Options) *Engine {
	if opts.MessageTimeout <= 0 {
		opts.MessageTimeout = 45 * time.Second
	}
	return &Engine{
		reader:    reader,
		router:    router,
		responder: responder,
		empathy:   generator,
		shaper:    shaper,
		mem:       mem,
		locker:    session.NewLocker(),
		opts:      opts,
	}
}

// Handle processes one user message end to end. Messages within a session
// are strictly serialized; a second message either waits or gets
// ErrSessionBusy depending on Options.QueueSessions.
func (e *Engine) Handle(ctx context.Context, req Request) (Result, error) {
	start := time.Now()

	text := strings.TrimSpace(req.Text)
	if text == "" {
		return Result{
			ResponseText:   emptyInputReply,
			Emotion:        types.NeutralReading(100),
			ResponseType:   types.ResponseEmotionalSupport,
			Tone:           string(types.EmotionNeutral),
			Model:          "none",
			ProcessingTime: time.Since(start),
			Timestamp:      time.Now(),
		}, nil
	}

	release, err := e.acquire(ctx, windowKey(req.UserID, req.SessionID))
	if err != nil {
		return Result{}, err
	}
	defer release()

	ctx, cancel := context.WithTimeout(ctx, e.opts.MessageTimeout)
	defer cancel()

	window := e.mem.Window(ctx, req.UserID, req.SessionID)
	reading := e.reader.Read(ctx, text, window)
	route := e.router.Classify(text, reading)

	profile, err := e.mem.GetProfile(ctx, req.UserID)
	if err != nil {
		slog.Warn("failed to load profile, using defaults", "error", err.Error(), "user_id", req.UserID)
		profile = types.DefaultProfile(req.UserID)
	}

	genStart := time.Now()
	candidate, model, knowledgeUsed := e.generate(ctx, req, text, reading, route, profile)
	genTime := time.Since(genStart)
	response := e.shaper.Shape(candidate, reading, profile)

	turn := types.ConversationTurn{
		ID:           uuid.NewString(),
		UserText:     text,
		Emotion:      reading,
		ResponseText: response,
		ResponseType: route,
		Timestamp:    time.Now(),
	}
	e.commit(ctx, req.UserID, req.SessionID, text, reading, turn)

	return Result{
		ResponseText:   response,
		Emotion:        reading,
		ResponseType:   route,
		Tone:           string(reading.Primary),
		Model:          model,
		KnowledgeUsed:  knowledgeUsed,
		GenerationTime: genTime,
		ProcessingTime: time.Since(start),
		Timestamp:      turn.Timestamp,
	}, nil
}

func (e *Engine) acquire(ctx context.Context, key string) (func(), error) {
	if e.opts.QueueSessions {
		release, err := e.locker.Acquire(ctx, key)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
				return nil, ErrSessionBusy
			}
			return nil, err
		}
		return release, nil
	}
	return e.locker.TryAcquire(key)
}

// generate produces the candidate answer for the chosen route. Generation
// failures never propagate; they degrade to fallback text.
func (e *Engine) generate(ctx context.Context, req Request, text string, reading types.EmotionReading, route types.ResponseType, profile types.UserProfile) (candidate, model string, knowledgeUsed bool) {
	if route == types.ResponseEmotionalSupport {
		return e.empathy.Generate(reading), "empathy_templates", false
	}

	if !e.responder.Available() {
		slog.Warn("no generation engine configured, answering with fallback")
		return failureReply, "none", false
	}

	topics := e.mem.RecentTopics(req.UserID)
	memories := e.memoryContext(ctx, req.UserID, text)
	if extra := strings.TrimSpace(req.Context); extra != "" {
		memories = append(memories, extra)
	}

	answer, err := e.responder.Respond(ctx, text, reading, profile, topics, memories)
	if err != nil {
		if errors.Is(err, knowledge.ErrTimeout) {
			slog.Warn("knowledge generation timed out", "user_id", req.UserID)
			return timeoutReply, "fallback", false
		}
		slog.Error("knowledge generation failed", "error", err.Error(), "user_id", req.UserID)
		return failureReply, "fallback", false
	}

	if route == types.ResponseHybrid {
		if intro := tone.EmotionIntro(reading.Primary); intro != "" {
			answer = intro + " " + answer
		}
	}
	return answer, e.responder.ModelName(), true
}

// memoryContext pulls a few relevant memories for the prompt, best-effort.
func (e *Engine) memoryContext(ctx context.Context, userID, query string) []string {
	hits, err := e.mem.SearchMemories(ctx, userID, query, "", 3)
	if err != nil {
		slog.Warn("memory search failed", "error", err.Error(), "user_id", userID)
		return nil
	}
	lines := make([]string, 0, len(hits))
	for _, hit := range hits {
		lines = append(lines, hit.Record.Content)
	}
	return lines
}

// commit updates memory for the completed turn. Window and pattern state
// mutate synchronously so the next message in the session observes them;
// database persistence runs detached and is best-effort.
func (e *Engine) commit(ctx context.Context, userID, sessionID, text string, reading types.EmotionReading, turn types.ConversationTurn) {
	e.mem.AppendTurn(userID, sessionID, turn)
	e.mem.TrackEmotion(ctx, userID, reading, text)

	if _, err := e.mem.LearnPreference(ctx, userID, text); err != nil {
		slog.Warn("preference learning failed", "error", err.Error(), "user_id", userID)
	}

	go func() {
		persistCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
		defer cancel()
		if err := e.mem.PersistTurn(persistCtx, userID, sessionID, turn); err != nil {
			slog.Warn("turn persistence failed", "error", err.Error(), "user_id", userID)
		}
		e.mem.RecordMessage(persistCtx, userID)
	}()
}

func windowKey(userID, sessionID string) string {
	return userID + "|" + sessionID
}
