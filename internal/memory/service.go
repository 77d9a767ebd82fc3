package memory

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/edgesoul/edgesoul/internal/types"
)

const (
	maxTriggers = 10
	maxTopics   = 15
	topicsShown = 5
	dialStep    = 20
)

// Service is the memory layer: profiles, conversation windows, emotional
// patterns and long-term records. Window and pattern state is held in memory
// as the source of truth; database writes are best-effort persistence.
type Service struct {
	profiles ProfileRepo
	patterns PatternRepo
	records  RecordRepo
	turns    TurnRepo
	embedder Embedder

	windowSize          int
	searchLimit         int
	similarityThreshold float64

	mu             sync.Mutex
	windows        map[string]*types.ConversationWindow
	tracked        map[string]map[types.Emotion]*types.EmotionalPattern
	patternsLoaded map[string]bool
	topics         map[string][]string
	hydrated       map[string]bool
	profileLocks   map[string]*sync.Mutex
}

// Options bounds the service. Zero values fall back to sane defaults.
type Options struct {
	WindowSize          int
	SearchLimit         int
	SimilarityThreshold float64
}

// NewService builds the memory layer. embedder may be nil, which disables
// vector search and leaves text search in place.
func NewService(profiles ProfileRepo, patterns PatternRepo, records RecordRepo, turns TurnRepo, embedder Embedder, opts Options) *Service {
	if opts.WindowSize <= 0 {
		opts.WindowSize = 10
	}
	if opts.SearchLimit <= 0 {
		opts.SearchLimit = 5
	}
	if opts.SimilarityThreshold <= 0 {
		opts.SimilarityThreshold = 0.7
	}
	return &Service{
		profiles:            profiles,
		patterns:            patterns,
		records:             records,
		turns:               turns,
		embedder:            embedder,
		windowSize:          opts.WindowSize,
		searchLimit:         opts.SearchLimit,
		similarityThreshold: opts.SimilarityThreshold,
		windows:             map[string]*types.ConversationWindow{},
		tracked:             map[string]map[types.Emotion]*types.EmotionalPattern{},
		patternsLoaded:      map[string]bool{},
		topics:              map[string][]string{},
		hydrated:            map[string]bool{},
		profileLocks:        map[string]*sync.Mutex{},
	}
}

func windowKey(userID, sessionID string) string {
	return userID + "|" + sessionID
}

// profileLock returns the lock serializing profile writes for one user.
// Profile updates are read-modify-write rows; sessions of the same user can
// run concurrently, so each write must hold this lock from load to save.
func (s *Service) profileLock(userID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.profileLocks[userID]
	if !ok {
		lock = &sync.Mutex{}
		s.profileLocks[userID] = lock
	}
	return lock
}

// GetProfile returns the user's profile, creating the default on first
// contact.
func (s *Service) GetProfile(ctx context.Context, userID string) (types.UserProfile, error) {
	lock := s.profileLock(userID)
	lock.Lock()
	defer lock.Unlock()
	return s.loadOrCreateProfile(ctx, userID)
}

func (s *Service) loadOrCreateProfile(ctx context.Context, userID string) (types.UserProfile, error) {
	profile, found, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return types.UserProfile{}, fmt.Errorf("failed to load profile: %w", err)
	}
	if found {
		return profile, nil
	}

	profile = types.DefaultProfile(userID)
	profile.CreatedAt = time.Now()
	profile.UpdatedAt = profile.CreatedAt
	if err := s.profiles.Save(ctx, profile); err != nil {
		return types.UserProfile{}, fmt.Errorf("failed to create profile: %w", err)
	}
	slog.Info("created profile", "user_id", userID)
	return profile, nil
}

// ProfileUpdate is a partial profile change. Nil fields are left untouched.
type ProfileUpdate struct {
	Gender             *string
	EmpathyLevel       *int
	HumorLevel         *int
	FormalityLevel     *int
	VerbosityLevel     *int
	ProactivenessLevel *int
}

// UpdateProfile applies a partial update, clamping every dial to 0-100.
func (s *Service) UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) (types.UserProfile, error) {
	return s.mutateProfile(ctx, userID, func(profile *types.UserProfile) {
		if update.Gender != nil {
			profile.Gender = types.ParseGender(*update.Gender)
		}
		if update.EmpathyLevel != nil {
			profile.EmpathyLevel = types.ClampLevel(*update.EmpathyLevel)
		}
		if update.HumorLevel != nil {
			profile.HumorLevel = types.ClampLevel(*update.HumorLevel)
		}
		if update.FormalityLevel != nil {
			profile.FormalityLevel = types.ClampLevel(*update.FormalityLevel)
		}
		if update.VerbosityLevel != nil {
			profile.VerbosityLevel = types.ClampLevel(*update.VerbosityLevel)
		}
		if update.ProactivenessLevel != nil {
			profile.ProactivenessLevel = types.ClampLevel(*update.ProactivenessLevel)
		}
	})
}

// mutateProfile runs one read-modify-write cycle on the profile under the
// user's lock, so concurrent sessions never lose each other's writes.
func (s *Service) mutateProfile(ctx context.Context, userID string, mutate func(*types.UserProfile)) (types.UserProfile, error) {
	lock := s.profileLock(userID)
	lock.Lock()
	defer lock.Unlock()

	profile, err := s.loadOrCreateProfile(ctx, userID)
	if err != nil {
		return types.UserProfile{}, err
	}
	mutate(&profile)
	profile.UpdatedAt = time.Now()
	if err := s.profiles.Save(ctx, profile); err != nil {
		return types.UserProfile{}, fmt.Errorf("failed to save profile: %w", err)
	}
	return profile, nil
}

// Window returns the session's conversation window, hydrating it from
// persisted turns on first access.
func (s *Service) Window(ctx context.Context, userID, sessionID string) *types.ConversationWindow {
	key := windowKey(userID, sessionID)

	s.mu.Lock()
	window, ok := s.windows[key]
	if !ok {
		window = types.NewConversationWindow(s.windowSize)
		s.windows[key] = window
	}
	needHydrate := !s.hydrated[key]
	s.hydrated[key] = true
	s.mu.Unlock()

	if needHydrate && s.turns != nil {
		turns, err := s.turns.Recent(ctx, userID, sessionID, s.windowSize)
		if err != nil {
			slog.Warn("failed to hydrate conversation window", "error", err.Error(), "user_id", userID)
			return window
		}
		s.mu.Lock()
		if window.Len() == 0 {
			for _, turn := range turns {
				window.Append(turn)
			}
		}
		s.mu.Unlock()
	}
	return window
}

// AppendTurn records a completed exchange in the in-memory window and the
// topic list. Must be called before the session lock is released so the next
// message observes this turn.
func (s *Service) AppendTurn(userID, sessionID string, turn types.ConversationTurn) {
	key := windowKey(userID, sessionID)

	s.mu.Lock()
	defer s.mu.Unlock()

	window, ok := s.windows[key]
	if !ok {
		window = types.NewConversationWindow(s.windowSize)
		s.windows[key] = window
		s.hydrated[key] = true
	}
	window.Append(turn)

	seen := map[string]struct{}{}
	for _, t := range s.topics[userID] {
		seen[t] = struct{}{}
	}
	for _, topic := range extractKeywords(turn.UserText, topicsShown) {
		if _, dup := seen[topic]; dup {
			continue
		}
		s.topics[userID] = append(s.topics[userID], topic)
	}
	if n := len(s.topics[userID]); n > maxTopics {
		s.topics[userID] = s.topics[userID][n-maxTopics:]
	}
}

// PersistTurn writes the turn to storage. Failures are reported to the
// caller, which logs them; they never surface to the user.
func (s *Service) PersistTurn(ctx context.Context, userID, sessionID string, turn types.ConversationTurn) error {
	if s.turns == nil {
		return nil
	}
	if err := s.turns.Add(ctx, userID, sessionID, turn); err != nil {
		return fmt.Errorf("failed to persist turn: %w", err)
	}
	return nil
}

// RecentTopics returns the most recently discussed topics, oldest first.
func (s *Service) RecentTopics(userID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	topics := s.topics[userID]
	if len(topics) > topicsShown {
		topics = topics[len(topics)-topicsShown:]
	}
	out := make([]string, len(topics))
	copy(out, topics)
	return out
}

// patternsFor returns the user's in-memory pattern map, hydrating it from
// storage on first access. Without hydration a restarted process would start
// every frequency back at one and overwrite the persisted aggregates.
func (s *Service) patternsFor(ctx context.Context, userID string) map[types.Emotion]*types.EmotionalPattern {
	s.mu.Lock()
	byEmotion, ok := s.tracked[userID]
	if !ok {
		byEmotion = map[types.Emotion]*types.EmotionalPattern{}
		s.tracked[userID] = byEmotion
	}
	needHydrate := !s.patternsLoaded[userID]
	s.patternsLoaded[userID] = true
	s.mu.Unlock()

	if needHydrate && s.patterns != nil {
		stored, err := s.patterns.List(ctx, userID)
		if err != nil {
			slog.Warn("failed to hydrate emotional patterns", "error", err.Error(), "user_id", userID)
			s.mu.Lock()
			s.patternsLoaded[userID] = false
			s.mu.Unlock()
			return byEmotion
		}
		s.mu.Lock()
		for _, p := range stored {
			if _, tracked := byEmotion[p.Emotion]; tracked {
				continue
			}
			if p.TimePatterns == nil {
				p.TimePatterns = map[string]int{}
			}
			loaded := p
			byEmotion[p.Emotion] = &loaded
		}
		s.mu.Unlock()
	}
	return byEmotion
}

// TrackEmotion folds one reading into the user's longitudinal pattern for
// that emotion. Frequency only grows; intensity is a running average.
func (s *Service) TrackEmotion(ctx context.Context, userID string, reading types.EmotionReading, messageText string) types.EmotionalPattern {
	byEmotion := s.patternsFor(ctx, userID)

	s.mu.Lock()
	pattern, ok := byEmotion[reading.Primary]
	if !ok {
		pattern = &types.EmotionalPattern{
			UserID:       userID,
			Emotion:      reading.Primary,
			TimePatterns: map[string]int{},
		}
		byEmotion[reading.Primary] = pattern
	}

	pattern.Frequency++
	pattern.AvgIntensity = (pattern.AvgIntensity*float64(pattern.Frequency-1) + reading.Confidence) / float64(pattern.Frequency)

	for _, keyword := range extractKeywords(messageText, topicsShown) {
		if len(pattern.Triggers) >= maxTriggers {
			break
		}
		if !contains(pattern.Triggers, keyword) {
			pattern.Triggers = append(pattern.Triggers, keyword)
		}
	}

	now := time.Now()
	slot := fmt.Sprintf("%02d:00", now.Hour())
	pattern.TimePatterns[slot]++
	pattern.LastOccurrence = now

	snapshot := *pattern
	s.mu.Unlock()

	if s.patterns != nil {
		if err := s.patterns.Upsert(ctx, snapshot); err != nil {
			slog.Warn("failed to persist emotional pattern", "error", err.Error(), "user_id", userID)
		}
	}
	return snapshot
}

// Patterns returns the user's tracked emotional patterns, hydrated from
// storage on first access for users not yet seen this run.
func (s *Service) Patterns(ctx context.Context, userID string) ([]types.EmotionalPattern, error) {
	byEmotion := s.patternsFor(ctx, userID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(byEmotion) == 0 {
		return nil, nil
	}
	out := make([]types.EmotionalPattern, 0, len(byEmotion))
	for _, p := range byEmotion {
		out = append(out, *p)
	}
	return out, nil
}

// EmotionSummary aggregates tracked patterns into a distribution, dominant
// emotion and mood trend. Returns false when nothing is tracked yet.
func (s *Service) EmotionSummary(ctx context.Context, userID string) (types.EmotionSummary, bool, error) {
	patterns, err := s.Patterns(ctx, userID)
	if err != nil {
		return types.EmotionSummary{}, false, err
	}
	if len(patterns) == 0 {
		return types.EmotionSummary{}, false, nil
	}

	total := 0
	for _, p := range patterns {
		total += p.Frequency
	}
	if total == 0 {
		return types.EmotionSummary{}, false, nil
	}

	distribution := map[types.Emotion]float64{}
	dominant := patterns[0].Emotion
	best := -1.0
	positive, negative := 0.0, 0.0
	for _, p := range patterns {
		share := float64(p.Frequency) / float64(total) * 100
		distribution[p.Emotion] = share
		if share > best {
			best = share
			dominant = p.Emotion
		}
		if p.Emotion.IsPositive() {
			positive += share
		}
		if p.Emotion.IsNegative() {
			negative += share
		}
	}

	trend := "stable"
	if positive > negative*1.5 {
		trend = "improving"
	} else if negative > positive*1.5 {
		trend = "declining"
	}

	return types.EmotionSummary{
		UserID:       userID,
		Dominant:     dominant,
		Distribution: distribution,
		MoodTrend:    trend,
		TotalTracked: total,
	}, true, nil
}

// Remember stores a long-term record, embedding it when an embedder is
// configured.
func (s *Service) Remember(ctx context.Context, record types.MemoryRecord) error {
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}
	var embedding []float32
	if s.embedder != nil {
		vec, err := s.embedder.EmbedDocument(ctx, record.Content)
		if err != nil {
			slog.Warn("failed to embed memory, storing without vector", "error", err.Error())
		} else {
			embedding = vec
		}
	}
	if err := s.records.Add(ctx, record, embedding); err != nil {
		return fmt.Errorf("failed to store memory: %w", err)
	}
	return nil
}

// SearchMemories retrieves relevant records. With an embedder the search is
// vector similarity; otherwise text match ranked by importance and recency.
// Retrieved records get their access counters bumped.
func (s *Service) SearchMemories(ctx context.Context, userID, query string, memType types.MemoryType, limit int) ([]types.ScoredMemory, error) {
	if limit <= 0 {
		limit = s.searchLimit
	}

	var results []types.ScoredMemory
	if s.embedder != nil {
		embedding, err := s.embedder.EmbedQuery(ctx, query)
		if err != nil {
			slog.Warn("failed to embed query, falling back to text search", "error", err.Error())
		} else {
			results, err = s.records.SearchSimilar(ctx, userID, embedding, memType, limit, s.similarityThreshold)
			if err != nil {
				return nil, err
			}
		}
	}

	if results == nil {
		records, err := s.records.SearchText(ctx, userID, query, memType, limit)
		if err != nil {
			return nil, err
		}
		now := time.Now()
		for _, record := range records {
			results = append(results, types.ScoredMemory{
				Record: record,
				Score:  record.Importance * recencyDecay(now.Sub(record.CreatedAt)),
			})
		}
	}

	if len(results) > 0 {
		ids := make([]string, 0, len(results))
		for _, hit := range results {
			ids = append(ids, hit.Record.ID)
		}
		if err := s.records.TouchAccess(ctx, ids); err != nil {
			slog.Warn("failed to update memory access counters", "error", err.Error())
		}
	}
	return results, nil
}

// recencyDecay halves a memory's weight every 30 days.
func recencyDecay(age time.Duration) float64 {
	days := age.Hours() / 24
	if days < 0 {
		days = 0
	}
	return math.Pow(0.5, days/30)
}

type preferenceRule struct {
	pattern *regexp.Regexp
	kind    string
	action  string
}

// Rule order matters: specific phrasings must win over the broad interest
// catch-all.
var preferenceRules = []preferenceRule{
	{regexp.MustCompile(`keep it (brief|short|concise)`), "verbosity", "low"},
	{regexp.MustCompile(`give me more (details|information)`), "verbosity", "high"},
	{regexp.MustCompile(`i (like|prefer|enjoy) (detailed|long) (answers|responses|explanations)`), "verbosity", "high"},
	{regexp.MustCompile(`i (like|prefer|enjoy) (brief|short) (answers|responses|explanations)`), "verbosity", "low"},
	{regexp.MustCompile(`be more (formal|professional)`), "formality", "high"},
	{regexp.MustCompile(`you can be (casual|informal)`), "formality", "low"},
	{regexp.MustCompile(`don'?t be so (formal|serious)`), "formality", "low"},
	{regexp.MustCompile(`i (love|like|enjoy) (jokes|humor|funny)`), "humor", "high"},
	{regexp.MustCompile(`(less|fewer) jokes`), "humor", "low"},
	{regexp.MustCompile(`i'?m interested in (.+)`), "interest", "extract"},
	{regexp.MustCompile(`i don'?t like (.+)`), "dislike", "extract"},
	{regexp.MustCompile(`i (love|like|enjoy) (.+)`), "interest", "extract"},
}

// LearnPreference scans a message for preference statements. A match nudges
// the relevant profile dial and stores a preference record. Returns whether
// anything was learned.
func (s *Service) LearnPreference(ctx context.Context, userID, message string) (bool, error) {
	lower := strings.ToLower(strings.TrimSpace(message))

	for _, rule := range preferenceRules {
		match := rule.pattern.FindStringSubmatch(lower)
		if match == nil {
			continue
		}

		content := fmt.Sprintf("User prefers %s: %s", rule.kind, rule.action)
		if rule.action == "extract" && len(match) > 1 {
			extracted := strings.TrimSpace(match[len(match)-1])
			content = fmt.Sprintf("User %s: %s", rule.kind, extracted)
			if err := s.applyInterest(ctx, userID, rule.kind, extracted); err != nil {
				return false, err
			}
		} else {
			if err := s.applyDialNudge(ctx, userID, rule.kind, rule.action); err != nil {
				return false, err
			}
		}

		record := types.MemoryRecord{
			UserID:     userID,
			Type:       types.MemoryPreference,
			Content:    content,
			Context:    message,
			Confidence: 0.8,
			Importance: 0.7,
		}
		if err := s.Remember(ctx, record); err != nil {
			slog.Warn("failed to store preference memory", "error", err.Error(), "user_id", userID)
		}
		slog.Info("learned preference", "user_id", userID, "kind", rule.kind)
		return true, nil
	}
	return false, nil
}

func (s *Service) applyDialNudge(ctx context.Context, userID, kind, action string) error {
	step := dialStep
	if action == "low" {
		step = -dialStep
	}

	_, err := s.mutateProfile(ctx, userID, func(profile *types.UserProfile) {
		switch kind {
		case "verbosity":
			profile.VerbosityLevel = types.ClampLevel(profile.VerbosityLevel + step)
		case "formality":
			profile.FormalityLevel = types.ClampLevel(profile.FormalityLevel + step)
		case "humor":
			profile.HumorLevel = types.ClampLevel(profile.HumorLevel + step)
		}
	})
	return err
}

func (s *Service) applyInterest(ctx context.Context, userID, kind, value string) error {
	_, err := s.mutateProfile(ctx, userID, func(profile *types.UserProfile) {
		if profile.Preferences == nil {
			profile.Preferences = map[string]string{}
		}
		profile.Preferences[value] = kind
	})
	return err
}

// RecordMessage bumps the user's message counter, best-effort.
func (s *Service) RecordMessage(ctx context.Context, userID string) {
	_, err := s.mutateProfile(ctx, userID, func(profile *types.UserProfile) {
		profile.TotalMessages++
	})
	if err != nil {
		slog.Warn("failed to update message count", "error", err.Error(), "user_id", userID)
	}
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
