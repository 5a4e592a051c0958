package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"tastetrail/internal/analysis"
	"tastetrail/internal/model"
	"tastetrail/internal/questions"
)

const (
	specificDraft = "I remember the scene where she reads the letter by the window, because the lighting made her face look carved from wax."
	vagueDraft    = "The acting was good and I thought the movie was pretty decent overall."
)

// fakeMovieRepo implements repository.MovieRepo in memory.
type fakeMovieRepo struct {
	mu       sync.Mutex
	movies   map[string]*model.Movie
	order    []string
	analyzed map[string]time.Time
	seq      int
}

func newFakeMovieRepo() *fakeMovieRepo {
	return &fakeMovieRepo{
		movies:   make(map[string]*model.Movie),
		analyzed: make(map[string]time.Time),
	}
}

func (f *fakeMovieRepo) Create(ctx context.Context, movie *model.Movie) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	id := fmt.Sprintf("m%d", f.seq)
	cp := *movie
	cp.ID = id
	f.movies[id] = &cp
	f.order = append(f.order, id)
	return id, nil
}

func (f *fakeMovieRepo) GetByID(ctx context.Context, id string) (*model.Movie, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.movies[id]
	if !ok {
		return nil, nil
	}
	cp := *m
	return &cp, nil
}

func (f *fakeMovieRepo) List(ctx context.Context) ([]*model.Movie, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*model.Movie, 0, len(f.order))
	for _, id := range f.order {
		cp := *f.movies[id]
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeMovieRepo) Update(ctx context.Context, movie *model.Movie) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *movie
	f.movies[movie.ID] = &cp
	return nil
}

func (f *fakeMovieRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.movies, id)
	for i, mid := range f.order {
		if mid == id {
			f.order = append(f.order[:i], f.order[i+1:]...)
			break
		}
	}
	return nil
}

func (f *fakeMovieRepo) Count(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.movies)), nil
}

func (f *fakeMovieRepo) SetLastAnalyzed(ctx context.Context, id string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.analyzed[id] = at
	return nil
}

func (f *fakeMovieRepo) lastAnalyzed(id string) (time.Time, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	at, ok := f.analyzed[id]
	return at, ok
}

// fakeSessionRepo implements repository.SessionRepo in memory. It stores
// copies so mutations only land through Update, like the real thing.
type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*model.Session
	seq      int
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[string]*model.Session)}
}

func (f *fakeSessionRepo) Create(ctx context.Context, session *model.Session) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	id := fmt.Sprintf("s%d", f.seq)
	cp := *session
	cp.ID = id
	f.sessions[id] = &cp
	return id, nil
}

func (f *fakeSessionRepo) GetByID(ctx context.Context, id string) (*model.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (f *fakeSessionRepo) List(ctx context.Context) ([]*model.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*model.Session, 0, len(f.sessions))
	for _, s := range f.sessions {
		cp := *s
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeSessionRepo) Update(ctx context.Context, session *model.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *session
	f.sessions[session.ID] = &cp
	return nil
}

func (f *fakeSessionRepo) CountByStatus(ctx context.Context, status model.SessionStatus) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, s := range f.sessions {
		if s.Status == status {
			n++
		}
	}
	return n, nil
}

// fakeResponseRepo implements repository.ResponseRepo in memory.
type fakeResponseRepo struct {
	mu        sync.Mutex
	responses []*model.Response
	seq       int
}

func newFakeResponseRepo() *fakeResponseRepo {
	return &fakeResponseRepo{}
}

func (f *fakeResponseRepo) Create(ctx context.Context, response *model.Response) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	id := fmt.Sprintf("r%d", f.seq)
	cp := *response
	cp.ID = id
	f.responses = append(f.responses, &cp)
	return id, nil
}

func (f *fakeResponseRepo) GetByID(ctx context.Context, id string) (*model.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.responses {
		if r.ID == id {
			cp := *r
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeResponseRepo) ListAll(ctx context.Context) ([]*model.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*model.Response, 0, len(f.responses))
	for _, r := range f.responses {
		cp := *r
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeResponseRepo) ListBySession(ctx context.Context, sessionID string) ([]*model.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.Response
	for _, r := range f.responses {
		if r.SessionID == sessionID {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeResponseRepo) DeleteByMovie(ctx context.Context, movieID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.responses[:0]
	for _, r := range f.responses {
		if r.MovieID != movieID {
			kept = append(kept, r)
		}
	}
	f.responses = kept
	return nil
}

func (f *fakeResponseRepo) AverageSpecificity(ctx context.Context) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.responses) == 0 {
		return 0, nil
	}
	var sum float64
	for _, r := range f.responses {
		sum += r.SpecificityScore
	}
	return sum / float64(len(f.responses)), nil
}

// fakeAttemptCache implements cache.AttemptCache in memory.
type fakeAttemptCache struct {
	mu     sync.Mutex
	states map[string]*model.AttemptState
}

func newFakeAttemptCache() *fakeAttemptCache {
	return &fakeAttemptCache{states: make(map[string]*model.AttemptState)}
}

func (f *fakeAttemptCache) Get(ctx context.Context, sessionID, questionKey string) (*model.AttemptState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.states[sessionID+"/"+questionKey]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (f *fakeAttemptCache) Set(ctx context.Context, sessionID, questionKey string, state *model.AttemptState) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *state
	f.states[sessionID+"/"+questionKey] = &cp
	return nil
}

func (f *fakeAttemptCache) Clear(ctx context.Context, sessionID, questionKey string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.states, sessionID+"/"+questionKey)
	return nil
}

func (f *fakeAttemptCache) size() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.states)
}

// fakeElementCache implements cache.ElementCache in memory.
type fakeElementCache struct {
	mu       sync.Mutex
	counts   map[string]int
	rebuilds int
}

func newFakeElementCache() *fakeElementCache {
	return &fakeElementCache{counts: make(map[string]int)}
}

func (f *fakeElementCache) Rebuild(ctx context.Context, counts map[string]int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counts = make(map[string]int, len(counts))
	for k, v := range counts {
		f.counts[k] = v
	}
	f.rebuilds++
	return nil
}

func (f *fakeElementCache) IncrElement(ctx context.Context, element string, delta int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counts[element] += delta
	return nil
}

func (f *fakeElementCache) TopElements(ctx context.Context, limit int) ([]model.ElementStat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return topElementStats(f.counts, limit), nil
}

func (f *fakeElementCache) count(element string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.counts[element]
}

// fakePatternRepo implements repository.PatternRepo in memory. ReplaceAll
// assigns fresh IDs the way the mongo repo does.
type fakePatternRepo struct {
	mu       sync.Mutex
	patterns []*model.Pattern
	seq      int
}

func newFakePatternRepo() *fakePatternRepo {
	return &fakePatternRepo{}
}

func (f *fakePatternRepo) List(ctx context.Context) ([]*model.Pattern, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*model.Pattern, 0, len(f.patterns))
	for _, p := range f.patterns {
		cp := *p
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Confidence > out[j].Confidence })
	return out, nil
}

func (f *fakePatternRepo) GetByID(ctx context.Context, id string) (*model.Pattern, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.patterns {
		if p.ID == id {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakePatternRepo) ReplaceAll(ctx context.Context, patterns []*model.Pattern) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.patterns = nil
	for _, p := range patterns {
		f.seq++
		cp := *p
		cp.ID = fmt.Sprintf("p%d", f.seq)
		f.patterns = append(f.patterns, &cp)
	}
	return nil
}

func (f *fakePatternRepo) SetValidated(ctx context.Context, id string, confirmed bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.patterns {
		if p.ID == id {
			v := confirmed
			p.Validated = &v
			return nil
		}
	}
	return nil
}

// fakePatternCache implements cache.PatternCache in memory.
type fakePatternCache struct {
	mu           sync.Mutex
	patterns     []*model.Pattern
	summary      *model.TasteSummary
	invalidation int
}

func newFakePatternCache() *fakePatternCache {
	return &fakePatternCache{}
}

func (f *fakePatternCache) GetPatterns(ctx context.Context) ([]*model.Pattern, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.patterns, nil
}

func (f *fakePatternCache) SetPatterns(ctx context.Context, patterns []*model.Pattern) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.patterns = patterns
	return nil
}

func (f *fakePatternCache) GetSummary(ctx context.Context) (*model.TasteSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.summary, nil
}

func (f *fakePatternCache) SetSummary(ctx context.Context, summary *model.TasteSummary) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.summary = summary
	return nil
}

func (f *fakePatternCache) Invalidate(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.patterns = nil
	f.summary = nil
	f.invalidation++
	return nil
}

type broadcastEvent struct {
	sessionID string
	event     string
	payload   interface{}
}

// fakeBroadcaster records events and lets tests wait for async ones.
type fakeBroadcaster struct {
	mu     sync.Mutex
	events []broadcastEvent
	notify chan struct{}
}

func newFakeBroadcaster() *fakeBroadcaster {
	return &fakeBroadcaster{notify: make(chan struct{}, 64)}
}

func (f *fakeBroadcaster) BroadcastToSession(sessionID string, event string, payload interface{}) {
	f.mu.Lock()
	f.events = append(f.events, broadcastEvent{sessionID, event, payload})
	f.mu.Unlock()
	select {
	case f.notify <- struct{}{}:
	default:
	}
}

func (f *fakeBroadcaster) has(event string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.events {
		if e.event == event {
			return true
		}
	}
	return false
}

func (f *fakeBroadcaster) waitFor(t *testing.T, event string, timeout time.Duration) {
	t.Helper()
	deadline := time.After(timeout)
	for {
		if f.has(event) {
			return
		}
		select {
		case <-f.notify:
		case <-deadline:
			t.Fatalf("timed out waiting for %q event", event)
		}
	}
}

type fixture struct {
	movies       *fakeMovieRepo
	sessions     *fakeSessionRepo
	responses    *fakeResponseRepo
	attempts     *fakeAttemptCache
	elements     *fakeElementCache
	patternRepo  *fakePatternRepo
	patternCache *fakePatternCache
	broadcaster  *fakeBroadcaster
	sessionSvc   *SessionService
	patternSvc   *PatternService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	bank, err := questions.Load()
	if err != nil {
		t.Fatalf("questions.Load() error = %v", err)
	}
	lex := analysis.NewLexicon()
	logger := zap.NewNop()

	f := &fixture{
		movies:       newFakeMovieRepo(),
		sessions:     newFakeSessionRepo(),
		responses:    newFakeResponseRepo(),
		attempts:     newFakeAttemptCache(),
		elements:     newFakeElementCache(),
		patternRepo:  newFakePatternRepo(),
		patternCache: newFakePatternCache(),
		broadcaster:  newFakeBroadcaster(),
	}

	f.sessionSvc = NewSessionService(
		f.sessions, f.movies, f.responses, f.attempts, f.elements,
		bank, analysis.NewClassifier(lex), analysis.NewExtractor(lex), logger)
	f.sessionSvc.pick = analysis.FirstPick

	f.patternSvc = NewPatternService(
		f.patternRepo, f.responses, f.movies,
		analysis.NewAggregator(lex, analysis.FirstPick), analysis.NewExtractor(lex),
		f.patternCache, f.elements, logger)

	f.sessionSvc.SetPatternService(f.patternSvc)
	f.sessionSvc.SetBroadcaster(f.broadcaster)
	return f
}

func (f *fixture) addMovie(t *testing.T, title string) string {
	t.Helper()
	id, err := f.movies.Create(context.Background(), &model.Movie{Title: title, CreatedAt: time.Now()})
	if err != nil {
		t.Fatalf("movies.Create() error = %v", err)
	}
	return id
}

func (f *fixture) addResponse(t *testing.T, movieID, text string) {
	t.Helper()
	_, err := f.responses.Create(context.Background(), &model.Response{
		SessionID:        "seed",
		MovieID:          movieID,
		QuestionKey:      "emotional_impact",
		Phase:            model.PhaseEvaluation,
		Text:             text,
		SpecificityScore: 0.8,
		CreatedAt:        time.Now(),
	})
	if err != nil {
		t.Fatalf("responses.Create() error = %v", err)
	}
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestStartSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m1 := f.addMovie(t, "Arrival")
	m2 := f.addMovie(t, "Columbus")

	sess, first, err := f.sessionSvc.Start(ctx, &model.StartSessionRequest{
		MovieIDs: []string{m1, m2},
		Type:     model.SessionDeepDive,
	})
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if sess.ID == "" {
		t.Error("Start() returned session without ID")
	}
	if sess.Status != model.SessionActive {
		t.Errorf("Status = %q, want %q", sess.Status, model.SessionActive)
	}
	if sess.Phase != model.PhasePlanning {
		t.Errorf("Phase = %q, want %q", sess.Phase, model.PhasePlanning)
	}
	if first.Key != "first_memory" {
		t.Errorf("first question = %q, want first_memory", first.Key)
	}
	if !strings.Contains(first.Prompt, "Arrival") {
		t.Errorf("prompt not rendered for first movie: %q", first.Prompt)
	}
	if strings.Contains(first.Prompt, "{movie}") {
		t.Errorf("prompt still has placeholder: %q", first.Prompt)
	}
}

func TestStartSessionValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, _, err := f.sessionSvc.Start(ctx, &model.StartSessionRequest{Type: model.SessionDeepDive})
	if !errors.Is(err, ErrNoMovies) {
		t.Errorf("Start() with no movies error = %v, want ErrNoMovies", err)
	}

	_, _, err = f.sessionSvc.Start(ctx, &model.StartSessionRequest{MovieIDs: []string{"missing"}})
	if !errors.Is(err, ErrMovieNotFound) {
		t.Errorf("Start() with unknown movie error = %v, want ErrMovieNotFound", err)
	}
}

func TestStartSessionDefaultsType(t *testing.T) {
	f := newFixture(t)
	m1 := f.addMovie(t, "Arrival")

	sess, _, err := f.sessionSvc.Start(context.Background(), &model.StartSessionRequest{MovieIDs: []string{m1}})
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if sess.Type != model.SessionDeepDive {
		t.Errorf("Type = %q, want %q", sess.Type, model.SessionDeepDive)
	}
}

func TestSubmitFollowUpThenAccept(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m1 := f.addMovie(t, "Arrival")
	sess, _, err := f.sessionSvc.Start(ctx, &model.StartSessionRequest{MovieIDs: []string{m1}, Type: model.SessionDeepDive})
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	res, err := f.sessionSvc.Submit(ctx, sess.ID, &model.SubmitReflectionRequest{Text: vagueDraft})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if res.Accepted {
		t.Fatal("vague draft was accepted on first try")
	}
	if res.FollowUp != "Which actor specifically?" {
		t.Errorf("FollowUp = %q, want first acting prompt", res.FollowUp)
	}
	if res.Attempts != 1 {
		t.Errorf("Attempts = %d, want 1", res.Attempts)
	}
	if got, _ := f.sessionSvc.Get(ctx, sess.ID); got.QuestionIndex != 0 {
		t.Errorf("QuestionIndex after rejection = %d, want 0", got.QuestionIndex)
	}

	res, err = f.sessionSvc.Submit(ctx, sess.ID, &model.SubmitReflectionRequest{Text: specificDraft, Confidence: 4})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if !res.Accepted {
		t.Fatalf("specific draft rejected: followup %q", res.FollowUp)
	}
	if res.Message != "That's exactly the kind of detail that helps." {
		t.Errorf("Message = %q, want first encouragement", res.Message)
	}
	if res.Response == nil {
		t.Fatal("accepted result missing response")
	}
	if res.Response.FollowUpCount != 1 {
		t.Errorf("FollowUpCount = %d, want 1", res.Response.FollowUpCount)
	}
	if res.Response.IsVague {
		t.Error("specific draft recorded as vague")
	}
	if !almostEqual(res.Response.SpecificityScore, 0.92) {
		t.Errorf("SpecificityScore = %v, want 0.92", res.Response.SpecificityScore)
	}
	if res.Response.QuestionKey != "first_memory" {
		t.Errorf("QuestionKey = %q, want first_memory", res.Response.QuestionKey)
	}
	if res.Response.Confidence != 4 {
		t.Errorf("Confidence = %d, want 4", res.Response.Confidence)
	}
	if res.NextQuestion == nil || res.NextQuestion.Key != "expectations" {
		t.Errorf("NextQuestion = %+v, want expectations", res.NextQuestion)
	}
	if res.PhaseChanged || res.SessionDone {
		t.Errorf("PhaseChanged = %v, SessionDone = %v, want false, false", res.PhaseChanged, res.SessionDone)
	}

	if got, _ := f.sessionSvc.Get(ctx, sess.ID); got.QuestionIndex != 1 {
		t.Errorf("QuestionIndex after accept = %d, want 1", got.QuestionIndex)
	}
	if f.attempts.size() != 0 {
		t.Errorf("attempt state not cleared, %d entries left", f.attempts.size())
	}
	if f.elements.count("lighting") != 1 {
		t.Errorf("lighting leaderboard count = %d, want 1", f.elements.count("lighting"))
	}
	if !f.broadcaster.has("follow_up") || !f.broadcaster.has("reflection_accepted") {
		t.Error("expected follow_up and reflection_accepted events")
	}
}

func TestSubmitEscapeValve(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m1 := f.addMovie(t, "Arrival")
	sess, _, err := f.sessionSvc.Start(ctx, &model.StartSessionRequest{MovieIDs: []string{m1}, Type: model.SessionDeepDive})
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	wantFollowUps := []string{
		"Which actor specifically?",
		"Can you describe a moment where their performance stood out?",
		"What exactly were they doing that worked?",
	}
	for i, want := range wantFollowUps {
		res, err := f.sessionSvc.Submit(ctx, sess.ID, &model.SubmitReflectionRequest{Text: vagueDraft})
		if err != nil {
			t.Fatalf("Submit() #%d error = %v", i+1, err)
		}
		if res.Accepted {
			t.Fatalf("vague draft accepted on attempt %d", i+1)
		}
		if res.FollowUp != want {
			t.Errorf("attempt %d FollowUp = %q, want %q", i+1, res.FollowUp, want)
		}
	}

	res, err := f.sessionSvc.Submit(ctx, sess.ID, &model.SubmitReflectionRequest{Text: vagueDraft})
	if err != nil {
		t.Fatalf("Submit() #4 error = %v", err)
	}
	if !res.Accepted {
		t.Fatal("draft not accepted after attempt ceiling")
	}
	if res.Message != "I'll note that as you've described it." {
		t.Errorf("Message = %q, want first acceptance note", res.Message)
	}
	if !res.Response.IsVague {
		t.Error("escape-valve response not marked vague")
	}
	if res.Response.VaguenessType != "acting" {
		t.Errorf("VaguenessType = %q, want acting", res.Response.VaguenessType)
	}
	if res.Response.FollowUpCount != 3 {
		t.Errorf("FollowUpCount = %d, want 3", res.Response.FollowUpCount)
	}
}

func TestSubmitPhaseChange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m1 := f.addMovie(t, "Arrival")
	sess, _, err := f.sessionSvc.Start(ctx, &model.StartSessionRequest{MovieIDs: []string{m1}, Type: model.SessionDeepDive})
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	// Five planning questions; the fifth accept crosses into monitoring.
	for i := 0; i < 4; i++ {
		res, err := f.sessionSvc.Submit(ctx, sess.ID, &model.SubmitReflectionRequest{Text: specificDraft})
		if err != nil {
			t.Fatalf("Submit() #%d error = %v", i+1, err)
		}
		if !res.Accepted || res.PhaseChanged {
			t.Fatalf("submit #%d: accepted = %v, phaseChanged = %v", i+1, res.Accepted, res.PhaseChanged)
		}
	}

	res, err := f.sessionSvc.Submit(ctx, sess.ID, &model.SubmitReflectionRequest{Text: specificDraft})
	if err != nil {
		t.Fatalf("Submit() #5 error = %v", err)
	}
	if !res.PhaseChanged {
		t.Error("fifth accept did not change phase")
	}
	if res.NextQuestion == nil || res.NextQuestion.Phase != model.PhaseMonitoring {
		t.Errorf("NextQuestion = %+v, want monitoring phase", res.NextQuestion)
	}
	if got, _ := f.sessionSvc.Get(ctx, sess.ID); got.Phase != model.PhaseMonitoring {
		t.Errorf("session phase = %q, want monitoring", got.Phase)
	}
}

func TestSubmitExhaustedSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m1 := f.addMovie(t, "Arrival")
	sess, _, err := f.sessionSvc.Start(ctx, &model.StartSessionRequest{MovieIDs: []string{m1}, Type: model.SessionDeepDive})
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	stored, _ := f.sessions.GetByID(ctx, sess.ID)
	stored.QuestionIndex = 20
	if err := f.sessions.Update(ctx, stored); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	if _, err := f.sessionSvc.Submit(ctx, sess.ID, &model.SubmitReflectionRequest{Text: specificDraft}); !errors.Is(err, ErrNoQuestionPending) {
		t.Errorf("Submit() error = %v, want ErrNoQuestionPending", err)
	}

	env, err := f.sessionSvc.CurrentQuestion(ctx, sess.ID)
	if err != nil {
		t.Fatalf("CurrentQuestion() error = %v", err)
	}
	if !env.Done || env.Question != nil {
		t.Errorf("envelope = %+v, want done with no question", env)
	}
}

func TestSkip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m1 := f.addMovie(t, "Arrival")
	sess, _, err := f.sessionSvc.Start(ctx, &model.StartSessionRequest{MovieIDs: []string{m1}, Type: model.SessionDeepDive})
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	if _, err := f.sessionSvc.Submit(ctx, sess.ID, &model.SubmitReflectionRequest{Text: vagueDraft}); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if f.attempts.size() != 1 {
		t.Fatalf("attempt state entries = %d, want 1", f.attempts.size())
	}

	res, err := f.sessionSvc.Skip(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Skip() error = %v", err)
	}
	if res.Accepted {
		t.Error("Skip() result marked accepted")
	}
	if res.NextQuestion == nil || res.NextQuestion.Key != "expectations" {
		t.Errorf("NextQuestion = %+v, want expectations", res.NextQuestion)
	}
	if f.attempts.size() != 0 {
		t.Error("Skip() left attempt state behind")
	}
	if all, _ := f.responses.ListAll(ctx); len(all) != 0 {
		t.Errorf("Skip() recorded %d responses, want 0", len(all))
	}
	if got, _ := f.sessionSvc.Get(ctx, sess.ID); got.QuestionIndex != 1 {
		t.Errorf("QuestionIndex = %d, want 1", got.QuestionIndex)
	}
}

func TestCompleteRunsDetection(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m1 := f.addMovie(t, "Arrival")
	m2 := f.addMovie(t, "Columbus")
	sess, _, err := f.sessionSvc.Start(ctx, &model.StartSessionRequest{MovieIDs: []string{m1, m2}, Type: model.SessionDeepDive})
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	f.addResponse(t, m1, "The dialogue between them was brilliant, every exchange landed.")
	f.addResponse(t, m2, "Brilliant dialogue again, the exchanges crackled from the first scene.")
	f.addResponse(t, m1, "That monologue near the end was a brilliant piece of dialogue.")

	done, err := f.sessionSvc.Complete(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if done.Status != model.SessionCompleted {
		t.Errorf("Status = %q, want completed", done.Status)
	}
	if done.CompletedAt == nil {
		t.Error("CompletedAt not set")
	}
	if !f.broadcaster.has("session_completed") {
		t.Error("session_completed event missing")
	}

	f.broadcaster.waitFor(t, "patterns_ready", 2*time.Second)

	stored, err := f.patternRepo.List(ctx)
	if err != nil {
		t.Fatalf("patternRepo.List() error = %v", err)
	}
	if len(stored) == 0 {
		t.Fatal("detection stored no patterns")
	}
	if stored[0].Element != "dialogue" {
		t.Errorf("strongest pattern element = %q, want dialogue", stored[0].Element)
	}
	for _, id := range []string{m1, m2} {
		if _, ok := f.movies.lastAnalyzed(id); !ok {
			t.Errorf("movie %s missing analysis stamp", id)
		}
	}

	if _, err := f.sessionSvc.Complete(ctx, sess.ID); !errors.Is(err, ErrSessionNotActive) {
		t.Errorf("second Complete() error = %v, want ErrSessionNotActive", err)
	}
}

func TestAbandon(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m1 := f.addMovie(t, "Arrival")
	sess, _, err := f.sessionSvc.Start(ctx, &model.StartSessionRequest{MovieIDs: []string{m1}, Type: model.SessionDeepDive})
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	got, err := f.sessionSvc.Abandon(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Abandon() error = %v", err)
	}
	if got.Status != model.SessionAbandoned {
		t.Errorf("Status = %q, want abandoned", got.Status)
	}
	if _, err := f.sessionSvc.Submit(ctx, sess.ID, &model.SubmitReflectionRequest{Text: specificDraft}); !errors.Is(err, ErrSessionNotActive) {
		t.Errorf("Submit() after abandon error = %v, want ErrSessionNotActive", err)
	}
	if stored, _ := f.patternRepo.List(ctx); len(stored) != 0 {
		t.Error("abandon triggered pattern detection")
	}
	if f.broadcaster.has("patterns_ready") {
		t.Error("abandon broadcast patterns_ready")
	}
}

func TestCurrentQuestion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m1 := f.addMovie(t, "Arrival")
	sess, _, err := f.sessionSvc.Start(ctx, &model.StartSessionRequest{MovieIDs: []string{m1}, Type: model.SessionDeepDive})
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	env, err := f.sessionSvc.CurrentQuestion(ctx, sess.ID)
	if err != nil {
		t.Fatalf("CurrentQuestion() error = %v", err)
	}
	if env.Question == nil || env.Question.Key != "first_memory" {
		t.Errorf("Question = %+v, want first_memory", env.Question)
	}
	if env.MovieID != m1 {
		t.Errorf("MovieID = %q, want %q", env.MovieID, m1)
	}
	if env.Index != 0 || env.Total != 20 || env.Done {
		t.Errorf("envelope = %+v, want index 0 of 20, not done", env)
	}

	if _, err := f.sessionSvc.CurrentQuestion(ctx, "missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("CurrentQuestion() error = %v, want ErrSessionNotFound", err)
	}
}
