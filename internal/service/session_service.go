package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"tastetrail/internal/analysis"
	"tastetrail/internal/cache"
	"tastetrail/internal/model"
	"tastetrail/internal/questions"
	"tastetrail/internal/repository"
)

var (
	ErrSessionNotFound   = errors.New("session not found")
	ErrSessionNotActive  = errors.New("session is not active")
	ErrNoMovies          = errors.New("at least one movie is required")
	ErrNoQuestionPending = errors.New("all questions answered")
)

// SessionService runs guided reflection sessions: serving questions, judging
// drafts against the vagueness gates and advancing through the flattened
// movie x question sequence.
type SessionService struct {
	sessionRepo  repository.SessionRepo
	movieRepo    repository.MovieRepo
	responseRepo repository.ResponseRepo
	attempts     cache.AttemptCache
	elements     cache.ElementCache
	bank         *questions.Bank
	classifier   *analysis.Classifier
	extractor    *analysis.Extractor
	pick         analysis.PickFunc
	patternSvc   *PatternService
	broadcaster  Broadcaster
	logger       *zap.Logger
}

// NewSessionService creates a new session service
func NewSessionService(
	sessionRepo repository.SessionRepo,
	movieRepo repository.MovieRepo,
	responseRepo repository.ResponseRepo,
	attempts cache.AttemptCache,
	elements cache.ElementCache,
	bank *questions.Bank,
	classifier *analysis.Classifier,
	extractor *analysis.Extractor,
	logger *zap.Logger,
) *SessionService {
	return &SessionService{
		sessionRepo:  sessionRepo,
		movieRepo:    movieRepo,
		responseRepo: responseRepo,
		attempts:     attempts,
		elements:     elements,
		bank:         bank,
		classifier:   classifier,
		extractor:    extractor,
		pick:         analysis.RandomPick,
		logger:       logger,
	}
}

// SetBroadcaster sets the broadcaster (called after initialization to avoid circular dependency)
func (s *SessionService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// SetPatternService wires in pattern detection (called after initialization to avoid circular dependency)
func (s *SessionService) SetPatternService(p *PatternService) {
	s.patternSvc = p
}

// Start opens a session over the given movies and returns it with the first
// question rendered.
func (s *SessionService) Start(ctx context.Context, req *model.StartSessionRequest) (*model.Session, *model.Question, error) {
	if len(req.MovieIDs) == 0 {
		return nil, nil, ErrNoMovies
	}

	for _, movieID := range req.MovieIDs {
		movie, err := s.movieRepo.GetByID(ctx, movieID)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to get movie: %w", err)
		}
		if movie == nil {
			return nil, nil, ErrMovieNotFound
		}
	}

	sessionType := req.Type
	if sessionType == "" {
		sessionType = model.SessionDeepDive
	}

	qs := s.bank.ForType(sessionType)
	session := &model.Session{
		MovieIDs:      req.MovieIDs,
		Type:          sessionType,
		Status:        model.SessionActive,
		Phase:         qs[0].Phase,
		QuestionIndex: 0,
		StartedAt:     time.Now(),
	}

	id, err := s.sessionRepo.Create(ctx, session)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create session: %w", err)
	}
	session.ID = id

	first, _, err := s.questionAt(ctx, session, 0)
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("session started",
		zap.String("sessionId", id),
		zap.String("type", string(sessionType)),
		zap.Int("movies", len(req.MovieIDs)))

	return session, first, nil
}

// Get returns one session by ID.
func (s *SessionService) Get(ctx context.Context, id string) (*model.Session, error) {
	session, err := s.sessionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// List returns all sessions, newest first.
func (s *SessionService) List(ctx context.Context) ([]*model.Session, error) {
	return s.sessionRepo.List(ctx)
}

// CurrentQuestion returns the question the session is waiting on, with its
// position in the sequence.
func (s *SessionService) CurrentQuestion(ctx context.Context, sessionID string) (*model.QuestionEnvelope, error) {
	session, err := s.getActive(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	q, movieID, err := s.questionAt(ctx, session, session.QuestionIndex)
	if err != nil {
		return nil, err
	}

	return &model.QuestionEnvelope{
		Question: q,
		MovieID:  movieID,
		Index:    session.QuestionIndex,
		Total:    s.totalQuestions(session),
		Done:     q == nil,
	}, nil
}

// Submit judges a reflection draft. A draft that fails the vagueness gates
// comes back with a follow-up prompt instead of being recorded; the
// escalation state lives in the attempt cache under the question key.
func (s *SessionService) Submit(ctx context.Context, sessionID string, req *model.SubmitReflectionRequest) (*model.ReflectionResult, error) {
	session, err := s.getActive(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	q, movieID, err := s.questionAt(ctx, session, session.QuestionIndex)
	if err != nil {
		return nil, err
	}
	if q == nil {
		return nil, ErrNoQuestionPending
	}

	state, err := s.attempts.Get(ctx, session.ID, q.Key)
	if err != nil {
		return nil, fmt.Errorf("failed to get attempt state: %w", err)
	}
	if state == nil {
		state = &model.AttemptState{}
	}

	a := s.classifier.Classify(req.Text)

	if !analysis.DecideAcceptance(a, state.Tries) {
		// FOLLOW-UP: push back for more specificity and keep the draft around
		followUp := a.FollowUpAt(state.Tries)
		state.Tries++
		state.LastDraft = req.Text
		if err := s.attempts.Set(ctx, session.ID, q.Key, state); err != nil {
			return nil, fmt.Errorf("failed to save attempt state: %w", err)
		}

		reflectionsTotal.WithLabelValues("follow_up").Inc()

		if s.broadcaster != nil {
			s.broadcaster.BroadcastToSession(session.ID, "follow_up", map[string]interface{}{
				"questionKey":   q.Key,
				"vaguenessType": a.VaguenessType,
				"followUp":      followUp,
				"attempts":      state.Tries,
			})
		}

		return &model.ReflectionResult{
			Accepted: false,
			FollowUp: followUp,
			Attempts: state.Tries,
		}, nil
	}

	// ACCEPTED: record the reflection
	response := &model.Response{
		SessionID:        session.ID,
		MovieID:          movieID,
		QuestionKey:      q.Key,
		QuestionText:     q.Prompt,
		Phase:            q.Phase,
		Text:             strings.TrimSpace(req.Text),
		Confidence:       req.Confidence,
		IsVague:          a.IsVague,
		VaguenessType:    a.VaguenessType,
		SpecificityScore: a.SpecificityScore,
		FollowUpCount:    state.Tries,
		CreatedAt:        time.Now(),
	}

	responseID, err := s.responseRepo.Create(ctx, response)
	if err != nil {
		return nil, fmt.Errorf("failed to save response: %w", err)
	}
	response.ID = responseID

	// Escalation state is per question; TTL reaps it if this fails.
	if err := s.attempts.Clear(ctx, session.ID, q.Key); err != nil {
		s.logger.Warn("failed to clear attempt state",
			zap.String("sessionId", session.ID),
			zap.String("questionKey", q.Key),
			zap.Error(err))
	}

	// Accepted reflections bump the element leaderboard live; detection runs
	// rebuild it from scratch later.
	for _, match := range s.extractor.ExtractElements(response.Text) {
		if err := s.elements.IncrElement(ctx, match.Key, 1); err != nil {
			s.logger.Warn("failed to bump element leaderboard",
				zap.String("element", match.Key),
				zap.Error(err))
		}
	}

	// ADVANCE
	session.QuestionIndex++
	next, _, err := s.questionAt(ctx, session, session.QuestionIndex)
	if err != nil {
		return nil, err
	}
	phaseChanged := false
	if next != nil && next.Phase != session.Phase {
		session.Phase = next.Phase
		phaseChanged = true
	}
	if err := s.sessionRepo.Update(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to advance session: %w", err)
	}

	message := analysis.Encouragement(s.pick)
	if a.IsVague {
		// Accepted through the escape valve, not on merit.
		message = analysis.AcceptanceNote(s.pick)
	}

	reflectionsTotal.WithLabelValues("accepted").Inc()
	followUpDepth.Observe(float64(state.Tries))
	specificityScore.Observe(a.SpecificityScore)

	result := &model.ReflectionResult{
		Accepted:     true,
		Message:      message,
		Attempts:     state.Tries,
		Response:     response,
		NextQuestion: next,
		PhaseChanged: phaseChanged,
		SessionDone:  next == nil,
	}

	if s.broadcaster != nil {
		s.broadcaster.BroadcastToSession(session.ID, "reflection_accepted", map[string]interface{}{
			"questionKey":      q.Key,
			"specificityScore": a.SpecificityScore,
			"phaseChanged":     phaseChanged,
			"sessionDone":      result.SessionDone,
		})
	}

	return result, nil
}

// Skip abandons the current question without recording anything and advances
// the session.
func (s *SessionService) Skip(ctx context.Context, sessionID string) (*model.ReflectionResult, error) {
	session, err := s.getActive(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	q, _, err := s.questionAt(ctx, session, session.QuestionIndex)
	if err != nil {
		return nil, err
	}
	if q == nil {
		return nil, ErrNoQuestionPending
	}

	if err := s.attempts.Clear(ctx, session.ID, q.Key); err != nil {
		s.logger.Warn("failed to clear attempt state",
			zap.String("sessionId", session.ID),
			zap.String("questionKey", q.Key),
			zap.Error(err))
	}

	session.QuestionIndex++
	next, _, err := s.questionAt(ctx, session, session.QuestionIndex)
	if err != nil {
		return nil, err
	}
	phaseChanged := false
	if next != nil && next.Phase != session.Phase {
		session.Phase = next.Phase
		phaseChanged = true
	}
	if err := s.sessionRepo.Update(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to advance session: %w", err)
	}

	return &model.ReflectionResult{
		Accepted:     false,
		NextQuestion: next,
		PhaseChanged: phaseChanged,
		SessionDone:  next == nil,
	}, nil
}

// Complete closes the session and triggers pattern detection in the
// background. Detection failure never surfaces here; the patterns_ready
// event just doesn't fire.
func (s *SessionService) Complete(ctx context.Context, sessionID string) (*model.Session, error) {
	session, err := s.getActive(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	session.Status = model.SessionCompleted
	session.CompletedAt = &now
	if err := s.sessionRepo.Update(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to complete session: %w", err)
	}

	if s.broadcaster != nil {
		s.broadcaster.BroadcastToSession(session.ID, "session_completed", map[string]interface{}{
			"sessionId":   session.ID,
			"completedAt": now,
		})
	}

	// ASYNC PATTERN DETECTION
	if s.patternSvc != nil {
		go func(asyncCtx context.Context, sess model.Session) {
			defer func() {
				if r := recover(); r != nil {
					s.logger.Error("recovered from panic in pattern detection",
						zap.String("sessionId", sess.ID),
						zap.Any("panic", r))
				}
			}()

			patterns, err := s.patternSvc.DetectAndStore(asyncCtx)
			if err != nil {
				s.logger.Error("pattern detection failed",
					zap.String("sessionId", sess.ID),
					zap.Error(err))
				return
			}

			analyzedAt := time.Now()
			for _, movieID := range sess.MovieIDs {
				if err := s.movieRepo.SetLastAnalyzed(asyncCtx, movieID, analyzedAt); err != nil {
					s.logger.Warn("failed to stamp movie analysis time",
						zap.String("movieId", movieID),
						zap.Error(err))
				}
			}

			if s.broadcaster != nil {
				s.broadcaster.BroadcastToSession(sess.ID, "patterns_ready", map[string]interface{}{
					"sessionId": sess.ID,
					"count":     len(patterns),
				})
			}
		}(context.Background(), *session)
	}

	s.logger.Info("session completed", zap.String("sessionId", session.ID))
	return session, nil
}

// Abandon closes the session without pattern detection. Responses already
// accepted stay in the journal.
func (s *SessionService) Abandon(ctx context.Context, sessionID string) (*model.Session, error) {
	session, err := s.getActive(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	session.Status = model.SessionAbandoned
	if err := s.sessionRepo.Update(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to abandon session: %w", err)
	}

	s.logger.Info("session abandoned", zap.String("sessionId", session.ID))
	return session, nil
}

// getActive loads a session and checks it is still accepting input.
func (s *SessionService) getActive(ctx context.Context, sessionID string) (*model.Session, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	if session.Status != model.SessionActive {
		return nil, ErrSessionNotActive
	}
	return session, nil
}

// questionAt resolves the flattened movie x question sequence: all questions
// for the first movie, then the next movie. Returns a rendered copy, or nil
// past the end.
func (s *SessionService) questionAt(ctx context.Context, session *model.Session, index int) (*model.Question, string, error) {
	qs := s.bank.ForType(session.Type)
	if len(qs) == 0 || index < 0 || index >= len(qs)*len(session.MovieIDs) {
		return nil, "", nil
	}

	movieID := session.MovieIDs[index/len(qs)]
	q := qs[index%len(qs)]

	movie, err := s.movieRepo.GetByID(ctx, movieID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to get movie: %w", err)
	}
	title := "the film"
	if movie != nil {
		title = movie.Title
	}

	rendered := *q
	rendered.Prompt = questions.Render(q, title)
	return &rendered, movieID, nil
}

func (s *SessionService) totalQuestions(session *model.Session) int {
	return len(s.bank.ForType(session.Type)) * len(session.MovieIDs)
}
