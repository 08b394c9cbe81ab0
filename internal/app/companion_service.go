package app

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"mindwell/internal/ai"
	"mindwell/internal/analysis/crisis"
	"mindwell/internal/config"
	"mindwell/internal/model"
)

type CompletionClient interface {
	Complete(ctx context.Context, cfg ai.ChatConfig, messages []ai.ChatMessage) (string, error)
}

// TurnStore is the durable home of chat_history rows.
type TurnStore interface {
	ListTurns(ctx context.Context, userID uint) ([]model.ChatHistory, error)
	SaveTurn(ctx context.Context, turn model.ChatHistory) error
}

type CrisisChecker interface {
	CheckMessage(ctx context.Context, userID uint, text string) (crisis.Result, error)
}

type ConsentStore interface {
	GetConsent(ctx context.Context, userID uint) (model.ConsentState, error)
	SetConsent(ctx context.Context, userID uint, granted bool) error
}

type CompanionOptions struct {
	LLM          ai.ChatConfig
	SystemPrompt string
	Timeout      time.Duration
	SessionIdle  time.Duration
}

// sideEffectTimeout bounds the writes that outlive the request: the turn
// save and the crisis event insert.
const sideEffectTimeout = 10 * time.Second

// SendResult describes one exchange. On a failed send only UserMessage (the
// discarded optimistic entry) and Crisis are set.
type SendResult struct {
	UserMessage      model.ChatMessage  `json:"user_message"`
	AssistantMessage *model.ChatMessage `json:"assistant_message,omitempty"`
	Crisis           *crisis.Result     `json:"crisis,omitempty"`
	Persisted        bool               `json:"persisted"`
}

// CompanionService mediates every exchange between a user and the AI companion
// and owns the in-memory transcript of each user's session.
type CompanionService struct {
	completer    CompletionClient
	turns        TurnStore
	checker      CrisisChecker
	consent      ConsentStore
	llm          ai.ChatConfig
	systemPrompt string
	timeout      time.Duration
	sessionIdle  time.Duration

	now   func() time.Time
	newID func() string

	mu       sync.Mutex
	sessions map[uint]*CompanionSession
}

func NewCompanionService(
	completer CompletionClient,
	turns TurnStore,
	checker CrisisChecker,
	consent ConsentStore,
	opts CompanionOptions,
) *CompanionService {
	if strings.TrimSpace(opts.SystemPrompt) == "" {
		opts.SystemPrompt = DefaultSystemPrompt
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.SessionIdle <= 0 {
		opts.SessionIdle = 30 * time.Minute
	}
	return &CompanionService{
		completer:    completer,
		turns:        turns,
		checker:      checker,
		consent:      consent,
		llm:          opts.LLM,
		systemPrompt: opts.SystemPrompt,
		timeout:      opts.Timeout,
		sessionIdle:  opts.SessionIdle,
		now:          time.Now,
		newID:        uuid.NewString,
		sessions:     make(map[uint]*CompanionSession),
	}
}

// Open returns the user's session, creating and initializing it on first use.
// A fresh session whose consent is already granted loads its history once.
func (s *CompanionService) Open(ctx context.Context, userID uint) (SessionState, error) {
	if userID == 0 {
		return SessionState{}, ErrInvalidInput
	}
	sess, fresh := s.ensureSession(ctx, userID)
	if fresh && sess.consentState() == model.ConsentGranted {
		_ = s.loadHistory(ctx, sess)
	}
	return sess.snapshot(), nil
}

// Initialize re-reads the durable consent flag. Store failures are logged and
// leave the state unknown.
func (s *CompanionService) Initialize(ctx context.Context, userID uint) model.ConsentState {
	if userID == 0 {
		return model.ConsentUnknown
	}
	sess, fresh := s.ensureSession(ctx, userID)
	if !fresh {
		s.initialize(ctx, sess)
	}
	return sess.consentState()
}

func (s *CompanionService) SetConsent(ctx context.Context, userID uint, granted bool) (SessionState, error) {
	if userID == 0 {
		return SessionState{}, ErrInvalidInput
	}
	sess, _ := s.ensureSession(ctx, userID)

	if err := s.consent.SetConsent(ctx, userID, granted); err != nil {
		return sess.snapshot(), fmt.Errorf("persist consent failed: %w", err)
	}
	sess.setConsent(model.ConsentFromBool(granted))

	if granted {
		// the failure is already surfaced on the session
		_ = s.loadHistory(ctx, sess)
	}
	return sess.snapshot(), nil
}

func (s *CompanionService) LoadHistory(ctx context.Context, userID uint) error {
	if userID == 0 {
		return ErrInvalidInput
	}
	sess, _ := s.ensureSession(ctx, userID)
	return s.loadHistory(ctx, sess)
}

func (s *CompanionService) SendMessage(ctx context.Context, userID uint, text string) (*SendResult, error) {
	if userID == 0 {
		return nil, ErrInvalidInput
	}
	content := strings.TrimSpace(text)
	if content == "" {
		return nil, ErrMessageEmpty
	}
	sess, _ := s.ensureSession(ctx, userID)

	userMessage := model.ChatMessage{
		ID:        s.newID(),
		Sender:    model.SenderUser,
		Content:   content,
		CreatedAt: s.now(),
	}
	consent, ok := sess.beginSend(userMessage)
	if !ok {
		return nil, ErrSendInProgress
	}

	crisisCh := s.startCrisisCheck(ctx, userID, content)

	reply, err := s.complete(ctx, content)
	if err != nil {
		sendErr := classifySendError(err)
		log.Printf("companion completion failed for user %d: %v", userID, err)
		sess.abortSend(sendErr.Message)
		return &SendResult{UserMessage: userMessage, Crisis: awaitCrisis(ctx, crisisCh)}, sendErr
	}

	reply = strings.TrimSpace(reply)
	if reply == "" {
		reply = FallbackReply
	}
	assistantMessage := model.ChatMessage{
		ID:        s.newID(),
		Sender:    model.SenderAssistant,
		Content:   reply,
		CreatedAt: s.now(),
	}
	sess.commitSend(userMessage, assistantMessage)

	result := &SendResult{
		UserMessage:      userMessage,
		AssistantMessage: &assistantMessage,
	}
	if consent == model.ConsentGranted {
		turn := model.ChatHistory{
			UserID:      userID,
			MessageText: content,
			AIReplyText: reply,
			CreatedAt:   userMessage.CreatedAt,
		}
		saveCtx, cancel := detached(ctx)
		err := s.turns.SaveTurn(saveCtx, turn)
		cancel()
		if err != nil {
			log.Printf("save chat history failed for user %d: %v", userID, err)
		} else {
			result.Persisted = true
		}
	}

	result.Crisis = awaitCrisis(ctx, crisisCh)
	return result, nil
}

func (s *CompanionService) ClearError(userID uint) (SessionState, error) {
	sess, ok := s.lookup(userID)
	if !ok {
		return SessionState{}, ErrSessionNotFound
	}
	sess.setError("")
	return sess.snapshot(), nil
}

func (s *CompanionService) State(userID uint) (SessionState, bool) {
	sess, ok := s.lookup(userID)
	if !ok {
		return SessionState{}, false
	}
	return sess.snapshot(), true
}

// Close drops the in-memory session. Persisted history is untouched.
func (s *CompanionService) Close(userID uint) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[userID]; !ok {
		return false
	}
	delete(s.sessions, userID)
	return true
}

// EvictIdle drops sessions untouched for longer than the idle window and
// returns how many were removed. Sessions with a send in flight are kept.
func (s *CompanionService) EvictIdle() int {
	cutoff := s.now().Add(-s.sessionIdle)

	s.mu.Lock()
	defer s.mu.Unlock()
	evicted := 0
	for userID, sess := range s.sessions {
		if sess.idleSince(cutoff) {
			delete(s.sessions, userID)
			evicted++
		}
	}
	return evicted
}

// StartSessionSweeper runs EvictIdle every interval until ctx is done.
func (s *CompanionService) StartSessionSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := s.EvictIdle(); n > 0 {
					log.Printf("evicted %d idle companion sessions", n)
				}
			}
		}
	}()
}

func (s *CompanionService) lookup(userID uint) (*CompanionSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[userID]
	if ok {
		sess.touch(s.now())
	}
	return sess, ok
}

// ensureSession reports fresh=true only to the caller that ran initialization.
func (s *CompanionService) ensureSession(ctx context.Context, userID uint) (*CompanionSession, bool) {
	s.mu.Lock()
	sess, ok := s.sessions[userID]
	if !ok {
		sess = newCompanionSession(userID)
		s.sessions[userID] = sess
	}
	sess.touch(s.now())
	s.mu.Unlock()

	fresh := false
	sess.initOnce.Do(func() {
		s.initialize(ctx, sess)
		fresh = true
	})
	return sess, fresh
}

func (s *CompanionService) initialize(ctx context.Context, sess *CompanionSession) {
	state := model.ConsentUnknown
	if s.consent != nil {
		loaded, err := s.consent.GetConsent(ctx, sess.userID)
		if err != nil {
			log.Printf("load consent failed for user %d: %v", sess.userID, err)
		} else {
			state = loaded
		}
	}
	sess.setConsent(state)
}

func (s *CompanionService) loadHistory(ctx context.Context, sess *CompanionSession) error {
	if sess.consentState() != model.ConsentGranted {
		return ErrConsentRequired
	}

	turns, err := s.turns.ListTurns(ctx, sess.userID)
	if err != nil {
		log.Printf("fetch chat history failed for user %d: %v", sess.userID, err)
		sess.replaceTranscript(nil)
		sess.setError(msgHistoryLoad)
		return fmt.Errorf("%w: %v", ErrHistoryLoad, err)
	}

	sess.replaceTranscript(expandTurns(turns))
	sess.setError("")
	return nil
}

// expandTurns turns each persisted pair into a user entry followed by an
// assistant entry, oldest pair first.
func expandTurns(turns []model.ChatHistory) []model.ChatMessage {
	ordered := make([]model.ChatHistory, len(turns))
	copy(ordered, turns)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
	})

	messages := make([]model.ChatMessage, 0, len(ordered)*2)
	for _, turn := range ordered {
		messages = append(messages,
			model.ChatMessage{
				ID:        fmt.Sprintf("%d-user", turn.ID),
				Sender:    model.SenderUser,
				Content:   turn.MessageText,
				CreatedAt: turn.CreatedAt,
			},
			model.ChatMessage{
				ID:        fmt.Sprintf("%d-assistant", turn.ID),
				Sender:    model.SenderAssistant,
				Content:   turn.AIReplyText,
				CreatedAt: turn.CreatedAt,
			},
		)
	}
	return messages
}

func (s *CompanionService) complete(ctx context.Context, content string) (string, error) {
	if !llmConfigured(s.llm) {
		return "", ErrLLMConfig
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	messages := []ai.ChatMessage{
		{Role: "system", Content: s.systemPrompt},
		{Role: "user", Content: content},
	}
	return s.completer.Complete(callCtx, s.llm, messages)
}

func llmConfigured(cfg ai.ChatConfig) bool {
	key := strings.TrimSpace(cfg.APIKey)
	if key == "" || key == config.PlaceholderAPIKey {
		return false
	}
	return strings.TrimSpace(cfg.BaseURL) != "" && strings.TrimSpace(cfg.Model) != ""
}

// startCrisisCheck runs the checker concurrently with the completion call.
// Errors and panics are logged and yield a nil result.
func (s *CompanionService) startCrisisCheck(ctx context.Context, userID uint, text string) <-chan *crisis.Result {
	out := make(chan *crisis.Result, 1)
	if s.checker == nil {
		out <- nil
		return out
	}

	checkCtx, cancel := detached(ctx)
	go func() {
		defer cancel()
		var result *crisis.Result
		defer func() {
			if r := recover(); r != nil {
				log.Printf("crisis check panicked for user %d: %v", userID, r)
				result = nil
			}
			out <- result
		}()

		res, err := s.checker.CheckMessage(checkCtx, userID, text)
		if err != nil {
			log.Printf("crisis check failed for user %d: %v", userID, err)
		}
		if res.Severity != "" {
			result = &res
		}
	}()
	return out
}

// detached keeps ctx values but not its cancellation, so a client that hangs
// up after the reply does not lose the side effects of the turn.
func detached(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), sideEffectTimeout)
}

func awaitCrisis(ctx context.Context, ch <-chan *crisis.Result) *crisis.Result {
	select {
	case result := <-ch:
		return result
	case <-ctx.Done():
		return nil
	}
}
