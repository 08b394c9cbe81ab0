package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"sync"
	"testing"
	"time"

	"mindwell/internal/ai"
	"mindwell/internal/analysis/crisis"
	"mindwell/internal/model"
)

type fakeCompleter struct {
	mu      sync.Mutex
	reply   string
	err     error
	calls   [][]ai.ChatMessage
	started chan struct{}
	release chan struct{}
	onCall  func()
}

func (f *fakeCompleter) Complete(ctx context.Context, _ ai.ChatConfig, messages []ai.ChatMessage) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, messages)
	f.mu.Unlock()

	if f.onCall != nil {
		f.onCall()
	}

	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.reply, f.err
}

func (f *fakeCompleter) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeTurnStore struct {
	mu        sync.Mutex
	turns     []model.ChatHistory
	listErr   error
	saveErr   error
	listCalls int
	saved     []model.ChatHistory
	saveCtxs  []error
}

func (f *fakeTurnStore) ListTurns(_ context.Context, _ uint) ([]model.ChatHistory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.turns, nil
}

func (f *fakeTurnStore) SaveTurn(ctx context.Context, turn model.ChatHistory) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saveCtxs = append(f.saveCtxs, ctx.Err())
	if err := ctx.Err(); err != nil {
		return err
	}
	f.saved = append(f.saved, turn)
	return f.saveErr
}

type fakeChecker struct {
	result  crisis.Result
	err     error
	doPanic bool
}

func (f *fakeChecker) CheckMessage(_ context.Context, _ uint, _ string) (crisis.Result, error) {
	if f.doPanic {
		panic("checker exploded")
	}
	return f.result, f.err
}

type fakeConsent struct {
	mu     sync.Mutex
	state  model.ConsentState
	getErr error
	setErr error
	sets   []bool
}

func (f *fakeConsent) GetConsent(_ context.Context, _ uint) (model.ConsentState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return model.ConsentUnknown, f.getErr
	}
	if f.state == "" {
		return model.ConsentUnknown, nil
	}
	return f.state, nil
}

func (f *fakeConsent) SetConsent(_ context.Context, _ uint, granted bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return f.setErr
	}
	f.sets = append(f.sets, granted)
	f.state = model.ConsentFromBool(granted)
	return nil
}

type harness struct {
	svc       *CompanionService
	completer *fakeCompleter
	store     *fakeTurnStore
	checker   *fakeChecker
	consent   *fakeConsent
}

func newHarness(consent model.ConsentState) *harness {
	h := &harness{
		completer: &fakeCompleter{reply: "Let's take a slow breath together."},
		store:     &fakeTurnStore{},
		checker:   &fakeChecker{result: crisis.Result{Severity: crisis.Low}},
		consent:   &fakeConsent{state: consent},
	}
	h.svc = NewCompanionService(h.completer, h.store, h.checker, h.consent, CompanionOptions{
		LLM: ai.ChatConfig{BaseURL: "http://llm.local/v1", APIKey: "sk-test", Model: "gpt-3.5-turbo"},
	})

	var seq int
	base := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	h.svc.newID = func() string {
		mu.Lock()
		defer mu.Unlock()
		seq++
		return fmt.Sprintf("msg-%d", seq)
	}
	h.svc.now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		seq++
		return base.Add(time.Duration(seq) * time.Second)
	}
	return h
}

func stateOf(t *testing.T, svc *CompanionService, userID uint) SessionState {
	t.Helper()
	state, ok := svc.State(userID)
	if !ok {
		t.Fatalf("session for user %d not found", userID)
	}
	return state
}

func TestSendMessageAppendsUserThenAssistantPerSend(t *testing.T) {
	h := newHarness(model.ConsentDenied)
	ctx := context.Background()
	inputs := []string{"I feel tense", "work is a lot", "thanks"}

	for _, in := range inputs {
		result, err := h.svc.SendMessage(ctx, 1, in)
		if err != nil {
			t.Fatalf("SendMessage(%q) err: %v", in, err)
		}
		if result.AssistantMessage == nil {
			t.Fatalf("expected assistant message for %q", in)
		}
	}

	state := stateOf(t, h.svc, 1)
	if len(state.Messages) != 2*len(inputs) {
		t.Fatalf("expected %d messages, got %d", 2*len(inputs), len(state.Messages))
	}
	for i, in := range inputs {
		user, assistant := state.Messages[2*i], state.Messages[2*i+1]
		if user.Sender != model.SenderUser || user.Content != in {
			t.Fatalf("entry %d: unexpected user message %+v", 2*i, user)
		}
		if assistant.Sender != model.SenderAssistant {
			t.Fatalf("entry %d: expected assistant, got %+v", 2*i+1, assistant)
		}
	}
	if state.Sending {
		t.Fatal("session should be idle after sends")
	}
}

func TestSendMessageForwardsOnlyLatestUserMessage(t *testing.T) {
	h := newHarness(model.ConsentDenied)
	ctx := context.Background()

	for _, in := range []string{"first", "second"} {
		if _, err := h.svc.SendMessage(ctx, 1, in); err != nil {
			t.Fatalf("SendMessage err: %v", err)
		}
	}

	last := h.completer.calls[len(h.completer.calls)-1]
	if len(last) != 2 {
		t.Fatalf("expected system + user, got %d messages", len(last))
	}
	if last[0].Role != "system" || last[0].Content != DefaultSystemPrompt {
		t.Fatalf("unexpected system message: %+v", last[0])
	}
	if last[1].Role != "user" || last[1].Content != "second" {
		t.Fatalf("unexpected user message: %+v", last[1])
	}
}

func TestSendMessageFailureLeavesTranscriptUnchanged(t *testing.T) {
	h := newHarness(model.ConsentGranted)
	ctx := context.Background()
	if _, err := h.svc.SendMessage(ctx, 1, "hello"); err != nil {
		t.Fatalf("SendMessage err: %v", err)
	}
	before := stateOf(t, h.svc, 1).Messages

	h.completer.err = &ai.APIError{StatusCode: http.StatusTooManyRequests}
	result, err := h.svc.SendMessage(ctx, 1, "are you there?")

	var sendErr *SendError
	if !errors.As(err, &sendErr) {
		t.Fatalf("expected SendError, got %v", err)
	}
	if sendErr.Kind != SendErrorRateLimit {
		t.Fatalf("unexpected kind %s", sendErr.Kind)
	}
	if result == nil || result.AssistantMessage != nil {
		t.Fatalf("unexpected result on failure: %+v", result)
	}

	after := stateOf(t, h.svc, 1)
	if !reflect.DeepEqual(before, after.Messages) {
		t.Fatalf("transcript changed on failure:\nbefore %+v\nafter  %+v", before, after.Messages)
	}
	if after.Error != msgRateLimited {
		t.Fatalf("unexpected surfaced error %q", after.Error)
	}
	if len(h.store.saved) != 1 {
		t.Fatalf("failed send must not persist, saved %d", len(h.store.saved))
	}
}

func TestSendMessageErrorClassification(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		wantKind SendErrorKind
		wantMsg  string
	}{
		{"unauthorized", &ai.APIError{StatusCode: 401}, SendErrorAuth, msgUnauthorized},
		{"forbidden", &ai.APIError{StatusCode: 403}, SendErrorPermission, msgForbidden},
		{"rate limited", &ai.APIError{StatusCode: 429}, SendErrorRateLimit, msgRateLimited},
		{"provider detail", &ai.APIError{StatusCode: 500, Detail: "overloaded"}, SendErrorProvider, "API request failed: 500 - overloaded"},
		{"provider no detail", &ai.APIError{StatusCode: 502}, SendErrorProvider, "API request failed: 502 - Unknown error"},
		{"transport", errors.New("dial tcp: connection refused"), SendErrorTransport, msgSendFailed},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(model.ConsentDenied)
			h.completer.err = tc.err

			_, err := h.svc.SendMessage(context.Background(), 1, "hi")
			var sendErr *SendError
			if !errors.As(err, &sendErr) {
				t.Fatalf("expected SendError, got %v", err)
			}
			if sendErr.Kind != tc.wantKind || sendErr.Message != tc.wantMsg {
				t.Fatalf("got %s %q, want %s %q", sendErr.Kind, sendErr.Message, tc.wantKind, tc.wantMsg)
			}
			if got := stateOf(t, h.svc, 1); len(got.Messages) != 0 {
				t.Fatalf("expected empty transcript, got %+v", got.Messages)
			}
		})
	}
}

func TestSendMessageMissingCredentialIsConfigError(t *testing.T) {
	for _, key := range []string{"", "your_openai_api_key_here"} {
		h := newHarness(model.ConsentDenied)
		h.svc.llm.APIKey = key

		_, err := h.svc.SendMessage(context.Background(), 1, "hi")
		var sendErr *SendError
		if !errors.As(err, &sendErr) || sendErr.Kind != SendErrorConfig {
			t.Fatalf("key %q: expected config error, got %v", key, err)
		}
		if !errors.Is(err, ErrLLMConfig) {
			t.Fatalf("key %q: expected ErrLLMConfig in chain", key)
		}
		if h.completer.callCount() != 0 {
			t.Fatalf("key %q: provider must not be called", key)
		}
	}
}

func TestSendMessageTimeoutFollowsTransportPath(t *testing.T) {
	h := newHarness(model.ConsentDenied)
	h.completer.release = make(chan struct{})
	h.svc.timeout = 20 * time.Millisecond

	_, err := h.svc.SendMessage(context.Background(), 1, "hi")
	var sendErr *SendError
	if !errors.As(err, &sendErr) || sendErr.Kind != SendErrorTransport {
		t.Fatalf("expected transport error, got %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline in chain, got %v", err)
	}
}

func TestSendMessageEmptyReplyUsesFallback(t *testing.T) {
	h := newHarness(model.ConsentDenied)
	h.completer.reply = "   "

	result, err := h.svc.SendMessage(context.Background(), 1, "hi")
	if err != nil {
		t.Fatalf("SendMessage err: %v", err)
	}
	if result.AssistantMessage.Content != FallbackReply {
		t.Fatalf("expected fallback reply, got %q", result.AssistantMessage.Content)
	}
}

func TestSendMessageRejectsEmptyText(t *testing.T) {
	h := newHarness(model.ConsentDenied)
	if _, err := h.svc.SendMessage(context.Background(), 1, "  \n "); !errors.Is(err, ErrMessageEmpty) {
		t.Fatalf("expected ErrMessageEmpty, got %v", err)
	}
	if h.completer.callCount() != 0 {
		t.Fatal("provider must not be called for empty text")
	}
}

func TestConsentNotGrantedNeverPersists(t *testing.T) {
	for _, consent := range []model.ConsentState{model.ConsentDenied, model.ConsentUnknown} {
		h := newHarness(consent)
		ctx := context.Background()

		if _, err := h.svc.SendMessage(ctx, 1, "hi"); err != nil {
			t.Fatalf("SendMessage err: %v", err)
		}
		h.completer.err = errors.New("boom")
		_, _ = h.svc.SendMessage(ctx, 1, "again")

		if len(h.store.saved) != 0 {
			t.Fatalf("consent %s: expected no inserts, got %d", consent, len(h.store.saved))
		}
	}
}

func TestConsentGrantedPersistsExactPair(t *testing.T) {
	h := newHarness(model.ConsentGranted)

	result, err := h.svc.SendMessage(context.Background(), 5, "  I can't focus today ")
	if err != nil {
		t.Fatalf("SendMessage err: %v", err)
	}
	if !result.Persisted {
		t.Fatal("expected persisted result")
	}
	if len(h.store.saved) != 1 {
		t.Fatalf("expected exactly one insert, got %d", len(h.store.saved))
	}
	saved := h.store.saved[0]
	if saved.UserID != 5 || saved.MessageText != "I can't focus today" || saved.AIReplyText != h.completer.reply {
		t.Fatalf("unexpected saved turn: %+v", saved)
	}
}

func TestPersistFailureKeepsTranscript(t *testing.T) {
	h := newHarness(model.ConsentGranted)
	h.store.saveErr = errors.New("db down")

	result, err := h.svc.SendMessage(context.Background(), 1, "hi")
	if err != nil {
		t.Fatalf("persist failure must not surface, got %v", err)
	}
	if result.Persisted {
		t.Fatal("result should report the turn as not persisted")
	}
	state := stateOf(t, h.svc, 1)
	if len(state.Messages) != 2 || state.Error != "" {
		t.Fatalf("unexpected state after persist failure: %+v", state)
	}
}

func TestCrisisCheckerFailureDoesNotBlockReply(t *testing.T) {
	cases := map[string]*fakeChecker{
		"error": {err: errors.New("checker offline")},
		"panic": {doPanic: true},
	}
	for name, checker := range cases {
		t.Run(name, func(t *testing.T) {
			h := newHarness(model.ConsentDenied)
			h.svc.checker = checker

			result, err := h.svc.SendMessage(context.Background(), 1, "hi")
			if err != nil {
				t.Fatalf("SendMessage err: %v", err)
			}
			if result.AssistantMessage == nil {
				t.Fatal("expected assistant reply despite checker failure")
			}
			if result.Crisis != nil {
				t.Fatalf("expected no crisis result, got %+v", result.Crisis)
			}
		})
	}
}

func TestCrisisResultReturnedEvenWhenCompletionFails(t *testing.T) {
	h := newHarness(model.ConsentDenied)
	h.checker.result = crisis.Result{Severity: crisis.High, Triggered: true, Keywords: []string{"want to die"}}
	h.completer.err = errors.New("network down")

	result, err := h.svc.SendMessage(context.Background(), 1, "I want to die")
	if err == nil {
		t.Fatal("expected send error")
	}
	if result == nil || result.Crisis == nil || !result.Crisis.Triggered || result.Crisis.Severity != crisis.High {
		t.Fatalf("expected high crisis result, got %+v", result)
	}
}

func TestSendMessageShowsPendingAndRejectsOverlap(t *testing.T) {
	h := newHarness(model.ConsentDenied)
	h.completer.started = make(chan struct{}, 1)
	h.completer.release = make(chan struct{})

	done := make(chan error, 1)
	go func() {
		_, err := h.svc.SendMessage(context.Background(), 1, "first")
		done <- err
	}()
	<-h.completer.started

	state := stateOf(t, h.svc, 1)
	if !state.Sending || len(state.Messages) != 1 || state.Messages[0].Content != "first" {
		t.Fatalf("expected optimistic user entry while sending, got %+v", state)
	}

	if _, err := h.svc.SendMessage(context.Background(), 1, "second"); !errors.Is(err, ErrSendInProgress) {
		t.Fatalf("expected ErrSendInProgress, got %v", err)
	}

	close(h.completer.release)
	if err := <-done; err != nil {
		t.Fatalf("first send err: %v", err)
	}
	state = stateOf(t, h.svc, 1)
	if state.Sending || len(state.Messages) != 2 {
		t.Fatalf("unexpected final state: %+v", state)
	}
}

func TestLoadHistoryExpandsPairsInOrder(t *testing.T) {
	h := newHarness(model.ConsentGranted)
	base := time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)
	h.store.turns = []model.ChatHistory{
		{ID: 3, MessageText: "c", AIReplyText: "C", CreatedAt: base.Add(3 * time.Minute)},
		{ID: 1, MessageText: "a", AIReplyText: "A", CreatedAt: base.Add(1 * time.Minute)},
		{ID: 2, MessageText: "b", AIReplyText: "B", CreatedAt: base.Add(2 * time.Minute)},
	}

	if err := h.svc.LoadHistory(context.Background(), 1); err != nil {
		t.Fatalf("LoadHistory err: %v", err)
	}
	state := stateOf(t, h.svc, 1)
	want := []struct {
		id      string
		sender  model.Sender
		content string
	}{
		{"1-user", model.SenderUser, "a"}, {"1-assistant", model.SenderAssistant, "A"},
		{"2-user", model.SenderUser, "b"}, {"2-assistant", model.SenderAssistant, "B"},
		{"3-user", model.SenderUser, "c"}, {"3-assistant", model.SenderAssistant, "C"},
	}
	if len(state.Messages) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(state.Messages))
	}
	for i, w := range want {
		got := state.Messages[i]
		if got.ID != w.id || got.Sender != w.sender || got.Content != w.content {
			t.Fatalf("entry %d: got %+v, want %+v", i, got, w)
		}
	}
}

func TestLoadHistoryFailureEmptiesTranscript(t *testing.T) {
	h := newHarness(model.ConsentGranted)
	ctx := context.Background()
	if _, err := h.svc.SendMessage(ctx, 1, "hi"); err != nil {
		t.Fatalf("SendMessage err: %v", err)
	}

	h.store.listErr = errors.New("timeout")
	err := h.svc.LoadHistory(ctx, 1)
	if !errors.Is(err, ErrHistoryLoad) {
		t.Fatalf("expected ErrHistoryLoad, got %v", err)
	}
	state := stateOf(t, h.svc, 1)
	if len(state.Messages) != 0 {
		t.Fatalf("expected empty transcript, got %+v", state.Messages)
	}
	if state.Error != msgHistoryLoad {
		t.Fatalf("unexpected surfaced error %q", state.Error)
	}

	cleared, err := h.svc.ClearError(1)
	if err != nil {
		t.Fatalf("ClearError err: %v", err)
	}
	if cleared.Error != "" || len(cleared.Messages) != 0 {
		t.Fatalf("ClearError should only clear the error, got %+v", cleared)
	}
}

func TestLoadHistoryRequiresConsent(t *testing.T) {
	h := newHarness(model.ConsentUnknown)
	if err := h.svc.LoadHistory(context.Background(), 1); !errors.Is(err, ErrConsentRequired) {
		t.Fatalf("expected ErrConsentRequired, got %v", err)
	}
	if h.store.listCalls != 0 {
		t.Fatalf("expected no gateway reads, got %d", h.store.listCalls)
	}
}

func TestOpenUnknownConsentThenGrantLoadsOnce(t *testing.T) {
	h := newHarness(model.ConsentUnknown)
	ctx := context.Background()

	state, err := h.svc.Open(ctx, 1)
	if err != nil {
		t.Fatalf("Open err: %v", err)
	}
	if state.Consent != model.ConsentUnknown {
		t.Fatalf("expected unknown consent, got %s", state.Consent)
	}
	if h.store.listCalls != 0 {
		t.Fatalf("history must not load before consent, got %d loads", h.store.listCalls)
	}

	state, err = h.svc.SetConsent(ctx, 1, true)
	if err != nil {
		t.Fatalf("SetConsent err: %v", err)
	}
	if state.Consent != model.ConsentGranted {
		t.Fatalf("expected granted consent, got %s", state.Consent)
	}
	if h.store.listCalls != 1 {
		t.Fatalf("expected exactly one history load, got %d", h.store.listCalls)
	}
	if len(h.consent.sets) != 1 || !h.consent.sets[0] {
		t.Fatalf("expected consent to be persisted once, got %v", h.consent.sets)
	}
}

func TestOpenGrantedConsentLoadsHistoryOnce(t *testing.T) {
	h := newHarness(model.ConsentGranted)
	h.store.turns = []model.ChatHistory{{ID: 1, MessageText: "a", AIReplyText: "A"}}
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		state, err := h.svc.Open(ctx, 1)
		if err != nil {
			t.Fatalf("Open err: %v", err)
		}
		if len(state.Messages) != 2 {
			t.Fatalf("expected loaded history, got %+v", state.Messages)
		}
	}
	if h.store.listCalls != 1 {
		t.Fatalf("expected one load across opens, got %d", h.store.listCalls)
	}
}

func TestSetConsentDeniedDoesNotLoad(t *testing.T) {
	h := newHarness(model.ConsentUnknown)
	state, err := h.svc.SetConsent(context.Background(), 1, false)
	if err != nil {
		t.Fatalf("SetConsent err: %v", err)
	}
	if state.Consent != model.ConsentDenied || h.store.listCalls != 0 {
		t.Fatalf("unexpected state %+v loads=%d", state, h.store.listCalls)
	}
}

func TestSetConsentStoreFailureKeepsState(t *testing.T) {
	h := newHarness(model.ConsentUnknown)
	h.consent.setErr = errors.New("redis down")

	state, err := h.svc.SetConsent(context.Background(), 1, true)
	if err == nil {
		t.Fatal("expected error")
	}
	if state.Consent != model.ConsentUnknown {
		t.Fatalf("consent must stay unknown, got %s", state.Consent)
	}
	if h.store.listCalls != 0 {
		t.Fatal("history must not load when consent was not stored")
	}
}

func TestInitializeStoreFailureYieldsUnknown(t *testing.T) {
	h := newHarness(model.ConsentGranted)
	h.consent.getErr = errors.New("redis down")

	if got := h.svc.Initialize(context.Background(), 1); got != model.ConsentUnknown {
		t.Fatalf("expected unknown, got %s", got)
	}
}

func TestClearErrorAndCloseUnknownSession(t *testing.T) {
	h := newHarness(model.ConsentDenied)
	if _, err := h.svc.ClearError(9); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
	if h.svc.Close(9) {
		t.Fatal("Close should report missing session")
	}

	if _, err := h.svc.Open(context.Background(), 9); err != nil {
		t.Fatalf("Open err: %v", err)
	}
	if !h.svc.Close(9) {
		t.Fatal("Close should drop open session")
	}
	if _, ok := h.svc.State(9); ok {
		t.Fatal("session should be gone after Close")
	}
}

func TestInitializeIgnoresZeroUser(t *testing.T) {
	h := newHarness(model.ConsentGranted)
	if got := h.svc.Initialize(context.Background(), 0); got != model.ConsentUnknown {
		t.Fatalf("expected unknown, got %s", got)
	}
	if _, ok := h.svc.State(0); ok {
		t.Fatal("no session should exist for user 0")
	}
}

func TestSendMessagePersistsAfterClientCancels(t *testing.T) {
	h := newHarness(model.ConsentGranted)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if _, err := h.svc.Open(ctx, 1); err != nil {
		t.Fatalf("Open err: %v", err)
	}
	h.completer.onCall = cancel
	h.completer.reply = "breathe"

	result, err := h.svc.SendMessage(ctx, 1, "I need a moment")
	if err != nil {
		t.Fatalf("SendMessage err: %v", err)
	}
	if !result.Persisted {
		t.Fatal("turn should persist even though the request context was cancelled")
	}
	if len(h.store.saveCtxs) != 1 || h.store.saveCtxs[0] != nil {
		t.Fatalf("save ran on a cancelled context: %v", h.store.saveCtxs)
	}
	if len(h.store.saved) != 1 || h.store.saved[0].AIReplyText != "breathe" {
		t.Fatalf("unexpected saved turns %+v", h.store.saved)
	}
}

func TestEvictIdleDropsUntouchedSessions(t *testing.T) {
	h := newHarness(model.ConsentGranted)
	clock := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	var clockMu sync.Mutex
	h.svc.now = func() time.Time {
		clockMu.Lock()
		defer clockMu.Unlock()
		return clock
	}
	advance := func(d time.Duration) {
		clockMu.Lock()
		clock = clock.Add(d)
		clockMu.Unlock()
	}
	ctx := context.Background()

	if _, err := h.svc.Open(ctx, 1); err != nil {
		t.Fatalf("Open err: %v", err)
	}
	if _, err := h.svc.Open(ctx, 2); err != nil {
		t.Fatalf("Open err: %v", err)
	}
	advance(20 * time.Minute)
	h.svc.State(2)
	advance(20 * time.Minute)

	if n := h.svc.EvictIdle(); n != 1 {
		t.Fatalf("expected one eviction, got %d", n)
	}
	if _, ok := h.svc.State(1); ok {
		t.Fatal("idle session should be evicted")
	}
	if _, ok := h.svc.State(2); !ok {
		t.Fatal("recently used session should stay")
	}

	listCalls := h.store.listCalls
	state, err := h.svc.Open(ctx, 1)
	if err != nil {
		t.Fatalf("Open err: %v", err)
	}
	if state.Consent != model.ConsentGranted || h.store.listCalls != listCalls+1 {
		t.Fatalf("evicted session should be recreated from durable state, got %+v", state)
	}
}

func TestEvictIdleKeepsSendingSession(t *testing.T) {
	h := newHarness(model.ConsentDenied)
	h.completer.started = make(chan struct{}, 1)
	h.completer.release = make(chan struct{})
	h.svc.sessionIdle = time.Nanosecond

	done := make(chan error, 1)
	go func() {
		_, err := h.svc.SendMessage(context.Background(), 1, "hello")
		done <- err
	}()
	<-h.completer.started

	if n := h.svc.EvictIdle(); n != 0 {
		t.Fatalf("sending session must not be evicted, evicted %d", n)
	}
	close(h.completer.release)
	if err := <-done; err != nil {
		t.Fatalf("SendMessage err: %v", err)
	}
	if n := h.svc.EvictIdle(); n != 1 {
		t.Fatalf("expected eviction once idle, got %d", n)
	}
}
