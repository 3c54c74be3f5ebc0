package builder_test

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"go.uber.org/goleak"

	"github.com/storeforge/storeforge/internal/builder"
	"github.com/storeforge/storeforge/internal/testutil"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const fallbackPayload = `{"updated_fields": {}, "next_state": "start", "ai_response": "Tell me more."}`

func newEngine(model builder.Completer) (*builder.Controller, *testutil.MemStore) {
	store := testutil.NewMemStore()
	return builder.NewController(store, model, slog.New(slog.DiscardHandler)), store
}

func TestProcessExtractsAndPersists(t *testing.T) {
	t.Parallel()

	model := testutil.NewMockModel(fallbackPayload)
	model.AddReply("teatime",
		`{"updated_fields": {"brand_name": "TeaTime"}, "next_state": "brand", "ai_response": "TeaTime it is!"}`)
	engine, store := newEngine(model)

	res, err := engine.Process(context.Background(), "sess-1", "Call it TeaTime")
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if !res.Success {
		t.Error("Success = false")
	}
	if res.Reply != "TeaTime it is!" {
		t.Errorf("Reply = %q", res.Reply)
	}
	if res.View.BrandName != "TeaTime" {
		t.Errorf("View.BrandName = %q", res.View.BrandName)
	}
	if res.View.State != "brand" {
		t.Errorf("View.State = %q, want brand", res.View.State)
	}

	// Both turns are recorded and the snapshot is persisted.
	cfg, err := store.Load(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(cfg.History) != 2 {
		t.Fatalf("len(History) = %d, want 2", len(cfg.History))
	}
	if cfg.History[0].Role != "user" || cfg.History[0].Content != "Call it TeaTime" {
		t.Errorf("History[0] = %+v", cfg.History[0])
	}
	if cfg.History[1].Role != "assistant" || cfg.History[1].Content != "TeaTime it is!" {
		t.Errorf("History[1] = %+v", cfg.History[1])
	}
}

func TestProcessValidation(t *testing.T) {
	t.Parallel()

	engine, _ := newEngine(testutil.NewMockModel(fallbackPayload))

	if _, err := engine.Process(context.Background(), "", "hi"); !errors.Is(err, builder.ErrEmptySessionID) {
		t.Errorf("empty session error = %v, want ErrEmptySessionID", err)
	}
	if _, err := engine.Process(context.Background(), "s", ""); !errors.Is(err, builder.ErrEmptyMessage) {
		t.Errorf("empty message error = %v, want ErrEmptyMessage", err)
	}
}

func TestProcessModelFailureLeavesStateUntouched(t *testing.T) {
	t.Parallel()

	model := testutil.NewMockModel(fallbackPayload)
	model.AddReply("teatime",
		`{"updated_fields": {"brand_name": "TeaTime"}, "next_state": "brand", "ai_response": "ok"}`)
	engine, store := newEngine(model)

	// Establish state, then make the model fail.
	if _, err := engine.Process(context.Background(), "sess-1", "Call it TeaTime"); err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	model.FailWith(errors.New("deadline exceeded"))

	res, err := engine.Process(context.Background(), "sess-1", "Add Green Tea $25")
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if res.Success {
		t.Error("Success = true, want false")
	}
	if res.Reply != builder.Apology {
		t.Errorf("Reply = %q, want apology", res.Reply)
	}
	if res.View.BrandName != "TeaTime" {
		t.Errorf("View.BrandName = %q, want prior state", res.View.BrandName)
	}

	// The failed turn leaves no trace in the persisted history.
	cfg, err := store.Load(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(cfg.History) != 2 {
		t.Errorf("len(History) = %d, want 2 (failed turn not recorded)", len(cfg.History))
	}
	if len(cfg.Products) != 0 {
		t.Errorf("Products = %v, want empty", cfg.Products)
	}
}

func TestProcessModelFailureFreshSessionNotPersisted(t *testing.T) {
	t.Parallel()

	model := testutil.NewMockModel(fallbackPayload)
	model.FailWith(errors.New("rate limited"))
	engine, store := newEngine(model)

	res, err := engine.Process(context.Background(), "sess-1", "hello")
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if res.Success {
		t.Error("Success = true, want false")
	}
	if store.Len() != 0 {
		t.Errorf("store has %d sessions, want 0", store.Len())
	}
}

func TestProcessUpsertFailureStillReturnsView(t *testing.T) {
	t.Parallel()

	model := testutil.NewMockModel(
		`{"updated_fields": {"brand_name": "TeaTime"}, "next_state": "brand", "ai_response": "ok"}`)
	engine, store := newEngine(model)
	store.FailUpsert(errors.New("connection refused"))

	res, err := engine.Process(context.Background(), "sess-1", "Call it TeaTime")
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if !res.Success {
		t.Error("Success = false, want true")
	}
	if res.View.BrandName != "TeaTime" {
		t.Errorf("View.BrandName = %q, want TeaTime", res.View.BrandName)
	}
}

func TestProcessPhaseTransitions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		nextState string
		want      string
	}{
		{name: "valid transition applied", nextState: "clarify", want: "clarify"},
		{name: "skip ahead rejected", nextState: "publish", want: "start"},
		{name: "hallucinated phase rejected", nextState: "checkout", want: "start"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			model := testutil.NewMockModel(
				`{"updated_fields": {}, "next_state": "` + tt.nextState + `", "ai_response": "ok"}`)
			engine, _ := newEngine(model)

			res, err := engine.Process(context.Background(), "sess-1", "hello")
			if err != nil {
				t.Fatalf("Process() error = %v", err)
			}
			if res.View.State != tt.want {
				t.Errorf("State = %q, want %q", res.View.State, tt.want)
			}
		})
	}
}

func TestProcessGuardedScenario(t *testing.T) {
	t.Parallel()

	// The model routes a color phrase to the background field; the guard
	// must drop it while the legitimate color update lands.
	model := testutil.NewMockModel(
		`{"updated_fields": {"hero_color": "#3B82F6", "background_image": "#3B82F6"}, "next_state": "start", "ai_response": "Blue hero text."}`)
	engine, _ := newEngine(model)

	res, err := engine.Process(context.Background(), "sess-1", "Make hero text blue")
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if res.View.HeroColor != "#3B82F6" {
		t.Errorf("HeroColor = %q, want #3B82F6", res.View.HeroColor)
	}
	if res.View.BackgroundImage != "" {
		t.Errorf("BackgroundImage = %q, want untouched", res.View.BackgroundImage)
	}
	if len(res.UpdatedFields) != 1 || res.UpdatedFields[0] != "hero_color" {
		t.Errorf("UpdatedFields = %v, want [hero_color]", res.UpdatedFields)
	}
}

func TestProcessUnparsableReply(t *testing.T) {
	t.Parallel()

	model := testutil.NewMockModel("Let's talk about your store instead.")
	engine, _ := newEngine(model)

	res, err := engine.Process(context.Background(), "sess-1", "hello")
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if !res.Success {
		t.Error("Success = false, want true for unparsable but delivered reply")
	}
	if res.Reply != "Let's talk about your store instead." {
		t.Errorf("Reply = %q, want raw model text", res.Reply)
	}
	if res.View.State != "start" {
		t.Errorf("State = %q, want unchanged", res.View.State)
	}
	if len(res.UpdatedFields) != 0 {
		t.Errorf("UpdatedFields = %v, want none", res.UpdatedFields)
	}
}

func TestContext(t *testing.T) {
	t.Parallel()

	model := testutil.NewMockModel(
		`{"updated_fields": {"brand_name": "TeaTime"}, "next_state": "start", "ai_response": "ok"}`)
	engine, store := newEngine(model)

	// Unknown session: default view, nothing persisted.
	view, err := engine.Context(context.Background(), "fresh")
	if err != nil {
		t.Fatalf("Context() error = %v", err)
	}
	if view.HeroColor != builder.DefaultHeroColor {
		t.Errorf("HeroColor = %q, want default", view.HeroColor)
	}
	if store.Len() != 0 {
		t.Errorf("store has %d sessions, want 0", store.Len())
	}

	// After processing, the view reflects the stored state.
	if _, err := engine.Process(context.Background(), "sess-1", "Call it TeaTime"); err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	view, err = engine.Context(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("Context() error = %v", err)
	}
	if view.BrandName != "TeaTime" {
		t.Errorf("BrandName = %q, want TeaTime", view.BrandName)
	}

	if _, err := engine.Context(context.Background(), ""); !errors.Is(err, builder.ErrEmptySessionID) {
		t.Errorf("empty session error = %v, want ErrEmptySessionID", err)
	}
}

func TestReset(t *testing.T) {
	t.Parallel()

	model := testutil.NewMockModel(
		`{"updated_fields": {"brand_name": "TeaTime"}, "next_state": "brand", "ai_response": "ok"}`)
	engine, store := newEngine(model)

	if _, err := engine.Process(context.Background(), "sess-1", "Call it TeaTime"); err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	view, err := engine.Reset(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	if view.BrandName != "" {
		t.Errorf("BrandName = %q, want empty after reset", view.BrandName)
	}
	if view.State != "start" {
		t.Errorf("State = %q, want start", view.State)
	}

	// The reset is durable, not just a fresh view.
	cfg, err := store.Load(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.BrandName != "" || len(cfg.History) != 0 {
		t.Errorf("stored config after reset = %+v", cfg)
	}
}

func TestShopReply(t *testing.T) {
	t.Parallel()

	model := testutil.NewMockModel("We stock lovely green teas!")
	engine, store := newEngine(model)

	reply, err := engine.ShopReply(context.Background(), "sess-1", "What do you sell?")
	if err != nil {
		t.Fatalf("ShopReply() error = %v", err)
	}
	if reply != "We stock lovely green teas!" {
		t.Errorf("reply = %q", reply)
	}
	// Shopper chat is read-only.
	if store.Len() != 0 {
		t.Errorf("store has %d sessions, want 0", store.Len())
	}
}

func TestProcessSameSessionSerialized(t *testing.T) {
	t.Parallel()

	model := testutil.NewMockModel(fallbackPayload)
	engine, store := newEngine(model)

	const n = 20
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			if _, err := engine.Process(context.Background(), "sess-1", "hello"); err != nil {
				t.Errorf("Process() error = %v", err)
			}
		}()
	}
	wg.Wait()

	// Every message appended exactly one user and one assistant turn.
	cfg, err := store.Load(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(cfg.History) != 2*n {
		t.Errorf("len(History) = %d, want %d", len(cfg.History), 2*n)
	}
}
