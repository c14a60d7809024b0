package orch_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dkeye/Duet/internal/app"
	"github.com/dkeye/Duet/internal/app/orch"
	"github.com/dkeye/Duet/internal/core"
	"github.com/dkeye/Duet/internal/domain"
	"github.com/dkeye/Duet/internal/metrics"
	"github.com/dkeye/Duet/internal/mocks"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// recorder collects every batch handed to the gateway.
type recorder struct {
	mu      sync.Mutex
	batches [][]core.Instruction
}

func (r *recorder) add(ins []core.Instruction) {
	r.mu.Lock()
	r.batches = append(r.batches, ins)
	r.mu.Unlock()
}

func (r *recorder) last() []core.Instruction {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.batches) == 0 {
		return nil
	}
	return r.batches[len(r.batches)-1]
}

func (r *recorder) events() []domain.EventName {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.EventName
	for _, b := range r.batches {
		for _, in := range b {
			out = append(out, in.Event)
		}
	}
	return out
}

type fixture struct {
	o     *orch.Orchestrator
	rec   *recorder
	clock *fakeClock
	m     *metrics.Metrics
}

func newFixture(t *testing.T, assistant *orch.Assistant) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	gw := mocks.NewMockGateway(ctrl)
	rec := &recorder{}
	gw.EXPECT().Deliver(gomock.Any()).Do(rec.add).AnyTimes()

	clock := &fakeClock{t: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)}
	m := metrics.New()
	coord := core.NewCoordinator(core.NewRegistry(nil, 0, 0), core.DefaultSweepPolicy())
	o := orch.New(context.Background(), orch.Deps{
		Coordinator: coord,
		Gateway:     gw,
		Conns:       app.NewRegistry(),
		Metrics:     m,
		Assistant:   assistant,
		Clock:       clock.Now,
	})
	return &fixture{o: o, rec: rec, clock: clock, m: m}
}

func (f *fixture) seat() {
	f.o.JoinAdmin(domain.Identity{ID: "alice", Name: "Alice"}, "")
	f.o.JoinGuest(domain.Identity{ID: "bob", Name: "Bob"})
	f.o.Approve("alice", "bob")
}

func TestOrchestrator_DeliversInOperationOrder(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, nil)

	f.seat()

	req.Equal([]domain.EventName{
		domain.EventJoined, domain.EventOccupantJoined,
		domain.EventJoined, domain.EventGuestRequested, domain.EventPendingCountChanged,
		domain.EventApproved, domain.EventOccupantJoined, domain.EventNewMessage, domain.EventPendingCountChanged,
	}, f.rec.events())

	st := f.o.Status()
	req.True(st.AdminPresent)
	req.True(st.GuestPresent)
	req.Zero(st.PendingCount)
}

func TestOrchestrator_NoopsAreNotDelivered(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, nil)

	f.o.Kick("nobody")
	f.o.Approve("nobody", "ghost")
	f.o.SendMessage("nobody", "hi")

	req.Empty(f.rec.events())
}

func TestOrchestrator_SweepEvictsAndCounts(t *testing.T) {
	req := require.New(t)
	f := newFixture(t, nil)
	f.seat()

	f.clock.Advance(91 * time.Second)
	req.Equal(core.SweepInactive, f.o.Sweep())

	kicked := f.rec.last()[0]
	req.Equal(domain.EventKicked, kicked.Event)
	req.Equal(core.Unicast("bob"), kicked.To)
	n, err := testutil.GatherAndCount(f.m.Registry(), "duet_evictions_total")
	req.NoError(err)
	req.Equal(1, n)
	req.False(f.o.Status().GuestPresent)
}

func TestOrchestrator_RunStopsOnCancel(t *testing.T) {
	f := newFixture(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		f.o.Run(ctx)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return")
	}
}

func TestOrchestrator_AssistantAnswersGuest(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	responder := mocks.NewMockResponder(ctrl)
	f := newFixture(t, &orch.Assistant{Responder: responder, Name: "Helper", History: 10})
	f.seat()
	f.o.SendMessage("alice", "welcome Bob")

	responder.EXPECT().
		Respond(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, r orch.AssistantRequest) (string, error) {
			req.Equal("how are you?", r.Message)
			req.Equal("Bob", r.GuestName)
			req.Len(r.History, 1)
			req.Equal("welcome Bob", r.History[0].Body)
			return "  Fine, thanks!  ", nil
		})

	f.o.SendMessage("bob", "how are you?")
	f.o.Wait()

	last := f.rec.last()
	req.Len(last, 1)
	msg := last[0].Payload.(domain.NewMessagePayload).Message
	req.Equal(orch.AssistantID, msg.AuthorID)
	req.Equal("Helper", msg.AuthorName)
	req.Equal("Fine, thanks!", msg.Body)
}

func TestOrchestrator_AssistantFallback(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	responder := mocks.NewMockResponder(ctrl)
	f := newFixture(t, &orch.Assistant{Responder: responder})
	f.seat()

	responder.EXPECT().Respond(gomock.Any(), gomock.Any()).Return("", errors.New("upstream down"))

	f.o.SendMessage("bob", "hello?")
	f.o.Wait()

	msg := f.rec.last()[0].Payload.(domain.NewMessagePayload).Message
	req.Equal(orch.FallbackReply, msg.Body)
	req.Equal("AI Assistant", msg.AuthorName)
}

func TestOrchestrator_AssistantIgnoresAdmin(t *testing.T) {
	ctrl := gomock.NewController(t)
	responder := mocks.NewMockResponder(ctrl)
	f := newFixture(t, &orch.Assistant{Responder: responder})
	f.seat()

	responder.EXPECT().Respond(gomock.Any(), gomock.Any()).Times(0)

	f.o.SendMessage("alice", "just me")
	f.o.Wait()
}

func TestOrchestrator_AssistantReplyDroppedAfterGuestChange(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	responder := mocks.NewMockResponder(ctrl)
	f := newFixture(t, &orch.Assistant{Responder: responder})
	f.seat()

	asked := make(chan struct{})
	release := make(chan struct{})
	responder.EXPECT().
		Respond(gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, orch.AssistantRequest) (string, error) {
			close(asked)
			<-release
			return "answer to Bob", nil
		})

	// Given Bob is waiting for an answer
	f.o.SendMessage("bob", "what time is it?")
	<-asked

	// When Carol takes his seat in the meantime
	f.o.Kick("alice")
	f.o.JoinGuest(domain.Identity{ID: "carol", Name: "Carol"})
	f.o.Approve("alice", "carol")
	before := len(f.rec.events())
	close(release)
	f.o.Wait()

	// Then nothing reaches Carol's session
	req.Len(f.rec.events(), before)
	req.NoError(testutil.GatherAndCompare(f.m.Registry(), strings.NewReader(`
# HELP duet_assistant_replies_total Assistant replies by result.
# TYPE duet_assistant_replies_total counter
duet_assistant_replies_total{result="dropped"} 1
`), "duet_assistant_replies_total"))
}

func TestOrchestrator_AssistantHistoryIsSessionScoped(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	responder := mocks.NewMockResponder(ctrl)
	f := newFixture(t, &orch.Assistant{Responder: responder})
	f.seat()

	responder.EXPECT().Respond(gomock.Any(), gomock.Any()).Return("ok", nil)
	f.o.SendMessage("bob", "bob's secret")
	f.o.Wait()

	f.o.Kick("alice")
	f.clock.Advance(time.Second)
	f.o.JoinGuest(domain.Identity{ID: "carol", Name: "Carol"})
	f.o.Approve("alice", "carol")
	f.o.SendMessage("alice", "hello Carol")

	responder.EXPECT().
		Respond(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, r orch.AssistantRequest) (string, error) {
			req.Equal("Carol", r.GuestName)
			req.Len(r.History, 1)
			req.Equal("hello Carol", r.History[0].Body)
			return "hi", nil
		})
	f.o.SendMessage("carol", "anyone there?")
	f.o.Wait()
}
