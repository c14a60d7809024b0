package signal

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dkeye/Duet/internal/app"
	"github.com/dkeye/Duet/internal/app/orch"
	"github.com/dkeye/Duet/internal/core"
	"github.com/dkeye/Duet/internal/domain"
	"github.com/dkeye/Duet/internal/mocks"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type sink struct {
	mu  sync.Mutex
	ins []core.Instruction
}

func (s *sink) add(ins []core.Instruction) {
	s.mu.Lock()
	s.ins = append(s.ins, ins...)
	s.mu.Unlock()
}

func (s *sink) take() []core.Instruction {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.ins
	s.ins = nil
	return out
}

func newTestController(t *testing.T, opts Options) (*SignalWSController, *sink) {
	t.Helper()
	ctrl := gomock.NewController(t)
	gw := mocks.NewMockGateway(ctrl)
	s := &sink{}
	gw.EXPECT().Deliver(gomock.Any()).Do(s.add).AnyTimes()

	coord := core.NewCoordinator(core.NewRegistry(nil, 0, 0), core.DefaultSweepPolicy())
	o := orch.New(context.Background(), orch.Deps{
		Coordinator: coord,
		Gateway:     gw,
		Conns:       app.NewRegistry(),
	})
	return NewSignalWSController(o, opts), s
}

func errorCode(t *testing.T, ins []core.Instruction) string {
	t.Helper()
	require.Len(t, ins, 1)
	require.Equal(t, domain.EventError, ins[0].Event)
	return ins[0].Payload.(domain.ErrorPayload).Error
}

func TestHandleSignal_Join(t *testing.T) {
	req := require.New(t)
	ctl, s := newTestController(t, Options{})

	ctl.handleSignal("alice", []byte(`{"type":"join","data":{"name":"Alice","role":"admin"}}`))
	ins := s.take()
	req.Equal(domain.EventJoined, ins[0].Event)
	req.True(ins[0].Payload.(domain.JoinedPayload).Success)

	ctl.handleSignal("bob", []byte(`{"type":"join","data":{"name":"Bob","role":"guest"}}`))
	ins = s.take()
	req.Equal(domain.RolePending, ins[0].Payload.(domain.JoinedPayload).Role)

	ctl.handleSignal("alice", []byte(`{"type":"approveGuest","data":{"pendingId":"bob"}}`))
	ins = s.take()
	req.Equal(domain.EventApproved, ins[0].Event)
}

func TestHandleSignal_BadInput(t *testing.T) {
	req := require.New(t)
	ctl, s := newTestController(t, Options{})

	ctl.handleSignal("x", []byte(`not json`))
	req.Equal(errBadPayload, errorCode(t, s.take()))

	ctl.handleSignal("x", []byte(`{"type":"join","data":{"name":"X","role":"owner"}}`))
	req.Equal(errInvalidPayload, errorCode(t, s.take()))

	ctl.handleSignal("x", []byte(`{"type":"approveGuest"}`))
	req.Equal(errInvalidPayload, errorCode(t, s.take()))

	ctl.handleSignal("x", []byte(`{"type":"join","data":{"name":"   ","role":"guest"}}`))
	ins := s.take()
	req.Len(ins, 1)
	req.Equal(domain.EventJoined, ins[0].Event)
	req.Equal(domain.ErrUsernameEmpty.Error(), ins[0].Payload.(domain.JoinedPayload).Error)

	ctl.handleSignal("x", []byte(`{"type":"somethingElse"}`))
	req.Empty(s.take())
}

func TestHandleSignal_MessageLimits(t *testing.T) {
	req := require.New(t)
	ctl, s := newTestController(t, Options{MaxMessageLength: 5, RateLimit: 2, RateWindow: time.Minute})
	ctl.handleSignal("alice", []byte(`{"type":"join","data":{"name":"Alice","role":"admin"}}`))
	s.take()

	ctl.handleSignal("alice", []byte(`{"type":"sendMessage","data":{"body":"   "}}`))
	req.Empty(s.take())

	long := `{"type":"sendMessage","data":{"body":"` + strings.Repeat("a", 6) + `"}}`
	ctl.handleSignal("alice", []byte(long))
	req.Equal(errInvalidPayload, errorCode(t, s.take()))

	ctl.handleSignal("alice", []byte(`{"type":"sendMessage","data":{"body":"hi"}}`))
	req.Equal(domain.EventNewMessage, s.take()[0].Event)
	ctl.handleSignal("alice", []byte(`{"type":"typingStart"}`))
	req.Equal(domain.EventUserTyping, s.take()[0].Event)

	ctl.handleSignal("alice", []byte(`{"type":"sendMessage","data":{"body":"hi"}}`))
	req.Equal(errRateLimited, errorCode(t, s.take()))
}

func TestHandleSignal_PingAndLeave(t *testing.T) {
	req := require.New(t)
	ctl, s := newTestController(t, Options{})

	ctl.handleSignal("a", []byte(`{"type":"ping"}`))
	req.Equal(domain.EventPong, s.take()[0].Event)

	ctl.handleSignal("a", []byte(`{"type":"join","data":{"name":"A","role":"admin"}}`))
	s.take()
	ctl.handleSignal("a", []byte(`{"type":"leaveChat"}`))
	ins := s.take()
	req.Equal(domain.EventLeft, ins[len(ins)-1].Event)

	ctl.handleSignal("a", []byte(`{"type":"getRoomState"}`))
	req.Empty(s.take())
}
