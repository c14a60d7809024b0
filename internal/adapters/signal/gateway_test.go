package signal

import (
	"context"
	"testing"

	"github.com/dkeye/Duet/internal/app"
	"github.com/dkeye/Duet/internal/core"
	"github.com/dkeye/Duet/internal/domain"
	"github.com/dkeye/Duet/internal/mocks"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestEncode(t *testing.T) {
	b, err := Encode(domain.EventPendingCountChanged, domain.PendingCountPayload{Count: 2})
	require.NoError(t, err)
	require.JSONEq(t, `{"type":"pendingCountChanged","data":{"count":2}}`, string(b))
}

func TestGateway_Targets(t *testing.T) {
	ctrl := gomock.NewController(t)
	conns := app.NewRegistry()
	a := mocks.NewMockSignalConnection(ctrl)
	b := mocks.NewMockSignalConnection(ctrl)
	conns.Bind("a", a, nil, "")
	conns.Bind("b", b, nil, "")

	pong, _ := Encode(domain.EventPong, domain.PongPayload{})
	left, _ := Encode(domain.EventLeft, domain.LeftPayload{})
	typing, _ := Encode(domain.EventUserStoppedTyping, domain.UserStoppedTypingPayload{OccupantID: "a"})

	gomock.InOrder(
		a.EXPECT().TrySend(core.Frame(pong)).Return(nil),
		a.EXPECT().TrySend(core.Frame(left)).Return(nil),
	)
	b.EXPECT().TrySend(core.Frame(left)).Return(nil)
	b.EXPECT().TrySend(core.Frame(typing)).Return(nil)

	g := NewGateway(conns, nil)
	g.Deliver([]core.Instruction{
		{To: core.Unicast("a"), Event: domain.EventPong, Payload: domain.PongPayload{}},
		{To: core.Unicast("gone"), Event: domain.EventPong, Payload: domain.PongPayload{}},
		{To: core.Broadcast(), Event: domain.EventLeft, Payload: domain.LeftPayload{}},
		{To: core.BroadcastExcept("a"), Event: domain.EventUserStoppedTyping, Payload: domain.UserStoppedTypingPayload{OccupantID: "a"}},
	})
}

func TestGateway_BackpressureKicksSlowClient(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	conns := app.NewRegistry()
	slow := mocks.NewMockSignalConnection(ctrl)
	ctx, cancel := context.WithCancel(context.Background())
	conns.Bind("slow", slow, cancel, "")

	slow.EXPECT().TrySend(gomock.Any()).Return(ErrBackpressure)

	NewGateway(conns, app.SimplePolicy{}).Deliver([]core.Instruction{
		{To: core.Broadcast(), Event: domain.EventPong, Payload: domain.PongPayload{}},
	})
	req.ErrorIs(ctx.Err(), context.Canceled)
}

func TestGateway_LenientPolicyKeepsClient(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	conns := app.NewRegistry()
	slow := mocks.NewMockSignalConnection(ctrl)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	conns.Bind("slow", slow, cancel, "")

	slow.EXPECT().TrySend(gomock.Any()).Return(ErrBackpressure)

	NewGateway(conns, app.LenientPolicy{}).Deliver([]core.Instruction{
		{To: core.Unicast("slow"), Event: domain.EventPong, Payload: domain.PongPayload{}},
	})
	req.NoError(ctx.Err())
}

func TestWsSignalConn_TrySendAfterClose(t *testing.T) {
	c := &WsSignalConn{send: make(chan core.Frame, 1), closed: true}
	require.ErrorIs(t, c.TrySend(core.Frame("x")), ErrConnClosed)

	c = &WsSignalConn{send: make(chan core.Frame, 1)}
	require.NoError(t, c.TrySend(core.Frame("x")))
	require.ErrorIs(t, c.TrySend(core.Frame("y")), ErrBackpressure)
	require.Equal(t, core.Frame("x"), <-c.send)
}
