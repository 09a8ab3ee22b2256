package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"ats-evaluator/internal/storage"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedTime = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func testLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

func TestHubNotifyTargetsConnection(t *testing.T) {
	h := NewHub(testLogger())
	h.now = func() time.Time { return fixedTime }

	a := newClient(h, nil, "conn-a")
	b := newClient(h, nil, "conn-b")
	h.Register(a)
	h.Register(b)
	assert.Equal(t, 2, h.ClientCount())

	h.Notify(context.Background(), "conn-a", "Keywords extracted", 10)

	require.Len(t, a.send, 1)
	assert.Empty(t, b.send)

	var msg storage.ProgressMessage
	require.NoError(t, json.Unmarshal(<-a.send, &msg))
	assert.Equal(t, "conn-a", msg.SessionID)
	assert.Equal(t, "Keywords extracted", msg.Message)
	assert.Equal(t, 10, msg.Percent)
	assert.True(t, fixedTime.Equal(msg.Timestamp))
}

func TestHubUnknownConnectionIsIgnored(t *testing.T) {
	h := NewHub(testLogger())
	assert.False(t, h.Send("missing", []byte("x")))
	h.Notify(context.Background(), "missing", "ignored", 50)
	h.Notify(context.Background(), "", "ignored", 50)
}

func TestHubDropsWhenBufferFull(t *testing.T) {
	h := NewHub(testLogger())
	c := newClient(h, nil, "slow")
	h.Register(c)

	for i := 0; i < sendBufferSize; i++ {
		require.True(t, h.Send("slow", []byte("m")))
	}
	// 缓冲区已满，不阻塞直接丢弃
	assert.False(t, h.Send("slow", []byte("overflow")))
	assert.Len(t, c.send, sendBufferSize)
}

func TestHubRegisterReplacesAndUnregister(t *testing.T) {
	h := NewHub(testLogger())
	first := newClient(h, nil, "dup")
	second := newClient(h, nil, "dup")

	h.Register(first)
	h.Register(second)
	assert.Equal(t, 1, h.ClientCount())

	_, open := <-first.send
	assert.False(t, open, "被替换的连接发送通道应关闭")

	// 旧连接注销不影响新连接
	h.Unregister(first)
	assert.Equal(t, 1, h.ClientCount())

	h.Unregister(second)
	assert.Equal(t, 0, h.ClientCount())
	_, open = <-second.send
	assert.False(t, open)
}

func TestNilHubIsSafe(t *testing.T) {
	var h *Hub
	h.Notify(context.Background(), "x", "m", 1)
	assert.Equal(t, 0, h.ClientCount())
	assert.False(t, h.Send("x", nil))
}

type publishCall struct {
	exchange   string
	routingKey string
	data       interface{}
	persistent bool
}

type fakePublisher struct {
	calls []publishCall
	err   error
}

func (f *fakePublisher) PublishJSON(_ context.Context, exchange, routingKey string, data interface{}, persistent bool) error {
	f.calls = append(f.calls, publishCall{exchange, routingKey, data, persistent})
	return f.err
}

func TestAMQPNotifierPublishesProgress(t *testing.T) {
	pub := &fakePublisher{}
	n := NewAMQPNotifier(pub, "ats.progress", testLogger())
	n.now = func() time.Time { return fixedTime }

	n.Notify(context.Background(), "sess-1", "Evaluation finished", 100)

	require.Len(t, pub.calls, 1)
	call := pub.calls[0]
	assert.Equal(t, "ats.progress", call.exchange)
	assert.Equal(t, "progress.sess-1", call.routingKey)
	assert.False(t, call.persistent)
	assert.Equal(t, storage.ProgressMessage{
		SessionID: "sess-1",
		Message:   "Evaluation finished",
		Percent:   100,
		Timestamp: fixedTime,
	}, call.data)
}

func TestAMQPNotifierSwallowsErrors(t *testing.T) {
	pub := &fakePublisher{err: errors.New("channel closed")}
	n := NewAMQPNotifier(pub, "ats.progress", testLogger())

	assert.NotPanics(t, func() {
		n.Notify(context.Background(), "sess-1", "Evaluation started", 0)
	})
	assert.Len(t, pub.calls, 1)

	n.Notify(context.Background(), "", "no session", 5)
	assert.Len(t, pub.calls, 1)
}

type countingNotifier struct{ percents []int }

func (c *countingNotifier) Notify(_ context.Context, _, _ string, percent int) {
	c.percents = append(c.percents, percent)
}

func TestMultiNotifierFansOut(t *testing.T) {
	a, b := &countingNotifier{}, &countingNotifier{}
	m := NewMultiNotifier(a, nil, b, NoopNotifier{}, NewLogNotifier(testLogger()))
	assert.Len(t, m, 4)

	m.Notify(context.Background(), "s", "Evaluation started", 0)
	m.Notify(context.Background(), "s", "Evaluation finished", 100)

	assert.Equal(t, []int{0, 100}, a.percents)
	assert.Equal(t, []int{0, 100}, b.percents)
}
