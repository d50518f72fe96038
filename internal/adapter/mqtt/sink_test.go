package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/couchcryptid/climacell-weather-etl/internal/domain"
	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeToken struct {
	err      error
	timedOut bool
}

func (t *fakeToken) Wait() bool                     { return !t.timedOut }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return !t.timedOut }
func (t *fakeToken) Error() error                   { return t.err }

func (t *fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

type published struct {
	topic   string
	payload []byte
}

type fakePublisher struct {
	mu           sync.Mutex
	messages     []published
	failTopic    string
	timeoutTopic string
	disconnected bool
}

func (f *fakePublisher) Publish(topic string, _ byte, _ bool, payload interface{}) paho.Token {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch topic {
	case f.failTopic:
		return &fakeToken{err: errors.New("broker rejected")}
	case f.timeoutTopic:
		return &fakeToken{timedOut: true}
	}
	f.messages = append(f.messages, published{topic: topic, payload: payload.([]byte)})
	return &fakeToken{}
}

func (f *fakePublisher) Disconnect(uint) { f.disconnected = true }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testUpdates() []domain.DriverUpdate {
	at := time.Date(2021, 6, 21, 12, 0, 0, 0, time.UTC)
	return []domain.DriverUpdate{
		{Node: domain.CurrentNode, Driver: "CLITEMP", Value: 72.5, UOM: 17, Precision: 1, EmittedAt: at},
		{Node: domain.ForecastNode(0), Driver: "GV20", Value: 0.24, UOM: 120, Precision: 3, EmittedAt: at},
	}
}

func TestTopic(t *testing.T) {
	u := domain.DriverUpdate{Node: "forecast_3", Driver: "GV0"}
	assert.Equal(t, "climacell/forecast_3/GV0", Topic("climacell", u))
	assert.Equal(t, "forecast_3/GV0", Topic("", u))
}

func TestLoadBatch_PublishesEachUpdate(t *testing.T) {
	pub := &fakePublisher{}
	sink := newSink(pub, "climacell", discardLogger())

	require.NoError(t, sink.LoadBatch(context.Background(), testUpdates()))

	require.Len(t, pub.messages, 2)
	assert.Equal(t, "climacell/weather/CLITEMP", pub.messages[0].topic)
	assert.Equal(t, "climacell/forecast_0/GV20", pub.messages[1].topic)

	var got domain.DriverUpdate
	require.NoError(t, json.Unmarshal(pub.messages[0].payload, &got))
	assert.Equal(t, testUpdates()[0], got)
}

func TestLoadBatch_ContinuesPastFailures(t *testing.T) {
	tests := []struct {
		name string
		pub  *fakePublisher
		want error
	}{
		{
			name: "broker error",
			pub:  &fakePublisher{failTopic: "climacell/weather/CLITEMP"},
		},
		{
			name: "timeout",
			pub:  &fakePublisher{timeoutTopic: "climacell/weather/CLITEMP"},
			want: ErrPublishTimeout,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := newSink(tt.pub, "climacell", discardLogger())

			err := sink.LoadBatch(context.Background(), testUpdates())
			require.Error(t, err)
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
			}
			require.Len(t, tt.pub.messages, 1)
			assert.Equal(t, "climacell/forecast_0/GV20", tt.pub.messages[0].topic)
		})
	}
}

func TestLoadBatch_StopsOnCanceledContext(t *testing.T) {
	pub := &fakePublisher{}
	sink := newSink(pub, "climacell", discardLogger())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := sink.LoadBatch(ctx, testUpdates())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, pub.messages)
}

func TestClose_Disconnects(t *testing.T) {
	pub := &fakePublisher{}
	sink := newSink(pub, "climacell", discardLogger())
	require.NoError(t, sink.Close())
	assert.True(t, pub.disconnected)
}
