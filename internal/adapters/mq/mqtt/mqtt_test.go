package mqtt_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/slalom/internal/adapters/mq/mqtt"
	"github.com/okian/slalom/internal/domain/model"
	"github.com/okian/slalom/pkg/logger"
)

func init() {
	_ = logger.Init()
}

// doneToken is an already completed token.
type doneToken struct{ err error }

func (t doneToken) Wait() bool                     { return true }
func (t doneToken) WaitTimeout(time.Duration) bool { return true }
func (t doneToken) Error() error                   { return t.err }
func (t doneToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

// stuckToken never completes.
type stuckToken struct{}

func (stuckToken) Wait() bool                     { return false }
func (stuckToken) WaitTimeout(time.Duration) bool { return false }
func (stuckToken) Error() error                   { return nil }
func (stuckToken) Done() <-chan struct{}          { return make(chan struct{}) }

type fakeMessage struct {
	topic   string
	payload []byte
}

func (m fakeMessage) Duplicate() bool   { return false }
func (m fakeMessage) Qos() byte         { return 1 }
func (m fakeMessage) Retained() bool    { return false }
func (m fakeMessage) Topic() string     { return m.topic }
func (m fakeMessage) MessageID() uint16 { return 1 }
func (m fakeMessage) Payload() []byte   { return m.payload }
func (m fakeMessage) Ack()              {}

type fakeClient struct {
	mu           sync.Mutex
	connected    bool
	handlers     map[string]paho.MessageHandler
	published    map[string][][]byte
	unsubscribed []string
	publishTok   paho.Token
	subscribeErr error
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		connected: true,
		handlers:  make(map[string]paho.MessageHandler),
		published: make(map[string][][]byte),
	}
}

func (c *fakeClient) IsConnected() bool { return c.connected }

func (c *fakeClient) Publish(topic string, _ byte, _ bool, payload any) paho.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.publishTok != nil {
		return c.publishTok
	}
	c.published[topic] = append(c.published[topic], payload.([]byte))
	return doneToken{}
}

func (c *fakeClient) Subscribe(topic string, _ byte, cb paho.MessageHandler) paho.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.subscribeErr != nil {
		return doneToken{err: c.subscribeErr}
	}
	c.handlers[topic] = cb
	return doneToken{}
}

func (c *fakeClient) Unsubscribe(topics ...string) paho.Token {
	c.unsubscribed = append(c.unsubscribed, topics...)
	return doneToken{}
}

func (c *fakeClient) Disconnect(uint) {}

func (c *fakeClient) deliver(topic string, payload []byte) {
	c.mu.Lock()
	cb := c.handlers[topic]
	c.mu.Unlock()
	cb(nil, fakeMessage{topic: topic, payload: payload})
}

func scanJSON(v float64) []byte {
	ranges := make([]float64, model.ScanBins)
	for i := range ranges {
		ranges[i] = v
	}
	b, _ := json.Marshal(map[string]any{"ranges": ranges})
	return b
}

func TestDecodeScan(t *testing.T) {
	convey.Convey("Given scan payloads", t, func() {
		convey.Convey("Then a full scan should decode", func() {
			scan, err := mqtt.DecodeScan(scanJSON(1.5), time.Unix(1, 0))
			convey.So(err, convey.ShouldBeNil)
			convey.So(scan.Ranges[359], convey.ShouldEqual, 1.5)
		})

		convey.Convey("Then junk should be malformed", func() {
			_, err := mqtt.DecodeScan([]byte("{not json"), time.Now())
			convey.So(errors.Is(err, model.ErrMalformedScan), convey.ShouldBeTrue)
		})

		convey.Convey("Then a short scan should be malformed", func() {
			_, err := mqtt.DecodeScan([]byte(`{"ranges":[1,2,3]}`), time.Now())
			convey.So(errors.Is(err, model.ErrMalformedScan), convey.ShouldBeTrue)
		})
	})
}

func TestSource(t *testing.T) {
	convey.Convey("Given a source subscribed to robot/scan", t, func() {
		ctx := context.Background()
		client := newFakeClient()
		src, err := mqtt.NewSource(ctx, client, "robot/scan", mqtt.WithBuffer(2))
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("When a scan arrives", func() {
			client.deliver("robot/scan", scanJSON(0.8))
			scan, err := src.Fetch(ctx)

			convey.Convey("Then Fetch should return it", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(scan.Ranges[0], convey.ShouldEqual, 0.8)
				convey.So(scan.TS.IsZero(), convey.ShouldBeFalse)
			})
		})

		convey.Convey("When more scans arrive than the buffer holds", func() {
			client.deliver("robot/scan", scanJSON(1))
			client.deliver("robot/scan", scanJSON(2))
			client.deliver("robot/scan", scanJSON(3))

			first, _ := src.Fetch(ctx)
			second, _ := src.Fetch(ctx)

			convey.Convey("Then the oldest should be dropped", func() {
				convey.So(first.Ranges[0], convey.ShouldEqual, 2)
				convey.So(second.Ranges[0], convey.ShouldEqual, 3)
			})
		})

		convey.Convey("When a malformed payload arrives", func() {
			client.deliver("robot/scan", []byte(`{"ranges":[]}`))
			fetchCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
			defer cancel()
			_, err := src.Fetch(fetchCtx)

			convey.Convey("Then nothing should be delivered", func() {
				convey.So(errors.Is(err, context.DeadlineExceeded), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the source is closed", func() {
			convey.So(src.Close(), convey.ShouldBeNil)
			convey.So(src.Close(), convey.ShouldBeNil)
			_, err := src.Fetch(ctx)

			convey.Convey("Then Fetch should fail and the topic be released", func() {
				convey.So(errors.Is(err, mqtt.ErrClosed), convey.ShouldBeTrue)
				convey.So(client.unsubscribed, convey.ShouldResemble, []string{"robot/scan"})
			})
		})
	})

	convey.Convey("Given a broker that refuses the subscription", t, func() {
		client := newFakeClient()
		client.subscribeErr = errors.New("not authorized")
		_, err := mqtt.NewSource(context.Background(), client, "robot/scan")

		convey.So(err, convey.ShouldNotBeNil)
		convey.So(err.Error(), convey.ShouldContainSubstring, "subscribe robot/scan")
	})
}

func TestSink(t *testing.T) {
	convey.Convey("Given a sink publishing to robot/cmd_vel", t, func() {
		ctx := context.Background()
		client := newFakeClient()
		sink := mqtt.NewSink(client, "robot/cmd_vel", mqtt.WithSinkTimeout(20*time.Millisecond))

		convey.Convey("When a command is dispatched", func() {
			err := sink.Dispatch(ctx, model.NewSpeedCommand(model.DirectionRight, 0.05, 1.2))

			convey.Convey("Then the JSON command should be published", func() {
				convey.So(err, convey.ShouldBeNil)
				msgs := client.published["robot/cmd_vel"]
				convey.So(msgs, convey.ShouldHaveLength, 1)
				body := string(msgs[0])
				convey.So(strings.Contains(body, `"direction":"RIGHT"`), convey.ShouldBeTrue)
				convey.So(strings.Contains(body, `"angular":-1.2`), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the client is offline", func() {
			client.connected = false
			err := sink.Dispatch(ctx, model.SpeedCommand{})
			convey.So(errors.Is(err, mqtt.ErrNotConnected), convey.ShouldBeTrue)
		})

		convey.Convey("When the broker never acknowledges", func() {
			client.publishTok = stuckToken{}
			err := sink.Dispatch(ctx, model.SpeedCommand{})
			convey.So(errors.Is(err, mqtt.ErrTimeout), convey.ShouldBeTrue)
		})
	})
}
