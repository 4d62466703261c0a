// Package mqtt carries scans and speed commands over an MQTT broker.
//
// Scans arrive as JSON objects {"ranges":[...]} with one reading per degree;
// commands leave as {"direction":"LEFT","linear":0.1,"angular":1.2}.
package mqtt

import (
	"context"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// Client is the subset of paho.Client used by this package.
type Client interface {
	IsConnected() bool
	Publish(topic string, qos byte, retained bool, payload any) paho.Token
	Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token
	Unsubscribe(topics ...string) paho.Token
	Disconnect(quiesce uint)
}

// Dial connects to broker and returns the live client. The client reconnects
// on its own after a lost connection; subscriptions are restored by paho.
func Dial(ctx context.Context, broker, clientID string, timeout time.Duration) (paho.Client, error) {
	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetResumeSubs(true).
		SetCleanSession(false).
		SetConnectTimeout(timeout).
		SetOrderMatters(false)

	c := paho.NewClient(opts)
	if err := wait(ctx, c.Connect(), timeout); err != nil {
		return nil, fmt.Errorf("connect %s: %w", broker, err)
	}
	return c, nil
}

// wait blocks until tok completes, ctx ends or timeout elapses.
func wait(ctx context.Context, tok paho.Token, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-tok.Done():
		return tok.Error()
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return ErrTimeout
	}
}
