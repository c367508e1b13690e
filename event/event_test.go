// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package event_test

import (
	"errors"
	"testing"
	"time"

	"github.com/blinklabs-io/ticketd/event"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func receive(t *testing.T, ch <-chan event.Event) event.Event {
	t.Helper()
	select {
	case evt, ok := <-ch:
		require.True(t, ok, "event channel closed unexpectedly")
		return evt
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}
	return event.Event{}
}

func TestEventBusSubscribers(t *testing.T) {
	eb := event.NewEventBus(nil, nil)
	defer eb.Stop()
	_, sub1 := eb.Subscribe(event.EventTypeTransfer)
	_, sub2 := eb.Subscribe(event.EventTypeTransfer)
	_, all := eb.Subscribe(event.EventTypeAll)
	_, mints := eb.Subscribe(event.EventTypeMint)

	eb.Publish(
		event.EventTypeTransfer,
		event.NewEvent(event.EventTypeTransfer, 999),
	)
	for _, ch := range []<-chan event.Event{sub1, sub2, all} {
		evt := receive(t, ch)
		assert.Equal(t, 999, evt.Data)
		assert.Equal(t, event.EventTypeTransfer, evt.Type)
	}
	select {
	case <-mints:
		t.Fatal("mint subscriber received a transfer event")
	default:
	}
}

func TestEventBusUnsubscribe(t *testing.T) {
	eb := event.NewEventBus(nil, nil)
	defer eb.Stop()
	subId, subCh := eb.Subscribe(event.EventTypeMint)
	eb.Unsubscribe(event.EventTypeMint, subId)
	eb.Publish(event.EventTypeMint, event.NewEvent(event.EventTypeMint, 1))
	_, ok := <-subCh
	assert.False(t, ok, "expected channel to be closed")
}

func TestEventBusSubscribeFunc(t *testing.T) {
	eb := event.NewEventBus(nil, nil)
	got := make(chan event.Event, 1)
	eb.SubscribeFunc(event.EventTypeMint, func(evt event.Event) {
		got <- evt
	})
	eb.Publish(event.EventTypeMint, event.NewEvent(event.EventTypeMint, "x"))
	evt := receive(t, got)
	assert.Equal(t, "x", evt.Data)
	// Stop closes the channel so the handler goroutine exits
	eb.Stop()
	eb.Stop()
}

func TestEventBusPublishAsync(t *testing.T) {
	eb := event.NewEventBus(nil, nil)
	_, ch := eb.Subscribe(event.EventTypeTransfer)
	require.True(t, eb.PublishAsync(
		event.EventTypeTransfer,
		event.NewEvent(event.EventTypeTransfer, 7),
	))
	evt := receive(t, ch)
	assert.Equal(t, 7, evt.Data)
	eb.Stop()
	assert.False(t, eb.PublishAsync(
		event.EventTypeTransfer,
		event.NewEvent(event.EventTypeTransfer, 8),
	))
}

type failingSubscriber struct {
	closed bool
}

func (f *failingSubscriber) Deliver(event.Event) error {
	return errors.New("deliver failed")
}

func (f *failingSubscriber) Close() {
	f.closed = true
}

func TestDeliverFailureUnregisters(t *testing.T) {
	reg := prometheus.NewRegistry()
	eb := event.NewEventBus(reg, nil)
	defer eb.Stop()
	sub := &failingSubscriber{}
	eb.RegisterSubscriber(event.EventTypeMint, sub)
	eb.Publish(event.EventTypeMint, event.NewEvent(event.EventTypeMint, 1))
	assert.True(t, sub.closed)

	count, err := testutil.GatherAndCount(reg, "event_bus_delivery_errors_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	// A second publish finds no subscriber
	eb.Publish(event.EventTypeMint, event.NewEvent(event.EventTypeMint, 2))
	count, err = testutil.GatherAndCount(reg, "event_bus_events_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSlowSubscriberKeepsRegistration(t *testing.T) {
	eb := event.NewEventBus(nil, nil)
	defer eb.Stop()
	_, ch := eb.Subscribe(event.EventTypeMint)
	// Overfill the buffer, the extra events are dropped
	for i := range event.EventQueueSize + 5 {
		eb.Publish(event.EventTypeMint, event.NewEvent(event.EventTypeMint, i))
	}
	for i := range event.EventQueueSize {
		evt := receive(t, ch)
		assert.Equal(t, i, evt.Data)
	}
	eb.Publish(event.EventTypeMint, event.NewEvent(event.EventTypeMint, "later"))
	evt := receive(t, ch)
	assert.Equal(t, "later", evt.Data)
}
