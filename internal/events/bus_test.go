// Infodemic - Misinformation Crisis Simulation and Threat Detection
// Copyright 2026 Crisis Lab
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/crisislab/infodemic

package events

import (
	"context"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/crisislab/infodemic/internal/logging"
	"github.com/crisislab/infodemic/internal/models"
)

func TestBus_PublishSubscribe(t *testing.T) {
	bus := NewBus(logging.NewTestLogger(nil))
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	msgs, err := bus.Subscribe(ctx, TopicThreatDetected)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	want := ThreatDetected{
		ThreatID:  "t-1",
		ContentID: "c-1",
		Severity:  models.SeverityHigh,
		Score:     72,
		Reasons:   []string{"keyword match"},
		At:        time.Now().UTC(),
	}
	if err := bus.Publish(ctx, TopicThreatDetected, want); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	select {
	case msg := <-msgs:
		var got ThreatDetected
		if err := json.Unmarshal(msg.Payload, &got); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		msg.Ack()
		if got.ThreatID != want.ThreatID || got.Score != want.Score || got.Severity != want.Severity {
			t.Errorf("received %+v, want %+v", got, want)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
	}
}

func TestBus_PublishWithoutSubscribers(t *testing.T) {
	bus := NewBus(logging.NewTestLogger(nil))
	defer bus.Close()

	err := bus.Publish(context.Background(), TopicNewContent, NewContent{ContentID: "c-1"})
	if err != nil {
		t.Errorf("Publish without subscribers: %v", err)
	}
}

func TestBus_ClosedRejectsOperations(t *testing.T) {
	bus := NewBus(logging.NewTestLogger(nil))
	if err := bus.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := bus.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}

	if err := bus.Publish(context.Background(), TopicCrisisStarted, CrisisStarted{}); err == nil {
		t.Error("Publish on closed bus succeeded")
	}
	if _, err := bus.Subscribe(context.Background(), TopicCrisisStarted); err == nil {
		t.Error("Subscribe on closed bus succeeded")
	}
}
