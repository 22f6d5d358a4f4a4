// Package notify broadcasts the prayer countdown over MQTT so that displays
// and speakers can show the next prayer and sound the athan.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/smokyabdulrahman/namaz/internal/prayer"
	"github.com/smokyabdulrahman/namaz/internal/schedule"
)

// Publisher sends a payload to a topic. Retained messages are kept by the
// broker for late subscribers.
type Publisher interface {
	Publish(topic string, retained bool, payload []byte) error
}

// Message is the JSON published on both topics.
type Message struct {
	Prayer    string    `json:"prayer"`
	Time      time.Time `json:"time"`
	Remaining string    `json:"remaining"`
	Now       bool      `json:"now"`
	Tomorrow  bool      `json:"tomorrow,omitempty"`
}

// Announcer publishes every countdown reading to <topic>/next and each
// reached prayer time once to <topic>/athan.
type Announcer struct {
	pub       Publisher
	topic     string
	countdown *prayer.Countdown

	mu        sync.Mutex
	lastAthan time.Time
}

func NewAnnouncer(pub Publisher, topic string, source prayer.DaySource) *Announcer {
	return &Announcer{
		pub:       pub,
		topic:     topic,
		countdown: prayer.NewCountdown(source),
	}
}

// NextTopic and AthanTopic are the topics the announcer writes to.
func (a *Announcer) NextTopic() string  { return a.topic + "/next" }
func (a *Announcer) AthanTopic() string { return a.topic + "/athan" }

// Run starts publishing every interval. Stop the returned task to end it.
func (a *Announcer) Run(ctx context.Context, interval time.Duration) *schedule.Task {
	return a.countdown.Run(ctx, interval, a.handle)
}

func (a *Announcer) handle(st prayer.State, err error) {
	if err != nil {
		log.Warn().Err(err).Msg("countdown unavailable, skipping announcement")
		return
	}
	if err := a.Announce(st); err != nil {
		log.Error().Err(err).Str("prayer", string(st.Next.Prayer)).Msg("announce failed")
	}
}

// Announce publishes one reading.
func (a *Announcer) Announce(st prayer.State) error {
	msg := Message{
		Prayer:    string(st.Next.Prayer),
		Time:      st.Target,
		Remaining: st.Label,
		Now:       st.Arrived,
		Tomorrow:  st.Next.Tomorrow,
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal announcement: %w", err)
	}

	if err := a.pub.Publish(a.NextTopic(), true, payload); err != nil {
		return fmt.Errorf("publish %s: %w", a.NextTopic(), err)
	}

	if !st.Arrived || !a.markAthan(st.Target) {
		return nil
	}
	if err := a.pub.Publish(a.AthanTopic(), false, payload); err != nil {
		return fmt.Errorf("publish %s: %w", a.AthanTopic(), err)
	}
	log.Info().Str("prayer", msg.Prayer).Time("time", msg.Time).Msg("athan announced")
	return nil
}

// markAthan reports whether target has not been announced yet.
func (a *Announcer) markAthan(target time.Time) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if target.Equal(a.lastAthan) {
		return false
	}
	a.lastAthan = target
	return true
}
