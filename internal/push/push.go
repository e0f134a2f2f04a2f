// Package push delivers best-effort web-push notifications to externally
// registered endpoints. Delivery failures are swallowed; nothing here may
// block or fail the mutation that triggered it.
package push

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	webpush "github.com/SherClockHolmes/webpush-go"

	"github.com/unitydai0310-hub/exchange-diary/internal/domain"
)

type Payload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url"`
}

type Notifier struct {
	publicKey  string
	privateKey string
	subject    string
	ttl        int
}

// NewNotifier configures VAPID delivery. With empty key material the notifier
// stays a no-op, matching a deployment without push configured.
func NewNotifier(publicKey, privateKey, subject string) *Notifier {
	return &Notifier{
		publicKey:  publicKey,
		privateKey: privateKey,
		subject:    subject,
		ttl:        int((12 * time.Hour).Seconds()),
	}
}

func (n *Notifier) Enabled() bool {
	return n.publicKey != "" && n.privateKey != "" && n.subject != ""
}

func (n *Notifier) PublicKey() string {
	return n.publicKey
}

// Send pushes the payload to every subscription, deduplicated by endpoint
// (last registered wins), each delivery independent and in parallel. Expired
// endpoints and network errors are logged at debug and otherwise ignored.
func (n *Notifier) Send(subs []domain.PushSubscription, payload Payload) {
	if !n.Enabled() || len(subs) == 0 {
		return
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return
	}

	var wg sync.WaitGroup
	for _, sub := range dedupeByEndpoint(subs) {
		wg.Add(1)
		go func(sub domain.PushSubscription) {
			defer wg.Done()
			resp, err := webpush.SendNotification(body, &webpush.Subscription{
				Endpoint: sub.Endpoint,
				Keys: webpush.Keys{
					P256dh: sub.Keys.P256dh,
					Auth:   sub.Keys.Auth,
				},
			}, &webpush.Options{
				Subscriber:      n.subject,
				VAPIDPublicKey:  n.publicKey,
				VAPIDPrivateKey: n.privateKey,
				TTL:             n.ttl,
			})
			if err != nil {
				slog.Debug("push delivery failed", "endpoint", sub.Endpoint, "err", err)
				return
			}
			_ = resp.Body.Close()
		}(sub)
	}
	wg.Wait()
}

// NotifyNewEntry pushes to every member's subscriptions except the author's.
func (n *Notifier) NotifyNewEntry(room *domain.Room, entry *domain.Entry) {
	var subs []domain.PushSubscription
	for nickname, list := range room.PushSubscriptions {
		if nickname == entry.Author {
			continue
		}
		subs = append(subs, list...)
	}
	n.Send(subs, Payload{
		Title: fmt.Sprintf("%s に新しい日記", room.Name),
		Body:  fmt.Sprintf("%s さんが %s の日記を投稿しました", entry.Author, entry.Date),
		URL:   fmt.Sprintf("/?room=%s", room.Code),
	})
}

// NotifyLotteryWinners pushes only to the drawn winners.
func (n *Notifier) NotifyLotteryWinners(room *domain.Room, date string, winners []string) {
	var subs []domain.PushSubscription
	for _, winner := range winners {
		subs = append(subs, room.PushSubscriptions[winner]...)
	}
	n.Send(subs, Payload{
		Title: fmt.Sprintf("%s の担当抽選", room.Name),
		Body:  fmt.Sprintf("%s の担当に選ばれました", date),
		URL:   fmt.Sprintf("/?room=%s", room.Code),
	})
}

func dedupeByEndpoint(subs []domain.PushSubscription) []domain.PushSubscription {
	index := map[string]int{}
	out := make([]domain.PushSubscription, 0, len(subs))
	for _, sub := range subs {
		if sub.Endpoint == "" {
			continue
		}
		if i, ok := index[sub.Endpoint]; ok {
			out[i] = sub
			continue
		}
		index[sub.Endpoint] = len(out)
		out = append(out, sub)
	}
	return out
}
