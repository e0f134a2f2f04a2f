package domain

import (
	"encoding/json"
	"time"
)

// Normalize repairs a raw stored room document into a well-formed Room.
// It is applied on every read, before any operation inspects the document,
// and is idempotent: normalizing an already-normalized room is a no-op.
// Malformed fields are coerced to defaults instead of surfacing errors.
func Normalize(raw json.RawMessage, roomCode string) *Room {
	var decoded any
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &decoded)
	}
	return normalizeValue(decoded, roomCode, time.Now().UTC())
}

func normalizeValue(decoded any, roomCode string, now time.Time) *Room {
	m, ok := decoded.(map[string]any)
	if !ok {
		return &Room{
			Code:               NormalizeRoomCode(roomCode),
			Name:               DefaultRoomName,
			CreatedAt:          now,
			Members:            []string{},
			Entries:            []*Entry{},
			LotteryAssignments: map[string]*Assignment{},
			PushSubscriptions:  map[string][]PushSubscription{},
		}
	}

	room := &Room{
		Code:      NormalizeRoomCode(firstNonEmpty(asString(m["code"]), roomCode)),
		Name:      firstNonEmpty(asString(m["name"]), DefaultRoomName),
		CreatedAt: asTime(m["createdAt"], now),
	}

	room.Members = normalizeMembers(m["members"])
	room.HostNickname = NormalizeNickname(asString(m["hostNickname"]))
	if room.HostNickname == "" && len(room.Members) > 0 {
		room.HostNickname = room.Members[0]
	}

	room.Entries = normalizeEntries(m["entries"], room.Code, now)
	room.LotteryAssignments = normalizeAssignments(m["lotteryAssignments"], now)
	room.PushSubscriptions = normalizeSubscriptions(m["pushSubscriptions"])

	return room
}

func normalizeMembers(v any) []string {
	members := []string{}
	seen := map[string]struct{}{}
	for _, item := range asList(v) {
		name := NormalizeNickname(asString(item))
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		members = append(members, name)
	}
	if len(members) > MaxRoomMembers {
		members = members[:MaxRoomMembers]
	}
	return members
}

func normalizeEntries(v any, roomCode string, now time.Time) []*Entry {
	entries := []*Entry{}
	for _, item := range asList(v) {
		em, ok := item.(map[string]any)
		if !ok {
			continue
		}
		entries = append(entries, &Entry{
			ID:        asString(em["id"]),
			RoomCode:  NormalizeRoomCode(firstNonEmpty(asString(em["roomCode"]), roomCode)),
			Author:    NormalizeNickname(asString(em["author"])),
			Date:      asString(em["date"]),
			Body:      asString(em["body"]),
			CreatedAt: asTime(em["createdAt"], now),
			Media:     normalizeMedia(em["media"]),
			Reactions: normalizeReactions(em["reactions"]),
			Comments:  normalizeComments(em["comments"], now),
		})
	}
	return entries
}

func normalizeMedia(v any) []MediaItem {
	media := []MediaItem{}
	for _, item := range asList(v) {
		mm, ok := item.(map[string]any)
		if !ok {
			continue
		}
		url := asString(mm["url"])
		if url == "" {
			continue
		}
		media = append(media, MediaItem{
			Name: firstNonEmpty(asString(mm["name"]), "file"),
			Type: firstNonEmpty(asString(mm["type"]), "application/octet-stream"),
			URL:  url,
		})
	}
	return media
}

func normalizeReactions(v any) map[string][]string {
	reactions := map[string][]string{}
	rm, ok := v.(map[string]any)
	if !ok {
		return reactions
	}
	for emoji, value := range rm {
		list, ok := value.([]any)
		if !ok {
			continue // non-list values are dropped
		}
		names := []string{}
		seen := map[string]struct{}{}
		for _, item := range list {
			name := NormalizeNickname(asString(item))
			if name == "" {
				continue
			}
			if _, dup := seen[name]; dup {
				continue
			}
			seen[name] = struct{}{}
			names = append(names, name)
		}
		if len(names) == 0 {
			continue // empty emoji keys are removed
		}
		reactions[emoji] = names
	}
	return reactions
}

func normalizeComments(v any, now time.Time) []Comment {
	comments := []Comment{}
	for _, item := range asList(v) {
		cm, ok := item.(map[string]any)
		if !ok {
			continue
		}
		comments = append(comments, Comment{
			ID:        asString(cm["id"]),
			Author:    NormalizeNickname(asString(cm["author"])),
			Body:      asString(cm["body"]),
			CreatedAt: asTime(cm["createdAt"], now),
		})
	}
	return comments
}

func normalizeAssignments(v any, now time.Time) map[string]*Assignment {
	assignments := map[string]*Assignment{}
	am, ok := v.(map[string]any)
	if !ok {
		return assignments
	}
	for date, value := range am {
		if !IsDateKey(date) {
			continue
		}
		item, ok := value.(map[string]any)
		if !ok {
			continue
		}

		var winners []string
		seen := map[string]struct{}{}
		source := asList(item["winners"])
		if source == nil {
			// legacy documents carried a single winner field
			source = []any{item["winner"]}
		}
		for _, w := range source {
			name := NormalizeNickname(asString(w))
			if name == "" {
				continue
			}
			if _, dup := seen[name]; dup {
				continue
			}
			seen[name] = struct{}{}
			winners = append(winners, name)
		}
		if len(winners) == 0 {
			continue // a dateless or winnerless assignment is dropped
		}

		assignments[date] = &Assignment{
			Winners: winners,
			DrawnBy: NormalizeNickname(asString(item["drawnBy"])),
			DrawnAt: asTime(item["drawnAt"], now),
		}
	}
	return assignments
}

func normalizeSubscriptions(v any) map[string][]PushSubscription {
	subs := map[string][]PushSubscription{}
	sm, ok := v.(map[string]any)
	if !ok {
		return subs
	}
	for nickname, value := range sm {
		name := NormalizeNickname(nickname)
		if name == "" {
			continue
		}
		list := []PushSubscription{}
		seen := map[string]struct{}{}
		for _, item := range asList(value) {
			im, ok := item.(map[string]any)
			if !ok {
				continue
			}
			endpoint := asString(im["endpoint"])
			if endpoint == "" {
				continue
			}
			if _, dup := seen[endpoint]; dup {
				continue
			}
			keys, _ := im["keys"].(map[string]any)
			seen[endpoint] = struct{}{}
			list = append(list, PushSubscription{
				Endpoint: endpoint,
				Keys: SubscriptionKeys{
					P256dh: asString(keys["p256dh"]),
					Auth:   asString(keys["auth"]),
				},
			})
		}
		if len(list) == 0 {
			continue
		}
		subs[name] = list
	}
	return subs
}

// --- coercion helpers ---

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asList(v any) []any {
	l, _ := v.([]any)
	return l
}

func asTime(v any, fallback time.Time) time.Time {
	if s, ok := v.(string); ok {
		if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
			return t
		}
	}
	return fallback
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
