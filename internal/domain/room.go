package domain

import (
	"sort"
	"time"
)

const (
	MaxMediaPerPost  = 3
	MaxRoomMembers   = 30
	DailyWinnerCount = 3
	MaxCommentLength = 300

	DefaultRoomName = "交換日記ルーム"
)

// AllowedReactions is the fixed emoji set an entry can be reacted with.
var AllowedReactions = map[string]struct{}{
	"👍": {}, "❤️": {}, "😂": {}, "👏": {}, "✨": {}, "🙏": {},
}

type Room struct {
	Code               string                        `json:"code"`
	Name               string                        `json:"name"`
	CreatedAt          time.Time                     `json:"createdAt"`
	HostNickname       string                        `json:"hostNickname"`
	Members            []string                      `json:"members"`
	Entries            []*Entry                      `json:"entries"`
	LotteryAssignments map[string]*Assignment        `json:"lotteryAssignments"`
	PushSubscriptions  map[string][]PushSubscription `json:"pushSubscriptions"`
}

type Entry struct {
	ID        string              `json:"id"`
	RoomCode  string              `json:"roomCode"`
	Author    string              `json:"author"`
	Date      string              `json:"date"`
	Body      string              `json:"body"`
	CreatedAt time.Time           `json:"createdAt"`
	Media     []MediaItem         `json:"media"`
	Reactions map[string][]string `json:"reactions"`
	Comments  []Comment           `json:"comments"`
}

type MediaItem struct {
	Name string `json:"name"`
	Type string `json:"type"`
	URL  string `json:"url"`
}

type Comment struct {
	ID        string    `json:"id"`
	Author    string    `json:"author"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}

// Assignment is the lottery outcome for one date key. Once winners is
// non-empty the assignment never changes.
type Assignment struct {
	Winners []string  `json:"winners"`
	DrawnBy string    `json:"drawnBy"`
	DrawnAt time.Time `json:"drawnAt"`
}

type PushSubscription struct {
	Endpoint string           `json:"endpoint"`
	Keys     SubscriptionKeys `json:"keys"`
}

type SubscriptionKeys struct {
	P256dh string `json:"p256dh"`
	Auth   string `json:"auth"`
}

// FindEntry returns the entry with the given id, or nil.
func (r *Room) FindEntry(entryID string) *Entry {
	for _, e := range r.Entries {
		if e.ID == entryID {
			return e
		}
	}
	return nil
}

// EntryByAuthorDate returns the author's entry for a date, or nil.
func (r *Room) EntryByAuthorDate(author, date string) *Entry {
	for _, e := range r.Entries {
		if e.Author == author && e.Date == date {
			return e
		}
	}
	return nil
}

func (r *Room) HasMember(nickname string) bool {
	for _, m := range r.Members {
		if m == nickname {
			return true
		}
	}
	return false
}

// SortedEntries returns entries ordered by date descending, ties broken by
// creation time descending. Storage order is left untouched.
func (r *Room) SortedEntries() []*Entry {
	out := make([]*Entry, len(r.Entries))
	copy(out, r.Entries)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date > out[j].Date
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}
