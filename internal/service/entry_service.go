package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/unitydai0310-hub/exchange-diary/internal/auth"
	"github.com/unitydai0310-hub/exchange-diary/internal/domain"
	"github.com/unitydai0310-hub/exchange-diary/internal/push"
	"github.com/unitydai0310-hub/exchange-diary/internal/store"
	"github.com/unitydai0310-hub/exchange-diary/internal/transport/stream"
)

type EntryService struct {
	store    store.RoomStore
	hub      *stream.Hub
	notifier *push.Notifier
}

func NewEntryService(st store.RoomStore, hub *stream.Hub, notifier *push.Notifier) *EntryService {
	return &EntryService{store: st, hub: hub, notifier: notifier}
}

type MediaInput struct {
	Name string `json:"name"`
	Type string `json:"type"`
	URL  string `json:"url"`
}

type PostEntryInput struct {
	Date  string       `json:"date"`
	Body  string       `json:"body"`
	Media []MediaInput `json:"media"`
}

// ReactionState is the public reaction payload, both the toggle response and
// the reaction-updated broadcast.
type ReactionState struct {
	EntryID   string              `json:"entryId"`
	Reactions map[string][]string `json:"reactions"`
}

// CommentResult pairs a new comment with its entry for response and broadcast.
type CommentResult struct {
	EntryID string         `json:"entryId"`
	Comment domain.Comment `json:"comment"`
}

// PostEntry appends the author's entry for a date. One entry per author per
// day; on a date with a non-empty assignment only its winners may post.
func (s *EntryService) PostEntry(ctx context.Context, sess *auth.Session, in PostEntryInput) (*domain.Entry, error) {
	date := strings.TrimSpace(in.Date)
	if !domain.IsDateKey(date) {
		return nil, validationf("date must be in YYYY-MM-DD form")
	}

	room, err := loadRoom(ctx, s.store, sess.RoomCode)
	if err != nil {
		return nil, err
	}

	if assignment := room.LotteryAssignments[date]; assignment != nil && len(assignment.Winners) > 0 {
		assigned := false
		for _, w := range assignment.Winners {
			if w == sess.Nickname {
				assigned = true
				break
			}
		}
		if !assigned {
			return nil, domain.ErrNotAssignee
		}
	}

	body := strings.TrimSpace(in.Body)
	media := sanitizeMedia(in.Media)
	if body == "" && len(media) == 0 {
		return nil, validationf("body or at least one media item is required")
	}

	if room.EntryByAuthorDate(sess.Nickname, date) != nil {
		return nil, domain.ErrEntryExists
	}

	entry := &domain.Entry{
		ID:        uuid.NewString(),
		RoomCode:  room.Code,
		Author:    sess.Nickname,
		Date:      date,
		Body:      body,
		CreatedAt: time.Now().UTC(),
		Media:     media,
		Reactions: map[string][]string{},
		Comments:  []domain.Comment{},
	}
	room.Entries = append(room.Entries, entry)

	if err := saveRoom(ctx, s.store, room); err != nil {
		return nil, err
	}

	s.hub.Broadcast(room.Code, stream.Event{Name: stream.EventEntryCreated, Payload: entry})
	go s.notifier.NotifyNewEntry(room, entry)

	return entry, nil
}

// ToggleReaction flips the actor's presence in an emoji's nickname list. The
// toggle is symmetric, not idempotent: two calls restore the original state.
func (s *EntryService) ToggleReaction(ctx context.Context, sess *auth.Session, entryID, emoji string) (*ReactionState, error) {
	if _, ok := domain.AllowedReactions[emoji]; !ok {
		return nil, domain.ErrInvalidReaction
	}

	room, err := loadRoom(ctx, s.store, sess.RoomCode)
	if err != nil {
		return nil, err
	}
	entry := room.FindEntry(entryID)
	if entry == nil {
		return nil, domain.ErrEntryNotFound
	}

	users := entry.Reactions[emoji]
	removed := false
	for i, name := range users {
		if name == sess.Nickname {
			users = append(users[:i], users[i+1:]...)
			removed = true
			break
		}
	}
	if !removed {
		users = append(users, sess.Nickname)
	}
	if len(users) == 0 {
		delete(entry.Reactions, emoji)
	} else {
		entry.Reactions[emoji] = users
	}

	if err := saveRoom(ctx, s.store, room); err != nil {
		return nil, err
	}

	state := &ReactionState{EntryID: entry.ID, Reactions: entry.Reactions}
	s.hub.Broadcast(room.Code, stream.Event{Name: stream.EventReactionUpdated, Payload: state})

	return state, nil
}

// AddComment appends a length-bounded comment to an entry.
func (s *EntryService) AddComment(ctx context.Context, sess *auth.Session, entryID, body string) (*CommentResult, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, validationf("comment body is required")
	}
	if len([]rune(body)) > domain.MaxCommentLength {
		return nil, validationf("comment must be at most %d characters", domain.MaxCommentLength)
	}

	room, err := loadRoom(ctx, s.store, sess.RoomCode)
	if err != nil {
		return nil, err
	}
	entry := room.FindEntry(entryID)
	if entry == nil {
		return nil, domain.ErrEntryNotFound
	}

	comment := domain.Comment{
		ID:        uuid.NewString(),
		Author:    sess.Nickname,
		Body:      body,
		CreatedAt: time.Now().UTC(),
	}
	entry.Comments = append(entry.Comments, comment)

	if err := saveRoom(ctx, s.store, room); err != nil {
		return nil, err
	}

	result := &CommentResult{EntryID: entry.ID, Comment: comment}
	s.hub.Broadcast(room.Code, stream.Event{Name: stream.EventCommentAdded, Payload: result})

	return result, nil
}

func sanitizeMedia(in []MediaInput) []domain.MediaItem {
	if len(in) > domain.MaxMediaPerPost {
		in = in[:domain.MaxMediaPerPost]
	}
	out := []domain.MediaItem{}
	for _, m := range in {
		url := strings.TrimSpace(m.URL)
		if url == "" {
			continue
		}
		name := m.Name
		if name == "" {
			name = "file"
		}
		typ := m.Type
		if typ == "" {
			typ = "application/octet-stream"
		}
		out = append(out, domain.MediaItem{Name: name, Type: typ, URL: url})
	}
	return out
}
