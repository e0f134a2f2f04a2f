package service

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/unitydai0310-hub/exchange-diary/internal/auth"
	"github.com/unitydai0310-hub/exchange-diary/internal/domain"
	"github.com/unitydai0310-hub/exchange-diary/internal/push"
	"github.com/unitydai0310-hub/exchange-diary/internal/store"
	"github.com/unitydai0310-hub/exchange-diary/internal/transport/stream"
)

type testServices struct {
	store   *store.FileStore
	rooms   *RoomService
	entries *EntryService
	lottery *LotteryService
	subs    *SubscriptionService
}

func newTestServices(t *testing.T) *testServices {
	t.Helper()

	st := store.NewFileStore(filepath.Join(t.TempDir(), "rooms.json"))
	codec := auth.NewCodec("test-secret")
	hub := stream.NewHub()
	notifier := push.NewNotifier("", "", "")

	return &testServices{
		store:   st,
		rooms:   NewRoomService(st, codec),
		entries: NewEntryService(st, hub, notifier),
		lottery: NewLotteryService(st, hub, notifier),
		subs:    NewSubscriptionService(st),
	}
}

func session(roomCode, nickname string) *auth.Session {
	return &auth.Session{RoomCode: roomCode, Nickname: nickname}
}

func TestCreateRoom(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	svc := newTestServices(t)

	res, err := svc.rooms.CreateRoom(ctx, " Aya ", "")
	req.NoError(err)
	req.Len(res.RoomCode, domain.RoomCodeLength)
	req.Equal(domain.DefaultRoomName, res.RoomName)
	req.Equal("Aya", res.Nickname)
	req.NotEmpty(res.Token)

	snap, err := svc.rooms.GetRoom(ctx, session(res.RoomCode, "Aya"))
	req.NoError(err)
	req.Equal([]string{"Aya"}, snap.Room.Members)
	req.Equal("Aya", snap.Room.HostNickname)
	req.False(snap.MePushEnabled)
}

func TestCreateRoomRequiresNickname(t *testing.T) {
	req := require.New(t)
	svc := newTestServices(t)

	_, err := svc.rooms.CreateRoom(context.Background(), "   ", "room")
	req.ErrorIs(err, domain.ErrValidation)
}

func TestJoinRoomIsIdempotent(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	svc := newTestServices(t)

	created, err := svc.rooms.CreateRoom(ctx, "Aya", "room")
	req.NoError(err)

	joined, err := svc.rooms.JoinRoom(ctx, created.RoomCode, "Bob")
	req.NoError(err)
	req.NotEmpty(joined.Token)

	again, err := svc.rooms.JoinRoom(ctx, " "+created.RoomCode+" ", "Bob")
	req.NoError(err)
	req.NotEmpty(again.Token)

	snap, err := svc.rooms.GetRoom(ctx, session(created.RoomCode, "Bob"))
	req.NoError(err)
	req.Equal([]string{"Aya", "Bob"}, snap.Room.Members)
}

func TestJoinRoomNotFound(t *testing.T) {
	req := require.New(t)
	svc := newTestServices(t)

	_, err := svc.rooms.JoinRoom(context.Background(), "NOPE42", "Bob")
	req.ErrorIs(err, domain.ErrRoomNotFound)
}

func TestJoinRoomFull(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	svc := newTestServices(t)

	created, err := svc.rooms.CreateRoom(ctx, "m0", "room")
	req.NoError(err)
	for i := 1; i < domain.MaxRoomMembers; i++ {
		_, err := svc.rooms.JoinRoom(ctx, created.RoomCode, "m"+string(rune('A'+i)))
		req.NoError(err)
	}

	_, err = svc.rooms.JoinRoom(ctx, created.RoomCode, "overflow")
	req.ErrorIs(err, domain.ErrRoomFull)

	// an existing member still gets a token from a full room
	_, err = svc.rooms.JoinRoom(ctx, created.RoomCode, "m0")
	req.NoError(err)
}

func TestPostEntry(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	svc := newTestServices(t)

	created, err := svc.rooms.CreateRoom(ctx, "Aya", "room")
	req.NoError(err)
	_, err = svc.rooms.JoinRoom(ctx, created.RoomCode, "Bob")
	req.NoError(err)

	aya := session(created.RoomCode, "Aya")
	bob := session(created.RoomCode, "Bob")

	entry, err := svc.entries.PostEntry(ctx, aya, PostEntryInput{Date: "2024-06-01", Body: "  hello  "})
	req.NoError(err)
	req.NotEmpty(entry.ID)
	req.Equal("hello", entry.Body)
	req.Equal("Aya", entry.Author)

	// different author, same date
	_, err = svc.entries.PostEntry(ctx, bob, PostEntryInput{Date: "2024-06-01", Body: "hi"})
	req.NoError(err)

	// same author, same date
	_, err = svc.entries.PostEntry(ctx, aya, PostEntryInput{Date: "2024-06-01", Body: "again"})
	req.ErrorIs(err, domain.ErrEntryExists)

	// same author, different date
	_, err = svc.entries.PostEntry(ctx, aya, PostEntryInput{Date: "2024-06-02", Body: "next"})
	req.NoError(err)

	snap, err := svc.rooms.GetRoom(ctx, aya)
	req.NoError(err)
	req.Len(snap.Entries, 3)
	req.Equal("2024-06-02", snap.Entries[0].Date, "newest date first")
}

func TestPostEntryValidation(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	svc := newTestServices(t)

	created, err := svc.rooms.CreateRoom(ctx, "Aya", "room")
	req.NoError(err)
	aya := session(created.RoomCode, "Aya")

	_, err = svc.entries.PostEntry(ctx, aya, PostEntryInput{Date: "June 1st", Body: "x"})
	req.ErrorIs(err, domain.ErrValidation)

	_, err = svc.entries.PostEntry(ctx, aya, PostEntryInput{Date: "2024-06-01", Body: "   "})
	req.ErrorIs(err, domain.ErrValidation)

	// a media-only post is fine; blank media slots are dropped
	entry, err := svc.entries.PostEntry(ctx, aya, PostEntryInput{
		Date: "2024-06-01",
		Media: []MediaInput{
			{URL: "   "},
			{URL: "https://cdn.example/a.png"},
		},
	})
	req.NoError(err)
	req.Len(entry.Media, 1)
	req.Equal("file", entry.Media[0].Name)
}

func TestPostEntryMediaCap(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	svc := newTestServices(t)

	created, err := svc.rooms.CreateRoom(ctx, "Aya", "room")
	req.NoError(err)

	media := []MediaInput{
		{Name: "a", Type: "image/png", URL: "https://cdn.example/a.png"},
		{Name: "b", Type: "image/png", URL: "https://cdn.example/b.png"},
		{Name: "c", Type: "image/png", URL: "https://cdn.example/c.png"},
		{Name: "d", Type: "image/png", URL: "https://cdn.example/d.png"},
	}
	entry, err := svc.entries.PostEntry(ctx, session(created.RoomCode, "Aya"),
		PostEntryInput{Date: "2024-06-01", Media: media})
	req.NoError(err)
	req.Len(entry.Media, domain.MaxMediaPerPost)
}

func TestToggleReaction(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	svc := newTestServices(t)

	created, err := svc.rooms.CreateRoom(ctx, "Aya", "room")
	req.NoError(err)
	_, err = svc.rooms.JoinRoom(ctx, created.RoomCode, "Bob")
	req.NoError(err)

	aya := session(created.RoomCode, "Aya")
	bob := session(created.RoomCode, "Bob")

	entry, err := svc.entries.PostEntry(ctx, aya, PostEntryInput{Date: "2024-06-01", Body: "hello"})
	req.NoError(err)

	state, err := svc.entries.ToggleReaction(ctx, bob, entry.ID, "❤️")
	req.NoError(err)
	req.Equal([]string{"Bob"}, state.Reactions["❤️"])

	state, err = svc.entries.ToggleReaction(ctx, aya, entry.ID, "❤️")
	req.NoError(err)
	req.Equal([]string{"Bob", "Aya"}, state.Reactions["❤️"])

	// toggling off removes only the actor
	state, err = svc.entries.ToggleReaction(ctx, bob, entry.ID, "❤️")
	req.NoError(err)
	req.Equal([]string{"Aya"}, state.Reactions["❤️"])

	// last reactor off drops the emoji key
	state, err = svc.entries.ToggleReaction(ctx, aya, entry.ID, "❤️")
	req.NoError(err)
	req.NotContains(state.Reactions, "❤️")

	_, err = svc.entries.ToggleReaction(ctx, aya, entry.ID, "🙃")
	req.ErrorIs(err, domain.ErrInvalidReaction)

	_, err = svc.entries.ToggleReaction(ctx, aya, "missing-entry", "❤️")
	req.ErrorIs(err, domain.ErrEntryNotFound)
}

func TestAddComment(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	svc := newTestServices(t)

	created, err := svc.rooms.CreateRoom(ctx, "Aya", "room")
	req.NoError(err)
	aya := session(created.RoomCode, "Aya")

	entry, err := svc.entries.PostEntry(ctx, aya, PostEntryInput{Date: "2024-06-01", Body: "hello"})
	req.NoError(err)

	res, err := svc.entries.AddComment(ctx, aya, entry.ID, "  nice one  ")
	req.NoError(err)
	req.Equal("nice one", res.Comment.Body)
	req.Equal("Aya", res.Comment.Author)
	req.NotEmpty(res.Comment.ID)

	_, err = svc.entries.AddComment(ctx, aya, entry.ID, "   ")
	req.ErrorIs(err, domain.ErrValidation)

	long := make([]rune, domain.MaxCommentLength+1)
	for i := range long {
		long[i] = 'あ'
	}
	_, err = svc.entries.AddComment(ctx, aya, entry.ID, string(long))
	req.ErrorIs(err, domain.ErrValidation)

	// multibyte runes count as one character each
	_, err = svc.entries.AddComment(ctx, aya, entry.ID, string(long[:domain.MaxCommentLength]))
	req.NoError(err)

	_, err = svc.entries.AddComment(ctx, aya, "missing-entry", "hi")
	req.ErrorIs(err, domain.ErrEntryNotFound)
}

func TestDrawLottery(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	svc := newTestServices(t)

	created, err := svc.rooms.CreateRoom(ctx, "Aya", "room")
	req.NoError(err)
	members := []string{"Aya", "Bob", "Cara", "Dai", "Emi"}
	for _, m := range members[1:] {
		_, err := svc.rooms.JoinRoom(ctx, created.RoomCode, m)
		req.NoError(err)
	}

	host := session(created.RoomCode, "Aya")

	_, err = svc.lottery.Draw(ctx, session(created.RoomCode, "Bob"), "2024-06-02")
	req.ErrorIs(err, domain.ErrNotHost)

	res, err := svc.lottery.Draw(ctx, host, "2024-06-02")
	req.NoError(err)
	req.Equal("2024-06-02", res.Date)
	req.Equal("Aya", res.DrawnBy)
	req.Len(res.Winners, domain.DailyWinnerCount)
	for _, w := range res.Winners {
		req.Contains(members, w)
	}

	_, err = svc.lottery.Draw(ctx, host, "2024-06-02")
	req.ErrorIs(err, domain.ErrLotteryDrawn)

	snap, err := svc.rooms.GetRoom(ctx, host)
	req.NoError(err)
	req.Equal(res.Winners, snap.Room.LotteryAssignments["2024-06-02"].Winners,
		"failed redraw leaves winners unchanged")

	// winners post on the assigned date, others are rejected
	var loser string
	for _, m := range members {
		won := false
		for _, w := range res.Winners {
			if w == m {
				won = true
				break
			}
		}
		if !won {
			loser = m
			break
		}
	}
	req.NotEmpty(loser)

	_, err = svc.entries.PostEntry(ctx, session(created.RoomCode, loser),
		PostEntryInput{Date: "2024-06-02", Body: "not my day"})
	req.ErrorIs(err, domain.ErrNotAssignee)

	_, err = svc.entries.PostEntry(ctx, session(created.RoomCode, res.Winners[0]),
		PostEntryInput{Date: "2024-06-02", Body: "my day"})
	req.NoError(err)

	// an unassigned date stays open for everyone
	_, err = svc.entries.PostEntry(ctx, session(created.RoomCode, loser),
		PostEntryInput{Date: "2024-06-03", Body: "free day"})
	req.NoError(err)
}

func TestDrawLotteryDefaultsToTomorrow(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	svc := newTestServices(t)

	created, err := svc.rooms.CreateRoom(ctx, "Aya", "room")
	req.NoError(err)

	res, err := svc.lottery.Draw(ctx, session(created.RoomCode, "Aya"), "not a date")
	req.NoError(err)
	req.True(domain.IsDateKey(res.Date))
	req.Equal([]string{"Aya"}, res.Winners, "sole member always wins")
}

func TestDrawLotteryNoMembers(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	svc := newTestServices(t)

	// a stored document can legitimately have no members
	req.NoError(svc.store.Put(ctx, "EMPTYR", map[string]any{
		"roomCode": "EMPTYR",
		"roomName": "empty",
		"members":  []string{},
	}))

	_, err := svc.lottery.Draw(ctx, session("EMPTYR", "Aya"), "2024-06-02")
	req.ErrorIs(err, domain.ErrNoMembers)
}

func TestSubscriptionUpsertAndRemove(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	svc := newTestServices(t)

	created, err := svc.rooms.CreateRoom(ctx, "Aya", "room")
	req.NoError(err)
	aya := session(created.RoomCode, "Aya")

	sub := func(endpoint, p256dh string) domain.PushSubscription {
		return domain.PushSubscription{
			Endpoint: endpoint,
			Keys:     domain.SubscriptionKeys{P256dh: p256dh, Auth: "auth"},
		}
	}

	req.NoError(svc.subs.Upsert(ctx, aya, sub("https://push.example/1", "k1")))
	req.NoError(svc.subs.Upsert(ctx, aya, sub("https://push.example/2", "k2")))

	snap, err := svc.rooms.GetRoom(ctx, aya)
	req.NoError(err)
	req.Len(snap.Room.PushSubscriptions["Aya"], 2)
	req.True(snap.MePushEnabled)

	// re-registering an endpoint replaces its key material
	req.NoError(svc.subs.Upsert(ctx, aya, sub("https://push.example/1", "k1-rotated")))
	snap, err = svc.rooms.GetRoom(ctx, aya)
	req.NoError(err)
	req.Len(snap.Room.PushSubscriptions["Aya"], 2)
	for _, s := range snap.Room.PushSubscriptions["Aya"] {
		if s.Endpoint == "https://push.example/1" {
			req.Equal("k1-rotated", s.Keys.P256dh)
		}
	}

	req.Error(svc.subs.Upsert(ctx, aya, sub("", "k")))

	req.NoError(svc.subs.Remove(ctx, aya, "https://push.example/1"))
	req.NoError(svc.subs.Remove(ctx, aya, "https://push.example/2"))

	snap, err = svc.rooms.GetRoom(ctx, aya)
	req.NoError(err)
	req.NotContains(snap.Room.PushSubscriptions, "Aya")
	req.False(snap.MePushEnabled)
}
