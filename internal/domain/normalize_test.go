package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeEmptyDocument(t *testing.T) {
	req := require.New(t)

	room := Normalize(nil, "abc234")
	req.Equal("ABC234", room.Code)
	req.Equal(DefaultRoomName, room.Name)
	req.False(room.CreatedAt.IsZero())
	req.Empty(room.Members)
	req.Empty(room.Entries)
	req.NotNil(room.LotteryAssignments)
	req.NotNil(room.PushSubscriptions)
}

func TestNormalizeIsIdempotent(t *testing.T) {
	req := require.New(t)

	raw := json.RawMessage(`{
		"code": "abc234",
		"members": [" Aya", "Bob", "Aya", "", 42],
		"hostNickname": "",
		"entries": [
			{"id": "e1", "author": " Aya ", "date": "2024-06-01", "body": "hello",
			 "reactions": {"👍": ["Bob", "Bob", " Aya"], "❤️": "broken", "✨": []},
			 "media": "not-a-list"},
			"not-an-entry"
		],
		"lotteryAssignments": {
			"2024-06-02": {"winner": "Aya", "drawnBy": "Aya"},
			"junk-date": {"winners": ["Bob"]},
			"2024-06-03": {"winners": ["", "  "]}
		},
		"pushSubscriptions": {
			"Aya": [{"endpoint": "https://push/1", "keys": {"p256dh": "p", "auth": "a"}},
			       {"endpoint": "https://push/1", "keys": {"p256dh": "p2", "auth": "a2"}}],
			"Bob": []
		}
	}`)

	once := Normalize(raw, "ABC234")
	onceJSON, err := json.Marshal(once)
	req.NoError(err)

	twice := Normalize(onceJSON, "ABC234")
	twiceJSON, err := json.Marshal(twice)
	req.NoError(err)

	req.JSONEq(string(onceJSON), string(twiceJSON))
}

func TestNormalizeRepairsMembersAndHost(t *testing.T) {
	req := require.New(t)

	raw := json.RawMessage(`{"members": [" Aya", "Bob", "Aya", ""], "hostNickname": " "}`)
	room := Normalize(raw, "ABC234")

	req.Equal([]string{"Aya", "Bob"}, room.Members)
	req.Equal("Aya", room.HostNickname, "host defaults to the first member")
}

func TestNormalizeRepairsReactions(t *testing.T) {
	req := require.New(t)

	raw := json.RawMessage(`{"entries": [{"id": "e1", "reactions": {
		"👍": ["Bob", " Bob ", "Aya"],
		"❤️": {"bad": "shape"},
		"✨": ["", "  "]
	}}]}`)
	room := Normalize(raw, "ABC234")

	req.Len(room.Entries, 1)
	reactions := room.Entries[0].Reactions
	req.Equal([]string{"Bob", "Aya"}, reactions["👍"])
	req.NotContains(reactions, "❤️", "non-list value dropped")
	req.NotContains(reactions, "✨", "empty list removed")
}

func TestNormalizeRepairsAssignments(t *testing.T) {
	req := require.New(t)

	raw := json.RawMessage(`{"lotteryAssignments": {
		"2024-06-02": {"winner": "Aya", "drawnBy": "Aya", "drawnAt": "2024-06-01T12:00:00Z"},
		"2024-06-03": {"winners": ["Bob", "Bob", "Aya"]},
		"2024-06-04": {"winners": []},
		"not-a-date": {"winners": ["Bob"]}
	}}`)
	room := Normalize(raw, "ABC234")

	req.Len(room.LotteryAssignments, 2)
	req.Equal([]string{"Aya"}, room.LotteryAssignments["2024-06-02"].Winners, "legacy winner field accepted")
	req.Equal([]string{"Bob", "Aya"}, room.LotteryAssignments["2024-06-03"].Winners, "winners deduplicated")
}

func TestNormalizeEnsuresEntryLists(t *testing.T) {
	req := require.New(t)

	raw := json.RawMessage(`{"entries": [{"id": "e1", "author": "Aya", "date": "2024-06-01"}]}`)
	room := Normalize(raw, "ABC234")

	entry := room.Entries[0]
	req.NotNil(entry.Media)
	req.NotNil(entry.Reactions)
	req.NotNil(entry.Comments)
	req.Equal("ABC234", entry.RoomCode)
}

func TestNormalizeDropsMediaWithoutURL(t *testing.T) {
	req := require.New(t)

	raw := json.RawMessage(`{"entries": [{"id": "e1", "media": [
		{"name": "a.png", "type": "image/png", "url": "/uploads/a.png"},
		{"name": "broken", "type": "image/png", "url": ""},
		{"url": "/uploads/b.png"}
	]}]}`)
	room := Normalize(raw, "ABC234")

	media := room.Entries[0].Media
	req.Len(media, 2)
	req.Equal("/uploads/a.png", media[0].URL)
	req.Equal("file", media[1].Name)
	req.Equal("application/octet-stream", media[1].Type)
}

func TestNormalizeSubscriptionsDedupedByEndpoint(t *testing.T) {
	req := require.New(t)

	raw := json.RawMessage(`{"pushSubscriptions": {
		"Aya": [
			{"endpoint": "https://push/1", "keys": {"p256dh": "p1", "auth": "a1"}},
			{"endpoint": "https://push/1", "keys": {"p256dh": "p2", "auth": "a2"}},
			{"endpoint": "", "keys": {"p256dh": "x", "auth": "y"}}
		],
		"Empty": []
	}}`)
	room := Normalize(raw, "ABC234")

	req.Len(room.PushSubscriptions, 1)
	subs := room.PushSubscriptions["Aya"]
	req.Len(subs, 1)
	req.Equal("p1", subs[0].Keys.P256dh)
}

func TestSortedEntries(t *testing.T) {
	req := require.New(t)

	raw := json.RawMessage(`{"entries": [
		{"id": "old", "date": "2024-05-30", "createdAt": "2024-05-30T10:00:00Z"},
		{"id": "late", "date": "2024-06-01", "createdAt": "2024-06-01T18:00:00Z"},
		{"id": "early", "date": "2024-06-01", "createdAt": "2024-06-01T08:00:00Z"}
	]}`)
	room := Normalize(raw, "ABC234")

	sorted := room.SortedEntries()
	req.Equal("late", sorted[0].ID)
	req.Equal("early", sorted[1].ID)
	req.Equal("old", sorted[2].ID)
	req.Equal("old", room.Entries[2].ID, "storage order untouched")
}
