package domain

import (
	"math/rand"
	"regexp"
	"strings"
	"time"
)

// roomCodeAlphabet leaves out easily confused characters (I, O, 0, 1).
const roomCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const RoomCodeLength = 6

// dateKeyRe checks format only, not calendar validity. 2024-02-30 passes;
// that matches the stored data this service inherits.
var dateKeyRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

func IsDateKey(dateKey string) bool {
	return dateKeyRe.MatchString(strings.TrimSpace(dateKey))
}

func TomorrowDateKey(now time.Time) string {
	return now.AddDate(0, 0, 1).UTC().Format("2006-01-02")
}

func MakeRoomCode() string {
	b := make([]byte, RoomCodeLength)
	for i := range b {
		b[i] = roomCodeAlphabet[rand.Intn(len(roomCodeAlphabet))]
	}
	return string(b)
}

// PickWinners samples min(count, len(members)) members without replacement,
// minimum one, by taking the prefix of a Fisher-Yates shuffle. A full uniform
// permutation keeps every member's selection probability equal.
func PickWinners(members []string, count int) []string {
	pool := make([]string, len(members))
	copy(pool, members)
	rand.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})

	n := count
	if n > len(pool) {
		n = len(pool)
	}
	if n < 1 {
		n = 1
	}
	if n > len(pool) {
		return pool
	}
	return pool[:n]
}

func NormalizeRoomCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func NormalizeNickname(nickname string) string {
	return strings.TrimSpace(nickname)
}
