package stream

// Event names pushed to live subscribers after a successful mutation.
// Subscribers that are offline at the time simply miss the event; clients
// reconcile with a full room refetch on reconnect.
const (
	EventConnected       = "connected"
	EventEntryCreated    = "entry-created"
	EventReactionUpdated = "reaction-updated"
	EventCommentAdded    = "comment-added"
	EventLotteryUpdated  = "lottery-updated"
)

type Event struct {
	Name    string `json:"type"`
	Payload any    `json:"payload"`
}
