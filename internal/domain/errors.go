package domain

import "errors"

var (
	ErrRoomNotFound  = errors.New("room not found")
	ErrEntryNotFound = errors.New("entry not found")
	ErrRoomFull      = errors.New("room is full")

	ErrEntryExists  = errors.New("entry already exists for this author and date")
	ErrLotteryDrawn = errors.New("lottery already drawn for this date")
	ErrNoMembers    = errors.New("no members to draw from")

	ErrNotHost     = errors.New("only the host may draw the lottery")
	ErrNotAssignee = errors.New("date is restricted to its assignees")

	ErrInvalidReaction = errors.New("reaction emoji is not allowed")

	// ErrValidation wraps malformed-input failures; details are attached
	// with fmt.Errorf("%w: ...", ErrValidation).
	ErrValidation = errors.New("validation failed")
)
