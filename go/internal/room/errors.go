package room

import "errors"

// Action errors. All of them are local to the offending action: they are reported to the
// initiating connection and never change room state.
var (
	ErrInvalidName         = errors.New("name must be between 3 and 100 characters")
	ErrInvalidCardSet      = errors.New("unknown card set")
	ErrRoomNotFound        = errors.New("room not found")
	ErrNotAMember          = errors.New("player is not a member of the room")
	ErrInvalidVote         = errors.New("vote is not part of the room's card set")
	ErrSpectatorCannotVote = errors.New("spectators cannot vote")
	ErrNotHost             = errors.New("only the host can perform this action")
	ErrNothingToReveal     = errors.New("no votes to reveal")
)

// Wire codes for action errors
const (
	CodeInvalidName         = "InvalidName"
	CodeInvalidCardSet      = "InvalidCardSet"
	CodeRoomNotFound        = "RoomNotFound"
	CodeNotAMember          = "NotAMember"
	CodeInvalidVote         = "InvalidVote"
	CodeSpectatorCannotVote = "SpectatorCannotVote"
	CodeNotHost             = "NotHost"
	CodeNothingToReveal     = "NothingToReveal"
	CodeInternal            = "Internal"
)

var errorCodes = []struct {
	err  error
	code string
}{
	{ErrInvalidName, CodeInvalidName},
	{ErrInvalidCardSet, CodeInvalidCardSet},
	{ErrRoomNotFound, CodeRoomNotFound},
	{ErrNotAMember, CodeNotAMember},
	{ErrInvalidVote, CodeInvalidVote},
	{ErrSpectatorCannotVote, CodeSpectatorCannotVote},
	{ErrNotHost, CodeNotHost},
	{ErrNothingToReveal, CodeNothingToReveal},
}

// Code maps an action error (possibly wrapped) to its wire code
func Code(err error) string {
	for _, ec := range errorCodes {
		if errors.Is(err, ec.err) {
			return ec.code
		}
	}
	return CodeInternal
}
