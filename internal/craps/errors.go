package craps

import errorsmod "cosmossdk.io/errors"

const Codespace = "craps"

// Every rejection surfaced by the game uses one of these kinds.
var (
	ErrIncorrectAnte       = errorsmod.Register(Codespace, 1, "incorrect ante")
	ErrPlayerAlreadyJoined = errorsmod.Register(Codespace, 2, "player already joined")
	ErrGameFull            = errorsmod.Register(Codespace, 3, "game full")
	ErrIncorrectGameState  = errorsmod.Register(Codespace, 4, "incorrect game state")
	ErrNotShooter          = errorsmod.Register(Codespace, 5, "caller is not the shooter")
	ErrRequestPending      = errorsmod.Register(Codespace, 6, "randomness request already pending")
	ErrTimeoutNotReached   = errorsmod.Register(Codespace, 7, "randomness timeout not reached")
	ErrInvalidWords        = errorsmod.Register(Codespace, 8, "invalid random words")
	ErrNotInitialized      = errorsmod.Register(Codespace, 9, "game not initialized")
)
