package vrf

import errorsmod "cosmossdk.io/errors"

const Codespace = "vrf"

var (
	ErrInvalidRequest     = errorsmod.Register(Codespace, 1, "invalid randomness request")
	ErrUnknownRequest     = errorsmod.Register(Codespace, 2, "unknown or already fulfilled request")
	ErrUnknownConsumer    = errorsmod.Register(Codespace, 3, "unknown consumer")
	ErrUnauthorizedOracle = errorsmod.Register(Codespace, 4, "fulfillment not submitted by the registered oracle")
	ErrInvalidProof       = errorsmod.Register(Codespace, 5, "invalid vrf proof")
	ErrRawWordsDisabled   = errorsmod.Register(Codespace, 6, "raw words are not accepted by this coordinator")
)
