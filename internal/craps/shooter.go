package craps

import "onchaincraps/internal/vrf"

// pickShooter maps a word onto the two seats: even selects player1, odd
// selects player2.
func pickShooter(w vrf.Word, player1, player2 string) string {
	if w.Mod(2) == 0 {
		return player1
	}
	return player2
}
