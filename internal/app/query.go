package app

import (
	"context"
	"strconv"
	"strings"

	abci "github.com/cometbft/cometbft/abci/types"

	"onchaincraps/internal/vrf"
)

// Query paths:
//   - /craps/game, /craps/state, /craps/ante, /craps/players, /craps/shooter,
//     /craps/dice, /craps/point, /craps/pot
//   - /account/<addr>
//   - /vrf/params, /vrf/requests, /vrf/request/<id>
func (a *CrapsApp) Query(_ context.Context, req *abci.QueryRequest) (*abci.QueryResponse, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	value, errLog := a.query(strings.TrimSpace(req.Path))
	if errLog != "" {
		return &abci.QueryResponse{Code: 1, Log: errLog, Height: a.st.Height}, nil
	}
	return &abci.QueryResponse{Code: 0, Value: value, Height: a.st.Height}, nil
}

func (a *CrapsApp) query(path string) ([]byte, string) {
	g := a.st.Craps
	switch {
	case path == "/craps/game":
		return mustJSON(g), ""
	case path == "/craps/state":
		return mustJSON(map[string]any{"phase": uint8(g.Phase), "name": g.Phase.String(), "round": g.Round}), ""
	case path == "/craps/ante":
		return mustJSON(map[string]any{"ante": g.Ante}), ""
	case path == "/craps/players":
		return mustJSON(map[string]any{"player1": g.Player1, "player2": g.Player2}), ""
	case path == "/craps/shooter":
		return mustJSON(map[string]any{"shooter": g.Shooter}), ""
	case path == "/craps/dice":
		return mustJSON(map[string]any{"die1": g.Die1, "die2": g.Die2, "sum": g.DiceSum()}), ""
	case path == "/craps/point":
		return mustJSON(map[string]any{"point": g.Point}), ""
	case path == "/craps/pot":
		return mustJSON(map[string]any{"pot": g.Pot, "pendingRequest": g.PendingRequest}), ""
	case strings.HasPrefix(path, "/account/"):
		addr := strings.TrimPrefix(path, "/account/")
		if addr == "" {
			return nil, "missing account"
		}
		_, registered := a.st.AccountKeys[addr]
		return mustJSON(map[string]any{"addr": addr, "balance": a.st.Balance(addr), "registered": registered, "nonce": a.st.NonceMax[addr]}), ""
	case path == "/vrf/params":
		return mustJSON(map[string]any{"params": a.st.VRF.Params, "nextRequestId": a.st.VRF.NextRequestID}), ""
	case path == "/vrf/requests":
		reqs := a.st.VRF.Requests
		if reqs == nil {
			reqs = []vrf.Request{}
		}
		return mustJSON(reqs), ""
	case strings.HasPrefix(path, "/vrf/request/"):
		id, err := strconv.ParseUint(strings.TrimPrefix(path, "/vrf/request/"), 10, 64)
		if err != nil {
			return nil, "invalid request id"
		}
		r := a.st.VRF.Request(id)
		if r == nil {
			return nil, "request not found"
		}
		return mustJSON(r), ""
	default:
		return nil, "unknown query path"
	}
}
