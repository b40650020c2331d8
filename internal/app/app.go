package app

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	errorsmod "cosmossdk.io/errors"
	"cosmossdk.io/log"
	abci "github.com/cometbft/cometbft/abci/types"

	"onchaincraps/internal/codec"
	"onchaincraps/internal/craps"
	"onchaincraps/internal/state"
	"onchaincraps/internal/vrf"
)

const (
	AppVersion uint64 = 1
)

type CrapsApp struct {
	*abci.BaseApplication

	logger log.Logger
	store  *state.Store

	mu       sync.Mutex
	st       *state.State
	lastHash []byte
}

func New(store *state.Store, logger log.Logger) (*CrapsApp, error) {
	st, err := store.Load()
	if err != nil {
		return nil, err
	}
	a := &CrapsApp{
		BaseApplication: abci.NewBaseApplication(),
		logger:          logger.With(log.ModuleKey, "app"),
		store:           store,
		st:              st,
		lastHash:        st.AppHash(),
	}
	a.logger.Info("state loaded", "height", st.Height, "initialized", st.Initialized(), "round", st.Craps.Round)
	return a, nil
}

func (a *CrapsApp) Close() error {
	return a.store.Close()
}

func (a *CrapsApp) Info(_ context.Context, _ *abci.InfoRequest) (*abci.InfoResponse, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	return &abci.InfoResponse{
		Data:             "craps",
		Version:          "v1",
		AppVersion:       AppVersion,
		LastBlockHeight:  a.st.Height,
		LastBlockAppHash: a.lastHash,
	}, nil
}

func (a *CrapsApp) CheckTx(_ context.Context, req *abci.CheckTxRequest) (*abci.CheckTxResponse, error) {
	if _, err := codec.DecodeTxEnvelope(req.Tx); err != nil {
		codespace, code, logMsg := errorsmod.ABCIInfo(err, false)
		return &abci.CheckTxResponse{Code: code, Codespace: codespace, Log: logMsg}, nil
	}
	// Only structural validation; auth and game rules run in FinalizeBlock.
	return &abci.CheckTxResponse{Code: 0}, nil
}

func (a *CrapsApp) InitChain(_ context.Context, req *abci.InitChainRequest) (*abci.InitChainResponse, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.st.Initialized() {
		a.logger.Info("state already initialized; ignoring genesis", "height", a.st.Height)
		return &abci.InitChainResponse{AppHash: a.lastHash}, nil
	}
	if len(req.AppStateBytes) == 0 {
		a.logger.Warn("empty app_state; craps game stays uninitialized")
		return &abci.InitChainResponse{AppHash: a.lastHash}, nil
	}
	g, err := codec.DecodeGenesis(req.AppStateBytes)
	if err != nil {
		return nil, err
	}
	staged, err := a.st.Clone()
	if err != nil {
		return nil, err
	}
	if err := applyGenesis(staged, g); err != nil {
		return nil, err
	}
	a.st = staged
	a.lastHash = a.st.AppHash()
	a.logger.Info("genesis applied", "ante", g.Ante, "accounts", len(g.Accounts), "oracle", g.VRF.Oracle, "rawWords", g.VRF.AllowRawWords)
	return &abci.InitChainResponse{AppHash: a.lastHash}, nil
}

func applyGenesis(st *state.State, g codec.Genesis) error {
	st.Craps = craps.NewGame(g.Ante, g.RandomnessTimeoutSecs)
	st.VRF = vrf.NewState(vrf.Params{
		Oracle:        g.VRF.Oracle,
		PublicKey:     g.VRF.PublicKey,
		AllowRawWords: g.VRF.AllowRawWords,
	})
	for _, acc := range g.Accounts {
		if err := st.Credit(acc.Address, acc.Balance); err != nil {
			return fmt.Errorf("genesis account %s: %w", acc.Address, err)
		}
		if len(acc.PubKey) != 0 {
			st.AccountKeys[acc.Address] = acc.PubKey
		}
	}
	return nil
}

func (a *CrapsApp) FinalizeBlock(_ context.Context, req *abci.FinalizeBlockRequest) (*abci.FinalizeBlockResponse, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.st.Height = req.Height
	nowUnix := req.Time.Unix()

	txResults := make([]*abci.ExecTxResult, 0, len(req.Txs))
	var failed int
	for _, txBytes := range req.Txs {
		res := a.deliverTx(txBytes, req.Height, nowUnix)
		if res.Code != 0 {
			failed++
		}
		txResults = append(txResults, res)
	}

	a.lastHash = a.st.AppHash()
	a.logger.Debug("block finalized", "height", req.Height, "txs", len(req.Txs), "failed", failed, "phase", a.st.Craps.Phase.String())

	return &abci.FinalizeBlockResponse{
		TxResults: txResults,
		AppHash:   a.lastHash,
	}, nil
}

func (a *CrapsApp) Commit(_ context.Context, _ *abci.CommitRequest) (*abci.CommitResponse, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.store.Save(a.st); err != nil {
		// CometBFT halts on a Commit error rather than diverging silently.
		a.logger.Error("persist state", "height", a.st.Height, "err", err)
		return nil, err
	}
	return &abci.CommitResponse{}, nil
}

// deliverTx executes one tx against a staged copy of the state and swaps it
// in only on success.
func (a *CrapsApp) deliverTx(txBytes []byte, height int64, nowUnix int64) *abci.ExecTxResult {
	env, err := codec.DecodeTxEnvelope(txBytes)
	if err != nil {
		return errResult(err)
	}
	staged, err := a.st.Clone()
	if err != nil {
		return errResult(err)
	}
	events, err := execTx(staged, env, height, nowUnix)
	if err != nil {
		a.logger.Debug("tx rejected", "type", env.Type, "signer", env.Signer, "err", err)
		return errResult(err)
	}
	a.st = staged
	a.logSettlement(events)
	return &abci.ExecTxResult{Code: 0, Events: events}
}

func (a *CrapsApp) logSettlement(events []abci.Event) {
	for i := range events {
		switch events[i].Type {
		case craps.EventTypeGameSettled:
			a.logger.Info("game settled", "winner", eventAttr(&events[i], "winner"), "amount", eventAttr(&events[i], "amount"), "round", eventAttr(&events[i], "round"))
		case craps.EventTypeRandomnessTimedOut:
			a.logger.Info("randomness timed out", "requestId", eventAttr(&events[i], "requestId"), "round", eventAttr(&events[i], "round"))
		}
	}
}

func eventAttr(ev *abci.Event, key string) string {
	for _, at := range ev.Attributes {
		if at.Key == key {
			return at.Value
		}
	}
	return ""
}

func execTx(st *state.State, env codec.TxEnvelope, height int64, nowUnix int64) ([]abci.Event, error) {
	switch env.Type {
	case "bank/mint":
		msg, err := codec.DecodeValue[codec.BankMintTx](env)
		if err != nil {
			return nil, err
		}
		return bankMint(st, msg)

	case "bank/send":
		msg, err := codec.DecodeValue[codec.BankSendTx](env)
		if err != nil {
			return nil, err
		}
		if err := requireAccountAuth(st, env, msg.From); err != nil {
			return nil, err
		}
		return bankSend(st, msg)

	case "auth/register_account":
		msg, err := codec.DecodeValue[codec.AuthRegisterAccountTx](env)
		if err != nil {
			return nil, err
		}
		if err := requireRegisterAccountAuth(st, env, msg); err != nil {
			return nil, err
		}
		return registerAccount(st, msg)

	case "craps/join":
		msg, err := codec.DecodeValue[codec.CrapsJoinTx](env)
		if err != nil {
			return nil, err
		}
		if err := requireAccountAuth(st, env, msg.Player); err != nil {
			return nil, err
		}
		return st.Craps.Join(st, msg.Player, msg.Value)

	case "craps/select_shooter":
		msg, err := codec.DecodeValue[codec.CrapsSelectShooterTx](env)
		if err != nil {
			return nil, err
		}
		if err := requireAccountAuth(st, env, msg.Caller); err != nil {
			return nil, err
		}
		rng := newGameRandomness(st, height)
		events, err := st.Craps.SelectShooter(rng, msg.Caller, nowUnix)
		if err != nil {
			return nil, err
		}
		return append(rng.events, events...), nil

	case "craps/roll_come_out", "craps/roll_point":
		msg, err := codec.DecodeValue[codec.CrapsRollTx](env)
		if err != nil {
			return nil, err
		}
		if err := requireAccountAuth(st, env, msg.Shooter); err != nil {
			return nil, err
		}
		rng := newGameRandomness(st, height)
		roll := st.Craps.RollTheComeOut
		if env.Type == "craps/roll_point" {
			roll = st.Craps.RollThePoint
		}
		events, err := roll(rng, msg.Shooter, nowUnix)
		if err != nil {
			return nil, err
		}
		return append(rng.events, events...), nil

	case "craps/timeout":
		msg, err := codec.DecodeValue[codec.CrapsTimeoutTx](env)
		if err != nil {
			return nil, err
		}
		if err := requireAccountAuth(st, env, msg.Caller); err != nil {
			return nil, err
		}
		return timeoutGame(st, msg.Caller, nowUnix)

	case "vrf/fulfill":
		msg, err := codec.DecodeValue[codec.VRFFulfillTx](env)
		if err != nil {
			return nil, err
		}
		if err := requireAccountAuth(st, env, msg.Oracle); err != nil {
			return nil, err
		}
		return newCoordinator(st).Fulfill(msg.Oracle, msg.RequestID, msg.Proof, msg.Words)

	default:
		return nil, fmt.Errorf("unknown tx type: %s", env.Type)
	}
}

func errResult(err error) *abci.ExecTxResult {
	codespace, code, logMsg := errorsmod.ABCIInfo(err, false)
	return &abci.ExecTxResult{Code: code, Codespace: codespace, Log: logMsg}
}

func okEvent(typ string, attrs map[string]string) []abci.Event {
	return []abci.Event{craps.NewEvent(typ, attrs)}
}

func mustJSON(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("marshal query response: %v", err))
	}
	return b
}
