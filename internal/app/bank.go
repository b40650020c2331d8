package app

import (
	"bytes"
	"fmt"

	abci "github.com/cometbft/cometbft/abci/types"

	"onchaincraps/internal/codec"
	"onchaincraps/internal/state"
)

func bankMint(st *state.State, msg codec.BankMintTx) ([]abci.Event, error) {
	if msg.To == "" || msg.Amount == 0 {
		return nil, fmt.Errorf("missing to/amount")
	}
	if err := st.Credit(msg.To, msg.Amount); err != nil {
		return nil, err
	}
	return okEvent("BankMinted", map[string]string{
		"to":     msg.To,
		"amount": fmt.Sprintf("%d", msg.Amount),
	}), nil
}

func bankSend(st *state.State, msg codec.BankSendTx) ([]abci.Event, error) {
	if msg.From == "" || msg.To == "" || msg.Amount == 0 {
		return nil, fmt.Errorf("missing from/to/amount")
	}
	if err := st.Debit(msg.From, msg.Amount); err != nil {
		return nil, err
	}
	if err := st.Credit(msg.To, msg.Amount); err != nil {
		return nil, err
	}
	return okEvent("BankSent", map[string]string{
		"from":   msg.From,
		"to":     msg.To,
		"amount": fmt.Sprintf("%d", msg.Amount),
	}), nil
}

func registerAccount(st *state.State, msg codec.AuthRegisterAccountTx) ([]abci.Event, error) {
	if prev, ok := st.AccountKeys[msg.Account]; ok && !bytes.Equal(prev, msg.PubKey) {
		return nil, fmt.Errorf("account %q already registered with a different key", msg.Account)
	}
	st.AccountKeys[msg.Account] = append([]byte(nil), msg.PubKey...)
	return okEvent("AccountRegistered", map[string]string{
		"account": msg.Account,
	}), nil
}
