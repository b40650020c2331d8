package cmd

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"onchaincraps/internal/codec"
	"onchaincraps/internal/craps"
	"onchaincraps/internal/vrfcrypto"
)

func newGenesisCmd() *cobra.Command {
	var (
		ante          uint64
		timeoutSecs   uint64
		oracle        string
		vrfPubKeyHex  string
		allowRawWords bool
		accounts      []string
	)
	cmd := &cobra.Command{
		Use:   "genesis",
		Short: "Print an app_state document for the CometBFT genesis file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			g := codec.Genesis{
				Ante:                  ante,
				RandomnessTimeoutSecs: timeoutSecs,
				VRF:                   codec.GenesisVRF{Oracle: oracle, AllowRawWords: allowRawWords},
			}
			if vrfPubKeyHex != "" {
				pk, err := vrfcrypto.DecodeHex(vrfPubKeyHex)
				if err != nil {
					return fmt.Errorf("--vrf-pubkey: %w", err)
				}
				g.VRF.PublicKey = pk
			}
			for _, spec := range accounts {
				acc, err := parseGenesisAccount(spec)
				if err != nil {
					return err
				}
				g.Accounts = append(g.Accounts, acc)
			}
			if err := g.Validate(); err != nil {
				return err
			}
			b, err := json.MarshalIndent(g, "", "  ")
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(b))
			return err
		},
	}
	cmd.Flags().Uint64Var(&ante, "ante", 0, "fixed ante every player must attach")
	cmd.Flags().Uint64Var(&timeoutSecs, "randomness-timeout", craps.DefaultRandomnessTimeoutSecs, "seconds before a pending randomness request can be cancelled")
	cmd.Flags().StringVar(&oracle, "oracle", "", "account allowed to submit vrf/fulfill")
	cmd.Flags().StringVar(&vrfPubKeyHex, "vrf-pubkey", "", "oracle VRF public key (hex)")
	cmd.Flags().BoolVar(&allowRawWords, "allow-raw-words", false, "accept unproven words from the oracle (devnet only)")
	cmd.Flags().StringArrayVar(&accounts, "account", nil, "initial balance as <addr>=<amount> (repeatable)")
	return cmd
}

func parseGenesisAccount(spec string) (codec.GenesisAccount, error) {
	addr, amount, ok := strings.Cut(spec, "=")
	if !ok || addr == "" {
		return codec.GenesisAccount{}, fmt.Errorf("--account %q: want <addr>=<amount>", spec)
	}
	bal, err := strconv.ParseUint(amount, 10, 64)
	if err != nil {
		return codec.GenesisAccount{}, fmt.Errorf("--account %q: %w", spec, err)
	}
	return codec.GenesisAccount{Address: addr, Balance: bal}, nil
}
