package cmd

import (
	"crypto/rand"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"onchaincraps/internal/vrf"
	"onchaincraps/internal/vrfcrypto"
)

func newOracleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "oracle",
		Short: "Off-chain VRF oracle helpers",
	}
	cmd.AddCommand(newOracleKeygenCmd(), newOracleProveCmd())
	return cmd
}

func writeJSON(cmd *cobra.Command, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(b))
	return err
}

func newOracleKeygenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keygen",
		Short: "Generate a VRF key pair",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			k, err := vrf.GenerateKey(rand.Reader)
			if err != nil {
				return err
			}
			return writeJSON(cmd, map[string]string{
				"secretKey": vrfcrypto.EncodeHex(k.Bytes()),
				"publicKey": vrfcrypto.EncodeHex(k.PublicKey()),
			})
		},
	}
}

func newOracleProveCmd() *cobra.Command {
	var (
		keyHex   string
		seedHex  string
		numWords uint32
	)
	cmd := &cobra.Command{
		Use:   "prove",
		Short: "Answer a RandomWordsRequested seed with a VRF proof",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			kb, err := vrfcrypto.DecodeHex(keyHex)
			if err != nil {
				return fmt.Errorf("--key: %w", err)
			}
			k, err := vrf.PrivateKeyFromBytes(kb)
			if err != nil {
				return fmt.Errorf("--key: %w", err)
			}
			seed, err := vrfcrypto.DecodeHex(seedHex)
			if err != nil {
				return fmt.Errorf("--seed: %w", err)
			}
			proof, err := k.Prove(seed)
			if err != nil {
				return err
			}
			words, err := vrf.Verify(k.PublicKey(), seed, proof, numWords)
			if err != nil {
				return err
			}
			return writeJSON(cmd, map[string]any{
				// proof is base64 as expected by vrf/fulfill.
				"proof": proof,
				"words": words,
			})
		},
	}
	cmd.Flags().StringVar(&keyHex, "key", "", "VRF secret key (hex)")
	cmd.Flags().StringVar(&seedHex, "seed", "", "request seed (hex, from RandomWordsRequested)")
	cmd.Flags().Uint32Var(&numWords, "num-words", 1, "number of words the request asked for")
	_ = cmd.MarkFlagRequired("key")
	_ = cmd.MarkFlagRequired("seed")
	return cmd
}
