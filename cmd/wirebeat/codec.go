package main

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newEncodeCmd(a *app) *cobra.Command {
	var profile, kindName string
	cmd := &cobra.Command{
		Use:   "encode VALUE...",
		Short: "Encode one primitive, or a list of them, as hex",
		Example: `  wirebeat encode --profile avr --kind int 258
  wirebeat encode --profile be16 --kind short 1 2 3`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.profile(profile)
			if err != nil {
				return err
			}
			k, err := lookupKind(kindName)
			if err != nil {
				return err
			}
			b, err := k.encode(p, args)
			if err != nil {
				return err
			}
			a.log.Debug().Str("profile", p.Name).Str("kind", kindName).Int("bytes", len(b)).Msg("encoded")
			fmt.Fprintln(cmd.OutOrStdout(), hex.EncodeToString(b))
			return nil
		},
	}
	cmd.Flags().StringVarP(&profile, "profile", "p", "", "platform profile (default: device.profile from config)")
	cmd.Flags().StringVarP(&kindName, "kind", "k", "int", "primitive kind ("+kindNames()+")")
	return cmd
}

func newDecodeCmd(a *app) *cobra.Command {
	var profile, kindName string
	cmd := &cobra.Command{
		Use:   "decode HEX",
		Short: "Decode hex bytes as one or more primitives",
		Example: `  wirebeat decode --profile avr --kind int 0201
  wirebeat decode --profile be16 --kind short "0001 0002"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.profile(profile)
			if err != nil {
				return err
			}
			k, err := lookupKind(kindName)
			if err != nil {
				return err
			}
			b, err := hex.DecodeString(strings.Join(strings.Fields(strings.Join(args, "")), ""))
			if err != nil {
				return fmt.Errorf("invalid hex: %w", err)
			}
			vals, err := k.decode(p, b)
			if err != nil {
				return err
			}
			a.log.Debug().Str("profile", p.Name).Str("kind", kindName).Int("values", len(vals)).Msg("decoded")
			fmt.Fprintln(cmd.OutOrStdout(), strings.Join(vals, " "))
			return nil
		},
	}
	cmd.Flags().StringVarP(&profile, "profile", "p", "", "platform profile (default: device.profile from config)")
	cmd.Flags().StringVarP(&kindName, "kind", "k", "int", "primitive kind ("+kindNames()+")")
	return cmd
}
