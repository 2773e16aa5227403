package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"herdbook/internal/domain/scanpayload"
)

func (a *app) payloadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "payload",
		Short: "Encode or decode scan payloads",
	}

	var (
		animalID string
		tag      string
		farmID   string
		compact  bool
	)
	encode := &cobra.Command{
		Use:     "encode",
		Short:   "Build and encode a scan payload",
		Example: `  tagctl payload encode --animal 0190c3e2-... --tag COW-001 --farm farm-1 --compact`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			codec, err := scanpayload.NewCodec(nil)
			if err != nil {
				return err
			}
			p := codec.Build(animalID, tag, farmID)
			encodeFn := codec.Encode
			if compact {
				encodeFn = codec.EncodeCompact
			}
			data, err := encodeFn(p)
			if err != nil {
				return err
			}
			return a.print(cmd.OutOrStdout(), map[string]any{"data": data, "payload": p}, data)
		},
	}
	encode.Flags().StringVar(&animalID, "animal", "", "animal id")
	encode.Flags().StringVar(&tag, "tag", "", "tag number")
	encode.Flags().StringVar(&farmID, "farm", "", "farm id")
	encode.Flags().BoolVar(&compact, "compact", false, "zstd-compress and base64url-encode")
	for _, name := range []string{"animal", "tag", "farm"} {
		_ = encode.MarkFlagRequired(name)
	}

	decode := &cobra.Command{
		Use:   "decode DATA",
		Short: "Parse scanned payload data",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			codec, err := scanpayload.NewCodec(nil)
			if err != nil {
				return err
			}
			p, err := codec.Parse(args[0])
			if err != nil {
				return err
			}
			text := fmt.Sprintf("animal=%s tag=%s farm=%s at=%s", p.AnimalID, p.TagNumber, p.FarmID, p.Timestamp.Format(time.RFC3339))
			return a.print(cmd.OutOrStdout(), p, text)
		},
	}

	cmd.AddCommand(encode, decode)
	return cmd
}
