package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pixelecho/echoframe/internal/history"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Generation history tooling",
	}

	convert := &cobra.Command{
		Use:   "convert <history.jsonl> <out.parquet>",
		Short: "Convert a JSONL history dump to parquet",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := history.ConvertJSONL(args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Printf("Converted %d records to %s\n", n, args[1])
			return nil
		},
	}

	cmd.AddCommand(convert)
	return cmd
}
