package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"simplebackup/internal/archive"
	"simplebackup/internal/config"
	"simplebackup/internal/storage"
)

func newListCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List archives in the configured destination, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Parse(v.GetString("config"))
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Failed to load config: %v\n", err)
				return &exitError{code: 1, err: err}
			}

			archives, err := storage.NewDestination(cfg.Destination).List(archive.Extensions())
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Failed to list backups: %v\n", err)
				return &exitError{code: 1, err: err}
			}

			out := cmd.OutOrStdout()
			if len(archives) == 0 {
				fmt.Fprintf(out, "No backups found in %s\n", cfg.Destination)
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "FILENAME\tSIZE\tMODIFIED\n")
			for _, a := range archives {
				fmt.Fprintf(w, "%s\t%s\t%s\n", a.FileName, storage.FormatSize(a.Size), a.ModifiedAt.Format(time.RFC3339))
			}
			return w.Flush()
		},
	}
}
