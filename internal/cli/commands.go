package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/specialistvlad/regiongate/internal/app"
	"github.com/specialistvlad/regiongate/internal/journal"
)

func statusCmd(flags *globalFlags) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show regions and interfaces attached from the topology",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := flags.newApp(cmd, 0)
			if err != nil {
				return err
			}
			defer a.Close(context.WithoutCancel(cmd.Context()))

			status := a.Status()
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(status)
			}
			fmt.Fprintln(out, regionTable(status.Regions))
			fmt.Fprintln(out, interfaceTable(status.Interfaces))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the status as JSON.")
	return cmd
}

func programCmd(flags *globalFlags) *cobra.Command {
	var regionName, imagePath string

	cmd := &cobra.Command{
		Use:   "program",
		Short: "Load an image into a region",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if imagePath == "" {
				return usageError(errors.New("--image is required"))
			}
			a, err := flags.newApp(cmd, 0)
			if err != nil {
				return err
			}
			defer a.Close(context.WithoutCancel(cmd.Context()))

			start := time.Now()
			r, err := a.Program(cmd.Context(), app.ProgramRequest{Region: regionName, Image: imagePath})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), SuccessMsg("programmed %s in %s", r.Name(), time.Since(start).Round(time.Millisecond)))
			return nil
		},
	}
	cmd.Flags().StringVarP(&regionName, "region", "r", "", "Region to program. Defaults to the image's region or the only region.")
	cmd.Flags().StringVarP(&imagePath, "image", "i", "", "Image .hcl file.")
	return cmd
}

func serveCmd(flags *globalFlags) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Attach the topology and serve status and program requests over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if port <= 0 {
				return usageError(errors.New("--port must be positive"))
			}
			a, err := flags.newApp(cmd, port)
			if err != nil {
				return err
			}
			defer a.Close(context.WithoutCancel(cmd.Context()))

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.Serve(ctx)
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 8080, "Port of the status server.")
	return cmd
}

func historyCmd(flags *globalFlags) *cobra.Command {
	var regionName string
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded program attempts from the journal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.journal == "" {
				return usageError(errors.New("--journal is required"))
			}
			j, err := journal.Open(flags.journal)
			if err != nil {
				return err
			}
			defer j.Close()

			entries, err := j.List(cmd.Context(), regionName, limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, Muted("no program attempts recorded"))
				return nil
			}
			rows := make([][]string, len(entries))
			for i, e := range entries {
				rows[i] = []string{
					strconv.FormatInt(e.ID, 10),
					e.Started.Format(time.RFC3339),
					e.Region,
					e.Image,
					e.Outcome,
					e.Duration.Round(time.Millisecond).String(),
					dash(e.Error),
				}
			}
			fmt.Fprintln(out, Table([]string{"#", "Started", "Region", "Image", "Outcome", "Duration", "Error"}, rows))
			return nil
		},
	}
	cmd.Flags().StringVarP(&regionName, "region", "r", "", "Only list attempts on this region.")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of attempts to list; 0 lists all.")
	return cmd
}
