package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sirpyerre/blogkeeper/internal/core/service"
	"github.com/sirpyerre/blogkeeper/internal/infrastructure/config"
	"github.com/sirpyerre/blogkeeper/pkg/logger"
)

func scrubCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "scrub",
		Short: "Remove records whose owner no longer exists and print what was removed",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := config.Load(ctx)
			if err != nil {
				return err
			}
			log := initLogger(cfg)

			rt, err := openAdapters(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer rt.Close(ctx)

			report, err := service.NewScrubber(rt.backends.Repos, logger.Component(logger.ComponentScrubber)).Scrub(ctx)
			if err != nil {
				return fmt.Errorf("scrub: %w", err)
			}

			if asJSON {
				return json.NewEncoder(os.Stdout).Encode(report)
			}
			fmt.Fprintf(os.Stdout, "archives:         %d\n", report.Archives)
			fmt.Fprintf(os.Stdout, "archive nodes:    %d\n", report.ArchiveNodes)
			fmt.Fprintf(os.Stdout, "posts:            %d\n", report.Posts)
			fmt.Fprintf(os.Stdout, "comments:         %d\n", report.Comments)
			fmt.Fprintf(os.Stdout, "replies:          %d\n", report.Replies)
			fmt.Fprintf(os.Stdout, "api keys:         %d\n", report.APIKeys)
			fmt.Fprintf(os.Stdout, "deletion reports: %d\n", report.Reports)
			fmt.Fprintf(os.Stdout, "notifications:    %d\n", report.Notifications)
			fmt.Fprintf(os.Stdout, "total:            %d\n", report.Total())
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the report as JSON")
	return cmd
}
