package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	service "github.com/okian/talentradar/internal/app"
	"github.com/okian/talentradar/internal/domain/model"
	"github.com/okian/talentradar/pkg/logger"
)

var errNoProfile = errors.New("no profile found")

func newEnrichCmd() *cobra.Command {
	var platform string

	cmd := &cobra.Command{
		Use:   "enrich <handle>",
		Short: "Enrich and score one profile and print it as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := model.ParsePlatform(platform)
			if err != nil {
				return err
			}
			cfg, log, err := setup(ctx, "stderr")
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			scorer, _ := service.BuildScorer(cfg)
			c := service.BuildCache(ctx, cfg, log)
			defer func() { _ = c.Close() }()
			collab, err := service.BuildCollaborators(ctx, cfg, c, log)
			if err != nil {
				return err
			}

			profile, err := service.BuildEnricher(cfg, collab, scorer, log).Enrich(ctx, p, args[0])
			if err != nil {
				return err
			}
			if profile.Empty() {
				return fmt.Errorf("%w: %s/%s", errNoProfile, p, args[0])
			}
			profile.Candidate.ID = model.CandidateID(p, args[0])

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(profile)
		},
	}
	cmd.Flags().StringVarP(&platform, "platform", "p", string(model.PlatformGitHub), "anchor platform: github or x")
	return cmd
}
