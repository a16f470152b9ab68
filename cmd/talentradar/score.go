package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	service "github.com/okian/talentradar/internal/app"
	"github.com/okian/talentradar/internal/domain/model"
	"github.com/okian/talentradar/internal/domain/scoring"
)

var errNoInput = errors.New("no input")

type scoredCandidate struct {
	ID    string      `json:"id,omitempty"`
	Name  string      `json:"name"`
	Tier  model.Tier  `json:"priority_tier"`
	Score model.Score `json:"score"`
}

func newScoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "score [file]",
		Short: "Score candidates read from a JSON file or stdin",
		Long: "Reads one candidate object or an array of candidates and prints the\n" +
			"score breakdown of each. Use - or omit the file to read stdin.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := setup(cmd.Context(), "stderr")
			if err != nil {
				return err
			}

			in := cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			cs, err := readCandidates(in)
			if err != nil {
				return err
			}

			scorer, _ := service.BuildScorer(cfg)
			scores, err := scorer.ScoreBatch(cmd.Context(), cs)
			if err != nil {
				return err
			}
			out := make([]scoredCandidate, len(cs))
			for i, c := range cs {
				out[i] = scoredCandidate{
					ID:    c.ID,
					Name:  c.Name,
					Tier:  scoring.TierFor(scores[i].Total),
					Score: scores[i],
				}
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
}

// readCandidates accepts a single object or an array.
func readCandidates(r io.Reader) ([]model.Candidate, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, errNoInput
	}

	var cs []model.Candidate
	if raw[0] == '[' {
		err = json.Unmarshal(raw, &cs)
	} else {
		var c model.Candidate
		err = json.Unmarshal(raw, &c)
		cs = append(cs, c)
	}
	if err != nil {
		return nil, fmt.Errorf("decode candidates: %w", err)
	}
	for i := range cs {
		if err := cs[i].Validate(); err != nil {
			return nil, fmt.Errorf("candidate %d: %w", i, err)
		}
	}
	return cs, nil
}
