package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/comitanigiacomo/ascend-engine/internal/config"
	"github.com/comitanigiacomo/ascend-engine/internal/core/analytics"
	"github.com/comitanigiacomo/ascend-engine/internal/core/domain"
	"github.com/comitanigiacomo/ascend-engine/internal/core/services"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "ascendctl",
		Short:         "Offline tools for the Ascend climbing logbook",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newGradesCmd())
	root.AddCommand(newRankCmd())
	root.AddCommand(newAnalyzeCmd())
	root.AddCommand(newTokenCmd())
	return root
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newGradesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "grades <discipline>",
		Short: "List the grade vocabulary of a discipline, easiest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			vocab, err := services.VocabularyFor(args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), vocab)
		},
	}
}

func newRankCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rank <discipline> <grade>",
		Short: "Print the numeric rank of a grade",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := domain.ParseDiscipline(args[0])
			if err != nil {
				return err
			}
			g, err := domain.ParseGrade(d, args[1])
			if err != nil {
				return err
			}
			rank, err := domain.RankOf(d, g)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s %s %g\n", d, g.Label(), rank)
			return err
		},
	}
}

// sessionInput is one record of an analyze file, in the same shape the API
// accepts on POST /sessions.
type sessionInput struct {
	Discipline string  `json:"discipline"`
	Grade      string  `json:"grade"`
	Date       string  `json:"date"`
	Sent       bool    `json:"sent"`
	Notes      *string `json:"notes"`
}

func loadSessions(r io.Reader) ([]*domain.Session, error) {
	var inputs []sessionInput
	if err := json.NewDecoder(r).Decode(&inputs); err != nil {
		return nil, fmt.Errorf("decode sessions: %w", err)
	}

	sessions := make([]*domain.Session, 0, len(inputs))
	for i, in := range inputs {
		s, err := domain.NewSession(in.Discipline, in.Grade, in.Date, in.Sent, in.Notes)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		s.ID = fmt.Sprintf("local-%d", i)
		sessions = append(sessions, s)
	}
	return sessions, nil
}

func newAnalyzeCmd() *cobra.Command {
	var file, bucket string

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Compute analytics over a JSON array of sessions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			in := cmd.InOrStdin()
			if file != "" && file != "-" {
				f, err := os.Open(file)
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}

			sessions, err := loadSessions(in)
			if err != nil {
				return err
			}

			if bucket != "" {
				series, err := analytics.ComputeProgressSeries(sessions, domain.Bucketing(bucket))
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), series)
			}

			snapshot, err := analytics.ComputeSnapshot(sessions, time.Now().UTC())
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), snapshot)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "sessions file, stdin when empty or -")
	cmd.Flags().StringVar(&bucket, "bucket", "", "print only the progress series: week or month")
	return cmd
}

func newTokenCmd() *cobra.Command {
	var userID string
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for a user, signed with JWT_SECRET",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Load()
			if cfg.JWTSecret == "" {
				return errors.New("JWT_SECRET cannot be empty")
			}
			if ttl <= 0 {
				ttl = cfg.TokenTTL
			}

			token, err := services.NewTokenService(cfg.JWTSecret, cfg.JWTIssuer, ttl).GenerateToken(userID)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "user id to put in the subject claim")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime, TOKEN_TTL when unset")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
