package main

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/spec-kit/complaint-analytics/internal/auth"
	"github.com/spec-kit/complaint-analytics/internal/config"
	"github.com/spec-kit/complaint-analytics/internal/domain"
	"github.com/spec-kit/complaint-analytics/internal/seed"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "seed",
		Short:         "Development helpers for the complaint analytics service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newComplaintsCmd(), newTokenCmd())
	return root
}

func newComplaintsCmd() *cobra.Command {
	var (
		count   int
		users   int64
		out     string
		rngSeed uint64
	)
	cmd := &cobra.Command{
		Use:   "complaints",
		Short: "Write random complaints as a JSON snapshot",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if count <= 0 {
				return fmt.Errorf("--count must be positive")
			}
			if rngSeed == 0 {
				rngSeed = uint64(time.Now().UnixNano())
			}
			records := seed.Generate(rand.New(rand.NewPCG(rngSeed, rngSeed^0x9e3779b97f4a7c15)), seed.Options{
				Count: count,
				Users: users,
				End:   time.Now().UTC(),
			})

			content, err := json.MarshalIndent(records, "", "  ")
			if err != nil {
				return fmt.Errorf("encode complaints: %w", err)
			}
			if err := os.WriteFile(out, content, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Generated %d complaints into %s\n", len(records), out)
			return nil
		},
	}
	cmd.Flags().IntVar(&count, "count", 250, "number of complaints to generate")
	cmd.Flags().Int64Var(&users, "users", 30, "number of distinct complainants")
	cmd.Flags().StringVar(&out, "out", "complaints_seed.json", "output file")
	cmd.Flags().Uint64Var(&rngSeed, "seed", 0, "random seed, 0 picks one from the clock")
	return cmd
}

func newTokenCmd() *cobra.Command {
	var (
		subject string
		role    string
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for the analytics API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL())
			token, expiresAt, err := tokens.GenerateToken(subject, domain.Role(role))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\nexpires %s\n", token, expiresAt.Format(time.RFC3339))
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "analyst", "token subject")
	cmd.Flags().StringVar(&role, "role", string(domain.RoleAnalyst), "ANALYST or ADMIN")
	return cmd
}
