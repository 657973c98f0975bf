package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/soaringjerry/Talentflow/internal/config"
	"github.com/soaringjerry/Talentflow/internal/middleware"
)

func tokenCmd(load func() (*config.Config, error)) *cobra.Command {
	var (
		subject string
		name    string
		ttl     time.Duration
		quiet   bool
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Sign a bearer token for write access",
		Long: `Sign an HS256 bearer token with TALENTFLOW_JWT_SECRET.

Examples:
  talentflow token --subject recruiter-7 --name "Sam Lee"
  talentflow token --subject ci --ttl 1h --quiet`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			auth := middleware.NewAuth(cfg.JWTSecret)
			if !auth.Enabled() {
				return fmt.Errorf("TALENTFLOW_JWT_SECRET is not set; writes are open and no token is needed")
			}
			tok, err := auth.SignToken(subject, name, ttl)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if quiet {
				fmt.Fprintln(out, tok)
				return nil
			}
			fmt.Fprintf(out, "%s for %s, expires %s\n", color.New(color.FgGreen).Sprint("Token"),
				subject, time.Now().Add(ttl).UTC().Format(time.RFC3339))
			fmt.Fprintln(out, tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "", "token subject (required)")
	cmd.Flags().StringVar(&name, "name", "", "display name carried in the token")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "print only the token")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}
