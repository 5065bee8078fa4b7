package main

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/friturisme/friturisme/pkg/authflow"
)

var (
	loginProvider string
	loginEmail    string
	loginPassword string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in via Google, Apple of e-mail",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		a, err := newApp(ctx)
		if err != nil {
			log.Fatal(err)
		}
		defer a.Close()

		var outcome authflow.Outcome
		if loginProvider != "" {
			outcome, err = a.broker.OAuthSignIn(ctx, loginProvider)
		} else {
			outcome, err = a.broker.PasswordSignIn(ctx, loginEmail, loginPassword)
		}
		if err != nil {
			log.Fatal(err)
		}

		switch outcome.Kind {
		case authflow.SessionReady:
			a.navigate(ctx)
		case authflow.Cancelled:
			// the user backed out; nothing to report
		case authflow.Failed:
			fmt.Println(outcome.Failure.Message)
		}
	},
}

func init() {
	loginCmd.Flags().StringVarP(&loginProvider, "provider", "p", "", "OAuth provider (google or apple)")
	loginCmd.Flags().StringVarP(&loginEmail, "email", "e", "", "E-mail address")
	loginCmd.Flags().StringVarP(&loginPassword, "password", "w", "", "Password")
	rootCmd.AddCommand(loginCmd)
}
