package main

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/friturisme/friturisme/pkg/authflow"
)

var (
	signupEmail    string
	signupPassword string
)

var signupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Maak een nieuw account",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		a, err := newApp(ctx)
		if err != nil {
			log.Fatal(err)
		}
		defer a.Close()

		outcome, err := a.broker.PasswordSignUp(ctx, signupEmail, signupPassword)
		if err != nil {
			log.Fatal(err)
		}

		switch outcome.Kind {
		case authflow.SessionReady:
			a.navigate(ctx)
		case authflow.ConfirmationPending:
			fmt.Println(authflow.MsgCheckInbox)
		case authflow.Failed:
			fmt.Println(outcome.Failure.Message)
		}
	},
}

func init() {
	signupCmd.Flags().StringVarP(&signupEmail, "email", "e", "", "E-mail address")
	signupCmd.Flags().StringVarP(&signupPassword, "password", "w", "", "Password (at least 6 characters)")
	rootCmd.AddCommand(signupCmd)
}
