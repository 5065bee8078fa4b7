package main

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Log uit",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		a, err := newApp(ctx)
		if err != nil {
			log.Fatal(err)
		}
		defer a.Close()

		if err := a.provider.SignOut(ctx); err != nil {
			log.Fatal(err)
		}
		fmt.Println("Tot de volgende friet.")
	},
}

func init() {
	rootCmd.AddCommand(logoutCmd)
}
