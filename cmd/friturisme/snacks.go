package main

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
)

var snacksCmd = &cobra.Command{
	Use:   "snacks <snack>...",
	Short: "Kies uw favoriete snacks (rondt de onboarding af)",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		a, err := newApp(ctx)
		if err != nil {
			log.Fatal(err)
		}
		defer a.Close()

		current, _ := a.store.Current()
		if !current.Valid() {
			fmt.Println("Log eerst in.")
			return
		}

		if err := a.profiles.SetFavoriteSnacks(ctx, current.User.ID, args); err != nil {
			log.Fatal(err)
		}

		// the guard must see the fresh onboarding state right away
		a.navigate(ctx)
	},
}

func init() {
	rootCmd.AddCommand(snacksCmd)
}
