package main

import (
	"fmt"
	"log"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
)

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Toon wie er is ingelogd",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		a, err := newApp(ctx)
		if err != nil {
			log.Fatal(err)
		}
		defer a.Close()

		current, _ := a.store.Current()
		if !current.Valid() {
			fmt.Println("Niemand is ingelogd.")
			return
		}

		fmt.Printf("%s (%s)\n", current.User.Email, current.User.ID)

		user, err := a.profiles.GetUser(ctx, current.User.ID)
		if err != nil {
			slog.Debug("no profile row", "error", err)
			return
		}
		if user.Name != "" {
			fmt.Println("Naam:", user.Name)
		}
		if len(user.FavoriteSnacks) > 0 {
			fmt.Println("Favoriete snacks:", strings.Join(user.FavoriteSnacks, ", "))
		}
	},
}

func init() {
	rootCmd.AddCommand(whoamiCmd)
}
