// @title           Blogkeeper API
// @version         1.0
// @description     Blog platform with archived posts, capability-token workflows and a consistency scrubber.
// @BasePath        /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	_ "github.com/sirpyerre/blogkeeper/docs"
)

var rootCmd = &cobra.Command{
	Use:           "blogkeeper",
	Short:         "Blog platform server and maintenance commands",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// A missing .env is normal outside local development.
		_ = godotenv.Load()
	},
}

func main() {
	rootCmd.AddCommand(serveCmd(), scrubCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
