package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	envFile string
	logMode string
)

var rootCmd = &cobra.Command{
	Use:   "whereabouts",
	Short: "Recognize enrolled faces and report where they are likely to be",
	Long: `Whereabouts enrolls identities from folders of face photos, recognizes
them in camera frames and annotates every recognized face with the place its
mobility schedule says it is likely at right now.

Face detection and embeddings are computed by an external embedding server
(EMBEDDING_URL). Enrollments are stored as .npy files or, when DATABASE_URL
is set, in PostgreSQL with pgvector.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Optional dotenv file loaded before reading configuration")
	rootCmd.PersistentFlags().StringVar(&logMode, "log-mode", "", "Log format: dev or prod (defaults to LOG_MODE)")
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load(envFile)
}
