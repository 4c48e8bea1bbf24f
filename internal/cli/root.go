package cli

import (
	"github.com/spf13/cobra"
)

// NewRootCmd собирает дерево команд infra-admin. Флаги пишутся в app.
func NewRootCmd(app *App, version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "infra-admin",
		Short:         "INFRA admin panel in the terminal",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetOut(app.Stdout)
	rootCmd.SetErr(app.Stderr)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&app.APIURL, "api-url", app.APIURL, "API server URL")
	flags.BoolVar(&app.JSON, "json", false, "Output in JSON format")
	flags.StringVar(&app.SessionFile, "session-file", app.SessionFile, "Session cookies file")

	rootCmd.AddCommand(
		newLoginCmd(app),
		newLogoutCmd(app),
		newWhoamiCmd(app),
		newOverviewCmd(app),
		NewSourceCmd(app),
		NewTopicCmd(app),
		NewAlertCmd(app),
		NewFinancialsCmd(app),
		newHashPasswordCmd(app),
	)

	return rootCmd
}
