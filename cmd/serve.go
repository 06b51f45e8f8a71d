package cmd

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/peejay-git/stallions/internal/api"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long: `Start an HTTP server exposing the bounty engine under /api/v1.

The caller's principal is read from the X-Stallions-Principal header;
authentication is the fronting host's responsibility. By default the server
listens on port 8080. Use --port to change it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		port := viper.GetInt("api.port")

		eng, err := getEngine()
		if err != nil {
			return err
		}
		l, err := getLedger()
		if err != nil {
			return err
		}
		srv := api.NewServer(eng, l)

		addr := fmt.Sprintf(":%d", port)
		ui.Info("Serving API at http://localhost%s/api/v1", addr)
		return http.ListenAndServe(addr, srv.Router())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntP("port", "p", 8080, "port to listen on")
	_ = viper.BindPFlag("api.port", serveCmd.Flags().Lookup("port"))
}
