package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/brk3/habitgrid/internal/logger"
	"github.com/brk3/habitgrid/internal/server"
	"github.com/brk3/habitgrid/internal/storage/bolt"
	"github.com/spf13/cobra"
)

var (
	serverAddr string
	serverDB   string
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the HTTP server",
	Long: `The "server" command serves the habits API from a local bbolt database.
The CLI's other commands talk to it over HTTP.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return startServer(cmd)
	},
}

func init() {
	serverCmd.Flags().StringVar(&serverAddr, "addr", "", "listen address (overrides listen_addr)")
	serverCmd.Flags().StringVar(&serverDB, "db", "", "database path (overrides db_path)")
	rootCmd.AddCommand(serverCmd)
}

func startServer(cmd *cobra.Command) error {
	if serverAddr != "" {
		cfg.ListenAddr = serverAddr
	}
	if serverDB != "" {
		cfg.DBPath = serverDB
	}

	st, err := bolt.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer st.Close()
	logger.Info("Opened database", "path", cfg.DBPath)

	srv, err := server.New(cfg, st)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return srv.ListenAndServe(ctx, cfg.ListenAddr)
}
