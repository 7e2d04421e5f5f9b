package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/authgate/authgate/config"
	"github.com/authgate/authgate/database"
	"github.com/authgate/authgate/logger"
	"github.com/authgate/authgate/web"
	"github.com/authgate/authgate/web/cache"

	"github.com/spf13/cobra"
)

func initLogger() {
	level, err := logger.ParseLevel(config.GetLogLevel())
	if err != nil {
		log.Fatal(err)
	}
	logger.InitLogger(level)
}

func initDB() {
	if err := database.InitDB(config.GetDatabaseConfig()); err != nil {
		log.Fatal("database: ", err)
	}
	// a failed table check is logged; requests will report the store as unavailable
	if err := database.EnsureSchema(); err != nil {
		logger.Error("ensure schema failed:", err)
	}
}

func runWebServer() {
	log.Printf("%v %v", config.GetName(), config.GetVersion())

	config.LoadEnvFile()
	initLogger()
	defer logger.CloseLogger()

	initDB()
	defer database.CloseDB()

	if err := cache.InitRedis(config.GetRedisAddr(), config.GetRedisPassword()); err != nil {
		log.Fatal("redis: ", err)
	}
	defer cache.Close()

	server := web.NewServer()
	if err := server.Start(); err != nil {
		logger.Error("start server failed:", err)
		return
	}

	sigCh := make(chan os.Signal, 1)
	// Trap shutdown signals
	signal.Notify(sigCh, syscall.SIGHUP, syscall.SIGTERM, syscall.SIGINT)
	for {
		sig := <-sigCh

		switch sig {
		case syscall.SIGHUP:
			logger.Info("received SIGHUP, restarting web server")
			if err := server.Stop(); err != nil {
				logger.Warning("stop server err:", err)
			}
			server = web.NewServer()
			if err := server.Start(); err != nil {
				logger.Error("restart server failed:", err)
				return
			}
		default:
			logger.Info("received", sig, "shutting down")
			if err := server.Stop(); err != nil {
				logger.Warning("stop server err:", err)
			}
			return
		}
	}
}

func migrateDb() {
	config.LoadEnvFile()
	initLogger()
	defer logger.CloseLogger()

	if err := database.InitDB(config.GetDatabaseConfig()); err != nil {
		fmt.Println("open database failed:", err)
		os.Exit(1)
	}
	defer database.CloseDB()

	if err := database.EnsureSchema(); err != nil {
		fmt.Println("migrate failed:", err)
		os.Exit(1)
	}
	fmt.Println("migrate success")
}

func main() {
	var rootCmd = &cobra.Command{
		Use:   config.GetName(),
		Short: "Sign-up and login web app",
		Run: func(cmd *cobra.Command, args []string) {
			runWebServer()
		},
	}

	var runCmd = &cobra.Command{
		Use:   "run",
		Short: "Run the web server",
		Run: func(cmd *cobra.Command, args []string) {
			runWebServer()
		},
	}

	var migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Create the authentication table if it does not exist",
		Run: func(cmd *cobra.Command, args []string) {
			migrateDb()
		},
	}

	var versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Show name and version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(config.GetName(), config.GetVersion())
		},
	}

	rootCmd.AddCommand(runCmd, migrateCmd, versionCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
