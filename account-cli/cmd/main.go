package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/MiguelKingofcodes/project-ppdm/account-cli/internal/cli"
	"github.com/MiguelKingofcodes/project-ppdm/pkg/accountsdk"
	"github.com/MiguelKingofcodes/project-ppdm/shared/config"
)

func main() {
	apiURL := flag.String("api", config.GetEnv("API_URL", "http://localhost:3000"), "gateway base URL")
	photoDir := flag.String("photos", config.GetEnv("PHOTO_DIR", "."), "directory for saved profile photos")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app := cli.NewApp(accountsdk.NewClient(*apiURL), cli.Options{
		In:       os.Stdin,
		Out:      os.Stdout,
		PhotoDir: *photoDir,
	})
	app.Run(ctx)
}
