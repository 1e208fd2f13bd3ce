package main

import (
	"bufio"
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/franckalain/nutriscan/internal/config"
	"github.com/franckalain/nutriscan/internal/database"
	"github.com/franckalain/nutriscan/internal/decoder"
	"github.com/franckalain/nutriscan/internal/openfoodfacts"
	"github.com/franckalain/nutriscan/internal/scanner"
	"github.com/franckalain/nutriscan/internal/terminal"
)

func main() {
	configPath := flag.String("config", config.GetConfigPath(), "path to configuration file")
	device := flag.String("device", "", "serial device of a hardware scanner (reads stdin when empty)")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath, false)
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}
	if *device != "" {
		cfg.Decoder.Type = "serial"
		cfg.Decoder.Device = *device
	}

	// log lines go to stderr so stdout only carries the display
	logger := log.New(os.Stderr, "[scanner] ", log.LstdFlags)

	db, err := database.NewSQLiteDB(cfg.Database.Path)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	src, err := decoder.New(cfg.Decoder.Type, cfg.Decoder.Device, cfg.Decoder.Baud, os.Stdin)
	if err != nil {
		log.Fatal("Failed to create decoder:", err)
	}

	ctrl := scanner.New(src, openfoodfacts.New(cfg.Lookup.BaseURL, cfg.LookupTimeout()), terminal.New(os.Stdout),
		scanner.WithJournal(db),
		scanner.WithLogger(logger),
	)
	src.SetSink(ctrl)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if lines, ok := src.(*decoder.Lines); ok {
		lines.OnRestart(ctrl.Restart)
		go func() {
			<-lines.Done()
			stop()
		}()
	} else {
		// with a hardware scanner, Enter on the keyboard is "scan again"
		go func() {
			sc := bufio.NewScanner(os.Stdin)
			for sc.Scan() {
				ctrl.Restart()
			}
		}()
	}

	ctrl.Start()
	if err := ctrl.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Printf("Controller stopped: %v", err)
	}
}
