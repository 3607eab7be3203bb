package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"spaceship-shmup/arena"
	"spaceship-shmup/server"
	"spaceship-shmup/store"
	"spaceship-shmup/weapon"
)

func main() {
	addr := flag.String("addr", ":8080", "HTTP listen address")
	dbPath := flag.String("db", "shmup.db", "SQLite database path (empty disables accounts and scores)")
	weaponsPath := flag.String("weapons", "", "YAML weapon table (default: built-in)")
	clientDir := flag.String("client", "", "Path to static client directory (empty serves none)")
	seed := flag.Int64("seed", 0, "Random seed for arenas (0 uses the clock)")
	dumpWeapons := flag.Bool("dump-weapons", false, "Print the weapon table as YAML and exit")
	flag.Parse()

	catalog := weapon.DefaultCatalog()
	if *weaponsPath != "" {
		var err error
		catalog, err = weapon.LoadCatalog(*weaponsPath)
		if err != nil {
			log.Fatalf("weapons: %v", err)
		}
		log.Printf("Loaded weapon table from %s", *weaponsPath)
	}

	if *dumpWeapons {
		data, err := catalog.Marshal()
		if err != nil {
			log.Fatalf("weapons: %v", err)
		}
		os.Stdout.Write(data)
		return
	}

	var db *store.DB
	if *dbPath != "" {
		var err error
		db, err = store.Open(*dbPath)
		if err != nil {
			log.Fatalf("database: %v", err)
		}
		defer db.Close()
	}

	hub := server.NewHub(server.Config{
		Arena:   arena.DefaultConfig(),
		Catalog: catalog,
		Seed:    *seed,
	}, db)
	go hub.Run()

	mux := server.SetupRoutes(hub, *clientDir)

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	srv := &http.Server{Addr: *addr, Handler: mux}

	go func() {
		log.Printf("Server starting on %s", *addr)
		if *clientDir != "" {
			log.Printf("Serving client files from %s", *clientDir)
		}
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe: %v", err)
		}
	}()

	<-stop
	log.Println("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv.Shutdown(ctx)
	hub.Stop()
}
