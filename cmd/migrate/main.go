// Command migrate maintains the reservation store from the shell:
//
//	migrate -mode schema
//	migrate -mode import -file data/db.json
//	migrate -mode backfill
//	migrate -mode reset-password -user NAME -password PW
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/tle-lab/reservations/internal/account"
	"github.com/tle-lab/reservations/internal/config"
	"github.com/tle-lab/reservations/internal/database"
	"github.com/tle-lab/reservations/internal/legacy"
	"github.com/tle-lab/reservations/internal/repository"
)

func main() {
	mode := flag.String("mode", "", "schema | import | backfill | reset-password")
	file := flag.String("file", "data/db.json", "old JSON data file (import)")
	user := flag.String("user", "", "username (reset-password)")
	password := flag.String("password", "", "new password (reset-password)")
	flag.Parse()

	sc := config.LoadStore()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	switch *mode {
	case "schema":
		if sc.StorageDriver != config.StorageSQL {
			log.Fatal("schema: STORAGE_DRIVER must be sql")
		}
		db, err := database.Open(database.OptionsFrom(sc))
		if err != nil {
			log.Fatalf("database: %v", err)
		}
		if err := repository.Migrate(db); err != nil {
			log.Fatalf("schema: %v", err)
		}
		log.Println("schema: up to date")

	case "import":
		if sc.StorageDriver == config.StorageJSON {
			if err := legacy.CheckSource(*file, sc.JSONPath); err != nil {
				log.Fatalf("import: %v (set JSON_DB_PATH to a different file)", err)
			}
		}
		store := open(sc)
		defer func() { _ = store.Close() }()
		f, err := os.Open(*file)
		if err != nil {
			log.Fatalf("import: %v", err)
		}
		defer func() { _ = f.Close() }()
		data, err := legacy.Decode(f)
		if err != nil {
			log.Fatalf("import: %v", err)
		}
		rep, err := legacy.Import(ctx, store.Repo, data)
		if err != nil {
			log.Fatalf("import: %v (so far %s)", err, rep)
		}
		if err := store.ResyncSequences(ctx); err != nil {
			log.Fatalf("import: resync id sequence: %v", err)
		}
		log.Printf("import: %s", rep)

	case "backfill":
		store := open(sc)
		defer func() { _ = store.Close() }()
		n, err := legacy.Backfill(ctx, store.Repo)
		if err != nil {
			log.Fatalf("backfill: %v", err)
		}
		log.Printf("backfill: updated %d reservations", n)

	case "reset-password":
		if *user == "" || *password == "" {
			log.Fatal("reset-password: -user and -password are required")
		}
		store := open(sc)
		defer func() { _ = store.Close() }()
		accounts := account.NewService(store.Repo, config.BcryptCost())
		if err := accounts.ResetPasswordByName(ctx, *user, *password); err != nil {
			log.Fatalf("reset-password: %v", err)
		}
		log.Printf("reset-password: password for %s updated", *user)

	default:
		flag.Usage()
		os.Exit(2)
	}
}

func open(sc config.StoreConfig) *database.Store {
	store, err := database.OpenStore(sc, true)
	if err != nil {
		log.Fatalf("storage: %v", err)
	}
	return store
}
