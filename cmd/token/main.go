// Command token mints a bearer token for calling the payroll API.
//
//	JWT_SECRET=... token -actor alice -ttl 1h
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/mmynk/payroll/internal/auth"
	"github.com/mmynk/payroll/pkg/logging"
)

func main() {
	logging.Setup()

	actor := flag.String("actor", "", "actor ID recorded on changes made with the token (required)")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		slog.Error("JWT_SECRET must be set to the server's signing secret")
		os.Exit(1)
	}
	if *ttl <= 0 {
		slog.Error("ttl must be positive", "ttl", *ttl)
		os.Exit(1)
	}

	token, err := auth.NewJWTManager(secret, *ttl).Generate(*actor)
	if err != nil {
		slog.Error("Failed to mint token", "actor_id", *actor, "error", err)
		flag.Usage()
		os.Exit(1)
	}

	fmt.Println(token)
}
