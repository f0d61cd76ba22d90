// Command devtoken prints a bearer token for a local user, signed with JWT_SECRET.
//
//	devtoken -user 2 -name alice -ttl 24h
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/ariefcatur/go-restaurant-api.git/internal/auth"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	userID := flag.Int64("user", 0, "user id (token subject)")
	name := flag.String("name", "", "username claim")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime, 0 for none")
	flag.Parse()

	secret := os.Getenv("JWT_SECRET")
	if secret == "" || *userID <= 0 {
		fmt.Fprintln(os.Stderr, "usage: JWT_SECRET=... devtoken -user <id> [-name <username>] [-ttl 24h]")
		os.Exit(2)
	}
	tok, err := auth.New(secret).Sign(*userID, *name, *ttl)
	if err != nil {
		fmt.Fprintln(os.Stderr, "sign:", err)
		os.Exit(1)
	}
	fmt.Println(tok)
}
