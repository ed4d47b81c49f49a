// Command tokengen mints bearer tokens for local development.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"art-auction/config"
	"art-auction/internal/auth"
	"art-auction/utils"
)

func main() {
	userID := flag.String("user", "", "user id to issue the token for")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	if *userID == "" {
		fmt.Fprintln(os.Stderr, "usage: tokengen -user <id> [-ttl 24h]")
		os.Exit(2)
	}

	cfg := config.Load()
	token, err := auth.NewService(cfg.JWTSecret).IssueToken(*userID, *ttl)
	if err != nil {
		utils.Fatal("failed to issue token", map[string]any{"user_id": *userID, "error": err.Error()})
	}
	fmt.Println(token)
}
