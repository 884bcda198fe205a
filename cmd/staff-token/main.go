package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/noah-isme/wset-admin-api/internal/models"
	"github.com/noah-isme/wset-admin-api/internal/service"
	"github.com/noah-isme/wset-admin-api/pkg/config"
)

// staff-token mints a bearer token for a dashboard staff member using the API's JWT settings.
func main() {
	var (
		id     string
		email  string
		name   string
		role   string
		expiry time.Duration
	)
	flag.StringVar(&id, "id", "", "Staff user ID (required)")
	flag.StringVar(&email, "email", "", "Staff email")
	flag.StringVar(&name, "name", "", "Staff display name")
	flag.StringVar(&role, "role", string(models.RoleAdmin), "OWNER, ADMIN or EDUCATOR")
	flag.DurationVar(&expiry, "expiry", 0, "Token lifetime; defaults to JWT_EXPIRATION")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if expiry <= 0 {
		expiry = cfg.JWT.Expiration
	}

	tokens := service.NewTokenService(service.TokenConfig{Secret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer, Expiry: expiry})
	token, expiresAt, err := tokens.Issue(service.StaffIdentity{
		ID:    strings.TrimSpace(id),
		Email: strings.TrimSpace(email),
		Name:  strings.TrimSpace(name),
		Role:  models.StaffRole(strings.ToUpper(strings.TrimSpace(role))),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot issue token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
	fmt.Fprintf(os.Stderr, "expires %s\n", expiresAt.Format(time.RFC3339))
}
