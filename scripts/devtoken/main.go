// Command devtoken prints an operator access token signed with JWT_SECRET, for
// calling the admin endpoints of a local API.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/noah-isme/gym-admin-api/internal/models"
	"github.com/noah-isme/gym-admin-api/internal/service"
	"github.com/noah-isme/gym-admin-api/pkg/config"
)

func main() {
	var (
		userID string
		email  string
		name   string
		role   string
		ttl    time.Duration
	)
	flag.StringVar(&userID, "user", "", "operator id (random when empty)")
	flag.StringVar(&email, "email", "admin@gym.local", "operator e-mail")
	flag.StringVar(&name, "name", "Gym Admin", "operator display name")
	flag.StringVar(&role, "role", string(models.RoleAdmin), "ADMIN or SUPERADMIN")
	flag.DurationVar(&ttl, "ttl", 12*time.Hour, "token lifetime")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if cfg.JWT.Secret == "" {
		log.Fatal("JWT_SECRET is not set")
	}

	auth := service.NewAuthService(nil, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: ttl,
		Issuer:            cfg.JWT.Issuer,
		Audience:          cfg.JWT.Audience,
	})
	token, expiresAt, err := auth.IssueToken(userID, email, name, models.UserRole(role))
	if err != nil {
		log.Fatalf("failed to sign token: %v", err)
	}

	fmt.Fprintf(os.Stderr, "expires at %s\n", expiresAt.Format(time.RFC3339))
	fmt.Println(token)
}
