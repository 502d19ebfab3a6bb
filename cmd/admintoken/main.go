package main

import (
	"flag"
	"fmt"

	"glec/pkg/auth"
	"glec/pkg/config"
)

const JobName = "admin-token"

// Issues a signed admin JWT for operators and local testing.
func main() {
	subject := flag.String("sub", "", "admin user id")
	email := flag.String("email", "", "admin email, used as the default proposal contact")
	role := flag.String("role", string(auth.RoleContentManager), "SUPER_ADMIN, CONTENT_MANAGER or ANALYST")
	flag.Parse()

	cfg := config.Load(JobName)

	if *subject == "" {
		cfg.Log.Fatal("-sub is required")
	}

	signer, err := auth.NewSigner(cfg.JWTSecret, cfg.JWTTTL)
	if err != nil {
		cfg.Log.Fatal("Cannot sign tokens", "error", err)
	}

	token, err := signer.GenerateToken(auth.Claims{
		Subject: *subject,
		Email:   *email,
		Role:    auth.Role(*role),
	})
	if err != nil {
		cfg.Log.Fatal("Failed to generate token", "error", err)
	}

	cfg.Log.Info("Admin token issued", "sub", *subject, "role", *role, "expires_in", cfg.JWTTTL)
	fmt.Println(token)
}
