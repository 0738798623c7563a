// Command token mints an access token for local development and smoke tests.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/cmlabs-hris/hris-payroll/internal/config"
	"github.com/cmlabs-hris/hris-payroll/internal/domain/user"
	"github.com/cmlabs-hris/hris-payroll/internal/pkg/jwt"
)

func main() {
	userID := flag.String("user", "", "user id (required)")
	role := flag.String("role", string(user.RoleManager), "owner, manager or employee")
	employeeID := flag.String("employee", "", "employee id bound to the user")
	flag.Parse()

	if *userID == "" {
		fmt.Fprintln(os.Stderr, "-user is required")
		os.Exit(2)
	}
	if _, ok := user.RolePermissions[user.Role(*role)]; !ok {
		fmt.Fprintf(os.Stderr, "unknown role %q\n", *role)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error loading config:", err)
		os.Exit(1)
	}

	var emp *string
	if *employeeID != "" {
		emp = employeeID
	}

	token, _, err := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration).
		GenerateAccessToken(*userID, emp, user.Role(*role))
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error generating token:", err)
		os.Exit(1)
	}

	fmt.Println(token)
}
