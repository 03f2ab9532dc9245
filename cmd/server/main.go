// Command server runs the ACR sample web app.
//
// With -createsuperuser, it instead creates a staff user
// allowed to do everything in the admin site, then exits.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/xy-planning-network/acrsample"
	"github.com/xy-planning-network/acrsample/logger"
	"github.com/xy-planning-network/acrsample/postgres"
	"github.com/xy-planning-network/acrsample/ranger"
)

const adminPasswordEnvVar = "ADMIN_PASSWORD"

func main() {
	var (
		create   = flag.Bool("createsuperuser", false, "create a superuser and exit")
		username = flag.String("username", "", "username of the superuser")
		email    = flag.String("email", "", "email address of the superuser")
		password = flag.String("password", "", "password of the superuser; defaults to $"+adminPasswordEnvVar)
	)
	flag.Parse()

	if !*create {
		serve()
		return
	}

	env := acrsample.EnvVarOrEnv("ENVIRONMENT", acrsample.Development)
	l := logger.New(logger.WithEnv(env.String()))

	pass := *password
	if pass == "" {
		pass = os.Getenv(adminPasswordEnvVar)
	}

	if err := createSuperuser(env, *username, *email, pass); err != nil {
		l.Fatal(err.Error(), nil)
		os.Exit(1)
	}

	l.Info(fmt.Sprintf("superuser %q created successfully", *username), nil)
}

func serve() {
	rng, err := ranger.New()
	if err != nil {
		logger.New().Fatal(err.Error(), nil)
		os.Exit(1)
	}

	if err := rng.Guide(); err != nil {
		rng.EmitLogger().Fatal(err.Error(), nil)
		os.Exit(1)
	}
}

func createSuperuser(env acrsample.Environment, username, email, password string) error {
	if password == "" {
		return fmt.Errorf("%w: provide -password or set %s", acrsample.ErrMissingData, adminPasswordEnvVar)
	}

	u, err := acrsample.NewUser(username, email, password)
	if err != nil {
		return err
	}
	u.IsStaff = true
	u.IsSuperuser = true

	db, err := postgres.Connect(ranger.NewPostgresConfig(env), postgres.Migrations, env)
	if err != nil {
		return err
	}
	defer postgres.Close(db)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err = postgres.NewUserStore(db).Create(ctx, u)
	if errors.Is(err, acrsample.ErrExists) {
		return fmt.Errorf("%w: username %q is already taken", err, username)
	}

	return err
}
