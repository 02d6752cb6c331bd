package main

import (
	"context"
	"flag"
	"fmt"
	"time"
)

func (a *app) register(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	name := fs.String("name", "", "full name")
	email := fs.String("email", "", "email address")
	password := fs.String("password", "", "password (6 characters minimum)")
	fs.Parse(args)

	if *name == "" || *email == "" || *password == "" {
		return fmt.Errorf("register: -name, -email and -password are required")
	}

	user, err := a.sess.Register(ctx, *name, *email, *password)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Account created. Logged in as %s <%s> (%s)\n", user.Name, user.Email, user.Role)
	return nil
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "email address")
	password := fs.String("password", "", "password")
	fs.Parse(args)

	if *email == "" || *password == "" {
		return fmt.Errorf("login: -email and -password are required")
	}

	user, err := a.sess.Login(ctx, *email, *password)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Logged in as %s <%s> (%s)\n", user.Name, user.Email, user.Role)
	return nil
}

func (a *app) whoami() error {
	user := a.sess.CurrentUser()
	if user == nil {
		fmt.Fprintln(a.out, "Not logged in.")
		return nil
	}
	fmt.Fprintf(a.out, "%s <%s> (%s)\n", user.Name, user.Email, user.Role)
	if exp, ok := a.sess.ExpiresAt(); ok {
		fmt.Fprintf(a.out, "Session expires %s\n", exp.Local().Format(time.RFC1123))
	}
	return nil
}
