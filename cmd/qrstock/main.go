// qrstock est le client en ligne de commande du backend d'inventaire :
// authentification, catalogue, panier local persistant et commandes.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"qrstock_client/internal/api"
	"qrstock_client/internal/cart"
	"qrstock_client/internal/config"
	"qrstock_client/internal/session"
	"qrstock_client/internal/store"
)

type app struct {
	gw     *api.Gateway
	sess   *session.Manager
	basket *cart.Manager
	in     *bufio.Reader
	out    *os.File
}

func main() {
	config.Load()

	st, err := openStore()
	if err != nil {
		log.Fatal("❌ Impossible d'ouvrir le store local :", err)
	}

	gw := api.New(config.APIURL())
	sess := session.New(st, gw)
	sess.Initialize()

	a := &app{
		gw:     gw,
		sess:   sess,
		basket: cart.New(st),
		in:     bufio.NewReader(os.Stdin),
		out:    os.Stdout,
	}

	if err := a.run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openStore choisit le backend de persistance locale : fichiers (défaut) ou
// Redis partagé.
func openStore() (store.Store, error) {
	if config.StoreBackend() == "redis" {
		prefix := "default"
		if home, err := os.UserHomeDir(); err == nil {
			prefix = strings.ReplaceAll(strings.TrimPrefix(home, "/"), "/", "_")
		}
		return store.NewRedisStore(config.RedisAddr(), config.RedisPassword(), prefix), nil
	}
	return store.NewFileStore(config.StateDir())
}

func (a *app) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		usage()
		return fmt.Errorf("missing command")
	}

	switch args[0] {
	case "register":
		return a.register(ctx, args[1:])
	case "login":
		return a.login(ctx, args[1:])
	case "logout":
		a.sess.Logout()
		fmt.Fprintln(a.out, "Logged out.")
		return nil
	case "whoami":
		return a.whoami()
	case "items":
		return a.items(ctx, args[1:])
	case "scan":
		return a.scan(ctx, args[1:])
	case "lookup":
		return a.lookup(ctx, args[1:])
	case "cart":
		return a.cart(ctx, args[1:])
	case "checkout":
		return a.checkout(ctx)
	case "orders":
		return a.orders(ctx, args[1:])
	case "help", "-h", "--help":
		usage()
		return nil
	default:
		usage()
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func usage() {
	fmt.Fprint(os.Stderr, `Usage: qrstock <command>

Auth:
  register -name NAME -email EMAIL -password PASS   create a buyer account
  login -email EMAIL -password PASS
  logout
  whoami

Inventory:
  items list
  items get ID
  items create -name N -category C -quantity Q -price P   (owner)
  items update ID [-name N] [-category C] [-quantity Q] [-price P]   (owner)
  items delete ID   (owner)
  items qr ID [-o FILE]
  scan QR_CODE             authenticated QR lookup
  lookup QR_TOKEN          public QR lookup (no login needed)

Shopping:
  cart show|add ID [-qty N]|update ID -qty N|remove ID|clear
  checkout                 place an order from the cart
  orders list
  orders get ID
  orders set-status ID pending|completed|cancelled   (owner)
`)
}

// confirm pose une question fermée, défaut non.
func (a *app) confirm(prompt string) bool {
	fmt.Fprintf(a.out, "%s [y/N] ", prompt)
	line, err := a.in.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
