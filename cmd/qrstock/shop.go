package main

import (
	"context"
	"flag"
	"fmt"
	"text/tabwriter"

	"qrstock_client/internal/cart"
	"qrstock_client/internal/checkout"
	"qrstock_client/internal/models"
)

func (a *app) cart(ctx context.Context, args []string) error {
	if len(args) == 0 {
		args = []string{"show"}
	}

	switch args[0] {
	case "show":
		return a.cartShow()
	case "add":
		return a.cartAdd(ctx, args[1:])
	case "update":
		return a.cartUpdate(args[1:])
	case "remove":
		if len(args) < 2 {
			return fmt.Errorf("cart remove: missing item id")
		}
		if err := a.basket.RemoveItem(args[1]); err != nil {
			return err
		}
		return a.cartShow()
	case "clear":
		if err := a.basket.Clear(); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "Cart cleared.")
		return nil
	default:
		return fmt.Errorf("cart: unknown subcommand %q", args[0])
	}
}

func (a *app) cartShow() error {
	lines := a.basket.Lines()
	if len(lines) == 0 {
		fmt.Fprintln(a.out, "Your cart is empty.")
		return nil
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tQTY\tMAX\tPRICE\tSUBTOTAL\t")
	for _, l := range lines {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%.2f\t%.2f\t\n",
			l.ID, l.Name, l.Quantity, l.MaxQuantity, l.Price, l.Price*float64(l.Quantity))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%d item(s) — total %.2f\n", a.basket.ItemCount(), a.basket.TotalAmount())
	return nil
}

// cartAdd rafraîchit l'article auprès du backend avant de l'ajouter : le
// plafond de quantité doit refléter le stock courant, pas un instantané.
func (a *app) cartAdd(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("cart add: missing item id")
	}
	id := args[0]

	fs := flag.NewFlagSet("cart add", flag.ExitOnError)
	qty := fs.Int("qty", 1, "quantity to add")
	fs.Parse(args[1:])

	item, err := a.gw.Item(ctx, id)
	if err != nil {
		return err
	}
	if err := a.basket.AddItem(cart.ProductFromItem(*item), *qty); err != nil {
		return err
	}
	if got := a.basket.ItemQuantity(id); got < *qty {
		fmt.Fprintf(a.out, "Only %d in stock — cart holds %d of %s.\n", item.Quantity, got, item.Name)
	}
	return a.cartShow()
}

func (a *app) cartUpdate(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("cart update: missing item id")
	}
	id := args[0]

	fs := flag.NewFlagSet("cart update", flag.ExitOnError)
	qty := fs.Int("qty", -1, "new quantity (0 removes the line)")
	fs.Parse(args[1:])
	if *qty < 0 {
		return fmt.Errorf("cart update: -qty is required")
	}

	if err := a.basket.UpdateQuantity(id, *qty); err != nil {
		return err
	}
	return a.cartShow()
}

func (a *app) checkout(ctx context.Context) error {
	if a.basket.IsEmpty() {
		fmt.Fprintln(a.out, "Your cart is empty.")
		return nil
	}

	if err := a.cartShow(); err != nil {
		return err
	}
	if !a.confirm("Place this order?") {
		fmt.Fprintln(a.out, "Aborted.")
		return nil
	}

	flow := checkout.New(a.basket, a.gw)
	order, err := flow.Checkout(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Order confirmed ✅")
	a.printOrder(order)
	return nil
}

func (a *app) orders(ctx context.Context, args []string) error {
	if len(args) == 0 {
		args = []string{"list"}
	}

	switch args[0] {
	case "list":
		orders, err := a.gw.Orders(ctx)
		if err != nil {
			return err
		}
		if len(orders) == 0 {
			fmt.Fprintln(a.out, "No orders.")
			return nil
		}
		w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tBUYER\tITEMS\tTOTAL\tSTATUS\tCREATED\t")
		for _, o := range orders {
			fmt.Fprintf(w, "%s\t%s\t%d\t%.2f\t%s\t%s\t\n",
				o.ID, o.BuyerName, len(o.Items), o.TotalAmount, o.Status, o.CreatedAt)
		}
		return w.Flush()
	case "get":
		if len(args) < 2 {
			return fmt.Errorf("orders get: missing order id")
		}
		order, err := a.gw.Order(ctx, args[1])
		if err != nil {
			return err
		}
		a.printOrder(order)
		return nil
	case "set-status":
		if len(args) < 3 {
			return fmt.Errorf("orders set-status: usage: orders set-status ID pending|completed|cancelled")
		}
		if !models.ValidOrderStatus(args[2]) {
			return fmt.Errorf("orders set-status: invalid status %q", args[2])
		}
		order, err := a.gw.UpdateOrderStatus(ctx, args[1], args[2])
		if err != nil {
			return err
		}
		a.printOrder(order)
		return nil
	default:
		return fmt.Errorf("orders: unknown subcommand %q", args[0])
	}
}

func (a *app) printOrder(o *models.Order) {
	fmt.Fprintf(a.out, "Order %s — %s — %s\n", o.ID, o.Status, o.CreatedAt)
	if o.BuyerName != "" {
		fmt.Fprintf(a.out, "Buyer: %s\n", o.BuyerName)
	}
	for _, it := range o.Items {
		fmt.Fprintf(a.out, "  %d × %s @ %.2f = %.2f\n", it.Quantity, it.Name, it.Price, it.Subtotal)
	}
	fmt.Fprintf(a.out, "Total: %.2f\n", o.TotalAmount)
}
