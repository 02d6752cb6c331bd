package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"qrstock_client/internal/api"
	"qrstock_client/internal/models"
)

func (a *app) items(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("items: missing subcommand (list|get|scan|create|update|delete|qr)")
	}

	switch args[0] {
	case "list":
		return a.itemsList(ctx)
	case "get":
		if len(args) < 2 {
			return fmt.Errorf("items get: missing item id")
		}
		item, err := a.gw.Item(ctx, args[1])
		if err != nil {
			return err
		}
		a.printItem(item)
		return nil
	case "create":
		return a.itemsCreate(ctx, args[1:])
	case "update":
		return a.itemsUpdate(ctx, args[1:])
	case "delete":
		if len(args) < 2 {
			return fmt.Errorf("items delete: missing item id")
		}
		if !a.confirm(fmt.Sprintf("Delete item %s?", args[1])) {
			fmt.Fprintln(a.out, "Aborted.")
			return nil
		}
		if err := a.gw.DeleteItem(ctx, args[1]); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "Item deleted.")
		return nil
	case "qr":
		return a.itemsQR(ctx, args[1:])
	case "scan":
		return a.scan(ctx, args[1:])
	default:
		return fmt.Errorf("items: unknown subcommand %q", args[0])
	}
}

func (a *app) itemsList(ctx context.Context) error {
	items, err := a.gw.Items(ctx)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Fprintln(a.out, "No items.")
		return nil
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tQTY\tPRICE\tQR CODE\t")
	for _, it := range items {
		marker := ""
		if it.LowStock {
			marker = " ⚠️"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d%s\t%.2f\t%s\t\n",
			it.ID, it.Name, it.Category, it.Quantity, marker, it.Price, it.QRCode)
	}
	return w.Flush()
}

func (a *app) itemsCreate(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("items create", flag.ExitOnError)
	name := fs.String("name", "", "item name")
	category := fs.String("category", "", "item category")
	quantity := fs.Int("quantity", 0, "stock quantity")
	price := fs.Float64("price", 0, "unit price")
	fs.Parse(args)

	item, err := a.gw.CreateItem(ctx, api.ItemInput{
		Name:     *name,
		Category: *category,
		Quantity: *quantity,
		Price:    *price,
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Item created.")
	a.printItem(item)
	return nil
}

// itemsUpdate n'envoie que les drapeaux explicitement passés : une mise à
// jour partielle ne doit pas écraser les champs omis.
func (a *app) itemsUpdate(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("items update: missing item id")
	}
	id := args[0]

	fs := flag.NewFlagSet("items update", flag.ExitOnError)
	name := fs.String("name", "", "item name")
	category := fs.String("category", "", "item category")
	quantity := fs.Int("quantity", 0, "stock quantity")
	price := fs.Float64("price", 0, "unit price")
	fs.Parse(args[1:])

	var update api.ItemUpdate
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "name":
			update.Name = name
		case "category":
			update.Category = category
		case "quantity":
			update.Quantity = quantity
		case "price":
			update.Price = price
		}
	})

	item, err := a.gw.UpdateItem(ctx, id, update)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Item updated.")
	a.printItem(item)
	return nil
}

func (a *app) itemsQR(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("items qr: missing item id")
	}
	id := args[0]

	fs := flag.NewFlagSet("items qr", flag.ExitOnError)
	output := fs.String("o", "", "write the PNG data URI to a file instead of stdout")
	fs.Parse(args[1:])

	img, err := a.gw.QRImage(ctx, id)
	if err != nil {
		return err
	}

	if *output != "" {
		if err := os.WriteFile(*output, []byte(img.QRImage), 0o644); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "QR code %s written to %s\n", img.QRCode, *output)
		return nil
	}
	fmt.Fprintf(a.out, "QR code: %s\n%s\n", img.QRCode, img.QRImage)
	return nil
}

func (a *app) scan(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("scan: missing QR code")
	}
	item, err := a.gw.ItemByQR(ctx, args[0])
	if err != nil {
		return err
	}
	a.printItem(item)
	return nil
}

// lookup passe par le chemin public : utilisable sans session, soumis au
// rate limiting côté serveur.
func (a *app) lookup(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("lookup: missing QR token")
	}
	info, err := a.gw.PublicItemByQRToken(ctx, args[0])
	if err != nil {
		return err
	}

	stock := "in stock"
	if !info.InStock {
		stock = "out of stock"
	}
	fmt.Fprintf(a.out, "%s (%s)\n", info.Name, info.Category)
	fmt.Fprintf(a.out, "Price: %.2f — %s (%d available)\n", info.Price, stock, info.Quantity)
	fmt.Fprintf(a.out, "QR: %s\n", info.QRCode)
	return nil
}

func (a *app) printItem(it *models.InventoryItem) {
	fmt.Fprintf(a.out, "%s — %s (%s)\n", it.ID, it.Name, it.Category)
	fmt.Fprintf(a.out, "Quantity: %d", it.Quantity)
	if it.LowStock {
		fmt.Fprint(a.out, " ⚠️ low stock")
	}
	fmt.Fprintf(a.out, "\nPrice: %.2f\nQR: %s\n", it.Price, it.QRCode)
	if it.UpdatedAt != "" {
		fmt.Fprintf(a.out, "Updated: %s\n", it.UpdatedAt)
	}
}
