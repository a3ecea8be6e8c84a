package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/exousia/storefront/internal/cart"
	"github.com/exousia/storefront/internal/checkout"
	"github.com/exousia/storefront/internal/client"
	"github.com/exousia/storefront/internal/config"
	"github.com/exousia/storefront/internal/identity"
	"github.com/exousia/storefront/internal/pricing"
	"github.com/exousia/storefront/internal/storage/sqlite"
)

const usage = `Usage: shop <command> [arguments]

Commands:
  add <product-id> <name> <price> [quantity] [size] [color] [image-url]
  update <line-id> <quantity>
  remove <line-id>
  list
  clear
  quote
  checkout
  confirm [reference]
  track <order-id> [email]
`

type shop struct {
	store      *cart.Store
	storage    cart.Storage
	pendingKey string
	orch   *checkout.Orchestrator
	api    *client.Client
	user   *identity.User
	in     *bufio.Reader
	out    io.Writer
	logger *zap.Logger
}

func main() {
	if len(os.Args) < 2 {
		fmt.Print(usage)
		os.Exit(1)
	}

	// Load configuration
	cfg, err := config.LoadShop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, _ := zap.NewDevelopment(zap.IncreaseLevel(zap.WarnLevel))
	defer logger.Sync()

	storage, err := sqlite.Open(cfg.CartPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open cart storage: %v\n", err)
		os.Exit(1)
	}
	defer storage.Close()

	store := cart.NewStore(storage, logger, cart.WithNamespace(cfg.Namespace))
	if err := store.Rehydrate(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load cart: %v\n", err)
		os.Exit(1)
	}

	var user *identity.User
	if cfg.Token != "" {
		user, err = identity.FromUnverifiedToken(cfg.Token)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Ignoring SHOP_TOKEN: %v\n", err)
		}
	}

	api := client.NewClient(cfg, logger)
	s := &shop{
		store:      store,
		storage:    storage,
		pendingKey: cfg.Namespace + ":pending-reference",
		orch:       checkout.NewOrchestrator(store, user, api, logger),
		api:        api,
		user:       user,
		in:         bufio.NewReader(os.Stdin),
		out:        os.Stdout,
		logger:     logger,
	}

	if err := s.run(context.Background(), os.Args[1], os.Args[2:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func (s *shop) run(ctx context.Context, command string, args []string) error {
	switch command {
	case "add":
		return s.add(args)
	case "update":
		if len(args) < 2 {
			return errors.New("usage: update <line-id> <quantity>")
		}
		qty, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid quantity %q", args[1])
		}
		if err := s.store.UpdateItemQuantity(args[0], qty); err != nil {
			return err
		}
		return s.list()
	case "remove":
		if len(args) < 1 {
			return errors.New("usage: remove <line-id>")
		}
		if err := s.store.RemoveItem(args[0]); err != nil {
			return err
		}
		return s.list()
	case "list":
		return s.list()
	case "clear":
		if err := s.store.Clear(); err != nil {
			return err
		}
		fmt.Fprintln(s.out, "Cart cleared.")
		return nil
	case "quote":
		s.printQuote(s.orch.Quote())
		return nil
	case "checkout":
		return s.checkout(ctx)
	case "confirm":
		reference := ""
		if len(args) > 0 {
			reference = args[0]
		}
		return s.confirm(ctx, reference)
	case "track":
		if len(args) < 1 {
			return errors.New("usage: track <order-id> [email]")
		}
		email := ""
		if len(args) > 1 {
			email = args[1]
		}
		return s.track(ctx, args[0], email)
	default:
		fmt.Fprint(s.out, usage)
		return fmt.Errorf("unknown command %q", command)
	}
}

func (s *shop) add(args []string) error {
	if len(args) < 3 {
		return errors.New("usage: add <product-id> <name> <price> [quantity] [size] [color] [image-url]")
	}
	price, err := decimal.NewFromString(args[2])
	if err != nil {
		return fmt.Errorf("invalid price %q", args[2])
	}

	qty := 1
	if len(args) > 3 {
		if qty, err = strconv.Atoi(args[3]); err != nil {
			return fmt.Errorf("invalid quantity %q", args[3])
		}
	}
	optional := func(i int) string {
		if len(args) > i {
			return args[i]
		}
		return ""
	}

	product := cart.Product{ID: args[0], Name: args[1], Price: price, ImageURL: optional(6)}
	if err := s.store.AddItem(product, optional(4), optional(5), qty); err != nil {
		if errors.Is(err, cart.ErrInvalidQuantity) {
			return errors.New("quantity must be at least 1")
		}
		return err
	}
	fmt.Fprintf(s.out, "Added %d x %s.\n\n", qty, product.Name)
	return s.list()
}

func (s *shop) list() error {
	items := s.store.Items()
	if len(items) == 0 {
		fmt.Fprintln(s.out, "Your cart is empty.")
		return nil
	}

	fmt.Fprintf(s.out, "Cart (%d items)\n", s.store.TotalItems())
	for _, item := range items {
		variant := strings.Trim(strings.Join([]string{item.Size, item.Color}, " / "), " /")
		if variant != "" {
			variant = " (" + variant + ")"
		}
		fmt.Fprintf(s.out, "  %-40s %s%s  %d x %s = %s\n",
			item.ID, item.Name, variant, item.Quantity,
			item.UnitPrice.StringFixed(2), item.LineTotal().StringFixed(2))
	}
	fmt.Fprintln(s.out)
	s.printQuote(s.orch.Quote())
	return nil
}

func (s *shop) printQuote(q pricing.Quote) {
	fmt.Fprintf(s.out, "Subtotal: %s\n", q.Subtotal.StringFixed(2))
	if q.DiscountApplied {
		fmt.Fprintf(s.out, "Discount (10%%): -%s\n", q.Discount.StringFixed(2))
	} else if s.user == nil && s.store.DistinctLines() > 1 {
		fmt.Fprintln(s.out, "Sign in to get 10% off orders with more than one product.")
	}
	if q.FreeShipping {
		fmt.Fprintln(s.out, "Shipping: Free")
	} else {
		fmt.Fprintf(s.out, "Shipping: %s\n", q.Shipping.StringFixed(2))
	}
	fmt.Fprintf(s.out, "Total: %s\n", q.Total.StringFixed(2))
}

func (s *shop) prompt(label, current string) (string, error) {
	if current != "" {
		fmt.Fprintf(s.out, "%s [%s]: ", label, current)
	} else {
		fmt.Fprintf(s.out, "%s: ", label)
	}
	line, err := s.in.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return "", fmt.Errorf("reading %s: %w", strings.ToLower(label), err)
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return current, nil
	}
	return line, nil
}

func (s *shop) collectShipping(details checkout.ShippingDetails) (checkout.ShippingDetails, error) {
	fields := []struct {
		label string
		value *string
	}{
		{"Email", &details.Email},
		{"First name", &details.FirstName},
		{"Last name", &details.LastName},
		{"Address", &details.Address},
		{"City", &details.City},
		{"State", &details.State},
		{"Postal code", &details.PostalCode},
		{"Country", &details.Country},
		{"Phone", &details.Phone},
	}
	for _, f := range fields {
		v, err := s.prompt(f.label, *f.value)
		if err != nil {
			return details, err
		}
		*f.value = v
	}
	return details, nil
}

func (s *shop) checkout(ctx context.Context) error {
	if s.store.IsEmpty() {
		return errors.New("your cart is empty")
	}
	session := s.orch.Session()

	fmt.Fprintln(s.out, "Shipping information")
	for session.Step() == checkout.StepShipping {
		details, err := s.collectShipping(session.Details())
		if err != nil {
			return err
		}
		err = session.SubmitShipping(details)
		var verr *checkout.ValidationError
		if errors.As(err, &verr) {
			fmt.Fprintf(s.out, "\nPlease fill in: %s\n\n", strings.Join(verr.Fields, ", "))
			continue
		}
		if err != nil {
			return err
		}
	}

	fmt.Fprintln(s.out)
	s.printQuote(s.orch.Quote())

	for {
		answer, err := s.prompt("Place order? (y = pay, b = back to shipping, n = cancel)", "y")
		if err != nil {
			return err
		}
		switch strings.ToLower(answer) {
		case "n":
			return nil
		case "b":
			session.BackToShipping()
			return s.checkout(ctx)
		}

		auth, err := s.orch.PlaceOrder(ctx)
		if errors.Is(err, checkout.ErrPaymentInitialization) {
			fmt.Fprintf(s.out, "\n%v\n\n", err)
			continue
		}
		if err != nil {
			return err
		}

		if err := s.storage.Save(s.pendingKey, []byte(auth.Reference)); err != nil {
			s.logger.Warn("Failed to remember pending payment", zap.String("reference", auth.Reference), zap.Error(err))
		}

		fmt.Fprintf(s.out, "\nComplete your payment at:\n  %s\n\n", auth.AuthorizationURL)
		fmt.Fprintf(s.out, "Order:     %s\n", auth.OrderID)
		fmt.Fprintf(s.out, "Reference: %s\n\n", auth.Reference)
		fmt.Fprintln(s.out, "When done, run: shop confirm")
		return nil
	}
}

func (s *shop) confirm(ctx context.Context, reference string) error {
	data, _, err := s.storage.Load(s.pendingKey)
	if err != nil {
		return fmt.Errorf("failed to load pending payment: %w", err)
	}
	pending := string(data)
	if pending != "" {
		s.orch.ResumePayment(pending)
	}
	if reference == "" {
		reference = pending
	}
	if reference == "" {
		return errors.New("no pending payment, usage: confirm <reference>")
	}

	result, err := s.orch.ConfirmReference(ctx, reference)
	if err != nil {
		return err
	}
	if !result.Paid {
		fmt.Fprintf(s.out, "Payment %s is %s. Your cart has been kept.\n", reference, result.Status)
		return nil
	}
	if reference == pending {
		if err := s.storage.Save(s.pendingKey, []byte{}); err != nil {
			s.logger.Warn("Failed to forget pending payment", zap.Error(err))
		}
	}
	if !s.store.IsEmpty() {
		fmt.Fprintf(s.out, "Payment %s was already confirmed. Your current cart has been kept.\n", reference)
		return nil
	}
	fmt.Fprintf(s.out, "Payment confirmed. Thank you for your order!\n")
	return nil
}

func (s *shop) track(ctx context.Context, orderID, email string) error {
	order, err := s.api.GetOrder(ctx, orderID, email)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Order %s\n", order.ID)
	fmt.Fprintf(s.out, "Status:  %s\n", order.Status)
	fmt.Fprintf(s.out, "Payment: %s\n", order.PaymentStatus)
	fmt.Fprintf(s.out, "Total:   %s\n", order.Total)
	for _, item := range order.Items {
		fmt.Fprintf(s.out, "  %d x %s %s %s\n", item.Quantity, item.Name, item.Size, item.Color)
	}
	return nil
}
