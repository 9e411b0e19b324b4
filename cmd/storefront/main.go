// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/olegiv/storefront-go/internal/api"
	"github.com/olegiv/storefront-go/internal/cache"
	"github.com/olegiv/storefront-go/internal/catalog"
	"github.com/olegiv/storefront-go/internal/checkout"
	"github.com/olegiv/storefront-go/internal/config"
	"github.com/olegiv/storefront-go/internal/dashboard"
	"github.com/olegiv/storefront-go/internal/imaging"
	"github.com/olegiv/storefront-go/internal/logging"
	"github.com/olegiv/storefront-go/internal/model"
	"github.com/olegiv/storefront-go/internal/scheduler"
	"github.com/olegiv/storefront-go/internal/session"
	"github.com/olegiv/storefront-go/internal/store"
	"github.com/olegiv/storefront-go/internal/util"
	"github.com/olegiv/storefront-go/internal/version"
)

// Version information - injected at build time via ldflags
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
	appBuildTime = "unknown"
)

func usage() {
	_, _ = fmt.Fprintf(os.Stderr, "storefront - digital products storefront client\n\n")
	_, _ = fmt.Fprintf(os.Stderr, "Usage: %s <command> [options]\n\n", os.Args[0])
	_, _ = fmt.Fprintf(os.Stderr, "Commands:\n")
	_, _ = fmt.Fprintf(os.Stderr, "  login            Log in (omit -email for admin)\n")
	_, _ = fmt.Fprintf(os.Stderr, "  signup           Register a student account\n")
	_, _ = fmt.Fprintf(os.Stderr, "  logout           Clear the stored session\n")
	_, _ = fmt.Fprintf(os.Stderr, "  whoami           Show the current session\n")
	_, _ = fmt.Fprintf(os.Stderr, "  passwd           Change the account password\n")
	_, _ = fmt.Fprintf(os.Stderr, "  products         List the catalog (optionally by category)\n")
	_, _ = fmt.Fprintf(os.Stderr, "  product          Show one product\n")
	_, _ = fmt.Fprintf(os.Stderr, "  buy              Acquire a product (free grant or paid checkout)\n")
	_, _ = fmt.Fprintf(os.Stderr, "  orders           List your orders\n")
	_, _ = fmt.Fprintf(os.Stderr, "  download         Save a purchased file locally\n")
	_, _ = fmt.Fprintf(os.Stderr, "  dashboard        Admin overview: products, orders, analytics\n")
	_, _ = fmt.Fprintf(os.Stderr, "  product-create   Create a product (admin)\n")
	_, _ = fmt.Fprintf(os.Stderr, "  product-update   Update a product (admin)\n")
	_, _ = fmt.Fprintf(os.Stderr, "  product-delete   Delete a product (admin)\n")
	_, _ = fmt.Fprintf(os.Stderr, "  events           Show the local event log\n")
	_, _ = fmt.Fprintf(os.Stderr, "  maintain         Run maintenance jobs until interrupted\n")
	_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
	_, _ = fmt.Fprintf(os.Stderr, "  STOREFRONT_SESSION_SECRET   Session sealing key (required, min 32 bytes)\n")
	_, _ = fmt.Fprintf(os.Stderr, "  STOREFRONT_BACKEND_URL      Backend base URL (default: http://localhost:5000)\n")
	_, _ = fmt.Fprintf(os.Stderr, "  STOREFRONT_STORE_PATH       Local store path (default: ./data/storefront.db)\n")
	_, _ = fmt.Fprintf(os.Stderr, "  STOREFRONT_CACHE_BACKEND    Cache backend: local|memory|redis (default: local)\n")
	_, _ = fmt.Fprintf(os.Stderr, "  STOREFRONT_CACHE_TTL        List cache TTL in seconds (default: 300)\n")
}

func main() {
	flag.Usage = usage
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	flag.Parse()

	if *showVersion {
		_, _ = fmt.Printf("storefront %s (commit: %s, built: %s)\n", appVersion, appGitCommit, appBuildTime)
		os.Exit(0)
	}

	if flag.NArg() < 1 {
		usage()
		os.Exit(2)
	}

	if err := run(flag.Arg(0), flag.Args()[1:]); err != nil {
		if errors.Is(err, api.ErrUnauthorized) {
			_, _ = fmt.Fprintln(os.Stderr, "Session expired. Log in again with: storefront login")
		} else {
			_, _ = fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

// app holds the wired runtime shared by every command.
type app struct {
	cfg      *config.Config
	db       *sql.DB
	logger   *slog.Logger
	cacher   cache.Cacher
	lists    *cache.Lists
	sessions *session.Store
	client   *api.Client
	catalog  *catalog.Service
	student  *dashboard.Student
	admin    *dashboard.Admin
	version  *version.Info
}

func run(command string, args []string) error {
	// Load .env if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logLevel := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}
	textHandler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})
	logger := slog.New(textHandler)
	slog.SetDefault(logger)

	if err := os.MkdirAll(filepath.Dir(cfg.StorePath), 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	db, err := store.NewDB(cfg.StorePath)
	if err != nil {
		return fmt.Errorf("opening local store: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			slog.Error("closing local store", "error", err)
		}
	}()

	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("migrating local store: %w", err)
	}

	// Upgrade the logger so WARN and ERROR records land in the event log
	logger = slog.New(logging.NewEventLogHandler(textHandler, db))
	slog.SetDefault(logger)

	cacher, err := cache.New(cache.Config{
		Backend:    cfg.CacheBackend,
		RedisURL:   cfg.RedisURL,
		Prefix:     cfg.CachePrefix,
		DefaultTTL: cfg.CacheTTLDuration(),
	}, db)
	if err != nil {
		return fmt.Errorf("creating cache: %w", err)
	}
	defer func() { _ = cacher.Close() }()

	sessions, err := session.New(db, cfg.SessionSecret)
	if err != nil {
		return fmt.Errorf("opening session store: %w", err)
	}

	client, err := api.New(api.Options{
		BaseURL:   cfg.BackendURL,
		Sessions:  sessions,
		Timeout:   cfg.RequestTimeoutDuration(),
		RateLimit: cfg.RateLimit,
		RateBurst: cfg.RateBurst,
		Logger:    logger,
		OnUnauthorized: func(context.Context) {
			_, _ = fmt.Fprintln(os.Stderr, "Your session has expired.")
		},
	})
	if err != nil {
		return fmt.Errorf("creating backend client: %w", err)
	}

	lists := cache.NewLists(cacher, logger)
	a := &app{
		cfg:      cfg,
		db:       db,
		logger:   logger,
		cacher:   cacher,
		lists:    lists,
		sessions: sessions,
		client:   client,
		catalog:  catalog.New(client, lists, cfg.CacheTTLDuration(), logger),
		student:  dashboard.NewStudent(client, lists, cfg.CacheTTLDuration(), logger),
		admin:    dashboard.NewAdmin(client, lists, cfg.CacheTTLDuration(), logger),
		version:  &version.Info{Version: appVersion, GitCommit: appGitCommit, BuildTime: appBuildTime},
	}

	ctx := context.Background()
	switch command {
	case "login":
		return a.cmdLogin(ctx, args)
	case "signup":
		return a.cmdSignup(ctx, args)
	case "logout":
		return a.cmdLogout(ctx)
	case "whoami":
		return a.cmdWhoami(ctx)
	case "passwd":
		return a.cmdPasswd(ctx, args)
	case "products":
		return a.cmdProducts(ctx, args)
	case "product":
		return a.cmdProduct(ctx, args)
	case "buy":
		return a.cmdBuy(ctx, args)
	case "orders":
		return a.cmdOrders(ctx)
	case "download":
		return a.cmdDownload(ctx, args)
	case "dashboard":
		return a.cmdDashboard(ctx)
	case "product-create":
		return a.cmdProductCreate(ctx, args)
	case "product-update":
		return a.cmdProductUpdate(ctx, args)
	case "product-delete":
		return a.cmdProductDelete(ctx, args)
	case "events":
		return a.cmdEvents(ctx, args)
	case "maintain":
		return a.cmdMaintain()
	default:
		usage()
		return fmt.Errorf("unknown command %q", command)
	}
}

func (a *app) cmdLogin(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "Account email (omit for admin login)")
	password := fs.String("password", "", "Account password")
	_ = fs.Parse(args)

	sess, err := a.client.Login(ctx, *email, *password)
	if err != nil {
		return err
	}
	// The cached lists belong to whoever was logged in before.
	a.lists.InvalidateAll(ctx)
	fmt.Printf("Logged in as %s\n", sess.Role)
	return nil
}

func (a *app) cmdSignup(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("signup", flag.ExitOnError)
	email := fs.String("email", "", "Account email")
	password := fs.String("password", "", "Account password (min 8 characters)")
	_ = fs.Parse(args)

	sess, err := a.client.Signup(ctx, *email, *password)
	if err != nil {
		return err
	}
	a.lists.InvalidateAll(ctx)
	fmt.Printf("Account created, logged in as %s\n", sess.Role)
	return nil
}

func (a *app) cmdLogout(ctx context.Context) error {
	if err := a.student.Logout(ctx); err != nil {
		return err
	}
	fmt.Println("Logged out")
	return nil
}

func (a *app) cmdWhoami(ctx context.Context) error {
	sess := a.sessions.Get(ctx)
	if !sess.LoggedIn() {
		fmt.Println("Not logged in")
		return nil
	}
	fmt.Printf("Logged in as %s\n", sess.Role)
	return nil
}

func (a *app) cmdPasswd(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("passwd", flag.ExitOnError)
	current := fs.String("current", "", "Current password")
	next := fs.String("new", "", "New password (min 8 characters)")
	_ = fs.Parse(args)

	msg, err := a.student.ChangePassword(ctx, *current, *next)
	if err != nil {
		return err
	}
	fmt.Println(msg)
	return nil
}

func (a *app) cmdProducts(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("products", flag.ExitOnError)
	category := fs.String("category", "", "Filter by category (ebooks, workbooks, conversation, courses)")
	_ = fs.Parse(args)

	products, err := a.catalog.ProductsByCategory(ctx, *category)
	if err != nil {
		return err
	}
	if len(products) == 0 {
		fmt.Println("No products found")
		return nil
	}
	for _, p := range products {
		fmt.Printf("%s  %-30s  %-12s  %s\n", p.ID, p.Title, model.CategoryLabels[p.Category], model.FormatAmount(p.EffectivePrice()))
	}
	return nil
}

func (a *app) cmdProduct(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("product", flag.ExitOnError)
	id := fs.String("id", "", "Product id")
	_ = fs.Parse(args)

	p, err := a.catalog.Product(ctx, *id)
	if err != nil {
		return err
	}
	fmt.Printf("%s\n%s\n\nCategory: %s\nPrice: %s\n", p.Title, p.Description,
		model.CategoryLabels[p.Category], model.FormatAmount(p.EffectivePrice()))
	if p.Overview != "" {
		html, err := catalog.RenderOverview(p.Overview)
		if err == nil {
			fmt.Printf("\n%s\n", html)
		}
	}
	for i, section := range p.Curriculum {
		fmt.Printf("%d. %s\n", i+1, section.Title)
	}
	return nil
}

func (a *app) cmdBuy(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("buy", flag.ExitOnError)
	id := fs.String("product", "", "Product id")
	email := fs.String("email", "", "Buyer email")
	yes := fs.Bool("yes", false, "Approve the payment without prompting")
	_ = fs.Parse(args)

	product, err := a.catalog.Product(ctx, *id)
	if err != nil {
		return err
	}

	var widget checkout.PaymentWidget
	if *yes {
		widget = checkout.AutoApprove()
	} else {
		widget = terminalWidget{}
	}

	flow := checkout.New(a.client, a.lists, widget, a.logger)
	attempt, err := flow.Acquire(ctx, product, *email)
	if err != nil {
		return err
	}

	fmt.Println(attempt.Message)
	if attempt.State == checkout.StateReconciliationGap {
		fmt.Printf("Reference: provider order %s\n", attempt.ProviderOrderID)
	}
	return nil
}

// terminalWidget is the interactive payment approval step: the provider
// order id is shown and the buyer confirms or cancels at the prompt.
type terminalWidget struct{}

func (terminalWidget) Approve(_ context.Context, providerOrderID string) (checkout.ApprovalResult, error) {
	fmt.Printf("Provider order %s created.\nApprove payment? [y/N]: ", providerOrderID)

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return checkout.ApprovalError, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return checkout.ApprovalApproved, nil
	default:
		return checkout.ApprovalCancelled, nil
	}
}

func (a *app) cmdOrders(ctx context.Context) error {
	orders, err := a.student.Orders(ctx)
	if err != nil {
		return err
	}
	if len(orders) == 0 {
		fmt.Println("No orders yet")
		return nil
	}
	for _, o := range orders {
		access := "-"
		if o.DownloadAccess {
			access = "download available"
		}
		fmt.Printf("%s  %-30s  %-10s  %s  %s\n", o.ID, o.Product.Title, o.Status,
			model.FormatAmount(o.Amount), access)
	}
	return nil
}

func (a *app) cmdDownload(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("download", flag.ExitOnError)
	orderID := fs.String("order", "", "Order id")
	dir := fs.String("dir", ".", "Directory to save into")
	_ = fs.Parse(args)

	orders, err := a.student.Orders(ctx)
	if err != nil {
		return err
	}

	for _, o := range dashboard.Downloadable(orders) {
		if o.ID != *orderID {
			continue
		}
		data, err := a.client.DownloadFile(ctx, o.Product.FileURL)
		if err != nil {
			return err
		}

		name, err := util.SanitizeFilename(dashboard.DownloadFilename(o))
		if err != nil {
			return err
		}
		target, err := util.SafeJoinPath(*dir, name)
		if err != nil {
			return err
		}
		if err := os.WriteFile(target, data, 0644); err != nil {
			return fmt.Errorf("saving file: %w", err)
		}
		fmt.Printf("Saved %s\n", target)
		return nil
	}
	return fmt.Errorf("no downloadable order %q", *orderID)
}

func (a *app) cmdDashboard(ctx context.Context) error {
	data, err := a.admin.Load(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Products: %d   Orders: %d   Enrollments: %d\n\n",
		len(data.Products), data.Analytics.TotalOrders, data.Analytics.TotalEnrollments)
	for _, p := range data.Products {
		fmt.Printf("%s  %-30s  %s\n", p.ID, p.Title, model.FormatAmount(p.EffectivePrice()))
	}
	fmt.Println()
	for _, o := range data.Orders {
		fmt.Printf("%s  %-30s  %-10s  %s\n", o.ID, o.Product.Title, o.Status, model.FormatAmount(o.Amount))
	}
	return nil
}

// productFormFromFlags builds a ProductForm from command flags, reading
// the product file and preparing the featured image when given.
func productFormFromFlags(fs *flag.FlagSet, args []string) (*model.ProductForm, error) {
	title := fs.String("title", "", "Product title")
	description := fs.String("description", "", "Short description")
	overview := fs.String("overview", "", "Markdown overview")
	price := fs.Float64("price", 0, "Price (paid products)")
	pricing := fs.String("pricing", model.PricingPaid, "Pricing model: free or paid")
	category := fs.String("category", "", "Category: ebooks, workbooks, conversation or courses")
	filePath := fs.String("file", "", "Path to the product file")
	imagePath := fs.String("image", "", "Path to the featured image (optional)")
	_ = fs.Parse(args)

	form := &model.ProductForm{
		Title:        *title,
		Description:  *description,
		Overview:     *overview,
		Price:        *price,
		PricingModel: *pricing,
		Category:     *category,
	}

	if *filePath != "" {
		data, err := os.ReadFile(*filePath)
		if err != nil {
			return nil, fmt.Errorf("reading product file: %w", err)
		}
		form.FileName = filepath.Base(*filePath)
		form.File = data
	}

	if *imagePath != "" {
		f, err := os.Open(*imagePath)
		if err != nil {
			return nil, fmt.Errorf("opening featured image: %w", err)
		}
		featured, err := imaging.PrepareFeatured(f, filepath.Base(*imagePath))
		_ = f.Close()
		if err != nil {
			return nil, err
		}
		form.ImageName = featured.Name
		form.Image = featured.Data
	}

	return form, nil
}

func (a *app) cmdProductCreate(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("product-create", flag.ExitOnError)
	form, err := productFormFromFlags(fs, args)
	if err != nil {
		return err
	}

	product, err := a.admin.CreateProduct(ctx, form)
	if err != nil {
		return err
	}
	fmt.Printf("Created %s (%s)\n", product.Title, product.ID)
	return nil
}

func (a *app) cmdProductUpdate(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("product-update", flag.ExitOnError)
	id := fs.String("id", "", "Product id")
	form, err := productFormFromFlags(fs, args)
	if err != nil {
		return err
	}

	product, err := a.admin.UpdateProduct(ctx, *id, form)
	if err != nil {
		return err
	}
	fmt.Printf("Updated %s (%s)\n", product.Title, product.ID)
	return nil
}

func (a *app) cmdProductDelete(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("product-delete", flag.ExitOnError)
	id := fs.String("id", "", "Product id")
	_ = fs.Parse(args)

	if err := a.admin.DeleteProduct(ctx, *id); err != nil {
		return err
	}
	fmt.Println("Deleted", *id)
	return nil
}

func (a *app) cmdEvents(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("events", flag.ExitOnError)
	limit := fs.Int64("limit", 20, "Number of entries to show")
	_ = fs.Parse(args)

	events, err := store.New(a.db).ListRecentEvents(ctx, *limit)
	if err != nil {
		return err
	}
	for _, e := range events {
		fmt.Printf("%s  %-7s  %-9s  %s\n", e.CreatedAt.Format("2006-01-02 15:04:05"), e.Level, e.Category, e.Message)
	}
	return nil
}

// cmdMaintain runs the periodic maintenance jobs (cache sweep, event
// log pruning) until interrupted.
func (a *app) cmdMaintain() error {
	var sweeper scheduler.Sweeper
	if local, ok := a.cacher.(*cache.LocalCache); ok {
		sweeper = local
	}

	sched := scheduler.New(a.db, sweeper, a.logger)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}

	a.logger.Info("maintenance running", "version", a.version.Version, "store", a.cfg.StorePath)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	sched.Stop()
	return nil
}
