// cjctl is an operator CLI for the CJ Dropshipping gateway.
// Each command performs a single gateway operation and prints its Result,
// making it composable for scripts.
//
// Commands:
//
//	cjctl search [-keyword K] [-category ID] [-page N] [-size N] [-saved]
//	cjctl product -id PID
//	cjctl variants -id PID
//	cjctl categories
//	cjctl freight -variant VID -country CC [-qty N] [-zip Z] [-weight KG]
//	cjctl freight-order -country CC -item VID:QTY [-item VID:QTY ...]
//	cjctl create-order -file order.json
//	cjctl status -id CJ_ORDER_ID
//	cjctl detail -id CJ_ORDER_ID
//	cjctl confirm -id CJ_ORDER_ID
//	cjctl track -number TRACKING_NUMBER
//	cjctl refresh -order LOCAL_ORDER_ID
//
// Credentials come from the same environment (or CONFIG_FILE) as the server.
//
// Examples:
//
//	cjctl search -keyword "desk lamp" -size 5
//	cjctl freight -variant 1620252645134929920 -country US -q
//	cjctl create-order -file order.json
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"cj-bridge/internal/app"
	"cj-bridge/internal/config"
	"cj-bridge/internal/gateway"
	"cj-bridge/internal/model"
	"cj-bridge/internal/reconcile"
)

// Global flags (apply to all commands)
var (
	quiet   bool
	noColor bool
	verbose bool
	timeout time.Duration
)

// ANSI color codes
var (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
)

func init() {
	if os.Getenv("NO_COLOR") != "" {
		disableColors()
	}
}

func disableColors() {
	colorReset, colorRed, colorGreen = "", "", ""
	colorYellow, colorCyan, colorGray = "", "", ""
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "search":
		runSearch(args)
	case "product":
		runProduct(args)
	case "variants":
		runVariants(args)
	case "categories":
		runCategories(args)
	case "freight":
		runFreight(args)
	case "freight-order":
		runFreightOrder(args)
	case "create-order":
		runCreateOrder(args)
	case "status":
		runStatus(args)
	case "detail":
		runDetail(args)
	case "confirm":
		runConfirm(args)
	case "track":
		runTrack(args)
	case "refresh":
		runRefresh(args)
	case "-h", "-help", "--help", "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `cjctl - CJ Dropshipping gateway tool

Usage:
  cjctl <command> [options]

Commands:
  search         Search the catalog (or saved products with -saved)
  product        Get one product with variants and prices
  variants       List the variants of a product
  categories     List the flattened category tree
  freight        Quote shipping for one variant
  freight-order  Quote shipping for a basket
  create-order   Place an order from a JSON file
  status         Get a supplier order's status
  detail         Get a supplier order's full detail
  confirm        Confirm a supplier order for payment
  track          Query tracking for a tracking number
  refresh        Refresh and store tracking for a local order

Examples:
  # Find products
  cjctl search -keyword "desk lamp" -size 5

  # Quote shipping to the US
  cjctl freight -variant 1620252645134929920 -country US

  # Refresh tracking for a dashboard order (needs DATABASE_URL)
  cjctl refresh -order 5f1c9d2e-0000-4000-8000-000000000001

Run 'cjctl <command> -h' for command-specific options.
`)
}

// newFlagSet registers the global flags on a command's flag set.
func newFlagSet(name, usage string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	fs.BoolVar(&quiet, "q", false, "Quiet mode - only output the result payload")
	fs.BoolVar(&noColor, "no-color", false, "Disable colored output")
	fs.BoolVar(&verbose, "v", false, "Verbose - show full output and debug logs")
	fs.DurationVar(&timeout, "timeout", 60*time.Second, "Overall command timeout")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: cjctl %s\n\nOptions:\n", usage)
		fs.PrintDefaults()
	}
	return fs
}

// =============================================================================
// CATALOG
// =============================================================================

func runSearch(args []string) {
	fs := newFlagSet("search", "search [-keyword K] [-category ID] [-page N] [-size N] [-saved]")
	var q model.CatalogQuery
	var saved bool
	fs.StringVar(&q.Keyword, "keyword", "", "Product name keyword")
	fs.StringVar(&q.CategoryID, "category", "", "Leaf category ID")
	fs.IntVar(&q.Page, "page", 1, "Page number")
	fs.IntVar(&q.PageSize, "size", 20, "Results per page (max 200)")
	fs.BoolVar(&saved, "saved", false, "Search saved products instead of the catalog")
	fs.Parse(args)

	ctx, env := setup()
	defer env.close()

	var res model.ListResult[model.Product]
	if saved {
		res = env.gateway().SearchMyProducts(ctx, q)
	} else {
		res = env.gateway().SearchCatalog(ctx, q)
	}
	if !res.Success {
		fatal("Search failed: %s", res.Error)
	}

	if quiet {
		emit(res.Data)
		return
	}
	printSuccess("%d of %d products", len(res.Data), res.Total)
	for _, p := range res.Data {
		fmt.Printf("  %s%s%s  %s  %s%s%s\n", colorGray, p.ID, colorReset, p.Name, colorGreen, p.SellPrice.StringFixed(2), colorReset)
	}
}

func runProduct(args []string) {
	fs := newFlagSet("product", "product -id PID")
	var id string
	fs.StringVar(&id, "id", "", "CJ product ID (required)")
	fs.Parse(args)
	requireFlag(fs, id)

	ctx, env := setup()
	defer env.close()

	printResult("Product retrieved", env.gateway().GetProduct(ctx, id))
}

func runVariants(args []string) {
	fs := newFlagSet("variants", "variants -id PID")
	var id string
	fs.StringVar(&id, "id", "", "CJ product ID (required)")
	fs.Parse(args)
	requireFlag(fs, id)

	ctx, env := setup()
	defer env.close()

	printResult("Variants retrieved", env.gateway().GetVariants(ctx, id))
}

func runCategories(args []string) {
	fs := newFlagSet("categories", "categories")
	fs.Parse(args)

	ctx, env := setup()
	defer env.close()

	printResult("Categories retrieved", env.gateway().Categories(ctx))
}

// =============================================================================
// FREIGHT
// =============================================================================

func runFreight(args []string) {
	fs := newFlagSet("freight", "freight -variant VID -country CC [-qty N] [-zip Z] [-weight KG]")
	var q model.ShippingQuery
	var weight string
	fs.StringVar(&q.VariantID, "variant", "", "CJ variant ID (required)")
	fs.StringVar(&q.CountryCode, "country", "", "Destination country, ISO alpha-2 (required)")
	fs.IntVar(&q.Quantity, "qty", 1, "Quantity")
	fs.StringVar(&q.Zip, "zip", "", "Destination postal code")
	fs.StringVar(&weight, "weight", "", "Unit weight in kg, used when CJ cannot quote by product")
	fs.Parse(args)
	requireFlag(fs, q.VariantID, q.CountryCode)

	if weight != "" {
		w, err := decimal.NewFromString(weight)
		if err != nil {
			fatal("Invalid -weight: %v", err)
		}
		q.WeightKg = w
	}

	ctx, env := setup()
	defer env.close()

	printRates(env.gateway().ProductShippingRates(ctx, q))
}

func runFreightOrder(args []string) {
	fs := newFlagSet("freight-order", "freight-order -country CC -item VID:QTY [-item VID:QTY ...]")
	var q model.OrderShippingQuery
	var items lineItemsFlag
	fs.StringVar(&q.CountryCode, "country", "", "Destination country, ISO alpha-2 (required)")
	fs.StringVar(&q.Zip, "zip", "", "Destination postal code")
	fs.Var(&items, "item", "Line item as VID:QTY (repeatable)")
	fs.Parse(args)
	requireFlag(fs, q.CountryCode)
	q.Items = items

	ctx, env := setup()
	defer env.close()

	printRates(env.gateway().OrderShippingRates(ctx, q))
}

// lineItemsFlag parses repeated VID:QTY flags.
type lineItemsFlag []model.LineItem

func (f *lineItemsFlag) String() string {
	parts := make([]string, len(*f))
	for i, it := range *f {
		parts[i] = fmt.Sprintf("%s:%d", it.VariantID, it.Quantity)
	}
	return strings.Join(parts, ",")
}

func (f *lineItemsFlag) Set(v string) error {
	vid, qty, found := strings.Cut(v, ":")
	n := 1
	if found {
		var err error
		if n, err = strconv.Atoi(qty); err != nil {
			return fmt.Errorf("quantity in %q: %w", v, err)
		}
	}
	*f = append(*f, model.LineItem{VariantID: vid, Quantity: n})
	return nil
}

func printRates(res model.Result[[]model.ShippingRate]) {
	if !res.Success {
		fatal("Freight quote failed: %s", res.Error)
	}
	if quiet {
		emit(res.Data)
		return
	}
	printSuccess("%d shipping options", len(res.Data))
	for _, r := range res.Data {
		fmt.Printf("  %-24s %s%s %s%s  %s days\n", r.LogisticName, colorGreen, r.LogisticPrice.StringFixed(2), r.Currency, colorReset, r.LogisticAging)
	}
}

// =============================================================================
// ORDERS
// =============================================================================

func runCreateOrder(args []string) {
	fs := newFlagSet("create-order", "create-order -file order.json")
	var path string
	fs.StringVar(&path, "file", "", "Order request JSON, - for stdin (required)")
	fs.Parse(args)
	requireFlag(fs, path)

	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			fatal("Opening order file: %v", err)
		}
		defer f.Close()
		r = f
	}

	var req model.OrderRequest
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		fatal("Parsing order file: %v", err)
	}

	ctx, env := setup()
	defer env.close()

	res := env.gateway().CreateOrder(ctx, req)
	if res.Success && quiet {
		fmt.Println(res.Data.OrderID)
		return
	}
	printResult("Order created", res)
}

func runStatus(args []string) {
	id := orderIDFlag("status", args)

	ctx, env := setup()
	defer env.close()

	res := env.gateway().OrderStatus(ctx, id)
	if res.Success && quiet {
		fmt.Println(res.Data.OrderStatus)
		return
	}
	printResult("Order status retrieved", res)
}

func runDetail(args []string) {
	id := orderIDFlag("detail", args)

	ctx, env := setup()
	defer env.close()

	printResult("Order detail retrieved", env.gateway().OrderDetail(ctx, id))
}

func runConfirm(args []string) {
	id := orderIDFlag("confirm", args)

	ctx, env := setup()
	defer env.close()

	printResult("Order confirmed", env.gateway().ConfirmOrder(ctx, id))
}

func orderIDFlag(name string, args []string) string {
	fs := newFlagSet(name, name+" -id CJ_ORDER_ID")
	var id string
	fs.StringVar(&id, "id", "", "CJ order ID (required)")
	fs.Parse(args)
	requireFlag(fs, id)
	return id
}

// =============================================================================
// TRACKING
// =============================================================================

func runTrack(args []string) {
	fs := newFlagSet("track", "track -number TRACKING_NUMBER")
	var number string
	fs.StringVar(&number, "number", "", "Carrier tracking number (required)")
	fs.Parse(args)
	requireFlag(fs, number)

	ctx, env := setup()
	defer env.close()

	res := env.gateway().Tracking(ctx, number)
	if !res.Success {
		fatal("Tracking failed: %s", res.Error)
	}
	if quiet {
		emit(res.Data)
		return
	}
	if len(res.Data) == 0 {
		printWarning("No tracking rows for %s", number)
		return
	}
	for _, row := range res.Data {
		stage, _ := reconcile.NormalizeCarrierStatus(row.TrackingStatus)
		fmt.Printf("  %s%s%s  %s  %s%s%s\n", colorCyan, row.TrackingNumber, colorReset, row.TrackingStatus, colorGray, stage, colorReset)
	}
}

func runRefresh(args []string) {
	fs := newFlagSet("refresh", "refresh -order LOCAL_ORDER_ID")
	var orderID string
	fs.StringVar(&orderID, "order", "", "Local order ID (required)")
	fs.Parse(args)
	requireFlag(fs, orderID)

	ctx, env := setup()
	defer env.close()

	orders, err := app.OpenStore(env.cfg, env.logger)
	if err != nil {
		fatal("%v", err)
	}
	defer orders.Close()

	engine := reconcile.NewEngine(env.gateway(), orders, env.cfg.CJ.TrackingURL, env.logger)
	res := engine.RefreshTracking(ctx, orderID)
	if res.Success && !quiet && !res.Data.Saved {
		printWarning("Tracking fetched but not stored")
	}
	printResult("Tracking refreshed", res)
}

// =============================================================================
// SETUP
// =============================================================================

type cliEnv struct {
	cfg    *config.Config
	logger *slog.Logger
	cancel context.CancelFunc
	gw     *gateway.Gateway
}

// setup loads configuration and returns a context bounded by -timeout.
func setup() (context.Context, *cliEnv) {
	if noColor {
		disableColors()
	}

	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg, err := config.Load(context.Background())
	if err != nil {
		fatal("Loading config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	return ctx, &cliEnv{cfg: cfg, logger: logger, cancel: cancel}
}

func (e *cliEnv) gateway() *gateway.Gateway {
	if e.gw == nil {
		e.gw = app.NewGateway(e.cfg, e.logger)
	}
	return e.gw
}

func (e *cliEnv) close() {
	e.cancel()
}

func requireFlag(fs *flag.FlagSet, values ...string) {
	for _, v := range values {
		if v == "" {
			fs.Usage()
			os.Exit(1)
		}
	}
}

// =============================================================================
// OUTPUT
// =============================================================================

// printResult prints a Result envelope, exiting non-zero when it failed.
func printResult[T any](title string, res model.Result[T]) {
	if !res.Success {
		fatal("%s", res.Error)
	}
	if quiet {
		emit(res.Data)
		return
	}
	printSuccess("%s", title)
	data, _ := json.Marshal(res.Data)
	printJSON(data, "  ")
}

// emit writes v as compact JSON for piping into other tools.
func emit(v any) {
	if err := json.NewEncoder(os.Stdout).Encode(v); err != nil {
		fatal("Encoding output: %v", err)
	}
}

func printJSON(data []byte, prefix string) {
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, data, prefix, "  "); err != nil {
		fmt.Printf("%s%s\n", prefix, string(data))
		return
	}

	output := prefix + pretty.String()
	if !verbose {
		lines := strings.Split(output, "\n")
		if len(lines) > 30 {
			lines = append(lines[:25], fmt.Sprintf("%s  %s(%d more lines, use -v for full output)%s", prefix, colorGray, len(lines)-25, colorReset))
			output = strings.Join(lines, "\n")
		}
	}
	fmt.Println(output)
}

func printSuccess(format string, args ...interface{}) {
	fmt.Printf("%s✓ %s%s\n", colorGreen, fmt.Sprintf(format, args...), colorReset)
}

func printWarning(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "%s⚠ %s%s\n", colorYellow, fmt.Sprintf(format, args...), colorReset)
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "%s✗ %s%s\n", colorRed, fmt.Sprintf(format, args...), colorReset)
	os.Exit(1)
}
