// Command agent runs the page agent against a saved HTML page: every -select
// expression is treated as one pointer release over the matched elements.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/aashari/go-selection-relay/internal/agent"
	"github.com/aashari/go-selection-relay/internal/channel"
	"github.com/aashari/go-selection-relay/internal/config"
	"github.com/aashari/go-selection-relay/internal/httpclient"
	"github.com/aashari/go-selection-relay/internal/imaging"
	"github.com/aashari/go-selection-relay/internal/logger"
	"github.com/aashari/go-selection-relay/internal/page"
	"github.com/aashari/go-selection-relay/internal/relay"
	"github.com/aashari/go-selection-relay/internal/settings"
	"github.com/aashari/go-selection-relay/internal/store"
	"github.com/aashari/go-selection-relay/internal/utils"
)

type selectors []string

func (s *selectors) String() string { return strings.Join(*s, ", ") }

func (s *selectors) Set(v string) error {
	*s = append(*s, v)
	return nil
}

func main() {
	var (
		pagePath    = flag.String("page", "", "HTML file to load (required)")
		pageURL     = flag.String("url", "https://localhost/", "URL the page was served from")
		resources   = flag.String("resources", "", "document root for same-origin images (default: the page's directory)")
		relayURL    = flag.String("relay", "", "relay server base URL; empty runs the relay in-process")
		serviceURL  = flag.String("service", "", "inference service URL for the in-process relay")
		mode        = flag.String("mode", "mcq", "mode for the in-process relay (mcq or image)")
		apiKey      = flag.String("api-key", os.Getenv("SELECTION_API_KEY"), "API key for the in-process relay")
		prompt      = flag.String("prompt", "", "custom prompt for the in-process relay")
		noClipboard = flag.Bool("no-clipboard", false, "do not touch the system clipboard")
		hold        = flag.Bool("hold", false, "wait for tooltips to expire before exiting")
		printHTML   = flag.Bool("print-html", false, "print the page after answers were applied")
		timeout     = flag.Duration("timeout", 60*time.Second, "timeout for each request")
	)
	var selected selectors
	flag.Var(&selected, "select", "CSS selector of one selection (repeatable)")
	flag.Parse()

	if err := config.LoadEnvFromMultiplePaths(); err != nil {
		fmt.Fprintln(os.Stderr, "FATAL:", err)
		os.Exit(1)
	}
	if err := logger.InitFromEnv(); err != nil {
		fmt.Fprintln(os.Stderr, "FATAL: Failed to initialize logger:", err)
		os.Exit(1)
	}

	if *pagePath == "" || len(selected) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	doc, err := loadPage(*pagePath, *pageURL)
	if err != nil {
		logger.Error("Failed to load page", "error", err)
		os.Exit(1)
	}

	root := *resources
	if root == "" {
		root = filepath.Dir(*pagePath)
	}
	if n, err := doc.LoadResources(os.DirFS(root)); err != nil {
		logger.Warn("Failed to load page images", "resources", root, "error", err)
	} else {
		logger.Debug("Page images loaded", "resources", root, "count", n)
	}

	client := httpclient.NewFactory(httpclient.Options{Timeout: *timeout, UserAgent: utils.ServiceUserAgent}).CreateDefaultClient()

	var dispatcher agent.Dispatcher
	if *relayURL != "" {
		dispatcher = channel.NewHTTPSender(strings.TrimRight(*relayURL, "/"), client)
	} else {
		bus := channel.NewBus(len(selected))
		defer bus.Close()

		st := store.NewMemory(map[string]string{
			settings.KeyStatus: string(settings.StatusOn),
			settings.KeyMode:   *mode,
			settings.KeyURL:    *serviceURL,
			settings.KeyAPIKey: *apiKey,

			settings.PromptKey(settings.Mode(*mode).Resolve()): *prompt,
		})
		r := relay.New(st, relay.WithHTTPClient(client))
		go func() { _ = bus.Serve(ctx, r) }()
		dispatcher = bus
	}

	opts := []agent.Option{
		agent.WithImageSource(imaging.NewMaterializer(imaging.NewFetcher(client, imaging.DefaultMaxSize))),
	}
	if *noClipboard {
		opts = append(opts, agent.WithClipboard(discardClipboard{}))
	}
	a := agent.New(dispatcher, opts...)

	events := make(chan *page.Selection, len(selected))
	for _, css := range selected {
		events <- doc.Select(css)
	}
	close(events)
	a.Run(ctx, events)

	if body := doc.Body(); body != nil && body.Title() != "" {
		fmt.Println(body.Title())
	}

	if *printHTML {
		html, err := doc.HTML()
		if err != nil {
			logger.Error("Failed to render page", "error", err)
		} else {
			fmt.Println(html)
		}
	}

	if *hold {
		select {
		case <-time.After(agent.TooltipTTL + 100*time.Millisecond):
		case <-ctx.Done():
		}
	}
}

func loadPage(path, pageURL string) (*page.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return page.Parse(f, pageURL)
}

type discardClipboard struct{}

func (discardClipboard) WriteAll(string) error { return nil }
