package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/go-faster/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"storefront/internal/client"
	"storefront/internal/config"
	"storefront/internal/credential"
	"storefront/internal/domain"
	"storefront/internal/logging"
	"storefront/internal/notify"
	"storefront/internal/service"
	"storefront/internal/tui"
)

var (
	// Global flags
	configPath string
	baseURL    string
	pagePath   string
	verbose    bool

	// errActionFailed the failure was already shown as a toast
	errActionFailed = errors.New("action failed")
)

// app зависимости одной команды
type app struct {
	logger  *zap.Logger
	session *cookieSession
	api     *client.Client
	sched   *notify.TimerScheduler
	page    domain.PageContext

	catalog  *service.CatalogService
	profile  *service.ProfileService
	accounts *service.AccountService

	closeOnce sync.Once
	closeErr  error
}

var current *app

var rootCmd = &cobra.Command{
	Use:   "storefront",
	Short: "Storefront client: cart, library, profile and product gallery",
	Long: `storefront performs the storefront's user actions against the backend and
shows the outcome as toasts, following payment, download and login redirects.

Session cookies come from the config, STOREFRONT_COOKIES or a cookie file
written after "storefront login".`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		current = a
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return current.close()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "storefront.yaml", "Config file (missing file is fine)")
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "Backend base URL (overrides config)")
	rootCmd.PersistentFlags().StringVar(&pagePath, "page", "", "Page context YAML (product and user of the current page)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(cartCmd, getCmd, buyCmd, registerCmd, loginCmd, passwordCmd, renameCmd, galleryCmd)
}

func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if pagePath != "" {
		cfg.PagePath = pagePath
	}
	level := cfg.Logging.Level
	if verbose {
		level = "debug"
	}
	logger, err := logging.New(level, cfg.Logging.Format)
	if err != nil {
		return nil, err
	}

	sess, err := openSession(cfg.BaseURL, cfg.Session, logger)
	if err != nil {
		return nil, err
	}
	api, err := client.New(client.Config{
		BaseURL:    cfg.BaseURL,
		CSRFCookie: cfg.CSRFCookie,
		CSRFHeader: cfg.CSRFHeader,
		Timeout:    cfg.GetTimeout(),
	}, &http.Client{Jar: sess.jar}, credential.JarStore{Jar: sess.jar, Base: sess.base}, logger.Named("client"))
	if err != nil {
		return nil, err
	}

	var page domain.PageContext
	if cfg.PagePath != "" {
		if page, err = config.LoadPage(cfg.PagePath); err != nil {
			return nil, err
		}
	}

	out := cmd.OutOrStdout()
	sched := notify.NewTimerScheduler()
	notes := notify.New(tui.NewToastSurface(out, cfg.UI.Color), sched)
	nav := tui.NewPrintNavigator(out, cfg.UI.Color)
	timing := service.Timing{
		Notification:    cfg.NotificationDuration(),
		PaymentRedirect: cfg.PaymentRedirectDelay(),
		LoginRedirect:   cfg.LoginRedirectDelay(),
	}
	fb := service.NewFeedback(notes, nav, sched, timing, cfg.LoginPath, logger.Named("feedback"))

	return &app{
		logger:   logger,
		session:  sess,
		api:      api,
		sched:    sched,
		page:     page,
		catalog:  service.NewCatalogService(api, fb, page),
		profile:  service.NewProfileService(api, fb),
		accounts: service.NewAccountService(api, fb),
	}, nil
}

// close waits for pending toasts and redirects, then persists the cookie jar.
func (a *app) close() error {
	if a == nil {
		return nil
	}
	a.closeOnce.Do(func() {
		a.sched.Wait()
		a.closeErr = a.session.save()
		_ = a.logger.Sync()
	})
	return a.closeErr
}

// outcome converts a result into the command's exit status.
func outcome(res domain.ActionResult) error {
	if res.OK() || res.Outcome == domain.OutcomeBusy {
		return nil
	}
	return errActionFailed
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil && current != nil {
		// PersistentPostRunE is skipped when RunE fails
		if cerr := current.close(); cerr != nil {
			fmt.Fprintln(os.Stderr, "Error:", cerr)
		}
	}
	if err != nil {
		if !errors.Is(err, errActionFailed) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}
