package protocal

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"file-utility-bot/configs"
	httpAdapter "file-utility-bot/internal/adapters/input/http"
	tgInput "file-utility-bot/internal/adapters/input/telegram"
	"file-utility-bot/internal/adapters/output/keepalive"
	"file-utility-bot/internal/adapters/output/memory"
	tgOutput "file-utility-bot/internal/adapters/output/telegram"
	"file-utility-bot/internal/adapters/output/tempfs"
	"file-utility-bot/internal/adapters/output/transform/archive"
	"file-utility-bot/internal/adapters/output/transform/imaging"
	"file-utility-bot/internal/adapters/output/transform/media"
	"file-utility-bot/internal/adapters/output/transform/pdfdoc"
	"file-utility-bot/internal/application"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc"
)

// ServeBot func - Wires every layer and runs until ctx is done or the process is signalled
func ServeBot(parent context.Context, cfg *configs.Config) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Output adapters
	storage, err := tempfs.NewStorage(cfg.Storage.TempDir)
	if err != nil {
		return err
	}
	defer storage.Close()

	registry, closeRegistry, err := OpenRegistry(cfg)
	if err != nil {
		return err
	}
	defer closeRegistry()

	bot, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		return fmt.Errorf("failed to connect to telegram: %w", err)
	}
	bot.Debug = cfg.App.Debug
	username := cfg.Telegram.Username
	if username == "" {
		username = bot.Self.UserName
	}
	logrus.Infof("Authorized on account @%s", strings.TrimPrefix(username, "@"))

	sessions := memory.NewMemorySessionStore(storage)
	pool := application.NewWorkerPool(cfg.Worker.Size, cfg.Worker.QueueSize)

	// Application service (use case)
	srv := application.NewBotService(
		application.Config{
			OwnerID:           cfg.Owner.ID,
			BotUsername:       username,
			BroadcastDelay:    time.Duration(cfg.Broadcast.Delay) * time.Millisecond,
			MaxExtractEntries: cfg.Storage.MaxExtractEntries,
		},
		tgOutput.NewMessenger(bot),
		registry,
		sessions,
		storage,
		application.Transformers{
			Image:   imaging.NewTransformer(),
			Media:   media.NewTransformer(cfg.Media.FFmpeg),
			PDF:     pdfdoc.NewTransformer(),
			Archive: archive.NewTransformer(),
		},
		pool,
	)
	janitor := application.NewJanitor(
		srv,
		time.Duration(cfg.Session.IdleTimeout)*time.Minute,
		time.Duration(cfg.Session.SweepInterval)*time.Second,
	)

	// Input adapters
	updates := tgInput.NewUpdateHandler(bot, srv, cfg.Telegram.PollTimeout)

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: true,
	})
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept,Authorization",
	}))
	httpAdapter.New(registry, sessions).Register(app)

	pinger := keepalive.NewPinger(cfg.KeepAlive.URL, time.Duration(cfg.KeepAlive.Interval)*time.Second)

	port := cfg.App.Port
	if port == "" {
		port = "10000"
	}

	var wg conc.WaitGroup
	wg.Go(func() {
		logrus.Println("Listening on port: ", port)
		if err := app.Listen(":" + port); err != nil {
			logrus.Errorf("HTTP server stopped: %v", err)
			stop()
		}
	})
	wg.Go(func() {
		<-ctx.Done()
		logrus.Println("Gracefull shut down ...")
		if err := app.Shutdown(); err != nil {
			logrus.Println("Error when shutdown server: ", err)
		}
	})
	wg.Go(func() { updates.Run(ctx) })
	wg.Go(func() { janitor.Run(ctx) })
	wg.Go(func() { pinger.Run(ctx) })
	wg.Wait()

	// Polling has stopped; pending operations complete or fail before the tracker closes
	srv.Close()
	return nil
}
