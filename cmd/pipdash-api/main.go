// README: Entry point; loads config, wires services, starts HTTP server and the location poller.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pipdash/internal/config"
	"pipdash/internal/geocode"
	"pipdash/internal/geoloc"
	httptransport "pipdash/internal/http"
	"pipdash/internal/infra"
	"pipdash/internal/modules/chat"
	"pipdash/internal/modules/location"
	"pipdash/internal/modules/widgets"
	"pipdash/internal/notify"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		log.Fatal(err)
	}
	defer dbPool.Close()

	redisClient := infra.NewRedis(cfg.Redis.Addr)
	defer redisClient.Close()

	fallback := geocode.NewCachedGeocoder(geocode.NewNominatimGeocoder(cfg.Geocode.NominatimBase), redisClient)
	var primary geocode.Geocoder
	if cfg.Geocode.GoogleKey != "" {
		google, err := geocode.NewGoogleGeocoder(cfg.Geocode.GoogleKey)
		if err != nil {
			log.Fatalf("google geocoder init: %v", err)
		}
		primary = geocode.NewCachedGeocoder(google, redisClient)
	} else {
		log.Printf("PIPDASH_MAPS_KEY not set; geocoding uses Nominatim only")
	}

	provider := geoloc.NewIPProvider(cfg.Location.FixEndpoint)
	notifier := notify.NewRedisNotifier(redisClient)

	locationStore := location.NewStore(dbPool, redisClient)
	locationSvc := location.NewService(provider, primary, fallback, locationStore.SaveFix, notifier, cfg.Location)
	defer locationSvc.Destroy()

	// Persisted settings are the authoritative configuration push; this
	// also starts the poll loop when location is enabled.
	settings, err := locationStore.LoadSettings(ctx)
	if err != nil {
		log.Printf("location settings load failed, starting disabled: %v", err)
	} else {
		locationSvc.UpdateSettings(ctx, settings)
	}

	widgetsSvc := widgets.NewService(widgets.NewStore(dbPool))

	var chatSvc *chat.Service
	if cfg.Chat.GeminiKey != "" {
		gemini, err := chat.NewGeminiProvider(ctx, cfg.Chat.GeminiKey)
		if err != nil {
			log.Fatalf("gemini init: %v", err)
		}
		defer gemini.Close()
		chatSvc = chat.NewService(gemini)
	} else {
		log.Printf("GEMINI_API_KEY not set; chat assistant disabled")
	}

	handler := httptransport.NewRouter(httptransport.RouterDeps{
		Location:      locationSvc,
		LocationStore: locationStore,
		Widgets:       widgetsSvc,
		Chat:          chatSvc,
	})

	server := &http.Server{Addr: cfg.HTTP.Addr, Handler: handler}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	log.Printf("pipdash-api listening on %s", cfg.HTTP.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
}
