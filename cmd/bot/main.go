package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/joho/godotenv"

	discordadapter "github.com/mmhelfer/teambot/internal/adapters/discord"
	"github.com/mmhelfer/teambot/internal/app/service"
	"github.com/mmhelfer/teambot/internal/infra/config"
	"github.com/mmhelfer/teambot/internal/infra/rolecfg"
	"github.com/mmhelfer/teambot/internal/infra/storage"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	_ = godotenv.Load()
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg := config.Load()

	// DB
	db, err := storage.Open(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()
	if err := storage.Migrate(db); err != nil {
		log.Fatal("migrate:", err)
	}
	log.Println("✅ DB lista y migrada")

	// Repos
	teamsRepo := storage.NewTeamRepo(db)
	rosterRepo := storage.NewRosterRepo(db)
	oplogRepo := storage.NewOpLogRepo(db)

	// Documento de roles/categorías (se recarga periódicamente)
	roles := rolecfg.NewStore(cfg.RoleConfigPath)
	if err := roles.Load(); err != nil {
		log.Fatalf("role config: %v", err)
	}
	log.Printf("✅ role config cargado desde %s", cfg.RoleConfigPath)

	// Discord session
	auth := cfg.DiscordToken
	if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(auth)), "bot ") {
		auth = "Bot " + strings.TrimSpace(auth)
	}
	s, err := discordgo.New(auth)
	if err != nil {
		log.Fatal(err)
	}
	s.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMembers
	// El Directory maneja sus propios reintentos con backoff; que la lib
	// no reintente por su cuenta.
	s.ShouldRetryOnRateLimit = false
	if err := s.Open(); err != nil {
		log.Fatal(err)
	}
	defer s.Close()
	log.Printf("✅ Conectado como %s (%s)", s.State.User.Username, s.State.User.ID)

	// Adapter + services
	dir := discordadapter.NewDirectory(s, cfg.DiscordGuild)
	teamSvc := service.NewTeamService(dir, teamsRepo, rosterRepo, oplogRepo, roles)
	rosterSvc := service.NewRosterService(dir, rosterRepo, roles)
	syncSvc := service.NewSyncService(dir, rosterRepo, roles)

	// Router
	r := discordadapter.NewRouter(s, cfg.DiscordGuild, cfg.AdminRoleIDs, teamSvc, rosterSvc)
	if err := r.Register(); err != nil {
		log.Fatalf("registrando comandos: %v", err)
	}
	r.Handlers()
	log.Printf("✅ comandos registrados en guild %s", cfg.DiscordGuild)

	// Recarga del documento de roles
	go func() {
		t := time.NewTicker(cfg.RolecfgReload)
		defer t.Stop()
		for range t.C {
			if err := roles.Load(); err != nil {
				log.Printf("[rolecfg] recarga: %v", err)
			}
		}
	}()

	// Reconciliación periódica de las listas auxiliares. La primera corrida
	// espera un rato a que el state del gateway se llene.
	go func() {
		time.Sleep(30 * time.Second)
		run := func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
			defer cancel()
			if err := syncSvc.Run(ctx); err != nil {
				log.Printf("[sync] %v", err)
			}
		}
		run()
		t := time.NewTicker(cfg.SyncInterval)
		defer t.Stop()
		for range t.C {
			run()
		}
	}()

	// Esperar señal
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-stop
}
