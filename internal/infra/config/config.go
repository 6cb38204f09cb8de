package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	DatabaseURL  string
	DiscordToken string
	DiscordGuild string

	RoleConfigPath string // documento JSON de roles/categorías

	AdminRoleIDs []string // roles que pueden operar teams, además de admins

	SyncInterval  time.Duration // reconciliación LFT/clan
	RolecfgReload time.Duration // recarga del documento de roles
}

func Load() Config {
	get := func(k string, req bool) string {
		v := os.Getenv(k)
		if v == "" && req {
			log.Fatalf("faltante env %s", k)
		}
		return v
	}

	cfg := Config{
		DatabaseURL:    get("DATABASE_URL", true),
		DiscordToken:   get("DISCORD_BOT_TOKEN", true),
		DiscordGuild:   get("DISCORD_GUILD_ID", true),
		RoleConfigPath: get("ROLE_CONFIG_PATH", false),
	}
	if cfg.RoleConfigPath == "" {
		cfg.RoleConfigPath = "role_config.json"
	}
	if raw := get("ADMIN_ROLE_IDS", false); raw != "" {
		for _, id := range strings.Split(raw, ",") {
			if id = strings.TrimSpace(id); id != "" {
				cfg.AdminRoleIDs = append(cfg.AdminRoleIDs, id)
			}
		}
	}
	cfg.SyncInterval = secondsEnv("SYNC_INTERVAL_SECONDS", 300)
	cfg.RolecfgReload = secondsEnv("ROLE_CONFIG_RELOAD_SECONDS", 600)
	return cfg
}

func secondsEnv(k string, def int) time.Duration {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return time.Duration(n) * time.Second
		}
		log.Printf("env %s inválida (%q), usando default %ds", k, v, def)
	}
	return time.Duration(def) * time.Second
}
