package main

import (
	"os"

	"github.com/belgrano/backend/internal/application/ticketing"
	"github.com/belgrano/backend/internal/infrastructure/config"
)

const (
	envSeedAdminPassword = "BELGRANO_SEED_ADMIN_PASSWORD"
	envSeedFlotaPassword = "BELGRANO_SEED_FLOTA_PASSWORD"

	devAdminPassword = "admin123"
	devFlotaPassword = "repartidor123"
)

// seedPasswords returns the passwords of the default staff accounts. Outside
// production they fall back to well known development values; in production
// both must come from the environment.
func seedPasswords(app config.AppConfig) (ticketing.SeedInput, bool) {
	in := ticketing.SeedInput{
		AdminPassword: os.Getenv(envSeedAdminPassword),
		FlotaPassword: os.Getenv(envSeedFlotaPassword),
	}
	if app.IsProduction() {
		return in, in.AdminPassword != "" && in.FlotaPassword != ""
	}
	if in.AdminPassword == "" {
		in.AdminPassword = devAdminPassword
	}
	if in.FlotaPassword == "" {
		in.FlotaPassword = devFlotaPassword
	}
	return in, true
}
