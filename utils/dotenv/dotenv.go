package dotenv

import (
	"os"

	"github.com/joho/godotenv"
)

const (
	DevEnv  = "dev"
	ProdEnv = "prod"
)

// RuntimeEnv reports the current runtime environment, defaulting to dev.
func RuntimeEnv() string {
	env := os.Getenv("POLIFEED_ENV")
	if env == "" {
		return DevEnv
	}
	return env
}

// LoadDotEnvs loads the .env files following the convention:
// https://github.com/bkeepers/dotenv#what-other-env-files-can-i-use
// It only needs to be called once in main; other code reads through
// os.Getenv during runtime.
func LoadDotEnvs() error {
	env := RuntimeEnv()

	// .env.[runtime_env].local has highest priority, usually contains
	// credentials and other sensitive information.
	godotenv.Load(".env." + env + ".local")
	godotenv.Load(".env.local")
	// .env.[runtime_env] usually contains connection information.
	godotenv.Load(".env." + env)
	// .env contains shared variables, overridable by the files above.
	godotenv.Load(".env")
	return nil
}
