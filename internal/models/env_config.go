package models

import "os"

type EnvConfig struct {
	DatabasePath string
	UploadDir    string
	Port         string
	Debug        bool
}

func ReadEnvConfig() EnvConfig {
	debug := os.Getenv("POLLUMAP_DEBUG") == "true"
	port := os.Getenv("POLLUMAP_PORT")
	if port == "" {
		port = "8080"
	}
	databasePath := os.Getenv("POLLUMAP_DATABASE_PATH")
	if databasePath == "" {
		databasePath = "reports.db"
	}
	uploadDir := os.Getenv("POLLUMAP_UPLOAD_DIR")
	if uploadDir == "" {
		uploadDir = "static/uploads"
	}
	return EnvConfig{
		DatabasePath: databasePath,
		UploadDir:    uploadDir,
		Port:         port,
		Debug:        debug,
	}
}
