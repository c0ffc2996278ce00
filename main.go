package main

import (
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gopkg.in/yaml.v2"

	"heartrisk/db"
	qhttp "heartrisk/http"
	"heartrisk/ml"
	"heartrisk/monitoring"
	"heartrisk/predict"
	"heartrisk/schema"
)

type Config struct {
	Schema struct {
		Path string `yaml:"path"`
	} `yaml:"schema"`
	Model struct {
		Path  string `yaml:"path"`
		Watch bool   `yaml:"watch"`
	} `yaml:"model"`
	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`
	Http struct {
		Port           int      `yaml:"port"`
		TimeoutSeconds int      `yaml:"timeout_seconds"`
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"http"`
	Decision struct {
		DefaultThreshold float64 `yaml:"default_threshold"`
		TopFeatures      int     `yaml:"top_features"`
	} `yaml:"decision"`
}

func main() {
	// 1. Load config
	config, err := loadConfig("config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. Load feature schema and model artifact; both are fatal on failure
	fields, err := schema.Load(config.Schema.Path)
	if err != nil {
		log.Fatalf("Failed to load feature schema: %v", err)
	}
	artifact, err := ml.LoadArtifact(config.Model.Path)
	if err != nil {
		log.Fatalf("Failed to load model artifact: %v", err)
	}
	predictor, err := predict.New(fields, artifact)
	if err != nil {
		log.Fatalf("Schema/model contract check failed: %v", err)
	}
	log.Printf("Model %s loaded: %d fields, %d columns", artifact.Version, len(fields), predictor.Columns())

	// 3. Initialize database
	if err := db.InitDB(config.Database.Path); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	log.Printf("Database initialized at %s", config.Database.Path)

	// 4. Wire services
	hub := monitoring.NewHub()
	go hub.Run()
	qhttp.SetHub(hub)
	qhttp.SetPredictor(predictor)
	qhttp.SetDecisionDefaults(config.Decision.DefaultThreshold, config.Decision.TopFeatures)

	if config.Model.Watch {
		stop, err := watchArtifact(config.Model.Path, predictor)
		if err != nil {
			log.Fatalf("Failed to watch model artifact: %v", err)
		}
		defer stop()
	}

	// 5. Start HTTP server
	server := qhttp.NewServer(serverConfig(config))
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	// 6. Handle graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down...")

	if err := server.Stop(); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}
	hub.Stop()
	if err := db.Close(); err != nil {
		log.Printf("Failed to close database: %v", err)
	}

	log.Println("Exiting")
}

func loadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var config Config
	if err := yaml.NewDecoder(file).Decode(&config); err != nil {
		return nil, err
	}
	return &config, nil
}

func serverConfig(config *Config) qhttp.ServerConfig {
	serverCfg := qhttp.DefaultServerConfig()
	if config.Http.Port > 0 {
		serverCfg.Port = config.Http.Port
	}
	if config.Http.TimeoutSeconds > 0 {
		serverCfg.Timeout = time.Duration(config.Http.TimeoutSeconds) * time.Second
	}
	if len(config.Http.AllowedOrigins) > 0 {
		serverCfg.AllowedOrigins = config.Http.AllowedOrigins
	}
	return serverCfg
}
