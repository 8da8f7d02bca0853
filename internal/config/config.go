// Package config loads the taboleiro configuration.
//
// Configuration is a YAML file whose ${VAR} references are replaced with
// environment values before parsing. Every field has a default, so running
// without a file reproduces the stock dashboards.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"tereborace.com/taboleiro/internal/logger"
)

// Config is the full application configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Log     logger.Config `yaml:"log"`
	Cache   CacheConfig   `yaml:"cache"`
	Sources SourcesConfig `yaml:"sources"`
	Gemini  GeminiConfig  `yaml:"gemini"`
	Cover   CoverConfig   `yaml:"cover"`
}

// ServerConfig holds the web mode settings.
type ServerConfig struct {
	Addr  string `yaml:"addr"`
	Debug bool   `yaml:"debug"`
}

// CacheConfig holds the read-through cache settings.
type CacheConfig struct {
	TTL time.Duration `yaml:"ttl"`
}

// SourcesConfig lists every data source.
type SourcesConfig struct {
	REST   RESTConfig   `yaml:"rest"`
	CSV    []CSVConfig  `yaml:"csv"`
	SQLite SQLiteConfig `yaml:"sqlite"`
}

// RESTConfig maps source names to JSON endpoints.
type RESTConfig struct {
	Timeout   time.Duration     `yaml:"timeout"`
	Endpoints map[string]string `yaml:"endpoints"`
}

// CSVConfig describes a local CSV file source.
type CSVConfig struct {
	Name     string   `yaml:"name"`
	Path     string   `yaml:"path"`
	Temporal []string `yaml:"temporal"`
}

// SQLiteConfig describes an optional read-only SQLite database.
// An empty Tables list exposes every base table.
type SQLiteConfig struct {
	Path   string   `yaml:"path"`
	Tables []string `yaml:"tables"`
}

// GeminiConfig configures the LLM collaborator.
type GeminiConfig struct {
	APIKey            string        `yaml:"api_key"`
	Model             string        `yaml:"model"`
	Endpoint          string        `yaml:"endpoint"`
	SystemInstruction string        `yaml:"system_instruction"`
	Timeout           time.Duration `yaml:"timeout"` // 0: só o contexto da petición
}

// CoverConfig is the content of the landing page.
type CoverConfig struct {
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	Members     []string `yaml:"members"`
	Footer      string   `yaml:"footer"`
}

// EVSourceName is the name of the electric vehicle registrations source.
const EVSourceName = "registros_carros_electricos"

const eventosAPI = "https://eventos-25.onrender.com/api/"

// Default returns the stock configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{Addr: "127.0.0.1:8080"},
		Log:    logger.Config{Level: "info", Encoding: "console"},
		Cache:  CacheConfig{TTL: 5 * time.Minute},
		Sources: SourcesConfig{
			REST: RESTConfig{
				Timeout: 30 * time.Second,
				Endpoints: map[string]string{
					"estudiantes":       eventosAPI + "estudiantes",
					"asistenciaeventos": eventosAPI + "asistenciaeventos",
					"eventos":           eventosAPI + "eventos",
					"categoriaevento":   eventosAPI + "categoriasevento",
					"participantes":     eventosAPI + "participantes",
					"profesores":        eventosAPI + "profesores",
				},
			},
			CSV: []CSVConfig{{
				Name:     EVSourceName,
				Path:     "static/datasets/registros_carros_electricos.csv",
				Temporal: []string{"fecha_registro"},
			}},
		},
		Gemini: GeminiConfig{
			APIKey:   os.Getenv("GEMINI_API_KEY"),
			Model:    "gemini-2.0-flash",
			Endpoint: "https://generativelanguage.googleapis.com/v1beta/models",
			SystemInstruction: "Eres un experto en motos. Responde únicamente preguntas sobre motos. " +
				"Si la pregunta no es sobre motos, indica amablemente que solo puedes hablar de ese tema.",
		},
		Cover: CoverConfig{
			Title: "Proyecto Integrador",
			Description: "Este proyecto tiene como objetivo principal la investigación y el desarrollo de una " +
				"solución innovadora para la gestión y análisis de datos en entornos dinámicos, aplicando " +
				"principios de inteligencia artificial y machine learning para optimizar la toma de " +
				"decisiones y mejorar la eficiencia operativa.",
			Members: []string{"Juan Diego Palacio", "Dunier Camilo Galvis", "Daniela Mejia"},
			Footer:  "Desarrollado para la materia de Proyecto Integrador - 2025",
		},
	}
}

// Load reads a YAML file over the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path) //nolint:gosec // path vén da liña de comandos
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := Parse(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Parse substitutes environment variables in data and decodes it into cfg.
func Parse(data []byte, cfg *Config) error {
	content := substituteEnvVars(string(data))
	if err := yaml.Unmarshal([]byte(content), cfg); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}
	return cfg.Validate()
}

// Validate checks the values that would otherwise fail late.
func (c Config) Validate() error {
	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache.ttl must not be negative")
	}
	if c.Sources.REST.Timeout < 0 {
		return fmt.Errorf("sources.rest.timeout must not be negative")
	}
	for i, s := range c.Sources.CSV {
		if s.Name == "" || s.Path == "" {
			return fmt.Errorf("sources.csv[%d]: name and path are required", i)
		}
	}
	return nil
}

// substituteEnvVars replaces ${VAR_NAME} with environment variable values.
func substituteEnvVars(content string) string {
	for {
		start := strings.Index(content, "${")
		if start == -1 {
			break
		}
		end := strings.Index(content[start:], "}")
		if end == -1 {
			break
		}
		end += start
		content = content[:start] + os.Getenv(content[start+2:end]) + content[end+1:]
	}
	return content
}
