package config

import (
	"fmt"
	"os"
	"time"

	"pleito/internal/shared/deadline"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName  string   `envconfig:"SERVICE_NAME" default:"pleito"`
	HTTPPort     string   `envconfig:"HTTP_PORT" default:"8080"`
	PostgresDSN  string   `envconfig:"POSTGRES_DSN"`
	KafkaBrokers []string `envconfig:"KAFKA_BROKERS" default:"localhost:9092"`

	// ReceiptSecret keys the ballot receipt MAC. Every process of one
	// deployment must share it or receipts stop verifying.
	ReceiptSecret string `envconfig:"RECEIPT_SECRET" default:"dev-receipt-secret"`

	// CalendarFile points at the electoral calendar exceptions (YAML).
	// Empty means no exception days.
	CalendarFile string `envconfig:"ELECTORAL_CALENDAR_FILE"`

	// EvidenceDir is where uploaded evidence documents are stored.
	EvidenceDir string `envconfig:"EVIDENCE_DIR"`

	AdmissibilityWindowDays int `envconfig:"ADMISSIBILITY_WINDOW_DAYS" default:"3"`
	DefenseWindowDays       int `envconfig:"DEFENSE_WINDOW_DAYS" default:"5"`
	AppealWindowDays        int `envconfig:"APPEAL_WINDOW_DAYS" default:"3"`

	OutboxPollInterval time.Duration `envconfig:"OUTBOX_POLL_INTERVAL" default:"2s"`
	OutboxBatchSize    int           `envconfig:"OUTBOX_BATCH_SIZE" default:"100"`
	OverdueScanSpec    string        `envconfig:"OVERDUE_SCAN_SPEC" default:"@every 5m"`
}

func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("process environment config: %w", err)
	}
	return cfg, nil
}

type calendarFile struct {
	Exceptions []string `yaml:"exceptions"`
}

// LoadCalendar reads the electoral calendar exception days from a YAML file
// of the form:
//
//	exceptions:
//	  - 2026-04-21
//	  - 2026-05-01
func LoadCalendar(path string) (deadline.Calendar, error) {
	if path == "" {
		return deadline.NewCalendar(nil), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return deadline.Calendar{}, fmt.Errorf("read calendar file: %w", err)
	}
	var file calendarFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return deadline.Calendar{}, fmt.Errorf("parse calendar file: %w", err)
	}
	days := make([]time.Time, 0, len(file.Exceptions))
	for _, entry := range file.Exceptions {
		day, err := time.ParseInLocation("2006-01-02", entry, time.UTC)
		if err != nil {
			return deadline.Calendar{}, fmt.Errorf("parse calendar day %q: %w", entry, err)
		}
		days = append(days, day)
	}
	return deadline.NewCalendar(days), nil
}
