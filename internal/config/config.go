package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig    `json:"server"`
	Database  DatabaseConfig  `json:"database"`
	Storage   StorageConfig   `json:"storage"`
	S3        S3Config        `json:"s3"`
	GCS       GCSConfig       `json:"gcs"`
	Gotenberg GotenbergConfig `json:"gotenberg"`
	Stripe    StripeConfig    `json:"stripe"`
	Email     EmailConfig     `json:"email"`
	Events    EventsConfig    `json:"events"`
	Admin     AdminConfig     `json:"admin"`
	Logging   LoggingConfig   `json:"logging"`
}

type ServerConfig struct {
	Port               string        `json:"port"`
	Environment        string        `json:"environment"`
	FrontendURL        string        `json:"frontend_url"`
	AllowOrigins       []string      `json:"allow_origins"`
	RateLimitPerMinute int           `json:"rate_limit_per_minute"`
	MaxUploadMB        int64         `json:"max_upload_mb"`
	RequestTimeout     time.Duration `json:"request_timeout"`
}

// DatabaseConfig is optional: an empty Driver runs the service without
// registration history or activity logs.
type DatabaseConfig struct {
	Driver   string `json:"driver"`
	Host     string `json:"host"`
	Port     string `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"db_name"`
	SSLMode  string `json:"ssl_mode"`
}

type StorageConfig struct {
	Provider         string        `json:"provider"`
	LocalFallbackDir string        `json:"local_fallback_dir"`
	SweepInterval    time.Duration `json:"sweep_interval"`
	TemplateDir      string        `json:"template_dir"`
	TemplateCatalog  string        `json:"template_catalog"`
}

type S3Config struct {
	Bucket          string `json:"bucket"`
	Region          string `json:"region"`
	Endpoint        string `json:"endpoint"`
	AccessKeyID     string `json:"-"`
	SecretAccessKey string `json:"-"`
	PublicBaseURL   string `json:"public_base_url"`
	UsePathStyle    bool   `json:"use_path_style"`
}

type GCSConfig struct {
	BucketName      string `json:"bucket_name"`
	ProjectID       string `json:"project_id"`
	CredentialsPath string `json:"credentials_path"`
	PublicBaseURL   string `json:"public_base_url"`
}

// GotenbergConfig enables the owner summary PDF when URL is set.
type GotenbergConfig struct {
	URL     string `json:"url"`
	Timeout string `json:"timeout"`
}

type StripeConfig struct {
	SecretKey      string `json:"-"`
	Currency       string `json:"currency"`
	SuccessURL     string `json:"success_url"`
	CancelURL      string `json:"cancel_url"`
	RequirePayment bool   `json:"require_payment"`
}

type EmailConfig struct {
	Provider             string `json:"provider"`
	ResendAPIKey         string `json:"-"`
	GmailCredentialsPath string `json:"gmail_credentials_path"`
	From                 string `json:"from"`
	OwnerEmail           string `json:"owner_email"`
	BusinessName         string `json:"business_name"`
	AttachDocuments      bool   `json:"attach_documents"`
}

type EventsConfig struct {
	Provider     string   `json:"provider"`
	SQSQueueURL  string   `json:"sqs_queue_url"`
	SQSRegion    string   `json:"sqs_region"`
	SQSEndpoint  string   `json:"sqs_endpoint"`
	KafkaBrokers []string `json:"kafka_brokers"`
	KafkaTopic   string   `json:"kafka_topic"`
}

type AdminConfig struct {
	JWTSecret string `json:"-"`
}

type LoggingConfig struct {
	GELFAddr string `json:"gelf_addr"`
	Facility string `json:"facility"`
}

func (d *DatabaseConfig) DSN() string {
	switch d.Driver {
	case "postgres":
		return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
	case "sqlite":
		return d.DBName
	}
	// Cloud SQL Unix socket support
	if len(d.Host) > 0 && d.Host[0] == '/' {
		return fmt.Sprintf("%s:%s@unix(%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			d.User, d.Password, d.Host, d.DBName)
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		d.User, d.Password, d.Host, d.Port, d.DBName)
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("Failed to load .env file: %v, using system environment variables", err)
	}
	return FromEnv()
}

// FromEnv builds the configuration from the process environment only.
func FromEnv() (*Config, error) {
	frontend := strings.TrimRight(getEnv("FRONTEND_URL", "http://localhost:3000"), "/")
	driver := strings.ToLower(getEnv("DB_DRIVER", ""))

	config := &Config{
		Server: ServerConfig{
			Port:               getEnv("SERVER_PORT", "8080"),
			Environment:        getEnv("ENVIRONMENT", "development"),
			FrontendURL:        frontend,
			AllowOrigins:       parseAllowOrigins(),
			RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
			MaxUploadMB:        int64(getEnvInt("MAX_UPLOAD_MB", 10)),
			RequestTimeout:     getEnvDuration("REQUEST_TIMEOUT", 2*time.Minute),
		},
		Database: DatabaseConfig{
			Driver:   driver,
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", defaultDBPort(driver)),
			User:     getEnv("DB_USER", "root"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "fit_contracts"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Storage: StorageConfig{
			Provider:         strings.ToLower(getEnv("STORAGE_PROVIDER", "s3")),
			LocalFallbackDir: getEnv("LOCAL_FALLBACK_DIR", "filled-contracts-fallback"),
			SweepInterval:    getEnvDuration("FALLBACK_SWEEP_INTERVAL", 15*time.Minute),
			TemplateDir:      getEnv("TEMPLATE_DIR", "."),
			TemplateCatalog:  getEnv("TEMPLATE_CATALOG", ""),
		},
		S3: S3Config{
			Bucket:          getEnv("S3_BUCKET", ""),
			Region:          getEnv("S3_REGION", "us-east-1"),
			Endpoint:        getEnv("S3_ENDPOINT", ""),
			AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),
			PublicBaseURL:   getEnv("S3_PUBLIC_URL", ""),
			UsePathStyle:    getEnvBool("S3_USE_PATH_STYLE", true),
		},
		GCS: GCSConfig{
			BucketName:      getEnv("GCS_BUCKET_NAME", ""),
			ProjectID:       getEnv("GOOGLE_CLOUD_PROJECT", ""),
			CredentialsPath: getEnv("GCS_CREDENTIALS_PATH", ""),
			PublicBaseURL:   getEnv("GCS_PUBLIC_URL", ""),
		},
		Gotenberg: GotenbergConfig{
			URL:     getEnv("GOTENBERG_URL", ""),
			Timeout: getEnv("GOTENBERG_TIMEOUT", "30s"),
		},
		Stripe: StripeConfig{
			SecretKey:      getEnv("STRIPE_SECRET_KEY", ""),
			Currency:       getEnv("STRIPE_CURRENCY", "usd"),
			SuccessURL:     getEnv("STRIPE_SUCCESS_URL", frontend+"/registration/success?session_id={CHECKOUT_SESSION_ID}"),
			CancelURL:      getEnv("STRIPE_CANCEL_URL", frontend+"/registration"),
			RequirePayment: getEnvBool("REQUIRE_PAYMENT", false),
		},
		Email: EmailConfig{
			Provider:             strings.ToLower(getEnv("EMAIL_PROVIDER", "resend")),
			ResendAPIKey:         getEnv("RESEND_API_KEY", ""),
			GmailCredentialsPath: getEnv("GMAIL_CREDENTIALS_PATH", ""),
			From:                 getEnv("EMAIL_FROM", ""),
			OwnerEmail:           getEnv("OWNER_EMAIL", ""),
			BusinessName:         getEnv("BUSINESS_NAME", "Summit Fitness"),
			AttachDocuments:      getEnvBool("EMAIL_ATTACH_DOCUMENTS", true),
		},
		Events: EventsConfig{
			Provider:     strings.ToLower(getEnv("EVENTS_PROVIDER", "none")),
			SQSQueueURL:  getEnv("SQS_QUEUE_URL", ""),
			SQSRegion:    getEnv("SQS_REGION", getEnv("S3_REGION", "us-east-1")),
			SQSEndpoint:  getEnv("SQS_ENDPOINT", ""),
			KafkaBrokers: getEnvList("KAFKA_BROKERS"),
			KafkaTopic:   getEnv("KAFKA_TOPIC", "registrations"),
		},
		Admin: AdminConfig{
			JWTSecret: getEnv("ADMIN_JWT_SECRET", ""),
		},
		Logging: LoggingConfig{
			GELFAddr: getEnv("GELF_ADDR", ""),
			Facility: getEnv("GELF_FACILITY", "fit-contracts"),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate rejects combinations that would fail at the first request.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "", "mysql", "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}

	switch c.Storage.Provider {
	case "s3":
		if c.S3.Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required when STORAGE_PROVIDER=s3")
		}
	case "gcs":
		if c.GCS.BucketName == "" {
			return fmt.Errorf("GCS_BUCKET_NAME is required when STORAGE_PROVIDER=gcs")
		}
	case "local", "none":
	default:
		return fmt.Errorf("unsupported STORAGE_PROVIDER %q", c.Storage.Provider)
	}

	switch c.Email.Provider {
	case "resend":
		if c.Email.ResendAPIKey == "" {
			return fmt.Errorf("RESEND_API_KEY is required when EMAIL_PROVIDER=resend")
		}
	case "gmail":
		if c.Email.GmailCredentialsPath == "" {
			return fmt.Errorf("GMAIL_CREDENTIALS_PATH is required when EMAIL_PROVIDER=gmail")
		}
	case "none":
	default:
		return fmt.Errorf("unsupported EMAIL_PROVIDER %q", c.Email.Provider)
	}

	switch c.Events.Provider {
	case "sqs":
		if c.Events.SQSQueueURL == "" {
			return fmt.Errorf("SQS_QUEUE_URL is required when EVENTS_PROVIDER=sqs")
		}
	case "kafka":
		if len(c.Events.KafkaBrokers) == 0 {
			return fmt.Errorf("KAFKA_BROKERS is required when EVENTS_PROVIDER=kafka")
		}
	case "none":
	default:
		return fmt.Errorf("unsupported EVENTS_PROVIDER %q", c.Events.Provider)
	}

	if c.Stripe.RequirePayment && c.Stripe.SecretKey == "" {
		return fmt.Errorf("STRIPE_SECRET_KEY is required when REQUIRE_PAYMENT=true")
	}
	return nil
}

func defaultDBPort(driver string) string {
	if driver == "postgres" {
		return "5432"
	}
	return "3306"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		log.Printf("Warning: invalid boolean %s=%q, using %v", key, value, defaultValue)
		return defaultValue
	}
	return b
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Warning: invalid integer %s=%q, using %d", key, value, defaultValue)
		return defaultValue
	}
	return n
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("Warning: invalid duration %s=%q, using %s", key, value, defaultValue)
		return defaultValue
	}
	return d
}

func getEnvList(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func parseAllowOrigins() []string {
	if origins := getEnvList("ALLOW_ORIGINS"); len(origins) > 0 {
		return origins
	}

	var allowOrigins []string
	if url := getEnv("FRONTEND_URL", ""); url != "" {
		allowOrigins = append(allowOrigins, strings.TrimRight(url, "/"))
	}

	if len(allowOrigins) == 0 {
		allowOrigins = []string{
			"http://localhost:3000",
			"http://localhost:5173",
		}
	}

	return allowOrigins
}
