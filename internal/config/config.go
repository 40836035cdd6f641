package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Auth is the environment surface of the auth service. Signing material and
// every lifetime are supplied externally so rotation is an operational
// action, not a code change.
type Auth struct {
	Port                   string
	DatabaseURL            string
	JWTSecret              string
	GoogleAudience         string
	AllowOrigins           []string
	LogstashTCPAddr        string
	AccessTokenTTL         time.Duration
	RefreshTokenTTL        time.Duration
	PasswordResetTTL       time.Duration
	PasswordResetOTPLength int
	AuthRatePerMinute      float64
	SMTPHost               string
	SMTPPort               string
	SMTPUsername           string
	SMTPPassword           string
	SMTPFrom               string
	SMTPUseTLS             bool
}

// Books is the environment surface of the book service. It shares only the
// JWT secret with the auth service; there is no runtime link between the two.
type Books struct {
	Port               string
	DatabaseURL        string
	JWTSecret          string
	AllowOrigins       []string
	LogstashTCPAddr    string
	MinIOEndpoint      string
	MinIOAccessKey     string
	MinIOSecretKey     string
	MinIOUseSSL        bool
	MinIOBucketCovers  string
	MinIOPublicURL     string
	CoverImageMaxBytes int64
}

func LoadAuth() Auth {
	loadDotenv()

	otpLen := 6
	if v, err := strconv.Atoi(getenv("PASSWORD_RESET_OTP_LENGTH", "6")); err == nil && v > 0 {
		otpLen = v
	}

	authRate := 10.0
	if v, err := strconv.ParseFloat(getenv("AUTH_RATE_PER_MINUTE", "10"), 64); err == nil && v > 0 {
		authRate = v
	}

	return Auth{
		Port:                   getenv("PORT", "8080"),
		DatabaseURL:            must("DATABASE_URL"),
		JWTSecret:              must("JWT_SECRET"),
		GoogleAudience:         getenv("GOOGLE_AUDIENCE", ""),
		AllowOrigins:           splitAndTrim(getenv("ALLOW_ORIGINS", "*")),
		LogstashTCPAddr:        getenv("LOGSTASH_TCP_ADDR", ""),
		AccessTokenTTL:         getduration("ACCESS_TOKEN_TTL", "15m"),
		RefreshTokenTTL:        getduration("REFRESH_TOKEN_TTL", "168h"),
		PasswordResetTTL:       getduration("PASSWORD_RESET_TTL", "15m"),
		PasswordResetOTPLength: otpLen,
		AuthRatePerMinute:      authRate,
		SMTPHost:               getenv("SMTP_HOST", ""),
		SMTPPort:               getenv("SMTP_PORT", ""),
		SMTPUsername:           getenv("SMTP_USERNAME", ""),
		SMTPPassword:           getenv("SMTP_PASSWORD", ""),
		SMTPFrom:               getenv("SMTP_FROM", ""),
		SMTPUseTLS:             getenv("SMTP_USE_TLS", "false") == "true",
	}
}

func LoadBooks() Books {
	loadDotenv()

	coverMax := int64(5 * 1024 * 1024)
	if v, err := strconv.ParseInt(getenv("COVER_IMAGE_MAX_BYTES", "5242880"), 10, 64); err == nil && v > 0 {
		coverMax = v
	}

	return Books{
		Port:               getenv("PORT", "8081"),
		DatabaseURL:        must("DATABASE_URL"),
		JWTSecret:          must("JWT_SECRET"),
		AllowOrigins:       splitAndTrim(getenv("ALLOW_ORIGINS", "*")),
		LogstashTCPAddr:    getenv("LOGSTASH_TCP_ADDR", ""),
		MinIOEndpoint:      must("MINIO_ENDPOINT"),
		MinIOAccessKey:     must("MINIO_ACCESS_KEY"),
		MinIOSecretKey:     must("MINIO_SECRET_KEY"),
		MinIOUseSSL:        getenv("MINIO_USE_SSL", "false") == "true",
		MinIOBucketCovers:  getenv("MINIO_BUCKET_COVERS", "bookshelf-covers"),
		MinIOPublicURL:     getenv("MINIO_PUBLIC_URL", ""),
		CoverImageMaxBytes: coverMax,
	}
}

func loadDotenv() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}
}

func splitAndTrim(input string) []string {
	parts := strings.Split(input, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func getduration(k, d string) time.Duration {
	raw := getenv(k, d)
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		fallback, fallbackErr := time.ParseDuration(d)
		if fallbackErr != nil {
			panic("invalid default duration for " + k)
		}
		log.Printf("Warning: invalid %s=%q, using %s", k, raw, d)
		return fallback
	}
	return parsed
}

func must(k string) string {
	v := os.Getenv(k)
	if v == "" {
		panic("missing env: " + k)
	}
	return v
}
