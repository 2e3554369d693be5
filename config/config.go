package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/ssm"
	"github.com/joho/godotenv"
)

type Config struct {
	// Database
	DBDriver   string // mysql or postgres
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Redis
	RedisHost     string
	RedisPort     string
	RedisPassword string

	// JWT
	JWTSecret    string
	JWTExpiresIn time.Duration
	AuthEnabled  bool

	// AWS S3
	AWSRegion          string
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	S3BucketName       string

	// LINE Messaging
	LineChannelSecret      string
	LineChannelAccessToken string

	// Server
	Port        string
	AppEnv      string
	MaxBodySize int64

	// Billing
	Timezone              string
	CurrencySymbol        string
	DefaultMonthlyFee     string
	ManualFeeDueDays      int
	GenerateFeeOnRegister bool
	BillingCron           string
	ReminderCron          string
	ReportArchiveCron     string

	// Logging
	LogLevel string
	LogFile  string

	// Feature Toggles
	UseRedisNotifications bool
	SkipMigrate           bool
	SeedDemoData          bool
	EnableScheduler       bool
}

// GetDSN builds the connection string for the configured driver.
// Dates are stored as calendar days, so connections read and write them in UTC.
func (c *Config) GetDSN() string {
	if c.DBDriver == "postgres" {
		return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable TimeZone=UTC",
			c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName)
	}
	return c.DBUser + ":" + c.DBPassword + "@tcp(" + c.DBHost + ":" + c.DBPort + ")/" + c.DBName + "?charset=utf8mb4&parseTime=True&loc=UTC"
}

// Location resolves Timezone, falling back to the host zone.
func (c *Config) Location() *time.Location {
	if c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		log.Printf("Warning: unknown TIMEZONE %q, using local time", c.Timezone)
		return time.Local
	}
	return loc
}

var AppConfig *Config

func LoadConfig() {
	useSSM := getEnv("USE_SSM", "false") == "true"

	var (
		ssmClient *ssm.SSM
		paramMap  map[string]string
	)

	// Stage & base path for SSM (allows multi-env without code changes)
	basePath := getEnv("SSM_BASE_PATH", "/tuition")
	stage := getEnv("STAGE", getEnv("APP_ENV", "production"))
	basePath = strings.TrimRight(basePath, "/")
	prefix := basePath + "/" + stage

	if useSSM {
		sess, err := session.NewSession(&aws.Config{Region: aws.String(getEnv("AWS_REGION", "ap-southeast-1"))})
		if err != nil {
			log.Fatal("Failed to create AWS session:", err)
		}
		ssmClient = ssm.New(sess)
		log.Printf("Using AWS SSM Parameter Store (prefix=%s)", prefix)
		paramMap = fetchSSMParameters(ssmClient, prefix)
	} else {
		if err := godotenv.Load(); err != nil {
			log.Println("Warning: .env file not found, using environment variables")
		}
	}

	// Helper accessor respecting map / env fallback
	getVal := func(key, def string) string {
		if useSSM {
			// map key stored uppercase
			uk := strings.ToUpper(key)
			if v, ok := paramMap[uk]; ok && v != "" {
				return v
			}
		}
		return getEnv(strings.ToUpper(key), def)
	}

	// Parse JWT_EXPIRES_IN with shorthand support
	jwtExpiresStr := getVal("JWT_EXPIRES_IN", "24h")
	jwtExpires, err := time.ParseDuration(jwtExpiresStr)
	if err != nil {
		s := strings.TrimSpace(strings.ToLower(jwtExpiresStr))
		if len(s) > 1 {
			unit := s[len(s)-1]
			numStr := s[:len(s)-1]
			if n, err2 := strconv.Atoi(numStr); err2 == nil {
				switch unit {
				case 'd':
					jwtExpires = time.Duration(n) * 24 * time.Hour
					err = nil
				case 'w':
					jwtExpires = time.Duration(n*7) * 24 * time.Hour
					err = nil
				}
			}
		}
		if err != nil {
			log.Fatal("Invalid JWT_EXPIRES_IN format:", err)
		}
	}

	maxBodySize, err := strconv.ParseInt(getVal("MAX_BODY_SIZE", "4194304"), 10, 64)
	if err != nil {
		log.Fatal("Invalid MAX_BODY_SIZE format:", err)
	}

	dueDays, err := strconv.Atoi(getVal("MANUAL_FEE_DUE_DAYS", "30"))
	if err != nil || dueDays <= 0 {
		log.Fatal("Invalid MANUAL_FEE_DUE_DAYS, expected a positive number of days")
	}

	dbDriver := strings.ToLower(getVal("DB_DRIVER", "mysql"))
	defaultPort := "3306"
	if dbDriver == "postgres" {
		defaultPort = "5432"
	}

	AppConfig = &Config{
		DBDriver:   dbDriver,
		DBHost:     getVal("DB_HOST", "localhost"),
		DBPort:     getVal("DB_PORT", defaultPort),
		DBUser:     getVal("DB_USER", "root"),
		DBPassword: getVal("DB_PASSWORD", ""),
		DBName:     getVal("DB_NAME", "tuition"),

		RedisHost:     getVal("REDIS_HOST", "localhost"),
		RedisPort:     getVal("REDIS_PORT", "6379"),
		RedisPassword: getVal("REDIS_PASSWORD", ""),

		JWTSecret:    getVal("JWT_SECRET", "your_super_secret_jwt_key"),
		JWTExpiresIn: jwtExpires,
		AuthEnabled:  isTrue(getVal("AUTH_ENABLED", "false")),

		AWSRegion:          getVal("AWS_REGION", "ap-southeast-1"),
		AWSAccessKeyID:     getVal("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey: getVal("AWS_SECRET_ACCESS_KEY", ""),
		S3BucketName:       getVal("S3_BUCKET_NAME", ""),

		LineChannelSecret:      getVal("LINE_CHANNEL_SECRET", ""),
		LineChannelAccessToken: getVal("LINE_CHANNEL_ACCESS_TOKEN", ""),

		Port:        getVal("PORT", "3000"),
		AppEnv:      getVal("APP_ENV", "development"),
		MaxBodySize: maxBodySize,

		Timezone:              getVal("TIMEZONE", ""),
		CurrencySymbol:        getVal("CURRENCY_SYMBOL", "₹"),
		DefaultMonthlyFee:     getVal("DEFAULT_MONTHLY_FEE", "1000.00"),
		ManualFeeDueDays:      dueDays,
		GenerateFeeOnRegister: isTrue(getVal("GENERATE_FEE_ON_REGISTER", "true")),
		BillingCron:           getVal("BILLING_CRON", "0 6 1 * *"),
		ReminderCron:          getVal("REMINDER_CRON", "0 9 * * *"),
		ReportArchiveCron:     getVal("REPORT_ARCHIVE_CRON", "0 2 1 * *"),

		LogLevel: getVal("LOG_LEVEL", "info"),
		LogFile:  getVal("LOG_FILE", "logs/app.log"),

		UseRedisNotifications: isTrue(getVal("USE_REDIS_NOTIFICATIONS", "false")),
		SkipMigrate:           isTrue(getVal("SKIP_MIGRATE", "false")),
		SeedDemoData:          isTrue(getVal("SEED_DEMO_DATA", "false")),
		EnableScheduler:       isTrue(getVal("ENABLE_SCHEDULER", "true")),
	}

	validateConfig(AppConfig, useSSM)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func isTrue(v string) bool {
	return strings.ToLower(strings.TrimSpace(v)) == "true"
}

// fetchSSMParameters reads all parameters under prefix (non-recursive expected) and returns map with UPPERCASE keys.
func fetchSSMParameters(client *ssm.SSM, prefix string) map[string]string {
	out := make(map[string]string)
	next := aws.String("")
	for {
		in := &ssm.GetParametersByPathInput{
			Path:           aws.String(prefix),
			WithDecryption: aws.Bool(true),
			Recursive:      aws.Bool(true),
		}
		if *next != "" {
			in.NextToken = next
		}
		resp, err := client.GetParametersByPath(in)
		if err != nil {
			log.Printf("Warning: unable to fetch SSM parameters for prefix %s: %v", prefix, err)
			break
		}
		for _, p := range resp.Parameters {
			if p.Name == nil || p.Value == nil {
				continue
			}
			name := *p.Name
			// last segment after '/'
			idx := strings.LastIndex(name, "/")
			key := name
			if idx >= 0 {
				key = name[idx+1:]
			}
			if key == "" {
				continue
			}
			out[strings.ToUpper(key)] = *p.Value
		}
		if resp.NextToken == nil || *resp.NextToken == "" {
			break
		}
		next = resp.NextToken
	}
	return out
}

func validateConfig(c *Config, usedSSM bool) {
	if c.DBDriver != "mysql" && c.DBDriver != "postgres" {
		log.Fatalf("Unsupported DB_DRIVER %q", c.DBDriver)
	}
	// Only enforce stricter rules in production
	if strings.ToLower(c.AppEnv) != "production" {
		return
	}
	// Required secrets
	required := map[string]string{
		"DB_PASSWORD": c.DBPassword,
		"JWT_SECRET":  c.JWTSecret,
	}
	for k, v := range required {
		if strings.TrimSpace(v) == "" {
			log.Fatalf("Missing required secret %s in production (SSM=%v)", k, usedSSM)
		}
	}
	if len(c.JWTSecret) < 16 {
		log.Fatal("JWT_SECRET too short (min 16 chars)")
	}
}
