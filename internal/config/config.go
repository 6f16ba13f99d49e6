package config

import (
	"github.com/spf13/viper"
)

type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	RedisAddr     string
	RedisPassword string

	// PrivateKey signs login tokens.
	PrivateKey string

	GinMode       string
	HTTPAddr      string
	CORSOrigin    string
	SessionSecret string

	SMTPHost         string
	SMTPPort         int
	SMTPUser         string
	SMTPPassword     string
	SMTPFrom         string
	SkipEmailSending bool

	UploadDir      string
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string

	GithubClientID     string
	GithubClientSecret string
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURI  string

	OpenAIAPIKey string
}

// Load reads configuration from the environment with sane local defaults.
func Load() *Config {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "3306")
	v.SetDefault("DB_USER", "taskify")
	v.SetDefault("DB_PASSWORD", "taskify")
	v.SetDefault("DB_NAME", "taskify")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("PRIVATE_KEY", "dev-secret-change-me")
	v.SetDefault("GIN_MODE", "debug")
	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("CORS_ORIGIN", "http://localhost:3000")
	v.SetDefault("SESSION_SECRET", "dev-session-secret")
	v.SetDefault("SMTP_HOST", "smtp.gmail.com")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("UPLOAD_DIR", "uploads")
	v.SetDefault("MINIO_BUCKET", "taskify-attachments")

	return &Config{
		DBHost:     v.GetString("DB_HOST"),
		DBPort:     v.GetString("DB_PORT"),
		DBUser:     v.GetString("DB_USER"),
		DBPassword: v.GetString("DB_PASSWORD"),
		DBName:     v.GetString("DB_NAME"),

		RedisAddr:     v.GetString("REDIS_ADDR"),
		RedisPassword: v.GetString("REDIS_PASSWORD"),

		PrivateKey: v.GetString("PRIVATE_KEY"),

		GinMode:       v.GetString("GIN_MODE"),
		HTTPAddr:      v.GetString("HTTP_ADDR"),
		CORSOrigin:    v.GetString("CORS_ORIGIN"),
		SessionSecret: v.GetString("SESSION_SECRET"),

		SMTPHost:         v.GetString("SMTP_HOST"),
		SMTPPort:         v.GetInt("SMTP_PORT"),
		SMTPUser:         v.GetString("GMAIL_USER"),
		SMTPPassword:     v.GetString("GMAIL_KEY"),
		SMTPFrom:         v.GetString("GMAIL_USER"),
		SkipEmailSending: v.GetBool("SKIP_EMAIL_SENDING"),

		UploadDir:      v.GetString("UPLOAD_DIR"),
		MinioEndpoint:  v.GetString("MINIO_ENDPOINT"),
		MinioAccessKey: v.GetString("MINIO_ACCESS_KEY"),
		MinioSecretKey: v.GetString("MINIO_SECRET_KEY"),
		MinioBucket:    v.GetString("MINIO_BUCKET"),

		GithubClientID:     v.GetString("GITHUB_CLIENT_ID"),
		GithubClientSecret: v.GetString("GITHUB_CLIENT_SECRET"),
		GoogleClientID:     v.GetString("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: v.GetString("GOOGLE_CLIENT_SECRET"),
		GoogleRedirectURI:  v.GetString("GOOGLE_REDIRECT_URI"),

		OpenAIAPIKey: v.GetString("OPENAI_API_KEY"),
	}
}
