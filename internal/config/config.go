package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	StoragePostgres  = "postgres"
	StorageFirestore = "firestore"
	StorageMemory    = "memory"
)

// Configはアプリ全体の設定
type Config struct {
	Port  string // サーバーポート（8080）
	GoEnv string // dev/prod

	StorageDriver string // postgres/firestore/memory

	DatabaseURL      string // あれば最優先
	PostgresUser     string // DBユーザー
	PostgresPassword string // DBパスワード
	PostgresDB       string // DB名
	PostgresHost     string // DBホスト（localhost）
	PostgresPort     int    // DBポート（5432）
	PostgresSSLMode  string

	FirestoreProjectID string

	CommerceAPIURL  string        // GraphQLエンドポイント
	CommerceChannel string        // 商品取得のチャネル
	CommerceTimeout time.Duration // 1リクエストのタイムアウト

	CartMaxLineQuantity int64 // 1明細の上限数量（加算後）
	CartMaxUnitPrice    int64 // 単価の上限（最小通貨単位）

	ShopperIdleTTL       time.Duration // これより使われていないショッパーはメモリから外す
	ShopperSweepInterval time.Duration

	CookieSecure bool // shopper_id cookie の Secure 属性
	LogLevel     string
}

// Loadは環境変数
func Load() (Config, error) {
	pgPort, err := atoiOr("POSTGRES_PORT", 5432)
	if err != nil {
		return Config{}, err
	}
	maxQty, err := atoiOr("CART_MAX_LINE_QUANTITY", 99)
	if err != nil {
		return Config{}, err
	}
	maxPrice, err := atoiOr("CART_MAX_UNIT_PRICE", 100_000_000)
	if err != nil {
		return Config{}, err
	}
	timeout, err := durationOr("COMMERCE_TIMEOUT", 10*time.Second)
	if err != nil {
		return Config{}, err
	}
	idleTTL, err := durationOr("SHOPPER_IDLE_TTL", 30*time.Minute)
	if err != nil {
		return Config{}, err
	}
	sweep, err := durationOr("SHOPPER_SWEEP_INTERVAL", time.Minute)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Port:  getenv("PORT", "8080"),
		GoEnv: getenv("GO_ENV", "dev"),

		StorageDriver: strings.ToLower(getenv("STORAGE_DRIVER", StoragePostgres)),

		DatabaseURL:      os.Getenv("DATABASE_URL"),
		PostgresUser:     getenv("POSTGRES_USER", "postgres"),
		PostgresPassword: getenv("POSTGRES_PASSWORD", "postgres"),
		PostgresDB:       getenv("POSTGRES_DB", "storefront"),
		PostgresHost:     getenv("POSTGRES_HOST", "localhost"),
		PostgresPort:     pgPort,
		PostgresSSLMode:  getenv("POSTGRES_SSLMODE", "disable"),

		FirestoreProjectID: os.Getenv("FIRESTORE_PROJECT_ID"),

		CommerceAPIURL:  os.Getenv("COMMERCE_API_URL"),
		CommerceChannel: getenv("COMMERCE_CHANNEL", "default-channel"),
		CommerceTimeout: timeout,

		CartMaxLineQuantity: int64(maxQty),
		CartMaxUnitPrice:    int64(maxPrice),

		ShopperIdleTTL:       idleTTL,
		ShopperSweepInterval: sweep,

		CookieSecure: envBool("COOKIE_SECURE", false),
		LogLevel:     getenv("LOG_LEVEL", "info"),
	}

	//必須チェック
	if cfg.CommerceAPIURL == "" {
		return Config{}, fmt.Errorf("COMMERCE_API_URL is required")
	}
	if cfg.CartMaxLineQuantity < 1 {
		return Config{}, fmt.Errorf("CART_MAX_LINE_QUANTITY must be positive")
	}
	if cfg.CartMaxUnitPrice < 1 {
		return Config{}, fmt.Errorf("CART_MAX_UNIT_PRICE must be positive")
	}
	if cfg.ShopperIdleTTL <= 0 || cfg.ShopperSweepInterval <= 0 {
		return Config{}, fmt.Errorf("SHOPPER_IDLE_TTL and SHOPPER_SWEEP_INTERVAL must be positive")
	}

	switch cfg.StorageDriver {
	case StoragePostgres, StorageMemory:
	case StorageFirestore:
		if cfg.FirestoreProjectID == "" {
			return Config{}, fmt.Errorf("FIRESTORE_PROJECT_ID is required")
		}
	default:
		return Config{}, fmt.Errorf("STORAGE_DRIVER must be postgres, firestore or memory: %q", cfg.StorageDriver)
	}

	return cfg, nil
}

// IsProd は本番か
func (c Config) IsProd() bool {
	return c.GoEnv == "prod" || c.GoEnv == "production"
}

// Addr は listen アドレス
func (c Config) Addr() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}

// PostgresDSN は DATABASE_URL が無い時の接続文字列
func (c Config) PostgresDSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgresHost, c.PostgresPort, c.PostgresUser, c.PostgresPassword, c.PostgresDB, c.PostgresSSLMode,
	)
}

func getenv(key string, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func envBool(key string, def bool) bool {
	switch strings.TrimSpace(os.Getenv(key)) {
	case "1", "true", "TRUE", "True":
		return true
	case "0", "false", "FALSE", "False":
		return false
	default:
		return def
	}
}

func atoiOr(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be number: %w", key, err)
	}
	return i, nil
}

func durationOr(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be duration: %w", key, err)
	}
	return d, nil
}
