package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	YakoaEnvSandbox    = "sandbox"
	YakoaEnvProduction = "production"

	yakoaSandboxURLTemplate    = "https://%s.ip-api-sandbox.yakoa.io/%s"
	yakoaProductionURLTemplate = "https://%s.ip-api.yakoa.io/%s"
)

type Config struct {
	HTTPAddr    string
	PostgresDSN string
	LogLevel    string
	LogFormat   string

	YakoaAPIKey        string
	YakoaSubdomain     string
	YakoaNetwork       string
	YakoaEnv           string
	YakoaBaseURL       string
	YakoaRatePerSecond int
	YakoaTimeoutSecs   int

	StoryRPCURL                       string
	StoryChainID                      int64
	StoryNetworkName                  string
	WalletPrivateKey                  string
	SPGNFTContractAddress             string
	RoyaltyPolicyAddress              string
	LicenseAttachmentWorkflowsAddress string
	CurrencyTokenAddress              string
	SimulationDelayMillis             int

	PinataJWT        string
	PinataAPIURL     string
	PinataGatewayURL string
	MaxMediaBytes    int
	// MediaAllowPrivate lets media fetches reach loopback and private
	// networks. Off by default since media URLs come from callers.
	MediaAllowPrivate bool

	PolicyPath string

	RateLimitRequests      int
	RateLimitWindowSeconds int
	RateLimitFailClosed    bool
	RateLimitMaxKeys       int

	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

func FromEnv() Config {
	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	return Config{
		HTTPAddr:                          addr,
		PostgresDSN:                       os.Getenv("POSTGRES_DSN"),
		LogLevel:                          envDefault("LOG_LEVEL", "info"),
		LogFormat:                         envDefault("LOG_FORMAT", "json"),
		YakoaAPIKey:                       os.Getenv("YAKOA_API_KEY"),
		YakoaSubdomain:                    envDefault("YAKOA_SUBDOMAIN", "docs-demo"),
		YakoaNetwork:                      envDefault("YAKOA_NETWORK", "story-aeneid"),
		YakoaEnv:                          envDefault("YAKOA_ENV", YakoaEnvSandbox),
		YakoaBaseURL:                      os.Getenv("YAKOA_BASE_URL"),
		YakoaRatePerSecond:                envNonNegativeIntDefault("YAKOA_RATE_PER_SECOND", 5),
		YakoaTimeoutSecs:                  envIntDefault("YAKOA_TIMEOUT_SECONDS", 15),
		StoryRPCURL:                       envDefault("STORY_RPC_URL", "https://aeneid.storyrpc.io"),
		StoryChainID:                      int64(envIntDefault("STORY_CHAIN_ID", 1315)),
		StoryNetworkName:                  envDefault("STORY_NETWORK", "aeneid"),
		WalletPrivateKey:                  os.Getenv("WALLET_PRIVATE_KEY"),
		SPGNFTContractAddress:             os.Getenv("SPG_NFT_CONTRACT_ADDRESS"),
		RoyaltyPolicyAddress:              envDefault("ROYALTY_POLICY_ADDRESS", "0xBe54FB168b3c982b7AaE60dB6CF75Bd8447b390E"),
		LicenseAttachmentWorkflowsAddress: envDefault("LICENSE_ATTACHMENT_WORKFLOWS_ADDRESS", "0xcC2E862bCee5B6036Db0de6E06Ae87e524a79fd8"),
		CurrencyTokenAddress:              envDefault("CURRENCY_TOKEN_ADDRESS", "0x1514000000000000000000000000000000000000"),
		SimulationDelayMillis:             envNonNegativeIntDefault("SIMULATION_DELAY_MS", 2000),
		PinataJWT:                         os.Getenv("PINATA_JWT"),
		PinataAPIURL:                      envDefault("PINATA_API_URL", "https://api.pinata.cloud"),
		PinataGatewayURL:                  envDefault("PINATA_GATEWAY_URL", "https://gateway.pinata.cloud/ipfs"),
		MaxMediaBytes:                     envIntDefault("MAX_MEDIA_BYTES", 32<<20),
		MediaAllowPrivate:                 envBoolDefault("MEDIA_ALLOW_PRIVATE_HOSTS", false),
		PolicyPath:                        os.Getenv("POLICY_PATH"),
		RateLimitRequests:                 envIntDefault("RATE_LIMIT_REQUESTS", 0),
		RateLimitWindowSeconds:            envIntDefault("RATE_LIMIT_WINDOW_SECONDS", 60),
		RateLimitFailClosed:               envBoolDefault("RATE_LIMIT_FAIL_CLOSED", false),
		RateLimitMaxKeys:                  envIntDefault("RATE_LIMIT_MAX_KEYS", 10000),
		RedisAddr:                         os.Getenv("REDIS_ADDR"),
		RedisPassword:                     os.Getenv("REDIS_PASSWORD"),
		RedisDB:                           envIntDefault("REDIS_DB", 0),
	}
}

func envDefault(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func envIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parsed, err := strconv.Atoi(v)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

// envNonNegativeIntDefault is envIntDefault for keys where zero means off.
func envNonNegativeIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parsed, err := strconv.Atoi(v)
	if err != nil || parsed < 0 {
		return def
	}
	return parsed
}

func envBoolDefault(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	switch v {
	case "1", "true", "TRUE", "True", "yes", "YES", "Yes":
		return true
	case "0", "false", "FALSE", "False", "no", "NO", "No":
		return false
	default:
		return def
	}
}

// YakoaConfigured reports whether live verification calls can be made.
func (c Config) YakoaConfigured() bool {
	return strings.TrimSpace(c.YakoaAPIKey) != ""
}

// YakoaURL resolves the API base URL. An explicit YAKOA_BASE_URL wins over
// the environment templates.
func (c Config) YakoaURL() string {
	if c.YakoaBaseURL != "" {
		return strings.TrimRight(c.YakoaBaseURL, "/")
	}
	template := yakoaSandboxURLTemplate
	if strings.EqualFold(c.YakoaEnv, YakoaEnvProduction) {
		template = yakoaProductionURLTemplate
	}
	return fmt.Sprintf(template, c.YakoaSubdomain, c.YakoaNetwork)
}

// WalletConfigured reports whether live ledger registration is possible.
func (c Config) WalletConfigured() bool {
	return strings.TrimSpace(c.WalletPrivateKey) != ""
}

func (c Config) PinataConfigured() bool {
	return strings.TrimSpace(c.PinataJWT) != ""
}

func (c Config) SimulationDelay() time.Duration {
	return time.Duration(c.SimulationDelayMillis) * time.Millisecond
}

func (c Config) YakoaTimeout() time.Duration {
	return time.Duration(c.YakoaTimeoutSecs) * time.Second
}

func (c Config) RateLimitWindow() time.Duration {
	if c.RateLimitWindowSeconds <= 0 {
		return 0
	}
	return time.Duration(c.RateLimitWindowSeconds) * time.Second
}
