package config

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"runtime"
	"strings"
	"unicode"

	"github.com/spf13/viper"
)

type Config struct {
	Datadir       string
	DbType        string
	HTTPPort      uint32
	LogLevel      uint32
	NwcURL        string
	EvmRpcURL     string
	EvmChainId    int64
	HtlcContract  string
	TokenAddress  string
	EvmPrivateKey string
}

var (
	Datadir       = "DATADIR"
	DbType        = "DB_TYPE"
	HTTPPort      = "HTTP_PORT"
	LogLevel      = "LOG_LEVEL"
	NwcURL        = "NWC_URL"
	EvmRpcURL     = "EVM_RPC_URL"
	EvmChainId    = "EVM_CHAIN_ID"
	HtlcContract  = "HTLC_CONTRACT"
	TokenAddress  = "TOKEN_ADDRESS"
	EvmPrivateKey = "EVM_PRIVATE_KEY"

	defaultDatadir  = appDatadir("voltbridge", false)
	defaultHTTPPort = 7100
	defaultLogLevel = 4
	defaultDbType   = "badger"
	// Hedera testnet JSON-RPC relay
	defaultEvmRpcURL  = "https://testnet.hashio.io/api"
	defaultEvmChainId = 296
)

func LoadConfig() (*Config, error) {
	viper.SetEnvPrefix("VOLTBRIDGE")
	viper.AutomaticEnv()

	viper.SetDefault(Datadir, defaultDatadir)
	viper.SetDefault(HTTPPort, defaultHTTPPort)
	viper.SetDefault(LogLevel, defaultLogLevel)
	viper.SetDefault(DbType, defaultDbType)
	viper.SetDefault(EvmRpcURL, defaultEvmRpcURL)
	viper.SetDefault(EvmChainId, defaultEvmChainId)

	if err := initDatadir(); err != nil {
		return nil, fmt.Errorf("error while creating datadir: %s", err)
	}

	config := &Config{
		Datadir:       viper.GetString(Datadir),
		DbType:        viper.GetString(DbType),
		HTTPPort:      viper.GetUint32(HTTPPort),
		LogLevel:      viper.GetUint32(LogLevel),
		NwcURL:        viper.GetString(NwcURL),
		EvmRpcURL:     viper.GetString(EvmRpcURL),
		EvmChainId:    viper.GetInt64(EvmChainId),
		HtlcContract:  viper.GetString(HtlcContract),
		TokenAddress:  viper.GetString(TokenAddress),
		EvmPrivateKey: viper.GetString(EvmPrivateKey),
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) validate() error {
	if len(c.NwcURL) <= 0 {
		return fmt.Errorf("missing wallet connection URL (%s)", NwcURL)
	}
	if len(c.HtlcContract) <= 0 {
		return fmt.Errorf("missing HTLC contract address (%s)", HtlcContract)
	}
	if len(c.TokenAddress) <= 0 {
		return fmt.Errorf("missing token address (%s)", TokenAddress)
	}
	if len(c.EvmPrivateKey) <= 0 {
		return fmt.Errorf("missing signer key (%s)", EvmPrivateKey)
	}
	return nil
}

func initDatadir() error {
	datadir := viper.GetString(Datadir)
	return makeDirectoryIfNotExists(datadir)
}

func makeDirectoryIfNotExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, os.ModeDir|0755)
	}
	return nil
}

// appDataDir returns an operating system specific directory to be used for
// storing application data for an application.  See AppDataDir for more
// details.  This unexported version takes an operating system argument
// primarily to enable the testing package to properly test the function by
// forcing an operating system that is not the currently one.
func appDatadir(appName string, roaming bool) string {
	if appName == "" || appName == "." {
		return "."
	}

	// The caller really shouldn't prepend the appName with a period, but
	// if they do, handle it gracefully by trimming it.
	appName = strings.TrimPrefix(appName, ".")
	appNameUpper := string(unicode.ToUpper(rune(appName[0]))) + appName[1:]
	appNameLower := string(unicode.ToLower(rune(appName[0]))) + appName[1:]

	// Get the OS specific home directory via the Go standard lib.
	var homeDir string
	usr, err := user.Current()
	if err == nil {
		homeDir = usr.HomeDir
	}

	// Fall back to standard HOME environment variable that works
	// for most POSIX OSes if the directory from the Go standard
	// lib failed.
	if err != nil || homeDir == "" {
		homeDir = os.Getenv("HOME")
	}

	goos := runtime.GOOS
	switch goos {
	// Attempt to use the LOCALAPPDATA or APPDATA environment variable on
	// Windows.
	case "windows":
		// Windows XP and before didn't have a LOCALAPPDATA, so fallback
		// to regular APPDATA when LOCALAPPDATA is not set.
		appData := os.Getenv("LOCALAPPDATA")
		if roaming || appData == "" {
			appData = os.Getenv("APPDATA")
		}

		if appData != "" {
			return filepath.Join(appData, appNameUpper)
		}

	case "darwin":
		if homeDir != "" {
			return filepath.Join(homeDir, "Library",
				"Application Support", appNameUpper)
		}

	case "plan9":
		if homeDir != "" {
			return filepath.Join(homeDir, appNameLower)
		}

	default:
		if homeDir != "" {
			return filepath.Join(homeDir, "."+appNameLower)
		}
	}

	// Fall back to the current directory if all else fails.
	return "."
}
