// ABOUTME: Viper-based configuration: defaults, env bindings, persisted state
// ABOUTME: Remembers the last opened media path between runs
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// appName prefixes environment variables and names the config file.
const appName = "loopdeck"

// EnvKeyReplacer normalizes configuration keys into environment variable
// naming conventions.
var EnvKeyReplacer = strings.NewReplacer(".", "_")

// Configuration keys.
const (
	KeyAudioBackend = "audio.backend"
	KeyAudioVolume  = "audio.volume"
	KeyRemotePort   = "remote.port"
	KeyRemoteMDNS   = "remote.mdns"
	KeyLogLevel     = "log.level"
	KeyLogFile      = "log.file"
	KeyLastPath     = "last.path"
	KeyLastFrames   = "last.frames"
)

// Default holds the factory default for every key.
var Default = map[string]any{
	KeyAudioBackend: "malgo",
	KeyAudioVolume:  1.0,
	KeyRemotePort:   0,
	KeyRemoteMDNS:   true,
	KeyLogLevel:     "info",
	KeyLogFile:      "",
	KeyLastPath:     "",
	KeyLastFrames:   "",
}

// dirOverride lets tests point the config at a scratch directory.
var dirOverride string

// Dir returns the directory holding the config file.
func Dir() string {
	if dirOverride != "" {
		return dirOverride
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "."
	}
	return filepath.Join(base, appName)
}

// Setup initializes defaults, environment bindings and reads the config file
// if one exists. A missing file is not an error.
func Setup() error {
	viper.SetConfigName(appName)
	viper.SetConfigType("toml")
	viper.AddConfigPath(Dir())

	viper.SetEnvPrefix(appName)
	viper.SetEnvKeyReplacer(EnvKeyReplacer)
	viper.AutomaticEnv()

	viper.SetTypeByDefaultValue(true)
	for name, value := range Default {
		viper.SetDefault(name, value)
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return err
	}

	return nil
}

// Save writes the current configuration to disk, creating the directory on
// first use.
func Save() error {
	dir := Dir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return viper.WriteConfigAs(filepath.Join(dir, appName+".toml"))
}

// RememberSession persists the media the deck had open so the next run can
// offer to resume it.
func RememberSession(path, framesDir string) error {
	viper.Set(KeyLastPath, path)
	viper.Set(KeyLastFrames, framesDir)
	return Save()
}

// LastPath returns the most recently opened media path, or "".
func LastPath() string {
	return viper.GetString(KeyLastPath)
}

// LastFrames returns the frame directory paired with LastPath, or "".
func LastFrames() string {
	return viper.GetString(KeyLastFrames)
}

// Backend returns the configured audio backend name.
func Backend() string {
	return viper.GetString(KeyAudioBackend)
}

// Volume returns the configured output volume in [0,1].
func Volume() float64 {
	return viper.GetFloat64(KeyAudioVolume)
}

// RemotePort returns the remote control port.
func RemotePort() int {
	return viper.GetInt(KeyRemotePort)
}

// MDNSEnabled reports whether the remote endpoint should be advertised.
func MDNSEnabled() bool {
	return viper.GetBool(KeyRemoteMDNS)
}

// LogLevel returns the configured log level name.
func LogLevel() string {
	return viper.GetString(KeyLogLevel)
}

// LogFile returns the log file path, or "" for none.
func LogFile() string {
	return viper.GetString(KeyLogFile)
}
