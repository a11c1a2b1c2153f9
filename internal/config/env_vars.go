package config

import "strings"

type EnvVars struct {
	AppName  string `env:"APP_NAME" envDefault:"Attendance Admin"`
	Env      string `env:"ENV" envDefault:"DEV"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	LogFile  string `env:"LOG_FILE"`
}

var _ EnvConfig = EnvVars{}

func (e EnvVars) GetAppName() string {
	return e.AppName
}

func (e EnvVars) GetEnv() string {
	if e.Env == "" {
		return "DEV"
	}
	return strings.ToUpper(e.Env)
}

func (e EnvVars) GetLogLevel() string {
	return e.LogLevel
}

// GetLogFile returns the path of the rotating log file. Empty means log to stderr only.
func (e EnvVars) GetLogFile() string {
	return e.LogFile
}

func (e EnvVars) IsDev() bool {
	return e.GetEnv() == "DEV"
}
