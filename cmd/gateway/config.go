package main

import (
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

type Config struct {
	Host                 string        `env:"HOST,default=localhost"`
	Port                 int           `env:"PORT,default=8080" validate:"gt=0,lte=65535"`
	RelayAddr            string        `env:"RELAY_ADDR"`
	StrictJoin           bool          `env:"STRICT_JOIN,default=false"`
	ConnectionBufferSize int           `env:"CONNECTION_BUFFER_SIZE,default=64" validate:"gt=0"`
	RelayBufferSize      int           `env:"RELAY_BUFFER_SIZE,default=256" validate:"gt=0"`
	DeliveryTimeout      time.Duration `env:"DELIVERY_TIMEOUT,default=5s" validate:"gt=0"`
	RestartInterval      time.Duration `env:"RESTART_INTERVAL,default=3s" validate:"gt=0"`
	StatsInterval        time.Duration `env:"STATS_INTERVAL,default=30s" validate:"gt=0"`
	ModerationEnabled    bool          `env:"MODERATION_ENABLED,default=true"`
	CharReplacement      string        `env:"MODERATION_CHARACTER_REPLACEMENT,default=*" validate:"min=1"`
	LogLevel             string        `env:"LOG_LEVEL,default=INFO"`
}

func (c Config) Validate() error {
	return validator.New().Struct(c)
}

// CharacterRune returns the first rune of the configured replacement string.
func (c Config) CharacterRune() rune {
	r, _ := utf8.DecodeRuneInString(c.CharReplacement)
	return r
}
