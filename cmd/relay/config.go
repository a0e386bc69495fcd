package main

import "github.com/go-playground/validator/v10"

type Config struct {
	Host     string `env:"HOST,default=localhost"`
	Port     int    `env:"PORT,default=8081" validate:"gt=0,lte=65535"`
	LogLevel string `env:"LOG_LEVEL,default=INFO"`
}

func (c Config) Validate() error {
	return validator.New().Struct(c)
}
