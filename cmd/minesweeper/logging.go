package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/snowzach/rotatefilehook"

	"github.com/vancomm/multisweeper/internal/config"
)

func setupLogging(cfg *config.Config) error {
	level := logrus.InfoLevel
	if cfg.Development() || cfg.Debug {
		level = logrus.DebugLevel
	}
	if cfg.LogLevel != "" {
		var err error
		if level, err = logrus.ParseLevel(cfg.LogLevel); err != nil {
			return fmt.Errorf("invalid log level: %w", err)
		}
	}
	log.SetLevel(level)

	if cfg.Production() {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{ForceColors: true})
	}

	if cfg.LogFile == "" {
		return nil
	}
	hook, err := rotatefilehook.NewRotateFileHook(rotatefilehook.RotateFileConfig{
		Filename:   cfg.LogFile,
		MaxSize:    50, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
		Level:      level,
		Formatter:  &logrus.JSONFormatter{},
	})
	if err != nil {
		return fmt.Errorf("unable to open log file: %w", err)
	}
	log.AddHook(hook)
	return nil
}
