package config

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/a8m/envsubst"
	"github.com/pkg/errors"

	"go.viam.com/mpc/logging"
)

// Read reads a config from the given file, substituting environment variables first.
func Read(filePath string, logger logging.Logger) (*Config, error) {
	buf, err := envsubst.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	return FromReader(filePath, bytes.NewReader(buf), logger)
}

// FromReader reads a config from the given reader and specifies
// where, if applicable, the file the reader originated from.
func FromReader(originalPath string, r io.Reader, logger logging.Logger) (*Config, error) {
	cfg := Default()
	if err := json.NewDecoder(r).Decode(cfg); err != nil {
		return nil, errors.Wrapf(err, "failed to decode Config from json")
	}
	cfg.ConfigFilePath = originalPath

	if err := DecodeAttributes(cfg.Attributes, &cfg.Controller); err != nil {
		return nil, errors.Wrap(err, "applying controller attributes")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger.Debugw("loaded config",
		"path", originalPath,
		"steps_ahead", cfg.Controller.StepsAhead,
		"dt", cfg.Controller.Dt,
		"ref_v", cfg.Controller.RefV,
		"attributes", cfg.Attributes.Keys(),
	)
	return cfg, nil
}
