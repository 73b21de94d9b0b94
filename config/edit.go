package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/creachadair/tomledit"
	"github.com/creachadair/tomledit/parser"
	"github.com/spf13/viper"

	nsos "github.com/nodesync/nodesync/libs/os"
)

// ErrUnknownKey is returned when editing a key that is not in the config
// file.
var ErrUnknownKey = errors.New("unknown config key")

// SetConfigValue sets key to value in the config file at path, keeping its
// comments and layout. key is dotted, e.g. "blocksync.sweep-interval". value
// is a TOML value; anything that does not parse as one is taken as a string.
// The file is left untouched if the result is not a valid config.
func SetConfigValue(path, key, value string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	doc, err := tomledit.Parse(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	k, err := parser.ParseKey(key)
	if err != nil {
		return fmt.Errorf("invalid key %q: %w", key, err)
	}
	entries := doc.Find(k...)
	if len(entries) != 1 || entries[0].KeyValue == nil {
		return fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}

	v, err := parser.ParseValue(value)
	if err != nil {
		if v, err = parser.ParseValue(strconv.Quote(value)); err != nil {
			return fmt.Errorf("invalid value %q: %w", value, err)
		}
	}
	entries[0].KeyValue.Value = v

	var buf bytes.Buffer
	if err := tomledit.Format(&buf, doc); err != nil {
		return err
	}
	if _, err := decodeConfig(buf.Bytes()); err != nil {
		return fmt.Errorf("setting %s: %w", key, err)
	}

	return nsos.WriteFileAtomic(path, buf.Bytes(), 0644)
}

// decodeConfig reads a config file body on top of the defaults and
// validates it.
func decodeConfig(bz []byte) (*Config, error) {
	v := viper.New()
	v.SetConfigType("toml")
	if err := v.ReadConfig(bytes.NewReader(bz)); err != nil {
		return nil, err
	}

	conf := DefaultConfig()
	if err := v.Unmarshal(conf); err != nil {
		return nil, err
	}
	if err := conf.ValidateBasic(); err != nil {
		return nil, err
	}
	return conf, nil
}
