package seeder

import (
	"fmt"
	"strconv"
	"strings"
)

type LookupFunc func(string) (string, bool)

type Config struct {
	DatasetID        string
	Seed             int64
	Users            int
	Products         int
	Orders           int
	MaxItemsPerOrder int
}

func DefaultConfig() Config {
	return Config{
		DatasetID:        "thelook_ecommerce",
		Seed:             1,
		Users:            500,
		Products:         120,
		Orders:           2000,
		MaxItemsPerOrder: 4,
	}
}

func LoadConfigFromEnv(lookup LookupFunc) (Config, error) {
	if lookup == nil {
		return Config{}, fmt.Errorf("lookup function is required")
	}

	cfg := DefaultConfig()
	if err := applyString(lookup, "DATAPILOT_SEED_DATASET_ID", &cfg.DatasetID); err != nil {
		return Config{}, err
	}
	if err := applyInt64(lookup, "DATAPILOT_SEED_SEED", &cfg.Seed); err != nil {
		return Config{}, err
	}
	if err := applyInt(lookup, "DATAPILOT_SEED_USERS", &cfg.Users); err != nil {
		return Config{}, err
	}
	if err := applyInt(lookup, "DATAPILOT_SEED_PRODUCTS", &cfg.Products); err != nil {
		return Config{}, err
	}
	if err := applyInt(lookup, "DATAPILOT_SEED_ORDERS", &cfg.Orders); err != nil {
		return Config{}, err
	}
	if err := applyInt(lookup, "DATAPILOT_SEED_MAX_ITEMS_PER_ORDER", &cfg.MaxItemsPerOrder); err != nil {
		return Config{}, err
	}

	if strings.TrimSpace(cfg.DatasetID) == "" {
		return Config{}, fmt.Errorf("DATAPILOT_SEED_DATASET_ID is required")
	}
	if cfg.Users <= 0 {
		return Config{}, fmt.Errorf("DATAPILOT_SEED_USERS must be > 0")
	}
	if cfg.Products <= 0 {
		return Config{}, fmt.Errorf("DATAPILOT_SEED_PRODUCTS must be > 0")
	}
	if cfg.Orders <= 0 {
		return Config{}, fmt.Errorf("DATAPILOT_SEED_ORDERS must be > 0")
	}
	if cfg.MaxItemsPerOrder <= 0 {
		return Config{}, fmt.Errorf("DATAPILOT_SEED_MAX_ITEMS_PER_ORDER must be > 0")
	}

	cfg.DatasetID = strings.TrimSpace(cfg.DatasetID)
	return cfg, nil
}

func applyString(lookup LookupFunc, key string, dst *string) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	*dst = strings.TrimSpace(raw)
	return nil
}

func applyInt(lookup LookupFunc, key string, dst *int) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = v
	return nil
}

func applyInt64(lookup LookupFunc, key string, dst *int64) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = v
	return nil
}
