package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	apperrors "github.com/ironsheep/omr-sheet-mcp/internal/errors"
)

// Config holds the tunables for the sheet pipeline and the batch coordinator.
type Config struct {
	LogLevel string

	// Workers bounds the number of sheets processed in parallel. OMR_WORKERS=0
	// selects the CPU count.
	Workers int
	// PostQueueSize bounds the queue of rectified sheets awaiting post-processing.
	PostQueueSize int

	Threshold   uint8
	MinBlobSize int
	RadiusMax   int
	RadiusMin   int
	Thorough    bool

	// PreRotate rotates each page counter-clockwise before analysis (0, 90, 180, 270).
	PreRotate int

	OCRFallback bool
	OCRLanguage string

	// FiducialBackend is "blob" (default) or "hough" (requires the gocv build tag).
	FiducialBackend string

	PreviewScale float64
}

// Default returns the configuration used when no environment overrides are set.
func Default() *Config {
	return &Config{
		LogLevel:        "info",
		Workers:         runtime.NumCPU(),
		PostQueueSize:   16,
		Threshold:       240,
		MinBlobSize:     30,
		RadiusMax:       42,
		RadiusMin:       37,
		Thorough:        true,
		PreRotate:       0,
		OCRFallback:     false,
		OCRLanguage:     "eng",
		FiducialBackend: "blob",
		PreviewScale:    0.25,
	}
}

// Load reads configuration from a .env file (if present) and the environment.
func Load() (*Config, error) {
	// A missing .env file is not an error
	_ = godotenv.Load()

	cfg := Default()
	cfg.LogLevel = getEnv("OMR_LOG_LEVEL", getEnv("LOG_LEVEL", cfg.LogLevel))
	cfg.OCRLanguage = getEnv("OMR_OCR_LANGUAGE", cfg.OCRLanguage)
	cfg.FiducialBackend = strings.ToLower(getEnv("OMR_FIDUCIAL_BACKEND", cfg.FiducialBackend))

	var err error
	if cfg.Workers, err = getInt("OMR_WORKERS", cfg.Workers); err != nil {
		return nil, err
	}
	if cfg.Workers == 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.PostQueueSize, err = getInt("OMR_POST_QUEUE_SIZE", cfg.PostQueueSize); err != nil {
		return nil, err
	}
	threshold, err := getInt("OMR_THRESHOLD", int(cfg.Threshold))
	if err != nil {
		return nil, err
	}
	if threshold < 0 || threshold > 255 {
		return nil, apperrors.NewInvalidInputError(fmt.Sprintf("OMR_THRESHOLD must be 0-255, got %d", threshold), nil)
	}
	cfg.Threshold = uint8(threshold)
	if cfg.MinBlobSize, err = getInt("OMR_MIN_BLOB", cfg.MinBlobSize); err != nil {
		return nil, err
	}
	if cfg.RadiusMax, err = getInt("OMR_RADIUS_MAX", cfg.RadiusMax); err != nil {
		return nil, err
	}
	if cfg.RadiusMin, err = getInt("OMR_RADIUS_MIN", cfg.RadiusMin); err != nil {
		return nil, err
	}
	if cfg.Thorough, err = getBool("OMR_THOROUGH", cfg.Thorough); err != nil {
		return nil, err
	}
	if cfg.PreRotate, err = getInt("OMR_PRE_ROTATE", cfg.PreRotate); err != nil {
		return nil, err
	}
	if cfg.OCRFallback, err = getBool("OMR_OCR_FALLBACK", cfg.OCRFallback); err != nil {
		return nil, err
	}
	if cfg.PreviewScale, err = getFloat("OMR_PREVIEW_SCALE", cfg.PreviewScale); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if c.Workers <= 0 {
		return apperrors.NewInvalidInputError("workers must be positive", nil)
	}
	if c.PostQueueSize <= 0 {
		return apperrors.NewInvalidInputError("post queue size must be positive", nil)
	}
	if c.RadiusMin <= 0 || c.RadiusMax < c.RadiusMin {
		return apperrors.NewInvalidInputError(
			fmt.Sprintf("radius sweep %d..%d is invalid", c.RadiusMax, c.RadiusMin), nil)
	}
	if c.MinBlobSize < 1 {
		return apperrors.NewInvalidInputError("minimum blob size must be at least 1", nil)
	}
	switch c.PreRotate {
	case 0, 90, 180, 270:
	default:
		return apperrors.NewInvalidInputError(
			fmt.Sprintf("pre-rotation must be 0, 90, 180 or 270, got %d", c.PreRotate), nil)
	}
	switch c.FiducialBackend {
	case "blob", "hough":
	default:
		return apperrors.NewInvalidInputError(
			fmt.Sprintf("unknown fiducial backend %q", c.FiducialBackend), nil)
	}
	if c.PreviewScale <= 0 || c.PreviewScale > 1 {
		return apperrors.NewInvalidInputError("preview scale must be in (0, 1]", nil)
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, apperrors.NewInvalidInputError(fmt.Sprintf("%s is not an integer", key), err)
	}
	return n, nil
}

func getBool(key string, defaultVal bool) (bool, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, apperrors.NewInvalidInputError(fmt.Sprintf("%s is not a boolean", key), err)
	}
	return b, nil
}

func getFloat(key string, defaultVal float64) (float64, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, apperrors.NewInvalidInputError(fmt.Sprintf("%s is not a number", key), err)
	}
	return f, nil
}
