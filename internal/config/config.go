package config

import (
	"fmt"
	"os"
	"strconv"
)

// Settings holds the validated runtime configuration for the visit and
// evidence workflows. Database and server settings stay in main, matching the
// rest of the env handling.
type Settings struct {
	// CheckInMaxDistanceM is the GPS gate radius in meters. Required: there is
	// no default, permissive or otherwise.
	CheckInMaxDistanceM float64

	// EvidenceRequireVisit controls whether evidence submitted outside an open
	// visit is rejected (true) or stored with a null visit reference (false).
	EvidenceRequireVisit bool

	// UploadDir is where the local photo backend writes files.
	UploadDir string

	// MaxUploadBytes caps multipart photo/pdf uploads.
	MaxUploadBytes int64
}

const defaultMaxUploadBytes = 10 << 20 // 10MB

// Load reads and validates settings from the environment. A missing or
// malformed CHECKIN_MAX_DISTANCE_M is a startup error, never a fallback.
func Load() (*Settings, error) {
	raw := os.Getenv("CHECKIN_MAX_DISTANCE_M")
	if raw == "" {
		return nil, fmt.Errorf("CHECKIN_MAX_DISTANCE_M is required (meters, e.g. 200)")
	}
	radius, err := strconv.ParseFloat(raw, 64)
	if err != nil || radius <= 0 {
		return nil, fmt.Errorf("CHECKIN_MAX_DISTANCE_M must be a positive number, got %q", raw)
	}

	s := &Settings{
		CheckInMaxDistanceM:  radius,
		EvidenceRequireVisit: os.Getenv("EVIDENCE_REQUIRE_VISIT") == "true",
		UploadDir:            os.Getenv("UPLOAD_DIR"),
		MaxUploadBytes:       defaultMaxUploadBytes,
	}
	if s.UploadDir == "" {
		s.UploadDir = "./uploads"
	}
	if raw := os.Getenv("MAX_UPLOAD_BYTES"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("MAX_UPLOAD_BYTES must be a positive integer, got %q", raw)
		}
		s.MaxUploadBytes = n
	}

	return s, nil
}
