package command

import (
	"strings"

	"github.com/google/uuid"
)

// idLength is the number of random characters appended to an id: short enough
// to stay human-inspectable in logs, long enough that collisions within one
// channel's in-flight window are vanishingly unlikely.
const idLength = 8

// GenerateID returns a fresh command id of the form "ID-xxxxxxxx".
// Uniqueness is the caller's responsibility across concurrently in-flight
// commands; colliding ids cause answer misattribution.
func GenerateID() string {
	return GenerateTaggedID("ID")
}

// GenerateTaggedID returns a fresh id prefixed with tag, e.g.
// "LAUNCH-WORKER-xxxxxxxx". Tags group related ids when scanning logs.
func GenerateTaggedID(tag string) string {
	s := strings.ReplaceAll(uuid.NewString(), "-", "")
	return tag + "-" + s[:idLength]
}
