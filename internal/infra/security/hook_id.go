package security

import (
	"crypto/rand"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// Hook id styles.
const (
	HookIDShort = "short" // first UUID group, 8 hex chars
	HookIDUUID  = "uuid"
	HookIDULID  = "ulid"
)

// HookIDGenerator creates the random path segment of a public DDNS webhook URL.
type HookIDGenerator struct {
	style string
	now   func() time.Time
}

func NewHookIDGenerator(style string) (*HookIDGenerator, error) {
	style = strings.ToLower(strings.TrimSpace(style))
	if style == "" {
		style = HookIDShort
	}
	switch style {
	case HookIDShort, HookIDUUID, HookIDULID:
	default:
		return nil, fmt.Errorf("unknown hook id style %q", style)
	}
	return &HookIDGenerator{style: style, now: time.Now}, nil
}

func (g *HookIDGenerator) Style() string { return g.style }

func (g *HookIDGenerator) NewHookID() (string, error) {
	switch g.style {
	case HookIDULID:
		id, err := ulid.New(ulid.Timestamp(g.now()), rand.Reader)
		if err != nil {
			return "", err
		}
		return strings.ToLower(id.String()), nil
	case HookIDUUID:
		id, err := uuid.NewRandom()
		if err != nil {
			return "", err
		}
		return id.String(), nil
	default:
		id, err := uuid.NewRandom()
		if err != nil {
			return "", err
		}
		return strings.SplitN(id.String(), "-", 2)[0], nil
	}
}
