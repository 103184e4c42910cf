// Package naming produces base filenames for stored images. Generated names
// never carry an extension.
package naming

import (
	"crypto/md5"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/yokitheyo/imagekit/internal/domain"
	"github.com/yokitheyo/imagekit/internal/upload"
)

type Strategy string

const (
	StrategyDefault   Strategy = "default"
	StrategyUUID      Strategy = "uuid"
	StrategyHash      Strategy = "hash"
	StrategyTimestamp Strategy = "timestamp"
)

func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case StrategyDefault, StrategyUUID, StrategyHash, StrategyTimestamp:
		return Strategy(s), nil
	case "":
		return StrategyDefault, nil
	}
	return "", domain.InvalidInput("unknown naming strategy %q", s)
}

// Func is a caller supplied naming function. It takes precedence over the
// built-in strategy when set.
type Func func(f *upload.File) string

type Generator struct {
	strategy Strategy
	custom   Func
	now      func() time.Time
}

func NewGenerator(strategy Strategy, custom Func) *Generator {
	return &Generator{strategy: strategy, custom: custom, now: time.Now}
}

func (g *Generator) Strategy() Strategy {
	if g.custom != nil {
		return "custom"
	}
	return g.strategy
}

func (g *Generator) Generate(f *upload.File) (string, error) {
	if g.custom != nil {
		name := g.custom(f)
		if name == "" {
			return "", domain.InvalidInput("custom naming function returned an empty name")
		}
		return name, nil
	}

	switch g.strategy {
	case StrategyUUID:
		return g.uuidName(), nil
	case StrategyHash:
		return g.hashName(f), nil
	case StrategyTimestamp:
		return g.timestampName()
	default:
		return g.defaultName()
	}
}

func (g *Generator) defaultName() (string, error) {
	suffix, err := RandomString(20)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s_%d_%s", Slug("image"), g.now().Unix(), suffix), nil
}

func (g *Generator) uuidName() string {
	id, err := uuid.NewRandom()
	if err != nil {
		name, _ := g.defaultName()
		return name
	}
	return id.String()
}

func (g *Generator) hashName(f *upload.File) string {
	h := md5.New()
	h.Write(f.Bytes())
	h.Write([]byte(strconv.FormatInt(g.now().Unix(), 10)))
	return hex.EncodeToString(h.Sum(nil))
}

func (g *Generator) timestampName() (string, error) {
	suffix, err := RandomString(16)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d_%s", g.now().Unix(), suffix), nil
}

const alphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// RandomString returns n characters drawn from [0-9a-zA-Z].
func RandomString(n int) (string, error) {
	out := make([]byte, n)
	max := big.NewInt(int64(len(alphabet)))
	for i := range out {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate random name: %w", err)
		}
		out[i] = alphabet[idx.Int64()]
	}
	return string(out), nil
}
