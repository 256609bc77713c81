package shapes

import (
	"time"

	opt "github.com/samber/mo"
)

// @Builder
type Command struct {
	executable string
	// @builder(each = "arg")
	args      []string
	env       []string `builder:"each=env"`
	current   opt.Option[string]
	at, until time.Time
}

// @CustomDebug
type Field[T any, K comparable] struct {
	name    string
	bitmask uint8 // @debug = "0b%08b"
	mode    uint8 `json:"mode" debug:"%#o"`
	marker  [0]T
	lookup  map[K]string
}

type Reader interface {
	Read(p []byte) (int, error)
}

type Celsius float64

type Stamp = time.Time

type Wrapper struct {
	time.Time
	name string
}
