package datagen

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"
)

// VariantKind names a single-field mutation of a valid registration bundle.
type VariantKind string

const (
	EmptyName                VariantKind = "empty-name"
	EmptyEmail               VariantKind = "empty-email"
	EmptyUsername            VariantKind = "empty-username"
	EmptyPasswordPair        VariantKind = "empty-password-pair"
	MismatchedPassword       VariantKind = "mismatched-password"
	MalformedEmail           VariantKind = "malformed-email"
	OverlongPassword         VariantKind = "overlong-password"
	SpecialCharacterUsername VariantKind = "special-character-username"
)

// AllVariantKinds lists every supported mutation.
var AllVariantKinds = []VariantKind{
	EmptyName,
	EmptyEmail,
	EmptyUsername,
	EmptyPasswordPair,
	MismatchedPassword,
	MalformedEmail,
	OverlongPassword,
	SpecialCharacterUsername,
}

const (
	validPassword    = "TestPass@123"
	mismatchPassword = "Different@123"
	overlongLength   = 100
)

// seq disambiguates values generated within the same clock tick.
var seq atomic.Uint64

// Generator produces unique scenario data.
type Generator struct {
	now func() time.Time
}

// New returns a Generator using the wall clock.
func New() *Generator {
	return &Generator{now: time.Now}
}

func (g *Generator) stamp() string {
	now := time.Now
	if g != nil && g.now != nil {
		now = g.now
	}
	t := now()
	return fmt.Sprintf("%s%06d_%d", t.Format("20060102150405"), t.Nanosecond()/1000, seq.Add(1))
}

// UniqueUsername returns a username that no other call in this process returns.
func (g *Generator) UniqueUsername() string {
	return "testuser_" + g.stamp()
}

// UniqueEmail returns an email address that no other call in this process returns.
func (g *Generator) UniqueEmail() string {
	return "test_" + g.stamp() + "@example.com"
}

// ValidRegistration returns a self-consistent bundle with fresh username and email.
func (g *Generator) ValidRegistration() Bundle {
	return Bundle{
		Name:       "Test User",
		Email:      g.UniqueEmail(),
		Username:   g.UniqueUsername(),
		Password:   validPassword,
		RePassword: validPassword,
	}
}

// InvalidVariant derives one mutation from a fresh valid bundle. Exactly one
// dimension changes; the password pair counts as one dimension.
func (g *Generator) InvalidVariant(kind VariantKind) (Bundle, error) {
	return Mutate(g.ValidRegistration(), kind)
}

// Variants returns every mutation of one shared valid bundle.
func (g *Generator) Variants() map[VariantKind]Bundle {
	base := g.ValidRegistration()
	out := make(map[VariantKind]Bundle, len(AllVariantKinds))
	for _, kind := range AllVariantKinds {
		b, _ := Mutate(base, kind)
		out[kind] = b
	}
	return out
}

// Mutate applies kind to base.
func Mutate(base Bundle, kind VariantKind) (Bundle, error) {
	b := base
	switch kind {
	case EmptyName:
		b.Name = ""
	case EmptyEmail:
		b.Email = ""
	case EmptyUsername:
		b.Username = ""
	case EmptyPasswordPair:
		b.Password, b.RePassword = "", ""
	case MismatchedPassword:
		b.RePassword = mismatchPassword
	case MalformedEmail:
		b.Email = "invalid-email"
	case OverlongPassword:
		long := strings.Repeat("A", overlongLength)
		b.Password, b.RePassword = long, long
	case SpecialCharacterUsername:
		b.Username = "user@test#123"
	default:
		return Bundle{}, fmt.Errorf("datagen: unknown variant %q", kind)
	}
	return b, nil
}
