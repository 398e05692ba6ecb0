// Package meeting issues credentials for online sessions.
package meeting

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Alijeyrad/simorq_sessions/pkg/util/codes"
)

// Credentials identify an online meeting room.
type Credentials struct {
	Link     string
	ID       string
	Password string
}

// Provisioner creates meeting credentials for a session.
type Provisioner interface {
	Provision(ctx context.Context, sessionID uuid.UUID) (Credentials, error)
}

const (
	idLength       = 12
	idGroupSize    = 4
	passwordLength = 10
)

// RandomProvisioner generates random room ids and passwords on a fixed
// meeting host. It does not call any conferencing API.
type RandomProvisioner struct {
	baseURL string
	gen     *codes.Generator
}

func NewRandomProvisioner(baseURL string, gen *codes.Generator) *RandomProvisioner {
	if gen == nil {
		gen = codes.New(codes.DefaultConfig())
	}
	return &RandomProvisioner{baseURL: strings.TrimRight(baseURL, "/"), gen: gen}
}

func (p *RandomProvisioner) Provision(ctx context.Context, sessionID uuid.UUID) (Credentials, error) {
	if err := ctx.Err(); err != nil {
		return Credentials{}, err
	}
	raw, err := codes.GenerateCode(idLength, "ABCDEFGHJKMNPQRSTUVWXYZ23456789")
	if err != nil {
		return Credentials{}, fmt.Errorf("meeting id: %w", err)
	}
	password, err := p.gen.Code(passwordLength)
	if err != nil {
		return Credentials{}, fmt.Errorf("meeting password: %w", err)
	}
	id := codes.FormatCode(raw, idGroupSize)
	return Credentials{
		Link:     fmt.Sprintf("%s/%s", p.baseURL, strings.ToLower(raw)),
		ID:       id,
		Password: password,
	}, nil
}
