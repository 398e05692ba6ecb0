package pasetotoken

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	paseto "aidanwoods.dev/go-paseto"
	"github.com/google/uuid"
)

type Config struct {
	Mode      Mode
	Issuer    string
	Audience  string
	AccessTTL time.Duration
	Implicit  []byte
}

type Manager struct {
	cfg  Config
	keys Keys
	now  func() time.Time
}

func New(cfg Config, keys Keys) (*Manager, error) {
	if cfg.Mode != keys.Mode {
		return nil, ErrConfig{Msg: "cfg.Mode must match keys.Mode"}
	}
	if cfg.Issuer == "" {
		return nil, ErrConfig{Msg: "Issuer is required"}
	}
	if cfg.Audience == "" {
		return nil, ErrConfig{Msg: "Audience is required"}
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = 15 * time.Minute
	}
	return &Manager{cfg: cfg, keys: keys, now: time.Now}, nil
}

// Issue returns a v4 access token carrying the user id and role.
func (m *Manager) Issue(userID uuid.UUID, role string) (string, time.Time, error) {
	now := m.now()
	exp := now.Add(m.cfg.AccessTTL)

	tok := paseto.NewToken()
	tok.SetIssuer(m.cfg.Issuer)
	tok.SetAudience(m.cfg.Audience)
	tok.SetJti(randHex(16))
	tok.SetIssuedAt(now)
	tok.SetNotBefore(now)
	tok.SetExpiration(exp)
	tok.SetSubject(userID.String())
	tok.SetString("rol", role)

	switch m.cfg.Mode {
	case ModeLocal:
		if m.keys.Symmetric == nil {
			return "", time.Time{}, ErrConfig{Msg: "missing symmetric key"}
		}
		return tok.V4Encrypt(*m.keys.Symmetric, m.cfg.Implicit), exp, nil
	case ModePublic:
		if m.keys.Secret == nil {
			return "", time.Time{}, ErrConfig{Msg: "missing secret key"}
		}
		return tok.V4Sign(*m.keys.Secret, m.cfg.Implicit), exp, nil
	default:
		return "", time.Time{}, ErrConfig{Msg: "unknown mode"}
	}
}

func (m *Manager) Verify(tokenStr string) (*Claims, error) {
	p := paseto.NewParserWithoutExpiryCheck()
	p.AddRule(paseto.IssuedBy(m.cfg.Issuer))
	p.AddRule(paseto.ForAudience(m.cfg.Audience))
	p.AddRule(paseto.ValidAt(m.now()))

	var (
		tok *paseto.Token
		err error
	)
	switch m.cfg.Mode {
	case ModeLocal:
		if m.keys.Symmetric == nil {
			return nil, ErrConfig{Msg: "missing symmetric key"}
		}
		tok, err = p.ParseV4Local(*m.keys.Symmetric, tokenStr, m.cfg.Implicit)
	case ModePublic:
		if m.keys.Public == nil {
			return nil, ErrConfig{Msg: "missing public key"}
		}
		tok, err = p.ParseV4Public(*m.keys.Public, tokenStr, m.cfg.Implicit)
	default:
		return nil, ErrConfig{Msg: "unknown mode"}
	}
	if err != nil {
		return nil, ErrInvalidToken{Err: err}
	}

	claims, err := m.extractClaims(tok)
	if err != nil {
		return nil, ErrInvalidToken{Err: err}
	}
	return claims, nil
}

func (m *Manager) extractClaims(tok *paseto.Token) (*Claims, error) {
	jti, err := tok.GetJti()
	if err != nil {
		return nil, err
	}
	sub, err := tok.GetSubject()
	if err != nil {
		return nil, err
	}
	uid, err := uuid.Parse(sub)
	if err != nil {
		return nil, err
	}
	role, err := tok.GetString("rol")
	if err != nil {
		return nil, err
	}
	iat, err := tok.GetIssuedAt()
	if err != nil {
		return nil, err
	}
	exp, err := tok.GetExpiration()
	if err != nil {
		return nil, err
	}
	return &Claims{
		UserID:    uid,
		Role:      role,
		Issuer:    m.cfg.Issuer,
		Audience:  m.cfg.Audience,
		TokenID:   jti,
		IssuedAt:  iat,
		ExpiresAt: exp,
	}, nil
}

func randHex(nBytes int) string {
	b := make([]byte, nBytes)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
