package pasetotoken

import (
	"strings"

	paseto "aidanwoods.dev/go-paseto"
)

type Mode string

const (
	ModeLocal  Mode = "local"  // v4.local (encrypted)
	ModePublic Mode = "public" // v4.public (signed)
)

type Keys struct {
	Mode      Mode
	Symmetric *paseto.V4SymmetricKey
	Secret    *paseto.V4AsymmetricSecretKey
	Public    *paseto.V4AsymmetricPublicKey
}

// KeyStrings are hex encoded keys as they appear in config.
type KeyStrings struct {
	Mode         Mode
	SymmetricHex string
	SecretHex    string
	PublicHex    string
}

func LoadKeys(in KeyStrings) (Keys, error) {
	switch in.Mode {
	case ModeLocal:
		return loadLocal(strings.TrimSpace(in.SymmetricHex))
	case ModePublic:
		return loadPublic(strings.TrimSpace(in.SecretHex), strings.TrimSpace(in.PublicHex))
	default:
		return Keys{}, ErrConfig{Msg: "unknown mode (use local|public)"}
	}
}

func loadLocal(hex string) (Keys, error) {
	if hex == "" {
		return Keys{}, ErrConfig{Msg: "local mode requires a symmetric key"}
	}
	k, err := paseto.V4SymmetricKeyFromHex(hex)
	if err != nil {
		return Keys{}, ErrConfig{Msg: "invalid symmetric key hex: " + err.Error()}
	}
	return Keys{Mode: ModeLocal, Symmetric: &k}, nil
}

// loadPublic accepts a secret key (public half derived), a public key for
// verify-only processes, or both.
func loadPublic(secHex, pubHex string) (Keys, error) {
	out := Keys{Mode: ModePublic}
	if secHex != "" {
		sk, err := paseto.NewV4AsymmetricSecretKeyFromHex(secHex)
		if err != nil {
			return Keys{}, ErrConfig{Msg: "invalid secret key hex: " + err.Error()}
		}
		pk := sk.Public()
		out.Secret, out.Public = &sk, &pk
	}
	if pubHex != "" {
		pk, err := paseto.NewV4AsymmetricPublicKeyFromHex(pubHex)
		if err != nil {
			return Keys{}, ErrConfig{Msg: "invalid public key hex: " + err.Error()}
		}
		out.Public = &pk
	}
	if out.Public == nil {
		return Keys{}, ErrConfig{Msg: "public mode requires a secret and/or public key"}
	}
	return out, nil
}

func NewLocalKeys() Keys {
	k := paseto.NewV4SymmetricKey()
	return Keys{Mode: ModeLocal, Symmetric: &k}
}

func NewPublicKeys() Keys {
	sk := paseto.NewV4AsymmetricSecretKey()
	pk := sk.Public()
	return Keys{Mode: ModePublic, Secret: &sk, Public: &pk}
}
