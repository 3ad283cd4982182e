package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

type hasher struct {
	cost   int
	pepper string
}

func newHasher(cost int, pepper string) (*hasher, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost out of range: %d", cost)
	}
	return &hasher{cost: cost, pepper: pepper}, nil
}

func (h *hasher) hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password+h.pepper), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func (h *hasher) verify(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password+h.pepper)) == nil
}
