package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/Alfheimr-Chess/alfheimr-server/internal/logic"
)

// jwtSeats signs seat tokens: an HS256 JWT binding a game ID to a color.
// A client presents it as ?token= on /ws to reclaim its seat.
type jwtSeats struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func newSeats(secret string, ttl time.Duration) *jwtSeats {
	return &jwtSeats{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (s *jwtSeats) Issue(gameID string, c logic.Color) (string, error) {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"game":  gameID,
		"color": c.String(),
		"exp":   now.Add(s.ttl).Unix(),
		"iat":   now.Unix(),
	})
	return token.SignedString(s.secret)
}

func (s *jwtSeats) Verify(tokenStr string) (string, logic.Color, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid {
		return "", 0, fmt.Errorf("invalid seat token: %w", err)
	}
	gameID, _ := claims["game"].(string)
	colorName, _ := claims["color"].(string)
	if gameID == "" || colorName == "" {
		return "", 0, errors.New("invalid seat token: missing claims")
	}
	c, err := logic.ParseColor(colorName)
	if err != nil {
		return "", 0, fmt.Errorf("invalid seat token: %w", err)
	}
	return gameID, c, nil
}

// checkPassword is a bcrypt verifier.
func checkPassword(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}
