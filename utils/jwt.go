package utils

import (
	"errors"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var JWTSecret []byte

func init() {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		// default untuk development, sama dengan .env
		secret = "SchedulingEngineDevSecret"
	}
	JWTSecret = []byte(secret)
}

// TenantClaims adalah konteks (org, restaurant, actor) yang sudah
// di-otorisasi platform host. Engine tidak mengelola akun; ia hanya
// membaca klaim yang diterbitkan host.
type TenantClaims struct {
	OrgID        uint   `json:"org_id"`
	RestaurantID uint   `json:"restaurant_id"`
	ActorID      uint   `json:"actor_id"`
	Role         string `json:"role"`
	jwt.RegisteredClaims
}

func GenerateTenantToken(orgID, restaurantID, actorID uint, role string) (string, error) {
	claims := &TenantClaims{
		OrgID:        orgID,
		RestaurantID: restaurantID,
		ActorID:      actorID,
		Role:         role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour * 24)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "SchedulingEngine",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(JWTSecret)
}

func ParseTenantToken(tokenString string) (*TenantClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &TenantClaims{}, func(token *jwt.Token) (interface{}, error) {
		return JWTSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, errors.New("invalid or expired token")
	}
	claims, ok := token.Claims.(*TenantClaims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

// ManageClaims memberi customer hak baca/batal atas satu reservasi lewat
// token, tanpa kepemilikan identitas.
type ManageClaims struct {
	OrgID            uint   `json:"org_id"`
	RestaurantID     uint   `json:"restaurant_id"`
	ConfirmationCode string `json:"confirmation_code"`
	jwt.RegisteredClaims
}

func GenerateManageToken(orgID, restaurantID uint, confirmationCode string) (string, error) {
	claims := &ManageClaims{
		OrgID:            orgID,
		RestaurantID:     restaurantID,
		ConfirmationCode: confirmationCode,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour * 72)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "SchedulingEngine",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(JWTSecret)
}

func ParseManageToken(tokenString string) (*ManageClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &ManageClaims{}, func(token *jwt.Token) (interface{}, error) {
		return JWTSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, errors.New("invalid or expired manage token")
	}
	claims, ok := token.Claims.(*ManageClaims)
	if !ok {
		return nil, errors.New("invalid manage token claims")
	}
	return claims, nil
}
