// Package classify categorizes a token pair by the roles its tokens play on a
// network: stablecoin, native asset, wrapped native asset.
package classify

import (
	"errors"
	"fmt"

	"poolScope/internal/network"
)

// ErrInvariantViolation marks programming errors that must not be defaulted away.
var ErrInvariantViolation = errors.New("invariant violation")

// Role names the token role a find function looks for.
type Role string

const (
	RoleStable        Role = "stable"
	RoleNative        Role = "native"
	RoleWrappedNative Role = "wrapped-native"
)

// ClassificationError is returned when a find function is called on a pair
// that does not contain the requested role.
type ClassificationError struct {
	Role   Role
	Token0 string
	Token1 string
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("pair %s/%s has no %s token", e.Token0, e.Token1, e.Role)
}

func (e *ClassificationError) Unwrap() error {
	return ErrInvariantViolation
}

// Side identifies a token position in a pool.
type Side int

const (
	Token0 Side = iota
	Token1
)

// Other returns the opposite side.
func (s Side) Other() Side {
	return 1 - s
}

// Pair is a pool's two token addresses on a network.
type Pair struct {
	Token0  string
	Token1  string
	Network network.Network
}

func (p Pair) address(s Side) string {
	if s == Token0 {
		return p.Token0
	}
	return p.Token1
}

// IsStableOnlyPool reports whether both tokens are stablecoins.
func IsStableOnlyPool(p Pair) bool {
	return p.Network.IsStablecoin(p.Token0) && p.Network.IsStablecoin(p.Token1)
}

// IsVariableWithStablePool reports whether exactly one token is a stablecoin.
func IsVariableWithStablePool(p Pair) bool {
	return p.Network.IsStablecoin(p.Token0) != p.Network.IsStablecoin(p.Token1)
}

// IsNativePool reports whether either token is the native sentinel.
func IsNativePool(p Pair) bool {
	return p.Network.IsNative(p.Token0) || p.Network.IsNative(p.Token1)
}

// IsWrappedNativePool reports whether either token is the wrapped native asset.
func IsWrappedNativePool(p Pair) bool {
	return p.Network.IsWrappedNative(p.Token0) || p.Network.IsWrappedNative(p.Token1)
}

// FindStableToken returns the side holding a stablecoin, token0 first.
func FindStableToken(p Pair) (Side, error) {
	return find(p, RoleStable, p.Network.IsStablecoin)
}

// FindNativeToken returns the side holding the native sentinel.
func FindNativeToken(p Pair) (Side, error) {
	return find(p, RoleNative, p.Network.IsNative)
}

// FindWrappedNative returns the side holding the wrapped native asset.
func FindWrappedNative(p Pair) (Side, error) {
	return find(p, RoleWrappedNative, p.Network.IsWrappedNative)
}

func find(p Pair, role Role, match func(string) bool) (Side, error) {
	for _, side := range []Side{Token0, Token1} {
		if match(p.address(side)) {
			return side, nil
		}
	}
	return Token0, &ClassificationError{Role: role, Token0: p.Token0, Token1: p.Token1}
}
