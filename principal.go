package taskguard

// Principal is the only identity representation downstream logic may
// trust. It is derived exclusively from validated claims, never from
// client supplied request fields.
type Principal struct {
	UserID   int64  `json:"userId"`
	Username string `json:"username"`
}

// PrincipalFromClaims builds a Principal from validated claims.
func PrincipalFromClaims(claims AuthClaims) (*Principal, error) {
	if claims == nil {
		return nil, ErrUnableToMapClaims
	}

	if claims.UserID() == 0 || claims.Username() == "" {
		return nil, ErrUnableToMapClaims
	}

	return &Principal{
		UserID:   claims.UserID(),
		Username: claims.Username(),
	}, nil
}

// Owns reports whether the principal owns a resource with the given
// owner id. All authorization decisions reduce to this comparison.
func (p Principal) Owns(ownerID int64) bool {
	return p.UserID != 0 && p.UserID == ownerID
}
