// types/auth_response.go
package types

import (
	"github.com/tradeyard/marketplace-backend/internal/models"
	"github.com/tradeyard/marketplace-backend/internal/utils"
)

type AuthResponse struct {
	Tokens utils.TokenPair `json:"tokens"`
	User   models.User     `json:"user"`
}
