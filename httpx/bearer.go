package httpx

import (
	"database/sql"

	"github.com/akozyrev/surveys-api/config"
	"github.com/go-chi/oauth"
)

func NewBearerServer(db *sql.DB, cfg config.Config) *oauth.BearerServer {
	return oauth.NewBearerServer(cfg.TokenSecret, cfg.TokenTTL, CredentialsVerifier(db), nil)
}
